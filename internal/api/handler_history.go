package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mower-status-backend/internal/apperr"
	"mower-status-backend/internal/state"
)

type historyQuery struct {
	Limit int    `form:"limit" binding:"omitempty,min=1,max=500"`
	Type  string `form:"type"`
}

// GetSessionHistory lists archived sessions, newest first.
func (h *Handler) GetSessionHistory(c *gin.Context) {
	var q historyQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}
	if h.store == nil {
		h.respondError(c, errStoreUnavailable)
		return
	}
	records, err := h.store.ListSessions(c.Request.Context(), q.Limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}

// GetNotificationHistory lists archived notifications, optionally of one type.
func (h *Handler) GetNotificationHistory(c *gin.Context) {
	var q historyQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		badRequest(c, err)
		return
	}
	if q.Type != "" && !state.NotificationType(q.Type).Valid() {
		h.respondError(c, apperr.Invalid("type", "unknown notification type "+q.Type))
		return
	}
	if h.store == nil {
		h.respondError(c, errStoreUnavailable)
		return
	}
	records, err := h.store.ListNotifications(c.Request.Context(), q.Type, q.Limit)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, records)
}
