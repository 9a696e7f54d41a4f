package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"mower-status-backend/internal/mockapi"
	"mower-status-backend/internal/state"
)

// GetMowerDetails loads the mower, messages, zones and work areas in one response.
func (h *Handler) GetMowerDetails(c *gin.Context) {
	details, err := mockapi.LoadDetails(c.Request.Context(), h.backend, c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, details)
}

func (h *Handler) GetDetailedWorkArea(c *gin.Context) {
	area, err := h.backend.GetDetailedWorkArea(c.Request.Context(), c.Param("id"), c.Param("area_id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, area)
}

type startMowingRequest struct {
	AreaID string `json:"areaId" binding:"required"`
}

// StartMowing sends the start command and opens a session once acknowledged.
func (h *Handler) StartMowing(c *gin.Context) {
	var req startMowingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res, err := h.backend.StartMowing(c.Request.Context(), c.Param("id"), req.AreaID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if res.Success {
		h.mower.Dispatch(state.StartSession{})
	}
	c.JSON(http.StatusOK, res)
}

// StopMowing sends the stop command and ends the active session, if any.
func (h *Handler) StopMowing(c *gin.Context) {
	res, err := h.backend.StopMowing(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if res.Success {
		if _, out := h.mower.Apply(state.EndSession{}); out.Noop {
			h.logger.WithFields(logrus.Fields{"mower": c.Param("id"), "reason": out.Reason}).Debug("stop without active session")
		}
	}
	c.JSON(http.StatusOK, res)
}

func (h *Handler) PatchWorkArea(c *gin.Context) {
	var req mockapi.WorkAreaUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	area, err := h.backend.UpdateWorkArea(c.Request.Context(), c.Param("id"), c.Param("area_id"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, area)
}

func (h *Handler) PatchStayOutZone(c *gin.Context) {
	var req mockapi.StayOutZoneUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	zone, err := h.backend.UpdateStayOutZone(c.Request.Context(), c.Param("id"), c.Param("zone_id"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, zone)
}
