package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mower-status-backend/internal/auth"
)

type loginRequest struct {
	Username string `json:"username" binding:"required"`
	Email    string `json:"email" binding:"required"`
}

// Login signs the profile in. Rejections are kept in the auth state
// and reported with the field that failed.
func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.auth.Login(c.Request.Context(), auth.User{Username: req.Username, Email: req.Email}); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.auth.State())
}

func (h *Handler) Logout(c *gin.Context) {
	h.auth.Dispatch(auth.Logout{})
	c.Status(http.StatusNoContent)
}

// Me returns the auth state, signed in or not.
func (h *Handler) Me(c *gin.Context) {
	c.JSON(http.StatusOK, h.auth.State())
}

func (h *Handler) PatchProfile(c *gin.Context) {
	if !h.auth.IsAuthenticated() {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
		return
	}
	var req auth.ProfileUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	if err := h.auth.UpdateUserProfile(c.Request.Context(), req); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.auth.State())
}

// ClearAuthError resets the error message and update status.
func (h *Handler) ClearAuthError(c *gin.Context) {
	c.JSON(http.StatusOK, h.auth.Dispatch(auth.ClearError{}))
}
