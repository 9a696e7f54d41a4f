package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mower-status-backend/internal/state"
)

var noopMessages = map[string]string{
	state.ReasonBatteryOutOfRange:       "battery level must be between 0 and 100",
	state.ReasonNoActiveSession:         "no active session",
	state.ReasonSessionNotFound:         "session not found",
	state.ReasonStaleSession:            "session is no longer current",
	state.ReasonNotificationNotFound:    "notification not found",
	state.ReasonInvalidNotificationType: "invalid notification type",
	state.ReasonInvalidOperatingMode:    "invalid operating mode",
	state.ReasonInvalidSchedule:         "invalid schedule",
	state.ReasonDeviceNotFound:          "device not found",
	state.ReasonDeviceExists:            "device already registered",
	state.ReasonInvalidDevice:           "invalid device",
	state.ReasonInvalidDeviceStatus:     "invalid device status",
}

// noopStatus maps a no-op reason onto the HTTP status reported to the caller.
func noopStatus(reason string) int {
	switch reason {
	case state.ReasonSessionNotFound, state.ReasonNotificationNotFound, state.ReasonDeviceNotFound:
		return http.StatusNotFound
	case state.ReasonDeviceExists, state.ReasonNoActiveSession, state.ReasonStaleSession:
		return http.StatusConflict
	default:
		return http.StatusBadRequest
	}
}

// apply dispatches a and reports a no-op as an error response.
func (h *Handler) apply(c *gin.Context, a state.Action) (state.MowerState, bool) {
	next, _, ok := h.applyOutcome(c, a)
	return next, ok
}

// applyOutcome is apply for handlers that need what the transition did.
func (h *Handler) applyOutcome(c *gin.Context, a state.Action) (state.MowerState, state.Outcome, bool) {
	next, out := h.mower.Apply(a)
	if out.Noop {
		msg, ok := noopMessages[out.Reason]
		if !ok {
			msg = out.Reason
		}
		c.AbortWithStatusJSON(noopStatus(out.Reason), gin.H{"error": msg, "reason": out.Reason})
		return next, out, false
	}
	return next, out, true
}

// GetState returns the whole mower state tree.
func (h *Handler) GetState(c *gin.Context) {
	c.JSON(http.StatusOK, h.mower.State())
}

func (h *Handler) GetBattery(c *gin.Context) {
	s := h.mower.State()
	resp := gin.H{"batteryLevel": s.BatteryLevel}
	if latest, ok := s.LatestBattery(); ok {
		resp["updatedAt"] = latest.Timestamp
	}
	c.JSON(http.StatusOK, resp)
}

func (h *Handler) GetBatteryHistory(c *gin.Context) {
	c.JSON(http.StatusOK, h.mower.State().BatteryHistory)
}

func (h *Handler) GetLocation(c *gin.Context) {
	c.JSON(http.StatusOK, h.mower.State().CurrentLocation)
}

func (h *Handler) GetStatus(c *gin.Context) {
	s := h.mower.State()
	c.JSON(http.StatusOK, gin.H{"status": s.Status, "operationalStatus": s.OperationalStatus})
}

func (h *Handler) GetSessions(c *gin.Context) {
	c.JSON(http.StatusOK, h.mower.State().Sessions)
}

func (h *Handler) GetCurrentSession(c *gin.Context) {
	sess, ok := h.mower.State().CurrentSession()
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "no active session"})
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (h *Handler) GetSession(c *gin.Context) {
	sess, ok := h.mower.State().Session(c.Param("id"))
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "session not found"})
		return
	}
	c.JSON(http.StatusOK, sess)
}

func (h *Handler) GetNotifications(c *gin.Context) {
	s := h.mower.State()
	c.JSON(http.StatusOK, gin.H{"notifications": s.Notifications, "unreadCount": s.UnreadCount()})
}

func (h *Handler) GetSettings(c *gin.Context) {
	c.JSON(http.StatusOK, h.mower.State().Settings)
}

// GetSchedule returns the schedule, or null when none is set.
func (h *Handler) GetSchedule(c *gin.Context) {
	c.JSON(http.StatusOK, h.mower.State().Schedule)
}

func (h *Handler) GetDevices(c *gin.Context) {
	c.JSON(http.StatusOK, h.mower.State().ConnectedDevices)
}

func (h *Handler) GetDevice(c *gin.Context) {
	d, ok := h.mower.State().Device(c.Param("id"))
	if !ok {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "device not found"})
		return
	}
	c.JSON(http.StatusOK, d)
}

type batteryRequest struct {
	Level *int `json:"level" binding:"required"`
}

func (h *Handler) PostBattery(c *gin.Context) {
	var req batteryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	next, ok := h.apply(c, state.UpdateBatteryLevel{Level: *req.Level})
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"batteryLevel": next.BatteryLevel, "notifications": next.Notifications})
}

func (h *Handler) PutLocation(c *gin.Context) {
	var req state.Location
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	next, ok := h.apply(c, state.UpdateLocation{Location: req})
	if !ok {
		return
	}
	c.JSON(http.StatusOK, next.CurrentLocation)
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

func (h *Handler) PutStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	next, ok := h.apply(c, state.UpdateStatus{Status: req.Status})
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": next.Status, "operationalStatus": next.OperationalStatus})
}

// PostSession starts a new session, ending any active one.
func (h *Handler) PostSession(c *gin.Context) {
	next, ok := h.apply(c, state.StartSession{})
	if !ok {
		return
	}
	sess, _ := next.CurrentSession()
	c.JSON(http.StatusCreated, sess)
}

func (h *Handler) PostEndSession(c *gin.Context) {
	_, out, ok := h.applyOutcome(c, state.EndSession{})
	if !ok {
		return
	}
	c.JSON(http.StatusOK, out.Ended)
}

func (h *Handler) PatchSession(c *gin.Context) {
	var req state.SessionUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	id := c.Param("id")
	next, ok := h.apply(c, state.UpdateSession{ID: id, Updates: req})
	if !ok {
		return
	}
	sess, _ := next.Session(id)
	c.JSON(http.StatusOK, sess)
}

type notificationRequest struct {
	Type    state.NotificationType `json:"type" binding:"required"`
	Message string                 `json:"message" binding:"required"`
}

func (h *Handler) PostNotification(c *gin.Context) {
	var req notificationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	next, ok := h.apply(c, state.AddNotification{Kind: req.Type, Message: req.Message})
	if !ok {
		return
	}
	c.JSON(http.StatusCreated, next.Notifications[len(next.Notifications)-1])
}

func (h *Handler) PostNotificationRead(c *gin.Context) {
	if _, ok := h.apply(c, state.MarkNotificationAsRead{ID: c.Param("id")}); !ok {
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *Handler) DeleteNotifications(c *gin.Context) {
	h.mower.Dispatch(state.ClearNotifications{})
	c.Status(http.StatusNoContent)
}

func (h *Handler) PatchSettings(c *gin.Context) {
	var req state.SettingsUpdate
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	next, ok := h.apply(c, state.UpdateSettings{Updates: req})
	if !ok {
		return
	}
	c.JSON(http.StatusOK, next.Settings)
}

func (h *Handler) PutSchedule(c *gin.Context) {
	var req state.Schedule
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	next, ok := h.apply(c, state.ScheduleMowing{Schedule: req})
	if !ok {
		return
	}
	c.JSON(http.StatusOK, next.Schedule)
}

func (h *Handler) PostDevice(c *gin.Context) {
	var req state.Device
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	next, ok := h.apply(c, state.AddDevice{Device: req})
	if !ok {
		return
	}
	d, _ := next.Device(req.ID)
	c.JSON(http.StatusCreated, d)
}

// DeleteDevice is idempotent: removing an unknown device still succeeds.
func (h *Handler) DeleteDevice(c *gin.Context) {
	h.mower.Dispatch(state.RemoveDevice{ID: c.Param("id")})
	c.Status(http.StatusNoContent)
}

type deviceStatusRequest struct {
	Status state.DeviceStatus `json:"status" binding:"required"`
}

func (h *Handler) PutDeviceStatus(c *gin.Context) {
	var req deviceStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	id := c.Param("id")
	next, ok := h.apply(c, state.UpdateDeviceStatus{ID: id, Status: req.Status})
	if !ok {
		return
	}
	d, _ := next.Device(id)
	c.JSON(http.StatusOK, d)
}
