package api

import (
	"errors"
	"net/http"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"mower-status-backend/internal/apperr"
	"mower-status-backend/internal/auth"
	"mower-status-backend/internal/logging"
	"mower-status-backend/internal/metrics"
	"mower-status-backend/internal/mockapi"
	"mower-status-backend/internal/state"
	"mower-status-backend/internal/store"
)

// Deps are the services the handlers operate on.
type Deps struct {
	Mower   *state.Store
	Auth    *auth.Store
	Backend mockapi.Client
	Store   store.Store
	WebPush *webpush.Options
	Metrics *metrics.Metrics
}

// Handler holds shared dependencies for API handlers.
type Handler struct {
	mower   *state.Store
	auth    *auth.Store
	backend mockapi.Client
	store   store.Store
	webpush *webpush.Options
	logger  *logrus.Entry
}

// NewHandler creates a new API handler.
func NewHandler(d Deps) *Handler {
	return &Handler{
		mower:   d.Mower,
		auth:    d.Auth,
		backend: d.Backend,
		store:   d.Store,
		webpush: d.WebPush,
		logger:  logging.NewLogger("api"),
	}
}

// errStoreUnavailable is reported by handlers needing the archive when none is wired.
var errStoreUnavailable = errors.New("storage is not configured")

// respondError writes err as {"error": "..."} with the mapped status.
func (h *Handler) respondError(c *gin.Context, err error) {
	status := apperr.HTTPStatus(err)
	body := gin.H{"error": apperr.Message(err)}

	var verr *apperr.ValidationError
	if errors.As(err, &verr) && verr.Field != "" {
		body["field"] = verr.Field
	}
	if status >= http.StatusInternalServerError {
		h.logger.WithError(err).WithField("path", c.FullPath()).Error("request failed")
	}
	c.AbortWithStatusJSON(status, body)
}

// badRequest reports a body or query that could not be bound.
func badRequest(c *gin.Context, err error) {
	c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": err.Error()})
}
