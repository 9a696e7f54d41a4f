package api

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"mower-status-backend/internal/logging"
	"mower-status-backend/internal/mw"
)

// RouterConfig tunes the shared middleware.
type RouterConfig struct {
	RateLimit       rate.Limit
	RateBurst       int
	RequestIPHeader string
	CacheTTL        time.Duration
}

// DefaultRouterConfig is 10 requests per second with a burst of 5 and a
// 5 minute response cache.
func DefaultRouterConfig() RouterConfig {
	return RouterConfig{RateLimit: rate.Limit(10), RateBurst: 5, CacheTTL: 5 * time.Minute}
}

// NewRouter creates and configures a new Gin router.
func NewRouter(d Deps, cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), mw.Logger(logging.NewLogger("http")))

	handler := NewHandler(d)

	rateLimiter := mw.RateLimiter(cfg.RateLimit, cfg.RateBurst, cfg.RequestIPHeader)

	// Cache entries are cleaned up every two TTLs.
	cacheStore := cache.New(cfg.CacheTTL, 2*cfg.CacheTTL)
	caching := mw.Cache(cacheStore, cfg.CacheTTL)

	guard := mw.RequireAuth(d.Auth)

	r.GET("/health", handler.Health)
	if d.Metrics != nil {
		r.GET("/metrics", gin.WrapH(d.Metrics.Handler()))
	}

	api := r.Group("/api")
	api.Use(rateLimiter)
	{
		authGroup := api.Group("/auth")
		authGroup.POST("/login", handler.Login)
		authGroup.POST("/logout", handler.Logout)
		authGroup.GET("/me", handler.Me)
		authGroup.PATCH("/profile", handler.PatchProfile)
		authGroup.DELETE("/error", handler.ClearAuthError)

		mower := api.Group("/mower", guard)
		mower.GET("/state", handler.GetState)
		mower.GET("/battery", handler.GetBattery)
		mower.GET("/battery/history", handler.GetBatteryHistory)
		mower.POST("/battery", handler.PostBattery)
		mower.GET("/location", handler.GetLocation)
		mower.PUT("/location", handler.PutLocation)
		mower.GET("/status", handler.GetStatus)
		mower.PUT("/status", handler.PutStatus)
		mower.GET("/sessions", handler.GetSessions)
		mower.POST("/sessions", handler.PostSession)
		mower.GET("/sessions/current", handler.GetCurrentSession)
		mower.POST("/sessions/current/end", handler.PostEndSession)
		mower.GET("/sessions/:id", handler.GetSession)
		mower.PATCH("/sessions/:id", handler.PatchSession)
		mower.GET("/notifications", handler.GetNotifications)
		mower.POST("/notifications", handler.PostNotification)
		mower.DELETE("/notifications", handler.DeleteNotifications)
		mower.POST("/notifications/:id/read", handler.PostNotificationRead)
		mower.GET("/settings", handler.GetSettings)
		mower.PATCH("/settings", handler.PatchSettings)
		mower.GET("/schedule", handler.GetSchedule)
		mower.PUT("/schedule", handler.PutSchedule)
		mower.GET("/devices", handler.GetDevices)
		mower.POST("/devices", handler.PostDevice)
		mower.GET("/devices/:id", handler.GetDevice)
		mower.DELETE("/devices/:id", handler.DeleteDevice)
		mower.PUT("/devices/:id/status", handler.PutDeviceStatus)

		mowers := api.Group("/mowers/:id", guard)
		mowers.GET("", caching, handler.GetMowerDetails)
		mowers.GET("/work-areas/:area_id", caching, handler.GetDetailedWorkArea)
		mowers.PATCH("/work-areas/:area_id", handler.PatchWorkArea)
		mowers.PATCH("/stay-out-zones/:zone_id", handler.PatchStayOutZone)
		mowers.POST("/start", handler.StartMowing)
		mowers.POST("/stop", handler.StopMowing)

		history := api.Group("/history", guard)
		history.GET("/sessions", handler.GetSessionHistory)
		history.GET("/notifications", handler.GetNotificationHistory)

		api.GET("/subscriptions", handler.GetSubscription)
		api.PUT("/subscriptions", handler.PutSubscription)
		api.DELETE("/subscriptions", handler.DeleteSubscription)
		api.GET("/vapid_public_key", handler.GetVAPIDPublicKey)
	}

	return r
}
