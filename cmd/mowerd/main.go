package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/SherClockHolmes/webpush-go"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"mower-status-backend/config"
	"mower-status-backend/internal/api"
	"mower-status-backend/internal/auth"
	"mower-status-backend/internal/db"
	"mower-status-backend/internal/logging"
	"mower-status-backend/internal/metrics"
	"mower-status-backend/internal/mockapi"
	"mower-status-backend/internal/notification"
	"mower-status-backend/internal/schedule"
	"mower-status-backend/internal/slack"
	"mower-status-backend/internal/state"
	"mower-status-backend/internal/store"
	"mower-status-backend/internal/telemetry"
)

func main() {
	logger := logging.NewLogger("main")

	// Load configuration
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "./config/config.yaml" // Default path for local development
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Fatalf("failed to load configuration from %s: %v", configPath, err)
	}
	logging.Configure(cfg.Logging)
	logger.Infof("configuration loaded successfully from %s", configPath)

	// Initialize database
	gormDB, err := db.Init(&cfg.Database)
	if err != nil {
		logger.Fatalf("failed to initialize database: %v", err)
	}
	appStore := store.NewGormStore(gormDB)
	logger.WithField("driver", cfg.Database.Driver).Info("database initialized successfully")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()
	mower := state.NewStore(state.WithMetrics(m))

	authStore := auth.NewStore(false, cfg.Auth.ProfileLatency)
	if cfg.Auth.StartAuthenticated {
		if err := authStore.Login(ctx, auth.User{Username: cfg.Auth.Username, Email: cfg.Auth.Email}); err != nil {
			logger.Fatalf("failed to sign in configured user: %v", err)
		}
	}

	now := time.Now()
	backend := mockapi.NewService(mockapi.Options{
		Latency:     cfg.MockAPI.Latency,
		FailureRate: cfg.MockAPI.FailureRate,
	}, now)

	// Notification sinks
	var sinks []notification.Sink
	var webpushOptions *webpush.Options
	if cfg.Push.PublicKey != "" && cfg.Push.PrivateKey != "" {
		webpushOptions = &webpush.Options{
			VAPIDPublicKey:  cfg.Push.PublicKey,
			VAPIDPrivateKey: cfg.Push.PrivateKey,
			Subscriber:      cfg.Push.Subject,
			TTL:             cfg.Push.TTL,
		}
		sinks = append(sinks, notification.NewWebPushSink(appStore, webpushOptions))
	} else {
		logger.Warn("VAPID keys are not configured; web push is disabled")
	}
	if slackClient := slack.NewClient(cfg.Slack.BotToken, cfg.Slack.ChannelID); slackClient != nil {
		sinks = append(sinks, slackClient)
	}

	pool := notification.NewWorkerPool(cfg.WorkerPool.Size, cfg.WorkerPool.QueueSize, m, sinks...)
	pool.Start(ctx)
	unsubscribePool := mower.Subscribe(pool.Listener())
	unsubscribeArchive := mower.Subscribe(store.NewArchiver(appStore).Listener())

	// Simulated telemetry feed
	seed := uint64(now.UnixNano())
	driver := telemetry.NewDriver(telemetry.Config{
		Enabled:                 cfg.Telemetry.IsEnabled(),
		Interval:                cfg.Telemetry.Interval,
		BatteryFloor:            cfg.Telemetry.BatteryFloor,
		NotificationProbability: cfg.Telemetry.NotificationProbability,
	}, mower, rand.New(rand.NewPCG(seed, seed>>1)))
	go driver.Run(ctx)

	executor := schedule.NewExecutor(mower, cfg.Schedule.Location)
	executor.Start()

	// Initialize router
	router := api.NewRouter(api.Deps{
		Mower:   mower,
		Auth:    authStore,
		Backend: backend,
		Store:   appStore,
		WebPush: webpushOptions,
		Metrics: m,
	}, api.RouterConfig{
		RateLimit:       rate.Limit(cfg.Server.RateLimitPerSec),
		RateBurst:       cfg.Server.RateLimitBurst,
		RequestIPHeader: cfg.Server.RequestIPHeader,
		CacheTTL:        cfg.Server.CacheTTL,
	})
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.CORSOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: false,
	})
	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: corsHandler.Handler(router),
	}

	// Start the server in a goroutine
	go func() {
		logger.Infof("HTTP server starting on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatalf("HTTP server ListenAndServe: %v", err)
		}
	}()

	// Setup signal handling for graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	<-stop
	logger.Info("shutdown signal received, stopping services")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Errorf("HTTP server Shutdown: %v", err)
	}

	executor.Stop()
	unsubscribeArchive()
	unsubscribePool()
	cancel()
	pool.Wait()

	logger.Info("server gracefully stopped")
}
