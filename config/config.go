package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"mower-status-backend/internal/logging"
)

// Config represents the overall application configuration.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Telemetry  TelemetryConfig  `yaml:"telemetry"`
	MockAPI    MockAPIConfig    `yaml:"mock_api"`
	Auth       AuthConfig       `yaml:"auth"`
	Schedule   ScheduleConfig   `yaml:"schedule"`
	Database   DatabaseConfig   `yaml:"database"`
	Push       PushConfig       `yaml:"push"`
	Slack      SlackConfig      `yaml:"slack"`
	WorkerPool WorkerPoolConfig `yaml:"worker_pool"`
	Logging    logging.Config   `yaml:"logging"`
}

// WorkerPoolConfig holds the configuration for the notification worker pool.
type WorkerPoolConfig struct {
	Size      int `yaml:"size"`
	QueueSize int `yaml:"queue_size"`
}

// PushConfig holds the VAPID keys for web push notifications.
type PushConfig struct {
	PublicKey  string `yaml:"vapid_public_key"`
	PrivateKey string `yaml:"vapid_private_key"`
	Subject    string `yaml:"subject"`
	TTL        int    `yaml:"ttl"`
}

// SlackConfig enables the Slack notification sink when both fields are set.
type SlackConfig struct {
	BotToken  string `yaml:"bot_token"`
	ChannelID string `yaml:"channel_id"`
}

// ServerConfig holds the server-related configuration.
type ServerConfig struct {
	Port            int      `yaml:"port"`
	RequestIPHeader string   `yaml:"request_ip_header"`
	RateLimitPerSec float64  `yaml:"rate_limit_per_sec"`
	RateLimitBurst  int      `yaml:"rate_limit_burst"`
	CacheTTLSeconds int      `yaml:"cache_ttl_seconds"`
	CORSOrigins     []string `yaml:"cors_origins"`

	CacheTTL time.Duration `yaml:"-"`
}

// TelemetryConfig drives the simulated battery and session feed.
type TelemetryConfig struct {
	Enabled                 *bool   `yaml:"enabled"`
	IntervalSeconds         int     `yaml:"interval_seconds"`
	BatteryFloor            int     `yaml:"battery_floor"`
	NotificationProbability float64 `yaml:"notification_probability"`

	Interval time.Duration `yaml:"-"`
}

// IsEnabled defaults to true when the key is absent.
func (t TelemetryConfig) IsEnabled() bool {
	return t.Enabled == nil || *t.Enabled
}

// MockAPIConfig tunes the fixture backend.
type MockAPIConfig struct {
	LatencyMillis *int    `yaml:"latency_ms"`
	FailureRate   float64 `yaml:"failure_rate"`

	Latency time.Duration `yaml:"-"`
}

// AuthConfig holds the simulated auth settings.
type AuthConfig struct {
	ProfileLatencyMillis *int   `yaml:"profile_latency_ms"`
	StartAuthenticated   bool   `yaml:"start_authenticated"`
	Username             string `yaml:"username"`
	Email                string `yaml:"email"`

	ProfileLatency time.Duration `yaml:"-"`
}

// ScheduleConfig selects the zone mowing schedules run in.
type ScheduleConfig struct {
	Timezone string `yaml:"timezone"`

	Location *time.Location `yaml:"-"`
}

// DatabaseConfig holds the database connection configuration.
type DatabaseConfig struct {
	Driver                 string `yaml:"driver"` // "sqlite" or "postgres"
	DSN                    string `yaml:"dsn"`
	MaxOpenConns           int    `yaml:"max_open_conns"`
	MaxIdleConns           int    `yaml:"max_idle_conns"`
	ConnMaxLifetimeMinutes int    `yaml:"conn_max_lifetime_minutes"`
	EnableTimescale        bool   `yaml:"enable_timescale"`
}

// Load reads the configuration from the given path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	decoder := yaml.NewDecoder(f)
	if err := decoder.Decode(&cfg); err != nil {
		return nil, err
	}

	if err := cfg.applyDefaults(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Default returns the configuration used when no keys are set.
func Default() *Config {
	var cfg Config
	// Defaults never fail on an empty config: the UTC zone always loads.
	_ = cfg.applyDefaults()
	return &cfg
}

func (cfg *Config) applyDefaults() error {
	log := logging.NewLogger("config")

	if cfg.Server.Port <= 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RateLimitPerSec <= 0 {
		cfg.Server.RateLimitPerSec = 10
	}
	if cfg.Server.RateLimitBurst <= 0 {
		cfg.Server.RateLimitBurst = 5
	}
	if cfg.Server.CacheTTLSeconds <= 0 {
		cfg.Server.CacheTTLSeconds = 300
	}
	cfg.Server.CacheTTL = time.Duration(cfg.Server.CacheTTLSeconds) * time.Second
	if len(cfg.Server.CORSOrigins) == 0 {
		cfg.Server.CORSOrigins = []string{"*"}
	}

	if cfg.Telemetry.IntervalSeconds <= 0 {
		cfg.Telemetry.IntervalSeconds = 5
	}
	cfg.Telemetry.Interval = time.Duration(cfg.Telemetry.IntervalSeconds) * time.Second
	if cfg.Telemetry.BatteryFloor <= 0 {
		cfg.Telemetry.BatteryFloor = 20
	}
	if cfg.Telemetry.NotificationProbability <= 0 {
		cfg.Telemetry.NotificationProbability = 0.2
	}

	cfg.MockAPI.Latency = millis(cfg.MockAPI.LatencyMillis, 500)

	cfg.Auth.ProfileLatency = millis(cfg.Auth.ProfileLatencyMillis, 1000)
	if cfg.Auth.Username == "" {
		cfg.Auth.Username = "demo"
	}
	if cfg.Auth.Email == "" {
		cfg.Auth.Email = "demo@example.com"
	}

	if cfg.Schedule.Timezone == "" {
		cfg.Schedule.Timezone = "UTC"
	}
	loc, err := time.LoadLocation(cfg.Schedule.Timezone)
	if err != nil {
		return fmt.Errorf("invalid schedule.timezone %q: %w", cfg.Schedule.Timezone, err)
	}
	cfg.Schedule.Location = loc

	if cfg.Database.Driver == "" {
		cfg.Database.Driver = "sqlite"
	}
	if cfg.Database.DSN == "" {
		cfg.Database.DSN = "file::memory:?cache=shared"
	}
	if cfg.Database.MaxOpenConns <= 0 {
		cfg.Database.MaxOpenConns = 10
	}
	if cfg.Database.MaxIdleConns <= 0 {
		cfg.Database.MaxIdleConns = 5
	}
	if cfg.Database.ConnMaxLifetimeMinutes <= 0 {
		cfg.Database.ConnMaxLifetimeMinutes = 30
	}

	if cfg.Push.TTL <= 0 {
		cfg.Push.TTL = 3600
	}

	if cfg.WorkerPool.Size <= 0 {
		log.Info("worker_pool.size is not set or invalid; defaulting to 1")
		cfg.WorkerPool.Size = 1
	}
	if cfg.WorkerPool.QueueSize <= 0 {
		cfg.WorkerPool.QueueSize = 64
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}
	return nil
}

// millis converts an optional millisecond setting; nil selects def so an
// explicit 0 disables the delay.
func millis(ms *int, def int) time.Duration {
	if ms == nil {
		return time.Duration(def) * time.Millisecond
	}
	return time.Duration(*ms) * time.Millisecond
}
