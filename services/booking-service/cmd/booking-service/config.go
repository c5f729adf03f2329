package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/md-rashed-zaman/agenda/libs/config"
	"github.com/md-rashed-zaman/agenda/services/booking-service/internal/availability"
)

const (
	driverPostgres = "postgres"
	driverMemory   = "memory"
)

type Config struct {
	ServiceName string `envconfig:"SERVICE_NAME" default:"booking-service"`
	Port        string `envconfig:"PORT" default:"8083"`
	GRPCPort    string `envconfig:"GRPC_PORT" default:"9093"`

	StorageDriver string `envconfig:"STORAGE_DRIVER" default:"postgres"`
	DatabaseURL   string `envconfig:"DATABASE_URL"`
	DBMaxConns    int32  `envconfig:"DB_MAX_CONNS" default:"10"`
	RunMigrations bool   `envconfig:"RUN_MIGRATIONS" default:"true"`

	SlotStepMinutes int `envconfig:"SLOT_STEP_MINUTES" default:"30"`

	KafkaBrokers       string        `envconfig:"KAFKA_BROKERS"`
	OutboxPollInterval time.Duration `envconfig:"OUTBOX_POLL_INTERVAL" default:"2s"`
	OutboxBatchSize    int           `envconfig:"OUTBOX_BATCH_SIZE" default:"50"`

	RedisAddr          string `envconfig:"REDIS_ADDR"`
	RedisPassword      string `envconfig:"REDIS_PASSWORD"`
	RedisDB            int    `envconfig:"REDIS_DB" default:"0"`
	RateLimitPerMinute int    `envconfig:"RATE_LIMIT_PER_MINUTE" default:"120"`
	RateLimitFailOpen  bool   `envconfig:"RATE_LIMIT_FAIL_OPEN" default:"true"`

	CORSAllowedOrigins   []string      `envconfig:"CORS_ALLOWED_ORIGINS"`
	CORSAllowedHeaders   []string      `envconfig:"CORS_ALLOWED_HEADERS"`
	CORSAllowCredentials bool          `envconfig:"CORS_ALLOW_CREDENTIALS" default:"false"`
	CORSMaxAge           time.Duration `envconfig:"CORS_MAX_AGE" default:"10m"`

	JWTSecret    string        `envconfig:"JWT_SECRET"`
	JWKSURL      string        `envconfig:"JWKS_URL"`
	JWKSCacheTTL time.Duration `envconfig:"JWKS_CACHE_TTL" default:"5m"`

	RequestTimeout        time.Duration `envconfig:"REQUEST_TIMEOUT" default:"10s"`
	RequestBodyLimitBytes int64         `envconfig:"REQUEST_BODY_LIMIT_BYTES" default:"1048576"`
}

func loadConfig() (Config, error) {
	var cfg Config
	if err := config.Load(&cfg); err != nil {
		return Config{}, err
	}
	cfg.StorageDriver = strings.ToLower(strings.TrimSpace(cfg.StorageDriver))
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	if err := config.ValidatePort("PORT", c.Port); err != nil {
		return err
	}
	if err := config.ValidatePort("GRPC_PORT", c.GRPCPort); err != nil {
		return err
	}
	switch c.StorageDriver {
	case driverPostgres:
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when STORAGE_DRIVER=%s", driverPostgres)
		}
	case driverMemory:
	default:
		return fmt.Errorf("STORAGE_DRIVER must be %q or %q (got %q)", driverPostgres, driverMemory, c.StorageDriver)
	}
	if c.SlotStepMinutes <= 0 || c.SlotStepMinutes > availability.MinutesPerDay {
		return fmt.Errorf("SLOT_STEP_MINUTES must be between 1 and %d (got %d)", availability.MinutesPerDay, c.SlotStepMinutes)
	}
	if c.RequestBodyLimitBytes <= 0 {
		return fmt.Errorf("REQUEST_BODY_LIMIT_BYTES must be positive")
	}
	return nil
}
