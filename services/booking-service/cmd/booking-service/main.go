package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/md-rashed-zaman/agenda/libs/auth"
	"github.com/md-rashed-zaman/agenda/libs/db"
	"github.com/md-rashed-zaman/agenda/libs/grpcx"
	"github.com/md-rashed-zaman/agenda/libs/httpx"
	"github.com/md-rashed-zaman/agenda/libs/kafkax"
	otelx "github.com/md-rashed-zaman/agenda/libs/otel"
	"github.com/md-rashed-zaman/agenda/libs/runtime"
	"github.com/md-rashed-zaman/agenda/services/booking-service/internal/booking"
	"github.com/md-rashed-zaman/agenda/services/booking-service/internal/handlers"
	"github.com/md-rashed-zaman/agenda/services/booking-service/internal/outbox"
	"github.com/md-rashed-zaman/agenda/services/booking-service/internal/storage"
	"github.com/md-rashed-zaman/agenda/services/booking-service/internal/storage/memstore"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

func main() {
	cfg, err := loadConfig()
	if err != nil {
		slog.Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	logger := runtime.NewLogger(cfg.ServiceName)

	ctx, stop := runtime.SignalContext()
	defer stop()

	otelCfg := otelx.ConfigFromEnv(cfg.ServiceName)
	otelCfg.Logger = logger
	otelShutdown, err := otelx.Setup(ctx, otelCfg)
	if err != nil {
		logger.Error("otel setup failed", "err", err)
		otelShutdown = func(context.Context) error { return nil }
	}

	var (
		store  booking.Store
		checks []runtime.ReadyCheck
	)
	switch cfg.StorageDriver {
	case driverMemory:
		logger.Warn("using in-memory storage; data is lost on restart and events are not published")
		store = memstore.New()
	default:
		pool, err := db.Open(ctx, cfg.DatabaseURL, db.PoolOptions{MaxConns: cfg.DBMaxConns})
		if err != nil {
			logger.Error("db connection failed", "err", err)
			os.Exit(1)
		}
		defer pool.Close()

		if cfg.RunMigrations {
			if err := storage.Migrate(ctx, pool); err != nil {
				logger.Error("db migration failed", "err", err)
				os.Exit(1)
			}
			logger.Info("db migrations applied")
		}

		outboxRepo := outbox.NewRepository()
		store = storage.New(pool, outboxRepo)
		checks = append(checks, runtime.ReadyCheck{Name: "db", Check: db.ReadyCheck(pool)})

		publisher := outbox.NewPublisher(pool, outboxRepo, logger, outbox.PublisherConfig{
			Brokers:   cfg.KafkaBrokers,
			PollEvery: cfg.OutboxPollInterval,
			BatchSize: cfg.OutboxBatchSize,
		})
		go publisher.Run(ctx)
		if cfg.KafkaBrokers != "" {
			checks = append(checks, runtime.ReadyCheck{Name: "kafka", Check: kafkax.ReadyCheck(cfg.KafkaBrokers)})
		}
	}

	var rateLimit httpx.Middleware
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		defer rdb.Close()
		checks = append(checks, runtime.ReadyCheck{Name: "redis", Check: func(ctx context.Context) error {
			return rdb.Ping(ctx).Err()
		}})
		rateLimit = httpx.NewRedisRateLimiter(rdb, cfg.RateLimitPerMinute, time.Minute, "booking:rl").
			Middleware(logger, cfg.RateLimitFailOpen)
	} else {
		rateLimit = httpx.NewRateLimiter(cfg.RateLimitPerMinute, time.Minute).Middleware()
	}

	var jwks *auth.JWKSClient
	if cfg.JWKSURL != "" {
		jwks = auth.NewJWKSClient(cfg.JWKSURL, cfg.JWKSCacheTTL, auth.WithJWKSLogger(logger.With("component", "jwks")))
	}
	verifier := auth.NewVerifier(cfg.JWTSecret, jwks)
	if !verifier.Enabled() {
		logger.Warn("token verification disabled; identity headers are trusted as sent")
	}

	engine := booking.NewEngine(store, booking.Options{Step: cfg.SlotStepMinutes, Logger: logger})

	mux := runtime.NewBaseMuxWithReady(checks...)
	mux.Handle("/api/", httpx.Chain(handlers.Routes(engine, verifier, logger),
		rateLimit,
		httpx.WithBodyLimit(cfg.RequestBodyLimitBytes),
		httpx.WithTimeout(cfg.RequestTimeout),
	))

	httpHandler := httpx.Chain(mux,
		httpx.WithRequestID,
		httpx.WithAccessLog(logger),
		httpx.WithRecovery(logger),
		httpx.WithCORS(httpx.CORSPolicy{
			AllowedOrigins:   cfg.CORSAllowedOrigins,
			AllowedHeaders:   cfg.CORSAllowedHeaders,
			AllowCredentials: cfg.CORSAllowCredentials,
			MaxAge:           cfg.CORSMaxAge,
		}),
	)
	httpHandler = otelhttp.NewHandler(httpHandler, "booking")
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpHandler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	grpcSrv, health := grpcx.NewServer(logger)
	health.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	health.SetServingStatus("booking", healthpb.HealthCheckResponse_SERVING)
	lis, err := net.Listen("tcp", ":"+cfg.GRPCPort)
	if err != nil {
		logger.Error("grpc listen failed", "err", err)
		os.Exit(1)
	}

	go func() {
		logger.Info("grpc server starting", "addr", lis.Addr().String())
		if err := grpcSrv.Serve(lis); err != nil {
			logger.Error("grpc server error", "err", err)
		}
	}()
	go func() {
		logger.Info("http server starting", "addr", srv.Addr, "storage", cfg.StorageDriver, "slot_step_minutes", engine.Step())
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "err", err)
			stop()
		}
	}()

	<-ctx.Done()
	health.Shutdown()
	runtime.Shutdown(10*time.Second, func(name string, err error) {
		logger.Error("shutdown failed", "step", name, "err", err)
	},
		runtime.ShutdownStep{Name: "http", Fn: srv.Shutdown},
		runtime.ShutdownStep{Name: "grpc", Fn: func(context.Context) error {
			grpcSrv.GracefulStop()
			return nil
		}},
		runtime.ShutdownStep{Name: "otel", Fn: otelShutdown},
	)
	logger.Info("servers stopped")
}
