package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/budhadityarishidasgupta-lang/kiarolabs-membership-service/config"
	"github.com/budhadityarishidasgupta-lang/kiarolabs-membership-service/shared/audit"
	"github.com/budhadityarishidasgupta-lang/kiarolabs-membership-service/shared/monitoring"
	sharedredis "github.com/budhadityarishidasgupta-lang/kiarolabs-membership-service/shared/redis"
	"github.com/budhadityarishidasgupta-lang/kiarolabs-membership-service/shared/utils"
	v1 "github.com/budhadityarishidasgupta-lang/kiarolabs-membership-service/v1"
	"github.com/budhadityarishidasgupta-lang/kiarolabs-membership-service/v1/auth"
	v1handlers "github.com/budhadityarishidasgupta-lang/kiarolabs-membership-service/v1/handlers"
	"github.com/budhadityarishidasgupta-lang/kiarolabs-membership-service/v1/services"
	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (optional - fails silently if not found)
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{AddSource: true}))
	slog.SetDefault(logger)

	slog.Info("Starting Membership Backend initialization")

	cfg, err := config.Load()
	if err != nil {
		slog.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}

	if monitoring.IsObservabilityEnabled() {
		if err := monitoring.Initialize(monitoring.DefaultConfig(cfg.ServiceName)); err != nil {
			slog.Warn("Metrics disabled", "error", err)
		}
	} else {
		slog.Info("Observability disabled via environment variable")
	}

	dbConfig := v1.NewDatabaseConfig()
	gormDB, err := v1.ConnectGormDB(dbConfig)
	if err != nil {
		slog.Error("Failed to connect to GORM database", "error", err)
		os.Exit(1)
	}

	var (
		locker      services.MemberLocker
		redisClient *sharedredis.RedisClient
	)
	if cfg.UseRedis() {
		redisClient, err = sharedredis.NewClient(&sharedredis.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err != nil {
			slog.Error("Failed to connect to Redis", "error", err, "addr", cfg.RedisAddr)
			os.Exit(1)
		}
		locker = redisClient
		slog.Info("Webhook lock backed by Redis", "addr", cfg.RedisAddr)
	} else {
		locker = services.NewInMemoryLocker()
		slog.Info("REDIS_ADDR not set, using in-process webhook lock")
	}

	tokens, err := auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.AccessTokenTTL)
	if err != nil {
		slog.Error("Failed to create token issuer", "error", err)
		os.Exit(1)
	}

	auditClient := audit.NewClient(cfg.AuditServiceURL)

	members := services.NewMemberRepository(gormDB)
	handler := v1handlers.NewHandler(
		services.NewAuthService(members, tokens, auditClient),
		services.NewWebhookService(members, locker, cfg.WebhookLockTTL, auditClient),
		services.NewEntitlementService(members),
		members,
		tokens,
	)

	r := chi.NewRouter()
	r.Use(utils.PanicRecoveryMiddleware)
	r.Use(monitoring.TraceIDMiddleware)
	r.Use(monitoring.HTTPMetricsMiddleware)
	r.Use(utils.CORSMiddleware(cfg.CORSAllowedOrigins))
	handler.SetupRoutes(r)

	addr := ":" + cfg.Port
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		slog.Info("Membership Backend starting", "port", cfg.Port, "addr", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Failed to start Membership Backend", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down Membership Backend...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
	}

	if err := auditClient.Close(ctx); err != nil {
		slog.Warn("Audit events still in flight at shutdown", "error", err)
	}
	if err := monitoring.Shutdown(ctx); err != nil {
		slog.Error("Failed to shut down metrics", "error", err)
	}
	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			slog.Error("Failed to close Redis connection", "error", err)
		}
	}
	if sqlDB, err := gormDB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			slog.Error("Failed to close database connection", "error", err)
		}
	}

	slog.Info("Membership Backend exited")
}
