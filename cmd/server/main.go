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

	"saferoute/config"
	"saferoute/internal/database"
	"saferoute/internal/middleware"
	"saferoute/internal/observability"
	"saferoute/internal/router"
	"saferoute/pkg/mediastore"

	"github.com/redis/go-redis/v9"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(newLogger(cfg.Server))

	ctx := context.Background()
	shutdownTracing, err := observability.InitTracing(ctx, cfg.Telemetry, cfg.Server.Env)
	if err != nil {
		fatal("tracing", err)
	}

	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		fatal("database", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		fatal("migrate", err)
	}

	media, err := mediastore.New(ctx, &cfg.Media)
	if err != nil {
		fatal("media", err)
	}
	slog.Info("media storage ready", "backend", cfg.Media.Backend)

	metrics := observability.NewMetrics()
	limiter, closeLimiter := newLimiter(cfg.RateLimit)

	engine, err := router.Setup(cfg, db, media, limiter, metrics)
	if err != nil {
		fatal("router", err)
	}
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		slog.Info("server listening", "addr", srv.Addr, "env", cfg.Server.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			fatal("listen", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server shutdown", "err", err)
	}
	closeLimiter()
	if err := shutdownTracing(ctx); err != nil {
		slog.Error("tracing shutdown", "err", err)
	}
	if sqlDB, err := db.DB(); err == nil {
		_ = sqlDB.Close()
	}
	slog.Info("server stopped")
}

func newLogger(cfg config.ServerConfig) *slog.Logger {
	if cfg.IsProduction() {
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// newLimiter builds the configured rate limiter. The returned func releases
// its resources.
func newLimiter(cfg config.RateLimitConfig) (middleware.Limiter, func()) {
	if cfg.RPS <= 0 {
		slog.Info("rate limiting disabled")
		return nil, func() {}
	}
	if cfg.Backend == "redis" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		slog.Info("rate limiting with redis", "addr", cfg.RedisAddr, "rps", cfg.RPS, "burst", cfg.Burst)
		return middleware.NewRedisLimiter(client, cfg.RPS, cfg.Burst), func() { _ = client.Close() }
	}
	slog.Info("rate limiting in memory", "rps", cfg.RPS, "burst", cfg.Burst)
	return middleware.NewMemoryLimiter(cfg.RPS, cfg.Burst), func() {}
}

func fatal(what string, err error) {
	slog.Error(what+" failed", "err", err)
	os.Exit(1)
}
