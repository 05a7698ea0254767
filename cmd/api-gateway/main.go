package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"scrappify-bff/internal/api"
	"scrappify-bff/internal/auth"
	"scrappify-bff/internal/config"
	"scrappify-bff/internal/logging"
	"scrappify-bff/internal/ratelimit"
	"scrappify-bff/internal/services"
	"scrappify-bff/internal/session"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.NewConfig()

	logger := logging.New(os.Stdout, cfg.LogLevel)
	slog.SetDefault(logger)
	slog.Info("Starting API Gateway", "port", cfg.HTTPPort, "auth_url", cfg.AuthServiceURL,
		"product_url", cfg.ProductServiceURL, "favorites_url", cfg.FavoritesServiceURL)

	var limiter ratelimit.Limiter
	if cfg.RedisAddr != "" {
		redisLimiter, err := ratelimit.NewRedisLimiter(cfg.RedisAddr, cfg.SearchRateLimit, time.Minute)
		if err != nil {
			slog.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		defer redisLimiter.Close()
		slog.Info("Connected to Redis", "addr", cfg.RedisAddr)
		limiter = redisLimiter
	} else {
		slog.Info("REDIS_ADDR not set, using in-memory rate limiter")
		limiter = ratelimit.NewMemoryLimiter(cfg.SearchRateLimit, time.Minute)
	}

	serviceClient := services.NewServiceClient(cfg)
	guard := session.NewGuard(time.Now)
	authMiddleware := auth.NewMiddleware(guard, cfg.CookieSecure)
	handler := api.NewHandler(serviceClient, authMiddleware, guard, limiter)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.HTTPPort),
		Handler:           api.NewRouter(handler, authMiddleware, cfg.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		slog.Info("Server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	slog.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("Server shutdown error", "error", err)
	}
	slog.Info("Server stopped")
}
