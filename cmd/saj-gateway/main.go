package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"saj-gateway/internal/config"
	"saj-gateway/internal/di"

	"go.uber.org/zap"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	container, err := di.NewContainer(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to create DI container: %v\n", err)
		os.Exit(1)
	}
	defer container.Cleanup()

	logger := container.Logger
	addr := ":" + cfg.Port

	go func() {
		logger.Info("SAJ API gateway starting",
			zap.String("addr", addr),
			zap.String("env", cfg.Env),
			zap.String("db_driver", cfg.DBDriver),
			zap.Bool("redis_enabled", cfg.RedisEnabled),
		)
		if err := container.Server.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit
	logger.Info("Shutdown signal received", zap.String("signal", sig.String()))

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := container.Shutdown(ctx); err != nil {
		logger.Error("Server forced to shutdown", zap.Error(err))
	}
	logger.Info("SAJ API gateway stopped")
}
