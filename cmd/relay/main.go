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

	"mfalogin/internal/config"
	"mfalogin/internal/identity"
	"mfalogin/internal/relay"

	"go.uber.org/zap"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	cfg, err := config.LoadRelay()
	if err != nil {
		logger.Fatal("Failed to load config", zap.Error(err))
	}

	provider := identity.NewSupabaseClient(cfg.SupabaseURL, cfg.SupabaseKey, cfg.HTTPTimeout)

	srv, err := relay.NewServer(relay.ServerConfig{
		Addr:           cfg.Addr(),
		AllowedOrigins: cfg.AllowedOrigins,
	}, provider, logger)
	if err != nil {
		logger.Fatal("Failed to create server", zap.Error(err))
	}

	go func() {
		logger.Info("Auth relay listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("Server failed", zap.Error(err))
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	<-sigChan

	logger.Info("Shutdown signal received, stopping relay...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logger.Error("Graceful shutdown failed", zap.Error(err))
	}

	logger.Info("Relay stopped gracefully")
}
