package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tiffin-promotions/internal/app"
	"tiffin-promotions/internal/config"
	"tiffin-promotions/internal/pkg/logger"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("[MAIN] No .env file found, relying on system env vars")
	}
	cfg := config.Load()

	zl, err := logger.New(cfg.Stage, cfg.LogLevel)
	if err != nil {
		log.Fatalf("failed to build logger: %v", err)
	}
	defer zl.Sync()

	srv := app.NewServer(cfg, zl)

	// Run server in a separate goroutine so we can listen for shutdown signals
	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(context.Background())
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil {
			zl.Fatal("server failed to start", zap.Error(err))
		}
		return
	case sig := <-quit:
		zl.Info("shutting down server", zap.String("signal", sig.String()))
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zl.Error("graceful shutdown failed", zap.Error(err))
		return
	}
	zl.Info("server stopped gracefully")
}
