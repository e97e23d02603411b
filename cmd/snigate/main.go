package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/snigate/snigate/internal/api"
	"github.com/snigate/snigate/internal/config"
	"github.com/snigate/snigate/internal/metrics"
	"github.com/snigate/snigate/internal/proxy"
	"github.com/snigate/snigate/internal/token"
	"github.com/snigate/snigate/pkg/logging"
)

func main() {
	// Load .env file if present (ignore error if file doesn't exist)
	_ = godotenv.Load()

	cfg := config.Load()

	logger := logging.New(cfg.Log.Level, cfg.Log.Format)
	metricsCollector := metrics.NewCollector()

	logger.Info("Starting snigate control plane")

	provider := token.FromConfig(cfg.Engine.AuthToken, logger)

	p, err := proxy.New(proxy.Config{
		EngineBinary:   cfg.Engine.BinaryPath,
		PublicURL:      cfg.Engine.PublicURL,
		APIURL:         cfg.Engine.APIURL,
		LogLevel:       cfg.Engine.LogLevel,
		RequestTimeout: cfg.Engine.RequestTimeout,
	}, provider, logger, metricsCollector)
	if err != nil {
		logger.Fatal("Failed to configure proxy", "error", err)
	}

	if err := p.Start(); err != nil {
		logger.Fatal("Failed to start routing engine", "error", err)
	}
	logger.Info("Routing engine launched", "api_url", p.APIURL())

	handler := api.NewHandler(cfg, p, metricsCollector, logger)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler.Router(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	serverErrCh := make(chan error, 1)
	go func() {
		logger.Info("Control API listening", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server error", "error", err)
			serverErrCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		logger.Info("Received signal, shutting down", "signal", sig)
	case err := <-serverErrCh:
		logger.Error("Server failed, initiating shutdown", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	if err := p.Stop(); err != nil {
		logger.Error("Failed to stop routing engine", "error", err)
	}

	logger.Info("Control plane stopped")
}
