// Copyright Open Responses Gateway Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	httpAdapter "github.com/leseb/featuregw/pkg/adapters/http"
	"github.com/leseb/featuregw/pkg/bootstrap"
	"github.com/leseb/featuregw/pkg/core/config"
	"github.com/leseb/featuregw/pkg/observability/logging"
)

var (
	// Version is set via ldflags during build
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	// Parse command-line flags
	configPath := flag.String("config", "config.yaml", "Path to configuration file")
	port := flag.Int("port", 0, "HTTP port to listen on (overrides server.port)")
	mock := flag.Bool("mock", false, "Answer from the offline mock provider")
	version := flag.Bool("version", false, "Print version and exit")
	flag.Parse()

	if *version {
		fmt.Printf("Feature Gateway Server\nVersion: %s\nBuild Time: %s\n", Version, BuildTime)
		os.Exit(0)
	}

	// Load configuration
	cfg, err := config.Load(*configPath)
	loadErr := err
	if err != nil {
		cfg = config.Default()
	}
	if *port != 0 {
		cfg.Server.Port = *port
	}

	logger := logging.New(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
	})
	logger.Info("Starting Feature Gateway Server",
		"version", Version,
		"build_time", BuildTime)
	if loadErr != nil {
		logger.Warn("Failed to load config, using defaults", "error", loadErr)
	}

	rt, err := bootstrap.Build(context.Background(), cfg, bootstrap.Options{Mock: *mock, Logger: logger})
	if err != nil {
		logger.Error("Failed to initialize gateway", "error", err)
		os.Exit(1)
	}
	defer rt.Close(context.Background())

	var handler http.Handler = httpAdapter.New(rt.Gateway, logger)
	if cfg.Server.H2C {
		handler = h2c.NewHandler(handler, &http2.Server{})
		logger.Info("Serving HTTP/2 cleartext")
	}

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      handler,
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  120 * time.Second,
	}

	// Graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info("Server listening", "address", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("Server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("Shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Server shutdown error", "error", err)
		os.Exit(1)
	}

	logger.Info("Server stopped gracefully")
}
