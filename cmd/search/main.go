// Package main runs the search service: it hosts search sessions over HTTP and fetches
// the catalog from the catalog service.
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	_ "net/http/pprof"

	"github.com/abgdnv/catalogsearch/internal/app"
	"github.com/abgdnv/catalogsearch/internal/config"
	"github.com/abgdnv/catalogsearch/pkg/bootstrap"
	"github.com/abgdnv/catalogsearch/pkg/config/configloader"
	"github.com/abgdnv/catalogsearch/pkg/server"
	"github.com/abgdnv/catalogsearch/pkg/telemetry"
	"golang.org/x/sync/errgroup"
)

const serviceName = "search"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Printf("application run failed: %v", err)
		os.Exit(1)
	}
	log.Println("application stopped gracefully")
}

// run loads the configuration, sets up tracing and starts the HTTP server, the session
// sweeper and, when enabled, the pprof server.
func run(ctx context.Context) error {
	cfg, cfgErr := configloader.Load[*config.SearchConfig](serviceName, config.SearchDefaults())
	if cfgErr != nil {
		return fmt.Errorf("failed to load configuration: %w", cfgErr)
	}
	log.Printf("Configuration loaded: %v", cfg)

	logger := bootstrap.NewLogger(cfg.Log.Level)
	slog.SetDefault(logger)

	shutdownTracing, err := telemetry.Setup(ctx, serviceName, cfg.Telemetry)
	if err != nil {
		return fmt.Errorf("failed to set up tracing: %w", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Shutdown.Timeout)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.Error("failed to shut down tracer provider", "error", err)
		}
	}()

	deps := app.SetupSearchDependencies(cfg, nil, logger)
	defer deps.Sessions.Close()
	httpServer := app.SetupSearchHttpServer(deps, cfg)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return server.Run(gCtx, httpServer, "HTTP", cfg.Shutdown.Timeout, logger)
	})
	g.Go(func() error {
		return deps.Sessions.Run(gCtx, cfg.Session.SweepInterval)
	})

	if cfg.PProf.Enabled {
		pprofServer := server.NewPprofServer(cfg.PProf.Addr)
		g.Go(func() error {
			return server.Run(gCtx, pprofServer, "pprof", cfg.Shutdown.Timeout, logger)
		})
	}

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("errgroup encountered an error: %w", err)
	}
	return nil
}
