// Package main runs the catalog service, which serves the product records the search
// service fetches.
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
	"golang.org/x/sync/errgroup"
)

const serviceName = "catalog"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		log.Printf("application run failed: %v", err)
		os.Exit(1)
	}
	log.Println("application stopped gracefully")
}

// run opens the record store and starts the HTTP and pprof servers.
func run(ctx context.Context) error {
	cfg, cfgErr := configloader.Load[*config.CatalogConfig](serviceName, config.CatalogDefaults())
	if cfgErr != nil {
		return fmt.Errorf("failed to load configuration: %w", cfgErr)
	}
	log.Printf("Configuration loaded: %v", cfg)

	logger := bootstrap.NewLogger(cfg.Log.Level)
	slog.SetDefault(logger)

	productStore, closeStore, err := app.NewCatalogStore(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open catalog store: %w", err)
	}
	defer closeStore()

	deps := app.SetupCatalogDependencies(productStore, logger)
	httpServer := app.SetupCatalogHttpServer(deps, cfg)

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return server.Run(gCtx, httpServer, "HTTP", cfg.Shutdown.Timeout, logger)
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
