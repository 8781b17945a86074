// Package app wires the search and catalog services together.
package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/abgdnv/catalogsearch/internal/catalog"
	"github.com/abgdnv/catalogsearch/internal/config"
	"github.com/abgdnv/catalogsearch/internal/controller"
	"github.com/abgdnv/catalogsearch/internal/session"
	"github.com/abgdnv/catalogsearch/internal/store"
	"github.com/abgdnv/catalogsearch/internal/transport/rest"
	"github.com/abgdnv/catalogsearch/migrations"
	"github.com/abgdnv/catalogsearch/pkg/bootstrap"
	"github.com/abgdnv/catalogsearch/pkg/server"
)

type SearchDependencies struct {
	Sessions *session.Manager
	Logger   *slog.Logger
}

// SetupSearchDependencies builds the catalog source and the session manager. A nil
// client makes the source use its default traced client.
func SetupSearchDependencies(cfg *config.SearchConfig, client *http.Client, logger *slog.Logger) *SearchDependencies {
	source := catalog.NewHTTPSource(catalog.HTTPSourceConfig{
		URL:            cfg.Source.URL,
		Timeout:        cfg.Source.Timeout,
		CircuitBreaker: cfg.Source.CircuitBreaker,
	}, client, logger)

	opts := controller.Options{
		PageSize:      cfg.Search.PageSize,
		Debounce:      cfg.Search.Debounce,
		RefetchOnSort: cfg.Search.RefetchOnSort,
	}
	factory := func() *controller.Controller {
		return controller.New(source, opts, logger)
	}

	return &SearchDependencies{
		Sessions: session.NewManager(factory, cfg.Session.IdleTimeout, logger),
		Logger:   logger,
	}
}

// SetupSearchHttpHandler builds the router of the search service.
// Used by E2E tests to run the service in an httptest.Server.
func SetupSearchHttpHandler(deps *SearchDependencies) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	rest.NewSearchHandler(deps.Sessions, deps.Logger).RegisterRoutes(mux)
	return mux
}

// SetupSearchHttpServer creates the HTTP server of the search service.
func SetupSearchHttpServer(deps *SearchDependencies, cfg *config.SearchConfig) *http.Server {
	return server.NewHTTPServer(cfg.HTTPServer, "search", SetupSearchHttpHandler(deps))
}

type CatalogDependencies struct {
	Store  store.ProductStore
	Logger *slog.Logger
}

func SetupCatalogDependencies(productStore store.ProductStore, logger *slog.Logger) *CatalogDependencies {
	return &CatalogDependencies{
		Store:  productStore,
		Logger: logger,
	}
}

// NewCatalogStore opens the record store selected by cfg: PostgreSQL when a database URL
// is configured, the seed file otherwise. The returned function releases the store.
func NewCatalogStore(ctx context.Context, cfg *config.CatalogConfig, logger *slog.Logger) (store.ProductStore, func(), error) {
	if !cfg.Database.Enabled() {
		records, err := store.LoadSeedFile(cfg.Seed.File)
		if err != nil {
			return nil, nil, err
		}
		logger.Info("Serving catalog from seed file", "file", cfg.Seed.File, "count", len(records))
		return store.NewInMemoryStore(records), func() {}, nil
	}

	if cfg.Database.Migrate {
		if err := migrations.Up(cfg.Database.URL); err != nil {
			return nil, nil, err
		}
		logger.Info("Database migrations applied")
	}
	dbPool, err := bootstrap.NewDbPool(ctx, cfg.Database.URL, cfg.Database.Timeout)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to create database connection pool: %w", err)
	}
	logger.Info("Successfully connected to the database!")
	return store.NewPgStore(dbPool), dbPool.Close, nil
}

// SetupCatalogHttpHandler builds the router of the catalog service.
func SetupCatalogHttpHandler(deps *CatalogDependencies) http.Handler {
	mux := server.NewChiRouter(deps.Logger)
	rest.NewCatalogHandler(deps.Store, deps.Logger).RegisterRoutes(mux)
	return mux
}

// SetupCatalogHttpServer creates the HTTP server of the catalog service.
func SetupCatalogHttpServer(deps *CatalogDependencies, cfg *config.CatalogConfig) *http.Server {
	return server.NewHTTPServer(cfg.HTTPServer, "catalog", SetupCatalogHttpHandler(deps))
}
