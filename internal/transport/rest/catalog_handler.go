package rest

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	serrors "github.com/abgdnv/catalogsearch/internal/errors"
	"github.com/abgdnv/catalogsearch/internal/store"
	"github.com/abgdnv/catalogsearch/pkg/web"
	"github.com/go-chi/chi/v5"
)

type CatalogHandler struct {
	store  store.ProductStore
	logger *slog.Logger
}

// NewCatalogHandler creates a handler serving the catalog records.
func NewCatalogHandler(store store.ProductStore, logger *slog.Logger) *CatalogHandler {
	return &CatalogHandler{
		store:  store,
		logger: logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the HTTP routes for the catalog service.
func (h *CatalogHandler) RegisterRoutes(r *chi.Mux) {
	r.Route("/apis/products", func(r chi.Router) {
		r.Get("/", h.FindAll)
		r.Get("/{id}", h.FindByID)
	})

	r.Get("/healthz", HealthCheck)
}

// FindAll returns the full record set as a JSON array.
func (h *CatalogHandler) FindAll(w http.ResponseWriter, r *http.Request) {
	list, err := h.store.FindAll(r.Context())
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Error retrieving catalog", "error", err)
		web.RespondError(w, h.logger, http.StatusInternalServerError, "Failed to fetch products")
		return
	}
	h.logger.DebugContext(r.Context(), "Successfully retrieved catalog", "count", len(list))
	web.RespondJSON(w, h.logger, http.StatusOK, list)
}

// FindByID returns a single record.
func (h *CatalogHandler) FindByID(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	found, err := h.store.FindByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, serrors.ErrRecordNotFound) {
			h.logger.WarnContext(r.Context(), "Product not found", "ID", id)
			web.RespondError(w, h.logger, http.StatusNotFound, fmt.Sprintf("Product with ID %s not found", id))
			return
		}
		h.logger.ErrorContext(r.Context(), "Error retrieving product", "ID", id, "error", err)
		web.RespondError(w, h.logger, http.StatusInternalServerError, fmt.Sprintf("Failed to retrieve product with ID %s", id))
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, found)
}
