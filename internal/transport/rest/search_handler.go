// Package rest provides the HTTP handlers of the search and catalog services.
package rest

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/abgdnv/catalogsearch/internal/controller"
	serrors "github.com/abgdnv/catalogsearch/internal/errors"
	"github.com/abgdnv/catalogsearch/internal/search"
	applog "github.com/abgdnv/catalogsearch/pkg/logger"
	"github.com/abgdnv/catalogsearch/pkg/web"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Sessions is the part of the session manager the search handler depends on.
type Sessions interface {
	Create() (uuid.UUID, *controller.Controller, error)
	Get(id uuid.UUID) (*controller.Controller, error)
	Delete(id uuid.UUID) error
}

type QueryRequest struct {
	// Query may be empty, but must be present.
	Query *string `json:"query" validate:"required"`
}

type PageRequest struct {
	Page int `json:"page" validate:"required,min=1"`
}

type SortRequest struct {
	Field string `json:"field" validate:"required,oneof=name quantity price"`
}

type CreateResponse struct {
	ID   uuid.UUID       `json:"id"`
	View controller.View `json:"view"`
}

type SearchHandler struct {
	sessions Sessions
	validate *validator.Validate
	logger   *slog.Logger
}

// NewSearchHandler creates a handler exposing search sessions over HTTP.
func NewSearchHandler(sessions Sessions, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{
		sessions: sessions,
		validate: validator.New(),
		logger:   logger.With("component", "rest"),
	}
}

// RegisterRoutes registers the HTTP routes for the search service.
func (h *SearchHandler) RegisterRoutes(r *chi.Mux) {
	r.Route("/api/v1/searches", func(r chi.Router) {
		r.Post("/", h.Create)

		r.Route("/{id}", func(r chi.Router) {
			r.Use(sessionContext)
			r.Get("/", h.View)
			r.Delete("/", h.Delete)
			r.Put("/query", h.ChangeQuery)
			r.Put("/page", h.ChangePage)
			r.Put("/sort", h.ChangeSort)
		})
	})

	r.Get("/healthz", HealthCheck)
}

// Create starts a new search session with the initial fetch in flight.
func (h *SearchHandler) Create(w http.ResponseWriter, r *http.Request) {
	id, ctrl, err := h.sessions.Create()
	if err != nil {
		if errors.Is(err, serrors.ErrSessionClosed) {
			h.logger.WarnContext(r.Context(), "Search session rejected during shutdown")
			web.RespondError(w, h.logger, http.StatusServiceUnavailable, "Service is shutting down")
			return
		}
		h.logger.ErrorContext(r.Context(), "Error creating search session", "error", err)
		web.RespondError(w, h.logger, http.StatusInternalServerError, "Failed to create search session")
		return
	}
	h.logger.InfoContext(applog.WithSessionID(r.Context(), id.String()), "Search session created")
	web.RespondJSON(w, h.logger, http.StatusCreated, CreateResponse{ID: id, View: ctrl.View()})
}

// View returns the current rendered output of a session.
func (h *SearchHandler) View(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.controller(w, r)
	if !ok {
		return
	}
	web.RespondJSON(w, h.logger, http.StatusOK, ctrl.View())
}

// ChangeQuery updates the query. The fetch follows once the query has settled, so the
// response is 202 with the view as it is now.
func (h *SearchHandler) ChangeQuery(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.controller(w, r)
	if !ok {
		return
	}
	var req QueryRequest
	if !web.DecodeValid(w, r, h.logger, h.validate, &req) {
		return
	}
	h.logger.DebugContext(r.Context(), "Query changed", "query", *req.Query)
	ctrl.HandleQueryChange(*req.Query)
	web.RespondJSON(w, h.logger, http.StatusAccepted, ctrl.View())
}

// ChangePage moves the session to another page of the held records.
func (h *SearchHandler) ChangePage(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.controller(w, r)
	if !ok {
		return
	}
	var req PageRequest
	if !web.DecodeValid(w, r, h.logger, h.validate, &req) {
		return
	}
	h.logger.DebugContext(r.Context(), "Page changed", "page", req.Page)
	ctrl.HandlePageChange(req.Page)
	web.RespondJSON(w, h.logger, http.StatusOK, ctrl.View())
}

// ChangeSort sorts by the requested field, flipping the direction when it is already
// the sort field.
func (h *SearchHandler) ChangeSort(w http.ResponseWriter, r *http.Request) {
	ctrl, ok := h.controller(w, r)
	if !ok {
		return
	}
	var req SortRequest
	if !web.DecodeValid(w, r, h.logger, h.validate, &req) {
		return
	}
	if err := ctrl.HandleSortChange(search.Field(req.Field)); err != nil {
		h.logger.WarnContext(r.Context(), "Invalid sort field", "field", req.Field, "error", err)
		web.RespondError(w, h.logger, http.StatusBadRequest, err.Error())
		return
	}
	h.logger.DebugContext(r.Context(), "Sort changed", "field", req.Field)
	web.RespondJSON(w, h.logger, http.StatusOK, ctrl.View())
}

// Delete closes a session.
func (h *SearchHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return
	}
	if err := h.sessions.Delete(id); err != nil {
		h.respondSessionError(w, r, id, err)
		return
	}
	h.logger.InfoContext(r.Context(), "Search session deleted", "ID", id)
	w.WriteHeader(http.StatusNoContent)
}

// sessionContext tags the request context with the session id from the path, so every
// record logged while serving the request names its session.
func sessionContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := applog.WithSessionID(r.Context(), chi.URLParam(r, "id"))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// controller resolves the session addressed by the request path. On failure the error
// response has already been written.
func (h *SearchHandler) controller(w http.ResponseWriter, r *http.Request) (*controller.Controller, bool) {
	id, ok := web.ParseID(w, r, h.logger)
	if !ok {
		return nil, false
	}
	ctrl, err := h.sessions.Get(id)
	if err != nil {
		h.respondSessionError(w, r, id, err)
		return nil, false
	}
	return ctrl, true
}

func (h *SearchHandler) respondSessionError(w http.ResponseWriter, r *http.Request, id uuid.UUID, err error) {
	if errors.Is(err, serrors.ErrSessionNotFound) {
		h.logger.WarnContext(r.Context(), "Search session not found", "ID", id)
		web.RespondError(w, h.logger, http.StatusNotFound, fmt.Sprintf("Search session with ID %s not found", id))
		return
	}
	h.logger.ErrorContext(r.Context(), "Error resolving search session", "ID", id, "error", err)
	web.RespondError(w, h.logger, http.StatusInternalServerError, "Failed to resolve search session")
}

// HealthCheck is a simple health check endpoint.
func HealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
}
