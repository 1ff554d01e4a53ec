package breakdowns

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/JaimeStill/slate/pkg/handlers"
	"github.com/JaimeStill/slate/pkg/pagination"
	"github.com/JaimeStill/slate/pkg/routes"
)

// Handler provides HTTP endpoints for breakdown operations.
type Handler struct {
	sys        System
	logger     *slog.Logger
	pagination pagination.Config
}

// SearchRequest combines pagination and filter criteria for the search endpoint.
type SearchRequest struct {
	pagination.PageRequest
	Filters
}

// NewHandler creates a Handler with the given system, logger, and pagination config.
func NewHandler(sys System, logger *slog.Logger, pagination pagination.Config) *Handler {
	return &Handler{
		sys:        sys,
		logger:     logger.With("handler", "breakdowns"),
		pagination: pagination,
	}
}

// Routes returns the route group definition for breakdown endpoints.
// Per-script routes carry three segments so they never overlap the
// two-segment /{id}/... routes.
func (h *Handler) Routes() routes.Group {
	return routes.Group{
		Prefix: "/breakdowns",
		Tag:    "Breakdowns",
		Routes: []routes.Route{
			{Method: "GET", Pattern: "", Handler: h.List, Summary: "List breakdowns"},
			{Method: "GET", Pattern: "/{id}", Handler: h.Find, Summary: "Find a breakdown"},
			{Method: "GET", Pattern: "/{id}/evidence", Handler: h.Evidence, Summary: "Export the evidence ledger"},
			{Method: "GET", Pattern: "/script/{id}/current", Handler: h.FindByScript, Summary: "Find the breakdown for a script"},
			{Method: "POST", Pattern: "/search", Handler: h.Search, Summary: "Search breakdowns"},
			{Method: "POST", Pattern: "/script/{id}/analyze", Handler: h.Analyze, Summary: "Analyze a script", Status: http.StatusCreated},
			{Method: "POST", Pattern: "/{id}/review", Handler: h.Review, Summary: "Close human review"},
			{Method: "DELETE", Pattern: "/{id}", Handler: h.Delete, Summary: "Delete a breakdown", Status: http.StatusNoContent},
		},
	}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page := pagination.PageRequestFromQuery(r.URL.Query(), h.pagination)
	filters := FiltersFromQuery(r.URL.Query())

	result, err := h.sys.List(r.Context(), page, filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

func (h *Handler) Find(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	b, err := h.sys.Find(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, b)
}

// FindByScript returns the breakdown for the script id in the path.
func (h *Handler) FindByScript(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	b, err := h.sys.FindByScript(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, b)
}

// Evidence returns the archived evidence ledger for a breakdown.
func (h *Handler) Evidence(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	export, err := h.sys.Evidence(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, export)
}

func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	req.PageRequest.Normalize(h.pagination)

	result, err := h.sys.List(r.Context(), req.PageRequest, req.Filters)
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusInternalServerError, err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, result)
}

// Analyze runs the breakdown workflow for the script id in the path.
// Returns 201 with the stored breakdown.
func (h *Handler) Analyze(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	b, err := h.sys.Analyze(r.Context(), id)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusCreated, b)
}

// Review records a human sign-off from a ReviewCommand body.
func (h *Handler) Review(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var cmd ReviewCommand
	if err := json.NewDecoder(r.Body).Decode(&cmd); err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, err)
		return
	}

	b, err := h.sys.Review(r.Context(), id, cmd)
	if err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	handlers.RespondJSON(w, http.StatusOK, b)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	if err := h.sys.Delete(r.Context(), id); err != nil {
		handlers.RespondError(w, h.logger, MapHTTPStatus(err), err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		handlers.RespondError(w, h.logger, http.StatusBadRequest, ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}
