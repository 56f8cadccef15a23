package http

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	chi_middleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-playground/validator/v10"

	"github.com/numberdesk/numberdesk/internal/number_service/app"
	"github.com/numberdesk/numberdesk/internal/number_service/domain"
	"github.com/numberdesk/numberdesk/internal/public_api_service/middleware"
)

// NumberHandler exposes the registry, session selection, listing, availability
// and endpoint-creation operations over HTTP.
type NumberHandler struct {
	app      *app.Application
	logger   *slog.Logger
	validate *validator.Validate
}

// NewNumberHandler creates a new NumberHandler.
func NewNumberHandler(application *app.Application, logger *slog.Logger, validate *validator.Validate) *NumberHandler {
	return &NumberHandler{
		app:      application,
		logger:   logger.With("handler", "numbers"),
		validate: validate,
	}
}

// RegisterRoutes registers the authenticated API routes.
func (h *NumberHandler) RegisterRoutes(r chi.Router) {
	r.Get("/organizations", h.handleListOrganizations)
	r.Get("/organizations/{organization}/providers", h.handleListProviders)

	r.Put("/session/organization", h.handleSelectOrganization)
	r.Put("/session/provider", h.handleSelectProvider)
	r.Delete("/session", h.handleEndSession)

	r.Post("/numbers/refresh", h.handleRefresh)
	r.Get("/numbers", h.handleBrowse)
	r.Get("/numbers/export", h.handleExportCSV)
	r.Get("/numbers/stats", h.handleStats)
	r.Post("/numbers/check", h.handleCheck)

	r.Post("/endpoints", h.handleCreateEndpoints)
}

func (h *NumberHandler) handleListOrganizations(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string][]string{"organizations": h.app.Organizations()})
}

func (h *NumberHandler) handleListProviders(w http.ResponseWriter, r *http.Request) {
	orgName := chi.URLParam(r, "organization")
	providers, err := h.app.Providers(orgName)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	dtos := make([]ProviderDTO, 0, len(providers))
	for _, p := range providers {
		dtos = append(dtos, ProviderDTO{Name: p.Name, ChannelProvider: p.ChannelProvider, ConnectionID: p.ConnectionID})
	}
	h.writeJSON(w, http.StatusOK, map[string][]ProviderDTO{"providers": dtos})
}

func (h *NumberHandler) handleSelectOrganization(w http.ResponseWriter, r *http.Request) {
	session, logger, ok := h.sessionLogger(w, r)
	if !ok {
		return
	}

	var req SelectOrganizationRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.app.SelectOrganization(r.Context(), session, req.Organization); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	logger.InfoContext(r.Context(), "Organization selected", "org", req.Organization)
	h.writeJSON(w, http.StatusOK, map[string]string{"organization": req.Organization})
}

func (h *NumberHandler) handleSelectProvider(w http.ResponseWriter, r *http.Request) {
	session, logger, ok := h.sessionLogger(w, r)
	if !ok {
		return
	}

	var req SelectProviderRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	if err := h.app.SelectProvider(r.Context(), session, req.Provider); err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	logger.InfoContext(r.Context(), "Provider selected", "provider", req.Provider)
	h.writeJSON(w, http.StatusOK, map[string]string{"provider": req.Provider})
}

func (h *NumberHandler) handleEndSession(w http.ResponseWriter, r *http.Request) {
	session, _, ok := h.sessionLogger(w, r)
	if !ok {
		return
	}
	h.app.EndSession(r.Context(), session)
	w.WriteHeader(http.StatusNoContent)
}

func (h *NumberHandler) handleRefresh(w http.ResponseWriter, r *http.Request) {
	session, _, ok := h.sessionLogger(w, r)
	if !ok {
		return
	}

	records, fetchedAt, err := h.app.RefreshNumbers(r.Context(), session)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, RefreshResponse{Count: len(records), FetchedAt: fetchedAt})
}

func (h *NumberHandler) handleBrowse(w http.ResponseWriter, r *http.Request) {
	session, _, ok := h.sessionLogger(w, r)
	if !ok {
		return
	}

	prefix := r.URL.Query().Get("prefix")
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			h.jsonError(w, "limit must be a non-negative integer", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	listing, err := h.app.BrowseNumbers(r.Context(), session, prefix, limit)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"numbers":    listing.Records,
		"total":      listing.Total,
		"fetched_at": listing.FetchedAt,
	})
}

func (h *NumberHandler) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	session, logger, ok := h.sessionLogger(w, r)
	if !ok {
		return
	}

	// Build the CSV in memory first so a failed export can still report a
	// proper error status instead of an empty download.
	var buf bytes.Buffer
	count, err := h.app.ExportCSV(r.Context(), session, &buf)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	filename := fmt.Sprintf("phone_numbers_%s.csv", time.Now().Format("20060102_150405"))
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename="+filename)
	if _, err := w.Write(buf.Bytes()); err != nil {
		logger.ErrorContext(r.Context(), "Failed to write CSV response", "error", err)
		return
	}
	logger.InfoContext(r.Context(), "Listing exported as CSV", "rows", count)
}

func (h *NumberHandler) handleStats(w http.ResponseWriter, r *http.Request) {
	session, _, ok := h.sessionLogger(w, r)
	if !ok {
		return
	}

	stats, err := h.app.Stats(r.Context(), session)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}

func (h *NumberHandler) handleCheck(w http.ResponseWriter, r *http.Request) {
	session, _, ok := h.sessionLogger(w, r)
	if !ok {
		return
	}

	var req CheckNumbersRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	results, err := h.app.CheckNumbers(r.Context(), session, req.Numbers, req.Refresh)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, CheckNumbersResponse{Results: results})
}

func (h *NumberHandler) handleCreateEndpoints(w http.ResponseWriter, r *http.Request) {
	session, logger, ok := h.sessionLogger(w, r)
	if !ok {
		return
	}

	var req CreateEndpointsRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	results, err := h.app.CreateEndpoints(r.Context(), session, req.Numbers, req.Precheck)
	if err != nil {
		h.writeDomainError(w, r, err)
		return
	}

	created := 0
	for _, res := range results {
		if res.Created {
			created++
		}
	}
	logger.InfoContext(r.Context(), "Endpoint creation requested", "requested", len(req.Numbers), "created", created)
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"results": results,
		"created": created,
		"failed":  len(results) - created,
	})
}

// sessionLogger pulls the authenticated session from the request context and
// builds a request-scoped logger.
func (h *NumberHandler) sessionLogger(w http.ResponseWriter, r *http.Request) (*app.Session, *slog.Logger, bool) {
	session, ok := middleware.SessionFromContext(r.Context())
	if !ok || session == nil {
		h.logger.WarnContext(r.Context(), "Request without authenticated session reached handler")
		h.jsonError(w, "Unauthorized", http.StatusUnauthorized)
		return nil, nil, false
	}
	logger := h.logger.With("request_id", chi_middleware.GetReqID(r.Context()), "session_id", session.ID)
	return session, logger, true
}

func (h *NumberHandler) decodeAndValidate(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.jsonError(w, "Invalid request payload: "+err.Error(), http.StatusBadRequest)
		return false
	}
	defer r.Body.Close()
	if err := h.validate.StructCtx(r.Context(), dst); err != nil {
		h.jsonError(w, "Validation failed: "+err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// writeDomainError maps the domain error kinds onto HTTP statuses. Every kind
// stays user-visible; none of them kills the process.
func (h *NumberHandler) writeDomainError(w http.ResponseWriter, r *http.Request, err error) {
	logger := h.logger.With("request_id", chi_middleware.GetReqID(r.Context()))
	switch {
	case errors.Is(err, domain.ErrNotFound):
		h.jsonError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, domain.ErrMissingCredential):
		logger.ErrorContext(r.Context(), "Credential missing for request", "error", err)
		h.jsonError(w, err.Error(), http.StatusServiceUnavailable)
	case errors.Is(err, domain.ErrInvalidCredential):
		logger.ErrorContext(r.Context(), "Provider rejected credential", "error", err)
		h.jsonError(w, err.Error(), http.StatusBadGateway)
	case errors.Is(err, domain.ErrProviderRejected):
		logger.WarnContext(r.Context(), "Provider rejected request", "error", err)
		h.jsonError(w, err.Error(), http.StatusBadGateway)
	case errors.Is(err, domain.ErrProviderUnreachable):
		logger.ErrorContext(r.Context(), "Provider unreachable", "error", err)
		h.jsonError(w, err.Error(), http.StatusGatewayTimeout)
	case errors.Is(err, domain.ErrMalformedResponse):
		logger.ErrorContext(r.Context(), "Malformed provider response", "error", err)
		h.jsonError(w, err.Error(), http.StatusBadGateway)
	default:
		logger.ErrorContext(r.Context(), "Unhandled error", "error", err)
		h.jsonError(w, "Internal server error", http.StatusInternalServerError)
	}
}

func (h *NumberHandler) writeJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("Failed to encode response", "error", err)
	}
}

func (h *NumberHandler) jsonError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(GenericErrorResponse{Error: message})
}
