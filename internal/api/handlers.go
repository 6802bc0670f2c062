// Package api exposes the admin and public HTTP surface: table, detail
// page and contact CRUD for the back-office, and rendered table views for
// the public program pages.
package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/goabroad-labs/studytables/internal/config"
	"github.com/goabroad-labs/studytables/internal/dyntable"
	"github.com/goabroad-labs/studytables/internal/site"
	"github.com/goabroad-labs/studytables/internal/store"
)

// Handler holds dependencies for HTTP handlers.
type Handler struct {
	store       store.Store
	config      *config.Config
	csrf        *CSRFMiddleware
	rateLimiter *RateLimiter
}

// NewHandler creates the API handler with its middleware state.
func NewHandler(st store.Store, cfg *config.Config) (*Handler, error) {
	csrf, err := NewCSRFMiddleware()
	if err != nil {
		return nil, err
	}
	return &Handler{
		store:       st,
		config:      cfg,
		csrf:        csrf,
		rateLimiter: NewRateLimiter(cfg.RateLimit, time.Minute),
	}, nil
}

// RegisterRoutes sets up the HTTP routes.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// CSRF token endpoint stays outside the CSRF middleware.
	mux.HandleFunc("GET /api/csrf-token", h.handleGetCSRFToken)

	apiMux := http.NewServeMux()

	// Admin: dynamic tables
	apiMux.HandleFunc("POST /api/tables", h.handleCreateTable)
	apiMux.HandleFunc("GET /api/tables/{id}", h.handleGetTable)
	apiMux.HandleFunc("PUT /api/tables/{id}", h.handleUpdateTable)
	apiMux.HandleFunc("DELETE /api/tables/{id}", h.handleDeleteTable)
	apiMux.HandleFunc("GET /api/column-types", h.handleColumnTypes)

	// Admin: detail pages
	apiMux.HandleFunc("POST /api/pages", h.handleCreatePage)
	apiMux.HandleFunc("GET /api/pages", h.handleListPages)
	apiMux.HandleFunc("GET /api/pages/{id}", h.handleGetPage)
	apiMux.HandleFunc("PUT /api/pages/{id}", h.handleUpdatePage)
	apiMux.HandleFunc("DELETE /api/pages/{id}", h.handleDeletePage)

	// Public: table definitions and rendered views per page
	apiMux.HandleFunc("GET /api/pages/{id}/tables", h.handlePageTables)
	apiMux.HandleFunc("GET /api/pages/{id}/tables/rendered", h.handlePageTablesRendered)

	// Contacts: public submit, admin list/delete
	apiMux.HandleFunc("POST /api/contacts", h.handleCreateContact)
	apiMux.HandleFunc("GET /api/contacts", h.handleListContacts)
	apiMux.HandleFunc("DELETE /api/contacts/{id}", h.handleDeleteContact)

	// Middleware chain: body limit -> rate limiting -> CSRF.
	protected := LimitBodySize(h.rateLimiter.Wrap(h.csrf.Wrap(apiMux)), 1<<20)
	mux.Handle("/api/", protected)
}

// Stop stops background goroutines. Should be called on graceful shutdown.
func (h *Handler) Stop() {
	h.csrf.Stop()
	h.rateLimiter.Stop()
}

type csrfTokenData struct {
	Token string `json:"token"`
}

func (h *Handler) handleGetCSRFToken(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, csrfTokenData{Token: h.csrf.Token()})
}

// API response envelope, shared by every endpoint.
type apiResponse[T any] struct {
	Success bool      `json:"success"`
	Data    T         `json:"data,omitempty"`
	Error   *apiError `json:"error,omitempty"`
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes for API responses.
const (
	ErrCodeInvalidRequest = "INVALID_REQUEST"
	ErrCodeValidation     = "VALIDATION_ERROR"
	ErrCodeNotFound       = "NOT_FOUND"
	ErrCodeInvalidRef     = "UNKNOWN_DETAIL_PAGE"
	ErrCodeStore          = "STORE_ERROR"
)

func respondJSON[T any](w http.ResponseWriter, status int, data T) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	resp := apiResponse[T]{Success: true, Data: data}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("[ERROR] encode response: %v", err)
	}
}

type errorResponse struct {
	Success bool      `json:"success"`
	Error   *apiError `json:"error,omitempty"`
}

// respondError logs full details server-side and sends a safe message to
// the client.
func (h *Handler) respondError(w http.ResponseWriter, code, clientMessage string, status int, internalErr error) {
	if internalErr != nil {
		log.Printf("[%s] %s: %v", code, clientMessage, internalErr)
	} else {
		log.Printf("[%s] %s", code, clientMessage)
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	resp := errorResponse{Success: false, Error: &apiError{Code: code, Message: clientMessage}}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("[ERROR] encode error response: %v", err)
	}
}

// respondStoreError maps domain and store errors onto the response
// taxonomy: user-correctable validation problems come back verbatim with a
// 400, missing records with a 404, and everything else is a generic 500
// with the detail kept server-side.
func (h *Handler) respondStoreError(w http.ResponseWriter, err error, action string) {
	var verr *dyntable.ValidationError
	var ferr *site.FieldError
	switch {
	case errors.As(err, &verr):
		h.respondError(w, ErrCodeValidation, verr.Error(), http.StatusBadRequest, nil)
	case errors.As(err, &ferr):
		h.respondError(w, ErrCodeValidation, ferr.Error(), http.StatusBadRequest, nil)
	case errors.Is(err, store.ErrInvalidRef):
		h.respondError(w, ErrCodeInvalidRef, "The selected detail page does not exist", http.StatusBadRequest, nil)
	case errors.Is(err, store.ErrNotFound):
		h.respondError(w, ErrCodeNotFound, "Record not found", http.StatusNotFound, nil)
	default:
		h.respondError(w, ErrCodeStore, "Failed to "+action, http.StatusInternalServerError, err)
	}
}

// decodeJSONBody decodes the request body into v. Returns false if
// decoding fails (error response already sent).
func (h *Handler) decodeJSONBody(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		h.respondError(w, ErrCodeInvalidRequest, "Invalid request body", http.StatusBadRequest, err)
		return false
	}
	return true
}

// pathID parses the {id} path value. Returns 0 and false if it is not a
// positive integer (error response already sent).
func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		h.respondError(w, ErrCodeInvalidRequest, "Invalid id", http.StatusBadRequest, err)
		return 0, false
	}
	return id, true
}
