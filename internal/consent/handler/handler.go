// Package handler exposes the consent record API over HTTP. It decodes and
// sanitizes payloads, maps query parameters onto the dashboard table
// controls, and translates coded service errors to JSON responses. All policy
// lives in the service layer.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"consentdesk/internal/consent"
	"consentdesk/internal/dashboard"
	"consentdesk/internal/platform/middleware"
	"consentdesk/pkg/apperrors"
	"consentdesk/pkg/requestcontext"
)

// Service is the consent operation surface the handler needs.
type Service interface {
	Create(ctx context.Context, rec consent.NewRecord) (consent.ConsentRecord, error)
	Get(ctx context.Context, id int64) (consent.ConsentRecord, error)
	List(ctx context.Context) ([]consent.ConsentRecord, error)
	Update(ctx context.Context, id int64, patch consent.RecordPatch) (consent.ConsentRecord, error)
	Revoke(ctx context.Context, id int64) error
	Renew(ctx context.Context, id int64) (consent.ConsentRecord, error)
	Search(ctx context.Context, query string) ([]consent.ConsentRecord, error)
	ListByStatus(ctx context.Context, status consent.Status) ([]consent.ConsentRecord, error)
	ListByUser(ctx context.Context, userID int64) ([]consent.ConsentRecord, error)
	ListByDateRange(ctx context.Context, start, end time.Time) ([]consent.ConsentRecord, error)
	Stats(ctx context.Context) (consent.Stats, error)
}

type Handler struct {
	service   Service
	logger    *slog.Logger
	validator middleware.JWTValidator
	pageSize  int
}

// Option configures the Handler.
type Option func(*Handler)

// WithAuth guards mutating routes with bearer-token authentication.
func WithAuth(v middleware.JWTValidator) Option {
	return func(h *Handler) { h.validator = v }
}

// WithPageSize overrides the default dashboard table page size.
func WithPageSize(n int) Option {
	return func(h *Handler) {
		if n > 0 {
			h.pageSize = n
		}
	}
}

func New(service Service, logger *slog.Logger, opts ...Option) *Handler {
	h := &Handler{service: service, logger: logger, pageSize: dashboard.DefaultPageSize}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register mounts the consent routes. Reads are open; writes go through
// RequireAuth when a validator is configured.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api/consent-records", func(r chi.Router) {
		r.Get("/", h.list)
		r.Get("/view", h.view)
		r.Get("/export", h.export)
		r.Get("/search/{query}", h.search)
		r.Get("/status/{status}", h.listByStatus)
		r.Get("/user/{userID}", h.listByUser)
		r.Get("/range", h.listByDateRange)
		r.Get("/{id}", h.get)

		r.Group(func(r chi.Router) {
			if h.validator != nil {
				r.Use(middleware.RequireAuth(h.validator, h.logger))
			}
			r.Post("/", h.create)
			r.Put("/{id}", h.update)
			r.Delete("/{id}", h.revoke)
			r.Post("/{id}/renew", h.renew)
		})
	})
	r.Get("/api/consent-stats", h.stats)
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, records)
}

// view serves the dashboard table: the full record set run through search,
// status and window filters, sorting, and pagination, with totals for the
// footer.
func (h *Handler) view(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	q := h.queryFromRequest(r)
	filtered := dashboard.Apply(records, q, requestcontext.Now(r.Context()))
	h.writeJSON(w, http.StatusOK, dashboard.Paginate(filtered, q.Page, q.PageSize))
}

// export streams the filtered record set as a CSV attachment. The same query
// parameters as /view apply, minus pagination: an export always covers every
// matching record.
func (h *Handler) export(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.List(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	q := h.queryFromRequest(r)
	filtered := dashboard.Apply(records, q, requestcontext.Now(r.Context()))

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", dashboard.ExportFilename))
	w.WriteHeader(http.StatusOK)
	if err := dashboard.WriteCSV(w, filtered); err != nil {
		// Headers are gone; all we can do is log.
		h.logger.ErrorContext(r.Context(), "csv export failed mid-stream", "error", err.Error())
	}
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	rec, err := h.service.Get(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var payload consent.NewRecord
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.writeError(w, r, apperrors.New(apperrors.CodeBadRequest, "invalid request body"))
		return
	}
	sanitize(&payload)

	rec, err := h.service.Create(r.Context(), payload)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusCreated, rec)
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}

	var patch consent.RecordPatch
	if err := json.NewDecoder(r.Body).Decode(&patch); err != nil {
		h.writeError(w, r, apperrors.New(apperrors.CodeBadRequest, "invalid request body"))
		return
	}
	sanitize(&patch)

	rec, err := h.service.Update(r.Context(), id, patch)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) revoke(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	if err := h.service.Revoke(r.Context(), id); err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]string{"message": "Consent record deleted successfully"})
}

func (h *Handler) renew(w http.ResponseWriter, r *http.Request) {
	id, ok := h.pathID(w, r)
	if !ok {
		return
	}
	rec, err := h.service.Renew(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	records, err := h.service.Search(r.Context(), chi.URLParam(r, "query"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, records)
}

func (h *Handler) listByStatus(w http.ResponseWriter, r *http.Request) {
	status := consent.Status(chi.URLParam(r, "status"))
	records, err := h.service.ListByStatus(r.Context(), status)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, records)
}

func (h *Handler) listByUser(w http.ResponseWriter, r *http.Request) {
	userID, err := strconv.ParseInt(chi.URLParam(r, "userID"), 10, 64)
	if err != nil {
		h.writeError(w, r, apperrors.New(apperrors.CodeBadRequest, "user id must be an integer"))
		return
	}
	records, err := h.service.ListByUser(r.Context(), userID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, records)
}

func (h *Handler) listByDateRange(w http.ResponseWriter, r *http.Request) {
	start, err := time.Parse(time.RFC3339, r.URL.Query().Get("start"))
	if err != nil {
		h.writeError(w, r, apperrors.New(apperrors.CodeBadRequest, "start must be an RFC 3339 timestamp"))
		return
	}
	end, err := time.Parse(time.RFC3339, r.URL.Query().Get("end"))
	if err != nil {
		h.writeError(w, r, apperrors.New(apperrors.CodeBadRequest, "end must be an RFC 3339 timestamp"))
		return
	}

	records, err := h.service.ListByDateRange(r.Context(), start, end)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, records)
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	h.writeJSON(w, http.StatusOK, stats)
}

// queryFromRequest maps table query parameters onto dashboard controls.
// Unknown or malformed values fall back to their zero value rather than
// failing the request: a garbled filter widens the view, it never 400s.
func (h *Handler) queryFromRequest(r *http.Request) dashboard.Query {
	params := r.URL.Query()
	q := dashboard.Query{
		Search:    params.Get("search"),
		Status:    params.Get("status"),
		SortField: params.Get("sort"),
		SortAsc:   params.Get("order") == "asc",
		PageSize:  h.pageSize,
	}
	if days, err := strconv.Atoi(params.Get("window")); err == nil {
		for _, preset := range dashboard.WindowDays {
			if days == preset {
				q.WindowDays = days
			}
		}
	}
	if page, err := strconv.Atoi(params.Get("page")); err == nil {
		q.Page = page
	}
	if size, err := strconv.Atoi(params.Get("pageSize")); err == nil && size > 0 {
		q.PageSize = size
	}
	return q
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		h.writeError(w, r, apperrors.New(apperrors.CodeBadRequest, "record id must be a positive integer"))
		return 0, false
	}
	return id, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("failed to encode response", "error", err.Error())
	}
}

// errorResponse is the uniform error envelope. Internal failures carry the
// code only; their detail stays in the logs.
type errorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message,omitempty"`
	Fields  map[string]string `json:"fields,omitempty"`
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	code := apperrors.CodeOf(err)
	status := apperrors.ToHTTPStatus(code)

	resp := errorResponse{Error: string(code)}
	if code != apperrors.CodeInternal {
		var appErr *apperrors.Error
		if errors.As(err, &appErr) {
			resp.Message = appErr.Message
		}
		resp.Fields = apperrors.FieldsOf(err)
	}

	if status >= http.StatusInternalServerError {
		h.logger.ErrorContext(r.Context(), "request failed", "error", err.Error(), "status", status)
	}
	h.writeJSON(w, status, resp)
}
