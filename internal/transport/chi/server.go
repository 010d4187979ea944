package chi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/oapi-codegen/runtime"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/discover/internal/domain"
	"github.com/kailas-cloud/discover/internal/domain/search/params"
	"github.com/kailas-cloud/discover/internal/domain/search/result"
	"github.com/kailas-cloud/discover/internal/domain/search/state"
	"github.com/kailas-cloud/discover/internal/logger"
	healthuc "github.com/kailas-cloud/discover/internal/usecase/health"
	searchuc "github.com/kailas-cloud/discover/internal/usecase/search"
)

// aggregationsParam turns facet aggregations on or off regardless of page.
const aggregationsParam = "aggregations"

// ErrorCode is the machine-readable error code of an ErrorResponse.
type ErrorCode string

// Error codes.
const (
	ErrorCodeBadRequest         ErrorCode = "bad_request"
	ErrorCodeUnauthorized       ErrorCode = "unauthorized"
	ErrorCodeNotFound           ErrorCode = "not_found"
	ErrorCodeQuerySyntax        ErrorCode = "query_syntax"
	ErrorCodeServiceUnavailable ErrorCode = "service_unavailable"
	ErrorCodeInternalError      ErrorCode = "internal_error"
)

// ErrorResponse is the body of every non-search error.
type ErrorResponse struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
}

// SearchResponse is the body of GET /search, including degraded responses.
type SearchResponse struct {
	Results      []result.Item   `json:"results"`
	Total        int             `json:"total"`
	Took         float64         `json:"took"`
	Aggregations json.RawMessage `json:"aggregations,omitempty"`
	Page         int             `json:"page"`
	Size         int             `json:"size"`
	TotalPages   int             `json:"total_pages"`
	ClampedPages int             `json:"clamped_pages"`
	HiddenPages  int             `json:"hidden_pages"`
	QueryError   bool            `json:"query_error"`
	ShareDown    bool            `json:"share_down"`
	Query        string          `json:"query"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string                     `json:"status"`
	Checks map[string]ComponentHealth `json:"checks"`
}

// ComponentHealth is one probed dependency in HealthResponse.
type ComponentHealth struct {
	Status    string  `json:"status"`
	LatencyMS float64 `json:"latency_ms"`
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server exposes the discover API over chi.
type Server struct {
	search        *searchuc.Service
	health        *healthuc.Service
	pageSize      int
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server. pageSize is used when a request has no size parameter.
func NewServer(search *searchuc.Service, health *healthuc.Service, pageSize int, logger *zap.Logger) *Server {
	if pageSize <= 0 {
		pageSize = state.DefaultSize
	}
	s := &Server{
		search:   search,
		health:   health,
		pageSize: pageSize,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, ErrorCodeBadRequest),
		sentinelHandler(domain.ErrQuerySyntax, http.StatusBadRequest, ErrorCodeQuerySyntax),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, ErrorCodeNotFound),
		sentinelHandler(domain.ErrServiceUnavailable, http.StatusServiceUnavailable, ErrorCodeServiceUnavailable),
	}
	return s
}

// Routes registers the API on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/search", s.Search)
	r.Get("/search/query", s.Query)
	r.Get("/counts", s.Counts)
	r.Get("/types", s.Types)
	r.Delete("/cache", s.InvalidateCache)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
}

// Search handles GET /search.
//
// A rejected query answers 400 and an unreachable backend 503; both carry a
// full SearchResponse with empty results and the matching flag set.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	st, err := s.decodeState(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	out, err := s.search.Search(r.Context(), st)
	if err != nil && out.Failure == domain.FailureNone {
		s.handleDomainError(w, r, err)
		return
	}

	status := http.StatusOK
	switch out.Failure {
	case domain.FailureQuerySyntax:
		status = http.StatusBadRequest
	case domain.FailureUnavailable:
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, searchResponse(out))
}

// Query handles GET /search/query: the backend query document the same parameters would run.
func (s *Server) Query(w http.ResponseWriter, r *http.Request) {
	st, err := s.decodeState(r)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	doc, err := s.search.Build(st)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, doc)
}

// Counts handles GET /counts.
func (s *Server) Counts(w http.ResponseWriter, r *http.Request) {
	c, err := s.search.Counts(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Types handles GET /types.
func (s *Server) Types(w http.ResponseWriter, r *http.Request) {
	h, err := s.search.Types(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, h)
}

// InvalidateCache handles DELETE /cache.
func (s *Server) InvalidateCache(w http.ResponseWriter, r *http.Request) {
	if err := s.search.InvalidateCache(r.Context()); err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]ComponentHealth, len(report.Checks))
	for name, c := range report.Checks {
		checks[name] = ComponentHealth{
			Status:    string(c.Result),
			LatencyMS: float64(c.Latency.Microseconds()) / 1000,
		}
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// decodeState reads the search state from the query string. size falls back to
// the configured page size; aggregations=false suppresses facet aggregations on
// any page.
func (s *Server) decodeState(r *http.Request) (state.State, error) {
	q := r.URL.Query()

	var size *int
	if err := runtime.BindQueryParameter("form", true, false, params.Size, q, &size); err != nil {
		return state.State{}, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	var aggregations *bool
	if err := runtime.BindQueryParameter("form", true, false, aggregationsParam, q, &aggregations); err != nil {
		return state.State{}, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}

	st, err := params.Decode(q)
	if err != nil {
		return state.State{}, err
	}
	if size == nil {
		st.Size = s.pageSize
	}
	if aggregations != nil && !*aggregations {
		st = st.Loaded()
	}
	return st, nil
}

func searchResponse(out searchuc.Outcome) SearchResponse {
	items := out.Page.Items
	if items == nil {
		items = []result.Item{}
	}
	return SearchResponse{
		Results:      items,
		Total:        out.Page.Total,
		Took:         out.Page.Took,
		Aggregations: out.Page.Aggregations,
		Page:         out.State.Page,
		Size:         out.State.Size,
		TotalPages:   out.TotalPages(),
		ClampedPages: out.ClampedPages(),
		HiddenPages:  out.HiddenPages(),
		QueryError:   out.Failure == domain.FailureQuerySyntax,
		ShareDown:    out.Failure == domain.FailureUnavailable,
		Query:        params.Encode(out.State).Encode(),
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a client-safe message. Invalid requests keep their
// detail since it only describes the caller's own parameters.
func safeDomainMessage(err error) string {
	if errors.Is(err, domain.ErrInvalidRequest) {
		return err.Error()
	}
	sentinels := []error{
		domain.ErrQuerySyntax,
		domain.ErrNotFound,
		domain.ErrServiceUnavailable,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())
	log.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err), zap.String("path", r.URL.Path))
	writeError(w, http.StatusInternalServerError, ErrorCodeInternalError, "internal error")
}
