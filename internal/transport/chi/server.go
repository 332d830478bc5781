package chi

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/assessrec/internal/domain"
	healthuc "github.com/kailas-cloud/assessrec/internal/usecase/health"
	recommenduc "github.com/kailas-cloud/assessrec/internal/usecase/recommend"
)

const maxBodyBytes = 1 << 20

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server serves the recommendation HTTP API.
type Server struct {
	recommend     *recommenduc.Service
	health        *healthuc.Service
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	recommend *recommenduc.Service,
	health *healthuc.Service,
	logger *zap.Logger,
) *Server {
	s := &Server{
		recommend: recommend,
		health:    health,
		logger:    logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrEmptyQuery, http.StatusBadRequest, codeEmptyQuery),
		sentinelHandler(domain.ErrEmbeddingProviderError, http.StatusBadGateway, codeEmbeddingFailure),
		sentinelHandler(domain.ErrIndexNotLoaded, http.StatusServiceUnavailable, codeUnavailable),
	}
	return s
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status != healthuc.Healthy {
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, HealthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Recommend handles POST /recommend.
func (s *Server) Recommend(w http.ResponseWriter, r *http.Request) {
	res, usage, ok := s.runRecommend(w, r)
	if !ok {
		return
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, RecommendResponse{
		Query:   res.Query,
		Results: resultsToDTO(res.Items, explainRequested(r)),
	})
}

// RecommendPretty handles POST /recommend/pretty.
func (s *Server) RecommendPretty(w http.ResponseWriter, r *http.Request) {
	res, usage, ok := s.runRecommend(w, r)
	if !ok {
		return
	}

	setEmbeddingHeaders(w, usage)
	writeJSON(w, http.StatusOK, PrettyResponse{
		RecommendResponse: RecommendResponse{
			Query:   res.Query,
			Results: resultsToDTO(res.Items, explainRequested(r)),
		},
		Summary: recommenduc.Summary(res.Items),
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

// runRecommend decodes the body and runs the service. On failure it has
// already written the error response and returns ok=false.
func (s *Server) runRecommend(
	w http.ResponseWriter, r *http.Request,
) (recommenduc.Result, *domain.EmbeddingUsage, bool) {
	// An empty body is an empty request; validation reports it as empty_query.
	var req RecommendRequest
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req)
	if err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, codeBadRequest, "invalid request body: "+err.Error())
		return recommenduc.Result{}, nil, false
	}

	ctx, usage := domain.NewContextWithUsage(r.Context())
	res, err := s.recommend.Recommend(ctx, recommenduc.Request{
		JobTitle:       req.JobTitle,
		JobDescription: req.JobDescription,
		Skills:         req.Skills,
		TopK:           req.TopK.IntPtr(),
	})
	if err != nil {
		s.handleDomainError(w, err)
		return recommenduc.Result{}, nil, false
	}
	return res, usage, true
}

func explainRequested(r *http.Request) bool {
	v, err := strconv.ParseBool(r.URL.Query().Get("explain"))
	return err == nil && v
}

func setEmbeddingHeaders(w http.ResponseWriter, usage *domain.EmbeddingUsage) {
	if usage != nil && usage.Used {
		w.Header().Set("X-Embedding-Tokens", strconv.Itoa(usage.TotalTokens))
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, ErrorResponse{
		Error: message,
		Code:  code,
	})
}

// safeDomainMessage returns a sentinel error message for the client without exposing internals.
func safeDomainMessage(err error) string {
	sentinels := []error{
		domain.ErrEmptyQuery,
		domain.ErrEmbeddingProviderError,
		domain.ErrIndexNotLoaded,
	}
	for _, s := range sentinels {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrEmptyQuery) {
		s.logger.Debug("domain error", zap.Error(err))
	} else {
		s.logger.Warn("domain error", zap.Error(err))
	}
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternal, "internal error")
}
