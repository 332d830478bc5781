package health

import (
	"context"
	"time"
)

// Status represents the aggregated health status.
type Status string

const (
	// Healthy indicates all components are operational.
	Healthy Status = "ok"
	// Degraded indicates partial failure.
	Degraded Status = "degraded"
)

// CheckResult represents an individual component health check outcome.
type CheckResult string

const (
	// CheckOK indicates a passing health check.
	CheckOK CheckResult = "ok"
	// CheckError indicates a failing health check.
	CheckError CheckResult = "error"
)

// Check names as reported in Report.Checks.
const (
	CheckIndex     = "index"
	CheckCache     = "cache"
	CheckEmbedding = "embedding"
)

const defaultProbeTimeout = 2 * time.Second

// Report aggregates health check results.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

// Service coordinates health checks.
type Service struct {
	index     IndexStats
	cache     CachePinger
	embedding EmbeddingChecker
	timeout   time.Duration
}

// New creates a Service. cache and embedding can be nil and are then not reported.
func New(index IndexStats, cache CachePinger, embedding EmbeddingChecker) *Service {
	return &Service{index: index, cache: cache, embedding: embedding, timeout: defaultProbeTimeout}
}

// Check runs health checks against all components.
func (s *Service) Check(ctx context.Context) Report {
	checks := make(map[string]CheckResult)

	checks[CheckIndex] = result(s.index != nil && s.index.Len() > 0)

	if s.cache != nil {
		pctx, cancel := context.WithTimeout(ctx, s.timeout)
		checks[CheckCache] = result(s.cache.Ping(pctx) == nil)
		cancel()
	}

	if s.embedding != nil {
		pctx, cancel := context.WithTimeout(ctx, s.timeout)
		checks[CheckEmbedding] = result(s.embedding.HealthCheck(pctx) == nil)
		cancel()
	}

	status := Healthy
	for _, v := range checks {
		if v == CheckError {
			status = Degraded
			break
		}
	}

	return Report{Status: status, Checks: checks}
}

func result(ok bool) CheckResult {
	if ok {
		return CheckOK
	}
	return CheckError
}
