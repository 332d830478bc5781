package recommend

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/assessrec/internal/domain"
	"github.com/kailas-cloud/assessrec/internal/domain/query"
	"github.com/kailas-cloud/assessrec/internal/domain/recommendation"
	"github.com/kailas-cloud/assessrec/internal/domain/rerank"
	"github.com/kailas-cloud/assessrec/internal/logger"
	"github.com/kailas-cloud/assessrec/internal/metrics"
)

// Options bounds result sizes.
type Options struct {
	DefaultTopK   int
	MaxTopK       int // 0 = unlimited
	EvidenceChars int
}

// Request is a job context to recommend assessments for.
// A nil TopK means the caller did not specify one.
type Request struct {
	JobTitle       string
	JobDescription string
	Skills         []string
	TopK           *int
}

// Result is a ranked recommendation list for one composed query.
type Result struct {
	Query  string
	Intent rerank.Intent
	Items  []recommendation.Item
}

// Service runs retrieval followed by rule-based re-ranking.
// All dependencies are read-only after construction, so one Service
// serves concurrent requests.
type Service struct {
	embed   Embedder
	index   Index
	catalog Catalog
	opts    Options
}

// New creates a recommendation service.
func New(embed Embedder, idx Index, cat Catalog, opts Options) *Service {
	if opts.DefaultTopK < 1 {
		opts.DefaultTopK = query.DefaultTopK
	}
	if opts.EvidenceChars < 1 {
		opts.EvidenceChars = recommendation.DefaultEvidenceChars
	}
	return &Service{embed: embed, index: idx, catalog: cat, opts: opts}
}

// Recommend composes the query, retrieves the top-k nearest catalog entries,
// applies rule boosts and returns them ranked by final score.
func (s *Service) Recommend(ctx context.Context, req Request) (Result, error) {
	q, err := query.New(req.JobTitle, req.JobDescription, req.Skills, s.topK(req.TopK))
	if err != nil {
		metrics.RecommendRequestsTotal.WithLabelValues("empty_query").Inc()
		return Result{}, err //nolint:wrapcheck // sentinel passed to transport as is
	}
	ctx = logger.With(ctx, zap.Int("top_k", q.TopK()))

	candidates, err := s.retrieve(ctx, q)
	if err != nil {
		metrics.RecommendRequestsTotal.WithLabelValues("error").Inc()
		return Result{}, err
	}

	start := time.Now()
	scorer := rerank.NewScorer(q.Text())
	for i := range candidates {
		rules := scorer.Explain(candidates[i].Entry)
		for _, r := range rules {
			candidates[i].Boost += r.Delta
			metrics.RerankRulesFiredTotal.WithLabelValues(r.Name).Inc()
		}
		candidates[i].Rules = rules
	}
	items := recommendation.Assemble(candidates, s.opts.EvidenceChars)
	metrics.RecommendStageDuration.WithLabelValues("rerank").Observe(time.Since(start).Seconds())

	metrics.RecommendRequestsTotal.WithLabelValues("ok").Inc()
	metrics.RecommendResults.Observe(float64(len(items)))

	logger.FromContext(ctx).Debug("Recommendation ranked",
		zap.Int("results", len(items)),
		zap.Bool("intent_tech", scorer.Intent().Tech || scorer.Intent().AI),
		zap.Bool("intent_leadership", scorer.Intent().Leadership),
	)

	return Result{Query: q.Text(), Intent: scorer.Intent(), Items: items}, nil
}

// retrieve embeds the query once, searches the index and resolves rows to
// entries, preserving the index's descending-similarity order.
func (s *Service) retrieve(ctx context.Context, q query.Query) ([]recommendation.Candidate, error) {
	start := time.Now()
	emb, err := s.embed.Embed(ctx, q.Text())
	metrics.RecommendStageDuration.WithLabelValues("embed").Observe(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, domain.ErrEmbeddingProviderError) {
			return nil, fmt.Errorf("vectorize query: %w", err)
		}
		return nil, fmt.Errorf("vectorize query: %w: %w", domain.ErrEmbeddingProviderError, err)
	}

	domain.UsageFromContext(ctx).AddTokens(emb.TotalTokens)

	start = time.Now()
	hits, err := s.index.Search(emb.Embedding, q.TopK())
	metrics.RecommendStageDuration.WithLabelValues("search").Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}
	logger.FromContext(ctx).Debug("Index searched", zap.Int("hits", len(hits)), zap.Int("tokens", emb.TotalTokens))

	candidates := make([]recommendation.Candidate, 0, len(hits))
	for _, h := range hits {
		entry, ok := s.catalog.At(h.Position)
		if !ok {
			return nil, fmt.Errorf("%w: row %d outside catalog of %d",
				domain.ErrArtifactMismatch, h.Position, s.catalog.Len())
		}
		candidates = append(candidates, recommendation.Candidate{
			Entry:      entry,
			Similarity: h.Score,
		})
	}
	return candidates, nil
}

// topK applies the default for a missing value, the >= 1 coercion and the ceiling.
func (s *Service) topK(requested *int) int {
	k := s.opts.DefaultTopK
	if requested != nil {
		k = query.CoerceTopK(*requested)
	}
	if s.opts.MaxTopK > 0 && k > s.opts.MaxTopK {
		k = s.opts.MaxTopK
	}
	return k
}
