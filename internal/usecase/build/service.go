// Package build embeds the catalog and produces the vector index artifacts.
package build

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/panjf2000/ants/v2"
	"go.uber.org/zap"

	"github.com/kailas-cloud/assessrec/internal/domain"
	domcat "github.com/kailas-cloud/assessrec/internal/domain/catalog"
	"github.com/kailas-cloud/assessrec/internal/index"
	"github.com/kailas-cloud/assessrec/internal/metrics"
)

// Options tunes the builder.
type Options struct {
	Workers       int
	BatchSize     int
	RetryAttempts int
	RetryDelay    time.Duration
}

// Stats summarizes a finished build.
type Stats struct {
	Documents    int
	Batches      int
	Dimensions   int
	PromptTokens int
	TotalTokens  int
	Duration     time.Duration
	Published    bool
}

// Service builds the index from catalog entries.
type Service struct {
	embed     Embedder
	publisher Publisher
	dim       int
	opts      Options
	logger    *zap.Logger
}

// New creates a build service producing vectors of dimension dim.
func New(embed Embedder, publisher Publisher, dim int, opts Options, logger *zap.Logger) *Service {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = 64
	}
	if opts.RetryAttempts <= 0 {
		opts.RetryAttempts = 1
	}
	if opts.RetryDelay <= 0 {
		opts.RetryDelay = 200 * time.Millisecond
	}
	return &Service{embed: embed, publisher: publisher, dim: dim, opts: opts, logger: logger}
}

type batch struct {
	start int
	texts []string
}

// Build embeds every entry's document and returns the index, row i holding entry i.
func (s *Service) Build(ctx context.Context, entries []domcat.Entry) (*index.Flat, Stats, error) {
	started := time.Now()
	if len(entries) == 0 {
		return nil, Stats{}, fmt.Errorf("%w: no entries to index", domain.ErrInvalidCatalog)
	}

	batches := s.split(entries)
	vectors := make([][]float32, len(entries))

	pool, err := ants.NewPool(s.opts.Workers)
	if err != nil {
		return nil, Stats{}, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
		prompt   int
		total    int
	)
	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
			cancel()
		}
		mu.Unlock()
	}

	for _, b := range batches {
		wg.Add(1)
		submitErr := pool.Submit(func() {
			defer wg.Done()
			res, err := s.embedBatch(ctx, b)
			if err != nil {
				metrics.BuildDocumentsTotal.WithLabelValues("failed").Add(float64(len(b.texts)))
				fail(fmt.Errorf("batch at row %d: %w", b.start, err))
				return
			}
			copy(vectors[b.start:], res.Embeddings)
			metrics.BuildDocumentsTotal.WithLabelValues("embedded").Add(float64(len(b.texts)))

			mu.Lock()
			prompt += res.PromptTokens
			total += res.TotalTokens
			mu.Unlock()
		})
		if submitErr != nil {
			wg.Done()
			fail(fmt.Errorf("submit batch: %w", submitErr))
			break
		}
	}
	wg.Wait()

	if firstErr != nil {
		return nil, Stats{}, firstErr
	}

	idx := index.NewFlat(s.dim)
	if err := idx.Add(vectors...); err != nil {
		return nil, Stats{}, fmt.Errorf("add vectors: %w", err)
	}

	stats := Stats{
		Documents:    idx.Len(),
		Batches:      len(batches),
		Dimensions:   s.dim,
		PromptTokens: prompt,
		TotalTokens:  total,
		Duration:     time.Since(started),
	}
	return idx, stats, nil
}

// Run builds the index and publishes it unless dryRun is set.
func (s *Service) Run(ctx context.Context, entries []domcat.Entry, dryRun bool) (Stats, error) {
	idx, stats, err := s.Build(ctx, entries)
	if err != nil {
		return Stats{}, err
	}

	if dryRun {
		s.logger.Info("dry run, artifacts not published",
			zap.Int("documents", stats.Documents),
			zap.Int("dimensions", stats.Dimensions),
		)
		return stats, nil
	}

	if err := s.publisher.Publish(idx, entries); err != nil {
		return Stats{}, fmt.Errorf("publish artifacts: %w", err)
	}
	stats.Published = true
	return stats, nil
}

func (s *Service) split(entries []domcat.Entry) []batch {
	var out []batch
	for start := 0; start < len(entries); start += s.opts.BatchSize {
		end := min(start+s.opts.BatchSize, len(entries))
		texts := make([]string, 0, end-start)
		for _, e := range entries[start:end] {
			texts = append(texts, e.Document())
		}
		out = append(out, batch{start: start, texts: texts})
	}
	return out
}

// embedBatch calls the provider with retries. Shape errors are not retried.
func (s *Service) embedBatch(ctx context.Context, b batch) (domain.BatchEmbeddingResult, error) {
	started := time.Now()
	defer func() { metrics.BuildBatchDuration.Observe(time.Since(started).Seconds()) }()

	var res domain.BatchEmbeddingResult
	err := retry.Do(
		func() error {
			r, err := s.embed.BatchEmbed(ctx, b.texts)
			if err != nil {
				return err
			}
			if len(r.Embeddings) != len(b.texts) {
				return retry.Unrecoverable(fmt.Errorf("%w: got %d vectors for %d documents",
					domain.ErrEmbeddingProviderError, len(r.Embeddings), len(b.texts)))
			}
			for _, v := range r.Embeddings {
				if len(v) != s.dim {
					return retry.Unrecoverable(domain.NewDimMismatch(s.dim, len(v)))
				}
			}
			res = r
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(uint(s.opts.RetryAttempts)), //nolint:gosec // positive after New
		retry.Delay(s.opts.RetryDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return retry.IsRecoverable(err) &&
				!errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
		}),
		retry.OnRetry(func(n uint, err error) {
			metrics.BuildBatchRetriesTotal.Inc()
			s.logger.Warn("embedding batch failed, retrying",
				zap.Int("start_row", b.start),
				zap.Int("size", len(b.texts)),
				zap.Uint("attempt", n+1),
				zap.Error(err),
			)
		}),
	)
	if err != nil {
		return domain.BatchEmbeddingResult{}, err //nolint:wrapcheck // wrapped by caller
	}
	return res, nil
}
