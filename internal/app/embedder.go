package app

import (
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/assessrec/internal/config"
	"github.com/kailas-cloud/assessrec/internal/db"
	"github.com/kailas-cloud/assessrec/internal/domain"
	"github.com/kailas-cloud/assessrec/internal/metrics"
	"github.com/kailas-cloud/assessrec/internal/repository/embcache"
	openaiEmb "github.com/kailas-cloud/assessrec/internal/transport/openai"
	embeddinguc "github.com/kailas-cloud/assessrec/internal/usecase/embedding"
)

// BuildEmbedder assembles the decorator chain:
// OpenAI -> Cached -> Instrumented -> Instruction -> Normalizing.
// cache may be nil.
func BuildEmbedder(
	cfg config.EmbeddingConfig,
	instruction string,
	cache db.Store,
	logger *zap.Logger,
) *domain.NormalizingEmbedder {
	base := openaiEmb.NewEmbedder(&openaiEmb.Config{
		APIKey:     cfg.APIKey,
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		Dimensions: cfg.Dimensions,
		Provider:   cfg.Provider,
		Timeout:    time.Duration(cfg.RequestTimeoutSec) * time.Second,
		Logger:     logger,
	})

	var embedder domain.Embedder = base
	if cache != nil {
		embedder = embcache.New(base, cache, cfg.Model, metrics.EmbeddingCacheTotal, logger)
	}

	embedder = embeddinguc.NewInstrumentedEmbedder(embedder, cfg.Provider, cfg.Model, logger)

	// Instruction sits outside the cache, so cache keys include it.
	if instruction != "" {
		embedder = domain.NewInstructionEmbedder(embedder, instruction)
	}

	return domain.NewNormalizingEmbedder(embedder)
}
