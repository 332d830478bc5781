package domain

import (
	"context"
	"fmt"
	"math"
)

// Embedder is the shared text vectorization contract between layers.
type Embedder interface {
	Embed(ctx context.Context, text string) (EmbeddingResult, error)
}

// BatchEmbedder vectorizes multiple texts in a single call.
type BatchEmbedder interface {
	BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error)
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// EmbeddingResult carries the embedding vector and token usage through the decorator chain.
type EmbeddingResult struct {
	Embedding    []float32
	PromptTokens int
	TotalTokens  int
}

// BatchEmbeddingResult carries multiple embedding vectors and aggregate token usage.
type BatchEmbeddingResult struct {
	Embeddings   [][]float32
	PromptTokens int
	TotalTokens  int
}

// BatchFallback calls Embed once per text, for providers without a native batch call.
func BatchFallback(ctx context.Context, e Embedder, texts []string) (BatchEmbeddingResult, error) {
	embeddings := make([][]float32, len(texts))
	var totalPrompt, totalTokens int

	for i, text := range texts {
		res, err := e.Embed(ctx, text)
		if err != nil {
			return BatchEmbeddingResult{}, fmt.Errorf("fallback embed [%d]: %w", i, err)
		}
		embeddings[i] = res.Embedding
		totalPrompt += res.PromptTokens
		totalTokens += res.TotalTokens
	}

	return BatchEmbeddingResult{
		Embeddings:   embeddings,
		PromptTokens: totalPrompt,
		TotalTokens:  totalTokens,
	}, nil
}

func batchEmbed(ctx context.Context, inner Embedder, texts []string) (BatchEmbeddingResult, error) {
	if be, ok := inner.(BatchEmbedder); ok {
		return be.BatchEmbed(ctx, texts) //nolint:wrapcheck // callers wrap
	}
	return BatchFallback(ctx, inner, texts)
}

// InstructionEmbedder is a domain decorator that prepends instruction text before embedding.
type InstructionEmbedder struct {
	inner       Embedder
	instruction string
}

// NewInstructionEmbedder creates a decorator that prepends instruction text.
func NewInstructionEmbedder(inner Embedder, instruction string) *InstructionEmbedder {
	return &InstructionEmbedder{inner: inner, instruction: instruction}
}

// Embed prepends instruction and delegates to inner embedder.
func (e *InstructionEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	result, err := e.inner.Embed(ctx, e.instruction+text)
	if err != nil {
		return EmbeddingResult{}, fmt.Errorf("instruction embed: %w", err)
	}
	return result, nil
}

// BatchEmbed prepends instruction to each text and delegates to the inner embedder,
// falling back to per-text Embed when inner has no batch support.
func (e *InstructionEmbedder) BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error) {
	prefixed := make([]string, len(texts))
	for i, t := range texts {
		prefixed[i] = e.instruction + t
	}

	res, err := batchEmbed(ctx, e.inner, prefixed)
	if err != nil {
		return BatchEmbeddingResult{}, fmt.Errorf("instruction batch embed: %w", err)
	}
	return res, nil
}

// HealthCheck delegates to inner when it supports health checks.
func (e *InstructionEmbedder) HealthCheck(ctx context.Context) error {
	return healthCheck(ctx, e.inner)
}

// NormalizingEmbedder scales every vector produced by inner to unit length,
// so inner product over its output equals cosine similarity.
type NormalizingEmbedder struct {
	inner Embedder
}

// NewNormalizingEmbedder wraps inner with L2 normalization.
func NewNormalizingEmbedder(inner Embedder) *NormalizingEmbedder {
	return &NormalizingEmbedder{inner: inner}
}

// Embed delegates to inner and normalizes the result.
func (e *NormalizingEmbedder) Embed(ctx context.Context, text string) (EmbeddingResult, error) {
	result, err := e.inner.Embed(ctx, text)
	if err != nil {
		return EmbeddingResult{}, err //nolint:wrapcheck // transparent decorator
	}
	result.Embedding = NormalizeVector(result.Embedding)
	return result, nil
}

// BatchEmbed delegates to inner and normalizes every result.
func (e *NormalizingEmbedder) BatchEmbed(ctx context.Context, texts []string) (BatchEmbeddingResult, error) {
	res, err := batchEmbed(ctx, e.inner, texts)
	if err != nil {
		return BatchEmbeddingResult{}, err
	}
	for i, v := range res.Embeddings {
		res.Embeddings[i] = NormalizeVector(v)
	}
	return res, nil
}

// HealthCheck delegates to inner when it supports health checks.
func (e *NormalizingEmbedder) HealthCheck(ctx context.Context) error {
	return healthCheck(ctx, e.inner)
}

func healthCheck(ctx context.Context, e Embedder) error {
	if hc, ok := e.(HealthChecker); ok {
		return hc.HealthCheck(ctx) //nolint:wrapcheck // transparent decorator
	}
	return nil
}

// NormalizeVector returns a unit-length copy of v. A zero vector stays zero.
func NormalizeVector(v []float32) []float32 {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	out := make([]float32, len(v))
	if sum == 0 {
		return out
	}
	norm := math.Sqrt(sum)
	for i, x := range v {
		out[i] = float32(float64(x) / norm)
	}
	return out
}
