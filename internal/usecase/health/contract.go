package health

import "context"

// IndexStats reports how many vectors are loaded for serving.
type IndexStats interface {
	Len() int
}

// CachePinger checks embedding cache availability.
type CachePinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker checks embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}
