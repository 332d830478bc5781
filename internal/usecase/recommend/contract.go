package recommend

import (
	"context"

	"github.com/kailas-cloud/assessrec/internal/domain"
	"github.com/kailas-cloud/assessrec/internal/domain/catalog"
	"github.com/kailas-cloud/assessrec/internal/index"
)

// Embedder vectorizes the composed query text. Output must be unit-normalized.
type Embedder interface {
	Embed(ctx context.Context, text string) (domain.EmbeddingResult, error)
}

// Index runs inner-product nearest-neighbour search over catalog vectors.
type Index interface {
	Search(q []float32, k int) ([]index.Hit, error)
	Len() int
}

// Catalog resolves index row positions to catalog entries.
type Catalog interface {
	At(i int) (catalog.Entry, bool)
	Len() int
}
