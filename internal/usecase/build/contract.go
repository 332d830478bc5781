package build

import (
	"context"

	"github.com/kailas-cloud/assessrec/internal/domain"
	domcat "github.com/kailas-cloud/assessrec/internal/domain/catalog"
	"github.com/kailas-cloud/assessrec/internal/index"
)

// Embedder vectorizes a batch of documents. Vectors must already be unit length.
type Embedder interface {
	BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error)
}

// Publisher persists the finished index together with its catalog rows.
type Publisher interface {
	Publish(idx *index.Flat, entries []domcat.Entry) error
}
