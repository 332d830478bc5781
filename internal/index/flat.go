// Package index implements an exact inner-product vector index over unit vectors.
// With unit-length vectors the inner product equals cosine similarity.
package index

import (
	"sort"

	"github.com/kailas-cloud/assessrec/internal/domain"
)

// Hit is a search result: a row position and its inner-product similarity.
type Hit struct {
	Position int
	Score    float64
}

// Flat is a brute-force index storing vectors row-major. Row i is catalog row i.
// It is not safe for concurrent Add; concurrent Search after loading is safe.
type Flat struct {
	dim  int
	data []float32
}

// NewFlat creates an empty index for vectors of the given dimension.
func NewFlat(dim int) *Flat {
	return &Flat{dim: dim}
}

// Dim returns the vector dimension.
func (f *Flat) Dim() int { return f.dim }

// Len returns the number of stored vectors.
func (f *Flat) Len() int {
	if f.dim == 0 {
		return 0
	}
	return len(f.data) / f.dim
}

// Add appends vectors in order. Every vector must match the index dimension.
func (f *Flat) Add(vectors ...[]float32) error {
	for _, v := range vectors {
		if len(v) != f.dim {
			return domain.NewDimMismatch(f.dim, len(v))
		}
	}
	for _, v := range vectors {
		f.data = append(f.data, v...)
	}
	return nil
}

// Vector returns a copy of the vector at row position i.
func (f *Flat) Vector(i int) []float32 {
	if i < 0 || i >= f.Len() {
		return nil
	}
	out := make([]float32, f.dim)
	copy(out, f.data[i*f.dim:(i+1)*f.dim])
	return out
}

// Search returns up to k rows ordered by descending inner product with q.
// Equal scores are ordered by row position.
func (f *Flat) Search(q []float32, k int) ([]Hit, error) {
	if f.Len() == 0 {
		return nil, domain.ErrIndexNotLoaded
	}
	if len(q) != f.dim {
		return nil, domain.NewDimMismatch(f.dim, len(q))
	}
	if k <= 0 {
		return nil, nil
	}

	n := f.Len()
	hits := make([]Hit, n)
	for i := 0; i < n; i++ {
		hits[i] = Hit{Position: i, Score: dot(q, f.data[i*f.dim:(i+1)*f.dim])}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		return hits[i].Score > hits[j].Score
	})

	if len(hits) > k {
		hits = hits[:k]
	}
	return hits, nil
}

func dot(a, b []float32) float64 {
	var sum float64
	for i := range a {
		sum += float64(a[i]) * float64(b[i])
	}
	return sum
}
