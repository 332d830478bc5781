package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyQuery signals a request whose composed query text is empty.
	ErrEmptyQuery = errors.New("provide job_title or job_description or skills")
	// ErrInvalidCatalog signals a catalog source that cannot be imported.
	ErrInvalidCatalog = errors.New("invalid catalog")
	// ErrIndexNotLoaded signals a search against an empty or missing vector index.
	ErrIndexNotLoaded = errors.New("vector index not loaded")
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrArtifactMismatch signals that the index and the catalog snapshot are not positionally aligned.
	ErrArtifactMismatch = errors.New("index and catalog snapshot are out of sync")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
)

// DimMismatchError wraps ErrVectorDimMismatch with the expected and actual sizes.
type DimMismatchError struct {
	Expected int
	Actual   int
}

func (e *DimMismatchError) Error() string {
	return fmt.Sprintf("%s: expected %d, got %d", ErrVectorDimMismatch.Error(), e.Expected, e.Actual)
}

func (e *DimMismatchError) Unwrap() error { return ErrVectorDimMismatch }

// NewDimMismatch creates a dimension mismatch error.
func NewDimMismatch(expected, actual int) error {
	return &DimMismatchError{Expected: expected, Actual: actual}
}
