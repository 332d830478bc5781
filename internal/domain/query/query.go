// Package query builds the normalized text used to embed and re-rank a recommendation request.
package query

import (
	"strings"

	"github.com/kailas-cloud/assessrec/internal/domain"
)

// DefaultTopK is the result count used when a request does not specify one.
const DefaultTopK = 10

// Query is a composed, normalized query with its requested result count.
type Query struct {
	text string
	topK int
}

// New composes a query from request fields. Returns domain.ErrEmptyQuery when
// the composed text is empty. topK is coerced to at least 1.
func New(title, description string, skills []string, topK int) (Query, error) {
	text, err := Compose(title, description, skills)
	if err != nil {
		return Query{}, err
	}
	return Query{text: text, topK: CoerceTopK(topK)}, nil
}

// Text returns the normalized query text.
func (q Query) Text() string { return q.text }

// TopK returns the requested result count (always >= 1).
func (q Query) TopK() int { return q.topK }

// Compose joins title, description and skills (in that order) and normalizes whitespace.
func Compose(title, description string, skills []string) (string, error) {
	text := Normalize(title + " " + description + " " + strings.Join(skills, " "))
	if text == "" {
		return "", domain.ErrEmptyQuery
	}
	return text, nil
}

// Normalize collapses every whitespace run to a single space and trims the ends.
func Normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// CoerceTopK clamps k to the minimum of 1.
func CoerceTopK(k int) int {
	if k < 1 {
		return 1
	}
	return k
}
