// Package recommendation merges similarity and rule boosts into the final ranked list.
package recommendation

import (
	"math"
	"sort"

	"github.com/kailas-cloud/assessrec/internal/domain/catalog"
	"github.com/kailas-cloud/assessrec/internal/domain/rerank"
)

const (
	// DefaultEvidenceChars bounds the evidence snippet length in characters.
	DefaultEvidenceChars = 220
	// Ellipsis marks a truncated evidence snippet.
	Ellipsis = "..."
)

// Candidate is a retrieved catalog entry with its similarity and rule boost.
type Candidate struct {
	Entry      catalog.Entry
	Similarity float64
	Boost      float64
	Rules      []rerank.Rule
}

// FinalScore returns similarity plus boost, rounded to four decimals.
func (c Candidate) FinalScore() float64 {
	return Round4(c.Similarity + c.Boost)
}

// Item is one ranked recommendation.
type Item struct {
	Rank      int
	Candidate Candidate
	Score     float64
	Evidence  string
}

// Assemble sorts candidates by descending final score and assigns dense ranks from 1.
// Candidates must be in vector index order; equal scores keep that order.
func Assemble(candidates []Candidate, evidenceChars int) []Item {
	items := make([]Item, len(candidates))
	for i, c := range candidates {
		items[i] = Item{
			Candidate: c,
			Score:     c.FinalScore(),
			Evidence:  Evidence(c.Entry.Description, evidenceChars),
		}
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Score > items[j].Score
	})

	for i := range items {
		items[i].Rank = i + 1
	}
	return items
}

// Evidence returns the first n characters of description, with Ellipsis appended
// when the description is longer than n.
func Evidence(description string, n int) string {
	if n <= 0 {
		n = DefaultEvidenceChars
	}
	runes := []rune(description)
	if len(runes) <= n {
		return description
	}
	return string(runes[:n]) + Ellipsis
}

// Round4 rounds v to four decimal places, halves away from zero.
func Round4(v float64) float64 {
	return math.Round(v*1e4) / 1e4
}
