package chi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/kailas-cloud/assessrec/internal/domain/recommendation"
	"github.com/kailas-cloud/assessrec/internal/domain/rerank"
)

// Error codes returned alongside the error message.
const (
	codeBadRequest       = "bad_request"
	codeEmptyQuery       = "empty_query"
	codeUnauthorized     = "unauthorized"
	codeEmbeddingFailure = "embedding_provider_error"
	codeUnavailable      = "index_unavailable"
	codeInternal         = "internal_error"
)

// RecommendRequest is the body of POST /recommend and /recommend/pretty.
// Every field is optional; at least one text field must be non-blank.
type RecommendRequest struct {
	JobTitle       string   `json:"job_title"`
	Skills         []string `json:"skills"`
	JobDescription string   `json:"job_description"`
	TopK           *Count   `json:"top_k"`
}

// Count is a JSON integer that also accepts integral floats such as 3.0.
type Count int

// UnmarshalJSON implements json.Unmarshaler.
func (c *Count) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("must be a number: %w", err)
	}
	if i, err := n.Int64(); err == nil {
		*c = Count(i)
		return nil
	}
	f, err := n.Float64()
	if err != nil || f != math.Trunc(f) || f > math.MaxInt32 || f < math.MinInt32 {
		return fmt.Errorf("must be an integer, got %s", n)
	}
	*c = Count(f)
	return nil
}

// IntPtr returns the value as *int, nil when unset.
func (c *Count) IntPtr() *int {
	if c == nil {
		return nil
	}
	v := int(*c)
	return &v
}

// RecommendResult is one ranked assessment.
type RecommendResult struct {
	Rank         int     `json:"rank"`
	AssessmentID string  `json:"assessment_id"`
	Name         string  `json:"name"`
	URL          string  `json:"url"`
	Category     string  `json:"category"`
	JobLevels    string  `json:"job_levels"`
	Skills       string  `json:"skills"`
	Score        float64 `json:"score"`
	Evidence     string  `json:"evidence"`

	// Populated only with ?explain=true.
	Similarity *float64      `json:"similarity,omitempty"`
	Boost      *float64      `json:"boost,omitempty"`
	Rules      []rerank.Rule `json:"rules,omitempty"`
}

// RecommendResponse is the body of a successful POST /recommend.
type RecommendResponse struct {
	Query   string            `json:"query"`
	Results []RecommendResult `json:"results"`
}

// PrettyResponse adds a human-readable summary to RecommendResponse.
type PrettyResponse struct {
	RecommendResponse
	Summary string `json:"summary"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// ErrorResponse is the body of every error reply.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func resultsToDTO(items []recommendation.Item, explain bool) []RecommendResult {
	out := make([]RecommendResult, len(items))
	for i, it := range items {
		e := it.Candidate.Entry
		out[i] = RecommendResult{
			Rank:         it.Rank,
			AssessmentID: e.AssessmentID,
			Name:         e.Name,
			URL:          e.URL,
			Category:     e.Category,
			JobLevels:    e.JobLevels,
			Skills:       e.Skills,
			Score:        it.Score,
			Evidence:     it.Evidence,
		}
		if explain {
			sim := recommendation.Round4(it.Candidate.Similarity)
			boost := recommendation.Round4(it.Candidate.Boost)
			out[i].Similarity = &sim
			out[i].Boost = &boost
			out[i].Rules = it.Candidate.Rules
		}
	}
	return out
}
