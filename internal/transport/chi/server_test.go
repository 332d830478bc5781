package chi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/kailas-cloud/assessrec/internal/domain"
	"github.com/kailas-cloud/assessrec/internal/domain/catalog"
	"github.com/kailas-cloud/assessrec/internal/index"
	healthuc "github.com/kailas-cloud/assessrec/internal/usecase/health"
	recommenduc "github.com/kailas-cloud/assessrec/internal/usecase/recommend"
)

// --- Fixtures ---

type stubEmbedder struct {
	vec []float32
	err error
}

func (s *stubEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	if s.err != nil {
		return domain.EmbeddingResult{}, s.err
	}
	return domain.EmbeddingResult{Embedding: s.vec, TotalTokens: 4}, nil
}

func (s *stubEmbedder) HealthCheck(_ context.Context) error { return s.err }

func newTestRouter(t *testing.T, emb *stubEmbedder, apiKeys ...string) http.Handler {
	t.Helper()

	idx := index.NewFlat(2)
	if err := idx.Add([]float32{1, 0}, []float32{0, 1}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	cat := catalog.New([]catalog.Entry{
		{
			AssessmentID: "python",
			Name:         "Python (New)",
			URL:          "https://example.com/python",
			Category:     "Knowledge & Skills",
			Skills:       "Python",
			JobLevels:    "Entry-Level",
			Description:  strings.Repeat("p", 230),
		},
		{
			AssessmentID: "english",
			Name:         "English Comprehension",
			URL:          "https://example.com/english",
			Category:     "Language",
			Description:  "Reading comprehension.",
		},
	})

	rec := recommenduc.New(emb, idx, cat, recommenduc.Options{})
	health := healthuc.New(idx, nil, emb)
	return NewRouter(NewServer(rec, health, zap.NewNop()), apiKeys, zap.NewNop())
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

// --- /recommend ---

func TestRecommend_Success(t *testing.T) {
	h := newTestRouter(t, &stubEmbedder{vec: []float32{1, 0}})

	rr := doJSON(t, h, "POST", "/recommend", `{"job_title":"Python developer","top_k":5}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	if rr.Header().Get("X-Embedding-Tokens") != "4" {
		t.Errorf("X-Embedding-Tokens = %q", rr.Header().Get("X-Embedding-Tokens"))
	}

	var resp RecommendResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Query != "Python developer" {
		t.Errorf("query = %q", resp.Query)
	}
	if len(resp.Results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(resp.Results))
	}

	first := resp.Results[0]
	if first.Rank != 1 || first.AssessmentID != "python" {
		t.Errorf("first result = %+v", first)
	}
	// 1.0 + 0.35 (skills) + 0.15 (skills category) + 0.12 (entry level)
	if first.Score != 1.62 {
		t.Errorf("score = %v, want 1.62", first.Score)
	}
	if len([]rune(first.Evidence)) != 223 || !strings.HasSuffix(first.Evidence, "...") {
		t.Errorf("evidence not truncated: %d runes", len([]rune(first.Evidence)))
	}
	if first.Similarity != nil || first.Boost != nil || first.Rules != nil {
		t.Error("explain fields must be absent by default")
	}

	second := resp.Results[1]
	// 0.0 - 0.35 (unrequested language test)
	if second.Rank != 2 || second.Score != -0.35 {
		t.Errorf("second result = %+v", second)
	}
}

func TestRecommend_Explain(t *testing.T) {
	h := newTestRouter(t, &stubEmbedder{vec: []float32{1, 0}})

	rr := doJSON(t, h, "POST", "/recommend?explain=true", `{"job_title":"Python developer"}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	var resp RecommendResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	first := resp.Results[0]
	if first.Similarity == nil || *first.Similarity != 1 {
		t.Errorf("similarity = %v", first.Similarity)
	}
	if first.Boost == nil || *first.Boost != 0.62 {
		t.Errorf("boost = %v", first.Boost)
	}
	if len(first.Rules) != 3 {
		t.Errorf("expected 3 rules, got %v", first.Rules)
	}
}

func TestRecommend_EmptyQuery(t *testing.T) {
	h := newTestRouter(t, &stubEmbedder{vec: []float32{1, 0}})

	rr := doJSON(t, h, "POST", "/recommend", `{"job_title":"  ","skills":[]}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}

	var body map[string]any
	if err := json.NewDecoder(rr.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body["error"] != domain.ErrEmptyQuery.Error() {
		t.Errorf("error = %v", body["error"])
	}
	if _, ok := body["results"]; ok {
		t.Error("error response must not carry results")
	}
}

func TestRecommend_InvalidBody(t *testing.T) {
	h := newTestRouter(t, &stubEmbedder{vec: []float32{1, 0}})

	rr := doJSON(t, h, "POST", "/recommend", `{"job_title":`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
}

func TestRecommend_EmptyBodyIsEmptyQuery(t *testing.T) {
	h := newTestRouter(t, &stubEmbedder{vec: []float32{1, 0}})

	rr := doJSON(t, h, "POST", "/recommend", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	var resp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Code != codeEmptyQuery {
		t.Errorf("code = %q, want %q", resp.Code, codeEmptyQuery)
	}
}

func TestRecommend_TopKIntegralFloat(t *testing.T) {
	h := newTestRouter(t, &stubEmbedder{vec: []float32{1, 0}})

	rr := doJSON(t, h, "POST", "/recommend", `{"skills":["python"],"top_k":1.0}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rr.Code, rr.Body.String())
	}
	var resp RecommendResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Results) != 1 {
		t.Errorf("expected 1 result, got %d", len(resp.Results))
	}
}

func TestRecommend_TopKFractionRejected(t *testing.T) {
	h := newTestRouter(t, &stubEmbedder{vec: []float32{1, 0}})

	rr := doJSON(t, h, "POST", "/recommend", `{"skills":["python"],"top_k":2.5}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	var resp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Code != codeBadRequest {
		t.Errorf("code = %q, want %q", resp.Code, codeBadRequest)
	}
}

func TestCount_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		in      string
		want    int
		wantErr bool
	}{
		{in: `3`, want: 3},
		{in: `3.0`, want: 3},
		{in: `-2`, want: -2},
		{in: `1e1`, want: 10},
		{in: `2.5`, wantErr: true},
		{in: `"x"`, wantErr: true},
		{in: `1e300`, wantErr: true},
	}
	for _, tt := range tests {
		var c Count
		err := c.UnmarshalJSON([]byte(tt.in))
		if tt.wantErr {
			if err == nil {
				t.Errorf("%s: expected error, got %d", tt.in, c)
			}
			continue
		}
		if err != nil || int(c) != tt.want {
			t.Errorf("%s: got %d, %v; want %d", tt.in, c, err, tt.want)
		}
	}

	var unset *Count
	if unset.IntPtr() != nil {
		t.Error("nil Count must map to nil")
	}
}

func TestRecommend_ProviderError(t *testing.T) {
	h := newTestRouter(t, &stubEmbedder{err: errors.New("dial tcp: refused")})

	rr := doJSON(t, h, "POST", "/recommend", `{"job_title":"analyst"}`)
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("status = %d, want 502", rr.Code)
	}

	var resp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if strings.Contains(resp.Error, "refused") {
		t.Errorf("internal detail leaked: %q", resp.Error)
	}
}

func TestRecommend_TopKCoerced(t *testing.T) {
	h := newTestRouter(t, &stubEmbedder{vec: []float32{1, 0}})

	rr := doJSON(t, h, "POST", "/recommend", `{"skills":["python"],"top_k":0}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp RecommendResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(resp.Results) != 1 {
		t.Errorf("expected 1 result, got %d", len(resp.Results))
	}
}

func TestRecommendPretty(t *testing.T) {
	h := newTestRouter(t, &stubEmbedder{vec: []float32{0, 1}})

	rr := doJSON(t, h, "POST", "/recommend/pretty", `{"job_description":"english communication","top_k":1}`)
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}

	var resp PrettyResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	want := "1. English Comprehension (Language | )\n   Evidence: Reading comprehension.\n   Link: https://example.com/english\n"
	if resp.Summary != want {
		t.Errorf("summary = %q, want %q", resp.Summary, want)
	}
	if len(resp.Results) != 1 {
		t.Errorf("expected 1 result, got %d", len(resp.Results))
	}
}

func TestRecommendPretty_EmptyQuery(t *testing.T) {
	h := newTestRouter(t, &stubEmbedder{vec: []float32{1, 0}})

	rr := doJSON(t, h, "POST", "/recommend/pretty", `{}`)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rr.Code)
	}
	if strings.Contains(rr.Body.String(), "summary") {
		t.Error("error response must not carry a summary")
	}
}

// --- /health, /metrics ---

func TestHealth_OK(t *testing.T) {
	h := newTestRouter(t, &stubEmbedder{vec: []float32{1, 0}})

	rr := doJSON(t, h, "GET", "/health", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
	var resp HealthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "ok" || resp.Checks["index"] != "ok" || resp.Checks["embedding"] != "ok" {
		t.Errorf("health = %+v", resp)
	}
}

func TestHealth_Degraded(t *testing.T) {
	h := newTestRouter(t, &stubEmbedder{err: errors.New("down")})

	rr := doJSON(t, h, "GET", "/health", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", rr.Code)
	}
	var resp HealthResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Status != "degraded" || resp.Checks["embedding"] != "error" {
		t.Errorf("health = %+v", resp)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	h := newTestRouter(t, &stubEmbedder{vec: []float32{1, 0}})

	rr := doJSON(t, h, "GET", "/metrics", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("status = %d", rr.Code)
	}
}

// --- Router / middleware ---

func TestRouter_AuthEnforced(t *testing.T) {
	h := newTestRouter(t, &stubEmbedder{vec: []float32{1, 0}}, "secret")

	if rr := doJSON(t, h, "POST", "/recommend", `{"job_title":"x"}`); rr.Code != http.StatusUnauthorized {
		t.Errorf("unauthenticated /recommend: got %d, want 401", rr.Code)
	}
	if rr := doJSON(t, h, "GET", "/health", ""); rr.Code != http.StatusOK {
		t.Errorf("/health must be exempt: got %d", rr.Code)
	}

	req := httptest.NewRequest("POST", "/recommend", strings.NewReader(`{"job_title":"x"}`))
	req.Header.Set("Authorization", "Bearer secret")
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	if rr.Code != http.StatusOK {
		t.Errorf("authenticated /recommend: got %d, want 200", rr.Code)
	}
}

func TestRouter_RequestIDHeader(t *testing.T) {
	h := newTestRouter(t, &stubEmbedder{vec: []float32{1, 0}})

	rr := doJSON(t, h, "GET", "/health", "")
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("expected X-Request-ID header")
	}
}

func TestRouter_NotFound(t *testing.T) {
	h := newTestRouter(t, &stubEmbedder{vec: []float32{1, 0}})

	rr := doJSON(t, h, "GET", "/nope", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status = %d", rr.Code)
	}
	if ct := rr.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("content type = %q", ct)
	}
}

func TestJSONRecoverer(t *testing.T) {
	h := jsonRecoverer(zap.NewNop())(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest("GET", "/", http.NoBody))

	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rr.Code)
	}
	var resp ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Code != codeInternal {
		t.Errorf("code = %q", resp.Code)
	}
}
