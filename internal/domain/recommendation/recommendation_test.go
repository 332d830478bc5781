package recommendation

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/kailas-cloud/assessrec/internal/domain/catalog"
)

func cand(id string, sim, boost float64) Candidate {
	return Candidate{Entry: catalog.Entry{AssessmentID: id}, Similarity: sim, Boost: boost}
}

func ids(items []Item) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Candidate.Entry.AssessmentID
	}
	return out
}

func TestAssemble_SortsByFinalScore(t *testing.T) {
	items := Assemble([]Candidate{
		cand("a", 0.80, -0.60),
		cand("b", 0.70, 0.35),
		cand("c", 0.60, 0),
	}, 0)

	want := []string{"b", "c", "a"}
	got := ids(items)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}
	if items[0].Score != 1.05 {
		t.Errorf("top score = %v, want 1.05", items[0].Score)
	}
}

func TestAssemble_RankContiguity(t *testing.T) {
	var cs []Candidate
	for i := 0; i < 25; i++ {
		cs = append(cs, cand(string(rune('a'+i)), float64(i%7)/10, float64(i%3)/10))
	}
	items := Assemble(cs, 0)

	if len(items) != len(cs) {
		t.Fatalf("expected %d items, got %d", len(cs), len(items))
	}
	for i, it := range items {
		if it.Rank != i+1 {
			t.Errorf("item %d has rank %d", i, it.Rank)
		}
		if i > 0 && items[i-1].Score < it.Score {
			t.Errorf("not sorted at %d: %v < %v", i, items[i-1].Score, it.Score)
		}
	}
}

func TestAssemble_StableTies(t *testing.T) {
	items := Assemble([]Candidate{
		cand("first", 0.5, 0.1),
		cand("second", 0.6, 0),
		cand("third", 0.4, 0.2),
	}, 0)

	want := []string{"first", "second", "third"}
	got := ids(items)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("ties reordered: %v, want %v", got, want)
		}
	}
}

func TestAssemble_RoundsScores(t *testing.T) {
	items := Assemble([]Candidate{cand("a", 0.123456, 0.35)}, 0)
	if items[0].Score != 0.4735 {
		t.Errorf("score = %v, want 0.4735", items[0].Score)
	}
}

func TestAssemble_Empty(t *testing.T) {
	if items := Assemble(nil, 0); len(items) != 0 {
		t.Errorf("expected empty result, got %d", len(items))
	}
}

func TestEvidence(t *testing.T) {
	tests := []struct {
		name     string
		length   int
		wantLen  int
		ellipsis bool
	}{
		{"empty", 0, 0, false},
		{"short", 10, 10, false},
		{"exact", 220, 220, false},
		{"one over", 221, 220 + len(Ellipsis), true},
		{"long", 1000, 220 + len(Ellipsis), true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			desc := strings.Repeat("x", tc.length)
			got := Evidence(desc, DefaultEvidenceChars)
			if utf8.RuneCountInString(got) != tc.wantLen {
				t.Errorf("len = %d, want %d", utf8.RuneCountInString(got), tc.wantLen)
			}
			if strings.HasSuffix(got, Ellipsis) != tc.ellipsis {
				t.Errorf("ellipsis = %v, want %v", !tc.ellipsis, tc.ellipsis)
			}
		})
	}
}

func TestEvidence_CountsCharactersNotBytes(t *testing.T) {
	desc := strings.Repeat("é", 221)
	got := Evidence(desc, DefaultEvidenceChars)
	if want := strings.Repeat("é", 220) + Ellipsis; got != want {
		t.Errorf("multi-byte truncation broke characters: %d runes", utf8.RuneCountInString(got))
	}
}

func TestEvidence_CustomLength(t *testing.T) {
	if got := Evidence("abcdef", 3); got != "abc..." {
		t.Errorf("got %q", got)
	}
}

func TestAssemble_SetsEvidence(t *testing.T) {
	c := cand("a", 0.5, 0)
	c.Entry.Description = strings.Repeat("d", 300)
	items := Assemble([]Candidate{c}, DefaultEvidenceChars)
	if !strings.HasSuffix(items[0].Evidence, Ellipsis) {
		t.Errorf("expected truncated evidence, got %q", items[0].Evidence)
	}
}
