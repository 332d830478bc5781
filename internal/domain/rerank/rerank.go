// Package rerank computes the rule-based score adjustment layered on top of
// vector similarity. Every rule is a case-insensitive substring test against a
// fixed keyword set; matching rules add their delta, with no clamping.
package rerank

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/kailas-cloud/assessrec/internal/domain/catalog"
)

// Rule deltas.
const (
	LeadershipCategoryBoost = 0.08
	LeadershipLevelBoost    = 0.06

	TechSkillsBoost         = 0.35
	TechCognitiveBoost      = 0.25
	TechPracticalBoost      = 0.15
	TechJuniorLevelBoost    = 0.12
	TechOfficeSkillsPenalty = -0.45
	TechBehavioralPenalty   = -0.30
	TechSeniorLevelPenalty  = -0.60
	TechLanguagePenalty     = -0.35

	LanguageBoost = 0.20

	EntryLevelBoost    = 0.06
	GraduateLevelBoost = 0.05
)

// Rule is a single fired rule and its contribution to the boost.
type Rule struct {
	Name  string  `json:"name"`
	Delta float64 `json:"delta"`
}

// Intent is the set of signals detected in a query.
type Intent struct {
	Leadership bool
	AI         bool
	Tech       bool
	Language   bool
	EntryLevel bool
}

// DetectIntent classifies query text by keyword containment.
func DetectIntent(query string) Intent {
	q := lower(query)
	return Intent{
		Leadership: containsAny(q, leadershipIntent),
		AI:         containsAny(q, aiIntent),
		Tech:       containsAny(q, techIntent),
		Language:   containsAny(q, languageIntent),
		EntryLevel: containsAny(q, entryLevelIntent),
	}
}

// Scorer evaluates rules for one query against many entries.
// It holds no mutable state and is safe for concurrent use.
type Scorer struct {
	intent Intent
}

// NewScorer detects intent in query once for reuse across candidates.
func NewScorer(query string) *Scorer {
	return &Scorer{intent: DetectIntent(query)}
}

// Intent returns the detected query intent.
func (s *Scorer) Intent() Intent { return s.intent }

// Boost returns the summed delta of every rule that fires for e.
func (s *Scorer) Boost(e catalog.Entry) float64 {
	var boost float64
	for _, r := range s.Explain(e) {
		boost += r.Delta
	}
	return boost
}

// Explain returns the rules that fire for e, in evaluation order.
func (s *Scorer) Explain(e catalog.Entry) []Rule {
	cat := lower(e.Category)
	skills := lower(e.Skills)
	lvl := lower(e.JobLevels)
	in := s.intent

	var fired []Rule
	add := func(cond bool, name string, delta float64) {
		if cond {
			fired = append(fired, Rule{Name: name, Delta: delta})
		}
	}

	if in.Leadership {
		add(containsAny(cat, leadershipCategories), "leadership_category", LeadershipCategoryBoost)
		add(containsAny(lvl, seniorLevels), "leadership_level", LeadershipLevelBoost)
	}

	languageTest := strings.Contains(cat, "language") || strings.Contains(skills, "english")

	if in.AI || in.Tech {
		add(containsAny(skills, technicalSkills), "tech_skills", TechSkillsBoost)
		add(strings.Contains(cat, "cognitive"), "tech_cognitive", TechCognitiveBoost)
		add(containsAny(cat, practicalCategories), "tech_practical", TechPracticalBoost)
		add(containsAny(lvl, juniorLevels), "tech_junior_level", TechJuniorLevelBoost)
		add(containsAny(skills, officeSkills), "tech_office_skills", TechOfficeSkillsPenalty)
		add(containsAny(cat, behavioralCategories), "tech_behavioral", TechBehavioralPenalty)
		add(containsAny(lvl, seniorLevels), "tech_senior_level", TechSeniorLevelPenalty)
		add(languageTest && !in.Language, "tech_unrequested_language", TechLanguagePenalty)
	}

	add(in.Language && languageTest, "language", LanguageBoost)

	if in.EntryLevel {
		add(strings.Contains(lvl, "entry"), "entry_level", EntryLevelBoost)
		add(strings.Contains(lvl, "graduate"), "graduate_level", GraduateLevelBoost)
	}

	return fired
}

// Boost is a convenience for scoring a single entry against query.
func Boost(query string, e catalog.Entry) float64 {
	return NewScorer(query).Boost(e)
}

// Explain is a convenience for listing fired rules for a single entry.
func Explain(query string, e catalog.Entry) []Rule {
	return NewScorer(query).Explain(e)
}

// lower folds s to lower case. A Caser is stateful, so one is built per call.
func lower(s string) string {
	return cases.Lower(language.Und).String(s)
}

func containsAny(s string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(s, k) {
			return true
		}
	}
	return false
}
