package rerank

// Query intent keyword sets.
var (
	leadershipIntent = []string{"manager", "lead", "leadership", "stakeholder", "strategy"}
	aiIntent         = []string{"ai", "ml", "machine learning", "nlp", "deep learning", "data scientist", "research"}
	techIntent       = []string{
		"python", "sql", "coding", "programming", "developer", "engineer", "data", "analytics", "statistics",
	}
	languageIntent   = []string{"english", "communication", "writing", "grammar", "spoken"}
	entryLevelIntent = []string{"fresher", "entry", "junior", "graduate", "intern"}
)

// Catalog attribute keyword sets.
var (
	leadershipCategories = []string{"behavior", "sjt", "personality", "job focused"}
	seniorLevels         = []string{"senior", "manager"}
	juniorLevels         = []string{"entry", "graduate", "intern", "junior"}
	technicalSkills      = []string{
		"coding", "python", "algorithms", "machine learning", "data science", "data engineering", "problem solving",
	}
	officeSkills         = []string{"business skills", "computer literacy", "workplace productivity"}
	behavioralCategories = []string{"behavioral", "personality", "virtual assessment center"}
	practicalCategories  = []string{"skills", "simulation"}
)
