// Package catalog defines the assessment catalog records served by the recommender.
package catalog

import "github.com/kailas-cloud/assessrec/internal/domain/query"

// Entry is one assessment in the catalog. Every field is always present;
// values missing from the source are empty strings.
type Entry struct {
	AssessmentID string
	Name         string
	URL          string
	Category     string
	Skills       string
	JobLevels    string
	Description  string
}

// Document returns the text embedded for this entry at index build time.
func (e Entry) Document() string {
	return query.Normalize(e.Name + " " + e.Description + " " + e.Skills + " " + e.Category + " " + e.JobLevels)
}

// Catalog is the read-only, positionally indexed set of entries loaded at startup.
// Row i corresponds to vector i in the index.
type Catalog struct {
	entries []Entry
}

// New creates a catalog over a private copy of entries.
func New(entries []Entry) *Catalog {
	cp := make([]Entry, len(entries))
	copy(cp, entries)
	return &Catalog{entries: cp}
}

// Len returns the number of entries.
func (c *Catalog) Len() int { return len(c.entries) }

// At returns the entry at row position i.
func (c *Catalog) At(i int) (Entry, bool) {
	if i < 0 || i >= len(c.entries) {
		return Entry{}, false
	}
	return c.entries[i], true
}

// Entries returns a copy of all entries in row order.
func (c *Catalog) Entries() []Entry {
	cp := make([]Entry, len(c.entries))
	copy(cp, c.entries)
	return cp
}
