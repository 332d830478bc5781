package catalog

import domcat "github.com/kailas-cloud/assessrec/internal/domain/catalog"

// row is the parquet layout shared by snapshots and parquet sources.
// Document is written in snapshots only; sources may omit it.
type row struct {
	AssessmentID string `parquet:"assessment_id"`
	Name         string `parquet:"name"`
	URL          string `parquet:"url"`
	Category     string `parquet:"category"`
	Skills       string `parquet:"skills"`
	JobLevels    string `parquet:"job_levels"`
	Description  string `parquet:"description"`
	Document     string `parquet:"document,optional"`
}

func rowFromEntry(e domcat.Entry) row {
	return row{
		AssessmentID: e.AssessmentID,
		Name:         e.Name,
		URL:          e.URL,
		Category:     e.Category,
		Skills:       e.Skills,
		JobLevels:    e.JobLevels,
		Description:  e.Description,
		Document:     e.Document(),
	}
}

func (r row) toEntry() domcat.Entry {
	return domcat.Entry{
		AssessmentID: r.AssessmentID,
		Name:         r.Name,
		URL:          r.URL,
		Category:     r.Category,
		Skills:       r.Skills,
		JobLevels:    r.JobLevels,
		Description:  r.Description,
	}
}
