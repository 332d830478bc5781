package catalog

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/kailas-cloud/assessrec/internal/domain"
	domcat "github.com/kailas-cloud/assessrec/internal/domain/catalog"
)

// Column names recognized in source catalogs (case-insensitive).
const (
	colAssessmentID = "assessment_id"
	colName         = "name"
	colURL          = "url"
	colCategory     = "category"
	colSkills       = "skills"
	colJobLevels    = "job_levels"
	colDescription  = "description"
)

// ImportFile reads a source catalog by extension: .csv or .parquet.
func ImportFile(path string) ([]domcat.Entry, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(filepath.Clean(path))
		if err != nil {
			return nil, fmt.Errorf("open catalog %s: %w", path, err)
		}
		defer func() { _ = f.Close() }()
		return ImportCSV(f)
	case ".parquet":
		data, err := os.ReadFile(filepath.Clean(path))
		if err != nil {
			return nil, fmt.Errorf("read catalog %s: %w", path, err)
		}
		return ReadSnapshotBytes(data)
	default:
		return nil, fmt.Errorf("%w: unsupported catalog format %q", domain.ErrInvalidCatalog, filepath.Ext(path))
	}
}

// ImportCSV reads a CSV catalog with a header row. Columns are matched by
// trimmed, case-insensitive name; values are kept as written. Absent columns
// and short rows yield empty strings.
func ImportCSV(r io.Reader) ([]domcat.Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: missing header row", domain.ErrInvalidCatalog)
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	cols := make(map[string]int, len(header))
	for i, h := range header {
		cols[strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))] = i
	}
	if _, ok := cols[colName]; !ok {
		return nil, fmt.Errorf("%w: %q column is required", domain.ErrInvalidCatalog, colName)
	}

	var entries []domcat.Entry
	for line := 2; ; line++ {
		rec, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read line %d: %w", line, err)
		}

		field := func(name string) string {
			i, ok := cols[name]
			if !ok || i >= len(rec) {
				return ""
			}
			return rec[i]
		}

		entries = append(entries, domcat.Entry{
			AssessmentID: field(colAssessmentID),
			Name:         field(colName),
			URL:          field(colURL),
			Category:     field(colCategory),
			Skills:       field(colSkills),
			JobLevels:    field(colJobLevels),
			Description:  field(colDescription),
		})
	}
	return entries, nil
}
