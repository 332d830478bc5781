package catalog

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/assessrec/internal/domain"
	domcat "github.com/kailas-cloud/assessrec/internal/domain/catalog"
)

func sampleEntries() []domcat.Entry {
	return []domcat.Entry{
		{
			AssessmentID: "verify-g",
			Name:         "Verify G+",
			URL:          "https://example.com/verify-g",
			Category:     "Cognitive",
			Skills:       "problem solving, numerical",
			JobLevels:    "Graduate, Entry",
			Description:  "General ability test.",
		},
		{AssessmentID: "opq", Name: "OPQ32", Category: "Personality"},
	}
}

func TestSnapshot_RoundTripPreservesOrder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSnapshot(&buf, sampleEntries(), ""))

	got, err := ReadSnapshotBytes(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, sampleEntries(), got)
}

func TestSnapshot_BuildID(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSnapshot(&buf, sampleEntries(), "build-42"))

	snap, err := OpenSnapshot(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	assert.Equal(t, "build-42", snap.BuildID)
	assert.Equal(t, sampleEntries(), snap.Entries)

	buf.Reset()
	require.NoError(t, WriteSnapshot(&buf, sampleEntries(), ""))
	snap, err = OpenSnapshot(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)
	assert.Empty(t, snap.BuildID)
}

func TestSnapshot_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSnapshot(&buf, nil, ""))

	got, err := ReadSnapshotBytes(buf.Bytes())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestImportCSV(t *testing.T) {
	src := "Name,URL,Category,Skills,Job_Levels,Description,assessment_id\n" +
		"Verify G+,https://x/g,Cognitive,\"problem solving, numerical\",Graduate,General ability.,g1\n" +
		"Short Row,https://x/s\n"

	entries, err := ImportCSV(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, domcat.Entry{
		AssessmentID: "g1",
		Name:         "Verify G+",
		URL:          "https://x/g",
		Category:     "Cognitive",
		Skills:       "problem solving, numerical",
		JobLevels:    "Graduate",
		Description:  "General ability.",
	}, entries[0])
	assert.Equal(t, domcat.Entry{Name: "Short Row", URL: "https://x/s"}, entries[1])
}

func TestImportCSV_KeepsValuesVerbatim(t *testing.T) {
	src := " Name , Description \n" +
		"OPQ32,\"  Measures work styles.  \"\n" +
		"Verify G+, leading space kept\n"

	entries, err := ImportCSV(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "  Measures work styles.  ", entries[0].Description)
	assert.Equal(t, " leading space kept", entries[1].Description)
}

func TestImportCSV_MissingColumnsDefaultEmpty(t *testing.T) {
	entries, err := ImportCSV(strings.NewReader("name\nOPQ32\n"))
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, domcat.Entry{Name: "OPQ32"}, entries[0])
}

func TestImportCSV_Errors(t *testing.T) {
	_, err := ImportCSV(strings.NewReader(""))
	assert.ErrorIs(t, err, domain.ErrInvalidCatalog)

	_, err = ImportCSV(strings.NewReader("url,category\nhttps://x,Cognitive\n"))
	assert.ErrorIs(t, err, domain.ErrInvalidCatalog)
}

func TestImportFile(t *testing.T) {
	dir := t.TempDir()

	csvPath := filepath.Join(dir, "catalog.csv")
	require.NoError(t, os.WriteFile(csvPath, []byte("name,category\nOPQ32,Personality\n"), 0o600))
	entries, err := ImportFile(csvPath)
	require.NoError(t, err)
	assert.Equal(t, []domcat.Entry{{Name: "OPQ32", Category: "Personality"}}, entries)

	var buf bytes.Buffer
	require.NoError(t, WriteSnapshot(&buf, sampleEntries(), ""))
	pqPath := filepath.Join(dir, "catalog.parquet")
	require.NoError(t, os.WriteFile(pqPath, buf.Bytes(), 0o600))
	entries, err = ImportFile(pqPath)
	require.NoError(t, err)
	assert.Equal(t, sampleEntries(), entries)

	_, err = ImportFile(filepath.Join(dir, "catalog.xlsx"))
	assert.ErrorIs(t, err, domain.ErrInvalidCatalog)
}
