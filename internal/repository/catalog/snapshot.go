// Package catalog persists catalog snapshots and imports source catalogs.
package catalog

import (
	"bytes"
	"fmt"
	"io"

	"github.com/parquet-go/parquet-go"

	domcat "github.com/kailas-cloud/assessrec/internal/domain/catalog"
)

// buildIDKey is the parquet key-value metadata entry pairing a snapshot with its index.
const buildIDKey = "assessrec.build_id"

// Snapshot is a decoded catalog snapshot.
type Snapshot struct {
	Entries []domcat.Entry
	BuildID string // empty for files without the metadata entry
}

// WriteSnapshot writes entries in row order as a parquet file, including each
// entry's embedded document text. A non-empty buildID is stored as file metadata.
func WriteSnapshot(w io.Writer, entries []domcat.Entry, buildID string) error {
	rows := make([]row, len(entries))
	for i, e := range entries {
		rows[i] = rowFromEntry(e)
	}
	var opts []parquet.WriterOption
	if buildID != "" {
		opts = append(opts, parquet.KeyValueMetadata(buildIDKey, buildID))
	}
	if err := parquet.Write(w, rows, opts...); err != nil {
		return fmt.Errorf("write parquet snapshot: %w", err)
	}
	return nil
}

// OpenSnapshot reads a snapshot and its build ID, preserving row order.
func OpenSnapshot(r io.ReaderAt, size int64) (Snapshot, error) {
	f, err := parquet.OpenFile(r, size)
	if err != nil {
		return Snapshot{}, fmt.Errorf("open parquet snapshot: %w", err)
	}
	buildID, _ := f.Lookup(buildIDKey)

	entries, err := ReadSnapshot(r, size)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Entries: entries, BuildID: buildID}, nil
}

// ReadSnapshot reads the rows of a snapshot or parquet source, preserving row order.
func ReadSnapshot(r io.ReaderAt, size int64) ([]domcat.Entry, error) {
	rows, err := parquet.Read[row](r, size)
	if err != nil {
		return nil, fmt.Errorf("read parquet snapshot: %w", err)
	}
	entries := make([]domcat.Entry, len(rows))
	for i, r := range rows {
		entries[i] = r.toEntry()
	}
	return entries, nil
}

// ReadSnapshotBytes is ReadSnapshot over an in-memory file.
func ReadSnapshotBytes(data []byte) ([]domcat.Entry, error) {
	return ReadSnapshot(bytes.NewReader(data), int64(len(data)))
}
