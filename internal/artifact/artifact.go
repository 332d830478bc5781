// Package artifact publishes and loads the positionally aligned pair of
// build outputs: the vector index file and the catalog snapshot.
package artifact

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"github.com/kailas-cloud/assessrec/internal/domain"
	domcat "github.com/kailas-cloud/assessrec/internal/domain/catalog"
	"github.com/kailas-cloud/assessrec/internal/index"
	catrepo "github.com/kailas-cloud/assessrec/internal/repository/catalog"
)

// Paths locates the artifact pair on disk.
type Paths struct {
	Index    string
	Snapshot string
}

// Publish writes both artifacts to temporary files next to their targets, then
// renames them into place so readers never observe a partially written file.
// Both files carry the same fresh build ID; Load refuses a pair whose IDs differ.
// Row i of entries must correspond to vector i of idx.
func Publish(paths Paths, idx *index.Flat, entries []domcat.Entry) error {
	if idx.Len() != len(entries) {
		return fmt.Errorf("%w: %d vectors, %d entries", domain.ErrArtifactMismatch, idx.Len(), len(entries))
	}
	buildID := uuid.New()

	snapTmp, err := writeTemp(paths.Snapshot, func(w io.Writer) error {
		return catrepo.WriteSnapshot(w, entries, buildID.String())
	})
	if err != nil {
		return fmt.Errorf("stage snapshot: %w", err)
	}

	idxTmp, err := writeTemp(paths.Index, func(w io.Writer) error {
		return index.Write(w, idx, buildID)
	})
	if err != nil {
		_ = os.Remove(snapTmp)
		return fmt.Errorf("stage index: %w", err)
	}

	if err := os.Rename(snapTmp, paths.Snapshot); err != nil {
		_ = os.Remove(snapTmp)
		_ = os.Remove(idxTmp)
		return fmt.Errorf("publish snapshot: %w", err)
	}
	if err := os.Rename(idxTmp, paths.Index); err != nil {
		_ = os.Remove(idxTmp)
		return fmt.Errorf("publish index: %w", err)
	}
	return nil
}

// Load reads both artifacts and verifies they come from the same build.
func Load(paths Paths) (*index.Flat, *domcat.Catalog, error) {
	idxFile, err := os.Open(filepath.Clean(paths.Index))
	if err != nil {
		return nil, nil, fmt.Errorf("open index: %w", err)
	}
	defer func() { _ = idxFile.Close() }()

	idx, idxBuild, err := index.Read(idxFile)
	if err != nil {
		return nil, nil, fmt.Errorf("read index %s: %w", paths.Index, err)
	}

	data, err := os.ReadFile(filepath.Clean(paths.Snapshot))
	if err != nil {
		return nil, nil, fmt.Errorf("read snapshot: %w", err)
	}
	snap, err := catrepo.OpenSnapshot(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, nil, fmt.Errorf("read snapshot %s: %w", paths.Snapshot, err)
	}

	if snap.BuildID != idxBuild.String() {
		return nil, nil, fmt.Errorf("%w: index build %s, snapshot build %q",
			domain.ErrArtifactMismatch, idxBuild, snap.BuildID)
	}
	if idx.Len() != len(snap.Entries) {
		return nil, nil, fmt.Errorf("%w: index has %d vectors, snapshot has %d rows",
			domain.ErrArtifactMismatch, idx.Len(), len(snap.Entries))
	}

	return idx, domcat.New(snap.Entries), nil
}

// writeTemp writes a file in target's directory and returns its path.
func writeTemp(target string, write func(io.Writer) error) (string, error) {
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create dir %s: %w", dir, err)
	}

	f, err := os.CreateTemp(dir, "."+filepath.Base(target)+".tmp-*")
	if err != nil {
		return "", fmt.Errorf("create temp file: %w", err)
	}
	tmp := f.Name()

	if err := write(f); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return "", err
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmp)
		return "", fmt.Errorf("sync %s: %w", tmp, err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(tmp)
		return "", fmt.Errorf("close %s: %w", tmp, err)
	}
	return tmp, nil
}

// Writer publishes to a fixed pair of paths.
type Writer struct {
	Paths Paths
}

// Publish writes idx and entries to the configured paths.
func (w Writer) Publish(idx *index.Flat, entries []domcat.Entry) error {
	return Publish(w.Paths, idx, entries)
}
