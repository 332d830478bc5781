package index

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"

	"github.com/google/uuid"
)

// magic identifies an index file and its layout version.
var magic = [8]byte{'A', 'S', 'R', 'I', 'D', 'X', '0', '2'}

const (
	// maxDim guards against allocating from a corrupt header.
	maxDim = 1 << 16
	// readChunk caps how many floats are allocated ahead of the data actually read.
	readChunk = 1 << 16
)

// ErrBadFormat signals an unreadable index file.
var ErrBadFormat = errors.New("index: bad file format")

// header precedes the little-endian float32 vector data.
// BuildID ties the file to the catalog snapshot written in the same build.
type header struct {
	Magic   [8]byte
	BuildID [16]byte
	Dim     uint32
	Count   uint32
}

// Write serializes the index: header followed by Count*Dim float32 values.
func Write(w io.Writer, f *Flat, buildID uuid.UUID) error {
	bw := bufio.NewWriter(w)
	h := header{
		Magic:   magic,
		BuildID: buildID,
		Dim:     uint32(f.dim),   //nolint:gosec // bounded by maxDim on read
		Count:   uint32(f.Len()), //nolint:gosec // row count of an in-memory index
	}
	if err := binary.Write(bw, binary.LittleEndian, h); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	buf := make([]byte, 4)
	for _, v := range f.data {
		binary.LittleEndian.PutUint32(buf, math.Float32bits(v))
		if _, err := bw.Write(buf); err != nil {
			return fmt.Errorf("write vectors: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("flush: %w", err)
	}
	return nil
}

// Read deserializes an index written by Write and returns its build ID.
// The data slice grows as values arrive, so a corrupt count fails on a
// short read instead of a huge allocation.
func Read(r io.Reader) (*Flat, uuid.UUID, error) {
	br := bufio.NewReader(r)

	var h header
	if err := binary.Read(br, binary.LittleEndian, &h); err != nil {
		return nil, uuid.Nil, fmt.Errorf("read header: %w: %w", ErrBadFormat, err)
	}
	if h.Magic != magic {
		return nil, uuid.Nil, fmt.Errorf("%w: unexpected magic %q", ErrBadFormat, h.Magic[:])
	}
	if h.Dim == 0 || h.Dim > maxDim {
		return nil, uuid.Nil, fmt.Errorf("%w: dimension %d", ErrBadFormat, h.Dim)
	}

	n := int(h.Count) * int(h.Dim)
	data := make([]float32, 0, min(n, readChunk))
	buf := make([]byte, 4)
	for i := range n {
		if _, err := io.ReadFull(br, buf); err != nil {
			return nil, uuid.Nil, fmt.Errorf("read vector data at %d: %w: %w", i, ErrBadFormat, err)
		}
		data = append(data, math.Float32frombits(binary.LittleEndian.Uint32(buf)))
	}

	return &Flat{dim: int(h.Dim), data: data}, uuid.UUID(h.BuildID), nil
}
