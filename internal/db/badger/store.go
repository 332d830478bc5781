// Package badger implements db.Store on an embedded BadgerDB, for running the
// embedding cache without an external server.
package badger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/dgraph-io/badger/v4/options"
	"go.uber.org/zap"

	"github.com/kailas-cloud/assessrec/internal/db"
)

var _ db.Store = (*Store)(nil)

// Store is a BadgerDB-backed key-value store.
type Store struct {
	db *badger.DB
}

// zapAdapter routes badger's internal logging into zap.
type zapAdapter struct {
	log *zap.SugaredLogger
}

var _ badger.Logger = (*zapAdapter)(nil)

func (a *zapAdapter) Errorf(msg string, args ...any)   { a.log.Errorf(msg, args...) }
func (a *zapAdapter) Warningf(msg string, args ...any) { a.log.Warnf(msg, args...) }
func (a *zapAdapter) Infof(msg string, args ...any)    { a.log.Debugf(msg, args...) }
func (a *zapAdapter) Debugf(msg string, args ...any)   { a.log.Debugf(msg, args...) }

// Open opens (or creates) a database directory. An empty path opens an
// in-memory database.
func Open(path string, logger *zap.Logger) (*Store, error) {
	var opts badger.Options
	if path == "" {
		opts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(path, 0o750); err != nil {
			return nil, fmt.Errorf("create badger dir: %w", err)
		}
		opts = badger.DefaultOptions(path)
	}
	opts.Logger = &zapAdapter{log: logger.Named("badger").Sugar()}
	opts.Compression = options.None

	bdb, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger: %w", err)
	}
	return &Store{db: bdb}, nil
}

// Ping reports whether the database is still open.
func (s *Store) Ping(_ context.Context) error {
	if s.db.IsClosed() {
		return &db.Error{Op: db.OpPing, Err: errors.New("database closed")}
	}
	return nil
}

// WaitForReady returns immediately: an embedded database is ready once opened.
func (s *Store) WaitForReady(ctx context.Context, _ time.Duration) error {
	return s.Ping(ctx)
}

// Close closes the database.
func (s *Store) Close() {
	_ = s.db.Close()
}

// Get retrieves a value by key.
func (s *Store) Get(_ context.Context, key string) ([]byte, error) {
	var out []byte
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(key))
		if err != nil {
			return err
		}
		out, err = item.ValueCopy(nil)
		return err
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, db.ErrKeyNotFound
		}
		return nil, &db.Error{Op: db.OpGet, Err: err}
	}
	return out, nil
}

// Set stores a value at the given key.
func (s *Store) Set(_ context.Context, key string, value []byte) error {
	return s.setEntry(badger.NewEntry([]byte(key), value))
}

// SetWithTTL stores a value with an expiration.
func (s *Store) SetWithTTL(_ context.Context, key string, value []byte, ttl time.Duration) error {
	return s.setEntry(badger.NewEntry([]byte(key), value).WithTTL(ttl))
}

func (s *Store) setEntry(e *badger.Entry) error {
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.SetEntry(e)
	})
	if err != nil {
		return &db.Error{Op: db.OpSet, Err: err}
	}
	return nil
}
