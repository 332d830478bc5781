// Package app assembles the components shared by the server and the indexer.
package app

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/kailas-cloud/assessrec/internal/config"
	"github.com/kailas-cloud/assessrec/internal/db"
	dbBadger "github.com/kailas-cloud/assessrec/internal/db/badger"
	dbValkey "github.com/kailas-cloud/assessrec/internal/db/valkey"
)

// OpenCache opens the embedding cache store selected by cfg.Driver.
// It returns a nil Store for driver "none".
func OpenCache(cfg config.CacheConfig, logger *zap.Logger) (db.Store, error) {
	switch cfg.Driver {
	case config.CacheNone, "":
		return nil, nil
	case config.CacheValkey, config.CacheRedis:
		s, err := dbValkey.NewStore(dbValkey.Config{
			Addrs:    cfg.Addrs,
			Password: cfg.Password,
		})
		if err != nil {
			return nil, fmt.Errorf("open %s cache: %w", cfg.Driver, err)
		}
		return s, nil
	case config.CacheBadger:
		s, err := dbBadger.Open(cfg.Path, logger.Named("badger"))
		if err != nil {
			return nil, fmt.Errorf("open badger cache: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown cache driver %q", cfg.Driver)
	}
}
