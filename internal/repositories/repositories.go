package repositories

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/desertthunder/plsync/internal/models"
	"github.com/desertthunder/plsync/internal/shared"
	"github.com/redis/go-redis/v9"
)

// UndoStore holds at most one [models.UndoEntry] per session key.
type UndoStore interface {
	// Put stores entry for key, replacing any previous entry.
	Put(ctx context.Context, key string, entry models.UndoEntry) error
	// Take removes and returns the entry for key when it matches playlistID and snapshotID.
	// A missing, expired or mismatched entry reports false and is left untouched.
	Take(ctx context.Context, key, playlistID, snapshotID string) (*models.UndoEntry, bool, error)
}

// NewUndoStore builds the configured backend. The sqlite backend requires db.
//
// The caller owns the returned store; stores that hold connections implement io.Closer.
func NewUndoStore(cfg shared.UndoConfig, db *sql.DB) (UndoStore, error) {
	switch cfg.Backend {
	case shared.UndoBackendMemory, "":
		return NewMemoryUndoStore(cfg.Capacity, cfg.TTL()), nil
	case shared.UndoBackendSQLite:
		if db == nil {
			return nil, fmt.Errorf("%w: sqlite undo backend requires a database", shared.ErrInvalidConfig)
		}
		return NewSQLiteUndoStore(db, cfg.TTL()), nil
	case shared.UndoBackendRedis:
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, fmt.Errorf("%w: redis url: %w", shared.ErrInvalidConfig, err)
		}
		return NewRedisUndoStore(redis.NewClient(opts), cfg.TTL()), nil
	default:
		return nil, fmt.Errorf("%w %q", shared.ErrUnsupportedUndoStore, cfg.Backend)
	}
}
