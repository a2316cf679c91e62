package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/plsync/internal/models"
	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "plsync:undo:"

// maxTakeAttempts bounds optimistic retries when another client writes the key during a Take.
const maxTakeAttempts = 3

// RedisUndoStore keeps undo entries as JSON values with an optional expiry.
type RedisUndoStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisUndoStore creates a store over rdb. Zero ttl never expires entries.
func NewRedisUndoStore(rdb *redis.Client, ttl time.Duration) *RedisUndoStore {
	return &RedisUndoStore{rdb: rdb, ttl: ttl}
}

// Put stores entry for key, replacing any previous entry.
func (s *RedisUndoStore) Put(ctx context.Context, key string, entry models.UndoEntry) error {
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("failed to encode undo entry: %w", err)
	}
	if err := s.rdb.Set(ctx, redisKeyPrefix+key, data, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store undo entry: %w", err)
	}
	return nil
}

// Take removes and returns the entry for key when it matches. The read and delete run under WATCH.
func (s *RedisUndoStore) Take(ctx context.Context, key, playlistID, snapshotID string) (*models.UndoEntry, bool, error) {
	rkey := redisKeyPrefix + key

	var entry *models.UndoEntry
	take := func(tx *redis.Tx) error {
		entry = nil
		data, err := tx.Get(ctx, rkey).Bytes()
		if errors.Is(err, redis.Nil) {
			return nil
		}
		if err != nil {
			return err
		}

		var stored models.UndoEntry
		if err := json.Unmarshal(data, &stored); err != nil {
			return fmt.Errorf("failed to decode undo entry: %w", err)
		}
		if !stored.Matches(playlistID, snapshotID) {
			return nil
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Del(ctx, rkey)
			return nil
		})
		if err == nil {
			entry = &stored
		}
		return err
	}

	for range maxTakeAttempts {
		err := s.rdb.Watch(ctx, take, rkey)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, false, fmt.Errorf("failed to take undo entry: %w", err)
		}
		return entry, entry != nil, nil
	}
	return nil, false, fmt.Errorf("failed to take undo entry: %w", redis.TxFailedErr)
}

// Close closes the underlying client.
func (s *RedisUndoStore) Close() error {
	return s.rdb.Close()
}
