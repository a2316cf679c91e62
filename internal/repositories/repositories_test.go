package repositories

import (
	"context"
	"database/sql"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/desertthunder/plsync/internal/models"
	"github.com/desertthunder/plsync/internal/shared"
	"github.com/redis/go-redis/v9"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	t.Cleanup(func() { db.Close() })
	return db
}

func setupRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()

	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("failed to start miniredis: %v", err)
	}
	t.Cleanup(mr.Close)

	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return mr, rdb
}

func testEntry(playlistID, snapshotID string, uris ...string) models.UndoEntry {
	entries := make([]models.TrackPosition, len(uris))
	for i, uri := range uris {
		entries[i] = models.TrackPosition{URI: uri, Position: 10 + i}
	}
	return models.UndoEntry{
		PlaylistID: playlistID,
		Entries:    entries,
		SnapshotID: snapshotID,
		CreatedAt:  time.Date(2024, 5, 1, 9, 30, 0, 0, time.UTC),
	}
}

// TestUndoStores runs the same take-if-match contract against every backend.
func TestUndoStores(t *testing.T) {
	backends := []struct {
		name  string
		store func(t *testing.T) UndoStore
	}{
		{"memory", func(t *testing.T) UndoStore { return NewMemoryUndoStore(0, 0) }},
		{"sqlite", func(t *testing.T) UndoStore { return NewSQLiteUndoStore(setupTestDB(t), 0) }},
		{"redis", func(t *testing.T) UndoStore {
			_, rdb := setupRedis(t)
			return NewRedisUndoStore(rdb, 0)
		}},
	}

	ctx := context.Background()
	for _, b := range backends {
		t.Run(b.name, func(t *testing.T) {
			t.Run("take returns the stored entry once", func(t *testing.T) {
				store := b.store(t)
				want := testEntry("pl", "snap-1", "a", "b")

				if err := store.Put(ctx, "s1", want); err != nil {
					t.Fatalf("Put() error = %v", err)
				}

				got, found, err := store.Take(ctx, "s1", "pl", "snap-1")
				if err != nil || !found {
					t.Fatalf("Take() = %v, %v; want found", found, err)
				}
				if got.PlaylistID != "pl" || got.SnapshotID != "snap-1" {
					t.Errorf("unexpected entry %+v", got)
				}
				if len(got.Entries) != 2 || got.Entries[1] != want.Entries[1] {
					t.Errorf("expected entries %+v, got %+v", want.Entries, got.Entries)
				}
				if !got.CreatedAt.Equal(want.CreatedAt) {
					t.Errorf("expected created at %v, got %v", want.CreatedAt, got.CreatedAt)
				}

				if _, found, err := store.Take(ctx, "s1", "pl", "snap-1"); err != nil || found {
					t.Errorf("second Take() = %v, %v; want not found", found, err)
				}
			})

			t.Run("mismatch leaves the entry in place", func(t *testing.T) {
				store := b.store(t)
				if err := store.Put(ctx, "s1", testEntry("pl", "snap-1", "a")); err != nil {
					t.Fatalf("Put() error = %v", err)
				}

				for _, tc := range []struct{ playlist, snapshot string }{
					{"other", "snap-1"},
					{"pl", "snap-0"},
				} {
					if _, found, err := store.Take(ctx, "s1", tc.playlist, tc.snapshot); err != nil || found {
						t.Errorf("Take(%s, %s) = %v, %v; want not found", tc.playlist, tc.snapshot, found, err)
					}
				}

				if _, found, _ := store.Take(ctx, "s1", "pl", "snap-1"); !found {
					t.Error("expected entry to survive mismatched takes")
				}
			})

			t.Run("put replaces the previous entry", func(t *testing.T) {
				store := b.store(t)
				store.Put(ctx, "s1", testEntry("pl", "snap-1", "a"))
				store.Put(ctx, "s1", testEntry("pl", "snap-2", "b"))

				if _, found, _ := store.Take(ctx, "s1", "pl", "snap-1"); found {
					t.Error("expected the first entry to be replaced")
				}
				got, found, _ := store.Take(ctx, "s1", "pl", "snap-2")
				if !found || got.Entries[0].URI != "b" {
					t.Errorf("expected the second entry, got %+v", got)
				}
			})

			t.Run("sessions are isolated", func(t *testing.T) {
				store := b.store(t)
				store.Put(ctx, "s1", testEntry("pl", "snap-1", "a"))

				if _, found, _ := store.Take(ctx, "s2", "pl", "snap-1"); found {
					t.Error("expected no entry for another session")
				}
				if _, found, _ := store.Take(ctx, "s1", "pl", "snap-1"); !found {
					t.Error("expected the owning session to find its entry")
				}
			})

			t.Run("missing key", func(t *testing.T) {
				store := b.store(t)

				got, found, err := store.Take(ctx, "nobody", "pl", "snap")
				if err != nil || found || got != nil {
					t.Errorf("Take() = %v, %v, %v; want nil, false, nil", got, found, err)
				}
			})
		})
	}
}

func TestMemoryUndoStore(t *testing.T) {
	ctx := context.Background()

	t.Run("capacity evicts the oldest session", func(t *testing.T) {
		store := NewMemoryUndoStore(2, 0)
		store.Put(ctx, "s1", testEntry("pl", "1"))
		store.Put(ctx, "s2", testEntry("pl", "2"))
		store.Put(ctx, "s3", testEntry("pl", "3"))

		if store.Len() != 2 {
			t.Errorf("expected 2 entries, got %d", store.Len())
		}
		if _, found, _ := store.Take(ctx, "s1", "pl", "1"); found {
			t.Error("expected s1 to be evicted")
		}
		if _, found, _ := store.Take(ctx, "s3", "pl", "3"); !found {
			t.Error("expected s3 to be kept")
		}
	})

	t.Run("ttl expires entries", func(t *testing.T) {
		store := NewMemoryUndoStore(0, 20*time.Millisecond)
		store.Put(ctx, "s1", testEntry("pl", "1"))

		time.Sleep(60 * time.Millisecond)

		if _, found, _ := store.Take(ctx, "s1", "pl", "1"); found {
			t.Error("expected entry to expire")
		}
	})
}

func TestSQLiteUndoStore(t *testing.T) {
	ctx := context.Background()

	t.Run("expired entry is deleted on take", func(t *testing.T) {
		db := setupTestDB(t)
		store := NewSQLiteUndoStore(db, time.Minute)
		now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
		store.now = func() time.Time { return now }

		if err := store.Put(ctx, "s1", testEntry("pl", "1", "a")); err != nil {
			t.Fatalf("Put() error = %v", err)
		}

		now = now.Add(2 * time.Minute)
		if _, found, err := store.Take(ctx, "s1", "pl", "1"); err != nil || found {
			t.Fatalf("Take() = %v, %v; want expired", found, err)
		}

		var count int
		if err := db.QueryRow("SELECT COUNT(*) FROM undo_entries").Scan(&count); err != nil {
			t.Fatalf("count: %v", err)
		}
		if count != 0 {
			t.Errorf("expected the expired row to be deleted, found %d", count)
		}
	})

	t.Run("entry is usable before expiry", func(t *testing.T) {
		store := NewSQLiteUndoStore(setupTestDB(t), time.Minute)
		now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
		store.now = func() time.Time { return now }

		store.Put(ctx, "s1", testEntry("pl", "1", "a"))
		now = now.Add(30 * time.Second)

		if _, found, err := store.Take(ctx, "s1", "pl", "1"); err != nil || !found {
			t.Errorf("Take() = %v, %v; want found", found, err)
		}
	})

	t.Run("PurgeExpired", func(t *testing.T) {
		store := NewSQLiteUndoStore(setupTestDB(t), time.Minute)
		now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
		store.now = func() time.Time { return now }

		store.Put(ctx, "old", testEntry("pl", "1"))
		now = now.Add(45 * time.Second)
		store.Put(ctx, "new", testEntry("pl", "2"))
		now = now.Add(30 * time.Second)

		purged, err := store.PurgeExpired(ctx)
		if err != nil {
			t.Fatalf("PurgeExpired() error = %v", err)
		}
		if purged != 1 {
			t.Errorf("expected 1 purged entry, got %d", purged)
		}
		if _, found, _ := store.Take(ctx, "new", "pl", "2"); !found {
			t.Error("expected the fresh entry to survive")
		}
	})

	t.Run("zero ttl never expires", func(t *testing.T) {
		store := NewSQLiteUndoStore(setupTestDB(t), 0)
		now := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
		store.now = func() time.Time { return now }

		store.Put(ctx, "s1", testEntry("pl", "1"))
		now = now.Add(24 * 365 * time.Hour)

		if purged, _ := store.PurgeExpired(ctx); purged != 0 {
			t.Errorf("expected nothing purged, got %d", purged)
		}
		if _, found, _ := store.Take(ctx, "s1", "pl", "1"); !found {
			t.Error("expected the entry to be kept")
		}
	})

	t.Run("closed database", func(t *testing.T) {
		db := setupTestDB(t)
		store := NewSQLiteUndoStore(db, 0)
		db.Close()

		if err := store.Put(ctx, "s1", testEntry("pl", "1")); err == nil {
			t.Error("expected Put to fail")
		}
		if _, _, err := store.Take(ctx, "s1", "pl", "1"); err == nil {
			t.Error("expected Take to fail")
		}
	})
}

func TestRedisUndoStore(t *testing.T) {
	ctx := context.Background()

	t.Run("ttl is applied to the key", func(t *testing.T) {
		mr, rdb := setupRedis(t)
		store := NewRedisUndoStore(rdb, time.Minute)

		if err := store.Put(ctx, "s1", testEntry("pl", "1")); err != nil {
			t.Fatalf("Put() error = %v", err)
		}
		if ttl := mr.TTL(redisKeyPrefix + "s1"); ttl != time.Minute {
			t.Errorf("expected 1m ttl, got %v", ttl)
		}

		mr.FastForward(2 * time.Minute)
		if _, found, _ := store.Take(ctx, "s1", "pl", "1"); found {
			t.Error("expected entry to expire")
		}
	})

	t.Run("zero ttl keeps the key", func(t *testing.T) {
		mr, rdb := setupRedis(t)
		store := NewRedisUndoStore(rdb, 0)
		store.Put(ctx, "s1", testEntry("pl", "1"))

		if ttl := mr.TTL(redisKeyPrefix + "s1"); ttl != 0 {
			t.Errorf("expected no ttl, got %v", ttl)
		}
	})

	t.Run("corrupt value", func(t *testing.T) {
		mr, rdb := setupRedis(t)
		store := NewRedisUndoStore(rdb, 0)
		mr.Set(redisKeyPrefix+"s1", "not json")

		if _, _, err := store.Take(ctx, "s1", "pl", "1"); err == nil {
			t.Error("expected decode error")
		}
	})

	t.Run("unreachable server", func(t *testing.T) {
		mr, rdb := setupRedis(t)
		store := NewRedisUndoStore(rdb, 0)
		mr.Close()

		if err := store.Put(ctx, "s1", testEntry("pl", "1")); err == nil {
			t.Error("expected Put to fail")
		}
	})
}

func TestNewUndoStore(t *testing.T) {
	t.Run("memory", func(t *testing.T) {
		for _, backend := range []string{"", shared.UndoBackendMemory} {
			store, err := NewUndoStore(shared.UndoConfig{Backend: backend}, nil)
			if err != nil {
				t.Fatalf("NewUndoStore(%q) error = %v", backend, err)
			}
			if _, ok := store.(*MemoryUndoStore); !ok {
				t.Errorf("expected memory store, got %T", store)
			}
		}
	})

	t.Run("sqlite", func(t *testing.T) {
		store, err := NewUndoStore(shared.UndoConfig{Backend: shared.UndoBackendSQLite}, setupTestDB(t))
		if err != nil {
			t.Fatalf("NewUndoStore() error = %v", err)
		}
		if _, ok := store.(*SQLiteUndoStore); !ok {
			t.Errorf("expected sqlite store, got %T", store)
		}
	})

	t.Run("sqlite without database", func(t *testing.T) {
		_, err := NewUndoStore(shared.UndoConfig{Backend: shared.UndoBackendSQLite}, nil)
		if !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected invalid config error, got %v", err)
		}
	})

	t.Run("redis", func(t *testing.T) {
		mr, _ := setupRedis(t)
		store, err := NewUndoStore(shared.UndoConfig{Backend: shared.UndoBackendRedis, RedisURL: "redis://" + mr.Addr()}, nil)
		if err != nil {
			t.Fatalf("NewUndoStore() error = %v", err)
		}
		closer, ok := store.(io.Closer)
		if !ok {
			t.Fatalf("expected redis store to be closable, got %T", store)
		}
		defer closer.Close()

		if err := store.Put(context.Background(), "s1", testEntry("pl", "1")); err != nil {
			t.Errorf("Put() error = %v", err)
		}
		if !mr.Exists(redisKeyPrefix + "s1") {
			t.Error("expected key in redis")
		}
	})

	t.Run("invalid redis url", func(t *testing.T) {
		_, err := NewUndoStore(shared.UndoConfig{Backend: shared.UndoBackendRedis, RedisURL: "http://nope"}, nil)
		if !errors.Is(err, shared.ErrInvalidConfig) {
			t.Errorf("expected invalid config error, got %v", err)
		}
	})

	t.Run("unknown backend", func(t *testing.T) {
		_, err := NewUndoStore(shared.UndoConfig{Backend: "memcached"}, nil)
		if !errors.Is(err, shared.ErrUnsupportedUndoStore) {
			t.Errorf("expected unsupported backend error, got %v", err)
		}
	})
}
