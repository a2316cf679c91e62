package repositories

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/plsync/internal/models"
	"github.com/desertthunder/plsync/internal/shared"
)

// SQLiteUndoStore keeps undo entries in the undo_entries table, one row per session key.
type SQLiteUndoStore struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

// NewSQLiteUndoStore creates a store over a migrated database. Zero ttl never expires entries.
func NewSQLiteUndoStore(db *sql.DB, ttl time.Duration) *SQLiteUndoStore {
	return &SQLiteUndoStore{db: db, ttl: ttl, now: time.Now}
}

// Put stores entry for key, replacing any previous entry.
func (s *SQLiteUndoStore) Put(ctx context.Context, key string, entry models.UndoEntry) error {
	entries, err := json.Marshal(entry.Entries)
	if err != nil {
		return fmt.Errorf("failed to encode undo entries: %w", err)
	}

	var expiresAt any
	if s.ttl > 0 {
		expiresAt = s.now().Add(s.ttl).UTC()
	}

	query := `
		INSERT INTO undo_entries (id, session_key, playlist_id, snapshot_id, entries, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(session_key) DO UPDATE SET
			id = excluded.id,
			playlist_id = excluded.playlist_id,
			snapshot_id = excluded.snapshot_id,
			entries = excluded.entries,
			created_at = excluded.created_at,
			expires_at = excluded.expires_at
	`

	_, err = s.db.ExecContext(ctx, query,
		shared.GenerateID(),
		key,
		entry.PlaylistID,
		entry.SnapshotID,
		string(entries),
		entry.CreatedAt.UTC(),
		expiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to store undo entry: %w", err)
	}
	return nil
}

// Take removes and returns the entry for key when it matches and has not expired.
func (s *SQLiteUndoStore) Take(ctx context.Context, key, playlistID, snapshotID string) (*models.UndoEntry, bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		SELECT id, playlist_id, snapshot_id, entries, created_at, expires_at
		FROM undo_entries
		WHERE session_key = ?
	`

	var (
		id, raw   string
		entry     models.UndoEntry
		expiresAt sql.NullTime
	)
	err = tx.QueryRowContext(ctx, query, key).Scan(&id, &entry.PlaylistID, &entry.SnapshotID, &raw, &entry.CreatedAt, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to load undo entry: %w", err)
	}

	if expiresAt.Valid && !s.now().Before(expiresAt.Time) {
		if _, err := tx.ExecContext(ctx, "DELETE FROM undo_entries WHERE id = ?", id); err != nil {
			return nil, false, fmt.Errorf("failed to delete expired undo entry: %w", err)
		}
		return nil, false, tx.Commit()
	}
	if !entry.Matches(playlistID, snapshotID) {
		return nil, false, nil
	}

	if err := json.Unmarshal([]byte(raw), &entry.Entries); err != nil {
		return nil, false, fmt.Errorf("failed to decode undo entries: %w", err)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM undo_entries WHERE id = ?", id); err != nil {
		return nil, false, fmt.Errorf("failed to consume undo entry: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, false, fmt.Errorf("failed to commit undo transaction: %w", err)
	}
	return &entry, true, nil
}

// PurgeExpired deletes every expired entry and returns how many were removed.
func (s *SQLiteUndoStore) PurgeExpired(ctx context.Context) (int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT id, expires_at FROM undo_entries WHERE expires_at IS NOT NULL")
	if err != nil {
		return 0, fmt.Errorf("failed to list undo entries: %w", err)
	}

	now := s.now()
	var expired []string
	for rows.Next() {
		var (
			id        string
			expiresAt time.Time
		)
		if err := rows.Scan(&id, &expiresAt); err != nil {
			rows.Close()
			return 0, fmt.Errorf("failed to scan undo entry: %w", err)
		}
		if !now.Before(expiresAt) {
			expired = append(expired, id)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("failed to list undo entries: %w", err)
	}

	for _, id := range expired {
		if _, err := s.db.ExecContext(ctx, "DELETE FROM undo_entries WHERE id = ?", id); err != nil {
			return 0, fmt.Errorf("failed to purge undo entry: %w", err)
		}
	}
	return len(expired), nil
}
