package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/desertthunder/plsync/internal/models"
	"github.com/desertthunder/plsync/internal/shared"
)

// SyncRunRepository appends and lists [models.SyncRun] rows in the sync_runs table.
type SyncRunRepository struct {
	db *sql.DB
}

// NewSyncRunRepository creates a new SyncRunRepository with the given database connection
func NewSyncRunRepository(db *sql.DB) *SyncRunRepository {
	return &SyncRunRepository{db: db}
}

// Record inserts run. An empty ID is replaced with a generated one.
func (r *SyncRunRepository) Record(ctx context.Context, run *models.SyncRun) error {
	if run.ID == "" {
		run.ID = shared.GenerateID()
	}
	if run.Operation == "" || run.PlaylistID == "" || run.Status == "" {
		return fmt.Errorf("%w: sync run requires operation, playlist and status", shared.ErrInvalidInput)
	}

	query := `
		INSERT INTO sync_runs (
			id, session_key, operation, playlist_id, status,
			tracks_requested, tracks_committed, snapshot_id, error_message, created_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err := r.db.ExecContext(ctx, query,
		run.ID,
		run.SessionKey,
		run.Operation,
		run.PlaylistID,
		run.Status,
		run.TracksRequested,
		run.TracksCommitted,
		nullable(run.SnapshotID),
		nullable(run.ErrorMessage),
		run.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert sync run: %w", err)
	}
	return nil
}

// Get retrieves a run by ID
func (r *SyncRunRepository) Get(ctx context.Context, id string) (*models.SyncRun, error) {
	query := `
		SELECT id, session_key, operation, playlist_id, status,
			tracks_requested, tracks_committed, snapshot_id, error_message, created_at
		FROM sync_runs
		WHERE id = ?
	`

	run, err := scanRun(r.db.QueryRowContext(ctx, query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("sync run not found: %s", id)
	}
	return run, err
}

// ListBySession returns the newest runs of a session first. A non-positive limit returns all of them.
func (r *SyncRunRepository) ListBySession(ctx context.Context, sessionKey string, limit int) ([]*models.SyncRun, error) {
	query := `
		SELECT id, session_key, operation, playlist_id, status,
			tracks_requested, tracks_committed, snapshot_id, error_message, created_at
		FROM sync_runs
		WHERE session_key = ?
		ORDER BY created_at DESC, rowid DESC
	`
	args := []any{sessionKey}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query sync runs: %w", err)
	}
	defer rows.Close()

	var runs []*models.SyncRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan sync run: %w", err)
		}
		runs = append(runs, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sync runs: %w", err)
	}
	return runs, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*models.SyncRun, error) {
	var (
		run          models.SyncRun
		snapshotID   sql.NullString
		errorMessage sql.NullString
	)
	err := row.Scan(
		&run.ID,
		&run.SessionKey,
		&run.Operation,
		&run.PlaylistID,
		&run.Status,
		&run.TracksRequested,
		&run.TracksCommitted,
		&snapshotID,
		&errorMessage,
		&run.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	run.SnapshotID = snapshotID.String
	run.ErrorMessage = errorMessage.String
	return &run, nil
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}
