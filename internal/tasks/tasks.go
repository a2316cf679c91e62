// package tasks implements the playlist comparison, sync and undo engine.
//
// The core abstraction is Engine, which loads playlists through a PlaylistAPI, diffs them, and applies batched mutations.
// Operations emit progress updates via channels for non-blocking status reporting to CLI/server layers.
package tasks

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/plsync/internal/metrics"
	"github.com/desertthunder/plsync/internal/models"
	"github.com/desertthunder/plsync/internal/repositories"
	"github.com/desertthunder/plsync/internal/services"
)

// PlaylistAPI is the remote surface the engine drives. [*services.Client] implements it.
type PlaylistAPI interface {
	CurrentUser(ctx context.Context) (*services.UserRecord, error)
	ListPlaylists(ctx context.Context, currentUserID string) ([]models.PlaylistSummary, error)
	PlaylistWithTracks(ctx context.Context, playlistID, currentUserID string) (*models.PlaylistWithTracks, error)
	AddItems(ctx context.Context, playlistID string, uris []string, position *int) (string, error)
	RemoveItems(ctx context.Context, playlistID string, items []services.RemoveItem, snapshotID string) (string, error)
}

// Session identifies the caller of a mutating operation.
type Session struct {
	Key   string // undo slot key, see [shared.SessionKey]
	Scope string // space separated granted scopes; empty when unknown
}

// RunRecorder stores the audit trail of mutations. [*repositories.SyncRunRepository] implements it.
type RunRecorder interface {
	Record(ctx context.Context, run *models.SyncRun) error
}

// EngineOpts configures an [Engine]. Zero values select defaults.
type EngineOpts struct {
	Undo      repositories.UndoStore
	Runs      RunRecorder // optional
	BatchSize int         // capped at MaxBatchSize
	Logger    *log.Logger
	Metrics   *metrics.Metrics
	Progress  chan<- ProgressUpdate
	Now       func() time.Time
}

// Engine runs comparisons and mutations for one authenticated user.
type Engine struct {
	api       PlaylistAPI
	undo      repositories.UndoStore
	runs      RunRecorder
	batchSize int
	logger    *log.Logger
	metrics   *metrics.Metrics
	progress  chan<- ProgressUpdate
	now       func() time.Time
}

// NewEngine creates an Engine over api. Without an undo store, entries are kept in a process-local memory store.
func NewEngine(api PlaylistAPI, opts EngineOpts) *Engine {
	e := &Engine{
		api:       api,
		undo:      opts.Undo,
		runs:      opts.Runs,
		batchSize: MaxBatchSize,
		logger:    opts.Logger,
		metrics:   opts.Metrics,
		progress:  opts.Progress,
		now:       opts.Now,
	}
	if opts.BatchSize > 0 && opts.BatchSize < MaxBatchSize {
		e.batchSize = opts.BatchSize
	}
	if e.undo == nil {
		e.undo = repositories.NewMemoryUndoStore(0, 0)
	}
	if e.logger == nil {
		e.logger = log.New(io.Discard)
	}
	if e.now == nil {
		e.now = time.Now
	}
	return e
}

// sendProgress sends a progress update through the channel without blocking.
func (e *Engine) sendProgress(update ProgressUpdate) {
	if e.progress == nil {
		return
	}
	select {
	case e.progress <- update:
	default:
	}
}

// recordRun appends an audit row when a recorder is configured. Failures are logged, never returned.
func (e *Engine) recordRun(ctx context.Context, session Session, op, playlistID string, requested, committed int, snapshotID string, err error) {
	if e.runs == nil {
		return
	}

	run := &models.SyncRun{
		SessionKey:      session.Key,
		Operation:       op,
		PlaylistID:      playlistID,
		Status:          models.RunSucceeded,
		TracksRequested: requested,
		TracksCommitted: committed,
		SnapshotID:      snapshotID,
		CreatedAt:       e.now(),
	}
	if err != nil {
		run.Status = models.RunFailed
		if committed > 0 {
			run.Status = models.RunPartial
		}
		run.ErrorMessage = err.Error()
	}

	if err := e.runs.Record(ctx, run); err != nil {
		e.logger.Warn("failed to record sync run", "operation", op, "playlist", playlistID, "error", err)
	}
}
