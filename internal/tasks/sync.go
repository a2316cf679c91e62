package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/plsync/internal/models"
	"github.com/desertthunder/plsync/internal/services"
	"github.com/desertthunder/plsync/internal/shared"
	"golang.org/x/sync/errgroup"
)

// Operations recorded in the sync audit trail.
const (
	RunSync        = "sync"
	RunReverseSync = "reverse_sync"
	RunUndo        = "undo"
	RunRemove      = "remove"
)

// SyncRequest selects what to copy into TargetID: the given URIs, or every occurrence unique to SourceID.
type SyncRequest struct {
	SourceID string   `json:"sourceId,omitempty"`
	TargetID string   `json:"targetId"`
	URIs     []string `json:"trackUris,omitempty"`
	TwoWay   bool     `json:"twoWay,omitempty"`
}

// SyncResult reports a sync. UndoToken is empty when nothing was added and no undo entry was recorded.
type SyncResult struct {
	AddedURIs        []string `json:"addedUris"`
	UndoToken        string   `json:"undoToken,omitempty"`
	ReverseAddedURIs []string `json:"reverseAddedUris"`
}

// UndoResult reports an undo. Found is false when the session has no entry matching the request.
type UndoResult struct {
	RemovedURIs []string `json:"removedUris"`
	Found       bool     `json:"found"`
	SnapshotID  string   `json:"snapshotId,omitempty"`
}

// PlaylistList is the current user's playlists.
type PlaylistList struct {
	Playlists []models.PlaylistSummary `json:"playlists"`
	Total     int                      `json:"total"`
}

// ListPlaylists returns the current user's playlists with ownership computed.
func (e *Engine) ListPlaylists(ctx context.Context) (*PlaylistList, error) {
	e.sendProgress(fetchPlaylistsUpdate(1, 2, "Fetching current user..."))
	user, err := e.api.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}

	e.sendProgress(fetchPlaylistsUpdate(2, 2, "Fetching playlists..."))
	playlists, err := e.api.ListPlaylists(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &PlaylistList{Playlists: playlists, Total: len(playlists)}, nil
}

// Compare loads both playlists concurrently and diffs them.
func (e *Engine) Compare(ctx context.Context, aID, bID string) (*models.PlaylistComparison, error) {
	if aID == "" || bID == "" {
		return nil, fmt.Errorf("%w: two playlist ids are required", shared.ErrMissingArgument)
	}

	user, err := e.api.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}

	a, b, err := e.loadPair(ctx, user.ID, aID, bID)
	if err != nil {
		return nil, err
	}

	e.sendProgress(compareUpdate(1, 1, len(a.Tracks), len(b.Tracks)))
	return Comparison(a, b), nil
}

// Sync copies the missing tracks into the target and records an undo entry for the session.
//
// With TwoWay, the occurrences unique to the target (as of before the sync) are then copied back into the
// source. The reverse direction is not undoable. A failure in the middle of the adds returns the partial
// result with a [*BatchError]; the committed part is still recorded for undo.
func (e *Engine) Sync(ctx context.Context, session Session, req SyncRequest) (result *SyncResult, err error) {
	defer func() { e.metrics.ObserveSync(err) }()

	if err := services.RequireScopes(session.Scope, services.ModifyScopes...); err != nil {
		return nil, err
	}
	if req.TargetID == "" {
		return nil, fmt.Errorf("%w: target playlist id", shared.ErrMissingArgument)
	}
	if req.SourceID == "" && (req.TwoWay || len(req.URIs) == 0) {
		return nil, fmt.Errorf("%w: source playlist id", shared.ErrMissingArgument)
	}

	user, err := e.api.CurrentUser(ctx)
	if err != nil {
		return nil, err
	}

	var source, target *models.PlaylistWithTracks
	if req.SourceID != "" {
		if source, target, err = e.loadPair(ctx, user.ID, req.SourceID, req.TargetID); err != nil {
			return nil, err
		}
	} else {
		e.sendProgress(fetchDestUpdate(1, 1, req.TargetID))
		if target, err = e.api.PlaylistWithTracks(ctx, req.TargetID, user.ID); err != nil {
			return nil, err
		}
	}

	if !target.IsEditable {
		return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotEditable, target.Name)
	}
	if req.TwoWay && !source.IsEditable {
		return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotEditable, source.Name)
	}

	var diff DiffResult
	if source != nil {
		diff = Diff(source.Tracks, target.Tracks)
	}

	candidates := req.URIs
	if len(candidates) == 0 {
		candidates = diff.UniqueToAURIs()
	}
	missing := filterAlreadyPresent(candidates, target.Tracks)

	result = &SyncResult{AddedURIs: []string{}, ReverseAddedURIs: []string{}}

	start := target.ItemCount
	added, addErr := e.AddTracks(ctx, target.ID, missing, &start)
	result.AddedURIs = added.AddedURIs
	e.recordRun(ctx, session, RunSync, target.ID, len(missing), len(added.AddedURIs), added.SnapshotID, addErr)

	if len(added.AddedEntries) > 0 {
		entry := models.UndoEntry{
			PlaylistID: target.ID,
			Entries:    added.AddedEntries,
			SnapshotID: added.SnapshotID,
			CreatedAt:  e.now(),
		}
		e.sendProgress(recordUndoUpdate(len(entry.Entries)))
		if err := e.undo.Put(ctx, session.Key, entry); err != nil {
			return result, errors.Join(addErr, fmt.Errorf("failed to record undo entry: %w", err))
		}
		result.UndoToken = entry.SnapshotID
	}
	if addErr != nil {
		return result, addErr
	}

	e.logger.Info("sync complete", "target", target.ID, "added", len(result.AddedURIs), "two_way", req.TwoWay)

	if !req.TwoWay {
		return result, nil
	}

	reverse := filterAlreadyPresent(diff.UniqueToBURIs(), source.Tracks)
	e.sendProgress(reverseSyncUpdate(len(reverse)))

	sourceStart := source.ItemCount
	reverseAdded, err := e.AddTracks(ctx, source.ID, reverse, &sourceStart)
	result.ReverseAddedURIs = reverseAdded.AddedURIs
	e.recordRun(ctx, session, RunReverseSync, source.ID, len(reverse), len(reverseAdded.AddedURIs), reverseAdded.SnapshotID, err)
	if err != nil {
		return result, err
	}

	e.logger.Info("reverse sync complete", "source", source.ID, "added", len(result.ReverseAddedURIs))
	return result, nil
}

// Undo removes the tracks added by the session's last sync, provided playlistID and token match its entry.
//
// The entry is consumed atomically; a second undo with the same token finds nothing. When no batch could be
// removed the entry is put back so the undo can be retried.
func (e *Engine) Undo(ctx context.Context, session Session, playlistID, token string) (*UndoResult, error) {
	if err := services.RequireScopes(session.Scope, services.ModifyScopes...); err != nil {
		return nil, err
	}
	if playlistID == "" || token == "" {
		return nil, fmt.Errorf("%w: playlist id and undo token", shared.ErrMissingArgument)
	}

	entry, found, err := e.undo.Take(ctx, session.Key, playlistID, token)
	if err != nil {
		e.metrics.ObserveUndo("error")
		return nil, err
	}
	if !found {
		e.metrics.ObserveUndo("not_found")
		return &UndoResult{RemovedURIs: []string{}, Found: false}, nil
	}

	removed, err := e.RemoveTracks(ctx, playlistID, entry.Entries, entry.SnapshotID)
	e.recordRun(ctx, session, RunUndo, playlistID, len(entry.Entries), removed.RemovedCount, removed.SnapshotID, err)
	if err != nil {
		e.metrics.ObserveUndo("error")
		if removed.Batches == 0 {
			if putErr := e.undo.Put(ctx, session.Key, *entry); putErr != nil {
				e.logger.Warn("failed to restore undo entry", "playlist", playlistID, "error", putErr)
			}
		}
		return &UndoResult{RemovedURIs: removed.RemovedURIs, Found: true, SnapshotID: removed.SnapshotID}, err
	}

	e.metrics.ObserveUndo("restored")
	e.logger.Info("undo complete", "playlist", playlistID, "removed", removed.RemovedCount)
	return &UndoResult{RemovedURIs: removed.RemovedURIs, Found: true, SnapshotID: removed.SnapshotID}, nil
}

// RemoveSelected deletes the chosen occurrences from a playlist.
func (e *Engine) RemoveSelected(ctx context.Context, session Session, playlistID string, entries []models.TrackPosition, snapshotID string) (*RemoveResult, error) {
	if err := services.RequireScopes(session.Scope, services.ModifyScopes...); err != nil {
		return nil, err
	}
	if playlistID == "" {
		return nil, fmt.Errorf("%w: playlist id", shared.ErrMissingArgument)
	}
	for _, entry := range entries {
		if entry.URI == "" || entry.Position < 0 {
			return nil, fmt.Errorf("%w: entry %q at position %d", shared.ErrInvalidInput, entry.URI, entry.Position)
		}
	}

	removed, err := e.RemoveTracks(ctx, playlistID, entries, snapshotID)
	e.recordRun(ctx, session, RunRemove, playlistID, len(entries), removed.RemovedCount, removed.SnapshotID, err)
	return removed, err
}

// loadPair fetches two playlists concurrently.
func (e *Engine) loadPair(ctx context.Context, userID, aID, bID string) (a, b *models.PlaylistWithTracks, err error) {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		e.sendProgress(fetchSourceUpdate(1, 2, aID))
		pl, err := e.api.PlaylistWithTracks(gctx, aID, userID)
		if err != nil {
			return fmt.Errorf("failed to load playlist %s: %w", aID, err)
		}
		a = pl
		return nil
	})
	g.Go(func() error {
		e.sendProgress(fetchDestUpdate(2, 2, bID))
		pl, err := e.api.PlaylistWithTracks(gctx, bID, userID)
		if err != nil {
			return fmt.Errorf("failed to load playlist %s: %w", bID, err)
		}
		b = pl
		return nil
	})

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return a, b, nil
}
