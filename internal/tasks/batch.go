package tasks

import (
	"context"
	"fmt"
	"slices"

	"github.com/desertthunder/plsync/internal/models"
	"github.com/desertthunder/plsync/internal/services"
	"github.com/desertthunder/plsync/internal/shared"
)

// MaxBatchSize is the Web API's ceiling for one add or remove request.
const MaxBatchSize = 100

const (
	OpAdd    = "add"
	OpRemove = "remove"
)

// AddResult reports the outcome of [Engine.AddTracks].
type AddResult struct {
	AddedURIs    []string               `json:"addedUris"`
	AddedEntries []models.TrackPosition `json:"addedEntries,omitempty"`
	SnapshotID   string                 `json:"snapshotId,omitempty"`
	Batches      int                    `json:"batches"`
}

// RemoveResult reports the outcome of [Engine.RemoveTracks].
type RemoveResult struct {
	RemovedURIs  []string `json:"removedUris"`
	RemovedCount int      `json:"removedCount"`
	SnapshotID   string   `json:"snapshotId,omitempty"`
	Batches      int      `json:"batches"`
}

// CommittedBatch is a batch the remote accepted before a later batch failed.
type CommittedBatch struct {
	URIs       []string `json:"uris"`
	SnapshotID string   `json:"snapshotId"`
}

// BatchError reports a failure in the middle of a batch sequence.
//
// Committed lists the batches already applied, in order; they are not rolled back.
type BatchError struct {
	Op        string
	Failed    int // zero-based index of the failing batch
	Committed []CommittedBatch
	Err       error
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("%v: %s batch %d failed after %d committed: %v", shared.ErrBatchFailed, e.Op, e.Failed+1, len(e.Committed), e.Err)
}

func (e *BatchError) Unwrap() error { return e.Err }

func (e *BatchError) Is(target error) bool { return target == shared.ErrBatchFailed }

// AddTracks appends uris to a playlist in sequential batches of at most [MaxBatchSize].
//
// With a starting position each batch is inserted at start plus the number of URIs already sent,
// and entry i of the result records position start+i. On failure the partial result is returned
// together with a [*BatchError].
func (e *Engine) AddTracks(ctx context.Context, playlistID string, uris []string, start *int) (*AddResult, error) {
	result := &AddResult{AddedURIs: []string{}}
	if len(uris) == 0 {
		return result, nil
	}

	batches := chunk(uris, e.batchSize)
	var committed []CommittedBatch

	for i, batch := range batches {
		var position *int
		if start != nil {
			p := *start + len(result.AddedURIs)
			position = &p
		}

		snapshot, err := e.api.AddItems(ctx, playlistID, batch, position)
		e.metrics.ObserveBatch(OpAdd, err)
		if err != nil {
			return result, &BatchError{Op: OpAdd, Failed: i, Committed: committed, Err: err}
		}

		if position != nil {
			for j, uri := range batch {
				result.AddedEntries = append(result.AddedEntries, models.TrackPosition{URI: uri, Position: *position + j})
			}
		}
		result.AddedURIs = append(result.AddedURIs, batch...)
		result.SnapshotID = snapshot
		result.Batches++
		committed = append(committed, CommittedBatch{URIs: batch, SnapshotID: snapshot})

		e.logger.Debug("add batch committed", "playlist", playlistID, "batch", i+1, "size", len(batch), "snapshot", snapshot)
		e.sendProgress(addBatchUpdate(i+1, len(batches), len(result.AddedURIs)))
	}

	return result, nil
}

// RemoveTracks deletes the given occurrences in sequential batches of at most [MaxBatchSize].
//
// Entries are sorted by position first. Within a batch occurrences are grouped by URI in first-appearance
// order, with positions shifted down by the number removed in earlier batches. Every call carries the
// snapshot id returned by the previous one, starting from snapshotID.
func (e *Engine) RemoveTracks(ctx context.Context, playlistID string, entries []models.TrackPosition, snapshotID string) (*RemoveResult, error) {
	result := &RemoveResult{RemovedURIs: []string{}, SnapshotID: snapshotID}
	if len(entries) == 0 {
		return result, nil
	}

	sorted := slices.Clone(entries)
	slices.SortStableFunc(sorted, func(a, b models.TrackPosition) int { return a.Position - b.Position })

	batches := chunk(sorted, e.batchSize)
	var committed []CommittedBatch

	for i, batch := range batches {
		items := groupPositions(batch, result.RemovedCount)

		snapshot, err := e.api.RemoveItems(ctx, playlistID, items, result.SnapshotID)
		e.metrics.ObserveBatch(OpRemove, err)
		if err != nil {
			return result, &BatchError{Op: OpRemove, Failed: i, Committed: committed, Err: err}
		}

		uris := make([]string, len(batch))
		for j, entry := range batch {
			uris[j] = entry.URI
		}
		result.RemovedURIs = append(result.RemovedURIs, uris...)
		result.RemovedCount += len(batch)
		result.SnapshotID = snapshot
		result.Batches++
		committed = append(committed, CommittedBatch{URIs: uris, SnapshotID: snapshot})

		e.logger.Debug("remove batch committed", "playlist", playlistID, "batch", i+1, "size", len(batch), "snapshot", snapshot)
		e.sendProgress(removeBatchUpdate(i+1, len(batches), result.RemovedCount))
	}

	return result, nil
}

// FilterAlreadyPresent drops candidates the playlist already holds, occurrence by occurrence.
//
// Candidates [X, X, X] against a playlist holding [X, X] leave [X]. The playlist is fetched when existing is nil.
func (e *Engine) FilterAlreadyPresent(ctx context.Context, playlistID string, candidates []string, existing []models.Track) ([]string, error) {
	if existing == nil {
		pl, err := e.api.PlaylistWithTracks(ctx, playlistID, "")
		if err != nil {
			return nil, err
		}
		existing = pl.Tracks
	}
	return filterAlreadyPresent(candidates, existing), nil
}

func filterAlreadyPresent(candidates []string, existing []models.Track) []string {
	remaining := countURIs(existing)
	missing := make([]string, 0, len(candidates))
	for _, uri := range candidates {
		if remaining[uri] > 0 {
			remaining[uri]--
			continue
		}
		missing = append(missing, uri)
	}
	return missing
}

// groupPositions groups one batch by URI, preserving first appearance, and shifts every position by removed.
func groupPositions(batch []models.TrackPosition, removed int) []services.RemoveItem {
	index := make(map[string]int)
	var items []services.RemoveItem
	for _, entry := range batch {
		i, ok := index[entry.URI]
		if !ok {
			i = len(items)
			index[entry.URI] = i
			items = append(items, services.RemoveItem{URI: entry.URI})
		}
		items[i].Positions = append(items[i].Positions, entry.Position-removed)
	}
	return items
}

func chunk[T any](items []T, size int) [][]T {
	var out [][]T
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		out = append(out, items[start:end])
	}
	return out
}
