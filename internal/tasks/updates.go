package tasks

import (
	"fmt"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or server layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data
}

// Operation phase enumeration
type Phase int

const (
	FetchSource Phase = iota
	FetchDest
	FetchPlaylists
	Compare
	AddBatch
	RemoveBatch
	RecordUndo
	ReverseSync
	ExportComparison
)

func (p Phase) String() string {
	switch p {
	case FetchSource:
		return "fetch_source"
	case FetchDest:
		return "fetch_dest"
	case FetchPlaylists:
		return "fetch_playlists"
	case Compare:
		return "compare"
	case AddBatch:
		return "add_batch"
	case RemoveBatch:
		return "remove_batch"
	case RecordUndo:
		return "record_undo"
	case ReverseSync:
		return "reverse_sync"
	case ExportComparison:
		return "export_comparison"
	default:
		return ""
	}
}

func fetchSourceUpdate(step, total int, id string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchSource,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Fetching playlist %s...", id),
	}
}

func fetchDestUpdate(step, total int, id string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchDest,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Fetching playlist %s...", id),
	}
}

func fetchPlaylistsUpdate(step, total int, message string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchPlaylists,
		Step:    step,
		Total:   total,
		Message: message,
	}
}

func compareUpdate(step, total, lenA, lenB int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Compare,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("Comparing %d tracks against %d tracks...", lenA, lenB),
	}
}

func addBatchUpdate(step, total, added int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   AddBatch,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Added %d tracks", step, total, added),
		Data:    added,
	}
}

func removeBatchUpdate(step, total, removed int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RemoveBatch,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Removed %d tracks", step, total, removed),
		Data:    removed,
	}
}

func recordUndoUpdate(entries int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   RecordUndo,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Recorded undo for %d tracks", entries),
	}
}

func reverseSyncUpdate(candidates int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ReverseSync,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Copying %d tracks back to the source playlist...", candidates),
	}
}

func exportingComparisonUpdate(step, total int, name string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportComparison,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] Comparing: %s...", step, total, name),
	}
}

func exportCompletedUpdate(step, total int, name string, filesCount int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportComparison,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s (%d files)", step, total, name, filesCount),
	}
}

func exportFailedUpdate(step, total int, name string, err error) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ExportComparison,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, name, err),
	}
}
