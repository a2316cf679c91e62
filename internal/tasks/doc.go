// Package tasks compares Spotify playlists and applies batched, undoable mutations.
//
// # Core Operations
//
// [Engine] exposes five operations over a [PlaylistAPI]:
//
//  1. [Engine.Compare] : Multiset diff of two playlists
//     - Loads both playlists concurrently
//     - Tags every occurrence as unique_to_a, unique_to_b or common
//
//  2. [Engine.Sync] : Copy missing tracks into a target playlist
//     - Skips candidates the target already holds, occurrence by occurrence
//     - Appends in batches of at most [MaxBatchSize]
//     - Records the added (uri, position) pairs as the session's undo entry
//     - Optionally copies the target-only tracks back into the source
//
//  3. [Engine.Undo] : Remove the tracks added by the last sync
//     - Consumes the undo entry only when playlist id and snapshot token match
//
//  4. [Engine.RemoveSelected] : Delete chosen occurrences by position
//
//  5. [Engine.BulkCompare] : Compare one playlist against many and export each result
//
// # Batching
//
// Mutations run sequentially. A failure in the middle of a sequence returns a [*BatchError] that lists
// the batches already committed; those are never rolled back.
//
// # Progress Reporting
//
// Operations send [ProgressUpdate] values over the optional channel in [EngineOpts].
// Updates use select with default to prevent blocking.
package tasks
