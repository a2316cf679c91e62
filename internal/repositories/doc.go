// Package repositories persists the per-session undo slot and the sync audit trail.
//
// Key Implementations:
//   - [MemoryUndoStore] : Process-local undo slots in an expiring LRU
//   - [SQLiteUndoStore] : Undo slots in the undo_entries table
//   - [RedisUndoStore] : Undo slots shared between server replicas
//   - [SyncRunRepository] : Append-only history of sync and undo runs
//
// Every [UndoStore] keeps at most one entry per session key; a Put replaces the previous entry.
// Take consumes the entry atomically and only when it matches the playlist id and snapshot token,
// so two concurrent undos of the same sync cannot both succeed.
package repositories
