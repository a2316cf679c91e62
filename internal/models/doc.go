// Package models defines the domain values exchanged between the Spotify client, the sync engine, and the HTTP layer.
//
// The package contains two categories of types:
//
// 1. Catalog values: normalized records mapped from Spotify API responses
//   - [Track] : Track metadata keyed by URI
//   - [PlaylistSummary] : Playlist metadata with computed ownership and editability
//   - [PlaylistWithTracks] : Playlist with its complete ordered track listing
//
// 2. Comparison and sync values: produced by the sync engine
//   - [ComparableTrack] : One tagged occurrence in a comparison result
//   - [PlaylistComparison] : Both playlists, their tagged tracks, and the three diff sets
//   - [TrackPosition] : A (uri, position) pair used for removal and undo
//   - [UndoEntry] : The single undo slot stored per session
//   - [SyncRun] : One audited mutation
//
// Only [UndoEntry] and [SyncRun] are persisted (see package repositories).
package models
