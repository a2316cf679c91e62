// package models defines the data model for the playlist comparison and sync service
package models

import (
	"time"
)

// Image is a cover image attached to an album or playlist.
type Image struct {
	URL    string `json:"url"`
	Width  *int   `json:"width,omitempty"`
	Height *int   `json:"height,omitempty"`
}

// Artist credits a [Track]. The ID is nil for local files.
type Artist struct {
	ID   *string `json:"id"`
	Name string  `json:"name"`
}

// Album is the album a [Track] belongs to.
type Album struct {
	ID     *string `json:"id"`
	Name   string  `json:"name"`
	Images []Image `json:"images"`
}

// Track is an immutable track value. URI is the only reliable equality key: IDs are nil for local files.
//
// Position is the item's index in the remote playlist, counting unavailable items that were dropped
// during mapping, so it can be sent back in add and remove requests as is.
type Track struct {
	ID         *string  `json:"id"`
	URI        string   `json:"uri"`
	Name       string   `json:"name"`
	Position   int      `json:"position"`
	DurationMS int      `json:"durationMs"`
	IsLocal    bool     `json:"isLocal"`
	Artists    []Artist `json:"artists"`
	Album      Album    `json:"album"`
}

// ArtistNames returns the display names of the track's artists, in credit order.
func (t Track) ArtistNames() []string {
	names := make([]string, 0, len(t.Artists))
	for _, a := range t.Artists {
		names = append(names, a.Name)
	}
	return names
}

// ImageURL returns the first album image URL, or nil if the album has no images.
func (t Track) ImageURL() *string {
	if len(t.Album.Images) == 0 {
		return nil
	}
	url := t.Album.Images[0].URL
	return &url
}

// PlaylistSummary is playlist metadata recomputed on every fetch. It is never persisted.
type PlaylistSummary struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	Description   *string `json:"description,omitempty"`
	Images        []Image `json:"images"`
	OwnerID       *string `json:"ownerId"`
	OwnerName     *string `json:"ownerName"`
	Collaborative bool    `json:"collaborative"`
	IsOwned       bool    `json:"isOwned"`
	IsEditable    bool    `json:"isEditable"`
	TrackCount    int     `json:"trackCount"`
	ExternalURL   *string `json:"externalUrl,omitempty"`
	SnapshotID    string  `json:"snapshotId,omitempty"`
}

// PlaylistWithTracks is a summary plus the complete ordered track sequence.
//
// Built once per comparison or sync call and held only for that call.
//
// ItemCount is the remote length including unavailable items, which is where an append lands.
type PlaylistWithTracks struct {
	PlaylistSummary
	Tracks    []Track `json:"tracks"`
	ItemCount int     `json:"itemCount"`
}

// URIs returns the track URIs in playlist order.
func (p *PlaylistWithTracks) URIs() []string {
	uris := make([]string, len(p.Tracks))
	for i, t := range p.Tracks {
		uris[i] = t.URI
	}
	return uris
}

// Presence classifies one occurrence as unique to side A, unique to side B, or common to both.
type Presence string

const (
	UniqueToA Presence = "unique_to_a"
	UniqueToB Presence = "unique_to_b"
	Common    Presence = "common"
)

// Side identifies which playlist of a comparison an occurrence belongs to.
type Side string

const (
	SideA Side = "a"
	SideB Side = "b"
)

// ComparableTrack is a track occurrence projected to comparison fields and tagged with its presence.
//
// OccurrenceID ("{side}-{index}") is unique within one side and only meaningful within the comparison that produced it.
// Position is the remote index of the occurrence and may skip unavailable items.
type ComparableTrack struct {
	OccurrenceID string   `json:"occurrenceId"`
	Position     int      `json:"position"`
	URI          string   `json:"uri"`
	Name         string   `json:"name"`
	Artists      []string `json:"artists"`
	DurationMS   int      `json:"durationMs"`
	Image        *string  `json:"image"`
	Presence     Presence `json:"presence"`
}

// TrackPosition locates one occurrence of a URI inside a playlist.
type TrackPosition struct {
	URI      string `json:"uri"`
	Position int    `json:"position"`
}

// UndoEntry records the last reversible add for a session.
type UndoEntry struct {
	PlaylistID string          `json:"playlistId"`
	Entries    []TrackPosition `json:"entries"`
	SnapshotID string          `json:"snapshotId"`
	CreatedAt  time.Time       `json:"createdAt"`
}

// Matches reports whether the entry belongs to playlistID and was produced by the snapshot token.
func (u *UndoEntry) Matches(playlistID, snapshotID string) bool {
	return u != nil && u.PlaylistID == playlistID && u.SnapshotID == snapshotID
}

// URIs returns the recorded entry URIs in order.
func (u *UndoEntry) URIs() []string {
	uris := make([]string, len(u.Entries))
	for i, e := range u.Entries {
		uris[i] = e.URI
	}
	return uris
}

// PlaylistComparison is the payload of a comparison between two playlists.
//
// Common holds the A-side occurrences tagged [Common].
type PlaylistComparison struct {
	PlaylistA PlaylistWithTracks `json:"playlistA"`
	PlaylistB PlaylistWithTracks `json:"playlistB"`
	TracksA   []ComparableTrack  `json:"tracksA"`
	TracksB   []ComparableTrack  `json:"tracksB"`
	UniqueToA []ComparableTrack  `json:"uniqueToA"`
	UniqueToB []ComparableTrack  `json:"uniqueToB"`
	Common    []ComparableTrack  `json:"common"`
}

// Run status values recorded in a [SyncRun].
const (
	RunSucceeded = "succeeded"
	RunPartial   = "partial"
	RunFailed    = "failed"
)

// SyncRun is one audited mutation: a sync, an undo, or a selected removal.
type SyncRun struct {
	ID              string    `json:"id"`
	SessionKey      string    `json:"-"`
	Operation       string    `json:"operation"`
	PlaylistID      string    `json:"playlistId"`
	Status          string    `json:"status"`
	TracksRequested int       `json:"tracksRequested"`
	TracksCommitted int       `json:"tracksCommitted"`
	SnapshotID      string    `json:"snapshotId,omitempty"`
	ErrorMessage    string    `json:"error,omitempty"`
	CreatedAt       time.Time `json:"createdAt"`
}
