// Spotify Web API wire records based on https://developer.spotify.com/documentation/web-api/reference/
//
// Optional fields are pointers so the mapper can tell a missing value from a zero value.
package services

// Page is one page of a cursor-paginated collection. Next is the absolute URL of the following page, nil on the last one.
type Page[T any] struct {
	Items  []T     `json:"items"`
	Next   *string `json:"next"`
	Total  int     `json:"total"`
	Limit  int     `json:"limit"`
	Offset int     `json:"offset"`
}

// UserRecord is the current user's profile.
type UserRecord struct {
	ID          string  `json:"id"`
	DisplayName *string `json:"display_name"`
}

// ImageRecord represents an image resource.
type ImageRecord struct {
	URL    string `json:"url"`
	Width  *int   `json:"width"`
	Height *int   `json:"height"`
}

type ArtistRecord struct {
	ID   *string `json:"id"`
	Name *string `json:"name"`
}

type AlbumRecord struct {
	ID     *string       `json:"id"`
	Name   *string       `json:"name"`
	Images []ImageRecord `json:"images"`
}

// TrackRecord is a track (or episode) body inside a playlist item.
type TrackRecord struct {
	ID         *string        `json:"id"`
	URI        string         `json:"uri"`
	Name       *string        `json:"name"`
	DurationMS int            `json:"duration_ms"`
	IsLocal    bool           `json:"is_local"`
	Artists    []ArtistRecord `json:"artists"`
	Album      *AlbumRecord   `json:"album"`
}

// PlaylistItem wraps a track in playlist context. Track is nil for deleted or unavailable items.
type PlaylistItem struct {
	AddedAt string       `json:"added_at"`
	IsLocal bool         `json:"is_local"`
	Track   *TrackRecord `json:"track"`
}

type OwnerRecord struct {
	ID          *string `json:"id"`
	DisplayName *string `json:"display_name"`
}

// PlaylistRecord covers both the simplified playlist of /me/playlists (Tracks.Items empty)
// and the full playlist of /playlists/{id} (first page of tracks embedded).
type PlaylistRecord struct {
	ID            string             `json:"id"`
	Name          string             `json:"name"`
	Description   *string            `json:"description"`
	Images        []ImageRecord      `json:"images"`
	Owner         *OwnerRecord       `json:"owner"`
	Collaborative *bool              `json:"collaborative"`
	Public        *bool              `json:"public"`
	SnapshotID    string             `json:"snapshot_id"`
	ExternalURLs  map[string]string  `json:"external_urls"`
	Tracks        Page[PlaylistItem] `json:"tracks"`
}

// SnapshotResponse is returned by every playlist mutation.
type SnapshotResponse struct {
	SnapshotID string `json:"snapshot_id"`
}

// AddItemsRequest is the body of POST /playlists/{id}/tracks.
type AddItemsRequest struct {
	URIs     []string `json:"uris"`
	Position *int     `json:"position,omitempty"`
}

// RemoveItem selects the occurrences of one URI to delete.
type RemoveItem struct {
	URI       string `json:"uri"`
	Positions []int  `json:"positions"`
}

// RemoveItemsRequest is the body of DELETE /playlists/{id}/tracks.
type RemoveItemsRequest struct {
	Tracks     []RemoveItem `json:"tracks"`
	SnapshotID string       `json:"snapshot_id,omitempty"`
}
