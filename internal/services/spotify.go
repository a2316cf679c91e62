package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/desertthunder/plsync/internal/models"
)

// MaxPlaylistsPerPage is the largest page size /me/playlists accepts.
const MaxPlaylistsPerPage = 50

// Client exposes the playlist endpoints the sync engine depends on.
type Client struct {
	api      Doer
	maxPages int
}

// NewClient creates a Client over api. A non-positive maxPages uses [DefaultMaxPages].
func NewClient(api Doer, maxPages int) *Client {
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	return &Client{api: api, maxPages: maxPages}
}

// CurrentUser retrieves the authenticated user's profile.
func (c *Client) CurrentUser(ctx context.Context) (*UserRecord, error) {
	var user UserRecord
	if err := c.api.Do(ctx, http.MethodGet, "/me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

// ListPlaylists retrieves every playlist of the current user, computing ownership against currentUserID.
func (c *Client) ListPlaylists(ctx context.Context, currentUserID string) ([]models.PlaylistSummary, error) {
	var first Page[PlaylistRecord]
	endpoint := fmt.Sprintf("/me/playlists?limit=%d", MaxPlaylistsPerPage)
	if err := c.api.Do(ctx, http.MethodGet, endpoint, nil, &first); err != nil {
		return nil, err
	}

	records, err := WalkPlaylists(ctx, c.api, first, c.maxPages)
	if err != nil {
		return nil, err
	}

	playlists := make([]models.PlaylistSummary, 0, len(records))
	for _, r := range records {
		playlists = append(playlists, MapPlaylist(r, currentUserID))
	}
	return playlists, nil
}

// Playlist retrieves a playlist record with its first page of tracks embedded.
func (c *Client) Playlist(ctx context.Context, playlistID string) (*PlaylistRecord, error) {
	var playlist PlaylistRecord
	endpoint := "/playlists/" + url.PathEscape(playlistID)
	if err := c.api.Do(ctx, http.MethodGet, endpoint, nil, &playlist); err != nil {
		return nil, err
	}
	return &playlist, nil
}

// PlaylistWithTracks retrieves a playlist and walks every page of its tracks.
func (c *Client) PlaylistWithTracks(ctx context.Context, playlistID, currentUserID string) (*models.PlaylistWithTracks, error) {
	raw, err := c.Playlist(ctx, playlistID)
	if err != nil {
		return nil, err
	}

	tracks, items, err := WalkTracks(ctx, c.api, raw.Tracks, c.maxPages)
	if err != nil {
		return nil, fmt.Errorf("failed to load tracks of playlist %s: %w", playlistID, err)
	}

	return &models.PlaylistWithTracks{
		PlaylistSummary: MapPlaylist(*raw, currentUserID),
		Tracks:          tracks,
		ItemCount:       items,
	}, nil
}

// AddItems inserts uris at position (appends when nil) and returns the new snapshot id.
func (c *Client) AddItems(ctx context.Context, playlistID string, uris []string, position *int) (string, error) {
	var resp SnapshotResponse
	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))
	body := AddItemsRequest{URIs: uris, Position: position}
	if err := c.api.Do(ctx, http.MethodPost, endpoint, body, &resp); err != nil {
		return "", err
	}
	return resp.SnapshotID, nil
}

// RemoveItems deletes the given occurrences, relative to snapshotID when set, and returns the new snapshot id.
func (c *Client) RemoveItems(ctx context.Context, playlistID string, items []RemoveItem, snapshotID string) (string, error) {
	var resp SnapshotResponse
	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))
	body := RemoveItemsRequest{Tracks: items, SnapshotID: snapshotID}
	if err := c.api.Do(ctx, http.MethodDelete, endpoint, body, &resp); err != nil {
		return "", err
	}
	return resp.SnapshotID, nil
}
