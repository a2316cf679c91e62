package services

import (
	"github.com/desertthunder/plsync/internal/models"
)

const (
	unknownArtist = "Unknown Artist"
	unknownAlbum  = "Unknown Album"
)

// MapTrack converts a playlist item to a [models.Track].
//
// Returns false for placeholders with no track body or no URI, which callers drop.
func MapTrack(raw PlaylistItem) (models.Track, bool) {
	if raw.Track == nil || raw.Track.URI == "" {
		return models.Track{}, false
	}
	rt := raw.Track

	track := models.Track{
		ID:         rt.ID,
		URI:        rt.URI,
		DurationMS: max(rt.DurationMS, 0),
		IsLocal:    rt.IsLocal || raw.IsLocal,
		Artists:    make([]models.Artist, 0, len(rt.Artists)),
		Album:      models.Album{Name: unknownAlbum, Images: []models.Image{}},
	}
	if rt.Name != nil {
		track.Name = *rt.Name
	}

	for _, a := range rt.Artists {
		artist := models.Artist{ID: a.ID, Name: unknownArtist}
		if a.Name != nil && *a.Name != "" {
			artist.Name = *a.Name
		}
		track.Artists = append(track.Artists, artist)
	}

	if rt.Album != nil {
		track.Album.ID = rt.Album.ID
		if rt.Album.Name != nil && *rt.Album.Name != "" {
			track.Album.Name = *rt.Album.Name
		}
		track.Album.Images = mapImages(rt.Album.Images)
	}

	return track, true
}

// MapTracks maps items in order, dropping placeholders. Each track keeps its index in items as Position.
func MapTracks(items []PlaylistItem) []models.Track {
	tracks := make([]models.Track, 0, len(items))
	for i, item := range items {
		if track, ok := MapTrack(item); ok {
			track.Position = i
			tracks = append(tracks, track)
		}
	}
	return tracks
}

// MapPlaylist converts a playlist record to a summary, computing ownership against currentUserID.
func MapPlaylist(raw PlaylistRecord, currentUserID string) models.PlaylistSummary {
	summary := models.PlaylistSummary{
		ID:         raw.ID,
		Name:       raw.Name,
		Images:     mapImages(raw.Images),
		TrackCount: raw.Tracks.Total,
		SnapshotID: raw.SnapshotID,
	}

	if raw.Description != nil && *raw.Description != "" {
		summary.Description = raw.Description
	}
	if raw.Owner != nil {
		summary.OwnerID = raw.Owner.ID
		summary.OwnerName = raw.Owner.DisplayName
	}
	if raw.Collaborative != nil {
		summary.Collaborative = *raw.Collaborative
	}
	if u, ok := raw.ExternalURLs["spotify"]; ok && u != "" {
		summary.ExternalURL = &u
	}

	summary.IsOwned = summary.OwnerID != nil && currentUserID != "" && *summary.OwnerID == currentUserID
	summary.IsEditable = summary.IsOwned || summary.Collaborative
	return summary
}

func mapImages(raw []ImageRecord) []models.Image {
	images := make([]models.Image, 0, len(raw))
	for _, img := range raw {
		if img.URL == "" {
			continue
		}
		images = append(images, models.Image{URL: img.URL, Width: img.Width, Height: img.Height})
	}
	return images
}
