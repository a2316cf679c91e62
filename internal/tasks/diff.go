package tasks

import (
	"fmt"

	"github.com/desertthunder/plsync/internal/models"
)

// DiffResult tags every occurrence of two track sequences and lists them by presence.
//
// UniqueToA/UniqueToB/Common hold one entry per occurrence; Common holds the A-side occurrences.
type DiffResult struct {
	TracksA   []models.ComparableTrack
	TracksB   []models.ComparableTrack
	UniqueToA []models.ComparableTrack
	UniqueToB []models.ComparableTrack
	Common    []models.ComparableTrack
}

// UniqueToAURIs returns the URIs of the A-only occurrences in A order, one per occurrence.
func (d DiffResult) UniqueToAURIs() []string { return occurrenceURIs(d.UniqueToA) }

// UniqueToBURIs returns the URIs of the B-only occurrences in B order, one per occurrence.
func (d DiffResult) UniqueToBURIs() []string { return occurrenceURIs(d.UniqueToB) }

// Diff compares a and b as multisets keyed by URI.
//
// An occurrence in A is common while B still has an unmatched occurrence of the same URI; B then
// consumes those matches in its own order. So [X, X] against [X] tags the first X of each side common
// and the second X of A unique to A.
func Diff(a, b []models.Track) DiffResult {
	remaining := countURIs(b)
	matched := make(map[string]int)

	tracksA := make([]models.ComparableTrack, len(a))
	for i, track := range a {
		presence := models.UniqueToA
		if remaining[track.URI] > 0 {
			remaining[track.URI]--
			matched[track.URI]++
			presence = models.Common
		}
		tracksA[i] = toComparable(models.SideA, i, track, presence)
	}

	consumed := make(map[string]int)
	tracksB := make([]models.ComparableTrack, len(b))
	for i, track := range b {
		presence := models.UniqueToB
		if consumed[track.URI] < matched[track.URI] {
			consumed[track.URI]++
			presence = models.Common
		}
		tracksB[i] = toComparable(models.SideB, i, track, presence)
	}

	return DiffResult{
		TracksA:   tracksA,
		TracksB:   tracksB,
		UniqueToA: filterPresence(tracksA, models.UniqueToA),
		UniqueToB: filterPresence(tracksB, models.UniqueToB),
		Common:    filterPresence(tracksA, models.Common),
	}
}

// Comparison assembles the comparison payload for two loaded playlists.
func Comparison(a, b *models.PlaylistWithTracks) *models.PlaylistComparison {
	d := Diff(a.Tracks, b.Tracks)
	return &models.PlaylistComparison{
		PlaylistA: *a,
		PlaylistB: *b,
		TracksA:   d.TracksA,
		TracksB:   d.TracksB,
		UniqueToA: d.UniqueToA,
		UniqueToB: d.UniqueToB,
		Common:    d.Common,
	}
}

// countURIs is the multiplicity count shared by [Diff] and [FilterAlreadyPresent].
func countURIs(tracks []models.Track) map[string]int {
	counts := make(map[string]int, len(tracks))
	for _, t := range tracks {
		counts[t.URI]++
	}
	return counts
}

func toComparable(side models.Side, index int, t models.Track, presence models.Presence) models.ComparableTrack {
	return models.ComparableTrack{
		OccurrenceID: fmt.Sprintf("%s-%d", side, index),
		Position:     t.Position,
		URI:          t.URI,
		Name:         t.Name,
		Artists:      t.ArtistNames(),
		DurationMS:   t.DurationMS,
		Image:        t.ImageURL(),
		Presence:     presence,
	}
}

func filterPresence(tracks []models.ComparableTrack, presence models.Presence) []models.ComparableTrack {
	out := make([]models.ComparableTrack, 0, len(tracks))
	for _, t := range tracks {
		if t.Presence == presence {
			out = append(out, t)
		}
	}
	return out
}

func occurrenceURIs(tracks []models.ComparableTrack) []string {
	uris := make([]string, len(tracks))
	for i, t := range tracks {
		uris[i] = t.URI
	}
	return uris
}
