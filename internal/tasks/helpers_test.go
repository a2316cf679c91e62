package tasks

import (
	"context"
	"testing"
	"time"

	"github.com/desertthunder/plsync/internal/models"
	"github.com/desertthunder/plsync/internal/services"
	tu "github.com/desertthunder/plsync/internal/testing"
)

var testSession = Session{Key: "session-1"}

func newTestEngine(t *testing.T, opts EngineOpts) (*Engine, *tu.FakeSpotify) {
	t.Helper()
	fake := tu.NewFakeSpotify(t)
	fetcher := services.NewFetcher(
		services.StaticToken(tu.FakeToken),
		services.WithBaseURL(fake.URL()),
		services.WithSleeper(func(context.Context, time.Duration) error { return nil }),
	)
	return NewEngine(services.NewClient(fetcher, 0), opts), fake
}

func tracks(uris ...string) []models.Track {
	out := make([]models.Track, len(uris))
	for i, uri := range uris {
		out[i] = models.Track{URI: uri, Name: "Track " + uri, Position: i, Artists: []models.Artist{{Name: "Artist"}}}
	}
	return out
}

func uris(tracks []models.ComparableTrack) []string {
	out := make([]string, len(tracks))
	for i, t := range tracks {
		out[i] = t.URI
	}
	return out
}

func equal[T comparable](a, b []T) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// recorder collects audit rows in memory.
type recorder struct {
	runs []*models.SyncRun
}

func (r *recorder) Record(_ context.Context, run *models.SyncRun) error {
	r.runs = append(r.runs, run)
	return nil
}
