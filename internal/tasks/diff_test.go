package tasks

import (
	"testing"

	"github.com/desertthunder/plsync/internal/models"
)

func TestDiff(t *testing.T) {
	t.Run("classifies by URI", func(t *testing.T) {
		d := Diff(tracks("a", "b", "c"), tracks("b", "c", "d"))

		if got := uris(d.UniqueToA); !equal(got, []string{"a"}) {
			t.Errorf("UniqueToA = %v, want [a]", got)
		}
		if got := uris(d.UniqueToB); !equal(got, []string{"d"}) {
			t.Errorf("UniqueToB = %v, want [d]", got)
		}
		if got := uris(d.Common); !equal(got, []string{"b", "c"}) {
			t.Errorf("Common = %v, want [b c]", got)
		}
	})

	t.Run("respects multiplicity", func(t *testing.T) {
		d := Diff(tracks("x", "x"), tracks("x"))

		if d.TracksA[0].Presence != models.Common || d.TracksA[1].Presence != models.UniqueToA {
			t.Errorf("unexpected A presences: %v, %v", d.TracksA[0].Presence, d.TracksA[1].Presence)
		}
		if d.TracksB[0].Presence != models.Common {
			t.Errorf("expected B occurrence to be common, got %v", d.TracksB[0].Presence)
		}
		if len(d.UniqueToA) != 1 || d.UniqueToA[0].OccurrenceID != "a-1" {
			t.Errorf("expected second A occurrence to be unique, got %+v", d.UniqueToA)
		}
		if len(d.UniqueToB) != 0 {
			t.Errorf("expected nothing unique to B, got %v", uris(d.UniqueToB))
		}
	})

	t.Run("B consumes matches in its own order", func(t *testing.T) {
		d := Diff(tracks("x"), tracks("y", "x", "x"))

		want := []models.Presence{models.UniqueToB, models.Common, models.UniqueToB}
		for i, tr := range d.TracksB {
			if tr.Presence != want[i] {
				t.Errorf("TracksB[%d].Presence = %v, want %v", i, tr.Presence, want[i])
			}
		}
	})

	t.Run("is symmetric", func(t *testing.T) {
		a := tracks("a", "b", "b", "c")
		b := tracks("b", "d", "a", "d")

		ab := Diff(a, b)
		ba := Diff(b, a)

		if !equal(uris(ab.UniqueToA), uris(ba.UniqueToB)) {
			t.Errorf("UniqueToA(a,b) = %v, UniqueToB(b,a) = %v", uris(ab.UniqueToA), uris(ba.UniqueToB))
		}
		if !equal(uris(ab.UniqueToB), uris(ba.UniqueToA)) {
			t.Errorf("UniqueToB(a,b) = %v, UniqueToA(b,a) = %v", uris(ab.UniqueToB), uris(ba.UniqueToA))
		}
		if len(ab.Common) != len(ba.Common) {
			t.Errorf("common counts differ: %d vs %d", len(ab.Common), len(ba.Common))
		}
	})

	t.Run("is idempotent", func(t *testing.T) {
		a := tracks("a", "b", "a")
		b := tracks("a", "c")

		first := Diff(a, b)
		second := Diff(a, b)
		for i := range first.TracksA {
			if first.TracksA[i].OccurrenceID != second.TracksA[i].OccurrenceID || first.TracksA[i].Presence != second.TracksA[i].Presence {
				t.Errorf("TracksA[%d] differs between runs", i)
			}
		}
		if !equal(uris(first.UniqueToA), uris(second.UniqueToA)) {
			t.Errorf("UniqueToA differs between runs")
		}
	})

	t.Run("identical playlists have nothing unique", func(t *testing.T) {
		d := Diff(tracks("a", "b", "a"), tracks("a", "b", "a"))
		if len(d.UniqueToA) != 0 || len(d.UniqueToB) != 0 || len(d.Common) != 3 {
			t.Errorf("unexpected sets: %d / %d / %d", len(d.UniqueToA), len(d.UniqueToB), len(d.Common))
		}
	})

	t.Run("empty inputs", func(t *testing.T) {
		tests := []struct {
			name       string
			a, b       []models.Track
			onlyA      int
			onlyB      int
			common     int
			tracksSize int
		}{
			{name: "both empty"},
			{name: "A empty", b: tracks("a", "b"), onlyB: 2},
			{name: "B empty", a: tracks("a", "b"), onlyA: 2, tracksSize: 2},
		}

		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				d := Diff(tc.a, tc.b)
				if len(d.UniqueToA) != tc.onlyA || len(d.UniqueToB) != tc.onlyB || len(d.Common) != tc.common {
					t.Errorf("got %d / %d / %d", len(d.UniqueToA), len(d.UniqueToB), len(d.Common))
				}
				if len(d.TracksA) != tc.tracksSize {
					t.Errorf("expected %d A tracks, got %d", tc.tracksSize, len(d.TracksA))
				}
				if d.UniqueToA == nil || d.UniqueToB == nil || d.Common == nil {
					t.Error("expected non-nil result slices")
				}
			})
		}
	})

	t.Run("positions follow the remote index", func(t *testing.T) {
		b := tracks("x", "y")
		b[1].Position = 2

		d := Diff(tracks("x"), b)
		if len(d.UniqueToB) != 1 || d.UniqueToB[0].Position != 2 || d.UniqueToB[0].OccurrenceID != "b-1" {
			t.Errorf("expected y at position 2 with occurrence b-1, got %+v", d.UniqueToB)
		}
	})

	t.Run("occurrence ids and positions", func(t *testing.T) {
		d := Diff(tracks("a", "b"), tracks("c"))

		for i, tr := range d.TracksA {
			if tr.Position != i {
				t.Errorf("TracksA[%d].Position = %d", i, tr.Position)
			}
		}
		if d.TracksA[1].OccurrenceID != "a-1" || d.TracksB[0].OccurrenceID != "b-0" {
			t.Errorf("unexpected occurrence ids: %s, %s", d.TracksA[1].OccurrenceID, d.TracksB[0].OccurrenceID)
		}
		if d.TracksA[0].Artists[0] != "Artist" || d.TracksA[0].Name != "Track a" {
			t.Errorf("unexpected projection: %+v", d.TracksA[0])
		}
	})
}

func TestComparison(t *testing.T) {
	a := &models.PlaylistWithTracks{PlaylistSummary: models.PlaylistSummary{ID: "a", Name: "A"}, Tracks: tracks("x", "y")}
	b := &models.PlaylistWithTracks{PlaylistSummary: models.PlaylistSummary{ID: "b", Name: "B"}, Tracks: tracks("y")}

	cmp := Comparison(a, b)
	if cmp.PlaylistA.ID != "a" || cmp.PlaylistB.ID != "b" {
		t.Errorf("playlists not carried over: %s, %s", cmp.PlaylistA.ID, cmp.PlaylistB.ID)
	}
	if len(cmp.TracksA) != 2 || len(cmp.TracksB) != 1 {
		t.Errorf("unexpected track counts %d / %d", len(cmp.TracksA), len(cmp.TracksB))
	}
	if !equal(uris(cmp.UniqueToA), []string{"x"}) || !equal(uris(cmp.Common), []string{"y"}) {
		t.Errorf("unexpected diff sets: %v / %v", uris(cmp.UniqueToA), uris(cmp.Common))
	}
}
