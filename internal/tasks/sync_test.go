package tasks

import (
	"context"
	"errors"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/desertthunder/plsync/internal/formatter"
	"github.com/desertthunder/plsync/internal/metrics"
	"github.com/desertthunder/plsync/internal/models"
	"github.com/desertthunder/plsync/internal/services"
	"github.com/desertthunder/plsync/internal/shared"
	tu "github.com/desertthunder/plsync/internal/testing"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestSync(t *testing.T) {
	ctx := context.Background()

	t.Run("copies unique tracks and undo restores the target", func(t *testing.T) {
		engine, fake := newTestEngine(t, EngineOpts{})
		fake.AddPlaylist("src", "me", "a", "b", "c")
		fake.AddPlaylist("dst", "me", "b", "c", "d")

		result, err := engine.Sync(ctx, testSession, SyncRequest{SourceID: "src", TargetID: "dst"})
		if err != nil {
			t.Fatalf("Sync() error = %v", err)
		}
		if !equal(result.AddedURIs, []string{"a"}) {
			t.Errorf("AddedURIs = %v, want [a]", result.AddedURIs)
		}
		if got := fake.URIs("dst"); !equal(got, []string{"b", "c", "d", "a"}) {
			t.Errorf("target after sync = %v", got)
		}
		if result.UndoToken != fake.Snapshot("dst") {
			t.Errorf("expected undo token %s, got %s", fake.Snapshot("dst"), result.UndoToken)
		}
		if got := fake.URIs("src"); !equal(got, []string{"a", "b", "c"}) {
			t.Errorf("source should be untouched, got %v", got)
		}

		undo, err := engine.Undo(ctx, testSession, "dst", result.UndoToken)
		if err != nil {
			t.Fatalf("Undo() error = %v", err)
		}
		if !undo.Found || !equal(undo.RemovedURIs, []string{"a"}) {
			t.Errorf("unexpected undo result: %+v", undo)
		}
		if got := fake.URIs("dst"); !equal(got, []string{"b", "c", "d"}) {
			t.Errorf("target after undo = %v", got)
		}

		again, err := engine.Undo(ctx, testSession, "dst", result.UndoToken)
		if err != nil {
			t.Fatalf("second Undo() error = %v", err)
		}
		if again.Found || len(again.RemovedURIs) != 0 {
			t.Errorf("expected second undo to find nothing, got %+v", again)
		}
	})

	t.Run("explicit URIs skip what the target holds", func(t *testing.T) {
		engine, fake := newTestEngine(t, EngineOpts{})
		fake.AddPlaylist("dst", "me", "b")

		result, err := engine.Sync(ctx, testSession, SyncRequest{TargetID: "dst", URIs: []string{"x", "b", "x"}})
		if err != nil {
			t.Fatalf("Sync() error = %v", err)
		}
		if !equal(result.AddedURIs, []string{"x", "x"}) {
			t.Errorf("AddedURIs = %v, want [x x]", result.AddedURIs)
		}
	})

	t.Run("nothing to add records no undo entry", func(t *testing.T) {
		engine, fake := newTestEngine(t, EngineOpts{})
		fake.AddPlaylist("src", "me", "a")
		fake.AddPlaylist("dst", "me", "b")
		fake.AddPlaylist("same", "me", "a")

		first, err := engine.Sync(ctx, testSession, SyncRequest{SourceID: "src", TargetID: "dst"})
		if err != nil {
			t.Fatalf("Sync() error = %v", err)
		}

		noop, err := engine.Sync(ctx, testSession, SyncRequest{SourceID: "src", TargetID: "same"})
		if err != nil {
			t.Fatalf("Sync() error = %v", err)
		}
		if noop.UndoToken != "" || len(noop.AddedURIs) != 0 {
			t.Errorf("expected empty result, got %+v", noop)
		}

		undo, err := engine.Undo(ctx, testSession, "dst", first.UndoToken)
		if err != nil {
			t.Fatalf("Undo() error = %v", err)
		}
		if !undo.Found {
			t.Error("a sync that added nothing must not replace the previous undo entry")
		}
	})

	t.Run("a session holds a single undo slot", func(t *testing.T) {
		engine, fake := newTestEngine(t, EngineOpts{})
		fake.AddPlaylist("src", "me", "a", "b")
		fake.AddPlaylist("one", "me")
		fake.AddPlaylist("two", "me")

		first, err := engine.Sync(ctx, testSession, SyncRequest{SourceID: "src", TargetID: "one"})
		if err != nil {
			t.Fatalf("Sync() error = %v", err)
		}
		second, err := engine.Sync(ctx, testSession, SyncRequest{SourceID: "src", TargetID: "two"})
		if err != nil {
			t.Fatalf("Sync() error = %v", err)
		}

		stale, err := engine.Undo(ctx, testSession, "one", first.UndoToken)
		if err != nil {
			t.Fatalf("Undo() error = %v", err)
		}
		if stale.Found {
			t.Error("expected the first entry to be overwritten")
		}

		latest, err := engine.Undo(ctx, testSession, "two", second.UndoToken)
		if err != nil {
			t.Fatalf("Undo() error = %v", err)
		}
		if !latest.Found || len(fake.URIs("two")) != 0 {
			t.Errorf("expected the second sync to be undone, got %+v / %v", latest, fake.URIs("two"))
		}
		if len(fake.URIs("one")) != 2 {
			t.Errorf("first target should keep its tracks, got %v", fake.URIs("one"))
		}
	})

	t.Run("sessions do not share undo slots", func(t *testing.T) {
		engine, fake := newTestEngine(t, EngineOpts{})
		fake.AddPlaylist("src", "me", "a")
		fake.AddPlaylist("dst", "me")

		result, err := engine.Sync(ctx, testSession, SyncRequest{SourceID: "src", TargetID: "dst"})
		if err != nil {
			t.Fatalf("Sync() error = %v", err)
		}

		other, err := engine.Undo(ctx, Session{Key: "session-2"}, "dst", result.UndoToken)
		if err != nil {
			t.Fatalf("Undo() error = %v", err)
		}
		if other.Found {
			t.Error("another session must not undo this sync")
		}
	})

	t.Run("rejects a target the user cannot edit", func(t *testing.T) {
		engine, fake := newTestEngine(t, EngineOpts{})
		fake.AddPlaylist("src", "me", "a")
		fake.AddPlaylist("theirs", "someone")

		_, err := engine.Sync(ctx, testSession, SyncRequest{SourceID: "src", TargetID: "theirs"})
		if !errors.Is(err, shared.ErrPlaylistNotEditable) {
			t.Fatalf("expected ErrPlaylistNotEditable, got %v", err)
		}
		if len(fake.Mutations()) != 0 {
			t.Error("expected no mutations")
		}

		fake.SetCollaborative("theirs")
		if _, err := engine.Sync(ctx, testSession, SyncRequest{SourceID: "src", TargetID: "theirs"}); err != nil {
			t.Errorf("collaborative target should be editable, got %v", err)
		}
	})

	t.Run("two-way requires an editable source", func(t *testing.T) {
		engine, fake := newTestEngine(t, EngineOpts{})
		fake.AddPlaylist("theirs", "someone", "a")
		fake.AddPlaylist("dst", "me", "b")

		_, err := engine.Sync(ctx, testSession, SyncRequest{SourceID: "theirs", TargetID: "dst", TwoWay: true})
		if !errors.Is(err, shared.ErrPlaylistNotEditable) {
			t.Fatalf("expected ErrPlaylistNotEditable, got %v", err)
		}
	})

	t.Run("missing scopes", func(t *testing.T) {
		engine, fake := newTestEngine(t, EngineOpts{})
		session := Session{Key: "s", Scope: "playlist-read-private"}

		_, err := engine.Sync(ctx, session, SyncRequest{SourceID: "src", TargetID: "dst"})
		if !errors.Is(err, shared.ErrMissingScope) {
			t.Fatalf("expected ErrMissingScope, got %v", err)
		}

		var scopeErr *services.ScopeError
		if !errors.As(err, &scopeErr) || len(scopeErr.Missing) != 2 {
			t.Errorf("expected both modify scopes missing, got %v", err)
		}
		if len(fake.Requests()) != 0 {
			t.Error("expected no requests before the scope check passes")
		}

		if _, err := engine.Undo(ctx, session, "dst", "tok"); !errors.Is(err, shared.ErrMissingScope) {
			t.Errorf("Undo: expected ErrMissingScope, got %v", err)
		}
	})

	t.Run("missing arguments", func(t *testing.T) {
		engine, _ := newTestEngine(t, EngineOpts{})

		tests := []struct {
			name string
			req  SyncRequest
		}{
			{name: "no target", req: SyncRequest{SourceID: "src"}},
			{name: "no source or uris", req: SyncRequest{TargetID: "dst"}},
			{name: "two-way without source", req: SyncRequest{TargetID: "dst", URIs: []string{"a"}, TwoWay: true}},
		}

		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				if _, err := engine.Sync(ctx, testSession, tc.req); !errors.Is(err, shared.ErrMissingArgument) {
					t.Errorf("expected ErrMissingArgument, got %v", err)
				}
			})
		}
	})

	t.Run("two-way copies both directions", func(t *testing.T) {
		engine, fake := newTestEngine(t, EngineOpts{})
		fake.AddPlaylist("src", "me", "a", "b")
		fake.AddPlaylist("dst", "me", "b", "c")

		result, err := engine.Sync(ctx, testSession, SyncRequest{SourceID: "src", TargetID: "dst", TwoWay: true})
		if err != nil {
			t.Fatalf("Sync() error = %v", err)
		}
		if !equal(result.AddedURIs, []string{"a"}) || !equal(result.ReverseAddedURIs, []string{"c"}) {
			t.Errorf("unexpected result: %+v", result)
		}
		if got := fake.URIs("dst"); !equal(got, []string{"b", "c", "a"}) {
			t.Errorf("target = %v", got)
		}
		if got := fake.URIs("src"); !equal(got, []string{"a", "b", "c"}) {
			t.Errorf("source = %v", got)
		}
	})

	t.Run("partial failure keeps the committed part undoable", func(t *testing.T) {
		engine, fake := newTestEngine(t, EngineOpts{BatchSize: 2})
		fake.AddPlaylist("src", "me", "a", "b", "c")
		fake.AddPlaylist("dst", "me")
		fake.FailMutations(1, 1, http.StatusBadGateway)

		result, err := engine.Sync(ctx, testSession, SyncRequest{SourceID: "src", TargetID: "dst"})
		var batchErr *BatchError
		if !errors.As(err, &batchErr) {
			t.Fatalf("expected *BatchError, got %v", err)
		}
		if result == nil || !equal(result.AddedURIs, []string{"a", "b"}) || result.UndoToken == "" {
			t.Fatalf("unexpected partial result: %+v", result)
		}

		undo, err := engine.Undo(ctx, testSession, "dst", result.UndoToken)
		if err != nil {
			t.Fatalf("Undo() error = %v", err)
		}
		if !undo.Found || len(fake.URIs("dst")) != 0 {
			t.Errorf("expected committed tracks removed, got %+v / %v", undo, fake.URIs("dst"))
		}
	})

	t.Run("reports progress", func(t *testing.T) {
		progress := make(chan ProgressUpdate, 32)
		engine, fake := newTestEngine(t, EngineOpts{Progress: progress})
		fake.AddPlaylist("src", "me", "a")
		fake.AddPlaylist("dst", "me")

		if _, err := engine.Sync(ctx, testSession, SyncRequest{SourceID: "src", TargetID: "dst"}); err != nil {
			t.Fatalf("Sync() error = %v", err)
		}
		close(progress)

		seen := make(map[Phase]bool)
		for update := range progress {
			seen[update.Phase] = true
		}
		for _, phase := range []Phase{FetchSource, FetchDest, AddBatch, RecordUndo} {
			if !seen[phase] {
				t.Errorf("expected a %s update", phase)
			}
		}
	})

	t.Run("records metrics and audit rows", func(t *testing.T) {
		reg := prometheus.NewRegistry()
		m := metrics.New(reg)
		runs := &recorder{}
		engine, fake := newTestEngine(t, EngineOpts{Metrics: m, Runs: runs})
		fake.AddPlaylist("src", "me", "a")
		fake.AddPlaylist("dst", "me")

		result, err := engine.Sync(ctx, testSession, SyncRequest{SourceID: "src", TargetID: "dst"})
		if err != nil {
			t.Fatalf("Sync() error = %v", err)
		}
		if _, err := engine.Undo(ctx, testSession, "dst", result.UndoToken); err != nil {
			t.Fatalf("Undo() error = %v", err)
		}

		if got := testutil.ToFloat64(m.Syncs.WithLabelValues("ok")); got != 1 {
			t.Errorf("expected 1 successful sync, got %v", got)
		}
		if got := testutil.ToFloat64(m.Undos.WithLabelValues("restored")); got != 1 {
			t.Errorf("expected 1 restored undo, got %v", got)
		}

		if len(runs.runs) != 2 {
			t.Fatalf("expected 2 audit rows, got %d", len(runs.runs))
		}
		if runs.runs[0].Operation != RunSync || runs.runs[1].Operation != RunUndo {
			t.Errorf("unexpected operations: %s, %s", runs.runs[0].Operation, runs.runs[1].Operation)
		}
		for _, run := range runs.runs {
			if run.Status != models.RunSucceeded || run.TracksCommitted != 1 || run.SessionKey != testSession.Key {
				t.Errorf("unexpected run: %+v", run)
			}
		}
	})
}

func TestUndo(t *testing.T) {
	ctx := context.Background()

	t.Run("mismatched playlist leaves the entry", func(t *testing.T) {
		engine, fake := newTestEngine(t, EngineOpts{})
		fake.AddPlaylist("src", "me", "a")
		fake.AddPlaylist("dst", "me")

		result, err := engine.Sync(ctx, testSession, SyncRequest{SourceID: "src", TargetID: "dst"})
		if err != nil {
			t.Fatalf("Sync() error = %v", err)
		}

		miss, err := engine.Undo(ctx, testSession, "src", result.UndoToken)
		if err != nil || miss.Found {
			t.Fatalf("expected a miss, got %+v, %v", miss, err)
		}
		wrongToken, err := engine.Undo(ctx, testSession, "dst", "other-token")
		if err != nil || wrongToken.Found {
			t.Fatalf("expected a miss, got %+v, %v", wrongToken, err)
		}

		hit, err := engine.Undo(ctx, testSession, "dst", result.UndoToken)
		if err != nil || !hit.Found {
			t.Fatalf("expected the entry to survive misses, got %+v, %v", hit, err)
		}
	})

	t.Run("failed removal can be retried", func(t *testing.T) {
		engine, fake := newTestEngine(t, EngineOpts{})
		fake.AddPlaylist("src", "me", "a")
		fake.AddPlaylist("dst", "me")

		result, err := engine.Sync(ctx, testSession, SyncRequest{SourceID: "src", TargetID: "dst"})
		if err != nil {
			t.Fatalf("Sync() error = %v", err)
		}

		fake.FailMutations(0, 1, http.StatusInternalServerError)
		if _, err := engine.Undo(ctx, testSession, "dst", result.UndoToken); !errors.Is(err, shared.ErrBatchFailed) {
			t.Fatalf("expected ErrBatchFailed, got %v", err)
		}

		retry, err := engine.Undo(ctx, testSession, "dst", result.UndoToken)
		if err != nil || !retry.Found {
			t.Fatalf("expected retry to succeed, got %+v, %v", retry, err)
		}
		if len(fake.URIs("dst")) != 0 {
			t.Errorf("target = %v", fake.URIs("dst"))
		}
	})

	t.Run("missing arguments", func(t *testing.T) {
		engine, _ := newTestEngine(t, EngineOpts{})
		if _, err := engine.Undo(ctx, testSession, "", "tok"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
		if _, err := engine.Undo(ctx, testSession, "dst", ""); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}

func TestRemoveSelected(t *testing.T) {
	ctx := context.Background()

	t.Run("removes chosen occurrences", func(t *testing.T) {
		engine, fake := newTestEngine(t, EngineOpts{})
		fake.AddPlaylist("p", "me", "a", "b", "a")

		entries := []models.TrackPosition{{URI: "a", Position: 2}}
		result, err := engine.RemoveSelected(ctx, testSession, "p", entries, fake.Snapshot("p"))
		if err != nil {
			t.Fatalf("RemoveSelected() error = %v", err)
		}
		if result.RemovedCount != 1 {
			t.Errorf("RemovedCount = %d", result.RemovedCount)
		}
		if got := fake.URIs("p"); !equal(got, []string{"a", "b"}) {
			t.Errorf("playlist = %v", got)
		}
	})

	t.Run("validates entries", func(t *testing.T) {
		engine, fake := newTestEngine(t, EngineOpts{})

		tests := []struct {
			name    string
			entries []models.TrackPosition
		}{
			{name: "empty uri", entries: []models.TrackPosition{{URI: "", Position: 0}}},
			{name: "negative position", entries: []models.TrackPosition{{URI: "a", Position: -1}}},
		}
		for _, tc := range tests {
			t.Run(tc.name, func(t *testing.T) {
				if _, err := engine.RemoveSelected(ctx, testSession, "p", tc.entries, ""); !errors.Is(err, shared.ErrInvalidInput) {
					t.Errorf("expected ErrInvalidInput, got %v", err)
				}
			})
		}
		if len(fake.Requests()) != 0 {
			t.Error("expected no requests for invalid input")
		}
	})
}

func TestCompare(t *testing.T) {
	ctx := context.Background()

	t.Run("diffs both playlists", func(t *testing.T) {
		engine, fake := newTestEngine(t, EngineOpts{})
		fake.AddPlaylist("a", "me", "x", "y")
		fake.AddPlaylist("b", "someone", "y", "z")

		cmp, err := engine.Compare(ctx, "a", "b")
		if err != nil {
			t.Fatalf("Compare() error = %v", err)
		}
		if !equal(uris(cmp.UniqueToA), []string{"x"}) || !equal(uris(cmp.UniqueToB), []string{"z"}) || !equal(uris(cmp.Common), []string{"y"}) {
			t.Errorf("unexpected diff: %v / %v / %v", uris(cmp.UniqueToA), uris(cmp.UniqueToB), uris(cmp.Common))
		}
		if !cmp.PlaylistA.IsOwned || cmp.PlaylistB.IsEditable {
			t.Errorf("unexpected ownership: %+v / %+v", cmp.PlaylistA.PlaylistSummary, cmp.PlaylistB.PlaylistSummary)
		}
	})

	t.Run("unknown playlist", func(t *testing.T) {
		engine, fake := newTestEngine(t, EngineOpts{})
		fake.AddPlaylist("a", "me")

		if _, err := engine.Compare(ctx, "a", "missing"); !errors.Is(err, shared.ErrPlaylistNotFound) {
			t.Errorf("expected ErrPlaylistNotFound, got %v", err)
		}
	})

	t.Run("requires both ids", func(t *testing.T) {
		engine, _ := newTestEngine(t, EngineOpts{})
		if _, err := engine.Compare(ctx, "a", ""); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})
}

func TestUnavailableItems(t *testing.T) {
	ctx := context.Background()

	// x, deleted, y, deleted
	withGaps := func(fake *tu.FakeSpotify) {
		fake.AddPlaylistTracks("gaps", "me",
			tu.FakeTrack{URI: "x", Name: "X"}, tu.FakeTrack{},
			tu.FakeTrack{URI: "y", Name: "Y"}, tu.FakeTrack{})
	}

	t.Run("compare reports remote positions", func(t *testing.T) {
		engine, fake := newTestEngine(t, EngineOpts{})
		withGaps(fake)
		fake.AddPlaylist("other", "me", "x")

		cmp, err := engine.Compare(ctx, "other", "gaps")
		if err != nil {
			t.Fatalf("Compare() error = %v", err)
		}
		if len(cmp.UniqueToB) != 1 || cmp.UniqueToB[0].URI != "y" || cmp.UniqueToB[0].Position != 2 {
			t.Fatalf("expected y at position 2, got %+v", cmp.UniqueToB)
		}
		if cmp.PlaylistB.ItemCount != 4 || len(cmp.PlaylistB.Tracks) != 2 {
			t.Errorf("expected 4 items and 2 tracks, got %d and %d", cmp.PlaylistB.ItemCount, len(cmp.PlaylistB.Tracks))
		}

		y := cmp.UniqueToB[0]
		entries := []models.TrackPosition{{URI: y.URI, Position: y.Position}}
		if _, err := engine.RemoveSelected(ctx, testSession, "gaps", entries, cmp.PlaylistB.SnapshotID); err != nil {
			t.Fatalf("RemoveSelected() error = %v", err)
		}
		if got := fake.URIs("gaps"); !equal(got, []string{"x", "", ""}) {
			t.Errorf("playlist after remove = %q", got)
		}
	})

	t.Run("sync appends after trailing placeholders and undo removes it", func(t *testing.T) {
		engine, fake := newTestEngine(t, EngineOpts{})
		withGaps(fake)
		fake.AddPlaylist("src", "me", "x", "z")

		result, err := engine.Sync(ctx, testSession, SyncRequest{SourceID: "src", TargetID: "gaps"})
		if err != nil {
			t.Fatalf("Sync() error = %v", err)
		}
		if got := fake.URIs("gaps"); !equal(got, []string{"x", "", "y", "", "z"}) {
			t.Errorf("playlist after sync = %q", got)
		}

		undo, err := engine.Undo(ctx, testSession, "gaps", result.UndoToken)
		if err != nil {
			t.Fatalf("Undo() error = %v", err)
		}
		if !undo.Found || !equal(undo.RemovedURIs, []string{"z"}) {
			t.Errorf("unexpected undo result %+v", undo)
		}
		if got := fake.URIs("gaps"); !equal(got, []string{"x", "", "y", ""}) {
			t.Errorf("playlist after undo = %q", got)
		}
	})
}

func TestListPlaylists(t *testing.T) {
	engine, fake := newTestEngine(t, EngineOpts{})
	fake.AddPlaylist("a", "me", "x")
	fake.AddPlaylist("b", "someone")

	list, err := engine.ListPlaylists(context.Background())
	if err != nil {
		t.Fatalf("ListPlaylists() error = %v", err)
	}
	if list.Total != 2 || !list.Playlists[0].IsOwned || list.Playlists[1].IsOwned {
		t.Errorf("unexpected list: %+v", list)
	}
}

func TestBulkCompare(t *testing.T) {
	ctx := context.Background()

	t.Run("writes one export per playlist and a manifest", func(t *testing.T) {
		engine, fake := newTestEngine(t, EngineOpts{})
		fake.AddPlaylist("base", "me", "a", "b")
		fake.AddPlaylist("one", "me", "b", "c")
		fake.AddPlaylist("two", "someone", "a")

		dir := t.TempDir()
		result, err := engine.BulkCompare(ctx, "base", []string{"one", "two", "missing"}, BulkCompareOpts{
			Format:    formatter.FormatCSV,
			OutputDir: dir,
			RateLimit: 1000,
		})
		if err != nil {
			t.Fatalf("BulkCompare() error = %v", err)
		}

		if result.Total != 3 || result.Successful != 2 || result.Failed != 1 {
			t.Errorf("unexpected counts: %+v", result)
		}
		for _, res := range result.Results {
			if !res.Success {
				if res.PlaylistID != "missing" || res.ErrorMessage == "" {
					t.Errorf("unexpected failure: %+v", res)
				}
				continue
			}
			if len(res.Files) != 1 {
				t.Errorf("expected one file for %s, got %v", res.PlaylistID, res.Files)
			}
			if res.PlaylistID == "one" && (res.UniqueToA != 1 || res.UniqueToB != 1 || res.Common != 1) {
				t.Errorf("unexpected counts for one: %+v", res)
			}
		}

		if _, err := os.Stat(filepath.Join(dir, "base_vs_one.csv")); err != nil {
			t.Errorf("expected comparison file: %v", err)
		}
		if result.ManifestPath != filepath.Join(dir, "compare_manifest.json") {
			t.Errorf("unexpected manifest path %s", result.ManifestPath)
		}
		if _, err := os.Stat(result.ManifestPath); err != nil {
			t.Errorf("expected manifest: %v", err)
		}
	})

	t.Run("validates input", func(t *testing.T) {
		engine, _ := newTestEngine(t, EngineOpts{})

		if _, err := engine.BulkCompare(ctx, "base", nil, BulkCompareOpts{}); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
		if _, err := engine.BulkCompare(ctx, "base", []string{"x"}, BulkCompareOpts{Format: "xml"}); !errors.Is(err, shared.ErrInvalidArgument) {
			t.Errorf("expected ErrInvalidArgument, got %v", err)
		}
	})
}
