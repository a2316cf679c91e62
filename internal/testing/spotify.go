package testing

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
)

// FakeToken is the bearer token [FakeSpotify] accepts.
const FakeToken = "test-token"

// maxItemsPerRequest mirrors the Web API's ceiling for a single add or remove call.
const maxItemsPerRequest = 100

// FakeTrack is a playlist entry. A zero URI stands for a deleted track and is served as {"track": null}.
type FakeTrack struct {
	URI        string
	Name       string
	Artist     string
	DurationMS int
}

// FakePlaylist is the remote state of one playlist.
type FakePlaylist struct {
	ID            string
	Name          string
	OwnerID       string
	Collaborative bool
	Tracks        []FakeTrack
	version       int
}

func (p *FakePlaylist) snapshot() string {
	return fmt.Sprintf("%s-snap-%d", p.ID, p.version)
}

// Request is one request received by [FakeSpotify].
type Request struct {
	Method string
	Path   string
	Query  string
	Body   []byte
}

// FakeSpotify is an httptest server speaking the subset of the Web API used by the sync engine:
// /me, /me/playlists, /playlists/{id}, track pages, and add/remove by position with snapshot ids.
type FakeSpotify struct {
	Server   *httptest.Server
	UserID   string
	PageSize int

	mu            sync.Mutex
	playlists     map[string]*FakePlaylist
	order         []string
	requests      []Request
	rateLimits    []string
	mutations     int
	failMutation  int
	failStatus    int
	failRemaining int
}

// NewFakeSpotify starts a fake API that is closed when the test ends.
func NewFakeSpotify(t *testing.T) *FakeSpotify {
	t.Helper()
	f := &FakeSpotify{
		UserID:    "me",
		PageSize:  100,
		playlists: make(map[string]*FakePlaylist),
	}

	r := chi.NewRouter()
	r.Use(f.record, f.authorize, f.throttle)
	r.Get("/me", f.handleMe)
	r.Get("/me/playlists", f.handleListPlaylists)
	r.Get("/playlists/{id}", f.handlePlaylist)
	r.Get("/playlists/{id}/tracks", f.handleTracks)
	r.Post("/playlists/{id}/tracks", f.handleAdd)
	r.Delete("/playlists/{id}/tracks", f.handleRemove)

	f.Server = httptest.NewServer(r)
	t.Cleanup(f.Server.Close)
	return f
}

// URL is the API base URL of the fake.
func (f *FakeSpotify) URL() string { return f.Server.URL }

// AddPlaylist registers a playlist whose tracks are named after their URIs.
func (f *FakeSpotify) AddPlaylist(id, ownerID string, uris ...string) *FakePlaylist {
	tracks := make([]FakeTrack, 0, len(uris))
	for _, uri := range uris {
		tracks = append(tracks, FakeTrack{URI: uri, Name: "Track " + uri, Artist: "Artist", DurationMS: 180000})
	}
	return f.AddPlaylistTracks(id, ownerID, tracks...)
}

// AddPlaylistTracks registers a playlist with explicit track entries.
func (f *FakeSpotify) AddPlaylistTracks(id, ownerID string, tracks ...FakeTrack) *FakePlaylist {
	f.mu.Lock()
	defer f.mu.Unlock()

	p := &FakePlaylist{ID: id, Name: "Playlist " + id, OwnerID: ownerID, Tracks: tracks}
	if _, ok := f.playlists[id]; !ok {
		f.order = append(f.order, id)
	}
	f.playlists[id] = p
	return p
}

// SetCollaborative marks a playlist collaborative.
func (f *FakeSpotify) SetCollaborative(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.playlists[id].Collaborative = true
}

// URIs returns the current track URIs of a playlist in order.
func (f *FakeSpotify) URIs(id string) []string {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.playlists[id]
	if !ok {
		return nil
	}
	uris := make([]string, 0, len(p.Tracks))
	for _, tr := range p.Tracks {
		uris = append(uris, tr.URI)
	}
	return uris
}

// Snapshot returns the current snapshot id of a playlist.
func (f *FakeSpotify) Snapshot(id string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.playlists[id].snapshot()
}

// RateLimit answers the next len(retryAfter) requests with 429 and the given Retry-After values.
// An empty value omits the header.
func (f *FakeSpotify) RateLimit(retryAfter ...string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rateLimits = append(f.rateLimits, retryAfter...)
}

// FailMutations lets after mutations succeed, then answers the next count mutations with status.
func (f *FakeSpotify) FailMutations(after, count, status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failMutation = f.mutations + after
	f.failRemaining = count
	f.failStatus = status
}

// Requests returns every request received so far.
func (f *FakeSpotify) Requests() []Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Request(nil), f.requests...)
}

// Mutations returns the add and remove requests received so far.
func (f *FakeSpotify) Mutations() []Request {
	var out []Request
	for _, r := range f.Requests() {
		if r.Method == http.MethodPost || r.Method == http.MethodDelete {
			out = append(out, r)
		}
	}
	return out
}

func (f *FakeSpotify) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body.Close()
		r.Body = io.NopCloser(bytes.NewReader(body))

		f.mu.Lock()
		f.requests = append(f.requests, Request{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery, Body: body})
		f.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

func (f *FakeSpotify) authorize(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer "+FakeToken {
			writeError(w, http.StatusUnauthorized, "Invalid access token")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *FakeSpotify) throttle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		limited := len(f.rateLimits) > 0
		var retryAfter string
		if limited {
			retryAfter, f.rateLimits = f.rateLimits[0], f.rateLimits[1:]
		}
		f.mu.Unlock()

		if limited {
			if retryAfter != "" {
				w.Header().Set("Retry-After", retryAfter)
			}
			writeError(w, http.StatusTooManyRequests, "API rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (f *FakeSpotify) handleMe(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"id": f.UserID, "display_name": "Test User"})
}

func (f *FakeSpotify) handleListPlaylists(w http.ResponseWriter, r *http.Request) {
	offset, limit := pageParams(r, 50)

	f.mu.Lock()
	defer f.mu.Unlock()

	limit = min(limit, f.PageSize)
	items := []any{}
	for i := offset; i < len(f.order) && i < offset+limit; i++ {
		items = append(items, f.playlistJSON(f.playlists[f.order[i]], false))
	}
	writeJSON(w, http.StatusOK, f.pageJSON(items, "/me/playlists", offset, limit, len(f.order)))
}

func (f *FakeSpotify) handlePlaylist(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.playlists[chi.URLParam(r, "id")]
	if !ok {
		writeError(w, http.StatusNotFound, "Not found.")
		return
	}
	writeJSON(w, http.StatusOK, f.playlistJSON(p, true))
}

func (f *FakeSpotify) handleTracks(w http.ResponseWriter, r *http.Request) {
	offset, limit := pageParams(r, f.PageSize)

	f.mu.Lock()
	defer f.mu.Unlock()

	p, ok := f.playlists[chi.URLParam(r, "id")]
	if !ok {
		writeError(w, http.StatusNotFound, "Not found.")
		return
	}
	writeJSON(w, http.StatusOK, f.tracksPage(p, offset, limit))
}

func (f *FakeSpotify) handleAdd(w http.ResponseWriter, r *http.Request) {
	var req struct {
		URIs     []string `json:"uris"`
		Position *int     `json:"position"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Error parsing JSON.")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.shouldFail() {
		writeError(w, f.failStatus, "Service unavailable")
		return
	}

	p, ok := f.playlists[chi.URLParam(r, "id")]
	if !ok {
		writeError(w, http.StatusNotFound, "Not found.")
		return
	}
	if len(req.URIs) == 0 || len(req.URIs) > maxItemsPerRequest {
		writeError(w, http.StatusBadRequest, "You can add a maximum of 100 tracks per request.")
		return
	}

	pos := len(p.Tracks)
	if req.Position != nil {
		if *req.Position < 0 || *req.Position > len(p.Tracks) {
			writeError(w, http.StatusBadRequest, "Index out of bounds.")
			return
		}
		pos = *req.Position
	}

	added := make([]FakeTrack, 0, len(req.URIs))
	for _, uri := range req.URIs {
		added = append(added, FakeTrack{URI: uri, Name: "Track " + uri, Artist: "Artist", DurationMS: 180000})
	}
	tracks := append([]FakeTrack(nil), p.Tracks[:pos]...)
	tracks = append(tracks, added...)
	p.Tracks = append(tracks, p.Tracks[pos:]...)
	p.version++

	writeJSON(w, http.StatusCreated, map[string]string{"snapshot_id": p.snapshot()})
}

func (f *FakeSpotify) handleRemove(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Tracks []struct {
			URI       string `json:"uri"`
			Positions []int  `json:"positions"`
		} `json:"tracks"`
		SnapshotID string `json:"snapshot_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Error parsing JSON.")
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.shouldFail() {
		writeError(w, f.failStatus, "Service unavailable")
		return
	}

	p, ok := f.playlists[chi.URLParam(r, "id")]
	if !ok {
		writeError(w, http.StatusNotFound, "Not found.")
		return
	}
	if req.SnapshotID != "" && req.SnapshotID != p.snapshot() {
		writeError(w, http.StatusBadRequest, "Invalid snapshot id.")
		return
	}

	remove := make(map[int]bool)
	count := 0
	for _, item := range req.Tracks {
		for _, pos := range item.Positions {
			count++
			if pos < 0 || pos >= len(p.Tracks) || p.Tracks[pos].URI != item.URI {
				writeError(w, http.StatusBadRequest, fmt.Sprintf("Could not remove %s at position %d.", item.URI, pos))
				return
			}
			remove[pos] = true
		}
	}
	if count == 0 || count > maxItemsPerRequest {
		writeError(w, http.StatusBadRequest, "You can remove a maximum of 100 tracks per request.")
		return
	}

	kept := make([]FakeTrack, 0, len(p.Tracks)-len(remove))
	for i, tr := range p.Tracks {
		if !remove[i] {
			kept = append(kept, tr)
		}
	}
	p.Tracks = kept
	p.version++

	writeJSON(w, http.StatusOK, map[string]string{"snapshot_id": p.snapshot()})
}

// shouldFail must be called with f.mu held.
func (f *FakeSpotify) shouldFail() bool {
	f.mutations++
	if f.failRemaining > 0 && f.mutations > f.failMutation {
		f.failRemaining--
		return true
	}
	return false
}

func (f *FakeSpotify) playlistJSON(p *FakePlaylist, withTracks bool) map[string]any {
	out := map[string]any{
		"id":            p.ID,
		"name":          p.Name,
		"description":   "",
		"collaborative": p.Collaborative,
		"public":        false,
		"snapshot_id":   p.snapshot(),
		"images":        []any{map[string]any{"url": "https://img.example/" + p.ID, "width": 640, "height": 640}},
		"owner":         map[string]any{"id": p.OwnerID, "display_name": p.OwnerID},
		"external_urls": map[string]string{"spotify": "https://open.spotify.com/playlist/" + p.ID},
		"tracks":        map[string]any{"total": len(p.Tracks)},
	}
	if withTracks {
		out["tracks"] = f.tracksPage(p, 0, f.PageSize)
	}
	return out
}

func (f *FakeSpotify) tracksPage(p *FakePlaylist, offset, limit int) map[string]any {
	items := []any{}
	for i := offset; i < len(p.Tracks) && i < offset+limit; i++ {
		tr := p.Tracks[i]
		if tr.URI == "" {
			items = append(items, map[string]any{"added_at": "2024-01-01T00:00:00Z", "track": nil})
			continue
		}
		items = append(items, map[string]any{
			"added_at": "2024-01-01T00:00:00Z",
			"is_local": false,
			"track": map[string]any{
				"id":          tr.URI,
				"uri":         tr.URI,
				"name":        tr.Name,
				"duration_ms": tr.DurationMS,
				"artists":     []any{map[string]any{"id": "artist-1", "name": tr.Artist}},
				"album": map[string]any{
					"id":     "album-1",
					"name":   "Album",
					"images": []any{map[string]any{"url": "https://img.example/album", "width": 300, "height": 300}},
				},
			},
		})
	}
	return f.pageJSON(items, "/playlists/"+p.ID+"/tracks", offset, limit, len(p.Tracks))
}

func (f *FakeSpotify) pageJSON(items []any, path string, offset, limit, total int) map[string]any {
	var next any
	if offset+limit < total {
		next = fmt.Sprintf("%s%s?offset=%d&limit=%d", f.Server.URL, path, offset+limit, limit)
	}
	return map[string]any{
		"items":  items,
		"next":   next,
		"total":  total,
		"limit":  limit,
		"offset": offset,
	}
}

func pageParams(r *http.Request, defaultLimit int) (offset, limit int) {
	offset, _ = strconv.Atoi(r.URL.Query().Get("offset"))
	limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
	if err != nil || limit <= 0 {
		limit = defaultLimit
	}
	return max(offset, 0), limit
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]any{"error": map[string]any{"status": status, "message": message}})
}
