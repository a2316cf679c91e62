package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/desertthunder/plsync/internal/models"
	"github.com/desertthunder/plsync/internal/shared"
	"github.com/desertthunder/plsync/internal/tasks"
	"github.com/go-chi/chi/v5"
)

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 1 << 20

const undoNotFoundMessage = "no undoable sync found"

type syncResponse struct {
	AddedURIs        []string `json:"addedUris"`
	UndoToken        *string  `json:"undoToken"`
	ReverseAddedURIs []string `json:"reverseAddedUris"`
}

func newSyncResponse(result *tasks.SyncResult) *syncResponse {
	if result == nil {
		return nil
	}
	resp := &syncResponse{AddedURIs: result.AddedURIs, ReverseAddedURIs: result.ReverseAddedURIs}
	if result.UndoToken != "" {
		token := result.UndoToken
		resp.UndoToken = &token
	}
	return resp
}

type undoRequest struct {
	PlaylistID string `json:"playlistId"`
	UndoToken  string `json:"undoToken"`
}

type undoResponse struct {
	RemovedURIs []string `json:"removedUris"`
	Found       bool     `json:"found"`
	SnapshotID  string   `json:"snapshotId,omitempty"`
	Message     string   `json:"message,omitempty"`
}

type removeRequest struct {
	Entries    []models.TrackPosition `json:"entries"`
	SnapshotID string                 `json:"snapshotId,omitempty"`
}

type removeResponse struct {
	RemovedCount int      `json:"removedCount"`
	RemovedURIs  []string `json:"removedUris"`
	SnapshotID   string   `json:"snapshotId,omitempty"`
}

// engine builds a per-request engine over the caller's token.
func (s *Server) engine(sess session) *tasks.Engine {
	return tasks.NewEngine(s.newAPI(sess.token), tasks.EngineOpts{
		Undo:    s.undo,
		Runs:    s.runs,
		Logger:  s.logger,
		Metrics: s.metrics,
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListPlaylists(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	list, err := s.engine(sess).ListPlaylists(r.Context())
	if err != nil {
		s.writeEngineError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

func (s *Server) handleCompare(w http.ResponseWriter, r *http.Request) {
	sess := sessionFrom(r.Context())
	q := r.URL.Query()
	cmp, err := s.engine(sess).Compare(r.Context(), q.Get("a"), q.Get("b"))
	if err != nil {
		s.writeEngineError(w, r, err, nil)
		return
	}
	writeJSON(w, http.StatusOK, cmp)
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	var req tasks.SyncRequest
	if !s.decode(w, r, &req) {
		return
	}

	sess := sessionFrom(r.Context())
	result, err := s.engine(sess).Sync(r.Context(), sess.engineSession(), req)
	if err != nil {
		s.writeEngineError(w, r, err, partial(newSyncResponse(result)))
		return
	}
	writeJSON(w, http.StatusOK, newSyncResponse(result))
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	var req undoRequest
	if !s.decode(w, r, &req) {
		return
	}

	sess := sessionFrom(r.Context())
	result, err := s.engine(sess).Undo(r.Context(), sess.engineSession(), req.PlaylistID, req.UndoToken)
	if err != nil {
		s.writeEngineError(w, r, err, partial(result))
		return
	}

	resp := undoResponse{RemovedURIs: result.RemovedURIs, Found: result.Found, SnapshotID: result.SnapshotID}
	if !result.Found {
		resp.Message = undoNotFoundMessage
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleRemove(w http.ResponseWriter, r *http.Request) {
	var req removeRequest
	if !s.decode(w, r, &req) {
		return
	}

	sess := sessionFrom(r.Context())
	playlistID := chi.URLParam(r, "id")
	result, err := s.engine(sess).RemoveSelected(r.Context(), sess.engineSession(), playlistID, req.Entries, req.SnapshotID)
	if err != nil {
		s.writeEngineError(w, r, err, partial(result))
		return
	}
	writeJSON(w, http.StatusOK, removeResponse{
		RemovedCount: result.RemovedCount,
		RemovedURIs:  result.RemovedURIs,
		SnapshotID:   result.SnapshotID,
	})
}

// partial returns p as an interface, or an untyped nil so error bodies omit the field.
func partial[T any](p *T) any {
	if p == nil {
		return nil
	}
	return p
}

// decode reads a JSON body into v and writes a 400 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		s.writeEngineError(w, r, fmt.Errorf("%w: malformed JSON body: %v", shared.ErrInvalidInput, err), nil)
		return false
	}
	return true
}
