package server

import (
	"cmp"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/desertthunder/plsync/internal/services"
	"github.com/desertthunder/plsync/internal/shared"
	"github.com/desertthunder/plsync/internal/tasks"
)

// errorBody is the JSON shape of every error response.
type errorBody struct {
	Error         string                 `json:"error"`
	MissingScopes []string               `json:"missingScopes,omitempty"`
	Details       any                    `json:"details,omitempty"`
	Committed     []tasks.CommittedBatch `json:"committed,omitempty"`
	FailedBatch   *int                   `json:"failedBatch,omitempty"`
	Partial       any                    `json:"partial,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// statusFor maps an engine error to an HTTP status and response body.
//
// partial is the result of an operation that failed midway; it is echoed back next to the committed batches.
func statusFor(err error, partial any) (int, errorBody) {
	var (
		batchErr *tasks.BatchError
		scopeErr *services.ScopeError
	)

	switch {
	case errors.As(err, &batchErr):
		failed := batchErr.Failed
		body := errorBody{
			Error:       err.Error(),
			Committed:   batchErr.Committed,
			FailedBatch: &failed,
			Partial:     partial,
		}
		if apiErr, ok := services.AsAPIError(err); ok {
			body.Details = apiErr.Details
		}
		return http.StatusBadGateway, body

	case errors.As(err, &scopeErr):
		return http.StatusForbidden, errorBody{
			Error:         "re-authorize to grant the required scopes",
			MissingScopes: scopeErr.Missing,
		}

	case errors.Is(err, shared.ErrNotAuthenticated):
		return http.StatusUnauthorized, errorBody{Error: "unauthorized"}

	case errors.Is(err, shared.ErrMissingArgument),
		errors.Is(err, shared.ErrInvalidInput),
		errors.Is(err, shared.ErrInvalidArgument):
		return http.StatusBadRequest, errorBody{Error: err.Error()}

	case errors.Is(err, shared.ErrPlaylistNotEditable):
		return http.StatusForbidden, errorBody{Error: err.Error()}

	case errors.Is(err, shared.ErrPaginationLimit):
		return http.StatusBadGateway, errorBody{Error: err.Error()}
	}

	if apiErr, ok := services.AsAPIError(err); ok {
		status := apiErr.Status
		if status == http.StatusTooManyRequests || status >= 500 || status < 400 {
			status = http.StatusBadGateway
		}
		msg := cmp.Or(apiErr.Message(), apiErr.StatusText, http.StatusText(apiErr.Status), "upstream request failed")
		return status, errorBody{Error: msg, Details: apiErr.Details}
	}

	return http.StatusInternalServerError, errorBody{Error: "internal server error"}
}

func (s *Server) writeEngineError(w http.ResponseWriter, r *http.Request, err error, partial any) {
	status, body := statusFor(err, partial)
	if status >= 500 {
		s.logger.Error("request failed", "path", r.URL.Path, "status", status, "error", err)
	} else {
		s.logger.Debug("request rejected", "path", r.URL.Path, "status", status, "error", err)
	}
	writeJSON(w, status, body)
}
