package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/desertthunder/plsync/internal/shared"
)

// AuthError reports a missing or unusable access token.
type AuthError struct {
	Err error
}

func (e *AuthError) Error() string {
	if e.Err == nil {
		return shared.ErrNotAuthenticated.Error()
	}
	return fmt.Sprintf("%v: %v", shared.ErrNotAuthenticated, e.Err)
}

func (e *AuthError) Unwrap() error { return e.Err }

func (e *AuthError) Is(target error) bool { return target == shared.ErrNotAuthenticated }

// APIError is a non-2xx response from the Web API.
//
// Details holds the decoded JSON error body when the response carried one, otherwise the raw text.
type APIError struct {
	Status     int
	StatusText string
	Details    any
}

func newAPIError(resp *http.Response, body []byte) *APIError {
	e := &APIError{Status: resp.StatusCode, StatusText: http.StatusText(resp.StatusCode)}
	if text := strings.TrimSpace(string(body)); text != "" {
		var details any
		if err := json.Unmarshal(body, &details); err == nil {
			e.Details = details
		} else {
			e.Details = text
		}
	}
	return e
}

func (e *APIError) Error() string {
	msg := fmt.Sprintf("%v: %d %s", shared.ErrAPIRequest, e.Status, e.StatusText)
	if detail := e.Message(); detail != "" {
		msg += ": " + detail
	}
	return msg
}

// Message extracts the human readable message from Details.
//
// Spotify wraps errors as {"error": {"status": 400, "message": "..."}}.
func (e *APIError) Message() string {
	switch d := e.Details.(type) {
	case string:
		return d
	case map[string]any:
		if inner, ok := d["error"].(map[string]any); ok {
			if msg, ok := inner["message"].(string); ok {
				return msg
			}
		}
		if msg, ok := d["error_description"].(string); ok {
			return msg
		}
		if msg, ok := d["error"].(string); ok {
			return msg
		}
	}
	return ""
}

func (e *APIError) Is(target error) bool {
	switch target {
	case shared.ErrAPIRequest:
		return true
	case shared.ErrPlaylistNotFound:
		return e.Status == http.StatusNotFound
	case shared.ErrNotAuthenticated:
		return e.Status == http.StatusUnauthorized
	}
	return false
}

// ScopeError lists the OAuth scopes a session is missing for an operation.
type ScopeError struct {
	Missing []string
}

func (e *ScopeError) Error() string {
	return fmt.Sprintf("%v: %s", shared.ErrMissingScope, strings.Join(e.Missing, ", "))
}

func (e *ScopeError) Is(target error) bool { return target == shared.ErrMissingScope }

// AsAPIError unwraps err to an [*APIError].
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	ok := errors.As(err, &apiErr)
	return apiErr, ok
}
