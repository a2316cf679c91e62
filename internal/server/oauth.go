package server

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"

	"github.com/desertthunder/plsync/internal/shared"
	"golang.org/x/oauth2"
)

// OAuthResult is the outcome of one authorization callback.
type OAuthResult struct {
	Token *oauth2.Token
	err   error
}

// Error reports why the callback failed, or nil.
func (o *OAuthResult) Error() error {
	return o.err
}

// OAuthHandler serves the one-shot callback of the CLI authorization code flow.
//
// Only the first request is processed; later requests get 400 and the result channel is already closed.
type OAuthHandler struct {
	auth    Authenticator
	state   string
	path    string
	results chan OAuthResult
	hit     atomic.Bool
	publish sync.Once
}

// NewOAuthHandler creates a callback handler for redirectURI. state should be random (see [shared.GenerateState]).
func NewOAuthHandler(auth Authenticator, redirectURI, state string) (*OAuthHandler, error) {
	u, err := url.Parse(redirectURI)
	if err != nil || u.Path == "" {
		return nil, fmt.Errorf("%w: redirect URI %q has no callback path", shared.ErrInvalidConfig, redirectURI)
	}
	return &OAuthHandler{
		auth:    auth,
		state:   state,
		path:    u.Path,
		results: make(chan OAuthResult, 1),
	}, nil
}

// Routes returns the callback path taken from the redirect URI.
func (h *OAuthHandler) Routes() []string {
	return []string{h.path}
}

// ServeHTTP checks the state, exchanges the code and publishes the token.
func (h *OAuthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if !h.hit.CompareAndSwap(false, true) {
		http.Error(w, "Callback already processed", http.StatusBadRequest)
		return
	}

	q := r.URL.Query()
	switch {
	case q.Get("state") != h.state:
		h.fail(w, http.StatusBadRequest, "Invalid state parameter", fmt.Errorf("state mismatch"))
		return
	case q.Get("code") == "":
		reason := fmt.Errorf("spotify returned %s: %s", q.Get("error"), q.Get("error_description"))
		h.fail(w, http.StatusBadRequest, "Authorization failed", reason)
		return
	}

	// The exchange outlives a client that hangs up after the redirect.
	token, err := h.auth.Exchange(context.WithoutCancel(r.Context()), q.Get("code"))
	if err != nil {
		h.fail(w, http.StatusInternalServerError, "Token exchange failed", fmt.Errorf("token exchange failed: %w", err))
		return
	}

	h.Send(OAuthResult{Token: token})
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, callbackPage)
}

func (h *OAuthHandler) fail(w http.ResponseWriter, status int, message string, err error) {
	h.Send(OAuthResult{err: err})
	http.Error(w, message, status)
}

// Send publishes result unless a result was already published.
func (h *OAuthHandler) Send(result OAuthResult) {
	h.publish.Do(func() {
		h.results <- result
		close(h.results)
	})
}

// Result returns the channel receiving exactly one result.
func (h *OAuthHandler) Result() <-chan OAuthResult {
	return h.results
}

const callbackPage = `<!DOCTYPE html>
<html lang="en">
<meta charset="utf-8">
<title>plsync authorized</title>
<body style="font-family: system-ui, sans-serif; text-align: center; padding-top: 20vh;">
  <h1 style="color: #1DB954;">Authorized</h1>
  <p>plsync can now read and edit your playlists. Return to the terminal; this tab can be closed.</p>
</body>
</html>
`
