package server

import (
	"net/http"
	"time"

	"github.com/desertthunder/plsync/internal/services"
	"github.com/desertthunder/plsync/internal/shared"
)

const stateCookieTTL = 10 * time.Minute

// handleLogin redirects to the Spotify authorize page with a fresh state stored in a cookie.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	if s.auth == nil {
		writeError(w, http.StatusServiceUnavailable, "spotify credentials are not configured")
		return
	}

	state, err := shared.GenerateState()
	if err != nil {
		s.writeEngineError(w, r, err, nil)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     StateCookie,
		Value:    state,
		Path:     "/auth",
		MaxAge:   int(stateCookieTTL.Seconds()),
		HttpOnly: true,
		Secure:   s.config.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	http.Redirect(w, r, s.auth.AuthURL(state), http.StatusFound)
}

// handleCallback checks the state cookie, exchanges the code and stores the token and scope cookies.
func (s *Server) handleCallback(w http.ResponseWriter, r *http.Request) {
	if s.auth == nil {
		writeError(w, http.StatusServiceUnavailable, "spotify credentials are not configured")
		return
	}

	q := r.URL.Query()
	cookie, err := r.Cookie(StateCookie)
	if err != nil || cookie.Value == "" || cookie.Value != q.Get("state") {
		writeError(w, http.StatusBadRequest, "invalid state parameter")
		return
	}

	code := q.Get("code")
	if code == "" {
		s.logger.Warn("authorization denied", "error", q.Get("error"), "description", q.Get("error_description"))
		writeError(w, http.StatusBadRequest, "authorization failed")
		return
	}

	token, err := s.auth.Exchange(r.Context(), code)
	if err != nil {
		s.logger.Error("token exchange failed", "error", err)
		writeError(w, http.StatusBadGateway, "token exchange failed")
		return
	}

	scope := services.GrantedScope(token)
	cookie = &http.Cookie{
		Name:     TokenCookie,
		Value:    token.AccessToken,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.config.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	}
	if !token.Expiry.IsZero() {
		cookie.Expires = token.Expiry
	}
	http.SetCookie(w, cookie)
	http.SetCookie(w, &http.Cookie{
		Name:     ScopeCookie,
		Value:    scope,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.config.SecureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{Name: StateCookie, Value: "", Path: "/auth", MaxAge: -1})

	writeJSON(w, http.StatusOK, map[string]any{"authenticated": true, "scope": scope})
}
