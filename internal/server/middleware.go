package server

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/desertthunder/plsync/internal/shared"
	"github.com/desertthunder/plsync/internal/tasks"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Cookie and header names carrying the browser session.
const (
	TokenCookie = "plsync_token"
	ScopeCookie = "plsync_scope"
	StateCookie = "plsync_state"
	ScopeHeader = "X-Spotify-Scope"
)

type sessionKey struct{}

// session is the authenticated caller of an /api request.
type session struct {
	token string
	scope string
}

func (s session) engineSession() tasks.Session {
	return tasks.Session{Key: shared.SessionKey(s.token), Scope: s.scope}
}

// sessionFromRequest reads the bearer token from the Authorization header or the token cookie,
// and the granted scopes from the scope header or cookie.
func sessionFromRequest(r *http.Request) (session, bool) {
	var sess session

	if auth := r.Header.Get("Authorization"); auth != "" {
		if token, ok := strings.CutPrefix(auth, "Bearer "); ok {
			sess.token = strings.TrimSpace(token)
		}
	}
	if sess.token == "" {
		if c, err := r.Cookie(TokenCookie); err == nil {
			sess.token = c.Value
		}
	}

	sess.scope = r.Header.Get(ScopeHeader)
	if sess.scope == "" {
		if c, err := r.Cookie(ScopeCookie); err == nil {
			sess.scope = c.Value
		}
	}

	return sess, sess.token != ""
}

func (s *Server) requireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sess, ok := sessionFromRequest(r)
		if !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, sess)))
	})
}

func sessionFrom(ctx context.Context) session {
	sess, _ := ctx.Value(sessionKey{}).(session)
	return sess
}

// requestLogger logs every request and records its duration under the matched route pattern.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		elapsed := time.Since(start)
		route := r.URL.Path
		if rctx := chi.RouteContext(r.Context()); rctx != nil && rctx.RoutePattern() != "" {
			route = rctx.RoutePattern()
		}
		s.metrics.ObserveHTTP(route, elapsed)
		s.logger.Info("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", elapsed,
		)
	})
}
