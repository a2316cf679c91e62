package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// routes builds the chi router.
//
// Everything under /api requires a session; /auth and /health do not.
func (s *Server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP, middleware.Recoverer)
	for _, mw := range s.extra {
		r.Use(mw)
	}
	r.Use(s.requestLogger)

	r.Get("/health", s.handleHealth)
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))

	r.Route("/auth", func(r chi.Router) {
		r.Get("/login", s.handleLogin)
		r.Get("/callback", s.handleCallback)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(s.requireSession)

		r.Get("/playlists", s.handleListPlaylists)
		r.Get("/compare", s.handleCompare)
		r.Post("/sync", s.handleSync)
		r.Post("/undo", s.handleUndo)
		r.Post("/playlists/{id}/remove", s.handleRemove)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	return r
}
