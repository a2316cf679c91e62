// package server exposes the sync engine over HTTP and handles the OAuth callback flows
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/plsync/internal/metrics"
	"github.com/desertthunder/plsync/internal/repositories"
	"github.com/desertthunder/plsync/internal/services"
	"github.com/desertthunder/plsync/internal/shared"
	"github.com/desertthunder/plsync/internal/tasks"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/oauth2"
)

// Middleware wraps an http.Handler and returns a new http.Handler with additional behavior.
type Middleware func(http.Handler) http.Handler

// Handler is an http.Handler that knows the path patterns it serves.
type Handler interface {
	http.Handler      // ServeHTTP handles the HTTP request and writes the response
	Routes() []string // Routes returns the path patterns this handler serves
}

// Authenticator builds authorize URLs and exchanges codes. [*spotifyauth.Authenticator] implements it.
type Authenticator interface {
	AuthURL(state string, opts ...oauth2.AuthCodeOption) string
	Exchange(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error)
}

// APIFactory returns the playlist API for one access token.
type APIFactory func(accessToken string) tasks.PlaylistAPI

// Options configures a [Server]. Undo is required; the rest fall back to defaults.
type Options struct {
	Config   shared.ServerConfig
	API      shared.APIConfig
	Auth     Authenticator
	Undo     repositories.UndoStore
	Runs     tasks.RunRecorder
	NewAPI   APIFactory
	Logger   *log.Logger
	Metrics  *metrics.Metrics
	Gatherer prometheus.Gatherer

	// Middleware runs before the built-in request logger, in order.
	Middleware []Middleware
}

// Server serves the JSON API, the OAuth endpoints, health and metrics.
type Server struct {
	config   shared.ServerConfig
	auth     Authenticator
	undo     repositories.UndoStore
	runs     tasks.RunRecorder
	newAPI   APIFactory
	logger   *log.Logger
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
	extra    []Middleware
	handler  http.Handler
}

// New creates a Server and builds its routes.
func New(opts Options) (*Server, error) {
	if opts.Undo == nil {
		return nil, fmt.Errorf("%w: undo store is required", shared.ErrInvalidConfig)
	}

	s := &Server{
		config:   opts.Config,
		auth:     opts.Auth,
		undo:     opts.Undo,
		runs:     opts.Runs,
		newAPI:   opts.NewAPI,
		logger:   opts.Logger,
		metrics:  opts.Metrics,
		gatherer: opts.Gatherer,
		extra:    opts.Middleware,
	}
	if s.logger == nil {
		s.logger = log.New(io.Discard)
	}
	if s.gatherer == nil {
		s.gatherer = prometheus.DefaultGatherer
	}
	if s.newAPI == nil {
		s.newAPI = SpotifyAPIFactory(opts.API, s.metrics, s.logger)
	}

	s.handler = s.routes()
	return s, nil
}

// SpotifyAPIFactory returns an [APIFactory] backed by the Web API client.
func SpotifyAPIFactory(api shared.APIConfig, m *metrics.Metrics, logger *log.Logger) APIFactory {
	return func(accessToken string) tasks.PlaylistAPI {
		fetcher := services.NewSpotifyFetcher(
			services.StaticToken(accessToken),
			api,
			services.WithMetrics(m),
			services.WithFetcherLogger(logger),
		)
		return services.NewClient(fetcher, api.MaxPages)
	}
}

// ServeHTTP implements [http.Handler] for the entire server.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// ListenAndServe serves on the configured address until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.config.Addr(),
		Handler:      s.handler,
		ReadTimeout:  seconds(s.config.ReadTimeoutSeconds, 15),
		WriteTimeout: seconds(s.config.WriteTimeoutSeconds, 120),
	}

	errs := make(chan error, 1)
	go func() {
		s.logger.Info("server listening", "addr", srv.Addr)
		errs <- srv.ListenAndServe()
	}()

	select {
	case err := <-errs:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to shut down server: %w", err)
	}
	return nil
}

func seconds(n, fallback int) time.Duration {
	if n <= 0 {
		n = fallback
	}
	return time.Duration(n) * time.Second
}
