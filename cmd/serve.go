package main

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/plsync/internal/metrics"
	"github.com/desertthunder/plsync/internal/repositories"
	"github.com/desertthunder/plsync/internal/server"
	"github.com/desertthunder/plsync/internal/services"
	"github.com/desertthunder/plsync/internal/tasks"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v3"
)

// Serve runs the HTTP API until interrupted.
func (r *Runner) Serve(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}
	if cmd.IsSet("host") {
		r.config.Server.Host = cmd.String("host")
	}
	if cmd.IsSet("port") {
		r.config.Server.Port = cmd.Int("port")
	}

	srv, err := r.newServer(prometheus.NewRegistry())
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	r.writePlain("→ Listening on http://%s\n", r.config.Server.Addr())
	return srv.ListenAndServe(ctx)
}

// newServer wires the HTTP server: undo store, audit trail, OAuth and metrics on reg.
func (r *Runner) newServer(reg *prometheus.Registry) (*server.Server, error) {
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	m := metrics.New(reg)

	var db = r.db
	if r.config.Database.Path != "" {
		var err error
		if db, err = r.database(); err != nil {
			return nil, err
		}
	}

	undo := r.undo
	if undo == nil {
		store, err := repositories.NewUndoStore(r.config.Undo, db)
		if err != nil {
			return nil, err
		}
		if c, ok := store.(io.Closer); ok {
			r.closers = append(r.closers, c)
		}
		undo = store
	}

	opts := server.Options{
		Config:   r.config.Server,
		API:      r.config.API,
		Auth:     r.auth,
		Undo:     undo,
		Runs:     r.runs,
		Logger:   r.logger,
		Metrics:  m,
		Gatherer: reg,
	}
	if r.api != nil {
		api := r.api
		opts.NewAPI = func(string) tasks.PlaylistAPI { return api }
	}
	if opts.Runs == nil && db != nil {
		opts.Runs = repositories.NewSyncRunRepository(db)
	}
	if opts.Auth == nil {
		if auth, err := services.NewAuthenticator(r.config.Credentials.Spotify); err != nil {
			r.logger.Warn("web login disabled", "error", err)
		} else {
			opts.Auth = auth
		}
	}

	r.logger.Info("server configured",
		"addr", r.config.Server.Addr(),
		"undo_backend", r.config.Undo.Backend,
		"audit", opts.Runs != nil,
	)
	return server.New(opts)
}
