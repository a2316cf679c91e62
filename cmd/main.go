package main

import (
	"context"
	"errors"
	"os"

	"github.com/desertthunder/plsync/internal/services"
	"github.com/desertthunder/plsync/internal/shared"
	"github.com/urfave/cli/v3"
)

func main() {
	logger := shared.NewLogger(nil)
	runner := NewRunner(RunnerOpts{Logger: logger})

	app := &cli.Command{
		Name:     "plsync",
		Usage:    "Compare, sync and undo changes between Spotify playlists",
		Version:  "0.1.0",
		Commands: runner.register(),
	}

	err := app.Run(context.Background(), os.Args)
	if closeErr := runner.Close(); closeErr != nil {
		logger.Warn("failed to close resources", "error", closeErr)
	}
	if err == nil {
		return
	}

	var scopeErr *services.ScopeError
	switch {
	case errors.As(err, &scopeErr):
		logger.Error("missing Spotify permissions, run `plsync auth` again", "missing", scopeErr.Missing)
	case errors.Is(err, shared.ErrNotAuthenticated):
		logger.Error("not authenticated, run `plsync auth` first", "error", err)
	default:
		logger.Error("application error", "error", err)
	}
	os.Exit(1)
}
