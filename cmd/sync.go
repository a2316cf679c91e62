package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/desertthunder/plsync/internal/models"
	"github.com/desertthunder/plsync/internal/shared"
	"github.com/desertthunder/plsync/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Sync copies the tracks missing from --target and prints the undo token.
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}

	engine, stop, err := r.engine(ctx, true)
	if err != nil {
		return err
	}
	result, err := engine.Sync(ctx, r.session(), tasks.SyncRequest{
		SourceID: cmd.String("source"),
		TargetID: cmd.String("target"),
		URIs:     cmd.StringSlice("uri"),
		TwoWay:   cmd.Bool("two-way"),
	})
	stop()
	if result == nil {
		return err
	}

	if cmd.Bool("json") {
		if writeErr := r.writeJSON(result, cmd.Bool("pretty")); writeErr != nil {
			return writeErr
		}
		return err
	}

	r.writePlain("✓ Added %d tracks to %s\n", len(result.AddedURIs), cmd.String("target"))
	if cmd.Bool("two-way") {
		r.writePlain("✓ Added %d tracks to %s\n", len(result.ReverseAddedURIs), cmd.String("source"))
	}
	if result.UndoToken != "" {
		r.writePlain("Undo with: plsync undo --playlist %s --token %s\n", cmd.String("target"), result.UndoToken)
	}
	return err
}

// Undo removes the tracks added by the session's last sync.
func (r *Runner) Undo(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}

	engine, stop, err := r.engine(ctx, true)
	if err != nil {
		return err
	}
	result, err := engine.Undo(ctx, r.session(), cmd.String("playlist"), cmd.String("token"))
	stop()
	if result == nil {
		return err
	}

	if cmd.Bool("json") {
		if writeErr := r.writeJSON(result, cmd.Bool("pretty")); writeErr != nil {
			return writeErr
		}
		return err
	}

	if !result.Found {
		r.writePlain("Nothing to undo for %s with that token\n", cmd.String("playlist"))
		return err
	}
	r.writePlain("✓ Removed %d tracks from %s\n", len(result.RemovedURIs), cmd.String("playlist"))
	return err
}

// Remove deletes the occurrences given as uri@position.
func (r *Runner) Remove(ctx context.Context, cmd *cli.Command) error {
	entries, err := parseEntries(cmd.StringSlice("entry"))
	if err != nil {
		return err
	}
	if err := r.loadConfig(cmd); err != nil {
		return err
	}

	engine, stop, err := r.engine(ctx, true)
	if err != nil {
		return err
	}
	result, err := engine.RemoveSelected(ctx, r.session(), cmd.String("playlist"), entries, cmd.String("snapshot"))
	stop()
	if result == nil {
		return err
	}

	if cmd.Bool("json") {
		if writeErr := r.writeJSON(result, cmd.Bool("pretty")); writeErr != nil {
			return writeErr
		}
		return err
	}

	r.writePlain("✓ Removed %d tracks from %s\n", result.RemovedCount, cmd.String("playlist"))
	if result.SnapshotID != "" {
		r.writePlain("Snapshot: %s\n", result.SnapshotID)
	}
	return err
}

// History prints the session's most recent audited mutations.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}
	if r.history == nil {
		if _, _, err := r.stores(); err != nil {
			return err
		}
	}
	if r.history == nil {
		return fmt.Errorf("%w: no run history available", shared.ErrServiceUnavailable)
	}

	runs, err := r.history.ListBySession(ctx, r.session().Key, cmd.Int("limit"))
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(runs, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Recent runs (%d)", len(runs)))
	for _, run := range runs {
		r.writePlain("%s  %-12s %-9s %-24s %d/%d\n",
			run.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			run.Operation, run.Status, run.PlaylistID, run.TracksCommitted, run.TracksRequested)
		if run.ErrorMessage != "" {
			r.writePlain("    %s\n", run.ErrorMessage)
		}
	}
	return nil
}

// parseEntries reads uri@position pairs. The position is the zero-based index in the playlist.
func parseEntries(values []string) ([]models.TrackPosition, error) {
	entries := make([]models.TrackPosition, 0, len(values))
	for _, value := range values {
		i := strings.LastIndex(value, "@")
		if i <= 0 || i == len(value)-1 {
			return nil, fmt.Errorf("%w: entry %q must be uri@position", shared.ErrInvalidArgument, value)
		}
		position, err := strconv.Atoi(value[i+1:])
		if err != nil || position < 0 {
			return nil, fmt.Errorf("%w: entry %q has an invalid position", shared.ErrInvalidArgument, value)
		}
		entries = append(entries, models.TrackPosition{URI: value[:i], Position: position})
	}
	return entries, nil
}
