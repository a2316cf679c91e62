package main

import (
	"context"
	"fmt"

	"github.com/desertthunder/plsync/internal/formatter"
	"github.com/desertthunder/plsync/internal/models"
	"github.com/desertthunder/plsync/internal/shared"
	"github.com/desertthunder/plsync/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Playlists lists the current user's playlists with ownership and editability.
func (r *Runner) Playlists(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}

	engine, stop, err := r.engine(ctx, false)
	if err != nil {
		return err
	}
	list, err := engine.ListPlaylists(ctx)
	stop()
	if err != nil {
		return err
	}

	playlists := list.Playlists
	if cmd.Bool("editable") {
		editable := make([]models.PlaylistSummary, 0, len(playlists))
		for _, p := range playlists {
			if p.IsEditable {
				editable = append(editable, p)
			}
		}
		playlists = editable
	}
	if limit := cmd.Int("limit"); limit > 0 && limit < len(playlists) {
		playlists = playlists[:limit]
	}

	if cmd.Bool("json") {
		return r.writeJSON(tasks.PlaylistList{Playlists: playlists, Total: len(playlists)}, cmd.Bool("pretty"))
	}

	r.writePlainHeader(fmt.Sprintf("Playlists (%d)", len(playlists)))
	for _, p := range playlists {
		access := "read-only"
		switch {
		case p.IsOwned:
			access = "owned"
		case p.IsEditable:
			access = "collaborative"
		}
		r.writePlain("%-24s %s (%d tracks, %s)\n", p.ID, p.Name, p.TrackCount, access)
	}
	return nil
}

// Compare diffs two playlists and prints the comparison or writes it to --output.
func (r *Runner) Compare(ctx context.Context, cmd *cli.Command) error {
	format := cmd.String("format")
	if !formatter.ValidFormat(format) {
		return fmt.Errorf("%w: unsupported format %q", shared.ErrInvalidArgument, format)
	}
	if err := r.loadConfig(cmd); err != nil {
		return err
	}

	engine, stop, err := r.engine(ctx, false)
	if err != nil {
		return err
	}
	cmp, err := engine.Compare(ctx, cmd.String("a"), cmd.String("b"))
	stop()
	if err != nil {
		return err
	}

	r.logger.Info("comparison complete",
		"only_a", len(cmp.UniqueToA),
		"only_b", len(cmp.UniqueToB),
		"common", len(cmp.Common),
	)

	if dir := cmd.String("output"); dir != "" {
		result, err := formatter.WriteComparison(cmp, format, dir, cmd.Bool("cover"))
		if err != nil {
			return err
		}
		for _, file := range result.Files {
			r.writePlain("✓ Wrote %s\n", file)
		}
		return nil
	}

	data, err := formatter.Render(cmp, format)
	if err != nil {
		return err
	}
	if _, err := r.output.Write(data); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// CompareAll compares a base playlist against every --id and exports each comparison plus a manifest.
func (r *Runner) CompareAll(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}

	engine, stop, err := r.engine(ctx, false)
	if err != nil {
		return err
	}
	result, err := engine.BulkCompare(ctx, cmd.String("base"), cmd.StringSlice("id"), tasks.BulkCompareOpts{
		Format:     cmd.String("format"),
		OutputDir:  cmd.String("output"),
		NumWorkers: cmd.Int("workers"),
		RateLimit:  float64(cmd.Int("rate")),
		WithCover:  cmd.Bool("cover"),
	})
	stop()
	if err != nil {
		return err
	}

	r.writePlainHeader(fmt.Sprintf("Compared %s against %d playlists", result.BaseName, result.Total))
	for _, res := range result.Results {
		if !res.Success {
			r.writePlain("✗ %s: %s\n", res.PlaylistName, res.ErrorMessage)
			continue
		}
		r.writePlain("✓ %s: only in base %d, only in playlist %d, in both %d\n",
			res.PlaylistName, res.UniqueToA, res.UniqueToB, res.Common)
	}
	r.writePlain("\n%d succeeded, %d failed\n", result.Successful, result.Failed)
	r.writePlain("Output: %s\n", result.OutputDirectory)
	r.writePlain("Manifest: %s\n", result.ManifestPath)
	return nil
}
