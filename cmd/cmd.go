// submodule cmd contains command definitions
package main

import (
	"time"

	"github.com/desertthunder/plsync/internal/formatter"
	"github.com/urfave/cli/v3"
)

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

func jsonFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Output raw JSON",
		},
		&cli.BoolFlag{
			Name:  "pretty",
			Usage: "Pretty-print JSON output",
		},
	}
}

// setupCommand handles configuration and database initialization.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Setup and configuration commands",
		Commands: []*cli.Command{
			{
				Name:   "config",
				Usage:  "Write an example configuration file",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupConfig,
			},
			{
				Name:   "database",
				Usage:  "Initialize database and run migrations",
				Flags:  []cli.Flag{configFlag()},
				Action: r.SetupDatabase,
			},
		},
	}
}

// authCommand runs the OAuth2 authorization code flow.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Authenticate with Spotify using OAuth2",
		Flags: []cli.Flag{
			configFlag(),
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "How long to wait for the browser callback",
				Value: 2 * time.Minute,
			},
		},
		Action: r.Auth,
	}
}

// serveCommand starts the HTTP API.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the playlist sync HTTP API",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host (overrides server.host)",
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Listen port (overrides server.port)",
			},
		},
		Action: r.Serve,
	}
}

func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlists",
		Aliases: []string{"ls"},
		Usage:   "List your Spotify playlists",
		Flags: append([]cli.Flag{
			configFlag(),
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of playlists to print (0 for all)",
			},
			&cli.BoolFlag{
				Name:  "editable",
				Usage: "Only show playlists you can modify",
			},
		}, jsonFlags()...),
		Action: r.Playlists,
	}
}

func compareCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "compare",
		Usage: "Compare two playlists",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:     "a",
				Usage:    "First playlist ID",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "b",
				Usage:    "Second playlist ID",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Output format: json, csv, markdown or txt",
				Value:   formatter.FormatText,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Write the comparison to this directory instead of stdout",
			},
			&cli.BoolFlag{
				Name:  "cover",
				Usage: "Download the cover image of playlist A (markdown only)",
			},
		},
		Action: r.Compare,
	}
}

func compareAllCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "compare-all",
		Usage: "Compare a base playlist against several others and export every comparison",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:     "base",
				Usage:    "Base playlist ID (side A of every comparison)",
				Required: true,
			},
			&cli.StringSliceFlag{
				Name:     "id",
				Usage:    "Playlist ID to compare against the base (repeatable)",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "format",
				Aliases: []string{"f"},
				Usage:   "Export format: json, csv, markdown or txt",
				Value:   formatter.FormatCSV,
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output directory (default plsync_compare_{timestamp})",
			},
			&cli.IntFlag{
				Name:  "workers",
				Usage: "Number of concurrent workers",
				Value: 5,
			},
			&cli.IntFlag{
				Name:  "rate",
				Usage: "Playlists started per second",
				Value: 5,
			},
			&cli.BoolFlag{
				Name:  "cover",
				Usage: "Download cover images (markdown only)",
			},
		},
		Action: r.CompareAll,
	}
}

func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Copy missing tracks into a playlist",
		Flags: append([]cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:     "target",
				Aliases:  []string{"t"},
				Usage:    "Playlist ID to add tracks to",
				Required: true,
			},
			&cli.StringFlag{
				Name:    "source",
				Aliases: []string{"s"},
				Usage:   "Playlist ID to copy missing tracks from",
			},
			&cli.StringSliceFlag{
				Name:  "uri",
				Usage: "Track URI to add instead of the source difference (repeatable)",
			},
			&cli.BoolFlag{
				Name:  "two-way",
				Usage: "Also copy tracks only in the target back into the source",
			},
		}, jsonFlags()...),
		Action: r.Sync,
	}
}

func undoCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "undo",
		Usage: "Remove the tracks added by the last sync",
		Flags: append([]cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:     "playlist",
				Usage:    "Playlist ID the sync targeted",
				Required: true,
			},
			&cli.StringFlag{
				Name:     "token",
				Usage:    "Undo token printed by sync",
				Required: true,
			},
		}, jsonFlags()...),
		Action: r.Undo,
	}
}

func removeCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "remove",
		Usage: "Remove selected track occurrences from a playlist",
		Flags: append([]cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:     "playlist",
				Usage:    "Playlist ID",
				Required: true,
			},
			&cli.StringSliceFlag{
				Name:     "entry",
				Usage:    "Occurrence to remove as uri@position (repeatable)",
				Required: true,
			},
			&cli.StringFlag{
				Name:  "snapshot",
				Usage: "Snapshot ID the positions refer to",
			},
		}, jsonFlags()...),
		Action: r.Remove,
	}
}

func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show recent syncs, undos and removals",
		Flags: append([]cli.Flag{
			configFlag(),
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of runs to show",
				Value: 20,
			},
		}, jsonFlags()...),
		Action: r.History,
	}
}
