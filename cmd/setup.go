package main

import (
	"context"
	"fmt"
	"os"

	"github.com/desertthunder/plsync/internal/repositories"
	"github.com/desertthunder/plsync/internal/shared"
	"github.com/urfave/cli/v3"
)

// SetupConfig writes the example configuration to the --config path.
func (r *Runner) SetupConfig(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	if err := shared.CreateConfigFile(configPath); err != nil {
		return err
	}

	r.logger.Info("config file created", "path", configPath)
	r.writePlain("✓ Configuration written to %s\n", configPath)
	r.writePlain("Set credentials.spotify.client_id and client_secret, then run `plsync auth -c %s`\n", configPath)
	return nil
}

// SetupDatabase initializes the database, runs migrations and purges expired undo entries.
func (r *Runner) SetupDatabase(ctx context.Context, cmd *cli.Command) error {
	configPath := cmd.String("config")
	if _, err := os.Stat(configPath); err != nil && r.config == nil {
		r.logger.Info("config file not found, creating from template", "path", configPath)
		if err := shared.CreateConfigFile(configPath); err != nil {
			r.logger.Warn("failed to create config file, using defaults", "error", err)
		}
	}

	if err := r.loadConfig(cmd); err != nil {
		return err
	}

	r.logger.Info("initializing database", "path", r.config.Database.Path)
	db, err := r.database()
	if err != nil {
		return err
	}

	purged, err := repositories.NewSQLiteUndoStore(db, r.config.Undo.TTL()).PurgeExpired(ctx)
	if err != nil {
		return fmt.Errorf("failed to purge expired undo entries: %w", err)
	}

	r.logger.Infof("setup complete for database: %v", r.config.Database.Path)
	r.writePlain("✓ Database ready at %s\n", r.config.Database.Path)
	if purged > 0 {
		r.writePlain("✓ Removed %d expired undo entries\n", purged)
	}
	return nil
}
