package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/plsync/internal/models"
	"github.com/desertthunder/plsync/internal/repositories"
	"github.com/desertthunder/plsync/internal/server"
	"github.com/desertthunder/plsync/internal/services"
	"github.com/desertthunder/plsync/internal/shared"
	"github.com/desertthunder/plsync/internal/tasks"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"
)

// RunHistory lists the audited mutations of a session. [*repositories.SyncRunRepository] implements it.
type RunHistory interface {
	ListBySession(ctx context.Context, sessionKey string, limit int) ([]*models.SyncRun, error)
}

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Dependencies left nil are built lazily from the configuration the first time a command needs them.
type Runner struct {
	config      *shared.Config
	configPath  string
	api         tasks.PlaylistAPI
	auth        server.Authenticator
	undo        repositories.UndoStore
	runs        tasks.RunRecorder
	history     RunHistory
	db          *sql.DB
	logger      *log.Logger
	output      io.Writer
	openBrowser func(url string) error
	closers     []io.Closer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config      *shared.Config
	ConfigPath  string
	API         tasks.PlaylistAPI
	Auth        server.Authenticator
	Undo        repositories.UndoStore
	Runs        tasks.RunRecorder
	History     RunHistory
	Logger      *log.Logger
	Output      io.Writer
	OpenBrowser func(url string) error
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.OpenBrowser == nil {
		opts.OpenBrowser = shared.OpenBrowser
	}

	return &Runner{
		config:      opts.Config,
		configPath:  opts.ConfigPath,
		api:         opts.API,
		auth:        opts.Auth,
		undo:        opts.Undo,
		runs:        opts.Runs,
		history:     opts.History,
		logger:      opts.Logger,
		output:      opts.Output,
		openBrowser: opts.OpenBrowser,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, serveCommand, playlistsCommand, compareCommand, compareAllCommand,
		syncCommand, undoCommand, removeCommand, historyCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Close releases the database and undo store connections opened by commands.
func (r *Runner) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		if err := r.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}

// loadConfig resolves the configuration named by the --config flag unless one was injected.
func (r *Runner) loadConfig(cmd *cli.Command) error {
	if r.config != nil {
		return nil
	}

	path := cmd.String("config")
	config, err := shared.ResolveConfig(path)
	if err != nil {
		return err
	}
	r.config = config
	r.configPath = path
	r.logger.Debug("configuration loaded", "path", path, "undo_backend", config.Undo.Backend)
	return nil
}

// session identifies the CLI user for undo and audit purposes.
//
// The key is derived from the refresh token so it survives access token renewals.
func (r *Runner) session() tasks.Session {
	creds := r.config.Credentials.Spotify
	secret := creds.RefreshToken
	if secret == "" {
		secret = creds.AccessToken
	}
	return tasks.Session{Key: shared.SessionKey("cli:" + secret), Scope: creds.Scope}
}

// playlistAPI builds the Web API client from the saved token. Renewed tokens are written back to the config file.
func (r *Runner) playlistAPI(ctx context.Context) (tasks.PlaylistAPI, error) {
	if r.api != nil {
		return r.api, nil
	}

	creds := r.config.Credentials.Spotify
	token := creds.Token()
	if token == nil {
		return nil, fmt.Errorf("%w: run `plsync auth` first", shared.ErrNotAuthenticated)
	}

	var refresher services.Refresher
	if auth, err := services.NewAuthenticator(creds); err != nil {
		r.logger.Debug("token refresh disabled", "error", err)
	} else {
		refresher = auth
	}

	tokens := services.NewRefreshingTokenSource(ctx, refresher, token)
	tokens.OnRefresh = func(fresh *oauth2.Token) {
		if err := r.saveToken(fresh); err != nil {
			r.logger.Warn("failed to persist refreshed token", "error", err)
			return
		}
		r.logger.Debug("refreshed access token saved", "path", r.configPath)
	}

	fetcher := services.NewSpotifyFetcher(tokens, r.config.API, services.WithFetcherLogger(r.logger))
	r.api = services.NewClient(fetcher, r.config.API.MaxPages)
	return r.api, nil
}

// saveToken stores token in the configuration and writes it to the config file when one is known.
func (r *Runner) saveToken(token *oauth2.Token) error {
	if r.config == nil {
		return fmt.Errorf("%w: config is nil", shared.ErrMissingConfig)
	}
	if err := r.config.Credentials.Spotify.Update(token); err != nil {
		return fmt.Errorf("failed to update spotify configuration: %w", err)
	}
	if r.configPath == "" {
		return nil
	}
	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	return nil
}

// database opens the configured SQLite database once per run.
func (r *Runner) database() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}
	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	r.db = db
	r.closers = append(r.closers, db)
	return db, nil
}

// stores returns the undo store and audit recorder for mutating commands.
//
// Each CLI invocation is a new process, so the memory backend is replaced by sqlite.
func (r *Runner) stores() (repositories.UndoStore, tasks.RunRecorder, error) {
	if r.undo != nil {
		return r.undo, r.runs, nil
	}

	db, err := r.database()
	if err != nil {
		return nil, nil, err
	}

	cfg := r.config.Undo
	if cfg.Backend == shared.UndoBackendMemory || cfg.Backend == "" {
		r.logger.Debug("using sqlite undo store for the CLI", "configured", cfg.Backend)
		cfg.Backend = shared.UndoBackendSQLite
	}

	store, err := repositories.NewUndoStore(cfg, db)
	if err != nil {
		return nil, nil, err
	}
	if c, ok := store.(io.Closer); ok {
		r.closers = append(r.closers, c)
	}

	runs := repositories.NewSyncRunRepository(db)
	r.undo = store
	if r.runs == nil {
		r.runs = runs
	}
	if r.history == nil {
		r.history = runs
	}
	return r.undo, r.runs, nil
}

// engine creates a task engine whose progress updates are logged. stop must be called once the operation returns.
func (r *Runner) engine(ctx context.Context, mutating bool) (engine *tasks.Engine, stop func(), err error) {
	api, err := r.playlistAPI(ctx)
	if err != nil {
		return nil, nil, err
	}

	opts := tasks.EngineOpts{Logger: r.logger}
	if mutating {
		if opts.Undo, opts.Runs, err = r.stores(); err != nil {
			return nil, nil, err
		}
	}

	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progress {
			r.logger.Info(update.Message, "phase", update.Phase, "step", update.Step, "total", update.Total)
		}
	}()
	opts.Progress = progress

	stop = func() {
		close(progress)
		<-done
	}
	return tasks.NewEngine(api, opts), stop, nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
