package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/opdl/playlistd/internal/repositories"
	"github.com/opdl/playlistd/internal/services"
	"github.com/opdl/playlistd/internal/shared"
	"github.com/opdl/playlistd/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config  *shared.Config
	lister  services.Lister
	fetcher services.Fetcher
	logger  *log.Logger
	output  io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config  *shared.Config
	Lister  services.Lister
	Fetcher services.Fetcher
	Logger  *log.Logger
	Output  io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.Lister == nil || opts.Fetcher == nil {
		ytdlp := services.NewYTDLP(opts.Config.Downloader.Binary, opts.Config.Downloader.CookiesPath)
		if opts.Lister == nil {
			opts.Lister = ytdlp
		}
		if opts.Fetcher == nil {
			opts.Fetcher = ytdlp
		}
	}

	return &Runner{
		config:  opts.Config,
		lister:  opts.Lister,
		fetcher: opts.Fetcher,
		logger:  opts.Logger,
		output:  opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, serveCommand, playlistCommand, syncCommand, settingsCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// catalog bundles an open database handle with the repositories over it.
type catalog struct {
	db        *sql.DB
	playlists *repositories.PlaylistRepository
	songs     *repositories.SongRepository
	settings  *repositories.SettingRepository
}

// openCatalog opens the configured database and wires the repositories.
// Callers must Close the returned catalog.
func (r *Runner) openCatalog() (*catalog, error) {
	db, err := shared.NewDatabase(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	shared.ConfigureDatabase(db, r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	return &catalog{
		db:        db,
		playlists: repositories.NewPlaylistRepository(db),
		songs:     repositories.NewSongRepository(db),
		settings:  repositories.NewSettingRepository(db),
	}, nil
}

func (c *catalog) Close() error {
	return c.db.Close()
}

// engine bundles the sync components built over a catalog.
type engine struct {
	reconciler *tasks.Reconciler
	executor   *tasks.Executor
	scheduler  *tasks.Scheduler
}

// buildEngine wires the reconciler, executor, and scheduler over the catalog.
func (r *Runner) buildEngine(c *catalog) *engine {
	feed := tasks.NewEventFeed(0)
	active := tasks.NewActiveDownloads()
	guard := tasks.NewGuard()

	reconciler := tasks.NewReconciler(c.playlists, c.songs, c.settings, r.lister, feed, r.logger)
	executor := tasks.NewExecutor(c.playlists, c.songs, c.settings, r.fetcher, active, feed, r.logger)
	scheduler := tasks.NewScheduler(c.playlists, c.settings, reconciler, executor, guard, active, feed, r.logger)

	return &engine{reconciler: reconciler, executor: executor, scheduler: scheduler}
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

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
