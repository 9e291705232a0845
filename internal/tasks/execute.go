package tasks

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/opdl/playlistd/internal/models"
	"github.com/opdl/playlistd/internal/repositories"
	"github.com/opdl/playlistd/internal/services"
	"github.com/opdl/playlistd/internal/shared"
)

// Executor downloads every song in a playlist that is not yet marked
// downloaded. Songs are fetched sequentially to bound bandwidth use per
// playlist; one failing song never aborts the batch.
type Executor struct {
	playlists *repositories.PlaylistRepository
	songs     *repositories.SongRepository
	settings  *repositories.SettingRepository
	fetcher   services.Fetcher
	active    *ActiveDownloads
	feed      *EventFeed
	logger    *log.Logger
}

// NewExecutor wires an Executor. active, feed, and logger must be non-nil.
func NewExecutor(
	playlists *repositories.PlaylistRepository,
	songs *repositories.SongRepository,
	settings *repositories.SettingRepository,
	fetcher services.Fetcher,
	active *ActiveDownloads,
	feed *EventFeed,
	logger *log.Logger,
) *Executor {
	return &Executor{
		playlists: playlists,
		songs:     songs,
		settings:  settings,
		fetcher:   fetcher,
		active:    active,
		feed:      feed,
		logger:    logger,
	}
}

// Execute fetches every eligible song of the playlist. It is invoked only
// after a successful reconciliation for the same playlist, under the same
// concurrency-guard hold. Download state is persisted per song, not
// batched, so a crash mid-run leaves finished songs correctly marked.
func (e *Executor) Execute(ctx context.Context, playlistID string) error {
	playlist, err := e.playlists.Get(playlistID)
	if err != nil {
		return err
	}

	eligible, err := e.songs.ForPlaylist(playlistID, true)
	if err != nil {
		return err
	}

	if len(eligible) == 0 {
		e.logger.Debug("nothing to download", "playlist", playlist.Name)
		e.feed.Addf("All songs already downloaded for: %s", playlist.Name)
		return nil
	}

	opts, err := e.fetchOptions()
	if err != nil {
		return err
	}

	e.feed.Addf("Starting download of %d songs for: %s", len(eligible), playlist.Name)
	defer e.active.Clear(playlistID)

	for _, song := range eligible {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		e.active.Set(playlistID, song.Title)

		filename, err := e.fetcher.Fetch(ctx, song.RemoteID, opts)
		if err != nil {
			e.logger.Error("download failed", "song", song.Title, "error", err)
			e.feed.Addf("Error downloading %s: %v", song.Title, err)
			continue
		}

		if err := e.songs.SetDownloaded(song.ID, filename); err != nil {
			e.logger.Error("failed to record download", "song", song.Title, "error", err)
			e.feed.Addf("Downloaded %s but failed to record it: %v", song.Title, err)
			continue
		}

		e.feed.Addf("Downloaded: %s", song.Title)
	}

	e.feed.Addf("Completed download pass for: %s", playlist.Name)
	return nil
}

// fetchOptions assembles the fetcher configuration from runtime settings.
func (e *Executor) fetchOptions() (services.FetchOptions, error) {
	outputDir, err := e.settings.Get(models.SettingOutputDir)
	if err != nil {
		return services.FetchOptions{}, err
	}
	bitrate, err := e.settings.Get(models.SettingBitrate)
	if err != nil {
		return services.FetchOptions{}, err
	}

	return services.FetchOptions{
		OutputDir: shared.ExpandPath(outputDir),
		Format:    "mp3",
		Bitrate:   bitrate,
		Logger:    e.logger,
	}, nil
}
