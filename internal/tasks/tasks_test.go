package tasks

import (
	"database/sql"
	"io"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/opdl/playlistd/internal/models"
	"github.com/opdl/playlistd/internal/repositories"
	"github.com/opdl/playlistd/internal/services"
	"github.com/opdl/playlistd/internal/shared"
	tu "github.com/opdl/playlistd/internal/testing"
)

// fixture bundles an in-memory catalog with mock remote services.
type fixture struct {
	db        *sql.DB
	playlists *repositories.PlaylistRepository
	songs     *repositories.SongRepository
	settings  *repositories.SettingRepository
	lister    *tu.MockLister
	fetcher   *tu.MockFetcher
	feed      *EventFeed
	active    *ActiveDownloads
	logger    *log.Logger
	outputDir string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	// every pool connection of an in-memory database is a distinct database
	shared.ConfigureDatabase(db, 1, 1)

	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	f := &fixture{
		db:        db,
		playlists: repositories.NewPlaylistRepository(db),
		songs:     repositories.NewSongRepository(db),
		settings:  repositories.NewSettingRepository(db),
		lister:    &tu.MockLister{},
		fetcher:   &tu.MockFetcher{},
		feed:      NewEventFeed(0),
		active:    NewActiveDownloads(),
		logger:    shared.NewLogger(io.Discard),
		outputDir: t.TempDir(),
	}

	if err := f.settings.EnsureDefaults(); err != nil {
		t.Fatalf("failed to seed settings: %v", err)
	}
	if err := f.settings.Set(models.SettingOutputDir, f.outputDir); err != nil {
		t.Fatalf("failed to set output dir: %v", err)
	}

	return f
}

func (f *fixture) reconciler() *Reconciler {
	return NewReconciler(f.playlists, f.songs, f.settings, f.lister, f.feed, f.logger)
}

func (f *fixture) executor() *Executor {
	return NewExecutor(f.playlists, f.songs, f.settings, f.fetcher, f.active, f.feed, f.logger)
}

func (f *fixture) scheduler() *Scheduler {
	return NewScheduler(f.playlists, f.settings, f.reconciler(), f.executor(),
		NewGuard(), f.active, f.feed, f.logger)
}

// addPlaylist registers a playlist whose remote listing serves the given
// entries.
func (f *fixture) addPlaylist(t *testing.T, name string, entries ...models.RemoteEntry) *models.Playlist {
	t.Helper()

	url := "https://music.example.com/playlist?list=" + name
	playlist := &models.Playlist{Name: name, URL: url}
	if err := f.playlists.Create(playlist); err != nil {
		t.Fatalf("failed to create playlist: %v", err)
	}

	f.setListing(playlist, entries...)
	return playlist
}

// setListing replaces the mock remote listing for a playlist.
func (f *fixture) setListing(playlist *models.Playlist, entries ...models.RemoteEntry) {
	if f.lister.Listings == nil {
		f.lister.Listings = map[string]*services.RemoteListing{}
	}
	f.lister.Listings[playlist.URL] = &services.RemoteListing{
		Title:   playlist.Name,
		Entries: entries,
	}
}

// remoteIDs extracts the remote ids of a playlist's linked songs.
func (f *fixture) remoteIDs(t *testing.T, playlistID string) map[string]bool {
	t.Helper()

	linked, err := f.songs.ForPlaylist(playlistID, false)
	if err != nil {
		t.Fatalf("failed to list songs: %v", err)
	}

	ids := make(map[string]bool, len(linked))
	for _, song := range linked {
		ids[song.RemoteID] = true
	}
	return ids
}

func entry(remoteID, title string) models.RemoteEntry {
	return models.RemoteEntry{RemoteID: remoteID, Title: title}
}
