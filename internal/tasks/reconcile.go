package tasks

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/charmbracelet/log"
	"github.com/opdl/playlistd/internal/models"
	"github.com/opdl/playlistd/internal/repositories"
	"github.com/opdl/playlistd/internal/services"
	"github.com/opdl/playlistd/internal/shared"
	"golang.org/x/time/rate"
)

// defaultListingRate paces remote listing calls across all loops so a large
// playlist set cannot stampede yt-dlp subprocesses.
const defaultListingRate = rate.Limit(2)

// ReconcileResult carries the counters of one reconciliation run, surfaced
// for logging and for the event feed.
type ReconcileResult struct {
	Total   int // Entry count currently reported by the remote source
	Added   int // New songs linked during this run
	Removed int // Links removed because the remote source dropped the entry
	Reset   int // Downloaded flags cleared because the file vanished locally
}

// Reconciler computes and applies the three-way diff between the persisted
// catalog, the remote listing, and the filesystem for a single playlist.
type Reconciler struct {
	playlists *repositories.PlaylistRepository
	songs     *repositories.SongRepository
	settings  *repositories.SettingRepository
	lister    services.Lister
	limiter   *rate.Limiter
	feed      *EventFeed
	logger    *log.Logger
}

// NewReconciler wires a Reconciler. feed and logger must be non-nil.
func NewReconciler(
	playlists *repositories.PlaylistRepository,
	songs *repositories.SongRepository,
	settings *repositories.SettingRepository,
	lister services.Lister,
	feed *EventFeed,
	logger *log.Logger,
) *Reconciler {
	return &Reconciler{
		playlists: playlists,
		songs:     songs,
		settings:  settings,
		lister:    lister,
		limiter:   rate.NewLimiter(defaultListingRate, 1),
		feed:      feed,
		logger:    logger,
	}
}

// Reconcile brings the catalog state for one playlist in line with the
// remote listing and the local disk. Steps run strictly in order:
//
//  1. Reset the downloaded flag of linked songs whose file vanished.
//  2. Fetch the remote listing and diff it against the current links.
//  3. Remove links the remote source dropped, deleting files best-effort
//     and song rows that no other playlist references.
//  4. Ingest new remote entries, reusing song rows known globally.
//  5. Update the playlist's total count and last-sync timestamp.
//
// A listing failure aborts the run before any diff is applied; per-file
// filesystem errors are logged observations and never abort the batch.
func (r *Reconciler) Reconcile(ctx context.Context, playlistID string) (ReconcileResult, error) {
	var result ReconcileResult

	playlist, err := r.playlists.Get(playlistID)
	if err != nil {
		return result, err
	}

	outputDir, err := r.outputDir()
	if err != nil {
		return result, err
	}

	linked, err := r.songs.ForPlaylist(playlistID, false)
	if err != nil {
		return result, err
	}

	// Step 1: songs deleted from disk out-of-band lose their downloaded
	// flag but keep row, link, and filename.
	for _, song := range linked {
		if !song.Downloaded || song.Filename == "" {
			continue
		}
		if _, err := os.Stat(filepath.Join(outputDir, song.Filename)); err == nil {
			continue
		}
		if err := r.songs.ResetDownloaded(song.ID); err != nil {
			return result, err
		}
		song.Downloaded = false
		result.Reset++
		r.feed.Addf("Detected deleted file, will re-download: %s", song.Title)
	}

	// Step 2: a fetch failure means no diff is applied at all.
	if err := r.limiter.Wait(ctx); err != nil {
		return result, fmt.Errorf("%w: listing rate wait: %v", shared.ErrFetch, err)
	}
	listing, err := r.lister.ListEntries(ctx, playlist.URL)
	if err != nil {
		r.feed.Addf("Sync failed for %s: %v", playlist.Name, err)
		return result, err
	}

	// Playlists added without a name adopt the remote title once known.
	if playlist.Name == models.DefaultPlaylistName && listing.Title != "" {
		if err := r.playlists.Rename(playlist.ID, listing.Title); err == nil {
			playlist.Name = listing.Title
		}
	}

	remote := make(map[string]models.RemoteEntry, len(listing.Entries))
	for _, entry := range listing.Entries {
		remote[entry.RemoteID] = entry
	}
	current := make(map[string]bool, len(linked))
	for _, song := range linked {
		current[song.RemoteID] = true
	}

	// Step 3
	for _, song := range linked {
		if _, listed := remote[song.RemoteID]; listed {
			continue
		}
		if err := r.removeOrphan(playlistID, song, outputDir); err != nil {
			return result, err
		}
		result.Removed++
	}

	// Step 4
	for _, entry := range listing.Entries {
		if current[entry.RemoteID] {
			continue
		}
		current[entry.RemoteID] = true

		song, err := r.songs.Upsert(entry)
		if err != nil {
			return result, err
		}
		if err := r.songs.Link(playlistID, song.ID); err != nil {
			return result, err
		}
		result.Added++
	}

	// Step 5
	result.Total = len(listing.Entries)
	if err := r.playlists.UpdateCounters(playlistID, result.Total, time.Now()); err != nil {
		return result, err
	}

	if result.Added > 0 || result.Removed > 0 || result.Reset > 0 {
		r.feed.Addf("Synced %s: %d total, %d added, %d removed, %d re-queued",
			playlist.Name, result.Total, result.Added, result.Removed, result.Reset)
	}
	r.logger.Debug("reconciled playlist", "playlist", playlist.Name,
		"total", result.Total, "added", result.Added,
		"removed", result.Removed, "reset", result.Reset)

	return result, nil
}

// removeOrphan deletes the backing file best-effort, unlinks the song, and
// deletes the song row when no other playlist still references it. Only the
// file delete is best-effort; a catalog write failure aborts the run.
func (r *Reconciler) removeOrphan(playlistID string, song *models.Song, outputDir string) error {
	if song.Filename != "" {
		path := filepath.Join(outputDir, song.Filename)
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			// A stuck file is a disk-state observation, not a reason to
			// abort the rest of the batch.
			r.logger.Warn("failed to delete orphaned file", "path", path, "error", err)
			r.feed.Addf("Could not delete file for %s: %v", song.Title, err)
		}
	}

	if err := r.songs.Unlink(playlistID, song.ID); err != nil {
		return fmt.Errorf("unlink %s: %w", song.Title, err)
	}

	count, err := r.songs.LinkCount(song.ID)
	if err != nil {
		return fmt.Errorf("count links for %s: %w", song.Title, err)
	}
	if count == 0 {
		if err := r.songs.Delete(song.ID); err != nil {
			return fmt.Errorf("delete orphaned song %s: %w", song.Title, err)
		}
	}

	r.feed.Addf("Removed from playlist: %s", song.Title)
	return nil
}

// outputDir resolves the configured output directory.
func (r *Reconciler) outputDir() (string, error) {
	dir, err := r.settings.Get(models.SettingOutputDir)
	if err != nil {
		return "", err
	}
	return shared.ExpandPath(dir), nil
}
