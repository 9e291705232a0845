package main

import (
	"context"
	"fmt"

	"github.com/opdl/playlistd/internal/models"
	"github.com/opdl/playlistd/internal/shared"
	"github.com/urfave/cli/v3"
)

// PlaylistAdd tracks a new playlist and runs its first reconciliation so the
// catalog is populated immediately.
func (r *Runner) PlaylistAdd(ctx context.Context, cmd *cli.Command) error {
	url := cmd.StringArg("url")
	if url == "" {
		return fmt.Errorf("%w: playlist URL is required", shared.ErrMissingArgument)
	}
	name := cmd.String("name")

	c, err := r.openCatalog()
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.settings.EnsureDefaults(); err != nil {
		return fmt.Errorf("failed to seed settings: %w", err)
	}

	playlist := &models.Playlist{Name: name, URL: url}
	if err := c.playlists.Create(playlist); err != nil {
		return fmt.Errorf("failed to add playlist: %w", err)
	}

	r.logger.Info("playlist added, reconciling", "id", playlist.ID)

	eng := r.buildEngine(c)
	result, err := eng.reconciler.Reconcile(ctx, playlist.ID)
	if err != nil {
		r.logger.Warn("initial reconciliation failed, will retry on next sync", "error", err)
		return r.writePlain("Added %s (reconciliation pending)\n", playlist.ID)
	}

	return r.writePlain("Added %s: %d songs (%d new)\n", playlist.ID, result.Total, result.Added)
}

// PlaylistList prints tracked playlists with download progress.
func (r *Runner) PlaylistList(ctx context.Context, cmd *cli.Command) error {
	c, err := r.openCatalog()
	if err != nil {
		return err
	}
	defer c.Close()

	statuses, err := c.playlists.Statuses()
	if err != nil {
		return fmt.Errorf("failed to list playlists: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(statuses, cmd.Bool("pretty"))
	}

	if len(statuses) == 0 {
		return r.writePlain("No playlists tracked\n")
	}
	for _, s := range statuses {
		if err := r.writePlain("%s  %s  %d/%d downloaded\n", s.ID, s.Name, s.Downloaded, s.TotalSongs); err != nil {
			return err
		}
	}
	return nil
}

// PlaylistRemove stops tracking a playlist. Songs no longer referenced by
// any playlist are pruned from the catalog; downloaded files stay on disk.
func (r *Runner) PlaylistRemove(ctx context.Context, cmd *cli.Command) error {
	id := cmd.String("id")

	c, err := r.openCatalog()
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.playlists.Delete(id); err != nil {
		return fmt.Errorf("failed to remove playlist: %w", err)
	}

	return r.writePlain("Removed %s\n", id)
}

// PlaylistRename changes a playlist's display name.
func (r *Runner) PlaylistRename(ctx context.Context, cmd *cli.Command) error {
	id := cmd.String("id")
	name := cmd.String("name")

	c, err := r.openCatalog()
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.playlists.Rename(id, name); err != nil {
		return fmt.Errorf("failed to rename playlist: %w", err)
	}

	return r.writePlain("Renamed %s to %q\n", id, name)
}
