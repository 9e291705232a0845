package main

import (
	"context"
	"fmt"

	"github.com/opdl/playlistd/internal/models"
	"github.com/urfave/cli/v3"
)

// Sync runs a one-shot reconcile (and download, unless --info-only) pass
// over one or all playlists, then exits. Playlists are processed
// sequentially; a failure on one is reported and the rest continue.
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	c, err := r.openCatalog()
	if err != nil {
		return err
	}
	defer c.Close()

	if err := c.settings.EnsureDefaults(); err != nil {
		return fmt.Errorf("failed to seed settings: %w", err)
	}

	var targets []*models.Playlist
	if id := cmd.String("id"); id != "" {
		playlist, err := c.playlists.Get(id)
		if err != nil {
			return err
		}
		targets = []*models.Playlist{playlist}
	} else {
		if targets, err = c.playlists.List(); err != nil {
			return fmt.Errorf("failed to list playlists: %w", err)
		}
	}

	if len(targets) == 0 {
		return r.writePlain("No playlists tracked\n")
	}

	eng := r.buildEngine(c)
	infoOnly := cmd.Bool("info-only")

	failed := 0
	for _, playlist := range targets {
		result, err := eng.reconciler.Reconcile(ctx, playlist.ID)
		if err != nil {
			r.logger.Error("reconciliation failed", "playlist", playlist.Name, "error", err)
			failed++
			continue
		}
		r.writePlain("%s: %d songs (+%d -%d, %d re-queued)\n",
			playlist.Name, result.Total, result.Added, result.Removed, result.Reset)

		if infoOnly {
			continue
		}
		if err := eng.executor.Execute(ctx, playlist.ID); err != nil {
			r.logger.Error("download pass failed", "playlist", playlist.Name, "error", err)
			failed++
		}
	}

	if failed > 0 {
		return fmt.Errorf("sync finished with %d failed playlist(s)", failed)
	}
	return nil
}
