// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// setupCommand initializes the database, migrations, and default settings.
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize database, run migrations, and seed default settings",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to configuration file",
				Value:   "config.toml",
			},
		},
		Action: r.Setup,
	}
}

// serveCommand runs the sync daemon with the HTTP API.
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the sync daemon and HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Host to bind (overrides config)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Port to bind (overrides config)",
			},
		},
		Action: r.Serve,
	}
}

// playlistCommand handles playlist catalog operations
func playlistCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "playlist",
		Aliases: []string{"pl"},
		Usage:   "Manage tracked playlists",
		Commands: []*cli.Command{
			{
				Name:  "add",
				Usage: "Track a playlist and run its first sync",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "url",
					},
				},
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:    "name",
						Aliases: []string{"n"},
						Usage:   "Display name (defaults to the remote title)",
					},
				},
				Action: r.PlaylistAdd,
			},
			{
				Name:    "list",
				Aliases: []string{"ls"},
				Usage:   "List tracked playlists with download progress",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "json",
						Usage: "Output raw JSON",
					},
					&cli.BoolFlag{
						Name:  "pretty",
						Usage: "Pretty-print output",
						Value: true,
					},
				},
				Action: r.PlaylistList,
			},
			{
				Name:    "remove",
				Aliases: []string{"rm"},
				Usage:   "Stop tracking a playlist and drop its orphaned songs",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Playlist ID to remove",
						Required: true,
					},
				},
				Action: r.PlaylistRemove,
			},
			{
				Name:  "rename",
				Usage: "Rename a tracked playlist",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Playlist ID to rename",
						Required: true,
					},
					&cli.StringFlag{
						Name:     "name",
						Usage:    "New display name",
						Required: true,
					},
				},
				Action: r.PlaylistRename,
			},
		},
	}
}

// syncCommand runs a one-shot reconcile+download pass.
func syncCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sync",
		Usage: "Reconcile and download playlists once, then exit",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "id",
				Usage: "Sync only this playlist",
			},
			&cli.BoolFlag{
				Name:  "info-only",
				Usage: "Reconcile without downloading",
			},
		},
		Action: r.Sync,
	}
}

// settingsCommand handles engine settings
func settingsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "settings",
		Usage: "Inspect and change engine settings",
		Commands: []*cli.Command{
			{
				Name:  "get",
				Usage: "Print one setting, or all when no key is given",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "key",
					},
				},
				Action: r.SettingsGet,
			},
			{
				Name:  "set",
				Usage: "Set a setting value",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "key",
					},
					&cli.StringArg{
						Name: "value",
					},
				},
				Action: r.SettingsSet,
			},
		},
	}
}
