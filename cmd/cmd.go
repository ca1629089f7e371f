// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func inputFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "input",
		Aliases: []string{"i"},
		Usage:   "Path to the Swinsian library XML (default: configured export folder)",
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
			Usage: "Pretty-print output",
			Value: true,
		},
	}
}

func playlistFlag() cli.Flag {
	return &cli.StringSliceFlag{
		Name:    "playlist",
		Aliases: []string{"p"},
		Usage:   "Playlist persistent ID to keep (repeatable; default keeps all)",
	}
}

// setupCommand writes the config template and prepares the history database
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Create the config file and history database",
		Commands: []*cli.Command{
			{
				Name:  "config",
				Usage: "Write config.toml from the built-in template",
				Flags: []cli.Flag{
					&cli.BoolFlag{
						Name:  "force",
						Usage: "Overwrite an existing config file",
					},
				},
				Action: r.SetupConfig,
			},
			{
				Name:  "database",
				Usage: "Initialize the history database and run migrations",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:  "path",
						Usage: "Database path (default: database.path from config)",
					},
					&cli.BoolFlag{
						Name:  "rollback",
						Usage: "Roll back the most recent migration instead",
					},
				},
				Action: r.SetupDatabase,
			},
		},
	}
}

// convertCommand converts a Swinsian export into a Music.app library
func convertCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "convert",
		Usage: "Convert a Swinsian export into a library rekordbox can import",
		Flags: []cli.Flag{
			inputFlag(),
			&cli.StringFlag{
				Name:    "folder",
				Aliases: []string{"f"},
				Usage:   "Swinsian export folder (skips the prompt)",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "Output file path (default: next to the input)",
			},
			&cli.BoolFlag{
				Name:    "non-interactive",
				Aliases: []string{"y"},
				Usage:   "Use the configured export folder without prompting",
			},
			playlistFlag(),
			&cli.BoolFlag{
				Name:  "pick",
				Usage: "Choose playlists interactively before converting",
			},
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "List every warning",
			},
		},
		Action: r.Convert,
		Commands: []*cli.Command{
			{
				Name:      "bulk",
				Usage:     "Convert the export in each folder concurrently",
				ArgsUsage: "<folder>...",
				Flags: append([]cli.Flag{
					playlistFlag(),
					&cli.IntFlag{
						Name:    "workers",
						Aliases: []string{"w"},
						Usage:   "Concurrent conversions (max 8)",
						Value:   4,
					},
				}, jsonFlags()...),
				Action: r.ConvertBulk,
			},
		},
	}
}

// libraryCommand inspects the source library
func libraryCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "library",
		Aliases: []string{"lib"},
		Usage:   "Inspect the Swinsian library",
		Commands: []*cli.Command{
			{
				Name:   "info",
				Usage:  "Show track and playlist counts, last modified date and audio folder",
				Flags:  append([]cli.Flag{inputFlag()}, jsonFlags()...),
				Action: r.LibraryInfo,
			},
			{
				Name:   "playlists",
				Usage:  "List visible playlists with their persistent IDs",
				Flags:  append([]cli.Flag{inputFlag()}, jsonFlags()...),
				Action: r.LibraryPlaylists,
			},
			{
				Name:  "export",
				Usage: "Export one playlist's tracks",
				Flags: []cli.Flag{
					inputFlag(),
					&cli.StringFlag{
						Name:     "id",
						Usage:    "Playlist persistent ID or name",
						Required: true,
					},
					&cli.StringFlag{
						Name:  "format",
						Usage: "Export format: csv, md, txt or json",
						Value: "csv",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Output path (default: derived from the persistent ID)",
					},
				},
				Action: r.LibraryExport,
			},
		},
	}
}

// verifyCommand checks a converted library
func verifyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "verify",
		Usage: "Check a converted library with an independent plist decoder",
		Arguments: []cli.Argument{
			&cli.StringArg{
				Name: "path",
			},
		},
		Flags:  jsonFlags(),
		Action: r.Verify,
	}
}

// historyCommand manages recorded conversions
func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show and manage recorded conversions",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "List recorded conversions, newest first",
				Flags: append([]cli.Flag{
					&cli.StringFlag{
						Name:  "status",
						Usage: "Only show conversions with this status (pending, running, completed, failed)",
					},
					&cli.IntFlag{
						Name:  "limit",
						Usage: "Maximum number of conversions to show",
						Value: 20,
					},
				}, jsonFlags()...),
				Action: r.HistoryList,
			},
			{
				Name:  "delete",
				Usage: "Delete a recorded conversion by ID or sequence number",
				Arguments: []cli.Argument{
					&cli.StringArg{
						Name: "id",
					},
				},
				Action: r.HistoryDelete,
			},
		},
	}
}

// serveCommand exposes the converter over HTTP
func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve library, playlists and conversion over HTTP",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "folder",
				Aliases: []string{"f"},
				Usage:   "Swinsian export folder (default: from config)",
			},
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host (default: server.host from config)",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Listen port (default: server.port from config)",
			},
			&cli.FloatFlag{
				Name:  "rate",
				Usage: "Conversions allowed per second (0 disables limiting)",
				Value: 1,
			},
		},
		Action: r.Serve,
	}
}

// tuiCommand launches the interactive playlist picker and converter
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "tui",
		Usage: "Pick playlists and convert in an interactive terminal UI",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "folder",
				Aliases: []string{"f"},
				Usage:   "Swinsian export folder (default: from config)",
			},
			playlistFlag(),
		},
		Action: r.TUI,
	}
}
