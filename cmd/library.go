package main

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/desertthunder/libport/internal/formatter"
	"github.com/desertthunder/libport/internal/models"
	"github.com/desertthunder/libport/internal/shared"
	"github.com/desertthunder/libport/internal/tasks"
	"github.com/urfave/cli/v3"
)

// libraryPath returns the --input flag or the configured source library.
func (r *Runner) libraryPath(cmd *cli.Command) string {
	if input := cmd.String("input"); input != "" {
		return shared.ExpandPath(input)
	}
	return r.config.Library.InputPath(r.config.Library.ExportFolderPath())
}

// LibraryInfo prints a summary of the source library.
func (r *Runner) LibraryInfo(ctx context.Context, cmd *cli.Command) error {
	path := r.libraryPath(cmd)
	lib, err := tasks.Load(path, r.logger)
	if err != nil {
		return err
	}

	summary := lib.Summarize()
	if cmd.Bool("json") {
		return r.writeJSON(summary, cmd.Bool("pretty"))
	}

	meta := lib.Metadata()
	r.writePlainHeader("Library")
	r.writePlain("File: %s\n", path)
	if meta.ApplicationVersion != "" {
		r.writePlain("Application version: %s\n", meta.ApplicationVersion)
	}
	r.writePlain("Tracks: %d\n", summary.TotalTracks)
	r.writePlain("Playlists: %d\n", summary.TotalPlaylists)
	if !summary.LastModified.IsZero() {
		r.writePlain("Last modified: %s\n", summary.LastModified.Local().Format("2006-01-02 15:04:05"))
	}
	if summary.AudioFolder != "" {
		r.writePlain("Audio folder: %s\n", summary.AudioFolder)
	}

	if issues := lib.Validate(); len(issues) > 0 {
		r.writePlainln("%d tracks will be skipped:", len(issues))
		for _, issue := range issues {
			r.writePlain("  - %v\n", issue)
		}
	}
	return nil
}

// LibraryPlaylists lists visible playlists as a tree, children indented under their folder.
func (r *Runner) LibraryPlaylists(ctx context.Context, cmd *cli.Command) error {
	lib, err := tasks.Load(r.libraryPath(cmd), r.logger)
	if err != nil {
		return err
	}

	playlists := slices.Collect(lib.VisiblePlaylists())
	if cmd.Bool("json") {
		return r.writeJSON(playlists, cmd.Bool("pretty"))
	}

	if len(playlists) == 0 {
		r.writePlain("No playlists found\n")
		return nil
	}

	depths := models.PlaylistDepths(playlists)
	for _, p := range playlists {
		indent := strings.Repeat("  ", depths[p.PersistentID])
		if p.IsFolder() {
			r.writePlain("%s%s/  [%s]\n", indent, p.Name, p.PersistentID)
			continue
		}
		r.writePlain("%s%s (%d tracks)  [%s]\n", indent, p.Name, len(p.Items), p.PersistentID)
	}
	return nil
}

// LibraryExport writes one playlist's tracks as csv, md, txt or json.
func (r *Runner) LibraryExport(ctx context.Context, cmd *cli.Command) error {
	lib, err := tasks.Load(r.libraryPath(cmd), r.logger)
	if err != nil {
		return err
	}

	export, err := findExport(lib, cmd.String("id"))
	if err != nil {
		return err
	}

	output := cmd.String("output")
	switch format := strings.ToLower(cmd.String("format")); format {
	case "csv":
		result, err := formatter.WriteCSVExport(export, output)
		if err != nil {
			return err
		}
		r.writePlain("✓ Exported %d tracks to %s\n", len(export.Tracks), result.TracksFile)
		r.writePlain("  Metadata: %s\n", result.MetadataFile)
	case "md", "markdown":
		result, err := formatter.WriteMarkdownExport(export, output)
		if err != nil {
			return err
		}
		r.writePlain("✓ Exported %d tracks to %s\n", len(export.Tracks), result.Directory)
		for _, f := range result.Files {
			r.writePlain("  %s\n", f)
		}
	case "txt", "text":
		path, err := formatter.WriteTextExport(export, output)
		if err != nil {
			return err
		}
		r.writePlain("✓ Exported %d tracks to %s\n", len(export.Tracks), path)
	case "json":
		path, err := formatter.WriteJSONExport(export, output)
		if err != nil {
			return err
		}
		r.writePlain("✓ Exported %d tracks to %s\n", len(export.Tracks), path)
	default:
		return fmt.Errorf("%w: unknown format %q (use csv, md, txt or json)", shared.ErrInvalidFlag, format)
	}

	r.logger.Info("playlist exported", "playlist", export.Playlist.Name, "tracks", len(export.Tracks))
	return nil
}

// findExport resolves a playlist by persistent ID, falling back to a case-insensitive name match.
func findExport(lib *models.Library, idOrName string) (*models.PlaylistExport, error) {
	if idOrName == "" {
		return nil, fmt.Errorf("%w: --id is required", shared.ErrMissingArgument)
	}

	export, err := lib.ExportPlaylist(idOrName)
	if err == nil || !errors.Is(err, shared.ErrPlaylistNotFound) {
		return export, err
	}

	for p := range lib.VisiblePlaylists() {
		if strings.EqualFold(p.Name, idOrName) {
			return lib.ExportPlaylist(p.PersistentID)
		}
	}
	return nil, err
}
