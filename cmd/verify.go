package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/libport/internal/shared"
	"github.com/desertthunder/libport/internal/ui"
	"github.com/urfave/cli/v3"
)

// Verify re-reads a converted library with an independent plist decoder and reports problems.
//
// Defaults to the configured output file in the export folder.
func (r *Runner) Verify(ctx context.Context, cmd *cli.Command) error {
	path := cmd.StringArg("path")
	if path == "" {
		path = r.config.Library.OutputPath(r.config.Library.ExportFolderPath())
	}
	path = shared.ExpandPath(path)

	report, err := r.engine.Verify(ctx, nil, path)
	if report == nil {
		return err
	}

	if cmd.Bool("json") {
		if werr := r.writeJSON(report, cmd.Bool("pretty")); werr != nil {
			return werr
		}
		return err
	}

	r.writePlainHeader("Verify")
	r.writePlain("File: %s\n", report.Path)
	r.writePlain("Format: %s\n", report.Format)
	r.writePlain("Tracks: %d\n", report.Tracks)
	if report.Skipped > 0 {
		r.writePlain("Skipped records: %d (missing identity fields)\n", report.Skipped)
	}
	r.writePlain("Playlists: %d (%d items)\n", report.Playlists, report.PlaylistItems)
	if report.LegacyDoctype {
		r.writePlain("DOCTYPE: Apple Computer\n")
	} else {
		r.writePlain("%s\n", ui.Warning("DOCTYPE: Apple (rekordbox expects Apple Computer)"))
	}

	if report.OK() {
		r.writePlain("%s\n", ui.Success("✓ Library is readable by Music.app importers"))
		return nil
	}

	r.writePlain("%s\n", ui.Failure(fmt.Sprintf("✗ %d problems", len(report.Problems))))
	for _, p := range report.Problems {
		r.writePlain("  - %s\n", p)
	}
	if errors.Is(err, shared.ErrVerificationFailed) {
		return err
	}
	return fmt.Errorf("%w: %s", shared.ErrVerificationFailed, path)
}
