package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/libport/internal/shared"
	"github.com/desertthunder/libport/internal/tasks"
	"github.com/desertthunder/libport/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI for picking playlists and converting.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	folder := r.config.Library.ExportFolderPath()
	if f := cmd.String("folder"); f != "" {
		folder = shared.ExpandPath(f)
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger("./tmp/libport-tui.log")
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	shared.SetLogLevel(fileLogger, r.logger.GetLevel())
	r.SetLogger(fileLogger)
	r.openHistory()

	opts := tasks.RunOpts{
		InputPath:           r.config.Library.InputPath(folder),
		OutputPath:          r.config.Library.OutputPath(folder),
		SelectedPlaylistIDs: cmd.StringSlice("playlist"),
		Serialize:           tasks.SerializeOptionsFromConfig(r.config.Output),
	}

	model := ui.NewModel(ctx, r.engine, opts, fileLogger)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	if err := model.Err(); err != nil {
		return err
	}
	if res := model.Result(); res != nil {
		r.writeRunSummary(res, false)
	}
	return nil
}
