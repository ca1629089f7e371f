package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/libport/internal/shared"
	"github.com/desertthunder/libport/internal/tasks"
	"github.com/desertthunder/libport/internal/ui"
)

// errCancelled is returned when the user backs out of a prompt.
var errCancelled = errors.New("cancelled")

// Convert converts one Swinsian export into a Music.app library.
func (r *Runner) Convert(ctx context.Context, cmd *cli.Command) error {
	input, output, err := r.resolvePaths(cmd)
	if errors.Is(err, errCancelled) {
		r.writePlain("Cancelled.\n")
		return nil
	} else if err != nil {
		return err
	}

	ids := cmd.StringSlice("playlist")
	if cmd.Bool("pick") {
		if ids, err = r.pickPlaylists(ctx, input, ids); errors.Is(err, errCancelled) {
			r.writePlain("Cancelled.\n")
			return nil
		} else if err != nil {
			return err
		}
	}

	r.openHistory()

	opts := tasks.RunOpts{
		InputPath:           input,
		OutputPath:          output,
		SelectedPlaylistIDs: ids,
		Serialize:           tasks.SerializeOptionsFromConfig(r.config.Output),
	}

	r.logger.Info("starting conversion", "input", input, "output", output, "playlists", len(ids))
	r.writePlain("Converting library...\n")
	r.writePlain("Input: %s\n", input)
	r.writePlain("Output: %s\n\n", output)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			switch update.Phase {
			case tasks.LoadLibrary, tasks.FilterPlaylists, tasks.WriteOutput:
				r.writePlain("  %s\n", update.Message)
			case tasks.ConvertTracks:
				r.logger.Debug(update.Message, "step", update.Step, "total", update.Total)
			}
		}
	}()

	result, err := r.engine.Run(ctx, progressCh, opts)
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	r.writeRunSummary(result, cmd.Bool("verbose"))
	return nil
}

// ConvertBulk converts the export in each folder argument concurrently.
func (r *Runner) ConvertBulk(ctx context.Context, cmd *cli.Command) error {
	folders := cmd.Args().Slice()
	if len(folders) == 0 {
		return fmt.Errorf("%w: at least one export folder is required", shared.ErrMissingArgument)
	}
	for i, folder := range folders {
		folders[i] = shared.ExpandPath(folder)
	}

	r.openHistory()

	opts := tasks.BulkConvertOpts{
		Library:             r.config.Library,
		SelectedPlaylistIDs: cmd.StringSlice("playlist"),
		Serialize:           tasks.SerializeOptionsFromConfig(r.config.Output),
		NumWorkers:          int(cmd.Int("workers")),
	}

	r.logger.Info("starting bulk conversion", "folders", len(folders), "workers", opts.NumWorkers)

	asJSON := cmd.Bool("json")
	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			if update.Phase != tasks.BulkConvert {
				continue
			}
			// stdout carries only the JSON document
			if asJSON {
				r.logger.Debug("bulk progress", "step", update.Step, "total", update.Total, "message", update.Message)
				continue
			}
			r.writePlain("%s\n", update.Message)
		}
	}()

	result, err := r.engine.BulkConvert(ctx, progressCh, folders, opts)
	close(progressCh)
	<-done

	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(bulkSummary(result), cmd.Bool("pretty"))
	}

	r.writePlain("\n")
	r.writePlainHeader("Bulk Conversion Complete")
	r.writePlain("Folders: %d\n", result.TotalFolders)
	r.writePlain("%s\n", ui.Success(fmt.Sprintf("Succeeded: %d", result.Succeeded)))
	if result.Failed > 0 {
		r.writePlain("%s\n", ui.Failure(fmt.Sprintf("Failed: %d", result.Failed)))
		for _, res := range result.Results {
			if !res.Success {
				r.writePlain("  - %s: %v\n", res.Folder, res.Error)
			}
		}
		return fmt.Errorf("%d of %d conversions failed", result.Failed, result.TotalFolders)
	}
	return nil
}

type folderSummary struct {
	Folder     string `json:"folder"`
	Success    bool   `json:"success"`
	Error      string `json:"error,omitempty"`
	OutputPath string `json:"outputPath,omitempty"`
	Tracks     int    `json:"tracksConverted"`
	Playlists  int    `json:"playlistsKept"`
	Warnings   int    `json:"warnings"`
}

func bulkSummary(result *tasks.BulkConvertResult) map[string]any {
	folders := make([]folderSummary, 0, len(result.Results))
	for _, res := range result.Results {
		s := folderSummary{Folder: res.Folder, Success: res.Success}
		if res.Error != nil {
			s.Error = res.Error.Error()
		}
		if res.Result != nil {
			s.OutputPath = res.Result.OutputPath
			s.Tracks = res.Result.Conversion.TracksConverted
			s.Playlists = res.Result.Conversion.PlaylistsKept
			s.Warnings = len(res.Result.Conversion.Warnings)
		}
		folders = append(folders, s)
	}
	return map[string]any{
		"total":     result.TotalFolders,
		"succeeded": result.Succeeded,
		"failed":    result.Failed,
		"folders":   folders,
	}
}

func (r *Runner) writeRunSummary(result *tasks.RunResult, verbose bool) {
	conv := result.Conversion

	r.writePlain("\n")
	r.writePlainHeader("Conversion Complete!")
	r.writePlain("Output: %s (%d bytes)\n", result.OutputPath, result.BytesWritten)
	r.writePlain("%s\n", ui.Success(fmt.Sprintf("Tracks converted: %d/%d", conv.TracksConverted, conv.TracksTotal)))
	if conv.TracksSkipped > 0 {
		r.writePlain("%s\n", ui.Warning(fmt.Sprintf("Tracks skipped: %d", conv.TracksSkipped)))
	}
	r.writePlain("Playlists kept: %d/%d\n", conv.PlaylistsKept, conv.PlaylistsTotal)
	r.writePlain("Took: %s\n", result.Duration.Round(time.Millisecond))
	if result.Job != nil {
		r.writePlain("%s\n", ui.Muted(fmt.Sprintf("Recorded as conversion #%d", result.Job.Sequence())))
	}

	if len(conv.Warnings) == 0 {
		return
	}

	r.writePlain("\n%s\n", ui.Warning(fmt.Sprintf("%d warnings", len(conv.Warnings))))
	limit := 10
	if verbose {
		limit = len(conv.Warnings)
	}
	for i, w := range conv.Warnings {
		if i == limit {
			r.writePlain("  ... %d more (use --verbose to list all)\n", len(conv.Warnings)-limit)
			break
		}
		r.writePlain("  - %v\n", w)
	}
}

// resolvePaths works out the input and output files from flags, the config and, on a terminal, a folder prompt.
func (r *Runner) resolvePaths(cmd *cli.Command) (input, output string, err error) {
	if input = cmd.String("input"); input != "" {
		input = shared.ExpandPath(input)
		if output = cmd.String("output"); output == "" {
			output = r.config.Library.OutputPath(filepath.Dir(input))
		}
		return input, shared.ExpandPath(output), nil
	}

	folder := cmd.String("folder")
	if folder == "" {
		folder = r.config.Library.ExportFolderPath()
		if !cmd.Bool("non-interactive") && isatty.IsTerminal(os.Stdin.Fd()) {
			if folder, err = promptFolder(folder); err != nil {
				return "", "", err
			}
		}
	}
	folder = shared.ExpandPath(folder)

	input = r.config.Library.InputPath(folder)
	if output = cmd.String("output"); output == "" {
		output = r.config.Library.OutputPath(folder)
	}
	return input, shared.ExpandPath(output), nil
}

func promptFolder(def string) (string, error) {
	prompt := &survey.Input{
		Message: "Swinsian export folder:",
		Default: def,
		Help:    "The folder Swinsian exported SwinsianLibrary.xml into.",
	}

	var folder string
	err := survey.AskOne(prompt, &folder, survey.WithValidator(survey.Required))
	if errors.Is(err, terminal.InterruptErr) {
		return "", errCancelled
	} else if err != nil {
		return "", fmt.Errorf("%w: %v", shared.ErrInvalidInput, err)
	}
	return folder, nil
}

// pickPlaylists loads the library and runs the playlist picker, starting from preselected.
func (r *Runner) pickPlaylists(ctx context.Context, input string, preselected []string) ([]string, error) {
	lib, err := tasks.Load(input, r.logger)
	if err != nil {
		return nil, err
	}

	picker := ui.NewPicker(ctx, lib, preselected)
	if _, err := tea.NewProgram(picker, tea.WithContext(ctx)).Run(); err != nil {
		return nil, fmt.Errorf("error running playlist picker: %w", err)
	}
	if !picker.Confirmed() {
		return nil, errCancelled
	}

	ids := picker.Selected()
	r.logger.Info("playlists selected", "count", len(ids))
	return ids, nil
}
