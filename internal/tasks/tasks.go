// package tasks implements library conversion operations.
//
// The core abstraction is ConversionEngine, which orchestrates single and bulk conversions and verification.
// Operations emit progress updates via channels for non-blocking status reporting to CLI/UI layers.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/time/rate"

	"github.com/desertthunder/libport/internal/models"
	"github.com/desertthunder/libport/internal/plist"
	"github.com/desertthunder/libport/internal/shared"
	"github.com/desertthunder/libport/internal/xmlfix"
)

// SerializeOptions controls how a library is rendered.
type SerializeOptions struct {
	Indent      string         // Indentation per nesting level
	PostProcess xmlfix.Options // Byte-level fixups applied after encoding
}

// DefaultSerializeOptions indents with tabs and enables every fixup.
func DefaultSerializeOptions() SerializeOptions {
	return SerializeOptions{Indent: "\t", PostProcess: xmlfix.DefaultOptions()}
}

// SerializeOptionsFromConfig builds options from the [output] config section.
func SerializeOptionsFromConfig(c shared.OutputConfig) SerializeOptions {
	opts := SerializeOptions{
		Indent: c.Indent,
		PostProcess: xmlfix.Options{
			FixDoctype: c.FixDoctype,
			Collapse:   c.Collapse,
			ReEncode:   c.ReencodeEntities,
		},
	}
	if opts.Indent == "" {
		opts.Indent = "\t"
	}
	return opts
}

// Load reads and decodes the library at path.
func Load(path string, logger shared.Logger) (*models.Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", shared.ErrInputNotFound, path)
		}
		return nil, fmt.Errorf("failed to read library: %w", err)
	}
	return Parse(data, logger)
}

// Parse decodes a library document held in memory.
func Parse(data []byte, logger shared.Logger) (*models.Library, error) {
	root, err := plist.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrParse, err)
	}
	lib, err := models.NewLibrary(root, logger)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrParse, err)
	}
	return lib, nil
}

// Serialize renders lib as a property list document and applies the configured fixups.
func Serialize(lib *models.Library, opts SerializeOptions) ([]byte, error) {
	out, err := plist.Encode(lib.Root(), plist.EncodeOptions{Indent: opts.Indent})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrSerialize, err)
	}
	return []byte(xmlfix.Apply(string(out), opts.PostProcess)), nil
}

// CheckPaths verifies that input is an existing file and that the directory of output exists.
func CheckPaths(input, output string) error {
	info, err := os.Stat(input)
	if err != nil {
		return fmt.Errorf("%w: %s", shared.ErrInputNotFound, input)
	}
	if info.IsDir() {
		return fmt.Errorf("%w: %s is a directory", shared.ErrInputNotFound, input)
	}

	dir := filepath.Dir(output)
	info, err = os.Stat(dir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("%w: %s", shared.ErrOutputDirNotFound, dir)
	}
	return nil
}

// WriteFileAtomic writes data to a temporary file next to path and renames it into place, so readers never
// observe a partial file.
func WriteFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("%w: %w", shared.ErrWriteOutput, err)
	}
	tmpPath := tmp.Name()

	cleanup := func(err error) error {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %w", shared.ErrWriteOutput, err)
	}

	if _, err := tmp.Write(data); err != nil {
		return cleanup(err)
	}
	if err := tmp.Sync(); err != nil {
		return cleanup(err)
	}
	if err := tmp.Chmod(0644); err != nil {
		return cleanup(err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %w", shared.ErrWriteOutput, err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("%w: %w", shared.ErrWriteOutput, err)
	}
	return nil
}

// HistoryRecorder persists conversion runs.
//
// Implemented by repositories.ConversionRepository.
type HistoryRecorder interface {
	Create(job *models.ConversionJob) error
	Update(job *models.ConversionJob) error
}

// RunOpts describes a single conversion.
type RunOpts struct {
	InputPath           string           // Source library file
	OutputPath          string           // Destination file; its directory must exist
	SelectedPlaylistIDs []string         // Playlist persistent IDs to keep; empty keeps all
	Serialize           SerializeOptions // Zero value means [DefaultSerializeOptions]
}

// RunResult contains all data from a single conversion.
type RunResult struct {
	InputPath    string                // Source library file
	OutputPath   string                // Written file
	Source       models.Summary        // Summary of the source library
	Conversion   *Conversion           // Counts and warnings
	BytesWritten int                   // Size of the output document
	Job          *models.ConversionJob // History record, nil without a recorder
	Duration     time.Duration         // Wall time of the run
}

// ConversionEngine defines library conversion operations.
type ConversionEngine interface {
	// Run converts one library file and writes the result.
	Run(ctx context.Context, progress chan<- ProgressUpdate, opts RunOpts) (*RunResult, error)

	// BulkConvert converts the export in each folder concurrently.
	BulkConvert(ctx context.Context, progress chan<- ProgressUpdate, folders []string, opts BulkConvertOpts) (*BulkConvertResult, error)

	// Verify re-reads a converted library and reports structural problems.
	Verify(ctx context.Context, progress chan<- ProgressUpdate, path string) (*VerifyReport, error)
}

// Engine implements ConversionEngine.
type Engine struct {
	logger  shared.Logger
	history HistoryRecorder

	// trackUpdateInterval bounds how often per-track progress is sent.
	trackUpdateInterval time.Duration
}

// NewEngine creates an Engine. history may be nil to disable recording.
func NewEngine(logger shared.Logger, history HistoryRecorder) *Engine {
	if logger == nil {
		logger = shared.NopLogger()
	}
	return &Engine{logger: logger, history: history, trackUpdateInterval: 100 * time.Millisecond}
}

var _ ConversionEngine = (*Engine)(nil)

// sendProgress sends a progress update through the channel without blocking.
// Uses select with default to ensure progress reporting never blocks execution.
func (e *Engine) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Run performs a full Swinsian → Music.app conversion.
//
// Paths are checked before any parsing. The output file is only replaced once the whole document has been
// rendered, so a failed run leaves no partial output behind.
func (e *Engine) Run(ctx context.Context, progress chan<- ProgressUpdate, opts RunOpts) (*RunResult, error) {
	start := time.Now()
	if opts.Serialize == (SerializeOptions{}) {
		opts.Serialize = DefaultSerializeOptions()
	}

	e.sendProgress(progress, checkPathsUpdate(opts.InputPath, opts.OutputPath))
	if err := CheckPaths(opts.InputPath, opts.OutputPath); err != nil {
		return nil, err
	}

	result := &RunResult{InputPath: opts.InputPath, OutputPath: opts.OutputPath}
	result.Job = e.startJob(opts)

	fail := func(err error) (*RunResult, error) {
		e.finishJob(result.Job, result.Conversion, err)
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	e.sendProgress(progress, loadingLibraryUpdate(opts.InputPath))
	src, err := Load(opts.InputPath, e.logger)
	if err != nil {
		return fail(err)
	}
	result.Source = src.Summarize()
	e.sendProgress(progress, loadedLibraryUpdate(result.Source))

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	converter := NewConverter(e.logger)
	sometimes := rate.Sometimes{First: 1, Every: 250, Interval: e.trackUpdateInterval}
	converter.OnTrack = func(step, total int, t models.Track) {
		sometimes.Do(func() {
			e.sendProgress(progress, convertTrackUpdate(step, total, &t))
		})
	}

	e.sendProgress(progress, convertTrackUpdate(0, result.Source.TotalTracks, nil))
	e.sendProgress(progress, filterPlaylistsUpdate(len(opts.SelectedPlaylistIDs)))
	result.Conversion = converter.Convert(src, opts.SelectedPlaylistIDs)
	e.sendProgress(progress, convertTrackUpdate(result.Conversion.TracksConverted, result.Conversion.TracksTotal, nil))

	e.logger.Info("converted library",
		"tracks", result.Conversion.TracksConverted,
		"skipped", result.Conversion.TracksSkipped,
		"playlists", result.Conversion.PlaylistsKept,
		"warnings", len(result.Conversion.Warnings),
	)

	if err := ctx.Err(); err != nil {
		return fail(err)
	}

	e.sendProgress(progress, serializeUpdate(0))
	data, err := Serialize(result.Conversion.Library, opts.Serialize)
	if err != nil {
		return fail(err)
	}
	e.sendProgress(progress, serializeUpdate(1))

	if err := WriteFileAtomic(opts.OutputPath, data); err != nil {
		return fail(err)
	}
	result.BytesWritten = len(data)
	result.Duration = time.Since(start)
	e.sendProgress(progress, writeOutputUpdate(opts.OutputPath, len(data)))

	e.finishJob(result.Job, result.Conversion, nil)
	return result, nil
}

func (e *Engine) startJob(opts RunOpts) *models.ConversionJob {
	if e.history == nil {
		return nil
	}

	job := models.NewConversionJob(0, opts.InputPath, opts.OutputPath)
	job.SetSelectedPlaylists(opts.SelectedPlaylistIDs)
	job.Start()

	if err := e.history.Create(job); err != nil {
		e.logger.Warn("failed to record conversion", "error", err)
		return nil
	}
	return job
}

func (e *Engine) finishJob(job *models.ConversionJob, conv *Conversion, err error) {
	if job == nil {
		return
	}

	if conv != nil {
		job.SetTracksTotal(conv.TracksTotal)
		job.SetTracksConverted(conv.TracksConverted)
		job.SetTracksSkipped(conv.TracksSkipped)
		job.SetPlaylistsTotal(conv.PlaylistsTotal)
		job.SetPlaylistsKept(conv.PlaylistsKept)
		job.SetWarnings(len(conv.Warnings))
	}

	if err != nil {
		job.Fail(err)
	} else {
		job.Complete()
	}

	if err := e.history.Update(job); err != nil {
		e.logger.Warn("failed to update conversion record", "id", job.ID(), "error", err)
	}
}
