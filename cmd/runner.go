package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/libport/internal/repositories"
	"github.com/desertthunder/libport/internal/shared"
	"github.com/desertthunder/libport/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	logger     *log.Logger
	output     io.Writer
	engine     tasks.ConversionEngine

	// injected is set when the engine came from RunnerOpts and must not be replaced.
	injected bool
	history  *sql.DB
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Logger     *log.Logger
	Output     io.Writer
	Engine     tasks.ConversionEngine
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		logger:     opts.Logger,
		output:     opts.Output,
		engine:     opts.Engine,
		injected:   opts.Engine != nil,
	}
	if r.engine == nil {
		r.engine = tasks.NewEngine(r.logger, nil)
	}
	return r
}

// SetLogger replaces the logger, rebuilding the default engine so it logs to the same place.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
	if !r.injected {
		r.engine = tasks.NewEngine(logger, r.recorder())
	}
}

func (r *Runner) recorder() tasks.HistoryRecorder {
	if r.history == nil {
		return nil
	}
	return repositories.NewConversionRepository(r.history)
}

// openHistory connects the engine to the conversion history database when record_history is enabled.
//
// Failing to open the database is logged and conversion continues unrecorded.
func (r *Runner) openHistory() {
	if r.injected || r.history != nil || !r.config.Database.RecordHistory {
		return
	}

	db, err := shared.OpenHistory(r.config.Database)
	if err != nil {
		r.logger.Warn("conversion history disabled", "path", r.config.Database.Path, "error", err)
		return
	}

	r.history = db
	r.engine = tasks.NewEngine(r.logger, r.recorder())
}

// Close releases the history database, if one was opened.
func (r *Runner) Close() error {
	if r.history == nil {
		return nil
	}
	err := r.history.Close()
	r.history = nil
	return err
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, convertCommand, libraryCommand, verifyCommand, historyCommand, serveCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
