package models

import (
	"fmt"
	"strings"
	"time"
)

// Conversion job statuses.
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusFailed    = "failed"
)

var validStatuses = map[string]bool{
	StatusPending:   true,
	StatusRunning:   true,
	StatusCompleted: true,
	StatusFailed:    true,
}

// ConversionJob records one run of the converter: where it read from and wrote to, how many records it
// handled and how it ended.
type ConversionJob struct {
	id                string
	sequence          int
	inputPath         string
	outputPath        string
	status            string
	tracksTotal       int
	tracksConverted   int
	tracksSkipped     int
	playlistsTotal    int
	playlistsKept     int
	selectedPlaylists []string
	warnings          int
	errorMessage      string
	startedAt         *time.Time
	completedAt       *time.Time
	createdAt         time.Time
	updatedAt         time.Time
	deletedAt         *time.Time
}

// NewConversionJob creates a pending job for the given paths.
func NewConversionJob(sequence int, inputPath, outputPath string) *ConversionJob {
	now := time.Now()
	return &ConversionJob{
		sequence:   sequence,
		inputPath:  inputPath,
		outputPath: outputPath,
		status:     StatusPending,
		createdAt:  now,
		updatedAt:  now,
	}
}

func (c *ConversionJob) ID() string                  { return c.id }
func (c *ConversionJob) Sequence() int               { return c.sequence }
func (c *ConversionJob) InputPath() string           { return c.inputPath }
func (c *ConversionJob) OutputPath() string          { return c.outputPath }
func (c *ConversionJob) Status() string              { return c.status }
func (c *ConversionJob) TracksTotal() int            { return c.tracksTotal }
func (c *ConversionJob) TracksConverted() int        { return c.tracksConverted }
func (c *ConversionJob) TracksSkipped() int          { return c.tracksSkipped }
func (c *ConversionJob) PlaylistsTotal() int         { return c.playlistsTotal }
func (c *ConversionJob) PlaylistsKept() int          { return c.playlistsKept }
func (c *ConversionJob) SelectedPlaylists() []string { return c.selectedPlaylists }
func (c *ConversionJob) Warnings() int               { return c.warnings }
func (c *ConversionJob) ErrorMessage() string        { return c.errorMessage }
func (c *ConversionJob) StartedAt() *time.Time       { return c.startedAt }
func (c *ConversionJob) CompletedAt() *time.Time     { return c.completedAt }
func (c *ConversionJob) CreatedAt() time.Time        { return c.createdAt }
func (c *ConversionJob) UpdatedAt() time.Time        { return c.updatedAt }
func (c *ConversionJob) DeletedAt() *time.Time       { return c.deletedAt }

func (c *ConversionJob) SetID(id string)                   { c.id = id }
func (c *ConversionJob) SetSequence(n int)                 { c.sequence = n }
func (c *ConversionJob) SetStatus(status string)           { c.status = status }
func (c *ConversionJob) SetTracksTotal(n int)              { c.tracksTotal = n }
func (c *ConversionJob) SetTracksConverted(n int)          { c.tracksConverted = n }
func (c *ConversionJob) SetTracksSkipped(n int)            { c.tracksSkipped = n }
func (c *ConversionJob) SetPlaylistsTotal(n int)           { c.playlistsTotal = n }
func (c *ConversionJob) SetPlaylistsKept(n int)            { c.playlistsKept = n }
func (c *ConversionJob) SetSelectedPlaylists(ids []string) { c.selectedPlaylists = ids }
func (c *ConversionJob) SetWarnings(n int)                 { c.warnings = n }
func (c *ConversionJob) SetErrorMessage(msg string)        { c.errorMessage = msg }
func (c *ConversionJob) SetStartedAt(t *time.Time)         { c.startedAt = t }
func (c *ConversionJob) SetCompletedAt(t *time.Time)       { c.completedAt = t }
func (c *ConversionJob) SetCreatedAt(t time.Time)          { c.createdAt = t }
func (c *ConversionJob) SetUpdatedAt(t time.Time)          { c.updatedAt = t }
func (c *ConversionJob) SetDeletedAt(t *time.Time)         { c.deletedAt = t }

// Start marks the job as running.
func (c *ConversionJob) Start() {
	now := time.Now()
	c.status = StatusRunning
	c.startedAt = &now
}

// Complete marks the job as finished successfully.
func (c *ConversionJob) Complete() {
	now := time.Now()
	c.status = StatusCompleted
	c.completedAt = &now
}

// Fail marks the job as failed with err.
func (c *ConversionJob) Fail(err error) {
	now := time.Now()
	c.status = StatusFailed
	c.completedAt = &now
	if err != nil {
		c.errorMessage = err.Error()
	}
}

// Duration returns how long the job ran, or zero if it has not finished.
func (c *ConversionJob) Duration() time.Duration {
	if c.startedAt == nil || c.completedAt == nil {
		return 0
	}
	return c.completedAt.Sub(*c.startedAt)
}

// EncodeSelection joins playlist IDs for storage. Persistent IDs never contain commas.
func EncodeSelection(ids []string) string {
	return strings.Join(ids, ",")
}

// DecodeSelection splits a stored selection.
func DecodeSelection(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ",")
}

// Validate checks paths, status and counts.
func (c *ConversionJob) Validate() error {
	if c.inputPath == "" {
		return fmt.Errorf("input path is required")
	}
	if c.outputPath == "" {
		return fmt.Errorf("output path is required")
	}
	if !validStatuses[c.status] {
		return fmt.Errorf("invalid status: %s", c.status)
	}
	if c.tracksTotal < 0 || c.tracksConverted < 0 || c.tracksSkipped < 0 {
		return fmt.Errorf("track counts must not be negative")
	}
	if c.tracksConverted+c.tracksSkipped > c.tracksTotal {
		return fmt.Errorf("converted (%d) and skipped (%d) tracks exceed total (%d)", c.tracksConverted, c.tracksSkipped, c.tracksTotal)
	}
	if c.playlistsKept > c.playlistsTotal {
		return fmt.Errorf("kept playlists (%d) exceed total (%d)", c.playlistsKept, c.playlistsTotal)
	}
	return nil
}

var _ Model = (*ConversionJob)(nil)
