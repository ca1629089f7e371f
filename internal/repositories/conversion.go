package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/libport/internal/models"
	"github.com/desertthunder/libport/internal/shared"
)

// ConversionRepository implements models.Repository[*models.ConversionJob] for conversion history.
//
// Handles conversion job CRUD operations with soft delete support and status-based queries.
type ConversionRepository struct {
	db *sql.DB
}

// NewConversionRepository creates a new ConversionRepository with the given database connection
func NewConversionRepository(db *sql.DB) *ConversionRepository {
	return &ConversionRepository{db: db}
}

const conversionColumns = `
	id, sequence, input_path, output_path, status, tracks_total,
	tracks_converted, tracks_skipped, playlists_total, playlists_kept,
	selected_playlists, warnings, error_message, started_at,
	completed_at, created_at, updated_at, deleted_at
`

// Create inserts a new conversion job into the database with generated ID and sequence
func (r *ConversionRepository) Create(job *models.ConversionJob) error {
	if err := job.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	sequence, err := NextSequence(r.db, "conversions")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	id := shared.GenerateID()

	query := `
		INSERT INTO conversions (
			id, sequence, input_path, output_path, status, tracks_total,
			tracks_converted, tracks_skipped, playlists_total, playlists_kept,
			selected_playlists, warnings, error_message, started_at,
			completed_at, created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query,
		id,
		sequence,
		job.InputPath(),
		job.OutputPath(),
		job.Status(),
		job.TracksTotal(),
		job.TracksConverted(),
		job.TracksSkipped(),
		job.PlaylistsTotal(),
		job.PlaylistsKept(),
		models.EncodeSelection(job.SelectedPlaylists()),
		job.Warnings(),
		nullString(job.ErrorMessage()),
		job.StartedAt(),
		job.CompletedAt(),
		job.CreatedAt(),
		job.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("failed to insert conversion: %w", err)
	}

	job.SetID(id)
	job.SetSequence(sequence)
	return nil
}

// Get retrieves a conversion job by ID, excluding soft-deleted conversions
func (r *ConversionRepository) Get(id string) (*models.ConversionJob, error) {
	query := `SELECT ` + conversionColumns + ` FROM conversions WHERE id = ? AND deleted_at IS NULL`

	job, err := r.scan(r.db.QueryRow(query, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", shared.ErrConversionNotFound, id)
	}
	return job, err
}

// GetBySequence retrieves a conversion job by its sequence number, as shown by the history command
func (r *ConversionRepository) GetBySequence(sequence int) (*models.ConversionJob, error) {
	query := `SELECT ` + conversionColumns + ` FROM conversions WHERE sequence = ? AND deleted_at IS NULL`

	job, err := r.scan(r.db.QueryRow(query, sequence))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: #%d", shared.ErrConversionNotFound, sequence)
	}
	return job, err
}

// Update modifies an existing conversion job in the database
func (r *ConversionRepository) Update(job *models.ConversionJob) error {
	if err := job.Validate(); err != nil {
		return fmt.Errorf("validation failed: %w", err)
	}

	now := time.Now()
	job.SetUpdatedAt(now)

	query := `
		UPDATE conversions
		SET status = ?, tracks_total = ?, tracks_converted = ?, tracks_skipped = ?,
			playlists_total = ?, playlists_kept = ?, selected_playlists = ?,
			warnings = ?, error_message = ?, started_at = ?, completed_at = ?,
			updated_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query,
		job.Status(),
		job.TracksTotal(),
		job.TracksConverted(),
		job.TracksSkipped(),
		job.PlaylistsTotal(),
		job.PlaylistsKept(),
		models.EncodeSelection(job.SelectedPlaylists()),
		job.Warnings(),
		nullString(job.ErrorMessage()),
		job.StartedAt(),
		job.CompletedAt(),
		now,
		job.ID(),
	)
	if err != nil {
		return fmt.Errorf("failed to update conversion: %w", err)
	}

	return requireAffected(result, job.ID())
}

// Delete soft-deletes a conversion job by ID
func (r *ConversionRepository) Delete(id string) error {
	query := `
		UPDATE conversions
		SET deleted_at = ?
		WHERE id = ? AND deleted_at IS NULL
	`

	result, err := r.db.Exec(query, time.Now(), id)
	if err != nil {
		return fmt.Errorf("failed to delete conversion: %w", err)
	}

	return requireAffected(result, id)
}

// List retrieves all conversion jobs matching the given criteria, excluding soft-deleted conversions.
//
// Supported criteria: "status" (string), "input_path" (string) and "limit" (int).
func (r *ConversionRepository) List(criteria map[string]any) ([]*models.ConversionJob, error) {
	query := `SELECT ` + conversionColumns + ` FROM conversions WHERE deleted_at IS NULL`
	args := []any{}

	if status, ok := criteria["status"].(string); ok && status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}

	if inputPath, ok := criteria["input_path"].(string); ok && inputPath != "" {
		query += " AND input_path = ?"
		args = append(args, inputPath)
	}

	query += " ORDER BY sequence DESC"

	if limit, ok := criteria["limit"].(int); ok && limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := r.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query conversions: %w", err)
	}
	defer rows.Close()

	var jobs []*models.ConversionJob
	for rows.Next() {
		job, err := r.scan(rows)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, job)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("row iteration error: %w", err)
	}

	return jobs, nil
}

// scanner is satisfied by [sql.Row] and [sql.Rows]
type scanner interface {
	Scan(dest ...any) error
}

// scan reads one row into a [models.ConversionJob]. [sql.ErrNoRows] is returned unwrapped.
func (r *ConversionRepository) scan(row scanner) (*models.ConversionJob, error) {
	var (
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
		selectedPlaylists string
		warnings          int
		errorMessage      sql.NullString
		startedAt         sql.NullTime
		completedAt       sql.NullTime
		createdAt         time.Time
		updatedAt         time.Time
		deletedAt         sql.NullTime
	)

	err := row.Scan(
		&id, &sequence, &inputPath, &outputPath, &status, &tracksTotal,
		&tracksConverted, &tracksSkipped, &playlistsTotal, &playlistsKept,
		&selectedPlaylists, &warnings, &errorMessage, &startedAt,
		&completedAt, &createdAt, &updatedAt, &deletedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan conversion: %w", err)
	}

	job := models.NewConversionJob(sequence, inputPath, outputPath)
	job.SetID(id)
	job.SetStatus(status)
	job.SetTracksTotal(tracksTotal)
	job.SetTracksConverted(tracksConverted)
	job.SetTracksSkipped(tracksSkipped)
	job.SetPlaylistsTotal(playlistsTotal)
	job.SetPlaylistsKept(playlistsKept)
	job.SetSelectedPlaylists(models.DecodeSelection(selectedPlaylists))
	job.SetWarnings(warnings)
	job.SetCreatedAt(createdAt)
	job.SetUpdatedAt(updatedAt)

	if errorMessage.Valid {
		job.SetErrorMessage(errorMessage.String)
	}
	if startedAt.Valid {
		job.SetStartedAt(&startedAt.Time)
	}
	if completedAt.Valid {
		job.SetCompletedAt(&completedAt.Time)
	}
	if deletedAt.Valid {
		job.SetDeletedAt(&deletedAt.Time)
	}

	return job, nil
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func requireAffected(result sql.Result, id string) error {
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%w: %s (or already deleted)", shared.ErrConversionNotFound, id)
	}
	return nil
}

var _ models.Repository[*models.ConversionJob] = (*ConversionRepository)(nil)
