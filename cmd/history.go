package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/libport/internal/models"
	"github.com/desertthunder/libport/internal/repositories"
	"github.com/desertthunder/libport/internal/shared"
	"github.com/urfave/cli/v3"
)

// historyEntry is the JSON shape of a stored conversion job.
type historyEntry struct {
	ID                string     `json:"id"`
	Sequence          int        `json:"sequence"`
	Status            string     `json:"status"`
	InputPath         string     `json:"inputPath"`
	OutputPath        string     `json:"outputPath"`
	TracksTotal       int        `json:"tracksTotal"`
	TracksConverted   int        `json:"tracksConverted"`
	TracksSkipped     int        `json:"tracksSkipped"`
	PlaylistsTotal    int        `json:"playlistsTotal"`
	PlaylistsKept     int        `json:"playlistsKept"`
	SelectedPlaylists []string   `json:"selectedPlaylists,omitempty"`
	Warnings          int        `json:"warnings"`
	Error             string     `json:"error,omitempty"`
	StartedAt         *time.Time `json:"startedAt,omitempty"`
	CompletedAt       *time.Time `json:"completedAt,omitempty"`
}

func toHistoryEntry(job *models.ConversionJob) historyEntry {
	return historyEntry{
		ID:                job.ID(),
		Sequence:          job.Sequence(),
		Status:            job.Status(),
		InputPath:         job.InputPath(),
		OutputPath:        job.OutputPath(),
		TracksTotal:       job.TracksTotal(),
		TracksConverted:   job.TracksConverted(),
		TracksSkipped:     job.TracksSkipped(),
		PlaylistsTotal:    job.PlaylistsTotal(),
		PlaylistsKept:     job.PlaylistsKept(),
		SelectedPlaylists: job.SelectedPlaylists(),
		Warnings:          job.Warnings(),
		Error:             job.ErrorMessage(),
		StartedAt:         job.StartedAt(),
		CompletedAt:       job.CompletedAt(),
	}
}

func (r *Runner) historyRepository() (*repositories.ConversionRepository, func() error, error) {
	db, err := shared.OpenHistory(r.config.Database)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", shared.ErrServiceUnavailable, err)
	}
	return repositories.NewConversionRepository(db), db.Close, nil
}

// HistoryList prints recorded conversions, newest first.
func (r *Runner) HistoryList(ctx context.Context, cmd *cli.Command) error {
	repo, closeDB, err := r.historyRepository()
	if err != nil {
		return err
	}
	defer closeDB()

	jobs, err := repo.List(map[string]any{
		"status": cmd.String("status"),
		"limit":  int(cmd.Int("limit")),
	})
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		entries := make([]historyEntry, 0, len(jobs))
		for _, job := range jobs {
			entries = append(entries, toHistoryEntry(job))
		}
		return r.writeJSON(entries, cmd.Bool("pretty"))
	}

	if len(jobs) == 0 {
		r.writePlain("No conversions recorded\n")
		return nil
	}

	for _, job := range jobs {
		r.writePlain("#%-4d %-10s %s\n", job.Sequence(), job.Status(), job.CreatedAt().Local().Format("2006-01-02 15:04"))
		r.writePlain("      %s -> %s\n", job.InputPath(), job.OutputPath())
		r.writePlain("      tracks %d/%d, playlists %d/%d, warnings %d\n",
			job.TracksConverted(), job.TracksTotal(), job.PlaylistsKept(), job.PlaylistsTotal(), job.Warnings())
		if started, completed := job.StartedAt(), job.CompletedAt(); started != nil && completed != nil {
			r.writePlain("      took %s\n", shared.FormatDuration(completed.Sub(*started).Milliseconds()))
		}
		if msg := job.ErrorMessage(); msg != "" {
			r.writePlain("      error: %s\n", msg)
		}
	}
	return nil
}

// HistoryDelete soft-deletes a recorded conversion by ID or sequence number.
func (r *Runner) HistoryDelete(ctx context.Context, cmd *cli.Command) error {
	ref := strings.TrimPrefix(cmd.StringArg("id"), "#")
	if ref == "" {
		return fmt.Errorf("%w: conversion ID or sequence number is required", shared.ErrMissingArgument)
	}

	repo, closeDB, err := r.historyRepository()
	if err != nil {
		return err
	}
	defer closeDB()

	id := ref
	if seq, err := strconv.Atoi(ref); err == nil {
		job, err := repo.GetBySequence(seq)
		if err != nil {
			return err
		}
		id = job.ID()
	}

	if err := repo.Delete(id); err != nil {
		return err
	}

	r.logger.Info("conversion deleted", "id", id)
	r.writePlain("✓ Deleted conversion %s\n", ref)
	return nil
}
