package repositories

import (
	"database/sql"
	"errors"
	"slices"
	"testing"

	"github.com/desertthunder/libport/internal/models"
	"github.com/desertthunder/libport/internal/shared"
)

// setupTestDB creates an in-memory SQLite database with migrations applied
func setupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}

	if err := shared.RunMigrations(db); err != nil {
		db.Close()
		t.Fatalf("failed to run migrations: %v", err)
	}

	return db
}

func TestNextSequence(t *testing.T) {
	db := setupTestDB(t)
	defer db.Close()

	for want := 1; want <= 3; want++ {
		got, err := NextSequence(db, "conversions")
		if err != nil {
			t.Fatalf("failed to get sequence: %v", err)
		}
		if got != want {
			t.Errorf("expected sequence %d, got %d", want, got)
		}
	}

	if _, err := NextSequence(db, "nonexistent"); err == nil {
		t.Error("expected error for missing sequence table")
	}
}

func TestConversionRepository(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewConversionRepository(db)
		job := models.NewConversionJob(0, "/in/SwinsianLibrary.xml", "/in/ModifiedLibrary.xml")

		if err := repo.Create(job); err != nil {
			t.Fatalf("failed to create conversion: %v", err)
		}

		if job.ID() == "" {
			t.Error("conversion ID should be set after creation")
		}
		if job.Sequence() != 1 {
			t.Errorf("expected sequence 1, got %d", job.Sequence())
		}
	})

	t.Run("Get", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewConversionRepository(db)
		job := models.NewConversionJob(0, "/in.xml", "/out.xml")
		job.SetSelectedPlaylists([]string{"playlist-id-1", "playlist-id-2"})
		job.Start()

		if err := repo.Create(job); err != nil {
			t.Fatalf("failed to create conversion: %v", err)
		}

		retrieved, err := repo.Get(job.ID())
		if err != nil {
			t.Fatalf("failed to get conversion: %v", err)
		}

		if retrieved.InputPath() != "/in.xml" || retrieved.OutputPath() != "/out.xml" {
			t.Errorf("unexpected paths %s -> %s", retrieved.InputPath(), retrieved.OutputPath())
		}
		if retrieved.Status() != models.StatusRunning {
			t.Errorf("expected status %s, got %s", models.StatusRunning, retrieved.Status())
		}
		if !slices.Equal(retrieved.SelectedPlaylists(), job.SelectedPlaylists()) {
			t.Errorf("expected selection %v, got %v", job.SelectedPlaylists(), retrieved.SelectedPlaylists())
		}
		if retrieved.StartedAt() == nil {
			t.Error("expected start time to be stored")
		}
		if retrieved.CompletedAt() != nil {
			t.Error("expected no completion time")
		}

		bySeq, err := repo.GetBySequence(job.Sequence())
		if err != nil {
			t.Fatalf("failed to get conversion by sequence: %v", err)
		}
		if bySeq.ID() != job.ID() {
			t.Errorf("expected ID %s, got %s", job.ID(), bySeq.ID())
		}
	})

	t.Run("Update", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewConversionRepository(db)
		job := models.NewConversionJob(0, "/in.xml", "/out.xml")
		if err := repo.Create(job); err != nil {
			t.Fatalf("failed to create conversion: %v", err)
		}

		job.SetTracksTotal(4)
		job.SetTracksConverted(3)
		job.SetTracksSkipped(1)
		job.SetPlaylistsTotal(4)
		job.SetPlaylistsKept(2)
		job.SetWarnings(1)
		job.Fail(errors.New("disk full"))

		if err := repo.Update(job); err != nil {
			t.Fatalf("failed to update conversion: %v", err)
		}

		retrieved, err := repo.Get(job.ID())
		if err != nil {
			t.Fatalf("failed to get conversion: %v", err)
		}
		if retrieved.TracksConverted() != 3 || retrieved.TracksSkipped() != 1 || retrieved.PlaylistsKept() != 2 {
			t.Errorf("unexpected counts: %d/%d/%d", retrieved.TracksConverted(), retrieved.TracksSkipped(), retrieved.PlaylistsKept())
		}
		if retrieved.Warnings() != 1 {
			t.Errorf("expected 1 warning, got %d", retrieved.Warnings())
		}
		if retrieved.Status() != models.StatusFailed || retrieved.ErrorMessage() != "disk full" {
			t.Errorf("unexpected outcome %s: %q", retrieved.Status(), retrieved.ErrorMessage())
		}
		if retrieved.CompletedAt() == nil {
			t.Error("expected completion time")
		}
	})

	t.Run("Delete", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewConversionRepository(db)
		job := models.NewConversionJob(0, "/in.xml", "/out.xml")
		if err := repo.Create(job); err != nil {
			t.Fatalf("failed to create conversion: %v", err)
		}

		if err := repo.Delete(job.ID()); err != nil {
			t.Fatalf("failed to delete conversion: %v", err)
		}

		if _, err := repo.Get(job.ID()); !errors.Is(err, shared.ErrConversionNotFound) {
			t.Errorf("expected ErrConversionNotFound for deleted conversion, got %v", err)
		}

		var deletedAt sql.NullTime
		if err := db.QueryRow("SELECT deleted_at FROM conversions WHERE id = ?", job.ID()).Scan(&deletedAt); err != nil {
			t.Fatalf("failed to query row: %v", err)
		}
		if !deletedAt.Valid {
			t.Error("expected row to be soft deleted, not removed")
		}
	})

	t.Run("List", func(t *testing.T) {
		db := setupTestDB(t)
		defer db.Close()

		repo := NewConversionRepository(db)
		for _, path := range []string{"/a.xml", "/b.xml", "/a.xml"} {
			job := models.NewConversionJob(0, path, "/out.xml")
			job.Complete()
			if err := repo.Create(job); err != nil {
				t.Fatalf("failed to create conversion: %v", err)
			}
		}

		failed := models.NewConversionJob(0, "/c.xml", "/out.xml")
		failed.Fail(nil)
		if err := repo.Create(failed); err != nil {
			t.Fatalf("failed to create conversion: %v", err)
		}

		tests := []struct {
			name     string
			criteria map[string]any
			want     []int
		}{
			{"all", nil, []int{4, 3, 2, 1}},
			{"by status", map[string]any{"status": models.StatusCompleted}, []int{3, 2, 1}},
			{"by input", map[string]any{"input_path": "/a.xml"}, []int{3, 1}},
			{"limited", map[string]any{"limit": 2}, []int{4, 3}},
			{"no match", map[string]any{"status": models.StatusRunning}, nil},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				jobs, err := repo.List(tt.criteria)
				if err != nil {
					t.Fatalf("failed to list conversions: %v", err)
				}

				var got []int
				for _, j := range jobs {
					got = append(got, j.Sequence())
				}
				if !slices.Equal(got, tt.want) {
					t.Errorf("expected sequences %v, got %v", tt.want, got)
				}
			})
		}
	})
}

func TestConversionRepositoryErrors(t *testing.T) {
	t.Run("Create", func(t *testing.T) {
		t.Run("ValidationError", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewConversionRepository(db)
			job := models.NewConversionJob(0, "", "/out.xml")

			if err := repo.Create(job); err == nil {
				t.Fatal("expected validation error for empty input path")
			}

			if seq, _ := NextSequence(db, "conversions"); seq != 1 {
				t.Errorf("expected failed validation not to consume a sequence, got %d", seq)
			}
		})

		t.Run("ClosedDatabase", func(t *testing.T) {
			db := setupTestDB(t)
			db.Close()

			repo := NewConversionRepository(db)
			if err := repo.Create(models.NewConversionJob(0, "/in.xml", "/out.xml")); err == nil {
				t.Fatal("expected error on closed database")
			}
		})
	})

	t.Run("Get", func(t *testing.T) {
		t.Run("NotFound", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewConversionRepository(db)

			if _, err := repo.Get("nonexistent-id"); !errors.Is(err, shared.ErrConversionNotFound) {
				t.Fatalf("expected ErrConversionNotFound, got %v", err)
			}
			if _, err := repo.GetBySequence(42); !errors.Is(err, shared.ErrConversionNotFound) {
				t.Fatalf("expected ErrConversionNotFound, got %v", err)
			}
		})
	})

	t.Run("Update", func(t *testing.T) {
		t.Run("NotFound", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewConversionRepository(db)
			job := models.NewConversionJob(0, "/in.xml", "/out.xml")
			job.SetID("nonexistent-id")

			if err := repo.Update(job); !errors.Is(err, shared.ErrConversionNotFound) {
				t.Fatalf("expected ErrConversionNotFound, got %v", err)
			}
		})

		t.Run("ValidationError", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewConversionRepository(db)
			job := models.NewConversionJob(0, "/in.xml", "/out.xml")
			if err := repo.Create(job); err != nil {
				t.Fatalf("failed to create conversion: %v", err)
			}

			job.SetStatus("unknown")
			if err := repo.Update(job); err == nil {
				t.Fatal("expected validation error for unknown status")
			}
		})
	})

	t.Run("Delete", func(t *testing.T) {
		t.Run("Twice", func(t *testing.T) {
			db := setupTestDB(t)
			defer db.Close()

			repo := NewConversionRepository(db)
			job := models.NewConversionJob(0, "/in.xml", "/out.xml")
			if err := repo.Create(job); err != nil {
				t.Fatalf("failed to create conversion: %v", err)
			}

			if err := repo.Delete(job.ID()); err != nil {
				t.Fatalf("failed to delete conversion: %v", err)
			}
			if err := repo.Delete(job.ID()); !errors.Is(err, shared.ErrConversionNotFound) {
				t.Fatalf("expected ErrConversionNotFound on second delete, got %v", err)
			}
		})
	})
}
