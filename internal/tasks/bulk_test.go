package tasks

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/desertthunder/libport/internal/shared"
	tu "github.com/desertthunder/libport/internal/testing"
)

func TestBulkConvert(t *testing.T) {
	library := shared.LibraryConfig{InputFile: "SwinsianLibrary.xml", OutputFile: "ModifiedLibrary.xml"}

	folders := func(t *testing.T, docs ...string) []string {
		t.Helper()
		root := t.TempDir()
		var out []string
		for i, doc := range docs {
			dir := filepath.Join(root, string(rune('a'+i)))
			if err := os.Mkdir(dir, 0755); err != nil {
				t.Fatalf("failed to create folder: %v", err)
			}
			if doc != "" {
				tu.WriteLibrary(t, dir, library.InputFile, doc)
			}
			out = append(out, dir)
		}
		return out
	}

	t.Run("Partial Failure", func(t *testing.T) {
		dirs := folders(t, tu.SwinsianLibrary, "", tu.LibraryWithPlaylists(""))
		history := &recorder{}
		progress := make(chan ProgressUpdate, 100)

		res, err := NewEngine(nil, history).BulkConvert(context.Background(), progress, dirs, BulkConvertOpts{
			Library:    library,
			NumWorkers: 2,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if res.TotalFolders != 3 || res.Succeeded != 2 || res.Failed != 1 {
			t.Errorf("unexpected counts %+v", res)
		}
		for i, r := range res.Results {
			if r.Folder != dirs[i] {
				t.Errorf("result %d: expected folder %s, got %s", i, dirs[i], r.Folder)
			}
		}

		if !res.Results[0].Success || res.Results[0].Result.Conversion.TracksConverted != 3 {
			t.Error("expected first folder to convert")
		}
		if res.Results[1].Success || !errors.Is(res.Results[1].Error, shared.ErrInputNotFound) {
			t.Errorf("expected second folder to fail with ErrInputNotFound, got %v", res.Results[1].Error)
		}
		tu.AssertFileExists(t, library.OutputPath(dirs[0]))
		tu.AssertFileNotExists(t, library.OutputPath(dirs[1]))
		tu.AssertFileExists(t, library.OutputPath(dirs[2]))

		if len(history.jobs) != 2 {
			t.Errorf("expected 2 recorded jobs, got %d", len(history.jobs))
		}

		bulk := 0
		for _, u := range drain(progress) {
			if u.Phase == BulkConvert {
				bulk++
			}
		}
		if bulk != 4 {
			t.Errorf("expected start plus one update per folder, got %d", bulk)
		}
	})

	t.Run("Selection Applies To Every Folder", func(t *testing.T) {
		dirs := folders(t, tu.SwinsianLibrary, tu.SwinsianLibrary)

		res, err := NewEngine(nil, nil).BulkConvert(context.Background(), nil, dirs, BulkConvertOpts{
			Library:             library,
			SelectedPlaylistIDs: []string{"playlist-id-2"},
			NumWorkers:          20,
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		for _, r := range res.Results {
			if r.Result.Conversion.PlaylistsKept != 1 {
				t.Errorf("%s: expected 1 playlist, got %d", r.Folder, r.Result.Conversion.PlaylistsKept)
			}
		}
	})

	t.Run("No Folders", func(t *testing.T) {
		_, err := NewEngine(nil, nil).BulkConvert(context.Background(), nil, nil, BulkConvertOpts{})
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("Cancelled", func(t *testing.T) {
		dirs := folders(t, tu.SwinsianLibrary, tu.SwinsianLibrary, tu.SwinsianLibrary)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		res, err := NewEngine(nil, nil).BulkConvert(ctx, nil, dirs, BulkConvertOpts{Library: library})
		if !errors.Is(err, context.Canceled) {
			t.Errorf("expected context.Canceled, got %v", err)
		}
		if res.Succeeded != 0 || res.Failed != 3 {
			t.Errorf("expected every folder to fail, got %+v", res)
		}
	})
}
