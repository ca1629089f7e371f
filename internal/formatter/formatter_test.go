package formatter

import (
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/libport/internal/models"
	"github.com/desertthunder/libport/internal/plist"
	"github.com/desertthunder/libport/internal/shared"
	th "github.com/desertthunder/libport/internal/testing"
)

func sampleExport(t *testing.T, persistentID string) *models.PlaylistExport {
	t.Helper()
	root, err := plist.Decode([]byte(th.SwinsianLibrary))
	if err != nil {
		t.Fatalf("failed to decode library: %v", err)
	}
	lib, err := models.NewLibrary(root, shared.NopLogger())
	if err != nil {
		t.Fatalf("failed to create library: %v", err)
	}
	export, err := lib.ExportPlaylist(persistentID)
	if err != nil {
		t.Fatalf("failed to export playlist: %v", err)
	}
	return export
}

func TestExporters(t *testing.T) {
	t.Run("ExportToCSV", func(t *testing.T) {
		data, err := ExportToCSV(sampleExport(t, "playlist-id-1"))
		if err != nil {
			t.Fatalf("ExportToCSV failed: %v", err)
		}

		lines := strings.Split(strings.TrimSpace(string(data)), "\n")
		if len(lines) != 3 {
			t.Fatalf("expected header and 2 rows, got %d lines", len(lines))
		}
		if lines[0] != "Track ID,Name,Artist,Album,Duration,BPM,Location" {
			t.Errorf("CSV missing headers, got: %s", lines[0])
		}
		if want := "1,O'Brien's Theme,Café Society,,5:01,124,file:///Users/dj/Music/Library/House/track%201.mp3"; lines[1] != want {
			t.Errorf("expected row %q, got %q", want, lines[1])
		}
		if !strings.HasPrefix(lines[2], "2,Rock & Roll,The Band,,,,") {
			t.Errorf("unexpected row for track without duration: %q", lines[2])
		}
	})

	t.Run("ExportToMarkdown", func(t *testing.T) {
		t.Run("without description", func(t *testing.T) {
			data, err := ExportToMarkdown(sampleExport(t, "playlist-id-1"))
			if err != nil {
				t.Fatalf("ExportToMarkdown failed: %v", err)
			}

			output := string(data)
			for _, want := range []string{
				"# Warm Up\n",
				"**Tracks**: 2",
				"**Duration**: 5:01",
				"## Tracks",
				"1. Café Society - O'Brien's Theme [5:01]",
				"2. The Band - Rock & Roll\n",
			} {
				if !strings.Contains(output, want) {
					t.Errorf("Markdown missing %q, got: %s", want, output)
				}
			}
			if strings.Contains(output, "**Description**") {
				t.Error("expected no description line")
			}
		})

		t.Run("with description", func(t *testing.T) {
			data, err := ExportToMarkdown(sampleExport(t, "playlist-id-2"))
			if err != nil {
				t.Fatalf("ExportToMarkdown failed: %v", err)
			}

			output := string(data)
			if !strings.Contains(output, "**Description**: after hours") {
				t.Errorf("Markdown missing description")
			}
			if !strings.Contains(output, "1. Unknown Artist - Ambient") {
				t.Errorf("Markdown missing artist fallback, got: %s", output)
			}
		})
	})

	t.Run("ExportToText", func(t *testing.T) {
		data, err := ExportToText(sampleExport(t, "playlist-id-2"))
		if err != nil {
			t.Fatalf("ExportToText failed: %v", err)
		}

		want := "Playlist: Late Night\nDescription: after hours\nTracks: 1\n\n1. Unknown Artist - Ambient\n"
		if string(data) != want {
			t.Errorf("expected:\n%s\ngot:\n%s", want, data)
		}
	})

	t.Run("ToMetadataJSON", func(t *testing.T) {
		data, err := ToMetadataJSON(sampleExport(t, "playlist-id-2").Playlist)
		if err != nil {
			t.Fatalf("ToMetadataJSON failed: %v", err)
		}

		var decoded map[string]any
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded["persistentId"] != "playlist-id-2" || decoded["parentPersistentId"] != "playlist-id-1" {
			t.Errorf("unexpected metadata %v", decoded)
		}
		if _, ok := decoded["tracks"]; ok {
			t.Error("metadata should not contain tracks")
		}
	})

	t.Run("ExportToJSON", func(t *testing.T) {
		data, err := ExportToJSON(sampleExport(t, "playlist-id-1"))
		if err != nil {
			t.Fatalf("ExportToJSON failed: %v", err)
		}

		var decoded struct {
			Playlist models.Playlist `json:"playlist"`
			Tracks   []models.Track  `json:"tracks"`
		}
		if err := json.Unmarshal(data, &decoded); err != nil {
			t.Fatalf("invalid JSON: %v", err)
		}
		if decoded.Playlist.Name != "Warm Up" || len(decoded.Tracks) != 2 {
			t.Errorf("unexpected export %+v", decoded)
		}
		if decoded.Tracks[0].PersistentID != "12345678901234567890" {
			t.Errorf("unexpected persistent ID %s", decoded.Tracks[0].PersistentID)
		}
	})
}

func TestWriters(t *testing.T) {
	t.Run("WriteCSVExport", func(t *testing.T) {
		export := sampleExport(t, "playlist-id-1")

		t.Run("WithDefaultPath", func(t *testing.T) {
			tempDir := t.TempDir()
			originalDir := th.MustGetwd(t)
			th.MustChdir(t, tempDir)
			defer th.MustChdir(t, originalDir)

			result, err := WriteCSVExport(export, "")
			if err != nil {
				t.Fatalf("WriteCSVExport failed: %v", err)
			}

			if result.TracksFile != "playlist-id-1_tracks.csv" {
				t.Errorf("Expected tracks file 'playlist-id-1_tracks.csv', got '%s'", result.TracksFile)
			}
			if result.MetadataFile != "playlist-id-1_metadata.json" {
				t.Errorf("Expected metadata file 'playlist-id-1_metadata.json', got '%s'", result.MetadataFile)
			}

			th.AssertFileExists(t, result.TracksFile)
			th.AssertFileExists(t, result.MetadataFile)

			if !strings.Contains(th.MustReadFile(t, result.TracksFile), "Rock & Roll") {
				t.Errorf("CSV missing track data")
			}
			if !strings.Contains(th.MustReadFile(t, result.MetadataFile), "Warm Up") {
				t.Errorf("Metadata JSON missing expected fields")
			}
		})

		t.Run("WithCustomPath", func(t *testing.T) {
			base := filepath.Join(t.TempDir(), "custom_export")

			result, err := WriteCSVExport(export, base)
			if err != nil {
				t.Fatalf("WriteCSVExport failed: %v", err)
			}

			if result.TracksFile != base+"_tracks.csv" {
				t.Errorf("unexpected tracks file %s", result.TracksFile)
			}
			th.AssertFileExists(t, result.TracksFile)
			th.AssertFileExists(t, result.MetadataFile)
		})

		t.Run("MissingDirectory", func(t *testing.T) {
			_, err := WriteCSVExport(export, filepath.Join(t.TempDir(), "missing", "export"))
			if err == nil {
				t.Error("expected error for missing directory")
			}
		})
	})

	t.Run("WriteMarkdownExport", func(t *testing.T) {
		export := sampleExport(t, "playlist-id-2")

		t.Run("WithDefaultDirectory", func(t *testing.T) {
			tempDir := t.TempDir()
			originalDir := th.MustGetwd(t)
			th.MustChdir(t, tempDir)
			defer th.MustChdir(t, originalDir)

			result, err := WriteMarkdownExport(export, "")
			if err != nil {
				t.Fatalf("WriteMarkdownExport failed: %v", err)
			}

			if result.Directory != "playlist-id-2" {
				t.Errorf("Expected directory 'playlist-id-2', got '%s'", result.Directory)
			}
			th.AssertDirExists(t, result.Directory)

			if len(result.Files) != 2 {
				t.Fatalf("expected README and metadata, got %v", result.Files)
			}
			readme := th.MustReadFile(t, filepath.Join(result.Directory, "README.md"))
			if !strings.Contains(readme, "# Late Night") {
				t.Errorf("README missing title")
			}
			th.AssertFileExists(t, filepath.Join(result.Directory, "metadata.json"))
		})

		t.Run("WithCustomDirectory", func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "nested", "late-night")

			result, err := WriteMarkdownExport(export, dir)
			if err != nil {
				t.Fatalf("WriteMarkdownExport failed: %v", err)
			}
			if result.Directory != dir {
				t.Errorf("expected directory %s, got %s", dir, result.Directory)
			}
			th.AssertFileExists(t, filepath.Join(dir, "README.md"))
		})
	})

	t.Run("WriteTextExport", func(t *testing.T) {
		export := sampleExport(t, "playlist-id-1")

		t.Run("WithDefaultPath", func(t *testing.T) {
			tempDir := t.TempDir()
			originalDir := th.MustGetwd(t)
			th.MustChdir(t, tempDir)
			defer th.MustChdir(t, originalDir)

			path, err := WriteTextExport(export, "")
			if err != nil {
				t.Fatalf("WriteTextExport failed: %v", err)
			}
			if path != "playlist-id-1_tracks.txt" {
				t.Errorf("Expected 'playlist-id-1_tracks.txt', got '%s'", path)
			}
			if !strings.HasPrefix(th.MustReadFile(t, path), "Playlist: Warm Up\n") {
				t.Error("text export missing header")
			}
		})

		t.Run("WithCustomPath", func(t *testing.T) {
			want := filepath.Join(t.TempDir(), "warmup.txt")
			path, err := WriteTextExport(export, want)
			if err != nil {
				t.Fatalf("WriteTextExport failed: %v", err)
			}
			if path != want {
				t.Errorf("expected %s, got %s", want, path)
			}
			th.AssertFileExists(t, path)
		})
	})

	t.Run("WriteJSONExport", func(t *testing.T) {
		export := sampleExport(t, "playlist-id-1")

		t.Run("WithDefaultPath", func(t *testing.T) {
			tempDir := t.TempDir()
			originalDir := th.MustGetwd(t)
			th.MustChdir(t, tempDir)
			defer th.MustChdir(t, originalDir)

			path, err := WriteJSONExport(export, "")
			if err != nil {
				t.Fatalf("WriteJSONExport failed: %v", err)
			}
			if path != "playlist-id-1.json" {
				t.Errorf("Expected 'playlist-id-1.json', got '%s'", path)
			}
			th.AssertFileExists(t, path)
		})

		t.Run("WithCustomPath", func(t *testing.T) {
			want := filepath.Join(t.TempDir(), "warmup.json")
			path, err := WriteJSONExport(export, want)
			if err != nil {
				t.Fatalf("WriteJSONExport failed: %v", err)
			}
			if !strings.Contains(th.MustReadFile(t, path), `"name": "Warm Up"`) {
				t.Error("JSON export missing playlist name")
			}
		})
	})
}
