// package formatter provides functions to export playlist data to various formats (CSV, Markdown, plain text, JSON)
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/desertthunder/libport/internal/models"
	"github.com/desertthunder/libport/internal/shared"
)

func value(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func duration(t models.Track) string {
	if t.TotalTime == nil {
		return ""
	}
	return shared.FormatDuration(*t.TotalTime)
}

// ExportToCSV converts a PlaylistExport to CSV format with columns: Track ID, Name, Artist, Album, Duration, BPM, Location
func ExportToCSV(export *models.PlaylistExport) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Track ID", "Name", "Artist", "Album", "Duration", "BPM", "Location"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, track := range export.Tracks {
		bpm := ""
		if track.BPM != nil {
			bpm = strconv.FormatInt(*track.BPM, 10)
		}
		record := []string{
			strconv.FormatInt(track.TrackID, 10),
			track.Title(),
			value(track.Artist),
			value(track.Album),
			duration(track),
			bpm,
			track.Location,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ExportToMarkdown converts a PlaylistExport to Markdown format
func ExportToMarkdown(export *models.PlaylistExport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("# %s\n\n", export.Playlist.Name))

	if d := value(export.Playlist.Description); d != "" {
		buf.WriteString(fmt.Sprintf("**Description**: %s\n\n", d))
	}

	buf.WriteString(fmt.Sprintf("**Tracks**: %d\n", len(export.Tracks)))
	buf.WriteString(fmt.Sprintf("**Duration**: %s\n\n", shared.FormatDuration(export.TotalTime())))

	buf.WriteString("## Tracks\n\n")
	for i, track := range export.Tracks {
		albumPart := ""
		if album := value(track.Album); album != "" {
			albumPart = fmt.Sprintf(" (%s)", album)
		}
		durationPart := ""
		if d := duration(track); d != "" {
			durationPart = fmt.Sprintf(" [%s]", d)
		}
		buf.WriteString(fmt.Sprintf("%d. %s - %s%s%s\n", i+1, artist(track), track.Title(), albumPart, durationPart))
	}

	return buf.Bytes(), nil
}

// ExportToText converts a PlaylistExport to plain text format
func ExportToText(export *models.PlaylistExport) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString(fmt.Sprintf("Playlist: %s\n", export.Playlist.Name))
	if d := value(export.Playlist.Description); d != "" {
		buf.WriteString(fmt.Sprintf("Description: %s\n", d))
	}
	buf.WriteString(fmt.Sprintf("Tracks: %d\n\n", len(export.Tracks)))

	for i, track := range export.Tracks {
		buf.WriteString(fmt.Sprintf("%d. %s - %s\n", i+1, artist(track), track.Title()))
	}

	return buf.Bytes(), nil
}

// ExportToJSON converts a PlaylistExport to indented JSON, tracks included
func ExportToJSON(export *models.PlaylistExport) ([]byte, error) {
	return shared.MarshalJSON(export, true)
}

// ToMetadataJSON generates a JSON representation of playlist metadata (without tracks)
func ToMetadataJSON(playlist models.Playlist) ([]byte, error) {
	return shared.MarshalJSON(playlist, true)
}

func artist(t models.Track) string {
	if a := value(t.Artist); a != "" {
		return a
	}
	return "Unknown Artist"
}

// CSVExportResult contains the paths of files created by WriteCSVExport
type CSVExportResult struct {
	TracksFile   string
	MetadataFile string
}

// WriteCSVExport exports a playlist to CSV format with accompanying metadata JSON file.
//
// Defaults to the playlist persistent ID as the base filename & creates {base}_tracks.csv and {base}_metadata.json
func WriteCSVExport(export *models.PlaylistExport, baseFilepath string) (*CSVExportResult, error) {
	if baseFilepath == "" {
		baseFilepath = export.Playlist.PersistentID
	}

	csvData, err := ExportToCSV(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate CSV: %w", err)
	}

	tracksFile := baseFilepath + "_tracks.csv"
	if err := os.WriteFile(tracksFile, csvData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write CSV file: %w", err)
	}

	metadataJSON, err := ToMetadataJSON(export.Playlist)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := baseFilepath + "_metadata.json"
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}

	return &CSVExportResult{
		TracksFile:   tracksFile,
		MetadataFile: metadataFile,
	}, nil
}

// MarkdownExportResult contains information about files created by WriteMarkdownExport
type MarkdownExportResult struct {
	Directory string
	Files     []string
}

// WriteMarkdownExport exports a playlist to Markdown format in a dedicated directory.
//
// Directory name defaults to the playlist persistent ID.
// Creates {dir}/README.md and {dir}/metadata.json
func WriteMarkdownExport(export *models.PlaylistExport, outputDir string) (*MarkdownExportResult, error) {
	if outputDir == "" {
		outputDir = export.Playlist.PersistentID
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	result := &MarkdownExportResult{
		Directory: outputDir,
		Files:     []string{},
	}

	mdData, err := ExportToMarkdown(export)
	if err != nil {
		return nil, fmt.Errorf("failed to generate Markdown: %w", err)
	}

	mdFile := filepath.Join(outputDir, "README.md")
	if err := os.WriteFile(mdFile, mdData, 0644); err != nil {
		return nil, fmt.Errorf("failed to write Markdown file: %w", err)
	}
	result.Files = append(result.Files, mdFile)

	metadataJSON, err := ToMetadataJSON(export.Playlist)
	if err != nil {
		return nil, fmt.Errorf("failed to generate metadata JSON: %w", err)
	}

	metadataFile := filepath.Join(outputDir, "metadata.json")
	if err := os.WriteFile(metadataFile, metadataJSON, 0644); err != nil {
		return nil, fmt.Errorf("failed to write metadata file: %w", err)
	}
	result.Files = append(result.Files, metadataFile)

	return result, nil
}

// WriteTextExport exports a playlist to plain text format.
//
// Defaults to {persistentID}_tracks.txt as the filename.
func WriteTextExport(export *models.PlaylistExport, path string) (string, error) {
	if path == "" {
		path = fmt.Sprintf("%s_tracks.txt", export.Playlist.PersistentID)
	}

	textData, err := ExportToText(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate text: %w", err)
	}

	if err := os.WriteFile(path, textData, 0644); err != nil {
		return "", fmt.Errorf("failed to write text file: %w", err)
	}

	return path, nil
}

// WriteJSONExport exports a playlist with its tracks to a JSON file.
//
// Defaults to {persistentID}.json as the filename.
func WriteJSONExport(export *models.PlaylistExport, path string) (string, error) {
	if path == "" {
		path = export.Playlist.PersistentID + ".json"
	}

	data, err := ExportToJSON(export)
	if err != nil {
		return "", fmt.Errorf("failed to generate JSON: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write JSON file: %w", err)
	}

	return path, nil
}
