package tasks

import (
	"fmt"
	"path/filepath"

	"github.com/desertthunder/libport/internal/models"
)

// ProgressUpdate represents a progress event during a long-running operation.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	ResolvePaths Phase = iota
	LoadLibrary
	ConvertTracks
	FilterPlaylists
	SerializeLibrary
	WriteOutput
	BulkConvert
	VerifyLibrary
)

func (p Phase) String() string {
	switch p {
	case ResolvePaths:
		return "resolve_paths"
	case LoadLibrary:
		return "load_library"
	case ConvertTracks:
		return "convert_tracks"
	case FilterPlaylists:
		return "filter_playlists"
	case SerializeLibrary:
		return "serialize_library"
	case WriteOutput:
		return "write_output"
	case BulkConvert:
		return "bulk_convert"
	case VerifyLibrary:
		return "verify_library"
	default:
		return ""
	}
}

func checkPathsUpdate(input, output string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolvePaths,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Checking %s and %s...", filepath.Base(input), filepath.Dir(output)),
	}
}

func loadingLibraryUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LoadLibrary,
		Step:    0,
		Total:   1,
		Message: fmt.Sprintf("Loading %s...", path),
	}
}

func loadedLibraryUpdate(summary models.Summary) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LoadLibrary,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Loaded library (%d tracks, %d playlists)", summary.TotalTracks, summary.TotalPlaylists),
		Data:    summary,
	}
}

func convertTrackUpdate(step, total int, t *models.Track) ProgressUpdate {
	if t == nil {
		return ProgressUpdate{
			Phase:   ConvertTracks,
			Step:    step,
			Total:   total,
			Message: "Converting tracks...",
		}
	}
	return ProgressUpdate{
		Phase:   ConvertTracks,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s", step, total, t.Title()),
	}
}

func filterPlaylistsUpdate(selected int) ProgressUpdate {
	msg := "Keeping all playlists"
	if selected > 0 {
		msg = fmt.Sprintf("Filtering playlists to %d selected", selected)
	}
	return ProgressUpdate{
		Phase:   FilterPlaylists,
		Step:    1,
		Total:   1,
		Message: msg,
	}
}

func serializeUpdate(step int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   SerializeLibrary,
		Step:    step,
		Total:   1,
		Message: "Serializing library...",
	}
}

func writeOutputUpdate(path string, size int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   WriteOutput,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Wrote %s (%d bytes)", path, size),
	}
}

func bulkStartedUpdate(total int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   BulkConvert,
		Step:    0,
		Total:   total,
		Message: fmt.Sprintf("Converting %d libraries...", total),
	}
}

func bulkCompletedUpdate(step, total int, res FolderConversionResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   BulkConvert,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✓ %s", step, total, res.Folder),
		Data:    res,
	}
}

func bulkFailedUpdate(step, total int, res FolderConversionResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   BulkConvert,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, res.Folder, res.Error),
		Data:    res,
	}
}

func verifyUpdate(path string) ProgressUpdate {
	return ProgressUpdate{
		Phase:   VerifyLibrary,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Verifying %s...", path),
	}
}
