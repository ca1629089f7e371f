package tasks

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"regexp"
	"slices"
	"strconv"

	"howett.net/plist"

	"github.com/desertthunder/libport/internal/models"
	"github.com/desertthunder/libport/internal/shared"
	"github.com/desertthunder/libport/internal/xmlfix"
)

// htmlEntity matches named references; only the five predefined by XML are valid in a plist.
var htmlEntity = regexp.MustCompile(`&([A-Za-z][A-Za-z0-9]*);`)

var xmlEntities = map[string]bool{"amp": true, "lt": true, "gt": true, "quot": true, "apos": true}

// htmlEntities returns the distinct named references in data that XML does not predefine.
func htmlEntities(data []byte) []string {
	var names []string
	for _, m := range htmlEntity.FindAllSubmatch(data, -1) {
		name := string(m[1])
		if !xmlEntities[name] && !slices.Contains(names, name) {
			names = append(names, name)
		}
	}
	return names
}

// exportedLibrary mirrors the parts of a Music.app library that rekordbox reads.
type exportedLibrary struct {
	MajorVersion int                      `plist:"Major Version"`
	MinorVersion int                      `plist:"Minor Version"`
	Tracks       map[string]exportedTrack `plist:"Tracks"`
	Playlists    []exportedPlaylist       `plist:"Playlists"`
}

type exportedTrack struct {
	TrackID      int64  `plist:"Track ID"`
	PersistentID string `plist:"Persistent ID"`
	Location     string `plist:"Location"`
	Kind         string `plist:"Kind"`
	Name         string `plist:"Name"`
}

type exportedPlaylist struct {
	Name         string `plist:"Name"`
	PersistentID string `plist:"Playlist Persistent ID"`
	Items        []struct {
		TrackID int64 `plist:"Track ID"`
	} `plist:"Playlist Items"`
}

// VerifyReport describes a converted library as read back by an independent decoder.
type VerifyReport struct {
	Path          string   `json:"path,omitempty"`
	Format        string   `json:"format"`
	LegacyDoctype bool     `json:"legacyDoctype"`
	Tracks        int      `json:"tracks"`
	Skipped       int      `json:"skipped"`
	Playlists     int      `json:"playlists"`
	PlaylistItems int      `json:"playlistItems"`
	Problems      []string `json:"problems,omitempty"`
}

// OK reports whether no problems were found.
func (r *VerifyReport) OK() bool { return len(r.Problems) == 0 }

func (r *VerifyReport) problemf(format string, args ...any) {
	r.Problems = append(r.Problems, fmt.Sprintf(format, args...))
}

// VerifyBytes decodes a converted library and checks that every track carries its identity fields in target
// form and that every playlist item refers to a track. Records lacking identity fields are counted as skipped. A report with problems is returned together with
// [shared.ErrVerificationFailed].
func VerifyBytes(data []byte) (*VerifyReport, error) {
	// Strict XML readers reject HTML entities; decode a re-encoded copy so the remaining checks still run.
	entities := htmlEntities(data)
	decoded := data
	if len(entities) > 0 {
		decoded = []byte(xmlfix.ReEncodeHTMLEntities(string(data)))
	}

	var lib exportedLibrary
	format, err := plist.Unmarshal(decoded, &lib)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", shared.ErrParse, err)
	}

	report := &VerifyReport{
		Format:        formatName(format),
		LegacyDoctype: bytes.Contains(data, []byte("-//Apple Computer//DTD PLIST")),
		Playlists:     len(lib.Playlists),
	}

	for _, name := range entities {
		report.problemf("named entity &%s; is not valid XML", name)
	}

	if format != plist.XMLFormat {
		report.problemf("library is %s, expected XML", report.Format)
	}

	keys := make([]string, 0, len(lib.Tracks))
	for k := range lib.Tracks {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	ids := make(map[int64]bool, len(lib.Tracks))
	for _, key := range keys {
		t := lib.Tracks[key]
		// rekordbox skips records without identity fields, as the converter does
		if t.TrackID == 0 || t.PersistentID == "" || t.Location == "" {
			report.Skipped++
			continue
		}
		report.Tracks++
		ids[t.TrackID] = true

		if strconv.FormatInt(t.TrackID, 10) != key {
			report.problemf("track %s: stored under a different key than its Track ID %d", key, t.TrackID)
		}
		if !models.IsTargetPersistentID(t.PersistentID) {
			report.problemf("track %s: Persistent ID %q is not 16 lowercase hex digits", key, t.PersistentID)
		}
		if t.Kind == "" {
			report.problemf("track %s: missing Kind", key)
		}
	}

	for _, p := range lib.Playlists {
		report.PlaylistItems += len(p.Items)
		for _, item := range p.Items {
			if !ids[item.TrackID] {
				report.problemf("playlist %q: item refers to unknown track %d", p.Name, item.TrackID)
			}
		}
	}

	if !report.OK() {
		return report, fmt.Errorf("%w: %d problems", shared.ErrVerificationFailed, len(report.Problems))
	}
	return report, nil
}

// Verify reads the library at path and checks it with [VerifyBytes].
func (e *Engine) Verify(ctx context.Context, progress chan<- ProgressUpdate, path string) (*VerifyReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	e.sendProgress(progress, verifyUpdate(path))
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", shared.ErrInputNotFound, path)
		}
		return nil, fmt.Errorf("failed to read library: %w", err)
	}

	report, err := VerifyBytes(data)
	if report != nil {
		report.Path = path
		e.logger.Debug("verified library", "path", path, "tracks", report.Tracks, "problems", len(report.Problems))
	}
	return report, err
}

func formatName(format int) string {
	switch format {
	case plist.XMLFormat:
		return "XML"
	case plist.BinaryFormat:
		return "binary"
	case plist.OpenStepFormat:
		return "OpenStep"
	case plist.GNUStepFormat:
		return "GNUStep"
	default:
		return "unknown"
	}
}
