package tasks

import (
	"errors"
	"fmt"

	"github.com/desertthunder/libport/internal/models"
	"github.com/desertthunder/libport/internal/plist"
	"github.com/desertthunder/libport/internal/shared"
)

// Conversion is the outcome of converting one library.
type Conversion struct {
	Library         *models.Library // Converted library; shares unchanged subtrees with the source
	TracksTotal     int             // Entries in the source Tracks dictionary
	TracksConverted int             // Tracks mapped to the target dialect
	TracksSkipped   int             // Entries copied unchanged
	PlaylistsTotal  int             // Entries in the source Playlists array
	PlaylistsKept   int             // Entries in the output Playlists array
	Warnings        []error         // Non-fatal per-record problems
}

// Converter maps a source-dialect library to the Music.app dialect.
type Converter struct {
	logger shared.Logger

	// OnTrack, when set, is called after each valid track is handled.
	OnTrack func(step, total int, t models.Track)
}

// NewConverter creates a Converter that logs through logger.
func NewConverter(logger shared.Logger) *Converter {
	if logger == nil {
		logger = shared.NopLogger()
	}
	return &Converter{logger: logger}
}

// Convert builds a new library from src without modifying it.
//
// Every valid track is replaced by its target form under its original key. Records lacking identity fields
// and records whose persistent ID cannot be converted are copied unchanged. A Tracks value that is not a
// dictionary passes through with a warning, and a missing Tracks key stays missing. With a non-empty selection
// only playlists whose persistent ID is selected are kept, in their original order; otherwise the Playlists
// value is carried over as is. Convert never fails: problems are logged and returned as warnings.
func (c *Converter) Convert(src *models.Library, selectedPlaylistIDs []string) *Conversion {
	root := src.Root().Clone()
	res := &Conversion{TracksTotal: src.TrackCount()}

	c.convertTracks(src, root, res)
	c.filterPlaylists(src, root, res, selectedPlaylistIDs)

	// root is a dict, so this cannot fail
	res.Library, _ = models.NewLibrary(root, c.logger)
	return res
}

func (c *Converter) convertTracks(src *models.Library, root *plist.Dict, res *Conversion) {
	v, ok := src.Root().Get(models.KeyTracks)
	if !ok {
		return
	}
	source, ok := v.(*plist.Dict)
	if !ok {
		err := fmt.Errorf("%w: Tracks is %s, not dict", shared.ErrMalformedTracks, v.Kind())
		c.logger.Warn("keeping tracks unchanged", "error", err)
		res.Warnings = append(res.Warnings, err)
		return
	}

	tracks := plist.NewDict()
	valid := 0

	for key, record := range source.All() {
		d, _ := record.(*plist.Dict)
		t, issue := models.TrackFromDict(key, d)
		if issue != nil {
			c.logger.Warn("keeping record unchanged", "key", key, "missing", issue.Missing)
			res.Warnings = append(res.Warnings, issue)
			res.TracksSkipped++
			tracks.Set(key, record)
			continue
		}

		valid++
		target, err := models.ToTargetTrack(t)
		if err != nil {
			c.logger.Warn("keeping track unchanged", "key", key, "error", err)
			res.Warnings = append(res.Warnings, err)
			res.TracksSkipped++
			tracks.Set(key, record)
		} else {
			tracks.Set(key, target.ToDict())
			res.TracksConverted++
		}

		if c.OnTrack != nil {
			c.OnTrack(valid, res.TracksTotal, t)
		}
	}

	root.Set(models.KeyTracks, tracks)
}

func (c *Converter) filterPlaylists(src *models.Library, root *plist.Dict, res *Conversion, ids []string) {
	playlists, ok := src.Root().Array(models.KeyPlaylists)
	if ok {
		res.PlaylistsTotal = len(playlists)
	}

	if len(ids) == 0 {
		res.PlaylistsKept = res.PlaylistsTotal
		return
	}

	c.logger.Info("filtering playlists", "selected", len(ids))

	if !ok {
		err := fmt.Errorf("%w: Playlists is missing or not an array", shared.ErrMalformedPlaylists)
		c.logger.Warn("dropping playlists", "error", err)
		res.Warnings = append(res.Warnings, err)
		root.Set(models.KeyPlaylists, plist.Array{})
		return
	}

	selected := make(map[string]bool, len(ids))
	for _, id := range ids {
		selected[id] = true
	}

	kept := plist.Array{}
	for _, v := range playlists {
		d, ok := v.(*plist.Dict)
		if !ok {
			continue
		}
		if id, _ := d.String(models.KeyPlaylistPersistentID); selected[id] {
			kept = append(kept, v)
		}
	}

	res.PlaylistsKept = len(kept)
	root.Set(models.KeyPlaylists, kept)
}

// WarningCount returns the number of warnings of the given kind, matched with [errors.Is].
func (c *Conversion) WarningCount(target error) int {
	n := 0
	for _, w := range c.Warnings {
		if errors.Is(w, target) {
			n++
		}
	}
	return n
}
