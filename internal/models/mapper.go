package models

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/desertthunder/libport/internal/shared"
)

var targetPersistentID = regexp.MustCompile(`^[0-9a-f]{16}$`)

// KindOf returns the Music.app "Kind" label for a track location.
func KindOf(location string) string {
	ft, _ := FileTypeOf(location)
	return ft.Kind()
}

// TargetPersistentID converts a decimal persistent ID to 16 lowercase hex digits. Non-decimal IDs already in
// that form are returned unchanged.
//
// An ID made only of digits is always read as decimal, even when it is 16 digits long: "0000000000000123"
// becomes "000000000000007b". Converting an already converted library only keeps IDs that contain a-f.
func TargetPersistentID(id string) (string, error) {
	if n, err := strconv.ParseUint(id, 10, 64); err == nil {
		return fmt.Sprintf("%016x", n), nil
	}
	if targetPersistentID.MatchString(id) {
		return id, nil
	}
	return "", fmt.Errorf("%w: %q", shared.ErrInvalidPersistentID, id)
}

// IsTargetPersistentID reports whether id is 16 lowercase hex digits.
func IsTargetPersistentID(id string) bool {
	return targetPersistentID.MatchString(id)
}

// ToTargetTrack converts a source-dialect track into a Music.app track.
//
// All fields are carried over, including passthrough keys. Kind is derived from the location and the
// fixed fields rekordbox expects are set. src is not modified.
func ToTargetTrack(src Track) (Track, error) {
	pid, err := TargetPersistentID(src.PersistentID)
	if err != nil {
		return Track{}, fmt.Errorf("track %d: %w", src.TrackID, err)
	}

	t := src.Clone()
	t.PersistentID = pid
	t.Kind = ptr(KindOf(src.Location))
	t.ArtworkCount = ptr[int64](1)
	t.FileFolderCount = ptr[int64](-1)
	t.LibraryFolderCount = ptr[int64](-1)
	t.Normalization = ptr[int64](0)
	t.Loved = ptr(false)
	return t, nil
}
