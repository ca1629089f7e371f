package models

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// Library metadata keys.
const (
	KeyApplicationVersion  = "Application Version"
	KeyDate                = "Date"
	KeyFeatures            = "Features"
	KeyLibraryPersistentID = "Library Persistent ID"
	KeyMajorVersion        = "Major Version"
	KeyMinorVersion        = "Minor Version"
	KeyMusicFolder         = "Music Folder"
	KeyShowContentRatings  = "Show Content Ratings"
	KeyTracks              = "Tracks"
	KeyPlaylists           = "Playlists"
)

// Metadata holds the top-level scalar fields of a library.
type Metadata struct {
	ApplicationVersion  string    `json:"applicationVersion,omitempty"`
	Date                time.Time `json:"date"`
	Features            int64     `json:"features"`
	LibraryPersistentID string    `json:"libraryPersistentId,omitempty"`
	MajorVersion        int64     `json:"majorVersion"`
	MinorVersion        int64     `json:"minorVersion"`
	MusicFolder         string    `json:"musicFolder,omitempty"`
	ShowContentRatings  bool      `json:"showContentRatings"`
}

// Summary describes a library at a glance.
type Summary struct {
	TotalTracks    int       `json:"totalTracks"`
	TotalPlaylists int       `json:"totalPlaylists"`
	LastModified   time.Time `json:"lastModified"`
	// AudioFolder is the deepest directory containing every track file.
	AudioFolder string `json:"longestCommonAudioFilePath"`
}

// LocationToPath converts a file URI to a local path. Plain paths are returned unchanged.
func LocationToPath(location string) (string, error) {
	if !strings.Contains(location, "://") {
		return location, nil
	}
	u, err := url.Parse(location)
	if err != nil {
		return "", fmt.Errorf("invalid location %q: %w", location, err)
	}
	if u.Scheme != "file" {
		return "", fmt.Errorf("unsupported location scheme %q", u.Scheme)
	}
	if u.Host != "" && u.Host != "localhost" {
		return "//" + u.Host + u.Path, nil
	}
	return u.Path, nil
}

// CommonFolder returns the deepest directory shared by every path, without a trailing slash unless it is the
// root. It returns "" for no paths or paths with nothing in common.
func CommonFolder(paths []string) string {
	if len(paths) == 0 {
		return ""
	}
	prefix := paths[0]
	for _, p := range paths[1:] {
		n := min(len(prefix), len(p))
		i := 0
		for i < n && prefix[i] == p[i] {
			i++
		}
		prefix = prefix[:i]
	}

	if len(paths) == 1 || !strings.HasSuffix(prefix, "/") {
		i := strings.LastIndexByte(prefix, '/')
		if i < 0 {
			return ""
		}
		prefix = prefix[:i+1]
	}
	if prefix == "/" {
		return prefix
	}
	return strings.TrimSuffix(prefix, "/")
}
