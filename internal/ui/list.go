package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/desertthunder/libport/internal/models"
)

var (
	_ list.Item = playlistItem{}
	_ list.Item = trackItem{}
)

// playlistItem wraps [models.Playlist] to implement [list.Item].
type playlistItem struct {
	playlist models.Playlist
	index    int  // position in Model.playlists
	depth    int  // folder nesting level
	selected bool // marked for conversion
}

func (i playlistItem) FilterValue() string { return i.playlist.Name }
func (i playlistItem) Title() string {
	mark := "[ ]"
	if i.selected {
		mark = "[x]"
	}
	return fmt.Sprintf("%s %s%s", mark, strings.Repeat("  ", i.depth), i.playlist.Name)
}
func (i playlistItem) Description() string {
	desc := fmt.Sprintf("%d tracks", len(i.playlist.Items))
	if i.playlist.IsFolder() {
		desc = "folder"
	}
	if i.playlist.Description != nil && *i.playlist.Description != "" {
		desc = fmt.Sprintf("%s • %s", desc, *i.playlist.Description)
	}
	return desc
}

// trackItem wraps [models.Track] to implement [list.Item].
type trackItem struct {
	track models.Track
}

func (i trackItem) FilterValue() string { return i.track.Title() }
func (i trackItem) Title() string       { return i.track.Title() }
func (i trackItem) Description() string {
	var parts []string
	if i.track.Artist != nil {
		parts = append(parts, *i.track.Artist)
	}
	if i.track.Album != nil {
		parts = append(parts, *i.track.Album)
	}
	if ft, ok := models.FileTypeOf(i.track.Location); ok {
		parts = append(parts, string(ft))
	}
	return strings.Join(parts, " • ")
}
