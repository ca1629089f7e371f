package models

import (
	"slices"

	"github.com/desertthunder/libport/internal/plist"
)

// Playlist record keys.
const (
	KeyPlaylistName         = "Name"
	KeyPlaylistID           = "Playlist ID"
	KeyPlaylistPersistentID = "Playlist Persistent ID"
	KeyParentPersistentID   = "Parent Persistent ID"
	KeyPlaylistItems        = "Playlist Items"
	KeyMaster               = "Master"
	KeyVisible              = "Visible"
	KeyAllItems             = "All Items"
	KeyDescription          = "Description"
	KeyFolder               = "Folder"
)

// Playlist is a typed view of one entry of the Playlists array.
type Playlist struct {
	Name               string  `json:"name"`
	PlaylistID         int64   `json:"playlistId"`
	PersistentID       string  `json:"persistentId"`
	ParentPersistentID *string `json:"parentPersistentId,omitempty"`
	Description        *string `json:"description,omitempty"`
	Master             *bool   `json:"master,omitempty"`
	Visible            *bool   `json:"visible,omitempty"`
	AllItems           *bool   `json:"allItems,omitempty"`
	Folder             *bool   `json:"folder,omitempty"`
	Items              []int64 `json:"items"`

	raw *plist.Dict
}

// PlaylistFromDict reads a Playlists entry. Missing fields are left at their zero value.
func PlaylistFromDict(d *plist.Dict) Playlist {
	p := Playlist{raw: d}
	p.Name, _ = d.String(KeyPlaylistName)
	p.PlaylistID, _ = d.Int(KeyPlaylistID)
	p.PersistentID, _ = d.String(KeyPlaylistPersistentID)
	if s, ok := d.String(KeyParentPersistentID); ok {
		p.ParentPersistentID = &s
	}
	if s, ok := d.String(KeyDescription); ok {
		p.Description = &s
	}
	p.Master = optBool(d, KeyMaster)
	p.Visible = optBool(d, KeyVisible)
	p.AllItems = optBool(d, KeyAllItems)
	p.Folder = optBool(d, KeyFolder)
	p.Items = itemIDs(d)
	return p
}

func optBool(d *plist.Dict, key string) *bool {
	if b, ok := d.Bool(key); ok {
		return &b
	}
	return nil
}

func itemIDs(d *plist.Dict) []int64 {
	items, ok := d.Array(KeyPlaylistItems)
	if !ok {
		return nil
	}
	ids := make([]int64, 0, len(items))
	for _, item := range items {
		entry, ok := item.(*plist.Dict)
		if !ok {
			continue
		}
		if id, ok := entry.Int(KeyTrackID); ok {
			ids = append(ids, id)
		}
	}
	return ids
}

// IsVisible reports whether the playlist is a user playlist: neither hidden nor the master library list.
func (p Playlist) IsVisible() bool {
	if p.Visible != nil && !*p.Visible {
		return false
	}
	return p.Master == nil || !*p.Master
}

// IsFolder reports whether the playlist only groups other playlists.
func (p Playlist) IsFolder() bool {
	return p.Folder != nil && *p.Folder
}

// ToDict renders the playlist. Keys read from the source are kept in place; the item list is rebuilt only
// when Items has changed.
func (p Playlist) ToDict() *plist.Dict {
	var d *plist.Dict
	if p.raw != nil {
		d = p.raw.Clone()
	} else {
		d = plist.NewDict()
	}

	setString(d, KeyPlaylistName, p.Name)
	if cur, ok := d.Int(KeyPlaylistID); (ok && cur != p.PlaylistID) || (!ok && p.PlaylistID != 0) {
		d.Set(KeyPlaylistID, plist.Integer(p.PlaylistID))
	}
	setString(d, KeyPlaylistPersistentID, p.PersistentID)
	setOptString(d, KeyParentPersistentID, p.ParentPersistentID)
	setOptString(d, KeyDescription, p.Description)
	setOptBool(d, KeyMaster, p.Master)
	setOptBool(d, KeyVisible, p.Visible)
	setOptBool(d, KeyAllItems, p.AllItems)
	setOptBool(d, KeyFolder, p.Folder)

	if p.raw == nil || !slices.Equal(itemIDs(p.raw), p.Items) {
		items := make(plist.Array, 0, len(p.Items))
		for _, id := range p.Items {
			items = append(items, plist.NewDict(plist.Entry{Key: KeyTrackID, Value: plist.Integer(id)}))
		}
		d.Set(KeyPlaylistItems, items)
	}
	return d
}

// setString writes s unless it is empty and the record holds no string under key, which keeps mistyped values.
func setString(d *plist.Dict, key, s string) {
	if cur, ok := d.String(key); (ok && cur != s) || (!ok && s != "") {
		d.Set(key, plist.String(s))
	}
}

func setOptString(d *plist.Dict, key string, s *string) {
	if s != nil {
		d.Set(key, plist.String(*s))
	}
}

func setOptBool(d *plist.Dict, key string, b *bool) {
	if b != nil {
		d.Set(key, plist.Bool(*b))
	}
}

// PlaylistExport is a playlist together with its resolved tracks.
type PlaylistExport struct {
	Playlist Playlist `json:"playlist"`
	Tracks   []Track  `json:"tracks"`
}

// TotalTime sums the durations of the tracks in milliseconds.
func (e *PlaylistExport) TotalTime() int64 {
	var ms int64
	for _, t := range e.Tracks {
		if t.TotalTime != nil {
			ms += *t.TotalTime
		}
	}
	return ms
}

// PlaylistDepths returns the folder nesting level of each playlist, keyed by persistent ID.
func PlaylistDepths(playlists []Playlist) map[string]int {
	parents := make(map[string]string, len(playlists))
	for _, p := range playlists {
		if p.ParentPersistentID != nil {
			parents[p.PersistentID] = *p.ParentPersistentID
		}
	}

	depths := make(map[string]int, len(playlists))
	for _, p := range playlists {
		depth := 0
		seen := map[string]bool{p.PersistentID: true}
		for id := parents[p.PersistentID]; id != "" && !seen[id]; id = parents[id] {
			seen[id] = true
			depth++
		}
		depths[p.PersistentID] = depth
	}
	return depths
}
