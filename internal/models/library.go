package models

import (
	"errors"
	"fmt"
	"iter"
	"strconv"

	"github.com/desertthunder/libport/internal/plist"
	"github.com/desertthunder/libport/internal/shared"
)

// Library is a typed view over the root dictionary of a library document.
//
// It owns its tree for the duration of one conversion and is not safe for concurrent mutation.
type Library struct {
	root   *plist.Dict
	logger shared.Logger
}

// NewLibrary wraps a decoded document. The root value must be a dictionary.
func NewLibrary(root plist.Value, logger shared.Logger) (*Library, error) {
	d, ok := root.(*plist.Dict)
	if !ok || d == nil {
		kind := "nil"
		if root != nil {
			kind = root.Kind().String()
		}
		return nil, fmt.Errorf("%w: root is a %s, expected dict", shared.ErrInvalidLibrary, kind)
	}
	if logger == nil {
		logger = shared.NopLogger()
	}
	return &Library{root: d, logger: logger}, nil
}

// Root returns the underlying tree.
func (l *Library) Root() *plist.Dict { return l.root }

// Metadata returns the top-level scalar fields. Absent or mistyped fields are zero.
func (l *Library) Metadata() Metadata {
	var m Metadata
	m.ApplicationVersion, _ = l.root.String(KeyApplicationVersion)
	m.Date, _ = l.root.Date(KeyDate)
	m.Features, _ = l.root.Int(KeyFeatures)
	m.LibraryPersistentID, _ = l.root.String(KeyLibraryPersistentID)
	m.MajorVersion, _ = l.root.Int(KeyMajorVersion)
	m.MinorVersion, _ = l.root.Int(KeyMinorVersion)
	m.MusicFolder, _ = l.root.String(KeyMusicFolder)
	m.ShowContentRatings, _ = l.root.Bool(KeyShowContentRatings)
	return m
}

func (l *Library) tracks() *plist.Dict {
	d, _ := l.root.Dict(KeyTracks)
	return d
}

// TrackCount returns the number of entries in the Tracks dictionary, valid or not.
func (l *Library) TrackCount() int {
	return l.tracks().Len()
}

// Track returns the track stored under id.
func (l *Library) Track(id int64) (Track, error) {
	key := strconv.FormatInt(id, 10)
	v, ok := l.tracks().Get(key)
	if !ok {
		return Track{}, fmt.Errorf("%w: %d", shared.ErrTrackNotFound, id)
	}
	d, _ := v.(*plist.Dict)
	t, issue := TrackFromDict(key, d)
	if issue != nil {
		return Track{}, issue
	}
	return t, nil
}

// SetTrack stores t under its Track ID, creating the Tracks dictionary if needed.
func (l *Library) SetTrack(t Track) {
	tracks := l.tracks()
	if tracks == nil {
		tracks = plist.NewDict()
		l.root.Set(KeyTracks, tracks)
	}
	tracks.Set(strconv.FormatInt(t.TrackID, 10), t.ToDict())
}

// TrackEntries yields each valid track with its key in the Tracks dictionary, in document order. Invalid records
// are skipped and logged. The sequence can be ranged over more than once.
func (l *Library) TrackEntries() iter.Seq2[string, Track] {
	return func(yield func(string, Track) bool) {
		for key, v := range l.tracks().All() {
			d, _ := v.(*plist.Dict)
			t, issue := TrackFromDict(key, d)
			if issue != nil {
				l.logger.Warn("skipping track", "key", issue.Key, "missing", issue.Missing)
				continue
			}
			if !yield(key, t) {
				return
			}
		}
	}
}

// Tracks yields each valid track once, in document order.
func (l *Library) Tracks() iter.Seq[Track] {
	return func(yield func(Track) bool) {
		for _, t := range l.TrackEntries() {
			if !yield(t) {
				return
			}
		}
	}
}

// Validate returns an issue for every Tracks entry that lacks identity fields.
func (l *Library) Validate() []*TrackIssue {
	var issues []*TrackIssue
	for key, v := range l.tracks().All() {
		d, _ := v.(*plist.Dict)
		if _, issue := TrackFromDict(key, d); issue != nil {
			issues = append(issues, issue)
		}
	}
	return issues
}

// Playlists returns every playlist in document order. ok is false when the Playlists key is missing or is not
// an array.
func (l *Library) Playlists() ([]Playlist, bool) {
	arr, ok := l.root.Array(KeyPlaylists)
	if !ok {
		return nil, false
	}
	playlists := make([]Playlist, 0, len(arr))
	for i, v := range arr {
		d, ok := v.(*plist.Dict)
		if !ok {
			l.logger.Warn("skipping playlist entry", "index", i, "kind", kindOf(v))
			continue
		}
		playlists = append(playlists, PlaylistFromDict(d))
	}
	return playlists, true
}

// Playlist finds a playlist by its persistent ID.
func (l *Library) Playlist(persistentID string) (Playlist, error) {
	playlists, ok := l.Playlists()
	if !ok {
		return Playlist{}, shared.ErrMalformedPlaylists
	}
	for _, p := range playlists {
		if p.PersistentID == persistentID {
			return p, nil
		}
	}
	return Playlist{}, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, persistentID)
}

// VisiblePlaylists yields user playlists in document order, skipping hidden ones and the master list.
func (l *Library) VisiblePlaylists() iter.Seq[Playlist] {
	return func(yield func(Playlist) bool) {
		playlists, _ := l.Playlists()
		for _, p := range playlists {
			if !p.IsVisible() {
				continue
			}
			if !yield(p) {
				return
			}
		}
	}
}

// SetPlaylists replaces the Playlists array.
func (l *Library) SetPlaylists(playlists []Playlist) {
	arr := make(plist.Array, 0, len(playlists))
	for _, p := range playlists {
		arr = append(arr, p.ToDict())
	}
	l.root.Set(KeyPlaylists, arr)
}

// PlaylistTracks resolves the items of p to tracks, skipping references to missing or invalid records.
func (l *Library) PlaylistTracks(p Playlist) []Track {
	tracks := make([]Track, 0, len(p.Items))
	for _, id := range p.Items {
		t, err := l.Track(id)
		if err != nil {
			if !errors.Is(err, shared.ErrTrackNotFound) {
				l.logger.Warn("skipping playlist item", "playlist", p.Name, "track_id", id, "error", err)
			}
			continue
		}
		tracks = append(tracks, t)
	}
	return tracks
}

// ExportPlaylist finds a playlist by persistent ID and resolves its tracks.
func (l *Library) ExportPlaylist(persistentID string) (*PlaylistExport, error) {
	p, err := l.Playlist(persistentID)
	if err != nil {
		return nil, err
	}
	return &PlaylistExport{Playlist: p, Tracks: l.PlaylistTracks(p)}, nil
}

// Summarize counts tracks and playlists and finds the folder holding every track file.
func (l *Library) Summarize() Summary {
	s := Summary{TotalTracks: l.TrackCount()}
	s.LastModified, _ = l.root.Date(KeyDate)
	if arr, ok := l.root.Array(KeyPlaylists); ok {
		s.TotalPlaylists = len(arr)
	}

	var paths []string
	for t := range l.Tracks() {
		p, err := LocationToPath(t.Location)
		if err != nil {
			l.logger.Debug("ignoring track location", "track_id", t.TrackID, "error", err)
			continue
		}
		paths = append(paths, p)
	}
	s.AudioFolder = CommonFolder(paths)
	return s
}

func kindOf(v plist.Value) string {
	if v == nil {
		return "nil"
	}
	return v.Kind().String()
}
