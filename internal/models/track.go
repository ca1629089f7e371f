package models

import (
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/desertthunder/libport/internal/plist"
	"github.com/desertthunder/libport/internal/shared"
)

// Track record keys.
const (
	KeyTrackID            = "Track ID"
	KeyPersistentID       = "Persistent ID"
	KeyLocation           = "Location"
	KeyAlbum              = "Album"
	KeyAlbumArtist        = "Album Artist"
	KeyArtist             = "Artist"
	KeyGenre              = "Genre"
	KeyGrouping           = "Grouping"
	KeyName               = "Name"
	KeyTrackType          = "Track Type"
	KeyKind               = "Kind"
	KeyBitRate            = "Bit Rate"
	KeyBPM                = "BPM"
	KeyPlayCount          = "Play Count"
	KeyRating             = "Rating"
	KeySampleRate         = "Sample Rate"
	KeySize               = "Size"
	KeyTotalTime          = "Total Time"
	KeyTrackNumber        = "Track Number"
	KeyVolumeAdjustment   = "Volume Adjustment"
	KeyYear               = "Year"
	KeyArtworkCount       = "Artwork Count"
	KeyFileFolderCount    = "File Folder Count"
	KeyLibraryFolderCount = "Library Folder Count"
	KeyNormalization      = "Normalization"
	KeyDateAdded          = "Date Added"
	KeyDateModified       = "Date Modified"
	KeyLoved              = "Loved"
)

// Track is a typed view of one record of the Tracks dictionary.
//
// Identity fields are always present on a Track; records lacking any of them are reported as a [TrackIssue]
// instead. Optional fields are nil when absent. Keys that are not modelled, and modelled keys holding a value
// of the wrong plist type, are kept as they were and written back in their original position.
//
// Pointer fields are treated as immutable: replace them rather than writing through them, since copies of a
// Track share the pointed-to values.
type Track struct {
	TrackID      int64  `json:"trackId"`
	PersistentID string `json:"persistentId"`
	Location     string `json:"location"`

	Album       *string `json:"album,omitempty"`
	AlbumArtist *string `json:"albumArtist,omitempty"`
	Artist      *string `json:"artist,omitempty"`
	Genre       *string `json:"genre,omitempty"`
	Grouping    *string `json:"grouping,omitempty"`
	Name        *string `json:"name,omitempty"`
	TrackType   *string `json:"trackType,omitempty"`
	Kind        *string `json:"kind,omitempty"`

	BitRate            *int64 `json:"bitRate,omitempty"`
	BPM                *int64 `json:"bpm,omitempty"`
	PlayCount          *int64 `json:"playCount,omitempty"`
	Rating             *int64 `json:"rating,omitempty"`
	SampleRate         *int64 `json:"sampleRate,omitempty"`
	Size               *int64 `json:"size,omitempty"`
	TotalTime          *int64 `json:"totalTime,omitempty"`
	TrackNumber        *int64 `json:"trackNumber,omitempty"`
	VolumeAdjustment   *int64 `json:"volumeAdjustment,omitempty"`
	Year               *int64 `json:"year,omitempty"`
	ArtworkCount       *int64 `json:"artworkCount,omitempty"`
	FileFolderCount    *int64 `json:"fileFolderCount,omitempty"`
	LibraryFolderCount *int64 `json:"libraryFolderCount,omitempty"`
	Normalization      *int64 `json:"normalization,omitempty"`

	DateAdded    *time.Time `json:"dateAdded,omitempty"`
	DateModified *time.Time `json:"dateModified,omitempty"`

	Loved *bool `json:"loved,omitempty"`

	extra *plist.Dict
	order []string
}

// TrackIssue reports a Tracks entry that cannot be read as a [Track].
type TrackIssue struct {
	Key     string   // key of the entry in the Tracks dictionary
	Missing []string // identity fields that are absent or of the wrong type
}

func (i *TrackIssue) Error() string {
	return fmt.Sprintf("%v: track %q lacks %s", shared.ErrMissingFields, i.Key, strings.Join(i.Missing, ", "))
}

func (i *TrackIssue) Unwrap() error { return shared.ErrMissingFields }

// trackField binds a record key to a typed Track field.
type trackField struct {
	key string
	get func(*Track) (plist.Value, bool)
	set func(*Track, plist.Value) bool
}

func required[T any](key string, ref func(*Track) *T, enc func(T) plist.Value, dec func(plist.Value) (T, bool)) trackField {
	return trackField{
		key: key,
		get: func(t *Track) (plist.Value, bool) { return enc(*ref(t)), true },
		set: func(t *Track, v plist.Value) bool {
			x, ok := dec(v)
			if ok {
				*ref(t) = x
			}
			return ok
		},
	}
}

func optional[T any](key string, ref func(*Track) **T, enc func(T) plist.Value, dec func(plist.Value) (T, bool)) trackField {
	return trackField{
		key: key,
		get: func(t *Track) (plist.Value, bool) {
			p := *ref(t)
			if p == nil {
				return nil, false
			}
			return enc(*p), true
		},
		set: func(t *Track, v plist.Value) bool {
			x, ok := dec(v)
			if ok {
				*ref(t) = &x
			}
			return ok
		},
	}
}

func optString(key string, ref func(*Track) **string) trackField {
	return optional(key, ref, encString, decString)
}

func optInt(key string, ref func(*Track) **int64) trackField {
	return optional(key, ref, encInt, plist.AsInt64)
}

func optDate(key string, ref func(*Track) **time.Time) trackField {
	return optional(key, ref, encDate, decDate)
}

func encString(s string) plist.Value  { return plist.String(s) }
func encInt(n int64) plist.Value      { return plist.Integer(n) }
func encDate(t time.Time) plist.Value { return plist.NewDate(t) }
func encBool(b bool) plist.Value      { return plist.Bool(b) }

func decString(v plist.Value) (string, bool) {
	s, ok := v.(plist.String)
	return string(s), ok
}

func decDate(v plist.Value) (time.Time, bool) {
	d, ok := v.(plist.Date)
	return d.Time(), ok
}

func decBool(v plist.Value) (bool, bool) {
	b, ok := v.(plist.Bool)
	return bool(b), ok
}

// trackFields lists modelled keys in the order new keys are appended to a record.
var trackFields = []trackField{
	required(KeyTrackID, func(t *Track) *int64 { return &t.TrackID }, encInt, plist.AsInt64),
	optString(KeyName, func(t *Track) **string { return &t.Name }),
	optString(KeyArtist, func(t *Track) **string { return &t.Artist }),
	optString(KeyAlbumArtist, func(t *Track) **string { return &t.AlbumArtist }),
	optString(KeyAlbum, func(t *Track) **string { return &t.Album }),
	optString(KeyGrouping, func(t *Track) **string { return &t.Grouping }),
	optString(KeyGenre, func(t *Track) **string { return &t.Genre }),
	optString(KeyKind, func(t *Track) **string { return &t.Kind }),
	optInt(KeySize, func(t *Track) **int64 { return &t.Size }),
	optInt(KeyTotalTime, func(t *Track) **int64 { return &t.TotalTime }),
	optInt(KeyTrackNumber, func(t *Track) **int64 { return &t.TrackNumber }),
	optInt(KeyYear, func(t *Track) **int64 { return &t.Year }),
	optInt(KeyBPM, func(t *Track) **int64 { return &t.BPM }),
	optDate(KeyDateModified, func(t *Track) **time.Time { return &t.DateModified }),
	optDate(KeyDateAdded, func(t *Track) **time.Time { return &t.DateAdded }),
	optInt(KeyBitRate, func(t *Track) **int64 { return &t.BitRate }),
	optInt(KeySampleRate, func(t *Track) **int64 { return &t.SampleRate }),
	optInt(KeyVolumeAdjustment, func(t *Track) **int64 { return &t.VolumeAdjustment }),
	optInt(KeyPlayCount, func(t *Track) **int64 { return &t.PlayCount }),
	optInt(KeyRating, func(t *Track) **int64 { return &t.Rating }),
	optInt(KeyNormalization, func(t *Track) **int64 { return &t.Normalization }),
	optInt(KeyArtworkCount, func(t *Track) **int64 { return &t.ArtworkCount }),
	required(KeyPersistentID, func(t *Track) *string { return &t.PersistentID }, encString, decString),
	optString(KeyTrackType, func(t *Track) **string { return &t.TrackType }),
	optional(KeyLoved, func(t *Track) **bool { return &t.Loved }, encBool, decBool),
	required(KeyLocation, func(t *Track) *string { return &t.Location }, encString, decString),
	optInt(KeyFileFolderCount, func(t *Track) **int64 { return &t.FileFolderCount }),
	optInt(KeyLibraryFolderCount, func(t *Track) **int64 { return &t.LibraryFolderCount }),
}

var fieldIndex = func() map[string]int {
	m := make(map[string]int, len(trackFields))
	for i, f := range trackFields {
		m[f.key] = i
	}
	return m
}()

// IdentityKeys are the fields every track record must carry.
var IdentityKeys = []string{KeyTrackID, KeyPersistentID, KeyLocation}

// TrackFromDict reads a record of the Tracks dictionary stored under key.
func TrackFromDict(key string, d *plist.Dict) (Track, *TrackIssue) {
	var t Track
	if d == nil {
		return t, &TrackIssue{Key: key, Missing: slices.Clone(IdentityKeys)}
	}

	t.extra = &plist.Dict{}
	t.order = make([]string, 0, d.Len())
	seen := make(map[string]bool, len(IdentityKeys))

	for k, v := range d.All() {
		t.order = append(t.order, k)
		if i, ok := fieldIndex[k]; ok && trackFields[i].set(&t, v) {
			seen[k] = true
			continue
		}
		t.extra.Set(k, v)
	}

	var missing []string
	for _, k := range IdentityKeys {
		if !seen[k] {
			missing = append(missing, k)
		}
	}
	if len(missing) > 0 {
		return Track{}, &TrackIssue{Key: key, Missing: missing}
	}
	return t, nil
}

// ToDict renders the track as a record. Keys read from the source keep their position; fields set since then
// are appended in a fixed order.
func (t Track) ToDict() *plist.Dict {
	d := plist.NewDict()
	written := make(map[string]bool, len(t.order)+len(trackFields))

	for _, k := range t.order {
		if i, ok := fieldIndex[k]; ok {
			if v, ok := trackFields[i].get(&t); ok {
				d.Set(k, v)
				written[k] = true
				continue
			}
		}
		if v, ok := t.extra.Get(k); ok {
			d.Set(k, v)
			written[k] = true
		}
	}

	for _, f := range trackFields {
		if written[f.key] {
			continue
		}
		if v, ok := f.get(&t); ok {
			d.Set(f.key, v)
		}
	}

	for k, v := range t.extra.All() {
		if !written[k] && !d.Has(k) {
			d.Set(k, v)
		}
	}
	return d
}

// Extra returns a passthrough value: a key this package does not model, or a modelled key whose value had
// an unexpected type.
func (t Track) Extra(key string) (plist.Value, bool) {
	return t.extra.Get(key)
}

// SetExtra stores a passthrough value.
func (t *Track) SetExtra(key string, v plist.Value) {
	if t.extra == nil {
		t.extra = &plist.Dict{}
	} else {
		t.extra = t.extra.Clone()
	}
	t.extra.Set(key, v)
}

// Clone returns a copy that can be modified without affecting t.
func (t Track) Clone() Track {
	c := t
	if t.extra != nil {
		c.extra = t.extra.Clone()
	}
	c.order = slices.Clone(t.order)
	return c
}

// Title returns the track name, falling back to the file name of its location.
func (t Track) Title() string {
	if t.Name != nil && *t.Name != "" {
		return *t.Name
	}
	if p, err := LocationToPath(t.Location); err == nil {
		return fileName(p)
	}
	return t.Location
}

func fileName(p string) string {
	if i := strings.LastIndexByte(p, '/'); i >= 0 {
		return p[i+1:]
	}
	return p
}

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func ptr[T any](v T) *T { return &v }
