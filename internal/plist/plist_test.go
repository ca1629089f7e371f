package plist

import (
	"errors"
	"strings"
	"testing"
	"time"
)

const sampleLibrary = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>Major Version</key><integer>1</integer>
	<key>Application Version</key><string>3.0.1</string>
	<key>Date</key><date>2024-03-01T12:30:00Z</date>
	<key>Tracks</key>
	<dict>
		<key>42</key>
		<dict>
			<key>Track ID</key><integer>42</integer>
			<key>Name</key><string>Caf&eacute; &amp; Bar</string>
			<key>Size</key><integer>18446744073709551615</integer>
			<key>Rating</key><real>4.5</real>
			<key>Compilation</key><true/>
			<key>Artwork</key><data>aGVsbG8=</data>
		</dict>
	</dict>
	<key>Playlists</key>
	<array>
		<dict>
			<key>Name</key><string>Empty</string>
			<key>Playlist Items</key><array/>
		</dict>
	</array>
</dict>
</plist>
`

func TestDecode(t *testing.T) {
	t.Run("Library Document", func(t *testing.T) {
		v, err := Decode([]byte(sampleLibrary))
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}

		root, ok := v.(*Dict)
		if !ok {
			t.Fatalf("expected *Dict root, got %T", v)
		}

		want := []string{"Major Version", "Application Version", "Date", "Tracks", "Playlists"}
		if got := root.Keys(); strings.Join(got, "|") != strings.Join(want, "|") {
			t.Errorf("expected key order %v, got %v", want, got)
		}

		if date, ok := root.Date("Date"); !ok || !date.Equal(time.Date(2024, 3, 1, 12, 30, 0, 0, time.UTC)) {
			t.Errorf("unexpected Date %v (ok=%v)", date, ok)
		}

		tracks, ok := root.Dict("Tracks")
		if !ok {
			t.Fatal("expected Tracks dict")
		}
		track, ok := tracks.Dict("42")
		if !ok {
			t.Fatal("expected track 42")
		}

		if name, _ := track.String("Name"); name != "Café & Bar" {
			t.Errorf("expected entities to be resolved, got %q", name)
		}
		if size, _ := track.Get("Size"); !Equal(size, Unsigned(18446744073709551615)) {
			t.Errorf("expected Unsigned size, got %#v", size)
		}
		if _, ok := track.Int("Size"); ok {
			t.Error("expected overflowing Unsigned to be rejected by Int")
		}
		if rating, _ := track.Get("Rating"); !Equal(rating, Real(4.5)) {
			t.Errorf("expected Real 4.5, got %#v", rating)
		}
		if c, ok := track.Bool("Compilation"); !ok || !c {
			t.Error("expected Compilation true")
		}
		if art, _ := track.Get("Artwork"); string(art.(Data)) != "hello" {
			t.Errorf("expected decoded data, got %q", art)
		}

		playlists, ok := root.Array("Playlists")
		if !ok || len(playlists) != 1 {
			t.Fatalf("expected one playlist, got %v", playlists)
		}
		items, ok := playlists[0].(*Dict).Array("Playlist Items")
		if !ok || len(items) != 0 {
			t.Errorf("expected empty Playlist Items array, got %v", items)
		}
	})

	t.Run("Bare Dict Root", func(t *testing.T) {
		v, err := Decode([]byte(`<dict><key>a</key><string>b</string></dict>`))
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		if s, _ := v.(*Dict).String("a"); s != "b" {
			t.Errorf("expected a=b, got %q", s)
		}
	})

	t.Run("Numeric Character References", func(t *testing.T) {
		v, err := Decode([]byte(`<plist><string>&#233;&#xE9;&apos;</string></plist>`))
		if err != nil {
			t.Fatalf("Decode failed: %v", err)
		}
		if v != String("éé'") {
			t.Errorf("unexpected value %#v", v)
		}
	})

	t.Run("Errors", func(t *testing.T) {
		tests := []struct {
			name  string
			input string
			want  string
		}{
			{"empty document", ``, "no root element"},
			{"wrong root", `<array/>`, "unexpected root element"},
			{"unclosed", `<plist><dict><key>a</key>`, ""},
			{"mismatched tag", `<plist><string>a</integer></plist>`, "malformed XML"},
			{"bad integer", `<plist><integer>twelve</integer></plist>`, "invalid <integer>"},
			{"bad date", `<plist><date>yesterday</date></plist>`, "invalid <date>"},
			{"bad data", `<plist><data>!!!</data></plist>`, "invalid <data>"},
			{"key without value", `<plist><dict><key>a</key></dict></plist>`, "has no value"},
			{"value without key", `<plist><dict><string>a</string></dict></plist>`, "expected <key>"},
			{"duplicate key", `<dict><key>a</key><true/><key>a</key><false/></dict>`, "duplicate key"},
			{"stray key", `<plist><key>a</key></plist>`, "outside of <dict>"},
			{"unknown element", `<plist><set/></plist>`, "unknown element"},
			{"two values", `<plist><true/><false/></plist>`, "more than one value"},
			{"trailing element", `<dict/><dict/>`, "after root element"},
			{"text in dict", `<dict>oops</dict>`, "unexpected text"},
			{"content in bool", `<plist><true>yes</true></plist>`, "must be empty"},
			{"unknown entity", `<plist><string>&bogus;</string></plist>`, "malformed XML"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				_, err := Decode([]byte(tt.input))
				if err == nil {
					t.Fatal("expected error")
				}

				var perr *ParseError
				if !errors.As(err, &perr) {
					t.Fatalf("expected *ParseError, got %T: %v", err, err)
				}
				if tt.want != "" && !strings.Contains(err.Error(), tt.want) {
					t.Errorf("expected error containing %q, got %q", tt.want, err.Error())
				}
			})
		}
	})
}

func TestEncode(t *testing.T) {
	t.Run("Layout", func(t *testing.T) {
		root := NewDict(
			Entry{"Name", String(`Rock & "Roll" <Live>`)},
			Entry{"Count", Integer(-3)},
			Entry{"Loved", Bool(false)},
			Entry{"Items", Array{Integer(1), NewDict()}},
			Entry{"Empty", Array{}},
		)

		out, err := Encode(root, EncodeOptions{})
		if err != nil {
			t.Fatalf("Encode failed: %v", err)
		}

		want := `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>Name</key>
	<string>Rock &amp; "Roll" &lt;Live&gt;</string>
	<key>Count</key>
	<integer>-3</integer>
	<key>Loved</key>
	<false/>
	<key>Items</key>
	<array>
		<integer>1</integer>
		<dict/>
	</array>
	<key>Empty</key>
	<array/>
</dict>
</plist>
`
		if string(out) != want {
			t.Errorf("unexpected output:\n%s\nwant:\n%s", out, want)
		}
	})

	t.Run("Custom Indent", func(t *testing.T) {
		out, err := Encode(NewDict(Entry{"a", Bool(true)}), EncodeOptions{Indent: "  "})
		if err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
		if !strings.Contains(string(out), "\n  <key>a</key>\n  <true/>\n") {
			t.Errorf("expected two-space indent, got:\n%s", out)
		}
	})

	t.Run("Invalid Characters", func(t *testing.T) {
		out, err := Encode(String("a\x00b\rc"), EncodeOptions{})
		if err != nil {
			t.Fatalf("Encode failed: %v", err)
		}
		if !strings.Contains(string(out), "<string>a�b&#13;c</string>") {
			t.Errorf("unexpected escaping:\n%s", out)
		}
	})

	t.Run("Nil Value", func(t *testing.T) {
		_, err := Encode(NewDict(Entry{"broken", nil}), EncodeOptions{})
		if !errors.Is(err, ErrNilValue) {
			t.Fatalf("expected ErrNilValue, got %v", err)
		}
		if !strings.Contains(err.Error(), `"broken"`) {
			t.Errorf("expected key in error, got %v", err)
		}
	})
}

func TestRoundTrip(t *testing.T) {
	trees := map[string]Value{
		"library": mustDecode(t, sampleLibrary),
		"scalars": Array{
			String(""),
			String("tab\there\nnewline\rreturn"),
			Integer(0),
			Integer(-9223372036854775808),
			Unsigned(18446744073709551615),
			Real(0.1),
			Real(-1e300),
			NewDate(time.Date(1999, 12, 31, 23, 59, 59, 0, time.FixedZone("X", 3600))),
			Bool(true),
			Data{},
			Data{0, 1, 2, 255},
		},
		"nested": NewDict(
			Entry{"z", NewDict(Entry{"y", Array{Array{}, NewDict()}})},
			Entry{"a", String("ünïcødé ♫")},
		),
	}

	for name, tree := range trees {
		t.Run(name, func(t *testing.T) {
			out, err := Encode(tree, EncodeOptions{})
			if err != nil {
				t.Fatalf("Encode failed: %v", err)
			}
			back, err := Decode(out)
			if err != nil {
				t.Fatalf("Decode failed: %v\n%s", err, out)
			}
			if !Equal(tree, back) {
				t.Errorf("round trip mismatch:\n%s", out)
			}

			again, err := Encode(back, EncodeOptions{})
			if err != nil {
				t.Fatalf("second Encode failed: %v", err)
			}
			if string(again) != string(out) {
				t.Error("expected encoding to be stable across round trips")
			}
		})
	}
}

func TestDict(t *testing.T) {
	t.Run("Set Keeps Position", func(t *testing.T) {
		d := NewDict(Entry{"a", Integer(1)}, Entry{"b", Integer(2)}, Entry{"c", Integer(3)})
		d.Set("b", String("two"))
		d.Set("d", Integer(4))

		if got := strings.Join(d.Keys(), ""); got != "abcd" {
			t.Errorf("expected abcd, got %s", got)
		}
		if v, _ := d.Get("b"); v != String("two") {
			t.Errorf("expected replaced value, got %#v", v)
		}
	})

	t.Run("Delete Reindexes", func(t *testing.T) {
		d := NewDict(Entry{"a", Integer(1)}, Entry{"b", Integer(2)}, Entry{"c", Integer(3)})
		if !d.Delete("a") {
			t.Fatal("expected delete to succeed")
		}
		if d.Delete("a") {
			t.Error("expected second delete to report false")
		}
		if n, _ := d.Int("c"); n != 3 {
			t.Errorf("expected c=3 after reindex, got %d", n)
		}
		d.Set("c", Integer(30))
		if got := strings.Join(d.Keys(), ""); got != "bc" {
			t.Errorf("expected bc, got %s", got)
		}
	})

	t.Run("Clone Is Independent", func(t *testing.T) {
		d := NewDict(Entry{"a", Integer(1)})
		c := d.Clone()
		c.Set("b", Integer(2))
		c.Set("a", Integer(10))

		if d.Len() != 1 {
			t.Errorf("expected original to keep 1 entry, got %d", d.Len())
		}
		if n, _ := d.Int("a"); n != 1 {
			t.Errorf("expected original a=1, got %d", n)
		}
	})

	t.Run("Zero Value", func(t *testing.T) {
		var d Dict
		if _, ok := d.Get("x"); ok {
			t.Error("expected missing key")
		}
		d.Set("x", Bool(true))
		if !d.Has("x") {
			t.Error("expected key after Set")
		}
	})

	t.Run("Typed Accessors Reject Mismatches", func(t *testing.T) {
		d := NewDict(Entry{"n", String("5")})
		if _, ok := d.Int("n"); ok {
			t.Error("expected Int to reject a string")
		}
		if _, ok := d.Dict("n"); ok {
			t.Error("expected Dict to reject a string")
		}
	})
}

func TestEqual(t *testing.T) {
	a := NewDict(Entry{"x", Integer(1)}, Entry{"y", Integer(2)})
	b := NewDict(Entry{"y", Integer(2)}, Entry{"x", Integer(1)})
	if Equal(a, b) {
		t.Error("expected key order to matter")
	}
	if Equal(Integer(1), Real(1)) {
		t.Error("expected different kinds to differ")
	}
	if !Equal(NewDict(), &Dict{}) {
		t.Error("expected empty dicts to be equal")
	}
}

func mustDecode(t *testing.T, s string) Value {
	t.Helper()
	v, err := Decode([]byte(s))
	if err != nil {
		t.Fatalf("Decode failed: %v", err)
	}
	return v
}
