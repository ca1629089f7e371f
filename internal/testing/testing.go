// package testing contains shared testing utilities
package testing

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"
)

// SwinsianLibrary is a small source-dialect library.
//
// Tracks 1-3 are valid (mp3, flac, aiff); track 4 has no Location. Playlists are the master list, two user
// playlists ("playlist-id-1" with tracks 1 and 2, "playlist-id-2" with track 3) and a hidden one.
const SwinsianLibrary = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple Computer//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>Major Version</key><integer>1</integer>
	<key>Minor Version</key><integer>1</integer>
	<key>Application Version</key><string>3.0.1</string>
	<key>Date</key><date>2024-03-01T12:30:00Z</date>
	<key>Features</key><integer>5</integer>
	<key>Show Content Ratings</key><true/>
	<key>Library Persistent ID</key><string>55E5F6A3B2C1D0E9</string>
	<key>Music Folder</key><string>file:///Users/dj/Music/</string>
	<key>Tracks</key>
	<dict>
		<key>1</key>
		<dict>
			<key>Track ID</key><integer>1</integer>
			<key>Name</key><string>O&apos;Brien&apos;s Theme</string>
			<key>Artist</key><string>Caf&eacute; Society</string>
			<key>Genre</key><string>House</string>
			<key>Size</key><integer>8123456</integer>
			<key>Total Time</key><integer>301000</integer>
			<key>BPM</key><integer>124</integer>
			<key>Date Added</key><date>2023-05-01T10:00:00Z</date>
			<key>Persistent ID</key><string>12345678901234567890</string>
			<key>Comments</key><string>swinsian-only field</string>
			<key>Location</key><string>file:///Users/dj/Music/Library/House/track%201.mp3</string>
		</dict>
		<key>2</key>
		<dict>
			<key>Track ID</key><integer>2</integer>
			<key>Name</key><string>Rock &amp; Roll</string>
			<key>Artist</key><string>The Band</string>
			<key>Year</key><string>nineteen-seventy</string>
			<key>Persistent ID</key><string>255</string>
			<key>Location</key><string>file:///Users/dj/Music/Library/Rock/song.FLAC</string>
		</dict>
		<key>3</key>
		<dict>
			<key>Track ID</key><integer>3</integer>
			<key>Name</key><string>Ambient</string>
			<key>Persistent ID</key><string>1</string>
			<key>Location</key><string>file:///Users/dj/Music/Library/Ambient/drone.aiff</string>
		</dict>
		<key>4</key>
		<dict>
			<key>Track ID</key><integer>4</integer>
			<key>Name</key><string>Nowhere</string>
			<key>Persistent ID</key><string>4</string>
		</dict>
	</dict>
	<key>Playlists</key>
	<array>
		<dict>
			<key>Name</key><string>Library</string>
			<key>Master</key><true/>
			<key>Visible</key><false/>
			<key>Playlist ID</key><integer>100</integer>
			<key>Playlist Persistent ID</key><string>master-id</string>
			<key>All Items</key><true/>
			<key>Playlist Items</key>
			<array>
				<dict><key>Track ID</key><integer>1</integer></dict>
				<dict><key>Track ID</key><integer>2</integer></dict>
				<dict><key>Track ID</key><integer>3</integer></dict>
			</array>
		</dict>
		<dict>
			<key>Name</key><string>Warm Up</string>
			<key>Playlist ID</key><integer>101</integer>
			<key>Playlist Persistent ID</key><string>playlist-id-1</string>
			<key>All Items</key><true/>
			<key>Playlist Items</key>
			<array>
				<dict><key>Track ID</key><integer>1</integer></dict>
				<dict><key>Track ID</key><integer>2</integer></dict>
			</array>
		</dict>
		<dict>
			<key>Name</key><string>Late Night</string>
			<key>Playlist ID</key><integer>102</integer>
			<key>Playlist Persistent ID</key><string>playlist-id-2</string>
			<key>Parent Persistent ID</key><string>playlist-id-1</string>
			<key>Description</key><string>after hours</string>
			<key>All Items</key><true/>
			<key>Playlist Items</key>
			<array>
				<dict><key>Track ID</key><integer>3</integer></dict>
			</array>
		</dict>
		<dict>
			<key>Name</key><string>Hidden</string>
			<key>Visible</key><false/>
			<key>Playlist ID</key><integer>103</integer>
			<key>Playlist Persistent ID</key><string>hidden-id</string>
			<key>Playlist Items</key><array/>
		</dict>
	</array>
</dict>
</plist>
`

// LibraryWithPlaylists returns a one-track library whose Playlists key holds raw, which may be any plist
// fragment. An empty raw omits the key.
func LibraryWithPlaylists(raw string) string {
	playlists := ""
	if raw != "" {
		playlists = "\t<key>Playlists</key>" + raw + "\n"
	}
	return `<?xml version="1.0" encoding="UTF-8"?>
<plist version="1.0">
<dict>
	<key>Date</key><date>2024-03-01T12:30:00Z</date>
	<key>Tracks</key>
	<dict>
		<key>7</key>
		<dict>
			<key>Track ID</key><integer>7</integer>
			<key>Persistent ID</key><string>7</string>
			<key>Location</key><string>file:///music/a.wav</string>
		</dict>
	</dict>
` + playlists + `</dict>
</plist>
`
}

// WriteLibrary writes content to dir/name and returns the path.
func WriteLibrary(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to write library %s: %v", path, err)
	}
	return path
}

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertFileNotExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); err == nil {
		t.Errorf("File should not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
