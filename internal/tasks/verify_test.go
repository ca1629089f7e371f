package tasks

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/desertthunder/libport/internal/shared"
	tu "github.com/desertthunder/libport/internal/testing"
)

func TestVerifyBytes(t *testing.T) {
	t.Run("Converted Library", func(t *testing.T) {
		conv := NewConverter(nil).Convert(mustParse(t, tu.SwinsianLibrary), nil)
		out, err := Serialize(conv.Library, DefaultSerializeOptions())
		if err != nil {
			t.Fatalf("failed to serialize: %v", err)
		}

		report, err := VerifyBytes(out)
		if err != nil {
			t.Fatalf("expected library to verify, got %v: %v", err, report)
		}
		if report.Format != "XML" || !report.LegacyDoctype {
			t.Errorf("unexpected format %s legacy=%v", report.Format, report.LegacyDoctype)
		}
		if report.Tracks != 3 || report.Skipped != 1 || report.Playlists != 4 || report.PlaylistItems != 6 {
			t.Errorf("unexpected counts %+v", report)
		}
	})

	t.Run("Source Library", func(t *testing.T) {
		report, err := VerifyBytes([]byte(tu.SwinsianLibrary))
		if !errors.Is(err, shared.ErrVerificationFailed) {
			t.Fatalf("expected ErrVerificationFailed, got %v", err)
		}
		if report.OK() {
			t.Fatal("expected problems")
		}

		problems := strings.Join(report.Problems, "\n")
		for _, want := range []string{
			`track 1: Persistent ID "12345678901234567890"`,
			"track 1: missing Kind",
			"named entity &eacute; is not valid XML",
		} {
			if !strings.Contains(problems, want) {
				t.Errorf("expected problem %q in:\n%s", want, problems)
			}
		}
		if strings.Contains(problems, "track 4") || report.Skipped != 1 {
			t.Errorf("expected track 4 to be skipped, got skipped=%d problems:\n%s", report.Skipped, problems)
		}
	})

	t.Run("Dangling Playlist Item", func(t *testing.T) {
		doc := `<plist><dict>
			<key>Tracks</key><dict/>
			<key>Playlists</key><array><dict>
				<key>Name</key><string>Ghosts</string>
				<key>Playlist Items</key><array><dict><key>Track ID</key><integer>9</integer></dict></array>
			</dict></array>
		</dict></plist>`

		report, err := VerifyBytes([]byte(doc))
		if !errors.Is(err, shared.ErrVerificationFailed) {
			t.Fatalf("expected ErrVerificationFailed, got %v", err)
		}
		if len(report.Problems) != 1 || !strings.Contains(report.Problems[0], "unknown track 9") {
			t.Errorf("unexpected problems %v", report.Problems)
		}
	})

	t.Run("Not A Property List", func(t *testing.T) {
		_, err := VerifyBytes([]byte("{ unterminated"))
		if !errors.Is(err, shared.ErrParse) {
			t.Errorf("expected ErrParse, got %v", err)
		}
	})
}

func TestEngineVerify(t *testing.T) {
	t.Run("Missing File", func(t *testing.T) {
		_, err := NewEngine(nil, nil).Verify(context.Background(), nil, filepath.Join(t.TempDir(), "nope.xml"))
		if !errors.Is(err, shared.ErrInputNotFound) {
			t.Errorf("expected ErrInputNotFound, got %v", err)
		}
	})

	t.Run("Reports Path", func(t *testing.T) {
		path := tu.WriteLibrary(t, t.TempDir(), "SwinsianLibrary.xml", tu.SwinsianLibrary)
		progress := make(chan ProgressUpdate, 10)

		report, err := NewEngine(nil, nil).Verify(context.Background(), progress, path)
		if !errors.Is(err, shared.ErrVerificationFailed) {
			t.Errorf("expected ErrVerificationFailed, got %v", err)
		}
		if report.Path != path {
			t.Errorf("expected path %s, got %s", path, report.Path)
		}
		if updates := drain(progress); len(updates) != 1 || updates[0].Phase != VerifyLibrary {
			t.Errorf("unexpected progress %v", updates)
		}
	})
}
