package ui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/libport/internal/models"
	"github.com/desertthunder/libport/internal/shared"
	"github.com/desertthunder/libport/internal/tasks"
	tu "github.com/desertthunder/libport/internal/testing"
)

var (
	space = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	enter = tea.KeyMsg{Type: tea.KeyEnter}
	tab   = tea.KeyMsg{Type: tea.KeyTab}
	esc   = tea.KeyMsg{Type: tea.KeyEsc}
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// fakeEngine records the options it was run with and reports a fixed result.
type fakeEngine struct {
	opts     tasks.RunOpts
	warnings []error
	err      error
}

func (f *fakeEngine) Run(_ context.Context, progress chan<- tasks.ProgressUpdate, opts tasks.RunOpts) (*tasks.RunResult, error) {
	f.opts = opts
	progress <- tasks.ProgressUpdate{Phase: tasks.LoadLibrary, Step: 1, Total: 1, Message: "Loaded"}
	progress <- tasks.ProgressUpdate{Phase: tasks.ConvertTracks, Step: 3, Total: 4, Message: "Converted"}
	if f.err != nil {
		return nil, f.err
	}
	return &tasks.RunResult{
		InputPath:    opts.InputPath,
		OutputPath:   opts.OutputPath,
		BytesWritten: 1024,
		Conversion: &tasks.Conversion{
			TracksTotal:     4,
			TracksConverted: 3,
			TracksSkipped:   1,
			PlaylistsTotal:  4,
			PlaylistsKept:   len(opts.SelectedPlaylistIDs),
			Warnings:        f.warnings,
		},
	}, nil
}

func (f *fakeEngine) BulkConvert(context.Context, chan<- tasks.ProgressUpdate, []string, tasks.BulkConvertOpts) (*tasks.BulkConvertResult, error) {
	return nil, shared.ErrNotImplemented
}

func (f *fakeEngine) Verify(context.Context, chan<- tasks.ProgressUpdate, string) (*tasks.VerifyReport, error) {
	return nil, shared.ErrNotImplemented
}

func loadLibrary(t *testing.T) *models.Library {
	t.Helper()
	path := tu.WriteLibrary(t, t.TempDir(), "SwinsianLibrary.xml", tu.SwinsianLibrary)
	lib, err := tasks.Load(path, shared.NopLogger())
	if err != nil {
		t.Fatalf("failed to load library: %v", err)
	}
	return lib
}

func press(m *Model, msgs ...tea.Msg) tea.Cmd {
	var cmd tea.Cmd
	for _, msg := range msgs {
		_, cmd = m.Update(msg)
	}
	return cmd
}

func isQuit(cmd tea.Cmd) bool {
	if cmd == nil {
		return false
	}
	_, ok := cmd().(tea.QuitMsg)
	return ok
}

// drive runs commands until the model stops producing them or reaches the result view.
func drive(t *testing.T, m *Model, cmd tea.Cmd) {
	t.Helper()
	for range 20 {
		if cmd == nil || m.view == ResultView {
			return
		}
		_, cmd = m.Update(cmd())
	}
	t.Fatal("model did not settle")
}

func TestPicker(t *testing.T) {
	t.Run("Lists Visible Playlists", func(t *testing.T) {
		m := NewPicker(context.Background(), loadLibrary(t), nil)

		if m.view != PickView {
			t.Fatalf("expected pick view, got %d", m.view)
		}
		if len(m.playlistList.Items()) != 2 {
			t.Errorf("expected 2 visible playlists, got %d", len(m.playlistList.Items()))
		}
		if m.Init() != nil {
			t.Error("expected no load command for a provided library")
		}

		child := m.playlistList.Items()[1].(playlistItem)
		if child.Title() != "[ ]   Late Night" {
			t.Errorf("expected nested title, got %q", child.Title())
		}
		if child.Description() != "1 tracks • after hours" {
			t.Errorf("unexpected description %q", child.Description())
		}
	})

	t.Run("Toggle", func(t *testing.T) {
		m := NewPicker(context.Background(), loadLibrary(t), nil)

		press(m, space)
		if got := m.Selected(); !slices.Equal(got, []string{"playlist-id-1"}) {
			t.Errorf("expected first playlist selected, got %v", got)
		}

		press(m, runes("j"), space)
		if got := m.Selected(); !slices.Equal(got, []string{"playlist-id-1", "playlist-id-2"}) {
			t.Errorf("expected both playlists selected, got %v", got)
		}

		press(m, space)
		if got := m.Selected(); !slices.Equal(got, []string{"playlist-id-1"}) {
			t.Errorf("expected second playlist cleared, got %v", got)
		}
		if !strings.HasPrefix(m.playlistList.Items()[0].(playlistItem).Title(), "[x]") {
			t.Error("expected list item to show the selection")
		}
	})

	t.Run("Toggle All", func(t *testing.T) {
		m := NewPicker(context.Background(), loadLibrary(t), []string{"playlist-id-2"})

		if got := m.Selected(); !slices.Equal(got, []string{"playlist-id-2"}) {
			t.Errorf("expected preselection, got %v", got)
		}

		press(m, runes("a"))
		if len(m.Selected()) != 2 {
			t.Errorf("expected all selected, got %v", m.Selected())
		}

		press(m, runes("a"))
		if len(m.Selected()) != 0 {
			t.Errorf("expected none selected, got %v", m.Selected())
		}
		if !strings.Contains(m.View(), "every playlist is kept") {
			t.Error("expected empty selection hint")
		}
	})

	t.Run("Preview Tracks", func(t *testing.T) {
		m := NewPicker(context.Background(), loadLibrary(t), nil)

		press(m, tab)
		if m.view != TrackListView {
			t.Fatalf("expected track list view, got %d", m.view)
		}
		items := m.trackList.Items()
		if len(items) != 2 {
			t.Fatalf("expected 2 tracks, got %d", len(items))
		}
		if d := items[0].(trackItem).Description(); d != "Café Society • mp3" {
			t.Errorf("unexpected track description %q", d)
		}

		press(m, esc)
		if m.view != PickView {
			t.Errorf("expected pick view after esc, got %d", m.view)
		}
	})

	t.Run("Confirm", func(t *testing.T) {
		m := NewPicker(context.Background(), loadLibrary(t), nil)

		press(m, space, enter)
		if m.view != ConfirmView {
			t.Fatalf("expected confirm view, got %d", m.view)
		}
		if view := m.View(); !strings.Contains(view, "Use this selection?") || !strings.Contains(view, "• Warm Up") {
			t.Errorf("unexpected confirm view:\n%s", view)
		}

		press(m, runes("n"))
		if m.view != PickView || m.Confirmed() {
			t.Error("expected n to return to the picker")
		}

		cmd := press(m, enter, runes("y"))
		if !m.Confirmed() || !isQuit(cmd) {
			t.Error("expected confirmation to quit the picker")
		}
	})

	t.Run("Quit", func(t *testing.T) {
		m := NewPicker(context.Background(), loadLibrary(t), nil)
		if !isQuit(press(m, runes("q"))) {
			t.Error("expected q to quit")
		}
		if m.Confirmed() {
			t.Error("expected selection to be unconfirmed")
		}
	})
}

func TestModel(t *testing.T) {
	setup := func(t *testing.T, engine tasks.ConversionEngine) *Model {
		t.Helper()
		dir := t.TempDir()
		input := tu.WriteLibrary(t, dir, "SwinsianLibrary.xml", tu.SwinsianLibrary)
		opts := tasks.RunOpts{InputPath: input, OutputPath: filepath.Join(dir, "ModifiedLibrary.xml")}
		return NewModel(context.Background(), engine, opts, shared.NopLogger())
	}

	t.Run("Converts Selection", func(t *testing.T) {
		engine := &fakeEngine{}
		m := setup(t, engine)

		if !strings.Contains(m.View(), "Loading") {
			t.Error("expected loading view")
		}
		drive(t, m, m.Init())
		if m.view != PickView {
			t.Fatalf("expected pick view after load, got %d", m.view)
		}

		press(m, space, enter)
		if !strings.Contains(m.View(), "Convert 'SwinsianLibrary.xml'?") {
			t.Errorf("unexpected confirm view:\n%s", m.View())
		}

		drive(t, m, press(m, runes("y")))
		if m.view != ResultView {
			t.Fatalf("expected result view, got %d", m.view)
		}
		if !slices.Equal(engine.opts.SelectedPlaylistIDs, []string{"playlist-id-1"}) {
			t.Errorf("expected selection to reach the engine, got %v", engine.opts.SelectedPlaylistIDs)
		}
		if m.progress.Phase != tasks.ConvertTracks {
			t.Errorf("expected last progress update to be kept, got %s", m.progress.Phase)
		}

		view := m.View()
		for _, want := range []string{"Conversion Complete!", "3 converted, 1 skipped of 4", "1 of 4 kept"} {
			if !strings.Contains(view, want) {
				t.Errorf("result view missing %q:\n%s", want, view)
			}
		}
	})

	t.Run("Warnings Are Truncated", func(t *testing.T) {
		engine := &fakeEngine{}
		for i := range 7 {
			engine.warnings = append(engine.warnings, fmt.Errorf("warning %d", i))
		}
		m := setup(t, engine)
		drive(t, m, m.Init())
		drive(t, m, press(m, enter, runes("y")))

		view := m.View()
		if !strings.Contains(view, "7 warnings:") || !strings.Contains(view, "and 2 more") {
			t.Errorf("unexpected warnings section:\n%s", view)
		}
		if strings.Contains(view, "warning 6") {
			t.Error("expected warnings beyond the limit to be hidden")
		}
	})

	t.Run("Failure And Restart", func(t *testing.T) {
		engine := &fakeEngine{err: errors.New("disk full")}
		m := setup(t, engine)
		drive(t, m, m.Init())
		drive(t, m, press(m, enter, runes("y")))

		if !errors.Is(m.Err(), engine.err) || !strings.Contains(m.View(), "Conversion failed: disk full") {
			t.Errorf("expected failure view, got:\n%s", m.View())
		}

		press(m, runes("r"))
		if m.view != PickView || m.Err() != nil {
			t.Error("expected restart to return to the picker")
		}
	})

	t.Run("Load Error", func(t *testing.T) {
		m := NewModel(context.Background(), &fakeEngine{}, tasks.RunOpts{InputPath: filepath.Join(t.TempDir(), "missing.xml")}, nil)
		drive(t, m, m.Init())

		if !errors.Is(m.Err(), shared.ErrInputNotFound) {
			t.Errorf("expected ErrInputNotFound, got %v", m.Err())
		}
		if !strings.Contains(m.View(), "Error:") {
			t.Error("expected error view")
		}
		if !isQuit(press(m, runes("q"))) {
			t.Error("expected q to quit")
		}
	})

	t.Run("Window Size", func(t *testing.T) {
		m := setup(t, &fakeEngine{})
		press(m, tea.WindowSizeMsg{Width: 120, Height: 40})
		drive(t, m, m.Init())

		if m.playlistList.Width() != 116 {
			t.Errorf("expected list width 116, got %d", m.playlistList.Width())
		}
	})
}
