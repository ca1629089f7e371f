package ui

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/libport/internal/models"
	"github.com/desertthunder/libport/internal/shared"
	"github.com/desertthunder/libport/internal/tasks"
)

// ViewState represents the current view in the TUI.
type ViewState int

const (
	LoadingView ViewState = iota
	PickView
	TrackListView
	ConfirmView
	ConvertView
	ResultView
)

// maxWarnings bounds the warnings listed on the result view.
const maxWarnings = 5

// Model represents the TUI application state.
type Model struct {
	ctx      context.Context
	view     ViewState
	engine   tasks.ConversionEngine
	opts     tasks.RunOpts
	logger   shared.Logger
	pickOnly bool

	width  int
	height int

	library      *models.Library
	playlists    []models.Playlist
	selected     map[string]bool
	playlistList list.Model
	trackList    list.Model
	tracksShown  bool

	progressChan chan tasks.ProgressUpdate
	done         chan Msg
	progress     tasks.ProgressUpdate
	result       *tasks.RunResult
	confirmed    bool
	err          error

	help help.Model
	keys keyMap
}

// NewModel creates a TUI that loads the library at opts.InputPath, lets the user pick playlists and runs the
// conversion with engine.
func NewModel(ctx context.Context, engine tasks.ConversionEngine, opts tasks.RunOpts, logger shared.Logger) *Model {
	if logger == nil {
		logger = shared.NopLogger()
	}
	m := &Model{
		ctx:      ctx,
		view:     LoadingView,
		engine:   engine,
		opts:     opts,
		logger:   logger,
		selected: map[string]bool{},
		width:    80,
		height:   24,
		help:     help.New(),
		keys:     newKeyMap(),
	}
	for _, id := range opts.SelectedPlaylistIDs {
		m.selected[id] = true
	}
	return m
}

// NewPicker creates a TUI over an already loaded library that quits once the selection is confirmed.
func NewPicker(ctx context.Context, lib *models.Library, preselected []string) *Model {
	m := NewModel(ctx, nil, tasks.RunOpts{SelectedPlaylistIDs: preselected}, nil)
	m.pickOnly = true
	m.setLibrary(lib)
	return m
}

// Selected returns the persistent IDs of the marked playlists in document order.
func (m *Model) Selected() []string {
	ids := []string{}
	for _, p := range m.playlists {
		if m.selected[p.PersistentID] {
			ids = append(ids, p.PersistentID)
		}
	}
	return ids
}

// Confirmed reports whether the user accepted the selection.
func (m *Model) Confirmed() bool { return m.confirmed }

// Result returns the finished conversion, if any.
func (m *Model) Result() *tasks.RunResult { return m.result }

// Err returns the error that ended the session, if any.
func (m *Model) Err() error { return m.err }

// Init loads the library unless one was provided.
func (m *Model) Init() tea.Cmd {
	if m.library != nil {
		return nil
	}
	return m.loadLibrary()
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		if m.library != nil {
			m.playlistList.SetSize(msg.Width-4, msg.Height-8)
		}
		if m.tracksShown {
			m.trackList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil

	case tea.KeyMsg:
		switch m.view {
		case LoadingView:
			if key.Matches(msg, m.keys.quit) {
				return m, tea.Quit
			}
			return m, nil
		case PickView:
			return m.handlePickKeys(msg)
		case TrackListView:
			return m.handleTrackListKeys(msg)
		case ConfirmView:
			return m.handleConfirmKeys(msg)
		case ConvertView:
			return m, nil
		case ResultView:
			return m.handleResultKeys(msg)
		}

	case Msg:
		return m.handleMsg(msg)
	}

	return m.updateLists(msg)
}

func (m *Model) handleMsg(msg Msg) (tea.Model, tea.Cmd) {
	switch msg.kind {
	case MsgLibraryLoaded:
		data := msg.data.(libraryLoaded)
		if data.err != nil {
			m.err = data.err
			return m, nil
		}
		m.setLibrary(data.library)
		return m, nil

	case MsgProgressUpdate:
		m.progress = msg.data.(tasks.ProgressUpdate)
		return m, m.waitForProgress()

	case MsgConversionComplete:
		data := msg.data.(conversionComplete)
		m.result = data.result
		m.err = data.err
		m.view = ResultView
		m.progressChan = nil
		m.done = nil
		return m, nil
	}
	return m, nil
}

func (m *Model) setLibrary(lib *models.Library) {
	m.library = lib
	m.playlists = m.playlists[:0]
	for p := range lib.VisiblePlaylists() {
		m.playlists = append(m.playlists, p)
	}

	depths := models.PlaylistDepths(m.playlists)
	items := make([]list.Item, len(m.playlists))
	for i, p := range m.playlists {
		items[i] = playlistItem{playlist: p, index: i, depth: depths[p.PersistentID], selected: m.selected[p.PersistentID]}
	}

	m.playlistList = list.New(items, list.NewDefaultDelegate(), 0, 0)
	m.playlistList.Title = "Playlists"
	m.playlistList.SetSize(m.width-4, m.height-8)
	m.view = PickView
}

// View renders the UI based on the current view state.
func (m *Model) View() string {
	if m.err != nil && m.view != ResultView {
		return styles.err.Render(fmt.Sprintf("Error: %v\n\nPress q to quit", m.err))
	}

	switch m.view {
	case LoadingView:
		return fmt.Sprintf("Loading %s...", m.opts.InputPath)
	case PickView:
		return m.renderPick()
	case TrackListView:
		return m.renderTrackList()
	case ConfirmView:
		return m.renderConfirm()
	case ConvertView:
		return m.renderConvert()
	case ResultView:
		return m.renderResult()
	default:
		return ""
	}
}

func (m *Model) handlePickKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.playlistList.FilterState() == list.Filtering {
		var cmd tea.Cmd
		m.playlistList, cmd = m.playlistList.Update(msg)
		return m, cmd
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.toggle):
		if item, ok := m.playlistList.SelectedItem().(playlistItem); ok {
			return m, m.setSelected(item, !item.selected)
		}
		return m, nil
	case key.Matches(msg, m.keys.all):
		return m, m.toggleAll()
	case key.Matches(msg, m.keys.preview):
		if item, ok := m.playlistList.SelectedItem().(playlistItem); ok {
			m.showTracks(item.playlist)
		}
		return m, nil
	case key.Matches(msg, m.keys.enter):
		m.view = ConfirmView
		return m, nil
	}

	var cmd tea.Cmd
	m.playlistList, cmd = m.playlistList.Update(msg)
	return m, cmd
}

func (m *Model) setSelected(item playlistItem, selected bool) tea.Cmd {
	if selected {
		m.selected[item.playlist.PersistentID] = true
	} else {
		delete(m.selected, item.playlist.PersistentID)
	}
	item.selected = selected
	return m.playlistList.SetItem(item.index, item)
}

// toggleAll selects every playlist, or clears the selection when all are already selected.
func (m *Model) toggleAll() tea.Cmd {
	all := len(m.Selected()) == len(m.playlists)
	var cmds []tea.Cmd
	for _, it := range m.playlistList.Items() {
		if item, ok := it.(playlistItem); ok {
			cmds = append(cmds, m.setSelected(item, !all))
		}
	}
	return tea.Batch(cmds...)
}

func (m *Model) showTracks(p models.Playlist) {
	tracks := m.library.PlaylistTracks(p)
	items := make([]list.Item, len(tracks))
	for i, t := range tracks {
		items[i] = trackItem{track: t}
	}
	m.trackList = list.New(items, list.NewDefaultDelegate(), 0, 0)
	m.trackList.Title = fmt.Sprintf("Tracks in '%s'", p.Name)
	m.trackList.SetSize(m.width-4, m.height-8)
	m.tracksShown = true
	m.view = TrackListView
}

func (m *Model) handleTrackListKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.trackList.FilterState() != list.Filtering {
		switch {
		case key.Matches(msg, m.keys.quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.back), key.Matches(msg, m.keys.preview):
			m.view = PickView
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.trackList, cmd = m.trackList.Update(msg)
	return m, cmd
}

func (m *Model) handleConfirmKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit), key.Matches(msg, m.keys.no), key.Matches(msg, m.keys.back):
		m.view = PickView
		return m, nil
	case key.Matches(msg, m.keys.yes):
		m.confirmed = true
		if m.pickOnly {
			return m, tea.Quit
		}
		m.view = ConvertView
		return m, m.startConversion()
	}
	return m, nil
}

func (m *Model) handleResultKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case key.Matches(msg, m.keys.restart):
		m.view = PickView
		m.result = nil
		m.err = nil
		m.confirmed = false
		return m, nil
	}
	return m, nil
}

func (m *Model) updateLists(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd
	switch m.view {
	case PickView:
		m.playlistList, cmd = m.playlistList.Update(msg)
	case TrackListView:
		m.trackList, cmd = m.trackList.Update(msg)
	}
	return m, cmd
}

func (m *Model) loadLibrary() tea.Cmd {
	path, logger := m.opts.InputPath, m.logger
	return func() tea.Msg {
		lib, err := tasks.Load(path, logger)
		return libraryLoadedMsg(lib, err)
	}
}

func (m *Model) startConversion() tea.Cmd {
	opts := m.opts
	opts.SelectedPlaylistIDs = m.Selected()

	progress := make(chan tasks.ProgressUpdate, 50)
	done := make(chan Msg, 1)
	m.progressChan = progress
	m.done = done

	go func() {
		result, err := m.engine.Run(m.ctx, progress, opts)
		close(progress)
		done <- conversionCompleteMsg(result, err)
	}()

	return m.waitForProgress()
}

func (m *Model) waitForProgress() tea.Cmd {
	progress, done := m.progressChan, m.done
	if progress == nil {
		return nil
	}
	return func() tea.Msg {
		if update, ok := <-progress; ok {
			return progressUpdateMsg(update)
		}
		return <-done
	}
}

func (m *Model) renderPick() string {
	status := fmt.Sprintf("%d of %d selected", len(m.Selected()), len(m.playlists))
	if len(m.Selected()) == 0 {
		status = "none selected: every playlist is kept"
	}
	helpKeys := []key.Binding{m.keys.toggle, m.keys.all, m.keys.preview, m.keys.enter, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n%s\n\n%s", m.playlistList.View(), styles.help.Render(status), helpView)
}

func (m *Model) renderTrackList() string {
	helpKeys := []key.Binding{m.keys.back, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)
	return fmt.Sprintf("%s\n\n%s", m.trackList.View(), helpView)
}

func (m *Model) renderConfirm() string {
	selected := m.Selected()

	var b strings.Builder
	if m.pickOnly {
		b.WriteString(styles.title.Render("Use this selection?"))
	} else {
		b.WriteString(styles.title.Render(fmt.Sprintf("Convert '%s'?", filepath.Base(m.opts.InputPath))))
		b.WriteString(fmt.Sprintf("\nOutput: %s", m.opts.OutputPath))
	}

	if len(selected) == 0 {
		b.WriteString("\nPlaylists: all\n")
	} else {
		b.WriteString(fmt.Sprintf("\nPlaylists: %d\n", len(selected)))
		for _, p := range m.playlists {
			if m.selected[p.PersistentID] {
				b.WriteString(fmt.Sprintf("  • %s\n", p.Name))
			}
		}
	}

	helpKeys := []key.Binding{m.keys.yes, m.keys.no}
	return fmt.Sprintf("%s\n%s", b.String(), m.help.ShortHelpView(helpKeys))
}

func (m *Model) renderConvert() string {
	title := styles.title.Render("Converting Library")

	var phase string
	switch m.progress.Phase {
	case tasks.ResolvePaths:
		phase = "Checking paths..."
	case tasks.LoadLibrary:
		phase = "Loading library..."
	case tasks.ConvertTracks:
		phase = fmt.Sprintf("Converting tracks (%d/%d)", m.progress.Step, m.progress.Total)
	case tasks.FilterPlaylists:
		phase = "Filtering playlists..."
	case tasks.SerializeLibrary:
		phase = "Serializing library..."
	case tasks.WriteOutput:
		phase = "Writing output..."
	default:
		phase = "Processing..."
	}

	return fmt.Sprintf("%s\n\n%s\n%s", title, phase, m.progress.Message)
}

func (m *Model) renderResult() string {
	if m.err != nil {
		return styles.err.Render(fmt.Sprintf("Conversion failed: %v\n\nPress r to retry, q to quit", m.err))
	}

	if m.result == nil {
		return styles.err.Render("No result available\n\nPress r to retry, q to quit")
	}

	conv := m.result.Conversion
	title := styles.ok.Render("✓ Conversion Complete!")
	info := fmt.Sprintf(
		"\nOutput: %s (%d bytes)\nTracks: %d converted, %d skipped of %d\nPlaylists: %d of %d kept",
		m.result.OutputPath,
		m.result.BytesWritten,
		conv.TracksConverted,
		conv.TracksSkipped,
		conv.TracksTotal,
		conv.PlaylistsKept,
		conv.PlaylistsTotal,
	)

	var warnings string
	if n := len(conv.Warnings); n > 0 {
		warnings = fmt.Sprintf("\n\n%s", styles.warn.Render(fmt.Sprintf("%d warnings:", n)))
		for _, w := range conv.Warnings[:min(n, maxWarnings)] {
			warnings += fmt.Sprintf("\n  • %v", w)
		}
		if n > maxWarnings {
			warnings += fmt.Sprintf("\n  … and %d more", n-maxWarnings)
		}
	}

	helpKeys := []key.Binding{m.keys.restart, m.keys.quit}
	helpView := m.help.ShortHelpView(helpKeys)

	return fmt.Sprintf("%s\n%s%s\n\n%s", title, info, warnings, helpView)
}
