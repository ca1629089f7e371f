// Package ui implements an interactive terminal interface using bubbletea's Elm architecture.
//
// The TUI walks through converting one library export:
//  1. [PickView] : Browse visible playlists and mark the ones to keep
//  2. [TrackListView] : Preview the tracks of the highlighted playlist
//  3. [ConfirmView] : Confirm the selection
//  4. [ConvertView] : Monitor real-time progress updates
//  5. [ResultView] : Display counts and warnings
//
// The (view) [Model] implements bubbletea/Elm's standard Init/Update/View pattern, receiving messages via the Msg union type.
// Progress updates flow through a channel from the ConversionEngine, providing non-blocking status reporting during a run.
// A picker built with [NewPicker] stops after confirmation and only reports the selection.
//
// Keyboard navigation uses vim-style bindings (j/k, space, enter, esc, y/n, q) with contextual help displayed via charmbracelet/bubbles/help.
package ui
