package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/libport/internal/models"
	"github.com/desertthunder/libport/internal/tasks"
)

// MsgKind enumerates all message types in the application.
type MsgKind int

// Msg represents all possible messages in the TUI (Elm-style message union).
type Msg struct {
	kind MsgKind
	data any
}

var (
	_ tea.Msg = Msg{}
)

const (
	MsgLibraryLoaded MsgKind = iota
	MsgProgressUpdate
	MsgConversionComplete
)

type libraryLoaded struct {
	library *models.Library
	err     error
}

type conversionComplete struct {
	result *tasks.RunResult
	err    error
}

// libraryLoadedMsg is the constructor for [MsgLibraryLoaded]
func libraryLoadedMsg(lib *models.Library, err error) Msg {
	return Msg{kind: MsgLibraryLoaded, data: libraryLoaded{lib, err}}
}

// progressUpdateMsg is the constructor for [MsgProgressUpdate]
func progressUpdateMsg(update tasks.ProgressUpdate) Msg {
	return Msg{kind: MsgProgressUpdate, data: update}
}

// conversionCompleteMsg is the constructor for [MsgConversionComplete]
func conversionCompleteMsg(result *tasks.RunResult, err error) Msg {
	return Msg{kind: MsgConversionComplete, data: conversionComplete{result, err}}
}
