package model

// Bubble Tea message types

// ErrorMsg represents an error message.
type ErrorMsg struct {
	Err error
}

// HistoryLoadedMsg is sent when the recent lookups are loaded.
type HistoryLoadedMsg struct {
	Entries []HistoryEntry
}

// HistoryChangedMsg is sent after an entry is recorded or deleted.
type HistoryChangedMsg struct {
	Info string
}

// TilesLoadedMsg is sent when the map tile for the current view is fetched.
type TilesLoadedMsg struct {
	Err error
}

// Screen represents different app screens.
type Screen int

const (
	ScreenDashboard Screen = iota
	ScreenHistory
)

// Mode represents the current interaction mode.
type Mode int

const (
	ModeNav Mode = iota
	ModeInsert
)
