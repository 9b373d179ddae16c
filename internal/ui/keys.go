package ui

import "github.com/charmbracelet/bubbles/key"

// GState represents the state for "gg" navigation.
type GState int

const (
	GStateIdle GState = iota
	GStateFirstG
)

// KeyMap defines all keybindings for nav mode.
type KeyMap struct {
	Up           key.Binding
	Down         key.Binding
	Select       key.Binding
	Back         key.Binding
	Bottom       key.Binding
	HalfPageDown key.Binding
	HalfPageUp   key.Binding
	Search       key.Binding
	Locate       key.Binding
	History      key.Binding
	Dashboard    key.Binding
	NextItem     key.Binding
	PrevItem     key.Binding
	Toggle       key.Binding
	Quit         key.Binding
	Help         key.Binding
	Delete       key.Binding
	Clear        key.Binding
	NextColumn   key.Binding
	PrevColumn   key.Binding
	SortAsc      key.Binding
	SortDesc     key.Binding
	HideColumn   key.Binding
	ShowColumns  key.Binding
	Undo         key.Binding
	Redo         key.Binding
}

// DefaultKeyMap returns the default keybindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Up: key.NewBinding(
			key.WithKeys("k", "up"),
			key.WithHelp("k/↑", "up"),
		),
		Down: key.NewBinding(
			key.WithKeys("j", "down"),
			key.WithHelp("j/↓", "down"),
		),
		Select: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "select"),
		),
		Back: key.NewBinding(
			key.WithKeys("b", "esc"),
			key.WithHelp("b/esc", "back"),
		),
		Bottom: key.NewBinding(
			key.WithKeys("G"),
			key.WithHelp("G", "bottom"),
		),
		HalfPageDown: key.NewBinding(
			key.WithKeys("ctrl+d"),
			key.WithHelp("ctrl+d", "½ page down"),
		),
		HalfPageUp: key.NewBinding(
			key.WithKeys("ctrl+u"),
			key.WithHelp("ctrl+u", "½ page up"),
		),
		Search: key.NewBinding(
			key.WithKeys("/", "i"),
			key.WithHelp("/", "search city"),
		),
		Locate: key.NewBinding(
			key.WithKeys("l"),
			key.WithHelp("l", "my location"),
		),
		History: key.NewBinding(
			key.WithKeys("H"),
			key.WithHelp("H", "history"),
		),
		Dashboard: key.NewBinding(
			key.WithKeys("D"),
			key.WithHelp("D", "dashboard"),
		),
		NextItem: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next topic"),
		),
		PrevItem: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "prev topic"),
		),
		Toggle: key.NewBinding(
			key.WithKeys("enter", " "),
			key.WithHelp("enter", "expand/collapse"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		Clear: key.NewBinding(
			key.WithKeys("X"),
			key.WithHelp("X", "clear all"),
		),
		NextColumn: key.NewBinding(
			key.WithKeys("tab"),
			key.WithHelp("tab", "next col"),
		),
		PrevColumn: key.NewBinding(
			key.WithKeys("shift+tab"),
			key.WithHelp("shift+tab", "prev col"),
		),
		SortAsc: key.NewBinding(
			key.WithKeys("s"),
			key.WithHelp("s", "sort asc"),
		),
		SortDesc: key.NewBinding(
			key.WithKeys("S"),
			key.WithHelp("S", "sort desc"),
		),
		HideColumn: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "hide col"),
		),
		ShowColumns: key.NewBinding(
			key.WithKeys("C"),
			key.WithHelp("C", "show cols"),
		),
		Undo: key.NewBinding(
			key.WithKeys("u"),
			key.WithHelp("u", "undo"),
		),
		Redo: key.NewBinding(
			key.WithKeys("ctrl+r"),
			key.WithHelp("ctrl+r", "redo"),
		),
	}
}

// SearchKeyMap defines keybindings while the search input is focused.
type SearchKeyMap struct {
	Submit key.Binding
	Cancel key.Binding
}

// DefaultSearchKeyMap returns the default search keybindings.
func DefaultSearchKeyMap() SearchKeyMap {
	return SearchKeyMap{
		Submit: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "look up"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "cancel"),
		),
	}
}
