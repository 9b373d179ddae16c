package ui

import (
	"database/sql"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"airdash/internal/db"
	"airdash/internal/model"
)

type undoAction struct {
	label string
	undo  func() error
	redo  func() error
}

type undoAppliedMsg struct {
	err       error
	action    undoAction
	direction string // undo, redo
}

// historyDeletedMsg is sent after a single entry was removed.
type historyDeletedMsg struct {
	deleted model.HistoryEntry
}

// historyClearedMsg is sent after the whole history was removed.
type historyClearedMsg struct {
	deleted []model.HistoryEntry
}

func (m *Model) pushUndoAction(action undoAction) {
	m.undoStack = append(m.undoStack, action)
	m.redoStack = nil
}

func (m *Model) undoCmd() tea.Cmd {
	if len(m.undoStack) == 0 {
		return nil
	}
	action := m.undoStack[len(m.undoStack)-1]
	m.undoStack = m.undoStack[:len(m.undoStack)-1]
	return func() tea.Msg {
		err := action.undo()
		return undoAppliedMsg{err: err, action: action, direction: "undo"}
	}
}

func (m *Model) redoCmd() tea.Cmd {
	if len(m.redoStack) == 0 {
		return nil
	}
	action := m.redoStack[len(m.redoStack)-1]
	m.redoStack = m.redoStack[:len(m.redoStack)-1]
	return func() tea.Msg {
		err := action.redo()
		return undoAppliedMsg{err: err, action: action, direction: "redo"}
	}
}

func (m *Model) buildDeleteLookupAction(msg historyDeletedMsg) undoAction {
	deleted := msg.deleted
	database := m.db
	return undoAction{
		label: "lookup deleted",
		undo: func() error {
			return db.RestoreLookup(database, deleted)
		},
		redo: func() error {
			return db.DeleteLookup(database, deleted.ID)
		},
	}
}

func (m *Model) buildClearHistoryAction(msg historyClearedMsg) undoAction {
	entries := append([]model.HistoryEntry(nil), msg.deleted...)
	database := m.db
	return undoAction{
		label: fmt.Sprintf("history cleared (%d)", len(entries)),
		undo: func() error {
			return db.RestoreLookups(database, entries)
		},
		redo: func() error {
			_, err := db.ClearHistory(database)
			return err
		},
	}
}

func deleteLookupCmd(database *sql.DB, id int64) tea.Cmd {
	return func() tea.Msg {
		entry, err := db.GetLookup(database, id)
		if err != nil {
			return model.ErrorMsg{Err: fmt.Errorf("failed to load lookup before delete: %w", err)}
		}
		if err := db.DeleteLookup(database, id); err != nil {
			return model.ErrorMsg{Err: fmt.Errorf("failed to delete lookup: %w", err)}
		}
		return historyDeletedMsg{deleted: entry}
	}
}

func clearHistoryCmd(database *sql.DB) tea.Cmd {
	return func() tea.Msg {
		entries, err := db.ClearHistory(database)
		if err != nil {
			return model.ErrorMsg{Err: fmt.Errorf("failed to clear history: %w", err)}
		}
		return historyClearedMsg{deleted: entries}
	}
}

func (m *Model) applyUndoResult(msg undoAppliedMsg) tea.Cmd {
	if msg.err != nil {
		m.error = fmt.Sprintf("%s failed: %v", msg.direction, msg.err)
		return nil
	}

	if msg.direction == "undo" {
		m.redoStack = append(m.redoStack, msg.action)
		m.info = "Undid: " + msg.action.label
	} else {
		m.undoStack = append(m.undoStack, msg.action)
		m.info = "Redid: " + msg.action.label
	}
	m.error = ""
	return loadHistoryCmd(m.db)
}
