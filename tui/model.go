// Package tui is a terminal dashboard over the work item store.
package tui

import (
	tea "github.com/charmbracelet/bubbletea"
)

const maxNotices = 5

// Model is the dashboard state.
type Model struct {
	Source   Source
	Snapshot *Snapshot
	Cursor   int
	Notices  []string
	Err      error
}

// NewModel creates a new TUI model
func NewModel(src Source) Model {
	return Model{Source: src}
}

// Init implements tea.Model interface
func (m Model) Init() tea.Cmd {
	return tea.Batch(loadSnapshot(m.Source), tickCmd())
}

// AddNotice keeps the last few user-facing notices.
func (m Model) AddNotice(msg string) Model {
	m.Notices = append(m.Notices, msg)
	if len(m.Notices) > maxNotices {
		m.Notices = m.Notices[len(m.Notices)-maxNotices:]
	}
	return m
}

func (m Model) running() bool {
	return m.Snapshot != nil && m.Snapshot.Status.Running
}
