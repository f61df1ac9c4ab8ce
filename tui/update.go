package tui

import (
	"errors"

	"finshorts/orchestrator"

	tea "github.com/charmbracelet/bubbletea"
)

// Update implements tea.Model interface
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)
	case TickMsg:
		return m, tea.Batch(loadSnapshot(m.Source), tickCmd())
	case SnapshotMsg:
		if msg.Err != nil {
			m.Err = msg.Err
			return m, nil
		}
		m.Err = nil
		m.Snapshot = msg.Snapshot
		if n := len(m.Snapshot.Items); m.Cursor >= n {
			m.Cursor = max(n-1, 0)
		}
		return m, nil
	case RunStartedMsg:
		switch {
		case errors.Is(msg.Err, orchestrator.ErrRunInProgress):
			m = m.AddNotice("a run is already in progress")
		case msg.Err != nil:
			m = m.AddNotice("run failed to start: " + msg.Err.Error())
		default:
			m = m.AddNotice("run " + msg.RunID + " started")
		}
		return m, loadSnapshot(m.Source)
	}
	return m, nil
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "r", "R":
		if !m.running() {
			return m, startRun(m.Source)
		}
	case "j", "down":
		if m.Snapshot != nil && m.Cursor < len(m.Snapshot.Items)-1 {
			m.Cursor++
		}
	case "k", "up":
		if m.Cursor > 0 {
			m.Cursor--
		}
	}
	return m, nil
}
