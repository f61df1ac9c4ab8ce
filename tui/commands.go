package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

const pollInterval = time.Second

func loadSnapshot(src Source) tea.Cmd {
	return func() tea.Msg {
		snap, err := src.Snapshot()
		return SnapshotMsg{Snapshot: snap, Err: err}
	}
}

func startRun(src Source) tea.Cmd {
	return func() tea.Msg {
		id, err := src.StartRun()
		return RunStartedMsg{RunID: id, Err: err}
	}
}

func tickCmd() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return TickMsg{Time: t}
	})
}
