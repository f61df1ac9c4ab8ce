package tui

import "time"

// SnapshotMsg carries a refreshed snapshot.
type SnapshotMsg struct {
	Snapshot *Snapshot
	Err      error
}

// TickMsg is sent periodically to trigger polling
type TickMsg struct {
	Time time.Time
}

// RunStartedMsg reports the outcome of a run request.
type RunStartedMsg struct {
	RunID string
	Err   error
}
