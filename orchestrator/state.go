package orchestrator

import (
	"fmt"
	"sync"
	"time"
)

// State is the orchestrator's coarse run state.
type State string

const (
	StateIdle       State = "idle"
	StateCleaning   State = "cleaning"
	StateIngesting  State = "ingesting"
	StateProcessing State = "processing"
	StateComplete   State = "complete"
	StateError      State = "error"
)

// LogEntry represents a single log line with timestamp
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
}

// Status is a point-in-time snapshot for the API and dashboard.
type Status struct {
	State   State      `json:"state"`
	Running bool       `json:"running"`
	RunID   string     `json:"run_id,omitempty"`
	Logs    []LogEntry `json:"logs"`
	Last    *RunResult `json:"last,omitempty"`
	Error   string     `json:"error,omitempty"`
}

// Manager holds run state shared between a running pipeline and its readers.
// All methods are safe on a nil Manager.
type Manager struct {
	mu sync.RWMutex

	state   State
	running bool
	runID   string
	last    *RunResult
	lastErr error

	// Logs (ring buffer)
	logs    []LogEntry
	maxLogs int
}

// NewManager creates a new state manager
func NewManager() *Manager {
	return &Manager{
		state:   StateIdle,
		logs:    make([]LogEntry, 0),
		maxLogs: 50,
	}
}

// AddLog adds a log entry (thread-safe)
func (m *Manager) AddLog(format string, args ...any) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.appendLog(fmt.Sprintf(format, args...))
}

// appendLog must be called with the lock held.
func (m *Manager) appendLog(message string) {
	m.logs = append(m.logs, LogEntry{Timestamp: time.Now(), Message: message})
	if len(m.logs) > m.maxLogs {
		m.logs = m.logs[len(m.logs)-m.maxLogs:]
	}
}

// SetState sets the current state (thread-safe)
func (m *Manager) SetState(state State) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state = state
}

// Start marks a run as in progress.
func (m *Manager) Start(runID string) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = true
	m.runID = runID
	m.lastErr = nil
	m.state = StateCleaning
	m.appendLog("run " + runID + " started")
}

// Finish records the run result and returns to idle or error.
func (m *Manager) Finish(res *RunResult, err error) {
	if m == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.running = false
	m.last = res
	m.lastErr = err
	if err != nil {
		m.state = StateError
		m.appendLog(fmt.Sprintf("Error: %v", err))
		return
	}
	m.state = StateComplete
	if res != nil {
		m.appendLog(fmt.Sprintf("run %s finished: %d published, %d failed, %d rejected",
			res.RunID, res.Published, res.Failed, res.Rejected))
	}
}

// Last returns the most recent finished run, or nil.
func (m *Manager) Last() *RunResult {
	if m == nil {
		return nil
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.last
}

// Status returns a snapshot of the current state (thread-safe)
func (m *Manager) Status() Status {
	if m == nil {
		return Status{State: StateIdle}
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	st := Status{
		State:   m.state,
		Running: m.running,
		RunID:   m.runID,
		Logs:    append([]LogEntry{}, m.logs...),
		Last:    m.last,
	}
	if m.lastErr != nil {
		st.Error = m.lastErr.Error()
	}
	return st
}
