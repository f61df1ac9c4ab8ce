package tui

import (
	"errors"
	"strings"
	"testing"
	"time"

	"finshorts/orchestrator"
	"finshorts/types"
	"finshorts/workitems"

	tea "github.com/charmbracelet/bubbletea"
)

func TestLocalSourceSnapshot(t *testing.T) {
	store := workitems.NewStore(t.TempDir())
	now := time.Now()
	for i, stage := range []types.Stage{types.StageIngested, types.StageScripted, types.StageScripted} {
		item := types.NewWorkItem(&types.NewsItem{Title: "story", ContentHash: types.HashString(string(rune('a' + i)))}, now.Add(time.Duration(i)*time.Second))
		item.Stage = stage
		if err := store.Save(item); err != nil {
			t.Fatal(err)
		}
	}

	src := &LocalSource{Store: store, State: orchestrator.NewManager()}
	snap, err := src.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot: %v", err)
	}
	if snap.Counts[types.StageScripted] != 2 || snap.Counts[types.StageIngested] != 1 || len(snap.Items) != 3 {
		t.Fatalf("snapshot = %+v", snap)
	}
}

type fakeSource struct {
	snap   *Snapshot
	runErr error
	runs   int
}

func (f *fakeSource) Snapshot() (*Snapshot, error) { return f.snap, nil }

func (f *fakeSource) StartRun() (string, error) {
	f.runs++
	return "run-1", f.runErr
}

func TestModelUpdateAndView(t *testing.T) {
	items := []*types.WorkItem{
		{ID: "a", Title: "Fed holds rates", Stage: types.StageScripted},
		{ID: "b", Title: "Oil jumps", Stage: types.StageIngested, Attempts: 2, LastError: "tts unavailable"},
	}
	src := &fakeSource{snap: &Snapshot{
		Counts: map[types.Stage]int{types.StageScripted: 1, types.StageIngested: 1},
		Items:  items,
		Status: orchestrator.Status{State: orchestrator.StateIdle},
	}}
	m := NewModel(src)

	next, _ := m.Update(SnapshotMsg{Snapshot: src.snap})
	m = next.(Model)
	view := m.View()
	for _, want := range []string{"Fed holds rates", "scripted 1", "tts unavailable", "Idle"} {
		if !strings.Contains(view, want) {
			t.Errorf("view missing %q", want)
		}
	}

	next, _ = m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")})
	m = next.(Model)
	if m.Cursor != 1 {
		t.Fatalf("cursor = %d", m.Cursor)
	}

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	if cmd == nil {
		t.Fatal("expected run command")
	}
	msg := cmd().(RunStartedMsg)
	if src.runs != 1 || msg.RunID != "run-1" {
		t.Fatalf("run msg = %+v", msg)
	}

	src.runErr = orchestrator.ErrRunInProgress
	next, _ = m.Update(RunStartedMsg{Err: src.runErr})
	m = next.(Model)
	if len(m.Notices) != 1 || !strings.Contains(m.Notices[0], "already in progress") {
		t.Fatalf("notices = %v", m.Notices)
	}

	next, _ = m.Update(SnapshotMsg{Err: errors.New("disk gone")})
	if !strings.Contains(next.(Model).View(), "disk gone") {
		t.Fatal("error not shown")
	}
}
