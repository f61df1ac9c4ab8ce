package tui

import (
	"context"
	"sort"

	"finshorts/orchestrator"
	"finshorts/types"
	"finshorts/workitems"
)

// Runner starts a pipeline run in the background.
type Runner interface {
	Start(ctx context.Context) (string, error)
}

// Snapshot is everything one dashboard refresh shows.
type Snapshot struct {
	Counts   map[types.Stage]int
	Items    []*types.WorkItem
	Archived int
	Rejected int
	Status   orchestrator.Status
}

// Source supplies snapshots and starts runs.
type Source interface {
	Snapshot() (*Snapshot, error)
	StartRun() (string, error)
}

// LocalSource reads the work item directory of this process's pipeline.
type LocalSource struct {
	Store  *workitems.Store
	Runner Runner
	State  *orchestrator.Manager
}

func (s *LocalSource) Snapshot() (*Snapshot, error) {
	items, errs := s.Store.List()
	if len(items) == 0 && len(errs) > 0 {
		return nil, errs[0]
	}
	sort.Slice(items, func(i, j int) bool { return items[i].UpdatedAt.After(items[j].UpdatedAt) })

	snap := &Snapshot{Counts: make(map[types.Stage]int), Items: items, Status: s.State.Status()}
	for _, item := range items {
		snap.Counts[item.Stage]++
	}
	archived, _ := s.Store.ListArchived()
	rejected, _ := s.Store.ListRejected()
	snap.Archived, snap.Rejected = len(archived), len(rejected)
	return snap, nil
}

func (s *LocalSource) StartRun() (string, error) {
	return s.Runner.Start(context.Background())
}
