package workitems

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"finshorts/types"
)

func newItem(id string, created time.Time, stage types.Stage) *types.WorkItem {
	return &types.WorkItem{ID: id, Title: id, CreatedAt: created, Stage: stage}
}

func TestSaveLoadList(t *testing.T) {
	s := NewStore(t.TempDir())
	base := time.Date(2026, 10, 17, 8, 0, 0, 0, time.UTC)

	for _, it := range []*types.WorkItem{
		newItem("b", base.Add(time.Minute), types.StageScripted),
		newItem("a", base, types.StageIngested),
	} {
		if err := s.Save(it); err != nil {
			t.Fatalf("Save: %v", err)
		}
	}

	got, err := s.Load("b")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if got.Stage != types.StageScripted || got.UpdatedAt.IsZero() {
		t.Fatalf("loaded = %+v", got)
	}

	items, errs := s.List()
	if len(errs) != 0 {
		t.Fatalf("List errors: %v", errs)
	}
	if len(items) != 2 || items[0].ID != "a" || items[1].ID != "b" {
		t.Fatalf("List order wrong: %v", ids(items))
	}

	if _, err := s.Load("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("Load(missing) err = %v", err)
	}
	if _, err := s.Load("../etc/passwd"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("path traversal should be not found, got %v", err)
	}
}

func TestListSkipsCorruptFiles(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)
	if err := s.Save(newItem("ok", time.Now(), types.StageIngested)); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "bad.json"), []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	items, errs := s.List()
	if len(items) != 1 || len(errs) != 1 {
		t.Fatalf("items=%d errs=%d", len(items), len(errs))
	}
}

func TestArchiveAndReject(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(dir)
	pub := newItem("pub", time.Now(), types.StagePublished)
	dup := newItem("dup", time.Now(), types.StageIngested)
	for _, it := range []*types.WorkItem{pub, dup} {
		if err := s.Save(it); err != nil {
			t.Fatal(err)
		}
	}

	if err := s.Archive(pub); err != nil {
		t.Fatalf("Archive: %v", err)
	}
	dup.Rejected = "duplicate script"
	if err := s.Reject(dup); err != nil {
		t.Fatalf("Reject: %v", err)
	}

	if s.Exists("pub") || s.Exists("dup") {
		t.Fatal("retired items must leave the active directory")
	}
	archived, _ := s.ListArchived()
	rejected, _ := s.ListRejected()
	if len(archived) != 1 || archived[0].ID != "pub" {
		t.Fatalf("archived = %v", ids(archived))
	}
	if len(rejected) != 1 || rejected[0].Rejected == "" {
		t.Fatalf("rejected = %+v", rejected)
	}
	active, _ := s.List()
	if len(active) != 0 {
		t.Fatalf("active = %v", ids(active))
	}
}

func TestPruneExpired(t *testing.T) {
	s := NewStore(t.TempDir())
	now := time.Date(2026, 10, 17, 0, 0, 0, 0, time.UTC)

	old := newItem("old", now.AddDate(0, 0, -10), types.StageVoiced)
	fresh := newItem("fresh", now.AddDate(0, 0, -1), types.StageVoiced)
	oldPub := newItem("oldpub", now.AddDate(0, 0, -20), types.StagePublished)
	for _, it := range []*types.WorkItem{old, fresh, oldPub} {
		if err := s.Save(it); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Archive(oldPub); err != nil {
		t.Fatal(err)
	}

	removed, err := s.PruneExpired(now.AddDate(0, 0, -7))
	if err != nil {
		t.Fatalf("PruneExpired: %v", err)
	}
	if len(removed) != 2 {
		t.Fatalf("removed = %v", removed)
	}
	if !s.Exists("fresh") || s.Exists("old") {
		t.Fatal("only the expired active item should go")
	}
}

func TestCountByStage(t *testing.T) {
	s := NewStore(t.TempDir())
	for i, st := range []types.Stage{types.StageIngested, types.StageIngested, types.StageComposed} {
		if err := s.Save(newItem(string(rune('a'+i)), time.Now(), st)); err != nil {
			t.Fatal(err)
		}
	}
	counts, err := s.CountByStage()
	if err != nil {
		t.Fatal(err)
	}
	if counts[types.StageIngested] != 2 || counts[types.StageComposed] != 1 {
		t.Fatalf("counts = %v", counts)
	}
}

func ids(items []*types.WorkItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}
