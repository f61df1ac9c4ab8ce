package outputs

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"finshorts/logging"
	"finshorts/types"
)

func TestForItemPinsDate(t *testing.T) {
	item := &types.WorkItem{ID: "x"}
	day1 := time.Date(2026, 10, 16, 23, 0, 0, 0, time.UTC)
	set := ForItem("/data/outputs", item, day1)
	if set.Date != "2026-10-16" || item.OutputDate != "2026-10-16" {
		t.Fatalf("set=%+v item.OutputDate=%q", set, item.OutputDate)
	}
	// A retry the next day keeps writing into the original set.
	set = ForItem("/data/outputs", item, day1.AddDate(0, 0, 1))
	if set.Date != "2026-10-16" {
		t.Fatalf("date moved to %q", set.Date)
	}
	if got := set.AudioPath("x"); got != filepath.Join("/data/outputs", "2026-10-16", "audio", "x.mp3") {
		t.Fatalf("AudioPath = %q", got)
	}
	if got := set.ThumbnailPath("x", "jpg"); got != filepath.Join("/data/outputs", "2026-10-16", "thumbnails", "x.jpg") {
		t.Fatalf("ThumbnailPath = %q", got)
	}
}

func TestEnsureCreatesKinds(t *testing.T) {
	root := t.TempDir()
	set := Set{Root: root, Date: "2026-10-17"}
	if err := set.Ensure(); err != nil {
		t.Fatal(err)
	}
	for _, kind := range []string{"audio", "video", "thumbnails", "metadata"} {
		if fi, err := os.Stat(filepath.Join(root, "2026-10-17", kind)); err != nil || !fi.IsDir() {
			t.Fatalf("%s missing: %v", kind, err)
		}
	}
}

func TestCleanupRemovesOnlyExpiredDates(t *testing.T) {
	root := t.TempDir()
	now := time.Date(2026, 10, 17, 15, 0, 0, 0, time.UTC)

	for _, d := range []string{"2026-10-01", "2026-10-09", "2026-10-10", "2026-10-17", "not-a-date"} {
		dir := filepath.Join(root, d, "video")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(filepath.Join(dir, "a.mp4"), []byte("v"), 0o644); err != nil {
			t.Fatal(err)
		}
	}

	removed, err := Cleanup(logging.Discard(), root, 7, now)
	if err != nil {
		t.Fatalf("Cleanup: %v", err)
	}
	if want := []string{"2026-10-01", "2026-10-09"}; !reflect.DeepEqual(removed, want) {
		t.Fatalf("removed = %v, want %v", removed, want)
	}
	for _, keep := range []string{"2026-10-10", "2026-10-17", "not-a-date"} {
		if _, err := os.Stat(filepath.Join(root, keep, "video", "a.mp4")); err != nil {
			t.Fatalf("%s should be untouched: %v", keep, err)
		}
	}
}

func TestCleanupMissingRoot(t *testing.T) {
	removed, err := Cleanup(logging.Discard(), filepath.Join(t.TempDir(), "nope"), 7, time.Now())
	if err != nil || removed != nil {
		t.Fatalf("Cleanup on missing root = (%v, %v)", removed, err)
	}
}
