package types

import (
	"testing"
	"time"
)

func TestStageNext(t *testing.T) {
	cases := []struct {
		in     Stage
		want   Stage
		wantOK bool
	}{
		{StageIngested, StageScripted, true},
		{StageScripted, StageVoiced, true},
		{StageThumbnailed, StagePublished, true},
		{StagePublished, "", false},
		{Stage("bogus"), "", false},
	}
	for _, c := range cases {
		got, ok := c.in.Next()
		if got != c.want || ok != c.wantOK {
			t.Fatalf("%q.Next() = (%q, %v); want (%q, %v)", c.in, got, ok, c.want, c.wantOK)
		}
	}
}

func TestWorkItemID(t *testing.T) {
	now := time.Date(2026, 10, 17, 9, 30, 5, 0, time.FixedZone("X", 2*3600))
	id := WorkItemID(now, "abcdef0123456789")
	if id != "20261017T073005_abcdef012345" {
		t.Fatalf("WorkItemID = %q", id)
	}
}

func TestNewWorkItem(t *testing.T) {
	n := &NewsItem{Title: "Fed holds rates", Summary: "s", Source: "CNBC", Keywords: []string{"fed"}, ContentHash: "ff00ff00ff00ff00"}
	w := NewWorkItem(n, time.Now())
	if w.Stage != StageIngested || w.Done() {
		t.Fatalf("new item should be ingested and not done: %+v", w)
	}
	n.Keywords[0] = "changed"
	if w.Keywords[0] != "fed" {
		t.Fatal("keywords should be copied")
	}
	w.Rejected = "duplicate script"
	if !w.Done() {
		t.Fatal("rejected item should be done")
	}
}

func TestScriptFullText(t *testing.T) {
	s := &Script{Hook: "Big news.", Body: "", CTA: "Subscribe!"}
	if got := s.FullText(); got != "Big news. Subscribe!" {
		t.Fatalf("FullText = %q", got)
	}
}
