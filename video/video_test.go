package video

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"finshorts/common"
	"finshorts/config"
	"finshorts/logging"
	"finshorts/types"
)

func TestSelectClips(t *testing.T) {
	videos := []PexelsVideo{
		{ID: 1, Duration: 5},  // too short
		{ID: 2, Duration: 40}, // 20 away
		{ID: 3, Duration: 22}, // 2 away
		{ID: 3, Duration: 22}, // duplicate id
		{ID: 4, Duration: 90}, // too long
		{ID: 5, Duration: 15},
		{ID: 6, Duration: 30},
		{ID: 7, Duration: 60},
		{ID: 8, Duration: 10},
	}
	got := SelectClips(videos, 20)
	var ids []int
	for _, v := range got {
		ids = append(ids, v.ID)
	}
	if want := []int{3, 5, 6, 8, 2}; !slices.Equal(ids, want) {
		t.Fatalf("ids = %v, want %v", ids, want)
	}
}

func TestBestFile(t *testing.T) {
	v := PexelsVideo{VideoFiles: []PexelsFile{
		{ID: 1, Width: 1920, Height: 1080, Link: "l1"},
		{ID: 2, Width: 720, Height: 1280, Link: "l2"},
		{ID: 3, Width: 1080, Height: 1920, Link: "l3"},
	}}
	if f, ok := BestFile(v); !ok || f.ID != 3 {
		t.Fatalf("portrait pick = %+v", f)
	}
	land := PexelsVideo{VideoFiles: []PexelsFile{
		{ID: 1, Width: 1280, Height: 720, Link: "a"},
		{ID: 2, Width: 3840, Height: 2160, Link: "b"},
	}}
	if f, ok := BestFile(land); !ok || f.ID != 2 {
		t.Fatalf("landscape fallback = %+v", f)
	}
	if _, ok := BestFile(PexelsVideo{}); ok {
		t.Fatal("no files should report not ok")
	}
}

func TestPlanTimelineCyclesAndTrims(t *testing.T) {
	plan := PlanTimeline([]Clip{{Path: "a", Duration: 12}, {Path: "b", Duration: 10}}, 45)
	var paths []string
	total := 0.0
	for _, e := range plan {
		paths = append(paths, e.Path)
		total += e.Duration
	}
	if strings.Join(paths, "") != "ababa" {
		t.Fatalf("order = %v", paths)
	}
	if total != 45 || plan[4].Duration != 1 {
		t.Fatalf("total = %v, last = %v", total, plan[len(plan)-1].Duration)
	}
	if PlanTimeline(nil, 30) != nil {
		t.Fatal("no clips should give empty plan")
	}
}

func TestBuildSRT(t *testing.T) {
	got := BuildSRT([]types.Segment{
		{Text: "Stocks rose", Start: 0, End: 1.5},
		{Text: "Bonds fell", Start: 1.5, End: 3661.25},
	})
	want := "1\n00:00:00,000 --> 00:00:01,500\nStocks rose\n\n" +
		"2\n00:00:01,500 --> 01:01:01,250\nBonds fell\n\n"
	if got != want {
		t.Fatalf("BuildSRT =\n%s\nwant\n%s", got, want)
	}
}

func TestSpreadWordsAndASS(t *testing.T) {
	words := SpreadWords(types.Segment{Text: "ab abcd ab", Start: 2, End: 6})
	if len(words) != 3 || words[0].End != 3 || words[1].End != 5 || words[2].End != 6 {
		t.Fatalf("words = %+v", words)
	}

	ass := BuildASS([]types.Segment{{Text: "one two three four", Start: 0, End: 2}},
		SubtitleStyle{Font: "Arial", Size: 78, WordsPerCaption: 3, Width: 1080, Height: 1920})
	if !strings.Contains(ass, "PlayResX: 1080") || !strings.Contains(ass, "Style: Default,Arial,78,") {
		t.Fatalf("header missing:\n%s", ass)
	}
	if n := strings.Count(ass, "Dialogue:"); n != 4 {
		t.Fatalf("dialogue lines = %d, want one per word", n)
	}
	if !strings.Contains(ass, "{\\c"+assHighlight+"&}ONE{\\c"+assWhite+"&} TWO THREE") {
		t.Fatalf("first caption not highlighted:\n%s", ass)
	}
	if !strings.Contains(ass, ",,{\\c"+assHighlight+"&}FOUR{") {
		t.Fatalf("second group should start at FOUR:\n%s", ass)
	}
}

func TestBuildArgs(t *testing.T) {
	job := RenderJob{AudioPath: "a.mp3", OutputPath: "out.mp4", SubtitlePath: "c.ass", Duration: 30,
		Width: 1080, Height: 1920, FPS: 30, Background: "0x0b1d3a"}
	args, err := BuildArgs(job)
	if err != nil {
		t.Fatalf("BuildArgs: %v", err)
	}
	line := strings.Join(args, " ")
	for _, want := range []string{"lavfi", "color=c=0x0b1d3a", "ass=", "libx264", "yuv420p", "-shortest", "out.mp4"} {
		if !strings.Contains(line, want) {
			t.Errorf("args missing %q: %s", want, line)
		}
	}

	job.Timeline = []TimelineEntry{{Path: "x.mp4", Duration: 12}, {Path: "y.mp4", Duration: 18}}
	args, _ = BuildArgs(job)
	line = strings.Join(args, " ")
	for _, want := range []string{"x.mp4", "y.mp4", "concat", "crop", "setsar"} {
		if !strings.Contains(line, want) {
			t.Errorf("args missing %q: %s", want, line)
		}
	}
	if strings.Contains(line, "lavfi") {
		t.Errorf("b-roll render should not use a color source: %s", line)
	}

	if _, err := BuildArgs(RenderJob{AudioPath: "a", OutputPath: "o"}); err == nil {
		t.Fatal("zero duration should fail")
	}
}

type fakeRenderer struct {
	job RenderJob
	err error
}

func (f *fakeRenderer) Render(_ context.Context, job RenderJob) error {
	f.job = job
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(job.OutputPath, []byte("mp4"), 0o644)
}

func TestComposeWithBroll(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/videos/search":
			if r.Header.Get("Authorization") != "pk" || r.URL.Query().Get("orientation") != "portrait" {
				http.Error(w, "forbidden", http.StatusForbidden)
				return
			}
			fmt.Fprintf(w, `{"videos":[{"id":42,"duration":20,"video_files":[{"id":1,"width":1080,"height":1920,"link":"%s/files/42.mp4"}]}]}`, srv.URL)
		case strings.HasPrefix(r.URL.Path, "/files/"):
			w.Write([]byte("clip"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	dir := t.TempDir()
	audio := filepath.Join(dir, "w1.mp3")
	os.WriteFile(audio, []byte("mp3"), 0o644)

	rend := &fakeRenderer{}
	c := &Composer{
		Broll: &BrollFetcher{
			Pexels: NewPexelsClient(srv.URL, "pk"),
			Retry:  common.RetryPolicy{MaxAttempts: 1},
			Logger: logging.Discard(),
		},
		Renderer: rend,
		Video:    config.Video{FPS: 30, BackgroundColor: "black", SubtitleFont: "Arial", SubtitleSize: 70, WordsPerCaption: 3},
		Logger:   logging.Discard(),
	}
	in := ComposeInput{
		WorkItemID:   "w1",
		Keywords:     []string{"stocks"},
		AudioPath:    audio,
		Duration:     30,
		Segments:     []types.Segment{{Text: "Stocks rose today", Start: 0, End: 30}},
		VideoPath:    filepath.Join(dir, "video", "w1.mp4"),
		SubtitlePath: filepath.Join(dir, "video", "w1.srt"),
	}
	if err := c.Compose(context.Background(), in); err != nil {
		t.Fatalf("Compose: %v", err)
	}
	if len(rend.job.Timeline) != 2 {
		t.Fatalf("timeline = %+v, want clip cycled twice", rend.job.Timeline)
	}
	if _, err := os.Stat(in.VideoPath); err != nil {
		t.Fatalf("video missing: %v", err)
	}
	if b, _ := os.ReadFile(in.SubtitlePath); !strings.Contains(string(b), "Stocks rose today") {
		t.Fatalf("srt = %q", b)
	}
	if _, err := os.Stat(filepath.Dir(rend.job.Timeline[0].Path)); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("b-roll work dir should be removed, stat err = %v", err)
	}
}

func TestComposeRenderFailureLeavesNothing(t *testing.T) {
	dir := t.TempDir()
	audio := filepath.Join(dir, "w1.mp3")
	os.WriteFile(audio, []byte("mp3"), 0o644)

	c := &Composer{
		Renderer: &fakeRenderer{err: errors.New("boom")},
		Video:    config.Video{FPS: 30, BackgroundColor: "black"},
		Logger:   logging.Discard(),
	}
	videoDir := filepath.Join(dir, "video")
	err := c.Compose(context.Background(), ComposeInput{
		WorkItemID: "w1", AudioPath: audio, Duration: 10,
		VideoPath: filepath.Join(videoDir, "w1.mp4"), SubtitlePath: filepath.Join(videoDir, "w1.srt"),
	})
	if err == nil {
		t.Fatal("expected error")
	}
	entries, _ := os.ReadDir(videoDir)
	if len(entries) != 0 {
		t.Fatalf("leftover files: %v", entries)
	}
}
