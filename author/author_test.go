package author

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"finshorts/common"
	"finshorts/config"
	"finshorts/deduplication"
	"finshorts/logging"
	"finshorts/types"
)

type fakeLLM struct {
	replies map[string]string // keyed by a word found in the system prompt
	calls   int
	fail    error
}

func (f *fakeLLM) Name() string { return "fake" }

func (f *fakeLLM) Generate(_ context.Context, system, _ string, _ int) (string, error) {
	f.calls++
	if f.fail != nil {
		return "", f.fail
	}
	for key, reply := range f.replies {
		if strings.Contains(system, key) {
			return reply, nil
		}
	}
	return "", errors.New("no reply")
}

func newAuthor(t *testing.T, llm Provider) (*Author, deduplication.Store) {
	t.Helper()
	store := deduplication.NewFileStore(filepath.Join(t.TempDir(), config.ScriptHashFile))
	return &Author{
		LLM:     llm,
		Content: config.Content{ScriptLengthSeconds: 60, HookDurationSeconds: 5, CTADurationSeconds: 10, Tone: "professional", Language: "en"},
		Scripts: store,
		Retry:   common.RetryPolicy{MaxAttempts: 3}.NoWait(),
		Logger:  logging.Discard(),
	}, store
}

func standardReplies() map[string]string {
	return map[string]string{
		"hooks":           `"Markets just flipped."`,
		"calls to action": "CTA: Subscribe for more!",
		"finance content": "```\nThe S&P 500 rose 2% today. Tech led the gains.\n```",
	}
}

func TestWriteProducesScript(t *testing.T) {
	a, store := newAuthor(t, &fakeLLM{replies: standardReplies()})
	item := &types.WorkItem{ID: "w1", Title: "Stocks rally", Summary: "x", Keywords: []string{"stocks"}}

	s, err := a.Write(context.Background(), item)
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if s.Hook != "Markets just flipped." || s.CTA != "Subscribe for more!" {
		t.Fatalf("hook=%q cta=%q", s.Hook, s.CTA)
	}
	if s.Body != "The S&P 500 rose 2% today. Tech led the gains." {
		t.Fatalf("body = %q", s.Body)
	}
	if !strings.Contains(s.Narration, "2 percent") {
		t.Errorf("narration not optimized: %q", s.Narration)
	}
	if len(s.Segments) != 4 || s.Duration != 60 {
		t.Errorf("segments=%d duration=%d", len(s.Segments), s.Duration)
	}
	if ok, _ := store.Contains(context.Background(), s.Hash); !ok {
		t.Fatal("script hash not recorded")
	}
}

func TestWriteRejectsDuplicateScript(t *testing.T) {
	llm := &fakeLLM{replies: standardReplies()}
	a, _ := newAuthor(t, llm)
	ctx := context.Background()

	if _, err := a.Write(ctx, &types.WorkItem{ID: "w1", Title: "A"}); err != nil {
		t.Fatalf("first Write: %v", err)
	}
	s, err := a.Write(ctx, &types.WorkItem{ID: "w2", Title: "B"})
	if !errors.Is(err, ErrDuplicateScript) {
		t.Fatalf("err = %v, want ErrDuplicateScript", err)
	}
	if s == nil || s.Hash == "" {
		t.Fatal("duplicate should still return the script")
	}
}

func TestWritePermanentErrorIsNotRetried(t *testing.T) {
	llm := &fakeLLM{fail: common.Permanent(errors.New("bad key"))}
	a, _ := newAuthor(t, llm)
	if _, err := a.Write(context.Background(), &types.WorkItem{ID: "w"}); err == nil {
		t.Fatal("expected error")
	}
	if llm.calls != 1 {
		t.Fatalf("calls = %d, want 1", llm.calls)
	}
}

func TestOptimizeForSpeech(t *testing.T) {
	tests := []struct{ in, want string }{
		{"Revenue hit $12.5 billion, up 8%.", "Revenue hit 12.5 billion dollars, up 8 percent."},
		{"Apple vs. Microsoft", "Apple versus Microsoft"},
		{"priced in USD and EUR", "priced in US dollars and euros"},
		{"Mr. Powell and Mrs. Yellen", "Mister Powell and Misses Yellen"},
		{"€300 fine", "300 euros fine"},
	}
	for _, tt := range tests {
		if got := OptimizeForSpeech(tt.in); got != tt.want {
			t.Errorf("OptimizeForSpeech(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestRescaleSegments(t *testing.T) {
	segs := EstimateSegments("One two three four. Five six! Seven eight nine ten eleven twelve?")
	if len(segs) != 3 {
		t.Fatalf("segments = %d", len(segs))
	}
	got := RescaleSegments(segs, 24)
	if got[0].Start != 0 || got[2].End != 24 {
		t.Fatalf("bounds = %v..%v", got[0].Start, got[2].End)
	}
	if math.Abs(got[0].End-8) > 1e-9 || math.Abs(got[1].End-12) > 1e-9 {
		t.Fatalf("proportional split wrong: %+v", got)
	}
	for i := 1; i < len(got); i++ {
		if got[i].Start != got[i-1].End {
			t.Fatalf("gap between segments %d and %d", i-1, i)
		}
	}
}

func TestOpenAIProvider(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" || r.Header.Get("Authorization") != "Bearer k" {
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		var body struct {
			Messages []map[string]string `json:"messages"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		if len(body.Messages) != 2 || body.Messages[0]["role"] != "system" {
			http.Error(w, "messages", http.StatusBadRequest)
			return
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"hello"}}]}`))
	}))
	defer srv.Close()

	p := NewOpenAIProvider(srv.URL, "k", "gpt-test", 0.5)
	out, err := p.Generate(context.Background(), "sys", "prompt", 10)
	if err != nil || out != "hello" {
		t.Fatalf("Generate = %q, %v", out, err)
	}

	_, err = NewOpenAIProvider(srv.URL, "", "m", 0).Generate(context.Background(), "", "p", 10)
	if !common.IsPermanent(err) {
		t.Fatalf("missing key should be permanent, got %v", err)
	}
}
