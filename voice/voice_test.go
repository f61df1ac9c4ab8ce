package voice

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"finshorts/common"
	"finshorts/config"
	"finshorts/logging"
	"finshorts/types"
)

func newNarrator(tts Synthesizer, probe func(string) (float64, error)) *Narrator {
	return &Narrator{
		TTS:    tts,
		Probe:  probe,
		Retry:  common.RetryPolicy{MaxAttempts: 3}.NoWait(),
		Logger: logging.Discard(),
	}
}

func TestElevenLabsWritesAudio(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/text-to-speech/voice-1" || r.Header.Get("xi-api-key") != "key" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var req ttsRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text != "Hello markets" || req.VoiceSettings.Stability != 0.5 {
			http.Error(w, "bad body", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "audio/mpeg")
		w.Write([]byte("ID3fake-mp3"))
	}))
	defer srv.Close()

	tts := NewElevenLabs(config.TTS{BaseURL: srv.URL, VoiceID: "voice-1", ModelID: "m", Stability: 0.5, SimilarityBoost: 0.75}, "key")
	path := filepath.Join(t.TempDir(), "audio", "w1.mp3")
	if err := tts.Synthesize(context.Background(), "Hello markets", path); err != nil {
		t.Fatalf("Synthesize: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "ID3fake-mp3" {
		t.Fatalf("audio = %q, %v", data, err)
	}
}

func TestNarrateFailureLeavesNoFile(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	tts := NewElevenLabs(config.TTS{BaseURL: srv.URL, VoiceID: "v"}, "key")
	dir := t.TempDir()
	path := filepath.Join(dir, "w1.mp3")

	_, err := newNarrator(tts, nil).Narrate(context.Background(), "w1", &types.Script{Narration: "Some words here."}, path)
	if err == nil {
		t.Fatal("expected error")
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	if _, err := os.Stat(path); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("audio file should not exist, stat err = %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Fatalf("leftover files: %v", entries)
	}
}

func TestNarrateMissingKeyIsPermanent(t *testing.T) {
	tts := NewElevenLabs(config.TTS{VoiceID: "v"}, "")
	err := tts.Synthesize(context.Background(), "text", filepath.Join(t.TempDir(), "a.mp3"))
	if !common.IsPermanent(err) {
		t.Fatalf("err = %v, want permanent", err)
	}
}

type fileTTS struct{}

func (fileTTS) Synthesize(_ context.Context, _ string, path string) error {
	return os.WriteFile(path, []byte("audio"), 0o644)
}

func TestNarrateRescalesToMeasuredDuration(t *testing.T) {
	script := &types.Script{
		Narration: "One two three. Four five six seven eight nine.",
		Segments: []types.Segment{
			{Text: "One two three", Start: 0, End: 0.9},
			{Text: "Four five six seven eight nine", Start: 0.9, End: 2.7},
		},
	}
	n := newNarrator(fileTTS{}, func(string) (float64, error) { return 12, nil })
	out, err := n.Narrate(context.Background(), "w1", script, filepath.Join(t.TempDir(), "w1.mp3"))
	if err != nil {
		t.Fatalf("Narrate: %v", err)
	}
	if !out.Measured || out.Duration != 12 {
		t.Fatalf("duration = %v measured=%v", out.Duration, out.Measured)
	}
	if out.Segments[0].End != 4 || out.Segments[1].End != 12 {
		t.Fatalf("segments = %+v", out.Segments)
	}
}

func TestNarrateFallsBackToEstimate(t *testing.T) {
	script := &types.Script{Narration: "alpha beta gamma delta"}
	n := newNarrator(fileTTS{}, func(string) (float64, error) { return 0, errors.New("no ffprobe") })
	out, err := n.Narrate(context.Background(), "w1", script, filepath.Join(t.TempDir(), "w1.mp3"))
	if err != nil {
		t.Fatalf("Narrate: %v", err)
	}
	if out.Measured || out.Duration != 1.2 {
		t.Fatalf("duration = %v measured=%v", out.Duration, out.Measured)
	}
	if len(out.Segments) != 1 || out.Segments[0].End != 1.2 {
		t.Fatalf("segments = %+v", out.Segments)
	}
}
