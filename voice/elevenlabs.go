// Package voice synthesizes the narration audio for a script.
package voice

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	"finshorts/common"
	"finshorts/config"
)

// Synthesizer renders text to an audio file at path. On error no file is left.
type Synthesizer interface {
	Synthesize(ctx context.Context, text, path string) error
}

// ElevenLabs is a text-to-speech client for the ElevenLabs REST API.
type ElevenLabs struct {
	BaseURL         string
	APIKey          string
	VoiceID         string
	ModelID         string
	Stability       float64
	SimilarityBoost float64
	client          *http.Client
}

func NewElevenLabs(cfg config.TTS, apiKey string) *ElevenLabs {
	base := cfg.BaseURL
	if base == "" {
		base = "https://api.elevenlabs.io"
	}
	return &ElevenLabs{
		BaseURL:         strings.TrimRight(base, "/"),
		APIKey:          apiKey,
		VoiceID:         cfg.VoiceID,
		ModelID:         cfg.ModelID,
		Stability:       cfg.Stability,
		SimilarityBoost: cfg.SimilarityBoost,
		client:          &http.Client{Timeout: config.DownloadHTTPTimeout},
	}
}

type ttsRequest struct {
	Text          string        `json:"text"`
	ModelID       string        `json:"model_id"`
	VoiceSettings voiceSettings `json:"voice_settings"`
}

type voiceSettings struct {
	Stability       float64 `json:"stability"`
	SimilarityBoost float64 `json:"similarity_boost"`
}

func (e *ElevenLabs) Synthesize(ctx context.Context, text, path string) error {
	if e.APIKey == "" {
		return common.Permanent(errors.New("elevenlabs: ELEVENLABS_API_KEY not configured"))
	}
	if strings.TrimSpace(text) == "" {
		return common.Permanent(errors.New("elevenlabs: text is empty"))
	}

	data, err := json.Marshal(ttsRequest{
		Text:    text,
		ModelID: e.ModelID,
		VoiceSettings: voiceSettings{
			Stability:       e.Stability,
			SimilarityBoost: e.SimilarityBoost,
		},
	})
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}

	url := fmt.Sprintf("%s/v1/text-to-speech/%s", e.BaseURL, e.VoiceID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "audio/mpeg")
	req.Header.Set("xi-api-key", e.APIKey)

	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("elevenlabs API error: %w", err)
	}
	defer resp.Body.Close()
	if err := common.CheckResponse("elevenlabs", resp); err != nil {
		return err
	}

	n, err := common.WriteFileAtomic(path, resp.Body)
	if err != nil {
		return fmt.Errorf("writing audio: %w", err)
	}
	if n == 0 {
		os.Remove(path)
		return errors.New("elevenlabs returned empty audio")
	}
	return nil
}
