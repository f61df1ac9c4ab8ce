package voice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"finshorts/author"
	"finshorts/common"
	"finshorts/types"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// Narration is the result of voicing a script.
type Narration struct {
	Path     string
	Duration float64
	Segments []types.Segment
	Measured bool // false when Duration is a words-per-minute estimate
}

// Narrator voices scripts and measures the resulting audio.
type Narrator struct {
	TTS    Synthesizer
	Probe  func(path string) (float64, error)
	Retry  common.RetryPolicy
	Logger *slog.Logger
}

// Narrate writes the narration of script to path and re-times its segments
// to the audio length.
func (n *Narrator) Narrate(ctx context.Context, workItemID string, script *types.Script, path string) (*Narration, error) {
	if script == nil {
		return nil, errors.New("work item has no script")
	}
	logger := n.Logger.With("component", "voice", "work_item", workItemID)

	text := script.Narration
	if text == "" {
		text = author.OptimizeForSpeech(script.FullText())
	}

	err := common.Retry(ctx, n.Retry, logger, "synthesize", func(ctx context.Context) error {
		return n.TTS.Synthesize(ctx, text, path)
	})
	if err != nil {
		return nil, fmt.Errorf("synthesizing narration: %w", err)
	}

	out := &Narration{Path: path}
	probe := n.Probe
	if probe == nil {
		probe = ProbeDuration
	}
	if d, perr := probe(path); perr == nil && d > 0 {
		out.Duration, out.Measured = d, true
	} else {
		out.Duration = author.EstimateDuration(text)
		logger.Warn("could not measure audio; using estimate", "error", perr, "estimate", out.Duration)
	}

	segs := script.Segments
	if len(segs) == 0 {
		segs = author.EstimateSegments(text)
	}
	out.Segments = author.RescaleSegments(segs, out.Duration)

	logger.Info("narration synthesized", "path", path, "duration", out.Duration, "measured", out.Measured)
	return out, nil
}

// ProbeDuration reads the container duration with ffprobe.
func ProbeDuration(path string) (float64, error) {
	raw, err := ffmpeg.Probe(path)
	if err != nil {
		return 0, fmt.Errorf("ffprobe %s: %w", path, err)
	}
	var info struct {
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal([]byte(raw), &info); err != nil {
		return 0, fmt.Errorf("decoding ffprobe output: %w", err)
	}
	d, err := strconv.ParseFloat(info.Format.Duration, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing duration %q: %w", info.Format.Duration, err)
	}
	return d, nil
}
