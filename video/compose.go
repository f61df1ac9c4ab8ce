// Package video assembles the vertical short: B-roll, narration and captions.
package video

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"finshorts/common"
	"finshorts/config"
	"finshorts/types"
)

// ComposeInput describes one short to render.
type ComposeInput struct {
	WorkItemID   string
	Keywords     []string
	AudioPath    string
	Duration     float64
	Segments     []types.Segment
	VideoPath    string
	SubtitlePath string // SRT sidecar
}

// Composer renders shorts. A nil Broll renders on a solid background.
type Composer struct {
	Broll    *BrollFetcher
	Renderer Renderer
	Video    config.Video
	Logger   *slog.Logger
}

// Compose writes the video and its SRT sidecar. On failure neither exists.
func (c *Composer) Compose(ctx context.Context, in ComposeInput) error {
	logger := c.Logger.With("component", "video", "work_item", in.WorkItemID)
	if in.Duration <= 0 {
		return errors.New("audio duration unknown")
	}
	if _, err := os.Stat(in.AudioPath); err != nil {
		return fmt.Errorf("narration audio: %w", err)
	}

	work, err := os.MkdirTemp("", "finshorts-"+in.WorkItemID+"-")
	if err != nil {
		return fmt.Errorf("creating work dir: %w", err)
	}
	defer os.RemoveAll(work)

	var clips []Clip
	if c.Broll != nil {
		clips = c.Broll.Fetch(ctx, in.Keywords, in.Duration, work)
	}
	timeline := PlanTimeline(clips, in.Duration)
	if len(timeline) == 0 {
		logger.Info("no b-roll available; using solid background")
	}

	assPath := filepath.Join(work, "captions.ass")
	style := SubtitleStyle{
		Font:            c.Video.SubtitleFont,
		Size:            c.Video.SubtitleSize,
		WordsPerCaption: c.Video.WordsPerCaption,
		Width:           config.VideoWidth,
		Height:          config.VideoHeight,
	}
	if err := os.WriteFile(assPath, []byte(BuildASS(in.Segments, style)), 0o644); err != nil {
		return fmt.Errorf("writing captions: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(in.VideoPath), 0o755); err != nil {
		return err
	}
	partial := filepath.Join(filepath.Dir(in.VideoPath), "."+strings.TrimSuffix(filepath.Base(in.VideoPath), ".mp4")+".partial.mp4")
	defer os.Remove(partial)

	job := RenderJob{
		AudioPath:    in.AudioPath,
		SubtitlePath: assPath,
		OutputPath:   partial,
		Duration:     in.Duration,
		Timeline:     timeline,
		Width:        config.VideoWidth,
		Height:       config.VideoHeight,
		FPS:          c.Video.FPS,
		Background:   c.Video.BackgroundColor,
	}
	if err := c.Renderer.Render(ctx, job); err != nil {
		return fmt.Errorf("rendering video: %w", err)
	}
	if err := os.Rename(partial, in.VideoPath); err != nil {
		return fmt.Errorf("finalizing video: %w", err)
	}

	if in.SubtitlePath != "" {
		if _, err := common.WriteFileAtomic(in.SubtitlePath, strings.NewReader(BuildSRT(in.Segments))); err != nil {
			os.Remove(in.VideoPath)
			return fmt.Errorf("writing subtitles: %w", err)
		}
	}

	logger.Info("video composed", "path", in.VideoPath, "clips", len(clips), "timeline", len(timeline), "duration", in.Duration)
	return nil
}
