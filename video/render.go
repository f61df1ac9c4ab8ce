package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"finshorts/config"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// Renderer turns a RenderJob into a video file.
type Renderer interface {
	Render(ctx context.Context, job RenderJob) error
}

// FFmpegRenderer builds the filter graph with ffmpeg-go and runs ffmpeg.
type FFmpegRenderer struct {
	FFmpegPath string
}

func (r FFmpegRenderer) Render(ctx context.Context, job RenderJob) error {
	args, err := BuildArgs(job)
	if err != nil {
		return err
	}
	bin := r.FFmpegPath
	if bin == "" {
		bin = "ffmpeg"
	}
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("ffmpeg failed: %w: %s", err, tail(stderr.String(), 800))
	}
	return nil
}

// BuildArgs returns the ffmpeg command line for job.
func BuildArgs(job RenderJob) ([]string, error) {
	if job.Duration <= 0 {
		return nil, errors.New("render duration must be positive")
	}
	if job.AudioPath == "" || job.OutputPath == "" {
		return nil, errors.New("render needs an audio and an output path")
	}
	size := fmt.Sprintf("%d:%d", job.Width, job.Height)
	fps := strconv.Itoa(job.FPS)
	dur := fmt.Sprintf("%.3f", job.Duration)

	var picture *ffmpeg.Stream
	if len(job.Timeline) == 0 {
		src := fmt.Sprintf("color=c=%s:s=%dx%d:r=%d:d=%s", job.Background, job.Width, job.Height, job.FPS, dur)
		picture = ffmpeg.Input(src, ffmpeg.KwArgs{"f": "lavfi"}).Video()
	} else {
		parts := make([]*ffmpeg.Stream, 0, len(job.Timeline))
		for _, e := range job.Timeline {
			parts = append(parts, ffmpeg.Input(e.Path).Video().
				Filter("scale", ffmpeg.Args{size}, ffmpeg.KwArgs{"force_original_aspect_ratio": "increase"}).
				Filter("crop", ffmpeg.Args{size}).
				Filter("setsar", ffmpeg.Args{"1"}).
				Filter("fps", ffmpeg.Args{fps}).
				Filter("trim", ffmpeg.Args{}, ffmpeg.KwArgs{"duration": fmt.Sprintf("%.3f", e.Duration)}).
				Filter("setpts", ffmpeg.Args{"PTS-STARTPTS"}))
		}
		picture = parts[0]
		if len(parts) > 1 {
			picture = ffmpeg.Concat(parts)
		}
		picture = picture.
			Filter("trim", ffmpeg.Args{}, ffmpeg.KwArgs{"duration": dur}).
			Filter("setpts", ffmpeg.Args{"PTS-STARTPTS"})
	}
	if job.SubtitlePath != "" {
		picture = picture.Filter("ass", ffmpeg.Args{job.SubtitlePath})
	}

	audio := ffmpeg.Input(job.AudioPath).Audio()
	out := ffmpeg.Output([]*ffmpeg.Stream{picture, audio}, job.OutputPath, ffmpeg.KwArgs{
		"c:v":      config.VideoCodec,
		"c:a":      config.AudioCodec,
		"b:a":      config.AudioBitrate,
		"preset":   config.VideoPreset,
		"pix_fmt":  config.PixelFormat,
		"r":        fps,
		"t":        dur,
		"shortest": "",
	}).OverWriteOutput()
	return out.GetArgs(), nil
}

func tail(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
