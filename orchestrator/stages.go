package orchestrator

import (
	"context"
	"errors"
	"fmt"

	"finshorts/author"
	"finshorts/outputs"
	"finshorts/publish"
	"finshorts/thumbnail"
	"finshorts/types"
	"finshorts/video"
	"finshorts/voice"
)

// Stage produces one pipeline stage. Advance fills in the item's fields for
// that stage; the pipeline sets item.Stage and saves it.
type Stage interface {
	Produces() types.Stage
	Advance(ctx context.Context, item *types.WorkItem, out outputs.Set) error
}

// ScriptStage drafts the narration script.
type ScriptStage struct {
	Author *author.Author
}

func (s *ScriptStage) Produces() types.Stage { return types.StageScripted }

func (s *ScriptStage) Advance(ctx context.Context, item *types.WorkItem, _ outputs.Set) error {
	script, err := s.Author.Write(ctx, item)
	if err != nil {
		return err
	}
	item.Script = script
	return nil
}

// VoiceStage synthesizes the narration audio.
type VoiceStage struct {
	Narrator *voice.Narrator
}

func (s *VoiceStage) Produces() types.Stage { return types.StageVoiced }

func (s *VoiceStage) Advance(ctx context.Context, item *types.WorkItem, out outputs.Set) error {
	if item.Script == nil {
		return errors.New("item has no script")
	}
	n, err := s.Narrator.Narrate(ctx, item.ID, item.Script, out.AudioPath(item.ID))
	if err != nil {
		return err
	}
	item.AudioPath = n.Path
	item.AudioDuration = n.Duration
	item.Script.Segments = n.Segments
	return nil
}

// ComposeStage renders the video with subtitles.
type ComposeStage struct {
	Composer *video.Composer
}

func (s *ComposeStage) Produces() types.Stage { return types.StageComposed }

func (s *ComposeStage) Advance(ctx context.Context, item *types.WorkItem, out outputs.Set) error {
	if item.Script == nil || item.AudioPath == "" {
		return errors.New("item has no narration")
	}
	in := video.ComposeInput{
		WorkItemID:   item.ID,
		Keywords:     item.Keywords,
		AudioPath:    item.AudioPath,
		Duration:     item.AudioDuration,
		Segments:     item.Script.Segments,
		VideoPath:    out.VideoPath(item.ID),
		SubtitlePath: out.SubtitlePath(item.ID),
	}
	if err := s.Composer.Compose(ctx, in); err != nil {
		return err
	}
	item.VideoPath = in.VideoPath
	item.SubtitlePath = in.SubtitlePath
	return nil
}

// ThumbnailStage generates the thumbnail image.
type ThumbnailStage struct {
	Generator *thumbnail.Generator
}

func (s *ThumbnailStage) Produces() types.Stage { return types.StageThumbnailed }

func (s *ThumbnailStage) Advance(ctx context.Context, item *types.WorkItem, out outputs.Set) error {
	path, err := s.Generator.Generate(ctx, item, func(ext string) string {
		return out.ThumbnailPath(item.ID, ext)
	})
	if err != nil {
		return err
	}
	item.ThumbnailPath = path
	return nil
}

// PublishStage uploads the finished short.
type PublishStage struct {
	Publisher *publish.Publisher
}

func (s *PublishStage) Produces() types.Stage { return types.StagePublished }

func (s *PublishStage) Advance(ctx context.Context, item *types.WorkItem, out outputs.Set) error {
	metaPath := out.MetadataPath(item.ID)
	res, err := s.Publisher.Publish(ctx, item, metaPath)
	if err != nil {
		return fmt.Errorf("publishing: %w", err)
	}
	item.MetadataPath = metaPath
	item.VideoID = res.VideoID
	item.VideoURL = res.VideoURL
	return nil
}
