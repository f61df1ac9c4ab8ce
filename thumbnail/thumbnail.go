// Package thumbnail produces the cover image for a short.
package thumbnail

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"strings"

	"finshorts/common"
	"finshorts/types"
)

// Generator asks the image API for a thumbnail and falls back to a locally
// rendered card. A nil Images client always renders the card.
type Generator struct {
	Images  *ImageClient
	Width   int
	Height  int
	Quality int
	Retry   common.RetryPolicy
	Logger  *slog.Logger
}

// Generate writes the thumbnail through pathFor, which maps an extension
// ("png" or "jpg") to the output path, and returns the path written.
func (g *Generator) Generate(ctx context.Context, item *types.WorkItem, pathFor func(ext string) string) (string, error) {
	logger := g.Logger.With("component", "thumbnail", "work_item", item.ID)

	if g.Images != nil && g.Images.APIKey != "" {
		var img []byte
		err := common.Retry(ctx, g.Retry, logger, "image generation", func(ctx context.Context) error {
			var gerr error
			img, gerr = g.Images.Generate(ctx, Prompt(item))
			return gerr
		})
		if err == nil {
			path := pathFor("png")
			if _, err := common.WriteFileAtomic(path, bytes.NewReader(img)); err != nil {
				return "", fmt.Errorf("writing thumbnail: %w", err)
			}
			logger.Info("thumbnail generated", "path", path, "bytes", len(img))
			return path, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		logger.Warn("image generation failed; rendering fallback card", "error", err)
	}

	keywords := item.Keywords
	if item.Script != nil && len(item.Script.Keywords) > 0 {
		keywords = item.Script.Keywords
	}
	card, err := RenderCard(g.Width, g.Height, g.Quality, keywords)
	if err != nil {
		return "", fmt.Errorf("rendering fallback card: %w", err)
	}
	path := pathFor("jpg")
	if _, err := common.WriteFileAtomic(path, bytes.NewReader(card)); err != nil {
		return "", fmt.Errorf("writing thumbnail: %w", err)
	}
	logger.Info("fallback thumbnail rendered", "path", path)
	return path, nil
}

// Prompt describes the thumbnail for the image model.
func Prompt(item *types.WorkItem) string {
	hook := ""
	if item.Script != nil {
		hook = item.Script.Hook
	}
	return fmt.Sprintf("Eye-catching YouTube thumbnail for a finance news short. Story: %s. %s "+
		"Themes: %s. Bold composition, high contrast, dramatic lighting, market charts or money imagery. No text or letters.",
		item.Title, hook, strings.Join(item.Keywords, ", "))
}
