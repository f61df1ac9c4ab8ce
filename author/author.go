// Package author drafts the narration script for a work item.
package author

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"finshorts/common"
	"finshorts/config"
	"finshorts/deduplication"
	"finshorts/types"
)

// ErrDuplicateScript means an identical script was generated before.
var ErrDuplicateScript = errors.New("duplicate script")

const (
	bodySystem = "You are a professional finance content creator with expertise in making complex financial news accessible to general audiences."
	hookSystem = "You are an expert at creating compelling video hooks that maximize viewer engagement."
	ctaSystem  = "You are an expert at creating effective calls to action that drive viewer engagement and channel growth."

	shortMaxTokens = 200
)

// Author turns a work item summary into a hook, body and call to action.
type Author struct {
	LLM       Provider
	Content   config.Content
	MaxTokens int
	Scripts   deduplication.Store
	Retry     common.RetryPolicy
	Logger    *slog.Logger
}

// Write generates and records a script for item. When the script hash is
// already recorded it returns the script together with ErrDuplicateScript.
func (a *Author) Write(ctx context.Context, item *types.WorkItem) (*types.Script, error) {
	logger := a.Logger.With("component", "author", "work_item", item.ID)

	body, err := a.generate(ctx, logger, "body", bodySystem, a.bodyPrompt(item), a.MaxTokens)
	if err != nil {
		return nil, err
	}
	hook, err := a.generate(ctx, logger, "hook", hookSystem, a.hookPrompt(item), shortMaxTokens)
	if err != nil {
		return nil, err
	}
	cta, err := a.generate(ctx, logger, "cta", ctaSystem, a.ctaPrompt(item), shortMaxTokens)
	if err != nil {
		return nil, err
	}

	script := &types.Script{
		Hook:     hook,
		Body:     body,
		CTA:      cta,
		Keywords: append([]string(nil), item.Keywords...),
		Duration: a.Content.ScriptLengthSeconds,
	}
	script.Narration = OptimizeForSpeech(script.FullText())
	script.Segments = EstimateSegments(script.Narration)
	script.Hash = deduplication.ScriptHash(script)

	dup, err := a.Scripts.Contains(ctx, script.Hash)
	if err != nil {
		return nil, fmt.Errorf("checking script hash: %w", err)
	}
	if dup {
		logger.Warn("duplicate script; rejecting", "hash", script.Hash, "title", item.Title)
		return script, ErrDuplicateScript
	}

	if _, err := a.Scripts.Add(ctx, script.Hash, map[string]any{
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"title":     item.Title,
		"work_item": item.ID,
	}); err != nil {
		return nil, fmt.Errorf("recording script hash: %w", err)
	}

	logger.Info("script generated", "words", len(strings.Fields(script.Narration)), "segments", len(script.Segments))
	return script, nil
}

func (a *Author) generate(ctx context.Context, logger *slog.Logger, part, system, prompt string, maxTokens int) (string, error) {
	if maxTokens <= 0 {
		maxTokens = 2000
	}
	var text string
	err := common.Retry(ctx, a.Retry, logger, "generate "+part, func(ctx context.Context) error {
		out, err := a.LLM.Generate(ctx, system, prompt, maxTokens)
		if err != nil {
			return err
		}
		if text = cleanResponse(out); text == "" {
			return fmt.Errorf("%s: empty %s", a.LLM.Name(), part)
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("generating %s: %w", part, err)
	}
	return text, nil
}

func (a *Author) bodyPrompt(item *types.WorkItem) string {
	secs := a.Content.ScriptLengthSeconds
	return fmt.Sprintf(`Write a %d-second YouTube Shorts script about this finance news story.

Title: %s
Summary: %s
Keywords: %s

Requirements:
- Length: about %d words, spoken in %d seconds
- Tone: %s
- Language: %s
- Audience: retail investors and people curious about markets
- Open with the news, cover the key points, close with a clear takeaway
- Include the concrete numbers, percentages or figures from the story
- Explain any jargon in plain words

Return only the spoken text: no timestamps, headings or stage directions.`,
		secs, item.Title, item.Summary, strings.Join(item.Keywords, ", "),
		secs*3, secs, a.Content.Tone, a.Content.Language)
}

func (a *Author) hookPrompt(item *types.WorkItem) string {
	secs := a.Content.HookDurationSeconds
	return fmt.Sprintf(`Write the opening hook for a YouTube Shorts finance video titled %q.

The hook must:
- Last %d seconds (about %d words)
- Grab attention immediately and create curiosity or urgency
- Use a %s tone, in language %q

Return only the hook sentence.`, item.Title, secs, secs*3, a.Content.Tone, a.Content.Language)
}

func (a *Author) ctaPrompt(item *types.WorkItem) string {
	secs := a.Content.CTADurationSeconds
	return fmt.Sprintf(`Write the closing call to action for a YouTube Shorts finance video titled %q.

The call to action must:
- Last %d seconds (about %d words)
- Ask viewers to like, subscribe and share their view in the comments
- Relate to the topic of the video
- Use a %s tone, in language %q

Return only the call to action.`, item.Title, secs, secs*3, a.Content.Tone, a.Content.Language)
}
