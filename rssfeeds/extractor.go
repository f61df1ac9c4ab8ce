package rssfeeds

import (
	"context"
	"fmt"
	"time"

	readability "github.com/go-shiori/go-readability"
)

// Extractor pulls the readable article text from a page.
type Extractor interface {
	Extract(ctx context.Context, url string) (string, error)
}

// ReadabilityExtractor fetches pages with go-readability.
type ReadabilityExtractor struct {
	Timeout time.Duration
}

func (r ReadabilityExtractor) Extract(ctx context.Context, url string) (string, error) {
	if url == "" {
		return "", fmt.Errorf("article URL is empty")
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}
	timeout := r.Timeout
	if dl, ok := ctx.Deadline(); ok {
		if left := time.Until(dl); left < timeout || timeout <= 0 {
			timeout = left
		}
	}

	article, err := readability.FromURL(url, timeout)
	if err != nil {
		return "", fmt.Errorf("readability extraction failed: %w", err)
	}
	text := CleanText(article.TextContent)
	if text == "" {
		text = CleanText(article.Excerpt)
	}
	return text, nil
}
