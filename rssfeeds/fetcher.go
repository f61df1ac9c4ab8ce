package rssfeeds

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"finshorts/config"
	"finshorts/types"

	"github.com/mmcdole/gofeed"
)

// FeedFetcher returns cleaned entries of one news source.
type FeedFetcher interface {
	FetchFeed(ctx context.Context, src config.NewsSource, maxCount int) ([]*types.NewsItem, error)
}

// GoFeedFetcher parses RSS/Atom feeds with gofeed.
type GoFeedFetcher struct {
	parser *gofeed.Parser
}

func NewGoFeedFetcher(client *http.Client) *GoFeedFetcher {
	p := gofeed.NewParser()
	if client != nil {
		p.Client = client
	}
	p.UserAgent = "finshorts/1.0 (+rss)"
	return &GoFeedFetcher{parser: p}
}

// FetchFeed retrieves the feed and returns up to maxCount cleaned entries.
// Entries without a title are dropped; summaries are reduced to plain text.
func (f *GoFeedFetcher) FetchFeed(ctx context.Context, src config.NewsSource, maxCount int) ([]*types.NewsItem, error) {
	feed, err := f.parser.ParseURLWithContext(ResolveFeedURL(src.URL), ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch feed %s: %w", src.Name, err)
	}

	count := len(feed.Items)
	if maxCount > 0 && count > maxCount {
		count = maxCount
	}
	items := make([]*types.NewsItem, 0, count)

	for _, entry := range feed.Items[:count] {
		title := CleanText(entry.Title)
		if title == "" {
			continue
		}

		var publishedAt time.Time
		if entry.PublishedParsed != nil {
			publishedAt = *entry.PublishedParsed
		} else if entry.UpdatedParsed != nil {
			publishedAt = *entry.UpdatedParsed
		}

		summary := entry.Description
		if strings.TrimSpace(summary) == "" {
			summary = entry.Content
		}

		category := src.Category
		if category == "" && len(entry.Categories) > 0 {
			category = entry.Categories[0]
		}

		items = append(items, &types.NewsItem{
			Title:       title,
			URL:         strings.TrimSpace(entry.Link),
			Summary:     StripHTML(summary),
			Source:      sourceName(src),
			Category:    category,
			PublishedAt: publishedAt,
		})
	}
	return items, nil
}

func sourceName(src config.NewsSource) string {
	if src.Name != "" {
		return src.Name
	}
	return src.URL
}
