package rssfeeds

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"finshorts/common"
	"finshorts/config"
	"finshorts/deduplication"
	"finshorts/types"
	"finshorts/workitems"
)

// IngestResult summarizes one ingestion pass.
type IngestResult struct {
	Fetched    int               `json:"fetched"`
	Created    int               `json:"created"`
	Duplicates int               `json:"duplicates"`
	Filtered   int               `json:"filtered"`
	Skipped    int               `json:"skipped"`
	FeedErrors map[string]string `json:"feed_errors,omitempty"`
	Items      []*types.WorkItem `json:"-"`
}

// Ingester turns feed entries into work items, gated by the content hash record.
type Ingester struct {
	Sources   []config.NewsSource
	Content   config.Content
	Records   *deduplication.Records
	Store     *workitems.Store
	Fetcher   FeedFetcher
	Extractor Extractor // nil disables full-text fallback
	Retry     common.RetryPolicy
	Logger    *slog.Logger
	Now       func() time.Time
}

func (in *Ingester) now() time.Time {
	if in.Now != nil {
		return in.Now()
	}
	return time.Now()
}

// Run fetches every source and emits one work item per novel entry. A failing
// feed is logged and skipped; it never aborts the batch.
func (in *Ingester) Run(ctx context.Context) (*IngestResult, error) {
	res := &IngestResult{FeedErrors: map[string]string{}}
	logger := in.Logger.With("component", "ingest")

	var entries []*types.NewsItem
	for _, src := range in.Sources {
		var items []*types.NewsItem
		err := common.Retry(ctx, in.Retry, logger, "fetch "+src.Name, func(ctx context.Context) error {
			var ferr error
			items, ferr = in.Fetcher.FetchFeed(ctx, src, in.Content.MaxItemsPerFeed)
			return ferr
		})
		if err != nil {
			if ctx.Err() != nil {
				return res, ctx.Err()
			}
			logger.Error("feed failed; skipping", "source", src.Name, "url", src.URL, "error", err)
			res.FeedErrors[src.Name] = err.Error()
			continue
		}
		logger.Info("feed fetched", "source", src.Name, "entries", len(items))
		entries = append(entries, items...)
	}
	res.Fetched = len(entries)

	// Newest first, like a reader would scan them.
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].PublishedAt.After(entries[j].PublishedAt)
	})

	seen := make(map[string]struct{})
	for _, entry := range entries {
		item, outcome, err := in.accept(ctx, entry, seen)
		switch outcome {
		case outcomeCreated:
			res.Created++
			res.Items = append(res.Items, item)
		case outcomeDuplicate:
			res.Duplicates++
		case outcomeFiltered:
			res.Filtered++
		default:
			res.Skipped++
		}
		if err != nil {
			logger.Error("entry failed", "source", entry.Source, "title", entry.Title, "error", err)
		}
	}

	logger.Info("ingestion complete",
		"fetched", res.Fetched, "created", res.Created, "duplicates", res.Duplicates,
		"filtered", res.Filtered, "skipped", res.Skipped, "feed_errors", len(res.FeedErrors))
	return res, nil
}

// Submit ingests a single externally supplied entry. The second result is
// false when it was a duplicate, filtered or unusable.
func (in *Ingester) Submit(ctx context.Context, entry *types.NewsItem) (*types.WorkItem, bool, error) {
	entry.Title = CleanText(entry.Title)
	entry.Summary = StripHTML(entry.Summary)
	if entry.Source == "" {
		entry.Source = "submitted"
	}
	item, outcome, err := in.accept(ctx, entry, map[string]struct{}{})
	return item, outcome == outcomeCreated, err
}

type outcome int

const (
	outcomeSkipped outcome = iota
	outcomeCreated
	outcomeDuplicate
	outcomeFiltered
)

func (in *Ingester) accept(ctx context.Context, entry *types.NewsItem, seen map[string]struct{}) (*types.WorkItem, outcome, error) {
	logger := in.Logger.With("component", "ingest", "source", entry.Source)

	if entry.Title == "" {
		return nil, outcomeSkipped, nil
	}
	if len([]rune(entry.Summary)) < config.MinSummaryLength {
		in.enrich(ctx, entry, logger)
		if len([]rune(entry.Summary)) < config.MinSummaryLength {
			logger.Debug("summary too short; skipping", "title", entry.Title)
			return nil, outcomeSkipped, nil
		}
	}

	if !MatchesFilter(entry.Title+" "+entry.Summary, in.Content.KeywordFilter) {
		return nil, outcomeFiltered, nil
	}

	entry.ContentHash = deduplication.ContentHash(entry.Title, entry.Summary)
	if _, dup := seen[entry.ContentHash]; dup {
		return nil, outcomeDuplicate, nil
	}
	seen[entry.ContentHash] = struct{}{}

	store, err := in.Records.Content(ctx, entry.Source)
	if err != nil {
		return nil, outcomeSkipped, err
	}
	exists, err := store.Contains(ctx, entry.ContentHash)
	if err != nil {
		return nil, outcomeSkipped, fmt.Errorf("checking content hash: %w", err)
	}
	if exists {
		logger.Debug("already ingested", "title", entry.Title)
		return nil, outcomeDuplicate, nil
	}

	entry.Keywords = ExtractKeywords(entry.Title+" "+entry.Summary, in.Content.MaxKeywords)
	item := types.NewWorkItem(entry, in.now())
	if err := in.Store.Save(item); err != nil {
		return nil, outcomeSkipped, fmt.Errorf("saving work item: %w", err)
	}

	meta := map[string]any{
		"title":     entry.Title,
		"url":       deduplication.NormalizeURL(entry.URL),
		"work_item": item.ID,
	}
	if _, err := store.Add(ctx, entry.ContentHash, meta); err != nil {
		return item, outcomeCreated, fmt.Errorf("recording content hash: %w", err)
	}
	logger.Info("work item created", "work_item", item.ID, "title", item.Title, "keywords", strings.Join(item.Keywords, ","))
	return item, outcomeCreated, nil
}

func (in *Ingester) enrich(ctx context.Context, entry *types.NewsItem, logger *slog.Logger) {
	if in.Extractor == nil || !in.Content.ExtractFullText || entry.URL == "" {
		return
	}
	ectx, cancel := context.WithTimeout(ctx, config.ExtractorTimeout)
	defer cancel()
	text, err := in.Extractor.Extract(ectx, entry.URL)
	if err != nil {
		logger.Warn("full-text extraction failed", "url", entry.URL, "error", err)
		return
	}
	if text != "" {
		entry.Summary = Truncate(text, config.MaxExtractedSummary)
	}
}
