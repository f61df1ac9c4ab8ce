package types

import (
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// NewsItem is a single feed entry after cleaning, before it becomes a WorkItem.
type NewsItem struct {
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Summary     string    `json:"summary"`
	Source      string    `json:"source"`
	Category    string    `json:"category,omitempty"`
	PublishedAt time.Time `json:"published_at"`
	Keywords    []string  `json:"keywords,omitempty"`
	ContentHash string    `json:"content_hash,omitempty"`
}

// FeedResult summarizes one feed fetch.
type FeedResult struct {
	Source    string      `json:"source"`
	FeedURL   string      `json:"feed_url"`
	FetchedAt time.Time   `json:"fetched_at"`
	Items     []*NewsItem `json:"items"`
	Err       error       `json:"-"`
}

// HashString returns the hex sha256 of s.
func HashString(s string) string {
	h := sha256.Sum256([]byte(s))
	return hex.EncodeToString(h[:])
}
