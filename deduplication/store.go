package deduplication

import (
	"context"
	"time"
)

// Entry is one hash record with its metadata.
type Entry struct {
	Hash     string         `json:"hash"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// Timestamp reads the RFC3339 "timestamp" metadata field. The second result
// is false when it is missing or malformed.
func (e Entry) Timestamp() (time.Time, bool) {
	raw, ok := e.Metadata["timestamp"].(string)
	if !ok {
		return time.Time{}, false
	}
	ts, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false
	}
	return ts, true
}

// String returns a metadata field as a string, or "".
func (e Entry) String(key string) string {
	s, _ := e.Metadata[key].(string)
	return s
}

// Store is a persisted set of hashes. Add never duplicates an existing hash.
type Store interface {
	Contains(ctx context.Context, hash string) (bool, error)
	Get(ctx context.Context, hash string) (Entry, bool, error)
	// Add records hash with meta. A "timestamp" is filled in when absent.
	// The first result is false when the hash was already present.
	Add(ctx context.Context, hash string, meta map[string]any) (bool, error)
	Entries(ctx context.Context) ([]Entry, error)
	// Prune removes entries whose timestamp is before cutoff. Entries without
	// a timestamp are kept.
	Prune(ctx context.Context, cutoff time.Time) (int, error)
	Close() error
}

func withTimestamp(meta map[string]any, now time.Time) map[string]any {
	out := make(map[string]any, len(meta)+1)
	for k, v := range meta {
		out[k] = v
	}
	if _, ok := out["timestamp"]; !ok {
		out["timestamp"] = now.UTC().Format(time.RFC3339)
	}
	return out
}
