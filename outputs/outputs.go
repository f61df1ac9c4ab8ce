// Package outputs manages the Daily Output Sets under data/outputs/YYYY-MM-DD.
package outputs

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"time"

	"finshorts/config"
	"finshorts/types"
)

// Set is one dated output directory.
type Set struct {
	Root string
	Date string
}

// ForItem returns the set pinned on item, pinning today's date on first use
// so retries on later days keep writing to the same set.
func ForItem(root string, item *types.WorkItem, now time.Time) Set {
	if item.OutputDate == "" {
		item.OutputDate = now.Format(config.OutputDateLayout)
	}
	return Set{Root: root, Date: item.OutputDate}
}

func (s Set) Dir() string { return filepath.Join(s.Root, s.Date) }

func (s Set) dir(kind string) string { return filepath.Join(s.Dir(), kind) }

// Ensure creates the set directory and its kind subdirectories.
func (s Set) Ensure() error {
	for _, kind := range []string{config.AudioDir, config.VideoDir, config.ThumbnailsDir, config.MetadataDir} {
		if err := os.MkdirAll(s.dir(kind), 0o755); err != nil {
			return fmt.Errorf("creating output dir: %w", err)
		}
	}
	return nil
}

func (s Set) AudioPath(id string) string { return filepath.Join(s.dir(config.AudioDir), id+".mp3") }
func (s Set) VideoPath(id string) string { return filepath.Join(s.dir(config.VideoDir), id+".mp4") }
func (s Set) SubtitlePath(id string) string {
	return filepath.Join(s.dir(config.VideoDir), id+".srt")
}
func (s Set) ThumbnailPath(id, ext string) string {
	return filepath.Join(s.dir(config.ThumbnailsDir), id+"."+ext)
}
func (s Set) MetadataPath(id string) string {
	return filepath.Join(s.dir(config.MetadataDir), id+".json")
}

// Cleanup removes dated sets older than retentionDays before now's date.
// Today's set and directories whose names are not dates are left alone.
func Cleanup(logger *slog.Logger, root string, retentionDays int, now time.Time) ([]string, error) {
	if retentionDays <= 0 {
		return nil, nil
	}
	entries, err := os.ReadDir(root)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading outputs: %w", err)
	}

	today, _ := time.ParseInLocation(config.OutputDateLayout, now.Format(config.OutputDateLayout), time.UTC)
	cutoff := today.AddDate(0, 0, -retentionDays)

	var removed []string
	var firstErr error
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		date, err := time.ParseInLocation(config.OutputDateLayout, e.Name(), time.UTC)
		if err != nil || !date.Before(cutoff) {
			continue
		}
		path := filepath.Join(root, e.Name())
		if err := os.RemoveAll(path); err != nil {
			logger.Warn("output retention: remove failed", "path", path, "error", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		removed = append(removed, e.Name())
	}
	sort.Strings(removed)
	if len(removed) > 0 {
		logger.Info("output retention: removed old output sets", "count", len(removed), "dates", removed)
	}
	return removed, firstErr
}
