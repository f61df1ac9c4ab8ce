package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// CleanupOldLogs removes *.log files in dir not modified within retentionDays.
// The active log file is skipped. It returns the number of files removed.
func CleanupOldLogs(logger *slog.Logger, dir string, retentionDays int, active string, now time.Time) int {
	if retentionDays <= 0 || dir == "" {
		return 0
	}
	cutoff := now.AddDate(0, 0, -retentionDays)

	activeAbs, _ := filepath.Abs(active)
	matches, err := filepath.Glob(filepath.Join(dir, "*.log"))
	if err != nil {
		return 0
	}

	removed := 0
	for _, path := range matches {
		if abs, err := filepath.Abs(path); err == nil && abs == activeAbs {
			continue
		}
		info, err := os.Stat(path)
		if err != nil || info.IsDir() || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			logger.Warn("log retention: remove failed", "path", path, "error", err)
			continue
		}
		removed++
	}
	if removed > 0 {
		logger.Info("log retention: removed old logs", "count", removed, "dir", dir)
	}
	return removed
}
