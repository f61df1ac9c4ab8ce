package deduplication

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"finshorts/config"
)

const (
	scriptNamespace = "scripts"
	uploadNamespace = "uploads"
	contentPrefix   = "content:"
)

// RecordsOptions selects the backend for all hash records.
type RecordsOptions struct {
	Backend string // "file" or "sqlite"
	Dir     string // data/logs
	Bloom   *RedisBloom
	Logger  *slog.Logger
}

// Records groups the Content Hash Record (one store per source), the Script
// Hash Record and the Upload Record.
type Records struct {
	opts RecordsOptions
	db   *SQLiteDB

	mu      sync.Mutex
	content map[string]Store
	scripts Store
	uploads Store
}

// OpenRecords opens the configured backend. The bloom filter is optional.
func OpenRecords(ctx context.Context, opts RecordsOptions) (*Records, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	r := &Records{opts: opts, content: make(map[string]Store)}

	switch opts.Backend {
	case "", "file":
		r.opts.Backend = "file"
	case "sqlite":
		db, err := OpenSQLite(filepath.Join(opts.Dir, config.RecordsDBFile))
		if err != nil {
			return nil, err
		}
		r.db = db
	default:
		return nil, fmt.Errorf("unknown records backend %q", opts.Backend)
	}

	var err error
	if r.scripts, err = r.open(ctx, scriptNamespace, config.ScriptHashFile); err != nil {
		r.Close()
		return nil, err
	}
	if r.uploads, err = r.open(ctx, uploadNamespace, config.UploadRecordFile); err != nil {
		r.Close()
		return nil, err
	}
	return r, nil
}

func (r *Records) open(ctx context.Context, namespace, fileName string) (Store, error) {
	var s Store
	if r.db != nil {
		s = r.db.Namespace(namespace)
	} else {
		s = NewFileStore(filepath.Join(r.opts.Dir, fileName))
	}
	if r.opts.Bloom == nil {
		return s, nil
	}
	return NewBloomStore(ctx, s, r.opts.Bloom, namespace, r.opts.Logger)
}

// Content returns the content hash store for a news source.
func (r *Records) Content(ctx context.Context, source string) (Store, error) {
	slug := Slug(source)
	r.mu.Lock()
	defer r.mu.Unlock()
	if s, ok := r.content[slug]; ok {
		return s, nil
	}
	s, err := r.open(ctx, contentPrefix+slug, config.ContentHashPrefix+slug+".txt")
	if err != nil {
		return nil, err
	}
	r.content[slug] = s
	return s, nil
}

func (r *Records) Scripts() Store { return r.scripts }
func (r *Records) Uploads() Store { return r.uploads }

// PruneHashes removes content and script hashes older than cutoff, including
// content records of sources not opened in this process. Upload records are
// never pruned: they are the only guard against re-uploading a video.
func (r *Records) PruneHashes(ctx context.Context, cutoff time.Time) (int, error) {
	stores := []Store{r.scripts}

	if r.db != nil {
		res, err := r.db.db.ExecContext(ctx,
			`DELETE FROM records WHERE namespace LIKE ? AND created_at < ?`, contentPrefix+"%", cutoff.UTC())
		if err != nil {
			return 0, fmt.Errorf("pruning content records: %w", err)
		}
		n, _ := res.RowsAffected()
		total := int(n)
		m, err := r.scripts.Prune(ctx, cutoff)
		return total + m, err
	}

	matches, err := filepath.Glob(filepath.Join(r.opts.Dir, config.ContentHashPrefix+"*.txt"))
	if err != nil {
		return 0, err
	}
	for _, path := range matches {
		slug := strings.TrimSuffix(strings.TrimPrefix(filepath.Base(path), config.ContentHashPrefix), ".txt")
		s, err := r.Content(ctx, slug)
		if err != nil {
			return 0, err
		}
		stores = append(stores, s)
	}

	total := 0
	var errs []error
	for _, s := range stores {
		n, err := s.Prune(ctx, cutoff)
		total += n
		if err != nil {
			errs = append(errs, err)
		}
	}
	return total, errors.Join(errs...)
}

// Close releases the backend.
func (r *Records) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}
