package deduplication

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"finshorts/common"
)

// FileStore keeps records in a text file, one "hash|{json}" line per entry.
// The file is read once on first use and appended to afterwards.
type FileStore struct {
	path string
	now  func() time.Time

	mu      sync.Mutex
	loaded  bool
	order   []string
	entries map[string]Entry
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, now: time.Now}
}

func (s *FileStore) Path() string { return s.path }

func (s *FileStore) load() error {
	if s.loaded {
		return nil
	}
	s.entries = make(map[string]Entry)
	s.order = nil

	data, err := os.ReadFile(s.path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("reading %s: %w", s.path, err)
	}

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		entry, ok := parseLine(sc.Text())
		if !ok {
			continue
		}
		if _, dup := s.entries[entry.Hash]; dup {
			continue
		}
		s.entries[entry.Hash] = entry
		s.order = append(s.order, entry.Hash)
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("scanning %s: %w", s.path, err)
	}
	s.loaded = true
	return nil
}

// parseLine accepts "hash|{json}" and bare "hash" lines.
func parseLine(line string) (Entry, bool) {
	line = strings.TrimSpace(line)
	if line == "" {
		return Entry{}, false
	}
	hash, rest, found := strings.Cut(line, "|")
	hash = strings.TrimSpace(hash)
	if hash == "" {
		return Entry{}, false
	}
	entry := Entry{Hash: hash}
	if found && strings.TrimSpace(rest) != "" {
		var meta map[string]any
		if err := json.Unmarshal([]byte(rest), &meta); err == nil {
			entry.Metadata = meta
		}
	}
	return entry, true
}

func formatLine(e Entry) (string, error) {
	if len(e.Metadata) == 0 {
		return e.Hash + "\n", nil
	}
	b, err := json.Marshal(e.Metadata)
	if err != nil {
		return "", err
	}
	return e.Hash + "|" + string(b) + "\n", nil
}

func (s *FileStore) Contains(ctx context.Context, hash string) (bool, error) {
	_, ok, err := s.Get(ctx, hash)
	return ok, err
}

func (s *FileStore) Get(_ context.Context, hash string) (Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return Entry{}, false, err
	}
	e, ok := s.entries[hash]
	return e, ok, nil
}

func (s *FileStore) Add(_ context.Context, hash string, meta map[string]any) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return false, err
	}
	if _, ok := s.entries[hash]; ok {
		return false, nil
	}

	entry := Entry{Hash: hash, Metadata: withTimestamp(meta, s.now())}
	line, err := formatLine(entry)
	if err != nil {
		return false, fmt.Errorf("encoding record: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return false, err
	}
	f, err := os.OpenFile(s.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return false, fmt.Errorf("opening %s: %w", s.path, err)
	}
	if _, err := f.WriteString(line); err != nil {
		f.Close()
		return false, fmt.Errorf("appending to %s: %w", s.path, err)
	}
	if err := f.Close(); err != nil {
		return false, err
	}

	s.entries[hash] = entry
	s.order = append(s.order, hash)
	return true, nil
}

func (s *FileStore) Entries(_ context.Context) ([]Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return nil, err
	}
	out := make([]Entry, 0, len(s.order))
	for _, h := range s.order {
		out = append(out, s.entries[h])
	}
	return out, nil
}

func (s *FileStore) Prune(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.load(); err != nil {
		return 0, err
	}

	var buf bytes.Buffer
	kept := make([]string, 0, len(s.order))
	removed := 0
	for _, h := range s.order {
		e := s.entries[h]
		if ts, ok := e.Timestamp(); ok && ts.Before(cutoff) {
			delete(s.entries, h)
			removed++
			continue
		}
		line, err := formatLine(e)
		if err != nil {
			return 0, err
		}
		buf.WriteString(line)
		kept = append(kept, h)
	}
	if removed == 0 {
		return 0, nil
	}

	if _, err := common.WriteFileAtomic(s.path, &buf); err != nil {
		return 0, fmt.Errorf("rewriting %s: %w", s.path, err)
	}
	s.order = kept
	return removed, nil
}

func (s *FileStore) Close() error { return nil }
