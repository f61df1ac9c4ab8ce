package workitems

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"finshorts/common"
	"finshorts/config"
	"finshorts/types"
)

// ErrNotFound is returned when no active work item has the requested id.
var ErrNotFound = errors.New("work item not found")

// Store keeps one JSON file per work item under dir. Published items move to
// dir/archive, rejected ones to dir/rejected.
type Store struct {
	dir string
	now func() time.Time
}

func NewStore(dir string) *Store {
	return &Store{dir: dir, now: time.Now}
}

func (s *Store) Dir() string { return s.dir }

func (s *Store) path(id string) string {
	return filepath.Join(s.dir, id+".json")
}

// Save writes the item atomically and bumps UpdatedAt.
func (s *Store) Save(item *types.WorkItem) error {
	if item == nil || item.ID == "" {
		return errors.New("work item has no id")
	}
	if strings.ContainsAny(item.ID, `/\`) {
		return fmt.Errorf("invalid work item id %q", item.ID)
	}
	item.UpdatedAt = s.now().UTC()
	return writeJSON(s.path(item.ID), item)
}

// Load reads an active work item.
func (s *Store) Load(id string) (*types.WorkItem, error) {
	if strings.ContainsAny(id, `/\`) || id == "" {
		return nil, ErrNotFound
	}
	item, err := readJSON(s.path(id))
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return item, err
}

// Exists reports whether an active item with this id is on disk.
func (s *Store) Exists(id string) bool {
	_, err := os.Stat(s.path(id))
	return err == nil
}

// List returns active work items, oldest first. Unreadable files are
// reported in the second result and skipped.
func (s *Store) List() ([]*types.WorkItem, []error) {
	return listDir(s.dir)
}

// ListArchived returns published items.
func (s *Store) ListArchived() ([]*types.WorkItem, []error) {
	return listDir(filepath.Join(s.dir, config.ArchiveDir))
}

// ListRejected returns items rejected as duplicates.
func (s *Store) ListRejected() ([]*types.WorkItem, []error) {
	return listDir(filepath.Join(s.dir, config.RejectedDir))
}

// Archive saves a published item into the archive and removes the active file.
func (s *Store) Archive(item *types.WorkItem) error {
	return s.retire(item, config.ArchiveDir)
}

// Reject saves a rejected item under rejected/ and removes the active file.
func (s *Store) Reject(item *types.WorkItem) error {
	return s.retire(item, config.RejectedDir)
}

func (s *Store) retire(item *types.WorkItem, sub string) error {
	item.UpdatedAt = s.now().UTC()
	dst := filepath.Join(s.dir, sub, item.ID+".json")
	if err := writeJSON(dst, item); err != nil {
		return fmt.Errorf("retiring %s: %w", item.ID, err)
	}
	if err := os.Remove(s.path(item.ID)); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("removing active %s: %w", item.ID, err)
	}
	return nil
}

// PruneExpired deletes active, archived and rejected items created before
// cutoff. It returns the ids removed.
func (s *Store) PruneExpired(cutoff time.Time) ([]string, error) {
	var removed []string
	var errs []error
	for _, dir := range []string{s.dir, filepath.Join(s.dir, config.ArchiveDir), filepath.Join(s.dir, config.RejectedDir)} {
		items, listErrs := listDir(dir)
		errs = append(errs, listErrs...)
		for _, item := range items {
			if !item.CreatedAt.Before(cutoff) {
				continue
			}
			if err := os.Remove(filepath.Join(dir, item.ID+".json")); err != nil && !errors.Is(err, os.ErrNotExist) {
				errs = append(errs, err)
				continue
			}
			removed = append(removed, item.ID)
		}
	}
	return removed, errors.Join(errs...)
}

// CountByStage tallies active items per stage.
func (s *Store) CountByStage() (map[types.Stage]int, error) {
	items, errs := s.List()
	counts := make(map[types.Stage]int, len(types.Stages))
	for _, item := range items {
		counts[item.Stage]++
	}
	return counts, errors.Join(errs...)
}

func listDir(dir string) ([]*types.WorkItem, []error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, []error{fmt.Errorf("reading %s: %w", dir, err)}
	}

	var items []*types.WorkItem
	var errs []error
	for _, e := range entries {
		if e.IsDir() || filepath.Ext(e.Name()) != ".json" || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		item, err := readJSON(filepath.Join(dir, e.Name()))
		if err != nil {
			errs = append(errs, err)
			continue
		}
		items = append(items, item)
	}

	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].CreatedAt.Equal(items[j].CreatedAt) {
			return items[i].CreatedAt.Before(items[j].CreatedAt)
		}
		return items[i].ID < items[j].ID
	})
	return items, errs
}

func readJSON(path string) (*types.WorkItem, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var item types.WorkItem
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	if item.ID == "" {
		item.ID = strings.TrimSuffix(filepath.Base(path), ".json")
	}
	if item.Stage == "" {
		item.Stage = types.StageIngested
	}
	return &item, nil
}

func writeJSON(path string, item *types.WorkItem) error {
	data, err := json.MarshalIndent(item, "", "  ")
	if err != nil {
		return err
	}
	_, err = common.WriteFileAtomic(path, strings.NewReader(string(data)+"\n"))
	return err
}
