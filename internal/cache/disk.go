package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// DiskStore persists one JSON file per entry under <dir>/<provider>/<hash>.json.
// Writes go through a temp file and rename, so concurrent writers for the
// same key settle on the last complete write instead of interleaving.
type DiskStore struct {
	dir string
	now func() time.Time
}

func NewDiskStore(dir string) (*DiskStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache dir %s: %w", dir, err)
	}
	return &DiskStore{dir: dir, now: time.Now}, nil
}

func (s *DiskStore) path(key string) string {
	provider, hash := splitKey(key)
	if provider == "" {
		provider = "_default"
	}
	return filepath.Join(s.dir, provider, hash+".json")
}

func (s *DiskStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	data, err := os.ReadFile(s.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("read cache entry %s: %w", key, err)
	}

	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return nil, false, fmt.Errorf("decode cache entry %s: %w", key, err)
	}

	if e.Expired(s.now()) {
		// Logical deletion: drop the stale file, report a miss.
		_ = os.Remove(s.path(key))
		return nil, false, nil
	}
	return e.Payload, true, nil
}

func (s *DiskStore) Set(ctx context.Context, e Entry) error {
	if e.CachedAt.IsZero() {
		e.CachedAt = s.now()
	}

	path := s.path(e.Key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("cache provider dir: %w", err)
	}

	data, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode cache entry %s: %w", e.Key, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".entry-*")
	if err != nil {
		return fmt.Errorf("write cache entry %s: %w", e.Key, err)
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return fmt.Errorf("write cache entry %s: %w", e.Key, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write cache entry %s: %w", e.Key, err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		os.Remove(tmp.Name())
		return fmt.Errorf("write cache entry %s: %w", e.Key, err)
	}
	return nil
}

func (s *DiskStore) Clear(ctx context.Context, provider string) (int, error) {
	if provider != "" {
		return s.clearDir(filepath.Join(s.dir, provider))
	}

	dirs, err := os.ReadDir(s.dir)
	if err != nil {
		return 0, fmt.Errorf("list cache dir: %w", err)
	}

	total := 0
	for _, d := range dirs {
		if !d.IsDir() {
			continue
		}
		n, err := s.clearDir(filepath.Join(s.dir, d.Name()))
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (s *DiskStore) clearDir(dir string) (int, error) {
	files, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return 0, nil
		}
		return 0, fmt.Errorf("list cache dir %s: %w", dir, err)
	}

	removed := 0
	for _, f := range files {
		if f.IsDir() || filepath.Ext(f.Name()) != ".json" {
			continue
		}
		if err := os.Remove(filepath.Join(dir, f.Name())); err != nil {
			return removed, fmt.Errorf("remove cache entry: %w", err)
		}
		removed++
	}
	return removed, nil
}
