package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

const cacheFileExtension = ".json"

// FileStore is a Cache persisted as one JSON file per key, so repeated CLI
// runs share lookups.
type FileStore struct {
	dir string
	ttl time.Duration
	now func() time.Time
	mu  sync.RWMutex
}

var _ Cache = (*FileStore)(nil)

// NewFileStore creates dir if needed and returns a FileStore in it.
func NewFileStore(dir string, ttl time.Duration) (*FileStore, error) {
	if strings.TrimSpace(dir) == "" {
		return nil, errors.New("cache directory cannot be empty")
	}
	if err := ValidateTTL(ttl); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating cache directory: %w", err)
	}
	return &FileStore{dir: dir, ttl: ttl, now: time.Now}, nil
}

// Dir returns the cache directory.
func (s *FileStore) Dir() string {
	return s.dir
}

// Get implements Cache. Expired files are removed.
func (s *FileStore) Get(_ context.Context, key string) ([]byte, error) {
	if key == "" {
		return nil, ErrInvalidCacheKey
	}
	path := s.path(key)

	s.mu.RLock()
	e, err := readEntry(path)
	s.mu.RUnlock()
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrCacheUnavailable, err)
	}

	if e.Expired(s.now()) {
		s.mu.Lock()
		_ = os.Remove(path)
		s.mu.Unlock()
		return nil, ErrCacheMiss
	}
	return e.Data, nil
}

// Set implements Cache. The file is written to a temporary name and renamed.
func (s *FileStore) Set(_ context.Context, key string, value []byte) error {
	if key == "" {
		return ErrInvalidCacheKey
	}
	if !json.Valid(value) {
		return fmt.Errorf("%w: file cache values must be JSON", ErrCacheUnavailable)
	}
	data, err := json.Marshal(NewEntry(key, value, s.now(), s.ttl))
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	path := s.path(key)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("%w: %w", ErrCacheUnavailable, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("%w: %w", ErrCacheUnavailable, err)
	}
	return nil
}

// Has implements Cache.
func (s *FileStore) Has(ctx context.Context, key string) (bool, error) {
	_, err := s.Get(ctx, key)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, ErrCacheMiss):
		return false, nil
	default:
		return false, err
	}
}

// CleanupExpired removes expired and unreadable entries and returns how
// many files it removed.
func (s *FileStore) CleanupExpired() (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	files, err := s.files()
	if err != nil {
		return 0, err
	}
	now := s.now()
	removed := 0
	for _, path := range files {
		e, err := readEntry(path)
		if err == nil && !e.Expired(now) {
			continue
		}
		if os.Remove(path) == nil {
			removed++
		}
	}
	return removed, nil
}

// Clear removes every entry.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	files, err := s.files()
	if err != nil {
		return err
	}
	for _, path := range files {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("removing %s: %w", filepath.Base(path), err)
		}
	}
	return nil
}

// Count returns the number of entry files, expired ones included.
func (s *FileStore) Count() (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	files, err := s.files()
	return len(files), err
}

func (s *FileStore) files() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("reading cache directory: %w", err)
	}
	var out []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == cacheFileExtension {
			out = append(out, filepath.Join(s.dir, e.Name()))
		}
	}
	return out, nil
}

// path hashes the key so any key is a safe file name.
func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, HashKey(key)+cacheFileExtension)
}

func readEntry(path string) (Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Entry{}, err
	}
	var e Entry
	if err := json.Unmarshal(data, &e); err != nil {
		return Entry{}, fmt.Errorf("decoding %s: %w", filepath.Base(path), err)
	}
	return e, nil
}
