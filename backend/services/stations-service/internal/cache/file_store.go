package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"evmap/backend/services/stations-service/internal/models"
)

// FileStore keeps one JSON file per vendor (teamEnergy.json, evanCharge.json).
type FileStore struct {
	dir string
	mu  sync.RWMutex
}

// NewFileStore creates dir when missing.
func NewFileStore(dir string) (*FileStore, error) {
	if dir == "" {
		return nil, errors.New("cache: empty data dir")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cache: create data dir: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

// Path returns the file backing a vendor.
func (s *FileStore) Path(vendor models.Brand) string {
	return filepath.Join(s.dir, vendor.Key()+".json")
}

// Load reads the vendor file; its modification time is the entry timestamp.
func (s *FileStore) Load(_ context.Context, vendor models.Brand) (Entry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	path := s.Path(vendor)
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Entry{}, ErrNotFound
		}
		return Entry{}, fmt.Errorf("cache: read %s: %w", path, err)
	}
	info, err := os.Stat(path)
	if err != nil {
		return Entry{}, fmt.Errorf("cache: stat %s: %w", path, err)
	}
	return Entry{Vendor: vendor, Raw: raw, UpdatedAt: info.ModTime().UTC()}, nil
}

// Save writes the payload to a temp file in the same directory and renames it
// over the previous file.
func (s *FileStore) Save(_ context.Context, vendor models.Brand, raw []byte, at time.Time) error {
	var pretty bytes.Buffer
	if err := json.Indent(&pretty, raw, "", "  "); err != nil {
		return fmt.Errorf("cache: payload is not JSON: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	path := s.Path(vendor)
	tmp, err := os.CreateTemp(s.dir, "."+vendor.Key()+"-*.json")
	if err != nil {
		return fmt.Errorf("cache: create temp file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := tmp.Write(pretty.Bytes()); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("cache: write temp file: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		cleanup()
		return fmt.Errorf("cache: sync temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return fmt.Errorf("cache: close temp file: %w", err)
	}
	if !at.IsZero() {
		_ = os.Chtimes(tmpName, at, at)
	}
	if err := os.Rename(tmpName, path); err != nil {
		cleanup()
		return fmt.Errorf("cache: replace %s: %w", path, err)
	}
	return nil
}
