package caching

import (
	"crypto/sha256"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

const fileSuffix = ".json"

// Cache stores API response bodies on disk, one file per source URL,
// and treats entries older than ttl as missing.
type Cache struct {
	dir string
	ttl time.Duration
	now func() time.Time
}

// NewCache creates dir if needed and returns a cache rooted there.
func NewCache(dir string, ttl time.Duration) (*Cache, error) {
	if dir == "" {
		return nil, errors.New("cache directory is empty")
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}
	return &Cache{dir: dir, ttl: ttl, now: time.Now}, nil
}

// DefaultDir returns the per-user cache location.
func DefaultDir() (string, error) {
	base, err := os.UserCacheDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user cache dir: %w", err)
	}
	return filepath.Join(base, "wordcount-report"), nil
}

// Dir returns the cache root.
func (c *Cache) Dir() string {
	return c.dir
}

func (c *Cache) path(url string) string {
	return filepath.Join(c.dir, fmt.Sprintf("%x%s", sha256.Sum256([]byte(url)), fileSuffix))
}

// Get returns the cached body for url when present and fresh.
func (c *Cache) Get(url string) ([]byte, bool) {
	p := c.path(url)

	info, err := os.Stat(p)
	if err != nil {
		return nil, false
	}
	if c.ttl > 0 && c.now().Sub(info.ModTime()) > c.ttl {
		return nil, false
	}

	data, err := os.ReadFile(p)
	if err != nil {
		return nil, false
	}
	return data, true
}

// Set writes body for url, replacing any previous entry.
func (c *Cache) Set(url string, body []byte) error {
	tmp, err := os.CreateTemp(c.dir, "partial-*")
	if err != nil {
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	if _, err := tmp.Write(body); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	if err := os.Rename(tmp.Name(), c.path(url)); err != nil {
		_ = os.Remove(tmp.Name())
		return fmt.Errorf("failed to write to cache: %w", err)
	}
	return nil
}

// Purge removes every cached body and reports how many were deleted.
func (c *Cache) Purge() (int, error) {
	matches, err := filepath.Glob(filepath.Join(c.dir, "*"+fileSuffix))
	if err != nil {
		return 0, fmt.Errorf("failed to list cache: %w", err)
	}
	removed := 0
	for _, m := range matches {
		if err := os.Remove(m); err != nil && !os.IsNotExist(err) {
			return removed, fmt.Errorf("failed to remove %s: %w", m, err)
		}
		removed++
	}
	return removed, nil
}
