package cache

import (
	"context"
	"encoding/json"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// FileCache keeps one JSON file per entry, sharded into subdirectories by
// the first two hex characters of the key hash.
type FileCache struct {
	dir string
}

// NewFileCache creates a file cache in dir, creating the directory if needed.
func NewFileCache(dir string) (*FileCache, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &FileCache{dir: dir}, nil
}

// Dir returns the cache directory.
func (c *FileCache) Dir() string { return c.dir }

type fileEntry struct {
	Key       string    `json:"key"`
	Data      []byte    `json:"data"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at,omitempty"`
}

func (c *FileCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	path := c.path(key)
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	var e fileEntry
	if err := json.Unmarshal(data, &e); err != nil || e.Key != key {
		_ = os.Remove(path)
		return nil, false, nil
	}
	if !e.ExpiresAt.IsZero() && time.Now().After(e.ExpiresAt) {
		_ = os.Remove(path)
		return nil, false, nil
	}
	return e.Data, true, nil
}

func (c *FileCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	now := time.Now()
	e := fileEntry{Key: key, Data: data, CreatedAt: now}
	if ttl > 0 {
		e.ExpiresAt = now.Add(ttl)
	}
	raw, err := json.Marshal(e)
	if err != nil {
		return err
	}

	path := c.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	// readers never see a partial entry
	tmp, err := os.CreateTemp(filepath.Dir(path), ".entry-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}

func (c *FileCache) Delete(ctx context.Context, key string) error {
	err := os.Remove(c.path(key))
	if os.IsNotExist(err) {
		return nil
	}
	return err
}

// Clear removes the entries and leftover temp files the cache wrote. Shard
// directories are removed once empty; anything else in the directory is
// left alone.
func (c *FileCache) Clear(ctx context.Context) error {
	return c.walk(func(shard string, files []fs.DirEntry) error {
		for _, f := range files {
			if f.IsDir() || !(isEntry(f.Name()) || isTemp(f.Name())) {
				continue
			}
			if err := os.Remove(filepath.Join(shard, f.Name())); err != nil && !os.IsNotExist(err) {
				return err
			}
		}
		// fails while foreign files remain
		_ = os.Remove(shard)
		return nil
	})
}

// Stats reports the number of entries and their total size in bytes.
func (c *FileCache) Stats() (entries int, size int64, err error) {
	err = c.walk(func(shard string, files []fs.DirEntry) error {
		for _, f := range files {
			if f.IsDir() || !isEntry(f.Name()) {
				continue
			}
			info, err := f.Info()
			if err != nil {
				return err
			}
			entries++
			size += info.Size()
		}
		return nil
	})
	return entries, size, err
}

// walk calls fn for every shard directory with its contents.
func (c *FileCache) walk(fn func(shard string, files []fs.DirEntry) error) error {
	top, err := os.ReadDir(c.dir)
	if err != nil {
		return err
	}
	for _, d := range top {
		if !d.IsDir() || !isShard(d.Name()) {
			continue
		}
		shard := filepath.Join(c.dir, d.Name())
		files, err := os.ReadDir(shard)
		if err != nil {
			return err
		}
		if err := fn(shard, files); err != nil {
			return err
		}
	}
	return nil
}

func isShard(name string) bool {
	return len(name) == 2 && isHex(name)
}

func isEntry(name string) bool {
	base, ok := strings.CutSuffix(name, ".json")
	return ok && len(base) == 62 && isHex(base)
}

func isTemp(name string) bool {
	return strings.HasPrefix(name, ".entry-")
}

func isHex(s string) bool {
	for _, r := range s {
		if !('0' <= r && r <= '9' || 'a' <= r && r <= 'f') {
			return false
		}
	}
	return true
}

func (c *FileCache) Close() error { return nil }

func (c *FileCache) path(key string) string {
	hash := Hash([]byte(key))
	return filepath.Join(c.dir, hash[:2], hash[2:]+".json")
}

var _ Cache = (*FileCache)(nil)
