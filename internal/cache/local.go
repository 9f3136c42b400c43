package cache

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Local stores each entry as a file under a base directory.
//
// Keys are sharded by their first two characters to keep directories small:
// key "0a1b2c.jpg" is stored at <base>/0a/0a1b2c.jpg.
type Local struct {
	basePath string
}

// NewLocal creates a file system cache rooted at basePath. The directory is
// created on first write.
func NewLocal(basePath string) *Local {
	return &Local{basePath: basePath}
}

func (l *Local) path(key string) string {
	shard := key
	if len(shard) > 2 {
		shard = shard[:2]
	}
	return filepath.Join(l.basePath, shard, filepath.Base(key))
}

// Contains reports whether a file exists for key.
func (l *Local) Contains(key string) (bool, error) {
	_, err := os.Stat(l.path(key))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// Get reads the file stored for key.
func (l *Local) Get(key string) ([]byte, error) {
	data, err := os.ReadFile(l.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, ErrMiss
	}
	return data, err
}

// Set writes data for key. The file is written to a temporary name and
// renamed so readers never see a partial image.
func (l *Local) Set(key string, data []byte) error {
	fullPath := l.path(key)

	// Ensure directory exists
	dir := filepath.Dir(fullPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0644); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), fullPath)
}

// Delete removes the file for key. Deleting a missing key is not an error.
func (l *Local) Delete(key string) error {
	err := os.Remove(l.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return err
}

// Prune removes cached files last modified more than maxAge ago.
func (l *Local) Prune(maxAge time.Duration) (int, error) {
	cutoff := time.Now().Add(-maxAge)
	removed := 0

	err := filepath.WalkDir(l.basePath, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.ModTime().Before(cutoff) {
			if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}
			removed++
		}
		return nil
	})
	return removed, err
}
