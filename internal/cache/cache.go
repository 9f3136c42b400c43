package cache

import (
	"errors"
	"fmt"
	"time"

	"github.com/cespare/xxhash/v2"
)

// ErrMiss is returned by Get when the key is not cached.
var ErrMiss = errors.New("cache miss")

// Cache is the key/value store rendered images are written through to.
type Cache interface {
	// Contains reports whether key is cached.
	Contains(key string) (bool, error)

	// Get returns the cached bytes for key, or ErrMiss.
	Get(key string) ([]byte, error)

	// Set stores data under key, replacing any previous value.
	Set(key string, data []byte) error
}

// Deleter is implemented by caches that can remove single entries.
type Deleter interface {
	Delete(key string) error
}

// Pruner is implemented by caches that can drop entries older than a
// given age. It returns the number of entries removed.
type Pruner interface {
	Prune(maxAge time.Duration) (int, error)
}

// Key derives the cache key for a rendered image from the requested path and
// the size specification. The same inputs always give the same key. The
// extension (including the dot) is appended so file-based backends keep a
// recognisable suffix.
func Key(path, spec, ext string) string {
	sum := xxhash.Sum64String(path + "\x00" + spec)
	return fmt.Sprintf("%016x%s", sum, ext)
}
