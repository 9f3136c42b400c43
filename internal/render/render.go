package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/ironsheep/imagefit/internal/cache"
	"github.com/ironsheep/imagefit/internal/imaging"
	"github.com/ironsheep/imagefit/internal/preset"
)

var (
	// ErrInvalidSpec is returned when the size argument is neither a preset
	// name nor a parsable specification.
	ErrInvalidSpec = errors.New("invalid size specification")

	// ErrNotFound is returned for unknown roots, missing files and paths
	// that leave their root directory.
	ErrNotFound = errors.New("image not found")
)

// Options configures a Renderer.
type Options struct {
	Resolver *preset.Resolver

	// Cache receives rendered images. Nil disables caching.
	Cache cache.Cache

	// Roots maps a root name to a directory. The entry with the empty name
	// is used for names that are not listed.
	Roots map[string]string

	ExtToFormat   map[string]string
	DefaultFormat string
	Quality       int

	Metrics *Metrics
	Logger  hclog.Logger
}

// Rendition is a rendered image ready to be served.
type Rendition struct {
	Data        []byte
	Format      string
	ContentType string
	Key         string
	// ModTime is the modification time of the source file.
	ModTime time.Time
	Width   int
	Height  int
	// Cached reports whether Data came from the cache.
	Cached bool
}

// Renderer resolves, fits, encodes and caches images.
//
// Renderer is safe for concurrent use. Apart from the cache backend its only
// shared state is the index of cache keys per source file, used by
// Invalidate.
type Renderer struct {
	resolver      *preset.Resolver
	cache         cache.Cache
	roots         map[string]string
	extToFormat   map[string]string
	defaultFormat string
	quality       int
	metrics       *Metrics
	logger        hclog.Logger

	mu    sync.Mutex
	index map[string]map[string]struct{}
}

// New creates a Renderer from opts.
func New(opts Options) *Renderer {
	if opts.Logger == nil {
		opts.Logger = hclog.NewNullLogger()
	}
	if opts.Resolver == nil {
		opts.Resolver = preset.NewResolver(nil)
	}
	if opts.DefaultFormat == "" {
		opts.DefaultFormat = "jpeg"
	}
	if opts.ExtToFormat == nil {
		opts.ExtToFormat = imaging.DefaultExtToFormat
	}
	if opts.Quality == 0 {
		opts.Quality = imaging.DefaultQuality
	}

	roots := make(map[string]string, len(opts.Roots))
	for name, dir := range opts.Roots {
		roots[name] = filepath.Clean(dir)
	}

	return &Renderer{
		resolver:      opts.Resolver,
		cache:         opts.Cache,
		roots:         roots,
		extToFormat:   opts.ExtToFormat,
		defaultFormat: opts.DefaultFormat,
		quality:       opts.Quality,
		metrics:       opts.Metrics,
		logger:        opts.Logger.Named("render"),
		index:         make(map[string]map[string]struct{}),
	}
}

// Resolver returns the preset resolver used for size arguments.
func (r *Renderer) Resolver() *preset.Resolver {
	return r.resolver
}

// RootDirs returns the configured root directories, sorted and without
// duplicates.
func (r *Renderer) RootDirs() []string {
	seen := make(map[string]bool, len(r.roots))
	dirs := make([]string, 0, len(r.roots))
	for _, dir := range r.roots {
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	sort.Strings(dirs)
	return dirs
}

// SourcePath maps a root name and a request path to a file on disk.
func (r *Renderer) SourcePath(root, path string) (string, error) {
	_, full, err := r.sourcePath(root, path)
	return full, err
}

// sourcePath also returns the root name that was used, which is "" when an
// unknown root fell back to the unnamed one.
func (r *Renderer) sourcePath(root, path string) (string, string, error) {
	used := root
	dir, ok := r.roots[used]
	if !ok {
		used = ""
		dir, ok = r.roots[used]
	}
	if !ok {
		return "", "", fmt.Errorf("%w: unknown root %q", ErrNotFound, root)
	}

	rel := filepath.Clean(filepath.FromSlash(strings.TrimLeft(path, "/")))
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) || filepath.IsAbs(rel) {
		return "", "", fmt.Errorf("%w: %q is outside the root", ErrNotFound, path)
	}
	return used, filepath.Join(dir, rel), nil
}

// Render produces the image at path under root fitted to spec, which is a
// preset name or a size specification such as "200x100,C".
//
// Cached output is returned when available. Cache failures are logged and
// never fail the render.
func (r *Renderer) Render(root, path, spec string) (*Rendition, error) {
	used, full, err := r.sourcePath(root, path)
	if err != nil {
		r.metrics.failed("not_found")
		return nil, err
	}

	info, err := os.Stat(full)
	if err != nil || info.IsDir() {
		r.metrics.failed("not_found")
		if err == nil {
			err = errors.New("is a directory")
		}
		return nil, fmt.Errorf("%w: %s: %v", ErrNotFound, path, err)
	}

	format := imaging.FormatForPath(path, r.extToFormat, r.defaultFormat)
	key := cache.Key(used+":"+filepath.ToSlash(full), spec, imaging.FormatExt(format))
	log := r.logger.With("path", path, "spec", spec, "key", key)

	if rend := r.lookup(key, log); rend != nil {
		rend.Format = format
		rend.ContentType = imaging.FormatMIMEType(format)
		rend.ModTime = info.ModTime()
		r.remember(full, key)
		return rend, nil
	}

	d, ok := r.resolver.Resolve(spec)
	if !ok {
		r.metrics.failed("invalid_spec")
		return nil, fmt.Errorf("%w: %q", ErrInvalidSpec, spec)
	}
	if err := d.Validate(); err != nil {
		r.metrics.failed("invalid_directive")
		return nil, fmt.Errorf("size %q: %w", spec, err)
	}

	start := time.Now()
	src, err := imaging.Load(full)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			r.metrics.failed("not_found")
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		r.metrics.failed("decode")
		return nil, err
	}

	out, err := imaging.Apply(src, d)
	if err != nil {
		r.metrics.failed("invalid_directive")
		return nil, fmt.Errorf("size %q: %w", spec, err)
	}

	data, err := imaging.EncodeBytes(out, format, r.quality)
	if err != nil {
		r.metrics.failed("encode")
		return nil, err
	}
	r.metrics.rendered(d.Strategy().String(), format, time.Since(start).Seconds())
	log.Debug("rendered", "strategy", d.Strategy(), "width", out.Bounds().Dx(), "height", out.Bounds().Dy(), "bytes", len(data))

	r.store(key, data, log)
	r.remember(full, key)

	return &Rendition{
		Data:        data,
		Format:      format,
		ContentType: imaging.FormatMIMEType(format),
		Key:         key,
		ModTime:     src.ModTime,
		Width:       out.Bounds().Dx(),
		Height:      out.Bounds().Dy(),
	}, nil
}

// lookup returns the cached rendition for key, or nil on a miss or error.
func (r *Renderer) lookup(key string, log hclog.Logger) *Rendition {
	if r.cache == nil {
		return nil
	}

	ok, err := r.cache.Contains(key)
	if err != nil {
		r.metrics.cacheResult("error")
		log.Warn("cache lookup failed", "error", err)
		return nil
	}
	if !ok {
		r.metrics.cacheResult("miss")
		return nil
	}

	data, err := r.cache.Get(key)
	if err != nil {
		if errors.Is(err, cache.ErrMiss) {
			r.metrics.cacheResult("miss")
		} else {
			r.metrics.cacheResult("error")
			log.Warn("cache read failed", "error", err)
		}
		return nil
	}
	r.metrics.cacheResult("hit")

	rend := &Rendition{Data: data, Key: key, Cached: true}
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		rend.Width, rend.Height = cfg.Width, cfg.Height
	}
	return rend
}

func (r *Renderer) store(key string, data []byte, log hclog.Logger) {
	if r.cache == nil {
		return
	}
	if err := r.cache.Set(key, data); err != nil {
		r.metrics.cacheResult("write_error")
		log.Warn("cache write failed", "error", err)
	}
}

func (r *Renderer) remember(source, key string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	keys, ok := r.index[source]
	if !ok {
		keys = make(map[string]struct{})
		r.index[source] = keys
	}
	keys[key] = struct{}{}
}

// Invalidate drops every cached rendition produced from the source file at
// path during this process's lifetime, and returns how many were removed.
// It is a no-op for caches that do not implement cache.Deleter.
//
// TODO: keys written by an earlier process are not indexed, so persistent
// backends keep them until the Janitor prunes them.
func (r *Renderer) Invalidate(path string) int {
	source := filepath.Clean(path)

	r.mu.Lock()
	keys := r.index[source]
	delete(r.index, source)
	r.mu.Unlock()

	deleter, ok := r.cache.(cache.Deleter)
	if !ok || len(keys) == 0 {
		return 0
	}

	removed := 0
	for key := range keys {
		if err := deleter.Delete(key); err != nil {
			r.logger.Warn("cache delete failed", "source", source, "key", key, "error", err)
			continue
		}
		removed++
	}
	r.logger.Debug("invalidated", "source", source, "removed", removed)
	return removed
}
