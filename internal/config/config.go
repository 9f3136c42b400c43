package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/ironsheep/imagefit/internal/cache"
	"github.com/ironsheep/imagefit/internal/imaging"
	"github.com/ironsheep/imagefit/internal/preset"
)

// Defaults applied by Default and kept when a file leaves a field unset.
const (
	DefaultListen        = ":8080"
	DefaultPrefix        = "/image"
	DefaultLogLevel      = "info"
	DefaultFormat        = "jpeg"
	DefaultExpireSeconds = 60 * 60 * 24 * 30
)

// Config represents the application configuration.
type Config struct {
	Listen   string `yaml:"listen" toml:"listen"`
	Prefix   string `yaml:"prefix" toml:"prefix"`
	LogLevel string `yaml:"log_level" toml:"log_level"`

	// Root is the directory used when a request names no configured root.
	Root string `yaml:"root" toml:"root"`
	// Roots maps the path name segment of a request to a directory.
	Roots map[string]string `yaml:"roots" toml:"roots"`

	// Presets are decoded separately for TOML, see loadTOML.
	Presets map[string]preset.Entry `yaml:"presets" toml:"-"`

	ExtToFormat   map[string]string `yaml:"ext_to_format" toml:"ext_to_format"`
	DefaultFormat string            `yaml:"default_format" toml:"default_format"`
	Quality       int               `yaml:"quality" toml:"quality"`

	// ExpireSeconds sets the Expires and Cache-Control headers of responses.
	ExpireSeconds int `yaml:"expire_seconds" toml:"expire_seconds"`

	Cache cache.Config `yaml:"cache" toml:"cache"`

	// Watch invalidates cached renditions when source files change.
	Watch bool `yaml:"watch" toml:"watch"`
}

// Default returns a configuration with every default applied.
func Default() *Config {
	return &Config{
		Listen:        DefaultListen,
		Prefix:        DefaultPrefix,
		LogLevel:      DefaultLogLevel,
		Roots:         map[string]string{},
		Presets:       map[string]preset.Entry{},
		ExtToFormat:   copyFormats(imaging.DefaultExtToFormat),
		DefaultFormat: DefaultFormat,
		Quality:       imaging.DefaultQuality,
		ExpireSeconds: DefaultExpireSeconds,
		Cache:         cache.DefaultConfig(),
	}
}

// Load reads and parses the configuration file. Files ending in .toml are
// decoded as TOML, everything else as YAML. An empty path yields the
// defaults. Environment overrides are applied after the file and the result
// is validated.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}

		if strings.EqualFold(filepath.Ext(path), ".toml") {
			err = loadTOML(data, cfg)
		} else {
			err = yaml.Unmarshal(data, cfg)
		}
		if err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	if err := cfg.ApplyEnv(os.Getenv); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// loadTOML decodes data into cfg. Presets may be strings or inline tables,
// so they are decoded generically and converted entry by entry.
func loadTOML(data []byte, cfg *Config) error {
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return err
	}

	var raw struct {
		Presets map[string]interface{} `toml:"presets"`
	}
	if _, err := toml.Decode(string(data), &raw); err != nil {
		return err
	}
	for name, v := range raw.Presets {
		var e preset.Entry
		if err := e.UnmarshalTOML(v); err != nil {
			return fmt.Errorf("preset %q: %w", name, err)
		}
		cfg.Presets[name] = e
	}
	return nil
}

// ApplyEnv overrides settings from IMAGEFIT_* environment variables.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	if v := getenv("IMAGEFIT_LISTEN"); v != "" {
		c.Listen = v
	}
	if v := getenv("IMAGEFIT_PREFIX"); v != "" {
		c.Prefix = v
	}
	if v := getenv("IMAGEFIT_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := getenv("IMAGEFIT_ROOT"); v != "" {
		c.Root = v
	}
	if v := getenv("IMAGEFIT_DEFAULT_FORMAT"); v != "" {
		c.DefaultFormat = v
	}
	if v := getenv("IMAGEFIT_QUALITY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid IMAGEFIT_QUALITY: %w", err)
		}
		c.Quality = n
	}
	if v := getenv("IMAGEFIT_EXPIRE_HEADER"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("invalid IMAGEFIT_EXPIRE_HEADER: %w", err)
		}
		c.ExpireSeconds = n
	}
	if v := getenv("IMAGEFIT_WATCH"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid IMAGEFIT_WATCH: %w", err)
		}
		c.Watch = b
	}
	return c.Cache.ApplyEnv(getenv)
}

// Validate checks the configuration for values the server cannot run with.
func (c *Config) Validate() error {
	if !strings.HasPrefix(c.Prefix, "/") {
		return fmt.Errorf("prefix must start with '/', got %q", c.Prefix)
	}
	if !imaging.SupportedFormat(c.DefaultFormat) {
		return fmt.Errorf("unsupported default_format %q", c.DefaultFormat)
	}
	for ext, format := range c.ExtToFormat {
		if !strings.HasPrefix(ext, ".") {
			return fmt.Errorf("ext_to_format key %q must start with '.'", ext)
		}
		if !imaging.SupportedFormat(format) {
			return fmt.Errorf("ext_to_format %q: unsupported format %q", ext, format)
		}
	}
	if c.Quality < 1 || c.Quality > 100 {
		return fmt.Errorf("quality must be between 1 and 100, got %d", c.Quality)
	}
	if c.ExpireSeconds < 0 {
		return fmt.Errorf("expire_seconds must not be negative, got %d", c.ExpireSeconds)
	}
	for name, dir := range c.Roots {
		if dir == "" {
			return fmt.Errorf("root %q has an empty directory", name)
		}
	}
	if _, err := c.PresetTable(); err != nil {
		return err
	}
	if err := c.Cache.Validate(); err != nil {
		return fmt.Errorf("cache: %w", err)
	}
	return nil
}

// PresetTable resolves the configured presets into a lookup table.
func (c *Config) PresetTable() (preset.Table, error) {
	return preset.NewTable(c.Presets)
}

// RootDirs returns the named roots with the unnamed Root stored under the
// empty name, as the renderer expects.
func (c *Config) RootDirs() map[string]string {
	dirs := make(map[string]string, len(c.Roots)+1)
	for name, dir := range c.Roots {
		dirs[name] = dir
	}
	if c.Root != "" {
		dirs[""] = c.Root
	}
	return dirs
}

func copyFormats(src map[string]string) map[string]string {
	dst := make(map[string]string, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
