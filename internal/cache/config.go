package cache

import (
	"fmt"
	"strconv"
	"time"
)

// Backend names accepted by Config.Backend.
const (
	BackendNone   = "none"
	BackendMemory = "memory"
	BackendLocal  = "local"
	BackendS3     = "s3"
	BackendSFTP   = "sftp"
)

// DefaultMaxAge is how long the Janitor keeps entries when MaxAge is unset.
const DefaultMaxAge = 30 * 24 * time.Hour

// Config selects and configures a cache backend.
type Config struct {
	Backend   string     `yaml:"backend" toml:"backend"`
	LocalPath string     `yaml:"local_path" toml:"local_path"`
	S3        S3Config   `yaml:"s3" toml:"s3"`
	SFTP      SFTPConfig `yaml:"sftp" toml:"sftp"`

	// MaxAge is a duration string ("720h"). Entries older than this are
	// removed by the Janitor.
	MaxAge string `yaml:"max_age" toml:"max_age"`

	// PruneSchedule is a cron expression. Empty disables the Janitor.
	PruneSchedule string `yaml:"prune_schedule" toml:"prune_schedule"`
}

// DefaultConfig returns an in-memory cache configuration.
func DefaultConfig() Config {
	return Config{
		Backend: BackendMemory,
		SFTP:    SFTPConfig{Port: 22},
		MaxAge:  DefaultMaxAge.String(),
	}
}

// ApplyEnv overrides fields for which getenv returns a non-empty value.
func (c *Config) ApplyEnv(getenv func(string) string) error {
	set := func(dst *string, key string) {
		if v := getenv(key); v != "" {
			*dst = v
		}
	}

	set(&c.Backend, "IMAGEFIT_CACHE_BACKEND")
	set(&c.LocalPath, "IMAGEFIT_CACHE_LOCAL_PATH")
	set(&c.MaxAge, "IMAGEFIT_CACHE_MAX_AGE")
	set(&c.PruneSchedule, "IMAGEFIT_CACHE_PRUNE_SCHEDULE")

	set(&c.S3.Bucket, "IMAGEFIT_CACHE_S3_BUCKET")
	set(&c.S3.Region, "IMAGEFIT_CACHE_S3_REGION")
	set(&c.S3.Endpoint, "IMAGEFIT_CACHE_S3_ENDPOINT")
	set(&c.S3.BasePath, "IMAGEFIT_CACHE_S3_BASE_PATH")

	set(&c.SFTP.Host, "IMAGEFIT_CACHE_SFTP_HOST")
	if portStr := getenv("IMAGEFIT_CACHE_SFTP_PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return fmt.Errorf("invalid SFTP port: %w", err)
		}
		c.SFTP.Port = port
	}
	set(&c.SFTP.Username, "IMAGEFIT_CACHE_SFTP_USERNAME")
	set(&c.SFTP.Password, "IMAGEFIT_CACHE_SFTP_PASSWORD")
	set(&c.SFTP.KeyFile, "IMAGEFIT_CACHE_SFTP_KEY_FILE")
	set(&c.SFTP.HostKey, "IMAGEFIT_CACHE_SFTP_HOST_KEY")
	set(&c.SFTP.BasePath, "IMAGEFIT_CACHE_SFTP_BASE_PATH")

	return nil
}

// MaxAgeDuration parses MaxAge, falling back to DefaultMaxAge when unset.
func (c *Config) MaxAgeDuration() (time.Duration, error) {
	if c.MaxAge == "" {
		return DefaultMaxAge, nil
	}
	d, err := time.ParseDuration(c.MaxAge)
	if err != nil {
		return 0, fmt.Errorf("invalid cache max age %q: %w", c.MaxAge, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("cache max age must be positive, got %s", d)
	}
	return d, nil
}

// Validate validates the cache configuration.
func (c *Config) Validate() error {
	switch c.Backend {
	case "", BackendNone, BackendMemory:
	case BackendLocal:
		if c.LocalPath == "" {
			return fmt.Errorf("local path is required for local backend")
		}
	case BackendSFTP:
		if c.SFTP.Host == "" {
			return fmt.Errorf("SFTP host is required")
		}
		if c.SFTP.Username == "" {
			return fmt.Errorf("SFTP username is required")
		}
		if c.SFTP.Password == "" && c.SFTP.KeyFile == "" {
			return fmt.Errorf("either SFTP password or key file is required")
		}
	case BackendS3:
		if c.S3.Bucket == "" {
			return fmt.Errorf("S3 bucket is required")
		}
		if c.S3.Region == "" {
			return fmt.Errorf("S3 region is required")
		}
	default:
		return fmt.Errorf("unsupported cache backend type: %s", c.Backend)
	}

	if _, err := c.MaxAgeDuration(); err != nil {
		return err
	}
	return nil
}

// New creates the backend described by cfg. It returns a nil Cache for
// BackendNone; callers render without caching in that case.
func New(cfg Config) (Cache, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	switch cfg.Backend {
	case BackendNone:
		return nil, nil
	case "", BackendMemory:
		return NewMemory(), nil
	case BackendLocal:
		return NewLocal(cfg.LocalPath), nil
	case BackendS3:
		s3Cache, err := NewS3(cfg.S3)
		if err != nil {
			return nil, err
		}
		return s3Cache, nil
	case BackendSFTP:
		sftpCache, err := NewSFTP(cfg.SFTP)
		if err != nil {
			return nil, err
		}
		return sftpCache, nil
	default:
		return nil, fmt.Errorf("unsupported cache backend type: %s", cfg.Backend)
	}
}
