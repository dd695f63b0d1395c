package config

import (
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// CMSConfig holds the connection settings for the church-management CMS
// whose schedules this engine resolves.
type CMSConfig struct {
	// BaseURL is the CMS REST API root, e.g. "https://rock.example.org/api".
	BaseURL string `yaml:"base_url" json:"base_url"`
	// APIKey is sent as the Authorization-Token header.
	APIKey string `yaml:"api_key" json:"api_key"`
	// TimeoutSeconds bounds each CMS request. Defaults to 15.
	TimeoutSeconds int `yaml:"timeout_seconds" json:"timeout_seconds"`
}

// Config is the top-level engine configuration.
type Config struct {
	// Timezone is the IANA zone the CMS authors schedules in
	// (e.g. "America/New_York"). All local-time computation uses it.
	Timezone string `yaml:"timezone" json:"timezone"`

	// DefaultStartOffsetMinutes opens the check-in window this many
	// minutes before an occurrence starts. Defaults to 15.
	DefaultStartOffsetMinutes int `yaml:"default_start_offset_minutes" json:"default_start_offset_minutes"`

	// DefaultEndOffsetMinutes closes the check-in window this many
	// minutes after an occurrence starts. Defaults to 720 (12 hours).
	DefaultEndOffsetMinutes int `yaml:"default_end_offset_minutes" json:"default_end_offset_minutes"`

	// CacheTTLSeconds controls how long CMS reads are memoized. Defaults to 60.
	CacheTTLSeconds int `yaml:"cache_ttl_seconds" json:"cache_ttl_seconds"`

	// LogLevel is one of debug, info, warn, error.
	LogLevel string `yaml:"log_level" json:"log_level"`

	CMS CMSConfig `yaml:"cms" json:"cms"`
}

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Timezone:                  "America/New_York",
		DefaultStartOffsetMinutes: 15,
		DefaultEndOffsetMinutes:   720,
		CacheTTLSeconds:           60,
		LogLevel:                  "info",
		CMS: CMSConfig{
			TimeoutSeconds: 15,
		},
	}
}

// Normalize fills missing or zero values with defaults so partially
// filled configs still behave correctly.
func (c *Config) Normalize() {
	if c.Timezone == "" {
		c.Timezone = "America/New_York"
	}
	if c.DefaultStartOffsetMinutes <= 0 {
		c.DefaultStartOffsetMinutes = 15
	}
	if c.DefaultEndOffsetMinutes <= 0 {
		c.DefaultEndOffsetMinutes = 720
	}
	if c.CacheTTLSeconds <= 0 {
		c.CacheTTLSeconds = 60
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.CMS.TimeoutSeconds <= 0 {
		c.CMS.TimeoutSeconds = 15
	}
}

// Location resolves the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	return time.LoadLocation(c.Timezone)
}

// CacheTTL returns CacheTTLSeconds as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.CacheTTLSeconds) * time.Second
}

// Load reads configuration from the given YAML path. On first run the
// file does not exist yet: a default config is written with 0600 perms
// and returned.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	cfg.Normalize()

	return &cfg, nil
}

// Save writes the configuration atomically (temp file + rename) with
// 0600 permissions, creating the parent directory if needed.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".schedcore-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}

	return os.Rename(tmpName, path)
}
