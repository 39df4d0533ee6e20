// Package config handles layered YAML configuration with environment overrides.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds all iotdash configuration.
type Config struct {
	Proxy    Proxy    `yaml:"proxy"`
	Location Location `yaml:"location"`
	Log      Log      `yaml:"log"`
}

// Proxy holds settings for reaching the dashboard proxy.
type Proxy struct {
	Hostname string        `yaml:"hostname"` // Leading host label, e.g. "dashboard-proxy"
	Scheme   string        `yaml:"scheme"`   // "http" | "https"
	Timeout  time.Duration `yaml:"timeout"`  // Transport-level request timeout
}

// Location describes the host the dashboard is served from. The proxy domain
// is derived from it.
type Location struct {
	Host string `yaml:"host"` // Empty means the machine host name
}

// Log holds diagnostic log settings.
type Log struct {
	Level         string `yaml:"level"` // "debug" | "info" | "warn" | "error"
	Dir           string `yaml:"dir"`
	MaxFiles      int    `yaml:"max_files"`
	MaxFileSizeMB int    `yaml:"max_file_size_mb"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Proxy: Proxy{
			Hostname: "dashboard-proxy",
			Scheme:   "http",
			Timeout:  30 * time.Second,
		},
		Log: Log{
			Level:         "info",
			Dir:           ".iotdash/logs",
			MaxFiles:      10,
			MaxFileSizeMB: 20,
		},
	}
}

// Load reads a single YAML config file at path and returns a Config.
// For merging multiple config sources, use LoadLayered instead.
// If the file does not exist, defaults are returned without error.
// If the file contains invalid YAML or unknown fields, an error is returned.
func Load(path string) (*Config, error) {
	return LoadLayered(path)
}

// LoadLayered loads config from multiple paths with increasing priority.
// Later paths override earlier ones. Missing files are skipped.
func LoadLayered(paths ...string) (*Config, error) {
	cfg := DefaultConfig()

	for _, path := range paths {
		layer, err := loadLayer(path)
		if err != nil {
			return nil, err
		}
		if layer == nil {
			continue
		}
		cfg.merge(layer)
	}

	return &cfg, nil
}

// Validate checks that config values are usable.
func (c *Config) Validate() error {
	if c.Proxy.Hostname == "" {
		return errors.New("config: proxy.hostname cannot be empty")
	}
	if strings.ContainsAny(c.Proxy.Hostname, "/:") {
		return fmt.Errorf("config: proxy.hostname must be a bare host label, got %q", c.Proxy.Hostname)
	}
	switch c.Proxy.Scheme {
	case "http", "https":
		// valid
	default:
		return fmt.Errorf("config: proxy.scheme must be \"http\" or \"https\", got %q", c.Proxy.Scheme)
	}
	if c.Proxy.Timeout < 0 {
		return fmt.Errorf("config: proxy.timeout must be non-negative, got %v", c.Proxy.Timeout)
	}
	if _, err := ParseLevel(c.Log.Level); err != nil {
		return err
	}
	if c.Log.MaxFiles < 0 {
		return fmt.Errorf("config: log.max_files must be non-negative, got %d", c.Log.MaxFiles)
	}
	if c.Log.MaxFileSizeMB <= 0 {
		return fmt.Errorf("config: log.max_file_size_mb must be positive, got %d", c.Log.MaxFileSizeMB)
	}
	return nil
}

// ResolveHost returns the configured location host, falling back to the
// machine host name.
func (c *Config) ResolveHost() (string, error) {
	if c.Location.Host != "" {
		return c.Location.Host, nil
	}
	h, err := os.Hostname()
	if err != nil {
		return "", fmt.Errorf("config: resolving location host: %w", err)
	}
	return h, nil
}

// ParseLevel maps a log.level value to a slog.Level.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("config: unknown log.level %q", s)
	}
}

// ApplyEnv applies environment variable overrides to the config.
// Supported variables: DASHBOARD_PROXY_HOSTNAME, IOTDASH_PROXY_SCHEME,
// IOTDASH_TIMEOUT, IOTDASH_LOCATION_HOST, IOTDASH_LOG_LEVEL, IOTDASH_LOG_DIR,
// IOTDASH_LOG_MAX_FILES.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("DASHBOARD_PROXY_HOSTNAME"); v != "" {
		c.Proxy.Hostname = v
	}
	if v := os.Getenv("IOTDASH_PROXY_SCHEME"); v != "" {
		c.Proxy.Scheme = v
	}
	if v := os.Getenv("IOTDASH_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("config: invalid IOTDASH_TIMEOUT %q: %w", v, err)
		}
		c.Proxy.Timeout = d
	}
	if v := os.Getenv("IOTDASH_LOCATION_HOST"); v != "" {
		c.Location.Host = v
	}
	if v := os.Getenv("IOTDASH_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("IOTDASH_LOG_DIR"); v != "" {
		c.Log.Dir = v
	}
	if v := os.Getenv("IOTDASH_LOG_MAX_FILES"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("config: invalid IOTDASH_LOG_MAX_FILES %q: %w", v, err)
		}
		c.Log.MaxFiles = n
	}
	return nil
}

// rawConfig mirrors Config but uses pointers to distinguish set vs unset fields.
type rawConfig struct {
	Proxy    *rawProxy    `yaml:"proxy"`
	Location *rawLocation `yaml:"location"`
	Log      *rawLog      `yaml:"log"`
}

type rawProxy struct {
	Hostname *string        `yaml:"hostname"`
	Scheme   *string        `yaml:"scheme"`
	Timeout  *time.Duration `yaml:"timeout"`
}

type rawLocation struct {
	Host *string `yaml:"host"`
}

type rawLog struct {
	Level         *string `yaml:"level"`
	Dir           *string `yaml:"dir"`
	MaxFiles      *int    `yaml:"max_files"`
	MaxFileSizeMB *int    `yaml:"max_file_size_mb"`
}

// loadLayer reads a single config file into a rawConfig for selective merging.
// Returns nil if the file does not exist. Rejects unknown fields.
func loadLayer(path string) (*rawConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: reading %s: %w", path, err)
	}

	if len(data) == 0 {
		return nil, nil
	}

	var raw rawConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: parsing %s: %w", path, err)
	}

	return &raw, nil
}

// merge applies non-nil fields from a rawConfig layer onto this Config.
func (c *Config) merge(layer *rawConfig) {
	if layer.Proxy != nil {
		if layer.Proxy.Hostname != nil {
			c.Proxy.Hostname = *layer.Proxy.Hostname
		}
		if layer.Proxy.Scheme != nil {
			c.Proxy.Scheme = *layer.Proxy.Scheme
		}
		if layer.Proxy.Timeout != nil {
			c.Proxy.Timeout = *layer.Proxy.Timeout
		}
	}
	if layer.Location != nil {
		if layer.Location.Host != nil {
			c.Location.Host = *layer.Location.Host
		}
	}
	if layer.Log != nil {
		if layer.Log.Level != nil {
			c.Log.Level = *layer.Log.Level
		}
		if layer.Log.Dir != nil {
			c.Log.Dir = *layer.Log.Dir
		}
		if layer.Log.MaxFiles != nil {
			c.Log.MaxFiles = *layer.Log.MaxFiles
		}
		if layer.Log.MaxFileSizeMB != nil {
			c.Log.MaxFileSizeMB = *layer.Log.MaxFileSizeMB
		}
	}
}
