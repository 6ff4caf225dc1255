package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/five82/cinevault/internal/logging"
	"github.com/five82/cinevault/internal/storage"
	"github.com/five82/cinevault/internal/tmdb"
)

// Config is the resolved runtime configuration.
type Config struct {
	APIKey            string
	ProxyURL          string
	DirectURL         string
	ImageHost         string
	DataDir           string
	Storage           string
	RequestTimeout    time.Duration
	RequestsPerSecond float64
	RegionOrder       []string
	LogLevel          string
	MetricsAddr       string
}

const (
	defaultConfigPath        = "~/.config/cinevault/config.toml"
	defaultDataDir           = "~/.local/share/cinevault"
	defaultRequestsPerSecond = 20
)

// Environment variables that override file values.
const (
	EnvAPIKey     = "TMDB_API_KEY"
	EnvProxyURL   = "TMDB_PROXY_URL"
	EnvImageProxy = "TMDB_IMAGE_PROXY"
	EnvDataDir    = "CINEVAULT_DATA_DIR"
	EnvLogLevel   = "LOG_LEVEL"
)

type fileConfig struct {
	APIKey            string   `toml:"api_key"`
	ProxyURL          string   `toml:"proxy_url"`
	DirectURL         string   `toml:"direct_url"`
	ImageHost         string   `toml:"image_host"`
	DataDir           string   `toml:"data_dir"`
	Storage           string   `toml:"storage"`
	RequestTimeout    string   `toml:"request_timeout"`
	RequestsPerSecond *float64 `toml:"requests_per_second"`
	RegionOrder       []string `toml:"region_order"`
	LogLevel          string   `toml:"log_level"`
	MetricsAddr       string   `toml:"metrics_addr"`
}

// DefaultPath returns the default config file location (unexpanded).
func DefaultPath() string {
	return defaultConfigPath
}

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		DirectURL:         tmdb.DefaultDirectURL,
		ImageHost:         tmdb.DefaultImageHost,
		DataDir:           mustExpand(defaultDataDir),
		Storage:           storage.KindFile,
		RequestTimeout:    tmdb.DefaultTimeout,
		RequestsPerSecond: defaultRequestsPerSecond,
		RegionOrder:       append([]string(nil), tmdb.DefaultRegionOrder...),
		LogLevel:          "info",
	}
}

// Load reads the config at path (or the default path), applies environment
// overrides, and validates the result. A missing file yields defaults; an
// unreadable or malformed file is an error.
func Load(path string) (Config, error) {
	resolved, err := resolvePath(path)
	if err != nil {
		return Config{}, err
	}

	cfg := Default()

	file, err := os.Open(resolved)
	switch {
	case errors.Is(err, os.ErrNotExist):
		// defaults
	case err != nil:
		return Config{}, fmt.Errorf("open config: %w", err)
	default:
		defer file.Close()
		bytes, err := io.ReadAll(file)
		if err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
		var raw fileConfig
		if err := toml.Unmarshal(bytes, &raw); err != nil {
			return Config{}, fmt.Errorf("parse config: %w", err)
		}
		if err := cfg.merge(raw); err != nil {
			return Config{}, err
		}
	}

	cfg.applyEnv()
	cfg.DataDir = mustExpand(cfg.DataDir)
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) merge(raw fileConfig) error {
	setString(&c.APIKey, raw.APIKey)
	setString(&c.ProxyURL, raw.ProxyURL)
	setString(&c.DirectURL, raw.DirectURL)
	setString(&c.ImageHost, raw.ImageHost)
	setString(&c.DataDir, raw.DataDir)
	setString(&c.Storage, strings.ToLower(raw.Storage))
	setString(&c.LogLevel, strings.ToLower(raw.LogLevel))
	setString(&c.MetricsAddr, raw.MetricsAddr)

	if timeout := strings.TrimSpace(raw.RequestTimeout); timeout != "" {
		d, err := time.ParseDuration(timeout)
		if err != nil {
			return fmt.Errorf("parse request_timeout: %w", err)
		}
		c.RequestTimeout = d
	}
	if raw.RequestsPerSecond != nil {
		c.RequestsPerSecond = *raw.RequestsPerSecond
	}
	if regions := normalizeRegions(raw.RegionOrder); len(regions) > 0 {
		c.RegionOrder = regions
	}
	return nil
}

func (c *Config) applyEnv() {
	setString(&c.APIKey, os.Getenv(EnvAPIKey))
	setString(&c.ProxyURL, os.Getenv(EnvProxyURL))
	setString(&c.ImageHost, os.Getenv(EnvImageProxy))
	setString(&c.DataDir, os.Getenv(EnvDataDir))
	setString(&c.LogLevel, strings.ToLower(os.Getenv(EnvLogLevel)))
}

// Validate checks values that would otherwise fail later and less clearly.
func (c Config) Validate() error {
	switch c.Storage {
	case storage.KindFile, storage.KindBadger, storage.KindMemory:
	default:
		return fmt.Errorf("storage must be %q or %q, got %q", storage.KindFile, storage.KindBadger, c.Storage)
	}
	if c.RequestTimeout <= 0 {
		return fmt.Errorf("request_timeout must be positive, got %s", c.RequestTimeout)
	}
	if strings.TrimSpace(c.DataDir) == "" {
		return fmt.Errorf("data_dir is empty")
	}
	return nil
}

// HasCredential reports whether direct requests can authenticate.
func (c Config) HasCredential() bool {
	return strings.TrimSpace(c.APIKey) != ""
}

// LogPath returns the application log file path.
func (c Config) LogPath() string {
	if strings.TrimSpace(c.DataDir) == "" {
		return logging.Path(mustExpand(defaultDataDir))
	}
	return logging.Path(c.DataDir)
}

func setString(dst *string, value string) {
	if v := strings.TrimSpace(value); v != "" {
		*dst = v
	}
}

func normalizeRegions(regions []string) []string {
	var out []string
	for _, r := range regions {
		if r = strings.ToUpper(strings.TrimSpace(r)); r != "" {
			out = append(out, r)
		}
	}
	return out
}

func resolvePath(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return expandPath(defaultConfigPath)
	}
	return expandPath(path)
}

func mustExpand(path string) string {
	expanded, err := expandPath(path)
	if err != nil {
		return path
	}
	return expanded
}

func expandPath(path string) (string, error) {
	trimmed := strings.TrimSpace(path)
	if trimmed == "" {
		return "", fmt.Errorf("path is empty")
	}
	if strings.HasPrefix(trimmed, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		trimmed = filepath.Join(home, strings.TrimPrefix(trimmed, "~"))
	}
	return filepath.Abs(trimmed)
}
