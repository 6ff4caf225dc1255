package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/five82/cinevault/internal/tmdb"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{EnvAPIKey, EnvProxyURL, EnvImageProxy, EnvDataDir, EnvLogLevel} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestLoad_MissingConfigFallsBackToDefaults(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	clearEnv(t)

	cfg, err := Load(filepath.Join(home, "does-not-exist.toml"))
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.DirectURL != tmdb.DefaultDirectURL {
		t.Fatalf("DirectURL = %q, want %q", cfg.DirectURL, tmdb.DefaultDirectURL)
	}
	wantDataDir, err := expandPath(defaultDataDir)
	if err != nil {
		t.Fatalf("expandPath(defaultDataDir) returned error: %v", err)
	}
	if cfg.DataDir != wantDataDir {
		t.Fatalf("DataDir = %q, want %q", cfg.DataDir, wantDataDir)
	}
	if cfg.Storage != "file" || cfg.RequestTimeout != 10*time.Second || cfg.RequestsPerSecond != 20 {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
	if diff := cmp.Diff([]string{"IN", "US", "GB", "CA", "AU"}, cfg.RegionOrder); diff != "" {
		t.Fatalf("RegionOrder mismatch (-want +got):\n%s", diff)
	}
	if cfg.HasCredential() {
		t.Fatal("HasCredential = true with no key configured")
	}
}

func TestLoad_ParsesAndTrimsConfig(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	clearEnv(t)

	path := writeConfig(t, `
api_key = "  abc123  "
proxy_url = " https://edge.example.net/3 "
data_dir = "  ~/.vault  "
storage = "BADGER"
request_timeout = "2500ms"
requests_per_second = 4.5
region_order = [" gb ", "", "de"]
log_level = "DEBUG"
metrics_addr = "127.0.0.1:9464"
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIKey != "abc123" {
		t.Fatalf("APIKey = %q, want %q", cfg.APIKey, "abc123")
	}
	if cfg.ProxyURL != "https://edge.example.net/3" {
		t.Fatalf("ProxyURL = %q", cfg.ProxyURL)
	}
	if cfg.DataDir != filepath.Join(home, ".vault") {
		t.Fatalf("DataDir = %q, want it under HOME %q", cfg.DataDir, home)
	}
	if cfg.Storage != "badger" || cfg.LogLevel != "debug" || cfg.MetricsAddr != "127.0.0.1:9464" {
		t.Fatalf("unexpected values: %+v", cfg)
	}
	if cfg.RequestTimeout != 2500*time.Millisecond {
		t.Fatalf("RequestTimeout = %v, want 2.5s", cfg.RequestTimeout)
	}
	if cfg.RequestsPerSecond != 4.5 {
		t.Fatalf("RequestsPerSecond = %v, want 4.5", cfg.RequestsPerSecond)
	}
	if diff := cmp.Diff([]string{"GB", "DE"}, cfg.RegionOrder); diff != "" {
		t.Fatalf("RegionOrder mismatch (-want +got):\n%s", diff)
	}
	if cfg.LogPath() != filepath.Join(home, ".vault", "cinevault.log") {
		t.Fatalf("LogPath = %q", cfg.LogPath())
	}
}

func TestLoad_EmptyValuesUseDefaults(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	clearEnv(t)

	path := writeConfig(t, `
direct_url = "   "
storage = ""
request_timeout = ""
region_order = []
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	def := Default()
	if cfg.DirectURL != def.DirectURL || cfg.Storage != def.Storage || cfg.RequestTimeout != def.RequestTimeout {
		t.Fatalf("cfg = %+v, want defaults", cfg)
	}
	if len(cfg.RegionOrder) != 5 {
		t.Fatalf("RegionOrder = %v, want default order", cfg.RegionOrder)
	}
}

func TestLoad_EnvironmentOverridesFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv(EnvAPIKey, "from-env")
	t.Setenv(EnvProxyURL, "https://env-proxy.example.net")
	t.Setenv(EnvImageProxy, "https://img.example.net")
	t.Setenv(EnvDataDir, filepath.Join(home, "envdata"))
	t.Setenv(EnvLogLevel, "WARN")

	path := writeConfig(t, `
api_key = "from-file"
proxy_url = "https://file-proxy.example.net"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.APIKey != "from-env" || cfg.ProxyURL != "https://env-proxy.example.net" {
		t.Fatalf("env did not override: %+v", cfg)
	}
	if cfg.ImageHost != "https://img.example.net" || cfg.LogLevel != "warn" {
		t.Fatalf("env did not override: %+v", cfg)
	}
	if cfg.DataDir != filepath.Join(home, "envdata") {
		t.Fatalf("DataDir = %q", cfg.DataDir)
	}
}

func TestLoad_InvalidTOMLFails(t *testing.T) {
	clearEnv(t)
	_, err := Load(writeConfig(t, `api_key = [`))
	if err == nil {
		t.Fatalf("Load returned nil error, want parse error")
	}
	if !strings.Contains(err.Error(), "parse config") {
		t.Fatalf("Load error = %q, want it to mention parse config", err.Error())
	}
}

func TestLoad_InvalidValuesFail(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	clearEnv(t)

	tests := map[string]string{
		"duration": `request_timeout = "soon"`,
		"negative": `request_timeout = "-1s"`,
		"storage":  `storage = "sqlite"`,
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := Load(writeConfig(t, body)); err == nil {
				t.Fatalf("Load(%s) returned nil error", body)
			}
		})
	}
}

func TestExpandPath_ExpandsTildeAndReturnsAbs(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	got, err := expandPath("~/a/b")
	if err != nil {
		t.Fatalf("expandPath returned error: %v", err)
	}
	want := filepath.Join(home, "a/b")
	if got != want {
		t.Fatalf("expandPath = %q, want %q", got, want)
	}
}

func TestExpandPath_EmptyErrors(t *testing.T) {
	if _, err := expandPath("   "); err == nil {
		t.Fatalf("expandPath returned nil error, want error")
	}
}

func TestLogPath_DefaultsWhenDataDirEmpty(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)

	var cfg Config
	got := cfg.LogPath()
	if !strings.HasPrefix(got, home) {
		t.Fatalf("LogPath = %q, want it under HOME %q", got, home)
	}
	if !strings.HasSuffix(got, filepath.FromSlash("/cinevault.log")) {
		t.Fatalf("LogPath = %q, want it to end with /cinevault.log", got)
	}
}
