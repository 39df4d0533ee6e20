package config

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.Proxy.Hostname != "dashboard-proxy" {
		t.Errorf("default hostname = %q, want %q", cfg.Proxy.Hostname, "dashboard-proxy")
	}
	if cfg.Proxy.Scheme != "http" {
		t.Errorf("default scheme = %q, want %q", cfg.Proxy.Scheme, "http")
	}
	if cfg.Proxy.Timeout != 30*time.Second {
		t.Errorf("default timeout = %v, want %v", cfg.Proxy.Timeout, 30*time.Second)
	}
	if cfg.Location.Host != "" {
		t.Errorf("default location host = %q, want empty", cfg.Location.Host)
	}
	if cfg.Log.Dir != ".iotdash/logs" {
		t.Errorf("default log dir = %q, want %q", cfg.Log.Dir, ".iotdash/logs")
	}
}

func TestLoad_ValidFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte(`
proxy:
  hostname: dash
  scheme: https
  timeout: 5s
location:
  host: ui.example.com
`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Proxy.Hostname != "dash" {
		t.Errorf("hostname = %q, want %q", cfg.Proxy.Hostname, "dash")
	}
	if cfg.Proxy.Scheme != "https" {
		t.Errorf("scheme = %q, want %q", cfg.Proxy.Scheme, "https")
	}
	if cfg.Proxy.Timeout != 5*time.Second {
		t.Errorf("timeout = %v, want %v", cfg.Proxy.Timeout, 5*time.Second)
	}
	if cfg.Location.Host != "ui.example.com" {
		t.Errorf("location host = %q, want %q", cfg.Location.Host, "ui.example.com")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	cfg, err := Load("/nonexistent/config.yaml")
	if err != nil {
		t.Fatalf("Load() should return defaults for missing file, got error: %v", err)
	}
	want := DefaultConfig()
	if *cfg != want {
		t.Errorf("Load(missing) = %+v, want defaults %+v", *cfg, want)
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("{{invalid yaml"), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(cfgPath)
	if err == nil {
		t.Fatal("Load(invalid YAML) should return error")
	}
}

func TestLoad_PartialConfig(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte(`
proxy:
  hostname: dash
`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Proxy.Hostname != "dash" {
		t.Errorf("hostname = %q, want %q", cfg.Proxy.Hostname, "dash")
	}
	// Unset fields should retain defaults.
	if cfg.Proxy.Scheme != "http" {
		t.Errorf("scheme = %q, want default %q", cfg.Proxy.Scheme, "http")
	}
	if cfg.Log.MaxFiles != 10 {
		t.Errorf("max files = %d, want default %d", cfg.Log.MaxFiles, 10)
	}
}

func TestLoad_LayeredPriority(t *testing.T) {
	// Setup: user config sets hostname and timeout, project config overrides timeout.
	userDir := t.TempDir()
	projectDir := t.TempDir()

	userCfg := filepath.Join(userDir, "config.yaml")
	if err := os.WriteFile(userCfg, []byte(`
proxy:
  hostname: dash
  timeout: 2m
`), 0o644); err != nil {
		t.Fatal(err)
	}

	projectCfg := filepath.Join(projectDir, "config.yaml")
	if err := os.WriteFile(projectCfg, []byte(`
proxy:
  timeout: 8s
log:
  level: debug
`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadLayered(userCfg, projectCfg)
	if err != nil {
		t.Fatalf("LoadLayered() error = %v", err)
	}
	// Hostname from user config (project doesn't set it).
	if cfg.Proxy.Hostname != "dash" {
		t.Errorf("hostname = %q, want %q", cfg.Proxy.Hostname, "dash")
	}
	// Timeout from project config (overrides user).
	if cfg.Proxy.Timeout != 8*time.Second {
		t.Errorf("timeout = %v, want %v", cfg.Proxy.Timeout, 8*time.Second)
	}
	if cfg.Log.Level != "debug" {
		t.Errorf("log level = %q, want %q", cfg.Log.Level, "debug")
	}
	// Dir retains default when neither layer sets it.
	if cfg.Log.Dir != ".iotdash/logs" {
		t.Errorf("log dir = %q, want default %q", cfg.Log.Dir, ".iotdash/logs")
	}
}

func TestApplyEnv(t *testing.T) {
	tests := []struct {
		name    string
		envs    map[string]string
		wantErr bool
		check   func(*testing.T, Config)
	}{
		{
			name: "DASHBOARD_PROXY_HOSTNAME overrides hostname",
			envs: map[string]string{"DASHBOARD_PROXY_HOSTNAME": "dash"},
			check: func(t *testing.T, c Config) {
				if c.Proxy.Hostname != "dash" {
					t.Errorf("hostname = %q, want %q", c.Proxy.Hostname, "dash")
				}
			},
		},
		{
			name: "IOTDASH_TIMEOUT overrides timeout",
			envs: map[string]string{"IOTDASH_TIMEOUT": "3s"},
			check: func(t *testing.T, c Config) {
				if c.Proxy.Timeout != 3*time.Second {
					t.Errorf("timeout = %v, want %v", c.Proxy.Timeout, 3*time.Second)
				}
			},
		},
		{
			name: "IOTDASH_LOCATION_HOST overrides location host",
			envs: map[string]string{"IOTDASH_LOCATION_HOST": "ui.example.com"},
			check: func(t *testing.T, c Config) {
				if c.Location.Host != "ui.example.com" {
					t.Errorf("location host = %q, want %q", c.Location.Host, "ui.example.com")
				}
			},
		},
		{
			name: "IOTDASH_LOG_MAX_FILES overrides max files",
			envs: map[string]string{"IOTDASH_LOG_MAX_FILES": "3"},
			check: func(t *testing.T, c Config) {
				if c.Log.MaxFiles != 3 {
					t.Errorf("max files = %d, want 3", c.Log.MaxFiles)
				}
			},
		},
		{
			name:    "invalid IOTDASH_TIMEOUT returns error",
			envs:    map[string]string{"IOTDASH_TIMEOUT": "notaduration"},
			wantErr: true,
		},
		{
			name:    "invalid IOTDASH_LOG_MAX_FILES returns error",
			envs:    map[string]string{"IOTDASH_LOG_MAX_FILES": "many"},
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.envs {
				t.Setenv(k, v)
			}
			cfg := DefaultConfig()
			err := cfg.ApplyEnv()

			if tt.wantErr {
				if err == nil {
					t.Fatal("ApplyEnv() should return error")
				}
				return
			}
			if err != nil {
				t.Fatalf("ApplyEnv() error = %v", err)
			}
			tt.check(t, cfg)
		})
	}
}

func TestLoad_UnknownField(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte(`
proxy:
  hostnme: dash
`), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := Load(cfgPath)
	if err == nil {
		t.Fatal("Load() should return error for unknown field 'hostnme'")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*Config)
		wantErr bool
	}{
		{
			name:   "defaults are valid",
			modify: func(*Config) {},
		},
		{
			name:    "empty hostname",
			modify:  func(c *Config) { c.Proxy.Hostname = "" },
			wantErr: true,
		},
		{
			name:    "hostname with scheme",
			modify:  func(c *Config) { c.Proxy.Hostname = "http://dash" },
			wantErr: true,
		},
		{
			name:    "unknown scheme",
			modify:  func(c *Config) { c.Proxy.Scheme = "ftp" },
			wantErr: true,
		},
		{
			name:    "negative timeout",
			modify:  func(c *Config) { c.Proxy.Timeout = -1 * time.Second },
			wantErr: true,
		},
		{
			name:   "zero timeout disables the transport deadline",
			modify: func(c *Config) { c.Proxy.Timeout = 0 },
		},
		{
			name:    "unknown log level",
			modify:  func(c *Config) { c.Log.Level = "verbose" },
			wantErr: true,
		},
		{
			name:    "zero log file size",
			modify:  func(c *Config) { c.Log.MaxFileSizeMB = 0 },
			wantErr: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(&cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestResolveHost_Configured(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Location.Host = "ui.example.com"

	got, err := cfg.ResolveHost()
	if err != nil {
		t.Fatalf("ResolveHost() error = %v", err)
	}
	if got != "ui.example.com" {
		t.Errorf("ResolveHost() = %q, want %q", got, "ui.example.com")
	}
}

func TestResolveHost_FallsBackToHostname(t *testing.T) {
	want, err := os.Hostname()
	if err != nil {
		t.Skipf("os.Hostname unavailable: %v", err)
	}
	cfg := DefaultConfig()

	got, err := cfg.ResolveHost()
	if err != nil {
		t.Fatalf("ResolveHost() error = %v", err)
	}
	if got != want {
		t.Errorf("ResolveHost() = %q, want %q", got, want)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want slog.Level
	}{
		{"debug", slog.LevelDebug},
		{"", slog.LevelInfo},
		{"INFO", slog.LevelInfo},
		{"warning", slog.LevelWarn},
		{"error", slog.LevelError},
	}
	for _, tt := range tests {
		got, err := ParseLevel(tt.in)
		if err != nil {
			t.Errorf("ParseLevel(%q) error = %v", tt.in, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestLoad_CommentOnlyFile(t *testing.T) {
	dir := t.TempDir()
	cfgPath := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(cfgPath, []byte("# just a comment\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(cfgPath)
	if err != nil {
		t.Fatalf("Load(comment-only) error = %v", err)
	}
	want := DefaultConfig()
	if *cfg != want {
		t.Errorf("Load(comment-only) = %+v, want defaults %+v", *cfg, want)
	}
}

func TestLoadLayered_AllMissing(t *testing.T) {
	cfg, err := LoadLayered("/no/user.yaml", "/no/project.yaml")
	if err != nil {
		t.Fatalf("LoadLayered(all missing) error = %v", err)
	}
	want := DefaultConfig()
	if *cfg != want {
		t.Errorf("got %+v, want defaults %+v", *cfg, want)
	}
}
