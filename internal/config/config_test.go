package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ActivityWatch.URL != "http://localhost:5600" {
		t.Errorf("activitywatch.url = %q", cfg.ActivityWatch.URL)
	}
	if cfg.Polling.Interval != "60s" {
		t.Errorf("polling.interval = %q", cfg.Polling.Interval)
	}
	if cfg.Polling.DayStart != "00:00" || cfg.Polling.Cutoff != "22:00" {
		t.Errorf("polling day_start/cutoff = %q/%q", cfg.Polling.DayStart, cfg.Polling.Cutoff)
	}
	if cfg.Storage.Type != "memory" {
		t.Errorf("storage.type = %q", cfg.Storage.Type)
	}
	if cfg.Notify.Sink != "desktop" || cfg.Notify.TopN != 4 {
		t.Errorf("notify = %+v", cfg.Notify)
	}
	if cfg.Storage.Redis.KeyPrefix != "awnotify" {
		t.Errorf("storage.redis.key_prefix = %q", cfg.Storage.Redis.KeyPrefix)
	}
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Logging.Level != "info" {
		t.Errorf("logging.level = %q", cfg.Logging.Level)
	}
}

func TestLoad_File(t *testing.T) {
	path := writeConfig(t, `
activitywatch:
  url: http://aw.local:5600
  hostname: laptop
polling:
  interval: 30s
  cutoff: "21:30"
  day_start: "04:00"
notify:
  sink: log
  top_n: 3
storage:
  type: redis
  redis:
    host: redis.local
    port: 6380
metrics:
  enabled: true
  listen: 127.0.0.1:9999
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.ActivityWatch.URL != "http://aw.local:5600" || cfg.ActivityWatch.Hostname != "laptop" {
		t.Errorf("activitywatch = %+v", cfg.ActivityWatch)
	}
	if cfg.Polling.Interval != "30s" || cfg.Polling.Cutoff != "21:30" || cfg.Polling.DayStart != "04:00" {
		t.Errorf("polling = %+v", cfg.Polling)
	}
	if cfg.Notify.Sink != "log" || cfg.Notify.TopN != 3 {
		t.Errorf("notify = %+v", cfg.Notify)
	}
	if cfg.Storage.Type != "redis" || cfg.Storage.Redis.Host != "redis.local" || cfg.Storage.Redis.Port != 6380 {
		t.Errorf("storage = %+v", cfg.Storage)
	}
	// Untouched nested defaults survive
	if cfg.Storage.Redis.DialTimeout != "5s" {
		t.Errorf("storage.redis.dial_timeout = %q", cfg.Storage.Redis.DialTimeout)
	}
	if !cfg.Metrics.Enabled || cfg.Metrics.Listen != "127.0.0.1:9999" {
		t.Errorf("metrics = %+v", cfg.Metrics)
	}
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("AWNOTIFY_POLLING_INTERVAL", "5m")
	t.Setenv("AWNOTIFY_NOTIFY_SINK", "log")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Polling.Interval != "5m" {
		t.Errorf("polling.interval = %q, want 5m", cfg.Polling.Interval)
	}
	if cfg.Notify.Sink != "log" {
		t.Errorf("notify.sink = %q, want log", cfg.Notify.Sink)
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"bad interval", "polling:\n  interval: often\n", "polling.interval"},
		{"zero interval", "polling:\n  interval: 0s\n", "polling.interval"},
		{"bad cutoff", "polling:\n  cutoff: \"25:00\"\n", "polling.cutoff"},
		{"cutoff equals day start", "polling:\n  cutoff: \"04:00\"\n  day_start: \"04:00\"\n", "must differ"},
		{"bad sink", "notify:\n  sink: pager\n", "notify.sink"},
		{"bad top_n", "notify:\n  top_n: 0\n", "notify.top_n"},
		{"bad storage", "storage:\n  type: sqlite\n", "storage.type"},
		{"metrics without listen", "metrics:\n  enabled: true\n  listen: \"\"\n", "metrics.listen"},
		{"malformed yaml", "polling: [\n", "failed to read config file"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if err == nil {
				t.Fatal("Load() error = nil, want error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Load() error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestDefaults(t *testing.T) {
	cfg := Defaults()
	if cfg.Polling.Interval != "60s" || cfg.Notify.Sink != "desktop" {
		t.Errorf("Defaults() = %+v", cfg)
	}
}

func TestUnknownKeys(t *testing.T) {
	path := writeConfig(t, `
polling:
  interval: 30s
  intervall: 40s
notify:
  sink: log
colour: blue
`)

	unknown, err := UnknownKeys(path)
	if err != nil {
		t.Fatalf("UnknownKeys() error = %v", err)
	}
	want := []string{"colour", "polling.intervall"}
	if strings.Join(unknown, ",") != strings.Join(want, ",") {
		t.Errorf("UnknownKeys() = %v, want %v", unknown, want)
	}
}
