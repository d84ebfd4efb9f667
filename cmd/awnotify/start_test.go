package main

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/goodtune/awnotify/internal/category"
	"github.com/goodtune/awnotify/internal/config"
	"github.com/goodtune/awnotify/internal/storage/bolt"
	"github.com/goodtune/awnotify/internal/storage/memory"
	"github.com/goodtune/awnotify/internal/usage"
)

func TestSchedulerConfig(t *testing.T) {
	cfg := config.Defaults()
	cfg.Polling.Interval = "30s"
	cfg.Polling.Cutoff = "21:15"
	cfg.Polling.DayStart = "04:00"

	got, err := schedulerConfig(cfg)
	if err != nil {
		t.Fatalf("schedulerConfig() error = %v", err)
	}
	if got.Interval != 30*time.Second {
		t.Errorf("Interval = %v, want 30s", got.Interval)
	}
	if got.Cutoff != (usage.TimeOfDay{Hour: 21, Minute: 15}) {
		t.Errorf("Cutoff = %v, want 21:15", got.Cutoff)
	}
	if got.DayStart != (usage.TimeOfDay{Hour: 4}) {
		t.Errorf("DayStart = %v, want 04:00", got.DayStart)
	}
	if got.TopN != 4 {
		t.Errorf("TopN = %d, want 4", got.TopN)
	}
}

func TestSchedulerConfig_Invalid(t *testing.T) {
	tests := []struct {
		name     string
		cutoff   string
		dayStart string
	}{
		{"bad cutoff", "late", "00:00"},
		{"bad day start", "22:00", "25:00"},
		{"same time", "06:00", "06:00"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Defaults()
			cfg.Polling.Cutoff = tt.cutoff
			cfg.Polling.DayStart = tt.dayStart
			if _, err := schedulerConfig(cfg); err == nil {
				t.Error("schedulerConfig() error = nil, want error")
			}
		})
	}
}

func TestLoadRules(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	// Nothing at the default location: built-in categories
	rules, err := loadRules("", zerolog.Nop())
	if err != nil {
		t.Fatalf("loadRules() error = %v", err)
	}
	if len(rules.Categories) != len(category.Defaults().Categories) {
		t.Errorf("got %d categories, want the built-in set", len(rules.Categories))
	}

	// An explicit path must exist
	_, err = loadRules(filepath.Join(t.TempDir(), "missing.yaml"), zerolog.Nop())
	if !errors.Is(err, category.ErrConfigInvalid) {
		t.Errorf("loadRules(missing) error = %v, want ErrConfigInvalid", err)
	}

	path := filepath.Join(t.TempDir(), "categories.yaml")
	body := "categories:\n  - name: Reading\n    matchers: [kindle]\n    thresholds: [30m]\n"
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	rules, err = loadRules(path, zerolog.Nop())
	if err != nil {
		t.Fatalf("loadRules(%s) error = %v", path, err)
	}
	if len(rules.Categories) != 1 || rules.Categories[0].Name != "Reading" {
		t.Errorf("rules = %+v", rules.Categories)
	}
}

func TestOpenStorage(t *testing.T) {
	store, err := openStorage(config.StorageConfig{Type: "memory"})
	if err != nil {
		t.Fatalf("openStorage(memory) error = %v", err)
	}
	if _, ok := store.(*memory.Store); !ok {
		t.Errorf("openStorage(memory) = %T", store)
	}

	store, err = openStorage(config.StorageConfig{Type: "bolt", Path: filepath.Join(t.TempDir(), "awnotify.db")})
	if err != nil {
		t.Fatalf("openStorage(bolt) error = %v", err)
	}
	if _, ok := store.(*bolt.Store); !ok {
		t.Errorf("openStorage(bolt) = %T", store)
	}
	if err := store.Close(); err != nil {
		t.Errorf("Close() error = %v", err)
	}

	if _, err := openStorage(config.StorageConfig{Type: "sqlite"}); err == nil {
		t.Error("openStorage(sqlite) error = nil, want error")
	}
}
