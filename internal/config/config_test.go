package config

import (
	"path/filepath"
	"testing"
	"time"
)

func TestLoadFile_MissingUsesDefaults(t *testing.T) {
	t.Setenv("NESTEGG_SOURCE_URL", "")
	t.Setenv("NESTEGG_SOURCE_KEY", "")
	t.Setenv("NESTEGG_DATA_DIR", "")

	cfg, err := LoadFile(filepath.Join(t.TempDir(), "none.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.General.DefaultHorizon != 90 {
		t.Errorf("DefaultHorizon = %d, want 90", cfg.General.DefaultHorizon)
	}
	if cfg.General.DefaultGoal != 10000 {
		t.Errorf("DefaultGoal = %v, want 10000", cfg.General.DefaultGoal)
	}
	if cfg.Scorer.BufferCap != 1000 {
		t.Errorf("BufferCap = %d, want 1000", cfg.Scorer.BufferCap)
	}
}

func TestSaveThenLoad(t *testing.T) {
	t.Setenv("NESTEGG_SOURCE_URL", "")
	t.Setenv("NESTEGG_SOURCE_KEY", "")
	t.Setenv("NESTEGG_DATA_DIR", "")

	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	cfg := DefaultConfig()
	cfg.General.WindowDays = 45
	cfg.Daemon.WatchUsers = []int{3, 9}
	cfg.Source.BaseURL = "http://bank.local"

	if err := SaveFile(path, cfg); err != nil {
		t.Fatal(err)
	}
	got, err := LoadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.General.WindowDays != 45 {
		t.Errorf("WindowDays = %d, want 45", got.General.WindowDays)
	}
	if len(got.Daemon.WatchUsers) != 2 || got.Daemon.WatchUsers[1] != 9 {
		t.Errorf("WatchUsers = %v, want [3 9]", got.Daemon.WatchUsers)
	}
	if got.Source.BaseURL != "http://bank.local" {
		t.Errorf("BaseURL = %q", got.Source.BaseURL)
	}
}

func TestEnvOverrides(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("NESTEGG_SOURCE_URL", "http://env")
	t.Setenv("NESTEGG_SOURCE_KEY", "secret")
	t.Setenv("NESTEGG_DATA_DIR", dir)

	cfg, err := LoadFile(filepath.Join(dir, "none.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Source.BaseURL != "http://env" || cfg.Source.APIKey != "secret" {
		t.Errorf("source = %+v", cfg.Source)
	}
	if cfg.HistoryDir() != filepath.Join(dir, "history") {
		t.Errorf("HistoryDir = %q", cfg.HistoryDir())
	}
	if cfg.ModelsPath() != filepath.Join(dir, "models.db") {
		t.Errorf("ModelsPath = %q", cfg.ModelsPath())
	}
}

func TestDurations(t *testing.T) {
	var cfg Config
	if cfg.Timeout() != 10*time.Second {
		t.Errorf("Timeout = %v, want 10s", cfg.Timeout())
	}
	if cfg.Interval() != time.Minute {
		t.Errorf("Interval = %v, want 1m", cfg.Interval())
	}
	cfg.Daemon.IntervalSecs = 5
	if cfg.Interval() != 5*time.Second {
		t.Errorf("Interval = %v, want 5s", cfg.Interval())
	}
}

func TestMaskKey(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", ""},
		{"abc", "***"},
		{"abcdefgh", "****efgh"},
	}
	for _, tt := range tests {
		if got := MaskKey(tt.in); got != tt.want {
			t.Errorf("MaskKey(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
