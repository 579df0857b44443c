// Package config loads and saves nestegg's TOML configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

// Config holds all nestegg configuration.
type Config struct {
	General    GeneralConfig    `toml:"general"`
	Source     SourceConfig     `toml:"source"`
	Forecast   ForecastConfig   `toml:"forecast"`
	Scorer     ScorerConfig     `toml:"scorer"`
	Daemon     DaemonConfig     `toml:"daemon"`
	Appearance AppearanceConfig `toml:"appearance"`
}

// GeneralConfig holds general preferences.
type GeneralConfig struct {
	DataDir        string  `toml:"data_dir,omitempty"`
	WindowDays     int     `toml:"window_days"`
	DefaultHorizon int     `toml:"default_horizon"`
	DefaultGoal    float64 `toml:"default_goal"`
	LogLevel       string  `toml:"log_level"`
}

// SourceConfig points at the banking-data service.
type SourceConfig struct {
	BaseURL     string `toml:"base_url,omitempty"`
	APIKey      string `toml:"api_key,omitempty"`
	TimeoutSecs int    `toml:"timeout_secs"`
}

// ForecastConfig tunes the per-user spend forecaster.
type ForecastConfig struct {
	MinTrainPoints int     `toml:"min_train_points"`
	MaxTrainPoints int     `toml:"max_train_points"`
	Iterations     int     `toml:"iterations"`
	LearningRate   float64 `toml:"learning_rate"`
	JitterScale    float64 `toml:"jitter_scale"`
	JitterSeed     uint64  `toml:"jitter_seed"`
}

// ScorerConfig tunes the purchase scorer.
type ScorerConfig struct {
	BufferCap    int     `toml:"buffer_cap"`
	Trees        int     `toml:"trees"`
	MaxDepth     int     `toml:"max_depth"`
	LearningRate float64 `toml:"learning_rate"`
	DefaultScore float64 `toml:"default_score"`
}

// DaemonConfig holds settings for the background poller.
type DaemonConfig struct {
	Addr         string `toml:"addr"`
	IntervalSecs int    `toml:"interval_secs"`
	EventsBuffer int    `toml:"events_buffer"`
	WatchUsers   []int  `toml:"watch_users,omitempty"`
}

// AppearanceConfig holds theme settings.
type AppearanceConfig struct {
	Theme string `toml:"theme"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		General: GeneralConfig{
			WindowDays:     30,
			DefaultHorizon: 90,
			DefaultGoal:    10000,
			LogLevel:       "info",
		},
		Source: SourceConfig{
			TimeoutSecs: 10,
		},
		Forecast: ForecastConfig{
			MinTrainPoints: 10,
			MaxTrainPoints: 90,
			Iterations:     200,
			LearningRate:   0.05,
		},
		Scorer: ScorerConfig{
			BufferCap:    1000,
			Trees:        100,
			MaxDepth:     3,
			LearningRate: 0.1,
			DefaultScore: 750,
		},
		Daemon: DaemonConfig{
			Addr:         "127.0.0.1:8787",
			IntervalSecs: 60,
			EventsBuffer: 200,
		},
		Appearance: AppearanceConfig{
			Theme: "flexoki-dark",
		},
	}
}

// ConfigDir returns the XDG-compliant config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "nestegg")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", "nestegg")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// DefaultDataDir returns the XDG-compliant data directory.
func DefaultDataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, "nestegg")
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", "nestegg")
}

// Load reads the config file, returning defaults if it doesn't exist.
// Environment overrides are applied last.
func Load() (Config, error) {
	return LoadFile(ConfigPath())
}

// LoadFile reads the config at path. A missing file yields defaults.
func LoadFile(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return cfg, fmt.Errorf("reading config: %w", err)
	default:
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parsing config: %w", err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("NESTEGG_SOURCE_URL"); v != "" {
		cfg.Source.BaseURL = v
	}
	if v := os.Getenv("NESTEGG_SOURCE_KEY"); v != "" {
		cfg.Source.APIKey = v
	}
	if v := os.Getenv("NESTEGG_DATA_DIR"); v != "" {
		cfg.General.DataDir = v
	}
}

// Save writes the config to disk.
func Save(cfg Config) error {
	return SaveFile(ConfigPath(), cfg)
}

// SaveFile writes the config to path with owner-only permissions.
func SaveFile(path string, cfg Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}

	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o600)
	if err != nil {
		return fmt.Errorf("creating config file: %w", err)
	}
	defer f.Close()

	enc := toml.NewEncoder(f)
	return enc.Encode(cfg)
}

// Exists returns true if a config file exists on disk.
func Exists() bool {
	_, err := os.Stat(ConfigPath())
	return err == nil
}

// DataDir returns the configured data directory or the default one.
func (c Config) DataDir() string {
	if c.General.DataDir != "" {
		return c.General.DataDir
	}
	return DefaultDataDir()
}

// HistoryDir is where per-user purchase histories live.
func (c Config) HistoryDir() string {
	return filepath.Join(c.DataDir(), "history")
}

// ModelsPath is the sqlite database holding model bundles.
func (c Config) ModelsPath() string {
	return filepath.Join(c.DataDir(), "models.db")
}

// Timeout returns the upstream request timeout.
func (c Config) Timeout() time.Duration {
	if c.Source.TimeoutSecs <= 0 {
		return 10 * time.Second
	}
	return time.Duration(c.Source.TimeoutSecs) * time.Second
}

// Interval returns the daemon poll interval.
func (c Config) Interval() time.Duration {
	if c.Daemon.IntervalSecs <= 0 {
		return time.Minute
	}
	return time.Duration(c.Daemon.IntervalSecs) * time.Second
}

// MaskKey hides all but the last four characters of an API key.
func MaskKey(key string) string {
	key = strings.TrimSpace(key)
	if len(key) <= 4 {
		return strings.Repeat("*", len(key))
	}
	return strings.Repeat("*", len(key)-4) + key[len(key)-4:]
}
