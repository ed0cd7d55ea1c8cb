package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/adhocore/gronx"
	"github.com/caarlos0/env/v11"
)

type Config struct {
	Engine    EngineConfig    `json:"engine"`
	Generator GeneratorConfig `json:"generator"`
	Retry     RetryConfig     `json:"retry"`
	Store     StoreConfig     `json:"store"`
	Channels  ChannelsConfig  `json:"channels"`
	Notify    NotifyConfig    `json:"notify"`
	Log       LogConfig       `json:"log"`
}

// EngineConfig holds the conversation engine knobs.
type EngineConfig struct {
	SessionTimeoutSeconds int `json:"session_timeout_seconds" env:"PARLEY_ENGINE_SESSION_TIMEOUT_SECONDS"`
	RetentionDays         int `json:"retention_days" env:"PARLEY_ENGINE_RETENTION_DAYS"`
	RateMaxPerWindow      int `json:"rate_max_per_window" env:"PARLEY_ENGINE_RATE_MAX_PER_WINDOW"`
	RateWindowMS          int `json:"rate_window_ms" env:"PARLEY_ENGINE_RATE_WINDOW_MS"`
	MemoryRecallLimit     int `json:"memory_recall_limit" env:"PARLEY_ENGINE_MEMORY_RECALL_LIMIT"`
	// Simulation time: one world day elapses every DayLengthMinutes of wall clock.
	DayLengthMinutes int    `json:"day_length_minutes" env:"PARLEY_ENGINE_DAY_LENGTH_MINUTES"`
	WorldEpoch       string `json:"world_epoch" env:"PARLEY_ENGINE_WORLD_EPOCH"` // RFC3339
	PurgeSchedule    string `json:"purge_schedule" env:"PARLEY_ENGINE_PURGE_SCHEDULE"`
}

type GeneratorConfig struct {
	Provider       string `json:"provider" env:"PARLEY_GENERATOR_PROVIDER"`
	APIBase        string `json:"api_base" env:"PARLEY_GENERATOR_API_BASE"`
	APIKey         string `json:"api_key" env:"PARLEY_GENERATOR_API_KEY"`
	Model          string `json:"model" env:"PARLEY_GENERATOR_MODEL"`
	TimeoutSeconds int    `json:"timeout_seconds" env:"PARLEY_GENERATOR_TIMEOUT_SECONDS"`
}

type RetryConfig struct {
	MaxAttempts    int     `json:"max_attempts" env:"PARLEY_RETRY_MAX_ATTEMPTS"`
	InitialDelayMS int     `json:"initial_delay_ms" env:"PARLEY_RETRY_INITIAL_DELAY_MS"`
	MaxDelayMS     int     `json:"max_delay_ms" env:"PARLEY_RETRY_MAX_DELAY_MS"`
	Multiplier     float64 `json:"multiplier" env:"PARLEY_RETRY_MULTIPLIER"`
}

type StoreConfig struct {
	Backend string `json:"backend" env:"PARLEY_STORE_BACKEND"` // "file" or "sqlite"
	Path    string `json:"path" env:"PARLEY_STORE_PATH"`
}

type ChannelsConfig struct {
	Discord DiscordConfig `json:"discord"`
}

type DiscordConfig struct {
	Token     string   `json:"token" env:"PARLEY_CHANNELS_DISCORD_TOKEN"`
	AllowFrom []string `json:"allow_from" env:"PARLEY_CHANNELS_DISCORD_ALLOW_FROM"`
	// Actors maps a Discord channel ID to the actor who answers there.
	Actors map[string]string `json:"actors"`
}

type NotifyConfig struct {
	CooldownSeconds int `json:"cooldown_seconds" env:"PARLEY_NOTIFY_COOLDOWN_SECONDS"`
}

type LogConfig struct {
	Level string `json:"level" env:"PARLEY_LOG_LEVEL"`
}

func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			SessionTimeoutSeconds: 300,
			RetentionDays:         30,
			RateMaxPerWindow:      10,
			RateWindowMS:          1000,
			MemoryRecallLimit:     8,
			DayLengthMinutes:      20,
			WorldEpoch:            "2026-01-01T00:00:00Z",
			PurgeSchedule:         "0 4 * * *",
		},
		Generator: GeneratorConfig{
			Provider:       "openai",
			APIBase:        "https://api.openai.com/v1",
			Model:          "gpt-4o-mini",
			TimeoutSeconds: 30,
		},
		Retry: RetryConfig{
			MaxAttempts:    3,
			InitialDelayMS: 500,
			MaxDelayMS:     30000,
			Multiplier:     2.0,
		},
		Store: StoreConfig{
			Backend: "file",
			Path:    "~/.parley/data",
		},
		Channels: ChannelsConfig{
			Discord: DiscordConfig{
				AllowFrom: []string{},
				Actors:    map[string]string{},
			},
		},
		Notify: NotifyConfig{
			CooldownSeconds: 30,
		},
		Log: LogConfig{
			Level: "info",
		},
	}
}

// DefaultPath returns the config file location (~/.parley/config.json).
func DefaultPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "config.json"
	}
	return filepath.Join(home, ".parley", "config.json")
}

func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	} else if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := env.Parse(cfg); err != nil {
		return nil, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

func (c *Config) Validate() error {
	if c.Engine.RetentionDays <= 0 {
		return fmt.Errorf("engine.retention_days must be positive, got %d", c.Engine.RetentionDays)
	}
	if c.Engine.RateMaxPerWindow <= 0 {
		return fmt.Errorf("engine.rate_max_per_window must be positive, got %d", c.Engine.RateMaxPerWindow)
	}
	if c.Engine.DayLengthMinutes <= 0 {
		return fmt.Errorf("engine.day_length_minutes must be positive, got %d", c.Engine.DayLengthMinutes)
	}
	if c.Engine.WorldEpoch != "" {
		if _, err := time.Parse(time.RFC3339, c.Engine.WorldEpoch); err != nil {
			return fmt.Errorf("engine.world_epoch: %w", err)
		}
	}
	if c.Engine.PurgeSchedule != "" && !gronx.New().IsValid(c.Engine.PurgeSchedule) {
		return fmt.Errorf("engine.purge_schedule %q is not a valid cron expression", c.Engine.PurgeSchedule)
	}
	switch c.Store.Backend {
	case "file", "sqlite":
	default:
		return fmt.Errorf("store.backend must be \"file\" or \"sqlite\", got %q", c.Store.Backend)
	}
	if c.Retry.MaxAttempts <= 0 {
		return fmt.Errorf("retry.max_attempts must be positive, got %d", c.Retry.MaxAttempts)
	}
	return nil
}

func (c *Config) SessionTimeout() time.Duration {
	return time.Duration(c.Engine.SessionTimeoutSeconds) * time.Second
}

func (c *Config) RateWindow() time.Duration {
	return time.Duration(c.Engine.RateWindowMS) * time.Millisecond
}

func (c *Config) NotifyCooldown() time.Duration {
	return time.Duration(c.Notify.CooldownSeconds) * time.Second
}

func (c *Config) WorldEpochTime() time.Time {
	t, err := time.Parse(time.RFC3339, c.Engine.WorldEpoch)
	if err != nil {
		return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return t
}

func (c *Config) DayLength() time.Duration {
	return time.Duration(c.Engine.DayLengthMinutes) * time.Minute
}

// StorePath expands a leading ~ in store.path.
func (c *Config) StorePath() string {
	return ExpandHome(c.Store.Path)
}

// ExpandHome replaces a leading ~ with the user's home directory.
func ExpandHome(path string) string {
	if path == "" {
		return path
	}
	if path[0] == '~' {
		home, _ := os.UserHomeDir()
		if len(path) > 1 && path[1] == '/' {
			return home + path[1:]
		}
		return home
	}
	return path
}
