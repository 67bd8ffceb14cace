package config

import (
	"time"

	"github.com/vietddude/mend/internal/infra/storage/postgres"
	"github.com/vietddude/mend/internal/recovery"
	"github.com/vietddude/mend/internal/recovery/backoff"
	"github.com/vietddude/mend/internal/resource"
)

// AppConfig represents the top-level configuration.
type AppConfig struct {
	Server    ServerConfig    `yaml:"server"`
	Engine    EngineConfig    `yaml:"engine"`
	Resources ResourcesConfig `yaml:"resources"`
	Database  postgres.Config `yaml:"database"`
	Archive   ArchiveConfig   `yaml:"archive"`
	Logging   LoggingConfig   `yaml:"logging"`
	Tasks     []TaskConfig    `yaml:"tasks"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int `yaml:"port"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// EngineConfig holds recovery engine settings. Delays are in milliseconds.
type EngineConfig struct {
	MaxRetries              int     `yaml:"max_retries"`
	BaseBackoffMs           int     `yaml:"base_backoff_ms"`
	MaxBackoffMs            int     `yaml:"max_backoff_ms"`
	BackoffMultiplier       float64 `yaml:"backoff_multiplier"`
	BackoffStrategy         string  `yaml:"backoff_strategy"` // immediate, linear, exponential, fibonacci
	ResourceFailoverEnabled *bool   `yaml:"resource_failover_enabled"`
	UnitRestartEnabled      *bool   `yaml:"unit_restart_enabled"`
	ChallengeHandling       string  `yaml:"challenge_handling"` // skip, pause, abort
	SwitchDelayMs           int     `yaml:"switch_delay_ms"`
	ChallengePauseMs        int     `yaml:"challenge_pause_ms"`
	RestartDelayMs          int     `yaml:"restart_delay_ms"`
	HistoryCapacity         int     `yaml:"history_capacity"`
}

// ResourcesConfig lists the resources available for failover. When a Redis
// URL is set, the roster is shared through Redis instead of held in memory.
type ResourcesConfig struct {
	IDs   []string             `yaml:"ids"`
	Redis resource.RedisConfig `yaml:"redis"`
}

// ArchiveConfig controls outcome archive retention. Zero disables pruning.
type ArchiveConfig struct {
	RetentionMs int `yaml:"retention_ms"`
}

// Retention returns the archive retention period.
func (a ArchiveConfig) Retention() time.Duration {
	return time.Duration(a.RetentionMs) * time.Millisecond
}

// TaskConfig defines one built-in probe task.
type TaskConfig struct {
	Name       string `yaml:"name"`
	URL        string `yaml:"url"`
	IntervalMs int    `yaml:"interval_ms"`
}

// Interval returns the probe interval with a 30s default.
func (t TaskConfig) Interval() time.Duration {
	if t.IntervalMs <= 0 {
		return 30 * time.Second
	}
	return time.Duration(t.IntervalMs) * time.Millisecond
}

// ToEngine converts the YAML section into the engine's config. Zero values
// fall back to engine defaults.
func (e EngineConfig) ToEngine() recovery.Config {
	cfg := recovery.DefaultConfig()

	if e.MaxRetries > 0 {
		cfg.MaxRetries = e.MaxRetries
	}
	if e.BaseBackoffMs > 0 {
		cfg.BaseBackoff = time.Duration(e.BaseBackoffMs) * time.Millisecond
	}
	if e.MaxBackoffMs > 0 {
		cfg.MaxBackoff = time.Duration(e.MaxBackoffMs) * time.Millisecond
	}
	if e.BackoffMultiplier > 1 {
		cfg.BackoffMultiplier = e.BackoffMultiplier
	}
	if e.BackoffStrategy != "" {
		cfg.BackoffStrategy = backoff.Kind(e.BackoffStrategy)
	}
	if e.ResourceFailoverEnabled != nil {
		cfg.ResourceFailoverEnabled = *e.ResourceFailoverEnabled
	}
	if e.UnitRestartEnabled != nil {
		cfg.UnitRestartEnabled = *e.UnitRestartEnabled
	}
	if e.ChallengeHandling != "" {
		cfg.ChallengeHandling = recovery.ChallengeMode(e.ChallengeHandling)
	}
	if e.SwitchDelayMs > 0 {
		cfg.SwitchDelay = time.Duration(e.SwitchDelayMs) * time.Millisecond
	}
	if e.ChallengePauseMs > 0 {
		cfg.ChallengePause = time.Duration(e.ChallengePauseMs) * time.Millisecond
	}
	if e.RestartDelayMs > 0 {
		cfg.RestartDelay = time.Duration(e.RestartDelayMs) * time.Millisecond
	}
	if e.HistoryCapacity > 0 {
		cfg.HistoryCapacity = e.HistoryCapacity
	}
	return cfg
}
