package recovery

import (
	"time"

	"github.com/vietddude/mend/internal/recovery/backoff"
)

// ChallengeMode selects how challenge (CAPTCHA-style) failures are handled.
type ChallengeMode string

const (
	ChallengeSkip  ChallengeMode = "skip"
	ChallengePause ChallengeMode = "pause"
	ChallengeAbort ChallengeMode = "abort"
)

// Config holds the engine's tunables. Changing it through UpdateConfig
// rebuilds the strategy and the whole policy set; nothing is mutated in place.
type Config struct {
	MaxRetries              int
	BaseBackoff             time.Duration
	MaxBackoff              time.Duration
	BackoffMultiplier       float64
	ResourceFailoverEnabled bool
	UnitRestartEnabled      bool
	ChallengeHandling       ChallengeMode
	BackoffStrategy         backoff.Kind

	// Fixed delays used by specific handlers. These are never jittered.
	SwitchDelay    time.Duration
	ChallengePause time.Duration
	RestartDelay   time.Duration

	HistoryCapacity int
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		MaxRetries:              3,
		BaseBackoff:             1 * time.Second,
		MaxBackoff:              30 * time.Second,
		BackoffMultiplier:       2.0,
		ResourceFailoverEnabled: true,
		UnitRestartEnabled:      true,
		ChallengeHandling:       ChallengePause,
		BackoffStrategy:         backoff.KindExponential,
		SwitchDelay:             500 * time.Millisecond,
		ChallengePause:          60 * time.Second,
		RestartDelay:            5 * time.Second,
		HistoryCapacity:         1000,
	}
}

// normalized fills zero values with defaults so a partially specified config
// still yields a working engine.
func (c Config) normalized() Config {
	def := DefaultConfig()
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.BaseBackoff <= 0 {
		c.BaseBackoff = def.BaseBackoff
	}
	if c.MaxBackoff <= 0 {
		c.MaxBackoff = def.MaxBackoff
	}
	if c.BackoffMultiplier <= 1 {
		c.BackoffMultiplier = def.BackoffMultiplier
	}
	if c.ChallengeHandling == "" {
		c.ChallengeHandling = def.ChallengeHandling
	}
	if c.BackoffStrategy == "" {
		c.BackoffStrategy = def.BackoffStrategy
	}
	if c.SwitchDelay <= 0 {
		c.SwitchDelay = def.SwitchDelay
	}
	if c.ChallengePause <= 0 {
		c.ChallengePause = def.ChallengePause
	}
	if c.RestartDelay <= 0 {
		c.RestartDelay = def.RestartDelay
	}
	if c.HistoryCapacity <= 0 {
		c.HistoryCapacity = def.HistoryCapacity
	}
	return c
}

// ConfigPatch is a partial config update. Nil fields keep their current value.
type ConfigPatch struct {
	MaxRetries              *int
	BaseBackoff             *time.Duration
	MaxBackoff              *time.Duration
	BackoffMultiplier       *float64
	ResourceFailoverEnabled *bool
	UnitRestartEnabled      *bool
	ChallengeHandling       *ChallengeMode
	BackoffStrategy         *backoff.Kind
	SwitchDelay             *time.Duration
	ChallengePause          *time.Duration
	RestartDelay            *time.Duration
	HistoryCapacity         *int
}

func (p ConfigPatch) apply(c Config) Config {
	if p.MaxRetries != nil {
		c.MaxRetries = *p.MaxRetries
	}
	if p.BaseBackoff != nil {
		c.BaseBackoff = *p.BaseBackoff
	}
	if p.MaxBackoff != nil {
		c.MaxBackoff = *p.MaxBackoff
	}
	if p.BackoffMultiplier != nil {
		c.BackoffMultiplier = *p.BackoffMultiplier
	}
	if p.ResourceFailoverEnabled != nil {
		c.ResourceFailoverEnabled = *p.ResourceFailoverEnabled
	}
	if p.UnitRestartEnabled != nil {
		c.UnitRestartEnabled = *p.UnitRestartEnabled
	}
	if p.ChallengeHandling != nil {
		c.ChallengeHandling = *p.ChallengeHandling
	}
	if p.BackoffStrategy != nil {
		c.BackoffStrategy = *p.BackoffStrategy
	}
	if p.SwitchDelay != nil {
		c.SwitchDelay = *p.SwitchDelay
	}
	if p.ChallengePause != nil {
		c.ChallengePause = *p.ChallengePause
	}
	if p.RestartDelay != nil {
		c.RestartDelay = *p.RestartDelay
	}
	if p.HistoryCapacity != nil {
		c.HistoryCapacity = *p.HistoryCapacity
	}
	return c.normalized()
}
