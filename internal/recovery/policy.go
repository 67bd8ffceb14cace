package recovery

import (
	"fmt"

	"github.com/vietddude/mend/internal/core/domain"
	"github.com/vietddude/mend/internal/recovery/backoff"
)

// decision is a handler's verdict. jitter marks delays derived from the
// backoff strategy; fixed delays (resource switch, challenge pause, unit
// restart) pass through unperturbed.
type decision struct {
	action domain.RecoveryAction
	jitter bool
}

// handler decides the remedy for one failure category.
type handler func(report domain.FailureReport, count int, cfg Config) decision

// policySet is an immutable strategy + handler table. Config updates replace
// the whole set so a concurrent AnalyzeError never sees a half-updated one.
type policySet struct {
	strategy backoff.Strategy
	handlers map[domain.FailureCategory]handler
}

func newPolicySet(cfg Config) *policySet {
	s := backoff.New(cfg.BackoffStrategy, cfg.BaseBackoff, cfg.MaxBackoff, cfg.BackoffMultiplier)

	p := &policySet{strategy: s}
	p.handlers = map[domain.FailureCategory]handler{
		domain.CategoryNetwork:   p.handleNetwork,
		domain.CategoryProxy:     p.handleProxy,
		domain.CategoryChallenge: p.handleChallenge,
		domain.CategoryTimeout:   p.handleTimeout,
		domain.CategoryRateLimit: p.handleRateLimit,
		domain.CategoryCrash:     p.handleCrash,
		domain.CategoryUnknown:   p.handleUnknown,
	}
	return p
}

// decide dispatches to the category handler, falling back to the unknown
// handler for unrecognized categories. It never fails.
func (p *policySet) decide(report domain.FailureReport, count int, cfg Config) decision {
	h, ok := p.handlers[report.Category]
	if !ok {
		h = p.handleUnknown
	}
	return h(report, count, cfg)
}

func (p *policySet) handleNetwork(_ domain.FailureReport, count int, cfg Config) decision {
	return decision{
		action: domain.RecoveryAction{
			Kind:        domain.ActionRetry,
			Reason:      fmt.Sprintf("network failure, retry %d/%d", count, cfg.MaxRetries),
			Delay:       p.strategy.Delay(count),
			MaxAttempts: cfg.MaxRetries,
		},
		jitter: true,
	}
}

// handleProxy switches to another resource when failover is enabled. The
// switch delay is short and fixed, with no backoff math.
func (p *policySet) handleProxy(_ domain.FailureReport, count int, cfg Config) decision {
	if cfg.ResourceFailoverEnabled {
		return decision{
			action: domain.RecoveryAction{
				Kind:   domain.ActionSwitchResource,
				Reason: "proxy failure, switching resource",
				Delay:  cfg.SwitchDelay,
			},
		}
	}
	return decision{
		action: domain.RecoveryAction{
			Kind:        domain.ActionRetry,
			Reason:      fmt.Sprintf("proxy failure, failover disabled, retry %d/%d", count, cfg.MaxRetries),
			Delay:       p.strategy.Delay(count),
			MaxAttempts: cfg.MaxRetries,
		},
	}
}

func (p *policySet) handleChallenge(_ domain.FailureReport, _ int, cfg Config) decision {
	switch cfg.ChallengeHandling {
	case ChallengeSkip:
		return decision{
			action: domain.RecoveryAction{
				Kind:   domain.ActionSkip,
				Reason: "challenge encountered, skipping",
			},
		}
	case ChallengeAbort:
		return decision{
			action: domain.RecoveryAction{
				Kind:   domain.ActionAbort,
				Reason: "challenge encountered, aborting",
			},
		}
	default: // pause
		return decision{
			action: domain.RecoveryAction{
				Kind:   domain.ActionBackoff,
				Reason: "challenge encountered, pausing",
				Delay:  cfg.ChallengePause,
			},
		}
	}
}

// handleTimeout retries on the first occurrence, then escalates to a unit
// restart (at half the standard restart delay) when enabled.
func (p *policySet) handleTimeout(_ domain.FailureReport, count int, cfg Config) decision {
	if count >= 2 && cfg.UnitRestartEnabled {
		return decision{
			action: domain.RecoveryAction{
				Kind:   domain.ActionRestartUnit,
				Reason: fmt.Sprintf("repeated timeouts (%d), restarting unit", count),
				Delay:  cfg.RestartDelay / 2,
			},
		}
	}
	return decision{
		action: domain.RecoveryAction{
			Kind:        domain.ActionRetry,
			Reason:      fmt.Sprintf("timeout, retry %d/%d", count, cfg.MaxRetries),
			Delay:       p.strategy.Delay(count),
			MaxAttempts: cfg.MaxRetries,
		},
		jitter: true,
	}
}

// handleRateLimit backs off at double the strategy delay, still capped.
func (p *policySet) handleRateLimit(_ domain.FailureReport, count int, cfg Config) decision {
	d := 2 * p.strategy.Delay(count)
	if d > cfg.MaxBackoff {
		d = cfg.MaxBackoff
	}
	return decision{
		action: domain.RecoveryAction{
			Kind:   domain.ActionBackoff,
			Reason: fmt.Sprintf("rate limited, backing off (attempt %d)", count),
			Delay:  d,
		},
		jitter: true,
	}
}

func (p *policySet) handleCrash(_ domain.FailureReport, _ int, cfg Config) decision {
	if cfg.UnitRestartEnabled {
		return decision{
			action: domain.RecoveryAction{
				Kind:   domain.ActionRestartUnit,
				Reason: "unit crashed, restarting",
				Delay:  cfg.RestartDelay,
			},
		}
	}
	return decision{
		action: domain.RecoveryAction{
			Kind:   domain.ActionAbort,
			Reason: "unit crashed and restart is disabled",
		},
	}
}

func (p *policySet) handleUnknown(_ domain.FailureReport, count int, cfg Config) decision {
	return decision{
		action: domain.RecoveryAction{
			Kind:        domain.ActionRetry,
			Reason:      fmt.Sprintf("unclassified failure, retry %d/%d", count, cfg.MaxRetries),
			Delay:       p.strategy.Delay(count),
			MaxAttempts: cfg.MaxRetries,
		},
		jitter: true,
	}
}
