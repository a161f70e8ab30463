package availability

import (
	"fmt"
	"time"
)

// Policy holds the poller's timing and budget parameters. Historical
// deployments disagree on these values, so every one of them is
// configuration rather than a constant.
type Policy struct {
	// BaseInterval is the poll interval while a provider is unavailable,
	// before any backoff applies.
	BaseInterval time.Duration `yaml:"base_interval"`

	// EarlyWarningThreshold is the failed-attempt count at which a single
	// advisory event fires.
	EarlyWarningThreshold int `yaml:"early_warning_threshold"`

	// BackoffThreshold is the failed-attempt count at which the poll
	// interval is multiplied by BackoffFactor. The attempt count keeps
	// incrementing across this transition.
	BackoffThreshold int `yaml:"backoff_threshold"`

	// BackoffFactor scales the poll interval once BackoffThreshold is
	// reached.
	BackoffFactor int `yaml:"backoff_factor"`

	// MaxAttempts is the failed-attempt budget. When it is reached,
	// polling stops and one exhausted event fires; only Recheck resumes it.
	MaxAttempts int `yaml:"max_attempts"`

	// RecheckInterval is the gentle poll interval while a provider is
	// available, used to detect disconnection. Zero disables polling
	// while healthy.
	RecheckInterval time.Duration `yaml:"recheck_interval"`
}

// DefaultPolicy returns the standard polling policy.
func DefaultPolicy() Policy {
	return Policy{
		BaseInterval:          10 * time.Second,
		EarlyWarningThreshold: 3,
		BackoffThreshold:      10,
		BackoffFactor:         3,
		MaxAttempts:           30,
		RecheckInterval:       0,
	}
}

// Validate checks the policy for nonsensical parameter combinations.
func (p Policy) Validate() error {
	if p.BaseInterval <= 0 {
		return fmt.Errorf("base_interval must be positive, got %s", p.BaseInterval)
	}
	if p.EarlyWarningThreshold <= 0 {
		return fmt.Errorf("early_warning_threshold must be positive, got %d", p.EarlyWarningThreshold)
	}
	if p.BackoffThreshold <= 0 {
		return fmt.Errorf("backoff_threshold must be positive, got %d", p.BackoffThreshold)
	}
	if p.BackoffFactor < 1 {
		return fmt.Errorf("backoff_factor must be at least 1, got %d", p.BackoffFactor)
	}
	if p.MaxAttempts <= 0 {
		return fmt.Errorf("max_attempts must be positive, got %d", p.MaxAttempts)
	}
	if p.RecheckInterval < 0 {
		return fmt.Errorf("recheck_interval must not be negative, got %s", p.RecheckInterval)
	}
	return nil
}
