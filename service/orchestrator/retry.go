package orchestrator

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/viant/planner/service/capability"
	"go.uber.org/zap"
)

// RetryConfig bounds retries of idempotent capability calls.
type RetryConfig struct {
	// MaxAttempts counts the first call. Default: 3
	MaxAttempts int `json:"maxAttempts,omitempty" yaml:"maxAttempts,omitempty" koanf:"max_attempts"`

	// InitialInterval is the first backoff. Default: 200ms
	InitialInterval time.Duration `json:"initialInterval,omitempty" yaml:"initialInterval,omitempty" koanf:"initial_interval"`

	// MaxInterval caps the backoff. Default: 2s
	MaxInterval time.Duration `json:"maxInterval,omitempty" yaml:"maxInterval,omitempty" koanf:"max_interval"`
}

// DefaultRetryConfig returns the default retry configuration.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:     3,
		InitialInterval: 200 * time.Millisecond,
		MaxInterval:     2 * time.Second,
	}
}

// ApplyDefaults sets default values for unset fields.
func (c *RetryConfig) ApplyDefaults() {
	defaults := DefaultRetryConfig()
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = defaults.MaxAttempts
	}
	if c.InitialInterval <= 0 {
		c.InitialInterval = defaults.InitialInterval
	}
	if c.MaxInterval <= 0 {
		c.MaxInterval = defaults.MaxInterval
	}
}

// invokeWithRetry retries CapabilityErrors with exponential backoff. Any
// other error, a ValidationError in particular, is returned at once. Only
// read-only capabilities may go through here.
func (s *Service) invokeWithRetry(ctx context.Context, name string, payload capability.Payload) (capability.Result, error) {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = s.retry.InitialInterval
	policy.MaxInterval = s.retry.MaxInterval

	attempt := 0
	return backoff.Retry(ctx, func() (capability.Result, error) {
		attempt++
		result, err := s.registry.Invoke(ctx, name, payload)
		if err != nil && !capability.IsCapability(err) {
			return nil, backoff.Permanent(err)
		}
		return result, err
	},
		backoff.WithBackOff(policy),
		backoff.WithMaxTries(uint(s.retry.MaxAttempts)),
		backoff.WithNotify(func(err error, next time.Duration) {
			s.logger.Warn("capability call failed, retrying",
				zap.String("capability", name),
				zap.Int("attempt", attempt),
				zap.Duration("backoff", next),
				zap.Error(err))
		}),
	)
}
