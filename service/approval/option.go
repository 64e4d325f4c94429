package approval

import (
	"time"

	"github.com/viant/planner/metrics"
	"github.com/viant/planner/policy"
	"go.uber.org/zap"
)

// Option customises a Gateway.
type Option func(g *Gateway)

// WithPolicy sets the default policy; a policy attached to the context via
// policy.WithPolicy takes precedence.
func WithPolicy(p *policy.Policy) Option {
	return func(g *Gateway) { g.policy = p }
}

// WithLogger sets the gateway logger.
func WithLogger(logger *zap.Logger) Option {
	return func(g *Gateway) { g.logger = logger }
}

// WithMetrics counts status transitions on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(g *Gateway) { g.metrics = m }
}

// WithClock overrides the time source used for lifecycle timestamps.
func WithClock(now func() time.Time) Option {
	return func(g *Gateway) { g.now = now }
}

// WithIDGenerator overrides request id assignment.
func WithIDGenerator(newID func() string) Option {
	return func(g *Gateway) { g.newID = newID }
}
