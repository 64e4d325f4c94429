package orchestrator

import (
	"github.com/viant/planner/metrics"
	"github.com/viant/planner/model"
	"go.uber.org/zap"
)

// Option customises a Service.
type Option func(s *Service)

// WithLogger sets the service logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithMetrics records run outcomes and degraded evaluations on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithRetry sets the retry policy of retrieval and evaluation calls.
func WithRetry(config *RetryConfig) Option {
	return func(s *Service) {
		if config != nil {
			s.retry = config
		}
	}
}

// WithParser replaces the keyword goal parser.
func WithParser(parse func(goal string) *model.Intent) Option {
	return func(s *Service) { s.parse = parse }
}

// WithDefaultPrompt replaces the prompt proposed when a run supplies none.
func WithDefaultPrompt(text string) Option {
	return func(s *Service) {
		if text != "" {
			s.defaultPrompt = text
		}
	}
}
