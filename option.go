package planner

import (
	"net/http"

	"github.com/viant/planner/service/approval"
	"github.com/viant/planner/service/capability"
	"go.uber.org/zap"
)

// Option customises a Service.
type Option func(s *Service)

// WithConfig sets the configuration; DefaultConfig is used otherwise.
func WithConfig(config *Config) Option {
	return func(s *Service) { s.config = config }
}

// WithLogger sets the logger; one is built from Config.Logging otherwise.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithStore replaces the file backed approval store.
func WithStore(store approval.Store) Option {
	return func(s *Service) { s.store = store }
}

// WithCapabilities registers capabilities ahead of the configured endpoints;
// a capability given here wins over an endpoint of the same name.
func WithCapabilities(capabilities ...*capability.Capability) Option {
	return func(s *Service) { s.capabilities = append(s.capabilities, capabilities...) }
}

// WithHTTPClient sets the client used for remote capabilities.
func WithHTTPClient(client *http.Client) Option {
	return func(s *Service) { s.httpClient = client }
}

// WithDefaultPrompt sets the prompt proposed when a run supplies none.
func WithDefaultPrompt(text string) Option {
	return func(s *Service) { s.defaultPrompt = text }
}
