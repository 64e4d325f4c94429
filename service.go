package planner

import (
	"context"
	"fmt"
	"net/http"

	"github.com/viant/planner/internal/logging"
	"github.com/viant/planner/metrics"
	"github.com/viant/planner/model"
	"github.com/viant/planner/policy"
	"github.com/viant/planner/service/approval"
	"github.com/viant/planner/service/approval/fs"
	"github.com/viant/planner/service/capability"
	"github.com/viant/planner/service/capability/github"
	"github.com/viant/planner/service/capability/remote"
	"github.com/viant/planner/service/orchestrator"
	"github.com/viant/planner/tracing"
	"go.uber.org/zap"
)

// Version is reported on traces.
const Version = "0.1.0"

// Service represents the planner façade wiring capabilities, the approval
// gateway and the orchestrator together.
type Service struct {
	config        *Config
	logger        *zap.Logger
	store         approval.Store
	capabilities  []*capability.Capability
	httpClient    *http.Client
	defaultPrompt string

	metrics      *metrics.Metrics
	registry     *capability.Registry
	gateway      *approval.Gateway
	orchestrator *orchestrator.Service
}

// New creates a planner service.
func New(options ...Option) (*Service, error) {
	s := &Service{}
	for _, option := range options {
		option(s)
	}
	if s.config == nil {
		s.config = DefaultConfig()
	}
	if err := s.config.Validate(); err != nil {
		return nil, err
	}
	if err := s.init(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Service) init() error {
	if s.logger == nil {
		logger, err := logging.New(s.config.Logging)
		if err != nil {
			return err
		}
		s.logger = logger
	}
	if s.config.Tracing.Enabled {
		if err := tracing.Init("planner", Version, s.config.Tracing.Output); err != nil {
			return fmt.Errorf("failed to initialise tracing: %w", err)
		}
	}
	s.metrics = metrics.New()
	if err := s.initRegistry(); err != nil {
		return err
	}
	if s.store == nil {
		store, err := fs.New(s.config.Approval.Dir, fs.WithLockWait(s.config.Approval.LockWait), fs.WithLogger(s.logger))
		if err != nil {
			return err
		}
		s.store = store
	}
	s.gateway = approval.New(s.store,
		approval.WithPolicy(policy.FromConfig(&s.config.Policy)),
		approval.WithMetrics(s.metrics),
		approval.WithLogger(s.logger))
	s.orchestrator = orchestrator.New(s.registry, s.gateway,
		orchestrator.WithRetry(&s.config.Retry),
		orchestrator.WithDefaultPrompt(s.defaultPrompt),
		orchestrator.WithMetrics(s.metrics),
		orchestrator.WithLogger(s.logger))
	return nil
}

func (s *Service) initRegistry() error {
	s.registry = capability.NewRegistry(capability.WithLogger(s.logger), capability.WithMetrics(s.metrics))
	for _, c := range s.capabilities {
		if err := s.registry.Register(c); err != nil {
			return err
		}
	}

	endpoints := s.config.Capabilities.Endpoints()
	for _, def := range capability.Definitions {
		endpoint := endpoints[def.Name]
		if endpoint == "" || s.registry.Lookup(def.Name) != nil {
			continue
		}
		options := []remote.Option{
			remote.WithTimeout(s.config.Capabilities.Timeout),
			remote.WithRateLimit(s.config.Capabilities.RateLimit, s.config.Capabilities.Burst),
		}
		if s.httpClient != nil {
			options = append(options, remote.WithHTTPClient(s.httpClient))
		}
		if key := s.config.Capabilities.APIKey; key != "" {
			options = append(options, remote.WithHeader("x-api-key", key))
		}
		if err := s.registry.Register(def.Bind(remote.New(def.Name, endpoint, options...))); err != nil {
			return err
		}
	}

	if s.registry.Lookup(capability.SubmitChangeRequest) == nil && s.config.GitHub.Enabled() {
		submitter, err := github.New(context.Background(), &s.config.GitHub, github.WithLogger(s.logger))
		if err != nil {
			return err
		}
		if err = s.registry.Register(submitter.Capability()); err != nil {
			return err
		}
	}
	return nil
}

// Execute runs a goal; see orchestrator.Service.Execute. Metrics are
// dumped to the configured textfile after every run.
func (s *Service) Execute(ctx context.Context, goal string, overrides *orchestrator.Overrides) (*model.Summary, error) {
	summary, err := s.orchestrator.Execute(ctx, goal, overrides)
	if writeErr := s.metrics.WriteTextfile(s.config.Metrics.Textfile); writeErr != nil {
		s.logger.Warn("failed to write metrics textfile", zap.String("path", s.config.Metrics.Textfile), zap.Error(writeErr))
	}
	return summary, err
}

// Gateway returns the approval gateway used by approvers.
func (s *Service) Gateway() *approval.Gateway { return s.gateway }

// Registry returns the capability registry.
func (s *Service) Registry() *capability.Registry { return s.registry }

// Metrics returns the service metrics.
func (s *Service) Metrics() *metrics.Metrics { return s.metrics }

// Config returns the effective configuration.
func (s *Service) Config() *Config { return s.config }

// Logger returns the service logger.
func (s *Service) Logger() *zap.Logger { return s.logger }

// Close flushes the logger and the trace exporter.
func (s *Service) Close(ctx context.Context) error {
	_ = s.logger.Sync()
	return tracing.Shutdown(ctx)
}
