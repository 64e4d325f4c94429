package planner

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
	"github.com/viant/planner/internal/logging"
	"github.com/viant/planner/policy"
	"github.com/viant/planner/service/capability"
	"github.com/viant/planner/service/capability/github"
	"github.com/viant/planner/service/capability/remote"
	"github.com/viant/planner/service/orchestrator"
)

// EnvPrefix prefixes environment overrides, e.g. PLANNER_APPROVAL_DIR.
const EnvPrefix = "PLANNER_"

// Config is a serialisable representation of the planner configuration. The
// zero-value of every section inherits its package defaults.
type Config struct {
	Capabilities CapabilitiesConfig       `json:"capabilities" yaml:"capabilities" koanf:"capabilities"`
	Retry        orchestrator.RetryConfig `json:"retry" yaml:"retry" koanf:"retry"`
	Approval     ApprovalConfig           `json:"approval" yaml:"approval" koanf:"approval"`
	Policy       policy.Config            `json:"policy" yaml:"policy" koanf:"policy"`
	Logging      logging.Config           `json:"logging" yaml:"logging" koanf:"logging"`
	Tracing      TracingConfig            `json:"tracing" yaml:"tracing" koanf:"tracing"`
	Metrics      MetricsConfig            `json:"metrics" yaml:"metrics" koanf:"metrics"`
	GitHub       github.Config            `json:"github" yaml:"github" koanf:"github"`
}

// CapabilitiesConfig holds remote capability endpoints.
type CapabilitiesConfig struct {
	Timeout               time.Duration `json:"timeout" yaml:"timeout" koanf:"timeout"`
	APIKey                string        `json:"-" yaml:"-" koanf:"api_key"`
	RetrieveConversations string        `json:"retrieveConversations" yaml:"retrieveConversations" koanf:"retrieve_conversations"`
	EvaluateResponse      string        `json:"evaluateResponse" yaml:"evaluateResponse" koanf:"evaluate_response"`
	SubmitChangeRequest   string        `json:"submitChangeRequest" yaml:"submitChangeRequest" koanf:"submit_change_request"`
	RateLimit             float64       `json:"rateLimit,omitempty" yaml:"rateLimit,omitempty" koanf:"rate_limit"`
	Burst                 int           `json:"burst,omitempty" yaml:"burst,omitempty" koanf:"burst"`
}

// Endpoints maps capability names to configured endpoints.
func (c *CapabilitiesConfig) Endpoints() map[string]string {
	return map[string]string{
		capability.RetrieveConversations: c.RetrieveConversations,
		capability.EvaluateResponse:      c.EvaluateResponse,
		capability.SubmitChangeRequest:   c.SubmitChangeRequest,
	}
}

// ApprovalConfig locates the approval store.
type ApprovalConfig struct {
	Dir      string        `json:"dir" yaml:"dir" koanf:"dir"`
	LockWait time.Duration `json:"lockWait" yaml:"lockWait" koanf:"lock_wait"`
}

// MetricsConfig selects where Prometheus metrics are dumped after each run.
type MetricsConfig struct {
	Textfile string `json:"textfile,omitempty" yaml:"textfile,omitempty" koanf:"textfile"`
}

// TracingConfig enables the stdout span exporter.
type TracingConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled" koanf:"enabled"`
	Output  string `json:"output,omitempty" yaml:"output,omitempty" koanf:"output"`
}

// DefaultConfig returns a Config populated with the package defaults.
// Callers may modify the returned struct before passing it to New.
func DefaultConfig() *Config {
	return &Config{
		Capabilities: CapabilitiesConfig{Timeout: remote.DefaultTimeout},
		Retry:        *orchestrator.DefaultRetryConfig(),
		Approval:     ApprovalConfig{Dir: "./approval_requests", LockWait: 5 * time.Second},
		Policy:       policy.Config{Mode: policy.ModeAsk},
		Logging:      logging.DefaultConfig(),
	}
}

// Validate returns an error describing the first invalid setting or nil.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	if c.Capabilities.Timeout < 0 {
		return fmt.Errorf("capabilities.timeout must be >= 0")
	}
	if c.Capabilities.RateLimit < 0 {
		return fmt.Errorf("capabilities.rate_limit must be >= 0")
	}
	if c.Retry.MaxAttempts < 0 {
		return fmt.Errorf("retry.max_attempts must be >= 0")
	}
	if strings.TrimSpace(c.Approval.Dir) == "" {
		return fmt.Errorf("approval.dir cannot be empty")
	}
	if err := c.Policy.Validate(); err != nil {
		return fmt.Errorf("policy: %w", err)
	}
	if err := c.Logging.Validate(); err != nil {
		return err
	}
	return c.GitHub.Validate()
}

// LoadConfig reads the YAML file at path (optional) over the defaults, then
// applies PLANNER_ prefixed environment overrides:
//
//	PLANNER_APPROVAL_DIR                        -> approval.dir
//	PLANNER_CAPABILITIES_RETRIEVE_CONVERSATIONS -> capabilities.retrieve_conversations
//	PLANNER_POLICY_MODE                         -> policy.mode
func LoadConfig(path string) (*Config, error) {
	k := koanf.New(".")
	if path != "" {
		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err = k.Load(rawbytes.Provider(content), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	// Split on the first underscore only: section.field_name
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		lower := strings.ToLower(strings.TrimPrefix(s, EnvPrefix))
		parts := strings.SplitN(lower, "_", 2)
		if len(parts) == 1 {
			return lower
		}
		return parts[0] + "." + parts[1]
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	cfg := DefaultConfig()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return cfg, nil
}
