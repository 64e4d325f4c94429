package github

import (
	"fmt"
	"os"
)

const (
	DefaultBase         = "main"
	DefaultPath         = "prompts/system_prompt.txt"
	DefaultBranchPrefix = "prompt-update"
	TokenEnv            = "GITHUB_TOKEN"
)

// Config selects the repository holding the governed prompt.
type Config struct {
	Owner        string `json:"owner,omitempty" yaml:"owner,omitempty" koanf:"owner"`
	Repo         string `json:"repo,omitempty" yaml:"repo,omitempty" koanf:"repo"`
	Base         string `json:"base,omitempty" yaml:"base,omitempty" koanf:"base"`
	Path         string `json:"path,omitempty" yaml:"path,omitempty" koanf:"path"`
	BranchPrefix string `json:"branchPrefix,omitempty" yaml:"branchPrefix,omitempty" koanf:"branch_prefix"`
	Token        string `json:"-" yaml:"-" koanf:"token"`
	APIURL       string `json:"apiURL,omitempty" yaml:"apiURL,omitempty" koanf:"api_url"`
}

// Enabled reports whether a repository is configured.
func (c *Config) Enabled() bool {
	return c != nil && c.Owner != "" && c.Repo != ""
}

// Init applies defaults; the token falls back to GITHUB_TOKEN.
func (c *Config) Init() {
	if c.Base == "" {
		c.Base = DefaultBase
	}
	if c.Path == "" {
		c.Path = DefaultPath
	}
	if c.BranchPrefix == "" {
		c.BranchPrefix = DefaultBranchPrefix
	}
	if c.Token == "" {
		c.Token = os.Getenv(TokenEnv)
	}
}

// Validate checks that owner and repo are set together.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	if (c.Owner == "") != (c.Repo == "") {
		return fmt.Errorf("github: owner and repo must be set together")
	}
	return nil
}
