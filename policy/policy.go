// Package policy provides a simple per-action approval layer. A Policy can be
// configured once for the gateway or attached to a single run via context,
// which takes precedence.

package policy

import (
	"context"
	"fmt"
	"strings"
)

// Modes recognised by the approval gateway.
const (
	ModeAsk  = "ask"  // hold every action for a human decision (default)
	ModeAuto = "auto" // approve automatically, recording a note
	ModeDeny = "deny" // block execution
)

// Policy represents the approval settings for a gateway or a single run.
//
//   - Mode controls the high-level behaviour (ask / auto / deny).
//   - AllowList, BlockList allow coarse filtering regardless of Mode.
//
// A nil *Policy means "ask before every action".
type Policy struct {
	Mode      string   // ask / auto / deny      (default = ask)
	AllowList []string // whitelist (empty => all)
	BlockList []string // blacklist
}

// Config represents the serialisable form of a Policy.
type Config struct {
	Mode      string   `json:"mode,omitempty" yaml:"mode,omitempty" koanf:"mode"`
	AllowList []string `json:"allow,omitempty" yaml:"allow,omitempty" koanf:"allow"`
	BlockList []string `json:"block,omitempty" yaml:"block,omitempty" koanf:"block"`
}

// Validate checks the configured mode.
func (c *Config) Validate() error {
	if c == nil {
		return nil
	}
	_, err := ParseMode(c.Mode)
	return err
}

// ParseMode normalises a mode name; empty text yields ModeAsk.
func ParseMode(text string) (string, error) {
	mode := strings.ToLower(strings.TrimSpace(text))
	switch mode {
	case "":
		return ModeAsk, nil
	case ModeAsk, ModeAuto, ModeDeny:
		return mode, nil
	}
	return "", fmt.Errorf("unsupported policy mode %q, expected one of %s, %s, %s", text, ModeAsk, ModeAuto, ModeDeny)
}

// ToConfig converts a runtime Policy into a persistable Config.
func ToConfig(p *Policy) *Config {
	if p == nil {
		return nil
	}
	return &Config{
		Mode:      p.Mode,
		AllowList: append([]string(nil), p.AllowList...),
		BlockList: append([]string(nil), p.BlockList...),
	}
}

// FromConfig converts a stored Config back to a runtime Policy.
func FromConfig(c *Config) *Policy {
	if c == nil {
		return nil
	}
	return &Policy{
		Mode:      c.Mode,
		AllowList: append([]string(nil), c.AllowList...),
		BlockList: append([]string(nil), c.BlockList...),
	}
}

// IsAllowed evaluates AllowList / BlockList. Both lists match the action name
// case-insensitively.
func (p *Policy) IsAllowed(action string) bool {
	if p == nil {
		return true
	}

	normalized := strings.ToLower(action)

	// BlockList has priority.
	for _, b := range p.BlockList {
		if normalized == strings.ToLower(b) {
			return false
		}
	}

	if len(p.AllowList) == 0 {
		return true
	}

	for _, a := range p.AllowList {
		if normalized == strings.ToLower(a) {
			return true
		}
	}

	return false
}

// ModeFor returns the effective mode for action. Filtered actions are
// denied; an unknown mode falls back to ask.
func (p *Policy) ModeFor(action string) string {
	if !p.IsAllowed(action) {
		return ModeDeny
	}
	if p == nil {
		return ModeAsk
	}
	mode, err := ParseMode(p.Mode)
	if err != nil {
		return ModeAsk
	}
	return mode
}

type ctxKeyT struct{}

var ctxKey ctxKeyT

// WithPolicy embeds policy in ctx.
func WithPolicy(ctx context.Context, p *Policy) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, ctxKey, p)
}

// FromContext extracts the policy embedded in ctx, or nil.
func FromContext(ctx context.Context) *Policy {
	if ctx == nil {
		return nil
	}
	if v, ok := ctx.Value(ctxKey).(*Policy); ok {
		return v
	}
	return nil
}
