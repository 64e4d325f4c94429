package capability

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
)

// Parameter types recognised by schema validation.
const (
	TypeString  = "string"
	TypeInteger = "integer"
	TypeNumber  = "number"
	TypeBoolean = "boolean"
	TypeObject  = "object"
	TypeArray   = "array"
)

// Parameter describes one payload field.
type Parameter struct {
	Type        string      `json:"type" yaml:"type"`
	Description string      `json:"description,omitempty" yaml:"description,omitempty"`
	Required    bool        `json:"required,omitempty" yaml:"required,omitempty"`
	Default     interface{} `json:"default,omitempty" yaml:"default,omitempty"`
}

// Schema maps parameter name to its declaration.
type Schema map[string]*Parameter

// Names returns parameter names in sorted order.
func (s Schema) Names() []string {
	names := make([]string, 0, len(s))
	for name := range s {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Payload is the structured input of a capability call.
type Payload map[string]interface{}

// Result is the structured output of a capability call.
type Result map[string]interface{}

// Decode converts the result into dest, honouring dest's json tags.
func (r Result) Decode(dest interface{}) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to encode result: %w", err)
	}
	if err = json.Unmarshal(data, dest); err != nil {
		return fmt.Errorf("failed to decode result into %T: %w", dest, err)
	}
	return nil
}

// Executable performs the call behind a capability.
type Executable func(ctx context.Context, payload Payload) (Result, error)

// Invoker is implemented by transports able to reach a remote capability.
type Invoker interface {
	Invoke(ctx context.Context, payload Payload) (Result, error)
}

// Capability is a named remote operation. It is immutable once registered.
type Capability struct {
	Name        string
	Description string
	Parameters  Schema
	Execute     Executable
}

// New creates a capability backed by an Invoker.
func New(name, description string, parameters Schema, invoker Invoker) *Capability {
	return &Capability{Name: name, Description: description, Parameters: parameters, Execute: invoker.Invoke}
}

// NewFunc creates a capability backed by a plain function.
func NewFunc(name, description string, parameters Schema, fn Executable) *Capability {
	return &Capability{Name: name, Description: description, Parameters: parameters, Execute: fn}
}
