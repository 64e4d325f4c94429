package capability

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"sync"
	"time"

	"github.com/viant/planner/internal/logging"
	"github.com/viant/planner/metrics"
	"github.com/viant/planner/tracing"
	"go.uber.org/zap"
)

// Registry holds known capabilities keyed by name.
type Registry struct {
	capabilities map[string]*Capability
	logger       *zap.Logger
	metrics      *metrics.Metrics
	mux          sync.RWMutex
}

// RegistryOption customises a Registry.
type RegistryOption func(*Registry)

// WithLogger sets the registry logger.
func WithLogger(logger *zap.Logger) RegistryOption {
	return func(r *Registry) { r.logger = logger }
}

// WithMetrics records every call on m.
func WithMetrics(m *metrics.Metrics) RegistryOption {
	return func(r *Registry) { r.metrics = m }
}

// NewRegistry creates an empty registry.
func NewRegistry(options ...RegistryOption) *Registry {
	ret := &Registry{capabilities: make(map[string]*Capability)}
	for _, option := range options {
		option(ret)
	}
	ret.logger = logging.OrNop(ret.logger)
	return ret
}

// Register adds a capability. Registering a name twice is an error since
// capabilities are immutable once registered.
func (r *Registry) Register(capability *Capability) error {
	if capability == nil || capability.Name == "" {
		return fmt.Errorf("capability name cannot be empty")
	}
	if capability.Execute == nil {
		return fmt.Errorf("capability %s has no executable", capability.Name)
	}
	r.mux.Lock()
	defer r.mux.Unlock()
	if _, ok := r.capabilities[capability.Name]; ok {
		return fmt.Errorf("capability %s already registered", capability.Name)
	}
	r.capabilities[capability.Name] = capability
	return nil
}

// Lookup returns a capability by name or nil.
func (r *Registry) Lookup(name string) *Capability {
	r.mux.RLock()
	defer r.mux.RUnlock()
	return r.capabilities[name]
}

// Capabilities returns all registered capabilities sorted by name.
func (r *Registry) Capabilities() []*Capability {
	r.mux.RLock()
	ret := make([]*Capability, 0, len(r.capabilities))
	for _, capability := range r.capabilities {
		ret = append(ret, capability)
	}
	r.mux.RUnlock()
	sort.Slice(ret, func(i, j int) bool { return ret[i].Name < ret[j].Name })
	return ret
}

// Invoke validates payload against the capability schema and performs one
// call. Remote failures come back as *CapabilityError, schema violations as
// *ValidationError.
func (r *Registry) Invoke(ctx context.Context, name string, payload Payload) (Result, error) {
	capability := r.Lookup(name)
	if capability == nil {
		return nil, &ValidationError{Capability: name, Reason: "is not registered"}
	}
	input, err := Validate(capability, payload)
	if err != nil {
		return nil, err
	}

	ctx, span := tracing.StartSpan(ctx, "capability."+name, "CLIENT")
	started := time.Now()
	result, err := capability.Execute(ctx, input)
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	tracing.EndSpan(span, err)
	elapsed := time.Since(started)
	r.metrics.ObserveCapability(name, elapsed, err)

	fields := []zap.Field{zap.String("capability", name), zap.Duration("elapsed", elapsed)}
	if err != nil {
		r.logger.Debug("capability call failed", append(fields, zap.Error(err))...)
		if typed, ok := err.(*CapabilityError); ok && typed.Capability == name {
			return nil, typed
		}
		return nil, &CapabilityError{Capability: name, Cause: err}
	}
	r.logger.Debug("capability call completed", fields...)
	if result == nil {
		result = Result{}
	}
	return result, nil
}

// Validate checks payload against the capability schema and returns a copy
// with defaults applied for absent optional parameters.
func Validate(capability *Capability, payload Payload) (Payload, error) {
	ret := make(Payload, len(capability.Parameters))
	for key, value := range payload {
		param, ok := capability.Parameters[key]
		if !ok {
			return nil, &ValidationError{Capability: capability.Name, Parameter: key, Reason: "is not declared"}
		}
		if !matchesType(param.Type, value) {
			return nil, &ValidationError{Capability: capability.Name, Parameter: key, Reason: fmt.Sprintf("must be %s, got %T", param.Type, value)}
		}
		ret[key] = value
	}
	for _, key := range capability.Parameters.Names() {
		param := capability.Parameters[key]
		if _, ok := ret[key]; ok {
			continue
		}
		if param.Required {
			return nil, &ValidationError{Capability: capability.Name, Parameter: key, Reason: "is required"}
		}
		if param.Default != nil {
			ret[key] = param.Default
		}
	}
	return ret, nil
}

func matchesType(kind string, value interface{}) bool {
	if value == nil {
		return false
	}
	switch kind {
	case "":
		return true
	case TypeString:
		_, ok := value.(string)
		return ok
	case TypeBoolean:
		_, ok := value.(bool)
		return ok
	case TypeInteger:
		switch actual := value.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
			return true
		case float64:
			return actual == float64(int64(actual))
		case float32:
			return actual == float32(int64(actual))
		}
		return false
	case TypeNumber:
		switch value.(type) {
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
			return true
		}
		return false
	case TypeObject:
		return reflect.TypeOf(value).Kind() == reflect.Map
	case TypeArray:
		kind := reflect.TypeOf(value).Kind()
		return kind == reflect.Slice || kind == reflect.Array
	}
	return false
}
