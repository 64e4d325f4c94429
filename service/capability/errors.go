package capability

import (
	"errors"
	"fmt"
)

// ValidationError reports a malformed or missing parameter, or an unknown
// capability. It is never retried.
type ValidationError struct {
	Capability string
	Parameter  string
	Reason     string
}

func (e *ValidationError) Error() string {
	if e.Parameter == "" {
		return fmt.Sprintf("capability %s: %s", e.Capability, e.Reason)
	}
	return fmt.Sprintf("capability %s: parameter %q %s", e.Capability, e.Parameter, e.Reason)
}

// CapabilityError reports a failed or timed out remote call.
type CapabilityError struct {
	Capability string
	Cause      error
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("capability %s failed: %v", e.Capability, e.Cause)
}

func (e *CapabilityError) Unwrap() error { return e.Cause }

// IsValidation reports whether err carries a ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

// IsCapability reports whether err carries a CapabilityError.
func IsCapability(err error) bool {
	var target *CapabilityError
	return errors.As(err, &target)
}
