package approval

import "errors"

var (
	// ErrNotFound is returned when the request id is unknown.
	ErrNotFound = errors.New("approval request not found")

	// ErrInvalidTransition is returned when a request is not in a state
	// that allows the requested change.
	ErrInvalidTransition = errors.New("invalid approval transition")

	// ErrInvalidID indicates an empty request id.
	ErrInvalidID = errors.New("invalid approval request id")

	// ErrDuplicateID is returned when creating a request whose id exists.
	ErrDuplicateID = errors.New("approval request already exists")

	// ErrPolicyDenied is returned when the policy blocks an action.
	ErrPolicyDenied = errors.New("action denied by policy")
)
