// Package capability defines remote capabilities (named operations with a
// declared parameter schema) and the registry the orchestrator uses to
// validate and dispatch calls to them.
//
// The registry performs exactly one outbound call per Invoke; retry policy
// belongs to the caller.
package capability
