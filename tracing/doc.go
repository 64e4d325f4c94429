// Package tracing integrates OpenTelemetry with the planner so that goal
// runs, capability calls and approval transitions can be followed as spans.
// Without Init the global no-op provider is used and spans cost nothing.
package tracing
