// Package progress tracks how far a goal run has got through its
// evaluation loop so that callers can report it while the run blocks on
// remote calls.
package progress
