// Package policy provides declarative rules deciding how a state changing
// action is gated: held for a human decision, approved automatically or
// blocked outright.
package policy
