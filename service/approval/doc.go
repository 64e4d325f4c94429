// Package approval implements the human-in-the-loop approval layer. State
// changing actions are recorded as approval requests that move through a
// one-directional lifecycle:
//
//	pending -> approved -> processed
//	pending -> rejected
//
// Rejected and processed requests are terminal and are never deleted; the
// store doubles as an audit trail. Every transition re-reads the request
// from the store and is applied atomically, so an orchestrator run and an
// approver acting concurrently never lose or double-apply an update.
package approval
