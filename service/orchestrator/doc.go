// Package orchestrator turns a free-text goal into a sequence of capability
// calls: conversations are retrieved, optionally evaluated one by one in
// retrieval order, and a change request is proposed when scores are low or
// the goal asks for one. Change requests never reach the submitting
// capability directly; they are routed through the approval gateway and
// submitted only once a human (or the policy) has approved them.
package orchestrator
