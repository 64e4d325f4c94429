// Package model holds the values a planner run produces: the parsed intent,
// the retrieved conversations, their evaluations and the run summary.
package model
