package model

// DefaultItemCount is used when a goal does not name how many conversations
// to look at.
const DefaultItemCount = 5

// ThresholdScope tells how a goal-supplied threshold is applied.
type ThresholdScope string

const (
	// ThresholdAverage compares the average score with the threshold.
	ThresholdAverage ThresholdScope = "average"
	// ThresholdAny triggers when any single score is below the threshold.
	ThresholdAny ThresholdScope = "any"
)

// Threshold is a score threshold stated in the goal text itself, e.g.
// "create a PR if any score is below 3".
type Threshold struct {
	Value float64        `json:"value" yaml:"value"`
	Scope ThresholdScope `json:"scope" yaml:"scope"`
}

// Intent is the structured interpretation of a goal. It is derived once per
// run and never mutated afterwards.
type Intent struct {
	Goal               string     `json:"goal" yaml:"goal"`
	ItemCount          int        `json:"itemCount" yaml:"itemCount"`
	NeedsEvaluation    bool       `json:"needsEvaluation" yaml:"needsEvaluation"`
	NeedsChangeRequest bool       `json:"needsChangeRequest" yaml:"needsChangeRequest"`
	ShowConversations  bool       `json:"showConversations,omitempty" yaml:"showConversations,omitempty"`
	Threshold          *Threshold `json:"threshold,omitempty" yaml:"threshold,omitempty"`
}
