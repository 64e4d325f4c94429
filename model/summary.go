package model

import (
	"fmt"
	"strings"
)

// OutcomeKind classifies how a run ended.
type OutcomeKind string

const (
	OutcomeNothingToDo          OutcomeKind = "nothing_to_do"
	OutcomeNoActionNeeded       OutcomeKind = "no_action_needed"
	OutcomePendingApproval      OutcomeKind = "pending_approval"
	OutcomeChangeRequestCreated OutcomeKind = "change_request_created"
	OutcomeBlockedByPolicy      OutcomeKind = "blocked_by_policy"
)

// Outcome is the final decision of a run.
type Outcome struct {
	Kind          OutcomeKind    `json:"kind" yaml:"kind"`
	RequestID     string         `json:"requestId,omitempty" yaml:"requestId,omitempty"`
	ChangeRequest *ChangeRequest `json:"changeRequest,omitempty" yaml:"changeRequest,omitempty"`
	Message       string         `json:"message,omitempty" yaml:"message,omitempty"`
}

// Summary aggregates everything a run produced.
type Summary struct {
	Intent        *Intent         `json:"intent" yaml:"intent"`
	Conversations []*Conversation `json:"conversations,omitempty" yaml:"conversations,omitempty"`
	Evaluations   []*Evaluation   `json:"evaluations,omitempty" yaml:"evaluations,omitempty"`
	AverageScore  *float64        `json:"averageScore,omitempty" yaml:"averageScore,omitempty"`
	Outcome       Outcome         `json:"outcome" yaml:"outcome"`
	Caveats       []string        `json:"caveats,omitempty" yaml:"caveats,omitempty"`
}

// Retrieved returns the number of retrieved conversations.
func (s *Summary) Retrieved() int {
	return len(s.Conversations)
}

// Scores returns the scores of non-degraded evaluations in order.
func (s *Summary) Scores() []int {
	var scores []int
	for _, e := range s.Evaluations {
		if !e.Degraded {
			scores = append(scores, e.Score)
		}
	}
	return scores
}

// Degraded returns the number of evaluations that could not be obtained.
func (s *Summary) Degraded() int {
	count := 0
	for _, e := range s.Evaluations {
		if e.Degraded {
			count++
		}
	}
	return count
}

// String renders a human-readable report.
func (s *Summary) String() string {
	var b strings.Builder
	if s.Intent != nil && s.Intent.Goal != "" {
		fmt.Fprintf(&b, "Goal: %s\n", s.Intent.Goal)
	}
	if s.Outcome.Kind == OutcomeNothingToDo {
		fmt.Fprintf(&b, "Retrieved 0 conversations - nothing to do\n")
		return b.String()
	}
	fmt.Fprintf(&b, "Retrieved %d conversations\n", s.Retrieved())

	if s.listConversations() {
		for _, c := range s.Conversations {
			fmt.Fprintf(&b, "\n[%s] %s\nQ: %s\nA: %s\n", c.ID, c.Timestamp, c.UserMessage, c.BotResponse)
		}
	}

	if len(s.Evaluations) > 0 {
		fmt.Fprintf(&b, "\nEvaluation Results:\n")
		if s.AverageScore != nil {
			fmt.Fprintf(&b, "Average score: %.1f/5\n", *s.AverageScore)
		} else {
			fmt.Fprintf(&b, "Average score: no score available\n")
		}
		for _, e := range s.Evaluations {
			if e.Degraded {
				fmt.Fprintf(&b, "[%s] degraded: %s\n", e.ConversationID, e.Error)
				continue
			}
			fmt.Fprintf(&b, "[%s] Score: %d/5\n", e.ConversationID, e.Score)
			if e.Comment != "" {
				fmt.Fprintf(&b, "Comment: %s\n", truncate(e.Comment, 100))
			}
		}
	}

	b.WriteString("\n")
	b.WriteString(s.Outcome.describe())
	b.WriteString("\n")
	for _, caveat := range s.Caveats {
		fmt.Fprintf(&b, "Caveat: %s\n", caveat)
	}
	return b.String()
}

func (s *Summary) listConversations() bool {
	if s.Intent == nil {
		return true
	}
	return s.Intent.ShowConversations || !s.Intent.NeedsEvaluation
}

func (o Outcome) describe() string {
	switch o.Kind {
	case OutcomeNoActionNeeded:
		return "No action needed"
	case OutcomePendingApproval:
		return fmt.Sprintf("Change request waiting for approval (request %s)", o.RequestID)
	case OutcomeChangeRequestCreated:
		if o.ChangeRequest != nil {
			return fmt.Sprintf("Created change request #%d: %s", o.ChangeRequest.Number, o.ChangeRequest.URL)
		}
		return "Created change request"
	case OutcomeBlockedByPolicy:
		return "Change request blocked by policy: " + o.Message
	}
	return string(o.Kind)
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}
