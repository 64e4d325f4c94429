package approval

import (
	"fmt"
	"strings"
	"time"
)

// Status is the lifecycle state of a request.
type Status string

const (
	StatusPending   Status = "pending"
	StatusApproved  Status = "approved"
	StatusRejected  Status = "rejected"
	StatusProcessed Status = "processed"
)

// ParseStatus converts text into a Status.
func ParseStatus(text string) (Status, error) {
	status := Status(strings.ToLower(strings.TrimSpace(text)))
	switch status {
	case StatusPending, StatusApproved, StatusRejected, StatusProcessed:
		return status, nil
	}
	return "", fmt.Errorf("unknown status %q", text)
}

// Terminal reports whether no further transition is permitted.
func (s Status) Terminal() bool {
	return s == StatusRejected || s == StatusProcessed
}

// Request is a durable record gating a state changing action.
type Request struct {
	ID          string                 `json:"request_id" yaml:"requestId"`
	Action      string                 `json:"action" yaml:"action"`
	Payload     map[string]interface{} `json:"payload,omitempty" yaml:"payload,omitempty"`
	Status      Status                 `json:"status" yaml:"status"`
	CreatedAt   time.Time              `json:"created_at" yaml:"createdAt"`
	DecidedAt   *time.Time             `json:"decided_at,omitempty" yaml:"decidedAt,omitempty"`
	Notes       string                 `json:"notes,omitempty" yaml:"notes,omitempty"`
	ProcessedAt *time.Time             `json:"processed_at,omitempty" yaml:"processedAt,omitempty"`
}

// Reason returns the reason recorded in the payload.
func (r *Request) Reason() string {
	if r == nil || r.Payload == nil {
		return ""
	}
	reason, _ := r.Payload["reason"].(string)
	return reason
}

// Clone returns a deep enough copy for stores that keep requests in memory.
func (r *Request) Clone() *Request {
	if r == nil {
		return nil
	}
	ret := *r
	if r.Payload != nil {
		ret.Payload = make(map[string]interface{}, len(r.Payload))
		for k, v := range r.Payload {
			ret.Payload[k] = v
		}
	}
	if r.DecidedAt != nil {
		decidedAt := *r.DecidedAt
		ret.DecidedAt = &decidedAt
	}
	if r.ProcessedAt != nil {
		processedAt := *r.ProcessedAt
		ret.ProcessedAt = &processedAt
	}
	return &ret
}

// transition applies a lifecycle change. Only pending->approved|rejected and
// approved->processed are allowed.
func (r *Request) transition(to Status, at time.Time, notes string) error {
	switch {
	case r.Status == StatusPending && (to == StatusApproved || to == StatusRejected):
		r.Status = to
		r.DecidedAt = &at
		if notes != "" {
			r.Notes = notes
		}
		return nil
	case r.Status == StatusApproved && to == StatusProcessed:
		r.Status = to
		r.ProcessedAt = &at
		return nil
	}
	return fmt.Errorf("%w: request %s is %s, cannot become %s", ErrInvalidTransition, r.ID, r.Status, to)
}
