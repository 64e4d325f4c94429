package approval

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/viant/planner/internal/clock"
	"github.com/viant/planner/internal/idgen"
	"github.com/viant/planner/internal/logging"
	"github.com/viant/planner/metrics"
	"github.com/viant/planner/policy"
	"github.com/viant/planner/tracing"
	"go.uber.org/zap"
)

// AutoApprovalNote is recorded on requests approved by policy.
const AutoApprovalNote = "auto-approved by policy"

var errAlreadyProcessed = errors.New("already processed")

// Gateway is the interception point for state changing actions. It creates,
// decides, looks up and consumes approval requests kept in a Store.
type Gateway struct {
	store   Store
	policy  *policy.Policy
	logger  *zap.Logger
	metrics *metrics.Metrics
	now     func() time.Time
	newID   func() string
}

// New creates a gateway backed by store.
func New(store Store, options ...Option) *Gateway {
	ret := &Gateway{store: store, now: clock.Now, newID: idgen.NewRequestID}
	for _, option := range options {
		option(ret)
	}
	ret.logger = logging.OrNop(ret.logger)
	return ret
}

// Mode returns the policy mode that applies to action in ctx.
func (g *Gateway) Mode(ctx context.Context, action string) string {
	p := policy.FromContext(ctx)
	if p == nil {
		p = g.policy
	}
	return p.ModeFor(action)
}

// Create records a new pending request. The reason is kept in the payload
// under "reason" unless the payload already carries one.
func (g *Gateway) Create(ctx context.Context, action string, payload map[string]interface{}, reason string) (ret *Request, err error) {
	ctx, span := tracing.StartSpan(ctx, "approval.create", "INTERNAL")
	defer func() { tracing.EndSpan(span, err) }()
	span.WithAttributes(map[string]string{"action": action})

	if action == "" {
		return nil, fmt.Errorf("approval action cannot be empty")
	}
	if g.Mode(ctx, action) == policy.ModeDeny {
		return nil, fmt.Errorf("%w: %s", ErrPolicyDenied, action)
	}
	data := make(map[string]interface{}, len(payload)+1)
	for k, v := range payload {
		data[k] = v
	}
	if _, ok := data["reason"]; !ok && reason != "" {
		data["reason"] = reason
	}
	ret = &Request{
		ID:        g.newID(),
		Action:    action,
		Payload:   data,
		Status:    StatusPending,
		CreatedAt: g.now(),
	}
	if err = g.store.Create(ctx, ret); err != nil {
		return nil, err
	}
	g.metrics.ObserveTransition(action, string(StatusPending))
	g.logger.Info("approval request created",
		zap.String("request_id", ret.ID),
		zap.String("action", action))
	return ret, nil
}

// Decide approves or rejects a pending request.
func (g *Gateway) Decide(ctx context.Context, id string, outcome Status, notes string) (ret *Request, err error) {
	ctx, span := tracing.StartSpan(ctx, "approval.decide", "INTERNAL")
	defer func() { tracing.EndSpan(span, err) }()
	span.WithAttributes(map[string]string{"request_id": id, "outcome": string(outcome)})

	if outcome != StatusApproved && outcome != StatusRejected {
		return nil, fmt.Errorf("%w: decision must be %s or %s, got %q", ErrInvalidTransition, StatusApproved, StatusRejected, outcome)
	}
	at := g.now()
	ret, err = g.store.Update(ctx, id, func(r *Request) error {
		return r.transition(outcome, at, notes)
	})
	if err != nil {
		return nil, err
	}
	g.metrics.ObserveTransition(ret.Action, string(ret.Status))
	g.logger.Info("approval request decided",
		zap.String("request_id", id),
		zap.String("status", string(ret.Status)))
	return ret, nil
}

// MarkProcessed consumes an approved request. Processing an already
// processed request is a no-op.
func (g *Gateway) MarkProcessed(ctx context.Context, id string) (err error) {
	ctx, span := tracing.StartSpan(ctx, "approval.mark_processed", "INTERNAL")
	defer func() { tracing.EndSpan(span, err) }()
	span.WithAttributes(map[string]string{"request_id": id})

	at := g.now()
	ret, err := g.store.Update(ctx, id, func(r *Request) error {
		if r.Status == StatusProcessed {
			return errAlreadyProcessed
		}
		return r.transition(StatusProcessed, at, "")
	})
	if errors.Is(err, errAlreadyProcessed) {
		return nil
	}
	if err != nil {
		return err
	}
	g.metrics.ObserveTransition(ret.Action, string(StatusProcessed))
	g.logger.Info("approval request processed", zap.String("request_id", id))
	return nil
}

// FindApprovedUnprocessed returns the oldest approved request for action or
// nil when there is none.
func (g *Gateway) FindApprovedUnprocessed(ctx context.Context, action string) (*Request, error) {
	return g.oldest(ctx, action, StatusApproved)
}

// FindPending returns the oldest pending request for action or nil.
func (g *Gateway) FindPending(ctx context.Context, action string) (*Request, error) {
	return g.oldest(ctx, action, StatusPending)
}

func (g *Gateway) oldest(ctx context.Context, action string, status Status) (*Request, error) {
	requests, err := g.List(ctx, status)
	if err != nil {
		return nil, err
	}
	for i := len(requests) - 1; i >= 0; i-- {
		if requests[i].Action == action {
			return requests[i], nil
		}
	}
	return nil, nil
}

// List returns requests newest first, optionally restricted to statuses.
func (g *Gateway) List(ctx context.Context, statuses ...Status) ([]*Request, error) {
	all, err := g.store.List(ctx)
	if err != nil {
		return nil, err
	}
	ret := make([]*Request, 0, len(all))
	for _, r := range all {
		if matchesStatus(r.Status, statuses) {
			ret = append(ret, r)
		}
	}
	sort.SliceStable(ret, func(i, j int) bool {
		if ret[i].CreatedAt.Equal(ret[j].CreatedAt) {
			return ret[i].ID > ret[j].ID
		}
		return ret[i].CreatedAt.After(ret[j].CreatedAt)
	})
	return ret, nil
}

func matchesStatus(status Status, statuses []Status) bool {
	if len(statuses) == 0 {
		return true
	}
	for _, candidate := range statuses {
		if candidate == status {
			return true
		}
	}
	return false
}

// Get returns a single request.
func (g *Gateway) Get(ctx context.Context, id string) (*Request, error) {
	return g.store.Load(ctx, id)
}

// Gate routes a state changing action through the policy. With ask the
// oldest pending request carrying the same payload is reused, otherwise a
// new one is created. With auto a new request is created and approved
// straight away. With deny ErrPolicyDenied is returned. Callers execute the
// action only when the returned request is approved.
func (g *Gateway) Gate(ctx context.Context, action string, payload map[string]interface{}, reason string) (*Request, error) {
	switch g.Mode(ctx, action) {
	case policy.ModeDeny:
		return nil, fmt.Errorf("%w: %s", ErrPolicyDenied, action)
	case policy.ModeAuto:
		created, err := g.Create(ctx, action, payload, reason)
		if err != nil {
			return nil, err
		}
		return g.Decide(ctx, created.ID, StatusApproved, AutoApprovalNote)
	}
	pending, err := g.List(ctx, StatusPending)
	if err != nil {
		return nil, err
	}
	for i := len(pending) - 1; i >= 0; i-- {
		if candidate := pending[i]; candidate.Action == action && samePayload(candidate.Payload, payload) {
			g.logger.Info("reusing pending approval request",
				zap.String("request_id", candidate.ID),
				zap.String("action", action))
			return candidate, nil
		}
	}
	return g.Create(ctx, action, payload, reason)
}

// samePayload compares payloads ignoring the reason, which changes with
// every evaluation.
func samePayload(stored, payload map[string]interface{}) bool {
	count := 0
	for k, v := range payload {
		if k == "reason" {
			continue
		}
		count++
		if fmt.Sprint(stored[k]) != fmt.Sprint(v) {
			return false
		}
	}
	for k := range stored {
		if k != "reason" {
			count--
		}
	}
	return count == 0
}
