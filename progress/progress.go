// Package progress provides a lightweight tracker that keeps aggregated
// evaluation counters (items total, completed, degraded) for a single goal
// run. The tracker instance lives in the run context – every component that
// receives the context can update the counters via UpdateCtx without
// requiring a global registry.

package progress

import (
	"context"
	"sync"
	"time"
)

// Delta represents an incremental counter change emitted by the orchestrator.
type Delta struct {
	Total     int
	Completed int
	Degraded  int
}

// Counters is a point-in-time copy of a tracker's state.
type Counters struct {
	Goal      string
	StartedAt time.Time

	Total     int
	Completed int
	Degraded  int
}

// Done reports whether every announced item has completed or degraded.
func (c Counters) Done() bool {
	return c.Completed+c.Degraded >= c.Total
}

// Progress keeps aggregated item counters for one goal run. It is safe for
// concurrent use.
type Progress struct {
	mu       sync.Mutex
	counters Counters
	onChange func(Counters)
}

// Update applies the supplied delta to the tracker. If an onChange callback
// has been registered it is invoked with the updated counters outside the
// critical section.
func (p *Progress) Update(d Delta) {
	if p == nil {
		return
	}

	p.mu.Lock()
	p.counters.Total += d.Total
	p.counters.Completed += d.Completed
	p.counters.Degraded += d.Degraded
	snapshot := p.counters
	cb := p.onChange
	p.mu.Unlock()

	if cb != nil {
		cb(snapshot)
	}
}

// Snapshot returns the current counters.
func (p *Progress) Snapshot() Counters {
	if p == nil {
		return Counters{}
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.counters
}

// OnChange registers a callback invoked after every Update. Passing nil
// disables the callback.
func (p *Progress) OnChange(cb func(Counters)) {
	if p == nil {
		return
	}
	p.mu.Lock()
	p.onChange = cb
	p.mu.Unlock()
}

type trackerKeyT struct{}

var trackerKey trackerKeyT

// WithNewTracker creates a new Progress tracker, embeds it in a derived
// context and returns both.
func WithNewTracker(ctx context.Context, goal string, onChange func(Counters)) (context.Context, *Progress) {
	if ctx == nil {
		ctx = context.Background()
	}
	tr := &Progress{
		counters: Counters{Goal: goal, StartedAt: time.Now()},
		onChange: onChange,
	}
	return context.WithValue(ctx, trackerKey, tr), tr
}

// FromContext extracts the Progress tracker from ctx.
func FromContext(ctx context.Context) (*Progress, bool) {
	if ctx == nil {
		return nil, false
	}
	tr, ok := ctx.Value(trackerKey).(*Progress)
	return tr, ok
}

// UpdateCtx looks up the tracker in ctx (if any) and applies the delta.
func UpdateCtx(ctx context.Context, d Delta) {
	if tr, ok := FromContext(ctx); ok {
		tr.Update(d)
	}
}
