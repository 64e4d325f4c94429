// Package memory provides an in-process approval store, used by tests and by
// single-run setups that need no durability.
package memory

import (
	"context"
	"fmt"
	"sync"

	"github.com/viant/planner/service/approval"
)

// Store keeps requests in a map guarded by a mutex. Requests are cloned on
// the way in and out so callers never share state with the store.
type Store struct {
	mu      sync.RWMutex
	records map[string]*approval.Request
}

var _ approval.Store = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{records: make(map[string]*approval.Request)}
}

// Create stores a new request.
func (s *Store) Create(_ context.Context, r *approval.Request) error {
	if r == nil || r.ID == "" {
		return approval.ErrInvalidID
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[r.ID]; ok {
		return fmt.Errorf("%w: %s", approval.ErrDuplicateID, r.ID)
	}
	s.records[r.ID] = r.Clone()
	return nil
}

// Load returns a request by id.
func (s *Store) Load(_ context.Context, id string) (*approval.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", approval.ErrNotFound, id)
	}
	return r.Clone(), nil
}

// List returns all stored requests.
func (s *Store) List(_ context.Context) ([]*approval.Request, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*approval.Request, 0, len(s.records))
	for _, r := range s.records {
		out = append(out, r.Clone())
	}
	return out, nil
}

// Update applies mutate under the store lock.
func (s *Store) Update(_ context.Context, id string, mutate approval.Mutation) (*approval.Request, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.records[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", approval.ErrNotFound, id)
	}
	updated := r.Clone()
	if err := mutate(updated); err != nil {
		return nil, err
	}
	s.records[id] = updated
	return updated.Clone(), nil
}
