package approval

import "context"

// Mutation changes a freshly loaded request. Returning an error aborts the
// update and nothing is written.
type Mutation func(r *Request) error

// Store persists approval requests.
type Store interface {
	// Create persists a new request; ErrDuplicateID if the id exists.
	Create(ctx context.Context, r *Request) error

	// Load returns a request by id; ErrNotFound if absent.
	Load(ctx context.Context, id string) (*Request, error)

	// List returns all requests in no particular order.
	List(ctx context.Context) ([]*Request, error)

	// Update re-reads the request, applies mutate and atomically persists
	// the result. Updates of the same id are serialized.
	Update(ctx context.Context, id string, mutate Mutation) (*Request, error)
}
