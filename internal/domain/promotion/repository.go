// internal/domain/promotion/repository.go
package promotion

import "context"

// MutateFunc edits a promotion in place during an update. Returning an error
// aborts the update and leaves the stored record untouched.
type MutateFunc func(p *Promotion) error

// Repository stores promotions keyed by id. Unknown ids yield xerrors.ErrNotFound.
type Repository interface {
	// List returns every promotion in insertion order.
	List(ctx context.Context) ([]*Promotion, error)
	FindByID(ctx context.Context, id string) (*Promotion, error)
	Create(ctx context.Context, p *Promotion) error
	// Update loads the record, applies mutate and persists the result atomically.
	Update(ctx context.Context, id string, mutate MutateFunc) (*Promotion, error)
	Delete(ctx context.Context, id string) error
}

// IDGenerator hands out unique promotion ids.
type IDGenerator interface {
	NewID() string
}
