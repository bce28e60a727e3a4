// internal/repository/memory/promotion_repo.go
package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"tiffin-promotions/internal/domain/promotion"
	xerrors "tiffin-promotions/internal/pkg/errors"
)

// PromotionRepository keeps promotions in process memory in insertion order.
// Nothing survives a restart.
type PromotionRepository struct {
	mu    sync.RWMutex
	items []*promotion.Promotion
	index map[string]int
}

func NewPromotionRepository(seed ...*promotion.Promotion) *PromotionRepository {
	r := &PromotionRepository{
		items: make([]*promotion.Promotion, 0, len(seed)),
		index: make(map[string]int, len(seed)),
	}
	for _, p := range seed {
		r.index[p.ID] = len(r.items)
		r.items = append(r.items, p.Clone())
	}
	return r
}

// List returns copies of every promotion in insertion order.
func (r *PromotionRepository) List(ctx context.Context) ([]*promotion.Promotion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*promotion.Promotion, 0, len(r.items))
	for _, p := range r.items {
		out = append(out, p.Clone())
	}
	return out, nil
}

func (r *PromotionRepository) FindByID(ctx context.Context, id string) (*promotion.Promotion, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	i, ok := r.index[strings.TrimSpace(id)]
	if !ok {
		return nil, xerrors.ErrNotFound
	}
	return r.items[i].Clone(), nil
}

func (r *PromotionRepository) Create(ctx context.Context, p *promotion.Promotion) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if p.ID == "" {
		return fmt.Errorf("failed to create promotion: missing id")
	}
	if _, exists := r.index[p.ID]; exists {
		return fmt.Errorf("failed to create promotion %s: %w", p.ID, xerrors.ErrAlreadyExists)
	}

	r.index[p.ID] = len(r.items)
	r.items = append(r.items, p.Clone())
	return nil
}

// Update runs mutate on a copy under the write lock and only swaps the copy in
// when mutate succeeds. The id cannot be changed by mutate.
func (r *PromotionRepository) Update(ctx context.Context, id string, mutate promotion.MutateFunc) (*promotion.Promotion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	i, ok := r.index[strings.TrimSpace(id)]
	if !ok {
		return nil, xerrors.ErrNotFound
	}

	current := r.items[i]
	next := current.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}
	next.ID = current.ID
	next.CreatedAt = current.CreatedAt

	r.items[i] = next
	return next.Clone(), nil
}

func (r *PromotionRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := strings.TrimSpace(id)
	i, ok := r.index[key]
	if !ok {
		return xerrors.ErrNotFound
	}

	r.items = append(r.items[:i], r.items[i+1:]...)
	delete(r.index, key)
	for j := i; j < len(r.items); j++ {
		r.index[r.items[j].ID] = j
	}
	return nil
}
