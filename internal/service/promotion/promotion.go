// internal/service/promotion/promotion.go
package promotion

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"tiffin-promotions/internal/domain/promotion"
	xerrors "tiffin-promotions/internal/pkg/errors"

	"go.uber.org/zap"
)

type PromotionService struct {
	repo     promotion.Repository
	ids      promotion.IDGenerator
	notifier promotion.ChangeNotifier
	now      func() time.Time
	logger   *zap.Logger

	stampMu   sync.Mutex
	lastStamp time.Time
}

type Option func(*PromotionService)

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *PromotionService) { s.now = now }
}

// WithNotifier publishes change events after every successful write.
func WithNotifier(n promotion.ChangeNotifier) Option {
	return func(s *PromotionService) { s.notifier = n }
}

func NewPromotionService(repo promotion.Repository, ids promotion.IDGenerator, logger *zap.Logger, opts ...Option) *PromotionService {
	s := &PromotionService{
		repo:   repo,
		ids:    ids,
		now:    time.Now,
		logger: logger,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ListPromotions returns every promotion with its effective status.
func (s *PromotionService) ListPromotions(ctx context.Context) ([]*promotion.Promotion, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list promotions: %w", err)
	}

	now := s.now()
	out := make([]*promotion.Promotion, 0, len(items))
	for _, p := range items {
		out = append(out, p.WithEffectiveStatus(now))
	}
	return out, nil
}

// GetPromotion returns nil, nil when the id is unknown.
func (s *PromotionService) GetPromotion(ctx context.Context, id string) (*promotion.Promotion, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}

	p, err := s.repo.FindByID(ctx, id)
	if errors.Is(err, xerrors.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get promotion: %w", err)
	}
	return p.WithEffectiveStatus(s.now()), nil
}

// CreatePromotion validates the request, assigns an id and timestamps and stores
// the promotion with its resolved status. Nothing is stored when validation fails.
func (s *PromotionService) CreatePromotion(ctx context.Context, req *promotion.CreatePromotionRequest) (*promotion.Promotion, error) {
	p := req.ToPromotion()
	if err := promotion.Validate(p); err != nil {
		return nil, err
	}

	now := s.stamp(time.Time{})
	p.ID = s.ids.NewID()
	p.CreatedAt = now
	p.UpdatedAt = now
	p.Status = promotion.ResolveStatus(p.Status, p.StartAt, p.EndAt, now)

	if err := s.repo.Create(ctx, p); err != nil {
		s.logger.Error("failed to create promotion", zap.Error(err))
		return nil, fmt.Errorf("failed to create promotion: %w", err)
	}

	s.logger.Info("promotion created",
		zap.String("promotion_id", p.ID),
		zap.String("category", string(p.Category)),
		zap.String("status", string(p.Status)),
	)
	s.notify(promotion.ChangeCreated, p.ID, p)

	return p.Clone(), nil
}

// UpdatePromotion merges req onto the stored record, validates the result and
// stamps UpdatedAt. It returns nil, nil when the id is unknown and leaves the
// record untouched when validation fails.
func (s *PromotionService) UpdatePromotion(ctx context.Context, id string, req *promotion.UpdatePromotionRequest) (*promotion.Promotion, error) {
	return s.update(ctx, id, promotion.ChangeUpdated, func(p *promotion.Promotion) error {
		return req.ApplyTo(p)
	})
}

// UpdatePromotionStatus sets the stored status, e.g. to pause a running promotion.
func (s *PromotionService) UpdatePromotionStatus(ctx context.Context, id string, status promotion.Status) (*promotion.Promotion, error) {
	if !status.Valid() {
		return nil, promotion.NewValidationError("status", "oneof", "unknown status "+string(status))
	}
	return s.update(ctx, id, promotion.ChangeStatusChanged, func(p *promotion.Promotion) error {
		p.Status = status
		return nil
	})
}

func (s *PromotionService) update(ctx context.Context, id string, kind promotion.ChangeKind, apply promotion.MutateFunc) (*promotion.Promotion, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, nil
	}

	updated, err := s.repo.Update(ctx, id, func(p *promotion.Promotion) error {
		if err := apply(p); err != nil {
			return err
		}
		if err := promotion.Validate(p); err != nil {
			return err
		}
		p.UpdatedAt = s.stamp(p.UpdatedAt)
		p.Status = promotion.ResolveStatus(p.Status, p.StartAt, p.EndAt, p.UpdatedAt)
		return nil
	})
	if errors.Is(err, xerrors.ErrNotFound) {
		return nil, nil
	}
	var verr *promotion.ValidationError
	if errors.As(err, &verr) {
		return nil, verr
	}
	if err != nil {
		s.logger.Error("failed to update promotion", zap.String("promotion_id", id), zap.Error(err))
		return nil, fmt.Errorf("failed to update promotion: %w", err)
	}

	s.logger.Info("promotion updated",
		zap.String("promotion_id", updated.ID),
		zap.String("category", string(updated.Category)),
		zap.String("status", string(updated.Status)),
	)
	s.notify(kind, updated.ID, updated)

	return updated.WithEffectiveStatus(s.now()), nil
}

// DeletePromotion hard-deletes a promotion. It reports false when the id is unknown.
func (s *PromotionService) DeletePromotion(ctx context.Context, id string) (bool, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return false, nil
	}

	err := s.repo.Delete(ctx, id)
	if errors.Is(err, xerrors.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		s.logger.Error("failed to delete promotion", zap.String("promotion_id", id), zap.Error(err))
		return false, fmt.Errorf("failed to delete promotion: %w", err)
	}

	s.logger.Info("promotion deleted", zap.String("promotion_id", id))
	s.notify(promotion.ChangeDeleted, id, nil)

	return true, nil
}

// SearchPromotions filters, sorts and paginates the whole collection against a
// single reading of the clock.
func (s *PromotionService) SearchPromotions(ctx context.Context, q promotion.SearchQuery) (*promotion.PageEnvelope, error) {
	items, err := s.repo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load promotions: %w", err)
	}
	return Search(items, q, s.now())
}

// GetPromotionStats counts promotions by effective status and by category.
func (s *PromotionService) GetPromotionStats(ctx context.Context) (*promotion.Stats, error) {
	items, err := s.ListPromotions(ctx)
	if err != nil {
		return nil, err
	}

	stats := &promotion.Stats{
		Total:      int64(len(items)),
		ByStatus:   make(map[promotion.Status]int64, len(promotion.Statuses)),
		ByCategory: make(map[promotion.Category]int64, len(promotion.Categories)),
	}
	for _, st := range promotion.Statuses {
		stats.ByStatus[st] = 0
	}
	for _, c := range promotion.Categories {
		stats.ByCategory[c] = 0
	}
	for _, p := range items {
		stats.ByStatus[p.Status]++
		stats.ByCategory[p.Category]++
	}
	return stats, nil
}

// stamp returns the current time at microsecond precision, pushed past prev and
// past the last stamp handed out so UpdatedAt always moves forward.
func (s *PromotionService) stamp(prev time.Time) time.Time {
	s.stampMu.Lock()
	defer s.stampMu.Unlock()

	t := s.now().UTC().Truncate(time.Microsecond)
	if !t.After(prev) {
		t = prev.Add(time.Microsecond)
	}
	if !t.After(s.lastStamp) {
		t = s.lastStamp.Add(time.Microsecond)
	}
	s.lastStamp = t
	return t
}

func (s *PromotionService) notify(kind promotion.ChangeKind, id string, p *promotion.Promotion) {
	if s.notifier == nil {
		return
	}
	event := promotion.ChangeEvent{
		Kind:        kind,
		PromotionID: id,
		OccurredAt:  s.now().UTC(),
	}
	if p != nil {
		event.Promotion = p.WithEffectiveStatus(s.now())
	}
	s.notifier.NotifyPromotionChange(event)
}
