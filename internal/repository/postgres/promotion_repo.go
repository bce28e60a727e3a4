// internal/repository/postgres/promotion_repo.go
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"tiffin-promotions/internal/domain/promotion"
	xerrors "tiffin-promotions/internal/pkg/errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const promotionSchema = `
	CREATE TABLE IF NOT EXISTS promotions (
		seq                BIGSERIAL,
		id                 TEXT PRIMARY KEY,
		name               TEXT NOT NULL,
		code               TEXT NOT NULL DEFAULT '',
		description        TEXT NOT NULL DEFAULT '',
		category           TEXT NOT NULL,
		free_item_sub_type TEXT NOT NULL DEFAULT '',
		percent_off        INTEGER,
		amount_off_cents   INTEGER,
		referral           JSONB,
		start_at           TIMESTAMPTZ,
		end_at             TIMESTAMPTZ,
		max_redemptions    INTEGER,
		per_user_limit     INTEGER,
		status             TEXT NOT NULL,
		created_at         TIMESTAMPTZ NOT NULL,
		updated_at         TIMESTAMPTZ NOT NULL,
		CONSTRAINT promotions_updated_after_created CHECK (updated_at >= created_at),
		CONSTRAINT promotions_window_order CHECK (start_at IS NULL OR end_at IS NULL OR start_at < end_at)
	);
	CREATE UNIQUE INDEX IF NOT EXISTS promotions_seq_idx ON promotions (seq);
`

const uniqueViolation = "23505"

const promotionColumns = `
	id, name, code, description, category,
	free_item_sub_type, percent_off, amount_off_cents, referral,
	start_at, end_at, max_redemptions, per_user_limit,
	status, created_at, updated_at
`

type PromotionRepository struct {
	db *pgxpool.Pool
}

func NewPromotionRepository(db *pgxpool.Pool) *PromotionRepository {
	return &PromotionRepository{db: db}
}

// EnsureSchema creates the promotions table when it does not exist yet.
func (r *PromotionRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, promotionSchema); err != nil {
		return fmt.Errorf("failed to ensure promotions schema: %w", err)
	}
	return nil
}

// Count returns the number of stored promotions.
func (r *PromotionRepository) Count(ctx context.Context) (int64, error) {
	var n int64
	if err := r.db.QueryRow(ctx, `SELECT COUNT(*) FROM promotions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count promotions: %w", err)
	}
	return n, nil
}

// List returns every promotion in insertion order
func (r *PromotionRepository) List(ctx context.Context) ([]*promotion.Promotion, error) {
	query := `SELECT ` + promotionColumns + ` FROM promotions ORDER BY seq`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list promotions: %w", err)
	}
	defer rows.Close()

	var out []*promotion.Promotion
	for rows.Next() {
		p, err := scanPromotion(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate promotions: %w", err)
	}
	return out, nil
}

// FindByID retrieves a promotion by ID
func (r *PromotionRepository) FindByID(ctx context.Context, id string) (*promotion.Promotion, error) {
	query := `SELECT ` + promotionColumns + ` FROM promotions WHERE id = $1`

	p, err := scanPromotion(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return p, nil
}

// Create inserts a new promotion
func (r *PromotionRepository) Create(ctx context.Context, p *promotion.Promotion) error {
	referral, err := marshalReferral(p.Referral)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO promotions (` + promotionColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err = r.db.Exec(
		ctx, query,
		p.ID, p.Name, p.Code, p.Description, string(p.Category),
		string(p.FreeItemSubType), p.PercentOff, p.AmountOffCents, referral,
		p.StartAt, p.EndAt, p.MaxRedemptions, p.PerUserLimit,
		string(p.Status), p.CreatedAt, p.UpdatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("failed to create promotion %s: %w", p.ID, xerrors.ErrAlreadyExists)
	}
	if err != nil {
		return fmt.Errorf("failed to create promotion: %w", err)
	}
	return nil
}

// Update locks the row, applies mutate and writes the result in one transaction.
func (r *PromotionRepository) Update(ctx context.Context, id string, mutate promotion.MutateFunc) (*promotion.Promotion, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `SELECT ` + promotionColumns + ` FROM promotions WHERE id = $1 FOR UPDATE`
	current, err := scanPromotion(tx.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, xerrors.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	next := current.Clone()
	if err := mutate(next); err != nil {
		return nil, err
	}
	next.ID = current.ID
	next.CreatedAt = current.CreatedAt

	referral, err := marshalReferral(next.Referral)
	if err != nil {
		return nil, err
	}

	update := `
		UPDATE promotions
		SET name = $1, code = $2, description = $3, category = $4,
		    free_item_sub_type = $5, percent_off = $6, amount_off_cents = $7, referral = $8,
		    start_at = $9, end_at = $10, max_redemptions = $11, per_user_limit = $12,
		    status = $13, updated_at = $14
		WHERE id = $15
	`
	_, err = tx.Exec(
		ctx, update,
		next.Name, next.Code, next.Description, string(next.Category),
		string(next.FreeItemSubType), next.PercentOff, next.AmountOffCents, referral,
		next.StartAt, next.EndAt, next.MaxRedemptions, next.PerUserLimit,
		string(next.Status), next.UpdatedAt, next.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to update promotion: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("failed to commit promotion update: %w", err)
	}
	return next, nil
}

// Delete removes a promotion permanently
func (r *PromotionRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.Exec(ctx, `DELETE FROM promotions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete promotion: %w", err)
	}
	if result.RowsAffected() == 0 {
		return xerrors.ErrNotFound
	}
	return nil
}

func scanPromotion(row pgx.Row) (*promotion.Promotion, error) {
	var (
		p                         promotion.Promotion
		category, subType, status string
		referralJSON              []byte
	)

	err := row.Scan(
		&p.ID, &p.Name, &p.Code, &p.Description, &category,
		&subType, &p.PercentOff, &p.AmountOffCents, &referralJSON,
		&p.StartAt, &p.EndAt, &p.MaxRedemptions, &p.PerUserLimit,
		&status, &p.CreatedAt, &p.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("failed to scan promotion: %w", err)
	}

	p.Category = promotion.Category(category)
	p.FreeItemSubType = promotion.FreeItemSubType(subType)
	p.Status = promotion.Status(status)

	if len(referralJSON) > 0 {
		var ref promotion.ReferralConfig
		if err := json.Unmarshal(referralJSON, &ref); err != nil {
			return nil, fmt.Errorf("failed to unmarshal referral: %w", err)
		}
		p.Referral = &ref
	}

	return &p, nil
}

func marshalReferral(ref *promotion.ReferralConfig) ([]byte, error) {
	if ref == nil {
		return nil, nil
	}
	b, err := json.Marshal(ref)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal referral: %w", err)
	}
	return b, nil
}
