package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quicklinkhq/quicklink/internal/model"
	"github.com/quicklinkhq/quicklink/internal/service"
	"github.com/quicklinkhq/quicklink/pkg/database"
)

const couponColumns = `id, code, discount_type, discount_value, quantity_limit, uses,
	expires_at, one_per_user, created_at`

// CouponRepository provides data access for coupons using pgx.
type CouponRepository struct {
	pool PoolInterface
}

// NewCouponRepository creates a new CouponRepository with the given pool.
func NewCouponRepository(pool *pgxpool.Pool) *CouponRepository {
	return &CouponRepository{pool: pool}
}

// NewCouponRepositoryWithPool creates a new CouponRepository with a custom pool interface.
// This is primarily used for testing.
func NewCouponRepositoryWithPool(pool PoolInterface) *CouponRepository {
	return &CouponRepository{pool: pool}
}

func scanCoupon(row pgx.Row) (*model.Coupon, error) {
	var c model.Coupon
	err := row.Scan(
		&c.ID, &c.Code, &c.DiscountType, &c.DiscountValue, &c.QuantityLimit, &c.Uses,
		&c.ExpiresAt, &c.OnePerUser, &c.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// Insert inserts a new coupon.
// Returns service.ErrCouponExists when the code is already in use
// (codes are unique case-insensitively).
func (r *CouponRepository) Insert(ctx context.Context, c *model.Coupon) error {
	query := `
		INSERT INTO coupons (id, code, discount_type, discount_value, quantity_limit, uses, expires_at, one_per_user)
		VALUES ($1, $2, $3, $4, $5, 0, $6, $7)`

	_, err := r.pool.Exec(ctx, query,
		c.ID, c.Code, c.DiscountType, c.DiscountValue, c.QuantityLimit, c.ExpiresAt, c.OnePerUser)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return service.ErrCouponExists
		}
		return fmt.Errorf("insert coupon: %w", err)
	}
	return nil
}

// GetByCode retrieves a coupon by code, matching case-insensitively.
// Returns nil, nil if the coupon is not found (service layer handles this).
func (r *CouponRepository) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE LOWER(code) = LOWER($1)`

	c, err := scanCoupon(r.pool.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get coupon by code %s: %w", code, err)
	}
	return c, nil
}

// GetByCodeForUpdate retrieves a coupon with a row lock (SELECT FOR UPDATE).
// This locks the row until the transaction completes.
// Returns service.ErrCouponNotFound if the coupon doesn't exist.
func (r *CouponRepository) GetByCodeForUpdate(ctx context.Context, tx database.TxQuerier, code string) (*model.Coupon, error) {
	query := `SELECT ` + couponColumns + ` FROM coupons WHERE LOWER(code) = LOWER($1) FOR UPDATE`

	c, err := scanCoupon(tx.QueryRow(ctx, query, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, service.ErrCouponNotFound
		}
		return nil, fmt.Errorf("get coupon for update %s: %w", code, err)
	}
	return c, nil
}

// IncrementUses bumps the usage counter by 1, but only while the counter is
// below the quantity limit. The limit re-check is part of the write predicate
// so concurrent fulfillments cannot push uses past the limit.
// Returns service.ErrCouponExhausted when the limit is already reached.
func (r *CouponRepository) IncrementUses(ctx context.Context, tx database.TxQuerier, id string) error {
	query := `
		UPDATE coupons SET uses = uses + 1
		WHERE id = $1 AND (quantity_limit IS NULL OR uses < quantity_limit)`

	tag, err := tx.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("increment uses for coupon %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return service.ErrCouponExhausted
	}
	return nil
}

// Delete removes a coupon by id. Usage records cascade.
func (r *CouponRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.pool.Exec(ctx, `DELETE FROM coupons WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete coupon %s: %w", id, err)
	}
	return nil
}
