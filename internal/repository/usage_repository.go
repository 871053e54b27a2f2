package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quicklinkhq/quicklink/internal/model"
	"github.com/quicklinkhq/quicklink/pkg/database"
)

// UsageRepository provides data access for coupon usage records using pgx.
// A usage row is the junction record behind the one-per-user rule.
type UsageRepository struct {
	pool PoolInterface
}

// NewUsageRepository creates a new UsageRepository with the given pool.
func NewUsageRepository(pool *pgxpool.Pool) *UsageRepository {
	return &UsageRepository{pool: pool}
}

// NewUsageRepositoryWithPool creates a UsageRepository with a custom pool
// interface. Primarily used for testing.
func NewUsageRepositoryWithPool(pool PoolInterface) *UsageRepository {
	return &UsageRepository{pool: pool}
}

// Exists reports whether the user has a usage record for the coupon.
// Accepts a TxQuerier so the check can run under the coupon row lock during
// fulfillment as well as lock-free during verification.
func (r *UsageRepository) Exists(ctx context.Context, q database.TxQuerier, couponID, userID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM coupon_usage WHERE coupon_id = $1 AND user_id = $2)`

	var exists bool
	if err := q.QueryRow(ctx, query, couponID, userID).Scan(&exists); err != nil {
		return false, fmt.Errorf("check usage for coupon %s: %w", couponID, err)
	}
	return exists, nil
}

// ExistsInPool is Exists against the repository's own pool, for read-only
// verification outside any transaction.
func (r *UsageRepository) ExistsInPool(ctx context.Context, couponID, userID string) (bool, error) {
	return r.Exists(ctx, r.pool, couponID, userID)
}

// Insert records a consumption within a transaction.
func (r *UsageRepository) Insert(ctx context.Context, tx database.TxQuerier, u *model.CouponUsage) error {
	query := `INSERT INTO coupon_usage (id, coupon_id, user_id, created_at) VALUES ($1, $2, $3, $4)`

	if _, err := tx.Exec(ctx, query, u.ID, u.CouponID, u.UserID, u.CreatedAt); err != nil {
		return fmt.Errorf("insert coupon usage: %w", err)
	}
	return nil
}
