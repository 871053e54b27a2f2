package repository

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/quicklinkhq/quicklink/internal/model"
	"github.com/quicklinkhq/quicklink/pkg/database"
)

// PaymentRepository provides data access for the append-only payment audit
// trail. Records are inserted during fulfillment and never mutated.
type PaymentRepository struct {
	pool PoolInterface
}

// NewPaymentRepository creates a new PaymentRepository with the given pool.
func NewPaymentRepository(pool *pgxpool.Pool) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

// NewPaymentRepositoryWithPool creates a PaymentRepository with a custom pool
// interface. Primarily used for testing.
func NewPaymentRepositoryWithPool(pool PoolInterface) *PaymentRepository {
	return &PaymentRepository{pool: pool}
}

// Insert appends an audit record. Accepts a TxQuerier so the write can join
// the fulfillment transaction.
func (r *PaymentRepository) Insert(ctx context.Context, q database.TxQuerier, p *model.PaymentRecord) error {
	query := `
		INSERT INTO payments (id, payment_id, user_id, user_email, amount, currency, duration_label, coupon_code, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := q.Exec(ctx, query,
		p.ID, p.PaymentID, p.UserID, p.UserEmail, p.Amount, p.Currency,
		p.DurationLabel, p.CouponCode, p.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert payment record: %w", err)
	}
	return nil
}

// ListAll retrieves the audit trail, newest first.
// Returns an empty slice (not nil) when no payments exist.
func (r *PaymentRepository) ListAll(ctx context.Context) ([]model.PaymentRecord, error) {
	query := `
		SELECT id, payment_id, user_id, user_email, amount, currency, duration_label, coupon_code, created_at
		FROM payments ORDER BY created_at DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list payments: %w", err)
	}
	defer rows.Close()

	records := []model.PaymentRecord{}
	for rows.Next() {
		var p model.PaymentRecord
		if err := rows.Scan(&p.ID, &p.PaymentID, &p.UserID, &p.UserEmail, &p.Amount,
			&p.Currency, &p.DurationLabel, &p.CouponCode, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan payment row: %w", err)
		}
		records = append(records, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate payment rows: %w", err)
	}
	return records, nil
}
