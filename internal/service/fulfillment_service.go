package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"

	"github.com/quicklinkhq/quicklink/internal/model"
	"github.com/quicklinkhq/quicklink/pkg/database"
)

// UserRepositoryInterface defines the interface for user data access used
// during fulfillment.
type UserRepositoryInterface interface {
	GetForUpdate(ctx context.Context, tx database.TxQuerier, id string) (*model.User, error)
	SetSubscription(ctx context.Context, q database.TxQuerier, id string, expiresAt time.Time, isDonor bool) error
	SetAPIExpiry(ctx context.Context, q database.TxQuerier, id string, expiresAt time.Time) error
}

// ProductRepositoryInterface defines the interface for product data access.
type ProductRepositoryInterface interface {
	GetForUpdate(ctx context.Context, tx database.TxQuerier, id string) (*model.Product, error)
	DecrementStock(ctx context.Context, tx database.TxQuerier, id string) error
}

// PaymentRepositoryInterface defines the interface for payment audit writes.
type PaymentRepositoryInterface interface {
	Insert(ctx context.Context, q database.TxQuerier, p *model.PaymentRecord) error
}

// TxBeginner defines the interface for beginning transactions.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// FulfillmentService applies a completed purchase to a user record.
type FulfillmentService struct {
	pool     TxBeginner
	users    UserRepositoryInterface
	products ProductRepositoryInterface
	coupons  CouponRepositoryInterface
	usage    UsageRepositoryInterface
	payments PaymentRepositoryInterface
}

// NewFulfillmentService creates a new FulfillmentService with the given pool
// and repositories.
func NewFulfillmentService(pool *pgxpool.Pool, users UserRepositoryInterface, products ProductRepositoryInterface, coupons CouponRepositoryInterface, usage UsageRepositoryInterface, payments PaymentRepositoryInterface) *FulfillmentService {
	return &FulfillmentService{pool: pool, users: users, products: products, coupons: coupons, usage: usage, payments: payments}
}

// NewFulfillmentServiceWithTxBeginner creates a FulfillmentService with a
// custom TxBeginner. Primarily used for testing.
func NewFulfillmentServiceWithTxBeginner(pool TxBeginner, users UserRepositoryInterface, products ProductRepositoryInterface, coupons CouponRepositoryInterface, usage UsageRepositoryInterface, payments PaymentRepositoryInterface) *FulfillmentService {
	return &FulfillmentService{pool: pool, users: users, products: products, coupons: coupons, usage: usage, payments: payments}
}

// Fulfill applies a purchase server-side: extends the benefit clock on the
// user, consumes the coupon, decrements limited stock, and appends the
// payment audit row. Everything runs in one transaction with row locks, so
// the user is never left benefited with the coupon or stock unadjusted.
//
// The payment itself is assumed already authorized by the gateway callback;
// no server-side verification is performed here. Because the buyer has
// already paid, a coupon or stock limit discovered at this point skips that
// adjustment with a warning instead of failing the whole purchase.
//
// Returns:
//   - ErrUserNotFound / ErrProductNotFound when a referenced id is missing
func (s *FulfillmentService) Fulfill(ctx context.Context, req *model.FulfillRequest) error {
	if req == nil || req.UserID == "" || req.ProductID == "" || req.PaymentID == "" {
		return ErrInvalidRequest
	}

	log.Warn().
		Str("payment_id", req.PaymentID).
		Msg("fulfilling without gateway-side payment verification")

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }() // Safe: no-op if committed

	// 1. Lock the user and product rows for the duration of the purchase.
	user, err := s.users.GetForUpdate(ctx, tx, req.UserID)
	if err != nil {
		return err
	}
	product, err := s.products.GetForUpdate(ctx, tx, req.ProductID)
	if err != nil {
		return err
	}

	now := time.Now().UTC()

	// 2. Extend the benefit clock. The two clocks are independent:
	// extending one never touches the other.
	switch product.BenefitType {
	case model.BenefitSubscriptionDays:
		newExpiry := extendClock(user.SubscriptionExpiresAt, now, product.BenefitValue)
		if err := s.users.SetSubscription(ctx, tx, user.ID, newExpiry, true); err != nil {
			return err
		}
	case model.BenefitAPIDays:
		if !user.HasAPIAccess() {
			// Benefit has nowhere to land when the user has no API
			// access record; the purchase still completes.
			log.Warn().
				Str("user_id", user.ID).
				Str("product_id", product.ID).
				Msg("API days benefit skipped: user has no API access record")
			break
		}
		newExpiry := extendClock(user.APIExpiresAt, now, product.BenefitValue)
		if err := s.users.SetAPIExpiry(ctx, tx, user.ID, newExpiry); err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown benefit type %q: %w", product.BenefitType, ErrInvalidRequest)
	}

	// 3. Consume the coupon under its row lock. This is where consumption
	// actually happens; verification earlier was read-only.
	amount := product.Price
	var couponCode *string
	if req.CouponCode != "" {
		discount, consumed, err := s.consumeCoupon(ctx, tx, req.CouponCode, user.ID, product.Price, now)
		if err != nil {
			return err
		}
		if consumed {
			amount = product.Price - discount
			if amount < 0 {
				amount = 0
			}
			couponCode = &req.CouponCode
		}
	}

	// 4. Decrement limited stock, guarded against going negative.
	if product.LimitQuantity {
		if err := s.products.DecrementStock(ctx, tx, product.ID); err != nil {
			if errors.Is(err, ErrOutOfStock) {
				log.Warn().
					Str("product_id", product.ID).
					Msg("stock already exhausted at fulfillment, decrement skipped")
			} else {
				return err
			}
		}
	}

	// 5. Append the audit row.
	currency := req.Currency
	if currency == "" {
		currency = "INR"
	}
	record := &model.PaymentRecord{
		ID:            uuid.NewString(),
		PaymentID:     req.PaymentID,
		UserID:        user.ID,
		UserEmail:     user.Email,
		Amount:        amount,
		Currency:      currency,
		DurationLabel: fmt.Sprintf("%d days", product.BenefitValue),
		CouponCode:    couponCode,
		CreatedAt:     now,
	}
	if err := s.payments.Insert(ctx, tx, record); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit fulfillment: %w", err)
	}

	log.Info().
		Str("user_id", user.ID).
		Str("product_id", product.ID).
		Str("payment_id", req.PaymentID).
		Float64("amount", amount).
		Msg("purchase fulfilled")
	return nil
}

// consumeCoupon re-validates the coupon under its row lock and records its
// use. A code that no longer resolves, or fails re-validation, is skipped
// (the buyer has already paid); consumed reports whether the discount stuck.
func (s *FulfillmentService) consumeCoupon(ctx context.Context, tx database.TxQuerier, code, userID string, base float64, now time.Time) (discount float64, consumed bool, err error) {
	coupon, err := s.coupons.GetByCodeForUpdate(ctx, tx, code)
	if err != nil {
		if errors.Is(err, ErrCouponNotFound) {
			log.Warn().Str("coupon_code", code).Msg("coupon code did not resolve at fulfillment, skipped")
			return 0, false, nil
		}
		return 0, false, err
	}

	if coupon.ExpiresAt != nil && coupon.ExpiresAt.Before(now) {
		log.Warn().Str("coupon_code", code).Msg("coupon expired between verification and fulfillment, skipped")
		return 0, false, nil
	}
	if coupon.OnePerUser {
		used, err := s.usage.Exists(ctx, tx, coupon.ID, userID)
		if err != nil {
			return 0, false, err
		}
		if used {
			log.Warn().Str("coupon_code", code).Str("user_id", userID).Msg("one-per-user coupon already consumed, skipped")
			return 0, false, nil
		}
	}

	if err := s.coupons.IncrementUses(ctx, tx, coupon.ID); err != nil {
		if errors.Is(err, ErrCouponExhausted) {
			log.Warn().Str("coupon_code", code).Msg("coupon limit reached between verification and fulfillment, skipped")
			return 0, false, nil
		}
		return 0, false, err
	}

	usage := &model.CouponUsage{
		ID:        uuid.NewString(),
		CouponID:  coupon.ID,
		UserID:    userID,
		CreatedAt: now,
	}
	if err := s.usage.Insert(ctx, tx, usage); err != nil {
		return 0, false, err
	}

	return coupon.Discount(base), true, nil
}

// extendClock computes max(now, current) + days.
func extendClock(current *time.Time, now time.Time, days int) time.Time {
	base := now
	if current != nil && current.After(now) {
		base = *current
	}
	return base.Add(time.Duration(days) * 24 * time.Hour)
}
