package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/quicklinkhq/quicklink/internal/model"
	"github.com/quicklinkhq/quicklink/pkg/database"
)

// CouponRepositoryInterface defines the interface for coupon data access.
type CouponRepositoryInterface interface {
	Insert(ctx context.Context, c *model.Coupon) error
	GetByCode(ctx context.Context, code string) (*model.Coupon, error)
	GetByCodeForUpdate(ctx context.Context, tx database.TxQuerier, code string) (*model.Coupon, error)
	IncrementUses(ctx context.Context, tx database.TxQuerier, id string) error
	Delete(ctx context.Context, id string) error
}

// UsageRepositoryInterface defines the interface for coupon usage data access.
type UsageRepositoryInterface interface {
	Exists(ctx context.Context, q database.TxQuerier, couponID, userID string) (bool, error)
	ExistsInPool(ctx context.Context, couponID, userID string) (bool, error)
	Insert(ctx context.Context, tx database.TxQuerier, u *model.CouponUsage) error
}

// CouponService provides coupon evaluation and admin management.
type CouponService struct {
	coupons CouponRepositoryInterface
	usage   UsageRepositoryInterface
}

// NewCouponService creates a new CouponService with the given repositories.
func NewCouponService(coupons CouponRepositoryInterface, usage UsageRepositoryInterface) *CouponService {
	return &CouponService{coupons: coupons, usage: usage}
}

// Verify evaluates a coupon against a base amount without consuming it.
// Validation short-circuits in a fixed order: existence, expiry, quantity
// limit, one-per-user. Consumption happens only during fulfillment, so the
// same coupon can verify valid any number of times before being used.
func (s *CouponService) Verify(ctx context.Context, code, userID string, baseAmount float64) (*model.VerifyResult, error) {
	invalid := func(msg string) *model.VerifyResult {
		return &model.VerifyResult{IsValid: false, Message: msg, FinalPrice: baseAmount}
	}

	if strings.TrimSpace(code) == "" {
		return invalid("Invalid coupon code"), nil
	}

	coupon, err := s.coupons.GetByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("look up coupon: %w", err)
	}
	if coupon == nil {
		return invalid("Invalid coupon code"), nil
	}

	now := time.Now().UTC()
	if coupon.ExpiresAt != nil && coupon.ExpiresAt.Before(now) {
		return invalid("Coupon has expired"), nil
	}
	if coupon.QuantityLimit != nil && coupon.Uses >= *coupon.QuantityLimit {
		return invalid("Coupon usage limit reached"), nil
	}
	if coupon.OnePerUser && userID != "" {
		used, err := s.usage.ExistsInPool(ctx, coupon.ID, userID)
		if err != nil {
			return nil, fmt.Errorf("check coupon usage: %w", err)
		}
		if used {
			return invalid("Coupon already used"), nil
		}
	}

	discount := coupon.Discount(baseAmount)
	final := baseAmount - discount
	if final < 0 {
		final = 0
	}

	return &model.VerifyResult{
		IsValid:        true,
		Message:        "Coupon applied",
		FinalPrice:     final,
		DiscountAmount: discount,
	}, nil
}

// Create creates a new coupon from the admin request.
// Returns ErrCouponExists when the code is already in use, ErrInvalidRequest
// when request data is nil or incomplete.
func (s *CouponService) Create(ctx context.Context, req *model.CreateCouponRequest) (*model.Coupon, error) {
	if req == nil || req.DiscountValue == nil {
		return nil, ErrInvalidRequest
	}

	coupon := &model.Coupon{
		ID:            uuid.NewString(),
		Code:          strings.TrimSpace(req.Code),
		DiscountType:  req.DiscountType,
		DiscountValue: *req.DiscountValue,
		QuantityLimit: req.QuantityLimit,
		ExpiresAt:     req.ExpiresAt,
		OnePerUser:    req.OnePerUser,
	}
	if err := s.coupons.Insert(ctx, coupon); err != nil {
		return nil, err
	}
	return coupon, nil
}

// Delete removes a coupon by id.
func (s *CouponService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return ErrInvalidRequest
	}
	return s.coupons.Delete(ctx, id)
}
