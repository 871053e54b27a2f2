package model

import "time"

// Discount types.
const (
	DiscountFlat    = "FLAT"
	DiscountPercent = "PERCENT"
)

// Coupon represents a discount code. Codes are unique case-insensitively.
// Uses only ever increases and, once enforcement runs inside the fulfillment
// transaction, never exceeds QuantityLimit.
type Coupon struct {
	ID            string     `json:"id"`
	Code          string     `json:"code"`
	DiscountType  string     `json:"discountType"`
	DiscountValue float64    `json:"discountValue"`
	QuantityLimit *int       `json:"quantityLimit"`
	Uses          int        `json:"uses"`
	ExpiresAt     *time.Time `json:"expiresAt"`
	OnePerUser    bool       `json:"onePerUser"`
	CreatedAt     time.Time  `json:"-"`
}

// Discount computes the discount amount against a base price. PERCENT is
// value percent of the base; FLAT is the value itself. The amount may exceed
// the base; callers floor the final price at zero, not the discount.
func (c *Coupon) Discount(base float64) float64 {
	var d float64
	switch c.DiscountType {
	case DiscountPercent:
		d = base * c.DiscountValue / 100
	case DiscountFlat:
		d = c.DiscountValue
	}
	if d < 0 {
		d = 0
	}
	return d
}

// CouponUsage is the junction record backing the one-per-user rule.
type CouponUsage struct {
	ID        string    `json:"id"`
	CouponID  string    `json:"couponId"`
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"timestamp"`
}

// VerifyResult is the outcome of a read-only coupon evaluation. It never
// reflects a consumption: the same coupon can verify valid many times and
// only fulfillment consumes it.
type VerifyResult struct {
	IsValid        bool    `json:"isValid"`
	Message        string  `json:"message"`
	FinalPrice     float64 `json:"finalPrice"`
	DiscountAmount float64 `json:"discountAmount"`
}

// CreateCouponRequest is the admin DTO for POST /api/admin/coupons.
type CreateCouponRequest struct {
	Code          string     `json:"code" validate:"required,notblank,max=64"`
	DiscountType  string     `json:"discountType" validate:"required,oneof=FLAT PERCENT"`
	DiscountValue *float64   `json:"discountValue" validate:"required,gte=0"`
	QuantityLimit *int       `json:"quantityLimit" validate:"omitempty,gte=1"`
	ExpiresAt     *time.Time `json:"expiresAt"`
	OnePerUser    bool       `json:"onePerUser"`
}
