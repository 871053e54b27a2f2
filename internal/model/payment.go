package model

import "time"

// PaymentRecord is an append-only audit row written during fulfillment.
// It is never mutated after insert.
type PaymentRecord struct {
	ID            string    `json:"id"`
	PaymentID     string    `json:"paymentId"`
	UserID        string    `json:"userId"`
	UserEmail     string    `json:"userEmail"`
	Amount        float64   `json:"amount"`
	Currency      string    `json:"currency"`
	DurationLabel string    `json:"durationLabel"`
	CouponCode    *string   `json:"couponCode"`
	CreatedAt     time.Time `json:"createdAt"`
}

// FulfillRequest is the DTO for POST /api/shop/fulfill. The payment is
// assumed already authorized by the gateway callback; no server-side
// verification happens here.
type FulfillRequest struct {
	UserID     string `json:"userId" validate:"required,notblank,max=64"`
	ProductID  string `json:"productId" validate:"required,notblank,max=64"`
	PaymentID  string `json:"paymentId" validate:"required,notblank,max=255"`
	Currency   string `json:"currency" validate:"omitempty,len=3,alpha"`
	CouponCode string `json:"couponCode" validate:"omitempty,max=64"`
}

// CreateOrderRequest is the DTO for POST /api/payments/orders.
type CreateOrderRequest struct {
	Amount     *float64 `json:"amount" validate:"required,gt=0"`
	Currency   string   `json:"currency" validate:"required,len=3,alpha"`
	UserID     string   `json:"userId" validate:"omitempty,max=64"`
	CouponCode string   `json:"couponCode" validate:"omitempty,max=64"`
}
