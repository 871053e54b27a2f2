package model

import "time"

// Benefit types.
const (
	BenefitSubscriptionDays = "SUBSCRIPTION_DAYS"
	BenefitAPIDays          = "API_DAYS"
)

// Product is a shop item. When LimitQuantity is set, Stock must not go
// negative; the decrement is guarded at write time.
type Product struct {
	ID             string     `json:"id"`
	Name           string     `json:"name"`
	Price          float64    `json:"price"`
	BenefitType    string     `json:"benefitType"`
	BenefitValue   int        `json:"benefitValue"` // days granted
	LimitQuantity  bool       `json:"limitQuantity"`
	Stock          *int       `json:"stock"`
	AvailableUntil *time.Time `json:"availableUntil"`
	IsActive       bool       `json:"isActive"`
	CreatedAt      time.Time  `json:"-"`
}

// Purchasable reports whether the product can currently be bought.
func (p *Product) Purchasable(now time.Time) bool {
	if !p.IsActive {
		return false
	}
	if p.AvailableUntil != nil && p.AvailableUntil.Before(now) {
		return false
	}
	if p.LimitQuantity && (p.Stock == nil || *p.Stock <= 0) {
		return false
	}
	return true
}

// CreateProductRequest is the admin DTO for POST /api/admin/products.
type CreateProductRequest struct {
	Name           string     `json:"name" validate:"required,notblank,max=255"`
	Price          *float64   `json:"price" validate:"required,gte=0"`
	BenefitType    string     `json:"benefitType" validate:"required,oneof=SUBSCRIPTION_DAYS API_DAYS"`
	BenefitValue   *int       `json:"benefitValue" validate:"required,gte=1"`
	LimitQuantity  bool       `json:"limitQuantity"`
	Stock          *int       `json:"stock" validate:"omitempty,gte=0,required_if=LimitQuantity true"`
	AvailableUntil *time.Time `json:"availableUntil"`
	IsActive       *bool      `json:"isActive"`
}
