package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/quicklinkhq/quicklink/internal/gateway"
	"github.com/quicklinkhq/quicklink/internal/model"
)

// CouponVerifier is the read-only coupon evaluation used during order
// creation.
type CouponVerifier interface {
	Verify(ctx context.Context, code, userID string, baseAmount float64) (*model.VerifyResult, error)
}

// PaymentService creates provider orders for checkout.
type PaymentService struct {
	gateways map[string]gateway.Gateway
	coupons  CouponVerifier
}

// NewPaymentService creates a PaymentService over the configured gateways.
func NewPaymentService(coupons CouponVerifier, gateways ...gateway.Gateway) *PaymentService {
	m := make(map[string]gateway.Gateway, len(gateways))
	for _, g := range gateways {
		m[g.Provider()] = g
	}
	return &PaymentService{gateways: m, coupons: coupons}
}

// CreateOrder creates an order with the named provider. When a coupon code
// verifies valid, the order amount is the discounted price; an invalid code
// is ignored and the base amount is charged. The coupon is not consumed here.
// Returns ErrGatewayUnavailable when the provider is unknown or unconfigured.
func (s *PaymentService) CreateOrder(ctx context.Context, provider string, req *model.CreateOrderRequest) (*gateway.Order, error) {
	if req == nil || req.Amount == nil {
		return nil, ErrInvalidRequest
	}

	gw, ok := s.gateways[provider]
	if !ok {
		return nil, ErrGatewayUnavailable
	}

	amount := *req.Amount
	if req.CouponCode != "" {
		result, err := s.coupons.Verify(ctx, req.CouponCode, req.UserID, amount)
		if err != nil {
			return nil, fmt.Errorf("verify coupon: %w", err)
		}
		if result.IsValid {
			amount = result.FinalPrice
		} else {
			log.Info().
				Str("coupon_code", req.CouponCode).
				Str("reason", result.Message).
				Msg("coupon rejected at order creation, charging base amount")
		}
	}

	notes := map[string]string{}
	if req.UserID != "" {
		notes["userId"] = req.UserID
	}
	if req.CouponCode != "" {
		notes["couponCode"] = req.CouponCode
	}

	order, err := gw.CreateOrder(ctx, amount, req.Currency, notes)
	if err != nil {
		return nil, fmt.Errorf("create %s order: %w", provider, err)
	}

	log.Info().
		Str("provider", provider).
		Str("order_id", order.OrderID).
		Float64("amount", order.Amount).
		Str("currency", order.Currency).
		Msg("payment order created")
	return order, nil
}
