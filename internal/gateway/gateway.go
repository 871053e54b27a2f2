// Package gateway holds thin HTTP clients for the supported payment
// providers. The providers are opaque upstreams: an order is created,
// the client is redirected, and success comes back through the frontend.
package gateway

import "context"

// Provider names accepted on the order-creation endpoint.
const (
	ProviderRazorpay = "razorpay"
	ProviderCashfree = "cashfree"
)

// Order is the provider-shaped order handed back to the frontend checkout.
type Order struct {
	Provider string  `json:"provider"`
	OrderID  string  `json:"orderId"`
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
	Status   string  `json:"status"`

	// KeyID is set for Razorpay orders; the frontend checkout widget
	// needs it alongside the order id.
	KeyID string `json:"keyId,omitempty"`

	// PaymentSessionID is set for Cashfree orders.
	PaymentSessionID string `json:"paymentSessionId,omitempty"`
}

// Gateway creates orders against one payment provider.
type Gateway interface {
	Provider() string
	CreateOrder(ctx context.Context, amount float64, currency string, notes map[string]string) (*Order, error)
}
