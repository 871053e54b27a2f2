package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// CashfreeClient creates orders via the Cashfree PG Orders API.
type CashfreeClient struct {
	AppID      string
	SecretKey  string
	APIURL     string
	HTTPClient *http.Client
}

// NewCashfreeClient returns a client with production defaults.
func NewCashfreeClient(appID, secretKey string) *CashfreeClient {
	return &CashfreeClient{
		AppID:     appID,
		SecretKey: secretKey,
		APIURL:    "https://api.cashfree.com/pg",
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Provider returns the provider name.
func (c *CashfreeClient) Provider() string { return ProviderCashfree }

type cashfreeCustomer struct {
	CustomerID    string `json:"customer_id"`
	CustomerPhone string `json:"customer_phone"`
}

type cashfreeOrderRequest struct {
	OrderID         string            `json:"order_id"`
	OrderAmount     float64           `json:"order_amount"`
	OrderCurrency   string            `json:"order_currency"`
	CustomerDetails cashfreeCustomer  `json:"customer_details"`
	OrderNote       string            `json:"order_note,omitempty"`
	OrderTags       map[string]string `json:"order_tags,omitempty"`
}

type cashfreeOrderResponse struct {
	OrderID          string  `json:"order_id"`
	OrderAmount      float64 `json:"order_amount"`
	OrderCurrency    string  `json:"order_currency"`
	OrderStatus      string  `json:"order_status"`
	PaymentSessionID string  `json:"payment_session_id"`
}

// CreateOrder creates a Cashfree order.
func (c *CashfreeClient) CreateOrder(ctx context.Context, amount float64, currency string, notes map[string]string) (*Order, error) {
	customerID := notes["userId"]
	if customerID == "" {
		customerID = "guest_" + uuid.NewString()
	}

	reqBody := cashfreeOrderRequest{
		OrderID:       "ql_" + uuid.NewString(),
		OrderAmount:   amount,
		OrderCurrency: currency,
		CustomerDetails: cashfreeCustomer{
			CustomerID:    customerID,
			CustomerPhone: "9999999999", // required by the API, not collected
		},
		OrderTags: notes,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, fmt.Sprintf("%s/orders", c.APIURL), bytes.NewBuffer(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("x-api-version", "2023-08-01")
	req.Header.Set("x-client-id", c.AppID)
	req.Header.Set("x-client-secret", c.SecretKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("cashfree error: %s (status: %d)", string(respBody), resp.StatusCode)
	}

	var orderResp cashfreeOrderResponse
	if err := json.Unmarshal(respBody, &orderResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return &Order{
		Provider:         ProviderCashfree,
		OrderID:          orderResp.OrderID,
		Amount:           orderResp.OrderAmount,
		Currency:         orderResp.OrderCurrency,
		Status:           orderResp.OrderStatus,
		PaymentSessionID: orderResp.PaymentSessionID,
	}, nil
}
