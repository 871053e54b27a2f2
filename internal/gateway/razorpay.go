package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// RazorpayClient creates orders via the Razorpay Orders API.
type RazorpayClient struct {
	KeyID      string
	KeySecret  string
	APIURL     string
	HTTPClient *http.Client
}

// NewRazorpayClient returns a client with production defaults.
func NewRazorpayClient(keyID, keySecret string) *RazorpayClient {
	return &RazorpayClient{
		KeyID:     keyID,
		KeySecret: keySecret,
		APIURL:    "https://api.razorpay.com/v1",
		HTTPClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Provider returns the provider name.
func (c *RazorpayClient) Provider() string { return ProviderRazorpay }

type razorpayOrderRequest struct {
	Amount   int64             `json:"amount"` // minor units (paise)
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

type razorpayOrderResponse struct {
	ID       string `json:"id"`
	Entity   string `json:"entity"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// CreateOrder creates a Razorpay order. The amount is given in major units
// and converted to minor units on the wire.
func (c *RazorpayClient) CreateOrder(ctx context.Context, amount float64, currency string, notes map[string]string) (*Order, error) {
	reqBody := razorpayOrderRequest{
		Amount:   int64(math.Round(amount * 100)),
		Currency: currency,
		Receipt:  "ql_" + uuid.NewString(),
		Notes:    notes,
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
	req.SetBasicAuth(c.KeyID, c.KeySecret)

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
		return nil, fmt.Errorf("razorpay error: %s (status: %d)", string(respBody), resp.StatusCode)
	}

	var orderResp razorpayOrderResponse
	if err := json.Unmarshal(respBody, &orderResp); err != nil {
		return nil, fmt.Errorf("failed to unmarshal response: %w", err)
	}

	return &Order{
		Provider: ProviderRazorpay,
		OrderID:  orderResp.ID,
		Amount:   float64(orderResp.Amount) / 100,
		Currency: orderResp.Currency,
		Status:   orderResp.Status,
		KeyID:    c.KeyID,
	}, nil
}
