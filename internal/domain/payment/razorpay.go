// internal/domain/payment/razorpay.go
package payment

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/your-org/pouchprint-backend/internal/config"
)

// RazorpayOrder is the gateway order returned by POST /orders
type RazorpayOrder struct {
	ID        string            `json:"id"`
	Entity    string            `json:"entity"`
	Amount    int64             `json:"amount"`
	AmountDue int64             `json:"amount_due"`
	Currency  string            `json:"currency"`
	Receipt   string            `json:"receipt"`
	Status    string            `json:"status"`
	Notes     map[string]string `json:"notes"`
	CreatedAt int64             `json:"created_at"`
}

// CreateGatewayOrderRequest is the body of POST /orders. Amount is in paise.
type CreateGatewayOrderRequest struct {
	Amount   int64             `json:"amount"`
	Currency string            `json:"currency"`
	Receipt  string            `json:"receipt"`
	Notes    map[string]string `json:"notes,omitempty"`
}

// RazorpayPayment is a payment entity from GET /payments/:id or a webhook
type RazorpayPayment struct {
	ID          string            `json:"id"`
	Entity      string            `json:"entity"`
	Amount      int64             `json:"amount"`
	Currency    string            `json:"currency"`
	Status      string            `json:"status"`
	OrderID     string            `json:"order_id"`
	Method      string            `json:"method"`
	Description string            `json:"description"`
	Email       string            `json:"email"`
	Contact     string            `json:"contact"`
	Notes       map[string]string `json:"notes"`
	CreatedAt   int64             `json:"created_at"`
}

// APIError is a non-2xx gateway response
type APIError struct {
	StatusCode  int
	Code        string `json:"code"`
	Description string `json:"description"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("razorpay API error %d: %s %s", e.StatusCode, e.Code, e.Description)
}

// Client is a minimal Razorpay REST client
type Client struct {
	keyID      string
	keySecret  string
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a Razorpay client from config
func NewClient(cfg config.RazorpayConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		keyID:      cfg.KeyID,
		keySecret:  cfg.KeySecret,
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// KeyID is the public key handed to the checkout widget
func (c *Client) KeyID() string {
	return c.keyID
}

// CreateOrder opens a gateway order
func (c *Client) CreateOrder(ctx context.Context, req CreateGatewayOrderRequest) (*RazorpayOrder, error) {
	var out RazorpayOrder
	if err := c.call(ctx, http.MethodPost, "/orders", req, &out); err != nil {
		return nil, fmt.Errorf("failed to create razorpay order: %w", err)
	}
	return &out, nil
}

// GetPayment fetches a payment by ID
func (c *Client) GetPayment(ctx context.Context, paymentID string) (*RazorpayPayment, error) {
	var out RazorpayPayment
	if err := c.call(ctx, http.MethodGet, "/payments/"+paymentID, nil, &out); err != nil {
		return nil, fmt.Errorf("failed to fetch razorpay payment: %w", err)
	}
	return &out, nil
}

func (c *Client) call(ctx context.Context, method, endpoint string, data, out interface{}) error {
	if c.keyID == "" || c.keySecret == "" {
		return fmt.Errorf("razorpay API credentials not configured")
	}

	var body io.Reader
	if data != nil {
		reqBody, err := json.Marshal(data)
		if err != nil {
			return fmt.Errorf("failed to marshal request data: %w", err)
		}
		body = bytes.NewReader(reqBody)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make API call: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		var wrapper struct {
			Error *APIError `json:"error"`
		}
		if json.Unmarshal(respBody, &wrapper) == nil && wrapper.Error != nil {
			apiErr.Code = wrapper.Error.Code
			apiErr.Description = wrapper.Error.Description
		}
		return apiErr
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(respBody, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
