// Package payment wraps the payment gateway's order API and signature
// verification scheme.
package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
)

// Order is the gateway's order object, passed through to clients.
type Order struct {
	ID       string `json:"id"`
	Amount   int    `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
	Status   string `json:"status"`
}

// Client talks to a Razorpay-style payment gateway.
type Client struct {
	baseURL   string
	keyID     string
	keySecret string
	client    *http.Client
}

// New creates a payment client authenticated with the gateway key pair.
func New(baseURL, keyID, keySecret string) *Client {
	return &Client{
		baseURL:   baseURL,
		keyID:     keyID,
		keySecret: keySecret,
		client:    &http.Client{Timeout: 30 * time.Second},
	}
}

// CreateOrder creates an order for the given amount in minor currency
// units. Receipts are generated per order.
func (c *Client) CreateOrder(ctx context.Context, amount int, currency string) (*Order, error) {
	body, err := json.Marshal(map[string]any{
		"amount":   amount,
		"currency": currency,
		"receipt":  "rcpt_" + uuid.New().String()[:8],
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/orders", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(c.keyID, c.keySecret)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("payment: create order: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("payment: create order: status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	order := &Order{}
	if err := json.NewDecoder(resp.Body).Decode(order); err != nil {
		return nil, fmt.Errorf("payment: decode order: %w", err)
	}
	return order, nil
}

// VerifySignature checks the gateway's payment signature: HMAC-SHA256 over
// "orderID|paymentID" keyed with the secret, hex encoded.
func (c *Client) VerifySignature(orderID, paymentID, signature string) bool {
	mac := hmac.New(sha256.New, []byte(c.keySecret))
	mac.Write([]byte(orderID + "|" + paymentID))
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(signature))
}
