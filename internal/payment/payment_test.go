package payment

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sign(secret, orderID, paymentID string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(orderID + "|" + paymentID))
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	c := New("http://unused", "key", "secret")

	good := sign("secret", "order_1", "pay_1")
	assert.True(t, c.VerifySignature("order_1", "pay_1", good))

	assert.False(t, c.VerifySignature("order_1", "pay_1", "deadbeef"))
	assert.False(t, c.VerifySignature("order_2", "pay_1", good), "signature bound to order id")
	assert.False(t, c.VerifySignature("order_1", "pay_2", good), "signature bound to payment id")

	wrongKey := sign("other-secret", "order_1", "pay_1")
	assert.False(t, c.VerifySignature("order_1", "pay_1", wrongKey))
}

func TestCreateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/orders", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		require.True(t, ok)
		assert.Equal(t, "key", user)
		assert.Equal(t, "secret", pass)

		var body struct {
			Amount   int    `json:"amount"`
			Currency string `json:"currency"`
			Receipt  string `json:"receipt"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, 799900, body.Amount)
		assert.Equal(t, "INR", body.Currency)
		assert.True(t, strings.HasPrefix(body.Receipt, "rcpt_"))

		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(Order{
			ID:       "order_test123",
			Amount:   body.Amount,
			Currency: body.Currency,
			Receipt:  body.Receipt,
			Status:   "created",
		})
	}))
	defer srv.Close()

	c := New(srv.URL, "key", "secret")
	order, err := c.CreateOrder(context.Background(), 799900, "INR")
	require.NoError(t, err)
	assert.Equal(t, "order_test123", order.ID)
	assert.Equal(t, 799900, order.Amount)
	assert.Equal(t, "created", order.Status)
}

func TestCreateOrderGatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"bad credentials"}`))
	}))
	defer srv.Close()

	c := New(srv.URL, "key", "wrong")
	_, err := c.CreateOrder(context.Background(), 799900, "INR")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 401")
}
