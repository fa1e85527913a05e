// Package payment serves the order creation and verification endpoints.
package payment

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/moneymindsetig2000/bestluck-sub000/internal/payment"
	"github.com/moneymindsetig2000/bestluck-sub000/internal/types"
)

// Handlers holds the dependencies for payment HTTP handlers.
type Handlers struct {
	Client   *payment.Client
	Amount   int
	Currency string
	Logger   *slog.Logger
}

// New creates a new instance of payment handlers.
func New(client *payment.Client, amount int, currency string, logger *slog.Logger) *Handlers {
	return &Handlers{
		Client:   client,
		Amount:   amount,
		Currency: currency,
		Logger:   logger,
	}
}

// CreateOrder creates a fixed-amount order at the gateway
// (POST /api/payment/create-order).
func (h *Handlers) CreateOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.Client.CreateOrder(r.Context(), h.Amount, h.Currency)
	if err != nil {
		if h.Logger != nil {
			h.Logger.Error("order creation failed", "error", err)
		}
		// Gateway internals stay server-side.
		types.WriteError(w, http.StatusInternalServerError, types.ErrServer("failed to create order, retry later"))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(order)
}

// verifyRequest is the POST /api/payment/verify-payment body.
type verifyRequest struct {
	OrderID   string `json:"order_id"`
	PaymentID string `json:"payment_id"`
	Signature string `json:"signature"`
}

// VerifyPayment checks the gateway's payment signature
// (POST /api/payment/verify-payment).
func (h *Handlers) VerifyPayment(w http.ResponseWriter, r *http.Request) {
	var req verifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		types.WriteError(w, http.StatusBadRequest, types.ErrInvalidRequest("invalid request body"))
		return
	}
	if req.OrderID == "" || req.PaymentID == "" || req.Signature == "" {
		types.WriteError(w, http.StatusBadRequest, types.ErrInvalidRequest("order_id, payment_id and signature are required"))
		return
	}

	verified := h.Client.VerifySignature(req.OrderID, req.PaymentID, req.Signature)

	w.Header().Set("Content-Type", "application/json")
	if !verified {
		w.WriteHeader(http.StatusBadRequest)
	}
	_ = json.NewEncoder(w).Encode(map[string]bool{"verified": verified})
}
