package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/moneymindsetig2000/bestluck-sub000/internal/payment"
)

func newTestHandlers(gateway string) *Handlers {
	return New(payment.New(gateway, "key", "secret"), 799900, "INR", nil)
}

func TestCreateOrderEndpoint(t *testing.T) {
	gw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(payment.Order{ID: "order_1", Amount: 799900, Currency: "INR", Status: "created"})
	}))
	defer gw.Close()

	h := newTestHandlers(gw.URL)
	req := httptest.NewRequest(http.MethodPost, "/api/payment/create-order", nil)
	rec := httptest.NewRecorder()
	h.CreateOrder(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var order payment.Order
	if err := json.NewDecoder(rec.Body).Decode(&order); err != nil {
		t.Fatal(err)
	}
	if order.ID != "order_1" || order.Amount != 799900 {
		t.Errorf("order = %+v", order)
	}
}

func TestCreateOrderGatewayDown(t *testing.T) {
	gw := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("internal gateway detail"))
	}))
	defer gw.Close()

	h := newTestHandlers(gw.URL)
	rec := httptest.NewRecorder()
	h.CreateOrder(rec, httptest.NewRequest(http.MethodPost, "/api/payment/create-order", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "internal gateway detail") {
		t.Error("gateway error leaked to the client")
	}
}

func TestVerifyPayment(t *testing.T) {
	mac := hmac.New(sha256.New, []byte("secret"))
	mac.Write([]byte("order_1|pay_1"))
	goodSig := hex.EncodeToString(mac.Sum(nil))

	tests := []struct {
		name       string
		body       string
		wantCode   int
		wantOK     bool
		checkField bool
	}{
		{
			"valid signature",
			`{"order_id":"order_1","payment_id":"pay_1","signature":"` + goodSig + `"}`,
			http.StatusOK, true, true,
		},
		{
			"tampered signature",
			`{"order_id":"order_1","payment_id":"pay_1","signature":"deadbeef"}`,
			http.StatusBadRequest, false, true,
		},
		{
			"missing fields",
			`{"order_id":"order_1"}`,
			http.StatusBadRequest, false, false,
		},
		{
			"bad json",
			`{`,
			http.StatusBadRequest, false, false,
		},
	}

	h := newTestHandlers("http://unused")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/payment/verify-payment", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.VerifyPayment(rec, req)

			if rec.Code != tt.wantCode {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantCode)
			}
			if tt.checkField {
				var out map[string]bool
				if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
					t.Fatal(err)
				}
				if out["verified"] != tt.wantOK {
					t.Errorf("verified = %v, want %v", out["verified"], tt.wantOK)
				}
			}
		})
	}
}
