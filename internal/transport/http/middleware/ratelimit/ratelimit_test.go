package ratelimit

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/moneymindsetig2000/bestluck-sub000/internal/storage"
	"github.com/moneymindsetig2000/bestluck-sub000/internal/transport/http/middleware/auth"
)

func TestAllowWithinBudget(t *testing.T) {
	l := New(time.Minute)
	for i := 0; i < 5; i++ {
		if !l.Allow("k1", 5) {
			t.Fatalf("request %d denied within budget", i)
		}
	}
	if l.Allow("k1", 5) {
		t.Error("request allowed past the budget")
	}
}

func TestZeroLimitIsUnlimited(t *testing.T) {
	l := New(time.Minute)
	for i := 0; i < 1000; i++ {
		if !l.Allow("k1", 0) {
			t.Fatal("unlimited key was rate limited")
		}
	}
}

func TestBucketsAreIndependent(t *testing.T) {
	l := New(time.Minute)
	for i := 0; i < 3; i++ {
		l.Allow("busy", 3)
	}
	if l.Allow("busy", 3) {
		t.Error("exhausted key allowed")
	}
	if !l.Allow("quiet", 3) {
		t.Error("fresh key denied")
	}
}

func TestShortWindowRefills(t *testing.T) {
	// With a 100ms window and a budget of 2, a drained bucket recovers
	// a full request within the window.
	l := New(100 * time.Millisecond)
	l.Allow("k1", 2)
	l.Allow("k1", 2)
	if l.Allow("k1", 2) {
		t.Fatal("request allowed past the budget")
	}

	time.Sleep(120 * time.Millisecond)
	if !l.Allow("k1", 2) {
		t.Error("bucket did not refill after the window elapsed")
	}
}

func TestNonPositiveWindowDefaultsToMinute(t *testing.T) {
	l := New(0)
	if l.window != time.Minute {
		t.Errorf("window = %v, want 1m", l.window)
	}
}

func TestMiddlewareReturns429(t *testing.T) {
	l := New(30 * time.Second)
	handler := Middleware(l)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	key := &storage.ClientAPIKey{ID: "k1", UserID: "u1", RateLimit: 1, IsActive: true}
	newReq := func() *http.Request {
		req := httptest.NewRequest(http.MethodPost, "/api/chat", nil)
		ctx := context.WithValue(req.Context(), auth.APIKeyContextKey{}, key)
		return req.WithContext(ctx)
	}

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, newReq())
	if rec.Code != http.StatusOK {
		t.Fatalf("first request: status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, newReq())
	if rec.Code != http.StatusTooManyRequests {
		t.Errorf("second request: status = %d, want 429", rec.Code)
	}
	if got := rec.Header().Get("Retry-After"); got != "30" {
		t.Errorf("Retry-After = %q, want the limiter's window in seconds", got)
	}
}

func TestMiddlewarePassesUnauthenticated(t *testing.T) {
	handler := Middleware(New(time.Minute))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/chat", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("status = %d; unauthenticated requests are the auth layer's problem", rec.Code)
	}
}
