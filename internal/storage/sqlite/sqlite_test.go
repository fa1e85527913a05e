package sqlite

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/moneymindsetig2000/bestluck-sub000/internal/storage/models"
)

func newTestStorage(t *testing.T) *Storage {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to create storage: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestAPIKeyLifecycle(t *testing.T) {
	s := newTestStorage(t)

	key := &models.ClientAPIKey{
		ID:        "key-1",
		UserID:    "u1",
		Name:      "test key",
		KeyHash:   "$argon2id$...",
		KeyPrefix: "bl_a1B2c3D4",
		RateLimit: 60,
		IsActive:  true,
	}
	if err := s.CreateAPIKey(key); err != nil {
		t.Fatalf("CreateAPIKey failed: %v", err)
	}

	keys, err := s.GetAPIKeyByPrefix("bl_a1B2c3D4")
	if err != nil {
		t.Fatalf("GetAPIKeyByPrefix failed: %v", err)
	}
	if len(keys) != 1 {
		t.Fatalf("got %d keys, want 1", len(keys))
	}
	got := keys[0]
	if got.UserID != "u1" || got.RateLimit != 60 || !got.IsActive {
		t.Errorf("key mismatch: %+v", got)
	}
	if got.LastUsedAt != nil {
		t.Error("fresh key should have no last_used_at")
	}

	if err := s.UpdateAPIKeyLastUsed("key-1"); err != nil {
		t.Fatalf("UpdateAPIKeyLastUsed failed: %v", err)
	}
	keys, _ = s.GetAPIKeyByPrefix("bl_a1B2c3D4")
	if keys[0].LastUsedAt == nil {
		t.Error("last_used_at not updated")
	}

	all, err := s.ListAPIKeys()
	if err != nil {
		t.Fatalf("ListAPIKeys failed: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("got %d keys, want 1", len(all))
	}

	if err := s.DeleteAPIKey("key-1"); err != nil {
		t.Fatalf("DeleteAPIKey failed: %v", err)
	}
	if err := s.DeleteAPIKey("key-1"); err != ErrNotFound {
		t.Errorf("deleting a missing key: got %v, want ErrNotFound", err)
	}
}

func TestGetAPIKeyByPrefixNoMatch(t *testing.T) {
	s := newTestStorage(t)
	keys, err := s.GetAPIKeyByPrefix("bl_nomatch1")
	if err != nil {
		t.Fatalf("GetAPIKeyByPrefix failed: %v", err)
	}
	if len(keys) != 0 {
		t.Errorf("got %d keys, want 0", len(keys))
	}
}

func TestRequestLogs(t *testing.T) {
	s := newTestStorage(t)

	for i, model := range []string{"gpt", "claude"} {
		err := s.LogRequest(&models.RequestLog{
			ID:               "log-" + model,
			RequestID:        "req-1",
			UserID:           "u1",
			SessionID:        "s1",
			Model:            model,
			PromptTokens:     10,
			CompletionTokens: 20 + i,
			TotalTokens:      30 + i,
			LimitHit:         i == 1,
			DurationMs:       150,
			CreatedAt:        time.Now().Add(time.Duration(i) * time.Second),
		})
		if err != nil {
			t.Fatalf("LogRequest failed: %v", err)
		}
	}

	logs, err := s.GetRequestLogs("u1", 10)
	if err != nil {
		t.Fatalf("GetRequestLogs failed: %v", err)
	}
	if len(logs) != 2 {
		t.Fatalf("got %d logs, want 2", len(logs))
	}
	// Newest first
	if logs[0].Model != "claude" {
		t.Errorf("logs[0].Model = %q, want claude", logs[0].Model)
	}
	if !logs[0].LimitHit {
		t.Error("limit_hit not persisted")
	}

	other, err := s.GetRequestLogs("someone-else", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(other) != 0 {
		t.Errorf("logs leaked across users: %d", len(other))
	}
}

func TestDailyUsageUpsert(t *testing.T) {
	s := newTestStorage(t)

	usage := &models.DailyUsage{
		Date:         "2026-03-10",
		UserID:       "u1",
		Model:        "gpt",
		RequestCount: 1,
		TotalTokens:  30,
		ErrorCount:   0,
	}
	if err := s.UpdateDailyUsage(usage); err != nil {
		t.Fatalf("UpdateDailyUsage failed: %v", err)
	}
	// Second write to the same cell accumulates
	usage.TotalTokens = 70
	usage.ErrorCount = 1
	if err := s.UpdateDailyUsage(usage); err != nil {
		t.Fatalf("UpdateDailyUsage failed: %v", err)
	}

	rows, err := s.GetDailyUsage("2026-03-01", "2026-03-31")
	if err != nil {
		t.Fatalf("GetDailyUsage failed: %v", err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d rows, want 1", len(rows))
	}
	if rows[0].RequestCount != 2 || rows[0].TotalTokens != 100 || rows[0].ErrorCount != 1 {
		t.Errorf("aggregation wrong: %+v", rows[0])
	}
}

func TestUsageStats(t *testing.T) {
	s := newTestStorage(t)

	cells := []models.DailyUsage{
		{Date: "2026-03-10", UserID: "u1", Model: "gpt", RequestCount: 2, TotalTokens: 60},
		{Date: "2026-03-11", UserID: "u1", Model: "gpt", RequestCount: 1, TotalTokens: 40},
		{Date: "2026-03-11", UserID: "u1", Model: "claude", RequestCount: 1, TotalTokens: 25, ErrorCount: 1},
	}
	for i := range cells {
		if err := s.UpdateDailyUsage(&cells[i]); err != nil {
			t.Fatal(err)
		}
	}

	stats, err := s.GetUsageStats("u1")
	if err != nil {
		t.Fatalf("GetUsageStats failed: %v", err)
	}
	if stats.TotalRequests != 4 || stats.TotalTokens != 125 || stats.ErrorCount != 1 {
		t.Errorf("totals wrong: %+v", stats)
	}
	if gpt := stats.ModelBreakdown["gpt"]; gpt == nil || gpt.RequestCount != 3 || gpt.TotalTokens != 100 {
		t.Errorf("gpt breakdown wrong: %+v", gpt)
	}
}

func TestClosedStorageRejectsOperations(t *testing.T) {
	s := newTestStorage(t)
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	// Closing twice is fine
	if err := s.Close(); err != nil {
		t.Errorf("second Close: %v", err)
	}

	if err := s.CreateAPIKey(&models.ClientAPIKey{ID: "x"}); err != ErrStorageClosed {
		t.Errorf("got %v, want ErrStorageClosed", err)
	}
	if _, err := s.ListAPIKeys(); err != ErrStorageClosed {
		t.Errorf("got %v, want ErrStorageClosed", err)
	}
}
