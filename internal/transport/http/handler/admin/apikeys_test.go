package admin

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/moneymindsetig2000/bestluck-sub000/internal/storage"
)

func newTestHandlers(t *testing.T) *Handlers {
	t.Helper()
	store, err := storage.NewSQLiteStorage(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("failed to open storage: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return New(store)
}

func TestCreateAPIKey(t *testing.T) {
	h := newTestHandlers(t)

	body := `{"user_id":"u1","name":"ci key","rate_limit":60,"expires_in":3600}`
	req := httptest.NewRequest(http.MethodPost, "/api/admin/apikeys", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.CreateAPIKey(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}

	var resp struct {
		ID        string `json:"id"`
		Key       string `json:"key"`
		KeyPrefix string `json:"key_prefix"`
		ExpiresAt string `json:"expires_at"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(resp.Key, storage.APIKeyPrefix) {
		t.Errorf("plaintext key %q missing prefix", resp.Key)
	}
	if resp.KeyPrefix != storage.ExtractKeyPrefix(resp.Key) {
		t.Errorf("key_prefix %q does not match key", resp.KeyPrefix)
	}
	if resp.ExpiresAt == "" {
		t.Error("expires_at not set despite expires_in")
	}

	// The stored record must hold a hash that verifies the plaintext,
	// never the plaintext itself.
	keys, err := h.Storage.GetAPIKeyByPrefix(resp.KeyPrefix)
	if err != nil || len(keys) != 1 {
		t.Fatalf("lookup failed: %v (%d keys)", err, len(keys))
	}
	if keys[0].KeyHash == resp.Key {
		t.Error("plaintext key stored")
	}
	if ok, _ := storage.VerifySecret(resp.Key, keys[0].KeyHash); !ok {
		t.Error("stored hash does not verify the issued key")
	}
}

func TestCreateAPIKeyValidation(t *testing.T) {
	h := newTestHandlers(t)

	for _, body := range []string{`{`, `{"name":"no user"}`, `{"user_id":"no name"}`} {
		req := httptest.NewRequest(http.MethodPost, "/api/admin/apikeys", strings.NewReader(body))
		rec := httptest.NewRecorder()
		h.CreateAPIKey(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, rec.Code)
		}
	}
}

func TestListAndDeleteAPIKeys(t *testing.T) {
	h := newTestHandlers(t)

	req := httptest.NewRequest(http.MethodPost, "/api/admin/apikeys",
		strings.NewReader(`{"user_id":"u1","name":"key"}`))
	rec := httptest.NewRecorder()
	h.CreateAPIKey(rec, req)
	if rec.Code != http.StatusCreated {
		t.Fatal(rec.Body.String())
	}
	var created struct {
		ID string `json:"id"`
	}
	json.NewDecoder(rec.Body).Decode(&created)

	rec = httptest.NewRecorder()
	h.ListAPIKeys(rec, httptest.NewRequest(http.MethodGet, "/api/admin/apikeys", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d", rec.Code)
	}
	var listed struct {
		Keys []storage.ClientAPIKey `json:"keys"`
	}
	json.NewDecoder(rec.Body).Decode(&listed)
	if len(listed.Keys) != 1 {
		t.Fatalf("got %d keys, want 1", len(listed.Keys))
	}
	if listed.Keys[0].KeyHash != "" {
		t.Error("hash leaked in listing")
	}

	del := httptest.NewRequest(http.MethodDelete, "/api/admin/apikeys/"+created.ID, nil)
	del.SetPathValue("id", created.ID)
	rec = httptest.NewRecorder()
	h.DeleteAPIKey(rec, del)
	if rec.Code != http.StatusNoContent {
		t.Errorf("delete status = %d", rec.Code)
	}

	del = httptest.NewRequest(http.MethodDelete, "/api/admin/apikeys/"+created.ID, nil)
	del.SetPathValue("id", created.ID)
	rec = httptest.NewRecorder()
	h.DeleteAPIKey(rec, del)
	if rec.Code != http.StatusNotFound {
		t.Errorf("second delete status = %d, want 404", rec.Code)
	}
}
