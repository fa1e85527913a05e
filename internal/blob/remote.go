package blob

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"
)

// TokenSource supplies and refreshes the auth token for the remote store.
// Token returns the current token; Refresh obtains a new one after the
// store rejects the current token.
type TokenSource interface {
	Token(ctx context.Context) (string, error)
	Refresh(ctx context.Context) (string, error)
}

// StaticTokenSource wraps a fixed refresh token into a TokenSource whose
// access token is minted from the remote store's /auth/token endpoint.
type StaticTokenSource struct {
	BaseURL      string
	RefreshToken string
	Client       *http.Client

	mu    sync.Mutex
	token string
}

// Token returns the cached access token, minting one on first use.
func (t *StaticTokenSource) Token(ctx context.Context) (string, error) {
	t.mu.Lock()
	cached := t.token
	t.mu.Unlock()
	if cached != "" {
		return cached, nil
	}
	return t.Refresh(ctx)
}

// Refresh exchanges the refresh token for a fresh access token.
func (t *StaticTokenSource) Refresh(ctx context.Context) (string, error) {
	body, _ := json.Marshal(map[string]string{"refresh_token": t.RefreshToken})
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.BaseURL+"/auth/token", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	client := t.Client
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("token refresh: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token refresh: unexpected status %d", resp.StatusCode)
	}

	var out struct {
		AccessToken string `json:"access_token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("token refresh: %w", err)
	}

	t.mu.Lock()
	t.token = out.AccessToken
	t.mu.Unlock()
	return out.AccessToken, nil
}

// Remote is a Store backed by the vendor file-storage HTTP API.
// Every operation transparently retries once with a refreshed token when
// the store answers 401 or 403.
type Remote struct {
	baseURL string
	tokens  TokenSource
	client  *http.Client
}

// NewRemote creates a remote store client.
func NewRemote(baseURL string, tokens TokenSource) *Remote {
	return &Remote{
		baseURL: baseURL,
		tokens:  tokens,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

// do executes a request, refreshing the auth token and retrying once on a
// 401/403-class response. The caller owns the returned body.
func (r *Remote) do(ctx context.Context, method, path string, query url.Values, body []byte) (*http.Response, error) {
	token, err := r.tokens.Token(ctx)
	if err != nil {
		return nil, err
	}

	resp, err := r.send(ctx, method, path, query, body, token)
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		resp.Body.Close()
		token, err = r.tokens.Refresh(ctx)
		if err != nil {
			return nil, err
		}
		resp, err = r.send(ctx, method, path, query, body, token)
		if err != nil {
			return nil, err
		}
	}

	return resp, nil
}

func (r *Remote) send(ctx context.Context, method, path string, query url.Values, body []byte, token string) (*http.Response, error) {
	u := r.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var reader io.Reader
	if body != nil {
		reader = bytes.NewReader(body)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	if body != nil {
		req.Header.Set("Content-Type", "application/octet-stream")
	}

	return r.client.Do(req)
}

// Mkdir creates a directory with missing parents. An "already exists"
// response is treated as success.
func (r *Remote) Mkdir(ctx context.Context, path string) error {
	body, _ := json.Marshal(map[string]any{"path": path, "create_missing_parents": true})
	resp, err := r.do(ctx, http.MethodPost, "/dirs", nil, body)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusConflict {
		return nil // already exists
	}
	return checkStatus(resp)
}

// ReadDir lists the entries of a directory.
func (r *Remote) ReadDir(ctx context.Context, path string) ([]Entry, error) {
	resp, err := r.do(ctx, http.MethodGet, "/dirs", url.Values{"path": {path}}, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	var entries []Entry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, fmt.Errorf("blob: decode dir listing: %w", err)
	}
	return entries, nil
}

// Read returns the content of a document, or ErrNotFound.
func (r *Remote) Read(ctx context.Context, path string) ([]byte, error) {
	resp, err := r.do(ctx, http.MethodGet, "/files", url.Values{"path": {path}}, nil)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if err := checkStatus(resp); err != nil {
		return nil, err
	}

	return io.ReadAll(resp.Body)
}

// Write stores a document, replacing any previous content.
func (r *Remote) Write(ctx context.Context, path string, data []byte) error {
	resp, err := r.do(ctx, http.MethodPut, "/files", url.Values{"path": {path}}, data)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return checkStatus(resp)
}

// Delete removes a document. A missing document is treated as success.
func (r *Remote) Delete(ctx context.Context, path string) error {
	resp, err := r.do(ctx, http.MethodDelete, "/files", url.Values{"path": {path}}, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil // already gone
	}
	return checkStatus(resp)
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}
	return fmt.Errorf("blob: %s %s: unexpected status %d", resp.Request.Method, resp.Request.URL.Path, resp.StatusCode)
}
