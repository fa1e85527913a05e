package impersonate

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/moneymindsetig2000/bestluck-sub000/internal/provider"
)

type fakeImageStreamer struct {
	fragments []provider.Fragment
	err       error

	gotPrompt string
	gotImages []string
	gotModel  string
}

func (f *fakeImageStreamer) ChatStreamImages(ctx context.Context, prompt string, images []string, backendModel string) (provider.Stream, error) {
	f.gotPrompt = prompt
	f.gotImages = images
	f.gotModel = backendModel
	if f.err != nil {
		return nil, f.err
	}
	return &scriptedStream{fragments: f.fragments}, nil
}

type scriptedStream struct {
	fragments []provider.Fragment
	pos       int
}

func (s *scriptedStream) Recv() (provider.Fragment, error) {
	if s.pos >= len(s.fragments) {
		return provider.Fragment{}, io.EOF
	}
	frag := s.fragments[s.pos]
	s.pos++
	return frag, nil
}

func (s *scriptedStream) Close() error { return nil }

func TestImpersonateStreamsPlainText(t *testing.T) {
	streamer := &fakeImageStreamer{fragments: []provider.Fragment{
		{Text: "Hello "},
		{Text: ""},
		{Text: "world"},
	}}
	h := New(streamer, "sk-test", nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/impersonate",
		strings.NewReader(`{"prompt":"hi","modelName":"openai/gpt-4o","images":["data:image/png;base64,AAA"]}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body.String())
	}
	if got := rec.Body.String(); got != "Hello world" {
		t.Errorf("body = %q", got)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("Content-Type = %q", ct)
	}
	if streamer.gotModel != "openai/gpt-4o" || len(streamer.gotImages) != 1 {
		t.Errorf("upstream call mismatch: model=%q images=%d", streamer.gotModel, len(streamer.gotImages))
	}
}

func TestImpersonatePreflight(t *testing.T) {
	h := New(&fakeImageStreamer{}, "sk-test", nil)

	req := httptest.NewRequest(http.MethodOptions, "/v1/impersonate", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want 204", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("CORS header missing")
	}
}

func TestImpersonateRejectsBadRequests(t *testing.T) {
	tests := []struct {
		name   string
		method string
		body   string
		want   int
	}{
		{"wrong method", http.MethodGet, "", http.StatusMethodNotAllowed},
		{"bad json", http.MethodPost, "{", http.StatusBadRequest},
		{"no prompt or images", http.MethodPost, `{"modelName":"m"}`, http.StatusBadRequest},
		{"no model", http.MethodPost, `{"prompt":"hi"}`, http.StatusBadRequest},
	}
	h := New(&fakeImageStreamer{}, "sk-test", nil)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, "/v1/impersonate", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestImpersonateMissingCredential(t *testing.T) {
	h := New(&fakeImageStreamer{}, "", nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/impersonate",
		strings.NewReader(`{"prompt":"hi","modelName":"m"}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestImpersonateUpstreamFailure(t *testing.T) {
	h := New(&fakeImageStreamer{err: errors.New("upstream: 502 bad gateway at 10.0.0.7")}, "sk-test", nil)

	req := httptest.NewRequest(http.MethodPost, "/v1/impersonate",
		strings.NewReader(`{"prompt":"hi","modelName":"m"}`))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want 503", rec.Code)
	}
	if strings.Contains(rec.Body.String(), "10.0.0.7") {
		t.Error("response leaked upstream internals")
	}
}
