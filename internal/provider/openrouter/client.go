// Package openrouter implements the chat streaming backend against an
// OpenRouter-compatible chat completions endpoint.
package openrouter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/moneymindsetig2000/bestluck-sub000/internal/provider"
)

// Client streams chat completions from an OpenRouter-compatible API.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

// New creates a streaming client. baseURL is the full chat completions
// endpoint (e.g. https://openrouter.ai/api/v1/chat/completions).
func New(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client: &http.Client{
			// DisableCompression required for unbuffered streaming.
			Transport: &http.Transport{DisableCompression: true},
		},
	}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
}

type chatMessage struct {
	Role string `json:"role"`
	// Content is either a plain string or a list of content parts.
	Content any `json:"content"`
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

// ChatStream opens a streaming completion for the prompt against the given
// backend model identifier.
func (c *Client) ChatStream(ctx context.Context, prompt, backendModel string) (provider.Stream, error) {
	return c.stream(ctx, backendModel, chatMessage{Role: "user", Content: prompt})
}

// ChatStreamImages opens a streaming completion for a multimodal prompt.
func (c *Client) ChatStreamImages(ctx context.Context, prompt string, images []string, backendModel string) (provider.Stream, error) {
	parts := make([]contentPart, 0, len(images)+1)
	if prompt != "" {
		parts = append(parts, contentPart{Type: "text", Text: prompt})
	}
	for _, img := range images {
		parts = append(parts, contentPart{Type: "image_url", ImageURL: &imageURL{URL: img}})
	}
	return c.stream(ctx, backendModel, chatMessage{Role: "user", Content: parts})
}

func (c *Client) stream(ctx context.Context, backendModel string, msg chatMessage) (provider.Stream, error) {
	if c.apiKey == "" {
		return nil, provider.ErrNoAPIKey
	}

	body, err := json.Marshal(chatRequest{
		Model:    backendModel,
		Messages: []chatMessage{msg},
		Stream:   true,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("openrouter: request failed: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		defer resp.Body.Close()
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("openrouter: upstream status %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}

	return newSSEStream(resp.Body), nil
}
