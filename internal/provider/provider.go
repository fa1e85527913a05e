// Package provider defines the chat streaming backend contract.
package provider

import (
	"context"
	"errors"
)

// ErrNoAPIKey is returned when no upstream credential is configured.
var ErrNoAPIKey = errors.New("provider: no API key configured")

// Source is a citation reference delivered alongside streamed text.
type Source struct {
	Title string
	URL   string
}

// Fragment is one unit of streamed model output: a text delta, a batch of
// source citations, or both.
type Fragment struct {
	Text    string
	Sources []Source
}

// Stream is a live model response. Recv blocks for the next fragment and
// returns io.EOF at the natural end of the stream.
type Stream interface {
	Recv() (Fragment, error)
	Close() error
}

// Streamer opens streaming chat completions against a backend model.
type Streamer interface {
	// ChatStream sends a prompt to the given backend model identifier and
	// returns the live response stream.
	ChatStream(ctx context.Context, prompt, backendModel string) (Stream, error)
}

// ImageStreamer opens streams for prompts that may carry inline images
// (data URIs or remote URLs).
type ImageStreamer interface {
	ChatStreamImages(ctx context.Context, prompt string, images []string, backendModel string) (Stream, error)
}
