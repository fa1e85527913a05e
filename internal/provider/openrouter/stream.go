package openrouter

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"

	"github.com/moneymindsetig2000/bestluck-sub000/internal/provider"
)

// chunk is the SSE payload shape of a streamed completion delta.
type chunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Annotations []annotation `json:"annotations,omitempty"`
}

// annotation carries citation metadata attached to a chunk.
type annotation struct {
	Type string `json:"type"`
	URL  struct {
		Title string `json:"title"`
		URL   string `json:"url"`
	} `json:"url_citation"`
}

// sseStream parses an SSE body into provider fragments.
type sseStream struct {
	body    io.ReadCloser
	scanner *bufio.Scanner
}

func newSSEStream(body io.ReadCloser) *sseStream {
	scanner := bufio.NewScanner(body)
	// Set a larger buffer for potentially large chunks
	buf := make([]byte, 64*1024)
	scanner.Buffer(buf, 256*1024)

	return &sseStream{body: body, scanner: scanner}
}

var dataPrefix = []byte("data: ")
var doneMarker = []byte("[DONE]")

// Recv returns the next fragment, or io.EOF at the end of the stream.
// Malformed chunks are skipped rather than surfaced as errors.
func (s *sseStream) Recv() (provider.Fragment, error) {
	for s.scanner.Scan() {
		line := s.scanner.Bytes()
		if !bytes.HasPrefix(line, dataPrefix) {
			continue
		}

		data := bytes.TrimPrefix(line, dataPrefix)
		if bytes.Equal(data, doneMarker) {
			return provider.Fragment{}, io.EOF
		}

		var ch chunk
		if err := json.Unmarshal(data, &ch); err != nil {
			continue // Skip malformed chunks
		}

		frag := provider.Fragment{}
		for _, choice := range ch.Choices {
			frag.Text += choice.Delta.Content
		}
		for _, ann := range ch.Annotations {
			if ann.Type != "url_citation" {
				continue
			}
			frag.Sources = append(frag.Sources, provider.Source{
				Title: ann.URL.Title,
				URL:   ann.URL.URL,
			})
		}

		if frag.Text == "" && len(frag.Sources) == 0 {
			continue
		}
		return frag, nil
	}

	if err := s.scanner.Err(); err != nil {
		return provider.Fragment{}, err
	}
	return provider.Fragment{}, io.EOF
}

// Close releases the underlying response body.
func (s *sseStream) Close() error {
	return s.body.Close()
}
