// Package dispatch fans a single prompt out to multiple chat models,
// streams each model independently, and commits the round's estimated
// token total to the usage ledger once every stream has finished.
package dispatch

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/moneymindsetig2000/bestluck-sub000/internal/chatstore"
	"github.com/moneymindsetig2000/bestluck-sub000/internal/config"
	"github.com/moneymindsetig2000/bestluck-sub000/internal/ledger"
	"github.com/moneymindsetig2000/bestluck-sub000/internal/provider"
	"github.com/moneymindsetig2000/bestluck-sub000/internal/tokens"
)

// ErrorMarker is appended to a model's answer when its stream fails.
const ErrorMarker = "\n\n[Error: failed to fetch response]"

// Outcome is the terminal state of one model's stream within a round.
type Outcome string

const (
	// OutcomeTerminatedEarly: the prompt alone met the request ceiling;
	// the model produced no output.
	OutcomeTerminatedEarly Outcome = "terminated-early"
	// OutcomeTruncated: output was cut mid-stream at the request ceiling.
	OutcomeTruncated Outcome = "truncated-stop"
	// OutcomeComplete: the stream ended naturally.
	OutcomeComplete Outcome = "natural-end"
	// OutcomeErrored: the stream failed; the error marker was emitted.
	OutcomeErrored Outcome = "errored"
)

// Event is one update from a model's stream. The final event of a stream
// has Done set and carries the terminal Outcome.
type Event struct {
	Model    string
	Text     string
	Sources  []chatstore.Source
	LimitHit bool
	Done     bool
	Outcome  Outcome
	Err      error
}

// Round is one in-flight dispatch of a prompt to N models. Callers must
// drain every channel in Events; Wait blocks until all streams reach a
// terminal state and the ledger commit has happened.
type Round struct {
	// Events holds one channel per dispatched model, keyed by model name.
	// Each channel is closed after its terminal event.
	Events map[string]<-chan Event

	done      chan struct{}
	total     atomic.Int64
	record    *ledger.UsageRecord
	commitErr error
}

// Wait blocks until the round is fully settled and returns the usage
// record after the round's single ledger commit.
func (r *Round) Wait() (*ledger.UsageRecord, error) {
	<-r.done
	return r.record, r.commitErr
}

// TotalTokens returns the round's estimated token total. Only valid after
// Wait has returned.
func (r *Round) TotalTokens() int {
	return int(r.total.Load())
}

// Dispatcher runs dispatch rounds against a streaming backend.
type Dispatcher struct {
	streamer provider.Streamer
	ledger   *ledger.Ledger
	ceiling  int
	logger   *slog.Logger
}

// New creates a dispatcher. ceiling is the per-model request token budget
// (prompt plus output, estimated at ~4 characters per token).
func New(streamer provider.Streamer, led *ledger.Ledger, ceiling int, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{
		streamer: streamer,
		ledger:   led,
		ceiling:  ceiling,
		logger:   logger,
	}
}

// Dispatch starts one independent stream per model and returns the round.
// Streams are isolated: an error on one model never affects its siblings.
// After every stream reaches a terminal state, the round's combined
// estimated tokens are recorded against the user's ledger exactly once.
func (d *Dispatcher) Dispatch(ctx context.Context, userID, prompt string, models []config.Model) *Round {
	round := &Round{
		Events: make(map[string]<-chan Event, len(models)),
		done:   make(chan struct{}),
	}

	var wg sync.WaitGroup
	for _, m := range models {
		// A repeated name would orphan the earlier stream's channel and
		// leave its goroutine blocked; only the first entry runs.
		if _, ok := round.Events[m.Name]; ok {
			continue
		}
		ch := make(chan Event)
		round.Events[m.Name] = ch

		wg.Add(1)
		go func(m config.Model, ch chan Event) {
			defer wg.Done()
			defer close(ch)
			d.runModel(ctx, round, m, prompt, ch)
		}(m, ch)
	}

	go func() {
		wg.Wait()
		d.commit(ctx, userID, round)
		close(round.done)
	}()

	return round
}

// runModel drives one model's stream to a terminal state.
func (d *Dispatcher) runModel(ctx context.Context, round *Round, m config.Model, prompt string, ch chan<- Event) {
	promptTokens := tokens.Estimate(prompt)
	round.total.Add(int64(promptTokens))

	if promptTokens >= d.ceiling {
		ch <- Event{Model: m.Name, LimitHit: true, Done: true, Outcome: OutcomeTerminatedEarly}
		return
	}

	stream, err := d.streamer.ChatStream(ctx, prompt, m.Backend)
	if err != nil {
		d.fail(ctx, m.Name, err, ch)
		return
	}
	defer stream.Close()

	outputTokens := 0
	for {
		frag, err := stream.Recv()
		if err == io.EOF {
			ch <- Event{Model: m.Name, Done: true, Outcome: OutcomeComplete}
			break
		}
		if err != nil {
			d.fail(ctx, m.Name, err, ch)
			break
		}

		// Citations are exempt from the token ceiling.
		if len(frag.Sources) > 0 {
			ch <- Event{Model: m.Name, Sources: normalizeSources(frag.Sources)}
		}
		if frag.Text == "" {
			continue
		}

		fragTokens := tokens.Estimate(frag.Text)
		if promptTokens+outputTokens+fragTokens >= d.ceiling {
			// Truncate to the remaining budget, converted back to a
			// character allowance, then stop consuming this stream.
			keep := tokens.Chars(d.ceiling - promptTokens - outputTokens)
			if keep > len(frag.Text) {
				keep = len(frag.Text)
			}
			text := frag.Text[:keep]
			outputTokens += tokens.Estimate(text)
			ch <- Event{Model: m.Name, Text: text, LimitHit: true, Done: true, Outcome: OutcomeTruncated}
			break
		}

		outputTokens += fragTokens
		ch <- Event{Model: m.Name, Text: frag.Text}
	}

	round.total.Add(int64(outputTokens))
}

// fail renders a stream failure inline and terminates only this model.
func (d *Dispatcher) fail(ctx context.Context, model string, err error, ch chan<- Event) {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		ch <- Event{Model: model, Done: true, Outcome: OutcomeErrored, Err: err}
		return
	}

	if d.logger != nil {
		d.logger.Warn("model stream failed", "model", model, "error", err)
	}
	ch <- Event{Model: model, Text: ErrorMarker}
	ch <- Event{Model: model, Done: true, Outcome: OutcomeErrored, Err: err}
}

// commit records the round's token total to the ledger exactly once.
// Accounting survives round cancellation.
func (d *Dispatcher) commit(ctx context.Context, userID string, round *Round) {
	total := int(round.total.Load())
	if total == 0 || d.ledger == nil {
		return
	}

	rec, err := d.ledger.RecordUsage(context.WithoutCancel(ctx), userID, total)
	if err != nil {
		if d.logger != nil {
			d.logger.Error("usage commit failed", "user", userID, "tokens", total, "error", err)
		}
		round.commitErr = err
		return
	}
	round.record = rec
}

// normalizeSources fills citation defaults: a missing title becomes
// "Source" and a missing url becomes "#".
func normalizeSources(in []provider.Source) []chatstore.Source {
	out := make([]chatstore.Source, 0, len(in))
	for _, s := range in {
		title := s.Title
		if title == "" {
			title = "Source"
		}
		url := s.URL
		if url == "" {
			url = "#"
		}
		out = append(out, chatstore.Source{Title: title, URL: url})
	}
	return out
}
