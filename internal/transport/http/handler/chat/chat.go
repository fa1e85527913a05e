// Package chat serves the dispatch and session endpoints.
package chat

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/moneymindsetig2000/bestluck-sub000/internal/blob"
	"github.com/moneymindsetig2000/bestluck-sub000/internal/chatstore"
	"github.com/moneymindsetig2000/bestluck-sub000/internal/config"
	"github.com/moneymindsetig2000/bestluck-sub000/internal/dispatch"
	"github.com/moneymindsetig2000/bestluck-sub000/internal/ledger"
	"github.com/moneymindsetig2000/bestluck-sub000/internal/storage"
	"github.com/moneymindsetig2000/bestluck-sub000/internal/tokens"
	"github.com/moneymindsetig2000/bestluck-sub000/internal/transport/http/middleware"
	"github.com/moneymindsetig2000/bestluck-sub000/internal/transport/http/middleware/auth"
	"github.com/moneymindsetig2000/bestluck-sub000/internal/types"
)

// maxTitleLen bounds session titles derived from the first prompt.
const maxTitleLen = 48

// Handlers holds the dependencies for chat HTTP handlers.
type Handlers struct {
	Dispatcher    *dispatch.Dispatcher
	Sessions      *chatstore.Store
	Ledger        *ledger.Ledger
	Subscriptions *ledger.Subscriptions
	Storage       storage.Storage
	Config        *config.Config
	Logger        *slog.Logger
}

// New creates a new instance of chat handlers.
func New(d *dispatch.Dispatcher, sessions *chatstore.Store, led *ledger.Ledger,
	subs *ledger.Subscriptions, store storage.Storage, cfg *config.Config, logger *slog.Logger) *Handlers {
	return &Handlers{
		Dispatcher:    d,
		Sessions:      sessions,
		Ledger:        led,
		Subscriptions: subs,
		Storage:       store,
		Config:        cfg,
		Logger:        logger,
	}
}

// chatRequest is the POST /api/chat body.
type chatRequest struct {
	SessionID string   `json:"session_id,omitempty"`
	Prompt    string   `json:"prompt"`
	Models    []string `json:"models,omitempty"`
}

// streamEvent is one SSE payload of the chat stream.
type streamEvent struct {
	Model    string             `json:"model,omitempty"`
	Delta    string             `json:"delta,omitempty"`
	Sources  []chatstore.Source `json:"sources,omitempty"`
	LimitHit bool               `json:"limitHit,omitempty"`
	Done     bool               `json:"done,omitempty"`
	Error    string             `json:"error,omitempty"`

	// Round-level fields, set on the final event only.
	SessionID   string `json:"sessionId,omitempty"`
	TokensUsed  int    `json:"tokensUsed,omitempty"`
	TokensLimit int    `json:"tokensLimit,omitempty"`
}

// Chat dispatches one prompt to the selected models and streams per-model
// events back over SSE. The session document is persisted and the usage
// ledger committed once after every model stream has finished.
func (h *Handlers) Chat(w http.ResponseWriter, r *http.Request) {
	userID := auth.GetUserID(r.Context())
	if userID == "" {
		types.WriteError(w, http.StatusUnauthorized, types.ErrAuthentication("authentication required"))
		return
	}

	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		types.WriteError(w, http.StatusBadRequest, types.ErrInvalidRequest("invalid request body"))
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		types.WriteError(w, http.StatusBadRequest, types.ErrInvalidRequest("prompt is required"))
		return
	}

	models, err := h.resolveModels(req.Models)
	if err != nil {
		types.WriteError(w, http.StatusBadRequest, types.ErrInvalidRequest(err.Error()))
		return
	}

	// The ledger is advisory; the gate lives here, before dispatch.
	usage, err := h.Ledger.LoadOrInit(r.Context(), userID)
	if err != nil {
		types.WriteError(w, http.StatusInternalServerError, types.ErrServer("failed to load usage"))
		return
	}
	if usage.Exhausted() {
		types.WriteError(w, http.StatusTooManyRequests, types.NewAPIError("monthly token budget exhausted", types.ErrorTypeRateLimit))
		return
	}

	sub, err := h.Subscriptions.LoadOrInit(r.Context(), userID)
	if err != nil {
		types.WriteError(w, http.StatusInternalServerError, types.ErrServer("failed to load subscription"))
		return
	}
	if sub.Exhausted() {
		types.WriteError(w, http.StatusTooManyRequests, types.NewAPIError("monthly request budget exhausted", types.ErrorTypeRateLimit))
		return
	}

	sessionID := req.SessionID
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	// Load prior history so the new exchanges append to it. A missing
	// document means a new session; any other read failure must not
	// proceed, or the save at the end would overwrite the transcript
	// with only this round's exchanges.
	history := chatstore.History{}
	title := deriveTitle(req.Prompt)
	doc, err := h.Sessions.LoadSession(r.Context(), userID, sessionID)
	switch {
	case err == nil:
		history = doc.History
		if doc.Title != "" {
			title = doc.Title
		}
	case errors.Is(err, blob.ErrNotFound):
		// new session
	default:
		types.WriteError(w, http.StatusInternalServerError, types.ErrServer("failed to load session"))
		return
	}
	if history == nil {
		history = chatstore.History{}
	}

	exchanges := make(map[string]*chatstore.Exchange, len(models))
	for _, m := range models {
		history[m.Name] = append(history[m.Name], chatstore.Exchange{Prompt: req.Prompt})
		exchanges[m.Name] = &history[m.Name][len(history[m.Name])-1]
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		types.WriteError(w, http.StatusInternalServerError, types.ErrServer("streaming unsupported"))
		return
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	start := time.Now()
	round := h.Dispatcher.Dispatch(r.Context(), userID, req.Prompt, models)

	limitHit := make(map[string]bool, len(models))
	streamErr := make(map[string]string, len(models))

	for ev := range mergeEvents(round) {
		if ex := exchanges[ev.Model]; ex != nil {
			ex.Answer += ev.Text
			ex.Sources = append(ex.Sources, ev.Sources...)
		}
		if ev.LimitHit {
			limitHit[ev.Model] = true
		}
		if ev.Err != nil {
			streamErr[ev.Model] = ev.Err.Error()
		}

		writeSSE(w, flusher, streamEvent{
			Model:    ev.Model,
			Delta:    ev.Text,
			Sources:  ev.Sources,
			LimitHit: ev.LimitHit,
			Done:     ev.Done,
		})
	}

	rec, commitErr := round.Wait()
	if commitErr != nil && h.Logger != nil {
		h.Logger.Error("round commit failed", "user", userID, "error", commitErr)
	}

	if _, err := h.Sessions.SaveSession(r.Context(), userID, sessionID, title, history); err != nil {
		if h.Logger != nil {
			h.Logger.Error("session save failed", "user", userID, "session", sessionID, "error", err)
		}
	}
	if _, err := h.Subscriptions.RecordRequest(r.Context(), userID); err != nil && h.Logger != nil {
		h.Logger.Error("subscription update failed", "user", userID, "error", err)
	}

	final := streamEvent{Done: true, SessionID: sessionID}
	if rec != nil {
		final.TokensUsed = rec.TokensUsed
		final.TokensLimit = rec.TokensLimit
	}
	writeSSE(w, flusher, final)
	_, _ = w.Write([]byte("data: [DONE]\n\n"))
	flusher.Flush()

	go h.logRound(middleware.GetRequestID(r.Context()), userID, sessionID, req.Prompt,
		exchanges, limitHit, streamErr, time.Since(start))
}

// resolveModels maps requested model names to configured models; an empty
// request selects every enabled model.
func (h *Handlers) resolveModels(names []string) ([]config.Model, error) {
	if len(names) == 0 {
		models := h.Config.EnabledModels()
		if len(models) == 0 {
			return nil, errors.New("no models configured")
		}
		return models, nil
	}

	models := make([]config.Model, 0, len(names))
	seen := make(map[string]struct{}, len(names))
	for _, name := range names {
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}

		m := h.Config.FindModel(name)
		if m == nil {
			return nil, fmt.Errorf("unknown model: %s", name)
		}
		models = append(models, *m)
	}
	return models, nil
}

// mergeEvents fans the round's per-model channels into a single stream.
func mergeEvents(round *dispatch.Round) <-chan dispatch.Event {
	merged := make(chan dispatch.Event)
	var wg sync.WaitGroup
	for _, ch := range round.Events {
		wg.Add(1)
		go func(ch <-chan dispatch.Event) {
			defer wg.Done()
			for ev := range ch {
				merged <- ev
			}
		}(ch)
	}
	go func() {
		wg.Wait()
		close(merged)
	}()
	return merged
}

func writeSSE(w http.ResponseWriter, flusher http.Flusher, ev streamEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		return
	}
	_, _ = w.Write([]byte("data: "))
	_, _ = w.Write(data)
	_, _ = w.Write([]byte("\n\n"))
	flusher.Flush()
}

// logRound records per-model request logs and daily aggregates.
func (h *Handlers) logRound(requestID, userID, sessionID, prompt string,
	exchanges map[string]*chatstore.Exchange, limitHit map[string]bool,
	streamErr map[string]string, duration time.Duration) {
	if h.Storage == nil {
		return
	}

	promptTokens := tokens.Estimate(prompt)
	today := time.Now().Format("2006-01-02")

	for model, ex := range exchanges {
		completion := tokens.Estimate(ex.Answer)
		_ = h.Storage.LogRequest(&storage.RequestLog{
			ID:               uuid.New().String(),
			RequestID:        requestID,
			UserID:           userID,
			SessionID:        sessionID,
			Model:            model,
			PromptTokens:     promptTokens,
			CompletionTokens: completion,
			TotalTokens:      promptTokens + completion,
			LimitHit:         limitHit[model],
			ErrorMessage:     streamErr[model],
			DurationMs:       duration.Milliseconds(),
			CreatedAt:        time.Now(),
		})

		errorCount := 0
		if streamErr[model] != "" {
			errorCount = 1
		}
		_ = h.Storage.UpdateDailyUsage(&storage.DailyUsage{
			Date:         today,
			UserID:       userID,
			Model:        model,
			RequestCount: 1,
			TotalTokens:  promptTokens + completion,
			ErrorCount:   errorCount,
		})
	}
}

// deriveTitle builds a session title from the first prompt. Titles are
// capped by rune count so multibyte text is never cut mid-character.
func deriveTitle(prompt string) string {
	title := strings.TrimSpace(prompt)
	runes := []rune(title)
	if len(runes) <= maxTitleLen {
		return title
	}
	return strings.TrimSpace(string(runes[:maxTitleLen])) + "…"
}
