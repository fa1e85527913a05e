// Package ledger maintains per-user budget documents on the blob store.
//
// The ledger is advisory: RecordUsage is called after a dispatch round has
// already completed, so tokensUsed can transiently exceed tokensLimit.
// Callers gate new requests by checking the returned record themselves.
package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/moneymindsetig2000/bestluck-sub000/internal/blob"
)

const usageFile = "usage.json"

// UsageRecord is a user's rolling monthly token budget cycle.
// Token counts are estimates (≈4 characters per token), not exact
// provider counts.
type UsageRecord struct {
	TokensUsed     int       `json:"tokensUsed"`
	TokensLimit    int       `json:"tokensLimit"`
	CycleStartedAt time.Time `json:"cycleStartedAt"`
	CycleResetAt   time.Time `json:"cycleResetAt"`
}

// Exhausted reports whether the cycle budget has been reached.
func (r *UsageRecord) Exhausted() bool {
	return r.TokensUsed >= r.TokensLimit
}

// Ledger reads and writes usage cycles for users.
type Ledger struct {
	store        blob.Store
	defaultLimit int
	now          func() time.Time
}

// New creates a ledger over the given store. defaultLimit is the token
// budget assigned to newly created cycles.
func New(store blob.Store, defaultLimit int) *Ledger {
	return &Ledger{
		store:        store,
		defaultLimit: defaultLimit,
		now:          time.Now,
	}
}

// LoadOrInit returns the user's current usage record, creating it on first
// access and rolling the cycle forward if it has expired.
func (l *Ledger) LoadOrInit(ctx context.Context, userID string) (*UsageRecord, error) {
	path := blob.UserSettingsDir(userID) + "/" + usageFile

	data, err := l.store.Read(ctx, path)
	if err == blob.ErrNotFound {
		rec := l.freshRecord()
		if err := l.persist(ctx, userID, rec); err != nil {
			return nil, err
		}
		return rec, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ledger: read usage for %s: %w", userID, err)
	}

	rec := &UsageRecord{}
	if err := json.Unmarshal(data, rec); err != nil {
		return nil, fmt.Errorf("ledger: decode usage for %s: %w", userID, err)
	}

	if rec.TokensLimit <= 0 {
		rec.TokensLimit = l.defaultLimit
	}

	now := l.now()
	changed := false

	if now.After(rec.CycleResetAt) {
		// Roll forward by whole months until the reset lands in the
		// future; covers long inactivity gaps in one pass.
		for !rec.CycleResetAt.After(now) {
			rec.CycleResetAt = rec.CycleResetAt.AddDate(0, 1, 0)
		}
		rec.CycleStartedAt = rec.CycleResetAt.AddDate(0, -1, 0)
		rec.TokensUsed = 0
		changed = true
	} else if rec.CycleStartedAt.IsZero() {
		// Legacy documents predate cycleStartedAt; backfill without
		// resetting usage.
		rec.CycleStartedAt = rec.CycleResetAt.AddDate(0, -1, 0)
		changed = true
	}

	if changed {
		if err := l.persist(ctx, userID, rec); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

// RecordUsage adds tokensConsumed to the user's current cycle and persists
// the record. It does not enforce the budget ceiling.
func (l *Ledger) RecordUsage(ctx context.Context, userID string, tokensConsumed int) (*UsageRecord, error) {
	rec, err := l.LoadOrInit(ctx, userID)
	if err != nil {
		return nil, err
	}

	rec.TokensUsed += tokensConsumed
	if err := l.persist(ctx, userID, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (l *Ledger) freshRecord() *UsageRecord {
	now := l.now()
	return &UsageRecord{
		TokensUsed:     0,
		TokensLimit:    l.defaultLimit,
		CycleStartedAt: now,
		CycleResetAt:   now.AddDate(0, 1, 0),
	}
}

func (l *Ledger) persist(ctx context.Context, userID string, rec *UsageRecord) error {
	dir := blob.UserSettingsDir(userID)
	if err := l.store.Mkdir(ctx, dir); err != nil {
		return fmt.Errorf("ledger: create settings dir for %s: %w", userID, err)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("ledger: encode usage for %s: %w", userID, err)
	}
	if err := l.store.Write(ctx, dir+"/"+usageFile, data); err != nil {
		return fmt.Errorf("ledger: write usage for %s: %w", userID, err)
	}
	return nil
}
