package ledger

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/moneymindsetig2000/bestluck-sub000/internal/blob"
)

const subscriptionFile = "subscription.json"

// DefaultPlan is assigned to subscription records created on first access.
const DefaultPlan = "free"

// SubscriptionRecord is a user's plan and rolling monthly request budget.
// It follows the same month-rollover policy as UsageRecord but is keyed on
// request count rather than token count.
type SubscriptionRecord struct {
	Plan            string    `json:"plan"`
	RequestsUsed    int       `json:"requestsUsed"`
	RequestsLimit   int       `json:"requestsLimit"`
	PeriodStartDate time.Time `json:"periodStartDate"`
	PeriodEndDate   time.Time `json:"periodEndDate"`
}

// Exhausted reports whether the period's request budget has been reached.
func (r *SubscriptionRecord) Exhausted() bool {
	return r.RequestsUsed >= r.RequestsLimit
}

// Subscriptions reads and writes subscription periods for users.
type Subscriptions struct {
	store        blob.Store
	defaultLimit int
	now          func() time.Time
}

// NewSubscriptions creates a subscription ledger over the given store.
func NewSubscriptions(store blob.Store, defaultLimit int) *Subscriptions {
	return &Subscriptions{
		store:        store,
		defaultLimit: defaultLimit,
		now:          time.Now,
	}
}

// LoadOrInit returns the user's current subscription record, creating it on
// first access and rolling the period forward if it has expired.
func (s *Subscriptions) LoadOrInit(ctx context.Context, userID string) (*SubscriptionRecord, error) {
	path := blob.UserSettingsDir(userID) + "/" + subscriptionFile

	data, err := s.store.Read(ctx, path)
	if err == blob.ErrNotFound {
		now := s.now()
		rec := &SubscriptionRecord{
			Plan:            DefaultPlan,
			RequestsUsed:    0,
			RequestsLimit:   s.defaultLimit,
			PeriodStartDate: now,
			PeriodEndDate:   now.AddDate(0, 1, 0),
		}
		if err := s.persist(ctx, userID, rec); err != nil {
			return nil, err
		}
		return rec, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ledger: read subscription for %s: %w", userID, err)
	}

	rec := &SubscriptionRecord{}
	if err := json.Unmarshal(data, rec); err != nil {
		return nil, fmt.Errorf("ledger: decode subscription for %s: %w", userID, err)
	}

	if rec.RequestsLimit <= 0 {
		rec.RequestsLimit = s.defaultLimit
	}
	if rec.Plan == "" {
		rec.Plan = DefaultPlan
	}

	now := s.now()
	if now.After(rec.PeriodEndDate) {
		for !rec.PeriodEndDate.After(now) {
			rec.PeriodEndDate = rec.PeriodEndDate.AddDate(0, 1, 0)
		}
		rec.PeriodStartDate = rec.PeriodEndDate.AddDate(0, -1, 0)
		rec.RequestsUsed = 0
		if err := s.persist(ctx, userID, rec); err != nil {
			return nil, err
		}
	}
	return rec, nil
}

// RecordRequest counts one request against the user's current period.
func (s *Subscriptions) RecordRequest(ctx context.Context, userID string) (*SubscriptionRecord, error) {
	rec, err := s.LoadOrInit(ctx, userID)
	if err != nil {
		return nil, err
	}

	rec.RequestsUsed++
	if err := s.persist(ctx, userID, rec); err != nil {
		return nil, err
	}
	return rec, nil
}

func (s *Subscriptions) persist(ctx context.Context, userID string, rec *SubscriptionRecord) error {
	dir := blob.UserSettingsDir(userID)
	if err := s.store.Mkdir(ctx, dir); err != nil {
		return fmt.Errorf("ledger: create settings dir for %s: %w", userID, err)
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("ledger: encode subscription for %s: %w", userID, err)
	}
	if err := s.store.Write(ctx, dir+"/"+subscriptionFile, data); err != nil {
		return fmt.Errorf("ledger: write subscription for %s: %w", userID, err)
	}
	return nil
}
