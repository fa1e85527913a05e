package sqlite

import "github.com/moneymindsetig2000/bestluck-sub000/internal/storage/models"

// UpdateDailyUsage upserts daily usage data
func (s *Storage) UpdateDailyUsage(usage *models.DailyUsage) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStorageClosed
	}

	_, err := s.db.Exec(`
		INSERT INTO usage_daily (date, user_id, model, request_count,
			total_tokens, error_count)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(date, user_id, model) DO UPDATE SET
			request_count = request_count + excluded.request_count,
			total_tokens = total_tokens + excluded.total_tokens,
			error_count = error_count + excluded.error_count
	`, usage.Date, usage.UserID, usage.Model, usage.RequestCount,
		usage.TotalTokens, usage.ErrorCount)

	return err
}

// GetDailyUsage returns usage rows between two dates (inclusive, YYYY-MM-DD)
func (s *Storage) GetDailyUsage(startDate, endDate string) ([]*models.DailyUsage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStorageClosed
	}

	rows, err := s.db.Query(`
		SELECT date, user_id, model, request_count, total_tokens, error_count
		FROM usage_daily
		WHERE date >= ? AND date <= ?
		ORDER BY date ASC
	`, startDate, endDate)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var usages []*models.DailyUsage
	for rows.Next() {
		u := &models.DailyUsage{}
		if err := rows.Scan(&u.Date, &u.UserID, &u.Model, &u.RequestCount,
			&u.TotalTokens, &u.ErrorCount); err != nil {
			return nil, err
		}
		usages = append(usages, u)
	}
	return usages, rows.Err()
}

// GetUsageStats aggregates a user's usage with a per-model breakdown
func (s *Storage) GetUsageStats(userID string) (*models.UsageStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStorageClosed
	}

	rows, err := s.db.Query(`
		SELECT model, SUM(request_count), SUM(total_tokens), SUM(error_count)
		FROM usage_daily
		WHERE user_id = ?
		GROUP BY model
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := &models.UsageStats{ModelBreakdown: make(map[string]*models.ModelStats)}
	for rows.Next() {
		ms := &models.ModelStats{}
		if err := rows.Scan(&ms.Model, &ms.RequestCount, &ms.TotalTokens, &ms.ErrorCount); err != nil {
			return nil, err
		}
		stats.TotalRequests += ms.RequestCount
		stats.TotalTokens += ms.TotalTokens
		stats.ErrorCount += ms.ErrorCount
		stats.ModelBreakdown[ms.Model] = ms
	}
	return stats, rows.Err()
}
