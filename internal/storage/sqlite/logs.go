package sqlite

import (
	"time"

	"github.com/moneymindsetig2000/bestluck-sub000/internal/storage/models"
)

// LogRequest inserts a request log entry
func (s *Storage) LogRequest(log *models.RequestLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStorageClosed
	}

	if log.CreatedAt.IsZero() {
		log.CreatedAt = time.Now()
	}

	_, err := s.db.Exec(`
		INSERT INTO request_logs (id, request_id, user_id, session_id, model,
			prompt_tokens, completion_tokens, total_tokens, limit_hit,
			error_message, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, log.ID, log.RequestID, log.UserID, log.SessionID, log.Model,
		log.PromptTokens, log.CompletionTokens, log.TotalTokens,
		boolToInt(log.LimitHit), log.ErrorMessage, log.DurationMs, log.CreatedAt)
	return err
}

// GetRequestLogs returns a user's most recent request logs
func (s *Storage) GetRequestLogs(userID string, limit int) ([]*models.RequestLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStorageClosed
	}

	if limit <= 0 {
		limit = 100
	}

	rows, err := s.db.Query(`
		SELECT id, request_id, user_id, session_id, model, prompt_tokens,
			completion_tokens, total_tokens, limit_hit, error_message,
			duration_ms, created_at
		FROM request_logs
		WHERE user_id = ?
		ORDER BY created_at DESC
		LIMIT ?
	`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []*models.RequestLog
	for rows.Next() {
		log := &models.RequestLog{}
		var limitHit int
		if err := rows.Scan(&log.ID, &log.RequestID, &log.UserID,
			&log.SessionID, &log.Model, &log.PromptTokens,
			&log.CompletionTokens, &log.TotalTokens, &limitHit,
			&log.ErrorMessage, &log.DurationMs, &log.CreatedAt); err != nil {
			return nil, err
		}
		log.LimitHit = limitHit == 1
		logs = append(logs, log)
	}
	return logs, rows.Err()
}
