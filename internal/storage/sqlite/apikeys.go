package sqlite

import (
	"database/sql"
	"time"

	"github.com/moneymindsetig2000/bestluck-sub000/internal/storage/models"
)

// CreateAPIKey inserts a new API key record
func (s *Storage) CreateAPIKey(key *models.ClientAPIKey) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStorageClosed
	}

	if key.CreatedAt.IsZero() {
		key.CreatedAt = time.Now()
	}

	_, err := s.db.Exec(`
		INSERT INTO api_keys (id, user_id, name, key_hash, key_prefix,
			rate_limit, is_active, created_at, expires_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, key.ID, key.UserID, key.Name, key.KeyHash, key.KeyPrefix,
		key.RateLimit, boolToInt(key.IsActive), key.CreatedAt, key.ExpiresAt)
	return err
}

// GetAPIKeyByPrefix returns all keys matching an identifying prefix.
// Prefix collisions are possible, so callers verify the hash per key.
func (s *Storage) GetAPIKeyByPrefix(prefix string) ([]*models.ClientAPIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStorageClosed
	}

	rows, err := s.db.Query(`
		SELECT id, user_id, name, key_hash, key_prefix, rate_limit,
			is_active, last_used_at, created_at, expires_at
		FROM api_keys WHERE key_prefix = ?
	`, prefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAPIKeys(rows)
}

// ListAPIKeys returns all issued keys, newest first
func (s *Storage) ListAPIKeys() ([]*models.ClientAPIKey, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.closed {
		return nil, ErrStorageClosed
	}

	rows, err := s.db.Query(`
		SELECT id, user_id, name, key_hash, key_prefix, rate_limit,
			is_active, last_used_at, created_at, expires_at
		FROM api_keys ORDER BY created_at DESC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanAPIKeys(rows)
}

// DeleteAPIKey removes a key by id
func (s *Storage) DeleteAPIKey(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStorageClosed
	}

	res, err := s.db.Exec(`DELETE FROM api_keys WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// UpdateAPIKeyLastUsed stamps the key's last use time
func (s *Storage) UpdateAPIKeyLastUsed(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return ErrStorageClosed
	}

	_, err := s.db.Exec(`UPDATE api_keys SET last_used_at = ? WHERE id = ?`, time.Now(), id)
	return err
}

func scanAPIKeys(rows *sql.Rows) ([]*models.ClientAPIKey, error) {
	var keys []*models.ClientAPIKey
	for rows.Next() {
		key := &models.ClientAPIKey{}
		var isActive int
		var lastUsed, expires sql.NullTime

		if err := rows.Scan(&key.ID, &key.UserID, &key.Name, &key.KeyHash,
			&key.KeyPrefix, &key.RateLimit, &isActive, &lastUsed,
			&key.CreatedAt, &expires); err != nil {
			return nil, err
		}

		key.IsActive = isActive == 1
		if lastUsed.Valid {
			key.LastUsedAt = &lastUsed.Time
		}
		if expires.Valid {
			key.ExpiresAt = &expires.Time
		}
		keys = append(keys, key)
	}
	return keys, rows.Err()
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
