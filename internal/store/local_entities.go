package store

import (
	"context"
	"fmt"

	"focusflow/internal/logging"
)

// =============================================================================
// LEARNED ENTITIES
// =============================================================================
// Clarification answers are remembered per user so the same question is not
// asked twice. Storage is append-only; the knowledge provider decides whether
// accumulated values resolve a field silently or become multiple choice.

// AddEntity records one field value for a user. Duplicates are silently
// ignored.
func (s *LocalStore) AddEntity(ctx context.Context, userID, field, value string) error {
	if userID == "" || field == "" || value == "" {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO entities (user_id, field, value) VALUES (?, ?, ?)`,
		userID, field, value,
	)
	if err != nil {
		return fmt.Errorf("failed to record entity %s for %s: %w", field, userID, err)
	}

	logging.StoreDebug("learned entity user=%s field=%s", userID, field)
	return nil
}

// GetEntities returns all recorded values per field for a user, oldest first
// within each field.
func (s *LocalStore) GetEntities(ctx context.Context, userID string) (map[string][]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx,
		`SELECT field, value FROM entities WHERE user_id = ? ORDER BY field, id`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load entities for %s: %w", userID, err)
	}
	defer rows.Close()

	entities := make(map[string][]string)
	for rows.Next() {
		var field, value string
		if err := rows.Scan(&field, &value); err != nil {
			return nil, fmt.Errorf("failed to scan entity for %s: %w", userID, err)
		}
		entities[field] = append(entities[field], value)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate entities for %s: %w", userID, err)
	}
	return entities, nil
}
