// Package store persists capture sessions and learned user entities in a
// local SQLite database.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"focusflow/internal/logging"
	"focusflow/internal/types"

	_ "modernc.org/sqlite"
)

// LocalStore implements types.TaskStore on SQLite. Sessions live in two
// tables: the task row holds the intent as a JSON blob, micro-steps are
// relational rows so the step list round-trips without ordering surprises.
type LocalStore struct {
	db     *sql.DB
	mu     sync.RWMutex
	dbPath string
}

// NewLocalStore initializes the SQLite database at the given path.
func NewLocalStore(path string) (*LocalStore, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	s := &LocalStore{db: db, dbPath: path}
	if err := s.initialize(); err != nil {
		db.Close()
		return nil, err
	}

	logging.Store("local store ready at %s", path)
	return s, nil
}

func (s *LocalStore) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS tasks (
		task_id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL DEFAULT '',
		intent_json TEXT NOT NULL,
		state TEXT NOT NULL,
		ask_for_clarity INTEGER NOT NULL DEFAULT 1,
		auto_mode INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_tasks_user ON tasks(user_id);

	CREATE TABLE IF NOT EXISTS micro_steps (
		task_id TEXT NOT NULL,
		step_id TEXT NOT NULL,
		step_number INTEGER NOT NULL,
		description TEXT NOT NULL,
		estimated_minutes INTEGER NOT NULL,
		leaf_type TEXT NOT NULL,
		confidence REAL NOT NULL,
		required_fields_json TEXT NOT NULL DEFAULT '[]',
		icon TEXT NOT NULL DEFAULT '',
		PRIMARY KEY (task_id, step_id)
	);
	CREATE INDEX IF NOT EXISTS idx_steps_task ON micro_steps(task_id, step_number);

	CREATE TABLE IF NOT EXISTS entities (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		field TEXT NOT NULL,
		value TEXT NOT NULL,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(user_id, field, value)
	);
	CREATE INDEX IF NOT EXISTS idx_entities_user ON entities(user_id, field);
	`
	if _, err := s.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *LocalStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Close()
}

// SaveSession inserts a new session. The caller assigns the task ID first.
func (s *LocalStore) SaveSession(ctx context.Context, session *types.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	intentJSON, err := json.Marshal(session.Intent)
	if err != nil {
		return fmt.Errorf("failed to encode intent: %w", err)
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO tasks (task_id, user_id, intent_json, state, ask_for_clarity, auto_mode, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		session.TaskID, session.UserID, string(intentJSON), string(session.State),
		boolToInt(session.AskForClarity), boolToInt(session.AutoMode),
		session.CreatedAt, session.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert task %s: %w", session.TaskID, err)
	}

	if err := insertSteps(ctx, tx, session.TaskID, session.Steps); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit session %s: %w", session.TaskID, err)
	}

	logging.StoreDebug("saved session %s with %d steps", session.TaskID, len(session.Steps))
	return nil
}

// UpdateSession rewrites an existing session in full. Steps are replaced
// rather than diffed; the plan is small and the write stays atomic.
func (s *LocalStore) UpdateSession(ctx context.Context, session *types.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	intentJSON, err := json.Marshal(session.Intent)
	if err != nil {
		return fmt.Errorf("failed to encode intent: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE tasks SET user_id = ?, intent_json = ?, state = ?, ask_for_clarity = ?, auto_mode = ?, updated_at = ?
		 WHERE task_id = ?`,
		session.UserID, string(intentJSON), string(session.State),
		boolToInt(session.AskForClarity), boolToInt(session.AutoMode),
		session.UpdatedAt, session.TaskID,
	)
	if err != nil {
		return fmt.Errorf("failed to update task %s: %w", session.TaskID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return types.ErrTaskNotFound
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM micro_steps WHERE task_id = ?`, session.TaskID); err != nil {
		return fmt.Errorf("failed to clear steps for %s: %w", session.TaskID, err)
	}
	if err := insertSteps(ctx, tx, session.TaskID, session.Steps); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit session %s: %w", session.TaskID, err)
	}

	logging.StoreDebug("updated session %s, state=%s", session.TaskID, session.State)
	return nil
}

// GetSession loads a session by task ID.
func (s *LocalStore) GetSession(ctx context.Context, taskID string) (*types.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session := &types.Session{TaskID: taskID}
	var intentJSON string
	var askForClarity, autoMode int

	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, intent_json, state, ask_for_clarity, auto_mode, created_at, updated_at
		 FROM tasks WHERE task_id = ?`, taskID,
	).Scan(&session.UserID, &intentJSON, &session.State, &askForClarity, &autoMode,
		&session.CreatedAt, &session.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, types.ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load task %s: %w", taskID, err)
	}

	if err := json.Unmarshal([]byte(intentJSON), &session.Intent); err != nil {
		return nil, fmt.Errorf("corrupt intent for task %s: %w", taskID, err)
	}
	session.AskForClarity = askForClarity != 0
	session.AutoMode = autoMode != 0

	rows, err := s.db.QueryContext(ctx,
		`SELECT step_id, step_number, description, estimated_minutes, leaf_type, confidence, required_fields_json, icon
		 FROM micro_steps WHERE task_id = ? ORDER BY step_number`, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to load steps for %s: %w", taskID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var step types.MicroStep
		var fieldsJSON, leafType string
		if err := rows.Scan(&step.StepID, &step.StepNumber, &step.Description,
			&step.EstimatedMinutes, &leafType, &step.Confidence, &fieldsJSON, &step.Icon); err != nil {
			return nil, fmt.Errorf("failed to scan step for %s: %w", taskID, err)
		}
		step.ParentTaskID = taskID
		step.LeafType = types.LeafType(leafType)
		if err := json.Unmarshal([]byte(fieldsJSON), &step.RequiredFields); err != nil {
			return nil, fmt.Errorf("corrupt required fields for %s: %w", taskID, err)
		}
		session.Steps = append(session.Steps, step)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate steps for %s: %w", taskID, err)
	}
	return session, nil
}

func insertSteps(ctx context.Context, tx *sql.Tx, taskID string, steps []types.MicroStep) error {
	for _, step := range steps {
		fieldsJSON, err := json.Marshal(step.RequiredFields)
		if err != nil {
			return fmt.Errorf("failed to encode required fields: %w", err)
		}
		_, err = tx.ExecContext(ctx,
			`INSERT INTO micro_steps (task_id, step_id, step_number, description, estimated_minutes, leaf_type, confidence, required_fields_json, icon)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			taskID, step.StepID, step.StepNumber, step.Description, step.EstimatedMinutes,
			string(step.LeafType), step.Confidence, string(fieldsJSON), step.Icon,
		)
		if err != nil {
			return fmt.Errorf("failed to insert step %s: %w", step.StepID, err)
		}
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
