package persistence

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/petrijr/ritmo/pkg/api"
)

// SQLiteStore is a PatternStore and ExecutionStore backed by SQLite.
//
// It expects an *sql.DB that uses a SQLite driver (for example,
// "modernc.org/sqlite"). The caller is responsible for importing
// the driver, e.g.:
//
//	import _ "modernc.org/sqlite"
type SQLiteStore struct {
	db *sql.DB
}

// Ensure SQLiteStore implements the interfaces.
var _ PatternStore = (*SQLiteStore)(nil)

var _ ExecutionStore = (*SQLiteStore)(nil)

// NewSQLiteStore initializes the required schema in the given database
// and returns a new SQLiteStore.
func NewSQLiteStore(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db}
	if err := s.initSchema(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS patterns (
			id TEXT PRIMARY KEY,
			trigger_desc TEXT NOT NULL,
			actions TEXT NOT NULL,
			status TEXT NOT NULL,
			suspend_reason TEXT,
			created_at INTEGER NOT NULL
		);

		CREATE TABLE IF NOT EXISTS executions (
			id TEXT PRIMARY KEY,
			pattern_id TEXT NOT NULL,
			trigger_event_id TEXT,
			actions_completed INTEGER NOT NULL,
			actions_failed INTEGER NOT NULL,
			success INTEGER NOT NULL,
			error TEXT,
			was_correct INTEGER,
			created_at INTEGER NOT NULL
		);

		CREATE INDEX IF NOT EXISTS idx_executions_pattern
			ON executions(pattern_id, created_at);
		CREATE INDEX IF NOT EXISTS idx_executions_created
			ON executions(created_at);`,
	)
	return err
}

func (s *SQLiteStore) SavePattern(p *api.Pattern) error {
	actions, err := json.Marshal(p.Actions)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(`
		INSERT INTO patterns (id, trigger_desc, actions, status, suspend_reason, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID,
		p.Trigger,
		string(actions),
		string(p.Status),
		p.SuspendReason,
		p.CreatedAt.UnixNano(),
	)
	return err
}

func (s *SQLiteStore) GetPattern(id string) (*api.Pattern, error) {
	row := s.db.QueryRow(`
		SELECT id, trigger_desc, actions, status, suspend_reason, created_at
		FROM patterns
		WHERE id = ?`,
		id,
	)
	return scanPattern(row)
}

func (s *SQLiteStore) ListPatterns(filter PatternFilter) ([]*api.Pattern, error) {
	query := `
		SELECT id, trigger_desc, actions, status, suspend_reason, created_at
		FROM patterns`
	var args []any

	if filter.Status != "" {
		query += " WHERE status = ?"
		args = append(args, string(filter.Status))
	}
	query += " ORDER BY created_at"

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var patterns []*api.Pattern
	for rows.Next() {
		p, err := scanPattern(rows)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return patterns, nil
}

func (s *SQLiteStore) UpdatePatternStatus(id string, status api.PatternStatus, reason string) error {
	res, err := s.db.Exec(`
		UPDATE patterns
		SET status = ?, suspend_reason = ?
		WHERE id = ?`,
		string(status),
		reason,
		id,
	)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrPatternNotFound
	}
	return nil
}

func (s *SQLiteStore) SaveExecution(exec *api.WorkflowExecution) error {
	var wasCorrect any
	if exec.WasCorrect != nil {
		wasCorrect = boolToInt(*exec.WasCorrect)
	}

	_, err := s.db.Exec(`
		INSERT INTO executions (id, pattern_id, trigger_event_id, actions_completed, actions_failed, success, error, was_correct, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		exec.ID,
		exec.PatternID,
		exec.TriggerEventID,
		exec.ActionsCompleted,
		exec.ActionsFailed,
		boolToInt(exec.Success),
		exec.Error,
		wasCorrect,
		exec.CreatedAt.UnixNano(),
	)
	return err
}

func (s *SQLiteStore) GetExecution(id string) (*api.WorkflowExecution, error) {
	row := s.db.QueryRow(`
		SELECT id, pattern_id, trigger_event_id, actions_completed, actions_failed, success, error, was_correct, created_at
		FROM executions
		WHERE id = ?`,
		id,
	)
	return scanExecution(row)
}

func (s *SQLiteStore) ListExecutions(patternID string, onlyWithFeedback bool, limit int) ([]*api.WorkflowExecution, error) {
	query := `
		SELECT id, pattern_id, trigger_event_id, actions_completed, actions_failed, success, error, was_correct, created_at
		FROM executions
		WHERE pattern_id = ?`
	args := []any{patternID}

	if onlyWithFeedback {
		query += " AND was_correct IS NOT NULL"
	}
	// rowid breaks ties between identical timestamps.
	query += " ORDER BY created_at DESC, rowid DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var execs []*api.WorkflowExecution
	for rows.Next() {
		exec, err := scanExecution(rows)
		if err != nil {
			return nil, err
		}
		execs = append(execs, exec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return execs, nil
}

func (s *SQLiteStore) CountExecutionsSince(since time.Time) (int, error) {
	var n int
	err := s.db.QueryRow(`
		SELECT COUNT(*) FROM executions WHERE created_at >= ?`,
		since.UnixNano(),
	).Scan(&n)
	return n, err
}

func (s *SQLiteStore) RecordFeedback(executionID string, wasCorrect bool) error {
	res, err := s.db.Exec(`
		UPDATE executions
		SET was_correct = ?
		WHERE id = ? AND was_correct IS NULL`,
		boolToInt(wasCorrect),
		executionID,
	)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		// Distinguish "missing" from "already reviewed".
		var exists int
		err := s.db.QueryRow(`SELECT COUNT(*) FROM executions WHERE id = ?`, executionID).Scan(&exists)
		if err != nil {
			return err
		}
		if exists == 0 {
			return ErrExecutionNotFound
		}
		return ErrFeedbackAlreadySet
	}
	return nil
}

// rowScanner covers both *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanPattern(row rowScanner) (*api.Pattern, error) {
	var p api.Pattern
	var statusStr, actionsJSON string
	var reason sql.NullString
	var createdAt int64

	if err := row.Scan(&p.ID, &p.Trigger, &actionsJSON, &statusStr, &reason, &createdAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrPatternNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal([]byte(actionsJSON), &p.Actions); err != nil {
		return nil, err
	}
	p.Status = api.PatternStatus(statusStr)
	if reason.Valid {
		p.SuspendReason = reason.String
	}
	p.CreatedAt = time.Unix(0, createdAt)
	return &p, nil
}

func scanExecution(row rowScanner) (*api.WorkflowExecution, error) {
	var exec api.WorkflowExecution
	var triggerEventID, errStr sql.NullString
	var success int
	var wasCorrect sql.NullInt64
	var createdAt int64

	if err := row.Scan(
		&exec.ID,
		&exec.PatternID,
		&triggerEventID,
		&exec.ActionsCompleted,
		&exec.ActionsFailed,
		&success,
		&errStr,
		&wasCorrect,
		&createdAt,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrExecutionNotFound
		}
		return nil, err
	}

	if triggerEventID.Valid {
		exec.TriggerEventID = triggerEventID.String
	}
	exec.Success = success != 0
	if errStr.Valid {
		exec.Error = errStr.String
	}
	if wasCorrect.Valid {
		v := wasCorrect.Int64 != 0
		exec.WasCorrect = &v
	}
	exec.CreatedAt = time.Unix(0, createdAt)
	return &exec, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
