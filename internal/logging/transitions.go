package logging

import (
	"database/sql"
	"fmt"
	"time"
)

// #region types

// Trigger labels what caused a state transition.
type Trigger string

const (
	TriggerLocalUpdate     Trigger = "local_update"
	TriggerServerDelta     Trigger = "server_delta"
	TriggerServerReplace   Trigger = "server_replace"
	TriggerPostureOverride Trigger = "posture_override"
	TriggerReset           Trigger = "reset"
)

// TransitionEntry is one applied mutation: the trigger and the state it
// produced, serialized as JSON.
type TransitionEntry struct {
	Trigger   Trigger
	StateJSON string
	Detail    string
	CreatedAt time.Time
}

// #endregion types

// #region schema

const schema = `
CREATE TABLE IF NOT EXISTS transition_log (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	trigger_type TEXT NOT NULL,
	state_json   TEXT NOT NULL,
	detail       TEXT,
	created_at   TEXT NOT NULL
);
`

// #endregion schema

// #region transition-log

// TransitionLog is an append-only SQLite audit trail of applied mutations.
type TransitionLog struct {
	db *sql.DB
}

// NewTransitionLog creates the transition_log table if needed.
func NewTransitionLog(db *sql.DB) (*TransitionLog, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate transition log: %w", err)
	}
	return &TransitionLog{db: db}, nil
}

// Append writes one transition entry.
func (l *TransitionLog) Append(entry TransitionEntry) error {
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now().UTC()
	}
	_, err := l.db.Exec(
		`INSERT INTO transition_log (trigger_type, state_json, detail, created_at) VALUES (?, ?, ?, ?)`,
		string(entry.Trigger),
		entry.StateJSON,
		nullIfEmpty(entry.Detail),
		entry.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("append transition: %w", err)
	}
	return nil
}

// Recent returns the most recent entries, newest first.
func (l *TransitionLog) Recent(limit int) ([]TransitionEntry, error) {
	rows, err := l.db.Query(
		`SELECT trigger_type, state_json, detail, created_at
		 FROM transition_log ORDER BY id DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("list transitions: %w", err)
	}
	defer rows.Close()

	var entries []TransitionEntry
	for rows.Next() {
		var e TransitionEntry
		var detail sql.NullString
		var createdStr string
		if err := rows.Scan(&e.Trigger, &e.StateJSON, &detail, &createdStr); err != nil {
			return nil, fmt.Errorf("scan transition: %w", err)
		}
		if detail.Valid {
			e.Detail = detail.String
		}
		e.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// #endregion transition-log

// #region helpers

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

// #endregion helpers
