package persist

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/danielpatrickdp/limbic-engine/internal/state"
	_ "modernc.org/sqlite"
)

// #region schema

// StoreName is the fixed, versionless key the state is persisted under.
const StoreName = "limbic-state"

const schema = `
CREATE TABLE IF NOT EXISTS limbic_state (
	name       TEXT PRIMARY KEY,
	payload    TEXT NOT NULL,
	updated_at TEXT NOT NULL
);
`

// #endregion schema

// #region store-struct

// SQLite persists the limbic state as a single keyed JSON row.
type SQLite struct {
	db *sql.DB
}

// #endregion store-struct

// #region constructor

// OpenSQLite opens the database at dbPath and runs migrations.
func OpenSQLite(dbPath string) (*SQLite, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, fmt.Errorf("pragma: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQLite{db: db}, nil
}

// NewSQLiteWithDB wraps an existing database handle. The handle is shared
// with other packages (e.g. the transition log) and not closed by Close.
func NewSQLiteWithDB(db *sql.DB) (*SQLite, error) {
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return &SQLite{db: db}, nil
}

// #endregion constructor

// #region close

// Close closes the underlying database connection.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// DB returns the underlying *sql.DB for use by other packages.
func (s *SQLite) DB() *sql.DB {
	return s.db
}

// #endregion close

// #region save

// Save serializes the full snapshot and upserts it under StoreName.
// Once Save returns, a subsequent Load observes this value or a later one.
func (s *SQLite) Save(st state.LimbicState) error {
	payload, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO limbic_state (name, payload, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(name) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		StoreName, string(payload), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("save state: %w", err)
	}
	return nil
}

// #endregion save

// #region load

// Load reads the persisted snapshot. Missing rows and malformed payloads
// both read as absent. Fields missing from the payload keep the default
// state's values for those fields only; extra fields are ignored.
func (s *SQLite) Load() (state.LimbicState, bool, error) {
	var payload string
	err := s.db.QueryRow(
		`SELECT payload FROM limbic_state WHERE name = ?`, StoreName,
	).Scan(&payload)
	if err == sql.ErrNoRows {
		return state.LimbicState{}, false, nil
	}
	if err != nil {
		return state.LimbicState{}, false, fmt.Errorf("load state: %w", err)
	}

	st := state.Default()
	if err := json.Unmarshal([]byte(payload), &st); err != nil {
		// Corrupt record reads as absent; the caller falls back to defaults.
		return state.LimbicState{}, false, nil
	}
	if !st.Posture.Valid() {
		st.Posture = state.Default().Posture
	}
	st.Trust = state.Clamp01(st.Trust)
	st.Warmth = state.Clamp01(st.Warmth)
	st.Arousal = state.Clamp01(st.Arousal)
	st.Valence = state.Clamp01(st.Valence)
	if st.InteractionCount < 0 {
		st.InteractionCount = 0
	}
	return st, true, nil
}

// #endregion load

// #region clear

// Clear removes the persisted record.
func (s *SQLite) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM limbic_state WHERE name = ?`, StoreName); err != nil {
		return fmt.Errorf("clear state: %w", err)
	}
	return nil
}

// #endregion clear
