package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/knowbase/knowbase/internal/session"
)

// SQLiteSessionStore implements session.Store backed by SQLite. State
// is kept as a JSON column; numeric values therefore round-trip as
// float64, which the session diff treats as equal to their int form.
type SQLiteSessionStore struct {
	db *DB
}

var _ session.Store = (*SQLiteSessionStore)(nil)

// NewSQLiteSessionStore creates a session store using the given database.
func NewSQLiteSessionStore(db *DB) *SQLiteSessionStore {
	return &SQLiteSessionStore{db: db}
}

// GetOrCreate returns the state for a session, inserting an empty
// record (and generating an id) when none exists.
func (s *SQLiteSessionStore) GetOrCreate(sessionID string) (string, session.State, error) {
	if sessionID == "" {
		sessionID = uuid.New().String()
	}

	st, found, err := s.load(sessionID)
	if err != nil {
		return "", nil, err
	}
	if found {
		return sessionID, st, nil
	}

	if _, err := s.db.sql.Exec(
		`INSERT INTO sessions (id, state) VALUES (?, '{}')`, sessionID,
	); err != nil {
		return "", nil, fmt.Errorf("creating session: %w", err)
	}
	return sessionID, session.State{}, nil
}

// Get returns a copy of the state, or an empty state for unknown ids.
func (s *SQLiteSessionStore) Get(sessionID string) (session.State, error) {
	st, _, err := s.load(sessionID)
	if err != nil {
		return nil, err
	}
	return st, nil
}

// Apply merges a delta into the stored state. nil values delete keys.
func (s *SQLiteSessionStore) Apply(sessionID string, delta map[string]any) error {
	tx, err := s.db.sql.Begin()
	if err != nil {
		return fmt.Errorf("begin session update: %w", err)
	}
	defer tx.Rollback()

	var raw string
	err = tx.QueryRow(`SELECT state FROM sessions WHERE id = ?`, sessionID).Scan(&raw)
	st := session.State{}
	switch {
	case err == nil:
		if err := json.Unmarshal([]byte(raw), &st); err != nil {
			return fmt.Errorf("decoding session state: %w", err)
		}
	case errors.Is(err, sql.ErrNoRows):
		// fall through, state starts empty
	default:
		return fmt.Errorf("loading session: %w", err)
	}

	session.Apply(st, delta)

	encoded, err := json.Marshal(st)
	if err != nil {
		return fmt.Errorf("encoding session state: %w", err)
	}
	if _, err := tx.Exec(
		`INSERT INTO sessions (id, state) VALUES (?, ?)
		 ON CONFLICT(id) DO UPDATE SET state = excluded.state, updated_at = datetime('now')`,
		sessionID, string(encoded),
	); err != nil {
		return fmt.Errorf("saving session: %w", err)
	}
	return tx.Commit()
}

func (s *SQLiteSessionStore) load(sessionID string) (session.State, bool, error) {
	var raw string
	err := s.db.sql.QueryRow(`SELECT state FROM sessions WHERE id = ?`, sessionID).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return session.State{}, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("loading session: %w", err)
	}

	st := session.State{}
	if err := json.Unmarshal([]byte(raw), &st); err != nil {
		return nil, false, fmt.Errorf("decoding session state: %w", err)
	}
	return st, true, nil
}
