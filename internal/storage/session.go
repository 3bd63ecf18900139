package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// LoadSessionSnapshot returns the encoded session in the single slot.
// ok is false when the slot is empty.
func (db *DB) LoadSessionSnapshot() (deckID string, snapshot []byte, ok bool, err error) {
	err = db.conn.QueryRow(`SELECT deck_id, snapshot FROM active_session WHERE slot = 1`).Scan(&deckID, &snapshot)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil, false, nil
	}
	if err != nil {
		return "", nil, false, fmt.Errorf("failed to load session snapshot: %w", err)
	}
	return deckID, snapshot, true, nil
}

// SaveSessionSnapshot replaces the session in the single slot.
func (tx *Tx) SaveSessionSnapshot(deckID string, snapshot []byte, at time.Time) error {
	_, err := tx.q.Exec(`
		INSERT INTO active_session (slot, deck_id, snapshot, updated_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT (slot) DO UPDATE SET
			deck_id = excluded.deck_id,
			snapshot = excluded.snapshot,
			updated_at = excluded.updated_at
	`, deckID, snapshot, toMillis(at))
	if err != nil {
		return fmt.Errorf("failed to save session snapshot for deck %s: %w", deckID, err)
	}
	return nil
}

// ClearSession empties the single slot.
func (tx *Tx) ClearSession() error {
	if _, err := tx.q.Exec(`DELETE FROM active_session`); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}
