package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/conorfennell/knolstudy/internal/domain"
)

const deckColumns = `id, name, path, type, last_scanned`

func scanDeck(row interface{ Scan(...any) error }) (domain.Deck, error) {
	var d domain.Deck
	var lastScanned sql.NullInt64
	if err := row.Scan(&d.ID, &d.Name, &d.Path, &d.Type, &lastScanned); err != nil {
		return domain.Deck{}, err
	}
	d.LastScanned = fromMillis(lastScanned.Int64)
	return d, nil
}

// InsertDeck registers a new deck source.
func (db *DB) InsertDeck(d domain.Deck) error {
	_, err := db.conn.Exec(`
		INSERT INTO decks (id, name, path, type)
		VALUES (?, ?, ?, ?)
	`, d.ID, d.Name, d.Path, d.Type)
	if err != nil {
		return fmt.Errorf("failed to insert deck %s: %w", d.ID, err)
	}
	return nil
}

// FindDeck retrieves a deck by its ID.
func (db *DB) FindDeck(id string) (domain.Deck, error) {
	d, err := scanDeck(db.conn.QueryRow(`SELECT `+deckColumns+` FROM decks WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Deck{}, fmt.Errorf("deck %s: %w", id, ErrNotFound)
	}
	if err != nil {
		return domain.Deck{}, fmt.Errorf("failed to find deck %s: %w", id, err)
	}
	return d, nil
}

// FindDeckByPath retrieves a deck by its source path.
func (db *DB) FindDeckByPath(path string) (domain.Deck, error) {
	d, err := scanDeck(db.conn.QueryRow(`SELECT `+deckColumns+` FROM decks WHERE path = ?`, path))
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Deck{}, fmt.Errorf("deck at %s: %w", path, ErrNotFound)
	}
	if err != nil {
		return domain.Deck{}, fmt.Errorf("failed to find deck by path %s: %w", path, err)
	}
	return d, nil
}

// GetAllDecks retrieves all decks ordered by name.
func (db *DB) GetAllDecks() ([]domain.Deck, error) {
	rows, err := db.conn.Query(`SELECT ` + deckColumns + ` FROM decks ORDER BY name, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to get all decks: %w", err)
	}
	defer rows.Close()

	var decks []domain.Deck
	for rows.Next() {
		d, err := scanDeck(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan deck row: %w", err)
		}
		decks = append(decks, d)
	}
	return decks, rows.Err()
}

// UpdateDeckLastScanned records when the deck source was last reconciled.
func (db *DB) UpdateDeckLastScanned(id string, at time.Time) error {
	_, err := db.conn.Exec(`UPDATE decks SET last_scanned = ? WHERE id = ?`, toMillis(at), id)
	if err != nil {
		return fmt.Errorf("failed to update last scanned for deck %s: %w", id, err)
	}
	return nil
}

// DeleteDeck removes a deck, its cards, settings and progress.
func (db *DB) DeleteDeck(id string) error {
	return db.Update(func(tx *Tx) error {
		for _, stmt := range []string{
			`DELETE FROM progress WHERE deck_id = ?`,
			`DELETE FROM deck_settings WHERE deck_id = ?`,
			`DELETE FROM cards WHERE deck_id = ?`,
			`DELETE FROM decks WHERE id = ?`,
		} {
			if _, err := tx.q.Exec(stmt, id); err != nil {
				return fmt.Errorf("failed to delete deck %s: %w", id, err)
			}
		}
		return nil
	})
}
