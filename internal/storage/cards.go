package storage

import (
	"fmt"

	"github.com/conorfennell/knolstudy/internal/domain"
)

// UpsertCard inserts a card or refreshes its content and ordinal.
func (db *DB) UpsertCard(deckID string, c domain.Card) error {
	_, err := db.conn.Exec(`
		INSERT INTO cards (deck_id, id, ordinal, text, reading, transliteration, translation, tag)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (deck_id, id) DO UPDATE SET
			ordinal = excluded.ordinal,
			text = excluded.text,
			reading = excluded.reading,
			transliteration = excluded.transliteration,
			translation = excluded.translation,
			tag = excluded.tag
	`,
		deckID,
		c.ID,
		c.Ordinal,
		c.Text,
		c.Reading,
		c.Transliteration,
		c.Translation,
		c.Tag,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert card %s: %w", c.ID, err)
	}
	return nil
}

// GetCards retrieves a deck's cards in deck order.
func (db *DB) GetCards(deckID string) ([]domain.Card, error) {
	rows, err := db.conn.Query(`
		SELECT id, ordinal, text, reading, transliteration, translation, tag
		FROM cards WHERE deck_id = ?
		ORDER BY ordinal, id
	`, deckID)
	if err != nil {
		return nil, fmt.Errorf("failed to get cards for deck %s: %w", deckID, err)
	}
	defer rows.Close()

	var cards []domain.Card
	for rows.Next() {
		var c domain.Card
		if err := rows.Scan(&c.ID, &c.Ordinal, &c.Text, &c.Reading, &c.Transliteration, &c.Translation, &c.Tag); err != nil {
			return nil, fmt.Errorf("failed to scan card row for deck %s: %w", deckID, err)
		}
		cards = append(cards, c)
	}
	return cards, rows.Err()
}

// DeleteCard removes a card from a deck. Its progress is kept.
func (db *DB) DeleteCard(deckID, id string) error {
	_, err := db.conn.Exec(`DELETE FROM cards WHERE deck_id = ? AND id = ?`, deckID, id)
	if err != nil {
		return fmt.Errorf("failed to delete card %s: %w", id, err)
	}
	return nil
}
