package storage

import (
	"fmt"
	"time"

	"github.com/conorfennell/knolstudy/internal/domain"
)

// AppendReview records an applied rating.
func (db *DB) AppendReview(l domain.ReviewLog) error {
	_, err := db.conn.Exec(`
		INSERT INTO review_log (session_id, deck_id, card_id, rating, reviewed_at)
		VALUES (?, ?, ?, ?, ?)
	`, l.SessionID, l.DeckID, l.CardID, int(l.Rating), toMillis(l.ReviewedAt))
	if err != nil {
		return fmt.Errorf("failed to append review for card %s: %w", l.CardID, err)
	}
	return nil
}

// DeleteLatestReview removes the newest review of a card within a session.
func (db *DB) DeleteLatestReview(sessionID, cardID string) error {
	_, err := db.conn.Exec(`
		DELETE FROM review_log WHERE id = (
			SELECT id FROM review_log
			WHERE session_id = ? AND card_id = ?
			ORDER BY id DESC LIMIT 1
		)
	`, sessionID, cardID)
	if err != nil {
		return fmt.Errorf("failed to delete latest review for card %s: %w", cardID, err)
	}
	return nil
}

// ReviewCounts returns how many reviews per rating were logged since the given time.
func (db *DB) ReviewCounts(since time.Time) (map[domain.Rating]int, error) {
	rows, err := db.conn.Query(`
		SELECT rating, COUNT(*) FROM review_log
		WHERE reviewed_at >= ?
		GROUP BY rating
	`, toMillis(since))
	if err != nil {
		return nil, fmt.Errorf("failed to count reviews: %w", err)
	}
	defer rows.Close()

	counts := make(map[domain.Rating]int)
	for rows.Next() {
		var rating, n int
		if err := rows.Scan(&rating, &n); err != nil {
			return nil, fmt.Errorf("failed to scan review count: %w", err)
		}
		counts[domain.Rating(rating)] = n
	}
	return counts, rows.Err()
}
