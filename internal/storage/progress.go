package storage

import (
	"database/sql"
	"fmt"

	"github.com/conorfennell/knolstudy/internal/domain"
)

// LoadProgress reads the statistics of every card in every deck.
func (db *DB) LoadProgress() (domain.ProgressMap, error) {
	rows, err := db.conn.Query(`
		SELECT deck_id, card_id, interval, ease, status, due_date, last_reviewed, last_rating, reviews
		FROM progress
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to load progress: %w", err)
	}
	defer rows.Close()

	progress := domain.ProgressMap{}
	for rows.Next() {
		var (
			deckID, cardID string
			st             domain.CardStatistics
			status         string
			due, reviewed  int64
			lastRating     sql.NullInt64
		)
		if err := rows.Scan(&deckID, &cardID, &st.Interval, &st.Ease, &status, &due, &reviewed, &lastRating, &st.Reviews); err != nil {
			return nil, fmt.Errorf("failed to scan progress row: %w", err)
		}
		st.Status = domain.Status(status)
		st.DueDate = fromMillis(due)
		st.LastReviewed = fromMillis(reviewed)
		if lastRating.Valid {
			st.LastRating = domain.Rating(lastRating.Int64)
		}
		progress.Set(deckID, cardID, st)
	}
	return progress, rows.Err()
}

// PutStatistics stores a card's statistics.
func (tx *Tx) PutStatistics(deckID, cardID string, st domain.CardStatistics) error {
	var lastRating sql.NullInt64
	if st.LastRating != 0 {
		lastRating = sql.NullInt64{Int64: int64(st.LastRating), Valid: true}
	}
	_, err := tx.q.Exec(`
		INSERT INTO progress (deck_id, card_id, interval, ease, status, due_date, last_reviewed, last_rating, reviews)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (deck_id, card_id) DO UPDATE SET
			interval = excluded.interval,
			ease = excluded.ease,
			status = excluded.status,
			due_date = excluded.due_date,
			last_reviewed = excluded.last_reviewed,
			last_rating = excluded.last_rating,
			reviews = excluded.reviews
	`,
		deckID,
		cardID,
		st.Interval,
		st.Ease,
		string(st.Status),
		toMillis(st.DueDate),
		toMillis(st.LastReviewed),
		lastRating,
		st.Reviews,
	)
	if err != nil {
		return fmt.Errorf("failed to store statistics for card %s: %w", cardID, err)
	}
	return nil
}

// DeleteStatistics removes a card's statistics, returning it to new.
func (tx *Tx) DeleteStatistics(deckID, cardID string) error {
	_, err := tx.q.Exec(`DELETE FROM progress WHERE deck_id = ? AND card_id = ?`, deckID, cardID)
	if err != nil {
		return fmt.Errorf("failed to delete statistics for card %s: %w", cardID, err)
	}
	return nil
}

// PutStatistics stores a card's statistics outside a transaction.
func (db *DB) PutStatistics(deckID, cardID string, st domain.CardStatistics) error {
	return db.tx().PutStatistics(deckID, cardID, st)
}

// ResetDeckProgress forgets every statistic of a deck.
func (db *DB) ResetDeckProgress(deckID string) error {
	_, err := db.conn.Exec(`DELETE FROM progress WHERE deck_id = ?`, deckID)
	if err != nil {
		return fmt.Errorf("failed to reset progress for deck %s: %w", deckID, err)
	}
	return nil
}
