package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/conorfennell/knolstudy/internal/domain"
)

// LoadUserStats returns the streak counters, zero-valued if never saved.
func (db *DB) LoadUserStats() (domain.UserStats, error) {
	var s domain.UserStats
	err := db.conn.QueryRow(`
		SELECT streak, daily_reviews, last_review_date FROM user_stats WHERE slot = 1
	`).Scan(&s.Streak, &s.DailyReviews, &s.LastReviewDate)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.UserStats{}, nil
	}
	if err != nil {
		return domain.UserStats{}, fmt.Errorf("failed to load user stats: %w", err)
	}
	return s, nil
}

// SaveUserStats stores the streak counters.
func (tx *Tx) SaveUserStats(s domain.UserStats) error {
	_, err := tx.q.Exec(`
		INSERT INTO user_stats (slot, streak, daily_reviews, last_review_date)
		VALUES (1, ?, ?, ?)
		ON CONFLICT (slot) DO UPDATE SET
			streak = excluded.streak,
			daily_reviews = excluded.daily_reviews,
			last_review_date = excluded.last_review_date
	`, s.Streak, s.DailyReviews, s.LastReviewDate)
	if err != nil {
		return fmt.Errorf("failed to save user stats: %w", err)
	}
	return nil
}
