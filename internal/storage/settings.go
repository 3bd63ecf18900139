package storage

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/conorfennell/knolstudy/internal/domain"
)

// GetDeckSettings returns the stored settings of a deck. ok is false when the
// deck was never configured.
func (db *DB) GetDeckSettings(deckID string) (s domain.DeckSettings, ok bool, err error) {
	var period string
	var hide, autoPlay int
	err = db.conn.QueryRow(`
		SELECT daily_new, weekly_new, period, hide_transliteration, auto_play
		FROM deck_settings WHERE deck_id = ?
	`, deckID).Scan(&s.DailyNew, &s.WeeklyNew, &period, &hide, &autoPlay)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.DeckSettings{}, false, nil
	}
	if err != nil {
		return domain.DeckSettings{}, false, fmt.Errorf("failed to get settings for deck %s: %w", deckID, err)
	}
	s.Period = domain.LimitPeriod(period)
	s.HideTransliteration = hide != 0
	s.AutoPlay = autoPlay != 0
	return s, true, nil
}

// SaveDeckSettings stores the settings of a deck.
func (db *DB) SaveDeckSettings(deckID string, s domain.DeckSettings) error {
	_, err := db.conn.Exec(`
		INSERT INTO deck_settings (deck_id, daily_new, weekly_new, period, hide_transliteration, auto_play)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (deck_id) DO UPDATE SET
			daily_new = excluded.daily_new,
			weekly_new = excluded.weekly_new,
			period = excluded.period,
			hide_transliteration = excluded.hide_transliteration,
			auto_play = excluded.auto_play
	`, deckID, s.DailyNew, s.WeeklyNew, string(s.Period), boolInt(s.HideTransliteration), boolInt(s.AutoPlay))
	if err != nil {
		return fmt.Errorf("failed to save settings for deck %s: %w", deckID, err)
	}
	return nil
}
