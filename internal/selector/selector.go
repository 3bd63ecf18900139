// Package selector decides which cards of a deck are eligible for a study
// session: due reviews filtered by their last rating bucket, and new cards up
// to the period's allowance.
package selector

import (
	"time"

	"github.com/conorfennell/knolstudy/internal/domain"
)

// Interval thresholds, in days, used to infer a rating for statistics that
// carry none.
const (
	inferredEasyAfter = 20
	inferredGoodAfter = 6
)

// EffectiveRating returns the card's last rating, or a rating inferred from
// its review count and interval when none was recorded.
func EffectiveRating(st domain.CardStatistics) domain.Rating {
	if st.LastRating.IsValid() {
		return st.LastRating
	}
	switch {
	case st.Reviews == 0:
		return domain.Hard
	case st.Interval > inferredEasyAfter:
		return domain.Easy
	case st.Interval > inferredGoodAfter:
		return domain.Good
	}
	return domain.Hard
}

// ReviewCandidates returns, in deck order, the cards that have statistics and
// pass the bucket, tag and due-date filters.
func ReviewCandidates(cards []domain.Card, progress domain.DeckProgress, f domain.Filters, now time.Time) []domain.Card {
	var out []domain.Card
	for _, c := range cards {
		st, ok := progress[c.ID]
		if !ok {
			continue
		}
		if !f.Allows(EffectiveRating(st)) || !f.MatchesTag(c.Tag) {
			continue
		}
		if !f.IgnoreDueDate && !st.IsDue(now) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// NewCandidates returns up to limit cards without statistics, in deck order,
// beginning at the position named by startOrdinal. It returns nil when the
// filters exclude new cards.
func NewCandidates(cards []domain.Card, progress domain.DeckProgress, f domain.Filters, limit, startOrdinal int) []domain.Card {
	if !f.New || limit <= 0 {
		return nil
	}
	start := StartIndex(cards, startOrdinal)
	if start >= len(cards) {
		return nil
	}

	var out []domain.Card
	for _, c := range cards[start:] {
		if len(out) == limit {
			break
		}
		if _, seen := progress[c.ID]; seen || !f.MatchesTag(c.Tag) {
			continue
		}
		out = append(out, c)
	}
	return out
}

// StartIndex maps a "start from #" ordinal to a zero-based deck position: the
// first card whose ordinal matches, else ordinal-1. Zero or less means the start.
func StartIndex(cards []domain.Card, startOrdinal int) int {
	if startOrdinal <= 0 {
		return 0
	}
	for i, c := range cards {
		if c.Ordinal == startOrdinal {
			return i
		}
	}
	return max(0, startOrdinal-1)
}

// NewCardLimit returns how many new cards may be introduced now. Weekly limits
// subtract the cards whose first review happened since the start of the week.
func NewCardLimit(settings domain.DeckSettings, progress domain.DeckProgress, now time.Time) int {
	if settings.Period != domain.PeriodWeekly {
		return settings.DailyNew
	}
	weekStart := WeekStart(now)
	introduced := 0
	for _, st := range progress {
		if st.Reviews == 1 && !st.LastReviewed.Before(weekStart) {
			introduced++
		}
	}
	return max(0, settings.WeeklyNew-introduced)
}

// WeekStart returns the most recent Monday at 00:00 in now's location.
func WeekStart(now time.Time) time.Time {
	sinceMonday := (int(now.Weekday()) + 6) % 7
	y, m, d := now.Date()
	return time.Date(y, m, d-sinceMonday, 0, 0, 0, 0, now.Location())
}
