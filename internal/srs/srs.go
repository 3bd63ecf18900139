// Package srs implements the spaced-repetition update rule that maps a card's
// previous statistics and a rating to its next statistics.
package srs

import (
	"fmt"
	"math"
	"time"

	"github.com/conorfennell/knolstudy/internal/domain"
)

const msPerDay = 24 * 60 * 60 * 1000

// maxDue is the latest representable due date. Later dates saturate here so
// they stay in range for storage and JSON.
var maxDue = time.Date(9999, time.December, 31, 23, 59, 59, 0, time.UTC)

// Parameters of the update rule.
const (
	againEasePenalty = 0.2
	hardEasePenalty  = 0.15
	easyEaseBonus    = 0.15
	hardMultiplier   = 1.2
	easyMultiplier   = 1.3
	firstGood        = 1
	firstEasy        = 4
)

// initial is the statistics assumed for a card that was never rated.
var initial = domain.CardStatistics{Interval: 0, Ease: domain.DefaultEase, Status: domain.StatusNew}

// Update returns the statistics that follow a review with the given rating at now.
// A nil prior means the card is new. An invalid rating is a programming error
// and panics.
func Update(prior *domain.CardStatistics, rating domain.Rating, now time.Time) domain.CardStatistics {
	current := initial
	if prior != nil {
		current = *prior
	}

	interval, ease, status := next(current.Interval, current.Ease, rating)
	interval = math.Round(interval*10) / 10

	return domain.CardStatistics{
		Interval:     interval,
		Ease:         ease,
		Status:       status,
		DueDate:      DueDate(now, interval),
		LastReviewed: now,
		LastRating:   rating,
		Reviews:      current.Reviews + 1,
	}
}

func next(interval, ease float64, rating domain.Rating) (float64, float64, domain.Status) {
	switch rating {
	case domain.Again:
		return 0, math.Max(domain.MinEase, ease-againEasePenalty), domain.StatusLearning
	case domain.Hard:
		return math.Max(1, interval*hardMultiplier), math.Max(domain.MinEase, ease-hardEasePenalty), domain.StatusReview
	case domain.Good:
		if interval == 0 {
			return firstGood, ease, domain.StatusReview
		}
		return interval * ease, ease, domain.StatusReview
	case domain.Easy:
		if interval == 0 {
			return firstEasy, ease + easyEaseBonus, domain.StatusReview
		}
		return interval * ease * easyMultiplier, ease + easyEaseBonus, domain.StatusReview
	}
	panic(fmt.Sprintf("srs: invalid rating %d", int(rating)))
}

// DueDate returns the moment a card reviewed at reviewed becomes due again.
// The sum is taken in Unix milliseconds, so long intervals never wrap.
func DueDate(reviewed time.Time, interval float64) time.Time {
	start := reviewed.UnixMilli()
	offset := math.Round(interval * msPerDay)
	if offset >= float64(maxDue.UnixMilli()-start) {
		return maxDue.In(reviewed.Location())
	}
	return time.UnixMilli(start + int64(offset)).In(reviewed.Location())
}

// Preview returns the interval, in days, that each rating would produce.
func Preview(prior *domain.CardStatistics, now time.Time) map[domain.Rating]float64 {
	out := make(map[domain.Rating]float64, len(domain.Ratings))
	for _, r := range domain.Ratings {
		out[r] = Update(prior, r, now).Interval
	}
	return out
}

// FormatInterval renders an interval in days as a compact label.
func FormatInterval(days float64) string {
	switch {
	case days <= 0:
		return "<10m"
	case days < 1:
		return "1d"
	case days < 30:
		return fmt.Sprintf("%dd", int(math.Round(days)))
	case days < 365:
		return fmt.Sprintf("%dmo", int(math.Round(days/30)))
	}
	return fmt.Sprintf("%dy", int(math.Round(days/365)))
}
