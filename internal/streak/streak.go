// Package streak tracks the consecutive-day study streak and the daily goal.
package streak

import (
	"math"
	"time"

	"github.com/conorfennell/knolstudy/internal/domain"
)

// DateLayout is the ISO date format used for LastReviewDate.
const DateLayout = "2006-01-02"

// DefaultGoal is the default number of reviews per day.
const DefaultGoal = 30

// Today returns now's local calendar date.
func Today(now time.Time) string {
	return now.Format(DateLayout)
}

// RecordReview returns the stats after one more review on today.
func RecordReview(s domain.UserStats, today string) domain.UserStats {
	switch s.LastReviewDate {
	case today:
		s.DailyReviews++
		return s
	case yesterday(today):
		s.Streak++
	default:
		s.Streak = 1
	}
	s.DailyReviews = 1
	s.LastReviewDate = today
	return s
}

func yesterday(today string) string {
	t, err := time.Parse(DateLayout, today)
	if err != nil {
		return ""
	}
	return t.AddDate(0, 0, -1).Format(DateLayout)
}

// ReviewsOn returns the number of reviews counted for today; counters left over
// from an earlier day count as zero.
func ReviewsOn(s domain.UserStats, today string) int {
	if s.LastReviewDate != today {
		return 0
	}
	return s.DailyReviews
}

// GoalProgress returns the percentage of the daily goal reached, capped at 100.
func GoalProgress(reviews, goal int) int {
	if goal <= 0 {
		return 100
	}
	return min(100, int(math.Round(float64(reviews)*100/float64(goal))))
}
