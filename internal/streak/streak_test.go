package streak

import (
	"testing"
	"time"

	"github.com/conorfennell/knolstudy/internal/domain"
)

func TestRecordReview(t *testing.T) {
	testCases := []struct {
		name     string
		before   domain.UserStats
		today    string
		expected domain.UserStats
	}{
		{
			name:     "first ever review",
			before:   domain.UserStats{},
			today:    "2025-06-15",
			expected: domain.UserStats{Streak: 1, DailyReviews: 1, LastReviewDate: "2025-06-15"},
		},
		{
			name:     "same day",
			before:   domain.UserStats{Streak: 4, DailyReviews: 9, LastReviewDate: "2025-06-15"},
			today:    "2025-06-15",
			expected: domain.UserStats{Streak: 4, DailyReviews: 10, LastReviewDate: "2025-06-15"},
		},
		{
			name:     "consecutive day",
			before:   domain.UserStats{Streak: 4, DailyReviews: 9, LastReviewDate: "2025-06-14"},
			today:    "2025-06-15",
			expected: domain.UserStats{Streak: 5, DailyReviews: 1, LastReviewDate: "2025-06-15"},
		},
		{
			name:     "across month boundary",
			before:   domain.UserStats{Streak: 2, DailyReviews: 3, LastReviewDate: "2025-02-28"},
			today:    "2025-03-01",
			expected: domain.UserStats{Streak: 3, DailyReviews: 1, LastReviewDate: "2025-03-01"},
		},
		{
			name:     "gap of two days",
			before:   domain.UserStats{Streak: 12, DailyReviews: 30, LastReviewDate: "2025-06-13"},
			today:    "2025-06-15",
			expected: domain.UserStats{Streak: 1, DailyReviews: 1, LastReviewDate: "2025-06-15"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got := RecordReview(tc.before, tc.today)
			if got != tc.expected {
				t.Errorf("Expected %+v, but got %+v", tc.expected, got)
			}
		})
	}
}

func TestToday(t *testing.T) {
	loc := time.FixedZone("JST", 9*60*60)
	now := time.Date(2025, 6, 15, 23, 30, 0, 0, time.UTC).In(loc)
	if got := Today(now); got != "2025-06-16" {
		t.Errorf("Expected the local date 2025-06-16, but got %s", got)
	}
}

func TestGoalProgress(t *testing.T) {
	testCases := []struct {
		reviews, goal, expected int
	}{
		{0, 30, 0},
		{10, 30, 33},
		{15, 30, 50},
		{45, 30, 100},
		{3, 0, 100},
	}
	for _, tc := range testCases {
		if got := GoalProgress(tc.reviews, tc.goal); got != tc.expected {
			t.Errorf("GoalProgress(%d, %d): expected %d, but got %d", tc.reviews, tc.goal, tc.expected, got)
		}
	}
}

func TestReviewsOn(t *testing.T) {
	s := domain.UserStats{Streak: 3, DailyReviews: 12, LastReviewDate: "2025-06-14"}
	if got := ReviewsOn(s, "2025-06-14"); got != 12 {
		t.Errorf("Expected 12, but got %d", got)
	}
	if got := ReviewsOn(s, "2025-06-15"); got != 0 {
		t.Errorf("Expected stale counters to read as 0, but got %d", got)
	}
}
