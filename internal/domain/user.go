package domain

// UserStats holds daily-activity counters shared by all decks.
// LastReviewDate is an ISO date (YYYY-MM-DD) or empty if the user never reviewed.
type UserStats struct {
	Streak         int    `json:"streak"`
	DailyReviews   int    `json:"dailyReviews"`
	LastReviewDate string `json:"lastReviewDate"`
}
