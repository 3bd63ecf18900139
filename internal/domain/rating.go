package domain

import "fmt"

// Rating is the user's response to a card review.
type Rating int

const (
	Again Rating = 1
	Hard  Rating = 2
	Good  Rating = 3
	Easy  Rating = 4
)

// Ratings lists every valid rating in ascending order.
var Ratings = [...]Rating{Again, Hard, Good, Easy}

var ratingNames = [...]string{Again: "again", Hard: "hard", Good: "good", Easy: "easy"}

// IsValid reports whether r is one of Again through Easy.
func (r Rating) IsValid() bool {
	return r >= Again && r <= Easy
}

// String returns the bucket name of the rating ("again", "hard", "good", "easy").
func (r Rating) String() string {
	if r.IsValid() {
		return ratingNames[r]
	}
	return fmt.Sprintf("Rating(%d)", int(r))
}

// ParseRating maps a bucket name or digit to a Rating.
func ParseRating(s string) (Rating, bool) {
	for _, r := range Ratings {
		if s == ratingNames[r] || s == fmt.Sprint(int(r)) {
			return r, true
		}
	}
	return 0, false
}
