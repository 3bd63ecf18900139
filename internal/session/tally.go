package session

import (
	"math"

	"github.com/conorfennell/knolstudy/internal/domain"
)

// Tally counts the ratings given during a session, one bucket per rating.
type Tally struct {
	Again int `json:"again"`
	Hard  int `json:"hard"`
	Good  int `json:"good"`
	Easy  int `json:"easy"`
}

// Add increments the bucket of r.
func (t *Tally) Add(r domain.Rating) {
	switch r {
	case domain.Again:
		t.Again++
	case domain.Hard:
		t.Hard++
	case domain.Good:
		t.Good++
	case domain.Easy:
		t.Easy++
	}
}

// Count returns the bucket of r.
func (t Tally) Count(r domain.Rating) int {
	switch r {
	case domain.Again:
		return t.Again
	case domain.Hard:
		return t.Hard
	case domain.Good:
		return t.Good
	case domain.Easy:
		return t.Easy
	}
	return 0
}

// Total is the sum of all buckets.
func (t Tally) Total() int {
	return t.Again + t.Hard + t.Good + t.Easy
}

// Accuracy is the share of good and easy ratings, or 0 for an empty tally.
func (t Tally) Accuracy() float64 {
	total := t.Total()
	if total == 0 {
		return 0
	}
	return float64(t.Good+t.Easy) / float64(total)
}

// Summary is the end-of-session report.
type Summary struct {
	Tally
	Total           int     `json:"total"`
	Accuracy        float64 `json:"accuracy"`
	AccuracyPercent int     `json:"accuracyPercent"`
}

// Summary builds the report for the tally.
func (t Tally) Summary() Summary {
	acc := t.Accuracy()
	return Summary{
		Tally:           t,
		Total:           t.Total(),
		Accuracy:        acc,
		AccuracyPercent: int(math.Round(acc * 100)),
	}
}
