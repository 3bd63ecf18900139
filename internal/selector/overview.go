package selector

import (
	"time"

	"github.com/conorfennell/knolstudy/internal/domain"
)

// masteredAfter is the interval, in days, beyond which a card counts as mastered.
const masteredAfter = 20

// Overview summarises a deck for its dashboard.
type Overview struct {
	Total           int `json:"total"`
	New             int `json:"new"`
	Due             int `json:"due"`
	Learning        int `json:"learning"`
	Mastered        int `json:"mastered"`
	MasteredPercent int `json:"masteredPercent"`
	NewAllowance    int `json:"newAllowance"`
}

// Summarize counts the deck's cards by scheduling state.
func Summarize(cards []domain.Card, progress domain.DeckProgress, settings domain.DeckSettings, now time.Time) Overview {
	o := Overview{Total: len(cards), NewAllowance: NewCardLimit(settings, progress, now)}
	for _, c := range cards {
		st, ok := progress[c.ID]
		if !ok {
			o.New++
			continue
		}
		if st.IsDue(now) {
			o.Due++
		}
		if st.Status == domain.StatusLearning {
			o.Learning++
		}
		if st.Interval > masteredAfter {
			o.Mastered++
		}
	}
	if o.Total > 0 {
		o.MasteredPercent = (o.Mastered*100 + o.Total/2) / o.Total
	}
	return o
}
