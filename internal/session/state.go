package session

import (
	"slices"
	"time"

	"github.com/conorfennell/knolstudy/internal/domain"
)

// State is the persisted study session of one deck. Queue entries at
// positions up to CurrentIndex have been visited.
type State struct {
	ID           string        `json:"id"`
	DeckID       string        `json:"deckId"`
	Queue        []domain.Card `json:"queue"`
	CurrentIndex int           `json:"currentIndex"`
	Stats        Tally         `json:"stats"`
	History      []UndoRecord  `json:"history"`
	ReverseMode  bool          `json:"reverseMode"`
	Timestamp    time.Time     `json:"timestamp"`
}

// UndoRecord is the snapshot taken immediately before a rating is applied.
// PriorStatistics is nil when the card had never been rated.
type UndoRecord struct {
	Index             int                    `json:"index"`
	CardID            string                 `json:"cardId"`
	PriorStatistics   *domain.CardStatistics `json:"priorStatistics,omitempty"`
	PriorSessionStats Tally                  `json:"priorSessionStats"`
	WasRequeued       bool                   `json:"wasRequeued"`
}

// Clone returns a deep copy of s.
func (s *State) Clone() *State {
	if s == nil {
		return nil
	}
	c := *s
	c.Queue = slices.Clone(s.Queue)
	c.History = make([]UndoRecord, len(s.History))
	for i, rec := range s.History {
		if rec.PriorStatistics != nil {
			st := *rec.PriorStatistics
			rec.PriorStatistics = &st
		}
		c.History[i] = rec
	}
	return &c
}

// Current returns the card under the cursor.
func (s *State) Current() (domain.Card, bool) {
	if s == nil || s.CurrentIndex < 0 || s.CurrentIndex >= len(s.Queue) {
		return domain.Card{}, false
	}
	return s.Queue[s.CurrentIndex], true
}

// Remaining is the number of queue entries from the cursor to the end.
func (s *State) Remaining() int {
	return max(0, len(s.Queue)-s.CurrentIndex)
}

// Progress is the fraction of the queue already passed.
func (s *State) Progress() float64 {
	if len(s.Queue) == 0 {
		return 0
	}
	return float64(s.CurrentIndex) / float64(len(s.Queue))
}

// Done reports whether the cursor reached the end of the queue.
func (s *State) Done() bool {
	return s.CurrentIndex >= len(s.Queue)
}
