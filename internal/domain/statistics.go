package domain

import "time"

// Status is the learning stage of a card.
type Status string

const (
	StatusNew      Status = "new"
	StatusLearning Status = "learning"
	StatusReview   Status = "review"
)

// Ease bounds shared by the updater and the loaders.
const (
	DefaultEase = 2.5
	MinEase     = 1.3
)

// CardStatistics is the per-card memory state. A zero LastReviewed or
// LastRating means the value is unset.
type CardStatistics struct {
	Interval     float64   `json:"interval"`
	Ease         float64   `json:"ease"`
	Status       Status    `json:"status"`
	DueDate      time.Time `json:"dueDate"`
	LastReviewed time.Time `json:"lastReviewed"`
	LastRating   Rating    `json:"lastRating,omitempty"`
	Reviews      int       `json:"reviews"`
}

// IsDue reports whether the card is scheduled at or before now.
func (s CardStatistics) IsDue(now time.Time) bool {
	return !s.DueDate.After(now)
}

// DeckProgress maps card IDs to their statistics within one deck.
type DeckProgress map[string]CardStatistics

// ProgressMap maps deck IDs to their progress.
type ProgressMap map[string]DeckProgress

// Get returns the statistics of a card, if any.
func (p ProgressMap) Get(deckID, cardID string) (CardStatistics, bool) {
	st, ok := p[deckID][cardID]
	return st, ok
}

// Set stores the statistics of a card, creating the deck entry as needed.
func (p ProgressMap) Set(deckID, cardID string, st CardStatistics) {
	deck, ok := p[deckID]
	if !ok {
		deck = make(DeckProgress)
		p[deckID] = deck
	}
	deck[cardID] = st
}

// Delete removes a card's statistics, returning it to the new state.
func (p ProgressMap) Delete(deckID, cardID string) {
	delete(p[deckID], cardID)
}

// Deck returns a copy of one deck's progress. The copy is never nil.
func (p ProgressMap) Deck(deckID string) DeckProgress {
	out := make(DeckProgress, len(p[deckID]))
	for id, st := range p[deckID] {
		out[id] = st
	}
	return out
}
