// Package queue assembles selected cards into the ordered queue of a study session.
package queue

import (
	"errors"
	"math/rand/v2"

	"github.com/conorfennell/knolstudy/internal/domain"
)

// ErrNoMatchingCards is returned when no card passes the session filters.
var ErrNoMatchingCards = errors.New("queue: no cards match filters")

// Build returns the shuffled reviews followed by the new cards in deck order.
// Neither input slice is modified.
func Build(reviews, fresh []domain.Card, rng *rand.Rand) ([]domain.Card, error) {
	if len(reviews)+len(fresh) == 0 {
		return nil, ErrNoMatchingCards
	}
	q := make([]domain.Card, 0, len(reviews)+len(fresh))
	q = append(q, reviews...)
	Shuffle(q, rng)
	return append(q, fresh...), nil
}

// Shuffle permutes cards in place with a uniform Fisher-Yates shuffle.
// A nil rng uses the global source.
func Shuffle(cards []domain.Card, rng *rand.Rand) {
	swap := func(i, j int) { cards[i], cards[j] = cards[j], cards[i] }
	if rng == nil {
		rand.Shuffle(len(cards), swap)
		return
	}
	rng.Shuffle(len(cards), swap)
}
