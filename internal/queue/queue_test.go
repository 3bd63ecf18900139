package queue

import (
	"fmt"
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/knolstudy/internal/domain"
)

func cards(prefix string, n int) []domain.Card {
	out := make([]domain.Card, n)
	for i := range out {
		out[i] = domain.Card{ID: fmt.Sprintf("%s%d", prefix, i)}
	}
	return out
}

func TestBuildEmpty(t *testing.T) {
	_, err := Build(nil, nil, rand.New(rand.NewPCG(1, 1)))
	assert.ErrorIs(t, err, ErrNoMatchingCards)
}

func TestBuildKeepsNewCardsInOrder(t *testing.T) {
	reviews := cards("r", 5)
	fresh := cards("n", 3)
	original := append([]domain.Card(nil), reviews...)

	q, err := Build(reviews, fresh, rand.New(rand.NewPCG(7, 7)))
	require.NoError(t, err)
	require.Len(t, q, 8)

	assert.Equal(t, fresh, q[5:])
	assert.ElementsMatch(t, reviews, q[:5])
	assert.Equal(t, original, reviews, "input slice must not be reordered")
}

func TestBuildOnlyNew(t *testing.T) {
	fresh := cards("n", 3)
	q, err := Build(nil, fresh, nil)
	require.NoError(t, err)
	assert.Equal(t, fresh, q)
}

func TestShuffleUniform(t *testing.T) {
	rng := rand.New(rand.NewPCG(42, 99))
	counts := map[string]int{}
	const runs = 60000
	for i := 0; i < runs; i++ {
		c := cards("x", 3)
		Shuffle(c, rng)
		counts[c[0].ID+c[1].ID+c[2].ID]++
	}
	require.Len(t, counts, 6)
	for perm, n := range counts {
		// Expect 10000 per ordering; allow generous slack.
		assert.InDelta(t, runs/6, n, 600, "ordering %s", perm)
	}
}
