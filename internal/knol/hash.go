// Package knol derives stable card identifiers from card content.
package knol

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"

	"github.com/conorfennell/knolstudy/internal/domain"
)

// Normalize joins the identifying fields of a card after trimming and
// lowercasing each one. Ordinal, tag and transliteration are left out so
// reordering or recategorising a card keeps its progress.
func Normalize(card domain.Card) string {
	parts := []string{card.Text, card.Reading, card.Translation}
	for i, p := range parts {
		p = strings.ReplaceAll(p, "\r\n", "\n")
		parts[i] = strings.ToLower(strings.TrimSpace(p))
	}
	return strings.Join(parts, "\n")
}

// Hash returns the hex SHA-256 of the normalized card.
func Hash(card domain.Card) string {
	sum := sha256.Sum256([]byte(Normalize(card)))
	return hex.EncodeToString(sum[:])
}

// Assign sets the ID of every card to its hash. Later duplicates of the
// same content are dropped, and ordinals missing from the source continue
// from the highest one seen so far.
func Assign(cards []domain.Card) []domain.Card {
	seen := make(map[string]bool, len(cards))
	out := make([]domain.Card, 0, len(cards))
	next := 1
	for _, c := range cards {
		c.ID = Hash(c)
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		if c.Ordinal == 0 {
			c.Ordinal = next
		}
		next = max(next, c.Ordinal+1)
		out = append(out, c)
	}
	return out
}
