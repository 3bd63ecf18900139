package knol

import (
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/conorfennell/knolstudy/internal/domain"
)

func TestNormalize(t *testing.T) {
	card := domain.Card{
		Text:            "  안녕하세요 \r\n",
		Reading:         "AnnyeongHaseyo",
		Transliteration: "ignored",
		Translation:     "Hello",
		Tag:             "Greetings",
	}
	expected := "안녕하세요\nannyeonghaseyo\nhello"
	normalized := Normalize(card)

	if normalized != expected {
		t.Errorf("Expected normalized string to be '%s', but got '%s'", expected, normalized)
	}
}

func TestHash(t *testing.T) {
	t.Run("hashes the normalized form", func(t *testing.T) {
		card := domain.Card{Text: "Q", Reading: "R", Translation: "A"}
		sum := sha256.Sum256([]byte("q\nr\na"))
		expectedHash := hex.EncodeToString(sum[:])

		if hash := Hash(card); hash != expectedHash {
			t.Errorf("Expected hash '%s', but got '%s'", expectedHash, hash)
		}
	})

	t.Run("normalization produces same hash", func(t *testing.T) {
		card1 := domain.Card{Text: "  물 ", Translation: "Water"}
		card2 := domain.Card{Text: "물", Translation: "water", Ordinal: 9, Tag: "nouns"}
		if Hash(card1) != Hash(card2) {
			t.Error("Expected hashes to be the same after normalization, but they were different.")
		}
	})

	t.Run("different cards have different hashes", func(t *testing.T) {
		card1 := domain.Card{Text: "하나"}
		card2 := domain.Card{Text: "둘"}
		if Hash(card1) == Hash(card2) {
			t.Error("Expected hashes for different cards to be different")
		}
	})

	t.Run("fields do not bleed into each other", func(t *testing.T) {
		card1 := domain.Card{Text: "ab", Reading: ""}
		card2 := domain.Card{Text: "a", Reading: "b"}
		if Hash(card1) == Hash(card2) {
			t.Error("Expected field boundaries to change the hash")
		}
	})
}

func TestAssign(t *testing.T) {
	cards := Assign([]domain.Card{
		{Text: "하나"},
		{Text: "다섯", Ordinal: 5},
		{Text: "하나 "},
		{Text: "여섯"},
		{Text: "둘", Ordinal: 2},
	})

	if len(cards) != 4 {
		t.Fatalf("Expected duplicates to be dropped, got %d cards", len(cards))
	}
	wantOrdinals := []int{1, 5, 6, 2}
	for i, c := range cards {
		if c.ID != Hash(c) {
			t.Errorf("card %d: ID not set to its hash", i)
		}
		if c.Ordinal != wantOrdinals[i] {
			t.Errorf("card %d: expected ordinal %d, got %d", i, wantOrdinals[i], c.Ordinal)
		}
	}
}
