package parser

import (
	"strings"
	"testing"

	"github.com/conorfennell/knolstudy/internal/domain"
)

func TestParse(t *testing.T) {
	testCases := []struct {
		name          string
		input         string
		expectedCards int
		expected      domain.Card
	}{
		{
			name:          "Text and translation",
			input:         "Q: 사과\nA: apple",
			expectedCards: 1,
			expected:      domain.Card{Text: "사과", Translation: "apple"},
		},
		{
			name:          "All fields",
			input:         "N: 7\nQ: 감사합니다\nR: gamsahamnida\nT: kam-sa-ham-ni-da\nA: Thank you\nC: greetings",
			expectedCards: 1,
			expected: domain.Card{
				Ordinal:         7,
				Text:            "감사합니다",
				Reading:         "gamsahamnida",
				Transliteration: "kam-sa-ham-ni-da",
				Translation:     "Thank you",
				Tag:             "greetings",
			},
		},
		{
			name: "Multiline translation",
			input: `
Q: 색
A: Red
Blue
Yellow
`,
			expectedCards: 1,
			expected:      domain.Card{Text: "색", Translation: "Red\nBlue\nYellow"},
		},
		{
			name: "Two cards without separator",
			input: `
Q: 하나
A: one
Q: 둘
A: two
`,
			expectedCards: 2,
		},
		{
			name: "Ordinal starts the next card",
			input: `
N: 1
Q: 하나
N: 2
Q: 둘
`,
			expectedCards: 2,
		},
		{
			name:          "Separator",
			input:         "Q: 하나\n---\nA: stray\n---\nQ: 둘",
			expectedCards: 2,
		},
		{
			name:          "No cards, just text",
			input:         "# Korean basics\nSome notes.",
			expectedCards: 0,
		},
		{
			name:          "Prefixes with no space",
			input:         "Q:물\nA:water",
			expectedCards: 1,
			expected:      domain.Card{Text: "물", Translation: "water"},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cards, err := Parse(strings.NewReader(tc.input))
			if err != nil {
				t.Fatalf("Parse() returned an unexpected error: %v", err)
			}

			if len(cards) != tc.expectedCards {
				t.Fatalf("Expected %d cards, but got %d", tc.expectedCards, len(cards))
			}

			if tc.expectedCards == 1 && cards[0] != tc.expected {
				t.Errorf("Expected card %+v, but got %+v", tc.expected, cards[0])
			}
		})
	}
}

func TestParseOrdinals(t *testing.T) {
	cards, err := Parse(strings.NewReader("N: 3\nQ: 셋\n---\nQ: 넷\nN: 4"))
	if err != nil {
		t.Fatalf("Parse() returned an unexpected error: %v", err)
	}
	if len(cards) != 2 {
		t.Fatalf("Expected 2 cards, but got %d", len(cards))
	}
	if cards[0].Ordinal != 3 {
		t.Errorf("Expected first ordinal 3, but got %d", cards[0].Ordinal)
	}
	// N: after the text of a card opens a new, textless card that is dropped.
	if cards[1].Ordinal != 0 {
		t.Errorf("Expected second ordinal 0, but got %d", cards[1].Ordinal)
	}
}

func TestParseInvalidOrdinal(t *testing.T) {
	cards, err := Parse(strings.NewReader("Q: 하나\n---\nN: first\nQ: 둘"))
	if err == nil {
		t.Fatal("Expected an error for a non-numeric ordinal")
	}
	if !strings.Contains(err.Error(), "invalid ordinal") {
		t.Errorf("Unexpected error: %v", err)
	}
	if len(cards) != 1 {
		t.Errorf("Expected the card before the error to be kept, got %d", len(cards))
	}
}
