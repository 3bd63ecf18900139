package domain

import (
	"testing"
	"time"
)

func TestRatingString(t *testing.T) {
	testCases := []struct {
		rating   Rating
		expected string
	}{
		{Again, "again"},
		{Hard, "hard"},
		{Good, "good"},
		{Easy, "easy"},
		{Rating(7), "Rating(7)"},
	}
	for _, tc := range testCases {
		if got := tc.rating.String(); got != tc.expected {
			t.Errorf("Expected '%s', but got '%s'", tc.expected, got)
		}
	}
}

func TestParseRating(t *testing.T) {
	if r, ok := ParseRating("good"); !ok || r != Good {
		t.Errorf("Expected good to parse as Good, but got %v (%v)", r, ok)
	}
	if r, ok := ParseRating("1"); !ok || r != Again {
		t.Errorf("Expected 1 to parse as Again, but got %v (%v)", r, ok)
	}
	if _, ok := ParseRating("5"); ok {
		t.Error("Expected 5 to be rejected")
	}
}

func TestProgressMap(t *testing.T) {
	p := ProgressMap{}
	st := CardStatistics{Interval: 1, Ease: 2.5, Status: StatusReview, Reviews: 1}
	p.Set("deck", "card", st)

	got, ok := p.Get("deck", "card")
	if !ok || got != st {
		t.Fatalf("Expected stored statistics, but got %+v (%v)", got, ok)
	}

	copied := p.Deck("deck")
	copied["other"] = st
	if _, ok := p.Get("deck", "other"); ok {
		t.Error("Expected Deck to return a copy")
	}

	p.Delete("deck", "card")
	if _, ok := p.Get("deck", "card"); ok {
		t.Error("Expected card to be deleted")
	}
	if p.Deck("missing") == nil {
		t.Error("Expected a non-nil progress for an unknown deck")
	}
}

func TestFilters(t *testing.T) {
	f := Filters{Again: true, Easy: true, Tags: []string{"N5"}}
	if !f.Allows(Again) || f.Allows(Hard) || f.Allows(Good) || !f.Allows(Easy) {
		t.Errorf("Unexpected bucket toggles for %+v", f)
	}
	if !f.MatchesTag("N5") || f.MatchesTag("N4") {
		t.Error("Expected only N5 to match")
	}
	if !AllFilters().MatchesTag("anything") {
		t.Error("Expected an empty tag filter to match everything")
	}
}

func TestIsDue(t *testing.T) {
	now := time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)
	if !(CardStatistics{DueDate: now}).IsDue(now) {
		t.Error("Expected a card due exactly now to be due")
	}
	if (CardStatistics{DueDate: now.Add(time.Minute)}).IsDue(now) {
		t.Error("Expected a future card not to be due")
	}
}
