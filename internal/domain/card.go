package domain

import "time"

// Card represents a single study entry in a deck. The scheduling code only
// reads ID and Tag; the remaining fields are content for the caller to show.
type Card struct {
	ID              string `json:"id"`
	Ordinal         int    `json:"ordinal"`
	Text            string `json:"text"`
	Reading         string `json:"reading,omitempty"`
	Transliteration string `json:"transliteration,omitempty"`
	Translation     string `json:"translation"`
	Tag             string `json:"tag,omitempty"`
}

// Deck is a named collection of cards loaded from one source, either a local
// directory or a git repository.
type Deck struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Path        string    `json:"path"`
	Type        string    `json:"type"` // "local" or "git"
	LastScanned time.Time `json:"lastScanned"`
}

// ReviewLog records a single applied rating.
type ReviewLog struct {
	SessionID  string
	DeckID     string
	CardID     string
	Rating     Rating
	ReviewedAt time.Time
}
