package domain

import "slices"

// LimitPeriod selects how the new-card limit is accounted.
type LimitPeriod string

const (
	PeriodDaily  LimitPeriod = "daily"
	PeriodWeekly LimitPeriod = "weekly"
)

// DeckSettings is the per-deck configuration read by the queue builder.
type DeckSettings struct {
	DailyNew            int         `json:"dailyNew" koanf:"daily_new" validate:"min=0,max=100"`
	WeeklyNew           int         `json:"weeklyNew" koanf:"weekly_new" validate:"min=0,max=700"`
	Period              LimitPeriod `json:"reviewPeriod" koanf:"period" validate:"oneof=daily weekly"`
	HideTransliteration bool        `json:"hideTransliteration" koanf:"hide_transliteration"`
	AutoPlay            bool        `json:"autoPlay" koanf:"auto_play"`
}

// DefaultDeckSettings returns the settings used for decks that were never configured.
func DefaultDeckSettings() DeckSettings {
	return DeckSettings{
		DailyNew:  10,
		WeeklyNew: 70,
		Period:    PeriodDaily,
	}
}

// Filters narrows which cards enter a study session.
type Filters struct {
	New           bool     `json:"new"`
	Again         bool     `json:"again"`
	Hard          bool     `json:"hard"`
	Good          bool     `json:"good"`
	Easy          bool     `json:"easy"`
	IgnoreDueDate bool     `json:"ignoreDueDate"`
	Tags          []string `json:"tags,omitempty"`
	StartOrdinal  int      `json:"startOrdinal,omitempty"`
	Reverse       bool     `json:"reverse"`
}

// AllFilters enables every card kind with no tag restriction.
func AllFilters() Filters {
	return Filters{New: true, Again: true, Hard: true, Good: true, Easy: true}
}

// Allows reports whether the bucket toggle for r is enabled.
func (f Filters) Allows(r Rating) bool {
	switch r {
	case Again:
		return f.Again
	case Hard:
		return f.Hard
	case Good:
		return f.Good
	case Easy:
		return f.Easy
	}
	return false
}

// MatchesTag reports whether tag passes the tag filter. An empty filter matches everything.
func (f Filters) MatchesTag(tag string) bool {
	if len(f.Tags) == 0 {
		return true
	}
	return slices.Contains(f.Tags, tag)
}
