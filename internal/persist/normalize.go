package persist

import (
	"math"

	"github.com/conorfennell/knolstudy/internal/domain"
	"github.com/conorfennell/knolstudy/internal/session"
)

// NormalizeStatistics repairs fields a damaged record may carry.
func NormalizeStatistics(st domain.CardStatistics) domain.CardStatistics {
	if math.IsNaN(st.Interval) || math.IsInf(st.Interval, 0) || st.Interval < 0 {
		st.Interval = 0
	}
	if math.IsNaN(st.Ease) || math.IsInf(st.Ease, 0) || st.Ease <= 0 {
		st.Ease = domain.DefaultEase
	}
	st.Ease = max(st.Ease, domain.MinEase)
	switch st.Status {
	case domain.StatusNew, domain.StatusLearning, domain.StatusReview:
	default:
		st.Status = domain.StatusNew
	}
	if !st.LastRating.IsValid() {
		st.LastRating = 0
	}
	st.Reviews = max(st.Reviews, 0)
	return st
}

// NormalizeProgress applies NormalizeStatistics to every entry in place.
func NormalizeProgress(p domain.ProgressMap) {
	for _, deck := range p {
		for id, st := range deck {
			deck[id] = NormalizeStatistics(st)
		}
	}
}

// NormalizeState returns nil for sessions that cannot be resumed, otherwise s
// with its cursor, counters and undo history brought back into range.
func NormalizeState(s *session.State) *session.State {
	if s == nil || s.DeckID == "" || len(s.Queue) == 0 {
		return nil
	}
	s.CurrentIndex = min(max(s.CurrentIndex, 0), len(s.Queue)-1)
	s.Stats = normalizeTally(s.Stats)

	history := s.History[:0]
	for _, rec := range s.History {
		if rec.Index < 0 || rec.Index >= len(s.Queue) {
			continue
		}
		rec.PriorSessionStats = normalizeTally(rec.PriorSessionStats)
		if rec.PriorStatistics != nil {
			st := NormalizeStatistics(*rec.PriorStatistics)
			rec.PriorStatistics = &st
		}
		history = append(history, rec)
	}
	s.History = history
	return s
}

func normalizeTally(t session.Tally) session.Tally {
	return session.Tally{
		Again: max(t.Again, 0),
		Hard:  max(t.Hard, 0),
		Good:  max(t.Good, 0),
		Easy:  max(t.Easy, 0),
	}
}
