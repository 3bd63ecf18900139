package session

import "github.com/conorfennell/knolstudy/internal/domain"

// Observer is notified after each state change of the machine. Observers
// must not call back into the machine.
type Observer interface {
	SessionStarted(s *State)
	CardRated(s *State, log domain.ReviewLog)
	RatingUndone(s *State, rec UndoRecord)
	SessionCompleted(s *State, sum Summary)
}
