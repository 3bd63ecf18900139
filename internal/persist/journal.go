package persist

import (
	"log/slog"

	"github.com/conorfennell/knolstudy/internal/domain"
	"github.com/conorfennell/knolstudy/internal/session"
)

// ReviewLogger is the storage the journal appends to.
type ReviewLogger interface {
	AppendReview(l domain.ReviewLog) error
	DeleteLatestReview(sessionID, cardID string) error
}

// Journal records every applied rating and retracts it on undo.
type Journal struct {
	store  ReviewLogger
	logger *slog.Logger
}

// NewJournal returns a Journal writing to store. A nil logger uses slog.Default.
func NewJournal(store ReviewLogger, logger *slog.Logger) *Journal {
	if logger == nil {
		logger = slog.Default()
	}
	return &Journal{store: store, logger: logger}
}

func (j *Journal) SessionStarted(*session.State) {}

func (j *Journal) CardRated(_ *session.State, l domain.ReviewLog) {
	if err := j.store.AppendReview(l); err != nil {
		j.logger.Warn("Failed to journal review", "card", l.CardID, "error", err)
	}
}

func (j *Journal) RatingUndone(s *session.State, rec session.UndoRecord) {
	if err := j.store.DeleteLatestReview(s.ID, rec.CardID); err != nil {
		j.logger.Warn("Failed to retract journaled review", "card", rec.CardID, "error", err)
	}
}

func (j *Journal) SessionCompleted(*session.State, session.Summary) {}
