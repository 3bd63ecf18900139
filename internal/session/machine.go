// Package session implements the study-session state machine: the cursor over
// a queue of cards, rating application with requeue of failed cards, undo, and
// persistence of the single active session slot.
package session

import (
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/conorfennell/knolstudy/internal/domain"
	"github.com/conorfennell/knolstudy/internal/queue"
	"github.com/conorfennell/knolstudy/internal/srs"
	"github.com/conorfennell/knolstudy/internal/streak"
)

var (
	// ErrNoSessionFound is returned by Resume when no persisted session belongs to the deck.
	ErrNoSessionFound = errors.New("session: no session found")
	// ErrInvalidRating is returned by Rate for ratings outside Again..Easy.
	ErrInvalidRating = errors.New("session: invalid rating")
)

// Phase is the lifecycle stage of the machine.
type Phase int

const (
	Idle Phase = iota
	Active
	Complete
)

func (p Phase) String() string {
	switch p {
	case Active:
		return "active"
	case Complete:
		return "complete"
	}
	return "idle"
}

// Direction selects the target of Navigate.
type Direction int

const (
	Next Direction = iota
	Prev
)

// Outcome describes the effect of a Rate call.
type Outcome struct {
	Applied    bool                  `json:"applied"`
	Card       domain.Card           `json:"card"`
	Statistics domain.CardStatistics `json:"statistics"`
	Requeued   bool                  `json:"requeued"`
	Complete   bool                  `json:"complete"`
	Summary    *Summary              `json:"summary,omitempty"`
}

// Machine owns the single active-session slot. It is not safe for concurrent
// use; callers serialise access.
type Machine struct {
	sessions  SessionStore
	progress  ProgressStore
	users     UserStatsStore
	now       func() time.Time
	rng       *rand.Rand
	logger    *slog.Logger
	observers []Observer

	current *State
	flipped bool
}

// Option configures a Machine.
type Option func(*Machine)

// WithClock sets the time source.
func WithClock(now func() time.Time) Option {
	return func(m *Machine) { m.now = now }
}

// WithRand sets the random source used by ShuffleUpcoming.
func WithRand(rng *rand.Rand) Option {
	return func(m *Machine) { m.rng = rng }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(m *Machine) { m.logger = l }
}

// WithObserver registers an observer.
func WithObserver(o Observer) Option {
	return func(m *Machine) { m.observers = append(m.observers, o) }
}

// NewMachine returns an idle machine.
func NewMachine(sessions SessionStore, progress ProgressStore, users UserStatsStore, opts ...Option) *Machine {
	m := &Machine{
		sessions: sessions,
		progress: progress,
		users:    users,
		now:      time.Now,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Phase returns the current lifecycle stage.
func (m *Machine) Phase() Phase {
	switch {
	case m.current == nil:
		return Idle
	case m.current.Done():
		return Complete
	}
	return Active
}

// State returns a copy of the session in the slot, or nil when idle.
func (m *Machine) State() *State {
	return m.current.Clone()
}

// Current returns the card under the cursor.
func (m *Machine) Current() (domain.Card, bool) {
	return m.current.Current()
}

// Flipped reports whether the current card shows its answer side.
func (m *Machine) Flipped() bool {
	return m.flipped
}

// Flip toggles the flip state of the current card.
func (m *Machine) Flip() bool {
	if m.Phase() != Active {
		return false
	}
	m.flipped = !m.flipped
	return m.flipped
}

// Start replaces whatever occupies the slot with a new session over q.
func (m *Machine) Start(deckID string, q []domain.Card, reverse bool) (*State, error) {
	if len(q) == 0 {
		return nil, queue.ErrNoMatchingCards
	}
	s := &State{
		ID:          uuid.NewString(),
		DeckID:      deckID,
		Queue:       append([]domain.Card(nil), q...),
		ReverseMode: reverse,
		Timestamp:   m.now(),
	}
	if prev := m.current; prev != nil && prev.DeckID != deckID {
		m.logger.Info("replacing active session", "deck", prev.DeckID, "session", prev.ID)
	}
	if err := m.sessions.SaveSession(s); err != nil {
		return nil, fmt.Errorf("save session for deck %s: %w", deckID, err)
	}
	m.current = s
	m.flipped = false
	m.logger.Info("session started", "deck", deckID, "session", s.ID, "cards", len(q), "reverse", reverse)
	for _, o := range m.observers {
		o.SessionStarted(s)
	}
	return s.Clone(), nil
}

// Pending reports whether a resumable session for deckID is persisted.
func (m *Machine) Pending(deckID string) (bool, error) {
	s, err := m.sessions.LoadSession()
	if err != nil {
		return false, fmt.Errorf("load session: %w", err)
	}
	return s != nil && s.DeckID == deckID && !s.Done(), nil
}

// Resume restores the persisted session of deckID into the slot.
func (m *Machine) Resume(deckID string) (*State, error) {
	s, err := m.sessions.LoadSession()
	if err != nil {
		return nil, fmt.Errorf("load session: %w", err)
	}
	if s == nil || s.DeckID != deckID || s.Done() {
		return nil, fmt.Errorf("%w for deck %s", ErrNoSessionFound, deckID)
	}
	m.current = s
	m.flipped = false
	m.logger.Info("session resumed", "deck", deckID, "session", s.ID, "index", s.CurrentIndex, "cards", len(s.Queue))
	return s.Clone(), nil
}

// Rate applies rating to the current card. It is a no-op when no card is
// under the cursor.
func (m *Machine) Rate(rating domain.Rating) (Outcome, error) {
	if !rating.IsValid() {
		return Outcome{}, fmt.Errorf("%w: %d", ErrInvalidRating, int(rating))
	}
	s := m.current
	card, ok := s.Current()
	if !ok {
		return Outcome{}, nil
	}

	now := m.now()
	rec := UndoRecord{
		Index:             s.CurrentIndex,
		CardID:            card.ID,
		PriorSessionStats: s.Stats,
		WasRequeued:       rating == domain.Again,
	}
	if prior, ok := m.progress.Statistics(s.DeckID, card.ID); ok {
		rec.PriorStatistics = &prior
	}

	next := srs.Update(rec.PriorStatistics, rating, now)
	if err := m.progress.PutStatistics(s.DeckID, card.ID, next); err != nil {
		return Outcome{}, fmt.Errorf("store statistics for card %s: %w", card.ID, err)
	}

	s.History = append(s.History, rec)
	s.Stats.Add(rating)
	if rec.WasRequeued {
		s.Queue = append(s.Queue, card)
	}
	s.CurrentIndex++
	m.flipped = false

	out := Outcome{Applied: true, Card: card, Statistics: next, Requeued: rec.WasRequeued}
	errs := []error{m.recordReview(now)}

	if s.Done() {
		sum := s.Stats.Summary()
		out.Complete = true
		out.Summary = &sum
		errs = append(errs, m.save(nil))
		m.logger.Info("session complete", "deck", s.DeckID, "session", s.ID, "total", sum.Total, "accuracy", sum.AccuracyPercent)
	} else {
		errs = append(errs, m.save(s))
	}

	log := domain.ReviewLog{SessionID: s.ID, DeckID: s.DeckID, CardID: card.ID, Rating: rating, ReviewedAt: now}
	for _, o := range m.observers {
		o.CardRated(s, log)
		if out.Complete {
			o.SessionCompleted(s, *out.Summary)
		}
	}
	return out, errors.Join(errs...)
}

func (m *Machine) recordReview(now time.Time) error {
	stats := streak.RecordReview(m.users.UserStats(), streak.Today(now))
	if err := m.users.SaveUserStats(stats); err != nil {
		return fmt.Errorf("save user stats: %w", err)
	}
	return nil
}

// Navigate moves the cursor one step without rating. It is refused while the
// card is flipped or outside an active session.
func (m *Machine) Navigate(dir Direction) (bool, error) {
	if m.Phase() != Active || m.flipped {
		return false, nil
	}
	s := m.current
	switch {
	case dir == Next && s.CurrentIndex < len(s.Queue)-1:
		s.CurrentIndex++
	case dir == Prev && s.CurrentIndex > 0:
		s.CurrentIndex--
	default:
		return false, nil
	}
	return true, m.save(s)
}

// Undo reverts the most recent rating. It returns false when there is nothing to undo.
func (m *Machine) Undo() (bool, error) {
	s := m.current
	if s == nil || len(s.History) == 0 {
		return false, nil
	}
	rec := s.History[len(s.History)-1]

	var err error
	if rec.PriorStatistics != nil {
		err = m.progress.PutStatistics(s.DeckID, rec.CardID, *rec.PriorStatistics)
	} else {
		err = m.progress.DeleteStatistics(s.DeckID, rec.CardID)
	}
	if err != nil {
		return false, fmt.Errorf("restore statistics for card %s: %w", rec.CardID, err)
	}

	s.History = s.History[:len(s.History)-1]
	s.CurrentIndex = rec.Index
	s.Stats = rec.PriorSessionStats
	if rec.WasRequeued {
		s.Queue = removeRequeued(s.Queue, rec)
	}
	m.flipped = true

	for _, o := range m.observers {
		o.RatingUndone(s, rec)
	}
	return true, m.save(s)
}

// removeRequeued drops the tail entry appended for rec. The latest copy of the
// card after rec.Index is removed, so a shuffle of upcoming cards cannot make
// undo drop a different card; without one the last element goes.
func removeRequeued(q []domain.Card, rec UndoRecord) []domain.Card {
	for i := len(q) - 1; i > rec.Index; i-- {
		if q[i].ID == rec.CardID {
			return append(q[:i:i], q[i+1:]...)
		}
	}
	return q[:len(q)-1]
}

// ShuffleUpcoming reorders the entries after the cursor. It is a no-op when
// fewer than two remain.
func (m *Machine) ShuffleUpcoming() (bool, error) {
	s := m.current
	if m.Phase() != Active || len(s.Queue)-s.CurrentIndex-1 < 2 {
		return false, nil
	}
	queue.Shuffle(s.Queue[s.CurrentIndex+1:], m.rng)
	return true, m.save(s)
}

// Discard clears the session of deckID from the slot and from storage.
// Ratings already applied stand.
func (m *Machine) Discard(deckID string) error {
	if m.current != nil && m.current.DeckID == deckID {
		m.logger.Info("session discarded", "deck", deckID, "session", m.current.ID)
		m.current = nil
		m.flipped = false
	}
	s, err := m.sessions.LoadSession()
	if err != nil {
		return fmt.Errorf("load session: %w", err)
	}
	if s != nil && s.DeckID == deckID {
		return m.save(nil)
	}
	return nil
}

func (m *Machine) save(s *State) error {
	if err := m.sessions.SaveSession(s); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}
