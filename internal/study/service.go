// Package study assembles study sessions from stored decks: it reads a deck's
// cards, settings and progress, selects eligible cards and hands the
// resulting queue to the session machine.
package study

import (
	"fmt"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/conorfennell/knolstudy/internal/domain"
	"github.com/conorfennell/knolstudy/internal/queue"
	"github.com/conorfennell/knolstudy/internal/selector"
	"github.com/conorfennell/knolstudy/internal/session"
	"github.com/conorfennell/knolstudy/internal/streak"
)

// Catalog is the deck storage the service reads.
type Catalog interface {
	GetAllDecks() ([]domain.Deck, error)
	FindDeck(id string) (domain.Deck, error)
	GetCards(deckID string) ([]domain.Card, error)
	GetDeckSettings(deckID string) (domain.DeckSettings, bool, error)
	SaveDeckSettings(deckID string, s domain.DeckSettings) error
}

// ProgressSource returns a snapshot of one deck's statistics.
type ProgressSource interface {
	DeckProgress(deckID string) domain.DeckProgress
}

// DeckSummary pairs a deck with its overview.
type DeckSummary struct {
	Deck     domain.Deck       `json:"deck"`
	Overview selector.Overview `json:"overview"`
	Pending  bool              `json:"pending"`
}

// Dashboard is the cross-deck daily view.
type Dashboard struct {
	Decks        []DeckSummary    `json:"decks"`
	User         domain.UserStats `json:"user"`
	TodayReviews int              `json:"todayReviews"`
	DailyGoal    int              `json:"dailyGoal"`
	GoalProgress int              `json:"goalProgress"`
}

// Service builds and starts study sessions.
type Service struct {
	catalog   Catalog
	progress  ProgressSource
	users     session.UserStatsStore
	machine   *session.Machine
	validate  *validator.Validate
	defaults  domain.DeckSettings
	dailyGoal int
	now       func() time.Time
	rng       *rand.Rand
}

// Option configures a Service.
type Option func(*Service)

// WithDefaults sets the settings of decks that were never configured.
func WithDefaults(d domain.DeckSettings) Option {
	return func(s *Service) { s.defaults = d }
}

// WithDailyGoal sets the daily review target.
func WithDailyGoal(n int) Option {
	return func(s *Service) { s.dailyGoal = n }
}

// WithClock overrides the time source used for due checks and the dashboard.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithRand sets the source used to shuffle review cards.
func WithRand(rng *rand.Rand) Option {
	return func(s *Service) { s.rng = rng }
}

func NewService(catalog Catalog, progress ProgressSource, users session.UserStatsStore, machine *session.Machine, opts ...Option) *Service {
	s := &Service{
		catalog:   catalog,
		progress:  progress,
		users:     users,
		machine:   machine,
		validate:  validator.New(validator.WithRequiredStructEnabled()),
		defaults:  domain.DefaultDeckSettings(),
		dailyGoal: streak.DefaultGoal,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Machine returns the session machine the service starts sessions on.
func (s *Service) Machine() *session.Machine {
	return s.machine
}

// Settings returns the deck's stored settings, or the defaults.
func (s *Service) Settings(deckID string) (domain.DeckSettings, error) {
	settings, ok, err := s.catalog.GetDeckSettings(deckID)
	if err != nil {
		return domain.DeckSettings{}, err
	}
	if !ok {
		return s.defaults, nil
	}
	return settings, nil
}

// UpdateSettings validates and stores the deck's settings.
func (s *Service) UpdateSettings(deckID string, settings domain.DeckSettings) error {
	if _, err := s.catalog.FindDeck(deckID); err != nil {
		return err
	}
	if err := s.validate.Struct(settings); err != nil {
		return fmt.Errorf("invalid settings for deck %s: %w", deckID, err)
	}
	return s.catalog.SaveDeckSettings(deckID, settings)
}

// BuildQueue selects the deck's eligible cards: due reviews shuffled,
// followed by new cards in deck order.
func (s *Service) BuildQueue(deckID string, f domain.Filters) ([]domain.Card, error) {
	cards, err := s.catalog.GetCards(deckID)
	if err != nil {
		return nil, err
	}
	settings, err := s.Settings(deckID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	progress := s.progress.DeckProgress(deckID)

	reviews := selector.ReviewCandidates(cards, progress, f, now)
	limit := selector.NewCardLimit(settings, progress, now)
	fresh := selector.NewCandidates(cards, progress, f, limit, f.StartOrdinal)
	return queue.Build(reviews, fresh, s.rng)
}

// Start builds a queue for the deck and starts a session over it, replacing
// any session in the slot. It returns queue.ErrNoMatchingCards when nothing
// is eligible.
func (s *Service) Start(deckID string, f domain.Filters) (*session.State, error) {
	if _, err := s.catalog.FindDeck(deckID); err != nil {
		return nil, err
	}
	q, err := s.BuildQueue(deckID, f)
	if err != nil {
		return nil, err
	}
	return s.machine.Start(deckID, q, f.Reverse)
}

// Overview summarises one deck.
func (s *Service) Overview(deckID string) (selector.Overview, error) {
	cards, err := s.catalog.GetCards(deckID)
	if err != nil {
		return selector.Overview{}, err
	}
	settings, err := s.Settings(deckID)
	if err != nil {
		return selector.Overview{}, err
	}
	return selector.Summarize(cards, s.progress.DeckProgress(deckID), settings, s.now()), nil
}

// Tags returns the distinct category tags of a deck, sorted.
func (s *Service) Tags(deckID string) ([]string, error) {
	cards, err := s.catalog.GetCards(deckID)
	if err != nil {
		return nil, err
	}
	var tags []string
	for _, c := range cards {
		if c.Tag != "" {
			tags = append(tags, c.Tag)
		}
	}
	slices.Sort(tags)
	return slices.Compact(tags), nil
}

// Dashboard summarises every deck and the daily goal.
func (s *Service) Dashboard() (Dashboard, error) {
	decks, err := s.catalog.GetAllDecks()
	if err != nil {
		return Dashboard{}, err
	}
	d := Dashboard{Decks: make([]DeckSummary, 0, len(decks)), DailyGoal: s.dailyGoal}
	for _, deck := range decks {
		o, err := s.Overview(deck.ID)
		if err != nil {
			return Dashboard{}, err
		}
		pending, err := s.machine.Pending(deck.ID)
		if err != nil {
			return Dashboard{}, err
		}
		d.Decks = append(d.Decks, DeckSummary{Deck: deck, Overview: o, Pending: pending})
	}
	d.User = s.users.UserStats()
	d.TodayReviews = streak.ReviewsOn(d.User, streak.Today(s.now()))
	d.GoalProgress = streak.GoalProgress(d.TodayReviews, s.dailyGoal)
	return d, nil
}
