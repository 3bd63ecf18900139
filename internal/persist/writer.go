package persist

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/bep/debounce"

	"github.com/conorfennell/knolstudy/internal/domain"
	"github.com/conorfennell/knolstudy/internal/session"
	"github.com/conorfennell/knolstudy/internal/storage"
)

// DefaultFlushDelay is the quiet period before pending edits are written.
const DefaultFlushDelay = time.Second

type cardKey struct {
	deckID, cardID string
}

// Writer serves the session stores from memory and writes edits behind to
// the database. It is safe for concurrent use; the debounced flush runs on
// its own goroutine.
type Writer struct {
	db       *storage.DB
	codec    *Codec
	logger   *slog.Logger
	now      func() time.Time
	delay    time.Duration
	schedule func(func())
	observe  func(time.Duration)

	mu       sync.Mutex
	progress domain.ProgressMap
	users    domain.UserStats
	current  *session.State

	putStats     map[cardKey]struct{}
	deletedStats map[cardKey]struct{}
	usersDirty   bool
	sessionDirty bool
}

// Option configures a Writer.
type Option func(*Writer)

// WithFlushDelay sets the quiet period before a flush.
func WithFlushDelay(d time.Duration) Option {
	return func(w *Writer) { w.delay = d }
}

// WithLogger sets the logger for background flush failures.
func WithLogger(l *slog.Logger) Option {
	return func(w *Writer) { w.logger = l }
}

// WithClock overrides the time recorded with saved session snapshots.
func WithClock(now func() time.Time) Option {
	return func(w *Writer) { w.now = now }
}

// WithFlushObserver reports the duration of every successful flush.
func WithFlushObserver(fn func(time.Duration)) Option {
	return func(w *Writer) { w.observe = fn }
}

// Open loads progress, user stats and the session slot from db. Damaged
// records are normalised and an unreadable session is dropped.
func Open(db *storage.DB, opts ...Option) (*Writer, error) {
	codec, err := NewCodec()
	if err != nil {
		return nil, err
	}
	w := &Writer{
		db:           db,
		codec:        codec,
		logger:       slog.Default(),
		now:          time.Now,
		delay:        DefaultFlushDelay,
		putStats:     make(map[cardKey]struct{}),
		deletedStats: make(map[cardKey]struct{}),
	}
	for _, opt := range opts {
		opt(w)
	}
	w.schedule = debounce.New(w.delay)

	if w.progress, err = db.LoadProgress(); err != nil {
		return nil, err
	}
	NormalizeProgress(w.progress)

	if w.users, err = db.LoadUserStats(); err != nil {
		return nil, err
	}
	w.users.Streak = max(w.users.Streak, 0)
	w.users.DailyReviews = max(w.users.DailyReviews, 0)

	deckID, blob, ok, err := db.LoadSessionSnapshot()
	if err != nil {
		return nil, err
	}
	if ok {
		s, err := codec.Decode(blob)
		if err != nil {
			w.logger.Warn("Dropping unreadable session snapshot", "deck", deckID, "error", err)
		} else if w.current = NormalizeState(s); w.current == nil {
			w.logger.Warn("Dropping empty session snapshot", "deck", deckID)
		}
	}
	return w, nil
}

func (w *Writer) LoadSession() (*session.State, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current.Clone(), nil
}

func (w *Writer) SaveSession(s *session.State) error {
	w.mu.Lock()
	w.current = s.Clone()
	w.sessionDirty = true
	w.mu.Unlock()
	w.touch()
	return nil
}

func (w *Writer) Statistics(deckID, cardID string) (domain.CardStatistics, bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.progress.Get(deckID, cardID)
}

func (w *Writer) PutStatistics(deckID, cardID string, st domain.CardStatistics) error {
	k := cardKey{deckID, cardID}
	w.mu.Lock()
	w.progress.Set(deckID, cardID, st)
	delete(w.deletedStats, k)
	w.putStats[k] = struct{}{}
	w.mu.Unlock()
	w.touch()
	return nil
}

func (w *Writer) DeleteStatistics(deckID, cardID string) error {
	k := cardKey{deckID, cardID}
	w.mu.Lock()
	w.progress.Delete(deckID, cardID)
	delete(w.putStats, k)
	w.deletedStats[k] = struct{}{}
	w.mu.Unlock()
	w.touch()
	return nil
}

func (w *Writer) UserStats() domain.UserStats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.users
}

func (w *Writer) SaveUserStats(s domain.UserStats) error {
	w.mu.Lock()
	w.users = s
	w.usersDirty = true
	w.mu.Unlock()
	w.touch()
	return nil
}

// DeckProgress returns a copy of the statistics of one deck.
func (w *Writer) DeckProgress(deckID string) domain.DeckProgress {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.progress.Deck(deckID)
}

// ResetDeck forgets all statistics of a deck, including unflushed ones.
func (w *Writer) ResetDeck(deckID string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.db.ResetDeckProgress(deckID); err != nil {
		return err
	}
	delete(w.progress, deckID)
	for k := range w.putStats {
		if k.deckID == deckID {
			delete(w.putStats, k)
		}
	}
	for k := range w.deletedStats {
		if k.deckID == deckID {
			delete(w.deletedStats, k)
		}
	}
	return nil
}

// Dirty reports whether edits are waiting to be flushed.
func (w *Writer) Dirty() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.pendingLocked()
}

func (w *Writer) pendingLocked() bool {
	return len(w.putStats) > 0 || len(w.deletedStats) > 0 || w.usersDirty || w.sessionDirty
}

// Flush writes all pending edits in one transaction. On failure the edits
// stay pending and are retried by the next flush.
func (w *Writer) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.pendingLocked() {
		return nil
	}

	start := time.Now()
	var blob []byte
	if w.sessionDirty && w.current != nil {
		var err error
		if blob, err = w.codec.Encode(w.current); err != nil {
			return err
		}
	}

	err := w.db.Update(func(tx *storage.Tx) error {
		for k := range w.putStats {
			st, _ := w.progress.Get(k.deckID, k.cardID)
			if err := tx.PutStatistics(k.deckID, k.cardID, st); err != nil {
				return err
			}
		}
		for k := range w.deletedStats {
			if err := tx.DeleteStatistics(k.deckID, k.cardID); err != nil {
				return err
			}
		}
		if w.usersDirty {
			if err := tx.SaveUserStats(w.users); err != nil {
				return err
			}
		}
		if w.sessionDirty {
			if w.current == nil {
				return tx.ClearSession()
			}
			return tx.SaveSessionSnapshot(w.current.DeckID, blob, w.now())
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to flush study state: %w", err)
	}

	if w.observe != nil {
		w.observe(time.Since(start))
	}
	w.logger.Debug("Flushed study state",
		"statistics", len(w.putStats),
		"deleted", len(w.deletedStats),
		"user_stats", w.usersDirty,
		"session", w.sessionDirty,
	)
	clear(w.putStats)
	clear(w.deletedStats)
	w.usersDirty = false
	w.sessionDirty = false
	return nil
}

// Close flushes pending edits. The database stays open.
func (w *Writer) Close() error {
	return w.Flush()
}

func (w *Writer) touch() {
	w.schedule(func() {
		if err := w.Flush(); err != nil {
			w.logger.Error("Background flush failed", "error", err)
		}
	})
}
