package session

import "github.com/conorfennell/knolstudy/internal/domain"

// SessionStore persists the single active session slot. Saving nil clears it.
type SessionStore interface {
	LoadSession() (*State, error)
	SaveSession(s *State) error
}

// ProgressStore exposes card statistics to the machine. It is the only path
// through which ratings and undos change the progress map.
type ProgressStore interface {
	Statistics(deckID, cardID string) (domain.CardStatistics, bool)
	PutStatistics(deckID, cardID string, st domain.CardStatistics) error
	DeleteStatistics(deckID, cardID string) error
}

// UserStatsStore holds the process-wide streak counters.
type UserStatsStore interface {
	UserStats() domain.UserStats
	SaveUserStats(s domain.UserStats) error
}

// MemoryStore keeps everything in memory. It satisfies all three store
// interfaces and is meant for tests and ephemeral sessions.
type MemoryStore struct {
	Progress domain.ProgressMap
	Users    domain.UserStats
	session  *State
}

// NewMemoryStore returns an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{Progress: domain.ProgressMap{}}
}

func (m *MemoryStore) LoadSession() (*State, error) {
	return m.session.Clone(), nil
}

func (m *MemoryStore) SaveSession(s *State) error {
	m.session = s.Clone()
	return nil
}

func (m *MemoryStore) Statistics(deckID, cardID string) (domain.CardStatistics, bool) {
	return m.Progress.Get(deckID, cardID)
}

func (m *MemoryStore) PutStatistics(deckID, cardID string, st domain.CardStatistics) error {
	m.Progress.Set(deckID, cardID, st)
	return nil
}

func (m *MemoryStore) DeleteStatistics(deckID, cardID string) error {
	m.Progress.Delete(deckID, cardID)
	return nil
}

func (m *MemoryStore) UserStats() domain.UserStats {
	return m.Users
}

func (m *MemoryStore) SaveUserStats(s domain.UserStats) error {
	m.Users = s
	return nil
}
