package api

import (
	"fmt"
	"net/http"

	"github.com/conorfennell/knolstudy/internal/domain"
	"github.com/conorfennell/knolstudy/internal/selector"
	"github.com/conorfennell/knolstudy/internal/sync"
)

type deckDetail struct {
	Deck     domain.Deck         `json:"deck"`
	Overview selector.Overview   `json:"overview"`
	Settings domain.DeckSettings `json:"settings"`
	Tags     []string            `json:"tags"`
	Pending  bool                `json:"pending"`
}

type addDeckRequest struct {
	Path string `json:"path"`
	Name string `json:"name"`
}

type addDeckResponse struct {
	Deck   domain.Deck `json:"deck"`
	Report sync.Report `json:"report"`
}

type syncResponse struct {
	Reports []sync.Report `json:"reports"`
	Error   string        `json:"error,omitempty"`
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	d, err := s.study.Dashboard()
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, d)
}

// handleSync reconciles every deck. Per-deck failures are reported next to
// the successful reports rather than failing the request.
func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	reports, err := s.syncer.SyncAll(r.Context())
	resp := syncResponse{Reports: reports}
	if err != nil {
		resp.Error = err.Error()
	}
	if resp.Reports == nil {
		resp.Reports = []sync.Report{}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListDecks(w http.ResponseWriter, r *http.Request) {
	decks, err := s.db.GetAllDecks()
	if err != nil {
		s.writeError(w, err)
		return
	}
	if decks == nil {
		decks = []domain.Deck{}
	}
	s.writeJSON(w, http.StatusOK, decks)
}

// handleAddDeck registers a source and syncs it once so its cards are
// available immediately.
func (s *Server) handleAddDeck(w http.ResponseWriter, r *http.Request) {
	var req addDeckRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	if req.Path == "" {
		s.writeError(w, fmt.Errorf("%w: path cannot be empty", errBadRequest))
		return
	}
	d, err := s.syncer.AddSource(req.Path, req.Name)
	if err != nil {
		s.writeError(w, fmt.Errorf("%w: %v", errConflict, err))
		return
	}
	report, err := s.syncer.SyncDeck(r.Context(), d)
	if err != nil {
		s.logger.Warn("Initial sync of new deck failed", "deck", d.ID, "error", err)
	}
	s.writeJSON(w, http.StatusCreated, addDeckResponse{Deck: d, Report: report})
}

func (s *Server) handleGetDeck(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s.mu.Lock()
	defer s.mu.Unlock()

	deck, err := s.db.FindDeck(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	detail := deckDetail{Deck: deck}
	if detail.Overview, err = s.study.Overview(id); err != nil {
		s.writeError(w, err)
		return
	}
	if detail.Settings, err = s.study.Settings(id); err != nil {
		s.writeError(w, err)
		return
	}
	if detail.Tags, err = s.study.Tags(id); err != nil {
		s.writeError(w, err)
		return
	}
	if detail.Pending, err = s.study.Machine().Pending(id); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, detail)
}

func (s *Server) handleDeleteDeck(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.FindDeck(id); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.study.Machine().Discard(id); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.store.ResetDeck(id); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.db.DeleteDeck(id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetCards(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.db.FindDeck(id); err != nil {
		s.writeError(w, err)
		return
	}
	cards, err := s.db.GetCards(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if cards == nil {
		cards = []domain.Card{}
	}
	s.writeJSON(w, http.StatusOK, cards)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if _, err := s.db.FindDeck(id); err != nil {
		s.writeError(w, err)
		return
	}
	settings, err := s.study.Settings(id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, settings)
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	var settings domain.DeckSettings
	if err := decode(r, &settings); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.study.UpdateSettings(id, settings); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, settings)
}

// handleResetDeck forgets the deck's progress. An in-progress session of the
// deck is discarded since its undo history refers to the old statistics.
func (s *Server) handleResetDeck(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.FindDeck(id); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.study.Machine().Discard(id); err != nil {
		s.writeError(w, err)
		return
	}
	if err := s.store.ResetDeck(id); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
