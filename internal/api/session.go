package api

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/conorfennell/knolstudy/internal/domain"
	"github.com/conorfennell/knolstudy/internal/session"
	"github.com/conorfennell/knolstudy/internal/srs"
)

// sessionView is what a client needs to render the study screen.
type sessionView struct {
	Phase     string            `json:"phase"`
	State     *session.State    `json:"state,omitempty"`
	Card      *domain.Card      `json:"card,omitempty"`
	Flipped   bool              `json:"flipped"`
	Progress  float64           `json:"progress"`
	Remaining int               `json:"remaining"`
	Preview   map[string]string `json:"preview,omitempty"`
	Summary   *session.Summary  `json:"summary,omitempty"`
}

type startRequest struct {
	Filters *domain.Filters `json:"filters"`
}

type rateRequest struct {
	Rating string `json:"rating"`
}

type rateResponse struct {
	Outcome session.Outcome `json:"outcome"`
	Session sessionView     `json:"session"`
}

type navigateRequest struct {
	Direction string `json:"direction"`
}

type changedResponse struct {
	Changed bool        `json:"changed"`
	Session sessionView `json:"session"`
}

// view renders the machine. The caller holds s.mu.
func (s *Server) view() sessionView {
	m := s.study.Machine()
	v := sessionView{Phase: m.Phase().String(), State: m.State(), Flipped: m.Flipped()}
	if v.State == nil {
		return v
	}
	v.Progress = v.State.Progress()
	v.Remaining = v.State.Remaining()
	if card, ok := m.Current(); ok {
		v.Card = &card
		var prior *domain.CardStatistics
		if st, ok := s.store.Statistics(v.State.DeckID, card.ID); ok {
			prior = &st
		}
		v.Preview = make(map[string]string, len(domain.Ratings))
		for r, days := range srs.Preview(prior, s.now()) {
			v.Preview[r.String()] = srs.FormatInterval(days)
		}
	}
	if m.Phase() == session.Complete {
		sum := v.State.Stats.Summary()
		v.Summary = &sum
	}
	return v
}

func (s *Server) handleStartSession(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	req := startRequest{}
	if r.ContentLength != 0 {
		if err := decode(r, &req); err != nil {
			s.writeError(w, err)
			return
		}
	}
	f := domain.AllFilters()
	if req.Filters != nil {
		f = *req.Filters
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.study.Start(id, f); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, s.view())
}

func (s *Server) handleResumeSession(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.study.Machine().Resume(r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, s.view())
}

func (s *Server) handleDiscardSession(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.study.Machine().Discard(r.PathValue("id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.writeJSON(w, http.StatusOK, s.view())
}

func (s *Server) handleFlip(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.study.Machine()
	before := m.Flipped()
	changed := m.Flip() != before
	s.writeJSON(w, http.StatusOK, changedResponse{Changed: changed, Session: s.view()})
}

func (s *Server) handleRate(w http.ResponseWriter, r *http.Request) {
	var req rateRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	rating, ok := domain.ParseRating(req.Rating)
	if !ok {
		s.writeError(w, fmt.Errorf("%w: %q", session.ErrInvalidRating, req.Rating))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	out, err := s.study.Machine().Rate(rating)
	if err != nil && !out.Applied {
		s.writeError(w, err)
		return
	}
	if err != nil {
		// The rating stands; only a follow-up write failed.
		s.logger.Warn("Rating applied with persistence errors", "error", err)
	}
	s.writeJSON(w, http.StatusOK, rateResponse{Outcome: out, Session: s.view()})
}

func (s *Server) handleUndo(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed, err := s.study.Machine().Undo()
	if err != nil && !changed {
		s.writeError(w, err)
		return
	}
	if err != nil {
		s.logger.Warn("Undo applied with persistence errors", "error", err)
	}
	s.writeJSON(w, http.StatusOK, changedResponse{Changed: changed, Session: s.view()})
}

func (s *Server) handleNavigate(w http.ResponseWriter, r *http.Request) {
	var req navigateRequest
	if err := decode(r, &req); err != nil {
		s.writeError(w, err)
		return
	}
	var dir session.Direction
	switch req.Direction {
	case "next":
		dir = session.Next
	case "prev":
		dir = session.Prev
	default:
		s.writeError(w, fmt.Errorf("%w: direction must be next or prev, got %s", errBadRequest, strconv.Quote(req.Direction)))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	changed, err := s.study.Machine().Navigate(dir)
	if err != nil {
		s.logger.Warn("Navigation applied with persistence errors", "error", err)
	}
	s.writeJSON(w, http.StatusOK, changedResponse{Changed: changed, Session: s.view()})
}

func (s *Server) handleShuffle(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed, err := s.study.Machine().ShuffleUpcoming()
	if err != nil {
		s.logger.Warn("Shuffle applied with persistence errors", "error", err)
	}
	s.writeJSON(w, http.StatusOK, changedResponse{Changed: changed, Session: s.view()})
}
