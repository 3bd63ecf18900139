// Package api serves the study service as a JSON HTTP API.
package api

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	gosync "sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"

	"github.com/conorfennell/knolstudy/internal/metrics"
	"github.com/conorfennell/knolstudy/internal/persist"
	"github.com/conorfennell/knolstudy/internal/queue"
	"github.com/conorfennell/knolstudy/internal/session"
	"github.com/conorfennell/knolstudy/internal/storage"
	"github.com/conorfennell/knolstudy/internal/study"
	"github.com/conorfennell/knolstudy/internal/sync"
)

// Server holds the dependencies for the HTTP server.
type Server struct {
	db      *storage.DB
	store   *persist.Writer
	study   *study.Service
	syncer  *sync.Syncer
	metrics *metrics.Recorder
	logger  *slog.Logger
	now     func() time.Time
	router  *http.ServeMux

	// mu serialises everything that touches the session machine.
	mu gosync.Mutex
}

// Config lists the collaborators of a Server. Metrics may be nil.
type Config struct {
	DB      *storage.DB
	Store   *persist.Writer
	Study   *study.Service
	Syncer  *sync.Syncer
	Metrics *metrics.Recorder
	Logger  *slog.Logger
	Now     func() time.Time
}

// NewServer creates and configures a new server.
func NewServer(c Config) *Server {
	s := &Server{
		db:      c.DB,
		store:   c.Store,
		study:   c.Study,
		syncer:  c.Syncer,
		metrics: c.Metrics,
		logger:  c.Logger,
		now:     c.Now,
		router:  http.NewServeMux(),
	}
	if s.logger == nil {
		s.logger = slog.Default()
	}
	if s.now == nil {
		s.now = time.Now
	}
	s.routes()
	return s
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) routes() {
	s.handle("GET /api/dashboard", s.handleDashboard)
	s.handle("POST /api/sync", s.handleSync)

	s.handle("GET /api/decks", s.handleListDecks)
	s.handle("POST /api/decks", s.handleAddDeck)
	s.handle("GET /api/decks/{id}", s.handleGetDeck)
	s.handle("DELETE /api/decks/{id}", s.handleDeleteDeck)
	s.handle("GET /api/decks/{id}/cards", s.handleGetCards)
	s.handle("GET /api/decks/{id}/settings", s.handleGetSettings)
	s.handle("PUT /api/decks/{id}/settings", s.handlePutSettings)
	s.handle("POST /api/decks/{id}/reset", s.handleResetDeck)

	s.handle("POST /api/decks/{id}/session", s.handleStartSession)
	s.handle("POST /api/decks/{id}/session/resume", s.handleResumeSession)
	s.handle("DELETE /api/decks/{id}/session", s.handleDiscardSession)

	s.handle("GET /api/session", s.handleGetSession)
	s.handle("POST /api/session/flip", s.handleFlip)
	s.handle("POST /api/session/rate", s.handleRate)
	s.handle("POST /api/session/undo", s.handleUndo)
	s.handle("POST /api/session/navigate", s.handleNavigate)
	s.handle("POST /api/session/shuffle", s.handleShuffle)

	if s.metrics != nil {
		s.router.Handle("GET /metrics", s.metrics.Handler())
	}
}

func (s *Server) handle(pattern string, h http.HandlerFunc) {
	if s.metrics == nil {
		s.router.HandleFunc(pattern, h)
		return
	}
	s.router.Handle(pattern, s.metrics.Middleware(pattern, h))
}

type errorBody struct {
	Error string `json:"error"`
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Warn("Failed to write response", "error", err)
	}
}

// writeError maps known failures to status codes. Unknown errors are logged
// and reported as 500 without detail.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var verrs validator.ValidationErrors
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, session.ErrNoSessionFound):
		status = http.StatusNotFound
	case errors.Is(err, session.ErrInvalidRating), errors.As(err, &verrs), errors.Is(err, errBadRequest):
		status = http.StatusBadRequest
	case errors.Is(err, queue.ErrNoMatchingCards), errors.Is(err, errConflict):
		status = http.StatusConflict
	}
	msg := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Error("Request failed", "error", err)
		msg = http.StatusText(status)
	}
	s.writeJSON(w, status, errorBody{Error: msg})
}

var (
	errBadRequest = errors.New("bad request")
	errConflict   = errors.New("conflict")
)

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Join(errBadRequest, err)
	}
	return nil
}

// Shutdown flushes pending study progress.
func (s *Server) Shutdown(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Flush()
}
