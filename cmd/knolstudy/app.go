package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/conorfennell/knolstudy/internal/config"
	"github.com/conorfennell/knolstudy/internal/domain"
	"github.com/conorfennell/knolstudy/internal/gitsource"
	"github.com/conorfennell/knolstudy/internal/metrics"
	"github.com/conorfennell/knolstudy/internal/persist"
	"github.com/conorfennell/knolstudy/internal/session"
	"github.com/conorfennell/knolstudy/internal/storage"
	"github.com/conorfennell/knolstudy/internal/study"
	"github.com/conorfennell/knolstudy/internal/sync"
)

// app wires the storage, session and study layers for one command.
type app struct {
	cfg     config.Config
	logger  *slog.Logger
	db      *storage.DB
	store   *persist.Writer
	metrics *metrics.Recorder
	study   *study.Service
	syncer  *sync.Syncer
	now     func() time.Time
}

func openApp(cfg config.Config, logger *slog.Logger) (*app, error) {
	db, err := storage.Open(cfg.DB)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", cfg.DB, err)
	}
	logger.Debug("Database opened", "path", cfg.DB)

	a := &app{cfg: cfg, logger: logger, db: db, now: time.Now}
	storeOpts := []persist.Option{persist.WithFlushDelay(cfg.FlushDelay), persist.WithLogger(logger)}
	machineOpts := []session.Option{
		session.WithLogger(logger),
		session.WithObserver(persist.NewJournal(db, logger)),
	}
	if cfg.Metrics {
		a.metrics = metrics.New()
		storeOpts = append(storeOpts, persist.WithFlushObserver(a.metrics.ObserveFlush))
		machineOpts = append(machineOpts, session.WithObserver(a.metrics))
	}

	if a.store, err = persist.Open(db, storeOpts...); err != nil {
		db.Close()
		return nil, err
	}
	machine := session.NewMachine(a.store, a.store, a.store, machineOpts...)
	a.study = study.NewService(db, a.store, a.store, machine,
		study.WithDefaults(cfg.Defaults),
		study.WithDailyGoal(cfg.DailyGoal),
	)
	a.syncer = &sync.Syncer{
		DB:       db,
		ReposDir: cfg.ReposDir,
		Git:      gitsource.Syncer{Progress: os.Stderr, Logger: logger},
		Logger:   logger,
	}
	return a, nil
}

// Close flushes pending progress and closes the database.
func (a *app) Close() error {
	return errors.Join(a.store.Close(), a.db.Close())
}

// findDeck resolves a deck by ID, or by case-insensitive name when exactly
// one deck carries it.
func (a *app) findDeck(ref string) (domain.Deck, error) {
	if d, err := a.db.FindDeck(ref); err == nil {
		return d, nil
	} else if !errors.Is(err, storage.ErrNotFound) {
		return domain.Deck{}, err
	}
	decks, err := a.db.GetAllDecks()
	if err != nil {
		return domain.Deck{}, err
	}
	var match []domain.Deck
	for _, d := range decks {
		if strings.EqualFold(d.Name, ref) {
			match = append(match, d)
		}
	}
	switch len(match) {
	case 0:
		return domain.Deck{}, fmt.Errorf("deck %q: %w", ref, storage.ErrNotFound)
	case 1:
		return match[0], nil
	}
	return domain.Deck{}, fmt.Errorf("deck name %q is ambiguous, use its id", ref)
}
