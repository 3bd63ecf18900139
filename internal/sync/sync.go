// Package sync reconciles deck sources on disk or in git with the cards
// stored in the database.
package sync

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/conorfennell/knolstudy/internal/domain"
	"github.com/conorfennell/knolstudy/internal/gitsource"
	"github.com/conorfennell/knolstudy/internal/knol"
	"github.com/conorfennell/knolstudy/internal/parser"
	"github.com/conorfennell/knolstudy/internal/storage"
)

// Deck source types.
const (
	TypeLocal = "local"
	TypeGit   = "git"
)

// Syncer reconciles deck sources into the database.
type Syncer struct {
	DB       *storage.DB
	ReposDir string
	Git      gitsource.Syncer
	Logger   *slog.Logger
	Now      func() time.Time
}

// Report summarises one reconciliation.
type Report struct {
	DeckID   string
	Parsed   int
	Upserted int
	Deleted  int
	Errors   []error
}

func (s *Syncer) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

func (s *Syncer) now() time.Time {
	if s.Now == nil {
		return time.Now()
	}
	return s.Now()
}

// AddSource registers a local directory or git URL as a new deck.
func (s *Syncer) AddSource(path, name string) (domain.Deck, error) {
	d := domain.Deck{ID: uuid.NewString(), Type: TypeLocal, Path: path, Name: name}
	if gitsource.IsRemote(path) {
		d.Type = TypeGit
	} else {
		abs, err := filepath.Abs(path)
		if err != nil {
			return domain.Deck{}, fmt.Errorf("failed to resolve %s: %w", path, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return domain.Deck{}, fmt.Errorf("deck source %s: %w", path, err)
		}
		if !info.IsDir() {
			return domain.Deck{}, fmt.Errorf("deck source %s is not a directory", path)
		}
		d.Path = abs
	}
	if d.Name == "" {
		d.Name = strings.TrimSuffix(filepath.Base(d.Path), ".git")
	}

	if _, err := s.DB.FindDeckByPath(d.Path); err == nil {
		return domain.Deck{}, fmt.Errorf("deck source %s is already registered", d.Path)
	} else if !errors.Is(err, storage.ErrNotFound) {
		return domain.Deck{}, err
	}
	if err := s.DB.InsertDeck(d); err != nil {
		return domain.Deck{}, err
	}
	s.logger().Info("Added deck source", "id", d.ID, "name", d.Name, "type", d.Type, "path", d.Path)
	return d, nil
}

// SyncAll reconciles every registered deck. A failing deck does not stop the
// others; its error is part of the returned join.
func (s *Syncer) SyncAll(ctx context.Context) ([]Report, error) {
	decks, err := s.DB.GetAllDecks()
	if err != nil {
		return nil, fmt.Errorf("failed to get decks: %w", err)
	}
	if len(decks) == 0 {
		s.logger().Info("No deck sources configured. Add one with add-source <path/or/url.git>")
		return nil, nil
	}

	s.logger().Info("Starting sync for all decks", "decks", len(decks))
	var reports []Report
	var errs []error
	for _, d := range decks {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		r, err := s.SyncDeck(ctx, d)
		if err != nil {
			s.logger().Error("Failed to sync deck", "id", d.ID, "path", d.Path, "error", err)
			errs = append(errs, err)
			continue
		}
		reports = append(reports, r)
	}
	s.logger().Info("Sync complete", "decks", len(reports), "failed", len(errs))
	return reports, errors.Join(errs...)
}

// SyncDeck fetches a git deck if needed and reconciles its files.
func (s *Syncer) SyncDeck(ctx context.Context, d domain.Deck) (Report, error) {
	dir, err := s.checkout(d)
	if err != nil {
		return Report{DeckID: d.ID}, err
	}
	if d.Type == TypeGit {
		if err := os.MkdirAll(s.ReposDir, 0o755); err != nil {
			return Report{DeckID: d.ID}, fmt.Errorf("failed to create repos directory: %w", err)
		}
		if err := s.Git.Sync(ctx, d.Path, dir); err != nil {
			return Report{DeckID: d.ID}, err
		}
	}
	return s.Reconcile(d.ID, dir)
}

// checkout returns the directory holding the deck's markdown files.
func (s *Syncer) checkout(d domain.Deck) (string, error) {
	switch d.Type {
	case TypeLocal:
		return d.Path, nil
	case TypeGit:
		return gitsource.LocalPath(s.ReposDir, d.Path)
	}
	return "", fmt.Errorf("deck %s has unknown source type %q", d.ID, d.Type)
}

// Reconcile parses every markdown file under dir into the deck, updating
// changed cards and deleting cards no longer present. Files are read in
// lexical path order, so unnumbered cards get ordinals in that order.
func (s *Syncer) Reconcile(deckID, dir string) (Report, error) {
	r := Report{DeckID: deckID}
	var parsed []domain.Card

	walkErr := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			if d.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(strings.ToLower(d.Name()), ".md") {
			return nil
		}
		fileCards, parseErr := parser.ParseFile(path)
		if parseErr != nil {
			r.Errors = append(r.Errors, parseErr)
		}
		parsed = append(parsed, fileCards...)
		return nil
	})
	if walkErr != nil {
		return r, fmt.Errorf("error walking directory %s: %w", dir, walkErr)
	}

	cards := knol.Assign(parsed)
	r.Parsed = len(cards)
	found := make(map[string]bool, len(cards))
	for _, c := range cards {
		found[c.ID] = true
		if err := s.DB.UpsertCard(deckID, c); err != nil {
			r.Errors = append(r.Errors, err)
			continue
		}
		r.Upserted++
	}

	stored, err := s.DB.GetCards(deckID)
	if err != nil {
		return r, err
	}
	for _, c := range stored {
		if found[c.ID] {
			continue
		}
		s.logger().Debug("Orphaned card, deleting", "deck", deckID, "card", c.ID)
		if err := s.DB.DeleteCard(deckID, c.ID); err != nil {
			r.Errors = append(r.Errors, err)
			continue
		}
		r.Deleted++
	}

	if err := s.DB.UpdateDeckLastScanned(deckID, s.now()); err != nil {
		s.logger().Warn("Failed to update last scanned for deck", "deck", deckID, "error", err)
	}

	s.logger().Info("Reconciliation complete",
		"deck", deckID,
		"path", dir,
		"parsed_cards", r.Parsed,
		"orphaned_deleted", r.Deleted,
		"errors", len(r.Errors),
	)
	return r, nil
}
