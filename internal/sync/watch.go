package sync

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"
	"time"

	"github.com/bep/debounce"
	"github.com/fsnotify/fsnotify"

	"github.com/conorfennell/knolstudy/internal/domain"
)

// Watch reconciles local decks whenever their markdown files change, once
// the changes have been quiet for delay. onChange, if set, runs after each
// reconciliation. Watch blocks until ctx is cancelled.
func (s *Syncer) Watch(ctx context.Context, delay time.Duration, onChange func(Report)) (err error) {
	decks, err := s.DB.GetAllDecks()
	if err != nil {
		return fmt.Errorf("failed to get decks: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer func() {
		if closeErr := watcher.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	type watched struct {
		deck     domain.Deck
		debounce func(func())
	}
	var roots []watched
	for _, d := range decks {
		if d.Type != TypeLocal {
			continue
		}
		if err := addTree(watcher, d.Path); err != nil {
			s.logger().Warn("Failed to watch deck", "deck", d.ID, "path", d.Path, "error", err)
			continue
		}
		roots = append(roots, watched{deck: d, debounce: debounce.New(delay)})
	}
	s.logger().Info("Watching deck sources", "decks", len(roots))

	owner := func(path string) (watched, bool) {
		for _, w := range roots {
			if path == w.deck.Path || strings.HasPrefix(path, w.deck.Path+string(filepath.Separator)) {
				return w, true
			}
		}
		return watched{}, false
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			w, found := owner(event.Name)
			if !found {
				continue
			}
			if event.Has(fsnotify.Create) {
				// New subdirectories need their own watch.
				if err := addTree(watcher, event.Name); err != nil {
					s.logger().Warn("Failed to watch new directory", "deck", w.deck.ID, "path", event.Name, "error", err)
				}
			}
			if !relevant(event) {
				continue
			}
			w.debounce(func() {
				r, err := s.Reconcile(w.deck.ID, w.deck.Path)
				if err != nil {
					s.logger().Error("Failed to reconcile watched deck", "deck", w.deck.ID, "error", err)
					return
				}
				if onChange != nil {
					onChange(r)
				}
			})
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			s.logger().Warn("File watcher error", "error", err)
		}
	}
}

func relevant(event fsnotify.Event) bool {
	if event.Has(fsnotify.Chmod) && !event.Has(fsnotify.Write) {
		return false
	}
	if strings.HasSuffix(strings.ToLower(event.Name), ".md") {
		return true
	}
	// Directory removals and renames carry no suffix.
	return event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename)
}

// addTree watches root and every directory below it, skipping .git.
func addTree(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if d.Name() == ".git" {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}
