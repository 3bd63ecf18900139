package sync

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conorfennell/knolstudy/internal/domain"
	"github.com/conorfennell/knolstudy/internal/storage"
)

func newSyncer(t *testing.T) *Syncer {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "sync.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return &Syncer{DB: db, ReposDir: filepath.Join(t.TempDir(), "repos")}
}

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(filepath.Join(dir, name)), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func texts(cards []domain.Card) []string {
	var out []string
	for _, c := range cards {
		out = append(out, c.Text)
	}
	return out
}

func TestAddSource(t *testing.T) {
	s := newSyncer(t)
	dir := t.TempDir()

	d, err := s.AddSource(dir, "")
	require.NoError(t, err)
	assert.Equal(t, TypeLocal, d.Type)
	assert.Equal(t, filepath.Base(dir), d.Name)

	_, err = s.AddSource(dir, "again")
	assert.ErrorContains(t, err, "already registered")

	g, err := s.AddSource("https://github.com/user/korean.git", "")
	require.NoError(t, err)
	assert.Equal(t, TypeGit, g.Type)
	assert.Equal(t, "korean", g.Name)

	_, err = s.AddSource(filepath.Join(dir, "missing"), "")
	assert.Error(t, err)

	writeFile(t, dir, "file.md", "Q: 하나")
	_, err = s.AddSource(filepath.Join(dir, "file.md"), "")
	assert.ErrorContains(t, err, "not a directory")
}

func TestReconcile(t *testing.T) {
	s := newSyncer(t)
	dir := t.TempDir()
	d, err := s.AddSource(dir, "Korean")
	require.NoError(t, err)

	writeFile(t, dir, "b.md", "Q: 셋\nA: three\n")
	writeFile(t, dir, "a.md", "Q: 하나\nA: one\n---\nQ: 둘\nA: two\n")
	writeFile(t, dir, "notes.txt", "Q: ignored")
	writeFile(t, dir, ".git/HEAD.md", "Q: ignored")

	r, err := s.Reconcile(d.ID, dir)
	require.NoError(t, err)
	assert.Equal(t, 3, r.Parsed)
	assert.Equal(t, 3, r.Upserted)
	assert.Empty(t, r.Errors)

	cards, err := s.DB.GetCards(d.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"하나", "둘", "셋"}, texts(cards))
	assert.Equal(t, 1, cards[0].Ordinal)
	assert.Equal(t, 3, cards[2].Ordinal)

	// Editing a card's tag keeps its identity; removing a file orphans its cards.
	writeFile(t, dir, "a.md", "Q: 하나\nA: one\nC: numbers\n")
	require.NoError(t, os.Remove(filepath.Join(dir, "b.md")))

	r, err = s.Reconcile(d.ID, dir)
	require.NoError(t, err)
	assert.Equal(t, 2, r.Deleted)

	cards, err = s.DB.GetCards(d.ID)
	require.NoError(t, err)
	require.Len(t, cards, 1)
	assert.Equal(t, "numbers", cards[0].Tag)

	stored, err := s.DB.FindDeck(d.ID)
	require.NoError(t, err)
	assert.False(t, stored.LastScanned.IsZero())
}

func TestReconcileKeepsGoodCardsOnParseError(t *testing.T) {
	s := newSyncer(t)
	dir := t.TempDir()
	d, err := s.AddSource(dir, "")
	require.NoError(t, err)

	writeFile(t, dir, "a.md", "Q: 하나\n---\nN: x\nQ: 둘\n")

	r, err := s.Reconcile(d.ID, dir)
	require.NoError(t, err)
	assert.Len(t, r.Errors, 1)
	assert.Equal(t, 1, r.Parsed)
}

func TestSyncAllContinuesPastFailures(t *testing.T) {
	s := newSyncer(t)
	dir := t.TempDir()
	writeFile(t, dir, "a.md", "Q: 하나\n")
	_, err := s.AddSource(dir, "local")
	require.NoError(t, err)
	require.NoError(t, s.DB.InsertDeck(domain.Deck{ID: "broken", Name: "broken", Path: "/x", Type: "svn"}))

	reports, err := s.SyncAll(context.Background())
	assert.ErrorContains(t, err, "unknown source type")
	require.Len(t, reports, 1)
	assert.Equal(t, 1, reports[0].Parsed)
}

func TestWatchReconcilesOnChange(t *testing.T) {
	s := newSyncer(t)
	dir := t.TempDir()
	d, err := s.AddSource(dir, "")
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	changed := make(chan Report, 4)
	done := make(chan error, 1)
	go func() {
		done <- s.Watch(ctx, 20*time.Millisecond, func(r Report) {
			select {
			case changed <- r:
			default:
			}
		})
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	// Give the watcher time to register before writing.
	require.Eventually(t, func() bool {
		if os.WriteFile(filepath.Join(dir, "a.md"), []byte("Q: 하나\nA: one\n"), 0o644) != nil {
			return false
		}
		select {
		case r := <-changed:
			return r.DeckID == d.ID && r.Parsed == 1
		case <-time.After(200 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 50*time.Millisecond)

	cards, err := s.DB.GetCards(d.ID)
	require.NoError(t, err)
	assert.Len(t, cards, 1)

	// Directories created after the watch starts are followed too.
	sub := filepath.Join(dir, "more")
	require.NoError(t, os.Mkdir(sub, 0o755))
	require.Eventually(t, func() bool {
		if os.WriteFile(filepath.Join(sub, "b.md"), []byte("Q: 둘\nA: two\n"), 0o644) != nil {
			return false
		}
		select {
		case r := <-changed:
			return r.DeckID == d.ID && r.Parsed == 2
		case <-time.After(200 * time.Millisecond):
			return false
		}
	}, 5*time.Second, 50*time.Millisecond)

	cards, err = s.DB.GetCards(d.ID)
	require.NoError(t, err)
	assert.Len(t, cards, 2)
}
