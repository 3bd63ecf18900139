package gitsource

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLocalPath(t *testing.T) {
	tests := []struct {
		url     string
		want    string
		wantErr bool
	}{
		{url: "https://github.com/user/korean.git", want: "repos/github.com/user/korean"},
		{url: "http://example.com:8080/decks/hangul", want: "repos/example.com/decks/hangul"},
		{url: "git@github.com:user/korean.git", want: "repos/github.com/user/korean"},
		{url: "ssh://git@github.com/user/korean.git", want: "repos/github.com/user/korean"},
		{url: "not a url", wantErr: true},
		{url: "https://github.com/../../etc", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.url, func(t *testing.T) {
			got, err := LocalPath("repos", tt.url)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, filepath.FromSlash(tt.want), got)
		})
	}
}

func TestIsRemote(t *testing.T) {
	assert.True(t, IsRemote("https://github.com/user/deck"))
	assert.True(t, IsRemote("git@github.com:user/deck.git"))
	assert.False(t, IsRemote("/home/user/decks/korean"))
	assert.False(t, IsRemote("./decks"))
}

func commitFile(t *testing.T, repo *git.Repository, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add(name)
	require.NoError(t, err)
	_, err = wt.Commit("update "+name, &git.CommitOptions{
		Author: &object.Signature{Name: "test", Email: "test@example.com", When: time.Now()},
	})
	require.NoError(t, err)
}

func TestSyncClonesThenPulls(t *testing.T) {
	// Local clones go through the git-upload-pack binary.
	if _, err := exec.LookPath("git-upload-pack"); err != nil {
		t.Skip("git-upload-pack not available")
	}

	origin := t.TempDir()
	repo, err := git.PlainInit(origin, false)
	require.NoError(t, err)
	commitFile(t, repo, origin, "basics.md", "Q: 하나\nA: one\n")

	checkout := filepath.Join(t.TempDir(), "checkout")
	s := Syncer{}
	ctx := context.Background()

	require.NoError(t, s.Sync(ctx, origin, checkout))
	assert.FileExists(t, filepath.Join(checkout, "basics.md"))

	require.NoError(t, s.Sync(ctx, origin, checkout), "up to date is not an error")

	commitFile(t, repo, origin, "numbers.md", "Q: 둘\nA: two\n")
	require.NoError(t, s.Sync(ctx, origin, checkout))
	assert.FileExists(t, filepath.Join(checkout, "numbers.md"))
}

func TestSyncRejectsNonRepository(t *testing.T) {
	err := Syncer{}.Sync(context.Background(), "unused", t.TempDir())
	assert.ErrorContains(t, err, "failed to open existing repo")
}
