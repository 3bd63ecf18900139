// Package gitsource keeps local checkouts of git-hosted decks.
package gitsource

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-git/go-git/v5"
)

// Syncer clones or fast-forwards deck repositories.
type Syncer struct {
	// Progress receives the remote's sideband output. Nil discards it.
	Progress io.Writer
	Logger   *slog.Logger
}

func (s Syncer) logger() *slog.Logger {
	if s.Logger == nil {
		return slog.Default()
	}
	return s.Logger
}

// Sync clones the repository at url into localPath, or pulls the latest
// changes if a checkout already exists there.
func (s Syncer) Sync(ctx context.Context, url, localPath string) error {
	log := s.logger().With("url", url, "path", localPath)

	_, err := os.Stat(localPath)
	switch {
	case errors.Is(err, os.ErrNotExist):
		log.Info("Cloning repository")
		_, err := git.PlainCloneContext(ctx, localPath, false, &git.CloneOptions{
			URL:      url,
			Progress: s.Progress,
		})
		if err != nil {
			return fmt.Errorf("failed to clone repo %s: %w", url, err)
		}
		log.Info("Clone successful")
	case err == nil:
		repo, err := git.PlainOpen(localPath)
		if err != nil {
			return fmt.Errorf("failed to open existing repo at %s: %w", localPath, err)
		}
		worktree, err := repo.Worktree()
		if err != nil {
			return fmt.Errorf("failed to get worktree for repo at %s: %w", localPath, err)
		}
		log.Info("Pulling latest changes")
		err = worktree.PullContext(ctx, &git.PullOptions{
			RemoteName: "origin",
			Progress:   s.Progress,
		})
		if errors.Is(err, git.NoErrAlreadyUpToDate) {
			log.Debug("Already up to date")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to pull changes for repo at %s: %w", localPath, err)
		}
		log.Info("Pull successful")
	default:
		return fmt.Errorf("error checking path %s: %w", localPath, err)
	}
	return nil
}

// IsRemote reports whether path names a git remote rather than a local directory.
func IsRemote(path string) bool {
	return strings.HasPrefix(path, "https://") ||
		strings.HasPrefix(path, "http://") ||
		strings.HasPrefix(path, "ssh://") ||
		strings.HasPrefix(path, "git@") ||
		strings.HasSuffix(path, ".git")
}

// LocalPath maps a repository URL to its checkout directory under baseDir,
// e.g. https://github.com/user/deck.git to baseDir/github.com/user/deck.
func LocalPath(baseDir, repoURL string) (string, error) {
	if host, repoPath, ok := scpLike(repoURL); ok {
		return filepath.Join(baseDir, host, strings.TrimSuffix(repoPath, ".git")), nil
	}
	u, err := url.Parse(repoURL)
	if err != nil || u.Host == "" {
		return "", fmt.Errorf("could not parse git URL: %s", repoURL)
	}
	p := strings.TrimSuffix(strings.Trim(u.Path, "/"), ".git")
	if p == "" || strings.Contains(p, "..") {
		return "", fmt.Errorf("could not parse git URL: %s", repoURL)
	}
	return filepath.Join(baseDir, u.Hostname(), filepath.FromSlash(p)), nil
}

// scpLike splits user@host:path addresses.
func scpLike(s string) (host, path string, ok bool) {
	if strings.Contains(s, "://") {
		return "", "", false
	}
	userHost, path, found := strings.Cut(s, ":")
	if !found || path == "" {
		return "", "", false
	}
	_, host, found = strings.Cut(userHost, "@")
	if !found || host == "" || strings.Contains(path, "..") {
		return "", "", false
	}
	return host, path, true
}
