// Package publish commits synced release files back to the site repository.
package publish

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/transport"
	"github.com/go-git/go-git/v5/plumbing/transport/http"

	"git.home.luguber.info/inful/sitesync/internal/config"
	ferrors "git.home.luguber.info/inful/sitesync/internal/foundation/errors"
	"git.home.luguber.info/inful/sitesync/internal/logfields"
	"git.home.luguber.info/inful/sitesync/internal/releases"
)

// GitPublisher pulls the site repository before a release sync and commits
// and pushes the result afterwards.
type GitPublisher struct {
	cfg config.GitPublishConfig
	now func() time.Time
}

// NewGitPublisher creates a publisher from the publish.git configuration.
func NewGitPublisher(cfg config.GitPublishConfig) *GitPublisher {
	return &GitPublisher{cfg: cfg, now: time.Now}
}

// Name identifies the hook in logs.
func (p *GitPublisher) Name() string { return "git" }

// PrepareSync pulls the configured remote so the version comparison sees
// what was last published.
func (p *GitPublisher) PrepareSync(ctx context.Context) error {
	if !boolOr(p.cfg.Pull, true) {
		return nil
	}
	repo, err := p.open()
	if err != nil {
		return err
	}
	if !hasRemote(repo, p.cfg.Remote) {
		slog.Debug("No remote configured, skipping pull", slog.String("remote", p.cfg.Remote))
		return nil
	}
	wt, err := repo.Worktree()
	if err != nil {
		return p.wrap(err, "failed to get worktree")
	}
	opts := &git.PullOptions{RemoteName: p.cfg.Remote, Auth: p.auth()}
	if p.cfg.Branch != "" {
		opts.ReferenceName = plumbing.NewBranchReferenceName(p.cfg.Branch)
		opts.SingleBranch = true
	}
	err = wt.PullContext(ctx, opts)
	switch {
	case err == nil:
		head, _ := repo.Head()
		if head != nil {
			slog.Info("Site repository updated", logfields.Path(p.cfg.RepoDir), slog.String("commit", head.Hash().String()[:8]))
		}
		return nil
	case errors.Is(err, git.NoErrAlreadyUpToDate), errors.Is(err, transport.ErrEmptyRemoteRepository):
		slog.Debug("Site repository already up to date", logfields.Path(p.cfg.RepoDir))
		return nil
	default:
		return p.wrap(err, "failed to pull site repository")
	}
}

// ReleaseUpdated commits the release directory changes and pushes them.
func (p *GitPublisher) ReleaseUpdated(ctx context.Context, res *releases.Result) error {
	_, err := p.Publish(ctx, res.RemoteVersion)
	return err
}

// Publish stages every change in the repository, commits it and pushes.
// It returns the zero hash when there was nothing to commit.
func (p *GitPublisher) Publish(ctx context.Context, version string) (plumbing.Hash, error) {
	repo, err := p.open()
	if err != nil {
		return plumbing.ZeroHash, err
	}
	wt, err := repo.Worktree()
	if err != nil {
		return plumbing.ZeroHash, p.wrap(err, "failed to get worktree")
	}
	if err := wt.AddWithOptions(&git.AddOptions{All: true}); err != nil {
		return plumbing.ZeroHash, p.wrap(err, "failed to stage changes")
	}
	status, err := wt.Status()
	if err != nil {
		return plumbing.ZeroHash, p.wrap(err, "failed to read status")
	}
	if status.IsClean() {
		slog.Info("Nothing to publish", logfields.Path(p.cfg.RepoDir))
		return plumbing.ZeroHash, nil
	}

	msg := strings.ReplaceAll(p.cfg.Message, "{version}", version)
	hash, err := wt.Commit(msg, &git.CommitOptions{
		Author: &object.Signature{Name: p.cfg.AuthorName, Email: p.cfg.AuthorEmail, When: p.now()},
	})
	if err != nil {
		return plumbing.ZeroHash, p.wrap(err, "failed to commit")
	}
	slog.Info("Committed release update", logfields.Version(version), slog.String("commit", hash.String()[:8]))

	if !boolOr(p.cfg.Push, true) || !hasRemote(repo, p.cfg.Remote) {
		return hash, nil
	}
	err = repo.PushContext(ctx, &git.PushOptions{RemoteName: p.cfg.Remote, Auth: p.auth()})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return hash, p.wrap(err, "failed to push")
	}
	slog.Info("Pushed release update", slog.String("remote", p.cfg.Remote))
	return hash, nil
}

func (p *GitPublisher) open() (*git.Repository, error) {
	repo, err := git.PlainOpenWithOptions(p.cfg.RepoDir, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, p.wrap(err, "failed to open site repository")
	}
	return repo, nil
}

func (p *GitPublisher) auth() transport.AuthMethod {
	if p.cfg.Token == "" {
		return nil
	}
	return &http.BasicAuth{Username: p.cfg.Username, Password: p.cfg.Token}
}

func (p *GitPublisher) wrap(err error, msg string) error {
	return ferrors.WrapError(err, ferrors.CategoryPublish, msg).
		NextTick().
		WithContext("repo_dir", p.cfg.RepoDir).
		Build()
}

func hasRemote(repo *git.Repository, name string) bool {
	_, err := repo.Remote(name)
	return err == nil
}

func boolOr(v *bool, def bool) bool {
	if v == nil {
		return def
	}
	return *v
}

