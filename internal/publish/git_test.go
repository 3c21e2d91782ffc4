package publish

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	ggitcfg "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/sitesync/internal/config"
	"git.home.luguber.info/inful/sitesync/internal/releases"
)

func boolPtr(b bool) *bool { return &b }

func publishConfig(dir string) config.GitPublishConfig {
	return config.GitPublishConfig{
		Enabled:     true,
		RepoDir:     dir,
		Remote:      "origin",
		Pull:        boolPtr(true),
		Push:        boolPtr(true),
		AuthorName:  "sitesync",
		AuthorEmail: "sitesync@localhost.localdomain",
		Message:     "Update releases to {version}",
	}
}

func commitFile(t *testing.T, repo *git.Repository, dir, name, content string) {
	t.Helper()
	wt, err := repo.Worktree()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
	_, err = wt.Add(name)
	require.NoError(t, err)
	_, err = wt.Commit("seed", &git.CommitOptions{Author: &object.Signature{Name: "tester", Email: "t@example.com", When: time.Now()}})
	require.NoError(t, err)
}

func TestPublish_LocalOnly(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	commitFile(t, repo, dir, "index.html", "<html></html>")

	p := NewGitPublisher(publishConfig(dir))
	require.NoError(t, p.PrepareSync(context.Background()), "pull without remote is skipped")

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "releases"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "releases", "app.apk"), []byte("apk"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "releases.json"), []byte("[]"), 0o644))

	hash, err := p.Publish(context.Background(), "v1.2.3")
	require.NoError(t, err)
	require.False(t, hash.IsZero())

	commit, err := repo.CommitObject(hash)
	require.NoError(t, err)
	assert.Equal(t, "Update releases to v1.2.3", commit.Message)
	assert.Equal(t, "sitesync", commit.Author.Name)

	again, err := p.Publish(context.Background(), "v1.2.3")
	require.NoError(t, err)
	assert.True(t, again.IsZero(), "clean worktree produces no commit")
}

func TestPublish_StagesDeletions(t *testing.T) {
	dir := t.TempDir()
	repo, err := git.PlainInit(dir, false)
	require.NoError(t, err)
	commitFile(t, repo, dir, "old.zip", "old")

	require.NoError(t, os.Remove(filepath.Join(dir, "old.zip")))
	hash, err := NewGitPublisher(publishConfig(dir)).Publish(context.Background(), "v2")
	require.NoError(t, err)

	commit, err := repo.CommitObject(hash)
	require.NoError(t, err)
	_, err = commit.File("old.zip")
	assert.Error(t, err)
}

func TestPublish_PushesToRemote(t *testing.T) {
	tmp := t.TempDir()
	barePath := filepath.Join(tmp, "remote.git")
	bare, err := git.PlainInit(barePath, true)
	require.NoError(t, err)

	sitePath := filepath.Join(tmp, "site")
	site, err := git.PlainInit(sitePath, false)
	require.NoError(t, err)
	_, err = site.CreateRemote(&ggitcfg.RemoteConfig{Name: "origin", URLs: []string{barePath}})
	require.NoError(t, err)
	commitFile(t, site, sitePath, "index.html", "<html></html>")
	require.NoError(t, site.Push(&git.PushOptions{RemoteName: "origin"}))

	p := NewGitPublisher(publishConfig(sitePath))
	require.NoError(t, p.PrepareSync(context.Background()))

	require.NoError(t, os.WriteFile(filepath.Join(sitePath, "releases.json"), []byte("[]"), 0o644))
	require.NoError(t, p.ReleaseUpdated(context.Background(), &releases.Result{RemoteVersion: "v9"}))

	head, err := site.Head()
	require.NoError(t, err)
	remoteRef, err := bare.Reference(plumbing.NewBranchReferenceName("master"), true)
	require.NoError(t, err)
	assert.Equal(t, head.Hash(), remoteRef.Hash())
}

func TestPublish_OpenFailure(t *testing.T) {
	_, err := NewGitPublisher(publishConfig(t.TempDir())).Publish(context.Background(), "v1")
	assert.Error(t, err)
}
