package lifecycle

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/thatjpcsguy/reviewsite/internal/config"
	"github.com/thatjpcsguy/reviewsite/internal/hooks"
	"github.com/thatjpcsguy/reviewsite/internal/provision"
	"github.com/thatjpcsguy/reviewsite/internal/registry"
	"github.com/thatjpcsguy/reviewsite/internal/source"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	root := t.TempDir()
	return &config.Config{
		SitesRoot:   filepath.Join(root, "sites"),
		WebrootDir:  filepath.Join(root, "webroot"),
		BaseRoot:    filepath.Join(root, "base"),
		DBPrefix:    "review_",
		BaseDomains: []string{"review.example.test"},
		DBUser:      "review",
		RepoURL:     "git@example.test:cms/site.git",
		CMSTool:     "/bin/false",
	}
}

func TestCreateAlreadyExists(t *testing.T) {
	cfg := testConfig(t)
	_, err := registry.New(cfg).Init("feature-x", "feature/x", time.Now())
	require.NoError(t, err)

	// Refused before any resource is touched.
	err = Create(cfg, "feature/x")
	require.ErrorIs(t, err, provision.ErrAlreadyExists)
}

func TestPullNotFound(t *testing.T) {
	cfg := testConfig(t)

	err := Pull(cfg, "no-such-site", false)
	require.ErrorIs(t, err, registry.ErrNotFound)
}

func TestDeleteNotFound(t *testing.T) {
	cfg := testConfig(t)

	// Fails before any side effect: no database connection, no webroot.
	err := Delete(cfg, "no-such-site", true)
	require.ErrorIs(t, err, registry.ErrNotFound)
	_, statErr := os.Stat(cfg.WebrootDir)
	require.True(t, os.IsNotExist(statErr))
}

func TestDeleteWithoutForceNeedsTerminal(t *testing.T) {
	cfg := testConfig(t)
	_, err := registry.New(cfg).Init("site-x", "site-x", time.Now())
	require.NoError(t, err)

	// Under go test stdin is not a terminal, so the prompt fails closed.
	err = Delete(cfg, "site-x", false)
	require.ErrorIs(t, err, ErrUserAborted)

	// The site must be untouched.
	require.True(t, registry.New(cfg).Exists("site-x"))
}

func TestPullUpToDateTouchesNothing(t *testing.T) {
	cfg := testConfig(t)

	// Upstream repository with one commit
	upstream := t.TempDir()
	repo, err := git.PlainInit(upstream, false)
	require.NoError(t, err)
	wt, err := repo.Worktree()
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(upstream, "note.txt"), []byte("initial\n"), 0644))
	_, err = wt.Add("note.txt")
	require.NoError(t, err)
	_, err = wt.Commit("initial import", &git.CommitOptions{
		Author: &object.Signature{Name: "Upstream Dev", Email: "dev@example.test", When: time.Now()},
	})
	require.NoError(t, err)

	// Site tracking the upstream tip
	site, err := registry.New(cfg).Init("master", "master", time.Now())
	require.NoError(t, err)
	require.NoError(t, source.Clone(upstream, "master", site.SourceDir()))

	// Hooks that leave a trace if they ever run
	cfg.HooksDir = t.TempDir()
	tattle := filepath.Join(cfg.HooksDir, "ran")
	for _, hook := range []hooks.Hook{hooks.PrePull, hooks.PreUpdate, hooks.PostUpdate, hooks.PostPull} {
		script := "#!/bin/sh\necho " + string(hook) + " >> " + tattle + "\n"
		require.NoError(t, os.WriteFile(filepath.Join(cfg.HooksDir, string(hook)), []byte(script), 0755))
	}

	require.NoError(t, Pull(cfg, "master", false))

	// Nothing ahead: no hook fired, the checkout is untouched.
	_, err = os.Stat(tattle)
	assert.True(t, os.IsNotExist(err))

	data, err := os.ReadFile(filepath.Join(site.SourceDir(), "note.txt"))
	require.NoError(t, err)
	assert.Equal(t, "initial\n", string(data))
}

func TestRehashEmptyRegistry(t *testing.T) {
	cfg := testConfig(t)

	require.NoError(t, Rehash(cfg))

	entries, err := os.ReadDir(cfg.WebrootDir)
	require.NoError(t, err)
	require.Empty(t, entries)
}
