package provision

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
	"github.com/thatjpcsguy/reviewsite/internal/registry"
)

// fakeDB records database-capability calls instead of talking to MySQL.
type fakeDB struct {
	existing map[string]bool
	created  []string
	imported []string
	dumped   []string
}

func (f *fakeDB) Exists(name string) (bool, error) { return f.existing[name], nil }

func (f *fakeDB) Create(name string) error {
	f.created = append(f.created, name)
	return nil
}

func (f *fakeDB) Dump(name, outPath string) error {
	f.dumped = append(f.dumped, name)
	return os.WriteFile(outPath, []byte("-- dump of "+name+"\n"), 0644)
}

func (f *fakeDB) Import(name, dumpPath string) error {
	f.imported = append(f.imported, name)
	_, err := os.Stat(dumpPath)
	return err
}

// provisionEnv builds a config whose base environment is a local git
// checkout with public and private file storage.
func provisionEnv(t *testing.T) (*config.Config, *registry.Registry) {
	t.Helper()

	base := t.TempDir()
	repo, err := git.PlainInit(base, false)
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(filepath.Join(base, "files"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(base, "files", "logo.png"), []byte("png"), 0644))
	require.NoError(t, os.MkdirAll(filepath.Join(base, "private"), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(base, "index.php"), []byte("<?php\n"), 0644))

	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add("index.php")
	require.NoError(t, err)
	_, err = wt.Commit("initial import", &git.CommitOptions{
		Author: &object.Signature{Name: "Base Dev", Email: "dev@example.test", When: time.Now()},
	})
	require.NoError(t, err)

	cfg := &config.Config{
		SitesRoot:    filepath.Join(t.TempDir(), "sites"),
		BaseRoot:     base,
		BaseDatabase: "cms_base",
		RepoURL:      base,
		DBPrefix:     "review_",
		BaseDomains:  []string{"review.example.test"},
		FilesPublic:  "files",
		FilesPrivate: "private",
	}
	return cfg, registry.New(cfg)
}

func TestProvision(t *testing.T) {
	cfg, reg := provisionEnv(t)
	db := &fakeDB{}

	site, err := Provision(cfg, reg, db, "master", "master")
	require.NoError(t, err)

	// Metadata persisted and derivable on reload
	loaded, err := reg.Load("master")
	require.NoError(t, err)
	assert.Equal(t, "master", loaded.Branch)
	assert.Equal(t, "review_master", loaded.Database)

	// Checkout present
	_, err = os.Stat(filepath.Join(site.SourceDir(), "index.php"))
	assert.NoError(t, err)

	// Dump written from the base database, provenance recorded
	assert.Equal(t, []string{"cms_base"}, db.dumped)
	data, err := os.ReadFile(site.DumpPath())
	require.NoError(t, err)
	assert.Contains(t, string(data), "cms_base")

	snap, err := reg.ReadSnapshot(site)
	require.NoError(t, err)
	assert.Equal(t, "master", snap.Branch)
	assert.Len(t, snap.Commit, 40)

	// Site database created then seeded
	assert.Equal(t, []string{"review_master"}, db.created)
	assert.Equal(t, []string{"review_master"}, db.imported)

	// File storage copied
	logo, err := os.ReadFile(filepath.Join(site.FilesPublicDir(), "logo.png"))
	require.NoError(t, err)
	assert.Equal(t, "png", string(logo))
}

func TestProvisionOccupied(t *testing.T) {
	cfg, reg := provisionEnv(t)
	db := &fakeDB{}

	_, err := reg.Init("master", "master", time.Now())
	require.NoError(t, err)

	_, err = Provision(cfg, reg, db, "master", "master")
	require.ErrorIs(t, err, ErrAlreadyExists)
	assert.Empty(t, db.created)
	assert.Empty(t, db.dumped)
}

func TestProvisionReusesEmptyDir(t *testing.T) {
	cfg, reg := provisionEnv(t)
	db := &fakeDB{}

	// An empty directory left by an interrupted run does not block create.
	require.NoError(t, os.MkdirAll(reg.Dir("master"), 0755))

	_, err := Provision(cfg, reg, db, "master", "master")
	require.NoError(t, err)
	assert.Equal(t, []string{"review_master"}, db.created)
}

func TestProvisionDatabaseNameTaken(t *testing.T) {
	cfg, reg := provisionEnv(t)
	db := &fakeDB{existing: map[string]bool{"review_master": true}}

	_, err := Provision(cfg, reg, db, "master", "master")
	require.ErrorIs(t, err, ErrDatabaseCreate)

	// Caught by the pre-flight check, before CREATE DATABASE is attempted.
	assert.Empty(t, db.created)
	assert.Empty(t, db.imported)
}

func TestProvisionInitFailureIsNotAlreadyExists(t *testing.T) {
	cfg, reg := provisionEnv(t)
	db := &fakeDB{}

	// Sites root is a file, so the mkdir fails with an IO error that must
	// not be reported as a site collision.
	cfg.SitesRoot = filepath.Join(t.TempDir(), "blocked")
	require.NoError(t, os.WriteFile(cfg.SitesRoot, []byte("x"), 0644))
	reg = registry.New(cfg)

	_, err := Provision(cfg, reg, db, "master", "master")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrAlreadyExists)
}
