// Package provision creates the resources behind a new review site: the
// site directory and its metadata, the branch checkout, the database dump
// from the base environment, the site database, and the file storage copy.
//
// Steps run in order and each can fail independently. Nothing is rolled
// back on failure: a failed provisioning leaves whatever it had finished
// on disk and in MySQL, and the operator deletes the site before retrying.
// That trade keeps every step simple and inspectable; see DESIGN.md.
package provision

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/thatjpcsguy/reviewsite/internal/config"
	"github.com/thatjpcsguy/reviewsite/internal/registry"
	"github.com/thatjpcsguy/reviewsite/internal/source"
)

// DB is the database capability the provisioner needs. *database.Admin
// satisfies it.
type DB interface {
	Exists(name string) (bool, error)
	Create(name string) error
	Dump(name, outPath string) error
	Import(name, dumpPath string) error
}

// Step failures, one sentinel per fallible provisioning step.
var (
	ErrAlreadyExists       = errors.New("site already exists")
	ErrSourceCheckout      = errors.New("source checkout failed")
	ErrSnapshot            = errors.New("base database snapshot failed")
	ErrDatabaseCreate      = errors.New("database creation failed")
	ErrDatabaseImport      = errors.New("database import failed")
	ErrFilesystemCollision = errors.New("file storage destination already exists")
)

// Provision builds a complete site for the given identifier and branch.
// An existing but empty site directory is reused rather than refused.
func Provision(cfg *config.Config, reg *registry.Registry, db DB, siteID, branch string) (*registry.Site, error) {
	if reg.Occupied(siteID) {
		return nil, fmt.Errorf("%w: %s", ErrAlreadyExists, siteID)
	}

	site, err := reg.Init(siteID, branch, time.Now())
	if err != nil {
		if errors.Is(err, registry.ErrNotEmpty) {
			return nil, fmt.Errorf("%w: %v", ErrAlreadyExists, err)
		}
		return nil, fmt.Errorf("failed to initialise site directory: %w", err)
	}

	fmt.Printf("📦 Checking out branch %s...\n", branch)
	if err := source.Clone(cfg.RepoURL, branch, site.SourceDir()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceCheckout, err)
	}

	fmt.Printf("🗄  Snapshotting base database %s...\n", cfg.BaseDatabase)
	if err := snapshotBase(cfg, reg, db, site); err != nil {
		return nil, err
	}

	fmt.Printf("🆕 Creating database %s...\n", site.Database)
	if taken, err := db.Exists(site.Database); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseCreate, err)
	} else if taken {
		return nil, fmt.Errorf("%w: database %s already exists", ErrDatabaseCreate, site.Database)
	}
	if err := db.Create(site.Database); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseCreate, err)
	}

	fmt.Printf("⬆️  Importing snapshot into %s...\n", site.Database)
	if err := db.Import(site.Database, site.DumpPath()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDatabaseImport, err)
	}

	fmt.Println("🗂  Copying file storage...")
	if err := copyFileStorage(cfg, site); err != nil {
		return nil, err
	}

	return site, nil
}

// snapshotBase dumps the base database into the site directory and records
// where the dump came from: the base checkout's branch and commit.
func snapshotBase(cfg *config.Config, reg *registry.Registry, db DB, site *registry.Site) error {
	branch, commit, err := source.Head(cfg.BaseRoot)
	if err != nil {
		return fmt.Errorf("%w: reading base checkout: %v", ErrSnapshot, err)
	}

	if err := db.Dump(cfg.BaseDatabase, site.DumpPath()); err != nil {
		return fmt.Errorf("%w: %v", ErrSnapshot, err)
	}

	snap := registry.Snapshot{
		Branch:  branch,
		Commit:  commit,
		TakenAt: time.Now().UTC(),
	}
	if err := reg.WriteSnapshot(site, snap); err != nil {
		return fmt.Errorf("%w: %v", ErrSnapshot, err)
	}
	return nil
}

// copyFileStorage seeds the site's public and private file storage from
// the base environment. Destinations must not exist yet; an existing
// destination means a previous copy already ran (or half-ran).
func copyFileStorage(cfg *config.Config, site *registry.Site) error {
	pairs := []struct{ src, dst string }{
		{filepath.Join(cfg.BaseRoot, cfg.FilesPublic), site.FilesPublicDir()},
		{filepath.Join(cfg.BaseRoot, cfg.FilesPrivate), site.FilesPrivateDir()},
	}

	for _, p := range pairs {
		if _, err := os.Stat(p.dst); err == nil {
			return fmt.Errorf("%w: %s", ErrFilesystemCollision, p.dst)
		}
		if err := copyTree(p.src, p.dst); err != nil {
			return fmt.Errorf("failed to copy %s: %w", p.src, err)
		}
	}
	return nil
}
