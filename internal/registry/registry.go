// Package registry is the source of truth for which review sites exist.
// Each site is one directory under the sites root; a site exists iff its
// directory exists. There is no separate index to fall out of sync.
package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/thatjpcsguy/reviewsite/internal/config"
)

// ErrNotFound is returned when a site directory does not exist.
var ErrNotFound = errors.New("site not found")

// ErrNotEmpty is returned by Init when the site directory already has
// contents. Callers treat it as the site-already-exists case, distinct
// from plain IO failures.
var ErrNotEmpty = errors.New("site directory is not empty")

// Registry manages the directory-per-site store under cfg.SitesRoot.
type Registry struct {
	cfg *config.Config
}

// New returns a registry over the configured sites root. The root itself
// is created lazily on the first write.
func New(cfg *config.Config) *Registry {
	return &Registry{cfg: cfg}
}

// Dir returns the directory a site with the given identifier would occupy.
func (r *Registry) Dir(siteID string) string {
	return filepath.Join(r.cfg.SitesRoot, siteID)
}

// Exists reports whether a site directory exists for the identifier.
func (r *Registry) Exists(siteID string) bool {
	info, err := os.Stat(r.Dir(siteID))
	return err == nil && info.IsDir()
}

// Occupied reports whether a site directory exists and has contents. An
// empty directory left behind by an interrupted run does not block a
// fresh create; Init will reuse it.
func (r *Registry) Occupied(siteID string) bool {
	entries, err := os.ReadDir(r.Dir(siteID))
	return err == nil && len(entries) > 0
}

// List returns all site identifiers, sorted. An absent sites root is an
// empty registry, not an error.
func (r *Registry) List() ([]string, error) {
	entries, err := os.ReadDir(r.cfg.SitesRoot)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read sites root: %w", err)
	}

	var ids []string
	for _, entry := range entries {
		if entry.IsDir() {
			ids = append(ids, entry.Name())
		}
	}
	sort.Strings(ids)
	return ids, nil
}

// Load reads a site's persisted metadata and derives the rest. The branch
// file wins over the identifier: a site created from branch "a/b" that a
// later lookup reaches via a colliding branch name still reports "a/b".
func (r *Registry) Load(siteID string) (*Site, error) {
	if !r.Exists(siteID) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, siteID)
	}

	site := &Site{
		ID:     siteID,
		Branch: siteID,
		Dir:    r.Dir(siteID),
	}

	if data, err := os.ReadFile(site.branchPath()); err == nil {
		if branch := strings.TrimSpace(string(data)); branch != "" {
			site.Branch = branch
		}
	}

	if data, err := os.ReadFile(site.createdPath()); err == nil {
		if ts, err := time.Parse(time.RFC3339, strings.TrimSpace(string(data))); err == nil {
			site.CreatedAt = ts
		}
	}

	site.derive(r.cfg.DBPrefix, r.cfg.BaseDomains)
	return site, nil
}

// LoadAll loads every registered site in identifier order.
func (r *Registry) LoadAll() ([]*Site, error) {
	ids, err := r.List()
	if err != nil {
		return nil, err
	}

	sites := make([]*Site, 0, len(ids))
	for _, id := range ids {
		site, err := r.Load(id)
		if err != nil {
			return nil, err
		}
		sites = append(sites, site)
	}
	return sites, nil
}

// NewSite builds a Site value with all derived fields filled in, without
// touching disk. Used for hook context before provisioning has begun.
func (r *Registry) NewSite(siteID, branch string) *Site {
	site := &Site{
		ID:     siteID,
		Branch: branch,
		Dir:    r.Dir(siteID),
	}
	site.derive(r.cfg.DBPrefix, r.cfg.BaseDomains)
	return site
}

// Init creates the site directory and persists branch name and creation
// timestamp. Fails if the directory already exists and is non-empty.
func (r *Registry) Init(siteID, branch string, now time.Time) (*Site, error) {
	dir := r.Dir(siteID)

	if entries, err := os.ReadDir(dir); err == nil && len(entries) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrNotEmpty, dir)
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create site directory: %w", err)
	}

	site := r.NewSite(siteID, branch)
	site.CreatedAt = now

	if err := os.WriteFile(site.branchPath(), []byte(branch+"\n"), 0644); err != nil {
		return nil, fmt.Errorf("failed to persist branch name: %w", err)
	}
	if err := os.WriteFile(site.createdPath(), []byte(now.UTC().Format(time.RFC3339)+"\n"), 0644); err != nil {
		return nil, fmt.Errorf("failed to persist creation time: %w", err)
	}

	return site, nil
}

// WriteSnapshot persists the dump provenance record for a site.
func (r *Registry) WriteSnapshot(site *Site, snap Snapshot) error {
	data, err := yaml.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to encode snapshot record: %w", err)
	}
	if err := os.WriteFile(site.SnapshotPath(), data, 0644); err != nil {
		return fmt.Errorf("failed to write snapshot record: %w", err)
	}
	return nil
}

// ReadSnapshot loads a site's dump provenance record, if present.
func (r *Registry) ReadSnapshot(site *Site) (*Snapshot, error) {
	data, err := os.ReadFile(site.SnapshotPath())
	if err != nil {
		return nil, err
	}
	var snap Snapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("failed to parse snapshot record: %w", err)
	}
	return &snap, nil
}

// Remove deletes a site's directory tree.
func (r *Registry) Remove(siteID string) error {
	if !r.Exists(siteID) {
		return fmt.Errorf("%w: %s", ErrNotFound, siteID)
	}
	if err := os.RemoveAll(r.Dir(siteID)); err != nil {
		return fmt.Errorf("failed to remove site directory: %w", err)
	}
	return nil
}
