// Package webroot maintains the flat directory of domain-named symlinks
// the web server's virtual-host layer resolves requests against. The link
// set is always rebuilt from the registry as a whole, never patched, so it
// cannot drift from the set of existing sites.
package webroot

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/thatjpcsguy/reviewsite/internal/config"
	"github.com/thatjpcsguy/reviewsite/internal/registry"
)

// Rebuild clears every symlink in the publish directory and recreates one
// link per (site, base domain) pair, named by the full domain and pointing
// at the relative path to the site's source root. Entries that are not
// symlinks are left alone. The publish directory is created if missing.
func Rebuild(cfg *config.Config, sites []*registry.Site) error {
	if err := os.MkdirAll(cfg.WebrootDir, 0755); err != nil {
		return fmt.Errorf("failed to create webroot directory: %w", err)
	}

	if err := clearLinks(cfg.WebrootDir); err != nil {
		return err
	}

	for _, site := range sites {
		target, err := filepath.Rel(cfg.WebrootDir, site.SourceDir())
		if err != nil {
			// Different volume roots; fall back to the absolute path.
			target = site.SourceDir()
		}

		for _, domain := range site.Domains {
			link := filepath.Join(cfg.WebrootDir, domain)
			if err := os.Symlink(target, link); err != nil {
				return fmt.Errorf("failed to link %s: %w", domain, err)
			}
		}
	}

	return nil
}

// clearLinks removes every symlink directly under dir.
func clearLinks(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read webroot directory: %w", err)
	}

	for _, entry := range entries {
		if entry.Type()&os.ModeSymlink == 0 {
			continue
		}
		if err := os.Remove(filepath.Join(dir, entry.Name())); err != nil {
			return fmt.Errorf("failed to remove stale link %s: %w", entry.Name(), err)
		}
	}
	return nil
}
