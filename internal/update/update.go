// Package update advances an existing site's checkout to the upstream
// branch tip. Sites mirror upstream: local edits to a checkout are never
// preserved across an update.
package update

import (
	"errors"
	"fmt"

	"github.com/thatjpcsguy/reviewsite/internal/registry"
	"github.com/thatjpcsguy/reviewsite/internal/source"
)

// ErrUpdate wraps any failure while applying an update.
var ErrUpdate = errors.New("update failed")

// Check fetches remote refs and returns the upstream commits the site
// does not have yet, newest first. An empty result means the site is up
// to date; that is a normal outcome, not an error.
func Check(site *registry.Site) ([]source.Commit, error) {
	if err := source.Fetch(site.SourceDir()); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpdate, err)
	}

	commits, err := source.CommitsAhead(site.SourceDir(), site.Branch)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUpdate, err)
	}
	return commits, nil
}

// Apply discards local modifications and moves the site's checkout to the
// tip of the tracked remote branch. Metadata, database and file storage
// are untouched.
func Apply(site *registry.Site) error {
	if err := source.ResetToRemote(site.SourceDir(), site.Branch); err != nil {
		return fmt.Errorf("%w: %v", ErrUpdate, err)
	}
	return nil
}
