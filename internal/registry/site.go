package registry

import (
	"path/filepath"
	"time"

	"github.com/thatjpcsguy/reviewsite/internal/ident"
)

// Site is one provisioned review environment. The identifier and branch
// name are persisted; database name and domains are derived on load.
type Site struct {
	ID        string
	Branch    string
	CreatedAt time.Time

	// Derived from the identifier and global configuration
	Database string
	Domains  []string

	// Absolute path of the site directory
	Dir string
}

// Snapshot is the provenance record for the database dump taken from the
// base environment when the site was provisioned. Immutable once written.
type Snapshot struct {
	Branch  string    `yaml:"branch"`
	Commit  string    `yaml:"commit"`
	TakenAt time.Time `yaml:"taken_at"`
}

// Per-site file and directory names.
const (
	branchFile   = "branch"
	createdFile  = "created"
	snapshotFile = "snapshot.yml"
	dumpFile     = "base.sql"
	sourceDir    = "source"
	filesDir     = "files"
)

// SourceDir is the site's git checkout.
func (s *Site) SourceDir() string { return filepath.Join(s.Dir, sourceDir) }

// FilesPublicDir is the site's copy of the public file storage.
func (s *Site) FilesPublicDir() string { return filepath.Join(s.Dir, filesDir, "public") }

// FilesPrivateDir is the site's copy of the private file storage.
func (s *Site) FilesPrivateDir() string { return filepath.Join(s.Dir, filesDir, "private") }

// DumpPath is the database dump captured from the base environment.
func (s *Site) DumpPath() string { return filepath.Join(s.Dir, dumpFile) }

// SnapshotPath is the dump's provenance record.
func (s *Site) SnapshotPath() string { return filepath.Join(s.Dir, snapshotFile) }

func (s *Site) branchPath() string  { return filepath.Join(s.Dir, branchFile) }
func (s *Site) createdPath() string { return filepath.Join(s.Dir, createdFile) }

// derive fills in the computed fields from the identifier and global
// configuration.
func (s *Site) derive(dbPrefix string, baseDomains []string) {
	s.Database = ident.DatabaseName(dbPrefix, s.ID)
	s.Domains = ident.Domains(s.ID, baseDomains)
}
