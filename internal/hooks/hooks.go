// Package hooks runs optional operator-supplied scripts at lifecycle
// checkpoints. A hook is an executable in the configured hooks directory
// named after its checkpoint; hooks receive the site context through the
// environment and cannot touch this tool's internal state.
package hooks

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/thatjpcsguy/reviewsite/internal/registry"
)

// Hook names a lifecycle checkpoint.
type Hook string

// Checkpoints, in firing order. PreUpdate/PostUpdate bracket both create
// and pull, giving hook authors one pair for "any provisioning change".
const (
	PreCreate  Hook = "pre-create"
	PostCreate Hook = "post-create"
	PrePull    Hook = "pre-pull"
	PostPull   Hook = "post-pull"
	PreUpdate  Hook = "pre-update"
	PostUpdate Hook = "post-update"
)

// Known reports whether name is a defined checkpoint.
func Known(name string) bool {
	switch Hook(name) {
	case PreCreate, PostCreate, PrePull, PostPull, PreUpdate, PostUpdate:
		return true
	}
	return false
}

// SiteEnv is the environment contract between this tool and hook scripts.
func SiteEnv(site *registry.Site) map[string]string {
	return map[string]string{
		"SITE_ID":     site.ID,
		"BRANCH":      site.Branch,
		"SITE_DIR":    site.Dir,
		"SITE_SOURCE": site.SourceDir(),
		"DATABASE":    site.Database,
		"DOMAINS":     strings.Join(site.Domains, " "),
	}
}

// Trigger runs the hook if a matching executable exists in hooksDir. A
// missing hook file, or an empty hooks directory setting, is not an error.
func Trigger(hooksDir string, hook Hook, env map[string]string) error {
	if hooksDir == "" {
		return nil
	}

	path := filepath.Join(hooksDir, string(hook))
	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return nil
	}
	if info.Mode().Perm()&0111 == 0 {
		return nil
	}

	fmt.Printf("🪝 Running %s hook...\n", hook)

	cmd := exec.Command(path)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = os.Environ()
	for k, v := range env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
	}

	if err := cmd.Run(); err != nil {
		return fmt.Errorf("%s hook failed: %w", hook, err)
	}
	return nil
}
