// Package lifecycle sequences the top-level site operations: create, pull
// and delete. Each operation is a fail-fast pipeline; the first failed
// step aborts the invocation and nothing already done is undone.
package lifecycle

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"golang.org/x/term"

	"github.com/thatjpcsguy/reviewsite/internal/appconfig"
	"github.com/thatjpcsguy/reviewsite/internal/config"
	"github.com/thatjpcsguy/reviewsite/internal/database"
	"github.com/thatjpcsguy/reviewsite/internal/hooks"
	"github.com/thatjpcsguy/reviewsite/internal/ident"
	"github.com/thatjpcsguy/reviewsite/internal/provision"
	"github.com/thatjpcsguy/reviewsite/internal/registry"
	"github.com/thatjpcsguy/reviewsite/internal/update"
	"github.com/thatjpcsguy/reviewsite/internal/webroot"
)

// ErrUserAborted is returned when the operator declines a confirmation
// prompt, or when one would be needed but stdin is not a terminal.
var ErrUserAborted = errors.New("aborted by user")

// Create provisions a new site for the branch and publishes it.
func Create(cfg *config.Config, branch string) error {
	siteID := ident.Resolve(branch)
	reg := registry.New(cfg)

	if reg.Occupied(siteID) {
		return fmt.Errorf("%w: %s", provision.ErrAlreadyExists, siteID)
	}

	fmt.Printf("🚀 Creating site %s from branch %s...\n", siteID, branch)

	env := hooks.SiteEnv(reg.NewSite(siteID, branch))
	if err := hooks.Trigger(cfg.HooksDir, hooks.PreCreate, env); err != nil {
		return err
	}
	if err := hooks.Trigger(cfg.HooksDir, hooks.PreUpdate, env); err != nil {
		return err
	}

	admin, err := database.Open(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = admin.Close() }()

	site, err := provision.Provision(cfg, reg, admin, siteID, branch)
	if err != nil {
		return err
	}

	if err := configureAndVerify(cfg, site); err != nil {
		return err
	}

	if err := publish(cfg, reg); err != nil {
		return err
	}

	if err := hooks.Trigger(cfg.HooksDir, hooks.PostUpdate, env); err != nil {
		return err
	}
	if err := hooks.Trigger(cfg.HooksDir, hooks.PostCreate, env); err != nil {
		return err
	}

	green := color.New(color.FgGreen).SprintFunc()
	fmt.Println()
	fmt.Printf("%s Site %s is ready\n", green("✅"), siteID)
	for _, domain := range site.Domains {
		fmt.Printf("🌐 https://%s\n", domain)
	}
	return nil
}

// Pull brings an existing site up to date with its upstream branch. With
// createIfAbsent, an unknown identifier is handed to Create instead.
func Pull(cfg *config.Config, idOrBranch string, createIfAbsent bool) error {
	siteID := ident.Resolve(idOrBranch)
	reg := registry.New(cfg)

	if !reg.Exists(siteID) {
		if createIfAbsent {
			return Create(cfg, idOrBranch)
		}
		return fmt.Errorf("%w: %s", registry.ErrNotFound, siteID)
	}

	site, err := reg.Load(siteID)
	if err != nil {
		return err
	}

	fmt.Printf("🔄 Checking %s for upstream changes...\n", siteID)

	commits, err := update.Check(site)
	if err != nil {
		return err
	}
	if len(commits) == 0 {
		fmt.Println("Already up to date")
		return nil
	}

	fmt.Printf("Found %d new commit(s):\n", len(commits))
	for _, c := range commits {
		fmt.Printf("  %s %s (%s)\n", c.Hash, c.Subject, c.Author)
	}
	fmt.Println()

	env := hooks.SiteEnv(site)
	if err := hooks.Trigger(cfg.HooksDir, hooks.PrePull, env); err != nil {
		return err
	}
	if err := hooks.Trigger(cfg.HooksDir, hooks.PreUpdate, env); err != nil {
		return err
	}

	if err := update.Apply(site); err != nil {
		return err
	}

	if err := configureAndVerify(cfg, site); err != nil {
		return err
	}

	if err := hooks.Trigger(cfg.HooksDir, hooks.PostUpdate, env); err != nil {
		return err
	}
	if err := hooks.Trigger(cfg.HooksDir, hooks.PostPull, env); err != nil {
		return err
	}

	fmt.Printf("✅ Site %s updated\n", siteID)
	return nil
}

// Delete removes a site's directory, database and webroot links. Asks for
// confirmation unless force is set. Not reversible.
func Delete(cfg *config.Config, id string, force bool) error {
	siteID := ident.Resolve(id)
	reg := registry.New(cfg)

	site, err := reg.Load(siteID)
	if err != nil {
		return err
	}

	if !force {
		ok, err := confirm(fmt.Sprintf("Delete site %s and database %s? This cannot be undone. [y/N] ", site.ID, site.Database))
		if err != nil {
			return err
		}
		if !ok {
			return ErrUserAborted
		}
	}

	admin, err := database.Open(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = admin.Close() }()

	fmt.Printf("🗑  Dropping database %s...\n", site.Database)
	if err := admin.Drop(site.Database); err != nil {
		return err
	}

	fmt.Printf("🗑  Removing %s...\n", site.Dir)
	if err := reg.Remove(siteID); err != nil {
		return err
	}

	if err := publish(cfg, reg); err != nil {
		return err
	}

	fmt.Printf("✅ Site %s deleted\n", siteID)
	return nil
}

// Rehash rebuilds the webroot links from the current registry contents.
func Rehash(cfg *config.Config) error {
	return publish(cfg, registry.New(cfg))
}

// configureAndVerify injects the site's settings and confirms the live
// configuration actually points at the site's database.
func configureAndVerify(cfg *config.Config, site *registry.Site) error {
	fmt.Println("🔧 Injecting site configuration...")
	if err := appconfig.Inject(cfg, site); err != nil {
		return err
	}

	fmt.Println("🔍 Verifying live configuration...")
	return appconfig.Verify(cfg, site)
}

// publish rebuilds the webroot so the link set matches the registry.
func publish(cfg *config.Config, reg *registry.Registry) error {
	sites, err := reg.LoadAll()
	if err != nil {
		return err
	}
	fmt.Println("🔗 Rebuilding webroot links...")
	return webroot.Rebuild(cfg, sites)
}

// confirm prompts on stdout and reads one line from stdin. A stdin that
// is not a terminal cannot answer, so the prompt fails closed.
func confirm(prompt string) (bool, error) {
	if !term.IsTerminal(int(os.Stdin.Fd())) {
		return false, fmt.Errorf("%w: confirmation required but stdin is not a terminal (use -f)", ErrUserAborted)
	}

	fmt.Print(prompt)
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		return false, fmt.Errorf("failed to read confirmation: %w", err)
	}

	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes", nil
}
