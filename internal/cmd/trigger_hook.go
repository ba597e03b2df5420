package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thatjpcsguy/reviewsite/internal/config"
	"github.com/thatjpcsguy/reviewsite/internal/hooks"
	"github.com/thatjpcsguy/reviewsite/internal/ident"
	"github.com/thatjpcsguy/reviewsite/internal/registry"
)

// NewTriggerHookCmd creates the trigger-hook command
func NewTriggerHookCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "trigger-hook <branch-or-site-id> <hook>",
		Short: "Manually run a lifecycle hook for a site",
		Long: `Runs a named hook with the site's context in the environment, exactly as
the create and pull lifecycles would.

Hooks: pre-create, post-create, pre-pull, post-pull, pre-update, post-update`,
		Args: cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			hookName := args[1]
			if !hooks.Known(hookName) {
				return fmt.Errorf("unknown hook %q", hookName)
			}

			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			site, err := registry.New(cfg).Load(ident.Resolve(args[0]))
			if err != nil {
				return err
			}

			return hooks.Trigger(cfg.HooksDir, hooks.Hook(hookName), hooks.SiteEnv(site))
		},
	}
}
