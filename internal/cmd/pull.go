package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thatjpcsguy/reviewsite/internal/config"
	"github.com/thatjpcsguy/reviewsite/internal/lifecycle"
)

// NewPullCmd creates the pull command
func NewPullCmd() *cobra.Command {
	var create bool

	cmd := &cobra.Command{
		Use:   "pull <branch-or-site-id>",
		Short: "Update a site to the upstream branch tip",
		Long: `Fetches upstream and fast-forwards the site's checkout, discarding any
local modifications. The site's database and metadata are untouched.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			return lifecycle.Pull(cfg, args[0], create)
		},
	}

	cmd.Flags().BoolVar(&create, "create", false, "Create the site if it does not exist")

	return cmd
}
