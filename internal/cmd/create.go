package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thatjpcsguy/reviewsite/internal/config"
	"github.com/thatjpcsguy/reviewsite/internal/lifecycle"
)

// NewCreateCmd creates the create command
func NewCreateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "create <branch>",
		Short: "Create a review site for a branch",
		Long: `Provisions a new review site: checks out the branch, snapshots the base
database into a fresh site database, copies the file storage, rewrites the
site configuration and publishes the site's domains.

A failed create is not rolled back; inspect the site directory and run
delete before retrying.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			return lifecycle.Create(cfg, args[0])
		},
	}
}
