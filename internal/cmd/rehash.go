package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thatjpcsguy/reviewsite/internal/config"
	"github.com/thatjpcsguy/reviewsite/internal/lifecycle"
)

// NewRehashCmd creates the rehash command
func NewRehashCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rehash",
		Short: "Rebuild the webroot links",
		Long: `Rebuilds the flat directory of domain symlinks from the registry. Normally
runs automatically after create and delete; rehash forces it by hand.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			return lifecycle.Rehash(cfg)
		},
	}
}
