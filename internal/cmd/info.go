package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thatjpcsguy/reviewsite/internal/config"
	"github.com/thatjpcsguy/reviewsite/internal/ident"
	"github.com/thatjpcsguy/reviewsite/internal/registry"
)

// NewInfoCmd creates the info command
func NewInfoCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "info <branch-or-site-id>",
		Short: "Show site details",
		Long:  `Shows the persisted and derived metadata of one site.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			reg := registry.New(cfg)
			site, err := reg.Load(ident.Resolve(args[0]))
			if err != nil {
				return err
			}

			if jsonOut {
				return printJSON(toSiteJSON(site))
			}

			fmt.Printf("Site:     %s\n", site.ID)
			fmt.Printf("Branch:   %s\n", site.Branch)
			fmt.Printf("Database: %s\n", site.Database)
			for _, domain := range site.Domains {
				fmt.Printf("Domain:   https://%s\n", domain)
			}
			fmt.Printf("Dir:      %s\n", site.Dir)
			if !site.CreatedAt.IsZero() {
				fmt.Printf("Created:  %s\n", site.CreatedAt.Format("2006-01-02 15:04:05"))
			}

			if snap, err := reg.ReadSnapshot(site); err == nil {
				fmt.Printf("Snapshot: %s@%s (%s)\n", snap.Branch, shortHash(snap.Commit), snap.TakenAt.Format("2006-01-02 15:04:05"))
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")

	return cmd
}

func shortHash(hash string) string {
	if len(hash) > 7 {
		return hash[:7]
	}
	return hash
}
