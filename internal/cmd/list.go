package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/thatjpcsguy/reviewsite/internal/config"
	"github.com/thatjpcsguy/reviewsite/internal/registry"
)

// siteJSON is the structured output shape for list and info.
type siteJSON struct {
	SiteID     string   `json:"site_id"`
	BranchName string   `json:"branch_name"`
	Database   string   `json:"database"`
	Domains    []string `json:"domains"`
}

func toSiteJSON(site *registry.Site) siteJSON {
	return siteJSON{
		SiteID:     site.ID,
		BranchName: site.Branch,
		Database:   site.Database,
		Domains:    site.Domains,
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// NewListCmd creates the list command
func NewListCmd() *cobra.Command {
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all review sites",
		Long:  `Lists every registered site with its branch, database and domains.`,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			sites, err := registry.New(cfg).LoadAll()
			if err != nil {
				return fmt.Errorf("failed to list sites: %w", err)
			}

			if jsonOut {
				out := make([]siteJSON, 0, len(sites))
				for _, site := range sites {
					out = append(out, toSiteJSON(site))
				}
				return printJSON(out)
			}

			if len(sites) == 0 {
				fmt.Println("No sites found")
				return nil
			}

			cyan := color.New(color.FgCyan).SprintFunc()

			for _, site := range sites {
				fmt.Printf("%s\n", cyan(site.ID))
				fmt.Printf("  Branch:   %s\n", site.Branch)
				fmt.Printf("  Database: %s\n", site.Database)
				for _, domain := range site.Domains {
					fmt.Printf("  Domain:   https://%s\n", domain)
				}
				if !site.CreatedAt.IsZero() {
					fmt.Printf("  Created:  %s\n", site.CreatedAt.Format("2006-01-02 15:04:05"))
				}
				fmt.Println()
			}

			return nil
		},
	}

	cmd.Flags().BoolVar(&jsonOut, "json", false, "Output as JSON")

	return cmd
}
