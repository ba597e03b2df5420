package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/thatjpcsguy/reviewsite/internal/cmd"
)

var version = "0.3.0"

func main() {
	rootCmd := &cobra.Command{
		Use:   "reviewsite",
		Short: "Per-branch review site manager",
		Long: `Reviewsite manages ephemeral review environments for a CMS application.
Each site pairs a branch checkout with its own database and file storage,
published to the web server through a directory of domain-named symlinks.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.AddCommand(cmd.NewListCmd())
	rootCmd.AddCommand(cmd.NewCreateCmd())
	rootCmd.AddCommand(cmd.NewPullCmd())
	rootCmd.AddCommand(cmd.NewDeleteCmd())
	rootCmd.AddCommand(cmd.NewInfoCmd())
	rootCmd.AddCommand(cmd.NewRehashCmd())
	rootCmd.AddCommand(cmd.NewSetupMySQLUserCmd())
	rootCmd.AddCommand(cmd.NewTriggerHookCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
