package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/thatjpcsguy/reviewsite/internal/config"
	"github.com/thatjpcsguy/reviewsite/internal/database"
)

// NewSetupMySQLUserCmd creates the setup-mysql-user command
func NewSetupMySQLUserCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "setup-mysql-user",
		Short: "Print the database user bootstrap SQL",
		Long: `Prints the statements that create the configured database user and grant
it the privileges this tool needs. Pipe the output into a privileged
mysql session:

  reviewsite setup-mysql-user | mysql -u root -p`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return fmt.Errorf("failed to load config: %w", err)
			}

			fmt.Print(database.BootstrapStatements(cfg))
			return nil
		},
	}
}
