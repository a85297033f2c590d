package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/petsales/internal/cli/config"
	"github.com/leapstack-labs/petsales/internal/sampledb"
)

// NewSampleDBCommand creates the sample-db command.
func NewSampleDBCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "sample-db [path]",
		Short: "Create a demo petstore SQLite database",
		Long: `Create a SQLite database with products and purchases tables and a small
seeded dataset, ready for 'petsales generate'.

Without a path the configured source.path is used.`,
		Example: `  # Create ./petstore.db
  petsales sample-db

  # Create it elsewhere, replacing any existing file
  petsales sample-db data/petstore.db --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := config.FromContext(cmd.Context()).Source.Path
			if len(args) > 0 {
				path = args[0]
			}

			sum, err := sampledb.Create(cmd.Context(), path, force, config.GetLogger(cmd.Context()))
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "Created %s (schema version %d, %d migrations applied)\n",
				sum.Path, sum.Version, sum.Migrations)
			_, _ = fmt.Fprintf(out, "Next: petsales generate -s %s\n", sum.Path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}
