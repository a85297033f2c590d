package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/petsales/internal/sales"
	"github.com/leapstack-labs/petsales/internal/source"
)

// NewSchemaCommand creates the schema command.
func NewSchemaCommand() *cobra.Command {
	var showQuery bool

	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Show the source and output column sets",
		Long: `Print the columns the join query must return, the columns added during
enrichment, and the columns written to the output file, in order.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			w := cmd.OutOrStdout()
			renderSchema(w, "Source columns", sales.SourceSchema)
			_, _ = fmt.Fprintln(w)
			renderSchema(w, "Derived columns", sales.DerivedSchema)
			_, _ = fmt.Fprintln(w)
			renderSchema(w, "Output columns", sales.OutputSchema)
			if showQuery {
				_, _ = fmt.Fprintln(w)
				_, _ = fmt.Fprintln(w, source.JoinQuery)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showQuery, "query", false, "Also print the join query")
	return cmd
}
