// Package cli provides the command-line interface for petsales.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/petsales/internal/cli/commands"
	"github.com/leapstack-labs/petsales/internal/cli/config"
	"github.com/leapstack-labs/petsales/internal/enrich"
	"github.com/leapstack-labs/petsales/internal/export"
	"github.com/leapstack-labs/petsales/internal/source"
)

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// Process exit codes.
const (
	ExitOK         = 0
	ExitFailure    = 1
	ExitNotFound   = 2
	ExitQueryError = 3
	ExitParseError = 4
	ExitWriteError = 5
)

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	var cfgFile string

	rootCmd := &cobra.Command{
		Use:   "petsales",
		Short: "petsales - pet store sales dataset generator",
		Long: `petsales reads purchases joined with products from a petstore database,
adds calendar, marketing and stock columns, and exports the result as a
delimited file for analysis.`,
		Version: Version,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.LoadConfig(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}

			logger := config.NewLogger(cfg.Log, cmd.ErrOrStderr())
			if f := config.GetConfigFileUsed(); f != "" {
				logger.Debug("using config file", "path", f)
			}

			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}
			ctx = config.WithConfig(ctx, cfg)
			ctx = context.WithValue(ctx, config.LoggerKey(), logger)
			cmd.SetContext(ctx)
			return nil
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
`)

	// Global persistent flags
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./petsales.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Verbose output (debug logging)")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (debug|info|warn|error)")
	rootCmd.PersistentFlags().String("log-format", "", "Log format (text|json)")

	_ = rootCmd.RegisterFlagCompletionFunc("log-level", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"debug", "info", "warn", "error"}, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("log-format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{"text", "json"}, cobra.ShellCompDirectiveNoFileComp
	})

	rootCmd.AddCommand(commands.NewGenerateCommand())
	rootCmd.AddCommand(commands.NewSchemaCommand())
	rootCmd.AddCommand(commands.NewSampleDBCommand())
	rootCmd.AddCommand(commands.NewInitCommand())
	rootCmd.AddCommand(commands.NewVersionCommand(Version, GitCommit, BuildDate))

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// ExitCode maps an error returned by Execute to the process exit status.
func ExitCode(err error) int {
	if err == nil {
		return ExitOK
	}

	var (
		notFound *source.NotFoundError
		query    *source.QueryError
		parse    *enrich.ParseError
		write    *export.WriteError
	)
	switch {
	case errors.As(err, &notFound):
		return ExitNotFound
	case errors.As(err, &query):
		return ExitQueryError
	case errors.As(err, &parse):
		return ExitParseError
	case errors.As(err, &write):
		return ExitWriteError
	default:
		return ExitFailure
	}
}
