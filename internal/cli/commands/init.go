package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/leapstack-labs/petsales/internal/cli/config"
)

const configHeader = `# petsales configuration.
# Every key can be overridden with PETSALES_<SECTION>__<KEY>, e.g. PETSALES_SOURCE__PATH,
# and by the matching command-line flag.
`

// NewInitCommand creates the init command.
func NewInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [directory]",
		Short: "Write a default petsales.yaml",
		Long: `Write a petsales.yaml holding every setting at its default value.

The file is picked up automatically when petsales runs from that directory.`,
		Example: `  # Initialize in current directory
  petsales init

  # Initialize in a new directory
  petsales init my-export

  # Force overwrite existing config
  petsales init --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) > 0 {
				dir = args[0]
			}
			path, err := runInit(dir, force)
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", path)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Overwrite existing configuration")
	return cmd
}

func runInit(dir string, force bool) (string, error) {
	if dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return "", fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	path := filepath.Join(dir, config.ConfigFileNames[0])
	if _, err := os.Stat(path); err == nil && !force {
		return "", fmt.Errorf("%s already exists. Use --force to overwrite", path)
	} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return "", fmt.Errorf("failed to check %s: %w", path, err)
	}

	body, err := yaml.Marshal(config.Default())
	if err != nil {
		return "", fmt.Errorf("failed to encode config: %w", err)
	}
	if err := os.WriteFile(path, append([]byte(configHeader), body...), 0o644); err != nil { //nolint:gosec // config file is meant to be readable
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	return path, nil
}
