package config

import (
	"fmt"

	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate [directory]",
	Short: "Validate configuration file",
	Long: `Validate the vitebridge configuration for an application.

The configuration goes through the full load pipeline: shorthand
expansion, defaults, and validation. Errors are reported with the
offending field path.

Examples:
  # Validate the current directory's config
  vitebridge config validate

  # Validate a specific config file
  vitebridge config validate --config ./vitebridge.yaml`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	if _, err := loadFor(cmd, args); err != nil {
		return err
	}
	fmt.Println("Configuration is valid")
	return nil
}
