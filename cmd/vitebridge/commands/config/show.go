package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/vitebridge/vitebridge/pkg/config"
)

var showOutput string

var showCmd = &cobra.Command{
	Use:   "show [directory]",
	Short: "Display current configuration",
	Long: `Display the effective vitebridge configuration for an application,
after shorthand expansion, defaults, and environment overrides.

By default outputs YAML format. Use --output to change format.

Examples:
  # Show effective config as YAML
  vitebridge config show

  # Show as JSON
  vitebridge config show --output json`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigShow,
}

func init() {
	showCmd.Flags().StringVarP(&showOutput, "output", "o", "yaml", "Output format (yaml|json)")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadFor(cmd, args)
	if err != nil {
		return err
	}

	switch showOutput {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(cfg)
	case "yaml":
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		_, err = os.Stdout.Write(data)
		return err
	default:
		return fmt.Errorf("unknown output format: %s (expected yaml or json)", showOutput)
	}
}

// loadFor loads the configuration for the optional positional directory,
// honoring the root command's --config flag.
func loadFor(cmd *cobra.Command, args []string) (*config.Config, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	configPath, _ := cmd.Flags().GetString("config")
	return config.Load(dir, configPath)
}
