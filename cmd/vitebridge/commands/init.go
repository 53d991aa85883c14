package commands

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vitebridge/vitebridge/pkg/config"
)

var initForce bool

var initCmd = &cobra.Command{
	Use:   "init [directory]",
	Short: "Initialize a sample configuration file",
	Long: `Initialize a sample vitebridge configuration file in the application
directory (default: the current directory).

Examples:
  # Initialize in the current directory
  vitebridge init

  # Initialize a specific application
  vitebridge init ./my-app

  # Force overwrite existing config
  vitebridge init --force`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "Force overwrite existing config file")
}

func runInit(cmd *cobra.Command, args []string) error {
	dir, err := resolveDir(args)
	if err != nil {
		return err
	}

	configPath := GetConfigFile()
	if configPath == "" {
		configPath = filepath.Join(dir, config.ConfigFileName)
	}

	if _, err := os.Stat(configPath); err == nil && !initForce {
		return fmt.Errorf("config file already exists at %s (use --force to overwrite)", configPath)
	}

	if err := config.Save(config.Default(), configPath); err != nil {
		return fmt.Errorf("failed to initialize config: %w", err)
	}

	fmt.Printf("Configuration file created at: %s\n", configPath)
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Edit the configuration file to customize your setup")
	fmt.Println("  2. Start the application with: vitebridge start")
	fmt.Printf("  3. Or specify custom config: vitebridge start --config %s\n", configPath)

	return nil
}
