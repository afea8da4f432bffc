package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flagops/flagscrub/internal/cli"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
	Long:  `Manage the flagscrub CLI configuration file.`,
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration file",
	Long: `Create a default configuration file at ~/.flagscrub/config.yaml

Example:
  flagscrub config init`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cli.InitConfig(); err != nil {
			return fmt.Errorf("failed to initialize config: %w", err)
		}

		configPath, _ := cli.GetConfigPath()
		fmt.Printf("Configuration file created at: %s\n", configPath)
		fmt.Println("\nPlease edit the file to set your server URL and API key.")

		return nil
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the current configuration",
	Long: `Display the current configuration.

Example:
  flagscrub config show`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := cli.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		// Mask API key for security
		maskedKey := ""
		if cfg.APIKey != "" {
			maskedKey = "***"
			if len(cfg.APIKey) > 4 {
				maskedKey = cfg.APIKey[:4] + "***"
			}
		}

		fmt.Printf("base_url: %s\n", cfg.BaseURL)
		fmt.Printf("api_key:  %s\n", maskedKey)
		fmt.Printf("format:   %s\n", cfg.Format)

		return nil
	},
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Long: `Set a configuration value and save the file.

Examples:
  flagscrub config set base_url http://localhost:8080
  flagscrub config set api_key my-secret-key
  flagscrub config set format json`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := cli.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		key := args[0]
		value := args[1]

		switch key {
		case "base_url":
			cfg.BaseURL = value
		case "api_key":
			cfg.APIKey = value
		case "format":
			cfg.Format = value
		default:
			return fmt.Errorf("unknown key '%s', valid keys: base_url, api_key, format", key)
		}

		if err := cli.SaveConfig(cfg); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		fmt.Printf("Successfully set %s\n", key)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSetCmd)
}
