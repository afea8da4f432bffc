package commands

import (
	"github.com/spf13/cobra"

	"github.com/flagops/flagscrub/internal/cli"
)

var (
	// Global flags
	baseURL string
	apiKey  string
	format  string
	quiet   bool
	verbose bool
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "flagscrub",
	Short: "CLI tool for scrubbing fast-flag payloads",
	Long: `Flagscrub is a command-line tool for cleaning untrusted fast-flag payloads.

It extracts the flag object from noisy text, removes flags with banned names,
drops values that do not fit their prefix schema, and emits a canonical
cleaned JSON file. Payloads can be scrubbed locally or submitted to a running
flagscrub server.

Examples:
  flagscrub scan flags.txt
  cat paste.txt | flagscrub scan --stdout
  flagscrub submit flags.txt
  flagscrub history --limit 10
  flagscrub ruleset --format yaml`,
}

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

// outputFormat resolves the effective format from the --format flag and the
// config file
func outputFormat(cfg *cli.Config) cli.OutputFormat {
	if format != "" {
		return cli.OutputFormat(format)
	}
	if cfg != nil && cfg.Format != "" {
		return cli.OutputFormat(cfg.Format)
	}
	return cli.FormatTable
}

func init() {
	// Global flags available to all commands
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "Base URL of the flagscrub server")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "API key for authentication")
	rootCmd.PersistentFlags().StringVar(&format, "format", "", "Output format (table, json, yaml)")
	rootCmd.PersistentFlags().BoolVar(&quiet, "quiet", false, "Suppress output")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Verbose output")
}
