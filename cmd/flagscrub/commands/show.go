package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/flagops/flagscrub/internal/cli"
	"github.com/flagops/flagscrub/internal/client"
)

var showOutput string

var showCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show an archived scan",
	Long: `Fetch one archived scan by ID.

With --output the canonical cleaned payload is downloaded as well.

Requires an admin API key.

Examples:
  flagscrub show 7f9c2ba4-e88f-4a5c-9017-3c1e0c7a8bd1
  flagscrub show 7f9c2ba4-e88f-4a5c-9017-3c1e0c7a8bd1 --format json
  flagscrub show 7f9c2ba4-e88f-4a5c-9017-3c1e0c7a8bd1 --output cleaned.json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id := args[0]

		cfg, err := cli.Resolve(baseURL, apiKey)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}

		c := client.NewClient(cfg.BaseURL, cfg.APIKey)
		ctx := context.Background()

		rec, err := c.GetScan(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to get scan: %w", err)
		}

		if !quiet {
			if err := cli.PrintRecord(rec, outputFormat(cfg)); err != nil {
				return err
			}
		}

		if showOutput == "" {
			return nil
		}

		payload, err := c.GetScanOutput(ctx, id)
		if err != nil {
			return fmt.Errorf("failed to download payload: %w", err)
		}

		if showOutput == "-" {
			fmt.Println(string(payload))
			return nil
		}
		if err := os.WriteFile(showOutput, payload, 0644); err != nil {
			return fmt.Errorf("failed to write payload: %w", err)
		}

		if !quiet {
			fmt.Printf("Cleaned payload written to %s\n", showOutput)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(showCmd)

	showCmd.Flags().StringVarP(&showOutput, "output", "o", "", "Write the cleaned payload to a file (- for stdout)")
}
