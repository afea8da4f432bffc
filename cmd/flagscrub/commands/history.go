package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flagops/flagscrub/internal/cli"
	"github.com/flagops/flagscrub/internal/client"
)

var (
	historyLimit  int
	historyOffset int
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List archived scans",
	Long: `List scans archived by the server, newest first.

Requires an admin API key.

Examples:
  flagscrub history
  flagscrub history --limit 50 --offset 100
  flagscrub history --format json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := cli.Resolve(baseURL, apiKey)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}

		c := client.NewClient(cfg.BaseURL, cfg.APIKey)

		ctx := context.Background()
		list, err := c.ListScans(ctx, historyLimit, historyOffset)
		if err != nil {
			return fmt.Errorf("failed to list scans: %w", err)
		}

		if quiet {
			return nil
		}

		outFormat := outputFormat(cfg)
		if err := cli.PrintRecords(list.Scans, outFormat); err != nil {
			return err
		}
		if outFormat == cli.FormatTable {
			fmt.Printf("\nShowing %d of %d scan(s)\n", len(list.Scans), list.Pagination.Total)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(historyCmd)

	historyCmd.Flags().IntVar(&historyLimit, "limit", 0, "Maximum number of scans to return")
	historyCmd.Flags().IntVar(&historyOffset, "offset", 0, "Number of scans to skip")
}
