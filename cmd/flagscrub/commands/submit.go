package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flagops/flagscrub/internal/cli"
	"github.com/flagops/flagscrub/internal/client"
)

var submitNoStore bool

var submitCmd = &cobra.Command{
	Use:   "submit [file]",
	Short: "Submit a flag payload to a flagscrub server",
	Long: `Send a file or stdin to a running flagscrub server for scrubbing.

Examples:
  flagscrub submit flags.txt
  flagscrub submit flags.txt --no-store
  cat paste.txt | flagscrub submit --format json`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := readInput(args)
		if err != nil {
			return err
		}

		cfg, err := cli.Resolve(baseURL, apiKey)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}

		c := client.NewClient(cfg.BaseURL, cfg.APIKey)

		ctx := context.Background()
		res, err := c.Submit(ctx, raw, !submitNoStore)
		if err != nil {
			return fmt.Errorf("failed to submit scan: %w", err)
		}

		if quiet {
			return nil
		}
		return cli.PrintScanResult(res, outputFormat(cfg))
	},
}

func init() {
	rootCmd.AddCommand(submitCmd)

	submitCmd.Flags().BoolVar(&submitNoStore, "no-store", false, "Skip archiving the scan on the server")
}
