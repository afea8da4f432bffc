package commands

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/flagops/flagscrub/internal/cli"
	"github.com/flagops/flagscrub/internal/client"
	"github.com/flagops/flagscrub/internal/ruleset"
)

var rulesetPath string

var rulesetCmd = &cobra.Command{
	Use:   "ruleset",
	Short: "Show the active rule table",
	Long: `Show the prefix schema and illegal-name rules used to scrub payloads.

By default the ruleset is fetched from the server. With --file a local
ruleset YAML is shown instead.

Examples:
  flagscrub ruleset
  flagscrub ruleset --format yaml
  flagscrub ruleset --file rules.yaml`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := cli.Resolve(baseURL, apiKey)
		if err != nil {
			return fmt.Errorf("configuration error: %w", err)
		}

		var rs *ruleset.Ruleset
		if rulesetPath != "" {
			rs, err = ruleset.LoadFile(rulesetPath)
			if err != nil {
				return fmt.Errorf("failed to load ruleset: %w", err)
			}
		} else {
			c := client.NewClient(cfg.BaseURL, cfg.APIKey)
			rs, err = c.GetRuleset(context.Background())
			if err != nil {
				return fmt.Errorf("failed to fetch ruleset: %w", err)
			}
		}

		if quiet {
			return nil
		}
		return cli.PrintRuleset(rs, outputFormat(cfg))
	},
}

func init() {
	rootCmd.AddCommand(rulesetCmd)

	rulesetCmd.Flags().StringVar(&rulesetPath, "file", "", "Show a local ruleset file instead of the server's")
}
