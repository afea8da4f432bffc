package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/flagops/flagscrub/internal/extract"
	"github.com/flagops/flagscrub/internal/parse"
	"github.com/flagops/flagscrub/internal/report"
	"github.com/flagops/flagscrub/internal/ruleset"
	"github.com/flagops/flagscrub/internal/scan"
)

var (
	scanRulesetFile string
	scanOutput      string
	scanReportFile  string
	scanStdout      bool
)

var scanCmd = &cobra.Command{
	Use:   "scan [file]",
	Short: "Scrub a flag payload locally",
	Long: `Run the scrub pipeline on a file or stdin without contacting a server.

The cleaned payload is written to fflags_cleaned_<fingerprint>.json in the
current directory unless --output or --stdout says otherwise.

Examples:
  flagscrub scan flags.txt
  flagscrub scan flags.txt --ruleset rules.yaml
  flagscrub scan flags.txt --output cleaned.json --report report.txt
  cat paste.txt | flagscrub scan --stdout`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		raw, err := readInput(args)
		if err != nil {
			return err
		}

		rs, err := loadRuleset(scanRulesetFile)
		if err != nil {
			return err
		}

		pipeline, err := scan.FromRuleset(rs)
		if err != nil {
			return fmt.Errorf("invalid ruleset: %w", err)
		}

		rep, err := pipeline.Scan(raw)
		switch {
		case errors.Is(err, extract.ErrNoCandidate):
			fmt.Println("No flags scrubbed (signal: NO_CANDIDATE)")
			return nil
		case errors.Is(err, parse.ErrNoFlags):
			fmt.Println("No flags scrubbed (signal: NO_FLAGS)")
			return nil
		case err != nil:
			return fmt.Errorf("scan failed: %w", err)
		}

		if !quiet {
			fmt.Println(rep.Summary())
		}
		if verbose && rep.Verbose() != "" {
			fmt.Println()
			fmt.Print(rep.Verbose())
		}

		if scanReportFile != "" {
			if err := os.WriteFile(scanReportFile, []byte(rep.Verbose()), 0644); err != nil {
				return fmt.Errorf("failed to write report: %w", err)
			}
		}

		return writeCleaned(rep)
	},
}

// readInput reads the payload from the file argument, or stdin when the
// argument is missing or "-"
func readInput(args []string) (string, error) {
	if len(args) == 0 || args[0] == "-" {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("failed to read stdin: %w", err)
		}
		return string(data), nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return "", fmt.Errorf("failed to read file: %w", err)
	}
	return string(data), nil
}

func loadRuleset(path string) (*ruleset.Ruleset, error) {
	if path == "" {
		return ruleset.Default(), nil
	}
	rs, err := ruleset.LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to load ruleset: %w", err)
	}
	return rs, nil
}

// writeCleaned writes the canonical payload. Files get the exact canonical
// bytes so the fingerprint stays verifiable.
func writeCleaned(rep *report.Report) error {
	if scanStdout || scanOutput == "-" {
		fmt.Println(string(rep.Cleaned))
		return nil
	}

	path := scanOutput
	if path == "" {
		path = rep.FileName()
	}
	if err := os.WriteFile(path, rep.Cleaned, 0644); err != nil {
		return fmt.Errorf("failed to write cleaned payload: %w", err)
	}

	if !quiet {
		fmt.Printf("Cleaned payload written to %s\n", path)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(scanCmd)

	scanCmd.Flags().StringVar(&scanRulesetFile, "ruleset", "", "Ruleset YAML file (default: built-in rules)")
	scanCmd.Flags().StringVarP(&scanOutput, "output", "o", "", "Output file for the cleaned payload (- for stdout)")
	scanCmd.Flags().StringVar(&scanReportFile, "report", "", "Write the full report to a file")
	scanCmd.Flags().BoolVar(&scanStdout, "stdout", false, "Print the cleaned payload to stdout instead of a file")
}
