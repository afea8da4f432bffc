package cli

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"gopkg.in/yaml.v3"

	"github.com/flagops/flagscrub/internal/client"
	"github.com/flagops/flagscrub/internal/ruleset"
	"github.com/flagops/flagscrub/internal/store"
)

// OutputFormat specifies the output format for CLI commands
type OutputFormat string

const (
	FormatTable OutputFormat = "table"
	FormatJSON  OutputFormat = "json"
	FormatYAML  OutputFormat = "yaml"
)

// PrintRecords outputs archived scans in the specified format
func PrintRecords(records []store.Record, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return printJSON(records)
	case FormatYAML:
		return printYAML(records)
	case FormatTable:
		return printRecordTable(records)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// PrintRecord outputs a single archived scan in the specified format
func PrintRecord(rec *store.Record, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return printJSON(rec)
	case FormatYAML:
		return printYAML(rec)
	case FormatTable:
		return printRecordTable([]store.Record{*rec})
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// PrintRuleset outputs the rule table in the specified format
func PrintRuleset(rs *ruleset.Ruleset, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return printJSON(rs)
	case FormatYAML:
		return printYAML(rs)
	case FormatTable:
		table := tablewriter.NewWriter(os.Stdout)
		table.Header("Prefix", "Kind")
		for _, rule := range rs.Prefixes {
			table.Append(rule.Prefix, string(rule.Kind))
		}
		if err := table.Render(); err != nil {
			return err
		}
		printIllegalRules(rs)
		return nil
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// PrintScanResult outputs a submission response. Table format prints the
// server's human summary.
func PrintScanResult(res *client.ScanResult, format OutputFormat) error {
	switch format {
	case FormatJSON:
		return printJSON(res)
	case FormatYAML:
		return printYAML(res)
	case FormatTable:
		if res.Signal != "" {
			fmt.Printf("No flags scrubbed (signal: %s)\n", res.Signal)
			return nil
		}
		fmt.Println(res.Summary)
		if res.Stored {
			fmt.Printf("Stored as scan %s\n", res.ScanID)
		}
		return nil
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func printJSON(data interface{}) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	// Wrap scan listings in a "scans" key for consistency with the API
	if records, ok := data.([]store.Record); ok {
		return encoder.Encode(map[string][]store.Record{"scans": records})
	}
	return encoder.Encode(data)
}

func printYAML(data interface{}) error {
	encoder := yaml.NewEncoder(os.Stdout)
	defer encoder.Close()
	encoder.SetIndent(2)
	return encoder.Encode(data)
}

func printRecordTable(records []store.Record) error {
	table := tablewriter.NewWriter(os.Stdout)

	table.Header("ID", "Created", "Mode", "Keys", "Kept", "Removed", "Dropped", "Fingerprint")

	for _, rec := range records {
		table.Append(
			rec.ID.String()[:8],
			rec.CreatedAt.Format("2006-01-02 15:04"),
			rec.Mode,
			fmt.Sprintf("%d", rec.InputKeys),
			fmt.Sprintf("%d", rec.KeptCount),
			fmt.Sprintf("%d", rec.RemovedCount),
			fmt.Sprintf("%d", rec.DroppedCount),
			rec.Fingerprint,
		)
	}

	return table.Render()
}

func printIllegalRules(rs *ruleset.Ruleset) {
	rules := rs.Illegal
	if len(rules.Exact)+len(rules.Substrings)+len(rules.Patterns) == 0 {
		return
	}
	fmt.Println("\nIllegal name rules:")
	for _, name := range rules.Exact {
		fmt.Printf("  exact:     %s\n", name)
	}
	for _, sub := range rules.Substrings {
		fmt.Printf("  substring: %s\n", sub)
	}
	for _, pattern := range rules.Patterns {
		fmt.Printf("  pattern:   %s\n", pattern)
	}
}
