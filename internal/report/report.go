// Package report assembles the outcome of a scan: the cleaned payload in
// canonical form, the partitions of what happened to every input key, and
// human-readable renderings of both.
package report

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/flagops/flagscrub/internal/parse"
	"github.com/flagops/flagscrub/internal/schema"
)

// fingerprintLen is the number of hex digits kept from the payload digest.
const fingerprintLen = 8

// previewBudget caps the combined length of the Summary preview lines.
// Summaries are relayed over chat transports with hard message limits.
const previewBudget = 1500

// Report is the full result of scanning one flag dump. Every input key
// lands in exactly one of Kept, RemovedIllegal, or DroppedInvalid.
type Report struct {
	// Mode is the parse tier that produced the pairs.
	Mode parse.Mode `json:"mode"`
	// InputKeys counts the pairs that came out of parsing.
	InputKeys int `json:"inputKeys"`
	// Kept holds the surviving pairs with coerced values.
	Kept map[string]any `json:"-"`
	// RemovedIllegal lists names struck by policy, sorted.
	RemovedIllegal []string `json:"removedIllegal"`
	// DroppedInvalid lists pairs rejected by the schema, sorted by key.
	DroppedInvalid []schema.Rejection `json:"droppedInvalid"`
	// Coercions lists the fixes applied to kept pairs, sorted by key.
	Coercions []schema.Coercion `json:"coercions"`
	// Cleaned is the canonical serialization of Kept: sorted keys,
	// two-space indent, no HTML escaping, no trailing newline.
	Cleaned json.RawMessage `json:"cleaned"`
	// Fingerprint is the first 8 hex digits of Cleaned's SHA-256.
	Fingerprint string `json:"fingerprint"`
}

// Build assembles a Report from the pipeline stage outputs. Slice inputs
// are normalized to empty, never nil, so serializations stay stable.
func Build(mode parse.Mode, inputKeys int, kept map[string]any, removed []string, dropped []schema.Rejection, notes []schema.Coercion) (*Report, error) {
	if kept == nil {
		kept = map[string]any{}
	}
	if removed == nil {
		removed = []string{}
	}
	if dropped == nil {
		dropped = []schema.Rejection{}
	}
	if notes == nil {
		notes = []schema.Coercion{}
	}

	cleaned, err := Canonical(kept)
	if err != nil {
		return nil, fmt.Errorf("serialize cleaned payload: %w", err)
	}

	return &Report{
		Mode:           mode,
		InputKeys:      inputKeys,
		Kept:           kept,
		RemovedIllegal: removed,
		DroppedInvalid: dropped,
		Coercions:      notes,
		Cleaned:        cleaned,
		Fingerprint:    Fingerprint(cleaned),
	}, nil
}

// Canonical serializes pairs deterministically: keys sorted, two-space
// indent, HTML characters unescaped, no trailing newline. Equal maps always
// produce byte-identical output.
func Canonical(pairs map[string]any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(pairs); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Fingerprint returns the short content digest of a canonical payload.
func Fingerprint(canonical []byte) string {
	sum := sha256.Sum256(canonical)
	return hex.EncodeToString(sum[:])[:fingerprintLen]
}

// FileName is the download name for the cleaned payload.
func (r *Report) FileName() string {
	return "fflags_cleaned_" + r.Fingerprint + ".json"
}

// Summary renders the counts plus a bounded preview of the removed and
// dropped names and the applied coercions. The preview lines share a fixed
// character budget; when items are cut, an explicit marker says how many.
// Items are never split mid-entry.
func (r *Report) Summary() string {
	lines := []string{
		"Scan result",
		fmt.Sprintf("- Parse mode: %s", r.Mode),
		fmt.Sprintf("- Input keys: %d", r.InputKeys),
		fmt.Sprintf("- Removed (illegal): %d", len(r.RemovedIllegal)),
		fmt.Sprintf("- Dropped (invalid/unfixable): %d", len(r.DroppedInvalid)),
		fmt.Sprintf("- Kept: %d", len(r.Kept)),
		fmt.Sprintf("- Fingerprint: %s", r.Fingerprint),
	}

	remaining := previewBudget
	appendPreview := func(label string, items []string) {
		if len(items) == 0 {
			return
		}
		joined, omitted := preview(items, remaining)
		remaining -= len(joined)
		line := "- " + label + ": " + joined
		if omitted > 0 {
			marker := fmt.Sprintf("...(+%d more)", omitted)
			if joined == "" {
				line = "- " + label + ": " + marker
			} else {
				line += " " + marker
			}
		}
		lines = append(lines, line)
	}

	appendPreview("Removed", r.RemovedIllegal)
	appendPreview("Dropped", rejectionStrings(r.DroppedInvalid))
	appendPreview("Coercions", coercionStrings(r.Coercions))

	return strings.Join(lines, "\n")
}

// Verbose renders the complete partition listing, one entry per line.
func (r *Report) Verbose() string {
	var sections []string

	if len(r.RemovedIllegal) > 0 {
		sections = append(sections, section("=== Illegal removed ===", r.RemovedIllegal))
	}
	if len(r.DroppedInvalid) > 0 {
		sections = append(sections, section("=== Invalid/unfixable dropped ===", rejectionStrings(r.DroppedInvalid)))
	}
	if len(r.Coercions) > 0 {
		sections = append(sections, section("=== Coercions applied ===", coercionStrings(r.Coercions)))
	}

	if len(sections) == 0 {
		return ""
	}
	return strings.Join(sections, "\n\n") + "\n"
}

func section(header string, entries []string) string {
	return header + "\n" + strings.Join(entries, "\n")
}

func rejectionStrings(rejections []schema.Rejection) []string {
	out := make([]string, len(rejections))
	for i, rej := range rejections {
		out[i] = fmt.Sprintf("%s (%s)", rej.Key, rej.Reason)
	}
	return out
}

func coercionStrings(coercions []schema.Coercion) []string {
	out := make([]string, len(coercions))
	for i, c := range coercions {
		out[i] = c.String()
	}
	return out
}

// preview joins items with ", " without exceeding budget, returning the
// joined prefix and how many items did not fit.
func preview(items []string, budget int) (string, int) {
	var b strings.Builder
	for i, item := range items {
		sep := 0
		if i > 0 {
			sep = 2
		}
		if b.Len()+sep+len(item) > budget {
			return b.String(), len(items) - i
		}
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(item)
	}
	return b.String(), 0
}
