// Package scan wires the stages of a flag scrub into one pass: candidate
// extraction, tolerant parsing, name policy, schema coercion, report.
// A Pipeline holds no mutable state and never touches persistence; storing
// results is the caller's concern.
package scan

import (
	"github.com/flagops/flagscrub/internal/extract"
	"github.com/flagops/flagscrub/internal/parse"
	"github.com/flagops/flagscrub/internal/policy"
	"github.com/flagops/flagscrub/internal/report"
	"github.com/flagops/flagscrub/internal/ruleset"
	"github.com/flagops/flagscrub/internal/schema"
)

// Pipeline scans raw flag dumps under a fixed policy and schema.
// Safe for concurrent use.
type Pipeline struct {
	policy *policy.Policy
	schema *schema.Schema
}

// New builds a Pipeline from compiled rules.
func New(pol *policy.Policy, sch *schema.Schema) *Pipeline {
	return &Pipeline{policy: pol, schema: sch}
}

// FromRuleset compiles rs and builds a Pipeline from it.
func FromRuleset(rs *ruleset.Ruleset) (*Pipeline, error) {
	pol, sch, err := rs.Build()
	if err != nil {
		return nil, err
	}
	return New(pol, sch), nil
}

// Scan runs raw input through the full pipeline.
//
// Errors pass through untranslated: extract.ErrNoCandidate when no brace
// span exists, *parse.NotObjectError when the payload is not an object,
// parse.ErrNoFlags when nothing could be salvaged. Every successfully
// parsed key lands in exactly one report partition.
func (p *Pipeline) Scan(raw string) (*report.Report, error) {
	candidate, err := extract.Candidate(raw)
	if err != nil {
		return nil, err
	}

	doc, err := parse.Parse(candidate)
	if err != nil {
		return nil, err
	}

	kept, removed := p.policy.Split(doc.Pairs)
	cleaned, dropped, notes := p.schema.Apply(kept)

	return report.Build(doc.Mode, len(doc.Pairs), cleaned, removed, dropped, notes)
}
