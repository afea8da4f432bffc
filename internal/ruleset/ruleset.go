// Package ruleset defines the scrub rules: which name prefixes exist, what
// kind each one declares, and which names are banned outright. A ruleset is
// loaded once at startup and treated as immutable for the process lifetime;
// changing rules means restarting with a new file.
package ruleset

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/flagops/flagscrub/internal/policy"
	"github.com/flagops/flagscrub/internal/schema"
)

// prefixPattern constrains prefixes to a letter followed by word characters.
var prefixPattern = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]*$`)

// IllegalRules lists the ban rules fed to the name policy. The three lists
// are OR-combined.
type IllegalRules struct {
	Exact      []string `yaml:"exact" json:"exact"`
	Substrings []string `yaml:"substrings" json:"substrings"`
	Patterns   []string `yaml:"patterns" json:"patterns"`
}

// Ruleset is the full rule document.
type Ruleset struct {
	Version  int                 `yaml:"version" json:"version"`
	Prefixes []schema.PrefixRule `yaml:"prefixes" json:"prefixes"`
	Illegal  IllegalRules        `yaml:"illegal" json:"illegal"`
}

// Default returns the built-in ruleset: the standard fast-flag prefixes and
// the stock list of banned name fragments.
func Default() *Ruleset {
	return &Ruleset{
		Version: 1,
		Prefixes: []schema.PrefixRule{
			{Prefix: "DFFlag", Kind: schema.KindBool},
			{Prefix: "FFlag", Kind: schema.KindBool},
			{Prefix: "DFInt", Kind: schema.KindInt},
			{Prefix: "FInt", Kind: schema.KindInt},
			{Prefix: "DFString", Kind: schema.KindString},
			{Prefix: "FString", Kind: schema.KindString},
			{Prefix: "DFLog", Kind: schema.KindInt},
			{Prefix: "FLog", Kind: schema.KindInt},
			{Prefix: "DFBool", Kind: schema.KindBool},
			{Prefix: "FBool", Kind: schema.KindBool},
		},
		Illegal: IllegalRules{
			Substrings: []string{"debounce", "decomp", "humanoid"},
		},
	}
}

// LoadFile reads and validates a YAML ruleset. Unknown fields are rejected
// so a typo in a rule file fails loudly instead of silently relaxing rules.
func LoadFile(path string) (*Ruleset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read ruleset: %w", err)
	}

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var rs Ruleset
	if err := dec.Decode(&rs); err != nil {
		return nil, fmt.Errorf("parse ruleset %s: %w", path, err)
	}

	if result := rs.Validate(); !result.Valid {
		return nil, fmt.Errorf("invalid ruleset %s: %w", path, result.Err())
	}
	return &rs, nil
}

// ValidationResult holds the outcome of ruleset validation.
type ValidationResult struct {
	Valid  bool
	Errors map[string]string
}

func newValidationResult() *ValidationResult {
	return &ValidationResult{Valid: true, Errors: make(map[string]string)}
}

// AddError records a field error and marks the result invalid.
func (v *ValidationResult) AddError(field, message string) {
	v.Valid = false
	v.Errors[field] = message
}

// Err flattens the result into a single error, nil when valid. Fields are
// listed in sorted order so the message is stable.
func (v *ValidationResult) Err() error {
	if v.Valid {
		return nil
	}
	fields := make([]string, 0, len(v.Errors))
	for field := range v.Errors {
		fields = append(fields, field)
	}
	sort.Strings(fields)

	parts := make([]string, len(fields))
	for i, field := range fields {
		parts[i] = field + ": " + v.Errors[field]
	}
	return errors.New(strings.Join(parts, "; "))
}

// Validate checks the document for structural problems: a missing version,
// malformed or duplicate prefixes, unknown kinds, and ban patterns that do
// not compile.
func (r *Ruleset) Validate() *ValidationResult {
	result := newValidationResult()

	if r.Version < 1 {
		result.AddError("version", "Version must be at least 1")
	}

	if len(r.Prefixes) == 0 {
		result.AddError("prefixes", "At least one prefix rule is required")
	}
	seen := make(map[string]bool, len(r.Prefixes))
	for i, rule := range r.Prefixes {
		field := fmt.Sprintf("prefixes[%d]", i)
		if !prefixPattern.MatchString(rule.Prefix) {
			result.AddError(field, "Prefix must start with a letter and contain only letters, digits, and underscores")
			continue
		}
		if seen[rule.Prefix] {
			result.AddError(field, "Duplicate prefix: "+rule.Prefix)
			continue
		}
		seen[rule.Prefix] = true
		if !rule.Kind.Valid() {
			result.AddError(field, fmt.Sprintf("Kind must be bool, int, or string, got %q", rule.Kind))
		}
	}

	for i, sub := range r.Illegal.Substrings {
		if strings.TrimSpace(sub) == "" {
			result.AddError(fmt.Sprintf("illegal.substrings[%d]", i), "Substring must not be blank")
		}
	}
	for i, pat := range r.Illegal.Patterns {
		if _, err := regexp.Compile(pat); err != nil {
			result.AddError(fmt.Sprintf("illegal.patterns[%d]", i), "Pattern does not compile: "+err.Error())
		}
	}

	return result
}

// Build compiles the ruleset into its runtime forms.
func (r *Ruleset) Build() (*policy.Policy, *schema.Schema, error) {
	if result := r.Validate(); !result.Valid {
		return nil, nil, result.Err()
	}
	pol, err := policy.New(r.Illegal.Exact, r.Illegal.Substrings, r.Illegal.Patterns)
	if err != nil {
		return nil, nil, fmt.Errorf("compile policy: %w", err)
	}
	sch, err := schema.New(r.Prefixes)
	if err != nil {
		return nil, nil, fmt.Errorf("compile schema: %w", err)
	}
	return pol, sch, nil
}
