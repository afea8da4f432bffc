// Package policy decides which flag names are banned outright. A name is
// removed when it matches the exact-name set, contains a banned substring
// (case-insensitive), or matches a banned pattern. The three checks are
// OR-combined; one hit is enough.
package policy

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Policy is an immutable set of ban rules. Safe for concurrent use.
type Policy struct {
	exact      map[string]struct{}
	substrings []string
	patterns   []*regexp.Regexp
}

// New compiles a Policy from rule lists. Substrings are matched
// case-insensitively; exact names are matched verbatim. An invalid pattern
// fails construction.
func New(exact, substrings, patterns []string) (*Policy, error) {
	p := &Policy{
		exact:      make(map[string]struct{}, len(exact)),
		substrings: make([]string, 0, len(substrings)),
		patterns:   make([]*regexp.Regexp, 0, len(patterns)),
	}
	for _, name := range exact {
		p.exact[name] = struct{}{}
	}
	for _, sub := range substrings {
		if sub == "" {
			continue
		}
		p.substrings = append(p.substrings, strings.ToLower(sub))
	}
	for _, pat := range patterns {
		re, err := regexp.Compile(pat)
		if err != nil {
			return nil, fmt.Errorf("compile ban pattern %q: %w", pat, err)
		}
		p.patterns = append(p.patterns, re)
	}
	return p, nil
}

// Banned reports whether key hits any ban rule.
func (p *Policy) Banned(key string) bool {
	if _, ok := p.exact[key]; ok {
		return true
	}
	lower := strings.ToLower(key)
	for _, sub := range p.substrings {
		if strings.Contains(lower, sub) {
			return true
		}
	}
	for _, re := range p.patterns {
		if re.MatchString(key) {
			return true
		}
	}
	return false
}

// Split partitions pairs into surviving entries and a sorted list of
// removed names. The input map is not modified.
func (p *Policy) Split(pairs map[string]any) (map[string]any, []string) {
	kept := make(map[string]any, len(pairs))
	var removed []string
	for key, value := range pairs {
		if p.Banned(key) {
			removed = append(removed, key)
			continue
		}
		kept[key] = value
	}
	sort.Strings(removed)
	return kept, removed
}

// Rules reports the configured rule counts, for logging and inspection.
func (p *Policy) Rules() (exact, substrings, patterns int) {
	return len(p.exact), len(p.substrings), len(p.patterns)
}
