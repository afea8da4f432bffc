// Package extract locates a JSON object candidate inside free-form text.
// Flag dumps arrive as chat pastes or file contents: the payload may be
// wrapped in a markdown fence, carry a byte-order mark, or sit in the
// middle of surrounding prose.
package extract

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// ErrNoCandidate is returned when the text contains no brace-delimited span.
var ErrNoCandidate = errors.New("no JSON object candidate found in input")

const bom = "\uFEFF"

// fencedObject captures the first {...} inside a fenced code block with an
// optional json language tag.
var fencedObject = regexp.MustCompile("(?is)```(?:json)?\\s*(\\{.*?\\})\\s*```")

// Candidate extracts the most plausible JSON text from raw input.
//
// Resolution order:
//  1. strip a leading byte-order mark and surrounding whitespace
//  2. unwrap a fully fenced block, dropping the language tag line
//  3. if the remainder is a syntactically complete JSON value, hand it over
//     verbatim (the parser rejects top-level non-objects itself)
//  4. otherwise search the original text, preferring a fenced JSON object
//     over a bare {...} span (first brace to last brace)
//
// The function is a pure string transform.
func Candidate(raw string) (string, error) {
	text := strings.TrimSpace(strings.TrimPrefix(raw, bom))
	if text == "" {
		return "", ErrNoCandidate
	}

	unwrapped := stripFence(text)
	if json.Valid([]byte(unwrapped)) {
		return unwrapped, nil
	}

	if m := fencedObject.FindStringSubmatch(text); m != nil {
		return m[1], nil
	}
	if span, ok := braceSpan(unwrapped); ok {
		return span, nil
	}
	return "", ErrNoCandidate
}

// stripFence removes an enclosing ``` fence. The opening line may carry a
// language tag (```json); the closing fence must be the last one in the text.
func stripFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	body := s
	if idx := strings.Index(body, "\n"); idx >= 0 {
		body = body[idx+1:]
	} else {
		// Single-line fence such as ```{"a":1}```.
		body = strings.TrimPrefix(body, "```")
		body = strings.TrimPrefix(body, "json")
	}
	if end := strings.LastIndex(body, "```"); end >= 0 {
		body = body[:end]
	}
	return strings.TrimSpace(body)
}

// braceSpan returns the greedy substring from the first '{' to the last '}'.
func braceSpan(s string) (string, bool) {
	start := strings.Index(s, "{")
	if start < 0 {
		return "", false
	}
	end := strings.LastIndex(s, "}")
	if end <= start {
		return "", false
	}
	return s[start : end+1], true
}
