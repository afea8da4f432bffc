// Package parse turns a JSON object candidate into a flat map of flag
// pairs. Strict decoding is attempted first; malformed input falls through
// to an automated repair pass and finally to a line-oriented scavenge of
// quoted-key/value pairs, so that a dump with one broken line still yields
// the lines around it.
package parse

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// Mode records which parse tier produced the result. Downstream reports
// carry it so consumers can tell a pristine dump from a salvaged one.
type Mode string

const (
	// ModeStrict means the candidate decoded as-is.
	ModeStrict Mode = "strict"
	// ModeRepaired means the candidate decoded after automated JSON repair.
	ModeRepaired Mode = "repaired"
	// ModeScavenged means pairs were pulled out with a permissive scan.
	ModeScavenged Mode = "scavenged"
)

// Document is a parsed flag dump.
type Document struct {
	// Pairs holds top-level key/value entries. Values are string, bool,
	// json.Number, or arbitrary decoded JSON (nil, []any, map[string]any)
	// for later stages to judge.
	Pairs map[string]any
	// Mode is the tier that produced Pairs.
	Mode Mode
}

// ErrNoFlags is returned when every tier comes up empty.
var ErrNoFlags = errors.New("no flag pairs could be parsed from input")

// NotObjectError reports a candidate whose top-level JSON value is not an
// object. Processing stops; there are no flag pairs to salvage in an array
// or scalar.
type NotObjectError struct {
	// Got describes the decoded top-level value.
	Got string
}

func (e *NotObjectError) Error() string {
	return fmt.Sprintf("top-level JSON value is %s, expected an object", e.Got)
}

// pairPattern matches one "key": value entry, the value running up to the
// next comma, newline, or closing brace. Whitespace around the colon is
// horizontal only so a missing value does not swallow the next line.
var pairPattern = regexp.MustCompile(`"([^"]+)"[ \t]*:[ \t]*([^,\n\r}]*)`)

// numberPattern recognizes bare numeric literals in scavenged values.
var numberPattern = regexp.MustCompile(`^-?\d+(?:\.\d+)?(?:[eE][+-]?\d+)?$`)

// Parse decodes candidate into a Document, degrading through repair and
// scavenge tiers as needed.
//
// A top-level non-object, whether decoded directly or after repair, returns
// a NotObjectError. A candidate that yields zero pairs through every tier
// returns ErrNoFlags; a well-formed empty object is not an error.
func Parse(candidate string) (*Document, error) {
	pairs, err := decodeObject(candidate)
	if err == nil {
		return &Document{Pairs: pairs, Mode: ModeStrict}, nil
	}
	var notObject *NotObjectError
	if errors.As(err, &notObject) {
		return nil, err
	}

	if fixed, repairErr := jsonrepair.JSONRepair(candidate); repairErr == nil {
		pairs, err = decodeObject(fixed)
		if err == nil {
			return &Document{Pairs: pairs, Mode: ModeRepaired}, nil
		}
		if errors.As(err, &notObject) {
			return nil, err
		}
	}

	pairs = scavenge(candidate)
	if len(pairs) == 0 {
		return nil, ErrNoFlags
	}
	return &Document{Pairs: pairs, Mode: ModeScavenged}, nil
}

// decodeObject strictly decodes text as a single top-level JSON object.
// Numbers are kept as json.Number so large ints survive undistorted.
func decodeObject(text string) (map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(text))
	dec.UseNumber()

	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, errors.New("trailing data after JSON value")
	}

	obj, ok := v.(map[string]any)
	if !ok {
		return nil, &NotObjectError{Got: describe(v)}
	}
	return obj, nil
}

func describe(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case bool:
		return "a boolean"
	case json.Number:
		return "a number"
	case string:
		return "a string"
	case []any:
		return "an array"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// scavenge pulls "key": value pairs out of text that no decoder accepts.
// Values keep their apparent type: a quoted value is a string, bare
// true/false are booleans, bare numerals become json.Number. Duplicate keys
// resolve last-write-wins, matching object decoding.
func scavenge(text string) map[string]any {
	matches := pairPattern.FindAllStringSubmatch(text, -1)
	if len(matches) == 0 {
		return nil
	}

	pairs := make(map[string]any, len(matches))
	for _, m := range matches {
		key := m[1]
		raw := strings.TrimSpace(m[2])
		raw = strings.TrimSuffix(raw, ",")
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		pairs[key] = scavengedValue(raw)
	}
	if len(pairs) == 0 {
		return nil
	}
	return pairs
}

func scavengedValue(raw string) any {
	if len(raw) >= 2 {
		first, last := raw[0], raw[len(raw)-1]
		if (first == '"' && last == '"') || (first == '\'' && last == '\'') {
			return raw[1 : len(raw)-1]
		}
	}
	switch raw {
	case "true":
		return true
	case "false":
		return false
	case "null":
		return nil
	}
	if numberPattern.MatchString(raw) {
		return json.Number(raw)
	}
	return raw
}
