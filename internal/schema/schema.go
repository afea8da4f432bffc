// Package schema classifies flag names by prefix and coerces their values
// to the declared kind. Every flag name carries its type in the prefix
// (FFlag is a bool, DFInt an int, FString a string); values that arrive as
// the wrong primitive are fixed when the fix is mechanical and dropped with
// a reason when it is not.
package schema

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Kind is the value type a prefix declares.
type Kind string

const (
	KindBool   Kind = "bool"
	KindInt    Kind = "int"
	KindString Kind = "string"
)

// Valid reports whether k is a recognized kind.
func (k Kind) Valid() bool {
	switch k {
	case KindBool, KindInt, KindString:
		return true
	}
	return false
}

// Int values must fit a signed 32-bit engine slot.
const (
	IntMin = math.MinInt32
	IntMax = math.MaxInt32
)

// Note tags a value that was accepted after coercion.
type Note string

const (
	NoteStringBoolFixed   Note = "string_bool_fixed"
	NoteStringIntFixed    Note = "string_int_fixed"
	NotePrimitiveToString Note = "primitive_to_string"
)

// Reason explains why a pair was dropped.
type Reason string

const (
	ReasonBadBool       Reason = "bad_type_bool"
	ReasonBadInt        Reason = "bad_type_int"
	ReasonIntOutOfRange Reason = "int_out_of_range"
	ReasonBadString     Reason = "bad_type_str"
	ReasonUnknownType   Reason = "unknown_type"
)

// PrefixRule binds a flag name prefix to the kind its values must have.
type PrefixRule struct {
	Prefix string `json:"prefix" yaml:"prefix"`
	Kind   Kind   `json:"kind" yaml:"kind"`
}

// Rejection is a dropped pair with the reason it was dropped.
type Rejection struct {
	Key    string `json:"key"`
	Reason Reason `json:"reason"`
}

// Coercion is an accepted pair that needed fixing on the way in.
type Coercion struct {
	Key  string `json:"key"`
	Note Note   `json:"note"`
}

func (c Coercion) String() string { return c.Key + ": " + string(c.Note) }

// Schema is an immutable prefix rule table. Safe for concurrent use.
//
// Rules are consulted longest prefix first so a specific rule such as
// DFIntNoClamp can override the general DFInt entry.
type Schema struct {
	rules []PrefixRule
	valid *regexp.Regexp
}

// New builds a Schema from prefix rules. Prefixes must be non-empty and
// unique, kinds must be recognized.
func New(rules []PrefixRule) (*Schema, error) {
	if len(rules) == 0 {
		return nil, errors.New("schema needs at least one prefix rule")
	}

	ordered := make([]PrefixRule, len(rules))
	copy(ordered, rules)
	seen := make(map[string]struct{}, len(ordered))
	for _, r := range ordered {
		if r.Prefix == "" {
			return nil, errors.New("schema prefix must not be empty")
		}
		if !r.Kind.Valid() {
			return nil, fmt.Errorf("schema prefix %q has unknown kind %q", r.Prefix, r.Kind)
		}
		if _, dup := seen[r.Prefix]; dup {
			return nil, fmt.Errorf("schema prefix %q declared twice", r.Prefix)
		}
		seen[r.Prefix] = struct{}{}
	}
	sort.Slice(ordered, func(i, j int) bool {
		if len(ordered[i].Prefix) != len(ordered[j].Prefix) {
			return len(ordered[i].Prefix) > len(ordered[j].Prefix)
		}
		return ordered[i].Prefix < ordered[j].Prefix
	})

	alts := make([]string, len(ordered))
	for i, r := range ordered {
		alts[i] = regexp.QuoteMeta(r.Prefix)
	}
	valid, err := regexp.Compile(`^(?:` + strings.Join(alts, "|") + `)[A-Za-z0-9_]*$`)
	if err != nil {
		return nil, fmt.Errorf("compile name pattern: %w", err)
	}

	return &Schema{rules: ordered, valid: valid}, nil
}

// ValidName reports whether key starts with a known prefix and continues
// with word characters only.
func (s *Schema) ValidName(key string) bool {
	return s.valid.MatchString(key)
}

// KindFor resolves the kind declared by key's longest matching prefix.
func (s *Schema) KindFor(key string) (Kind, bool) {
	for _, r := range s.rules {
		if strings.HasPrefix(key, r.Prefix) {
			return r.Kind, true
		}
	}
	return "", false
}

// Apply runs every pair through name validation and coercion. It returns
// the surviving pairs, the rejections, and the coercion notes, the latter
// two sorted by key. The input map is not modified.
func (s *Schema) Apply(pairs map[string]any) (map[string]any, []Rejection, []Coercion) {
	kept := make(map[string]any, len(pairs))
	var dropped []Rejection
	var notes []Coercion

	for key, value := range pairs {
		if !s.ValidName(key) {
			dropped = append(dropped, Rejection{Key: key, Reason: ReasonUnknownType})
			continue
		}
		kind, ok := s.KindFor(key)
		if !ok {
			dropped = append(dropped, Rejection{Key: key, Reason: ReasonUnknownType})
			continue
		}
		coerced, note, reason := Coerce(kind, value)
		if reason != "" {
			dropped = append(dropped, Rejection{Key: key, Reason: reason})
			continue
		}
		kept[key] = coerced
		if note != "" {
			notes = append(notes, Coercion{Key: key, Note: note})
		}
	}

	sort.Slice(dropped, func(i, j int) bool { return dropped[i].Key < dropped[j].Key })
	sort.Slice(notes, func(i, j int) bool { return notes[i].Key < notes[j].Key })
	return kept, dropped, notes
}

// Coerce checks v against kind and fixes simple mismatches. A non-empty
// Note marks an applied fix; a non-empty Reason marks an unfixable value,
// in which case the returned value is nil.
//
// Numbers are expected as json.Number, the form the parser emits.
func Coerce(kind Kind, v any) (any, Note, Reason) {
	switch kind {
	case KindBool:
		return coerceBool(v)
	case KindInt:
		return coerceInt(v)
	case KindString:
		return coerceString(v)
	}
	return nil, "", ReasonUnknownType
}

func coerceBool(v any) (any, Note, Reason) {
	switch val := v.(type) {
	case bool:
		return val, "", ""
	case string:
		switch strings.ToLower(strings.TrimSpace(val)) {
		case "true":
			return true, NoteStringBoolFixed, ""
		case "false":
			return false, NoteStringBoolFixed, ""
		}
	}
	return nil, "", ReasonBadBool
}

// intLiteral matches an optionally signed run of digits with nothing else.
var intLiteral = regexp.MustCompile(`^-?\d+$`)

func coerceInt(v any) (any, Note, Reason) {
	switch val := v.(type) {
	case json.Number:
		if !intLiteral.MatchString(val.String()) {
			return nil, "", ReasonBadInt
		}
		n, err := strconv.ParseInt(val.String(), 10, 64)
		if err != nil || n < IntMin || n > IntMax {
			return nil, "", ReasonIntOutOfRange
		}
		return n, "", ""
	case string:
		trimmed := strings.TrimSpace(val)
		if !intLiteral.MatchString(trimmed) {
			return nil, "", ReasonBadInt
		}
		n, err := strconv.ParseInt(trimmed, 10, 64)
		if err != nil || n < IntMin || n > IntMax {
			return nil, "", ReasonIntOutOfRange
		}
		return n, NoteStringIntFixed, ""
	}
	return nil, "", ReasonBadInt
}

func coerceString(v any) (any, Note, Reason) {
	switch val := v.(type) {
	case string:
		return val, "", ""
	case bool:
		return strconv.FormatBool(val), NotePrimitiveToString, ""
	case json.Number:
		return val.String(), NotePrimitiveToString, ""
	}
	return nil, "", ReasonBadString
}
