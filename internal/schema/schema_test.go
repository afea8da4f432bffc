package schema

import (
	"encoding/json"
	"reflect"
	"testing"
)

func testRules() []PrefixRule {
	return []PrefixRule{
		{Prefix: "DFFlag", Kind: KindBool},
		{Prefix: "FFlag", Kind: KindBool},
		{Prefix: "DFInt", Kind: KindInt},
		{Prefix: "FInt", Kind: KindInt},
		{Prefix: "DFString", Kind: KindString},
		{Prefix: "FString", Kind: KindString},
		{Prefix: "DFLog", Kind: KindInt},
		{Prefix: "FLog", Kind: KindInt},
		{Prefix: "DFBool", Kind: KindBool},
		{Prefix: "FBool", Kind: KindBool},
	}
}

func newTestSchema(t *testing.T) *Schema {
	t.Helper()
	s, err := New(testRules())
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}
	return s
}

func TestCoerce(t *testing.T) {
	tests := []struct {
		name       string
		kind       Kind
		value      any
		want       any
		wantNote   Note
		wantReason Reason
	}{
		{name: "bool native", kind: KindBool, value: true, want: true},
		{name: "bool from string", kind: KindBool, value: "true", want: true, wantNote: NoteStringBoolFixed},
		{name: "bool from uppercase string", kind: KindBool, value: "TRUE", want: true, wantNote: NoteStringBoolFixed},
		{name: "bool from padded string", kind: KindBool, value: " False ", want: false, wantNote: NoteStringBoolFixed},
		{name: "bool from other string", kind: KindBool, value: "yes", wantReason: ReasonBadBool},
		{name: "bool from number", kind: KindBool, value: json.Number("1"), wantReason: ReasonBadBool},
		{name: "bool from null", kind: KindBool, value: nil, wantReason: ReasonBadBool},

		{name: "int native", kind: KindInt, value: json.Number("240"), want: int64(240)},
		{name: "int negative bound", kind: KindInt, value: json.Number("-2147483648"), want: int64(-2147483648)},
		{name: "int positive bound", kind: KindInt, value: json.Number("2147483647"), want: int64(2147483647)},
		{name: "int above range", kind: KindInt, value: json.Number("2147483648"), wantReason: ReasonIntOutOfRange},
		{name: "int below range", kind: KindInt, value: json.Number("-2147483649"), wantReason: ReasonIntOutOfRange},
		{name: "int beyond int64", kind: KindInt, value: json.Number("9999999999999999999999"), wantReason: ReasonIntOutOfRange},
		{name: "int from string", kind: KindInt, value: "42", want: int64(42), wantNote: NoteStringIntFixed},
		{name: "int from padded string", kind: KindInt, value: " -7 ", want: int64(-7), wantNote: NoteStringIntFixed},
		{name: "int from out of range string", kind: KindInt, value: "9999999999", wantReason: ReasonIntOutOfRange},
		{name: "int from word", kind: KindInt, value: "fast", wantReason: ReasonBadInt},
		{name: "int from float", kind: KindInt, value: json.Number("2.5"), wantReason: ReasonBadInt},
		{name: "int from exponent", kind: KindInt, value: json.Number("1e3"), wantReason: ReasonBadInt},
		{name: "int from bool", kind: KindInt, value: true, wantReason: ReasonBadInt},
		{name: "int from null", kind: KindInt, value: nil, wantReason: ReasonBadInt},

		{name: "string native", kind: KindString, value: "hello", want: "hello"},
		{name: "string from bool", kind: KindString, value: true, want: "true", wantNote: NotePrimitiveToString},
		{name: "string from int", kind: KindString, value: json.Number("7"), want: "7", wantNote: NotePrimitiveToString},
		{name: "string from float", kind: KindString, value: json.Number("2.5"), want: "2.5", wantNote: NotePrimitiveToString},
		{name: "string from null", kind: KindString, value: nil, wantReason: ReasonBadString},
		{name: "string from array", kind: KindString, value: []any{"a"}, wantReason: ReasonBadString},
		{name: "string from object", kind: KindString, value: map[string]any{"a": true}, wantReason: ReasonBadString},

		{name: "unknown kind", kind: Kind("float"), value: "1", wantReason: ReasonUnknownType},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, note, reason := Coerce(tt.kind, tt.value)
			if reason != tt.wantReason {
				t.Fatalf("reason = %q, want %q", reason, tt.wantReason)
			}
			if tt.wantReason != "" {
				if got != nil {
					t.Errorf("value = %v, want nil on rejection", got)
				}
				return
			}
			if got != tt.want {
				t.Errorf("value = %v (%T), want %v (%T)", got, got, tt.want, tt.want)
			}
			if note != tt.wantNote {
				t.Errorf("note = %q, want %q", note, tt.wantNote)
			}
		})
	}
}

func TestValidName(t *testing.T) {
	s := newTestSchema(t)

	tests := []struct {
		key  string
		want bool
	}{
		{"FFlagCloudRendering", true},
		{"DFIntTaskSchedulerTargetFps", true},
		{"FBool", true},
		{"FFlag_With_Underscores_9", true},
		{"XFlagNotAPrefix", false},
		{"fflagLowercasePrefix", false},
		{"FFlag With Space", false},
		{"FFlag-Dash", false},
		{"", false},
	}

	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			if got := s.ValidName(tt.key); got != tt.want {
				t.Errorf("ValidName(%q) = %v, want %v", tt.key, got, tt.want)
			}
		})
	}
}

func TestKindForLongestPrefixWins(t *testing.T) {
	s, err := New([]PrefixRule{
		{Prefix: "DFInt", Kind: KindInt},
		{Prefix: "DFIntLabel", Kind: KindString},
	})
	if err != nil {
		t.Fatalf("New returned error: %v", err)
	}

	if kind, _ := s.KindFor("DFIntLabelText"); kind != KindString {
		t.Errorf("KindFor(DFIntLabelText) = %q, want %q", kind, KindString)
	}
	if kind, _ := s.KindFor("DFIntTargetFps"); kind != KindInt {
		t.Errorf("KindFor(DFIntTargetFps) = %q, want %q", kind, KindInt)
	}
	if _, ok := s.KindFor("Unrelated"); ok {
		t.Error("KindFor(Unrelated) matched, want no match")
	}
}

func TestApply(t *testing.T) {
	s := newTestSchema(t)

	pairs := map[string]any{
		"DFIntTaskSchedulerTargetFps": json.Number("240"),
		"FFlagDebugDisplay":           "true",
		"FStringLocale":               json.Number("7"),
		"FIntTooBig":                  json.Number("9999999999"),
		"FFlagBadValue":               json.Number("1"),
		"NotAFlag":                    true,
		"FFlag Spaced":                true,
	}

	kept, dropped, notes := s.Apply(pairs)

	wantKept := map[string]any{
		"DFIntTaskSchedulerTargetFps": int64(240),
		"FFlagDebugDisplay":           true,
		"FStringLocale":               "7",
	}
	if !reflect.DeepEqual(kept, wantKept) {
		t.Errorf("kept = %#v, want %#v", kept, wantKept)
	}

	wantDropped := []Rejection{
		{Key: "FFlag Spaced", Reason: ReasonUnknownType},
		{Key: "FFlagBadValue", Reason: ReasonBadBool},
		{Key: "FIntTooBig", Reason: ReasonIntOutOfRange},
		{Key: "NotAFlag", Reason: ReasonUnknownType},
	}
	if !reflect.DeepEqual(dropped, wantDropped) {
		t.Errorf("dropped = %#v, want %#v", dropped, wantDropped)
	}

	wantNotes := []Coercion{
		{Key: "FFlagDebugDisplay", Note: NoteStringBoolFixed},
		{Key: "FStringLocale", Note: NotePrimitiveToString},
	}
	if !reflect.DeepEqual(notes, wantNotes) {
		t.Errorf("notes = %#v, want %#v", notes, wantNotes)
	}
}

func TestNewRejectsBadRules(t *testing.T) {
	tests := []struct {
		name  string
		rules []PrefixRule
	}{
		{"no rules", nil},
		{"empty prefix", []PrefixRule{{Prefix: "", Kind: KindBool}}},
		{"unknown kind", []PrefixRule{{Prefix: "FFlag", Kind: Kind("float")}}},
		{"duplicate prefix", []PrefixRule{
			{Prefix: "FFlag", Kind: KindBool},
			{Prefix: "FFlag", Kind: KindString},
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := New(tt.rules); err == nil {
				t.Fatal("New accepted invalid rules")
			}
		})
	}
}
