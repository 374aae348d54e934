package jsonutil

import (
	"math"
	"testing"
)

func TestExtractJSON(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{
			name: "plain object",
			raw:  `{"a": 1}`,
			want: `{"a": 1}`,
		},
		{
			name: "fenced with json tag",
			raw:  "```json\n{\"a\": 1}\n```",
			want: `{"a": 1}`,
		},
		{
			name: "fenced without json tag",
			raw:  "```\n{\"a\": 1}\n```",
			want: `{"a": 1}`,
		},
		{
			name: "prose wrapped around the object",
			raw:  "Sure, here's the result:\n{\"a\": 1}\nLet me know if you need anything else.",
			want: `{"a": 1}`,
		},
		{
			name: "trailing comma removed",
			raw:  `{"a": 1, "b": 2,}`,
			want: `{"a": 1, "b": 2}`,
		},
		{
			name: "no object present",
			raw:  "nothing here",
			want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractJSON(tt.raw); got != tt.want {
				t.Errorf("ExtractJSON(%q) = %q, want %q", tt.raw, got, tt.want)
			}
		})
	}
}

func TestStripLineCommentRespectsStrings(t *testing.T) {
	line := `{"url": "http://example.com"} // trailing note`
	got := stripLineComment(line)
	want := `{"url": "http://example.com"}`
	if got != want {
		t.Errorf("stripLineComment(%q) = %q, want %q", line, got, want)
	}
}

func TestCoerceBool(t *testing.T) {
	tests := []struct {
		in   any
		want bool
	}{
		{true, true},
		{false, false},
		{"true", true},
		{"Yes", true},
		{"no", false},
		{float64(1), true},
		{float64(0), false},
		{nil, false},
	}
	for _, tt := range tests {
		if got := CoerceBool(tt.in); got != tt.want {
			t.Errorf("CoerceBool(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCoerceInt(t *testing.T) {
	tests := []struct {
		in     any
		want   int
		wantOK bool
	}{
		{float64(42), 42, true},
		{"42", 42, true},
		{"  7  ", 7, true},
		{"", 0, false},
		{"not a number", 0, false},
		{nil, 0, false},
	}
	for _, tt := range tests {
		got, ok := CoerceInt(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("CoerceInt(%v) = (%v, %v), want (%v, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestCoerceFloat(t *testing.T) {
	if got := CoerceFloat(float64(1.5)); got != 1.5 {
		t.Errorf("CoerceFloat(1.5) = %v, want 1.5", got)
	}
	if got := CoerceFloat("2.5"); got != 2.5 {
		t.Errorf("CoerceFloat(\"2.5\") = %v, want 2.5", got)
	}
	if got := CoerceFloat("garbage"); !math.IsNaN(got) {
		t.Errorf("CoerceFloat(\"garbage\") = %v, want NaN", got)
	}
	if got := CoerceFloat(nil); !math.IsNaN(got) {
		t.Errorf("CoerceFloat(nil) = %v, want NaN", got)
	}
}

func TestCoerceStringSlice(t *testing.T) {
	in := []any{"go", "", float64(3), nil}
	got := CoerceStringSlice(in)
	want := []string{"go", "3"}
	if len(got) != len(want) {
		t.Fatalf("CoerceStringSlice(%v) = %v, want %v", in, got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("CoerceStringSlice(%v)[%d] = %q, want %q", in, i, got[i], want[i])
		}
	}
}
