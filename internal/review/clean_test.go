package review

import "testing"

func TestClean(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"empty", "", ""},
		{"plain answer untouched", "D", "D"},
		{"gap-fill authoring prefix", "blank-3: D", "D"},
		{"diagram label prefix", "label-12: turbine hall", "turbine hall"},
		{"feature matching prefix", "feature-q7: B", "B"},
		{"question number prefix", "q3: harbour", "harbour"},
		{"stacked prefixes", "q3: blank-7: D", "D"},
		{"generic word prefix", "Note: the old harbour", "the old harbour"},
		{"duplicate alternates collapse", "D / D", "D"},
		{"duplicate alternates no space", "D/D", "D"},
		{"prefix then duplicate", "blank-3: D / D", "D"},
		{"distinct alternates kept", "colour / color", "colour / color"},
		{"escaped newlines decode", `line one\nline two`, "line one\nline two"},
		{"escaped crlf decodes", `line one\r\nline two`, "line one\nline two"},
		{"horizontal runs collapse", "the   old\tharbour", "the old harbour"},
		{"line edges trimmed", "  a  \n  b  ", "a\nb"},
		{"blank line runs capped", "a\n\n\n\n\nb", "a\n\nb"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := Clean(tc.in)
			if got != tc.want {
				t.Errorf("Clean(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestCleanIsIdempotent(t *testing.T) {
	inputs := []string{
		"",
		"D",
		"blank-3: D / D",
		"q3: blank-7: D",
		`intro\n\nbody   text`,
		"colour / color",
		"Note: the   old harbour",
	}

	for _, in := range inputs {
		once := Clean(in)
		twice := Clean(once)
		if once != twice {
			t.Errorf("Clean not idempotent for %q: first %q, second %q", in, once, twice)
		}
	}
}

func TestCollapseDuplicate(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"D / D", "D"},
		{"D/D", "D"},
		{"D / D / D", "D"},
		{"D / E", "D / E"},
		{" / ", " / "},
		{"no separator", "no separator"},
	}

	for _, tc := range tests {
		if got := collapseDuplicate(tc.in); got != tc.want {
			t.Errorf("collapseDuplicate(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
