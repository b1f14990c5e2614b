package review

import (
	"regexp"
	"strings"
)

// cleanRule is one entry in the ordered normalization table. Keeping the
// rules in an explicit table keeps the pipeline auditable and testable
// apart from any presentation code.
type cleanRule struct {
	pattern *regexp.Regexp
	replace string
	note    string
}

// prefixRules strip synthetic authoring-tool prefixes from the start of
// a value. They are applied repeatedly until a fixpoint so stacked
// prefixes ("q3: blank-7: D") clean in a single pass, which is what
// makes Clean idempotent.
var prefixRules = []cleanRule{
	{regexp.MustCompile(`^\s*blank-[A-Za-z0-9_-]+:\s*`), "", "gap-fill authoring id"},
	{regexp.MustCompile(`^\s*label-\d+:\s*`), "", "diagram label authoring id"},
	{regexp.MustCompile(`^\s*feature-q\d+:\s*`), "", "feature-matching authoring id"},
	{regexp.MustCompile(`^\s*q\d+:\s*`), "", "question-number authoring id"},
	{regexp.MustCompile(`^\s*[A-Za-z][A-Za-z0-9_-]{0,31}:\s+`), "", "generic <word>: authoring prefix"},
}

var (
	escapedNewline = regexp.MustCompile(`\\r?\\n`)
	horizontalRuns = regexp.MustCompile(`[ \t]+`)
	blankLineRuns  = regexp.MustCompile(`\n{3,}`)
)

// Clean normalizes prompts and free-text answers for display: escaped
// newline sequences become real newlines, synthetic authoring prefixes
// are stripped, duplicated "X / X" alternates collapse to "X", and
// repeated whitespace collapses. Clean is idempotent:
// Clean(Clean(x)) == Clean(x) for all x.
func Clean(s string) string {
	if s == "" {
		return ""
	}

	s = escapedNewline.ReplaceAllString(s, "\n")
	s = stripPrefixes(s)
	s = collapseDuplicate(s)
	s = collapseWhitespace(s)
	return s
}

// stripPrefixes applies the prefix table until no rule matches.
func stripPrefixes(s string) string {
	for i := 0; i < 16; i++ {
		before := s
		for _, r := range prefixRules {
			s = r.pattern.ReplaceAllString(s, r.replace)
		}
		if s == before {
			return s
		}
	}
	return s
}

// collapseDuplicate reduces "X / X" and "X/X" (an authoring artifact
// duplicating one answer across alternate forms) to a single "X".
// Go's regexp has no backreferences, so equality is checked directly.
func collapseDuplicate(s string) string {
	parts := strings.Split(s, "/")
	if len(parts) < 2 {
		return s
	}
	first := strings.TrimSpace(parts[0])
	if first == "" {
		return s
	}
	for _, p := range parts[1:] {
		if strings.TrimSpace(p) != first {
			return s
		}
	}
	return first
}

// collapseWhitespace squeezes horizontal runs, trims line edges, and
// caps blank-line runs, preserving intentional newlines.
func collapseWhitespace(s string) string {
	s = horizontalRuns.ReplaceAllString(s, " ")
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimSpace(line)
	}
	s = strings.Join(lines, "\n")
	s = blankLineRuns.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
