// Package matcher matches registry keys against glob and regular-expression
// patterns so a city filter can name a group of sources ("san_*",
// "re:^(seattle|tacoma)$").
package matcher

import (
	"path"
	"regexp"
	"strings"

	"github.com/agentstation/permitmap/pkg/errors"
)

// PatternType represents the type of pattern matching to use.
type PatternType int

const (
	// Glob uses shell-style glob patterns (*, ?, []).
	Glob PatternType = iota
	// Regex uses regular expressions.
	Regex
	// Auto treats a "re:" prefix as Regex and anything else as Glob.
	Auto
)

// RegexPrefix marks a regular expression in Auto mode.
const RegexPrefix = "re:"

// String returns the pattern type name.
func (pt PatternType) String() string {
	switch pt {
	case Glob:
		return "glob"
	case Regex:
		return "regex"
	case Auto:
		return "auto"
	default:
		return "unknown"
	}
}

// Matcher matches strings against one compiled pattern. It is immutable
// and safe for concurrent use.
type Matcher struct {
	pattern     string
	patternType PatternType
	re          *regexp.Regexp
}

// New compiles pattern. Auto resolves to Glob or Regex by prefix.
func New(patternType PatternType, pattern string) (*Matcher, error) {
	if patternType == Auto {
		patternType = Glob
		if rest, ok := strings.CutPrefix(pattern, RegexPrefix); ok {
			patternType = Regex
			pattern = rest
		}
	}

	m := &Matcher{pattern: pattern, patternType: patternType}
	switch patternType {
	case Glob:
		if _, err := path.Match(pattern, ""); err != nil {
			return nil, errors.NewValidationError("pattern", pattern, "invalid glob: "+err.Error())
		}
	case Regex:
		re, err := regexp.Compile(pattern)
		if err != nil {
			return nil, errors.NewValidationError("pattern", pattern, "invalid regex: "+err.Error())
		}
		m.re = re
	default:
		return nil, errors.NewValidationError("pattern_type", patternType.String(), "unsupported")
	}
	return m, nil
}

// Match reports whether input matches the pattern.
func (m *Matcher) Match(input string) bool {
	if m.re != nil {
		return m.re.MatchString(input)
	}
	ok, _ := path.Match(m.pattern, input)
	return ok
}

// MatchAll returns the inputs that match, in input order.
func (m *Matcher) MatchAll(inputs ...string) []string {
	var out []string
	for _, in := range inputs {
		if m.Match(in) {
			out = append(out, in)
		}
	}
	return out
}

// Pattern returns the pattern without any "re:" prefix.
func (m *Matcher) Pattern() string { return m.pattern }

// Type returns the resolved pattern type.
func (m *Matcher) Type() PatternType { return m.patternType }

// IsPattern reports whether s should be treated as a pattern rather than a
// literal key.
func IsPattern(s string) bool {
	return strings.HasPrefix(s, RegexPrefix) || strings.ContainsAny(s, "*?[")
}
