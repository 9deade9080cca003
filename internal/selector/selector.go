// Package selector defines match tuples, the ordered parameter/pattern
// pairs that select a reference file inside a reference mapping, and
// the equivalence relation used to compare them.
package selector

import (
	"fmt"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// DontCare is the normalized form of the "not applicable" pattern.
// Both "*" and "N/A" normalize to it.
const DontCare = "*"

// Pair is one (parameter-name, pattern) element of a match tuple.
type Pair struct {
	Name    string `json:"name"`
	Pattern string `json:"pattern"`
}

// Tuple is an ordered sequence of pairs. Parameter order is
// significant and follows the declared parkey order of the mapping.
// Tuples are never mutated after construction.
type Tuple []Pair

// NewTuple zips parameter names with patterns.
func NewTuple(names, patterns []string) (Tuple, error) {
	if len(names) != len(patterns) {
		return nil, fmt.Errorf("tuple has %d names but %d patterns",
			len(names), len(patterns))
	}
	t := make(Tuple, len(names))
	for i := range names {
		t[i] = Pair{Name: names[i], Pattern: patterns[i]}
	}
	return t, nil
}

// ParseTuple parses "NAME=PATTERN,NAME=PATTERN" text. Patterns may
// contain '|' alternatives but not commas.
func ParseTuple(s string) (Tuple, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Tuple{}, nil
	}
	var t Tuple
	for _, field := range strings.Split(s, ",") {
		name, pattern, ok := strings.Cut(field, "=")
		if !ok {
			return nil, fmt.Errorf("invalid match pair %q: want NAME=PATTERN", field)
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return nil, fmt.Errorf("invalid match pair %q: empty name", field)
		}
		t = append(t, Pair{Name: name, Pattern: strings.TrimSpace(pattern)})
	}
	return t, nil
}

// MustParseTuple is ParseTuple that panics on error. For tests and
// literals only.
func MustParseTuple(s string) Tuple {
	t, err := ParseTuple(s)
	if err != nil {
		panic(err)
	}
	return t
}

// Names returns the parameter names in order.
func (t Tuple) Names() []string {
	names := make([]string, len(t))
	for i, p := range t {
		names[i] = p.Name
	}
	return names
}

// Patterns returns the patterns in order.
func (t Tuple) Patterns() []string {
	patterns := make([]string, len(t))
	for i, p := range t {
		patterns[i] = p.Pattern
	}
	return patterns
}

// String renders the tuple as (NAME='PATTERN', ...).
func (t Tuple) String() string {
	parts := make([]string, len(t))
	for i, p := range t {
		parts[i] = fmt.Sprintf("%s='%s'", p.Name, p.Pattern)
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// Equivalent reports whether a and b denote the same selection rule.
// Names must agree position by position (case-insensitive); patterns
// are compared with PatternEquivalent.
func Equivalent(a, b Tuple) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if normalizeName(a[i].Name) != normalizeName(b[i].Name) {
			return false
		}
		if !PatternEquivalent(a[i].Pattern, b[i].Pattern) {
			return false
		}
	}
	return true
}

// Same reports whether a and b are the same tuple up to name case
// and the order, spacing, and case of pattern alternatives. Unlike
// Equivalent it never lets a glob stand in for a literal, so it is an
// equivalence relation.
func Same(a, b Tuple) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if normalizeName(a[i].Name) != normalizeName(b[i].Name) {
			return false
		}
		if !sameStrings(Alternatives(a[i].Pattern), Alternatives(b[i].Pattern)) {
			return false
		}
	}
	return true
}

// PatternEquivalent compares two patterns after normalization. Two
// patterns are equivalent when their alternative sets are equal, or
// when one is a glob whose alternatives subsume every alternative of
// the other.
func PatternEquivalent(a, b string) bool {
	na, nb := Alternatives(a), Alternatives(b)
	if sameStrings(na, nb) {
		return true
	}
	switch {
	case isGlob(na) && !isGlob(nb):
		return subsumes(na, nb)
	case isGlob(nb) && !isGlob(na):
		return subsumes(nb, na)
	}
	return false
}

// Alternatives splits pattern on '|', trims and upper-cases each
// alternative, maps N/A to DontCare, and returns the sorted,
// de-duplicated result.
func Alternatives(pattern string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, alt := range strings.Split(pattern, "|") {
		alt = strings.ToUpper(strings.Join(strings.Fields(alt), " "))
		if alt == "N/A" {
			alt = DontCare
		}
		if seen[alt] {
			continue
		}
		seen[alt] = true
		out = append(out, alt)
	}
	sort.Strings(out)
	return out
}

func normalizeName(name string) string {
	return strings.ToUpper(strings.TrimSpace(name))
}

func isGlob(alts []string) bool {
	for _, a := range alts {
		if strings.ContainsAny(a, "*?[") {
			return true
		}
	}
	return false
}

// subsumes reports whether every value matches at least one glob.
func subsumes(globs, values []string) bool {
	for _, v := range values {
		matched := false
		for _, g := range globs {
			if ok, err := doublestar.Match(g, v); err == nil && ok {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

func sameStrings(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
