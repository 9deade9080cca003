package selector

import "strings"

// Set is a duplicate-free collection of tuples. Membership is decided
// by Same, so a wildcard tuple never absorbs the literal tuples it
// would match; insertion order is kept only so output is stable.
type Set []Tuple

// SetOf builds a Set from tuples, dropping duplicates.
func SetOf(tuples ...Tuple) Set {
	var s Set
	for _, t := range tuples {
		s = s.Add(t)
	}
	return s
}

// Add returns s with t appended unless the same tuple is already
// present.
func (s Set) Add(t Tuple) Set {
	if s.Contains(t) {
		return s
	}
	return append(s, t)
}

// Contains reports whether some member is the same tuple as t.
func (s Set) Contains(t Tuple) bool {
	for _, m := range s {
		if Same(m, t) {
			return true
		}
	}
	return false
}

// String renders the set as a bracketed list of tuples.
func (s Set) String() string {
	parts := make([]string, len(s))
	for i, t := range s {
		parts[i] = t.String()
	}
	return "[" + strings.Join(parts, ", ") + "]"
}
