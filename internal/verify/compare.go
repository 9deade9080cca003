// Package verify decides whether the actions an insertion produced
// match what was expected of it, and gathers diagnostics when they
// do not.
package verify

import (
	"fmt"

	"github.com/zacharyburnett/crds/internal/refactor"
	"github.com/zacharyburnett/crds/internal/selector"
)

// Mode is the outcome class a reference is expected to have.
type Mode string

// Modes.
const (
	// ModeInsert expects the reference to be new to its mapping.
	ModeInsert Mode = "insert"

	// ModeReplace expects the reference to overwrite its own entries.
	ModeReplace Mode = "replace"
)

// ParseMode converts a mode name. The empty string is ModeInsert.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case "", ModeInsert:
		return ModeInsert, nil
	case ModeReplace:
		return ModeReplace, nil
	}
	return "", fmt.Errorf("invalid mode %q: must be 'insert' or 'replace'", s)
}

// Category classifies a discrepancy.
type Category string

// Discrepancy categories.
const (
	UnexpectedKind       Category = "unexpected_kind"
	UnanticipatedMatch   Category = "unanticipated_match"
	MissingExpectedMatch Category = "missing_expected_match"
	NoActions            Category = "no_actions"
)

// Unknown replaces an instrument or file kind that could not be
// resolved for a missing-match diagnostic.
const Unknown = "UNKNOWN"

// Discrepancy is one way the actions diverged from the expectation.
type Discrepancy struct {
	Category Category `json:"category"`

	// Match is the offending action's match, or the expected match
	// that no action produced.
	Match selector.Tuple `json:"match,omitempty"`

	// Kind is the offending action's kind, when an action is at fault.
	Kind refactor.ActionKind `json:"kind,omitempty"`

	// Instrument and Filekind identify the reference for
	// missing-match discrepancies.
	Instrument string `json:"instrument,omitempty"`
	Filekind   string `json:"filekind,omitempty"`

	Detail string `json:"detail"`
}

// Verdict is the result of Compare.
type Verdict struct {
	AsExpected    bool          `json:"as_expected"`
	Discrepancies []Discrepancy `json:"discrepancies"`

	// Expected holds the expectation when it was computed.
	Expected         selector.Set `json:"expected,omitempty"`
	ExpectedComputed bool         `json:"expected_computed"`
}

// ExpectedFunc produces the expected match tuples. Compare calls it
// at most once, and only when the mode requires it.
type ExpectedFunc func() (selector.Set, error)

// EquivalenceFunc decides whether two match tuples denote the same
// rule.
type EquivalenceFunc func(a, b selector.Tuple) bool

// IdentifyFunc resolves the (instrument, filekind) of the reference
// under test, for diagnostics only.
type IdentifyFunc func() (instrument, filekind string, err error)

// Compare checks actions against the expectation for mode. An error
// is returned only when the expectation itself cannot be computed.
//
// In replace mode every action must be a replace whose match is
// equivalent to some expected tuple, and every expected tuple must be
// matched by some action; the two directions are scanned
// independently. An action of the wrong kind is reported once, as
// UnexpectedKind, and not cross-checked against the expectation.
//
// In insert mode every action must be an insert, and an empty action
// list is always a failure.
func Compare(actions []refactor.Action, expected ExpectedFunc, mode Mode,
	equivalent EquivalenceFunc, identify IdentifyFunc) (Verdict, error) {
	if equivalent == nil {
		equivalent = selector.Equivalent
	}
	c := &comparison{
		actions:    actions,
		expectedFn: expected,
		equivalent: equivalent,
		identify:   identify,
	}
	var err error
	switch mode {
	case ModeReplace:
		err = c.replace()
	case ModeInsert:
		err = c.insert()
	default:
		return Verdict{}, fmt.Errorf("invalid mode %q", mode)
	}
	if err != nil {
		return Verdict{}, err
	}
	return Verdict{
		AsExpected:       len(c.discrepancies) == 0,
		Discrepancies:    c.discrepancies,
		Expected:         c.expected,
		ExpectedComputed: c.computed,
	}, nil
}

type comparison struct {
	actions    []refactor.Action
	expectedFn ExpectedFunc
	equivalent EquivalenceFunc
	identify   IdentifyFunc

	expected selector.Set
	computed bool

	identified           bool
	instrument, filekind string

	discrepancies []Discrepancy
}

func (c *comparison) replace() error {
	expected, err := c.expectation()
	if err != nil {
		return err
	}

	for _, a := range c.actions {
		if a.Kind != refactor.Replace {
			c.record(Discrepancy{
				Category: UnexpectedKind,
				Match:    a.Match,
				Kind:     a.Kind,
				Detail:   fmt.Sprintf("unexpected action %s", a.Kind),
			})
			continue
		}
		if !c.anyExpected(expected, a.Match) {
			c.record(Discrepancy{
				Category: UnanticipatedMatch,
				Match:    a.Match,
				Kind:     a.Kind,
				Detail:   fmt.Sprintf("new match at %s", a.Match),
			})
		}
	}

	for _, e := range expected {
		if c.anyAction(e) {
			continue
		}
		instrument, filekind := c.identity()
		c.record(Discrepancy{
			Category:   MissingExpectedMatch,
			Match:      e,
			Instrument: instrument,
			Filekind:   filekind,
			Detail: fmt.Sprintf("missing expected match for ('%s', '%s') at %s",
				instrument, filekind, e),
		})
	}
	return nil
}

func (c *comparison) insert() error {
	for _, a := range c.actions {
		if a.Kind != refactor.Insert {
			c.record(Discrepancy{
				Category: UnexpectedKind,
				Match:    a.Match,
				Kind:     a.Kind,
				Detail:   fmt.Sprintf("unexpected action %s", a),
			})
		}
	}
	if len(c.actions) > 0 {
		return nil
	}
	expected, err := c.expectation()
	if err != nil {
		return err
	}
	c.record(Discrepancy{
		Category: NoActions,
		Detail:   fmt.Sprintf("no actions produced; expected matches are %s", expected),
	})
	return nil
}

func (c *comparison) record(d Discrepancy) {
	c.discrepancies = append(c.discrepancies, d)
}

// expectation calls expectedFn on first use only.
func (c *comparison) expectation() (selector.Set, error) {
	if c.computed {
		return c.expected, nil
	}
	if c.expectedFn == nil {
		return nil, fmt.Errorf("no expectation source")
	}
	expected, err := c.expectedFn()
	if err != nil {
		return nil, fmt.Errorf("computing expected matches: %w", err)
	}
	c.expected, c.computed = expected, true
	return expected, nil
}

// identity resolves the reference identity once; any failure becomes
// the Unknown sentinel.
func (c *comparison) identity() (string, string) {
	if !c.identified {
		c.identified = true
		c.instrument, c.filekind = Unknown, Unknown
		if c.identify != nil {
			if inst, kind, err := c.identify(); err == nil {
				c.instrument, c.filekind = inst, kind
			}
		}
	}
	return c.instrument, c.filekind
}

func (c *comparison) anyExpected(expected selector.Set, match selector.Tuple) bool {
	for _, e := range expected {
		if c.equivalent(match, e) {
			return true
		}
	}
	return false
}

func (c *comparison) anyAction(e selector.Tuple) bool {
	for _, a := range c.actions {
		if c.equivalent(a.Match, e) {
			return true
		}
	}
	return false
}
