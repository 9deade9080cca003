// Package refactor inserts new reference files into a reference
// mapping, producing the list of edit actions the insertion implies
// and a rewritten copy of the mapping.
package refactor

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/zacharyburnett/crds/internal/locate"
	"github.com/zacharyburnett/crds/internal/rmap"
	"github.com/zacharyburnett/crds/internal/selector"
)

// ActionKind is the kind of edit an insertion performs.
type ActionKind string

// Action kinds.
const (
	Insert  ActionKind = "insert"
	Replace ActionKind = "replace"
)

// NotApplicable is the pattern used for parkeys a header omits.
const NotApplicable = "N/A"

// Action is one edit to a reference mapping.
type Action struct {
	Kind         ActionKind     `json:"kind"`
	Match        selector.Tuple `json:"match"`
	OldReference string         `json:"old_reference,omitempty"`
	NewReference string         `json:"new_reference"`
	Description  string         `json:"description"`
}

func (a Action) String() string {
	return fmt.Sprintf("%s %s: %s", strings.ToUpper(string(a.Kind)), a.Match, a.Description)
}

// Refactorer computes insertion actions.
type Refactorer struct {
	// Equivalent decides whether a new match replaces an existing one.
	Equivalent func(a, b selector.Tuple) bool

	// ReadHeader loads the header of a reference file.
	ReadHeader func(path string) (locate.Header, error)
}

// New returns a Refactorer using selector.Equivalent and
// locate.ReadHeader.
func New() *Refactorer {
	return &Refactorer{
		Equivalent: selector.Equivalent,
		ReadHeader: locate.ReadHeader,
	}
}

// InsertReferences inserts refs into the reference mapping at
// oldRmap, writes the result to newRmap, and returns the actions in
// the order they were applied. oldRmap is never modified. Identical
// inputs always produce identical actions and identical output bytes.
func (r *Refactorer) InsertReferences(oldRmap, newRmap string, refs []string) ([]Action, error) {
	if filepath.Clean(oldRmap) == filepath.Clean(newRmap) {
		return nil, fmt.Errorf("refusing to overwrite source mapping %q", oldRmap)
	}
	original, err := rmap.LoadReference(oldRmap)
	if err != nil {
		return nil, err
	}
	mapping := original.Clone()

	var actions []Action
	for _, ref := range refs {
		match, err := r.matchFor(mapping, ref)
		if err != nil {
			return nil, err
		}
		actions = append(actions, r.insert(mapping, match, filepath.Base(ref))...)
	}

	if err := mapping.Write(newRmap); err != nil {
		return nil, err
	}
	return actions, nil
}

// insert applies one reference to mapping: every selection with an
// equivalent match is repointed, and when there is none a new
// selection is appended.
func (r *Refactorer) insert(mapping *rmap.ReferenceMapping, match selector.Tuple, base string) []Action {
	var actions []Action
	for i := range mapping.Selector {
		existing := mapping.Tuple(i)
		if !r.Equivalent(existing, match) {
			continue
		}
		old := mapping.Selector[i].Reference
		mapping.Selector[i].Reference = base
		actions = append(actions, Action{
			Kind:         Replace,
			Match:        existing,
			OldReference: old,
			NewReference: base,
			Description:  fmt.Sprintf("replaced %s with %s", old, base),
		})
	}
	if len(actions) > 0 {
		return actions
	}

	mapping.Selector = append(mapping.Selector, rmap.Selection{
		Match:     match.Patterns(),
		Reference: base,
	})
	return []Action{{
		Kind:         Insert,
		Match:        match,
		NewReference: base,
		Description:  fmt.Sprintf("added %s", base),
	}}
}

// matchFor builds the match tuple for ref over mapping's parkeys
// from the reference's header.
func (r *Refactorer) matchFor(mapping *rmap.ReferenceMapping, ref string) (selector.Tuple, error) {
	h, err := r.ReadHeader(ref)
	if err != nil {
		return nil, fmt.Errorf("inserting %q: %w", filepath.Base(ref), err)
	}
	patterns := make([]string, len(mapping.Header.Parkey))
	for i, key := range mapping.Header.Parkey {
		v, ok := h.Get(key)
		if !ok || strings.TrimSpace(v) == "" {
			v = NotApplicable
		}
		patterns[i] = strings.ToUpper(strings.TrimSpace(v))
	}
	return selector.NewTuple(mapping.Header.Parkey, patterns)
}
