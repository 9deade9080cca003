// Package matches answers which match tuples a reference file is
// selected by in a context, independently of how an insertion would
// classify that file.
package matches

import (
	"fmt"
	"path/filepath"

	"github.com/zacharyburnett/crds/internal/rmap"
	"github.com/zacharyburnett/crds/internal/selector"
)

// Oracle looks up expected match tuples in a loaded context.
type Oracle struct {
	Hierarchy *rmap.Hierarchy
}

// FindMatchTuples returns every match tuple in the context that
// selects the reference named basename. The context argument must
// name the oracle's loaded context. A reference the context does not
// mention yields an empty set.
func (o Oracle) FindMatchTuples(context, basename string) (selector.Set, error) {
	if o.Hierarchy == nil {
		return nil, fmt.Errorf("no context loaded")
	}
	if filepath.Base(context) != o.Hierarchy.Name() {
		return nil, fmt.Errorf("context %q is not the loaded context %q",
			context, o.Hierarchy.Name())
	}
	basename = filepath.Base(basename)

	var found selector.Set
	for _, path := range o.Hierarchy.ReferenceMappingPaths() {
		m, err := rmap.LoadReference(path)
		if err != nil {
			return nil, fmt.Errorf("finding matches for %q: %w", basename, err)
		}
		for i, sel := range m.Selector {
			if sel.Reference == basename {
				found = found.Add(m.Tuple(i))
			}
		}
	}
	return found, nil
}
