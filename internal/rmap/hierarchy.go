package rmap

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// Hierarchy is a loaded context: the pipeline mapping plus every
// instrument mapping it names. Reference mappings are loaded on
// demand because they are the files under test.
type Hierarchy struct {
	Pipeline    *PipelineMapping
	Instruments map[string]*InstrumentMapping

	// Dir is the directory mapping names are resolved against.
	Dir string
}

// Load reads the context at contextPath. Mapping file names inside
// the hierarchy resolve against mappingDir, or the context's own
// directory when mappingDir is empty.
func Load(contextPath, mappingDir string) (*Hierarchy, error) {
	if !IsPipeline(contextPath) {
		return nil, fmt.Errorf("context %q is not a .pmap", contextPath)
	}
	if mappingDir == "" {
		mappingDir = filepath.Dir(contextPath)
	}
	pmap, err := LoadPipeline(contextPath)
	if err != nil {
		return nil, err
	}
	h := &Hierarchy{
		Pipeline:    pmap,
		Instruments: make(map[string]*InstrumentMapping, len(pmap.Selector)),
		Dir:         mappingDir,
	}
	for instrument, name := range pmap.Selector {
		imap, err := LoadInstrument(h.resolve(name))
		if err != nil {
			return nil, fmt.Errorf("context %q instrument %q: %w", contextPath, instrument, err)
		}
		h.Instruments[strings.ToLower(instrument)] = imap
	}
	return h, nil
}

// Observatory returns the observatory named by the pipeline header.
func (h *Hierarchy) Observatory() string {
	return h.Pipeline.Header.Observatory
}

// Name returns the context's base file name.
func (h *Hierarchy) Name() string {
	return filepath.Base(h.Pipeline.Path)
}

// Corresponding returns the path of the reference mapping that
// governs (instrument, filekind) in this context.
func (h *Hierarchy) Corresponding(instrument, filekind string) (string, error) {
	imap, ok := h.Instruments[strings.ToLower(instrument)]
	if !ok {
		return "", fmt.Errorf("instrument %q in %s: %w", instrument, h.Name(), ErrNotFound)
	}
	for kind, name := range imap.Selector {
		if strings.EqualFold(kind, filekind) {
			return h.resolve(name), nil
		}
	}
	return "", fmt.Errorf("filekind %q for instrument %q in %s: %w",
		filekind, instrument, h.Name(), ErrNotFound)
}

// ReferenceMappingPaths returns every .rmap path in the context,
// sorted for stable iteration.
func (h *Hierarchy) ReferenceMappingPaths() []string {
	var paths []string
	for _, imap := range h.Instruments {
		for _, name := range imap.Selector {
			paths = append(paths, h.resolve(name))
		}
	}
	sort.Strings(paths)
	return paths
}

func (h *Hierarchy) resolve(name string) string {
	if filepath.IsAbs(name) {
		return name
	}
	return filepath.Join(h.Dir, name)
}
