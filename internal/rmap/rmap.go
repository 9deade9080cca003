// Package rmap loads and writes the three levels of a mapping
// hierarchy: the pipeline mapping (.pmap) that routes instruments to
// instrument mappings (.imap), which route file kinds to reference
// mappings (.rmap), which map parameter patterns to reference files.
//
// Mapping files are YAML documents with a header and a selector.
package rmap

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zacharyburnett/crds/internal/selector"
)

// ErrNotFound is returned when a mapping has no entry for a requested
// instrument or file kind.
var ErrNotFound = errors.New("mapping not found")

// Mapping kinds recorded in Header.Mapping.
const (
	KindPipeline   = "pipeline"
	KindInstrument = "instrument"
	KindReference  = "reference"
)

// Header is the common header of all mapping files.
type Header struct {
	Mapping     string   `yaml:"mapping"`
	Observatory string   `yaml:"observatory"`
	Name        string   `yaml:"name,omitempty"`
	Instrument  string   `yaml:"instrument,omitempty"`
	Filekind    string   `yaml:"filekind,omitempty"`
	Parkey      []string `yaml:"parkey,omitempty,flow"`
}

// PipelineMapping is a .pmap: instrument name to .imap file name.
type PipelineMapping struct {
	Header   Header            `yaml:"header"`
	Selector map[string]string `yaml:"selector"`

	// Path is the file the mapping was loaded from.
	Path string `yaml:"-"`
}

// InstrumentMapping is an .imap: file kind to .rmap file name.
type InstrumentMapping struct {
	Header   Header            `yaml:"header"`
	Selector map[string]string `yaml:"selector"`

	Path string `yaml:"-"`
}

// Selection is one rule of a reference mapping.
type Selection struct {
	Match     []string `yaml:"match,flow"`
	Reference string   `yaml:"reference"`
}

// ReferenceMapping is an .rmap: match patterns to reference file.
type ReferenceMapping struct {
	Header   Header      `yaml:"header"`
	Selector []Selection `yaml:"selector"`

	Path string `yaml:"-"`
}

// IsMapping reports whether name has a mapping file extension.
func IsMapping(name string) bool {
	switch filepath.Ext(name) {
	case ".pmap", ".imap", ".rmap":
		return true
	}
	return false
}

// IsPipeline reports whether name looks like a top-level context.
func IsPipeline(name string) bool {
	return filepath.Ext(name) == ".pmap"
}

// LoadPipeline reads a .pmap file.
func LoadPipeline(path string) (*PipelineMapping, error) {
	var m PipelineMapping
	if err := load(path, &m); err != nil {
		return nil, err
	}
	if err := checkKind(path, m.Header, KindPipeline); err != nil {
		return nil, err
	}
	m.Path = path
	return &m, nil
}

// LoadInstrument reads an .imap file.
func LoadInstrument(path string) (*InstrumentMapping, error) {
	var m InstrumentMapping
	if err := load(path, &m); err != nil {
		return nil, err
	}
	if err := checkKind(path, m.Header, KindInstrument); err != nil {
		return nil, err
	}
	m.Path = path
	return &m, nil
}

// LoadReference reads an .rmap file and checks that every selection
// has one pattern per parkey.
func LoadReference(path string) (*ReferenceMapping, error) {
	var m ReferenceMapping
	if err := load(path, &m); err != nil {
		return nil, err
	}
	if err := checkKind(path, m.Header, KindReference); err != nil {
		return nil, err
	}
	if len(m.Header.Parkey) == 0 {
		return nil, fmt.Errorf("mapping %q: reference mapping has no parkey", path)
	}
	for i, sel := range m.Selector {
		if len(sel.Match) != len(m.Header.Parkey) {
			return nil, fmt.Errorf("mapping %q: selection %d has %d patterns for %d parkeys",
				path, i, len(sel.Match), len(m.Header.Parkey))
		}
		if sel.Reference == "" {
			return nil, fmt.Errorf("mapping %q: selection %d has no reference", path, i)
		}
	}
	m.Path = path
	return &m, nil
}

// Tuple returns selection i as a match tuple over the parkeys.
func (m *ReferenceMapping) Tuple(i int) selector.Tuple {
	t, _ := selector.NewTuple(m.Header.Parkey, m.Selector[i].Match)
	return t
}

// Find returns the index of the first selection whose match is
// equivalent to t according to equivalent, or -1.
func (m *ReferenceMapping) Find(t selector.Tuple, equivalent func(a, b selector.Tuple) bool) int {
	for i := range m.Selector {
		if equivalent(m.Tuple(i), t) {
			return i
		}
	}
	return -1
}

// Clone returns a deep copy so edits never reach the loaded original.
func (m *ReferenceMapping) Clone() *ReferenceMapping {
	c := &ReferenceMapping{Header: m.Header, Path: m.Path}
	c.Header.Parkey = append([]string(nil), m.Header.Parkey...)
	c.Selector = make([]Selection, len(m.Selector))
	for i, sel := range m.Selector {
		c.Selector[i] = Selection{
			Match:     append([]string(nil), sel.Match...),
			Reference: sel.Reference,
		}
	}
	return c
}

// Marshal renders the mapping as YAML. Output is deterministic.
func (m *ReferenceMapping) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return nil, fmt.Errorf("encoding mapping %q: %w", m.Header.Name, err)
	}
	if err := enc.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write marshals the mapping to path.
func (m *ReferenceMapping) Write(path string) error {
	data, err := m.Marshal()
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing mapping %q: %w", path, err)
	}
	return nil
}

func load(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading mapping %q: %w", path, err)
	}
	if err := yaml.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing mapping %q: %w", path, err)
	}
	return nil
}

func checkKind(path string, h Header, want string) error {
	if !strings.EqualFold(h.Mapping, want) {
		return fmt.Errorf("mapping %q: header mapping is %q, want %q", path, h.Mapping, want)
	}
	if h.Observatory == "" {
		return fmt.Errorf("mapping %q: header has no observatory", path)
	}
	return nil
}
