// Package locate finds reference files on disk and works out which
// instrument and file kind a reference belongs to, from its name when
// the name follows the <observatory>_<instrument>_<filekind>[_<serial>]
// convention and from its primary header otherwise.
package locate

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrNotFound is returned when a reference cannot be located.
var ErrNotFound = errors.New("reference not found")

// Locator resolves reference identifiers to physical files.
type Locator struct {
	// Dirs are searched in order for a reference's base name.
	Dirs []string
}

// Locate returns the path of reference. A reference naming an
// existing file is returned as-is; otherwise each of l.Dirs is tried
// with the reference's base name.
func (l Locator) Locate(reference string) (string, error) {
	if isFile(reference) {
		return filepath.Abs(reference)
	}
	base := filepath.Base(reference)
	for _, dir := range l.Dirs {
		path := filepath.Join(dir, base)
		if isFile(path) {
			return filepath.Abs(path)
		}
	}
	return "", fmt.Errorf("%q: %w", reference, ErrNotFound)
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

// Filekind header keywords, in lookup order.
var filekindKeywords = []string{"REFTYPE", "FILETYPE", "TYPE", "META.REFTYPE"}

// Instrument header keywords, in lookup order.
var instrumentKeywords = []string{"INSTRUME", "INSTRUMENT", "META.INSTRUMENT.NAME"}

// Properties returns the lower-cased (instrument, filekind) of the
// reference file at path for observatory.
//
// A name that does not decompose, or that names another observatory,
// is not trusted and the header decides.
func Properties(observatory, path string) (instrument, filekind string, err error) {
	if name, ok := DecomposeName(path); ok && strings.EqualFold(name.Observatory, observatory) {
		return name.Instrument, name.Filekind, nil
	}

	h, err := ReadHeader(path)
	if err != nil {
		return "", "", err
	}
	instrument, ok := h.GetAny(instrumentKeywords...)
	if !ok {
		return "", "", fmt.Errorf("%q: header has no instrument keyword", filepath.Base(path))
	}
	filekind, ok = h.GetAny(filekindKeywords...)
	if !ok {
		return "", "", fmt.Errorf("%q: header has no file kind keyword", filepath.Base(path))
	}
	return strings.ToLower(instrument), strings.ToLower(filekind), nil
}

// Name holds the fields of a new-style reference file name.
type Name struct {
	Observatory string
	Instrument  string
	Filekind    string
	Serial      string
	Ext         string
}

// DecomposeName splits <obs>_<instrument>_<filekind>[_<serial>].<ext>.
// Every field must be ASCII letters and digits only, and the serial,
// when present, must be all digits.
func DecomposeName(path string) (Name, bool) {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	parts := strings.Split(strings.TrimSuffix(base, ext), "_")
	if len(parts) != 3 && len(parts) != 4 {
		return Name{}, false
	}
	for _, p := range parts {
		if !isAlnum(p) {
			return Name{}, false
		}
	}
	n := Name{
		Observatory: strings.ToLower(parts[0]),
		Instrument:  strings.ToLower(parts[1]),
		Filekind:    strings.ToLower(parts[2]),
		Ext:         ext,
	}
	if len(parts) == 4 {
		if strings.Trim(parts[3], "0123456789") != "" {
			return Name{}, false
		}
		n.Serial = parts[3]
	}
	return n, true
}

func isAlnum(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if !('a' <= r && r <= 'z' || 'A' <= r && r <= 'Z' || '0' <= r && r <= '9') {
			return false
		}
	}
	return true
}
