package batch

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// ListPrefix marks a reference argument naming a list file.
const ListPrefix = "@"

// ExpandReferences replaces every @file argument with the references
// listed in that file. Other arguments pass through unchanged.
func ExpandReferences(args []string) ([]string, error) {
	var refs []string
	for _, arg := range args {
		if !strings.HasPrefix(arg, ListPrefix) {
			refs = append(refs, arg)
			continue
		}
		listed, err := ReadReferenceList(strings.TrimPrefix(arg, ListPrefix))
		if err != nil {
			return nil, err
		}
		refs = append(refs, listed...)
	}
	return refs, nil
}

// ReadReferenceList reads a newline-delimited reference list. The
// first whitespace-delimited token of each non-blank line is a
// reference; the rest of the line is ignored.
func ReadReferenceList(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("reading reference list: %w", err)
	}
	defer f.Close()

	var refs []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		if fields := strings.Fields(sc.Text()); len(fields) > 0 {
			refs = append(refs, fields[0])
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading reference list %s: %w", path, err)
	}
	return refs, nil
}
