// Package fixture materializes txtar test archives on disk. It is
// imported only from _test.go files.
//
// The embedded hst archive is a small but complete mapping hierarchy
// with reference files, shared by the rmap, locate, refactor, matches,
// diag, verify, and batch suites and the refcheck command tests.
package fixture

import (
	_ "embed"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/tools/txtar"
)

//go:embed testdata/hst.txtar
var hstArchive []byte

// HST extracts the embedded hst hierarchy into a fresh temporary
// directory and returns that directory. The context is hst.pmap and
// reference files live under references/.
func HST(t testing.TB) string {
	t.Helper()
	return Extract(t, hstArchive)
}

// Extract writes every file of the txtar archive data under a new
// temporary directory and returns it.
func Extract(t testing.TB, data []byte) string {
	t.Helper()
	dir := t.TempDir()
	ar := txtar.Parse(data)
	for _, f := range ar.Files {
		path := filepath.Join(dir, filepath.FromSlash(f.Name))
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatalf("creating fixture dir: %v", err)
		}
		if err := os.WriteFile(path, f.Data, 0o644); err != nil {
			t.Fatalf("writing fixture %s: %v", f.Name, err)
		}
	}
	return dir
}
