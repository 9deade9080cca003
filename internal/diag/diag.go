// Package diag produces the diagnostic material shown for a reference
// whose insertion did not go as expected: a context diff between the
// original and rewritten mapping, and a metadata dump of the
// reference file.
package diag

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/pmezard/go-difflib/difflib"

	"github.com/zacharyburnett/crds/internal/locate"
)

// PathPlaceholder is replaced by the file path in command arguments.
const PathPlaceholder = "{path}"

// ContextDiffer renders a `diff -c` style diff in process.
type ContextDiffer struct {
	// Lines is the number of context lines. Zero means 3.
	Lines int
}

// Diff returns the context diff of oldPath against newPath, or an
// empty string when the files are identical.
func (d ContextDiffer) Diff(_ context.Context, oldPath, newPath string) (string, error) {
	a, err := os.ReadFile(oldPath)
	if err != nil {
		return "", fmt.Errorf("reading %q: %w", oldPath, err)
	}
	b, err := os.ReadFile(newPath)
	if err != nil {
		return "", fmt.Errorf("reading %q: %w", newPath, err)
	}
	lines := d.Lines
	if lines <= 0 {
		lines = 3
	}
	return difflib.GetContextDiffString(difflib.ContextDiff{
		A:        difflib.SplitLines(string(a)),
		B:        difflib.SplitLines(string(b)),
		FromFile: oldPath,
		ToFile:   newPath,
		Context:  lines,
	})
}

// CommandDiffer runs an external diff utility with the two paths
// appended to Argv. Exit status 1 means "files differ" and is not an
// error.
type CommandDiffer struct {
	Argv []string
}

// Diff runs the command and returns its combined output.
func (d CommandDiffer) Diff(ctx context.Context, oldPath, newPath string) (string, error) {
	if len(d.Argv) == 0 {
		return "", fmt.Errorf("diff command is empty")
	}
	args := append(append([]string{}, d.Argv[1:]...), oldPath, newPath)
	cmd := exec.CommandContext(ctx, d.Argv[0], args...)
	output, err := cmd.CombinedOutput()
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) && exitErr.ExitCode() == 1 {
		return string(output), nil
	}
	if err != nil {
		return string(output), fmt.Errorf("%s failed: %w", d.Argv[0], err)
	}
	return string(output), nil
}

// CommandDumper runs an external metadata tool for a reference file.
// Each "{path}" in Argv is replaced with the file path; when Argv has
// no placeholder the path is appended.
type CommandDumper struct {
	Argv []string

	// Dir is the working directory of the command.
	Dir string

	// Timeout bounds the command; zero means no limit.
	Timeout time.Duration
}

// Dump runs the command, waits for it, and returns its output.
func (d CommandDumper) Dump(ctx context.Context, path string) (string, error) {
	if len(d.Argv) == 0 {
		return "", fmt.Errorf("metadata command is empty")
	}
	if d.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d.Timeout)
		defer cancel()
	}
	argv := expandPath(d.Argv, path)
	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Dir = d.Dir
	output, err := cmd.CombinedOutput()
	if err != nil {
		return string(output), fmt.Errorf("metadata command %s failed: %w", argv[0], err)
	}
	return string(output), nil
}

func expandPath(argv []string, path string) []string {
	out := make([]string, 0, len(argv)+1)
	replaced := false
	for _, a := range argv {
		if strings.Contains(a, PathPlaceholder) {
			a = strings.ReplaceAll(a, PathPlaceholder, path)
			replaced = true
		}
		out = append(out, a)
	}
	if !replaced {
		out = append(out, path)
	}
	return out
}

// HeaderDumper lists the primary header cards of a reference file.
type HeaderDumper struct{}

// Dump formats the file's size and header cards.
func (HeaderDumper) Dump(_ context.Context, path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return "", fmt.Errorf("stat %q: %w", path, err)
	}
	h, err := locate.ReadHeader(path)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s (%d bytes)\n", filepath.Base(path), info.Size())
	for _, c := range h {
		if c.Comment != "" {
			fmt.Fprintf(&sb, "  %-8s = %s / %s\n", c.Key, c.Value, c.Comment)
		} else {
			fmt.Fprintf(&sb, "  %-8s = %s\n", c.Key, c.Value)
		}
	}
	return sb.String(), nil
}
