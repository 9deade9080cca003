package diag

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/zacharyburnett/crds/internal/fixture"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestContextDiffer_Identical(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.rmap", "one\ntwo\nthree\n")
	b := writeFile(t, dir, "b.rmap", "one\ntwo\nthree\n")

	out, err := ContextDiffer{}.Diff(context.Background(), a, b)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if out != "" {
		t.Errorf("expected empty diff for identical files, got:\n%s", out)
	}
}

func TestContextDiffer_ShowsChange(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.rmap", "one\ntwo\nthree\n")
	b := writeFile(t, dir, "b.rmap", "one\ntwo\nthree\nfour\n")

	out, err := ContextDiffer{Lines: 1}.Diff(context.Background(), a, b)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	for _, want := range []string{"*** " + a, "--- " + b, "+ four"} {
		if !strings.Contains(out, want) {
			t.Errorf("diff missing %q:\n%s", want, out)
		}
	}
}

func TestContextDiffer_MissingFile(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.rmap", "x\n")
	if _, err := (ContextDiffer{}).Diff(context.Background(), a, filepath.Join(dir, "nope")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestCommandDiffer_DifferIsNotError(t *testing.T) {
	if _, err := exec.LookPath("diff"); err != nil {
		t.Skip("diff not installed")
	}
	dir := t.TempDir()
	a := writeFile(t, dir, "a.rmap", "one\n")
	b := writeFile(t, dir, "b.rmap", "two\n")

	out, err := CommandDiffer{Argv: []string{"diff", "-c"}}.Diff(context.Background(), a, b)
	if err != nil {
		t.Fatalf("Diff: %v", err)
	}
	if !strings.Contains(out, "two") {
		t.Errorf("expected diff output to mention the change, got:\n%s", out)
	}
}

func TestCommandDiffer_Empty(t *testing.T) {
	if _, err := (CommandDiffer{}).Diff(context.Background(), "a", "b"); err == nil {
		t.Fatal("expected error for empty command")
	}
}

func TestExpandPath(t *testing.T) {
	got := expandPath([]string{"tool", "info", "--file={path}"}, "/x/y.fits")
	want := []string{"tool", "info", "--file=/x/y.fits"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expandPath = %v, want %v", got, want)
	}
	got = expandPath([]string{"tool", "info"}, "/x/y.fits")
	want = []string{"tool", "info", "/x/y.fits"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expandPath without placeholder = %v, want %v", got, want)
	}
}

func TestCommandDumper_RunsCommand(t *testing.T) {
	if _, err := exec.LookPath("echo"); err != nil {
		t.Skip("echo not installed")
	}
	d := CommandDumper{Argv: []string{"echo", "info"}, Timeout: 5 * time.Second}
	out, err := d.Dump(context.Background(), "ref.fits")
	if err != nil {
		t.Fatalf("Dump: %v", err)
	}
	if strings.TrimSpace(out) != "info ref.fits" {
		t.Errorf("Dump output = %q", out)
	}
}

func TestHeaderDumper(t *testing.T) {
	dir := fixture.HST(t)
	out, err := HeaderDumper{}.Dump(context.Background(), filepath.Join(dir, "references", "new_flat.fits"))
	if err != nil {
		t.Fatalf("Dump: %v", err)
	}
	for _, want := range []string{"new_flat.fits", "INSTRUME = ACS", "FILTER   = F3"} {
		if !strings.Contains(out, want) {
			t.Errorf("dump missing %q:\n%s", want, out)
		}
	}
}
