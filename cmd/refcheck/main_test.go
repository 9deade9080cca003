package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/zacharyburnett/crds/internal/batch"
	"github.com/zacharyburnett/crds/internal/config"
	"github.com/zacharyburnett/crds/internal/fixture"
	"github.com/zacharyburnett/crds/internal/report"
	"github.com/zacharyburnett/crds/internal/tally"
)

// checkFixture returns params for checking refs against the hst
// fixture context, with reference lookup in its references dir.
func checkFixture(t *testing.T, refs ...string) (checkParams, *bytes.Buffer, *bytes.Buffer) {
	t.Helper()
	t.Setenv(config.ReferencePathEnv, "")
	dir := fixture.HST(t)
	var stdout, stderr bytes.Buffer
	return checkParams{
		contextPath:   filepath.Join(dir, "hst.pmap"),
		refs:          refs,
		format:        "text",
		referenceDirs: []string{filepath.Join(dir, "references")},
		stdout:        &stdout,
		stderr:        &stderr,
	}, &stdout, &stderr
}

// ---------------------------------------------------------------------------
// runCheck tests
// ---------------------------------------------------------------------------

func TestRunCheck_InvalidFormat(t *testing.T) {
	err := runCheck(checkParams{
		contextPath: "hst.pmap",
		refs:        []string{"a.fits"},
		format:      "yaml",
		stdout:      &bytes.Buffer{},
		stderr:      &bytes.Buffer{},
	})
	if err == nil {
		t.Fatal("expected error for invalid format")
	}
	if !strings.Contains(err.Error(), `invalid format "yaml"`) {
		t.Errorf("unexpected error message: %s", err)
	}
}

func TestRunCheck_ContextNotPipeline(t *testing.T) {
	p, stdout, _ := checkFixture(t, "new_flat.fits")
	p.contextPath = filepath.Join(filepath.Dir(p.contextPath), "hst_acs.imap")

	err := runCheck(p)
	if err == nil {
		t.Fatal("expected error for a non-.pmap context")
	}
	if !strings.Contains(err.Error(), "not a .pmap") {
		t.Errorf("unexpected error message: %s", err)
	}
	if stdout.Len() != 0 {
		t.Errorf("nothing should be processed, got output:\n%s", stdout)
	}
}

func TestRunCheck_MissingContext(t *testing.T) {
	p, _, _ := checkFixture(t, "new_flat.fits")
	p.contextPath = filepath.Join(t.TempDir(), "absent.pmap")

	err := runCheck(p)
	if err == nil {
		t.Fatal("expected error for a missing context")
	}
	if !strings.Contains(err.Error(), "loading context") {
		t.Errorf("unexpected error message: %s", err)
	}
}

func TestRunCheck_TextFormat(t *testing.T) {
	p, stdout, stderr := checkFixture(t, "new_flat.fits")

	if err := runCheck(p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	out := stdout.String()
	if !strings.Contains(out, "new_flat.fits") {
		t.Errorf("expected output to contain 'new_flat.fits', got:\n%s", out)
	}
	if !strings.Contains(out, "1 passed") {
		t.Errorf("expected output to report 1 passed, got:\n%s", out)
	}
	if !strings.Contains(stderr.String(), tally.Prefix) {
		t.Errorf("expected prefixed log lines on stderr, got:\n%s", stderr)
	}
}

func TestRunCheck_JSONFormat(t *testing.T) {
	p, stdout, _ := checkFixture(t, "hst_acs_flatfile_0001.fits", "hst_acs_flatfile_0002.fits")
	p.format = "json"
	p.replace = true

	if err := runCheck(p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var rpt report.JSONReport
	if err := json.Unmarshal(stdout.Bytes(), &rpt); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, stdout)
	}
	if rpt.Mode != "replace" {
		t.Errorf("mode = %q, want replace", rpt.Mode)
	}
	if len(rpt.Outcomes) != 2 {
		t.Fatalf("expected 2 outcomes, got %d", len(rpt.Outcomes))
	}
	if rpt.Outcomes[0].Status != batch.Passed {
		t.Errorf("first reference should pass, got %s", rpt.Outcomes[0].Status)
	}
	if rpt.Outcomes[1].Status != batch.Mismatch {
		t.Errorf("second reference should mismatch, got %s", rpt.Outcomes[1].Status)
	}
	if rpt.Summary.Errors != 1 {
		t.Errorf("expected 1 logged error, got %d", rpt.Summary.Errors)
	}
}

func TestRunCheck_ReferenceListFile(t *testing.T) {
	p, stdout, _ := checkFixture(t)
	p.refs = []string{"@" + filepath.Join(filepath.Dir(p.contextPath), "refs.txt")}
	p.format = "json"

	if err := runCheck(p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var rpt report.JSONReport
	if err := json.Unmarshal(stdout.Bytes(), &rpt); err != nil {
		t.Fatal(err)
	}
	if len(rpt.Outcomes) != 2 {
		t.Fatalf("expected 2 outcomes from the list file, got %d", len(rpt.Outcomes))
	}
	// Insert mode: the first is already in the context, the second is new.
	if rpt.Outcomes[0].Status != batch.Mismatch || rpt.Outcomes[1].Status != batch.Passed {
		t.Errorf("unexpected statuses %s, %s", rpt.Outcomes[0].Status, rpt.Outcomes[1].Status)
	}
}

func TestRunCheck_EmptyReferenceList(t *testing.T) {
	p, _, _ := checkFixture(t)
	empty := filepath.Join(t.TempDir(), "empty.txt")
	if err := os.WriteFile(empty, []byte("\n\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	p.refs = []string{"@" + empty}

	err := runCheck(p)
	if err == nil || !strings.Contains(err.Error(), "no references") {
		t.Errorf("expected 'no references' error, got %v", err)
	}
}

func TestRunCheck_SkipsDoNotFailWithoutFlag(t *testing.T) {
	p, stdout, _ := checkFixture(t, "missing.fits", "new_flat.fits")

	if err := runCheck(p); err != nil {
		t.Fatalf("a completed run should succeed, got: %v", err)
	}
	if !strings.Contains(stdout.String(), "1 skipped") {
		t.Errorf("expected 1 skipped, got:\n%s", stdout)
	}
}

func TestRunCheck_FailOnErrors(t *testing.T) {
	p, _, stderr := checkFixture(t, "missing.fits")
	p.failOnErrors = true

	err := runCheck(p)
	if err == nil {
		t.Fatal("expected error with --fail-on-errors and a logged error")
	}
	if !strings.Contains(stderr.String(), "Errors: 1 (FAIL)") {
		t.Errorf("expected CI summary on stderr, got:\n%s", stderr)
	}
}

func TestRunCheck_ExplicitConfigMissing(t *testing.T) {
	p, _, _ := checkFixture(t, "new_flat.fits")
	p.configPath = filepath.Join(t.TempDir(), "absent.yaml")

	err := runCheck(p)
	if err == nil || !strings.Contains(err.Error(), "config file") {
		t.Errorf("expected config file error, got %v", err)
	}
}

func TestRunCheck_ConfigScratchDirUsedAndCleaned(t *testing.T) {
	p, _, _ := checkFixture(t, "new_flat.fits", "hst_acs_biasfile_0001.fits")
	scratch := filepath.Join(t.TempDir(), "scratch")
	cfgPath := filepath.Join(t.TempDir(), config.DefaultFileName)
	if err := os.WriteFile(cfgPath, []byte("scratch_dir: "+scratch+"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	p.configPath = cfgPath
	p.replace = true

	if err := runCheck(p); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	entries, err := os.ReadDir(scratch)
	if err != nil {
		t.Fatalf("scratch dir should have been created: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("scratch dir should be empty after the run, has %d entries", len(entries))
	}
}

// ---------------------------------------------------------------------------
// loadConfig tests
// ---------------------------------------------------------------------------

func TestLoadConfig_FlagDirsFirst(t *testing.T) {
	t.Setenv(config.ReferencePathEnv, "/env")
	cfg, err := loadConfig("", []string{"/flag"}, false)
	if err != nil {
		t.Fatalf("loadConfig error: %v", err)
	}
	if strings.Join(cfg.ReferenceDirs, ",") != "/flag,/env" {
		t.Errorf("reference dirs = %v, want [/flag /env]", cfg.ReferenceDirs)
	}
}

func TestLoadConfig_VerboseOverride(t *testing.T) {
	t.Setenv(config.ReferencePathEnv, "")
	cfg, err := loadConfig("", nil, true)
	if err != nil {
		t.Fatalf("loadConfig error: %v", err)
	}
	if !cfg.Verbose {
		t.Error("--verbose should enable verbose")
	}
}

// ---------------------------------------------------------------------------
// CI summary tests
// ---------------------------------------------------------------------------

func TestPrintCISummary_NoFlag(t *testing.T) {
	var buf bytes.Buffer
	printCISummary(&buf, &batch.Summary{Counters: tally.Counters{Errors: 3}}, false)
	if buf.Len() != 0 {
		t.Errorf("expected no output, got %q", buf.String())
	}
}

func TestPrintCISummary_Pass(t *testing.T) {
	var buf bytes.Buffer
	printCISummary(&buf, &batch.Summary{Passed: 2}, true)
	if !strings.Contains(buf.String(), "Errors: 0 (PASS)") {
		t.Errorf("unexpected summary %q", buf.String())
	}
}

func TestCheckErrors(t *testing.T) {
	failing := &batch.Summary{Counters: tally.Counters{Errors: 2}}
	if err := checkErrors(failing, false); err != nil {
		t.Errorf("without the flag errors are not fatal, got %v", err)
	}
	if err := checkErrors(failing, true); err == nil {
		t.Error("expected error with the flag set")
	}
	if err := checkErrors(&batch.Summary{}, true); err != nil {
		t.Errorf("clean run should pass, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// check command argument tests
// ---------------------------------------------------------------------------

func TestCheckCmd_RequiresTwoArgs(t *testing.T) {
	cmd := newCheckCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"hst.pmap"})
	if err := cmd.Execute(); err == nil {
		t.Error("expected error with a single argument")
	}
}

// ---------------------------------------------------------------------------
// schema command tests
// ---------------------------------------------------------------------------

func TestSchemaCmd_OutputsValidJSON(t *testing.T) {
	cmd := newSchemaCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("schema command failed: %v", err)
	}

	var parsed map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Errorf("schema output is not valid JSON: %v", err)
	}
}

func TestSchemaCmd_ContainsSchemaFields(t *testing.T) {
	cmd := newSchemaCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{})
	if err := cmd.Execute(); err != nil {
		t.Fatal(err)
	}

	output := buf.String()
	for _, field := range []string{
		`"$schema"`, `"title"`, `"Outcome"`,
		`"Verdict"`, `"Discrepancy"`, `"MatchTuple"`, `"Diagnostics"`,
	} {
		if !strings.Contains(output, field) {
			t.Errorf("schema output missing %s", field)
		}
	}
}

// ---------------------------------------------------------------------------
// init command tests
// ---------------------------------------------------------------------------

func TestInitCmd_WritesConfig(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	cmd := newInitCmd()
	var buf bytes.Buffer
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("init command failed: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, config.DefaultFileName)); err != nil {
		t.Errorf("expected %s to be written: %v", config.DefaultFileName, err)
	}
	if !strings.Contains(buf.String(), "created: "+config.DefaultFileName) {
		t.Errorf("unexpected init output:\n%s", buf.String())
	}
}
