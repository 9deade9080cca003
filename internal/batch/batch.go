// Package batch drives verification over a list of references. Each
// reference is located, routed to its governing reference mapping,
// staged under a run-unique alias, and verified; failures along the
// way skip that reference and the run continues.
package batch

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/zacharyburnett/crds/internal/locate"
	"github.com/zacharyburnett/crds/internal/refactor"
	"github.com/zacharyburnett/crds/internal/rmap"
	"github.com/zacharyburnett/crds/internal/tally"
	"github.com/zacharyburnett/crds/internal/verify"
)

// Status is the per-reference result class.
type Status string

const (
	Passed   Status = "passed"
	Mismatch Status = "mismatch"
	Skipped  Status = "skipped"
)

// Outcome is what happened to one reference.
type Outcome struct {
	Reference string `json:"reference"`
	Status    Status `json:"status"`

	// Reason explains a skip.
	Reason string `json:"reason,omitempty"`

	Path       string `json:"path,omitempty"`
	Instrument string `json:"instrument,omitempty"`
	Filekind   string `json:"filekind,omitempty"`
	Mapping    string `json:"mapping,omitempty"`

	Actions     []refactor.Action   `json:"actions,omitempty"`
	Verdict     *verify.Verdict     `json:"verdict,omitempty"`
	Diagnostics *verify.Diagnostics `json:"diagnostics,omitempty"`
}

// Summary collects the outcomes of a run.
type Summary struct {
	RunID    string      `json:"run_id"`
	Context  string      `json:"context"`
	Mode     verify.Mode `json:"mode"`
	Outcomes []Outcome   `json:"outcomes"`

	Passed     int `json:"passed"`
	Mismatched int `json:"mismatched"`
	Skipped    int `json:"skipped"`

	Counters tally.Counters `json:"counters"`
}

// Driver verifies references one at a time against a loaded context.
type Driver struct {
	Hierarchy *rmap.Hierarchy
	Locator   locate.Locator
	Engine    *verify.Engine
	Log       *tally.Logger

	// Observatory overrides the context's observatory for name
	// decomposition.
	Observatory string

	// ScratchDir holds the staged alias and scratch mapping. Empty
	// means os.TempDir().
	ScratchDir string

	RunID uuid.UUID
}

// New returns a Driver with a fresh run identifier.
func New(h *rmap.Hierarchy, loc locate.Locator, engine *verify.Engine, log *tally.Logger) *Driver {
	return &Driver{
		Hierarchy: h,
		Locator:   loc,
		Engine:    engine,
		Log:       log,
		RunID:     uuid.New(),
	}
}

// Run verifies every reference in refs in order. Only setup problems
// are returned as errors; per-reference failures become skipped
// outcomes.
func (d *Driver) Run(ctx context.Context, refs []string, mode verify.Mode) (*Summary, error) {
	if _, err := verify.ParseMode(string(mode)); err != nil {
		return nil, err
	}
	if err := os.MkdirAll(d.scratchDir(), 0o755); err != nil {
		return nil, fmt.Errorf("creating scratch dir: %w", err)
	}

	s := &Summary{
		RunID:   d.RunID.String(),
		Context: d.Hierarchy.Name(),
		Mode:    mode,
	}
	d.Log.Debug("Starting run", "run", s.RunID, "context", s.Context, "mode", mode, "references", len(refs))
	for _, ref := range refs {
		o := d.process(ctx, ref, mode)
		switch o.Status {
		case Passed:
			s.Passed++
		case Mismatch:
			s.Mismatched++
		case Skipped:
			s.Skipped++
		}
		s.Outcomes = append(s.Outcomes, o)
	}
	s.Counters = d.Log.StandardStatus()
	return s, nil
}

func (d *Driver) process(ctx context.Context, ref string, mode verify.Mode) Outcome {
	o := Outcome{Reference: ref}

	path, err := d.Locator.Locate(ref)
	if err != nil {
		d.Log.Error("Can't locate reference file", "reference", ref, "err", err)
		return o.skip("can't locate reference file: %v", err)
	}
	o.Path = path

	o.Instrument, o.Filekind, err = locate.Properties(d.observatory(), path)
	if err != nil {
		d.Log.Error("Can't determine instrument and filekind", "reference", ref, "err", err)
		return o.skip("can't determine instrument and filekind: %v", err)
	}
	o.Mapping, err = d.Hierarchy.Corresponding(o.Instrument, o.Filekind)
	if err != nil {
		d.Log.Error("No governing reference mapping", "reference", ref, "err", err)
		return o.skip("no governing reference mapping: %v", err)
	}
	d.Log.Info("Reference", "file", filepath.Base(path),
		"instrument", o.Instrument, "filekind", o.Filekind, "mapping", filepath.Base(o.Mapping))

	alias, err := d.stage(path)
	if err != nil {
		d.Log.Error("Can't stage reference alias", "reference", ref, "err", err)
		return o.skip("can't stage reference alias: %v", err)
	}
	defer os.Remove(alias)
	scratch := d.scratchPath()
	defer os.Remove(scratch)

	res, err := d.Engine.Verify(ctx, verify.Job{
		Context:     d.Hierarchy.Name(),
		Observatory: d.observatory(),
		Mapping:     o.Mapping,
		Scratch:     scratch,
		Reference:   alias,
		Original:    path,
		Mode:        mode,
	})
	if err != nil {
		d.Log.Error("Verification failed", "reference", ref, "err", err)
		return o.skip("verification failed: %v", err)
	}
	o.Actions = res.Actions
	o.Verdict = &res.Verdict
	o.Diagnostics = res.Diagnostics
	d.logResult(res)

	if res.Verdict.AsExpected {
		o.Status = Passed
	} else {
		o.Status = Mismatch
	}
	return o
}

func (d *Driver) logResult(res *verify.Result) {
	for _, a := range res.Actions {
		d.Log.Info("Action", "kind", a.Kind, "match", a.Match.String(), "reference", a.NewReference)
	}
	if res.Verdict.ExpectedComputed {
		d.Log.Info("Expected matches", "matches", res.Verdict.Expected.String())
	}
	for _, disc := range res.Verdict.Discrepancies {
		kv := []any{"category", disc.Category, "match", disc.Match.String()}
		switch disc.Category {
		case verify.MissingExpectedMatch:
			d.Log.Error(disc.Detail, kv...)
		case verify.UnanticipatedMatch:
			d.Log.Info(disc.Detail, kv...)
		default:
			d.Log.Warn(disc.Detail, kv...)
		}
	}

	diag := res.Diagnostics
	if diag == nil {
		return
	}
	switch {
	case diag.RerunError != "":
		d.Log.Warn("Diagnostic re-run failed", "err", diag.RerunError)
	case !diag.Reproduced:
		d.Log.Warn("Diagnostic re-run did not reproduce the first run")
	}
	if diag.DiffError != "" {
		d.Log.Warn("Mapping diff failed", "err", diag.DiffError)
	}
	if diag.MetadataError != "" {
		d.Log.Warn("Reference metadata dump failed", "err", diag.MetadataError)
	}
	if diag.Diff != "" {
		d.Log.Debug("Mapping diff\n" + diag.Diff)
	}
	if diag.Metadata != "" {
		d.Log.Debug("Reference metadata\n" + diag.Metadata)
	}
}

func (o Outcome) skip(format string, args ...any) Outcome {
	o.Status = Skipped
	o.Reason = fmt.Sprintf(format, args...)
	return o
}

func (d *Driver) observatory() string {
	if d.Observatory != "" {
		return d.Observatory
	}
	return d.Hierarchy.Observatory()
}

func (d *Driver) scratchDir() string {
	if d.ScratchDir != "" {
		return d.ScratchDir
	}
	return os.TempDir()
}

func (d *Driver) scratchPath() string {
	return filepath.Join(d.scratchDir(), "refcheck-"+d.RunID.String()+".rmap")
}

// AliasPath returns where path is staged: <root>-<runid8><ext> in the
// scratch directory. The hyphen keeps the alias from decomposing as a
// reference file name, so its properties come from the header.
func (d *Driver) AliasPath(path string) string {
	base := filepath.Base(path)
	ext := filepath.Ext(base)
	root := strings.TrimSuffix(base, ext)
	return filepath.Join(d.scratchDir(), root+"-"+d.RunID.String()[:8]+ext)
}

// stage links path to its alias, copying when links are unsupported.
func (d *Driver) stage(path string) (string, error) {
	alias := d.AliasPath(path)
	if err := os.Remove(alias); err != nil && !os.IsNotExist(err) {
		return "", err
	}
	if err := os.Symlink(path, alias); err == nil {
		return alias, nil
	}
	return alias, copyFile(path, alias)
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		os.Remove(dst)
		return err
	}
	return out.Close()
}
