package verify

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"

	"github.com/zacharyburnett/crds/internal/refactor"
	"github.com/zacharyburnett/crds/internal/selector"
)

// ActionSource computes the actions of inserting refs into the
// mapping at oldMapping, writing the rewritten mapping to newMapping.
type ActionSource interface {
	InsertReferences(oldMapping, newMapping string, refs []string) ([]refactor.Action, error)
}

// Oracle returns the match tuples a reference should resolve to.
type Oracle interface {
	FindMatchTuples(context, basename string) (selector.Set, error)
}

// Differ renders a textual diff of two files.
type Differ interface {
	Diff(ctx context.Context, oldPath, newPath string) (string, error)
}

// Dumper renders metadata about a reference file.
type Dumper interface {
	Dump(ctx context.Context, path string) (string, error)
}

// PropertiesFunc resolves the (instrument, filekind) of a file.
type PropertiesFunc func(observatory, path string) (instrument, filekind string, err error)

// Engine runs one verification: compute actions, compare them, and
// collect diagnostics when the comparison fails or Verbose is set.
type Engine struct {
	Actions    ActionSource
	Oracle     Oracle
	Properties PropertiesFunc
	Equivalent EquivalenceFunc

	// Differ and Dumper are optional; nil skips that diagnostic.
	Differ Differ
	Dumper Dumper

	// Verbose requests diagnostics even for passing references.
	Verbose bool
}

// Job describes one reference to verify.
type Job struct {
	// Context is the name of the context the oracle answers for.
	Context     string
	Observatory string

	// Mapping is the governing reference mapping; Scratch is where the
	// rewritten mapping is written.
	Mapping string
	Scratch string

	// Reference is the file inserted, normally a staged alias of
	// Original, the physical reference file.
	Reference string
	Original  string

	Mode Mode
}

// Diagnostics is the material gathered by the diagnostic re-run. It
// never influences the verdict.
type Diagnostics struct {
	// Reproduced is true when the re-run produced the same actions
	// and byte-identical scratch output.
	Reproduced bool `json:"reproduced"`

	Diff          string `json:"diff"`
	Metadata      string `json:"metadata,omitempty"`
	RerunError    string `json:"rerun_error,omitempty"`
	DiffError     string `json:"diff_error,omitempty"`
	MetadataError string `json:"metadata_error,omitempty"`
}

// Result is the outcome of Engine.Verify.
type Result struct {
	Actions     []refactor.Action `json:"actions"`
	Verdict     Verdict           `json:"verdict"`
	Diagnostics *Diagnostics      `json:"diagnostics,omitempty"`
}

// Verify computes the insertion actions for job, compares them with
// the expectation, and runs diagnostics when needed. Errors from the
// action source or the oracle are returned; diagnostic failures are
// recorded in Result.Diagnostics instead.
func (e *Engine) Verify(ctx context.Context, job Job) (*Result, error) {
	if err := removeIfExists(job.Scratch); err != nil {
		return nil, err
	}
	actions, err := e.Actions.InsertReferences(job.Mapping, job.Scratch, []string{job.Reference})
	if err != nil {
		return nil, fmt.Errorf("computing actions: %w", err)
	}

	expected := func() (selector.Set, error) {
		return e.Oracle.FindMatchTuples(job.Context, filepath.Base(job.Original))
	}
	identify := func() (string, string, error) {
		if e.Properties == nil {
			return "", "", fmt.Errorf("no properties source")
		}
		return e.Properties(job.Observatory, job.Reference)
	}
	verdict, err := Compare(actions, expected, job.Mode, e.Equivalent, identify)
	if err != nil {
		return nil, err
	}

	res := &Result{Actions: actions, Verdict: verdict}
	if !verdict.AsExpected || e.Verbose {
		res.Diagnostics = e.diagnose(ctx, job, actions)
	}
	return res, nil
}

// diagnose re-runs the insertion from scratch, then diffs the
// original mapping against the regenerated one and dumps reference
// metadata.
func (e *Engine) diagnose(ctx context.Context, job Job, first []refactor.Action) *Diagnostics {
	d := &Diagnostics{}
	before, beforeErr := os.ReadFile(job.Scratch)

	if err := removeIfExists(job.Scratch); err != nil {
		d.RerunError = err.Error()
		return d
	}
	again, err := e.Actions.InsertReferences(job.Mapping, job.Scratch, []string{job.Reference})
	if err != nil {
		d.RerunError = err.Error()
		return d
	}
	after, afterErr := os.ReadFile(job.Scratch)
	switch {
	case beforeErr != nil:
		d.RerunError = fmt.Sprintf("reading first scratch mapping: %v", beforeErr)
	case afterErr != nil:
		d.RerunError = fmt.Sprintf("reading regenerated scratch mapping: %v", afterErr)
	default:
		d.Reproduced = bytes.Equal(before, after) && reflect.DeepEqual(first, again)
	}

	if e.Differ != nil {
		d.Diff, err = e.Differ.Diff(ctx, job.Mapping, job.Scratch)
		if err != nil {
			d.DiffError = err.Error()
		}
	}
	if e.Dumper != nil {
		d.Metadata, err = e.Dumper.Dump(ctx, job.Original)
		if err != nil {
			d.MetadataError = err.Error()
		}
	}
	return d
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing scratch mapping: %w", err)
	}
	return nil
}
