package main

import (
	"context"
	"fmt"
	"io"
	"os"

	charmlog "github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/zacharyburnett/crds/internal/batch"
	"github.com/zacharyburnett/crds/internal/config"
	"github.com/zacharyburnett/crds/internal/diag"
	"github.com/zacharyburnett/crds/internal/locate"
	"github.com/zacharyburnett/crds/internal/matches"
	"github.com/zacharyburnett/crds/internal/refactor"
	"github.com/zacharyburnett/crds/internal/report"
	"github.com/zacharyburnett/crds/internal/rmap"
	"github.com/zacharyburnett/crds/internal/scaffold"
	"github.com/zacharyburnett/crds/internal/selector"
	"github.com/zacharyburnett/crds/internal/tally"
	"github.com/zacharyburnett/crds/internal/verify"
)

// logger is the application-wide structured logger (writes to stderr).
var logger = charmlog.NewWithOptions(os.Stderr, charmlog.Options{
	ReportTimestamp: false,
})

// Set by build flags.
var version = "dev"

func main() {
	root := &cobra.Command{
		Use:   "refcheck",
		Short: "refcheck verifies reference insertion into mapping hierarchies",
		Long: `refcheck inserts reference files into the reference mappings of
a context, one at a time, and checks that the resulting insert or
replace actions land on exactly the match tuples the context says
each reference should occupy.`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(newCheckCmd())
	root.AddCommand(newSchemaCmd())
	root.AddCommand(newInitCmd())

	if err := root.Execute(); err != nil {
		logger.Error(err.Error())
		os.Exit(1)
	}
}

// checkParams holds the parsed arguments and flags for the check
// command.
type checkParams struct {
	contextPath   string
	refs          []string
	replace       bool
	verbose       bool
	format        string
	interactive   bool
	configPath    string
	referenceDirs []string
	failOnErrors  bool
	stdout        io.Writer
	stderr        io.Writer
}

// runCheck is the extracted, testable body of the check command.
// Invocation problems are returned before any reference is processed.
func runCheck(p checkParams) error {
	if p.format != "text" && p.format != "json" {
		return fmt.Errorf("invalid format %q: must be 'text' or 'json'", p.format)
	}
	if !rmap.IsPipeline(p.contextPath) {
		return fmt.Errorf("context %q is not a .pmap", p.contextPath)
	}

	cfg, err := loadConfig(p.configPath, p.referenceDirs, p.verbose)
	if err != nil {
		return err
	}
	h, err := rmap.Load(p.contextPath, cfg.MappingDir)
	if err != nil {
		return fmt.Errorf("loading context: %w", err)
	}
	refs, err := batch.ExpandReferences(p.refs)
	if err != nil {
		return err
	}
	if len(refs) == 0 {
		return fmt.Errorf("no references to check")
	}

	mode := verify.ModeInsert
	if p.replace {
		mode = verify.ModeReplace
	}

	logger.Info("checking references", "context", h.Name(), "mode", mode, "references", len(refs))

	log := tally.New(p.stderr)
	log.SetVerbose(cfg.Verbose)

	d := batch.New(h, locate.Locator{Dirs: cfg.ReferenceDirs}, newEngine(h, cfg), log)
	d.Observatory = cfg.Observatory
	d.ScratchDir = cfg.ScratchDir

	summary, err := d.Run(context.Background(), refs, mode)
	if err != nil {
		return err
	}

	if p.interactive {
		if err := runInteractiveCheck(summary, cfg.Verbose); err != nil {
			return err
		}
	} else if err := writeReport(p.stdout, p.format, summary, cfg.Verbose); err != nil {
		return err
	}

	printCISummary(p.stderr, summary, p.failOnErrors)
	return checkErrors(summary, p.failOnErrors)
}

// loadConfig reads the config file and applies command-line
// overrides.
func loadConfig(path string, referenceDirs []string, verbose bool) (*config.Config, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	dirs := append([]string{}, referenceDirs...)
	cfg.ReferenceDirs = append(dirs, cfg.ReferenceDirs...)
	if verbose {
		cfg.Verbose = true
	}
	return cfg, nil
}

// newEngine wires the verification engine's collaborators from the
// loaded context and config.
func newEngine(h *rmap.Hierarchy, cfg *config.Config) *verify.Engine {
	var differ verify.Differ = diag.ContextDiffer{Lines: cfg.Diff.ContextLines}
	if len(cfg.Diff.Command) > 0 {
		differ = diag.CommandDiffer{Argv: cfg.Diff.Command}
	}
	var dumper verify.Dumper = diag.HeaderDumper{}
	if len(cfg.Metadata.Command) > 0 {
		dumper = diag.CommandDumper{
			Argv:    cfg.Metadata.Command,
			Dir:     cfg.Metadata.Dir,
			Timeout: cfg.Metadata.Timeout,
		}
	}
	return &verify.Engine{
		Actions:    refactor.New(),
		Oracle:     matches.Oracle{Hierarchy: h},
		Properties: locate.Properties,
		Equivalent: selector.Equivalent,
		Differ:     differ,
		Dumper:     dumper,
		Verbose:    cfg.Verbose,
	}
}

// writeReport outputs the summary in the requested format.
func writeReport(w io.Writer, format string, s *batch.Summary, verbose bool) error {
	switch format {
	case "json":
		return report.WriteJSON(w, s, version)
	default:
		return report.WriteTextOptions(w, s, report.TextOptions{Verbose: verbose})
	}
}

// printCISummary prints a one-line CI summary to stderr when
// --fail-on-errors is set.
func printCISummary(w io.Writer, s *batch.Summary, failOnErrors bool) {
	if !failOnErrors {
		return
	}
	status := "PASS"
	if s.Counters.Errors > 0 {
		status = "FAIL"
	}
	fmt.Fprintf(w, "Errors: %d (%s) | passed %d, mismatched %d, skipped %d\n",
		s.Counters.Errors, status, s.Passed, s.Mismatched, s.Skipped)
}

// checkErrors returns an error when failOnErrors is set and the run
// logged errors. Without the flag a completed run always succeeds.
func checkErrors(s *batch.Summary, failOnErrors bool) error {
	if failOnErrors && s.Counters.Errors > 0 {
		return fmt.Errorf("%d error(s) logged", s.Counters.Errors)
	}
	return nil
}

func newCheckCmd() *cobra.Command {
	var (
		replace       bool
		verbose       bool
		format        string
		interactive   bool
		configPath    string
		referenceDirs []string
		failOnErrors  bool
	)

	cmd := &cobra.Command{
		Use:   "check <context.pmap> (@file_list | <reference>...)",
		Short: "Verify inserting references into a context",
		Long: `Insert each reference into its governing reference mapping and
check the resulting actions against the match tuples the context
already holds for that reference.

By default every reference is expected to be new (insert mode).
With --replace every reference is expected to overwrite exactly its
own existing entries.

An argument of the form @file names a file listing one reference
per line; only the first word of each line is used.`,
		Args: cobra.MinimumNArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(checkParams{
				contextPath:   args[0],
				refs:          args[1:],
				replace:       replace,
				verbose:       verbose,
				format:        format,
				interactive:   interactive,
				configPath:    configPath,
				referenceDirs: referenceDirs,
				failOnErrors:  failOnErrors,
				stdout:        os.Stdout,
				stderr:        os.Stderr,
			})
		},
	}

	cmd.Flags().BoolVar(&replace, "replace", false,
		"expect references to replace their existing entries")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false,
		"debug logging and diagnostics for passing references")
	cmd.Flags().StringVar(&format, "format", "text",
		"output format: text or json")
	cmd.Flags().BoolVarP(&interactive, "interactive", "i", false,
		"launch interactive TUI for browsing results")
	cmd.Flags().StringVar(&configPath, "config", "",
		"path to config file (default: ./"+config.DefaultFileName+" if present)")
	cmd.Flags().StringArrayVar(&referenceDirs, "reference-dir", nil,
		"directory searched for reference files (repeatable)")
	cmd.Flags().BoolVar(&failOnErrors, "fail-on-errors", false,
		"exit non-zero when any error was logged")

	return cmd
}

func newSchemaCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the JSON Schema for refcheck output",
		Long: `Print the JSON Schema (Draft 2020-12) that documents the
structure of refcheck check --format=json output.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), report.Schema)
			return err
		},
	}
}

func newInitCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a starter " + config.DefaultFileName,
		Long: `Write a commented ` + config.DefaultFileName + ` into the current
directory. Existing files are left alone unless --force is given.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, err := scaffold.Run(scaffold.Options{
				Force:   force,
				Version: version,
				Stdout:  cmd.OutOrStdout(),
			})
			return err
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "overwrite existing files")

	return cmd
}
