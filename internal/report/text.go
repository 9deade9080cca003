package report

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/zacharyburnett/crds/internal/batch"
)

// TextOptions controls optional sections of the text report.
type TextOptions struct {
	// Verbose adds detail sections for passing references that carry
	// diagnostics.
	Verbose bool
}

// WriteText writes the summary as human-readable styled text to the
// writer. Output uses lipgloss for color and formatting when the
// output is a TTY; degrades gracefully for pipes and CI.
func WriteText(w io.Writer, s *batch.Summary) error {
	return WriteTextOptions(w, s, TextOptions{})
}

// WriteTextOptions is WriteText with options.
func WriteTextOptions(w io.Writer, s *batch.Summary, opts TextOptions) error {
	st := DefaultStyles()

	fmt.Fprintln(w, st.Header.Render(fmt.Sprintf("=== %s (%s) ===", s.Context, s.Mode)))
	fmt.Fprintln(w, st.SubHeader.Render(fmt.Sprintf("    run %s", s.RunID)))

	if len(s.Outcomes) == 0 {
		fmt.Fprintln(w, st.Muted.Render("    No references checked."))
	} else {
		fmt.Fprintln(w)
		fmt.Fprintln(w, outcomeTable(s.Outcomes, st))
	}

	for _, o := range s.Outcomes {
		if o.Status == batch.Passed && !(opts.Verbose && o.Diagnostics != nil) {
			continue
		}
		fmt.Fprintln(w)
		writeDetail(w, o, st)
	}

	fmt.Fprintf(w, "\n%s\n", st.Header.Render(fmt.Sprintf(
		"%d reference(s) checked: %d passed, %d mismatched, %d skipped",
		len(s.Outcomes), s.Passed, s.Mismatched, s.Skipped)))
	fmt.Fprintf(w, "%s%s\n", st.SummaryLabel.Render("Log totals:"), s.Counters)
	return nil
}

func outcomeTable(outcomes []batch.Outcome, st Styles) *table.Table {
	// Budget: 80 cols total with a 4 col indent allowance. Five
	// columns: STATUS=8, REFERENCE=30, INSTR=6, FILEKIND=10, ACTIONS=7.
	const maxRef = 30
	rows := make([][]string, 0, len(outcomes))
	for _, o := range outcomes {
		actions := "-"
		if o.Status != batch.Skipped {
			actions = strconv.Itoa(len(o.Actions))
		}
		rows = append(rows, []string{
			string(o.Status),
			truncate(o.Reference, maxRef),
			dash(o.Instrument),
			dash(o.Filekind),
			actions,
		})
	}

	return table.New().
		Width(76).
		Border(lipgloss.NormalBorder()).
		BorderStyle(st.Border).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return st.TableHeader
			}
			if col == 0 && row >= 0 && row < len(rows) {
				return st.StatusStyle(batch.Status(rows[row][0]))
			}
			return st.TableCell
		}).
		Headers("STATUS", "REFERENCE", "INSTR", "FILEKIND", "ACTIONS").
		Rows(rows...)
}

func writeDetail(w io.Writer, o batch.Outcome, st Styles) {
	fmt.Fprintln(w, st.StatusStyle(o.Status).Render(
		fmt.Sprintf("--- %s (%s) ---", o.Reference, o.Status)))

	if o.Reason != "" {
		fmt.Fprintf(w, "    %s\n", o.Reason)
	}
	if o.Mapping != "" {
		fmt.Fprintln(w, st.SubHeader.Render("    mapping "+o.Mapping))
	}
	for _, a := range o.Actions {
		fmt.Fprintf(w, "    %s\n", a)
	}
	if v := o.Verdict; v != nil {
		if v.ExpectedComputed {
			fmt.Fprintln(w, st.Muted.Render("    expected "+v.Expected.String()))
		}
		for _, d := range v.Discrepancies {
			fmt.Fprintln(w, st.CategoryStyle(d.Category).Render(
				fmt.Sprintf("    [%s] %s", d.Category, d.Detail)))
		}
	}

	d := o.Diagnostics
	if d == nil {
		return
	}
	if !d.Reproduced {
		fmt.Fprintln(w, st.Warning.Render("    re-run did not reproduce the first run"))
	}
	for _, msg := range []string{d.RerunError, d.DiffError, d.MetadataError} {
		if msg != "" {
			fmt.Fprintln(w, st.Warning.Render("    "+msg))
		}
	}
	if d.Diff != "" {
		fmt.Fprintln(w, st.SubHeader.Render("    diff:"))
		for _, line := range strings.Split(strings.TrimRight(d.Diff, "\n"), "\n") {
			fmt.Fprintln(w, diffLineStyle(line, st).Render("      "+line))
		}
	}
	if d.Metadata != "" {
		fmt.Fprintln(w, st.SubHeader.Render("    metadata:"))
		for _, line := range strings.Split(strings.TrimRight(d.Metadata, "\n"), "\n") {
			fmt.Fprintf(w, "      %s\n", line)
		}
	}
}

func diffLineStyle(line string, st Styles) lipgloss.Style {
	switch {
	case strings.HasPrefix(line, "+ "):
		return st.DiffAdded
	case strings.HasPrefix(line, "- "):
		return st.DiffRemoved
	case strings.HasPrefix(line, "! "):
		return st.Warning
	default:
		return lipgloss.NewStyle()
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
