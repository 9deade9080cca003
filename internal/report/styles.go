package report

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/zacharyburnett/crds/internal/batch"
	"github.com/zacharyburnett/crds/internal/verify"
)

// Styles defines the visual theme for terminal report output.
// Lipgloss automatically degrades to no-color when output is not a TTY.
type Styles struct {
	// Header is used for section headers (e.g. "=== hst.pmap ===").
	Header lipgloss.Style

	// SubHeader is used for secondary information lines.
	SubHeader lipgloss.Style

	// TableHeader styles the header row of tables.
	TableHeader lipgloss.Style

	// TableCell styles regular table cells.
	TableCell lipgloss.Style

	// Passed, Mismatch and Skipped color-code outcome statuses.
	Passed   lipgloss.Style
	Mismatch lipgloss.Style
	Skipped  lipgloss.Style

	// Error and Warning color discrepancy lines by log level.
	Error   lipgloss.Style
	Warning lipgloss.Style

	// DiffAdded and DiffRemoved color changed diff lines.
	DiffAdded   lipgloss.Style
	DiffRemoved lipgloss.Style

	// SummaryLabel styles summary line labels.
	SummaryLabel lipgloss.Style

	// Border is used for table borders.
	Border lipgloss.Style

	// Muted is used for de-emphasized text.
	Muted lipgloss.Style
}

// DefaultStyles returns the default color scheme for terminal reports.
func DefaultStyles() Styles {
	return Styles{
		Header:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		SubHeader: lipgloss.NewStyle().Foreground(lipgloss.Color("241")),

		TableHeader: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("63")),
		TableCell:   lipgloss.NewStyle().PaddingRight(1),

		Passed:   lipgloss.NewStyle().Foreground(lipgloss.Color("40")).Bold(true),
		Mismatch: lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		Skipped:  lipgloss.NewStyle().Foreground(lipgloss.Color("220")),

		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color("196")),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color("208")),

		DiffAdded:   lipgloss.NewStyle().Foreground(lipgloss.Color("40")),
		DiffRemoved: lipgloss.NewStyle().Foreground(lipgloss.Color("196")),

		SummaryLabel: lipgloss.NewStyle().Bold(true).Width(20),

		Border: lipgloss.NewStyle().Foreground(lipgloss.Color("63")),

		Muted: lipgloss.NewStyle().Foreground(lipgloss.Color("241")),
	}
}

// StatusStyle returns the style for an outcome status.
func (s Styles) StatusStyle(status batch.Status) lipgloss.Style {
	switch status {
	case batch.Passed:
		return s.Passed
	case batch.Mismatch:
		return s.Mismatch
	case batch.Skipped:
		return s.Skipped
	default:
		return s.Muted
	}
}

// CategoryStyle returns the style for a discrepancy category, matching
// the level it is logged at.
func (s Styles) CategoryStyle(c verify.Category) lipgloss.Style {
	switch c {
	case verify.MissingExpectedMatch:
		return s.Error
	case verify.UnanticipatedMatch:
		return s.SubHeader
	default:
		return s.Warning
	}
}
