package main

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/resistx/platform/pkg/faults"
	"github.com/resistx/platform/pkg/report"
	"github.com/resistx/platform/pkg/schema"
	"github.com/resistx/platform/pkg/workflow"
)

var (
	colorBrand     = lipgloss.Color("#0072C6")
	colorSensitive = lipgloss.Color("#2ECC71")
	colorResistant = lipgloss.Color("#E74C3C")
	colorMuted     = lipgloss.Color("#7F8C8D")
)

var styles = struct {
	Title     lipgloss.Style
	Muted     lipgloss.Style
	Label     lipgloss.Style
	Success   lipgloss.Style
	Error     lipgloss.Style
	Resistant lipgloss.Style
	Sensitive lipgloss.Style
}{
	Title:   lipgloss.NewStyle().Bold(true).Foreground(colorBrand),
	Muted:   lipgloss.NewStyle().Foreground(colorMuted),
	Label:   lipgloss.NewStyle().Bold(true),
	Success: lipgloss.NewStyle().Foreground(colorSensitive),
	Error:   lipgloss.NewStyle().Foreground(colorResistant),

	Resistant: lipgloss.NewStyle().
		Bold(true).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorResistant).
		Foreground(colorResistant).
		Padding(0, 1),
	Sensitive: lipgloss.NewStyle().
		Bold(true).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorSensitive).
		Foreground(colorSensitive).
		Padding(0, 1),
}

// styledRenderer is the terminal form of report.TextRenderer.
type styledRenderer struct{}

func (styledRenderer) Render(w io.Writer, r report.Report) error {
	banner := styles.Sensitive
	if r.Result == schema.Resistant {
		banner = styles.Resistant
	}
	fmt.Fprintln(w, styles.Title.Render(r.Title))
	fmt.Fprintln(w, styles.Muted.Render("Generated on: "+r.GeneratedAt.Format(report.TimeLayout)))
	fmt.Fprintln(w, banner.Render(r.Message))
	fmt.Fprintln(w, styles.Label.Render("Patient Details"))
	for _, e := range r.Details {
		if _, err := fmt.Fprintf(w, "  %s %s\n", styles.Label.Render(e.Label+":"), e.Value); err != nil {
			return err
		}
	}
	return nil
}

// printError leads with the operator headline for faults and keeps the
// diagnostic detail underneath.
func printError(w io.Writer, err error) {
	var f *faults.Fault
	switch {
	case errors.As(err, &f):
		fmt.Fprintln(w, styles.Error.Render("✗ "+f.Kind.Describe()))
		fmt.Fprintln(w, styles.Muted.Render("  "+f.Detail()))
	case errors.Is(err, workflow.ErrInvalidCredentials):
		fmt.Fprintln(w, styles.Error.Render("✗ Invalid username or password"))
	default:
		fmt.Fprintln(w, styles.Error.Render("✗ "+err.Error()))
	}
}
