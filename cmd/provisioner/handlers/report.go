package handlers

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/cloudprov/provisioner/internal/provisioning"
)

var (
	reportColorGreen = lipgloss.Color("#22c55e")
	reportColorRed   = lipgloss.Color("#ef4444")
	reportColorBlue  = lipgloss.Color("#3b82f6")
	reportColorDim   = lipgloss.Color("#6b7280")
	reportColorWhite = lipgloss.Color("#f9fafb")
)

var (
	reportTitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(reportColorWhite)
	reportSectionStyle = lipgloss.NewStyle().Bold(true).Foreground(reportColorBlue)
	reportDimStyle     = lipgloss.NewStyle().Foreground(reportColorDim)
	reportOKStyle      = lipgloss.NewStyle().Foreground(reportColorGreen)
	reportFailStyle    = lipgloss.NewStyle().Foreground(reportColorRed)
)

// reportStyle renders the parts of a report. The plain style renders text unchanged.
type reportStyle struct {
	title, section, dim, ok, fail func(string) string
}

func plainStyle() reportStyle {
	id := func(s string) string { return s }
	return reportStyle{title: id, section: id, dim: id, ok: id, fail: id}
}

func styledReport() reportStyle {
	return reportStyle{
		title:   func(s string) string { return reportTitleStyle.Render(s) },
		section: func(s string) string { return reportSectionStyle.Render(s) },
		dim:     func(s string) string { return reportDimStyle.Render(s) },
		ok:      func(s string) string { return reportOKStyle.Render(s) },
		fail:    func(s string) string { return reportFailStyle.Render(s) },
	}
}

// renderReport produces the run summary printed after a run.
func renderReport(r *provisioning.Report, st reportStyle) string {
	var b strings.Builder

	b.WriteString("\n")
	b.WriteString(st.title(fmt.Sprintf("  provisioning run %s", r.RunID)))
	b.WriteString("\n")
	b.WriteString(st.dim("  " + strings.Repeat("═", 40)))
	b.WriteString("\n\n")

	b.WriteString(st.section("  Steps"))
	b.WriteString("\n")
	for _, s := range r.Steps {
		mark := st.ok("[OK]")
		if s.Status == provisioning.StatusFailed || s.Result == provisioning.ResultFailure {
			mark = st.fail("[!!]")
		}
		fmt.Fprintf(&b, "  %s %-34s %-8s %-9s %s\n", mark, s.StepType, s.Mode, s.Result, st.dim(s.Duration.Round(time.Millisecond).String()))
		for _, p := range s.Properties {
			if p.Name() == provisioning.PropertyExecutionMethod {
				continue
			}
			b.WriteString(st.dim(fmt.Sprintf("       %s = %s", p.Name(), p.Value())))
			b.WriteString("\n")
		}
	}

	if len(r.Rollbacks) > 0 {
		b.WriteString("\n")
		b.WriteString(st.section("  Rollback"))
		b.WriteString("\n")
		for _, rb := range r.Rollbacks {
			mark := st.ok("[OK]")
			line := rb.StepType
			if rb.Result == provisioning.ResultFailure {
				mark = st.fail("[!!]")
				if rb.Err != nil {
					line += ": " + rb.Err.Error()
				}
			}
			fmt.Fprintf(&b, "  %s %s\n", mark, line)
		}
	}

	b.WriteString("\n")
	status := st.ok(string(r.Status))
	if r.Status != provisioning.RunSucceeded {
		status = st.fail(string(r.Status))
	}
	fmt.Fprintf(&b, "  Status:   %s\n", status)
	if r.FailedStep != "" {
		fmt.Fprintf(&b, "  Failed:   %s\n", r.FailedStep)
	}
	if r.Cause != nil {
		fmt.Fprintf(&b, "  Cause:    %v\n", r.Cause)
	}
	fmt.Fprintf(&b, "  Duration: %s\n", r.Duration.Round(time.Millisecond))

	return b.String()
}
