// Package lipgloss renders evaluation reports for the terminal using
// the Lipgloss styling library.
package lipgloss

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/fwojciec/triageval"
)

// Compile-time interface verification.
var _ triageval.Renderer = (*Renderer)(nil)

// Renderer implements triageval.Renderer with styled terminal output.
type Renderer struct {
	badgePass lipgloss.Style
	badgeFail lipgloss.Style
	header    lipgloss.Style
	label     lipgloss.Style
	value     lipgloss.Style
	good      lipgloss.Style
	bad       lipgloss.Style
	muted     lipgloss.Style
}

// RendererOption configures a Renderer.
type RendererOption func(*Renderer)

// WithRenderer builds styles against an explicit lipgloss renderer.
// Tests use this to pin the color profile.
func WithRenderer(r *lipgloss.Renderer) RendererOption {
	return func(rr *Renderer) {
		rr.applyStyles(r)
	}
}

// NewRenderer creates a Renderer with the default color scheme.
func NewRenderer(opts ...RendererOption) *Renderer {
	r := &Renderer{}
	r.applyStyles(lipgloss.DefaultRenderer())
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Catppuccin Mocha accents.
func (r *Renderer) applyStyles(lr *lipgloss.Renderer) {
	r.badgePass = lr.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#1e1e2e")).
		Background(lipgloss.Color("#a6e3a1")).
		Padding(0, 1)
	r.badgeFail = lr.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#1e1e2e")).
		Background(lipgloss.Color("#f38ba8")).
		Padding(0, 1)
	r.header = lr.NewStyle().Bold(true).Foreground(lipgloss.Color("#89b4fa"))
	r.label = lr.NewStyle().Foreground(lipgloss.Color("#a6adc8")).Width(36)
	r.value = lr.NewStyle().Foreground(lipgloss.Color("#cdd6f4"))
	r.good = lr.NewStyle().Foreground(lipgloss.Color("#a6e3a1"))
	r.bad = lr.NewStyle().Foreground(lipgloss.Color("#f38ba8"))
	r.muted = lr.NewStyle().Foreground(lipgloss.Color("#6c7086"))
}

// Render produces the styled terminal report.
func (r *Renderer) Render(report triageval.Report) string {
	var sb strings.Builder

	badge := r.badgePass.Render("PASS")
	if !report.Verdict.Passed {
		badge = r.badgeFail.Render("FAIL")
	}
	fmt.Fprintf(&sb, "%s %s\n\n", badge,
		r.muted.Render(fmt.Sprintf("%d cases", report.Metrics.TotalCases)))

	sb.WriteString(r.header.Render("Gates"))
	sb.WriteString("\n")
	for _, check := range report.Verdict.Checks {
		mark := r.good.Render("✓")
		if !check.Passed {
			mark = r.bad.Render("✗")
		}
		fmt.Fprintf(&sb, "  %s %s %s\n",
			mark,
			r.label.Render(check.Gate.String()),
			r.value.Render(fmt.Sprintf("%.4f", check.Value)))
	}
	sb.WriteString("\n")

	m := report.Metrics
	sb.WriteString(r.header.Render("Metrics"))
	sb.WriteString("\n")
	r.metricLine(&sb, "json_valid_rate", m.JSONValidRate)
	r.metricLine(&sb, "schema_valid_rate", m.SchemaValidRate)
	r.metricLine(&sb, "category_accuracy", m.Accuracy.Category)
	r.metricLine(&sb, "priority_accuracy", m.Accuracy.Priority)
	r.metricLine(&sb, "device_accuracy", m.Accuracy.Device)
	r.metricLine(&sb, "needs_clarification_accuracy", m.Accuracy.Clarification)
	r.metricLine(&sb, "missing_fields_accuracy", m.Accuracy.MissingFields)
	r.metricLine(&sb, "full_match_rate", m.Accuracy.FullMatch)
	fmt.Fprintf(&sb, "  %s %s\n",
		r.label.Render("latency p50/p95 ms"),
		r.value.Render(fmt.Sprintf("%.1f / %.1f", m.LatencyP50MS, m.LatencyP95MS)))
	sb.WriteString("\n")

	if len(report.Causes) > 0 {
		sb.WriteString(r.header.Render("Failure causes"))
		sb.WriteString("\n")
		for _, group := range report.Causes {
			fmt.Fprintf(&sb, "  %s %s\n",
				r.label.Render(string(group.Cause)),
				r.bad.Render(fmt.Sprintf("%d", group.Count)))
			fmt.Fprintf(&sb, "    %s\n", r.muted.Render(strings.Join(group.CaseIDs, ", ")))
		}
		sb.WriteString("\n")
	}

	if len(report.Confusions) > 0 {
		sb.WriteString(r.header.Render("Category confusions"))
		sb.WriteString("\n")
		for _, c := range report.Confusions {
			fmt.Fprintf(&sb, "  %s %s\n",
				r.label.Render(fmt.Sprintf("%s → %s", c.Expected, c.Actual)),
				r.value.Render(fmt.Sprintf("%d", c.Count)))
		}
		sb.WriteString("\n")
	}

	return sb.String()
}

func (r *Renderer) metricLine(sb *strings.Builder, name string, value float64) {
	fmt.Fprintf(sb, "  %s %s\n",
		r.label.Render(name),
		r.value.Render(fmt.Sprintf("%.4f", value)))
}
