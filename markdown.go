package triageval

import (
	"fmt"
	"strings"
)

// RenderMarkdown renders a report as a markdown document suitable for
// committing alongside the run logs.
func RenderMarkdown(report Report) string {
	var sb strings.Builder

	status := "PASS"
	if !report.Verdict.Passed {
		status = "FAIL"
	}
	fmt.Fprintf(&sb, "# Triage Evaluation Report\n\n")
	fmt.Fprintf(&sb, "**Gate verdict: %s** (%d cases)\n\n", status, report.Metrics.TotalCases)

	sb.WriteString("## Gates\n\n")
	sb.WriteString("| Gate | Value | Result |\n|---|---|---|\n")
	for _, check := range report.Verdict.Checks {
		result := "pass"
		if !check.Passed {
			result = "**fail**"
		}
		fmt.Fprintf(&sb, "| %s | %.4f | %s |\n", check.Gate, check.Value, result)
	}
	sb.WriteString("\n")

	m := report.Metrics
	sb.WriteString("## Metrics\n\n")
	sb.WriteString("| Metric | Value |\n|---|---|\n")
	fmt.Fprintf(&sb, "| json_valid_rate | %.4f |\n", m.JSONValidRate)
	fmt.Fprintf(&sb, "| schema_valid_rate | %.4f |\n", m.SchemaValidRate)
	fmt.Fprintf(&sb, "| category_accuracy | %.4f |\n", m.Accuracy.Category)
	fmt.Fprintf(&sb, "| priority_accuracy | %.4f |\n", m.Accuracy.Priority)
	fmt.Fprintf(&sb, "| device_accuracy | %.4f |\n", m.Accuracy.Device)
	fmt.Fprintf(&sb, "| needs_clarification_accuracy | %.4f |\n", m.Accuracy.Clarification)
	fmt.Fprintf(&sb, "| missing_fields_accuracy | %.4f |\n", m.Accuracy.MissingFields)
	fmt.Fprintf(&sb, "| full_match_rate | %.4f |\n", m.Accuracy.FullMatch)
	fmt.Fprintf(&sb, "| unknown_missing_fields_rate | %.4f |\n", m.UnknownMissingFieldsRate)
	fmt.Fprintf(&sb, "| latency_p50_ms | %.1f |\n", m.LatencyP50MS)
	fmt.Fprintf(&sb, "| latency_p95_ms | %.1f |\n", m.LatencyP95MS)
	if m.AvgTotalTokens > 0 {
		fmt.Fprintf(&sb, "| avg_prompt_tokens | %.1f |\n", m.AvgPromptTokens)
		fmt.Fprintf(&sb, "| avg_completion_tokens | %.1f |\n", m.AvgCompletionTokens)
		fmt.Fprintf(&sb, "| avg_total_tokens | %.1f |\n", m.AvgTotalTokens)
	}
	sb.WriteString("\n")

	if m.ValidOnlyCases > 0 && m.ValidOnlyCases < m.TotalCases {
		fmt.Fprintf(&sb, "## Accuracy over schema-valid cases (%d)\n\n", m.ValidOnlyCases)
		sb.WriteString("| Metric | Value |\n|---|---|\n")
		fmt.Fprintf(&sb, "| category_accuracy | %.4f |\n", m.AccuracyValidOnly.Category)
		fmt.Fprintf(&sb, "| priority_accuracy | %.4f |\n", m.AccuracyValidOnly.Priority)
		fmt.Fprintf(&sb, "| device_accuracy | %.4f |\n", m.AccuracyValidOnly.Device)
		fmt.Fprintf(&sb, "| needs_clarification_accuracy | %.4f |\n", m.AccuracyValidOnly.Clarification)
		fmt.Fprintf(&sb, "| missing_fields_accuracy | %.4f |\n", m.AccuracyValidOnly.MissingFields)
		fmt.Fprintf(&sb, "| full_match_rate | %.4f |\n", m.AccuracyValidOnly.FullMatch)
		sb.WriteString("\n")
	}

	if len(report.Causes) > 0 {
		sb.WriteString("## Failure causes\n\n")
		sb.WriteString("| Cause | Count | Cases |\n|---|---|---|\n")
		for _, group := range report.Causes {
			fmt.Fprintf(&sb, "| %s | %d | %s |\n", group.Cause, group.Count, strings.Join(group.CaseIDs, ", "))
		}
		sb.WriteString("\n")
	}

	if len(report.Confusions) > 0 {
		sb.WriteString("## Category confusions\n\n")
		sb.WriteString("| Expected | Predicted | Count |\n|---|---|---|\n")
		for _, c := range report.Confusions {
			fmt.Fprintf(&sb, "| %s | %s | %d |\n", c.Expected, c.Actual, c.Count)
		}
		sb.WriteString("\n")
	}

	if len(report.Failures) > 0 {
		sb.WriteString("## Failed cases\n\n")
		for _, f := range report.Failures {
			if f.Cause != nil {
				fmt.Fprintf(&sb, "- `%s`: %s\n", f.CaseID, *f.Cause)
				continue
			}
			fmt.Fprintf(&sb, "- `%s`:\n", f.CaseID)
			for _, d := range f.Diffs {
				fmt.Fprintf(&sb, "  - %s: expected `%s`, got `%s`\n", d.Field, d.Expected, d.Actual)
			}
		}
		sb.WriteString("\n")
	}

	return sb.String()
}
