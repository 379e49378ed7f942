package triageval_test

import (
	"testing"

	"github.com/fwojciec/triageval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mismatchResult(id string, expected, actual triageval.Category) triageval.CaseResult {
	return triageval.CaseResult{
		CaseID:               id,
		Expected:             triageval.TriageDecision{Category: expected, Priority: triageval.PriorityP3, Device: triageval.DeviceUnknown},
		Actual:               &triageval.TriageDecision{Category: actual, Priority: triageval.PriorityP3, Device: triageval.DeviceUnknown},
		PriorityCorrect:      true,
		DeviceCorrect:        true,
		ClarificationCorrect: true,
		MissingFieldsCorrect: true,
	}
}

func TestBuildReport(t *testing.T) {
	t.Parallel()

	t.Run("ranks causes by count descending", func(t *testing.T) {
		t.Parallel()

		results := []triageval.CaseResult{
			failedResult("t-001", triageval.FailureSchemaError, 0),
			failedResult("t-002", triageval.FailureInvalidJSON, 0),
			failedResult("t-003", triageval.FailureSchemaError, 0),
			okResult("t-004", 10),
		}

		report := triageval.BuildReport(results, triageval.Aggregate(results), triageval.GateVerdict{})

		require.Len(t, report.Causes, 2)
		assert.Equal(t, triageval.FailureSchemaError, report.Causes[0].Cause)
		assert.Equal(t, 2, report.Causes[0].Count)
		assert.Equal(t, []string{"t-001", "t-003"}, report.Causes[0].CaseIDs)
		assert.Equal(t, triageval.FailureInvalidJSON, report.Causes[1].Cause)
	})

	t.Run("collects category confusions", func(t *testing.T) {
		t.Parallel()

		results := []triageval.CaseResult{
			mismatchResult("t-001", triageval.CategoryVPN, triageval.CategoryNetwork),
			mismatchResult("t-002", triageval.CategoryVPN, triageval.CategoryNetwork),
			mismatchResult("t-003", triageval.CategoryPrinter, triageval.CategoryHardware),
		}

		report := triageval.BuildReport(results, triageval.Aggregate(results), triageval.GateVerdict{})

		require.Len(t, report.Confusions, 2)
		assert.Equal(t, triageval.CategoryVPN, report.Confusions[0].Expected)
		assert.Equal(t, triageval.CategoryNetwork, report.Confusions[0].Actual)
		assert.Equal(t, 2, report.Confusions[0].Count)
	})

	t.Run("failure entries carry field diffs", func(t *testing.T) {
		t.Parallel()

		results := []triageval.CaseResult{
			mismatchResult("t-001", triageval.CategoryVPN, triageval.CategoryNetwork),
			okResult("t-002", 10),
		}

		report := triageval.BuildReport(results, triageval.Aggregate(results), triageval.GateVerdict{})

		require.Len(t, report.Failures, 1)
		assert.Equal(t, "t-001", report.Failures[0].CaseID)
		require.Len(t, report.Failures[0].Diffs, 1)
		assert.Equal(t, "category", report.Failures[0].Diffs[0].Field)
		assert.Equal(t, "VPN", report.Failures[0].Diffs[0].Expected)
		assert.Equal(t, "Network", report.Failures[0].Diffs[0].Actual)
	})

	t.Run("pipeline failures carry their cause, not diffs", func(t *testing.T) {
		t.Parallel()

		results := []triageval.CaseResult{failedResult("t-001", triageval.FailureEmptyOutput, 0)}

		report := triageval.BuildReport(results, triageval.Aggregate(results), triageval.GateVerdict{})

		require.Len(t, report.Failures, 1)
		require.NotNil(t, report.Failures[0].Cause)
		assert.Equal(t, triageval.FailureEmptyOutput, *report.Failures[0].Cause)
		assert.Empty(t, report.Failures[0].Diffs)
	})
}

func TestRenderMarkdown(t *testing.T) {
	t.Parallel()

	t.Run("renders verdict, gates, and breakdowns", func(t *testing.T) {
		t.Parallel()

		results := []triageval.CaseResult{
			mismatchResult("t-001", triageval.CategoryVPN, triageval.CategoryNetwork),
			failedResult("t-002", triageval.FailureInvalidJSON, 50),
			okResult("t-003", 400),
		}
		metrics := triageval.Aggregate(results)
		verdict := triageval.DefaultGateConfig().Evaluate(metrics)
		report := triageval.BuildReport(results, metrics, verdict)

		md := triageval.RenderMarkdown(report)

		assert.Contains(t, md, "# Triage Evaluation Report")
		assert.Contains(t, md, "**Gate verdict: FAIL**")
		assert.Contains(t, md, "category_accuracy >= 0.85")
		assert.Contains(t, md, "| InvalidJSON | 1 | t-002 |")
		assert.Contains(t, md, "| VPN | Network | 1 |")
		assert.Contains(t, md, "- `t-001`:")
		assert.Contains(t, md, "expected `VPN`, got `Network`")
	})

	t.Run("passing report says PASS", func(t *testing.T) {
		t.Parallel()

		results := []triageval.CaseResult{okResult("t-001", 100)}
		metrics := triageval.Aggregate(results)
		verdict := triageval.DefaultGateConfig().Evaluate(metrics)
		report := triageval.BuildReport(results, metrics, verdict)

		md := triageval.RenderMarkdown(report)

		assert.Contains(t, md, "**Gate verdict: PASS**")
		assert.NotContains(t, md, "## Failure causes")
	})
}
