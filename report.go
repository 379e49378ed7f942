package triageval

import (
	"fmt"
	"sort"
)

// CauseGroup counts one failure cause across a run, with the affected
// case IDs for drill-down.
type CauseGroup struct {
	Cause   FailureCause `json:"cause"`
	Count   int          `json:"count"`
	CaseIDs []string     `json:"case_ids"`
}

// Confusion is one expected-vs-predicted category pair with its count.
type Confusion struct {
	Expected Category `json:"expected"`
	Actual   Category `json:"actual"`
	Count    int      `json:"count"`
}

// FieldDiff is one expected-vs-actual mismatch on a scored field.
type FieldDiff struct {
	Field    string `json:"field"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
}

// CaseFailure is the report view of one imperfect case: either a
// pipeline failure cause or the field-level diffs.
type CaseFailure struct {
	CaseID string        `json:"id"`
	Cause  *FailureCause `json:"cause,omitempty"`
	Diffs  []FieldDiff   `json:"diffs,omitempty"`
}

// Report joins a run's metrics, its gate verdict, and the diagnostic
// breakdowns a reviewer needs to decide what to fix first.
type Report struct {
	Metrics    MetricSet     `json:"metrics"`
	Verdict    GateVerdict   `json:"verdict"`
	Causes     []CauseGroup  `json:"causes"`
	Confusions []Confusion   `json:"confusions"`
	Failures   []CaseFailure `json:"failures"`
}

// BuildReport assembles the report from scored results. Causes are
// ranked by count descending, ties broken by taxonomy order, so the
// most impactful failure mode leads.
func BuildReport(results []CaseResult, metrics MetricSet, verdict GateVerdict) Report {
	return Report{
		Metrics:    metrics,
		Verdict:    verdict,
		Causes:     rankCauses(results),
		Confusions: categoryConfusions(results),
		Failures:   caseFailures(results),
	}
}

func rankCauses(results []CaseResult) []CauseGroup {
	byCause := map[FailureCause][]string{}
	for _, r := range results {
		if r.Cause != nil {
			byCause[*r.Cause] = append(byCause[*r.Cause], r.CaseID)
		}
	}

	var groups []CauseGroup
	for _, cause := range FailureCauses {
		ids := byCause[cause]
		if len(ids) == 0 {
			continue
		}
		groups = append(groups, CauseGroup{Cause: cause, Count: len(ids), CaseIDs: ids})
	}
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Count > groups[j].Count
	})
	return groups
}

func categoryConfusions(results []CaseResult) []Confusion {
	type pair struct {
		expected Category
		actual   Category
	}
	counts := map[pair]int{}
	for _, r := range results {
		if r.Actual == nil || r.CategoryCorrect {
			continue
		}
		counts[pair{r.Expected.Category, r.Actual.Category}]++
	}

	var out []Confusion
	for p, n := range counts {
		out = append(out, Confusion{Expected: p.expected, Actual: p.actual, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		if out[i].Expected != out[j].Expected {
			return out[i].Expected < out[j].Expected
		}
		return out[i].Actual < out[j].Actual
	})
	return out
}

func caseFailures(results []CaseResult) []CaseFailure {
	var out []CaseFailure
	for _, r := range results {
		if r.FullyCorrect {
			continue
		}
		failure := CaseFailure{CaseID: r.CaseID, Cause: r.Cause}
		if r.Actual != nil {
			failure.Diffs = fieldDiffs(r)
		}
		out = append(out, failure)
	}
	return out
}

func fieldDiffs(r CaseResult) []FieldDiff {
	var diffs []FieldDiff
	if !r.CategoryCorrect {
		diffs = append(diffs, FieldDiff{"category", string(r.Expected.Category), string(r.Actual.Category)})
	}
	if !r.PriorityCorrect {
		diffs = append(diffs, FieldDiff{"priority", string(r.Expected.Priority), string(r.Actual.Priority)})
	}
	if !r.DeviceCorrect {
		diffs = append(diffs, FieldDiff{"device", string(r.Expected.Device), string(r.Actual.Device)})
	}
	if !r.ClarificationCorrect {
		diffs = append(diffs, FieldDiff{
			"needs_clarification",
			fmt.Sprintf("%t", r.Expected.NeedsClarification),
			fmt.Sprintf("%t", r.Actual.NeedsClarification),
		})
	}
	if !r.MissingFieldsCorrect {
		diffs = append(diffs, FieldDiff{
			"missing_fields",
			joinFields(r.Expected.MissingFields),
			joinFields(r.Actual.MissingFields),
		})
	}
	return diffs
}

func joinFields(fields []string) string {
	if len(fields) == 0 {
		return "(none)"
	}
	sorted := SortedFields(fields)
	out := sorted[0]
	for _, f := range sorted[1:] {
		out += ", " + f
	}
	return out
}
