package triageval

import (
	"math"
	"sort"
)

// Metric names usable in gate configurations.
const (
	MetricTotalCases                  = "total_cases"
	MetricJSONValidRate               = "json_valid_rate"
	MetricSchemaValidRate             = "schema_valid_rate"
	MetricCategoryAccuracy            = "category_accuracy"
	MetricPriorityAccuracy            = "priority_accuracy"
	MetricDeviceAccuracy              = "device_accuracy"
	MetricClarificationAccuracy       = "needs_clarification_accuracy"
	MetricMissingFieldsAccuracy       = "missing_fields_accuracy"
	MetricFullMatchRate               = "full_match_rate"
	MetricCategoryAccuracyValid       = "category_accuracy_valid_only"
	MetricPriorityAccuracyValid       = "priority_accuracy_valid_only"
	MetricDeviceAccuracyValid         = "device_accuracy_valid_only"
	MetricClarificationAccuracyValid  = "needs_clarification_accuracy_valid_only"
	MetricMissingFieldsAccuracyValid  = "missing_fields_accuracy_valid_only"
	MetricFullMatchRateValid          = "full_match_rate_valid_only"
	MetricUnknownMissingFieldsRate    = "unknown_missing_fields_rate"
	MetricLatencyP50MS                = "latency_p50_ms"
	MetricLatencyP95MS                = "latency_p95_ms"
	MetricAvgPromptTokens             = "avg_prompt_tokens"
	MetricAvgCompletionTokens         = "avg_completion_tokens"
	MetricAvgTotalTokens              = "avg_total_tokens"
)

// FieldAccuracy carries per-field accuracy rates over some population
// of cases.
type FieldAccuracy struct {
	Category      float64 `json:"category"`
	Priority      float64 `json:"priority"`
	Device        float64 `json:"device"`
	Clarification float64 `json:"needs_clarification"`
	MissingFields float64 `json:"missing_fields"`
	FullMatch     float64 `json:"full_match"`
}

// MetricSet is the aggregate view of one run. All rates are in [0, 1];
// a rate over an empty population is 0.
type MetricSet struct {
	TotalCases      int     `json:"total_cases"`
	JSONValidRate   float64 `json:"json_valid_rate"`
	SchemaValidRate float64 `json:"schema_valid_rate"`

	// Accuracy is over all cases; failed cases count as wrong.
	Accuracy FieldAccuracy `json:"accuracy"`

	// AccuracyValidOnly is over schema-valid cases only, isolating
	// rule quality from provider reliability.
	ValidOnlyCases    int           `json:"valid_only_cases"`
	AccuracyValidOnly FieldAccuracy `json:"accuracy_valid_only"`

	UnknownMissingFieldsRate float64 `json:"unknown_missing_fields_rate"`

	LatencyP50MS float64 `json:"latency_p50_ms"`
	LatencyP95MS float64 `json:"latency_p95_ms"`

	AvgPromptTokens     float64 `json:"avg_prompt_tokens"`
	AvgCompletionTokens float64 `json:"avg_completion_tokens"`
	AvgTotalTokens      float64 `json:"avg_total_tokens"`

	FailureCauseCounts map[FailureCause]int `json:"failure_cause_counts"`
}

// Aggregate folds case results into a MetricSet. Pure and
// order-independent: any permutation of results yields the same set,
// and aggregating twice yields the same set as once.
func Aggregate(results []CaseResult) MetricSet {
	m := MetricSet{
		TotalCases:         len(results),
		FailureCauseCounts: map[FailureCause]int{},
	}
	if len(results) == 0 {
		return m
	}

	var (
		jsonValid, schemaValid int
		withUnknown            int
		latencies              []float64
		promptSum              float64
		completionSum          float64
		totalSum               float64
		withUsage              int
	)
	var all, validOnly accuracyCounter

	for _, r := range results {
		if r.JSONValid() {
			jsonValid++
		}
		if r.SchemaValid() {
			schemaValid++
		}
		if r.Cause != nil {
			m.FailureCauseCounts[*r.Cause]++
		}
		if len(r.UnknownMissingFields) > 0 {
			withUnknown++
		}

		all.add(r)
		if r.SchemaValid() {
			validOnly.add(r)
		}

		latencies = append(latencies, r.LatencyMS)
		if r.Usage != nil {
			withUsage++
			promptSum += float64(r.Usage.PromptTokens)
			completionSum += float64(r.Usage.CompletionTokens)
			totalSum += float64(r.Usage.TotalTokens)
		}
	}

	n := float64(len(results))
	m.JSONValidRate = float64(jsonValid) / n
	m.SchemaValidRate = float64(schemaValid) / n
	m.UnknownMissingFieldsRate = float64(withUnknown) / n
	m.Accuracy = all.rates()
	m.ValidOnlyCases = validOnly.total
	m.AccuracyValidOnly = validOnly.rates()
	m.LatencyP50MS = Percentile(latencies, 50)
	m.LatencyP95MS = Percentile(latencies, 95)
	if withUsage > 0 {
		m.AvgPromptTokens = promptSum / float64(withUsage)
		m.AvgCompletionTokens = completionSum / float64(withUsage)
		m.AvgTotalTokens = totalSum / float64(withUsage)
	}
	return m
}

// Value looks up a metric by its gate-config name. The second return
// is false for unknown names.
func (m MetricSet) Value(name string) (float64, bool) {
	switch name {
	case MetricTotalCases:
		return float64(m.TotalCases), true
	case MetricJSONValidRate:
		return m.JSONValidRate, true
	case MetricSchemaValidRate:
		return m.SchemaValidRate, true
	case MetricCategoryAccuracy:
		return m.Accuracy.Category, true
	case MetricPriorityAccuracy:
		return m.Accuracy.Priority, true
	case MetricDeviceAccuracy:
		return m.Accuracy.Device, true
	case MetricClarificationAccuracy:
		return m.Accuracy.Clarification, true
	case MetricMissingFieldsAccuracy:
		return m.Accuracy.MissingFields, true
	case MetricFullMatchRate:
		return m.Accuracy.FullMatch, true
	case MetricCategoryAccuracyValid:
		return m.AccuracyValidOnly.Category, true
	case MetricPriorityAccuracyValid:
		return m.AccuracyValidOnly.Priority, true
	case MetricDeviceAccuracyValid:
		return m.AccuracyValidOnly.Device, true
	case MetricClarificationAccuracyValid:
		return m.AccuracyValidOnly.Clarification, true
	case MetricMissingFieldsAccuracyValid:
		return m.AccuracyValidOnly.MissingFields, true
	case MetricFullMatchRateValid:
		return m.AccuracyValidOnly.FullMatch, true
	case MetricUnknownMissingFieldsRate:
		return m.UnknownMissingFieldsRate, true
	case MetricLatencyP50MS:
		return m.LatencyP50MS, true
	case MetricLatencyP95MS:
		return m.LatencyP95MS, true
	case MetricAvgPromptTokens:
		return m.AvgPromptTokens, true
	case MetricAvgCompletionTokens:
		return m.AvgCompletionTokens, true
	case MetricAvgTotalTokens:
		return m.AvgTotalTokens, true
	}
	return 0, false
}

// KnownMetric reports whether name is a valid gate metric.
func KnownMetric(name string) bool {
	_, ok := MetricSet{}.Value(name)
	return ok
}

// Percentile computes the nearest-rank percentile: the value at rank
// ceil(p/100 * n), 1-indexed, over the sorted values. Returns 0 for an
// empty slice. Input is not mutated.
func Percentile(values []float64, p float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	rank := int(math.Ceil(p / 100 * float64(len(sorted))))
	if rank < 1 {
		rank = 1
	}
	if rank > len(sorted) {
		rank = len(sorted)
	}
	return sorted[rank-1]
}

type accuracyCounter struct {
	total         int
	category      int
	priority      int
	device        int
	clarification int
	missing       int
	full          int
}

func (c *accuracyCounter) add(r CaseResult) {
	c.total++
	if r.CategoryCorrect {
		c.category++
	}
	if r.PriorityCorrect {
		c.priority++
	}
	if r.DeviceCorrect {
		c.device++
	}
	if r.ClarificationCorrect {
		c.clarification++
	}
	if r.MissingFieldsCorrect {
		c.missing++
	}
	if r.FullyCorrect {
		c.full++
	}
}

func (c accuracyCounter) rates() FieldAccuracy {
	if c.total == 0 {
		return FieldAccuracy{}
	}
	n := float64(c.total)
	return FieldAccuracy{
		Category:      float64(c.category) / n,
		Priority:      float64(c.priority) / n,
		Device:        float64(c.device) / n,
		Clarification: float64(c.clarification) / n,
		MissingFields: float64(c.missing) / n,
		FullMatch:     float64(c.full) / n,
	}
}
