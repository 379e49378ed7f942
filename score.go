package triageval

// ScoreCase compares one decision against its golden case and produces
// the immutable per-case record. cause != "" means the pipeline failed
// before a decision existed: every field flag scores false and the
// cause is recorded verbatim. Pure function, safe to call concurrently.
func ScoreCase(golden GoldenCase, actual *TriageDecision, cause FailureCause, latencyMS float64, usage *TokenUsage, rawText string, vocab Vocabulary) CaseResult {
	result := CaseResult{
		CaseID:    golden.ID,
		Expected:  golden.Expected,
		RawText:   rawText,
		LatencyMS: latencyMS,
		Usage:     usage,
	}

	if cause != "" {
		c := cause
		result.Cause = &c
		return result
	}

	result.Actual = actual
	result.CategoryCorrect = actual.Category == golden.Expected.Category
	result.PriorityCorrect = actual.Priority == golden.Expected.Priority
	result.DeviceCorrect = actual.Device == golden.Expected.Device
	result.ClarificationCorrect = actual.NeedsClarification == golden.Expected.NeedsClarification
	result.MissingFieldsCorrect = sameFieldSet(actual.MissingFields, golden.Expected.MissingFields)
	result.FullyCorrect = result.CategoryCorrect &&
		result.PriorityCorrect &&
		result.DeviceCorrect &&
		result.ClarificationCorrect &&
		result.MissingFieldsCorrect
	result.UnknownMissingFields = outOfVocabulary(actual.MissingFields, vocab)
	return result
}

// sameFieldSet compares missing-field lists as sets: order and
// duplicates are irrelevant.
func sameFieldSet(a, b []string) bool {
	setA := toSet(a)
	setB := toSet(b)
	if len(setA) != len(setB) {
		return false
	}
	for f := range setA {
		if !setB[f] {
			return false
		}
	}
	return true
}

// outOfVocabulary returns the predicted fields not present in the
// vocabulary, in prediction order. Tracked for diagnostics; the rule
// engine should make this impossible, so a non-empty result is a
// defect signal.
func outOfVocabulary(fields []string, vocab Vocabulary) []string {
	var out []string
	for _, f := range dedupe(fields) {
		if !vocab.Allows(f) {
			out = append(out, f)
		}
	}
	return out
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}
