package triageval

import (
	"encoding/json"
	"strings"
)

// requiredSignalFields lists every field a well-formed signal payload
// must carry, with its expected JSON type enforced field by field in
// decodeSignals.
var requiredSignalFields = []string{
	"device_hint",
	"mentions_vpn",
	"mentions_email",
	"mentions_wifi_or_network",
	"mentions_printer",
	"mentions_software_app",
	"mentions_laptop_issue",
	"access_request",
	"security_incident",
	"scope",
	"error_codes",
	"urgency_words",
	"summary",
}

// ParseSignals classifies raw provider text into either a RawSignals
// value or a FailureCause. It is a pure function with no side effects:
// a FailureCause return stops the pipeline for that case.
//
// Classification order: empty input, JSON parse (with a best-effort
// extraction of an embedded object when the text carries surrounding
// prose), then required-field presence and type checks.
func ParseSignals(raw string) (*RawSignals, FailureCause) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, FailureEmptyOutput
	}

	obj, cause := parseObject(trimmed)
	if cause != "" {
		return nil, cause
	}

	signals, ok := decodeSignals(obj)
	if !ok {
		return nil, FailureSchemaError
	}
	return signals, ""
}

// parseObject parses text into a JSON object, falling back to
// extracting the first embedded object when the text does not parse
// as-is.
func parseObject(text string) (map[string]json.RawMessage, FailureCause) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(text), &obj); err == nil {
		return obj, ""
	}

	// The text may be a valid non-object JSON value ("a string", 42).
	// Those carry no extractable object either.
	candidate := ExtractJSONObject(text)
	if candidate == "" {
		return nil, FailureExtractionFailure
	}
	if err := json.Unmarshal([]byte(candidate), &obj); err != nil {
		return nil, FailureInvalidJSON
	}
	return obj, ""
}

// decodeSignals checks presence and type of every required field.
func decodeSignals(obj map[string]json.RawMessage) (*RawSignals, bool) {
	for _, field := range requiredSignalFields {
		if _, ok := obj[field]; !ok {
			return nil, false
		}
	}

	var sig RawSignals
	stringFields := map[string]*string{
		"device_hint": &sig.DeviceHint,
		"scope":       &sig.Scope,
		"summary":     &sig.Summary,
	}
	for field, dst := range stringFields {
		if err := json.Unmarshal(obj[field], dst); err != nil {
			return nil, false
		}
	}

	boolFields := map[string]*bool{
		"mentions_vpn":             &sig.MentionsVPN,
		"mentions_email":           &sig.MentionsEmail,
		"mentions_wifi_or_network": &sig.MentionsWifiOrNetwork,
		"mentions_printer":         &sig.MentionsPrinter,
		"mentions_software_app":    &sig.MentionsSoftwareApp,
		"mentions_laptop_issue":    &sig.MentionsLaptopIssue,
		"access_request":           &sig.AccessRequest,
		"security_incident":        &sig.SecurityIncident,
		"urgency_words":            &sig.UrgencyWords,
	}
	for field, dst := range boolFields {
		if err := json.Unmarshal(obj[field], dst); err != nil {
			return nil, false
		}
	}

	if err := json.Unmarshal(obj["error_codes"], &sig.ErrorCodes); err != nil {
		return nil, false
	}
	return &sig, true
}

// ExtractJSONObject returns the first balanced top-level JSON object
// embedded in text, or "" if none exists. Braces inside JSON strings
// are ignored, including escaped quotes.
func ExtractJSONObject(text string) string {
	depth := 0
	start := -1
	inString := false
	escaped := false

	for i, ch := range text {
		if inString {
			switch {
			case escaped:
				escaped = false
			case ch == '\\':
				escaped = true
			case ch == '"':
				inString = false
			}
			continue
		}

		switch ch {
		case '"':
			inString = true
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth > 0 {
				depth--
				if depth == 0 && start >= 0 {
					return text[start : i+1]
				}
			}
		}
	}
	return ""
}
