package triageval

import "strings"

// deviceHintSynonyms maps loosely-cased or synonymous device hints onto
// the canonical hint vocabulary.
var deviceHintSynonyms = map[string]DeviceHint{
	"windows": HintWindows,
	"win":     HintWindows,
	"pc":      HintWindows,
	"mac":     HintMac,
	"macos":   HintMac,
	"osx":     HintMac,
	"macbook": HintMac,
	"iphone":  HintIPhone,
	"ios":     HintIPhone,
	"android": HintAndroid,
}

// scopeSynonyms maps loose scope values onto the canonical vocabulary.
var scopeSynonyms = map[string]Scope{
	"single_user":    ScopeSingleUser,
	"single user":    ScopeSingleUser,
	"one user":       ScopeSingleUser,
	"individual":     ScopeSingleUser,
	"multiple_users": ScopeMultipleUsers,
	"multiple users": ScopeMultipleUsers,
	"many users":     ScopeMultipleUsers,
	"team":           ScopeMultipleUsers,
	"whole office":   ScopeMultipleUsers,
}

// Normalize canonicalizes raw extracted signals. It is total and
// deterministic: every input maps to exactly one output, and values
// that cannot be mapped become the explicit unknown sentinel rather
// than being dropped. Downstream rules must handle the sentinel.
func Normalize(raw RawSignals) TicketSignals {
	return TicketSignals{
		DeviceHint:            normalizeDeviceHint(raw.DeviceHint),
		MentionsVPN:           raw.MentionsVPN,
		MentionsEmail:         raw.MentionsEmail,
		MentionsWifiOrNetwork: raw.MentionsWifiOrNetwork,
		MentionsPrinter:       raw.MentionsPrinter,
		MentionsSoftwareApp:   raw.MentionsSoftwareApp,
		MentionsLaptopIssue:   raw.MentionsLaptopIssue,
		AccessRequest:         raw.AccessRequest,
		SecurityIncident:      raw.SecurityIncident,
		Scope:                 normalizeScope(raw.Scope),
		ErrorCodes:            normalizeErrorCodes(raw.ErrorCodes),
		UrgencyWords:          raw.UrgencyWords,
		Summary:               strings.TrimSpace(raw.Summary),
	}
}

func normalizeDeviceHint(value string) DeviceHint {
	key := strings.ToLower(strings.TrimSpace(value))
	if hint, ok := deviceHintSynonyms[key]; ok {
		return hint
	}
	return HintUnknown
}

func normalizeScope(value string) Scope {
	key := strings.ToLower(strings.TrimSpace(value))
	if scope, ok := scopeSynonyms[key]; ok {
		return scope
	}
	return ScopeUnknown
}

func normalizeErrorCodes(codes []string) []string {
	var out []string
	for _, code := range codes {
		trimmed := strings.TrimSpace(code)
		if trimmed == "" {
			continue
		}
		out = append(out, trimmed)
	}
	return out
}
