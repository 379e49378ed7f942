package triageval

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Keyword patterns the rule cascade matches against lowercased ticket
// text. Grouped by the decision they feed.
var (
	securityRe = regexp.MustCompile(`\b(phishing|malware|ransomware|compromised|suspicious link|credential theft|` +
		`unauthorized|breach|confidential|data leak|lost phone|lost device|wrong external email)\b`)
	lostDeviceRe    = regexp.MustCompile(`\b(lost phone|lost device|stolen|missing phone|device stolen)\b`)
	corpAccessRe    = regexp.MustCompile(`\b(company email|corporate email|work email|company access|corporate access)\b`)
	laptopFailureRe = regexp.MustCompile(`\b(blue screen|bsod|boot loop|won't boot|wont boot|bitlocker|recovery key|startup repair)\b`)
	emailContextRe  = regexp.MustCompile(`\b(outlook|calendar|shared mailbox|delegate access|mailbox|invitation|meeting invite|exchange|shared calendar)\b`)
	accessRe        = regexp.MustCompile(`\b(access|permission|role|account|provisioning|onboarding|new employee|joiner|leaver|` +
		`grant access|requesting access|jira|confluence|okta|sso|sap system|vpn access)\b`)
	accessStrongRe = regexp.MustCompile(`\b(access denied|permission denied|account locked|onboarding|new employee|joiner|` +
		`jira|confluence|okta|sso|hr portal|sap|provisioning|role)\b`)
	physicalReplacementRe = regexp.MustCompile(`\b(replace|replacement|new laptop|new monitor|new keyboard)\b`)
	hardwareRequestRe     = regexp.MustCompile(`\b(new laptop|monitor|keyboard|mouse|dock)\b`)
	printToPDFRe          = regexp.MustCompile(`\b(print to pdf|pdf)\b`)
	printerRe             = regexp.MustCompile(`\b(printer|print queue|toner|paper jam|spooler)\b`)
	appNameRe             = regexp.MustCompile(`\b(teams|slack|zoom|outlook|chrome|edge|onedrive|sharepoint)\b`)
	softwareSymptomRe     = regexp.MustCompile(`\b(stuck loading|loading screen|crash|not opening|not working|freezing|won't start|wont start|spinning|hangs)\b`)
	vpnRe                 = regexp.MustCompile(`\b(vpn|anyconnect|pulse secure|error\s*(809|720|691))\b`)
	vpnErrorCodeRe        = regexp.MustCompile(`\berror\s*(809|720|691)\b`)
	strongOutageRe        = regexp.MustCompile(`\b(wifi is down|wifi down|wi-fi is down|wi-fi down|wireless is down|` +
		`no internet|internet down|can't connect|cannot connect|unable to connect|network outage|outage)\b`)
	outageMultiRe  = regexp.MustCompile(`\b(outage affecting multiple users|affecting multiple users|whole floor|entire floor|whole office)\b`)
	networkTermRe  = regexp.MustCompile(`\b(wifi|wi-fi|wireless|internet|network|connect|connection)\b`)
	networkPerfRe  = regexp.MustCompile(`\b(slow internet|internet is very slow|network is slow|times out|timeout)\b`)
	urgencyRe      = regexp.MustCompile(`\b(urgent|asap|immediately|critical|sev1|priority)\b`)
	outageScopeRe  = regexp.MustCompile(`\b(outage|down|whole company|company[-\s]?wide|whole team|all users|everyone|nobody can|can't connect)\b`)
	multiUserRe    = regexp.MustCompile(`\b(all users|everyone|whole floor|whole team|nobody)\b`)
	blockingWorkRe = regexp.MustCompile(`\b(can't work|cannot work|unable to work|blocked|can't log in|cannot log in|reboot loop|blue screen)\b`)
	accessUrgentRe = regexp.MustCompile(`\b(today|asap|urgent|blocked now|immediately)\b`)
	newJoinerRe    = regexp.MustCompile(`\b(new employee|new hire|joining|joiner|starts)\b`)
	loginWordRe    = regexp.MustCompile(`\b(login|log in|signin|sign in|password)\b`)
	bitlockerRe    = regexp.MustCompile(`\b(bitlocker|recovery key|windows laptop)\b`)
	hotspotWifiRe  = regexp.MustCompile(`(vpn works via hotspot|vpn works from .*hotspot|hotspot works).*(home wi-?fi)|` +
		`(home wi-?fi).*(vpn works via hotspot|hotspot works)`)
	corpNetworkRe     = regexp.MustCompile(`\b(company network|office network)\b`)
	externalServiceRe = regexp.MustCompile(`\b(github|external site|external services?)\b`)
	netBlockSymptomRe = regexp.MustCompile(`\b(timeout|times out|time out|dns|proxy)\b`)
	cannotAccessRe    = regexp.MustCompile(`\b(cannot access|can't access)\b`)
	errorHintRe    = regexp.MustCompile(`\b(error|code|failed|denied|incorrect|timeout|screenshot)\b`)
	locationHintRe = regexp.MustCompile(`\b(home|office|floor|room|building|site|remote|location)\b`)
	brokenThingRe  = regexp.MustCompile(`\b(flicker|flickers|flickering|not working|issue|broken|fails)\b`)
	deviceWordRe   = regexp.MustCompile(`\b(windows|mac|macbook|iphone|ios|android|linux)\b`)
)

// Patterns used by the "already mentioned in the ticket" filter for
// missing-field candidates.
var (
	emailAddrRe     = regexp.MustCompile(`\b[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[A-Za-z]{2,}\b`)
	usernameRe      = regexp.MustCompile(`\b(username|user id|userid|user:)\b`)
	teamRe          = regexp.MustCompile(`\b(team|department|org|organization)\b`)
	accessLevelRe   = regexp.MustCompile(`\b(admin|read|write|viewer|editor|owner|role|access level)\b`)
	approvalRe      = regexp.MustCompile(`\b(manager|approval|approved|group)\b`)
	deadlineRe      = regexp.MustCompile(`\b(deadline|due|by|before|today|tomorrow|this week|eod|end of day|monday)\b`)
	timeHintRe      = regexp.MustCompile(`\b(since|started|start|today|yesterday|this morning|last night|next month|\d{1,2}:\d{2})\b`)
	printerIDRe     = regexp.MustCompile(`\b(printer\s*(id|model|number|#)|[A-Z]{1,4}-\d{2,5})\b`)
	connectionRe    = regexp.MustCompile(`\b(usb|ethernet|wifi|wi-fi|bluetooth|lan)\b`)
	speedTestRe     = regexp.MustCompile(`\b(speed test|mbps|latency|packet loss)\b`)
	vpnClientRe     = regexp.MustCompile(`\b(anyconnect|globalprotect|openvpn|pulse|forticlient)\b`)
	assetIDRe       = regexp.MustCompile(`\b(asset|serial|tag|hostname|device id)\b`)
	batteryRe       = regexp.MustCompile(`\b(battery|power|charging|charger)\b`)
	appMentionRe    = regexp.MustCompile(`\b(app|application|teams|zoom|slack|outlook|docker|chrome)\b`)
	phoneAssetRe    = regexp.MustCompile(`\b(phone|iphone|android|asset|id)\b`)
	timezoneRe      = regexp.MustCompile(`\b(utc|gmt|pst|est|ist|timezone)\b`)
	windowsVerRe    = regexp.MustCompile(`\bwindows\s*\d`)
	zoomVersionRe   = regexp.MustCompile(`\bzoom.*\b(version|v\d)`)
	slackVersionRe  = regexp.MustCompile(`\bslack.*\b(version|v\d)`)
	meetingIDRe     = regexp.MustCompile(`\bmeeting\s*id\b`)
	adminApprovalRe = regexp.MustCompile(`\b(admin|approval)\b`)
)

// canonicalFieldMap maps rule-internal field names onto the canonical
// vocabulary, in preference order. A field that is already canonical
// maps to itself implicitly.
var canonicalFieldMap = map[string][]string{
	"error_message":       {"error_message_or_screenshot", "screenshot_or_error_code"},
	"exact_error_message": {"error_message_or_screenshot", "screenshot_or_error_code"},
	"speed_test":          {"speed_test_result"},
	"since_when":          {"when_started", "start_time"},
	"wifi_or_ethernet":    {"connection_type"},
	"app_name":            {"application_name"},
	"role_needed":         {"role_or_permissions", "access_level", "role"},
	"time_window":         {"exact_time_window", "start_time"},
	"what_happened":       {"what_was_sent", "error_details"},
	"battery_or_power":    {"on_battery_or_power"},
	"apps_affected":       {"application_name"},
}

// defaultAllowedFields is the full set of canonical missing-field
// names the rule set can produce. Used when a dataset carries no
// expected missing fields to derive the vocabulary from.
var defaultAllowedFields = []string{
	"access_level", "admin_approval", "affected_domains", "alternate_contact",
	"application_name", "asset_id", "cable_or_port_tested", "calendar_name",
	"connection_type", "device_os", "device_type", "drive_name",
	"employee_email", "employee_name", "error_details",
	"error_message_or_screenshot", "exact_time_window", "home_router_model",
	"hr_portal_url", "is_company_managed", "is_vpn_on", "keyboard_type",
	"laptop_model", "last_known_time", "location", "location_floor",
	"manager_approval", "manager_approval_or_group", "meeting_id",
	"monitor_model", "phone_number_or_asset_id", "preferred_os",
	"printer_id_or_model", "recent_changes", "recipient_email_domain", "role",
	"role_or_permissions", "sap_system_name", "screenshot_or_error_code",
	"slack_version", "speed_test_result", "start_date", "start_time",
	"stop_code", "team", "team_distribution_list", "time_sent", "timezone",
	"username", "vpn_client_name", "what_was_sent", "when_started",
	"windows_version", "zoom_account_email", "zoom_version",
}

// Vocabulary is the closed set of missing-field names shared by the
// rule engine, the scorer, and the golden set. Out-of-vocabulary
// detection is structural: membership, not string matching scattered
// through the rules.
type Vocabulary struct {
	allowed map[string]bool
}

// NewVocabulary builds a vocabulary from an explicit field list.
func NewVocabulary(fields []string) Vocabulary {
	allowed := make(map[string]bool, len(fields))
	for _, f := range fields {
		allowed[f] = true
	}
	return Vocabulary{allowed: allowed}
}

// DefaultVocabulary returns the vocabulary covering every field the
// built-in rule set can produce.
func DefaultVocabulary() Vocabulary {
	return NewVocabulary(defaultAllowedFields)
}

// VocabularyFromDataset derives the vocabulary from the union of
// expected missing fields across the golden set. Falls back to the
// default vocabulary when the dataset declares none.
func VocabularyFromDataset(cases []GoldenCase) Vocabulary {
	var fields []string
	seen := map[string]bool{}
	for _, c := range cases {
		for _, f := range c.Expected.MissingFields {
			if f == "" || seen[f] {
				continue
			}
			seen[f] = true
			fields = append(fields, f)
		}
	}
	if len(fields) == 0 {
		return DefaultVocabulary()
	}
	return NewVocabulary(fields)
}

// Allows reports whether field belongs to the vocabulary.
func (v Vocabulary) Allows(field string) bool {
	return v.allowed[field]
}

// Canonicalize maps a rule-internal field name onto its canonical
// in-vocabulary form. The second return is false when neither the
// field nor any of its mappings is in the vocabulary.
func (v Vocabulary) Canonicalize(field string) (string, bool) {
	if v.allowed[field] {
		return field, true
	}
	for _, candidate := range canonicalFieldMap[field] {
		if v.allowed[candidate] {
			return candidate, true
		}
	}
	return "", false
}

// RuleConflictError reports that a rule computed a missing-field name
// outside the canonical vocabulary. This is a defect in the rule set
// or the vocabulary version, not a data problem.
type RuleConflictError struct {
	Field string
}

func (e *RuleConflictError) Error() string {
	return fmt.Sprintf("rule produced out-of-vocabulary missing field %q", e.Field)
}

// Engine maps normalized ticket signals to a triage decision. It is a
// pure function of its inputs and the vocabulary passed at
// construction: no I/O, no randomness, no hidden state. Identical
// signals always yield an identical decision.
type Engine struct {
	vocab Vocabulary
}

// NewEngine creates an engine bound to an explicit vocabulary.
func NewEngine(vocab Vocabulary) *Engine {
	return &Engine{vocab: vocab}
}

// Decide produces the triage decision for one ticket. The only error
// it can return is *RuleConflictError; it never fails on well-formed
// normalized input.
func (e *Engine) Decide(sig TicketSignals, inputText string) (*TriageDecision, error) {
	text := strings.ToLower(inputText)

	device := inferDevice(sig.DeviceHint, text)
	category := inferCategory(sig, text)
	priority := inferPriority(sig, category, text+" "+strings.ToLower(sig.Summary))

	missing, err := e.inferMissingFields(sig, category, text, inputText)
	if err != nil {
		return nil, err
	}
	needsClarification := inferNeedsClarification(sig, category, text, missing)

	// Missing fields only exist when they block action, and a
	// clarification request must name what is missing.
	if len(missing) > 0 && !needsClarification {
		missing = nil
	}
	if needsClarification && len(missing) == 0 {
		needsClarification = false
	}

	return &TriageDecision{
		Category:           category,
		Priority:           priority,
		Device:             device,
		NeedsClarification: needsClarification,
		MissingFields:      missing,
		Summary:            buildSummary(category, priority, device, needsClarification, missing),
	}, nil
}

// buildSummary renders the deterministic templated summary.
// Reproducibility matters more than prose quality here.
func buildSummary(category Category, priority Priority, device Device, needsClarification bool, missing []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s ticket", priority, category)
	if device != DeviceUnknown {
		fmt.Fprintf(&sb, " on %s", device)
	}
	if needsClarification {
		fmt.Fprintf(&sb, "; needs clarification (%s)", strings.Join(missing, ", "))
	}
	return sb.String()
}

// inferDevice resolves the device label. The normalized hint wins;
// when it is the unknown sentinel, keyword rules over the ticket text
// decide; otherwise the label stays Unknown.
func inferDevice(hint DeviceHint, text string) Device {
	if bitlockerRe.MatchString(text) {
		return DeviceWindows
	}
	// Works-via-hotspot tickets describe the network, not the device.
	if hotspotWifiRe.MatchString(text) {
		return DeviceUnknown
	}
	if isLostDeviceSecurity(text) && !deviceWordRe.MatchString(text) {
		return DeviceUnknown
	}

	switch hint {
	case HintWindows:
		return DeviceWindows
	case HintMac:
		return DeviceMac
	case HintIPhone:
		return DeviceIPhone
	case HintAndroid:
		return DeviceAndroid
	}

	switch {
	case strings.Contains(text, "windows"):
		return DeviceWindows
	case strings.Contains(text, "macbook"), strings.Contains(text, "mac"):
		return DeviceMac
	case strings.Contains(text, "iphone"), strings.Contains(text, "ios"):
		return DeviceIPhone
	case strings.Contains(text, "android"):
		return DeviceAndroid
	}
	return DeviceUnknown
}

// inferCategory applies the ordered category rules. First matching
// rule wins; precedence is fixed by this function's statement order.
func inferCategory(sig TicketSignals, text string) Category {
	hasSecurityKeywords := securityRe.MatchString(text)
	hasAccessKeyword := accessRe.MatchString(text)
	hasTrueOutage := isTrueNetworkOutage(sig, text)
	hasNetworkAccessIssue := networkPerfRe.MatchString(text) ||
		(strings.Contains(text, "company network") && strings.Contains(text, "access")) ||
		(strings.Contains(text, "cannot connect") && strings.Contains(text, "network"))
	hasSoftwareIssue := appNameRe.MatchString(text) && softwareSymptomRe.MatchString(text)

	// 1) Security beats everything, but needs text evidence.
	if hasSecurityKeywords || isLostDeviceSecurity(text) {
		return CategorySecurity
	}

	// 2) Laptop/OS failures beat generic software signals.
	if laptopFailureRe.MatchString(text) {
		return CategoryLaptop
	}

	// 3) Email/calendar/shared mailbox context.
	if emailContextRe.MatchString(text) {
		return CategoryEmail
	}

	// 4) Access, unless the ticket is purely a physical replacement.
	isPurePhysical := physicalReplacementRe.MatchString(text) && !hasAccessKeyword
	if hasAccessKeyword && (accessStrongRe.MatchString(text) || (!isPurePhysical && !hasNetworkAccessIssue)) {
		return CategoryAccess
	}

	// Device procurement is not access provisioning.
	if hardwareRequestRe.MatchString(text) && !hasAccessKeyword && !emailContextRe.MatchString(text) {
		return CategoryHardware
	}

	if printToPDFRe.MatchString(text) && !strings.Contains(text, "printer") {
		return CategorySoftware
	}

	// 5) Printer.
	if sig.MentionsPrinter || printerRe.MatchString(text) {
		return CategoryPrinter
	}

	// 6) Software vs a genuine network outage.
	if hasSoftwareIssue {
		if hasTrueOutage {
			return CategoryNetwork
		}
		return CategorySoftware
	}

	// 7) VPN.
	if sig.MentionsVPN || vpnRe.MatchString(text) {
		return CategoryVPN
	}

	if hasTrueOutage {
		return CategoryNetwork
	}
	if sig.MentionsWifiOrNetwork && networkPerfRe.MatchString(text) {
		return CategoryNetwork
	}

	// Signal fallbacks.
	if sig.AccessRequest {
		return CategoryAccess
	}
	if sig.MentionsLaptopIssue {
		return CategoryLaptop
	}
	if sig.MentionsEmail {
		return CategoryEmail
	}
	if sig.MentionsSoftwareApp {
		return CategorySoftware
	}
	return CategoryHardware
}

// inferPriority derives the priority from urgency cues and the
// category. Outage-class categories floor the priority regardless of
// stated urgency.
func inferPriority(sig TicketSignals, category Category, text string) Priority {
	urgent := urgencyRe.MatchString(text)
	outage := outageScopeRe.MatchString(text) || strongOutageRe.MatchString(text)
	multi := sig.Scope == ScopeMultipleUsers

	switch category {
	case CategorySecurity:
		if lostDeviceRe.MatchString(text) || securityRe.MatchString(text) {
			return PriorityP1
		}
		return PriorityP2

	case CategoryNetwork:
		if (multi && outage) || (outage && multiUserRe.MatchString(text)) {
			return PriorityP1
		}
		if multi {
			return PriorityP2
		}
		// Corporate network blocking an external service is actionable
		// infrastructure work even for a single user.
		if corpNetworkRe.MatchString(text) && externalServiceRe.MatchString(text) &&
			(netBlockSymptomRe.MatchString(text) || cannotAccessRe.MatchString(text)) {
			return PriorityP2
		}
		if networkPerfRe.MatchString(text) {
			return PriorityP3
		}
		if urgent {
			return PriorityP2
		}
		return PriorityP3

	case CategoryLaptop:
		if laptopFailureRe.MatchString(text) {
			return PriorityP1
		}
		if blockingWorkRe.MatchString(text) || urgent {
			return PriorityP2
		}
		return PriorityP3

	case CategoryVPN:
		if vpnErrorCodeRe.MatchString(text) || urgent || blockingWorkRe.MatchString(text) {
			return PriorityP2
		}
		return PriorityP3

	case CategoryAccess:
		if isPasswordReset(text) || strings.Contains(text, "can't access") || strings.Contains(text, "cannot access") {
			return PriorityP2
		}
		if accessUrgentRe.MatchString(text) || urgent {
			return PriorityP2
		}
		return PriorityP3

	case CategoryEmail:
		if multi && outage && !emailContextRe.MatchString(text) {
			return PriorityP1
		}
		if multi || urgent {
			return PriorityP2
		}
		return PriorityP3

	case CategorySoftware:
		if strings.Contains(text, "slack") && strings.Contains(text, "notification") &&
			strings.Contains(text, "update") && !urgent {
			return PriorityP4
		}
		if strings.Contains(text, "install") || strings.Contains(text, "request") || printToPDFRe.MatchString(text) {
			return PriorityP4
		}
		if urgent {
			return PriorityP2
		}
		return PriorityP3

	case CategoryHardware, CategoryPrinter:
		if urgent {
			return PriorityP2
		}
		if category == CategoryPrinter {
			return PriorityP3
		}
		if brokenThingRe.MatchString(text) {
			return PriorityP3
		}
		return PriorityP4
	}

	switch {
	case multi, urgent:
		return PriorityP2
	case sig.Scope == ScopeSingleUser:
		return PriorityP3
	}
	return PriorityP4
}

// inferNeedsClarification decides whether the ticket is actionable
// without going back to the reporter.
func inferNeedsClarification(sig TicketSignals, category Category, text string, missing []string) bool {
	if len(missing) == 0 {
		return false
	}

	if category == CategorySecurity && isLostDeviceSecurity(text) {
		return true
	}

	switch category {
	case CategoryVPN, CategoryNetwork, CategoryEmail, CategorySecurity:
		if isActionableIncident(sig, text) {
			return false
		}
	}

	switch category {
	case CategoryAccess:
		return anyIn(missing,
			"employee_name", "employee_email", "team", "access_level",
			"role_or_permissions", "start_date", "username", "manager_approval",
			"manager_approval_or_group", "sap_system_name", "drive_name",
			"hr_portal_url", "alternate_contact")
	case CategoryLaptop:
		return anyIn(missing,
			"username", "device_os", "when_started", "asset_id",
			"application_name", "on_battery_or_power", "stop_code", "recent_changes")
	case CategoryPrinter:
		return anyIn(missing, "printer_id_or_model", "location")
	}
	return true
}

// inferMissingFields computes the canonical fields a responder would
// still need, per category. Every entry is mapped through the
// vocabulary; an unmappable entry is a RuleConflict.
func (e *Engine) inferMissingFields(sig TicketSignals, category Category, text, inputText string) ([]string, error) {
	if category == CategorySecurity && isLostDeviceSecurity(text) {
		return e.canonicalize([]string{"device_type", "phone_number_or_asset_id", "last_known_time"})
	}

	switch category {
	case CategoryVPN:
		// Hotspot-vs-home-wifi tickets stay in the clarification path
		// even when they read as actionable.
		if !hotspotWifiRe.MatchString(text) && isActionableIncident(sig, text) {
			return nil, nil
		}
	case CategoryNetwork, CategoryEmail, CategorySecurity:
		if isActionableIncident(sig, text) {
			return nil, nil
		}
	}

	var candidates []string
	switch category {
	case CategoryAccess:
		if newJoinerRe.MatchString(text) {
			candidates = append(candidates, "employee_name", "employee_email", "team", "access_level", "start_date")
		}
		if strings.Contains(text, "sap") {
			candidates = append(candidates, "username", "sap_system_name", "role_or_permissions", "manager_approval")
		}
		if strings.Contains(text, "drive") {
			candidates = append(candidates, "drive_name", "manager_approval_or_group")
		}
		if strings.Contains(text, "hr portal") {
			candidates = append(candidates, "username", "hr_portal_url", "screenshot_or_error_code")
		}
		if isPasswordReset(text) {
			candidates = append(candidates, "username", "alternate_contact")
		}
		if len(candidates) == 0 {
			candidates = append(candidates, "username", "access_level")
		}

	case CategoryLaptop:
		switch {
		case bitlockerRe.MatchString(text):
			candidates = append(candidates, "asset_id", "username", "is_company_managed")
		case !sig.AccessRequest && loginWordRe.MatchString(text):
			candidates = append(candidates, "device_os", "username", "when_started")
		case laptopFailureRe.MatchString(text):
			candidates = append(candidates, "device_os", "stop_code", "recent_changes")
		default:
			candidates = append(candidates, "device_os", "when_started", "apps_affected", "battery_or_power")
		}

	case CategoryPrinter:
		candidates = append(candidates, "printer_id_or_model", "location")

	case CategorySoftware:
		if appNameRe.MatchString(text) && softwareSymptomRe.MatchString(text) {
			candidates = append(candidates, "when_started", "error_message")
		}
		if strings.Contains(text, "zoom") {
			candidates = append(candidates, "zoom_version")
			if strings.Contains(text, "removed") {
				candidates = append(candidates, "device_os", "zoom_account_email", "meeting_id")
			}
		}
		if strings.Contains(text, "slack") {
			candidates = append(candidates, "slack_version", "when_started")
		}
		if strings.Contains(text, "docker") {
			candidates = append(candidates, "admin_approval", "windows_version")
		}
		if printToPDFRe.MatchString(text) {
			candidates = append(candidates, "device_os", "app_name", "when_started")
		}
		if len(candidates) == 0 && sig.MentionsSoftwareApp {
			candidates = append(candidates, "when_started", "error_message")
		}

	case CategoryNetwork:
		if strings.Contains(text, "slow") {
			return e.canonicalize([]string{"location_floor", "speed_test", "start_time"})
		}
		if strings.Contains(text, "github") {
			candidates = append(candidates, "location", "is_vpn_on", "error_details")
		}
		if networkTermRe.MatchString(text) {
			candidates = append(candidates, "wifi_or_ethernet")
		}

	case CategoryVPN:
		if hotspotWifiRe.MatchString(text) {
			candidates = append(candidates, "device_os", "vpn_client_name", "home_router_model")
			break
		}
		candidates = append(candidates, "device_os", "vpn_client_name", "exact_error_message", "when_started")
		if strings.Contains(text, "home") || strings.Contains(text, "hotspot") {
			candidates = append(candidates, "home_router_model")
		}
		if strings.Contains(text, "night") || strings.Contains(text, "morning") {
			candidates = append(candidates, "timezone", "time_window")
		}

	case CategorySecurity:
		if strings.Contains(text, "external email") || strings.Contains(text, "sent") {
			candidates = append(candidates, "recipient_email_domain", "what_happened", "time_sent")
		}

	case CategoryEmail:
		if strings.Contains(text, "calendar") || strings.Contains(text, "mailbox") {
			candidates = append(candidates, "calendar_name", "team_distribution_list", "start_time")
		} else if strings.Contains(text, "delivery") && strings.Contains(text, "company") {
			candidates = append(candidates, "start_time", "affected_domains")
		}

	case CategoryHardware:
		if strings.Contains(text, "monitor") {
			candidates = append(candidates, "laptop_model", "monitor_model", "cable_or_port_tested")
		}
		if strings.Contains(text, "keyboard") {
			candidates = append(candidates, "keyboard_type", "connection_type", "when_started")
		}
		if strings.Contains(text, "new laptop") {
			candidates = append(candidates, "employee_name", "start_date", "role", "preferred_os")
		}
	}

	var unresolved []string
	for _, c := range dedupe(candidates) {
		if fieldMentioned(c, sig, text, inputText) {
			continue
		}
		unresolved = append(unresolved, c)
	}
	return e.canonicalize(unresolved)
}

// canonicalize maps every field through the vocabulary, deduplicating
// while preserving order. The first unmappable field aborts with a
// RuleConflictError.
func (e *Engine) canonicalize(fields []string) ([]string, error) {
	var out []string
	seen := map[string]bool{}
	for _, f := range dedupe(fields) {
		canonical, ok := e.vocab.Canonicalize(f)
		if !ok {
			return nil, &RuleConflictError{Field: f}
		}
		if seen[canonical] {
			continue
		}
		seen[canonical] = true
		out = append(out, canonical)
	}
	return out, nil
}

// fieldMentioned reports whether the ticket already supplies the
// information a candidate missing field asks for.
func fieldMentioned(field string, sig TicketSignals, text, inputText string) bool {
	switch field {
	case "device_os":
		return deviceWordRe.MatchString(text)
	case "username":
		return emailAddrRe.MatchString(text) || usernameRe.MatchString(text)
	case "employee_email", "alternate_contact":
		return emailAddrRe.MatchString(text)
	case "team", "team_distribution_list":
		return teamRe.MatchString(text)
	case "access_level", "role_or_permissions", "role":
		return accessLevelRe.MatchString(text)
	case "manager_approval", "manager_approval_or_group":
		return approvalRe.MatchString(text)
	case "start_date":
		return deadlineRe.MatchString(text)
	case "sap_system_name":
		return strings.Contains(text, "sap")
	case "drive_name":
		return strings.Contains(text, "drive")
	case "hr_portal_url":
		return strings.Contains(text, "hr portal")
	case "screenshot_or_error_code", "error_message", "exact_error_message", "error_details":
		return errorHintRe.MatchString(text)
	case "printer_id_or_model":
		return printerIDRe.MatchString(inputText)
	case "location", "location_floor":
		return locationHintRe.MatchString(text)
	case "when_started", "start_time", "time_sent", "time_window":
		return timeHintRe.MatchString(text)
	case "wifi_or_ethernet", "connection_type":
		return connectionRe.MatchString(text)
	case "speed_test":
		return speedTestRe.MatchString(text)
	case "vpn_client_name":
		return vpnClientRe.MatchString(text)
	case "home_router_model":
		return strings.Contains(text, "router")
	case "timezone":
		return timezoneRe.MatchString(text)
	case "zoom_version":
		return zoomVersionRe.MatchString(text)
	case "zoom_account_email":
		return strings.Contains(text, "zoom") && emailAddrRe.MatchString(text)
	case "meeting_id":
		return meetingIDRe.MatchString(text)
	case "slack_version":
		return slackVersionRe.MatchString(text)
	case "admin_approval":
		return adminApprovalRe.MatchString(text)
	case "app_name", "apps_affected":
		return appMentionRe.MatchString(text)
	case "device_type", "phone_number_or_asset_id":
		return phoneAssetRe.MatchString(text)
	case "last_known_time":
		return timeHintRe.MatchString(text)
	case "asset_id":
		return assetIDRe.MatchString(text)
	case "battery_or_power":
		return batteryRe.MatchString(text)
	case "recipient_email_domain", "what_happened":
		return emailAddrRe.MatchString(text) && strings.Contains(text, "sent")
	case "windows_version":
		return windowsVerRe.MatchString(text)
	case "scope":
		return sig.Scope != ScopeUnknown
	}
	return false
}

// isActionableIncident reports whether an incident ticket already
// carries enough scope and symptom detail to act on without
// clarification.
func isActionableIncident(sig TicketSignals, text string) bool {
	hasScopeOrLocation := sig.Scope != ScopeUnknown || locationHintRe.MatchString(text)
	hasClearSymptom := errorHintRe.MatchString(text) ||
		strongOutageRe.MatchString(text) ||
		loginWordRe.MatchString(text) ||
		vpnErrorCodeRe.MatchString(text) ||
		lostDeviceRe.MatchString(text)
	return hasScopeOrLocation && hasClearSymptom
}

// isTrueNetworkOutage distinguishes a genuine outage from mere
// network-adjacent wording.
func isTrueNetworkOutage(sig TicketSignals, text string) bool {
	explicitOutage := strongOutageRe.MatchString(text)
	multiUserSignal := sig.MentionsWifiOrNetwork &&
		sig.Scope == ScopeMultipleUsers &&
		networkTermRe.MatchString(text)
	return explicitOutage || multiUserSignal || outageMultiRe.MatchString(text)
}

func isLostDeviceSecurity(text string) bool {
	return lostDeviceRe.MatchString(text) &&
		(corpAccessRe.MatchString(text) || strings.Contains(text, "email") || strings.Contains(text, "access"))
}

func isPasswordReset(text string) bool {
	return strings.Contains(text, "password reset") ||
		(strings.Contains(text, "forgot") && strings.Contains(text, "password"))
}

func anyIn(fields []string, members ...string) bool {
	set := make(map[string]bool, len(members))
	for _, m := range members {
		set[m] = true
	}
	for _, f := range fields {
		if set[f] {
			return true
		}
	}
	return false
}

func dedupe(values []string) []string {
	seen := map[string]bool{}
	var out []string
	for _, v := range values {
		if seen[v] {
			continue
		}
		seen[v] = true
		out = append(out, v)
	}
	return out
}

// SortedFields returns a sorted copy of a missing-fields slice.
// Set semantics make the stored order irrelevant; sorting keeps logs
// and summaries stable across runs.
func SortedFields(fields []string) []string {
	out := make([]string, len(fields))
	copy(out, fields)
	sort.Strings(out)
	return out
}
