// Package triageval provides domain types for evaluating LLM-based
// IT ticket triage against a golden reference set.
package triageval

import (
	"context"
	"time"
)

// Category is the final triage category assigned to a ticket.
type Category string

// Triage categories.
const (
	CategoryVPN      Category = "VPN"
	CategoryEmail    Category = "Email"
	CategoryAccess   Category = "Access"
	CategoryLaptop   Category = "Laptop"
	CategoryNetwork  Category = "Network"
	CategoryPrinter  Category = "Printer"
	CategorySoftware Category = "Software"
	CategorySecurity Category = "Security"
	CategoryHardware Category = "Hardware"
)

// Categories lists every valid category.
var Categories = []Category{
	CategoryVPN, CategoryEmail, CategoryAccess, CategoryLaptop,
	CategoryNetwork, CategoryPrinter, CategorySoftware,
	CategorySecurity, CategoryHardware,
}

// Valid reports whether c is a member of the closed category set.
func (c Category) Valid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

// Priority is the triage priority level, P1 (highest) through P4.
type Priority string

// Priority levels.
const (
	PriorityP1 Priority = "P1"
	PriorityP2 Priority = "P2"
	PriorityP3 Priority = "P3"
	PriorityP4 Priority = "P4"
)

// Priorities lists every valid priority.
var Priorities = []Priority{PriorityP1, PriorityP2, PriorityP3, PriorityP4}

// Valid reports whether p is a member of the closed priority set.
func (p Priority) Valid() bool {
	for _, v := range Priorities {
		if p == v {
			return true
		}
	}
	return false
}

// Device is the canonical device label for a ticket.
type Device string

// Device labels. DeviceUnknown is the explicit sentinel for "could not
// be determined" - it is a valid value, not an error.
const (
	DeviceWindows Device = "Windows"
	DeviceMac     Device = "Mac"
	DeviceIPhone  Device = "iPhone"
	DeviceAndroid Device = "Android"
	DeviceUnknown Device = "Unknown"
)

// Devices lists every valid device label.
var Devices = []Device{DeviceWindows, DeviceMac, DeviceIPhone, DeviceAndroid, DeviceUnknown}

// Valid reports whether d is a member of the closed device set.
func (d Device) Valid() bool {
	for _, v := range Devices {
		if d == v {
			return true
		}
	}
	return false
}

// DeviceHint is the model-extracted device signal, lowercase by convention.
type DeviceHint string

// Device hint values.
const (
	HintWindows DeviceHint = "windows"
	HintMac     DeviceHint = "mac"
	HintIPhone  DeviceHint = "iphone"
	HintAndroid DeviceHint = "android"
	HintUnknown DeviceHint = "unknown"
)

// Scope is the model-extracted blast-radius signal.
type Scope string

// Scope values.
const (
	ScopeSingleUser    Scope = "single_user"
	ScopeMultipleUsers Scope = "multiple_users"
	ScopeUnknown       Scope = "unknown"
)

// RawSignals is the model's extracted view of a ticket as it comes off
// the wire: shape-checked by ParseSignals but not yet canonicalized.
type RawSignals struct {
	DeviceHint            string   `json:"device_hint"`
	MentionsVPN           bool     `json:"mentions_vpn"`
	MentionsEmail         bool     `json:"mentions_email"`
	MentionsWifiOrNetwork bool     `json:"mentions_wifi_or_network"`
	MentionsPrinter       bool     `json:"mentions_printer"`
	MentionsSoftwareApp   bool     `json:"mentions_software_app"`
	MentionsLaptopIssue   bool     `json:"mentions_laptop_issue"`
	AccessRequest         bool     `json:"access_request"`
	SecurityIncident      bool     `json:"security_incident"`
	Scope                 string   `json:"scope"`
	ErrorCodes            []string `json:"error_codes"`
	UrgencyWords          bool     `json:"urgency_words"`
	Summary               string   `json:"summary"`
}

// TicketSignals is the canonicalized form of RawSignals: every
// enumerated field is drawn from its closed set, with the unknown
// sentinel standing in for anything that could not be mapped.
type TicketSignals struct {
	DeviceHint            DeviceHint
	MentionsVPN           bool
	MentionsEmail         bool
	MentionsWifiOrNetwork bool
	MentionsPrinter       bool
	MentionsSoftwareApp   bool
	MentionsLaptopIssue   bool
	AccessRequest         bool
	SecurityIncident      bool
	Scope                 Scope
	ErrorCodes            []string
	UrgencyWords          bool
	Summary               string
}

// TriageDecision is the rule engine's output for one ticket.
// Never mutated after creation.
type TriageDecision struct {
	Category           Category `json:"category"`
	Priority           Priority `json:"priority"`
	Device             Device   `json:"device"`
	NeedsClarification bool     `json:"needs_clarification"`
	MissingFields      []string `json:"missing_fields"`
	Summary            string   `json:"summary"`
}

// GoldenCase is one row of the reference dataset.
type GoldenCase struct {
	ID        string         `json:"id"`
	InputText string         `json:"input_text"`
	Expected  TriageDecision `json:"expected"`
}

// FailureCause classifies why a case's prediction diverged from the
// expected pipeline outcome. Attached to a case, never to the run.
type FailureCause string

// Failure causes, ordered roughly by pipeline stage.
const (
	// FailureInvalidJSON means the provider text does not parse as JSON.
	FailureInvalidJSON FailureCause = "InvalidJSON"
	// FailureEmptyOutput means the provider returned no usable text,
	// including per-case timeouts and transport errors.
	FailureEmptyOutput FailureCause = "EmptyOutput"
	// FailureSchemaError means parsed JSON is missing or mistypes
	// required signal fields.
	FailureSchemaError FailureCause = "SchemaError"
	// FailureExtractionFailure means no JSON object was extractable
	// from the surrounding text.
	FailureExtractionFailure FailureCause = "ExtractionFailure"
	// FailureRuleConflict means the rule engine violated an internal
	// invariant. A defect signal in the rule set, not a data problem.
	FailureRuleConflict FailureCause = "RuleConflict"
)

// FailureCauses lists every cause in reporting order.
var FailureCauses = []FailureCause{
	FailureInvalidJSON,
	FailureSchemaError,
	FailureEmptyOutput,
	FailureExtractionFailure,
	FailureRuleConflict,
}

// JSONValid reports whether a case with this cause still counts toward
// json_valid_rate. SchemaError and RuleConflict happen after a
// successful parse.
func (c FailureCause) JSONValid() bool {
	switch c {
	case FailureInvalidJSON, FailureEmptyOutput, FailureExtractionFailure:
		return false
	}
	return true
}

// SchemaValid reports whether a case with this cause passed schema
// validation.
func (c FailureCause) SchemaValid() bool {
	return c.JSONValid() && c != FailureSchemaError
}

// TokenUsage records provider token counts for one call.
type TokenUsage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ProviderResult is what the provider boundary returns for one case.
type ProviderResult struct {
	RawText   string
	LatencyMS float64
	Usage     *TokenUsage
}

// Provider produces raw model output for one ticket. Implementations
// must honor ctx cancellation; the core never inspects anything beyond
// the returned text and metadata.
type Provider interface {
	Extract(ctx context.Context, inputText string) (*ProviderResult, error)
}

// CaseResult joins one golden case with its scored outcome.
// Appended to the run's result log; never mutated after creation.
type CaseResult struct {
	CaseID   string          `json:"id"`
	Expected TriageDecision  `json:"expected"`
	Actual   *TriageDecision `json:"actual,omitempty"`
	Cause    *FailureCause   `json:"failure_cause,omitempty"`

	CategoryCorrect      bool `json:"category_correct"`
	PriorityCorrect      bool `json:"priority_correct"`
	DeviceCorrect        bool `json:"device_correct"`
	ClarificationCorrect bool `json:"needs_clarification_correct"`
	MissingFieldsCorrect bool `json:"missing_fields_correct"`
	FullyCorrect         bool `json:"fully_correct"`

	UnknownMissingFields []string    `json:"unknown_missing_fields,omitempty"`
	RawText              string      `json:"raw_text,omitempty"`
	LatencyMS            float64     `json:"latency_ms"`
	Usage                *TokenUsage `json:"usage,omitempty"`
}

// JSONValid reports whether the case's provider output parsed as JSON.
func (r CaseResult) JSONValid() bool {
	return r.Cause == nil || r.Cause.JSONValid()
}

// SchemaValid reports whether the case's provider output passed schema
// validation.
func (r CaseResult) SchemaValid() bool {
	return r.Cause == nil || r.Cause.SchemaValid()
}

// Event is one row of the runtime events log. Operational trend data,
// not correctness data.
type Event struct {
	Time          time.Time     `json:"ts"`
	CaseID        string        `json:"case_id"`
	Status        string        `json:"status"` // "ok" or "error"
	Cause         *FailureCause `json:"failure_cause,omitempty"`
	LatencyMS     float64       `json:"latency_ms"`
	InputChars    int           `json:"input_chars"`
	ResponseChars int           `json:"response_chars"`
}

// DatasetLoader loads the golden dataset. Malformed rows are a
// load-time fatal error, not a per-case failure.
type DatasetLoader interface {
	Load(path string) ([]GoldenCase, error)
}

// ResultWriter appends case results to the run's result log.
type ResultWriter interface {
	Append(result CaseResult) error
}

// EventWriter appends runtime events to the run's event log.
type EventWriter interface {
	Append(event Event) error
}

// Renderer turns a Report into display text.
type Renderer interface {
	Render(report Report) string
}
