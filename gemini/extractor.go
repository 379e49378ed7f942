package gemini

import (
	"context"
	"fmt"
	"time"

	"github.com/fwojciec/triageval"
)

// Compile-time interface verification.
var _ triageval.Provider = (*Extractor)(nil)

// DefaultExtractTimeout is the default timeout for a single extract call.
const DefaultExtractTimeout = 60 * time.Second

// Extractor implements triageval.Provider using Google Gemini. It
// returns whatever text the model produced; classifying that text is
// the validator's job, not the provider's.
type Extractor struct {
	client  GenerativeClient
	model   string
	timeout time.Duration
}

// ExtractorOption configures an Extractor.
type ExtractorOption func(*Extractor)

// WithTimeout sets the timeout for API calls.
func WithTimeout(d time.Duration) ExtractorOption {
	return func(e *Extractor) {
		e.timeout = d
	}
}

// NewExtractor creates a new Extractor.
func NewExtractor(client GenerativeClient, model string, opts ...ExtractorOption) *Extractor {
	e := &Extractor{
		client:  client,
		model:   model,
		timeout: DefaultExtractTimeout,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Extract asks the model for structured signals over one ticket.
// Latency covers the API call only, not prompt construction.
func (e *Extractor) Extract(ctx context.Context, inputText string) (*triageval.ProviderResult, error) {
	ctx, cancel := context.WithTimeout(ctx, e.timeout)
	defer cancel()

	contents := []*Content{{
		Parts: []*Part{{Text: BuildExtractionPrompt(inputText)}},
	}}

	start := time.Now()
	resp, err := e.client.GenerateContent(ctx, e.model, contents, BuildExtractionConfig())
	latencyMS := float64(time.Since(start)) / float64(time.Millisecond)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, fmt.Errorf("gemini: returned nil response")
	}

	return &triageval.ProviderResult{
		RawText:   resp.Text,
		LatencyMS: latencyMS,
		Usage:     resp.Usage,
	}, nil
}

// BuildExtractionPrompt creates the user prompt for signal extraction.
func BuildExtractionPrompt(inputText string) string {
	return fmt.Sprintf(`Extract structured signals from this IT support ticket.

## Ticket

%s

## Task

Report only what the ticket says. Do not categorize, prioritize, or
guess beyond the text.

- device_hint: the device platform the ticket mentions ("windows",
  "mac", "iphone", "android"), or "unknown" if none is stated
- mentions_vpn / mentions_email / mentions_wifi_or_network /
  mentions_printer / mentions_software_app / mentions_laptop_issue:
  whether the ticket text mentions that topic
- access_request: whether the ticket asks for access, permissions, or
  account provisioning
- security_incident: whether the ticket describes a possible security
  incident (phishing, lost device, data exposure)
- scope: "single_user" if one person is affected, "multiple_users" if
  more than one, "unknown" if the ticket does not say
- error_codes: every error code or identifier quoted in the ticket
- urgency_words: whether the ticket uses urgency language (urgent,
  asap, immediately, critical)
- summary: one sentence restating the ticket's problem

Respond with a single JSON object containing exactly these fields.`, inputText)
}

// BuildExtractionConfig returns config for extraction calls. The
// response schema mirrors the signal payload field for field.
func BuildExtractionConfig() *GenerateContentConfig {
	temp := float32(0.0) // extraction should be as deterministic as the model allows
	boolSchema := &Schema{Type: "boolean"}
	return &GenerateContentConfig{
		SystemInstruction: &Content{
			Parts: []*Part{{
				Text: `You are a signal extractor for IT support tickets.

You read one ticket and report observable signals as JSON. You never
triage: no categories, no priorities, no recommendations. If the
ticket does not state something, report the unknown value rather than
inferring it.`,
			}},
		},
		Temperature:      &temp,
		ResponseMIMEType: "application/json",
		ResponseSchema: &Schema{
			Type: "object",
			Properties: map[string]*Schema{
				"device_hint": {
					Type: "string",
					Enum: []string{"windows", "mac", "iphone", "android", "unknown"},
				},
				"mentions_vpn":             boolSchema,
				"mentions_email":           boolSchema,
				"mentions_wifi_or_network": boolSchema,
				"mentions_printer":         boolSchema,
				"mentions_software_app":    boolSchema,
				"mentions_laptop_issue":    boolSchema,
				"access_request":           boolSchema,
				"security_incident":        boolSchema,
				"scope": {
					Type: "string",
					Enum: []string{"single_user", "multiple_users", "unknown"},
				},
				"error_codes":   {Type: "array", Items: &Schema{Type: "string"}},
				"urgency_words": boolSchema,
				"summary":       {Type: "string"},
			},
			Required: []string{
				"device_hint", "mentions_vpn", "mentions_email",
				"mentions_wifi_or_network", "mentions_printer",
				"mentions_software_app", "mentions_laptop_issue",
				"access_request", "security_incident", "scope",
				"error_codes", "urgency_words", "summary",
			},
			PropertyOrdering: []string{
				"device_hint", "mentions_vpn", "mentions_email",
				"mentions_wifi_or_network", "mentions_printer",
				"mentions_software_app", "mentions_laptop_issue",
				"access_request", "security_incident", "scope",
				"error_codes", "urgency_words", "summary",
			},
		},
	}
}
