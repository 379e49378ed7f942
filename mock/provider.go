// Package mock provides mock implementations of triageval interfaces.
package mock

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fwojciec/triageval"
)

// Compile-time interface verification.
var _ triageval.Provider = (*Provider)(nil)

// Provider is a mock implementation of triageval.Provider.
type Provider struct {
	ExtractFn func(ctx context.Context, inputText string) (*triageval.ProviderResult, error)
}

func (p *Provider) Extract(ctx context.Context, inputText string) (*triageval.ProviderResult, error) {
	return p.ExtractFn(ctx, inputText)
}

// Compile-time interface verification.
var _ triageval.Provider = (*StaticProvider)(nil)

// StaticProvider is a deterministic offline provider: it derives
// signals from the ticket text with trivial keyword checks and emits
// them as well-formed JSON. Useful for exercising the full pipeline
// without network access; its extraction quality is intentionally
// naive.
type StaticProvider struct{}

// NewStaticProvider creates a new StaticProvider.
func NewStaticProvider() *StaticProvider {
	return &StaticProvider{}
}

// Extract derives signals from inputText. Never fails and reports
// zero latency, so latency gates pass trivially under the static
// provider.
func (p *StaticProvider) Extract(_ context.Context, inputText string) (*triageval.ProviderResult, error) {
	lower := strings.ToLower(inputText)
	has := func(substrs ...string) bool {
		for _, s := range substrs {
			if strings.Contains(lower, s) {
				return true
			}
		}
		return false
	}

	raw := triageval.RawSignals{
		DeviceHint:            staticDeviceHint(lower),
		MentionsVPN:           has("vpn"),
		MentionsEmail:         has("email", "outlook", "mailbox"),
		MentionsWifiOrNetwork: has("wifi", "wi-fi", "network", "internet"),
		MentionsPrinter:       has("printer", "print"),
		MentionsSoftwareApp:   has("teams", "zoom", "slack", "app"),
		MentionsLaptopIssue:   has("laptop", "blue screen", "boot"),
		AccessRequest:         has("access", "permission", "account"),
		SecurityIncident:      has("phishing", "lost", "suspicious"),
		Scope:                 staticScope(lower),
		ErrorCodes:            []string{},
		UrgencyWords:          has("urgent", "asap", "immediately"),
		Summary:               firstSentence(inputText),
	}

	data, err := json.Marshal(raw)
	if err != nil {
		return nil, fmt.Errorf("static provider: %w", err)
	}

	return &triageval.ProviderResult{
		RawText:   string(data),
		LatencyMS: 0,
		Usage:     &triageval.TokenUsage{},
	}, nil
}

func staticDeviceHint(lower string) string {
	switch {
	case strings.Contains(lower, "windows"):
		return "windows"
	case strings.Contains(lower, "macbook"), strings.Contains(lower, "mac"):
		return "mac"
	case strings.Contains(lower, "iphone"), strings.Contains(lower, "ios"):
		return "iphone"
	case strings.Contains(lower, "android"):
		return "android"
	}
	return "unknown"
}

func staticScope(lower string) string {
	switch {
	case strings.Contains(lower, "everyone"),
		strings.Contains(lower, "whole"),
		strings.Contains(lower, "all users"),
		strings.Contains(lower, "team"):
		return "multiple_users"
	case strings.Contains(lower, "my "), strings.HasPrefix(lower, "i "):
		return "single_user"
	}
	return "unknown"
}

func firstSentence(text string) string {
	if i := strings.IndexAny(text, ".\n"); i >= 0 {
		return text[:i]
	}
	return text
}
