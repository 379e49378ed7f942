package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/fwojciec/triageval"
	"github.com/fwojciec/triageval/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func signalsJSON(deviceHint string, vpn bool) string {
	return fmt.Sprintf(`{
		"device_hint": %q,
		"mentions_vpn": %t,
		"mentions_email": false,
		"mentions_wifi_or_network": false,
		"mentions_printer": false,
		"mentions_software_app": false,
		"mentions_laptop_issue": false,
		"access_request": false,
		"security_incident": false,
		"scope": "single_user",
		"error_codes": [],
		"urgency_words": false,
		"summary": "vpn trouble"
	}`, deviceHint, vpn)
}

func goldenVPNCase(id string) triageval.GoldenCase {
	return triageval.GoldenCase{
		ID:        id,
		InputText: "VPN shows error 809 from my home office, Windows laptop. Started this morning.",
		Expected: triageval.TriageDecision{
			Category: triageval.CategoryVPN,
			Priority: triageval.PriorityP2,
			Device:   triageval.DeviceWindows,
		},
	}
}

func noBackoff(int) time.Duration { return 0 }

func TestRunner_Run(t *testing.T) {
	t.Parallel()

	t.Run("scores a clean case end to end", func(t *testing.T) {
		t.Parallel()

		provider := &mock.Provider{
			ExtractFn: func(ctx context.Context, inputText string) (*triageval.ProviderResult, error) {
				return &triageval.ProviderResult{
					RawText:   signalsJSON("windows", true),
					LatencyMS: 500,
					Usage:     &triageval.TokenUsage{TotalTokens: 100},
				}, nil
			},
		}

		runner := &Runner{
			Provider:  provider,
			Cases:     []triageval.GoldenCase{goldenVPNCase("t-001")},
			Vocab:     triageval.DefaultVocabulary(),
			ErrOutput: io.Discard,
			BackoffFn: noBackoff,
		}

		results, err := runner.Run(context.Background())

		require.NoError(t, err)
		require.Len(t, results, 1)
		assert.Nil(t, results[0].Cause)
		assert.True(t, results[0].CategoryCorrect)
		assert.True(t, results[0].PriorityCorrect)
		assert.True(t, results[0].DeviceCorrect)
		assert.Equal(t, 500.0, results[0].LatencyMS)
	})

	t.Run("writes results and events in dataset order with parallel workers", func(t *testing.T) {
		t.Parallel()

		cases := make([]triageval.GoldenCase, 8)
		for i := range cases {
			cases[i] = goldenVPNCase(fmt.Sprintf("t-%03d", i))
		}

		provider := &mock.Provider{
			ExtractFn: func(ctx context.Context, inputText string) (*triageval.ProviderResult, error) {
				return &triageval.ProviderResult{RawText: signalsJSON("windows", true)}, nil
			},
		}

		var written []string
		results := &mock.ResultWriter{
			AppendFn: func(r triageval.CaseResult) error {
				written = append(written, r.CaseID)
				return nil
			},
		}
		var events []string
		eventLog := &mock.EventWriter{
			AppendFn: func(e triageval.Event) error {
				events = append(events, e.CaseID)
				return nil
			},
		}

		runner := &Runner{
			Provider:  provider,
			Cases:     cases,
			Vocab:     triageval.DefaultVocabulary(),
			Results:   results,
			Events:    eventLog,
			ErrOutput: io.Discard,
			Workers:   4,
			BackoffFn: noBackoff,
		}

		_, err := runner.Run(context.Background())

		require.NoError(t, err)
		require.Len(t, written, 8)
		for i, id := range written {
			assert.Equal(t, fmt.Sprintf("t-%03d", i), id)
		}
		assert.Equal(t, written, events)
	})

	t.Run("dataset vocabulary narrower than the rule set does not conflict", func(t *testing.T) {
		t.Parallel()

		golden := triageval.GoldenCase{
			ID:        "t-001",
			InputText: "Please grant permission for the new reporting tool.",
			Expected: triageval.TriageDecision{
				Category:           triageval.CategoryAccess,
				Priority:           triageval.PriorityP3,
				Device:             triageval.DeviceUnknown,
				NeedsClarification: true,
				MissingFields:      []string{"location"},
			},
		}

		provider := &mock.Provider{
			ExtractFn: func(ctx context.Context, inputText string) (*triageval.ProviderResult, error) {
				return &triageval.ProviderResult{RawText: `{
					"device_hint": "unknown",
					"mentions_vpn": false,
					"mentions_email": false,
					"mentions_wifi_or_network": false,
					"mentions_printer": false,
					"mentions_software_app": false,
					"mentions_laptop_issue": false,
					"access_request": true,
					"security_incident": false,
					"scope": "single_user",
					"error_codes": [],
					"urgency_words": false,
					"summary": "access request"
				}`}, nil
			},
		}

		runner := &Runner{
			Provider:  provider,
			Cases:     []triageval.GoldenCase{golden},
			Vocab:     triageval.VocabularyFromDataset([]triageval.GoldenCase{golden}),
			ErrOutput: io.Discard,
			BackoffFn: noBackoff,
		}

		results, err := runner.Run(context.Background())

		require.NoError(t, err)
		require.Len(t, results, 1)
		// Rule output the golden set never uses is a diagnostic, not a
		// rule-engine failure.
		assert.Nil(t, results[0].Cause)
		require.NotNil(t, results[0].Actual)
		assert.Equal(t, triageval.CategoryAccess, results[0].Actual.Category)
		assert.ElementsMatch(t, []string{"username", "access_level"}, results[0].Actual.MissingFields)
		assert.ElementsMatch(t, []string{"username", "access_level"}, results[0].UnknownMissingFields)
		assert.False(t, results[0].MissingFieldsCorrect)
	})

	t.Run("canceled context aborts a parallel run", func(t *testing.T) {
		t.Parallel()

		provider := &mock.Provider{
			ExtractFn: func(ctx context.Context, inputText string) (*triageval.ProviderResult, error) {
				return &triageval.ProviderResult{RawText: signalsJSON("windows", true)}, nil
			},
		}

		cases := make([]triageval.GoldenCase, 4)
		for i := range cases {
			cases[i] = goldenVPNCase(fmt.Sprintf("t-%03d", i))
		}

		runner := &Runner{
			Provider:  provider,
			Cases:     cases,
			Vocab:     triageval.DefaultVocabulary(),
			ErrOutput: io.Discard,
			Workers:   4,
			BackoffFn: noBackoff,
		}

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := runner.Run(ctx)

		assert.ErrorIs(t, err, context.Canceled)
	})

	t.Run("parallel runs emit progress", func(t *testing.T) {
		t.Parallel()

		provider := &mock.Provider{
			ExtractFn: func(ctx context.Context, inputText string) (*triageval.ProviderResult, error) {
				return &triageval.ProviderResult{RawText: signalsJSON("windows", true)}, nil
			},
		}

		cases := make([]triageval.GoldenCase, 4)
		for i := range cases {
			cases[i] = goldenVPNCase(fmt.Sprintf("t-%03d", i))
		}

		var buf syncBuffer
		runner := &Runner{
			Provider:      provider,
			Cases:         cases,
			Vocab:         triageval.DefaultVocabulary(),
			ErrOutput:     &buf,
			Workers:       2,
			ProgressEvery: 1,
			BackoffFn:     noBackoff,
		}

		_, err := runner.Run(context.Background())

		require.NoError(t, err)
		assert.Contains(t, buf.String(), "evaluated 4/4 cases")
	})

	t.Run("transport failure scores as EmptyOutput after retries", func(t *testing.T) {
		t.Parallel()

		calls := 0
		provider := &mock.Provider{
			ExtractFn: func(ctx context.Context, inputText string) (*triageval.ProviderResult, error) {
				calls++
				return nil, errors.New("connection refused")
			},
		}

		runner := &Runner{
			Provider:   provider,
			Cases:      []triageval.GoldenCase{goldenVPNCase("t-001")},
			Vocab:      triageval.DefaultVocabulary(),
			ErrOutput:  io.Discard,
			MaxRetries: 2,
			BackoffFn:  noBackoff,
		}

		results, err := runner.Run(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 2, calls)
		require.NotNil(t, results[0].Cause)
		assert.Equal(t, triageval.FailureEmptyOutput, *results[0].Cause)
	})

	t.Run("retries transport errors until success", func(t *testing.T) {
		t.Parallel()

		calls := 0
		provider := &mock.Provider{
			ExtractFn: func(ctx context.Context, inputText string) (*triageval.ProviderResult, error) {
				calls++
				if calls == 1 {
					return nil, errors.New("503")
				}
				return &triageval.ProviderResult{RawText: signalsJSON("windows", true)}, nil
			},
		}

		runner := &Runner{
			Provider:  provider,
			Cases:     []triageval.GoldenCase{goldenVPNCase("t-001")},
			Vocab:     triageval.DefaultVocabulary(),
			ErrOutput: io.Discard,
			BackoffFn: noBackoff,
		}

		results, err := runner.Run(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 2, calls)
		assert.Nil(t, results[0].Cause)
	})

	t.Run("does not retry malformed model output", func(t *testing.T) {
		t.Parallel()

		calls := 0
		provider := &mock.Provider{
			ExtractFn: func(ctx context.Context, inputText string) (*triageval.ProviderResult, error) {
				calls++
				return &triageval.ProviderResult{RawText: "no json here"}, nil
			},
		}

		runner := &Runner{
			Provider:  provider,
			Cases:     []triageval.GoldenCase{goldenVPNCase("t-001")},
			Vocab:     triageval.DefaultVocabulary(),
			ErrOutput: io.Discard,
			BackoffFn: noBackoff,
		}

		results, err := runner.Run(context.Background())

		require.NoError(t, err)
		assert.Equal(t, 1, calls)
		require.NotNil(t, results[0].Cause)
		assert.Equal(t, triageval.FailureExtractionFailure, *results[0].Cause)
	})

	t.Run("missing fields in output score as SchemaError", func(t *testing.T) {
		t.Parallel()

		provider := &mock.Provider{
			ExtractFn: func(ctx context.Context, inputText string) (*triageval.ProviderResult, error) {
				return &triageval.ProviderResult{RawText: `{"device_hint":"windows"}`}, nil
			},
		}

		runner := &Runner{
			Provider:  provider,
			Cases:     []triageval.GoldenCase{goldenVPNCase("t-001")},
			Vocab:     triageval.DefaultVocabulary(),
			ErrOutput: io.Discard,
			BackoffFn: noBackoff,
		}

		results, err := runner.Run(context.Background())

		require.NoError(t, err)
		require.NotNil(t, results[0].Cause)
		assert.Equal(t, triageval.FailureSchemaError, *results[0].Cause)
	})

	t.Run("static provider produces schema-valid output", func(t *testing.T) {
		t.Parallel()

		runner := &Runner{
			Provider:  mock.NewStaticProvider(),
			Cases:     []triageval.GoldenCase{goldenVPNCase("t-001")},
			Vocab:     triageval.DefaultVocabulary(),
			ErrOutput: io.Discard,
			BackoffFn: noBackoff,
		}

		results, err := runner.Run(context.Background())

		require.NoError(t, err)
		assert.Nil(t, results[0].Cause)
		assert.True(t, results[0].SchemaValid())
	})

	t.Run("events record status and sizes", func(t *testing.T) {
		t.Parallel()

		provider := &mock.Provider{
			ExtractFn: func(ctx context.Context, inputText string) (*triageval.ProviderResult, error) {
				return &triageval.ProviderResult{RawText: "garbage"}, nil
			},
		}

		var events []triageval.Event
		runner := &Runner{
			Provider: provider,
			Cases:    []triageval.GoldenCase{goldenVPNCase("t-001")},
			Vocab:    triageval.DefaultVocabulary(),
			Events: &mock.EventWriter{AppendFn: func(e triageval.Event) error {
				events = append(events, e)
				return nil
			}},
			ErrOutput: io.Discard,
			BackoffFn: noBackoff,
		}

		_, err := runner.Run(context.Background())

		require.NoError(t, err)
		require.Len(t, events, 1)
		assert.Equal(t, "error", events[0].Status)
		assert.Equal(t, len("garbage"), events[0].ResponseChars)
		assert.Positive(t, events[0].InputChars)
		assert.False(t, events[0].Time.IsZero())
	})
}
