package gemini_test

import (
	"context"
	"testing"

	"github.com/fwojciec/triageval"
	"github.com/fwojciec/triageval/gemini"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractor_Extract(t *testing.T) {
	t.Parallel()

	t.Run("returns raw text and usage from the model", func(t *testing.T) {
		t.Parallel()

		client := &gemini.MockGenerativeClient{
			GenerateContentFn: func(ctx context.Context, model string, contents []*gemini.Content, config *gemini.GenerateContentConfig) (*gemini.GenerateContentResponse, error) {
				return &gemini.GenerateContentResponse{
					Text:  `{"device_hint":"windows"}`,
					Usage: &triageval.TokenUsage{PromptTokens: 100, CompletionTokens: 30, TotalTokens: 130},
				}, nil
			},
		}
		extractor := gemini.NewExtractor(client, gemini.DefaultModel)

		result, err := extractor.Extract(context.Background(), "VPN error 809 on my Windows laptop")

		require.NoError(t, err)
		assert.Equal(t, `{"device_hint":"windows"}`, result.RawText)
		require.NotNil(t, result.Usage)
		assert.Equal(t, 130, result.Usage.TotalTokens)
		assert.GreaterOrEqual(t, result.LatencyMS, 0.0)
	})

	t.Run("includes ticket text in the prompt", func(t *testing.T) {
		t.Parallel()

		var prompt string
		client := &gemini.MockGenerativeClient{
			GenerateContentFn: func(ctx context.Context, model string, contents []*gemini.Content, config *gemini.GenerateContentConfig) (*gemini.GenerateContentResponse, error) {
				prompt = contents[0].Parts[0].Text
				return &gemini.GenerateContentResponse{Text: "{}"}, nil
			},
		}
		extractor := gemini.NewExtractor(client, gemini.DefaultModel)

		_, err := extractor.Extract(context.Background(), "Printer on floor 3 shows a paper jam")

		require.NoError(t, err)
		assert.Contains(t, prompt, "Printer on floor 3 shows a paper jam")
	})

	t.Run("passes model name and structured config", func(t *testing.T) {
		t.Parallel()

		var gotModel string
		var gotConfig *gemini.GenerateContentConfig
		client := &gemini.MockGenerativeClient{
			GenerateContentFn: func(ctx context.Context, model string, contents []*gemini.Content, config *gemini.GenerateContentConfig) (*gemini.GenerateContentResponse, error) {
				gotModel = model
				gotConfig = config
				return &gemini.GenerateContentResponse{Text: "{}"}, nil
			},
		}
		extractor := gemini.NewExtractor(client, "gemini-test-model")

		_, err := extractor.Extract(context.Background(), "ticket")

		require.NoError(t, err)
		assert.Equal(t, "gemini-test-model", gotModel)
		require.NotNil(t, gotConfig)
		assert.Equal(t, "application/json", gotConfig.ResponseMIMEType)
		require.NotNil(t, gotConfig.ResponseSchema)
		assert.Contains(t, gotConfig.ResponseSchema.Required, "device_hint")
		assert.Contains(t, gotConfig.ResponseSchema.Required, "summary")
		assert.Equal(t, []string{"windows", "mac", "iphone", "android", "unknown"},
			gotConfig.ResponseSchema.Properties["device_hint"].Enum)
	})

	t.Run("propagates API errors without classifying them", func(t *testing.T) {
		t.Parallel()

		client := &gemini.MockGenerativeClient{
			GenerateContentFn: func(ctx context.Context, model string, contents []*gemini.Content, config *gemini.GenerateContentConfig) (*gemini.GenerateContentResponse, error) {
				return nil, gemini.NewAPIError(503, "service unavailable")
			},
		}
		extractor := gemini.NewExtractor(client, gemini.DefaultModel)

		_, err := extractor.Extract(context.Background(), "ticket")

		require.Error(t, err)
		var apiErr *gemini.APIError
		require.ErrorAs(t, err, &apiErr)
		assert.Equal(t, 503, apiErr.StatusCode)
	})

	t.Run("returns malformed model text untouched", func(t *testing.T) {
		t.Parallel()

		client := &gemini.MockGenerativeClient{
			GenerateContentFn: func(ctx context.Context, model string, contents []*gemini.Content, config *gemini.GenerateContentConfig) (*gemini.GenerateContentResponse, error) {
				return &gemini.GenerateContentResponse{Text: "Sure! Here are the signals: {broken"}, nil
			},
		}
		extractor := gemini.NewExtractor(client, gemini.DefaultModel)

		result, err := extractor.Extract(context.Background(), "ticket")

		require.NoError(t, err)
		assert.Equal(t, "Sure! Here are the signals: {broken", result.RawText)
	})
}
