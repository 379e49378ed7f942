package triageval_test

import (
	"testing"

	"github.com/fwojciec/triageval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validSignals = `{
	"device_hint": "windows",
	"mentions_vpn": true,
	"mentions_email": false,
	"mentions_wifi_or_network": false,
	"mentions_printer": false,
	"mentions_software_app": false,
	"mentions_laptop_issue": false,
	"access_request": false,
	"security_incident": false,
	"scope": "single_user",
	"error_codes": ["809"],
	"urgency_words": true,
	"summary": "VPN fails with error 809"
}`

func TestParseSignals(t *testing.T) {
	t.Parallel()

	t.Run("parses a complete payload", func(t *testing.T) {
		t.Parallel()

		sig, cause := triageval.ParseSignals(validSignals)

		require.Empty(t, cause)
		require.NotNil(t, sig)
		assert.Equal(t, "windows", sig.DeviceHint)
		assert.True(t, sig.MentionsVPN)
		assert.Equal(t, []string{"809"}, sig.ErrorCodes)
		assert.Equal(t, "VPN fails with error 809", sig.Summary)
	})

	t.Run("empty text is EmptyOutput", func(t *testing.T) {
		t.Parallel()

		for _, input := range []string{"", "   ", "\n\t"} {
			sig, cause := triageval.ParseSignals(input)

			assert.Nil(t, sig)
			assert.Equal(t, triageval.FailureEmptyOutput, cause)
		}
	})

	t.Run("prose around a valid object still parses", func(t *testing.T) {
		t.Parallel()

		sig, cause := triageval.ParseSignals("Sure! Here are the signals:\n" + validSignals + "\nLet me know if you need more.")

		require.Empty(t, cause)
		require.NotNil(t, sig)
		assert.Equal(t, "windows", sig.DeviceHint)
	})

	t.Run("text with no object is ExtractionFailure", func(t *testing.T) {
		t.Parallel()

		sig, cause := triageval.ParseSignals("I could not extract any signals from this ticket.")

		assert.Nil(t, sig)
		assert.Equal(t, triageval.FailureExtractionFailure, cause)
	})

	t.Run("broken embedded object is InvalidJSON", func(t *testing.T) {
		t.Parallel()

		sig, cause := triageval.ParseSignals(`Here you go: {"device_hint": "windows", "mentions_vpn": }`)

		assert.Nil(t, sig)
		assert.Equal(t, triageval.FailureInvalidJSON, cause)
	})

	t.Run("missing required field is SchemaError", func(t *testing.T) {
		t.Parallel()

		sig, cause := triageval.ParseSignals(`{"device_hint": "windows"}`)

		assert.Nil(t, sig)
		assert.Equal(t, triageval.FailureSchemaError, cause)
	})

	t.Run("wrong field type is SchemaError", func(t *testing.T) {
		t.Parallel()

		payload := `{
			"device_hint": "windows",
			"mentions_vpn": "yes",
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
			"summary": ""
		}`

		sig, cause := triageval.ParseSignals(payload)

		assert.Nil(t, sig)
		assert.Equal(t, triageval.FailureSchemaError, cause)
	})

	t.Run("unknown extra fields are tolerated", func(t *testing.T) {
		t.Parallel()

		payload := validSignals[:len(validSignals)-2] + `,
	"confidence": 0.9
}`

		sig, cause := triageval.ParseSignals(payload)

		require.Empty(t, cause)
		assert.NotNil(t, sig)
	})
}

func TestExtractJSONObject(t *testing.T) {
	t.Parallel()

	t.Run("extracts first balanced object", func(t *testing.T) {
		t.Parallel()

		got := triageval.ExtractJSONObject(`prefix {"a": {"b": 1}} suffix {"c": 2}`)

		assert.Equal(t, `{"a": {"b": 1}}`, got)
	})

	t.Run("ignores braces inside strings", func(t *testing.T) {
		t.Parallel()

		got := triageval.ExtractJSONObject(`{"msg": "brace } inside", "n": 1}`)

		assert.Equal(t, `{"msg": "brace } inside", "n": 1}`, got)
	})

	t.Run("handles escaped quotes inside strings", func(t *testing.T) {
		t.Parallel()

		got := triageval.ExtractJSONObject(`{"msg": "quote \" then } brace", "n": 1}`)

		assert.Equal(t, `{"msg": "quote \" then } brace", "n": 1}`, got)
	})

	t.Run("returns empty for no object", func(t *testing.T) {
		t.Parallel()

		assert.Empty(t, triageval.ExtractJSONObject("no braces here"))
		assert.Empty(t, triageval.ExtractJSONObject("unbalanced { only"))
	})
}
