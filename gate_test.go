package triageval_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/fwojciec/triageval"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGateConfig_Evaluate(t *testing.T) {
	t.Parallel()

	t.Run("run below an accuracy threshold fails that gate", func(t *testing.T) {
		t.Parallel()

		metrics := triageval.MetricSet{
			Accuracy:        triageval.FieldAccuracy{Category: 0.80},
			SchemaValidRate: 1.0,
			LatencyP95MS:    900,
		}

		verdict := triageval.DefaultGateConfig().Evaluate(metrics)

		assert.False(t, verdict.Passed)
		failed := verdict.Failed()
		require.Len(t, failed, 1)
		assert.Equal(t, triageval.MetricCategoryAccuracy, failed[0].Gate.Metric)
		assert.Equal(t, 0.80, failed[0].Value)
	})

	t.Run("run meeting every threshold passes", func(t *testing.T) {
		t.Parallel()

		metrics := triageval.MetricSet{
			Accuracy:        triageval.FieldAccuracy{Category: 0.92},
			SchemaValidRate: 1.0,
			LatencyP95MS:    1800,
		}

		verdict := triageval.DefaultGateConfig().Evaluate(metrics)

		assert.True(t, verdict.Passed)
		assert.Empty(t, verdict.Failed())
	})

	t.Run("checks preserve config order", func(t *testing.T) {
		t.Parallel()

		cfg := triageval.GateConfig{Gates: []triageval.Gate{
			{Metric: triageval.MetricLatencyP95MS, Op: triageval.OpLTE, Threshold: 2000},
			{Metric: triageval.MetricCategoryAccuracy, Op: triageval.OpGTE, Threshold: 0.85},
		}}

		verdict := cfg.Evaluate(triageval.MetricSet{})

		require.Len(t, verdict.Checks, 2)
		assert.Equal(t, triageval.MetricLatencyP95MS, verdict.Checks[0].Gate.Metric)
		assert.Equal(t, triageval.MetricCategoryAccuracy, verdict.Checks[1].Gate.Metric)
	})

	t.Run("equality tolerates float accumulation noise", func(t *testing.T) {
		t.Parallel()

		cfg := triageval.GateConfig{Gates: []triageval.Gate{
			{Metric: triageval.MetricSchemaValidRate, Op: triageval.OpEQ, Threshold: 1.0},
		}}

		verdict := cfg.Evaluate(triageval.MetricSet{SchemaValidRate: 0.9999999999995})

		assert.True(t, verdict.Passed)
	})

	t.Run("strict comparisons stay strict", func(t *testing.T) {
		t.Parallel()

		cfg := triageval.GateConfig{Gates: []triageval.Gate{
			{Metric: triageval.MetricCategoryAccuracy, Op: triageval.OpGT, Threshold: 0.85},
		}}

		verdict := cfg.Evaluate(triageval.MetricSet{Accuracy: triageval.FieldAccuracy{Category: 0.85}})

		assert.False(t, verdict.Passed)
	})
}

func TestGateConfig_Validate(t *testing.T) {
	t.Parallel()

	t.Run("accepts the default config", func(t *testing.T) {
		t.Parallel()

		assert.NoError(t, triageval.DefaultGateConfig().Validate())
	})

	t.Run("rejects unknown metric", func(t *testing.T) {
		t.Parallel()

		cfg := triageval.GateConfig{Gates: []triageval.Gate{
			{Metric: "vibes", Op: triageval.OpGTE, Threshold: 1},
		}}

		err := cfg.Validate()

		require.Error(t, err)
		assert.Contains(t, err.Error(), "vibes")
	})

	t.Run("rejects unknown operator", func(t *testing.T) {
		t.Parallel()

		cfg := triageval.GateConfig{Gates: []triageval.Gate{
			{Metric: triageval.MetricCategoryAccuracy, Op: "~=", Threshold: 1},
		}}

		assert.Error(t, cfg.Validate())
	})

	t.Run("rejects empty config", func(t *testing.T) {
		t.Parallel()

		assert.Error(t, triageval.GateConfig{}.Validate())
	})
}

func TestLoadGateConfig(t *testing.T) {
	t.Parallel()

	t.Run("loads and validates a JSON config", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "gates.json")
		content := `{"gates": [
			{"metric": "category_accuracy", "op": ">=", "threshold": 0.9},
			{"metric": "latency_p95_ms", "op": "<=", "threshold": 1500}
		]}`
		require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

		cfg, err := triageval.LoadGateConfig(path)

		require.NoError(t, err)
		require.Len(t, cfg.Gates, 2)
		assert.Equal(t, triageval.OpGTE, cfg.Gates[0].Op)
		assert.Equal(t, 0.9, cfg.Gates[0].Threshold)
	})

	t.Run("rejects invalid config file", func(t *testing.T) {
		t.Parallel()

		path := filepath.Join(t.TempDir(), "gates.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"gates":[{"metric":"vibes","op":">=","threshold":1}]}`), 0o644))

		_, err := triageval.LoadGateConfig(path)

		assert.Error(t, err)
	})

	t.Run("errors on missing file", func(t *testing.T) {
		t.Parallel()

		_, err := triageval.LoadGateConfig(filepath.Join(t.TempDir(), "absent.json"))

		assert.Error(t, err)
	})
}
