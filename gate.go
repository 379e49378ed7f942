package triageval

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
)

// equalityEpsilon absorbs float accumulation noise in "==" gates so a
// rate computed as 0.9999999999 still passes a 1.0 equality check.
const equalityEpsilon = 1e-9

// GateOp is a gate comparison operator.
type GateOp string

// Gate operators.
const (
	OpGTE GateOp = ">="
	OpLTE GateOp = "<="
	OpGT  GateOp = ">"
	OpLT  GateOp = "<"
	OpEQ  GateOp = "=="
)

// Valid reports whether op is a known operator.
func (op GateOp) Valid() bool {
	switch op {
	case OpGTE, OpLTE, OpGT, OpLT, OpEQ:
		return true
	}
	return false
}

// Gate is one threshold check against a named metric.
type Gate struct {
	Metric    string  `json:"metric"`
	Op        GateOp  `json:"op"`
	Threshold float64 `json:"threshold"`
}

func (g Gate) String() string {
	return fmt.Sprintf("%s %s %g", g.Metric, g.Op, g.Threshold)
}

// check applies the gate to a metric value.
func (g Gate) check(value float64) bool {
	switch g.Op {
	case OpGTE:
		return value >= g.Threshold
	case OpLTE:
		return value <= g.Threshold
	case OpGT:
		return value > g.Threshold
	case OpLT:
		return value < g.Threshold
	case OpEQ:
		return math.Abs(value-g.Threshold) <= equalityEpsilon
	}
	return false
}

// GateConfig is an ordered list of gates. Order is preserved into the
// verdict so reports read the same as the config.
type GateConfig struct {
	Gates []Gate `json:"gates"`
}

// Validate checks every gate references a known metric and operator.
func (c GateConfig) Validate() error {
	if len(c.Gates) == 0 {
		return fmt.Errorf("gate config declares no gates")
	}
	for i, g := range c.Gates {
		if g.Metric == "" {
			return fmt.Errorf("gate %d: missing metric name", i)
		}
		if !KnownMetric(g.Metric) {
			return fmt.Errorf("gate %d: unknown metric %q", i, g.Metric)
		}
		if !g.Op.Valid() {
			return fmt.Errorf("gate %d (%s): unknown operator %q", i, g.Metric, g.Op)
		}
	}
	return nil
}

// Evaluate applies every gate to the metric set. The run passes only
// if all gates pass; checks appear in config order.
func (c GateConfig) Evaluate(metrics MetricSet) GateVerdict {
	verdict := GateVerdict{Passed: true}
	for _, g := range c.Gates {
		value, _ := metrics.Value(g.Metric)
		passed := g.check(value)
		if !passed {
			verdict.Passed = false
		}
		verdict.Checks = append(verdict.Checks, GateResult{
			Gate:   g,
			Value:  value,
			Passed: passed,
		})
	}
	return verdict
}

// GateResult is the outcome of one gate check.
type GateResult struct {
	Gate   Gate    `json:"gate"`
	Value  float64 `json:"value"`
	Passed bool    `json:"passed"`
}

// GateVerdict is the outcome of evaluating a full gate config.
type GateVerdict struct {
	Passed bool         `json:"passed"`
	Checks []GateResult `json:"checks"`
}

// Failed returns the checks that did not pass, in config order.
func (v GateVerdict) Failed() []GateResult {
	var out []GateResult
	for _, c := range v.Checks {
		if !c.Passed {
			out = append(out, c)
		}
	}
	return out
}

// DefaultGateConfig returns the built-in release gates used when no
// config file is given.
func DefaultGateConfig() GateConfig {
	return GateConfig{Gates: []Gate{
		{Metric: MetricCategoryAccuracy, Op: OpGTE, Threshold: 0.85},
		{Metric: MetricSchemaValidRate, Op: OpEQ, Threshold: 1.0},
		{Metric: MetricLatencyP95MS, Op: OpLTE, Threshold: 2000},
	}}
}

// LoadGateConfig reads and validates a gate config from a JSON file.
func LoadGateConfig(path string) (GateConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return GateConfig{}, fmt.Errorf("reading gate config: %w", err)
	}
	var cfg GateConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return GateConfig{}, fmt.Errorf("parsing gate config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return GateConfig{}, fmt.Errorf("invalid gate config %s: %w", path, err)
	}
	return cfg, nil
}
