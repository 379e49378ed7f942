package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"sync/atomic"
	"time"

	"github.com/fwojciec/triageval"
	"golang.org/x/sync/errgroup"
)

// DefaultMaxRetries is the default number of attempts for a provider
// call that fails at the transport level.
const DefaultMaxRetries = 3

// DefaultCaseTimeout bounds one provider call end to end.
const DefaultCaseTimeout = 30 * time.Second

// Runner evaluates every golden case through the full pipeline:
// provider call, signal validation, normalization, rule decision,
// scoring. Results and events are written in dataset order regardless
// of worker scheduling.
type Runner struct {
	Provider triageval.Provider
	Cases    []triageval.GoldenCase
	// Vocab is the scoring vocabulary, typically derived from the
	// dataset. It only feeds unknown-field diagnostics; the rule
	// engine always canonicalizes against its own full vocabulary.
	Vocab   triageval.Vocabulary
	Results triageval.ResultWriter
	Events  triageval.EventWriter

	ErrOutput io.Writer
	// Workers sets the number of parallel workers. If <= 1, runs sequentially.
	Workers     int
	CaseTimeout time.Duration
	MaxRetries  int
	// BackoffFn returns the backoff duration for a given attempt (1-indexed).
	// If nil, uses exponential backoff (1s, 2s, 4s...).
	BackoffFn func(attempt int) time.Duration
	// ProgressEvery emits a progress line to ErrOutput every N cases.
	// 0 disables progress output.
	ProgressEvery int
}

type caseOutcome struct {
	result triageval.CaseResult
	event  triageval.Event
}

// Run evaluates all cases and returns the scored results in dataset
// order. A provider transport failure never aborts the run; it scores
// as an EmptyOutput case. Context cancellation aborts the run in both
// sequential and parallel mode.
func (r *Runner) Run(ctx context.Context) ([]triageval.CaseResult, error) {
	outcomes := make([]caseOutcome, len(r.Cases))
	engine := triageval.NewEngine(triageval.DefaultVocabulary())

	if r.Workers > 1 {
		var done atomic.Int64
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(r.Workers)
		for i := range r.Cases {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				outcomes[i] = r.evaluateCase(gctx, engine, r.Cases[i])
				r.progress(int(done.Add(1)))
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return nil, err
		}
	} else {
		for i := range r.Cases {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			outcomes[i] = r.evaluateCase(ctx, engine, r.Cases[i])
			r.progress(i + 1)
		}
	}

	results := make([]triageval.CaseResult, len(outcomes))
	for i, o := range outcomes {
		results[i] = o.result
		if r.Results != nil {
			if err := r.Results.Append(o.result); err != nil {
				return nil, fmt.Errorf("writing result for case %s: %w", o.result.CaseID, err)
			}
		}
		if r.Events != nil {
			if err := r.Events.Append(o.event); err != nil {
				return nil, fmt.Errorf("writing event for case %s: %w", o.result.CaseID, err)
			}
		}
	}
	return results, nil
}

// evaluateCase runs the pipeline for one case. Every failure mode
// maps to a FailureCause on the result; this function itself cannot
// fail.
func (r *Runner) evaluateCase(ctx context.Context, engine *triageval.Engine, golden triageval.GoldenCase) caseOutcome {
	timeout := r.CaseTimeout
	if timeout == 0 {
		timeout = DefaultCaseTimeout
	}
	caseCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	provided, err := r.extractWithRetry(caseCtx, golden.InputText)
	if err != nil {
		// Transport failures and timeouts both mean the harness got
		// nothing usable from the provider.
		fmt.Fprintf(r.errOut(), "warning: case %s: provider error: %v\n", golden.ID, err)
		result := triageval.ScoreCase(golden, nil, triageval.FailureEmptyOutput, 0, nil, "", r.Vocab)
		return caseOutcome{result: result, event: buildEvent(golden, result)}
	}

	result := scorePipeline(engine, golden, provided, r.Vocab)
	return caseOutcome{result: result, event: buildEvent(golden, result)}
}

// scorePipeline takes a provider result through validation,
// normalization, decision, and scoring.
func scorePipeline(engine *triageval.Engine, golden triageval.GoldenCase, provided *triageval.ProviderResult, vocab triageval.Vocabulary) triageval.CaseResult {
	raw, cause := triageval.ParseSignals(provided.RawText)
	if cause != "" {
		return triageval.ScoreCase(golden, nil, cause, provided.LatencyMS, provided.Usage, provided.RawText, vocab)
	}

	signals := triageval.Normalize(*raw)
	decision, err := engine.Decide(signals, golden.InputText)
	if err != nil {
		// Decide only fails on rule conflicts.
		return triageval.ScoreCase(golden, nil, triageval.FailureRuleConflict, provided.LatencyMS, provided.Usage, provided.RawText, vocab)
	}

	return triageval.ScoreCase(golden, decision, "", provided.LatencyMS, provided.Usage, provided.RawText, vocab)
}

func buildEvent(golden triageval.GoldenCase, result triageval.CaseResult) triageval.Event {
	status := "ok"
	if result.Cause != nil {
		status = "error"
	}
	return triageval.Event{
		Time:          time.Now().UTC(),
		CaseID:        golden.ID,
		Status:        status,
		Cause:         result.Cause,
		LatencyMS:     result.LatencyMS,
		InputChars:    len(golden.InputText),
		ResponseChars: len(result.RawText),
	}
}

// extractWithRetry attempts the provider call with exponential backoff.
// Only transport errors are retried; malformed text is a valid answer
// the validator classifies downstream.
func (r *Runner) extractWithRetry(ctx context.Context, inputText string) (*triageval.ProviderResult, error) {
	maxRetries := r.MaxRetries
	if maxRetries == 0 {
		maxRetries = DefaultMaxRetries
	}
	backoffFn := r.BackoffFn
	if backoffFn == nil {
		backoffFn = func(attempt int) time.Duration {
			return time.Duration(1<<(attempt-1)) * time.Second
		}
	}

	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		result, err := r.Provider.Extract(ctx, inputText)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if attempt < maxRetries {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(backoffFn(attempt)):
			}
		}
	}
	return nil, lastErr
}

func (r *Runner) progress(done int) {
	if r.ProgressEvery <= 0 || done%r.ProgressEvery != 0 {
		return
	}
	fmt.Fprintf(r.errOut(), "evaluated %d/%d cases\n", done, len(r.Cases))
}

func (r *Runner) errOut() io.Writer {
	if r.ErrOutput != nil {
		return r.ErrOutput
	}
	return os.Stderr
}
