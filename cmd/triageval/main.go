package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fwojciec/triageval"
	"github.com/fwojciec/triageval/bubbletea"
	"github.com/fwojciec/triageval/gemini"
	"github.com/fwojciec/triageval/jsonl"
	"github.com/fwojciec/triageval/lipgloss"
	"github.com/fwojciec/triageval/mock"
)

// ErrGatesFailed signals a completed run whose quality gates did not
// pass. Reported through the exit code, not as a crash.
var ErrGatesFailed = errors.New("quality gates failed")

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	if len(os.Args) < 2 {
		return fmt.Errorf("usage: triageval <command>\n\nCommands:\n  run      Evaluate the golden dataset against a provider\n  report   Render a report from a results log\n  review   Open the failure review UI")
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	switch os.Args[1] {
	case "run":
		return runEval(ctx)
	case "report":
		return runReport()
	case "review":
		return runReview(ctx)
	default:
		return fmt.Errorf("unknown command %q", os.Args[1])
	}
}

func runEval(ctx context.Context) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	datasetPath := fs.String("dataset", "", "Golden dataset JSONL path (required)")
	resultsPath := fs.String("results", "results.jsonl", "Results log path (appended)")
	eventsPath := fs.String("events", "events.jsonl", "Events log path (appended)")
	gatesPath := fs.String("gates", "", "Gate config JSON path (default: built-in gates)")
	markdownPath := fs.String("md", "", "Also write a markdown report to this path")
	providerName := fs.String("provider", "gemini", "Provider: gemini or static")
	model := fs.String("model", gemini.DefaultModel, "Gemini model name")
	workers := fs.Int("workers", 4, "Number of parallel workers (1 = sequential)")
	timeout := fs.Duration("timeout", DefaultCaseTimeout, "Per-case timeout")

	if err := fs.Parse(os.Args[2:]); err != nil {
		return err
	}
	if *datasetPath == "" {
		return fmt.Errorf("usage: triageval run -dataset golden.jsonl [flags]")
	}

	cases, err := jsonl.NewDatasetLoader().Load(*datasetPath)
	if err != nil {
		return fmt.Errorf("loading dataset: %w", err)
	}
	if len(cases) == 0 {
		return fmt.Errorf("no cases found in %s", *datasetPath)
	}

	gates, err := loadGates(*gatesPath)
	if err != nil {
		return err
	}

	provider, cleanup, err := buildProvider(ctx, *providerName, *model)
	if err != nil {
		return err
	}
	defer cleanup()

	runner := &Runner{
		Provider:      provider,
		Cases:         cases,
		Vocab:         triageval.VocabularyFromDataset(cases),
		Results:       jsonl.NewResultLog(*resultsPath),
		Events:        jsonl.NewEventLog(*eventsPath),
		ErrOutput:     os.Stderr,
		Workers:       *workers,
		CaseTimeout:   *timeout,
		ProgressEvery: 10,
	}

	results, err := runner.Run(ctx)
	if err != nil {
		return err
	}

	return renderReport(results, gates, *markdownPath)
}

func runReport() error {
	fs := flag.NewFlagSet("report", flag.ExitOnError)
	gatesPath := fs.String("gates", "", "Gate config JSON path (default: built-in gates)")
	markdownPath := fs.String("md", "", "Also write a markdown report to this path")

	if err := fs.Parse(os.Args[2:]); err != nil {
		return err
	}
	args := fs.Args()
	if len(args) < 1 {
		return fmt.Errorf("usage: triageval report [flags] <results.jsonl>")
	}

	results, err := jsonl.LoadResults(args[0])
	if err != nil {
		return fmt.Errorf("loading results: %w", err)
	}
	if len(results) == 0 {
		return fmt.Errorf("no results found in %s", args[0])
	}

	gates, err := loadGates(*gatesPath)
	if err != nil {
		return err
	}

	return renderReport(results, gates, *markdownPath)
}

func runReview(ctx context.Context) error {
	fs := flag.NewFlagSet("review", flag.ExitOnError)
	datasetPath := fs.String("dataset", "", "Golden dataset JSONL path (for ticket text)")

	if err := fs.Parse(os.Args[2:]); err != nil {
		return err
	}
	args := fs.Args()
	if len(args) < 1 {
		return fmt.Errorf("usage: triageval review [-dataset golden.jsonl] <results.jsonl>")
	}

	results, err := jsonl.LoadResults(args[0])
	if err != nil {
		return fmt.Errorf("loading results: %w", err)
	}

	var dataset []triageval.GoldenCase
	if *datasetPath != "" {
		dataset, err = jsonl.NewDatasetLoader().Load(*datasetPath)
		if err != nil {
			return fmt.Errorf("loading dataset: %w", err)
		}
	}

	cases := bubbletea.ReviewCases(results, dataset)
	if len(cases) == 0 {
		fmt.Println("No failed cases to review.")
		return nil
	}

	p := tea.NewProgram(bubbletea.NewReviewModel(cases),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)
	if _, err := p.Run(); err != nil {
		return err
	}
	return nil
}

func loadGates(path string) (triageval.GateConfig, error) {
	if path == "" {
		return triageval.DefaultGateConfig(), nil
	}
	return triageval.LoadGateConfig(path)
}

func buildProvider(ctx context.Context, name, model string) (triageval.Provider, func(), error) {
	switch name {
	case "static":
		return mock.NewStaticProvider(), func() {}, nil
	case "gemini":
		apiKey := os.Getenv("GEMINI_API_KEY")
		if apiKey == "" {
			return nil, nil, fmt.Errorf("GEMINI_API_KEY environment variable required")
		}
		client, err := gemini.NewClient(ctx, apiKey)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to create Gemini client: %w", err)
		}
		return gemini.NewExtractor(client, model), func() { _ = client.Close() }, nil
	}
	return nil, nil, fmt.Errorf("unknown provider %q", name)
}

// renderReport aggregates, evaluates gates, and prints the styled
// report. Returns ErrGatesFailed when the verdict fails so the
// process exits non-zero.
func renderReport(results []triageval.CaseResult, gates triageval.GateConfig, markdownPath string) error {
	metrics := triageval.Aggregate(results)
	verdict := gates.Evaluate(metrics)
	report := triageval.BuildReport(results, metrics, verdict)

	fmt.Print(lipgloss.NewRenderer().Render(report))

	if markdownPath != "" {
		if err := os.WriteFile(markdownPath, []byte(triageval.RenderMarkdown(report)), 0o644); err != nil {
			return fmt.Errorf("writing markdown report: %w", err)
		}
	}

	if !verdict.Passed {
		return ErrGatesFailed
	}
	return nil
}
