package mock

import (
	"github.com/fwojciec/triageval"
)

// Compile-time interface verification.
var (
	_ triageval.DatasetLoader = (*DatasetLoader)(nil)
	_ triageval.ResultWriter  = (*ResultWriter)(nil)
	_ triageval.EventWriter   = (*EventWriter)(nil)
	_ triageval.Renderer      = (*Renderer)(nil)
)

// DatasetLoader is a mock implementation of triageval.DatasetLoader.
type DatasetLoader struct {
	LoadFn func(path string) ([]triageval.GoldenCase, error)
}

func (l *DatasetLoader) Load(path string) ([]triageval.GoldenCase, error) {
	return l.LoadFn(path)
}

// ResultWriter is a mock implementation of triageval.ResultWriter.
type ResultWriter struct {
	AppendFn func(result triageval.CaseResult) error
}

func (w *ResultWriter) Append(result triageval.CaseResult) error {
	return w.AppendFn(result)
}

// EventWriter is a mock implementation of triageval.EventWriter.
type EventWriter struct {
	AppendFn func(event triageval.Event) error
}

func (w *EventWriter) Append(event triageval.Event) error {
	return w.AppendFn(event)
}

// Renderer is a mock implementation of triageval.Renderer.
type Renderer struct {
	RenderFn func(report triageval.Report) string
}

func (r *Renderer) Render(report triageval.Report) string {
	return r.RenderFn(report)
}
