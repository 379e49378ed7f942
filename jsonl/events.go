package jsonl

import (
	"github.com/fwojciec/triageval"
)

// Compile-time interface verification.
var _ triageval.EventWriter = (*EventLog)(nil)

// EventLog appends runtime Event records to a JSONL file.
type EventLog struct {
	path string
}

// NewEventLog creates an event log bound to path.
func NewEventLog(path string) *EventLog {
	return &EventLog{path: path}
}

// Append writes one event as a JSONL row, creating parent directories
// if needed.
func (l *EventLog) Append(event triageval.Event) error {
	return appendLine(l.path, event)
}
