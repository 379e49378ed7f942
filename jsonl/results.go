package jsonl

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fwojciec/triageval"
)

// Compile-time interface verification.
var _ triageval.ResultWriter = (*ResultLog)(nil)

// ResultLog appends CaseResult records to a JSONL file. Append-only:
// past run records are never rewritten.
type ResultLog struct {
	path string
}

// NewResultLog creates a result log bound to path.
func NewResultLog(path string) *ResultLog {
	return &ResultLog{path: path}
}

// Append writes one result as a JSONL row, creating parent
// directories if needed.
func (l *ResultLog) Append(result triageval.CaseResult) error {
	return appendLine(l.path, result)
}

// LoadResults reads case results back from a JSONL file, for the
// report and review commands. Returns nil if the file doesn't exist.
func LoadResults(path string) ([]triageval.CaseResult, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	var results []triageval.CaseResult
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, maxLineSize), maxLineSize)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var r triageval.CaseResult
		if err := json.Unmarshal([]byte(line), &r); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		results = append(results, r)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return results, nil
}

// appendLine marshals v and appends it as one JSONL row.
func appendLine(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		return err
	}
	if _, err := f.WriteString("\n"); err != nil {
		return err
	}

	return nil
}
