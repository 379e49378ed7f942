// Package jsonl provides JSONL file handling for the golden dataset
// and the run's result and event logs.
package jsonl

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/fwojciec/triageval"
)

// Compile-time interface verification.
var _ triageval.DatasetLoader = (*DatasetLoader)(nil)

// DatasetLoader loads GoldenCase records from JSONL files.
type DatasetLoader struct{}

// NewDatasetLoader creates a new DatasetLoader.
func NewDatasetLoader() *DatasetLoader {
	return &DatasetLoader{}
}

// maxLineSize is the maximum size for a single JSONL line (4MB).
const maxLineSize = 4 * 1024 * 1024

// Load reads a JSONL file and returns all golden cases. Any malformed
// or invalid row fails the whole load: a partially-loaded golden set
// would silently shift every rate computed from it.
func (l *DatasetLoader) Load(path string) ([]triageval.GoldenCase, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cases []triageval.GoldenCase
	seen := map[string]int{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, maxLineSize), maxLineSize)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		var c triageval.GoldenCase
		if err := json.Unmarshal([]byte(line), &c); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		if err := validateCase(c); err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNum, err)
		}
		if prev, ok := seen[c.ID]; ok {
			return nil, fmt.Errorf("line %d: duplicate case id %q (first seen on line %d)", lineNum, c.ID, prev)
		}
		seen[c.ID] = lineNum
		cases = append(cases, c)
	}

	if err := scanner.Err(); err != nil {
		return nil, err
	}

	return cases, nil
}

func validateCase(c triageval.GoldenCase) error {
	if c.ID == "" {
		return fmt.Errorf("missing case id")
	}
	if strings.TrimSpace(c.InputText) == "" {
		return fmt.Errorf("case %s: empty input_text", c.ID)
	}
	if !c.Expected.Category.Valid() {
		return fmt.Errorf("case %s: invalid expected category %q", c.ID, c.Expected.Category)
	}
	if !c.Expected.Priority.Valid() {
		return fmt.Errorf("case %s: invalid expected priority %q", c.ID, c.Expected.Priority)
	}
	if !c.Expected.Device.Valid() {
		return fmt.Errorf("case %s: invalid expected device %q", c.ID, c.Expected.Device)
	}
	return nil
}
