// Package query provides JQ-based diagnostic querying over record
// snapshots, e.g. `.[] | select(.allows_null) | .path`.
package query

import (
	"encoding/json"
	"fmt"

	"github.com/itchyny/gojq"

	"github.com/rawneddy/fieldcatalog/internal/catalog"
)

// Engine executes JQ expressions against the JSON projection of records.
type Engine struct{}

// NewEngine creates a new query engine.
func NewEngine() *Engine {
	return &Engine{}
}

// Result contains the outcome of one query.
type Result struct {
	Values   []any    `json:"values"`
	Errors   []string `json:"errors,omitempty"` // per-value evaluation errors
	RawCount int      `json:"raw_count"`        // count before deduplication
}

// Query runs a JQ expression over a record snapshot. The snapshot is
// presented to the expression as a JSON array of record objects. Values are
// optionally deduplicated and capped at maxResults (0 = no cap).
func (e *Engine) Query(records []*catalog.FieldStats, expression string, deduplicate bool, maxResults int) (*Result, error) {
	parsed, err := gojq.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("invalid jq expression: %w", err)
	}
	code, err := gojq.Compile(parsed)
	if err != nil {
		return nil, fmt.Errorf("failed to compile jq expression: %w", err)
	}

	// Round-trip through JSON so the expression sees plain maps and the
	// record's json tags (field_id, path, min_occurs, ...).
	raw, err := json.Marshal(records)
	if err != nil {
		return nil, fmt.Errorf("encoding records: %w", err)
	}
	var input any
	if err := json.Unmarshal(raw, &input); err != nil {
		return nil, fmt.Errorf("decoding records: %w", err)
	}

	result := &Result{
		Values: make([]any, 0),
	}

	seen := make(map[string]bool)
	iter := code.Run(input)
	for {
		v, ok := iter.Next()
		if !ok {
			break
		}
		if evalErr, isErr := v.(error); isErr {
			result.Errors = append(result.Errors, evalErr.Error())
			continue
		}
		if v == nil {
			continue
		}

		result.RawCount++

		if deduplicate {
			key := valueKey(v)
			if seen[key] {
				continue
			}
			seen[key] = true
		}

		result.Values = append(result.Values, v)
		if maxResults > 0 && len(result.Values) >= maxResults {
			break
		}
	}
	return result, nil
}

// valueKey produces a stable deduplication key for a query value.
func valueKey(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
