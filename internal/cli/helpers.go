package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rawneddy/fieldcatalog/internal/catalog"
	"github.com/rawneddy/fieldcatalog/internal/config"
	"github.com/rawneddy/fieldcatalog/pkg/types"
)

// openInput returns the batch source: the named file, or stdin when the
// path is empty.
func openInput(path string) (io.ReadCloser, error) {
	if path == "" {
		return io.NopCloser(os.Stdin), nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening input: %w", err)
	}
	return f, nil
}

// readBatches decodes NDJSON observation batches, one batch per line.
// Blank lines are skipped.
func readBatches(r io.Reader) ([]types.ObservationBatch, error) {
	var batches []types.ObservationBatch

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	line := 0
	for scanner.Scan() {
		line++
		text := strings.TrimSpace(scanner.Text())
		if text == "" {
			continue
		}
		var batch types.ObservationBatch
		if err := json.Unmarshal([]byte(text), &batch); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		batches = append(batches, batch)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading input: %w", err)
	}
	return batches, nil
}

// parseMetaPairs converts repeated k=v flags into a metadata map.
func parseMetaPairs(pairs []string) (map[string]string, error) {
	meta := make(map[string]string, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		if !ok || k == "" {
			return nil, fmt.Errorf("metadata pair must be k=v, got %q", p)
		}
		meta[k] = v
	}
	return meta, nil
}

// ingestAll creates the scope, merges every batch, and returns the stocked
// store alongside the registry. Batches for other scopes are rejected.
func ingestAll(ctx context.Context, scopeID string, requiredKeys []string, batches []types.ObservationBatch, cfg *config.Config, verbose bool) (*catalog.MemoryStore, *catalog.Scopes, error) {
	store := catalog.NewMemoryStore()
	scopes := catalog.NewScopes()
	if _, err := scopes.Create(scopeID, requiredKeys); err != nil {
		return nil, nil, err
	}

	engine := catalog.NewMergeEngine(store, scopes, cfg.MaxBatchSize)
	for i, batch := range batches {
		if batch.ScopeID != scopeID {
			return nil, nil, fmt.Errorf("batch %d targets scope %q, expected %q", i+1, batch.ScopeID, scopeID)
		}
		result, err := engine.MergeBatch(ctx, batch)
		if err != nil {
			return nil, nil, fmt.Errorf("batch %d: %w", i+1, err)
		}
		if verbose {
			fmt.Fprintf(os.Stderr, "batch %d: created=%d updated=%d skipped=%d absent=%d\n",
				i+1, result.Created, result.Updated, result.Skipped, result.Absent)
		}
		for _, msg := range result.Errors {
			fmt.Fprintf(os.Stderr, "batch %d: skipped observation: %s\n", i+1, msg)
		}
	}
	return store, scopes, nil
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
