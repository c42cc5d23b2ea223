package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/rawneddy/fieldcatalog/internal/catalog"
	"github.com/rawneddy/fieldcatalog/internal/config"
	"github.com/rawneddy/fieldcatalog/internal/export"
	"github.com/rawneddy/fieldcatalog/internal/identity"
	"github.com/rawneddy/fieldcatalog/pkg/types"
)

// Execute implements the go-flags Commander interface for ExportCommand.
func (c *ExportCommand) Execute(args []string) error {
	if c.Scope == "" {
		return fmt.Errorf("--scope is required for export command")
	}

	cfg := config.Load()
	ctx := context.Background()

	in, err := openInput(c.Input)
	if err != nil {
		return err
	}
	defer in.Close()

	batches, err := readBatches(in)
	if err != nil {
		return err
	}

	store, scopes, err := ingestAll(ctx, c.Scope, c.RequiredKeys, batches, cfg, c.globals.Verbose)
	if err != nil {
		return err
	}

	meta, err := parseMetaPairs(c.Meta)
	if err != nil {
		return err
	}

	// A canonical spelling names its own field: the identity derives from
	// the normalized form of the spelling itself.
	engine := catalog.NewMergeEngine(store, scopes, cfg.MaxBatchSize)
	for _, spelling := range c.Canonical {
		id := identity.FieldID(c.Scope, identity.FromMap(meta), spelling)
		if err := engine.SelectCasing(ctx, types.CasingSelection{FieldID: id, CanonicalCasing: spelling}); err != nil {
			return fmt.Errorf("selecting casing %q: %w", spelling, err)
		}
	}

	exporter, err := export.New(store, scopes, cfg.ExportPageLimit, cfg.ExportCacheItems, cfg.AllOptionalWarnMin)
	if err != nil {
		return err
	}

	result, err := exporter.Export(ctx, types.ExportRequest{
		ScopeID:  c.Scope,
		Metadata: meta,
		Format:   types.SchemaFormat(c.Format),
		Policy:   types.CardinalityPolicy(c.Policy),
	})
	if err != nil {
		return err
	}

	for _, w := range result.Warnings {
		fmt.Fprintf(os.Stderr, "warning %s: %s", w.Code, w.Message)
		if w.Path != "" {
			fmt.Fprintf(os.Stderr, " (%s)", w.Path)
		}
		fmt.Fprintln(os.Stderr)
	}
	if len(result.Errors) > 0 {
		for _, e := range result.Errors {
			fmt.Fprintf(os.Stderr, "error %s: %s", e.Code, e.Message)
			if e.Path != "" {
				fmt.Fprintf(os.Stderr, " (%s)", e.Path)
			}
			fmt.Fprintln(os.Stderr)
		}
		return fmt.Errorf("export blocked by %d error(s)", len(result.Errors))
	}

	if c.globals.JSON {
		return c.write(func(w *os.File) error { return printJSON(w, result) })
	}
	return c.write(func(w *os.File) error {
		_, err := w.WriteString(result.Output)
		return err
	})
}

func (c *ExportCommand) write(fn func(*os.File) error) error {
	if c.Output == "" {
		return fn(os.Stdout)
	}
	f, err := os.Create(c.Output)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	defer f.Close()
	return fn(f)
}
