package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/rawneddy/fieldcatalog/internal/config"
	"github.com/rawneddy/fieldcatalog/internal/identity"
	"github.com/rawneddy/fieldcatalog/internal/query"
)

// Execute implements the go-flags Commander interface for InspectCommand.
func (c *InspectCommand) Execute(args []string) error {
	if c.Scope == "" {
		return fmt.Errorf("--scope is required for inspect command")
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

	store, _, err := ingestAll(ctx, c.Scope, c.RequiredKeys, batches, cfg, c.globals.Verbose)
	if err != nil {
		return err
	}

	meta, err := parseMetaPairs(c.Meta)
	if err != nil {
		return err
	}

	records, err := store.ScanScope(ctx, c.Scope, identity.FromMap(meta))
	if err != nil {
		return err
	}

	result, err := query.NewEngine().Query(records, c.Expr, c.Dedup, c.Limit)
	if err != nil {
		return err
	}

	for _, msg := range result.Errors {
		fmt.Fprintf(os.Stderr, "query: %s\n", msg)
	}
	if c.globals.JSON {
		return printJSON(os.Stdout, result)
	}
	for _, v := range result.Values {
		if err := printJSON(os.Stdout, v); err != nil {
			return err
		}
	}
	return nil
}
