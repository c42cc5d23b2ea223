package cli

import (
	"fmt"
	"os"

	"github.com/rawneddy/fieldcatalog/internal/schema"
	"github.com/rawneddy/fieldcatalog/pkg/types"
)

// Execute implements the go-flags Commander interface for ValidateCommand.
func (c *ValidateCommand) Execute(args []string) error {
	in, err := openInput(c.Input)
	if err != nil {
		return err
	}
	defer in.Close()

	batches, err := readBatches(in)
	if err != nil {
		return err
	}

	var issues []types.Issue
	observations := 0
	for _, batch := range batches {
		for _, obs := range batch.Observations {
			observations++
			issues = append(issues, schema.ValidatePath(obs.FieldPath)...)
			if obs.Count < 0 {
				issues = append(issues, types.Issue{
					Code:     schema.CodeInvalidBounds,
					Severity: types.SeverityError,
					Message:  "negative occurrence count",
					Path:     obs.FieldPath,
				})
			}
		}
	}

	if c.globals.JSON {
		return printJSON(os.Stdout, map[string]any{
			"batches":      len(batches),
			"observations": observations,
			"issues":       issues,
		})
	}

	for _, issue := range issues {
		fmt.Printf("%s %s: %s", issue.Severity, issue.Code, issue.Message)
		if issue.Path != "" {
			fmt.Printf(" (%s)", issue.Path)
		}
		fmt.Println()
	}
	fmt.Printf("%d batch(es), %d observation(s), %d issue(s)\n", len(batches), observations, len(issues))
	if len(issues) > 0 {
		return fmt.Errorf("validation found %d issue(s)", len(issues))
	}
	return nil
}
