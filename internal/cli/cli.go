// Package cli implements the fieldcatalog command line interface.
package cli

import (
	"fmt"
	"os"

	goflags "github.com/jessevdk/go-flags"
)

// commands holds references to all subcommand structs for inspection/testing.
type commands struct {
	Export   *ExportCommand
	Inspect  *InspectCommand
	Validate *ValidateCommand
}

// buildParser constructs the go-flags parser with all subcommands registered.
func buildParser(version string) (*goflags.Parser, *GlobalFlags, *commands) {
	var globals GlobalFlags

	parser := goflags.NewParser(&globals, goflags.Default)
	parser.Name = "fieldcatalog"
	parser.LongDescription = "Build empirical field statistics from legacy pipeline observations and regenerate structural schemas."

	cmds := &commands{
		Export:   &ExportCommand{globals: &globals, version: version},
		Inspect:  &InspectCommand{globals: &globals, version: version},
		Validate: &ValidateCommand{globals: &globals, version: version},
	}

	parser.AddCommand("export", "Ingest batches and emit a schema", "Ingest NDJSON observation batches and emit a generated XSD or JSON Schema document.", cmds.Export)
	parser.AddCommand("inspect", "Query accumulated records with jq", "Ingest NDJSON observation batches and run a JQ expression over the resulting record snapshot.", cmds.Inspect)
	parser.AddCommand("validate", "Check observation batch files", "Validate field paths and occurrence counts in NDJSON observation batches without merging them.", cmds.Validate)

	return parser, &globals, cmds
}

// Run is the main entry point for the fieldcatalog CLI using os.Args.
func Run(version string) error {
	return RunWithArgs(version, nil)
}

// RunWithArgs parses the given args (or os.Args if nil) and executes the
// matched subcommand.
func RunWithArgs(version string, args []string) error {
	checkArgs := args
	if checkArgs == nil {
		checkArgs = os.Args[1:]
	}
	for _, arg := range checkArgs {
		if arg == "--version" {
			fmt.Printf("fieldcatalog %s\n", version)
			return nil
		}
		if arg == "--" {
			break
		}
	}

	parser, _, _ := buildParser(version)

	var err error
	if args != nil {
		_, err = parser.ParseArgs(args)
	} else {
		_, err = parser.Parse()
	}
	if err != nil {
		if flagsErr, ok := err.(*goflags.Error); ok && flagsErr.Type == goflags.ErrHelp {
			return nil
		}
		return err
	}
	return nil
}
