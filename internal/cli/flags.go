package cli

// GlobalFlags holds flags available to all subcommands.
type GlobalFlags struct {
	JSON    bool `long:"json" description:"Output in JSON format"`
	Verbose bool `long:"verbose" description:"Enable verbose output"`
}

// ExportCommand ingests observation batches and emits a generated schema.
type ExportCommand struct {
	Input        string   `long:"input" short:"i" description:"NDJSON observation batch file (default: stdin)"`
	Scope        string   `long:"scope" description:"Scope id (required)"`
	RequiredKeys []string `long:"required-key" description:"Identity-bearing metadata key (repeatable)"`
	Meta         []string `long:"meta" description:"Required metadata pair k=v selecting the export combination (repeatable)"`
	Format       string   `long:"format" description:"Output format: xsd | json_schema" default:"xsd"`
	Policy       string   `long:"policy" description:"Cardinality policy: permissive | strict | strictest" default:"permissive"`
	Canonical    []string `long:"canonical" description:"Canonical field spelling, e.g. /Ceremony/Amount (repeatable)"`
	Output       string   `long:"output" short:"o" description:"Output file (default: stdout)"`

	globals *GlobalFlags
	version string
}

// InspectCommand ingests observation batches and queries the records with jq.
type InspectCommand struct {
	Input        string   `long:"input" short:"i" description:"NDJSON observation batch file (default: stdin)"`
	Scope        string   `long:"scope" description:"Scope id (required)"`
	RequiredKeys []string `long:"required-key" description:"Identity-bearing metadata key (repeatable)"`
	Meta         []string `long:"meta" description:"Required metadata pair k=v selecting the snapshot (repeatable)"`
	Expr         string   `long:"expr" short:"e" description:"JQ expression over the record array" default:"."`
	Dedup        bool     `long:"dedup" description:"Deduplicate result values"`
	Limit        int      `long:"limit" description:"Maximum result values (0 = unlimited)" default:"0"`

	globals *GlobalFlags
	version string
}

// ValidateCommand checks observation batch files without merging them.
type ValidateCommand struct {
	Input string `long:"input" short:"i" description:"NDJSON observation batch file (default: stdin)"`

	globals *GlobalFlags
	version string
}
