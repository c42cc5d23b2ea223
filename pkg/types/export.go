package types

// SchemaFormat selects the output syntax of an export.
type SchemaFormat string

// Schema format constants.
const (
	FormatXSD        SchemaFormat = "xsd"
	FormatJSONSchema SchemaFormat = "json_schema"
)

// Valid reports whether f names a supported format.
func (f SchemaFormat) Valid() bool {
	return f == FormatXSD || f == FormatJSONSchema
}

// CardinalityPolicy names a rule set for assigning occurrence bounds to
// container nodes that were never observed directly.
type CardinalityPolicy string

// Cardinality policy constants.
const (
	PolicyPermissive CardinalityPolicy = "permissive"
	PolicyStrict     CardinalityPolicy = "strict"
	PolicyStrictest  CardinalityPolicy = "strictest"
)

// Valid reports whether p names a supported policy.
func (p CardinalityPolicy) Valid() bool {
	switch p {
	case PolicyPermissive, PolicyStrict, PolicyStrictest:
		return true
	}
	return false
}

// Severity distinguishes blocking errors from advisory warnings.
type Severity string

// Severity constants.
const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Issue is one finding from a validation pass.
type Issue struct {
	Code     string   `json:"code"`
	Severity Severity `json:"severity"`
	Message  string   `json:"message"`
	Path     string   `json:"path,omitempty"`
}

// ExportRequest asks for a generated schema covering one scope and one
// required-metadata combination.
type ExportRequest struct {
	ScopeID  string            `json:"scope_id"`
	Metadata map[string]string `json:"metadata"`
	Format   SchemaFormat      `json:"format"`
	Policy   CardinalityPolicy `json:"policy,omitempty"` // default: permissive
}

// ExportResult carries the generated schema text together with every issue
// the validator collected. Output is empty when Errors is non-empty.
type ExportResult struct {
	Output      string       `json:"output,omitempty"`
	Format      SchemaFormat `json:"format"`
	Errors      []Issue      `json:"errors,omitempty"`
	Warnings    []Issue      `json:"warnings,omitempty"`
	RecordCount int          `json:"record_count"`
	FromCache   bool         `json:"from_cache,omitempty"`
}
