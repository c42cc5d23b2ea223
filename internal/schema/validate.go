package schema

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/antchfx/xmlquery"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rawneddy/fieldcatalog/pkg/types"
)

// Stable issue codes. Error codes block an export; warning codes do not.
const (
	CodeEmptyPath             = "EMPTY_PATH"
	CodePathNotRooted         = "PATH_NOT_ROOTED"
	CodePathTrailingDelimiter = "PATH_TRAILING_DELIMITER"
	CodePathEmptySegment      = "PATH_EMPTY_SEGMENT"
	CodeInvalidSegmentName    = "INVALID_SEGMENT_NAME"
	CodeReservedPrefix        = "RESERVED_PREFIX"
	CodeInvalidBounds         = "INVALID_BOUNDS"
	CodeOutputUnparseable     = "OUTPUT_UNPARSEABLE"
	CodeOutputBadRoot         = "OUTPUT_BAD_ROOT"

	CodeMixedContent       = "MIXED_CONTENT"
	CodeInferredContainers = "INFERRED_CONTAINERS"
	CodeAllOptional        = "ALL_OPTIONAL"
)

// reservedNamePrefix is claimed by the target formats themselves and may not
// start a segment name, in any casing.
const reservedNamePrefix = "xml"

var segmentNameRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9._-]*$`)

func errIssue(code, msg, path string) types.Issue {
	return types.Issue{Code: code, Severity: types.SeverityError, Message: msg, Path: path}
}

func warnIssue(code, msg, path string) types.Issue {
	return types.Issue{Code: code, Severity: types.SeverityWarning, Message: msg, Path: path}
}

// ValidatePath checks a field path against the structural rules. All
// returned issues are blocking.
func ValidatePath(path string) []types.Issue {
	if path == "" {
		return []types.Issue{errIssue(CodeEmptyPath, "field path is empty", path)}
	}
	if !strings.HasPrefix(path, PathDelimiter) {
		return []types.Issue{errIssue(CodePathNotRooted, "field path must start with "+PathDelimiter, path)}
	}
	if strings.HasSuffix(path, PathDelimiter) {
		return []types.Issue{errIssue(CodePathTrailingDelimiter, "field path must not end with "+PathDelimiter, path)}
	}

	var issues []types.Issue
	segments := strings.Split(path[1:], PathDelimiter)
	for i, seg := range segments {
		if seg == "" {
			issues = append(issues, errIssue(CodePathEmptySegment, "field path contains an empty segment", path))
			continue
		}
		// Attributes attach to an owning element and carry no substructure,
		// so a sigil segment is only valid as the final segment of a nested
		// path.
		if strings.HasPrefix(seg, string(AttributeSigil)) {
			if i == 0 {
				issues = append(issues, errIssue(CodeInvalidSegmentName,
					fmt.Sprintf("attribute segment %q has no owning element", seg), path))
				continue
			}
			if i < len(segments)-1 {
				issues = append(issues, errIssue(CodeInvalidSegmentName,
					fmt.Sprintf("attribute segment %q must be the final segment", seg), path))
				continue
			}
		}
		issues = append(issues, validateSegmentName(seg, path)...)
	}
	return issues
}

func validateSegmentName(segment, path string) []types.Issue {
	name := stripSigil(segment)
	var issues []types.Issue
	if !segmentNameRe.MatchString(name) {
		issues = append(issues, errIssue(CodeInvalidSegmentName,
			fmt.Sprintf("segment %q is not a valid identifier", name), path))
		return issues
	}
	if strings.HasPrefix(strings.ToLower(name), reservedNamePrefix) {
		issues = append(issues, errIssue(CodeReservedPrefix,
			fmt.Sprintf("segment %q uses the reserved prefix %q", name, reservedNamePrefix), path))
	}
	return issues
}

// ValidateBounds checks an occurrence bound pair.
func ValidateBounds(minOccurs, maxOccurs int, path string) []types.Issue {
	var issues []types.Issue
	if minOccurs < 0 {
		issues = append(issues, errIssue(CodeInvalidBounds,
			fmt.Sprintf("min_occurs %d is negative", minOccurs), path))
	}
	if maxOccurs < Unbounded {
		issues = append(issues, errIssue(CodeInvalidBounds,
			fmt.Sprintf("max_occurs %d is invalid", maxOccurs), path))
	}
	if maxOccurs != Unbounded && minOccurs > maxOccurs {
		issues = append(issues, errIssue(CodeInvalidBounds,
			fmt.Sprintf("min_occurs %d exceeds max_occurs %d", minOccurs, maxOccurs), path))
	}
	return issues
}

// ValidateInput checks every entry of an export snapshot. All returned
// issues are blocking.
func ValidateInput(entries []FieldEntry) []types.Issue {
	var issues []types.Issue
	for _, e := range entries {
		issues = append(issues, ValidatePath(e.Path)...)
		issues = append(issues, ValidateBounds(e.MinOccurs, e.MaxOccurs, e.Path)...)
	}
	return issues
}

// ValidateTree re-checks every node of a built tree and surfaces structural
// warnings: mixed-content nodes, the count of inferred containers, and a
// coverage warning when a non-trivial field set is entirely optional.
// allOptionalWarnMin is the observed-field count above which the coverage
// warning applies.
func ValidateTree(root *Node, allOptionalWarnMin int) []types.Issue {
	var issues []types.Issue
	inferred := 0
	observed := 0
	allOptional := true

	root.Walk(func(n *Node) {
		if n == root {
			return
		}
		issues = append(issues, validateSegmentName(n.Name, n.Path)...)
		issues = append(issues, ValidateBounds(n.MinOccurs, n.MaxOccurs, n.Path)...)

		if n.Kind == KindMixed {
			issues = append(issues, warnIssue(CodeMixedContent,
				"node was observed both as a value and as a container", n.Path))
		}
		if n.HasObservation {
			observed++
			if n.MinOccurs >= 1 {
				allOptional = false
			}
		} else {
			inferred++
		}
	})

	if inferred > 0 {
		issues = append(issues, warnIssue(CodeInferredContainers,
			fmt.Sprintf("%d container node(s) were inferred from structure, never observed directly", inferred), ""))
	}
	if observed > allOptionalWarnMin && allOptional {
		issues = append(issues, warnIssue(CodeAllOptional,
			"every observed field is optional; observation coverage may be incomplete", ""))
	}
	return issues
}

// ValidateXSDOutput parses generated XSD text back and confirms the root is
// a schema element. A failure here is a generator defect and blocks the
// export.
func ValidateXSDOutput(output string) []types.Issue {
	doc, err := xmlquery.Parse(strings.NewReader(output))
	if err != nil {
		return []types.Issue{errIssue(CodeOutputUnparseable,
			fmt.Sprintf("generated XSD does not parse: %v", err), "")}
	}

	var root *xmlquery.Node
	for n := doc.FirstChild; n != nil; n = n.NextSibling {
		if n.Type == xmlquery.ElementNode {
			root = n
			break
		}
	}
	if root == nil || root.Data != "schema" {
		got := "none"
		if root != nil {
			got = root.Data
		}
		return []types.Issue{errIssue(CodeOutputBadRoot,
			fmt.Sprintf("generated XSD root element is %q, want \"schema\"", got), "")}
	}
	return nil
}

// printer is a default English printer for localized schema error messages.
var printer = message.NewPrinter(language.English)

// ValidateJSONSchemaOutput compiles generated JSON Schema text and confirms
// the root construct is a draft 2020-12 object schema.
func ValidateJSONSchemaOutput(output string) []types.Issue {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(output))
	if err != nil {
		return []types.Issue{errIssue(CodeOutputUnparseable,
			fmt.Sprintf("generated JSON Schema does not parse: %v", err), "")}
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("generated.json", doc); err != nil {
		return []types.Issue{errIssue(CodeOutputUnparseable,
			fmt.Sprintf("generated JSON Schema rejected: %v", err), "")}
	}
	if _, err := compiler.Compile("generated.json"); err != nil {
		return []types.Issue{errIssue(CodeOutputUnparseable,
			fmt.Sprintf("generated JSON Schema does not compile: %s", compileErrorDetail(err)), "")}
	}

	obj, ok := doc.(map[string]any)
	if !ok {
		return []types.Issue{errIssue(CodeOutputBadRoot, "generated JSON Schema root is not an object", "")}
	}
	if _, ok := obj["$schema"].(string); !ok {
		return []types.Issue{errIssue(CodeOutputBadRoot, "generated JSON Schema root lacks $schema", "")}
	}
	if obj["type"] != "object" {
		return []types.Issue{errIssue(CodeOutputBadRoot,
			fmt.Sprintf("generated JSON Schema root type is %v, want \"object\"", obj["type"]), "")}
	}
	return nil
}

// compileErrorDetail extracts a readable message from a schema compile
// error, localizing validation causes when present.
func compileErrorDetail(err error) string {
	var validationErr *jsonschema.ValidationError
	if errors.As(err, &validationErr) {
		msgs := collectLeafErrors(validationErr)
		if len(msgs) > 0 {
			return strings.Join(msgs, "; ")
		}
	}
	return err.Error()
}

// collectLeafErrors recursively collects leaf causes of a validation error.
func collectLeafErrors(err *jsonschema.ValidationError) []string {
	if err.ErrorKind != nil && len(err.Causes) == 0 {
		msg := err.ErrorKind.LocalizedString(printer)
		loc := ""
		if len(err.InstanceLocation) > 0 {
			loc = "/" + strings.Join(err.InstanceLocation, "/") + ": "
		}
		return []string{loc + msg}
	}
	var out []string
	for _, cause := range err.Causes {
		out = append(out, collectLeafErrors(cause)...)
	}
	return out
}

// Split partitions issues into blocking errors and warnings.
func Split(issues []types.Issue) (errs, warnings []types.Issue) {
	for _, issue := range issues {
		if issue.Severity == types.SeverityError {
			errs = append(errs, issue)
		} else {
			warnings = append(warnings, issue)
		}
	}
	return errs, warnings
}
