package schema

import (
	"encoding/json"
	"fmt"

	"github.com/invopop/jsonschema"

	"github.com/rawneddy/fieldcatalog/internal/identity"
)

const jsonSchemaDraft = "https://json-schema.org/draft/2020-12/schema"

// GenerateJSONSchema renders a policy-applied field tree as a JSON Schema
// (draft 2020-12) document. Semantics match the XSD generator: containers
// are unordered property bags, a child is required iff its lower bound is at
// least one, attributes render after element children under their
// sigil-prefixed names, and mixed content becomes a string/object union.
// The document root is the single schema object JSON Schema requires; the
// top-level field nodes are its properties.
func GenerateJSONSchema(root *Node, scopeID string, meta identity.Metadata) (string, error) {
	doc := &jsonschema.Schema{
		Type:       "object",
		Properties: jsonschema.NewProperties(),
	}
	doc.Version = jsonSchemaDraft
	doc.Title = scopeID
	doc.Description = annotationText(scopeID, meta)

	// A document instantiates each top-level node exactly once, so the
	// repetition wrapper never applies here. This matches the XSD output,
	// where root elements carry no occurrence attributes.
	var required []string
	for _, top := range root.ElementChildren() {
		doc.Properties.Set(top.Name, baseSchema(top))
		if top.MinOccurs >= 1 {
			required = append(required, top.Name)
		}
	}
	doc.Required = required

	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshaling schema: %w", err)
	}
	return string(out) + "\n", nil
}

// nodeSchema renders one node, including its repetition wrapper.
func nodeSchema(n *Node) *jsonschema.Schema {
	base := baseSchema(n)

	if n.Kind != KindAttribute && (n.MaxOccurs == Unbounded || n.MaxOccurs > 1) {
		wrapped := &jsonschema.Schema{Type: "array", Items: base}
		minItems := uint64(n.MinOccurs)
		wrapped.MinItems = &minItems
		if n.MaxOccurs != Unbounded {
			maxItems := uint64(n.MaxOccurs)
			wrapped.MaxItems = &maxItems
		}
		return wrapped
	}
	return base
}

func baseSchema(n *Node) *jsonschema.Schema {
	switch n.Kind {
	case KindContainer:
		return containerSchema(n)
	case KindMixed:
		return &jsonschema.Schema{
			AnyOf: []*jsonschema.Schema{leafSchema(n), containerSchema(n)},
		}
	default:
		return leafSchema(n)
	}
}

func leafSchema(n *Node) *jsonschema.Schema {
	if n.AllowsNull {
		return &jsonschema.Schema{
			AnyOf: []*jsonschema.Schema{
				{Type: "string"},
				{Type: "null"},
			},
		}
	}
	return &jsonschema.Schema{Type: "string"}
}

func containerSchema(n *Node) *jsonschema.Schema {
	schema := &jsonschema.Schema{
		Type:       "object",
		Properties: jsonschema.NewProperties(),
	}

	var required []string
	for _, child := range n.ElementChildren() {
		schema.Properties.Set(child.Name, nodeSchema(child))
		if child.MinOccurs >= 1 {
			required = append(required, child.Name)
		}
	}
	for _, attr := range n.Attributes() {
		key := string(AttributeSigil) + attr.Name
		schema.Properties.Set(key, nodeSchema(attr))
		if attr.MinOccurs >= 1 {
			required = append(required, key)
		}
	}
	schema.Required = required
	return schema
}
