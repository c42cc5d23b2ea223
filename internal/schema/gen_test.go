package schema

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/antchfx/xmlquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rawneddy/fieldcatalog/internal/identity"
	"github.com/rawneddy/fieldcatalog/pkg/types"
)

// ceremonyTree builds the canonical round-trip scenario: a customer
// container with a required leaf and a required attribute, plus a nullable
// repeatable amount leaf.
func ceremonyTree(t *testing.T) *Node {
	t.Helper()
	root := BuildTree([]FieldEntry{
		{Path: "/ceremony/customer/name", MinOccurs: 1, MaxOccurs: 1},
		{Path: "/ceremony/customer/@id", MinOccurs: 1, MaxOccurs: 1},
		{Path: "/ceremony/amount", MinOccurs: 0, MaxOccurs: 3, AllowsNull: true},
	})
	ApplyPolicy(root, types.PolicyPermissive)
	return root
}

func testMeta() identity.Metadata {
	return identity.Metadata{{Key: "region", Value: "emea"}}
}

func TestGenerateXSDRoundTrip(t *testing.T) {
	output := GenerateXSD(ceremonyTree(t), "billing", testMeta())

	// The generator's own self-check passes.
	require.Empty(t, ValidateXSDOutput(output))

	doc, err := xmlquery.Parse(strings.NewReader(output))
	require.NoError(t, err)

	// One root element, no invented wrapper.
	tops := xmlquery.Find(doc, "/*[local-name()='schema']/*[local-name()='element']")
	require.Len(t, tops, 1)
	assert.Equal(t, "ceremony", tops[0].SelectAttr("name"))

	// customer is an unordered container with a required name child.
	name := xmlquery.FindOne(doc, "//*[local-name()='element'][@name='customer']//*[local-name()='all']/*[local-name()='element'][@name='name']")
	require.NotNil(t, name)
	assert.Empty(t, name.SelectAttr("minOccurs"), "minOccurs 1 is the XSD default")

	// The id attribute is required and follows the content model.
	id := xmlquery.FindOne(doc, "//*[local-name()='element'][@name='customer']//*[local-name()='attribute'][@name='id']")
	require.NotNil(t, id)
	assert.Equal(t, "required", id.SelectAttr("use"))

	// amount is nullable and repeats 0..3.
	amount := xmlquery.FindOne(doc, "//*[local-name()='element'][@name='amount']")
	require.NotNil(t, amount)
	assert.Equal(t, "0", amount.SelectAttr("minOccurs"))
	assert.Equal(t, "3", amount.SelectAttr("maxOccurs"))
	assert.Equal(t, "true", amount.SelectAttr("nillable"))

	// Scope and metadata are echoed in the annotation.
	assert.Contains(t, output, "scope: billing")
	assert.Contains(t, output, "region=emea")

	// No ordering constraint anywhere.
	assert.NotContains(t, output, "xs:sequence")
}

func TestGenerateXSDUnbounded(t *testing.T) {
	root := BuildTree([]FieldEntry{
		entry("/list/item", 2, Unbounded),
	})
	ApplyPolicy(root, types.PolicyPermissive)

	output := GenerateXSD(root, "s", nil)
	require.Empty(t, ValidateXSDOutput(output))

	doc, err := xmlquery.Parse(strings.NewReader(output))
	require.NoError(t, err)
	item := xmlquery.FindOne(doc, "//*[local-name()='element'][@name='item']")
	require.NotNil(t, item)
	assert.Equal(t, "2", item.SelectAttr("minOccurs"))
	assert.Equal(t, "unbounded", item.SelectAttr("maxOccurs"))
}

func TestGenerateXSDMixedContent(t *testing.T) {
	root := BuildTree([]FieldEntry{
		entry("/a/b", 1, 1),
		entry("/a/b/c", 1, 1),
	})
	ApplyPolicy(root, types.PolicyPermissive)

	output := GenerateXSD(root, "s", nil)
	require.Empty(t, ValidateXSDOutput(output))
	assert.Contains(t, output, `<xs:complexType mixed="true">`)
}

func TestGenerateXSDEscapesAnnotation(t *testing.T) {
	output := GenerateXSD(BuildTree(nil), "a<b&c", identity.Metadata{{Key: "k", Value: `"v"`}})
	require.Empty(t, ValidateXSDOutput(output))
	assert.Contains(t, output, "a&lt;b&amp;c")
}

func TestGenerateJSONSchemaRoundTrip(t *testing.T) {
	output, err := GenerateJSONSchema(ceremonyTree(t), "billing", testMeta())
	require.NoError(t, err)

	// The generator's own self-check passes.
	require.Empty(t, ValidateJSONSchemaOutput(output))

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(output), &doc))

	assert.Equal(t, "https://json-schema.org/draft/2020-12/schema", doc["$schema"])
	assert.Equal(t, "billing", doc["title"])
	assert.Equal(t, "object", doc["type"])

	props := doc["properties"].(map[string]any)
	ceremony := props["ceremony"].(map[string]any)
	assert.Equal(t, "object", ceremony["type"])

	cprops := ceremony["properties"].(map[string]any)

	// customer is inferred, so permissive policy leaves it repeatable; the
	// object form with its required members sits inside the wrapper.
	customer := cprops["customer"].(map[string]any)
	require.Equal(t, "array", customer["type"])
	inner := customer["items"].(map[string]any)
	required := inner["required"].([]any)
	assert.ElementsMatch(t, []any{"name", "@id"}, required)
	assert.Contains(t, inner["properties"].(map[string]any), "name")
	assert.Contains(t, inner["properties"].(map[string]any), "@id")

	// amount: repetition wrapper 0..3 around a nullable string.
	amount := cprops["amount"].(map[string]any)
	assert.Equal(t, "array", amount["type"])
	assert.Equal(t, float64(0), amount["minItems"])
	assert.Equal(t, float64(3), amount["maxItems"])
	items := amount["items"].(map[string]any)
	assert.Len(t, items["anyOf"].([]any), 2)

	// ceremony itself was never observed: not required at the root.
	_, hasRequired := doc["required"]
	assert.False(t, hasRequired)
}

func TestGenerateJSONSchemaUnbounded(t *testing.T) {
	root := BuildTree([]FieldEntry{
		entry("/list/item", 1, Unbounded),
	})
	ApplyPolicy(root, types.PolicyPermissive)

	output, err := GenerateJSONSchema(root, "s", nil)
	require.NoError(t, err)
	require.Empty(t, ValidateJSONSchemaOutput(output))

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(output), &doc))
	list := doc["properties"].(map[string]any)["list"].(map[string]any)
	item := list["properties"].(map[string]any)["item"].(map[string]any)
	assert.Equal(t, "array", item["type"])
	assert.Equal(t, float64(1), item["minItems"])
	_, hasMax := item["maxItems"]
	assert.False(t, hasMax, "unbounded omits the upper bound")
}

func TestGenerateJSONSchemaMixedContent(t *testing.T) {
	root := BuildTree([]FieldEntry{
		entry("/a/b", 1, 1),
		entry("/a/b/c", 1, 1),
	})
	ApplyPolicy(root, types.PolicyPermissive)

	output, err := GenerateJSONSchema(root, "s", nil)
	require.NoError(t, err)
	require.Empty(t, ValidateJSONSchemaOutput(output))

	var doc map[string]any
	require.NoError(t, json.Unmarshal([]byte(output), &doc))
	a := doc["properties"].(map[string]any)["a"].(map[string]any)
	b := a["properties"].(map[string]any)["b"].(map[string]any)

	union := b["anyOf"].([]any)
	require.Len(t, union, 2)
	assert.Equal(t, "string", union[0].(map[string]any)["type"])
	assert.Equal(t, "object", union[1].(map[string]any)["type"])
}
