package schema

import (
	"encoding/xml"
	"fmt"
	"strings"

	"github.com/rawneddy/fieldcatalog/internal/identity"
)

const xsdNamespace = "http://www.w3.org/2001/XMLSchema"

// GenerateXSD renders a policy-applied field tree as an XML Schema
// document. Children render inside an xs:all group: observed field order
// carries no semantic guarantee, so the output never declares a sequence.
// Each top-level node becomes its own root xs:element; no wrapping element
// is invented.
func GenerateXSD(root *Node, scopeID string, meta identity.Metadata) string {
	var b strings.Builder

	b.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	fmt.Fprintf(&b, "<xs:schema xmlns:xs=%q elementFormDefault=\"qualified\">\n", xsdNamespace)

	b.WriteString("  <xs:annotation>\n")
	fmt.Fprintf(&b, "    <xs:documentation>%s</xs:documentation>\n", xmlEscape(annotationText(scopeID, meta)))
	b.WriteString("  </xs:annotation>\n")

	for _, top := range root.ElementChildren() {
		writeXSDElement(&b, top, 1, true)
	}
	b.WriteString("</xs:schema>\n")
	return b.String()
}

func writeXSDElement(b *strings.Builder, n *Node, depth int, topLevel bool) {
	pad := strings.Repeat("  ", depth)
	attrs := ""
	if !topLevel {
		attrs = occursAttrs(n)
	}
	if n.AllowsNull {
		attrs += ` nillable="true"`
	}

	switch n.Kind {
	case KindLeaf, KindAttribute:
		fmt.Fprintf(b, "%s<xs:element name=%q type=\"xs:string\"%s/>\n", pad, xmlEscape(n.Name), attrs)

	case KindContainer, KindMixed:
		fmt.Fprintf(b, "%s<xs:element name=%q%s>\n", pad, xmlEscape(n.Name), attrs)
		mixed := ""
		if n.Kind == KindMixed {
			mixed = ` mixed="true"`
		}
		fmt.Fprintf(b, "%s  <xs:complexType%s>\n", pad, mixed)

		elements := n.ElementChildren()
		if len(elements) > 0 {
			fmt.Fprintf(b, "%s    <xs:all>\n", pad)
			for _, child := range elements {
				writeXSDElement(b, child, depth+3, false)
			}
			fmt.Fprintf(b, "%s    </xs:all>\n", pad)
		}

		// Attributes always follow the content model.
		for _, attr := range n.Attributes() {
			use := ""
			if attr.MinOccurs >= 1 {
				use = ` use="required"`
			}
			fmt.Fprintf(b, "%s    <xs:attribute name=%q type=\"xs:string\"%s/>\n", pad, xmlEscape(attr.Name), use)
		}

		fmt.Fprintf(b, "%s  </xs:complexType>\n", pad)
		fmt.Fprintf(b, "%s</xs:element>\n", pad)
	}
}

func occursAttrs(n *Node) string {
	attrs := ""
	if n.MinOccurs != 1 {
		attrs += fmt.Sprintf(" minOccurs=%q", fmt.Sprint(n.MinOccurs))
	}
	switch {
	case n.MaxOccurs == Unbounded:
		attrs += ` maxOccurs="unbounded"`
	case n.MaxOccurs != 1:
		attrs += fmt.Sprintf(" maxOccurs=%q", fmt.Sprint(n.MaxOccurs))
	}
	return attrs
}

func annotationText(scopeID string, meta identity.Metadata) string {
	parts := make([]string, 0, len(meta))
	for _, p := range meta.Normalize() {
		parts = append(parts, p.Key+"="+p.Value)
	}
	if len(parts) == 0 {
		return "scope: " + scopeID
	}
	return "scope: " + scopeID + "; metadata: " + strings.Join(parts, ", ")
}

func xmlEscape(s string) string {
	var b strings.Builder
	// EscapeText cannot fail against a strings.Builder.
	xml.EscapeText(&b, []byte(s))
	return b.String()
}
