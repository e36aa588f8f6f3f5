package lang

import (
	"fmt"
	"strings"
)

// Render renders a SourceFile's schema declarations (N::/E::/V:: blocks)
// back to source text — the inverse of Parse for spec §8 Testable
// Property #1, "schema round-trip: parse → render → parse is identity up
// to whitespace and comments." Query declarations fall outside that
// invariant's scope (it names the schema specifically) and are skipped;
// a source's N::/E::/V:: declarations alone still parse back to an
// equivalent *SourceFile.
func Render(file *SourceFile) string {
	var b strings.Builder
	for _, d := range file.Decls {
		switch {
		case d.Node != nil:
			renderNode(&b, d.Node)
		case d.Edge != nil:
			renderEdge(&b, d.Edge)
		case d.Vector != nil:
			renderVector(&b, d.Vector)
		}
	}
	return b.String()
}

func renderNode(b *strings.Builder, n *NodeDecl) {
	fmt.Fprintf(b, "N::%s { %s }\n", n.Name, renderFields(n.Fields))
}

func renderEdge(b *strings.Builder, e *EdgeDecl) {
	fmt.Fprintf(b, "E::%s { From: %s, To: %s", e.Name, e.From, e.To)
	if e.Props != nil && len(e.Props.Fields) > 0 {
		fmt.Fprintf(b, ", Properties: { %s }", renderFields(e.Props.Fields))
	}
	b.WriteString(" }\n")
}

func renderVector(b *strings.Builder, v *VectorDecl) {
	fmt.Fprintf(b, "V::%s\n", v.Name)
}

func renderFields(fields []*FieldDef) string {
	parts := make([]string, len(fields))
	for i, f := range fields {
		parts[i] = fmt.Sprintf("%s: %s", f.Name, renderType(f.Type))
	}
	return strings.Join(parts, ", ")
}

func renderType(t *TypeRef) string {
	if t.Array != nil {
		return "[" + renderScalarOrRef(t.Array) + "]"
	}
	return renderScalarOrRef(t.Plain)
}

func renderScalarOrRef(s *ScalarOrRef) string {
	if s.Scalar != "" {
		return s.Scalar
	}
	return s.Ref
}
