package schema

import (
	"github.com/ritamzico/helixdb/internal/lang"
	"github.com/ritamzico/helixdb/internal/value"
)

func scalarKind(name string) (value.Kind, bool) {
	switch name {
	case "String":
		return value.String, true
	case "Integer":
		return value.Integer, true
	case "Float":
		return value.Float, true
	case "Boolean":
		return value.Boolean, true
	case "ID":
		// IDs cross the API boundary as UUID strings (spec §9(b)).
		return value.String, true
	}
	return value.Null, false
}

func fieldTypeOf(sr *lang.ScalarOrRef) FieldType {
	if sr == nil {
		return FieldType{}
	}
	if k, ok := scalarKind(sr.Scalar); ok {
		return FieldType{Scalar: k}
	}
	return FieldType{Ref: sr.Ref}
}

func convertType(t *lang.TypeRef) FieldType {
	if t.Array != nil {
		ft := fieldTypeOf(t.Array)
		ft.Array = true
		return ft
	}
	return fieldTypeOf(t.Plain)
}

func convertFields(fields []*lang.FieldDef) []FieldDef {
	out := make([]FieldDef, len(fields))
	for i, f := range fields {
		out[i] = FieldDef{Name: f.Name, Type: convertType(f.Type)}
	}
	return out
}

// BuildRegistry walks the declarations of a parsed source file and
// populates a Registry, validating edge endpoints once every declaration
// has been added so forward references resolve correctly.
func BuildRegistry(file *lang.SourceFile) (*Registry, error) {
	reg := New()
	for _, d := range file.Decls {
		switch {
		case d.Node != nil:
			n := &NodeType{Name: d.Node.Name, Fields: convertFields(d.Node.Fields)}
			if err := reg.AddNodeType(n); err != nil {
				return nil, err
			}
		case d.Edge != nil:
			var fields []FieldDef
			if d.Edge.Props != nil {
				fields = convertFields(d.Edge.Props.Fields)
			}
			e := &EdgeType{Name: d.Edge.Name, From: d.Edge.From, To: d.Edge.To, Fields: fields}
			if err := reg.AddEdgeType(e); err != nil {
				return nil, err
			}
		case d.Vector != nil:
			v := &VectorType{Name: d.Vector.Name}
			if err := reg.AddVectorType(v); err != nil {
				return nil, err
			}
		}
	}
	if err := reg.Validate(); err != nil {
		return nil, err
	}
	return reg, nil
}
