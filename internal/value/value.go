// Package value implements the tagged-union runtime value type shared by
// the analyzer, IR, executor, and result shaper.
package value

import (
	"fmt"

	"github.com/google/uuid"
)

// Kind identifies which field of Value is populated.
type Kind int

const (
	Null Kind = iota
	String
	Integer
	Float
	Boolean
	Array
	NodeRef
	EdgeRef
	VectorRef
	Object
)

func (k Kind) String() string {
	switch k {
	case Null:
		return "Null"
	case String:
		return "String"
	case Integer:
		return "Integer"
	case Float:
		return "Float"
	case Boolean:
		return "Boolean"
	case Array:
		return "Array"
	case NodeRef:
		return "NodeRef"
	case EdgeRef:
		return "EdgeRef"
	case VectorRef:
		return "VectorRef"
	case Object:
		return "Object"
	default:
		return "Unknown"
	}
}

// Field is a single key/value pair of an Object, kept in the order it
// was declared so projections reproduce source-declared key ordering
// (spec §4.F).
type Field struct {
	Key string
	Val Value
}

// Value is the NONE-aware tagged union every step of a traversal consumes
// and produces. Exactly one field other than Kind is meaningful, selected
// by Kind.
type Value struct {
	Kind Kind

	S string
	I int64
	F float64
	B bool

	Arr []Value
	Obj []Field

	// NodeRef/EdgeRef/VectorRef payloads. TypeName is the schema type of
	// the referenced entity, used for runtime endpoint checks.
	ID       uuid.UUID
	TypeName string
}

func Str(s string) Value          { return Value{Kind: String, S: s} }
func Int(i int64) Value           { return Value{Kind: Integer, I: i} }
func Flt(f float64) Value         { return Value{Kind: Float, F: f} }
func Bool(b bool) Value           { return Value{Kind: Boolean, B: b} }
func Arr(items []Value) Value     { return Value{Kind: Array, Arr: items} }
func Node(id uuid.UUID, t string) Value {
	return Value{Kind: NodeRef, ID: id, TypeName: t}
}
func Edge(id uuid.UUID, t string) Value {
	return Value{Kind: EdgeRef, ID: id, TypeName: t}
}
func Vector(id uuid.UUID, t string) Value {
	return Value{Kind: VectorRef, ID: id, TypeName: t}
}
func Obj(fields []Field) Value { return Value{Kind: Object, Obj: fields} }

// Get looks up a field by key in an Object value.
func (v Value) Get(key string) (Value, bool) {
	for _, f := range v.Obj {
		if f.Key == key {
			return f.Val, true
		}
	}
	return Value{}, false
}

// IsNull reports whether v is the NONE literal's runtime value.
func (v Value) IsNull() bool { return v.Kind == Null }

func (v Value) String() string {
	switch v.Kind {
	case Null:
		return "NONE"
	case String:
		return v.S
	case Integer:
		return fmt.Sprintf("%d", v.I)
	case Float:
		return fmt.Sprintf("%g", v.F)
	case Boolean:
		return fmt.Sprintf("%t", v.B)
	case Array:
		return fmt.Sprintf("%v", v.Arr)
	case NodeRef, EdgeRef, VectorRef:
		return fmt.Sprintf("%s(%s)", v.Kind, v.ID)
	case Object:
		return fmt.Sprintf("%v", v.Obj)
	default:
		return "<invalid value>"
	}
}

// AsFloat64 coerces Integer or Float values to float64 for numeric
// comparisons; callers must check Kind first for non-numeric values.
func (v Value) AsFloat64() (float64, bool) {
	switch v.Kind {
	case Integer:
		return float64(v.I), true
	case Float:
		return v.F, true
	default:
		return 0, false
	}
}

// ToAny converts v to the plain Go representation store.GraphStore's
// property maps hold (map[string]any), so the runtime value type never
// leaks into the storage layer.
func ToAny(v Value) any {
	switch v.Kind {
	case String:
		return v.S
	case Integer:
		return v.I
	case Float:
		return v.F
	case Boolean:
		return v.B
	case Array:
		items := make([]any, len(v.Arr))
		for i, it := range v.Arr {
			items[i] = ToAny(it)
		}
		return items
	case NodeRef, EdgeRef, VectorRef:
		return v.ID.String()
	default:
		return nil
	}
}

// FromAny is ToAny's inverse, reconstructing a Value from a stored
// property's plain Go representation.
func FromAny(a any) Value {
	switch t := a.(type) {
	case string:
		return Str(t)
	case int64:
		return Int(t)
	case int:
		return Int(int64(t))
	case float64:
		return Flt(t)
	case bool:
		return Bool(t)
	case []any:
		items := make([]Value, len(t))
		for i, it := range t {
			items[i] = FromAny(it)
		}
		return Arr(items)
	default:
		return Value{}
	}
}

// Equal implements EQ/NEQ scalar comparison semantics: values compare
// equal only when their kinds unify (Integer and Float do, for numeric
// comparison) and their payloads match.
func Equal(a, b Value) bool {
	if a.Kind == b.Kind {
		switch a.Kind {
		case String:
			return a.S == b.S
		case Integer:
			return a.I == b.I
		case Float:
			return a.F == b.F
		case Boolean:
			return a.B == b.B
		case Null:
			return true
		case NodeRef, EdgeRef, VectorRef:
			return a.ID == b.ID
		}
	}
	af, aok := a.AsFloat64()
	bf, bok := b.AsFloat64()
	if aok && bok {
		return af == bf
	}
	return false
}
