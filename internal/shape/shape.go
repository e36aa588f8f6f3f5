// Package shape implements the Result Shaper (Component F): building a
// projected value.Object from a traversal element's stored properties plus
// any explicit nested-field expressions, honoring spread/exclude and
// source-declared key order (spec §4.F).
//
// Shaping a record needs the same transaction/environment context the
// executor already threads through every operator — an explicit field like
// `friendCount: _::Out<Follows>::COUNT` is itself a sub-traversal that must
// run against the live graph with `_` bound to the element being shaped.
// Rather than duplicate that machinery here, Build takes an EvalField
// callback the executor supplies, and this package owns only the
// field-ordering and spread/exclude bookkeeping around it.
package shape

import (
	"fmt"
	"sort"

	"github.com/ritamzico/helixdb/internal/ir"
	"github.com/ritamzico/helixdb/internal/schema"
	"github.com/ritamzico/helixdb/internal/value"
)

// FieldError reports a shorthand projection field with no matching stored
// property.
type FieldError struct {
	Name string
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("unknown field %q", e.Name)
}

// EvalField evaluates one explicit projection field's value expression; the
// caller is responsible for binding `_` (and any closure variable) to the
// element being shaped before invoking it.
type EvalField func(n ir.Node) (value.Value, error)

// Shaper builds projected records against a schema registry, so spread and
// exclude projections can recover a type's declared field order.
type Shaper struct {
	Reg *schema.Registry
}

func New(reg *schema.Registry) *Shaper {
	return &Shaper{Reg: reg}
}

// Build combines shorthand field lookups (read straight from props) with
// explicit fields evaluated via evalField, in source declaration order,
// honoring node.Spread/node.Exclude.
func (s *Shaper) Build(node *ir.ProjectOp, subject value.Value, props map[string]any, evalField EvalField) (value.Value, error) {
	excluded := make(map[string]bool, len(node.Exclude))
	for _, name := range node.Exclude {
		excluded[name] = true
	}

	var fields []value.Field
	explicit := make(map[string]bool, len(node.Fields))
	for _, f := range node.Fields {
		explicit[f.Name] = true
		if excluded[f.Name] {
			continue
		}
		if f.Value == nil {
			pv, ok := props[f.Name]
			if !ok {
				return value.Value{}, &FieldError{Name: f.Name}
			}
			fields = append(fields, value.Field{Key: f.Name, Val: value.FromAny(pv)})
			continue
		}
		fv, err := evalField(f.Value)
		if err != nil {
			return value.Value{}, err
		}
		fields = append(fields, value.Field{Key: f.Name, Val: fv})
	}

	if node.Spread || len(node.Fields) == 0 && len(node.Exclude) > 0 {
		for _, k := range s.declaredFieldOrder(subject, props) {
			if explicit[k] || excluded[k] {
				continue
			}
			fields = append(fields, value.Field{Key: k, Val: value.FromAny(props[k])})
		}
	}

	return value.Obj(fields), nil
}

// declaredFieldOrder returns props' keys in the order they were declared on
// v's schema type. Falls back to alphabetical when v's type isn't in the
// registry (e.g. the registry is nil, or the type name is unrecognized).
func (s *Shaper) declaredFieldOrder(v value.Value, props map[string]any) []string {
	var declared []string
	if s.Reg != nil {
		switch v.Kind {
		case value.NodeRef:
			if nt, ok := s.Reg.NodeType(v.TypeName); ok {
				declared = nt.FieldNames()
			}
		case value.EdgeRef:
			if et, ok := s.Reg.EdgeType(v.TypeName); ok {
				for _, f := range et.Fields {
					declared = append(declared, f.Name)
				}
			}
		}
	}
	if declared != nil {
		out := make([]string, 0, len(declared))
		for _, k := range declared {
			if _, ok := props[k]; ok {
				out = append(out, k)
			}
		}
		return out
	}
	keys := make([]string, 0, len(props))
	for k := range props {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
