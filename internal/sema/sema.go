// Package sema is the Semantic Analyzer / Type Checker (spec §4.C): it
// resolves every identifier against parameters, prior bindings, and the
// Schema Registry, assigns a static type to every traversal step, and
// lowers the checked AST into an ir.Plan via syntax-directed translation.
package sema

import (
	"fmt"

	"github.com/alecthomas/participle/v2/lexer"

	"github.com/ritamzico/helixdb/internal/ir"
	"github.com/ritamzico/helixdb/internal/lang"
	"github.com/ritamzico/helixdb/internal/schema"
	"github.com/ritamzico/helixdb/internal/store"
	"github.com/ritamzico/helixdb/internal/value"
)

type env map[string]ir.Type

func (e env) with(name string, t ir.Type) env {
	ne := make(env, len(e)+1)
	for k, v := range e {
		ne[k] = v
	}
	ne[name] = t
	return ne
}

type analyzer struct {
	reg   *schema.Registry
	diags Diagnostics
}

// Analyze type-checks and lowers every query declaration in file against
// reg, returning one ir.Plan per query in source order.
func Analyze(file *lang.SourceFile, reg *schema.Registry) ([]*ir.Plan, Diagnostics) {
	a := &analyzer{reg: reg}
	var plans []*ir.Plan
	for _, d := range file.Decls {
		if d.Query == nil {
			continue
		}
		plans = append(plans, a.lowerQuery(d.Query))
	}
	return plans, a.diags
}

func (a *analyzer) errorf(pos lexer.Position, format string, args ...any) {
	a.diags = append(a.diags, &TypeError{Pos: pos, Message: fmt.Sprintf(format, args...)})
}

func (a *analyzer) resolveErrorf(pos lexer.Position, format string, args ...any) {
	a.diags = append(a.diags, &ResolveError{Pos: pos, Message: fmt.Sprintf(format, args...)})
}

func (a *analyzer) lowerQuery(q *lang.QueryDecl) *ir.Plan {
	e := env{}
	params := make([]ir.Param, 0, len(q.Params))
	for _, p := range q.Params {
		t := a.resolveParamType(p.Type)
		params = append(params, ir.Param{Name: p.Name, Type: t})
		e = e.with(p.Name, t)
	}

	body := make([]ir.Stmt, 0, len(q.Body))
	for _, stmt := range q.Body {
		expr := a.lowerTraversal(stmt.Expr, e)
		if stmt.Name != "" {
			e = e.with(stmt.Name, expr.Type())
			body = append(body, ir.Stmt{Name: stmt.Name, Expr: expr})
		} else {
			body = append(body, ir.Stmt{Expr: expr})
		}
	}

	ret := make([]ir.Node, 0, len(q.Return))
	for _, r := range q.Return {
		ret = append(ret, a.lowerTraversal(r, e))
	}

	return &ir.Plan{Name: q.Name, Params: params, Body: body, Return: ret}
}

func (a *analyzer) resolveParamType(t *lang.TypeRef) ir.Type {
	sr := t.Plain
	array := false
	if t.Array != nil {
		sr = t.Array
		array = true
	}
	if sr == nil {
		return ir.Type{Kind: ir.ScalarT}
	}
	if sr.Ref != "" {
		kind := ir.NodeStream
		if _, ok := a.reg.EdgeType(sr.Ref); ok {
			kind = ir.EdgeStream
		} else if _, ok := a.reg.VectorType(sr.Ref); ok {
			kind = ir.VectorStream
		} else if _, ok := a.reg.NodeType(sr.Ref); !ok {
			a.resolveErrorf(t.Pos, "undeclared schema type %q", sr.Ref)
		}
		return ir.Type{Kind: kind, Elem: sr.Ref}
	}
	_ = array // arrays of scalars are still represented as ScalarT at this granularity
	return ir.Type{Kind: ir.ScalarT}
}

func (a *analyzer) lowerTraversal(t *lang.Traversal, e env) ir.Node {
	n := a.lowerStart(t.Start, e)
	for _, step := range t.Steps {
		n = a.lowerStep(step, n, e)
	}
	return n
}

func (a *analyzer) lowerStart(s *lang.StartStep, e env) ir.Node {
	switch {
	case s.ScanN != nil:
		return a.lowerScanN(s.ScanN, e)
	case s.ScanE != nil:
		return a.lowerScanE(s.ScanE, e)
	case s.ScanV != nil:
		return a.lowerScanV(s.ScanV)
	case s.AddN != nil:
		return a.lowerAddN(s.AddN, e)
	case s.AddV != nil:
		return a.lowerAddV(s.AddV, e)
	case s.BatchAddV != nil:
		return a.lowerBatchAddV(s.BatchAddV, e)
	case s.AddE != nil:
		return a.lowerAddE(s.AddE, e)
	case s.SearchV != nil:
		return a.lowerSearchV(s.SearchV, e)
	case s.Exists != nil:
		return ir.NewExists(a.lowerTraversal(s.Exists.Sub, e))
	case s.Drop:
		return ir.NewDrop(nil)
	case s.Lit != nil:
		return a.lowerLiteral(s.Lit, e)
	case s.Ident != nil:
		return a.lowerIdent(*s.Ident, s.Pos, e)
	}
	a.errorf(s.Pos, "empty start step")
	return ir.NewLiteral(value.Value{Kind: value.Null})
}

func (a *analyzer) lowerIdent(name string, pos lexer.Position, e env) ir.Node {
	t, ok := e[name]
	if !ok {
		a.resolveErrorf(pos, "undefined name %q", name)
		return ir.NewVarRef(ir.Type{Kind: ir.ScalarT}, name)
	}
	return ir.NewVarRef(t, name)
}

func (a *analyzer) lowerScanN(s *lang.ScanArgs, e env) ir.Node {
	if s.Type != "" {
		if _, ok := a.reg.NodeType(s.Type); !ok {
			a.resolveErrorf(s.Pos, "undeclared node type %q", s.Type)
		}
	}
	ids := a.lowerExprList(s.Args, e)
	return ir.NewScanNodes(ir.Type{Kind: ir.NodeStream, Elem: s.Type}, s.Type, ids)
}

func (a *analyzer) lowerScanE(s *lang.ScanArgs, e env) ir.Node {
	if s.Type != "" {
		if _, ok := a.reg.EdgeType(s.Type); !ok {
			a.resolveErrorf(s.Pos, "undeclared edge type %q", s.Type)
		}
	}
	ids := a.lowerExprList(s.Args, e)
	return ir.NewScanEdges(ir.Type{Kind: ir.EdgeStream, Elem: s.Type}, s.Type, ids)
}

func (a *analyzer) lowerScanV(s *lang.ScanArgs) ir.Node {
	if s.Type == "" {
		a.resolveErrorf(s.Pos, "V requires an explicit vector type")
	} else if _, ok := a.reg.VectorType(s.Type); !ok {
		a.resolveErrorf(s.Pos, "undeclared vector type %q", s.Type)
	}
	return ir.NewScanVectors(ir.Type{Kind: ir.VectorStream, Elem: s.Type}, s.Type)
}

func (a *analyzer) lowerExprList(list []*lang.Traversal, e env) []ir.Node {
	out := make([]ir.Node, 0, len(list))
	for _, t := range list {
		out = append(out, a.lowerTraversal(t, e))
	}
	return out
}

func (a *analyzer) lowerAddN(s *lang.AddNArgs, e env) ir.Node {
	nt, ok := a.reg.NodeType(s.Type)
	if !ok {
		a.resolveErrorf(s.Pos, "undeclared node type %q", s.Type)
	}
	props := make(map[string]ir.Node, len(s.Props))
	for _, p := range s.Props {
		if nt != nil {
			if _, ok := nt.Field(p.Key); !ok {
				a.resolveErrorf(p.Pos, "node type %q has no field %q", s.Type, p.Key)
			}
		}
		props[p.Key] = a.lowerTraversal(p.Value, e)
	}
	if nt != nil {
		for _, want := range nt.FieldNames() {
			if _, ok := props[want]; !ok {
				a.resolveErrorf(s.Pos, "AddN<%s> is missing declared field %q", s.Type, want)
			}
		}
	}
	return ir.NewAddNode(s.Type, props)
}

func (a *analyzer) lowerAddV(s *lang.AddVArgs, e env) ir.Node {
	if _, ok := a.reg.VectorType(s.Type); !ok {
		a.resolveErrorf(s.Pos, "undeclared vector type %q", s.Type)
	}
	return ir.NewAddVector(s.Type, a.lowerTraversal(s.Payload, e))
}

func (a *analyzer) lowerBatchAddV(s *lang.BatchAddVArgs, e env) ir.Node {
	if _, ok := a.reg.VectorType(s.Type); !ok {
		a.resolveErrorf(s.Pos, "undeclared vector type %q", s.Type)
	}
	return ir.NewBatchAddVector(s.Type, a.lowerTraversal(s.Source, e))
}

func (a *analyzer) lowerAddE(s *lang.AddEArgs, e env) ir.Node {
	et, ok := a.reg.EdgeType(s.Type)
	if !ok {
		a.resolveErrorf(s.Pos, "undeclared edge type %q", s.Type)
	}
	props := make(map[string]ir.Node, len(s.Props))
	for _, p := range s.Props {
		if et != nil {
			if _, ok := et.Field(p.Key); !ok {
				a.resolveErrorf(p.Pos, "edge type %q has no field %q", s.Type, p.Key)
			}
		}
		props[p.Key] = a.lowerTraversal(p.Value, e)
	}
	// From/To are supplied by subsequent ::From(x)::To(y) steps.
	return ir.NewAddEdge(s.Type, props, nil, nil)
}

func (a *analyzer) lowerSearchV(s *lang.SearchVArgs, e env) ir.Node {
	if _, ok := a.reg.VectorType(s.Type); !ok {
		a.resolveErrorf(s.Pos, "undeclared vector type %q", s.Type)
	}
	return ir.NewSearchV(s.Type, a.lowerTraversal(s.Query, e), a.lowerTraversal(s.K, e))
}

func (a *analyzer) lowerLiteral(l *lang.Literal, e env) ir.Node {
	switch {
	case l.Str != nil:
		return ir.NewLiteral(value.Str(*l.Str))
	case l.Float != nil:
		return ir.NewLiteral(value.Flt(*l.Float))
	case l.Int != nil:
		return ir.NewLiteral(value.Int(*l.Int))
	case l.True:
		return ir.NewLiteral(value.Bool(true))
	case l.False:
		return ir.NewLiteral(value.Bool(false))
	case l.None:
		return ir.NewLiteral(value.Value{Kind: value.Null})
	case l.Array != nil:
		return ir.NewArrayLit(a.lowerExprList(l.Array, e))
	}
	return ir.NewLiteral(value.Value{Kind: value.Null})
}

// edgeElemForDir resolves the element node type a graph step yields given
// an optional edge-type constraint and direction, by consulting the
// Schema Registry's declared endpoints. Ambiguous (ANY Both, unconstrained)
// cases yield an unconstrained stream rather than a diagnostic.
func (a *analyzer) edgeElemForDir(edgeType string, dir store.Direction) string {
	if edgeType == "" {
		return ""
	}
	et, ok := a.reg.EdgeType(edgeType)
	if !ok {
		return ""
	}
	switch dir {
	case store.Out:
		return et.To
	case store.In:
		return et.From
	default:
		return ""
	}
}

func (a *analyzer) lowerStep(s *lang.Step, src ir.Node, e env) ir.Node {
	switch {
	case s.OutE != nil:
		return a.lowerGraphStep(s.OutE, src, store.Out, true)
	case s.InE != nil:
		return a.lowerGraphStep(s.InE, src, store.In, true)
	case s.BothE != nil:
		return a.lowerGraphStep(s.BothE, src, store.Both, true)
	case s.Out != nil:
		return a.lowerGraphStep(s.Out, src, store.Out, false)
	case s.In != nil:
		return a.lowerGraphStep(s.In, src, store.In, false)
	case s.Both != nil:
		return a.lowerGraphStep(s.Both, src, store.Both, false)
	case s.Where != nil:
		pred := a.lowerBoolExpr(s.Where.Pred, e.with("_", src.Type()))
		return ir.NewFilter(src, pred)
	case s.Exists != nil:
		return ir.NewExists(a.lowerTraversal(s.Exists.Sub, e))
	case s.Compare != nil:
		arg := a.lowerTraversal(s.Compare.Arg, e)
		a.checkCompare(s.Compare.Pos, s.Compare.Op, src, arg)
		return ir.NewCompare(src, s.Compare.Op, arg)
	case s.Count:
		return ir.NewCount(src)
	case s.IDStep:
		return ir.NewIDOf(src)
	case s.Range != nil:
		lo := a.lowerTraversal(s.Range.Lo, e)
		hi := a.lowerTraversal(s.Range.Hi, e)
		return ir.NewRange(src, lo, hi)
	case s.Object != nil:
		fields, spread := a.lowerObjectFields(s.Object.Fields, e, src.Type())
		return ir.NewProject(src, fields, nil, "", spread)
	case s.Exclude != nil:
		return ir.NewProject(src, nil, s.Exclude.Fields, "", false)
	case s.Closure != nil:
		ce := e.with("_", src.Type()).with(s.Closure.Var, src.Type())
		fields, spread := a.lowerObjectFields(s.Closure.Object.Fields, ce, src.Type())
		return ir.NewProject(src, fields, nil, s.Closure.Var, spread)
	case s.Update != nil:
		ue := e.with("_", src.Type())
		props := make(map[string]ir.Node, len(s.Update.Fields))
		for _, p := range s.Update.Fields {
			v := a.lowerTraversal(p.Value, ue)
			a.checkUpdateField(p.Pos, src.Type(), p.Key, v)
			props[p.Key] = v
		}
		return ir.NewUpdate(src, props)
	case s.Drop:
		return ir.NewDrop(src)
	case s.From != nil:
		return a.attachEndpoint(src, s.From.Arg, e, true)
	case s.To != nil:
		return a.attachEndpoint(src, s.To.Arg, e, false)
	}
	a.errorf(s.Pos, "unrecognized step")
	return src
}

func (a *analyzer) lowerGraphStep(d *lang.DirArgs, src ir.Node, dir store.Direction, toEdges bool) ir.Node {
	if d.Type != "" {
		if _, ok := a.reg.EdgeType(d.Type); !ok {
			a.resolveErrorf(d.Pos, "undeclared edge type %q", d.Type)
		}
	}
	var t ir.Type
	if toEdges {
		t = ir.Type{Kind: ir.EdgeStream, Elem: d.Type}
	} else {
		t = ir.Type{Kind: ir.NodeStream, Elem: a.edgeElemForDir(d.Type, dir)}
	}
	return ir.NewTraverse(t, src, dir, d.Type, toEdges)
}

func (a *analyzer) attachEndpoint(src ir.Node, arg *lang.Traversal, e env, isFrom bool) ir.Node {
	ae, ok := src.(*ir.AddEdge)
	if !ok {
		a.errorf(arg.Pos, "From/To must follow AddE")
		return src
	}
	n := a.lowerTraversal(arg, e)
	a.checkEndpointType(arg.Pos, ae.EdgeType, n.Type(), isFrom)
	if isFrom {
		ae.From = n
	} else {
		ae.To = n
	}
	return ae
}

// checkEndpointType enforces spec §3's endpoint rule at compile time: an
// AddE<T>'s ::From/::To argument must statically be a node of T's
// declared endpoint type. An unconstrained NodeStream (a bare `N` scan or
// an unresolved identifier) carries no Elem to check against and is left
// to the runtime check in memstore.AddEdge.
func (a *analyzer) checkEndpointType(pos lexer.Position, edgeType string, argType ir.Type, isFrom bool) {
	et, ok := a.reg.EdgeType(edgeType)
	if !ok {
		return
	}
	want, label := et.To, "To"
	if isFrom {
		want, label = et.From, "From"
	}
	if argType.Kind != ir.NodeStream || argType.Elem == "" {
		return
	}
	if argType.Elem != want {
		a.errorf(pos, "AddE<%s>::%s expects %s, got %s", edgeType, label, want, argType.Elem)
	}
}

// scalarKind statically determines a node's scalar value.Kind where
// possible: a literal's own kind, or a single shorthand field projection
// resolved against the Schema Registry. Returns ok=false when the kind
// can't be pinned down ahead of time (an unbound or explicit-expression
// value, a spread, a ref/array field, …), leaving comparisons to
// exec.compareValues's run-time check; an UPDATE value of such a kind is
// written without a kind check.
func (a *analyzer) scalarKind(n ir.Node) (value.Kind, bool) {
	switch v := n.(type) {
	case *ir.Literal:
		return v.Value.Kind, true
	case *ir.ProjectOp:
		if v.Spread || len(v.Fields) != 1 || v.Fields[0].Value != nil {
			return 0, false
		}
		fd, ok := a.fieldOf(v.Source.Type(), v.Fields[0].Name)
		if !ok || fd.Type.Ref != "" || fd.Type.Array {
			return 0, false
		}
		return fd.Type.Scalar, true
	}
	return 0, false
}

// fieldOf looks up name in the NodeType/EdgeType t statically names,
// returning ok=false for an unconstrained stream or an undeclared field.
func (a *analyzer) fieldOf(t ir.Type, name string) (schema.FieldDef, bool) {
	switch t.Kind {
	case ir.NodeStream:
		if nt, ok := a.reg.NodeType(t.Elem); ok {
			return nt.Field(name)
		}
	case ir.EdgeStream:
		if et, ok := a.reg.EdgeType(t.Elem); ok {
			return et.Field(name)
		}
	}
	return schema.FieldDef{}, false
}

func isNumericKind(k value.Kind) bool {
	return k == value.Integer || k == value.Float
}

// checkCompare implements spec §4.C's comparator rule: GT/GTE/LT/LTE
// require numeric operands, EQ/NEQ require both sides to unify to the
// same scalar type. Only fires when both operands' scalar kind is
// statically known; an unresolvable side falls through to
// exec.compareValues's runtime check.
func (a *analyzer) checkCompare(pos lexer.Position, op string, lhs, rhs ir.Node) {
	lk, lok := a.scalarKind(lhs)
	rk, rok := a.scalarKind(rhs)
	if !lok || !rok {
		return
	}
	switch op {
	case "GT", "GTE", "LT", "LTE":
		if !isNumericKind(lk) || !isNumericKind(rk) {
			a.errorf(pos, "%s requires numeric operands, got %s and %s", op, lk, rk)
		}
	case "EQ", "NEQ":
		if lk != rk {
			a.errorf(pos, "%s requires operands of the same type, got %s and %s", op, lk, rk)
		}
	}
}

// checkUpdateField implements spec §4.C's UPDATE rule: the key must be a
// field declared on the current element's type, and the assigned value
// must match that field's declared scalar type. Skipped entirely for an
// unconstrained element type (elemType.Elem == ""), the same way
// lowerAddN/lowerAddE only validate props once the type itself resolved.
func (a *analyzer) checkUpdateField(pos lexer.Position, elemType ir.Type, name string, v ir.Node) {
	if elemType.Elem == "" {
		return
	}
	fd, ok := a.fieldOf(elemType, name)
	if !ok {
		a.resolveErrorf(pos, "type %q has no field %q", elemType.Elem, name)
		return
	}
	if fd.Type.Ref != "" || fd.Type.Array {
		return
	}
	if vk, ok := a.scalarKind(v); ok && vk != fd.Type.Scalar {
		a.errorf(pos, "field %q expects %s, got %s", name, fd.Type.Scalar, vk)
	}
}

func (a *analyzer) lowerObjectFields(fields []*lang.ObjectField, e env, elemType ir.Type) ([]ir.ProjectField, bool) {
	spread := false
	var out []ir.ProjectField
	fe := e.with("_", elemType)
	for _, f := range fields {
		if f.Spread {
			spread = true
			continue
		}
		m := f.Mapping
		var v ir.Node
		if m.Value != nil {
			v = a.lowerTraversal(m.Value, fe)
		}
		out = append(out, ir.ProjectField{Name: m.Name, Value: v})
	}
	return out, spread
}

func (a *analyzer) lowerBoolExpr(b *lang.BoolExpr, e env) ir.Node {
	left := a.lowerBoolAnd(b.Left, e)
	for _, or := range b.Rest {
		right := a.lowerBoolAnd(or.Right, e)
		left = ir.NewOr(left, right)
	}
	return left
}

func (a *analyzer) lowerBoolAnd(b *lang.BoolAnd, e env) ir.Node {
	left := a.lowerTraversal(b.Left, e)
	for _, and := range b.Rest {
		right := a.lowerTraversal(and.Right, e)
		left = ir.NewAnd(left, right)
	}
	return left
}
