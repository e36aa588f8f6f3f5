package exec

import (
	"context"

	"github.com/google/uuid"

	"github.com/ritamzico/helixdb/internal/ir"
	"github.com/ritamzico/helixdb/internal/shape"
	"github.com/ritamzico/helixdb/internal/value"
)

func idOf(v value.Value) (uuid.UUID, error) {
	switch v.Kind {
	case value.NodeRef, value.EdgeRef, value.VectorRef:
		return v.ID, nil
	case value.String:
		id, err := uuid.Parse(v.S)
		if err != nil {
			return uuid.Nil, typeMismatch("ID", "malformed string")
		}
		return id, nil
	default:
		return uuid.Nil, typeMismatch("ID", v.Kind.String())
	}
}

func (ex *Executor) evalScanNodes(ctx context.Context, node *ir.ScanNodes, tx *Transaction, env map[string]value.Value) (Stream, error) {
	ids, err := ex.idList(ctx, node.IDs, tx, env)
	if err != nil {
		return nil, err
	}
	nodes, err := ex.Graph.ScanNodes(ctx, tx.graph, node.NodeType, ids)
	if err != nil {
		return nil, err
	}
	items := make([]value.Value, 0, len(nodes))
	for _, n := range nodes {
		items = append(items, value.Node(n.ID, n.Type))
	}
	return newSlice(items), nil
}

func (ex *Executor) evalScanEdges(ctx context.Context, node *ir.ScanEdges, tx *Transaction, env map[string]value.Value) (Stream, error) {
	ids, err := ex.idList(ctx, node.IDs, tx, env)
	if err != nil {
		return nil, err
	}
	edges, err := ex.Graph.ScanEdges(ctx, tx.graph, node.EdgeType, ids)
	if err != nil {
		return nil, err
	}
	items := make([]value.Value, 0, len(edges))
	for _, e := range edges {
		items = append(items, value.Edge(e.ID, e.Type))
	}
	return newSlice(items), nil
}

func (ex *Executor) evalScanVectors(ctx context.Context, node *ir.ScanVectors) (Stream, error) {
	ids, err := ex.Vector.Scan(ctx, node.VectorType)
	if err != nil {
		return nil, err
	}
	items := make([]value.Value, 0, len(ids))
	for _, id := range ids {
		items = append(items, value.Vector(id, node.VectorType))
	}
	return newSlice(items), nil
}

func (ex *Executor) idList(ctx context.Context, nodes []ir.Node, tx *Transaction, env map[string]value.Value) ([]uuid.UUID, error) {
	if len(nodes) == 0 {
		return nil, nil
	}
	ids := make([]uuid.UUID, 0, len(nodes))
	for _, n := range nodes {
		v, err := ex.one(ctx, n, tx, env)
		if err != nil {
			return nil, err
		}
		id, err := idOf(v)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (ex *Executor) evalCompare(ctx context.Context, node *ir.CompareOp, tx *Transaction, env map[string]value.Value) (Stream, error) {
	lhs, err := ex.one(ctx, node.Source, tx, env)
	if err != nil {
		return nil, err
	}
	rhs, err := ex.one(ctx, node.Arg, tx, env)
	if err != nil {
		return nil, err
	}
	ok, err := compareValues(node.Op, unwrapSingleField(lhs), unwrapSingleField(rhs))
	if err != nil {
		return nil, err
	}
	return newSlice([]value.Value{value.Bool(ok)}), nil
}

// unwrapSingleField lets a one-field projection like `_::{age}` feed a
// comparator directly (spec's WHERE(_::{age}::GTE(18)) example names the
// field only to select it, not to build a multi-field record), so a
// single-key Object unwraps to that field's value before comparison.
func unwrapSingleField(v value.Value) value.Value {
	if v.Kind == value.Object && len(v.Obj) == 1 {
		return v.Obj[0].Val
	}
	return v
}

func compareValues(op string, a, b value.Value) (bool, error) {
	switch op {
	case "EQ":
		return value.Equal(a, b), nil
	case "NEQ":
		return !value.Equal(a, b), nil
	}
	af, aok := a.AsFloat64()
	bf, bok := b.AsFloat64()
	if !aok || !bok {
		return false, typeMismatch("Integer/Float", a.Kind.String()+" or "+b.Kind.String())
	}
	switch op {
	case "GT":
		return af > bf, nil
	case "GTE":
		return af >= bf, nil
	case "LT":
		return af < bf, nil
	case "LTE":
		return af <= bf, nil
	}
	return false, &RuntimeError{Kind: "UnknownOperator", Message: op}
}

// propsFromIR evaluates a field:Node map (AddN/AddE/UPDATE property
// literals) into the map[string]any a store.GraphStore expects.
func (ex *Executor) propsFromIR(ctx context.Context, props map[string]ir.Node, tx *Transaction, env map[string]value.Value) (map[string]any, error) {
	out := make(map[string]any, len(props))
	for k, n := range props {
		v, err := ex.one(ctx, n, tx, env)
		if err != nil {
			return nil, err
		}
		out[k] = value.ToAny(v)
	}
	return out, nil
}

func (ex *Executor) evalAddNode(ctx context.Context, node *ir.AddNode, tx *Transaction, env map[string]value.Value) (Stream, error) {
	props, err := ex.propsFromIR(ctx, node.Props, tx, env)
	if err != nil {
		return nil, err
	}
	n, err := ex.Graph.AddNode(ctx, tx.graph, node.NodeType, props)
	if err != nil {
		return nil, err
	}
	return newSlice([]value.Value{value.Node(n.ID, n.Type)}), nil
}

func (ex *Executor) evalAddEdge(ctx context.Context, node *ir.AddEdge, tx *Transaction, env map[string]value.Value) (Stream, error) {
	props, err := ex.propsFromIR(ctx, node.Props, tx, env)
	if err != nil {
		return nil, err
	}
	fromV, err := ex.one(ctx, node.From, tx, env)
	if err != nil {
		return nil, err
	}
	toV, err := ex.one(ctx, node.To, tx, env)
	if err != nil {
		return nil, err
	}
	from, err := idOf(fromV)
	if err != nil {
		return nil, err
	}
	to, err := idOf(toV)
	if err != nil {
		return nil, err
	}
	e, err := ex.Graph.AddEdge(ctx, tx.graph, node.EdgeType, from, to, props)
	if err != nil {
		return nil, err
	}
	return newSlice([]value.Value{value.Edge(e.ID, e.Type)}), nil
}

func (ex *Executor) evalAddVector(ctx context.Context, node *ir.AddVector, tx *Transaction, env map[string]value.Value) (Stream, error) {
	vec, err := ex.oneFloatArray(ctx, node.Payload, tx, env)
	if err != nil {
		return nil, err
	}
	id, err := ex.Vector.Put(ctx, node.VectorType, vec)
	if err != nil {
		return nil, err
	}
	return newSlice([]value.Value{value.Vector(id, node.VectorType)}), nil
}

func (ex *Executor) evalBatchAddVector(ctx context.Context, node *ir.BatchAddVector, tx *Transaction, env map[string]value.Value) (Stream, error) {
	src, err := ex.eval(ctx, node.Source, tx, env)
	if err != nil {
		return nil, err
	}
	items, err := drain(ctx, src)
	if err != nil {
		return nil, err
	}
	vecs := make([][]float64, 0, len(items))
	for _, it := range items {
		fa, err := floatArrayOf(it)
		if err != nil {
			return nil, err
		}
		vecs = append(vecs, fa)
	}
	ids, err := ex.Vector.PutBatch(ctx, node.VectorType, vecs)
	if err != nil {
		return nil, err
	}
	out := make([]value.Value, 0, len(ids))
	for _, id := range ids {
		out = append(out, value.Vector(id, node.VectorType))
	}
	return newSlice(out), nil
}

func (ex *Executor) evalUpdate(ctx context.Context, node *ir.UpdateOp, tx *Transaction, env map[string]value.Value) (Stream, error) {
	src, err := ex.eval(ctx, node.Source, tx, env)
	if err != nil {
		return nil, err
	}
	items, err := drain(ctx, src)
	if err != nil {
		return nil, err
	}
	out := make([]value.Value, 0, len(items))
	for _, v := range items {
		props, err := ex.propsFromIR(ctx, node.Props, tx, withVar(env, "_", v))
		if err != nil {
			return nil, err
		}
		switch v.Kind {
		case value.NodeRef:
			n, err := ex.Graph.UpdateNode(ctx, tx.graph, v.ID, props)
			if err != nil {
				return nil, err
			}
			out = append(out, value.Node(n.ID, n.Type))
		case value.EdgeRef:
			e, err := ex.Graph.UpdateEdge(ctx, tx.graph, v.ID, props)
			if err != nil {
				return nil, err
			}
			out = append(out, value.Edge(e.ID, e.Type))
		default:
			return nil, typeMismatch("NodeRef/EdgeRef", v.Kind.String())
		}
	}
	return newSlice(out), nil
}

func (ex *Executor) evalDrop(ctx context.Context, node *ir.DropOp, tx *Transaction, env map[string]value.Value) (Stream, error) {
	if node.Source == nil {
		// Bare DROP (spec §9(b)): a no-op rather than a full-graph wipe,
		// since nothing upstream constrains what it would even mean to
		// drop "everything" in a parameterized query.
		ex.Log.Warn("bare DROP is a no-op")
		return newSlice(nil), nil
	}
	src, err := ex.eval(ctx, node.Source, tx, env)
	if err != nil {
		return nil, err
	}
	items, err := drain(ctx, src)
	if err != nil {
		return nil, err
	}
	for _, v := range items {
		switch v.Kind {
		case value.NodeRef:
			if err := ex.Graph.DropNode(ctx, tx.graph, v.ID); err != nil {
				return nil, err
			}
		case value.EdgeRef:
			if err := ex.Graph.DropEdge(ctx, tx.graph, v.ID); err != nil {
				return nil, err
			}
		case value.VectorRef:
			if err := ex.Vector.Delete(ctx, v.ID); err != nil {
				return nil, err
			}
		default:
			return nil, typeMismatch("NodeRef/EdgeRef/VectorRef", v.Kind.String())
		}
	}
	return newSlice(nil), nil
}

func (ex *Executor) evalSearchV(ctx context.Context, node *ir.SearchVOp, tx *Transaction, env map[string]value.Value) (Stream, error) {
	query, err := ex.oneFloatArray(ctx, node.Query, tx, env)
	if err != nil {
		return nil, err
	}
	k, err := ex.oneInt(ctx, node.K, tx, env)
	if err != nil {
		return nil, err
	}
	hits, err := ex.Vector.Search(ctx, node.VectorType, query, int(k))
	if err != nil {
		return nil, err
	}
	items := make([]value.Value, 0, len(hits))
	for _, h := range hits {
		items = append(items, value.Vector(h.ID, node.VectorType))
	}
	return newSlice(items), nil
}

// project builds a value.Object from one upstream element via the Result
// Shaper (internal/shape), supplying it the element's stored properties and
// a callback to evaluate explicit nested-traversal fields with `_` (and any
// closure variable) bound to v.
func (ex *Executor) project(ctx context.Context, node *ir.ProjectOp, v value.Value, tx *Transaction, env map[string]value.Value) (value.Value, error) {
	props, err := ex.propsOf(ctx, tx, v)
	if err != nil {
		return value.Value{}, err
	}
	fenv := withVar(env, "_", v)
	if node.ClosureVar != "" {
		fenv = withVar(fenv, node.ClosureVar, v)
	}
	rec, err := ex.Shape.Build(node, v, props, func(n ir.Node) (value.Value, error) {
		return ex.one(ctx, n, tx, fenv)
	})
	if err != nil {
		if fe, ok := err.(*shape.FieldError); ok {
			return value.Value{}, &RuntimeError{Kind: "UnknownField", Message: fe.Name}
		}
		return value.Value{}, err
	}
	return rec, nil
}

func (ex *Executor) propsOf(ctx context.Context, tx *Transaction, v value.Value) (map[string]any, error) {
	switch v.Kind {
	case value.NodeRef:
		n, err := ex.Graph.GetNode(ctx, tx.graph, v.ID)
		if err != nil {
			return nil, err
		}
		return n.Props, nil
	case value.EdgeRef:
		e, err := ex.Graph.GetEdge(ctx, tx.graph, v.ID)
		if err != nil {
			return nil, err
		}
		return e.Props, nil
	default:
		return map[string]any{}, nil
	}
}
