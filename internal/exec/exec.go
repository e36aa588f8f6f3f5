// Package exec is the Executor (spec §4.E): a pull-based interpreter
// that walks an ir.Plan, evaluating each operator against a GraphStore
// and VectorStore behind a single Transaction, and materializes the
// RETURN clause's streams into named results for the Result Shaper.
package exec

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/ritamzico/helixdb/internal/ir"
	"github.com/ritamzico/helixdb/internal/schema"
	"github.com/ritamzico/helixdb/internal/shape"
	"github.com/ritamzico/helixdb/internal/store"
	"github.com/ritamzico/helixdb/internal/value"
	"github.com/ritamzico/helixdb/internal/vectorstore"
)

// Executor evaluates plans against a pair of storage backends. Shape
// builds projected records for ProjectOp (Result Shaper, spec §4.F),
// using Reg to recover source-declared field order for spread/exclude.
type Executor struct {
	Graph  store.GraphStore
	Vector vectorstore.VectorStore
	Reg    *schema.Registry
	Shape  *shape.Shaper
	Log    *logrus.Logger
}

func New(graph store.GraphStore, vec vectorstore.VectorStore, reg *schema.Registry, log *logrus.Logger) *Executor {
	if log == nil {
		log = logrus.New()
	}
	return &Executor{Graph: graph, Vector: vec, Reg: reg, Shape: shape.New(reg), Log: log}
}

// NamedResult is one materialized RETURN clause entry.
type NamedResult struct {
	Name   string
	Values []value.Value
}

// Execute runs plan against params, opening a write transaction if the
// plan mutates the graph (Add/Update/Drop anywhere in its body) and a
// read transaction otherwise, committing on success and aborting on any
// error.
func (ex *Executor) Execute(ctx context.Context, plan *ir.Plan, params map[string]value.Value) ([]NamedResult, error) {
	write := planMutates(plan)
	tx, err := beginTransaction(ctx, ex.Graph, write)
	if err != nil {
		return nil, err
	}
	log := ex.Log.WithFields(logrus.Fields{"query": plan.Name, "tx_state": tx.State().String()})
	log.Debug("executing query")

	results, err := ex.run(ctx, plan, params, tx)
	if err != nil {
		log.WithError(err).Warn("query failed, aborting transaction")
		if aerr := tx.abort(ctx); aerr != nil {
			log.WithError(aerr).Error("abort failed")
		}
		return nil, err
	}
	if err := tx.commit(ctx); err != nil {
		log.WithError(err).Error("commit failed")
		return nil, err
	}
	log.Debug("query committed")
	return results, nil
}

func planMutates(plan *ir.Plan) bool {
	for _, s := range plan.Body {
		if nodeMutates(s.Expr) {
			return true
		}
	}
	return anyMutates(plan.Return)
}

func anyMutates(nodes []ir.Node) bool {
	for _, n := range nodes {
		if nodeMutates(n) {
			return true
		}
	}
	return false
}

// nodeMutates reports whether evaluating n (or anything it is built
// from) writes to the graph or vector backend.
func nodeMutates(n ir.Node) bool {
	switch node := n.(type) {
	case nil:
		return false
	case *ir.AddNode, *ir.AddEdge, *ir.AddVector, *ir.BatchAddVector, *ir.UpdateOp:
		return true
	case *ir.DropOp:
		return true
	case *ir.Traverse:
		return nodeMutates(node.Source)
	case *ir.Filter:
		return nodeMutates(node.Source) || nodeMutates(node.Pred)
	case *ir.RangeOp:
		return nodeMutates(node.Source)
	case *ir.CountOp:
		return nodeMutates(node.Source)
	case *ir.IDOf:
		return nodeMutates(node.Source)
	case *ir.ProjectOp:
		return nodeMutates(node.Source)
	case *ir.CompareOp:
		return nodeMutates(node.Source) || nodeMutates(node.Arg)
	case *ir.ExistsOp:
		return nodeMutates(node.Sub)
	case *ir.AndOp:
		return nodeMutates(node.Left) || nodeMutates(node.Right)
	case *ir.OrOp:
		return nodeMutates(node.Left) || nodeMutates(node.Right)
	default:
		return false
	}
}

func (ex *Executor) run(ctx context.Context, plan *ir.Plan, params map[string]value.Value, tx *Transaction) ([]NamedResult, error) {
	env := make(map[string]value.Value, len(plan.Params)+len(plan.Body))
	for _, p := range plan.Params {
		v, ok := params[p.Name]
		if !ok {
			return nil, unbound(p.Name)
		}
		env[p.Name] = v
	}
	for _, stmt := range plan.Body {
		s, err := ex.eval(ctx, stmt.Expr, tx, env)
		if err != nil {
			return nil, err
		}
		items, err := drain(ctx, s)
		if err != nil {
			return nil, err
		}
		if stmt.Name != "" {
			if len(items) == 1 {
				env[stmt.Name] = items[0]
			} else {
				env[stmt.Name] = value.Arr(items)
			}
		}
	}

	if len(plan.Return) > 1 && !anyMutates(plan.Return) {
		return ex.evalReturnsConcurrently(ctx, plan.Return, tx, env)
	}

	results := make([]NamedResult, 0, len(plan.Return))
	for i, r := range plan.Return {
		s, err := ex.eval(ctx, r, tx, env)
		if err != nil {
			return nil, err
		}
		items, err := drain(ctx, s)
		if err != nil {
			return nil, err
		}
		results = append(results, NamedResult{Name: returnLabel(r, i), Values: items})
	}
	return results, nil
}

func returnLabel(n ir.Node, i int) string {
	if v, ok := n.(*ir.VarRef); ok {
		return v.Name
	}
	return fmt.Sprintf("return%d", i)
}

// eval lowers one ir.Node into a pull-based Stream. Mutating operators
// perform their write immediately (the transaction they run against is
// single-writer for its whole lifetime, so there is no benefit to
// deferring them) and return a one-element stream of their result.
func (ex *Executor) eval(ctx context.Context, n ir.Node, tx *Transaction, env map[string]value.Value) (Stream, error) {
	if err := tx.checkOpen(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch node := n.(type) {
	case *ir.Literal:
		return newSlice([]value.Value{node.Value}), nil
	case *ir.ArrayLit:
		items := make([]value.Value, 0, len(node.Items))
		for _, it := range node.Items {
			v, err := ex.one(ctx, it, tx, env)
			if err != nil {
				return nil, err
			}
			items = append(items, v)
		}
		return newSlice([]value.Value{value.Arr(items)}), nil
	case *ir.ParamRef:
		v, ok := env[node.Name]
		if !ok {
			return nil, unbound(node.Name)
		}
		return newSlice([]value.Value{v}), nil
	case *ir.VarRef:
		v, ok := env[node.Name]
		if !ok {
			return nil, unbound(node.Name)
		}
		if v.Kind == value.Array {
			return newSlice(v.Arr), nil
		}
		return newSlice([]value.Value{v}), nil
	case *ir.ScanNodes:
		return ex.evalScanNodes(ctx, node, tx, env)
	case *ir.ScanEdges:
		return ex.evalScanEdges(ctx, node, tx, env)
	case *ir.ScanVectors:
		return ex.evalScanVectors(ctx, node)
	case *ir.Traverse:
		src, err := ex.eval(ctx, node.Source, tx, env)
		if err != nil {
			return nil, err
		}
		return &traverseStream{src: src, graph: ex.Graph, tx: tx.graph, dir: node.Dir, edgeType: node.EdgeType, toEdges: node.ToEdges}, nil
	case *ir.Filter:
		src, err := ex.eval(ctx, node.Source, tx, env)
		if err != nil {
			return nil, err
		}
		return &filterStream{src: src, pred: func(ctx context.Context, v value.Value) (bool, error) {
			env2 := withVar(env, "_", v)
			pv, err := ex.one(ctx, node.Pred, tx, env2)
			if err != nil {
				return false, err
			}
			return pv.Kind == value.Boolean && pv.B, nil
		}}, nil
	case *ir.RangeOp:
		src, err := ex.eval(ctx, node.Source, tx, env)
		if err != nil {
			return nil, err
		}
		items, err := drain(ctx, src)
		if err != nil {
			return nil, err
		}
		lo, err := ex.oneInt(ctx, node.Lo, tx, env)
		if err != nil {
			return nil, err
		}
		hi, err := ex.oneInt(ctx, node.Hi, tx, env)
		if err != nil {
			return nil, err
		}
		if lo > hi {
			return nil, &RangeError{Lo: lo, Hi: hi}
		}
		if lo < 0 {
			lo = 0
		}
		n := int64(len(items))
		if lo > n {
			lo = n
		}
		if hi > n {
			hi = n
		}
		return newSlice(items[int(lo):int(hi)]), nil
	case *ir.CountOp:
		src, err := ex.eval(ctx, node.Source, tx, env)
		if err != nil {
			return nil, err
		}
		items, err := drain(ctx, src)
		if err != nil {
			return nil, err
		}
		return newSlice([]value.Value{value.Int(int64(len(items)))}), nil
	case *ir.IDOf:
		src, err := ex.eval(ctx, node.Source, tx, env)
		if err != nil {
			return nil, err
		}
		return &mapStream{src: src, fn: func(ctx context.Context, v value.Value) (value.Value, error) {
			switch v.Kind {
			case value.NodeRef, value.EdgeRef, value.VectorRef:
				return value.Str(v.ID.String()), nil
			default:
				return value.Value{}, typeMismatch("NodeRef/EdgeRef/VectorRef", v.Kind.String())
			}
		}}, nil
	case *ir.CompareOp:
		return ex.evalCompare(ctx, node, tx, env)
	case *ir.ExistsOp:
		sub, err := ex.eval(ctx, node.Sub, tx, env)
		if err != nil {
			return nil, err
		}
		_, ok, err := first(ctx, sub)
		if err != nil {
			return nil, err
		}
		return newSlice([]value.Value{value.Bool(ok)}), nil
	case *ir.AndOp:
		l, err := ex.oneBool(ctx, node.Left, tx, env)
		if err != nil {
			return nil, err
		}
		if !l {
			return newSlice([]value.Value{value.Bool(false)}), nil
		}
		r, err := ex.oneBool(ctx, node.Right, tx, env)
		if err != nil {
			return nil, err
		}
		return newSlice([]value.Value{value.Bool(r)}), nil
	case *ir.OrOp:
		l, err := ex.oneBool(ctx, node.Left, tx, env)
		if err != nil {
			return nil, err
		}
		if l {
			return newSlice([]value.Value{value.Bool(true)}), nil
		}
		r, err := ex.oneBool(ctx, node.Right, tx, env)
		if err != nil {
			return nil, err
		}
		return newSlice([]value.Value{value.Bool(r)}), nil
	case *ir.ProjectOp:
		src, err := ex.eval(ctx, node.Source, tx, env)
		if err != nil {
			return nil, err
		}
		return &mapStream{src: src, fn: func(ctx context.Context, v value.Value) (value.Value, error) {
			return ex.project(ctx, node, v, tx, env)
		}}, nil
	case *ir.AddNode:
		return ex.evalAddNode(ctx, node, tx, env)
	case *ir.AddEdge:
		return ex.evalAddEdge(ctx, node, tx, env)
	case *ir.AddVector:
		return ex.evalAddVector(ctx, node, tx, env)
	case *ir.BatchAddVector:
		return ex.evalBatchAddVector(ctx, node, tx, env)
	case *ir.UpdateOp:
		return ex.evalUpdate(ctx, node, tx, env)
	case *ir.DropOp:
		return ex.evalDrop(ctx, node, tx, env)
	case *ir.SearchVOp:
		return ex.evalSearchV(ctx, node, tx, env)
	}
	return nil, fmt.Errorf("exec: unhandled ir node %T", n)
}

func withVar(env map[string]value.Value, name string, v value.Value) map[string]value.Value {
	ne := make(map[string]value.Value, len(env)+1)
	for k, val := range env {
		ne[k] = val
	}
	ne[name] = v
	return ne
}

// one evaluates n and returns its single value, erroring if it produced
// none (used for scalar argument positions: comparator operands,
// RANGE bounds, SearchV's k, AddV's payload, …).
func (ex *Executor) one(ctx context.Context, n ir.Node, tx *Transaction, env map[string]value.Value) (value.Value, error) {
	s, err := ex.eval(ctx, n, tx, env)
	if err != nil {
		return value.Value{}, err
	}
	v, ok, err := first(ctx, s)
	if err != nil {
		return value.Value{}, err
	}
	if !ok {
		return value.Value{}, &RuntimeError{Kind: "EmptyValue", Message: "expected a value, stream was empty"}
	}
	return v, nil
}

func (ex *Executor) oneBool(ctx context.Context, n ir.Node, tx *Transaction, env map[string]value.Value) (bool, error) {
	v, err := ex.one(ctx, n, tx, env)
	if err != nil {
		return false, err
	}
	if v.Kind != value.Boolean {
		return false, typeMismatch("Boolean", v.Kind.String())
	}
	return v.B, nil
}

func (ex *Executor) oneInt(ctx context.Context, n ir.Node, tx *Transaction, env map[string]value.Value) (int64, error) {
	v, err := ex.one(ctx, n, tx, env)
	if err != nil {
		return 0, err
	}
	if v.Kind != value.Integer {
		return 0, typeMismatch("Integer", v.Kind.String())
	}
	return v.I, nil
}

// oneFloatArray reads a [Float] argument. A named array (a query parameter
// or body binding) evaluates to a stream of its items, so any result other
// than a single array item is joined back into one array.
func (ex *Executor) oneFloatArray(ctx context.Context, n ir.Node, tx *Transaction, env map[string]value.Value) ([]float64, error) {
	s, err := ex.eval(ctx, n, tx, env)
	if err != nil {
		return nil, err
	}
	items, err := drain(ctx, s)
	if err != nil {
		return nil, err
	}
	if len(items) == 1 && items[0].Kind == value.Array {
		return floatArrayOf(items[0])
	}
	return floatArrayOf(value.Arr(items))
}

func floatArrayOf(v value.Value) ([]float64, error) {
	if v.Kind != value.Array {
		return nil, typeMismatch("[Float]", v.Kind.String())
	}
	out := make([]float64, 0, len(v.Arr))
	for _, item := range v.Arr {
		f, ok := item.AsFloat64()
		if !ok {
			return nil, typeMismatch("Float", item.Kind.String())
		}
		out = append(out, f)
	}
	return out, nil
}
