package exec

import (
	"context"

	"github.com/ritamzico/helixdb/internal/store"
	"github.com/ritamzico/helixdb/internal/value"
)

// Stream is the pull-based iterator every operator produces: callers
// advance it by calling Next, which returns (zero, false, nil) at
// end-of-stream and propagates context cancellation/deadline errors and
// backend errors alike.
type Stream interface {
	Next(ctx context.Context) (value.Value, bool, error)
}

// sliceStream adapts an already-materialized slice to Stream — used for
// scan results (the backend already returns a slice) and for
// scalar/literal "streams" of exactly one value.
type sliceStream struct {
	items []value.Value
	i     int
}

func newSlice(items []value.Value) *sliceStream { return &sliceStream{items: items} }

func (s *sliceStream) Next(ctx context.Context) (value.Value, bool, error) {
	if err := ctx.Err(); err != nil {
		return value.Value{}, false, err
	}
	if s.i >= len(s.items) {
		return value.Value{}, false, nil
	}
	v := s.items[s.i]
	s.i++
	return v, true, nil
}

func drain(ctx context.Context, s Stream) ([]value.Value, error) {
	var out []value.Value
	for {
		v, ok, err := s.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !ok {
			return out, nil
		}
		out = append(out, v)
	}
}

func first(ctx context.Context, s Stream) (value.Value, bool, error) {
	return s.Next(ctx)
}

// mapStream lazily applies fn to every element pulled from src.
type mapStream struct {
	src Stream
	fn  func(ctx context.Context, v value.Value) (value.Value, error)
}

func (m *mapStream) Next(ctx context.Context) (value.Value, bool, error) {
	v, ok, err := m.src.Next(ctx)
	if err != nil || !ok {
		return value.Value{}, ok, err
	}
	out, err := m.fn(ctx, v)
	if err != nil {
		return value.Value{}, false, err
	}
	return out, true, nil
}

// filterStream lazily re-pulls from src until pred accepts an element or
// src is exhausted.
type filterStream struct {
	src  Stream
	pred func(ctx context.Context, v value.Value) (bool, error)
}

func (f *filterStream) Next(ctx context.Context) (value.Value, bool, error) {
	for {
		if err := ctx.Err(); err != nil {
			return value.Value{}, false, err
		}
		v, ok, err := f.src.Next(ctx)
		if err != nil || !ok {
			return value.Value{}, ok, err
		}
		keep, err := f.pred(ctx, v)
		if err != nil {
			return value.Value{}, false, err
		}
		if keep {
			return v, true, nil
		}
	}
}

// traverseStream expands each upstream NodeRef into its incident edges
// (or the node at the other end of each edge), buffering one upstream
// element's expansion at a time so the overall chain still pulls
// lazily — only as many upstream elements are fetched as downstream
// consumption requires.
type traverseStream struct {
	src      Stream
	graph    store.GraphStore
	tx       store.Tx
	dir      store.Direction
	edgeType string
	toEdges  bool

	buf []value.Value
	bi  int
}

func (t *traverseStream) Next(ctx context.Context) (value.Value, bool, error) {
	for {
		if t.bi < len(t.buf) {
			v := t.buf[t.bi]
			t.bi++
			return v, true, nil
		}
		if err := ctx.Err(); err != nil {
			return value.Value{}, false, err
		}
		v, ok, err := t.src.Next(ctx)
		if err != nil || !ok {
			return value.Value{}, ok, err
		}
		if v.Kind != value.NodeRef {
			return value.Value{}, false, typeMismatch("NodeRef", v.Kind.String())
		}
		edges, err := t.graph.Neighbors(ctx, t.tx, v.ID, t.dir, t.edgeType)
		if err != nil {
			return value.Value{}, false, err
		}
		t.buf = t.buf[:0]
		t.bi = 0
		for _, e := range edges {
			if t.toEdges {
				t.buf = append(t.buf, value.Edge(e.ID, e.Type))
				continue
			}
			other := e.To
			if e.From != v.ID {
				other = e.From
			}
			n, err := t.graph.GetNode(ctx, t.tx, other)
			if err != nil {
				return value.Value{}, false, err
			}
			t.buf = append(t.buf, value.Node(n.ID, n.Type))
		}
	}
}
