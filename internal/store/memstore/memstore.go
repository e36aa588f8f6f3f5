// Package memstore is the in-memory GraphStore reference implementation
// (spec §4.G, Non-goal: real storage/HNSW engines are out of scope).
//
// It is a direct descendant of the teacher's adjacency-list probabilistic
// graph: the same map-of-pointers adjacency structure, and the same
// clone-before-mutate technique the teacher used for Clone(), here
// repurposed as MVCC snapshot isolation between one writer and any number
// of concurrent readers instead of as a probability-sampling helper.
package memstore

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"

	"github.com/ritamzico/helixdb/internal/schema"
	"github.com/ritamzico/helixdb/internal/store"
)

// snapshot is an immutable view of the graph. A write transaction builds
// a new snapshot from a shallow clone of the current one and mutates the
// clone; readers that began before the clone was published keep seeing
// the old snapshot, which is never mutated in place.
type snapshot struct {
	nodes map[uuid.UUID]*store.Node
	edges map[uuid.UUID]*store.Edge
	out   map[uuid.UUID][]uuid.UUID // node -> edge ids where node is From
	in    map[uuid.UUID][]uuid.UUID // node -> edge ids where node is To
}

func emptySnapshot() *snapshot {
	return &snapshot{
		nodes: make(map[uuid.UUID]*store.Node),
		edges: make(map[uuid.UUID]*store.Edge),
		out:   make(map[uuid.UUID][]uuid.UUID),
		in:    make(map[uuid.UUID][]uuid.UUID),
	}
}

func (s *snapshot) clone() *snapshot {
	ns := &snapshot{
		nodes: make(map[uuid.UUID]*store.Node, len(s.nodes)),
		edges: make(map[uuid.UUID]*store.Edge, len(s.edges)),
		out:   make(map[uuid.UUID][]uuid.UUID, len(s.out)),
		in:    make(map[uuid.UUID][]uuid.UUID, len(s.in)),
	}
	for k, v := range s.nodes {
		ns.nodes[k] = v
	}
	for k, v := range s.edges {
		ns.edges[k] = v
	}
	for k, v := range s.out {
		ns.out[k] = append([]uuid.UUID(nil), v...)
	}
	for k, v := range s.in {
		ns.in[k] = append([]uuid.UUID(nil), v...)
	}
	return ns
}

// Store is the in-memory GraphStore. A single writeMu enforces the
// single-writer/multi-reader transaction discipline (spec §4.E).
type Store struct {
	registry *schema.Registry
	writeMu  sync.Mutex
	cur      atomic.Pointer[snapshot]
}

// New returns an empty store. registry is consulted to validate edge
// endpoint types on AddEdge.
func New(registry *schema.Registry) *Store {
	s := &Store{registry: registry}
	s.cur.Store(emptySnapshot())
	return s
}

type tx struct {
	s        *Store
	snap     *snapshot
	readOnly bool
	closed   bool
}

func (t *tx) ReadOnly() bool { return t.readOnly }

func txOf(h store.Tx) (*tx, error) {
	t, ok := h.(*tx)
	if !ok || t.closed {
		return nil, store.TxClosed()
	}
	return t, nil
}

func (s *Store) BeginRead(ctx context.Context) (store.Tx, error) {
	return &tx{s: s, snap: s.cur.Load(), readOnly: true}, nil
}

func (s *Store) BeginWrite(ctx context.Context) (store.Tx, error) {
	s.writeMu.Lock()
	return &tx{s: s, snap: s.cur.Load().clone(), readOnly: false}, nil
}

func (s *Store) Commit(ctx context.Context, h store.Tx) error {
	t, err := txOf(h)
	if err != nil {
		return err
	}
	t.closed = true
	if !t.readOnly {
		s.cur.Store(t.snap)
		s.writeMu.Unlock()
	}
	return nil
}

func (s *Store) Abort(ctx context.Context, h store.Tx) error {
	t, err := txOf(h)
	if err != nil {
		return err
	}
	t.closed = true
	if !t.readOnly {
		s.writeMu.Unlock()
	}
	return nil
}

func cloneProps(props map[string]any) map[string]any {
	out := make(map[string]any, len(props))
	for k, v := range props {
		out[k] = v
	}
	return out
}

func (s *Store) ScanNodes(ctx context.Context, h store.Tx, typeName string, ids []uuid.UUID) ([]*store.Node, error) {
	t, err := txOf(h)
	if err != nil {
		return nil, err
	}
	var out []*store.Node
	if len(ids) > 0 {
		for _, id := range ids {
			n, ok := t.snap.nodes[id]
			if ok && (typeName == "" || n.Type == typeName) {
				out = append(out, n)
			}
		}
		return out, nil
	}
	for _, n := range t.snap.nodes {
		if typeName == "" || n.Type == typeName {
			out = append(out, n)
		}
	}
	sortNodes(out)
	return out, nil
}

func (s *Store) ScanEdges(ctx context.Context, h store.Tx, typeName string, ids []uuid.UUID) ([]*store.Edge, error) {
	t, err := txOf(h)
	if err != nil {
		return nil, err
	}
	var out []*store.Edge
	if len(ids) > 0 {
		for _, id := range ids {
			e, ok := t.snap.edges[id]
			if ok && (typeName == "" || e.Type == typeName) {
				out = append(out, e)
			}
		}
		return out, nil
	}
	for _, e := range t.snap.edges {
		if typeName == "" || e.Type == typeName {
			out = append(out, e)
		}
	}
	sortEdges(out)
	return out, nil
}

func (s *Store) GetNode(ctx context.Context, h store.Tx, id uuid.UUID) (*store.Node, error) {
	t, err := txOf(h)
	if err != nil {
		return nil, err
	}
	n, ok := t.snap.nodes[id]
	if !ok {
		return nil, store.NotFound("node", id.String())
	}
	return n, nil
}

func (s *Store) GetEdge(ctx context.Context, h store.Tx, id uuid.UUID) (*store.Edge, error) {
	t, err := txOf(h)
	if err != nil {
		return nil, err
	}
	e, ok := t.snap.edges[id]
	if !ok {
		return nil, store.NotFound("edge", id.String())
	}
	return e, nil
}

func (s *Store) Neighbors(ctx context.Context, h store.Tx, id uuid.UUID, dir store.Direction, typeName string) ([]*store.Edge, error) {
	t, err := txOf(h)
	if err != nil {
		return nil, err
	}
	var ids []uuid.UUID
	switch dir {
	case store.Out:
		ids = t.snap.out[id]
	case store.In:
		ids = t.snap.in[id]
	case store.Both:
		ids = append(append([]uuid.UUID(nil), t.snap.out[id]...), t.snap.in[id]...)
	}
	var out []*store.Edge
	for _, eid := range ids {
		e := t.snap.edges[eid]
		if e == nil {
			continue
		}
		if typeName == "" || e.Type == typeName {
			out = append(out, e)
		}
	}
	sortEdges(out)
	return out, nil
}

func (s *Store) AddNode(ctx context.Context, h store.Tx, typeName string, props map[string]any) (*store.Node, error) {
	t, err := txOf(h)
	if err != nil {
		return nil, err
	}
	if t.readOnly {
		return nil, store.WriteOnReadOnlyTx()
	}
	n := &store.Node{ID: uuid.New(), Type: typeName, Props: cloneProps(props)}
	t.snap.nodes[n.ID] = n
	return n, nil
}

func (s *Store) AddEdge(ctx context.Context, h store.Tx, typeName string, from, to uuid.UUID, props map[string]any) (*store.Edge, error) {
	t, err := txOf(h)
	if err != nil {
		return nil, err
	}
	if t.readOnly {
		return nil, store.WriteOnReadOnlyTx()
	}
	fromNode, ok := t.snap.nodes[from]
	if !ok {
		return nil, store.NotFound("node", from.String())
	}
	toNode, ok := t.snap.nodes[to]
	if !ok {
		return nil, store.NotFound("node", to.String())
	}
	if et, ok := s.registry.EdgeType(typeName); ok {
		if et.From != fromNode.Type {
			return nil, store.EndpointMismatch(typeName, et.From, fromNode.Type)
		}
		if et.To != toNode.Type {
			return nil, store.EndpointMismatch(typeName, et.To, toNode.Type)
		}
	}
	e := &store.Edge{ID: uuid.New(), Type: typeName, From: from, To: to, Props: cloneProps(props)}
	t.snap.edges[e.ID] = e
	t.snap.out[from] = append(t.snap.out[from], e.ID)
	t.snap.in[to] = append(t.snap.in[to], e.ID)
	return e, nil
}

func (s *Store) UpdateNode(ctx context.Context, h store.Tx, id uuid.UUID, props map[string]any) (*store.Node, error) {
	t, err := txOf(h)
	if err != nil {
		return nil, err
	}
	if t.readOnly {
		return nil, store.WriteOnReadOnlyTx()
	}
	n, ok := t.snap.nodes[id]
	if !ok {
		return nil, store.NotFound("node", id.String())
	}
	merged := cloneProps(n.Props)
	for k, v := range props {
		merged[k] = v
	}
	updated := &store.Node{ID: n.ID, Type: n.Type, Props: merged}
	t.snap.nodes[id] = updated
	return updated, nil
}

func (s *Store) UpdateEdge(ctx context.Context, h store.Tx, id uuid.UUID, props map[string]any) (*store.Edge, error) {
	t, err := txOf(h)
	if err != nil {
		return nil, err
	}
	if t.readOnly {
		return nil, store.WriteOnReadOnlyTx()
	}
	e, ok := t.snap.edges[id]
	if !ok {
		return nil, store.NotFound("edge", id.String())
	}
	merged := cloneProps(e.Props)
	for k, v := range props {
		merged[k] = v
	}
	updated := &store.Edge{ID: e.ID, Type: e.Type, From: e.From, To: e.To, Props: merged}
	t.snap.edges[id] = updated
	return updated, nil
}

// DropNode removes id and cascades to every edge incident to it.
func (s *Store) DropNode(ctx context.Context, h store.Tx, id uuid.UUID) error {
	t, err := txOf(h)
	if err != nil {
		return err
	}
	if t.readOnly {
		return store.WriteOnReadOnlyTx()
	}
	if _, ok := t.snap.nodes[id]; !ok {
		return store.NotFound("node", id.String())
	}
	incident := append(append([]uuid.UUID(nil), t.snap.out[id]...), t.snap.in[id]...)
	for _, eid := range incident {
		s.removeEdge(t.snap, eid)
	}
	delete(t.snap.nodes, id)
	delete(t.snap.out, id)
	delete(t.snap.in, id)
	return nil
}

func (s *Store) DropEdge(ctx context.Context, h store.Tx, id uuid.UUID) error {
	t, err := txOf(h)
	if err != nil {
		return err
	}
	if t.readOnly {
		return store.WriteOnReadOnlyTx()
	}
	if _, ok := t.snap.edges[id]; !ok {
		return store.NotFound("edge", id.String())
	}
	s.removeEdge(t.snap, id)
	return nil
}

func (s *Store) removeEdge(snap *snapshot, id uuid.UUID) {
	e, ok := snap.edges[id]
	if !ok {
		return
	}
	delete(snap.edges, id)
	snap.out[e.From] = removeID(snap.out[e.From], id)
	snap.in[e.To] = removeID(snap.in[e.To], id)
}

func removeID(ids []uuid.UUID, target uuid.UUID) []uuid.UUID {
	out := ids[:0]
	for _, id := range ids {
		if id != target {
			out = append(out, id)
		}
	}
	return out
}

// Snapshot returns every node and edge currently stored, for
// serialization to persist a graph without going through AddNode/AddEdge
// (which always mint fresh IDs).
func (s *Store) Snapshot() ([]*store.Node, []*store.Edge) {
	snap := s.cur.Load()
	nodes := make([]*store.Node, 0, len(snap.nodes))
	for _, n := range snap.nodes {
		nodes = append(nodes, n)
	}
	edges := make([]*store.Edge, 0, len(snap.edges))
	for _, e := range snap.edges {
		edges = append(edges, e)
	}
	sortNodes(nodes)
	sortEdges(edges)
	return nodes, edges
}

// Restore repopulates the store from a prior Snapshot, preserving
// node/edge IDs exactly.
func (s *Store) Restore(nodes []*store.Node, edges []*store.Edge) {
	snap := emptySnapshot()
	for _, n := range nodes {
		snap.nodes[n.ID] = n
	}
	for _, e := range edges {
		snap.edges[e.ID] = e
		snap.out[e.From] = append(snap.out[e.From], e.ID)
		snap.in[e.To] = append(snap.in[e.To], e.ID)
	}
	s.cur.Store(snap)
}

func sortNodes(nodes []*store.Node) {
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID.String() < nodes[j].ID.String() })
}

func sortEdges(edges []*store.Edge) {
	sort.Slice(edges, func(i, j int) bool { return edges[i].ID.String() < edges[j].ID.String() })
}
