package serialization

import (
	"bytes"
	"context"
	"math"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/uuid"

	"github.com/ritamzico/helixdb/internal/lang"
	"github.com/ritamzico/helixdb/internal/schema"
	"github.com/ritamzico/helixdb/internal/store"
	"github.com/ritamzico/helixdb/internal/store/memstore"
	"github.com/ritamzico/helixdb/internal/vectorstore"
	"github.com/ritamzico/helixdb/internal/vectorstore/flat"
)

func buildRegistry(t *testing.T, src string) *schema.Registry {
	t.Helper()
	ast, err := lang.Parse("t.hx", src)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	reg, err := schema.BuildRegistry(ast)
	if err != nil {
		t.Fatalf("BuildRegistry: %v", err)
	}
	return reg
}

func buildGraph(t *testing.T, reg *schema.Registry, nodes []nodeDesc, edges []edgeDesc) *memstore.Store {
	t.Helper()
	gs := memstore.New(reg)
	var storeNodes []*store.Node
	for _, n := range nodes {
		storeNodes = append(storeNodes, &store.Node{ID: n.id, Type: n.typ, Props: n.props})
	}
	var storeEdges []*store.Edge
	for _, e := range edges {
		storeEdges = append(storeEdges, &store.Edge{ID: e.id, Type: e.typ, From: e.from, To: e.to, Props: e.props})
	}
	gs.Restore(storeNodes, storeEdges)
	return gs
}

type nodeDesc struct {
	id    uuid.UUID
	typ   string
	props map[string]any
}

type edgeDesc struct {
	id    uuid.UUID
	typ   string
	from  uuid.UUID
	to    uuid.UUID
	props map[string]any
}

// roundTrip serializes a snapshot to JSON and reads it back.
func roundTrip(t *testing.T, snap Snapshot, reg *schema.Registry) Snapshot {
	t.Helper()
	var buf bytes.Buffer
	if err := WriteJSON(snap, &buf); err != nil {
		t.Fatalf("WriteJSON: %v", err)
	}
	gs, vs, err := ReadJSON(&buf, reg)
	if err != nil {
		t.Fatalf("ReadJSON: %v", err)
	}
	return Snapshot{Graph: gs, Vector: vs}
}

func assertNodeProp(t *testing.T, nodes []*store.Node, id uuid.UUID, key string, want any) {
	t.Helper()
	for _, n := range nodes {
		if n.ID == id {
			got, ok := n.Props[key]
			if !ok {
				t.Errorf("node %s: missing prop %q", id, key)
				return
			}
			if got != want {
				t.Errorf("prop %s: value = %v, want %v", key, got, want)
			}
			return
		}
	}
	t.Errorf("node %s not found", id)
}

func TestRoundTripEmptySnapshot(t *testing.T) {
	reg := buildRegistry(t, "N::User { }")
	gs := buildGraph(t, reg, nil, nil)
	got := roundTrip(t, Snapshot{Graph: gs, Vector: flat.New()}, reg)

	nodes, edges := got.Graph.Snapshot()
	if len(nodes) != 0 || len(edges) != 0 {
		t.Errorf("expected empty snapshot, got %d nodes, %d edges", len(nodes), len(edges))
	}
}

func TestRoundTripNodesOnly(t *testing.T) {
	reg := buildRegistry(t, "N::User { label: String }")
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	gs := buildGraph(t, reg, []nodeDesc{
		{id: a, typ: "User"},
		{id: b, typ: "User", props: map[string]any{}},
		{id: c, typ: "User", props: map[string]any{"label": "node-c"}},
	}, nil)

	got := roundTrip(t, Snapshot{Graph: gs, Vector: flat.New()}, reg)
	nodes, _ := got.Graph.Snapshot()
	if len(nodes) != 3 {
		t.Fatalf("expected 3 nodes, got %d", len(nodes))
	}
	assertNodeProp(t, nodes, c, "label", "node-c")
}

func TestRoundTripGraphWithEdges(t *testing.T) {
	reg := buildRegistry(t, `
N::User { }
E::Follows { From: User, To: User }
`)
	a, b, c := uuid.New(), uuid.New(), uuid.New()
	e1, e2 := uuid.New(), uuid.New()
	gs := buildGraph(t,
		reg,
		[]nodeDesc{{id: a, typ: "User"}, {id: b, typ: "User"}, {id: c, typ: "User"}},
		[]edgeDesc{
			{id: e1, typ: "Follows", from: a, to: b},
			{id: e2, typ: "Follows", from: b, to: c},
		},
	)
	got := roundTrip(t, Snapshot{Graph: gs, Vector: flat.New()}, reg)

	nodes, edges := got.Graph.Snapshot()
	if len(nodes) != 3 {
		t.Errorf("expected 3 nodes, got %d", len(nodes))
	}
	if len(edges) != 2 {
		t.Errorf("expected 2 edges, got %d", len(edges))
	}
}

func TestRoundTripAllPropertyTypes(t *testing.T) {
	reg := buildRegistry(t, "N::User { }")
	n1 := uuid.New()
	gs := buildGraph(t, reg, []nodeDesc{{
		id:  n1,
		typ: "User",
		props: map[string]any{
			"count":   int64(42),
			"weight":  3.14,
			"name":    "hello",
			"enabled": true,
			"tags":    []any{"a", "b"},
		},
	}}, nil)
	got := roundTrip(t, Snapshot{Graph: gs, Vector: flat.New()}, reg)

	nodes, _ := got.Graph.Snapshot()
	assertNodeProp(t, nodes, n1, "count", int64(42))
	assertNodeProp(t, nodes, n1, "weight", 3.14)
	assertNodeProp(t, nodes, n1, "name", "hello")
	assertNodeProp(t, nodes, n1, "enabled", true)
}

func TestRoundTripPreservesIDs(t *testing.T) {
	reg := buildRegistry(t, `
N::User { }
E::Follows { From: User, To: User }
`)
	a, b, eid := uuid.New(), uuid.New(), uuid.New()
	gs := buildGraph(t,
		reg,
		[]nodeDesc{{id: a, typ: "User"}, {id: b, typ: "User"}},
		[]edgeDesc{{id: eid, typ: "Follows", from: a, to: b}},
	)
	got := roundTrip(t, Snapshot{Graph: gs, Vector: flat.New()}, reg)

	_, edges := got.Graph.Snapshot()
	if len(edges) != 1 || edges[0].ID != eid {
		t.Fatalf("expected edge id %s preserved, got %v", eid, edges)
	}
	if edges[0].From != a || edges[0].To != b {
		t.Errorf("edge endpoints = %s -> %s, want %s -> %s", edges[0].From, edges[0].To, a, b)
	}
}

func TestRoundTripVectors(t *testing.T) {
	ctx := context.Background()
	reg := buildRegistry(t, "V::Embedding")
	vs := flat.New()
	if err := vs.Register("Embedding", 2, vectorstore.Cosine); err != nil {
		t.Fatalf("Register: %v", err)
	}
	id, err := vs.Put(ctx, "Embedding", []float64{0.1, 0.2})
	if err != nil {
		t.Fatalf("Put: %v", err)
	}

	gs := memstore.New(reg)
	got := roundTrip(t, Snapshot{Graph: gs, Vector: vs}, reg)

	vec, typ, err := got.Vector.Get(ctx, id)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if typ != "Embedding" {
		t.Errorf("type = %q, want Embedding", typ)
	}
	if len(vec) != 2 || math.Abs(vec[0]-0.1) > 1e-12 || math.Abs(vec[1]-0.2) > 1e-12 {
		t.Errorf("vec = %v, want [0.1 0.2]", vec)
	}
}

func TestSaveAndLoadJSON(t *testing.T) {
	reg := buildRegistry(t, "N::User { val: Integer }")
	dir := t.TempDir()
	path := filepath.Join(dir, "snapshot.json")

	a := uuid.New()
	gs := buildGraph(t, reg, []nodeDesc{{id: a, typ: "User", props: map[string]any{"val": int64(10)}}}, nil)

	if err := SaveJSON(Snapshot{Graph: gs, Vector: flat.New()}, path); err != nil {
		t.Fatalf("SaveJSON: %v", err)
	}
	gotGraph, _, err := LoadJSON(path, reg)
	if err != nil {
		t.Fatalf("LoadJSON: %v", err)
	}
	nodes, _ := gotGraph.Snapshot()
	assertNodeProp(t, nodes, a, "val", int64(10))
}

func TestLoadJSONNonexistentFile(t *testing.T) {
	reg := buildRegistry(t, "N::User { }")
	_, _, err := LoadJSON("/nonexistent/path/snapshot.json", reg)
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestSaveJSONInvalidPath(t *testing.T) {
	reg := buildRegistry(t, "N::User { }")
	gs := memstore.New(reg)
	err := SaveJSON(Snapshot{Graph: gs, Vector: flat.New()}, "/nonexistent/dir/snapshot.json")
	if err == nil {
		t.Error("expected error for invalid path")
	}
}

func TestWriteJSONIsIndented(t *testing.T) {
	reg := buildRegistry(t, "N::User { }")
	gs := buildGraph(t, reg, []nodeDesc{{id: uuid.New(), typ: "User"}}, nil)
	var buf bytes.Buffer
	if err := WriteJSON(Snapshot{Graph: gs, Vector: flat.New()}, &buf); err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(buf.String(), "\n")
	if len(lines) < 3 {
		t.Error("expected indented (multi-line) JSON output")
	}
}

func TestReadJSONInvalidJSON(t *testing.T) {
	reg := buildRegistry(t, "N::User { }")
	inputs := []struct {
		name  string
		input string
	}{
		{"empty string", ""},
		{"bare word", "notjson"},
		{"truncated", `{"nodes": [`},
		{"trailing comma", `{"nodes": [{"id": "a"},]}`},
	}
	for _, tc := range inputs {
		t.Run(tc.name, func(t *testing.T) {
			_, _, err := ReadJSON(strings.NewReader(tc.input), reg)
			if err == nil {
				t.Error("expected error for invalid JSON")
			}
		})
	}
}

func TestReadJSONMalformedNodeID(t *testing.T) {
	reg := buildRegistry(t, "N::User { }")
	input := `{"nodes": [{"id": "not-a-uuid", "type": "User"}], "edges": []}`
	_, _, err := ReadJSON(strings.NewReader(input), reg)
	if err == nil {
		t.Error("expected error for malformed node id")
	}
}

func TestReadJSONUnknownValueKind(t *testing.T) {
	reg := buildRegistry(t, "N::User { }")
	id := uuid.New().String()
	input := `{"nodes": [{"id": "` + id + `", "type": "User", "props": {"x": {"kind": "complex", "value": 42}}}], "edges": []}`
	_, _, err := ReadJSON(strings.NewReader(input), reg)
	if err == nil {
		t.Error("expected error for unknown value kind")
	}
}

func TestMarshalValueAllKinds(t *testing.T) {
	cases := []struct {
		name string
		in   any
		kind string
	}{
		{"int", int64(7), "int"},
		{"float", 2.5, "float"},
		{"string", "hi", "string"},
		{"bool", true, "bool"},
		{"array", []any{int64(1), "x"}, "array"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := marshalValue(tc.in)
			if got.Kind != tc.kind {
				t.Errorf("Kind = %q, want %q", got.Kind, tc.kind)
			}
		})
	}
}

func TestMarshalValueUnknownKind(t *testing.T) {
	got := marshalValue(struct{}{})
	if got.Kind != "unknown" {
		t.Errorf("expected 'unknown', got %q", got.Kind)
	}
}
