// Package serialization persists a full database image — graph nodes and
// edges plus vector type registrations and payloads — to JSON, used by
// cmd/helix/cmd/helixd to preload or checkpoint a .hxdata snapshot.
// Schema itself is never persisted here: a snapshot is always loaded
// against a Registry already built from a .hx schema file, mirroring the
// teacher's separation of graph data from the DSL that shapes it.
package serialization

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/google/uuid"

	"github.com/ritamzico/helixdb/internal/schema"
	"github.com/ritamzico/helixdb/internal/store"
	"github.com/ritamzico/helixdb/internal/store/memstore"
	"github.com/ritamzico/helixdb/internal/vectorstore"
	"github.com/ritamzico/helixdb/internal/vectorstore/flat"
)

type serializedValue struct {
	Kind  string `json:"kind"`
	Value any    `json:"value,omitempty"`
}

type serializedNode struct {
	ID    string                     `json:"id"`
	Type  string                     `json:"type"`
	Props map[string]serializedValue `json:"props,omitempty"`
}

type serializedEdge struct {
	ID    string                     `json:"id"`
	Type  string                     `json:"type"`
	From  string                     `json:"from"`
	To    string                     `json:"to"`
	Props map[string]serializedValue `json:"props,omitempty"`
}

type serializedVectorType struct {
	Type   string `json:"type"`
	Dim    int    `json:"dim"`
	Metric string `json:"metric"`
}

type serializedVector struct {
	ID   string    `json:"id"`
	Type string    `json:"type"`
	Vec  []float64 `json:"vec"`
}

type serializedSnapshot struct {
	Nodes       []serializedNode       `json:"nodes"`
	Edges       []serializedEdge       `json:"edges"`
	VectorTypes []serializedVectorType `json:"vector_types,omitempty"`
	Vectors     []serializedVector     `json:"vectors,omitempty"`
}

func marshalValue(v any) serializedValue {
	switch t := v.(type) {
	case int64:
		return serializedValue{Kind: "int", Value: t}
	case int:
		return serializedValue{Kind: "int", Value: int64(t)}
	case float64:
		return serializedValue{Kind: "float", Value: t}
	case string:
		return serializedValue{Kind: "string", Value: t}
	case bool:
		return serializedValue{Kind: "bool", Value: t}
	case []any:
		items := make([]serializedValue, len(t))
		for i, it := range t {
			items[i] = marshalValue(it)
		}
		return serializedValue{Kind: "array", Value: items}
	default:
		return serializedValue{Kind: "unknown"}
	}
}

func unmarshalValue(sv serializedValue) (any, error) {
	switch sv.Kind {
	case "int":
		f, ok := sv.Value.(float64)
		if !ok {
			return nil, fmt.Errorf("expected number for int, got %T", sv.Value)
		}
		return int64(f), nil

	case "float":
		f, ok := sv.Value.(float64)
		if !ok {
			return nil, fmt.Errorf("expected number for float, got %T", sv.Value)
		}
		return f, nil

	case "string":
		s, ok := sv.Value.(string)
		if !ok {
			return nil, fmt.Errorf("expected string, got %T", sv.Value)
		}
		return s, nil

	case "bool":
		b, ok := sv.Value.(bool)
		if !ok {
			return nil, fmt.Errorf("expected bool, got %T", sv.Value)
		}
		return b, nil

	case "array":
		raw, ok := sv.Value.([]any)
		if !ok {
			return nil, fmt.Errorf("expected array, got %T", sv.Value)
		}
		out := make([]any, len(raw))
		for i, item := range raw {
			b, err := json.Marshal(item)
			if err != nil {
				return nil, err
			}
			var inner serializedValue
			if err := json.Unmarshal(b, &inner); err != nil {
				return nil, err
			}
			v, err := unmarshalValue(inner)
			if err != nil {
				return nil, err
			}
			out[i] = v
		}
		return out, nil

	default:
		return nil, fmt.Errorf("unknown serialized value kind %q", sv.Kind)
	}
}

func marshalProps(props map[string]any) map[string]serializedValue {
	if len(props) == 0 {
		return nil
	}
	out := make(map[string]serializedValue, len(props))
	for k, v := range props {
		out[k] = marshalValue(v)
	}
	return out
}

func unmarshalProps(props map[string]serializedValue) (map[string]any, error) {
	out := make(map[string]any, len(props))
	for k, sv := range props {
		v, err := unmarshalValue(sv)
		if err != nil {
			return nil, fmt.Errorf("prop %s: %w", k, err)
		}
		out[k] = v
	}
	return out, nil
}

// Snapshot pairs a graph store and a vector store into the single unit
// WriteJSON/ReadJSON persist.
type Snapshot struct {
	Graph  *memstore.Store
	Vector *flat.Store
}

func toSerializedSnapshot(snap Snapshot) serializedSnapshot {
	var out serializedSnapshot

	nodes, edges := snap.Graph.Snapshot()
	for _, n := range nodes {
		out.Nodes = append(out.Nodes, serializedNode{ID: n.ID.String(), Type: n.Type, Props: marshalProps(n.Props)})
	}
	for _, e := range edges {
		out.Edges = append(out.Edges, serializedEdge{
			ID: e.ID.String(), Type: e.Type, From: e.From.String(), To: e.To.String(),
			Props: marshalProps(e.Props),
		})
	}

	if snap.Vector != nil {
		cfgs, entries := snap.Vector.Dump()
		for _, c := range cfgs {
			out.VectorTypes = append(out.VectorTypes, serializedVectorType{Type: c.Type, Dim: c.Dim, Metric: c.Metric.String()})
		}
		for _, e := range entries {
			out.Vectors = append(out.Vectors, serializedVector{ID: e.ID.String(), Type: e.Type, Vec: e.Vec})
		}
	}
	return out
}

func parseMetric(s string) vectorstore.Metric {
	if s == "euclidean" {
		return vectorstore.Euclidean
	}
	return vectorstore.Cosine
}

func fromSerializedSnapshot(ss serializedSnapshot, reg *schema.Registry) (*memstore.Store, *flat.Store, error) {
	nodes := make([]*store.Node, 0, len(ss.Nodes))
	for _, sn := range ss.Nodes {
		id, err := uuid.Parse(sn.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("node %s: %w", sn.ID, err)
		}
		props, err := unmarshalProps(sn.Props)
		if err != nil {
			return nil, nil, fmt.Errorf("node %s: %w", sn.ID, err)
		}
		nodes = append(nodes, &store.Node{ID: id, Type: sn.Type, Props: props})
	}

	edges := make([]*store.Edge, 0, len(ss.Edges))
	for _, se := range ss.Edges {
		id, err := uuid.Parse(se.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("edge %s: %w", se.ID, err)
		}
		from, err := uuid.Parse(se.From)
		if err != nil {
			return nil, nil, fmt.Errorf("edge %s: malformed from: %w", se.ID, err)
		}
		to, err := uuid.Parse(se.To)
		if err != nil {
			return nil, nil, fmt.Errorf("edge %s: malformed to: %w", se.ID, err)
		}
		props, err := unmarshalProps(se.Props)
		if err != nil {
			return nil, nil, fmt.Errorf("edge %s: %w", se.ID, err)
		}
		edges = append(edges, &store.Edge{ID: id, Type: se.Type, From: from, To: to, Props: props})
	}

	gs := memstore.New(reg)
	gs.Restore(nodes, edges)

	cfgs := make([]flat.TypeConfig, 0, len(ss.VectorTypes))
	for _, c := range ss.VectorTypes {
		cfgs = append(cfgs, flat.TypeConfig{Type: c.Type, Dim: c.Dim, Metric: parseMetric(c.Metric)})
	}
	entries := make([]flat.Entry, 0, len(ss.Vectors))
	for _, v := range ss.Vectors {
		id, err := uuid.Parse(v.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("vector %s: %w", v.ID, err)
		}
		entries = append(entries, flat.Entry{ID: id, Type: v.Type, Vec: v.Vec})
	}
	vs := flat.New()
	vs.Restore(cfgs, entries)

	return gs, vs, nil
}

// WriteJSON encodes snap to JSON and writes it to w.
func WriteJSON(snap Snapshot, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(toSerializedSnapshot(snap))
}

// ReadJSON decodes a snapshot from r, building fresh backends against reg.
func ReadJSON(r io.Reader, reg *schema.Registry) (*memstore.Store, *flat.Store, error) {
	var ss serializedSnapshot
	if err := json.NewDecoder(r).Decode(&ss); err != nil {
		return nil, nil, fmt.Errorf("decoding snapshot JSON: %w", err)
	}
	return fromSerializedSnapshot(ss, reg)
}

// SaveJSON writes snap to a JSON file at path.
func SaveJSON(snap Snapshot, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating file %s: %w", path, err)
	}
	defer f.Close()
	return WriteJSON(snap, f)
}

// LoadJSON reads a snapshot from a JSON file at path.
func LoadJSON(path string, reg *schema.Registry) (*memstore.Store, *flat.Store, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("opening file %s: %w", path, err)
	}
	defer f.Close()
	return ReadJSON(f, reg)
}
