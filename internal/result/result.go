// Package result mirrors internal/value.Value in a form the front ends
// (cmd/helix, cmd/helixd, and internal/frontend's parameter decoding) can
// put on the wire:
// scalars marshal to their natural JSON type, node/edge/vector references
// marshal to a small kind-tagged envelope carrying their UUID, and objects
// marshal preserving the Result Shaper's source-declared field order
// (spec §4.F), which encoding/json's map-based marshaling would otherwise
// scramble into alphabetical order.
package result

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/google/uuid"

	"github.com/ritamzico/helixdb/internal/value"
)

// Value is value.Value's JSON-marshalable counterpart (spec §6.3).
type Value struct {
	inner value.Value
}

// FromRuntime wraps a runtime value.Value for marshaling.
func FromRuntime(v value.Value) Value { return Value{inner: v} }

// Runtime unwraps back to the runtime representation.
func (rv Value) Runtime() value.Value { return rv.inner }

// refEnvelope is the wire shape of a NodeRef/EdgeRef/VectorRef.
type refEnvelope struct {
	Kind string `json:"kind"`
	ID   string `json:"id"`
	Type string `json:"type,omitempty"`
}

func (rv Value) MarshalJSON() ([]byte, error) {
	return marshalValue(rv.inner)
}

func marshalValue(v value.Value) ([]byte, error) {
	switch v.Kind {
	case value.Null:
		return []byte("null"), nil
	case value.String:
		return json.Marshal(v.S)
	case value.Integer:
		return json.Marshal(v.I)
	case value.Float:
		return json.Marshal(v.F)
	case value.Boolean:
		return json.Marshal(v.B)
	case value.Array:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, item := range v.Arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			b, err := marshalValue(item)
			if err != nil {
				return nil, err
			}
			buf.Write(b)
		}
		buf.WriteByte(']')
		return buf.Bytes(), nil
	case value.NodeRef, value.EdgeRef, value.VectorRef:
		return json.Marshal(refEnvelope{Kind: refKind(v.Kind), ID: v.ID.String(), Type: v.TypeName})
	case value.Object:
		return marshalObject(v.Obj)
	default:
		return nil, fmt.Errorf("result: unhandled value kind %v", v.Kind)
	}
}

func refKind(k value.Kind) string {
	switch k {
	case value.NodeRef:
		return "node"
	case value.EdgeRef:
		return "edge"
	case value.VectorRef:
		return "vector"
	default:
		return "ref"
	}
}

// marshalObject hand-builds the JSON object text so field order survives;
// encoding/json has no hook for ordering a Go map by anything but its keys.
func marshalObject(fields []value.Field) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		val, err := marshalValue(f.Val)
		if err != nil {
			return nil, err
		}
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (rv *Value) UnmarshalJSON(data []byte) error {
	v, err := unmarshalValue(data)
	if err != nil {
		return err
	}
	rv.inner = v
	return nil
}

func unmarshalValue(data []byte) (value.Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return value.Value{}, err
	}
	return anyToRuntimeValue(raw)
}

func anyToRuntimeValue(raw any) (value.Value, error) {
	switch t := raw.(type) {
	case nil:
		return value.Value{}, nil
	case string:
		return value.Str(t), nil
	case bool:
		return value.Bool(t), nil
	case json.Number:
		if i, err := strconv.ParseInt(t.String(), 10, 64); err == nil {
			return value.Int(i), nil
		}
		f, err := t.Float64()
		if err != nil {
			return value.Value{}, fmt.Errorf("result: malformed number %q", t)
		}
		return value.Flt(f), nil
	case []any:
		items := make([]value.Value, 0, len(t))
		for _, it := range t {
			v, err := anyToRuntimeValue(it)
			if err != nil {
				return value.Value{}, err
			}
			items = append(items, v)
		}
		return value.Arr(items), nil
	case map[string]any:
		if kind, id, typeName, ok := asRefEnvelope(t); ok {
			parsed, err := uuid.Parse(id)
			if err != nil {
				return value.Value{}, fmt.Errorf("result: malformed ref id %q: %w", id, err)
			}
			switch kind {
			case "node":
				return value.Node(parsed, typeName), nil
			case "edge":
				return value.Edge(parsed, typeName), nil
			case "vector":
				return value.Vector(parsed, typeName), nil
			}
		}
		// Plain object: encoding/json's map decode loses declaration
		// order, so round-tripping through unmarshal doesn't guarantee
		// the Shaper's field order. Callers that need order-preserving
		// round trips should keep the original []byte.
		fields := make([]value.Field, 0, len(t))
		for k, v := range t {
			fv, err := anyToRuntimeValue(v)
			if err != nil {
				return value.Value{}, err
			}
			fields = append(fields, value.Field{Key: k, Val: fv})
		}
		return value.Obj(fields), nil
	default:
		return value.Value{}, fmt.Errorf("result: unhandled JSON type %T", raw)
	}
}

func asRefEnvelope(m map[string]any) (kind, id, typeName string, ok bool) {
	k, kOK := m["kind"].(string)
	i, iOK := m["id"].(string)
	if !kOK || !iOK {
		return "", "", "", false
	}
	if k != "node" && k != "edge" && k != "vector" {
		return "", "", "", false
	}
	t, _ := m["type"].(string)
	return k, i, t, true
}

// Row is one materialized RETURN-clause entry, ready to marshal.
type Row struct {
	Name   string  `json:"name"`
	Values []Value `json:"values"`
}

// NewRow wraps a named slice of runtime values (an exec.NamedResult's
// fields, passed by value rather than by type to keep this package free of
// an internal/exec dependency).
func NewRow(name string, values []value.Value) Row {
	vs := make([]Value, len(values))
	for i, v := range values {
		vs[i] = FromRuntime(v)
	}
	return Row{Name: name, Values: vs}
}

// QueryResult is a whole query's materialized RETURN clause, the shape
// cmd/helixd's /query handler sends back to clients.
type QueryResult struct {
	Returns []Row `json:"returns"`
}

func NewQueryResult(rows []Row) QueryResult {
	return QueryResult{Returns: rows}
}
