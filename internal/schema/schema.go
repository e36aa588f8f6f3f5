// Package schema holds the Schema Registry (spec §4.B): the catalog of
// NodeType, EdgeType, and VectorType declarations loaded from a source
// file before any query is analyzed.
package schema

import "github.com/ritamzico/helixdb/internal/value"

// FieldType is one of the grammar's scalar types, an array of a scalar
// type, or a reference to a declared NodeType name.
type FieldType struct {
	Scalar value.Kind // value.String|Integer|Float|Boolean, the element kind for [T]; unset for a ref
	Array  bool       // true for [T]
	Ref    string      // set when the field type is an uppercase schema identifier
}

// FieldDef is a single `name: type` declaration inside a schema block.
type FieldDef struct {
	Name string
	Type FieldType
}

// NodeType is a declared `N::<Name> { ... }`.
type NodeType struct {
	Name   string
	Fields []FieldDef
}

// FieldNames returns the declared field names in declaration order.
func (n *NodeType) FieldNames() []string {
	names := make([]string, len(n.Fields))
	for i, f := range n.Fields {
		names[i] = f.Name
	}
	return names
}

// Field looks up a declared field by name.
func (n *NodeType) Field(name string) (FieldDef, bool) {
	for _, f := range n.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDef{}, false
}

// EdgeType is a declared `E::<Name> { From: ..., To: ..., Properties: {...} }`.
type EdgeType struct {
	Name   string
	From   string
	To     string
	Fields []FieldDef
}

func (e *EdgeType) Field(name string) (FieldDef, bool) {
	for _, f := range e.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDef{}, false
}

// VectorType is a declared `V::<Name>`. Dimensionality and distance
// metric are attached at backend registration time (spec §9 open
// question (a)), not expressed in the DSL.
type VectorType struct {
	Name string
}

// Registry is the read-only-after-load catalog of schema declarations.
type Registry struct {
	nodes   map[string]*NodeType
	edges   map[string]*EdgeType
	vectors map[string]*VectorType
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		nodes:   make(map[string]*NodeType),
		edges:   make(map[string]*EdgeType),
		vectors: make(map[string]*VectorType),
	}
}

// AddNodeType registers a NodeType declaration. Re-declaration is an error.
func (r *Registry) AddNodeType(n *NodeType) error {
	if _, ok := r.nodes[n.Name]; ok {
		return Duplicate("node", n.Name)
	}
	r.nodes[n.Name] = n
	return nil
}

// AddEdgeType registers an EdgeType declaration. Endpoint resolution is
// deferred to Validate so forward references are legal.
func (r *Registry) AddEdgeType(e *EdgeType) error {
	if _, ok := r.edges[e.Name]; ok {
		return Duplicate("edge", e.Name)
	}
	r.edges[e.Name] = e
	return nil
}

// AddVectorType registers a VectorType declaration.
func (r *Registry) AddVectorType(v *VectorType) error {
	if _, ok := r.vectors[v.Name]; ok {
		return Duplicate("vector", v.Name)
	}
	r.vectors[v.Name] = v
	return nil
}

// Validate resolves every edge type's From/To against declared node
// types. Must be called once all declarations have been added.
func (r *Registry) Validate() error {
	for _, e := range r.edges {
		if _, ok := r.nodes[e.From]; !ok {
			return UnknownEndpoint(e.Name, e.From)
		}
		if _, ok := r.nodes[e.To]; !ok {
			return UnknownEndpoint(e.Name, e.To)
		}
	}
	return nil
}

func (r *Registry) NodeType(name string) (*NodeType, bool) {
	n, ok := r.nodes[name]
	return n, ok
}

func (r *Registry) EdgeType(name string) (*EdgeType, bool) {
	e, ok := r.edges[name]
	return e, ok
}

func (r *Registry) VectorType(name string) (*VectorType, bool) {
	v, ok := r.vectors[name]
	return v, ok
}

// NodeTypes returns all declared node types, for enumeration (e.g. bare
// `N` scans).
func (r *Registry) NodeTypes() []*NodeType {
	out := make([]*NodeType, 0, len(r.nodes))
	for _, n := range r.nodes {
		out = append(out, n)
	}
	return out
}

// EdgeTypes returns all declared edge types.
func (r *Registry) EdgeTypes() []*EdgeType {
	out := make([]*EdgeType, 0, len(r.edges))
	for _, e := range r.edges {
		out = append(out, e)
	}
	return out
}

// EdgeTypesFrom returns edge types whose From matches the given node
// type, used by the analyzer to resolve an omitted `<E>` on a graph step;
// EdgeTypesTo is the To-side counterpart.
func (r *Registry) EdgeTypesFrom(nodeType string) []*EdgeType {
	var out []*EdgeType
	for _, e := range r.edges {
		if e.From == nodeType {
			out = append(out, e)
		}
	}
	return out
}

func (r *Registry) EdgeTypesTo(nodeType string) []*EdgeType {
	var out []*EdgeType
	for _, e := range r.edges {
		if e.To == nodeType {
			out = append(out, e)
		}
	}
	return out
}
