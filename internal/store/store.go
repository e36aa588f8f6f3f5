// Package store defines the Graph backend abstraction (spec §4.G): the
// interface an execution operator talks to, independent of what actually
// holds the data. memstore provides the in-memory reference
// implementation; a real deployment would swap in a disk-backed engine
// behind the same interface.
package store

import (
	"context"

	"github.com/google/uuid"
)

// NodeID and EdgeID are UUIDv4 identities (spec §3).
type NodeID = uuid.UUID
type EdgeID = uuid.UUID

// Node is a stored graph vertex: a schema type tag plus its property bag.
// Property values are stored as value.Value-shaped primitives but kept
// untyped here (map[string]any) so store does not import value,
// mirroring the teacher's separation between the graph package and its
// callers' richer value types.
type Node struct {
	ID     NodeID
	Type   string
	Props  map[string]any
}

// Edge is a stored directed edge between two typed endpoints.
type Edge struct {
	ID     EdgeID
	Type   string
	From   NodeID
	To     NodeID
	Props  map[string]any
}

// Direction selects which endpoint(s) of an edge a traversal follows.
type Direction int

const (
	Out Direction = iota
	In
	Both
)

// GraphStore is the backend a Traverse/Scan/Add/Update/Drop operator
// talks to. Every method takes a Tx so a single write transaction's
// mutations are isolated from concurrent readers until commit.
type GraphStore interface {
	// ScanNodes returns every node of the given type, or every node if
	// typeName is empty. If ids is non-empty, it scans only those ids
	// (still filtered by typeName if set).
	ScanNodes(ctx context.Context, tx Tx, typeName string, ids []NodeID) ([]*Node, error)
	ScanEdges(ctx context.Context, tx Tx, typeName string, ids []EdgeID) ([]*Edge, error)

	GetNode(ctx context.Context, tx Tx, id NodeID) (*Node, error)
	GetEdge(ctx context.Context, tx Tx, id EdgeID) (*Edge, error)

	// Neighbors returns the edges incident to id in the given direction,
	// optionally filtered to a single edge type.
	Neighbors(ctx context.Context, tx Tx, id NodeID, dir Direction, typeName string) ([]*Edge, error)

	AddNode(ctx context.Context, tx Tx, typeName string, props map[string]any) (*Node, error)
	AddEdge(ctx context.Context, tx Tx, typeName string, from, to NodeID, props map[string]any) (*Edge, error)

	UpdateNode(ctx context.Context, tx Tx, id NodeID, props map[string]any) (*Node, error)
	UpdateEdge(ctx context.Context, tx Tx, id EdgeID, props map[string]any) (*Edge, error)

	// DropNode removes a node and cascades to every incident edge (spec
	// invariant: cascading deletion).
	DropNode(ctx context.Context, tx Tx, id NodeID) error
	DropEdge(ctx context.Context, tx Tx, id EdgeID) error

	BeginRead(ctx context.Context) (Tx, error)
	BeginWrite(ctx context.Context) (Tx, error)
	Commit(ctx context.Context, tx Tx) error
	Abort(ctx context.Context, tx Tx) error
}

// Tx is an opaque transaction handle minted by GraphStore.Begin{Read,Write}.
type Tx interface {
	// ReadOnly reports whether mutating calls against this Tx are rejected.
	ReadOnly() bool
}
