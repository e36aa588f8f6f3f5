// Package vectorstore defines the Vector backend abstraction (spec §4.G).
// Like store.GraphStore, it is a small interface; flat provides the
// brute-force in-memory reference implementation since a real HNSW/ANN
// engine is explicitly out of scope (spec Non-goals).
package vectorstore

import (
	"context"

	"github.com/google/uuid"
)

// Metric is a distance function attached to a vector type at
// registration time (spec §9 open question (a): the DSL itself never
// names a metric).
type Metric int

const (
	Cosine Metric = iota
	Euclidean
)

func (m Metric) String() string {
	if m == Cosine {
		return "cosine"
	}
	return "euclidean"
}

// Hit is a single SearchV result: a vector id and its distance to the
// query, ascending (closest first).
type Hit struct {
	ID       uuid.UUID
	Distance float64
}

// VectorStore is the backend a SearchV/AddV/BatchAddV operator talks to.
type VectorStore interface {
	// Register attaches dimensionality and a distance metric to a vector
	// type name. Must be called once before Put/Search for that type.
	Register(typeName string, dim int, metric Metric) error

	Put(ctx context.Context, typeName string, vec []float64) (uuid.UUID, error)
	PutBatch(ctx context.Context, typeName string, vecs [][]float64) ([]uuid.UUID, error)

	// Search returns the k nearest vectors to query, ordered by ascending
	// distance; ties break by id (spec invariant: deterministic ordering).
	Search(ctx context.Context, typeName string, query []float64, k int) ([]Hit, error)

	Get(ctx context.Context, id uuid.UUID) ([]float64, string, error)
	Delete(ctx context.Context, id uuid.UUID) error

	// Scan enumerates every vector id registered under typeName, for the
	// bare `V<T>` start step.
	Scan(ctx context.Context, typeName string) ([]uuid.UUID, error)
}

// BackendError mirrors store.BackendError for the vector backend.
type BackendError struct {
	Kind    string
	Message string
}

func (e BackendError) Error() string {
	return e.Kind + ": " + e.Message
}
