// Package flat is the brute-force VectorStore reference implementation:
// every Search scans all registered vectors of a type and sorts by
// distance. No indexing, no approximation — correct, not fast, which is
// the point of a reference backend.
package flat

import (
	"context"
	"math"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/ritamzico/helixdb/internal/vectorstore"
)

type typeConfig struct {
	dim    int
	metric vectorstore.Metric
}

type entry struct {
	id   uuid.UUID
	typ  string
	vec  []float64
}

// Store is the in-memory VectorStore.
type Store struct {
	mu      sync.RWMutex
	configs map[string]typeConfig
	byID    map[uuid.UUID]*entry
	byType  map[string][]*entry
}

func New() *Store {
	return &Store{
		configs: make(map[string]typeConfig),
		byID:    make(map[uuid.UUID]*entry),
		byType:  make(map[string][]*entry),
	}
}

func (s *Store) Register(typeName string, dim int, metric vectorstore.Metric) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.configs[typeName] = typeConfig{dim: dim, metric: metric}
	return nil
}

func (s *Store) Put(ctx context.Context, typeName string, vec []float64) (uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.checkDim(typeName, vec); err != nil {
		return uuid.Nil, err
	}
	e := &entry{id: uuid.New(), typ: typeName, vec: append([]float64(nil), vec...)}
	s.byID[e.id] = e
	s.byType[typeName] = append(s.byType[typeName], e)
	return e.id, nil
}

func (s *Store) PutBatch(ctx context.Context, typeName string, vecs [][]float64) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(vecs))
	for _, v := range vecs {
		id, err := s.Put(ctx, typeName, v)
		if err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func (s *Store) checkDim(typeName string, vec []float64) error {
	cfg, ok := s.configs[typeName]
	if !ok {
		return vectorstore.BackendError{Kind: "UnregisteredType", Message: typeName}
	}
	if cfg.dim != 0 && len(vec) != cfg.dim {
		return vectorstore.BackendError{Kind: "DimensionMismatch", Message: typeName}
	}
	return nil
}

func (s *Store) Search(ctx context.Context, typeName string, query []float64, k int) ([]vectorstore.Hit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfg, ok := s.configs[typeName]
	if !ok {
		return nil, vectorstore.BackendError{Kind: "UnregisteredType", Message: typeName}
	}
	entries := s.byType[typeName]
	hits := make([]vectorstore.Hit, 0, len(entries))
	for _, e := range entries {
		hits = append(hits, vectorstore.Hit{ID: e.id, Distance: distance(cfg.metric, query, e.vec)})
	}
	sort.Slice(hits, func(i, j int) bool {
		if hits[i].Distance != hits[j].Distance {
			return hits[i].Distance < hits[j].Distance
		}
		return hits[i].ID.String() < hits[j].ID.String()
	})
	if k >= 0 && k < len(hits) {
		hits = hits[:k]
	}
	return hits, nil
}

func (s *Store) Get(ctx context.Context, id uuid.UUID) ([]float64, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.byID[id]
	if !ok {
		return nil, "", vectorstore.BackendError{Kind: "NotFound", Message: id.String()}
	}
	return e.vec, e.typ, nil
}

func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byID[id]
	if !ok {
		return vectorstore.BackendError{Kind: "NotFound", Message: id.String()}
	}
	delete(s.byID, id)
	list := s.byType[e.typ]
	for i, v := range list {
		if v.id == id {
			s.byType[e.typ] = append(list[:i], list[i+1:]...)
			break
		}
	}
	return nil
}

func (s *Store) Scan(ctx context.Context, typeName string) ([]uuid.UUID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entries := s.byType[typeName]
	ids := make([]uuid.UUID, 0, len(entries))
	for _, e := range entries {
		ids = append(ids, e.id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids, nil
}

// TypeConfig is a registered vector type's persisted shape.
type TypeConfig struct {
	Type   string
	Dim    int
	Metric vectorstore.Metric
}

// Entry is one vector's persisted shape.
type Entry struct {
	ID   uuid.UUID
	Type string
	Vec  []float64
}

// Dump returns every registered type's config and every stored vector,
// for serialization to snapshot a vector store.
func (s *Store) Dump() ([]TypeConfig, []Entry) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cfgs := make([]TypeConfig, 0, len(s.configs))
	for t, c := range s.configs {
		cfgs = append(cfgs, TypeConfig{Type: t, Dim: c.dim, Metric: c.metric})
	}
	sort.Slice(cfgs, func(i, j int) bool { return cfgs[i].Type < cfgs[j].Type })

	var entries []Entry
	for _, e := range s.byID {
		entries = append(entries, Entry{ID: e.id, Type: e.typ, Vec: append([]float64(nil), e.vec...)})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID.String() < entries[j].ID.String() })
	return cfgs, entries
}

// Restore repopulates the store from a prior Dump, preserving vector IDs.
func (s *Store) Restore(cfgs []TypeConfig, entries []Entry) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range cfgs {
		s.configs[c.Type] = typeConfig{dim: c.Dim, metric: c.Metric}
	}
	for _, e := range entries {
		ent := &entry{id: e.ID, typ: e.Type, vec: append([]float64(nil), e.Vec...)}
		s.byID[ent.id] = ent
		s.byType[ent.typ] = append(s.byType[ent.typ], ent)
	}
}

func distance(m vectorstore.Metric, a, b []float64) float64 {
	if m == vectorstore.Euclidean {
		return euclidean(a, b)
	}
	return cosineDistance(a, b)
}

func euclidean(a, b []float64) float64 {
	var sum float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		d := a[i] - b[i]
		sum += d * d
	}
	return math.Sqrt(sum)
}

// cosineDistance returns 1 - cosine_similarity so closer vectors sort
// first, consistent with euclidean's ascending-distance ordering.
func cosineDistance(a, b []float64) float64 {
	var dot, na, nb float64
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 1
	}
	return 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
}
