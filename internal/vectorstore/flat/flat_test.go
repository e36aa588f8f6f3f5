package flat

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ritamzico/helixdb/internal/vectorstore"
)

func TestSearchOrdersByAscendingDistance(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Register("Embedding", 2, vectorstore.Euclidean))

	far, err := s.Put(ctx, "Embedding", []float64{10, 10})
	require.NoError(t, err)
	near, err := s.Put(ctx, "Embedding", []float64{0, 1})
	require.NoError(t, err)

	hits, err := s.Search(ctx, "Embedding", []float64{0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	require.Equal(t, near, hits[0].ID)
	require.Equal(t, far, hits[1].ID)
}

func TestSearchTruncatesToK(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Register("Embedding", 1, vectorstore.Euclidean))
	for i := 0; i < 5; i++ {
		_, err := s.Put(ctx, "Embedding", []float64{float64(i)})
		require.NoError(t, err)
	}
	hits, err := s.Search(ctx, "Embedding", []float64{0}, 3)
	require.NoError(t, err)
	require.Len(t, hits, 3)
}

func TestPutRejectsUnregisteredType(t *testing.T) {
	ctx := context.Background()
	s := New()
	_, err := s.Put(ctx, "Unknown", []float64{1, 2})
	require.Error(t, err)
}

func TestDeleteRemovesFromSearch(t *testing.T) {
	ctx := context.Background()
	s := New()
	require.NoError(t, s.Register("Embedding", 1, vectorstore.Cosine))
	id, err := s.Put(ctx, "Embedding", []float64{1})
	require.NoError(t, err)
	require.NoError(t, s.Delete(ctx, id))
	hits, err := s.Search(ctx, "Embedding", []float64{1}, 10)
	require.NoError(t, err)
	require.Empty(t, hits)
}
