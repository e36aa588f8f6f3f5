package memstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ritamzico/helixdb/internal/schema"
	"github.com/ritamzico/helixdb/internal/store"
)

func newTestRegistry(t *testing.T) *schema.Registry {
	t.Helper()
	reg := schema.New()
	require.NoError(t, reg.AddNodeType(&schema.NodeType{Name: "User"}))
	require.NoError(t, reg.AddEdgeType(&schema.EdgeType{Name: "Follows", From: "User", To: "User"}))
	require.NoError(t, reg.Validate())
	return reg
}

func TestAddNodeAndEdgeRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := New(newTestRegistry(t))

	wtx, err := s.BeginWrite(ctx)
	require.NoError(t, err)

	a, err := s.AddNode(ctx, wtx, "User", map[string]any{"name": "alice"})
	require.NoError(t, err)
	b, err := s.AddNode(ctx, wtx, "User", map[string]any{"name": "bob"})
	require.NoError(t, err)

	e, err := s.AddEdge(ctx, wtx, "Follows", a.ID, b.ID, nil)
	require.NoError(t, err)

	require.NoError(t, s.Commit(ctx, wtx))

	rtx, err := s.BeginRead(ctx)
	require.NoError(t, err)
	neighbors, err := s.Neighbors(ctx, rtx, a.ID, store.Out, "")
	require.NoError(t, err)
	require.Len(t, neighbors, 1)
	require.Equal(t, e.ID, neighbors[0].ID)
	require.NoError(t, s.Commit(ctx, rtx))
}

func TestAddEdgeRejectsEndpointMismatch(t *testing.T) {
	ctx := context.Background()
	reg := schema.New()
	require.NoError(t, reg.AddNodeType(&schema.NodeType{Name: "User"}))
	require.NoError(t, reg.AddNodeType(&schema.NodeType{Name: "Post"}))
	require.NoError(t, reg.AddEdgeType(&schema.EdgeType{Name: "Authored", From: "User", To: "Post"}))
	require.NoError(t, reg.Validate())
	s := New(reg)

	wtx, err := s.BeginWrite(ctx)
	require.NoError(t, err)
	u, err := s.AddNode(ctx, wtx, "User", nil)
	require.NoError(t, err)
	u2, err := s.AddNode(ctx, wtx, "User", nil)
	require.NoError(t, err)

	_, err = s.AddEdge(ctx, wtx, "Authored", u.ID, u2.ID, nil)
	require.Error(t, err)
}

func TestDropNodeCascadesToEdges(t *testing.T) {
	ctx := context.Background()
	s := New(newTestRegistry(t))

	wtx, err := s.BeginWrite(ctx)
	require.NoError(t, err)
	a, err := s.AddNode(ctx, wtx, "User", nil)
	require.NoError(t, err)
	b, err := s.AddNode(ctx, wtx, "User", nil)
	require.NoError(t, err)
	e, err := s.AddEdge(ctx, wtx, "Follows", a.ID, b.ID, nil)
	require.NoError(t, err)
	require.NoError(t, s.Commit(ctx, wtx))

	wtx2, err := s.BeginWrite(ctx)
	require.NoError(t, err)
	require.NoError(t, s.DropNode(ctx, wtx2, a.ID))
	require.NoError(t, s.Commit(ctx, wtx2))

	rtx, err := s.BeginRead(ctx)
	require.NoError(t, err)
	_, err = s.GetEdge(ctx, rtx, e.ID)
	require.Error(t, err)
	_, err = s.GetNode(ctx, rtx, a.ID)
	require.Error(t, err)
	require.NoError(t, s.Commit(ctx, rtx))
}

func TestReadSnapshotIsolatedFromConcurrentWrite(t *testing.T) {
	ctx := context.Background()
	s := New(newTestRegistry(t))

	wtx, err := s.BeginWrite(ctx)
	require.NoError(t, err)
	a, err := s.AddNode(ctx, wtx, "User", nil)
	require.NoError(t, err)
	require.NoError(t, s.Commit(ctx, wtx))

	rtx, err := s.BeginRead(ctx)
	require.NoError(t, err)

	wtx2, err := s.BeginWrite(ctx)
	require.NoError(t, err)
	_, err = s.AddNode(ctx, wtx2, "User", nil)
	require.NoError(t, err)
	require.NoError(t, s.Commit(ctx, wtx2))

	nodes, err := s.ScanNodes(ctx, rtx, "User", nil)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	require.Equal(t, a.ID, nodes[0].ID)
}

func TestWriteTxRejectsMutationOnReadOnlyHandle(t *testing.T) {
	ctx := context.Background()
	s := New(newTestRegistry(t))
	rtx, err := s.BeginRead(ctx)
	require.NoError(t, err)
	_, err = s.AddNode(ctx, rtx, "User", nil)
	require.Error(t, err)
}
