package exec

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ritamzico/helixdb/internal/ir"
	"github.com/ritamzico/helixdb/internal/lang"
	"github.com/ritamzico/helixdb/internal/schema"
	"github.com/ritamzico/helixdb/internal/sema"
	"github.com/ritamzico/helixdb/internal/store/memstore"
	"github.com/ritamzico/helixdb/internal/value"
	"github.com/ritamzico/helixdb/internal/vectorstore/flat"
)

// harness parses src, lowers every QUERY in it, and wires an Executor
// against fresh in-memory backends.
type harness struct {
	ex    *Executor
	plans map[string]*ir.Plan
}

func newHarness(t *testing.T, src string) *harness {
	t.Helper()
	ast, err := lang.Parse("t.hx", src)
	require.NoError(t, err)
	reg, err := schema.BuildRegistry(ast)
	require.NoError(t, err)
	plans, diags := sema.Analyze(ast, reg)
	require.False(t, diags.HasErrors(), "%v", diags)

	gs := memstore.New(reg)
	vs := flat.New()
	ex := New(gs, vs, reg, nil)

	byName := make(map[string]*ir.Plan, len(plans))
	for _, p := range plans {
		byName[p.Name] = p
	}
	return &harness{ex: ex, plans: byName}
}

func (h *harness) run(t *testing.T, name string, params map[string]value.Value) []NamedResult {
	t.Helper()
	p, ok := h.plans[name]
	require.True(t, ok, "no plan named %q", name)
	if params == nil {
		params = map[string]value.Value{}
	}
	results, err := h.ex.Execute(context.Background(), p, params)
	require.NoError(t, err)
	return results
}

func (h *harness) runErr(t *testing.T, name string, params map[string]value.Value) error {
	t.Helper()
	p, ok := h.plans[name]
	require.True(t, ok, "no plan named %q", name)
	if params == nil {
		params = map[string]value.Value{}
	}
	_, err := h.ex.Execute(context.Background(), p, params)
	return err
}

func valuesOf(results []NamedResult, name string) []value.Value {
	for _, r := range results {
		if r.Name == name {
			return r.Values
		}
	}
	return nil
}

func TestAddNodeAndScanRoundTrip(t *testing.T) {
	h := newHarness(t, `
N::User { name: String, age: Integer }
QUERY create(name: String, age: Integer) => u <- AddN<User>({name: name, age: age}) RETURN u
QUERY all() => u <- N<User> RETURN u
`)
	created := h.run(t, "create", map[string]value.Value{
		"name": value.Str("Ada"),
		"age":  value.Int(36),
	})
	users := valuesOf(created, "u")
	require.Len(t, users, 1)
	require.Equal(t, value.NodeRef, users[0].Kind)

	listed := h.run(t, "all", nil)
	all := valuesOf(listed, "u")
	require.Len(t, all, 1)
	require.Equal(t, users[0].ID, all[0].ID)
}

func TestTraverseFollowsEdges(t *testing.T) {
	h := newHarness(t, `
N::User { name: String }
E::Follows { From: User, To: User }
QUERY mk(n: String) => u <- AddN<User>({name: n}) RETURN u
QUERY link(a: ID, b: ID) => e <- AddE<Follows>()::From(a)::To(b) RETURN e
QUERY friends(x: ID) => fs <- N<User>(x)::Out<Follows> RETURN fs
`)
	alice := h.run(t, "mk", map[string]value.Value{"n": value.Str("Alice")})
	aliceID := valuesOf(alice, "u")[0]
	bob := h.run(t, "mk", map[string]value.Value{"n": value.Str("Bob")})
	bobID := valuesOf(bob, "u")[0]

	h.run(t, "link", map[string]value.Value{
		"a": value.Str(aliceID.ID.String()),
		"b": value.Str(bobID.ID.String()),
	})

	res := h.run(t, "friends", map[string]value.Value{"x": value.Str(aliceID.ID.String())})
	fs := valuesOf(res, "fs")
	require.Len(t, fs, 1)
	require.Equal(t, bobID.ID, fs[0].ID)
}

func TestWhereFiltersByProperty(t *testing.T) {
	h := newHarness(t, `
N::User { age: Integer }
QUERY mk(a: Integer) => u <- AddN<User>({age: a}) RETURN u
QUERY adults() => u <- N<User>::WHERE(_::{age}::GTE(18)) RETURN u
`)
	h.run(t, "mk", map[string]value.Value{"a": value.Int(12)})
	h.run(t, "mk", map[string]value.Value{"a": value.Int(21)})
	h.run(t, "mk", map[string]value.Value{"a": value.Int(40)})

	res := h.run(t, "adults", nil)
	got := valuesOf(res, "u")
	require.Len(t, got, 2)
}

func TestCountAndRange(t *testing.T) {
	h := newHarness(t, `
N::User { }
QUERY mk() => u <- AddN<User>({}) RETURN u
QUERY total() => u <- N<User>::COUNT RETURN u
QUERY firstTwo() => u <- N<User>::RANGE(0, 2) RETURN u
`)
	for i := 0; i < 5; i++ {
		h.run(t, "mk", nil)
	}
	total := h.run(t, "total", nil)
	require.Equal(t, int64(5), valuesOf(total, "u")[0].I)

	first := h.run(t, "firstTwo", nil)
	require.Len(t, valuesOf(first, "u"), 2)
}

func TestRangeRejectsInvertedBounds(t *testing.T) {
	h := newHarness(t, `
N::User { }
QUERY mk() => u <- AddN<User>({}) RETURN u
QUERY bogus() => u <- N<User>::RANGE(3, 1) RETURN u
`)
	for i := 0; i < 5; i++ {
		h.run(t, "mk", nil)
	}
	err := h.runErr(t, "bogus", nil)
	require.Error(t, err)
	var rangeErr *RangeError
	require.ErrorAs(t, err, &rangeErr)
	require.Equal(t, int64(3), rangeErr.Lo)
	require.Equal(t, int64(1), rangeErr.Hi)
}

func TestProjectionShorthandAndExclude(t *testing.T) {
	h := newHarness(t, `
N::User { name: String, age: Integer }
QUERY mk(n: String, a: Integer) => u <- AddN<User>({name: n, age: a}) RETURN u
QUERY shaped() => u <- N<User>::{ name } RETURN u
QUERY excluded() => u <- N<User>::!{ age } RETURN u
`)
	h.run(t, "mk", map[string]value.Value{"n": value.Str("Grace"), "a": value.Int(30)})

	shaped := h.run(t, "shaped", nil)
	rec := valuesOf(shaped, "u")[0]
	require.Equal(t, value.Object, rec.Kind)
	name, ok := rec.Get("name")
	require.True(t, ok)
	require.Equal(t, "Grace", name.S)
	_, hasAge := rec.Get("age")
	require.False(t, hasAge)

	excl := h.run(t, "excluded", nil)
	rec2 := valuesOf(excl, "u")[0]
	_, hasAge2 := rec2.Get("age")
	require.False(t, hasAge2)
	nm, ok := rec2.Get("name")
	require.True(t, ok)
	require.Equal(t, "Grace", nm.S)
}

func TestUpdateAndDropCascade(t *testing.T) {
	h := newHarness(t, `
N::User { name: String }
E::Follows { From: User, To: User }
QUERY mk(n: String) => u <- AddN<User>({name: n}) RETURN u
QUERY link(a: ID, b: ID) => e <- AddE<Follows>()::From(a)::To(b) RETURN e
QUERY rename(x: ID, n: String) => u <- N<User>(x)::UPDATE({name: n}) RETURN u
QUERY remove(x: ID) => u <- N<User>(x)::DROP RETURN u
QUERY allEdges() => e <- E<Follows> RETURN e
`)
	a := valuesOf(h.run(t, "mk", map[string]value.Value{"n": value.Str("A")}), "u")[0]
	b := valuesOf(h.run(t, "mk", map[string]value.Value{"n": value.Str("B")}), "u")[0]
	h.run(t, "link", map[string]value.Value{"a": value.Str(a.ID.String()), "b": value.Str(b.ID.String())})

	renamed := h.run(t, "rename", map[string]value.Value{"x": value.Str(a.ID.String()), "n": value.Str("Renamed")})
	require.Len(t, valuesOf(renamed, "u"), 1)

	h.run(t, "remove", map[string]value.Value{"x": value.Str(a.ID.String())})

	edges := h.run(t, "allEdges", nil)
	require.Empty(t, valuesOf(edges, "e"))
}

func TestSearchVOrdersByDistance(t *testing.T) {
	h := newHarness(t, `
V::Embedding
QUERY add(v: [Float]) => e <- AddV<Embedding>(v) RETURN e
QUERY nearest(q: [Float], k: Integer) => hits <- SearchV<Embedding>(q, k) RETURN hits
`)
	require.NoError(t, h.ex.Vector.Register("Embedding", 2, 0))

	h.run(t, "add", map[string]value.Value{"v": value.Arr([]value.Value{value.Flt(0), value.Flt(0)})})
	far := valuesOf(h.run(t, "add", map[string]value.Value{"v": value.Arr([]value.Value{value.Flt(10), value.Flt(10)})}), "e")
	require.Len(t, far, 1)

	res := h.run(t, "nearest", map[string]value.Value{
		"q": value.Arr([]value.Value{value.Flt(1), value.Flt(1)}),
		"k": value.Int(1),
	})
	hits := valuesOf(res, "hits")
	require.Len(t, hits, 1)
	require.Equal(t, value.VectorRef, hits[0].Kind)
	// Metric 0 is cosine: (10,10) points the same way as (1,1), distance 0,
	// while the zero vector's cosine distance is 1.
	require.Equal(t, far[0].ID, hits[0].ID)
}

func TestAbortOnErrorLeavesNoPartialWrite(t *testing.T) {
	h := newHarness(t, `
N::User { }
E::Follows { From: User, To: User }
QUERY bad(x: ID, y: ID) => u <- AddN<User>({}) e <- AddE<Follows>()::From(x)::To(y) RETURN e
QUERY all() => u <- N<User> RETURN u
`)
	_, err := h.ex.Execute(context.Background(), h.plans["bad"], map[string]value.Value{
		"x": value.Str("00000000-0000-0000-0000-000000000000"),
		"y": value.Str("00000000-0000-0000-0000-000000000001"),
	})
	require.Error(t, err)

	all := h.run(t, "all", nil)
	require.Empty(t, valuesOf(all, "u"))
}
