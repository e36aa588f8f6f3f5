package sema

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ritamzico/helixdb/internal/ir"
	"github.com/ritamzico/helixdb/internal/lang"
	"github.com/ritamzico/helixdb/internal/schema"
)

func parseAndBuild(t *testing.T, src string) (*lang.SourceFile, *schema.Registry) {
	t.Helper()
	ast, err := lang.Parse("t.hx", src)
	require.NoError(t, err)
	reg, err := schema.BuildRegistry(ast)
	require.NoError(t, err)
	return ast, reg
}

func TestAnalyzeSimpleTraversal(t *testing.T) {
	src := `
N::User { name: String, age: Integer }
E::Follows { From: User, To: User }
QUERY friends(x: ID) => fs <- N<User>(x)::Out<Follows> RETURN fs
`
	ast, reg := parseAndBuild(t, src)
	plans, diags := Analyze(ast, reg)
	require.False(t, diags.HasErrors(), "%v", diags)
	require.Len(t, plans, 1)
	plan := plans[0]
	require.Equal(t, "friends", plan.Name)
	require.Len(t, plan.Body, 1)
	trav, ok := plan.Body[0].Expr.(*ir.Traverse)
	require.True(t, ok)
	assert1Equal(t, ir.NodeStream, trav.Type().Kind)
	assert1Equal(t, "User", trav.Type().Elem)
}

func assert1Equal(t *testing.T, want, got any) {
	t.Helper()
	require.EqualValues(t, want, got)
}

func TestAnalyzeWhereClauseWithAnonymousContext(t *testing.T) {
	src := `
N::User { age: Integer }
QUERY adults() => u <- N<User>::WHERE(_::{age}::GTE(18)) RETURN u
`
	ast, reg := parseAndBuild(t, src)
	plans, diags := Analyze(ast, reg)
	require.False(t, diags.HasErrors(), "%v", diags)
	filter, ok := plans[0].Body[0].Expr.(*ir.Filter)
	require.True(t, ok)
	cmp, ok := filter.Pred.(*ir.CompareOp)
	require.True(t, ok)
	require.Equal(t, "GTE", cmp.Op)
}

func TestAnalyzeUndeclaredNodeTypeProducesDiagnostic(t *testing.T) {
	src := `QUERY q() => u <- N<Ghost> RETURN u`
	ast, reg := parseAndBuild(t, src)
	_, diags := Analyze(ast, reg)
	require.True(t, diags.HasErrors())
}

func TestAnalyzeUndefinedNameProducesDiagnostic(t *testing.T) {
	src := `QUERY q() => RETURN mystery`
	ast, reg := parseAndBuild(t, src)
	_, diags := Analyze(ast, reg)
	require.True(t, diags.HasErrors())
}

func TestAnalyzeAddEdgeFromTo(t *testing.T) {
	src := `
N::User { }
E::Follows { From: User, To: User }
QUERY link(a: ID, b: ID) => e <- AddE<Follows>()::From(a)::To(b) RETURN e
`
	ast, reg := parseAndBuild(t, src)
	plans, diags := Analyze(ast, reg)
	require.False(t, diags.HasErrors(), "%v", diags)
	ae, ok := plans[0].Body[0].Expr.(*ir.AddEdge)
	require.True(t, ok)
	require.NotNil(t, ae.From)
	require.NotNil(t, ae.To)
}

func TestAnalyzeProjectionSpreadAndExclude(t *testing.T) {
	src := `
N::User { name: String, age: Integer }
QUERY q() =>
  a <- N<User>::{ name, .. }
  b <- N<User>::!{ age }
  RETURN a, b
`
	ast, reg := parseAndBuild(t, src)
	plans, diags := Analyze(ast, reg)
	require.False(t, diags.HasErrors(), "%v", diags)
	proj, ok := plans[0].Body[0].Expr.(*ir.ProjectOp)
	require.True(t, ok)
	require.True(t, proj.Spread)
	require.Len(t, proj.Fields, 1)

	excl, ok := plans[0].Body[1].Expr.(*ir.ProjectOp)
	require.True(t, ok)
	require.Equal(t, []string{"age"}, excl.Exclude)
}

func TestAnalyzeCompareNonNumericOperandProducesDiagnostic(t *testing.T) {
	src := `
N::User { name: String }
QUERY q() => u <- N<User>::WHERE(_::{name}::GT(5)) RETURN u
`
	ast, reg := parseAndBuild(t, src)
	_, diags := Analyze(ast, reg)
	require.True(t, diags.HasErrors())
}

func TestAnalyzeCompareNumericOperandsOK(t *testing.T) {
	src := `
N::User { age: Integer }
QUERY q() => u <- N<User>::WHERE(_::{age}::GT(5)) RETURN u
`
	ast, reg := parseAndBuild(t, src)
	_, diags := Analyze(ast, reg)
	require.False(t, diags.HasErrors(), "%v", diags)
}

func TestAnalyzeCompareEqualityTypeMismatchProducesDiagnostic(t *testing.T) {
	src := `
N::User { name: String }
QUERY q() => u <- N<User>::WHERE(_::{name}::EQ(5)) RETURN u
`
	ast, reg := parseAndBuild(t, src)
	_, diags := Analyze(ast, reg)
	require.True(t, diags.HasErrors())
}

func TestAnalyzeUpdateUnknownFieldProducesDiagnostic(t *testing.T) {
	src := `
N::User { name: String }
QUERY q(x: ID) => u <- N<User>(x)::UPDATE({ ghost: "x" }) RETURN u
`
	ast, reg := parseAndBuild(t, src)
	_, diags := Analyze(ast, reg)
	require.True(t, diags.HasErrors())
}

func TestAnalyzeUpdateFieldTypeMismatchProducesDiagnostic(t *testing.T) {
	src := `
N::User { age: Integer }
QUERY q(x: ID) => u <- N<User>(x)::UPDATE({ age: "thirty" }) RETURN u
`
	ast, reg := parseAndBuild(t, src)
	_, diags := Analyze(ast, reg)
	require.True(t, diags.HasErrors())
}

func TestAnalyzeUpdateDeclaredFieldOK(t *testing.T) {
	src := `
N::User { age: Integer }
QUERY q(x: ID) => u <- N<User>(x)::UPDATE({ age: 31 }) RETURN u
`
	ast, reg := parseAndBuild(t, src)
	_, diags := Analyze(ast, reg)
	require.False(t, diags.HasErrors(), "%v", diags)
}

func TestAnalyzeAddEdgeEndpointTypeMismatchProducesDiagnostic(t *testing.T) {
	src := `
N::User { }
N::Post { }
E::Follows { From: User, To: User }
QUERY bad() =>
  u <- AddN<User>({})
  p <- AddN<Post>({})
  e <- AddE<Follows>()::From(u)::To(p)
  RETURN e
`
	ast, reg := parseAndBuild(t, src)
	_, diags := Analyze(ast, reg)
	require.True(t, diags.HasErrors())
}

func TestAnalyzeAddNMissingDeclaredFieldProducesDiagnostic(t *testing.T) {
	src := `
N::User { name: String, age: Integer }
QUERY mk(n: String) => u <- AddN<User>({ name: n }) RETURN u
`
	ast, reg := parseAndBuild(t, src)
	_, diags := Analyze(ast, reg)
	require.True(t, diags.HasErrors())
}
