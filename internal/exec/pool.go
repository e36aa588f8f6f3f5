package exec

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/ritamzico/helixdb/internal/ir"
	"github.com/ritamzico/helixdb/internal/value"
)

// maxConcurrentReturns bounds how many RETURN expressions evaluate at
// once. A RETURN clause can name arbitrarily many independent
// traversals, so fan-out is capped rather than left unbounded.
const maxConcurrentReturns = 8

// evalReturnsConcurrently evaluates every RETURN expression against a
// shared read-only view of env, fanning out the same way the teacher's
// executeConcurrent ran a query's subqueries concurrently and collected
// their results by index — here bounded with an errgroup instead of an
// unbounded goroutine-per-subquery plus WaitGroup, since the teacher's
// fan-out width was always small (AND/OR operands) while a RETURN
// clause's width is caller-controlled. Callers must only use this when
// none of the expressions mutate (anyMutates already checked), since
// the underlying transaction snapshot is not safe for concurrent writes.
func (ex *Executor) evalReturnsConcurrently(ctx context.Context, exprs []ir.Node, tx *Transaction, env map[string]value.Value) ([]NamedResult, error) {
	results := make([]NamedResult, len(exprs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentReturns)

	for i, expr := range exprs {
		i, expr := i, expr
		g.Go(func() error {
			s, err := ex.eval(gctx, expr, tx, env)
			if err != nil {
				return err
			}
			items, err := drain(gctx, s)
			if err != nil {
				return err
			}
			results[i] = NamedResult{Name: returnLabel(expr, i), Values: items}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
