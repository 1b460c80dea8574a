// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package planner

import (
	"context"
	"testing"

	"github.com/go-air/gini/z"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/domschrei/lilotane-sub000/internal/config"
	"github.com/domschrei/lilotane-sub000/sat"
)

// countingSolver counts solver calls without assumptions which follow an
// unsat answer under assumptions.
type countingSolver struct {
	sat.Solver
	assumed    bool
	unsatUnder bool
	calls      int
	bareAfter  int
}

func (s *countingSolver) Assume(ms ...z.Lit) {
	if len(ms) > 0 {
		s.assumed = true
	}
	s.Solver.Assume(ms...)
}

func (s *countingSolver) Solve(ctx context.Context) int {
	s.calls++
	if !s.assumed && s.unsatUnder {
		s.bareAfter++
	}
	res := s.Solver.Solve(ctx)
	s.unsatUnder = s.unsatUnder || s.assumed && res == sat.Unsat
	s.assumed = false
	return res
}

func TestCheckUnsolvableUsesFreshSolver(t *testing.T) {
	for _, backend := range []string{"gini", "gophersat"} {
		params := config.Default()
		params.Solver = backend
		params.NonPrimitiveSupport = true
		require.True(t, params.CheckUnsolvable)
		inner, err := sat.New(backend)
		require.NoError(t, err)
		cs := &countingSolver{Solver: inner}
		res, err := run(t, delivery(), params, WithSolver(cs))
		require.NoError(t, err, backend)
		require.NoError(t, res.Check())
		assert.Equal(t, 2, res.Len(), backend)
		assert.Zero(t, cs.bareAfter, backend)
		assert.NotZero(t, cs.calls, backend)
	}
}

func TestUnsolvableCheck(t *testing.T) {
	p, err := New(instance(t, single()), config.Default())
	require.NoError(t, err)
	ctx := context.Background()
	lit := z.Dimacs2Lit

	main := sat.NewClauses(sat.NewGini())
	p.clauses = main
	main.Add(lit(1))
	main.Add(lit(2))
	main.Add(z.LitNull)
	main.Add(lit(-1))
	main.Add(z.LitNull)
	main.Assume(lit(-2))
	require.Equal(t, sat.Unsat, main.Solve(ctx))
	assert.False(t, p.unsolvable(ctx))

	main.Add(lit(-2))
	main.Add(z.LitNull)
	assert.True(t, p.unsolvable(ctx))
	assert.Equal(t, 3, main.Len())
}
