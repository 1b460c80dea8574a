// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package sat

import (
	"bytes"
	"context"
	"os"
	"testing"
	"time"

	"github.com/go-air/gini/dimacs"
	"github.com/go-air/gini/gen"
	"github.com/go-air/gini/z"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lit(i int) z.Lit {
	return z.Dimacs2Lit(i)
}

func clause(s Solver, ms ...int) {
	for _, m := range ms {
		s.Add(lit(m))
	}
	s.Add(z.LitNull)
}

func backends() map[string]Solver {
	return map[string]Solver{"gini": NewGini(), "gophersat": NewGophersat()}
}

func TestSolveIncremental(t *testing.T) {
	for name, s := range backends() {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			clause(s, 1, 2)
			clause(s, -1, 3)
			require.Equal(t, Sat, s.Solve(ctx))
			assert.True(t, s.Value(lit(1)) || s.Value(lit(2)))

			s.Assume(lit(1), lit(-3))
			require.Equal(t, Unsat, s.Solve(ctx))
			assert.True(t, s.Failed(lit(-3)))

			// assumptions do not outlive a solve
			require.Equal(t, Sat, s.Solve(ctx))

			s.Assume(lit(-2))
			require.Equal(t, Sat, s.Solve(ctx))
			assert.True(t, s.Value(lit(1)))
			assert.True(t, s.Value(lit(3)))
			assert.False(t, s.Value(lit(-3)))

			clause(s, -3)
			clause(s, -2)
			assert.Equal(t, Unsat, s.Solve(ctx))
			s.Release()
		})
	}
}

func TestOnLearn(t *testing.T) {
	for name, s := range backends() {
		t.Run(name, func(t *testing.T) {
			var learnt [][]z.Lit
			s.OnLearn(func(c []z.Lit) {
				learnt = append(learnt, append([]z.Lit(nil), c...))
			})
			clause(s, -1, -2)
			s.Assume(lit(1), lit(2))
			require.Equal(t, Unsat, s.Solve(context.Background()))
			require.Len(t, learnt, 1)
			assert.Contains(t, learnt[0], lit(-1))
		})
	}
}

func TestGiniCancel(t *testing.T) {
	s := NewGini()
	gen.Php(s, 13, 12)
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	start := time.Now()
	assert.Equal(t, Unknown, s.Solve(ctx))
	assert.Less(t, time.Since(start), 5*time.Second)

	clause(s, 1)
	done, stop := context.WithCancel(context.Background())
	stop()
	assert.Equal(t, Unknown, s.Solve(done))
}

func TestNew(t *testing.T) {
	for _, n := range []string{"", "gini", "gophersat"} {
		s, err := New(n)
		require.NoError(t, err)
		assert.NotNil(t, s)
	}
	_, err := New("minisat")
	assert.Error(t, err)
	assert.Equal(t, "UNSAT", ResultString(Unsat))
}

type icnf struct {
	adds    []z.Lit
	assumes [][]z.Lit
	cur     []z.Lit
}

func (v *icnf) Add(m z.Lit) { v.adds = append(v.adds, m) }
func (v *icnf) Assume(m z.Lit) {
	if m == z.LitNull {
		v.assumes = append(v.assumes, v.cur)
		v.cur = nil
		return
	}
	v.cur = append(v.cur, m)
}
func (v *icnf) Eof() {}

func TestRecorder(t *testing.T) {
	var buf bytes.Buffer
	r := NewRecorder(NewGini(), &buf)
	clause(r, 1, -2)
	r.Assume(lit(2))
	require.Equal(t, Sat, r.Solve(context.Background()))
	clause(r, -1)
	r.Assume(lit(2))
	require.Equal(t, Unsat, r.Solve(context.Background()))
	require.NoError(t, r.Flush())
	assert.Equal(t, "p inccnf\n1 -2 0\na 2 0\n-1 0\na 2 0\n", buf.String())

	v := &icnf{}
	require.NoError(t, dimacs.ReadICnf(&buf, v))
	assert.Equal(t, []z.Lit{lit(1), lit(-2), z.LitNull, lit(-1), z.LitNull}, v.adds)
	assert.Equal(t, [][]z.Lit{{lit(2)}, {lit(2)}}, v.assumes)
}

func TestCard(t *testing.T) {
	s := NewGini()
	next := z.Var(10)
	fresh := func() z.Lit {
		next++
		return next.Pos()
	}
	ms := []z.Lit{lit(1), lit(2), lit(3), lit(4), lit(5)}
	c := NewCard(ms, s, fresh)
	assert.Equal(t, 5, c.N())
	ctx := context.Background()

	s.Assume(lit(1), lit(2), lit(3))
	s.Assume(c.Leq(2))
	assert.Equal(t, Unsat, s.Solve(ctx))

	s.Assume(lit(1), lit(2), lit(3))
	s.Assume(c.Leq(3))
	assert.Equal(t, Sat, s.Solve(ctx))

	s.Assume(c.Geq(4), lit(-1), lit(-2))
	assert.Equal(t, Unsat, s.Solve(ctx))

	s.Assume(c.Leq(0))
	require.Equal(t, Sat, s.Solve(ctx))
	for _, m := range ms {
		assert.False(t, s.Value(m))
	}
}

func TestClausesCopy(t *testing.T) {
	ctx := context.Background()
	c := NewClauses(NewGini())
	clause(c, 1, 2)
	clause(c, -1, 3)
	c.Assume(lit(-2), lit(-3))
	require.Equal(t, Unsat, c.Solve(ctx))
	assert.Equal(t, 2, c.Len())

	c.Add(lit(4))
	for name, s := range backends() {
		c.CopyTo(s)
		require.Equal(t, Sat, s.Solve(ctx), name)
		assert.True(t, s.Value(lit(-1)) || s.Value(lit(3)), name)
		s.Assume(lit(-4))
		assert.Equal(t, Sat, s.Solve(ctx), name)
		s.Release()
	}
}

// The formula in testdata is unsat under its assumption and unsat without
// it.  Deciding the second query on a fresh solver gives the right answer.
func TestClausesFreshAfterAssume(t *testing.T) {
	f, err := os.Open("testdata/unsat-after-assume.icnf")
	require.NoError(t, err)
	defer f.Close()
	v := &icnf{}
	require.NoError(t, dimacs.ReadICnf(f, v))
	require.Len(t, v.assumes, 2)

	ctx := context.Background()
	c := NewClauses(NewGini())
	for _, m := range v.adds {
		c.Add(m)
	}
	assert.Equal(t, 113, c.Len())
	c.Assume(v.assumes[0]...)
	require.Equal(t, Unsat, c.Solve(ctx))

	for name, s := range backends() {
		c.CopyTo(s)
		s.Assume(v.assumes[1]...)
		assert.Equal(t, Unsat, s.Solve(ctx), name)
		s.Release()
	}
}

func TestGophersatCancel(t *testing.T) {
	s := NewGophersat()
	gen.Php(s, 7, 6)
	ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
	defer cancel()
	assert.Equal(t, Unknown, s.Solve(ctx))

	// a done context never starts a search
	done, stop := context.WithCancel(context.Background())
	stop()
	assert.Equal(t, Unknown, s.Solve(done))

	assert.Equal(t, Unsat, s.Solve(context.Background()))
}
