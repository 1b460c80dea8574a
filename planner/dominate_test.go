// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package planner

import (
	"sort"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/domschrei/lilotane-sub000/htn"
	"github.com/domschrei/lilotane-sub000/internal/config"
	"github.com/domschrei/lilotane-sub000/layer"
)

// top is reached either through a task whose two arguments are the same
// object or through one with two fixed objects.  Only the second reaches
// the goal.
func repeated() *htn.Problem {
	return &htn.Problem{
		Domain: htn.Domain{
			Sorts:      map[string][]string{"obj": nil},
			Constants:  map[string][]string{"obj": {"c3", "c1"}},
			Predicates: map[string][]string{"done": {"obj", "obj"}},
			Tasks:      map[string][]string{"top": nil, "T2": {"obj", "obj"}},
			Actions: []htn.ActionDef{{
				Name:   "B",
				Params: []string{"?x - obj", "?y - obj"},
				Eff:    []string{"(done ?x ?y)"},
			}},
			Methods: []htn.MethodDef{
				{
					Name:     "mT2",
					Params:   []string{"?a - obj", "?b - obj"},
					Task:     "(T2 ?a ?b)",
					Subtasks: []string{"(B ?a ?b)"},
				},
				{
					Name:     "m-a",
					Params:   []string{"?z - obj"},
					Task:     "(top)",
					Subtasks: []string{"(T2 ?z ?z)"},
				},
				{
					Name:     "m-b",
					Task:     "(top)",
					Subtasks: []string{"(T2 c3 c1)"},
				},
			},
		},
		Objects: map[string][]string{"obj": {"c2"}},
		Goal:    []string{"(done c3 c1)"},
		Tasks:   []string{"(top)"},
	}
}

type domination struct {
	t   *testing.T
	in  *htn.Instance
	p   *Planner
	b   *htn.Action
	obj int32
	n   int
}

func newDomination(t *testing.T) *domination {
	in := instance(t, repeated())
	p, err := New(in, config.Default())
	require.NoError(t, err)
	d := &domination{t: t, in: in, p: p}
	id, ok := in.Names.ID("B")
	require.True(t, ok)
	d.b = in.Action(id)
	d.obj, ok = in.Names.ID("obj")
	require.True(t, ok)
	return d
}

func (d *domination) c(name string) int32 {
	id, ok := d.in.Names.ID(name)
	require.True(d.t, ok, name)
	return id
}

// q creates a q-constant at (l, pos) ranging over the named constants.
func (d *domination) q(l, pos int, names ...string) int32 {
	dom := make([]int32, len(names))
	for i, n := range names {
		dom[i] = d.c(n)
	}
	sort.Slice(dom, func(i, j int) bool { return dom[i] < dom[j] })
	d.n++
	return d.in.Q.Get(l, pos, d.b.Sig, d.n, d.obj, dom)
}

// add puts B(x, y) at pos.
func (d *domination) add(pos *layer.Position, x, y int32) htn.USig {
	u := d.b.Sig.WithArgs([]int32{x, y})
	pos.Add(d.in.Op(u))
	return u
}

func TestCoversRepeatedQConst(t *testing.T) {
	d := newDomination(t)
	pos := layer.NewPosition(1, 0, 0, 0)
	q := d.q(1, 0, "c1", "c2", "c3")
	same := d.add(pos, q, q)
	fixed := d.add(pos, d.c("c3"), d.c("c1"))
	assert.False(t, d.p.covers(pos, same, fixed))
	assert.False(t, d.p.dominates(pos, same, fixed))

	diag := d.add(pos, d.c("c2"), d.c("c2"))
	assert.True(t, d.p.covers(pos, same, diag))

	q1, q2 := d.q(1, 0, "c1", "c3"), d.q(1, 0, "c1", "c3")
	open := d.add(pos, q1, q2)
	assert.True(t, d.p.covers(pos, open, fixed))
	// q2 would have to follow q1
	assert.False(t, d.p.covers(pos, open, d.b.Sig.WithArgs([]int32{q1, q1})))
}

func TestCoversInheritedQConst(t *testing.T) {
	d := newDomination(t)
	pos := layer.NewPosition(1, 0, 0, 0)
	above := d.q(0, 0, "c1", "c2", "c3")
	inherited := d.add(pos, above, d.c("c1"))
	fixed := d.add(pos, d.c("c3"), d.c("c1"))
	assert.False(t, d.p.covers(pos, inherited, fixed))

	d.p.dominate(pos)
	assert.True(t, pos.Has(inherited))
	assert.True(t, pos.Has(fixed))
	assert.Zero(t, testutil.ToFloat64(d.p.stats.Dominated))
}

func TestNoMutualDomination(t *testing.T) {
	d := newDomination(t)
	pos := layer.NewPosition(1, 0, 0, 0)
	u := d.add(pos, d.q(1, 0, "c1", "c3"), d.c("c2"))
	v := d.add(pos, d.q(1, 0, "c1", "c3"), d.c("c2"))
	require.True(t, d.p.covers(pos, u, v))
	require.True(t, d.p.covers(pos, v, u))
	assert.NotEqual(t, d.p.dominates(pos, u, v), d.p.dominates(pos, v, u))

	d.p.dominate(pos)
	assert.Equal(t, 1, pos.Len())
	assert.Equal(t, 1.0, testutil.ToFloat64(d.p.stats.Dominated))
}

func TestDominateTransitive(t *testing.T) {
	d := newDomination(t)
	pos := layer.NewPosition(1, 0, 0, 0)
	q1, q2 := d.q(1, 0, "c1", "c2", "c3"), d.q(1, 0, "c1", "c2", "c3")
	q3 := d.q(1, 0, "c2", "c3")
	top := d.add(pos, q1, q2)
	mid := d.add(pos, q3, d.c("c1"))
	low := d.add(pos, d.c("c3"), d.c("c1"))
	parent := htn.NewUSig(d.c("m-b"))
	pos.Link(parent, low, nil)
	pos.Link(parent, mid, nil)

	assert.True(t, d.p.dominates(pos, top, mid))
	assert.True(t, d.p.dominates(pos, mid, low))
	assert.True(t, d.p.dominates(pos, top, low))

	d.p.dominate(pos)
	assert.Equal(t, []htn.USig{top}, pos.Ops())
	assert.Equal(t, 2.0, testutil.ToFloat64(d.p.stats.Dominated))

	es := pos.Edges(top)
	require.Len(t, es, 1)
	assert.Equal(t, parent, es[0].Parent)
	assert.False(t, es[0].Always)
	require.Len(t, es[0].Alts, 2)
	for _, r := range es[0].Alts {
		for _, c := range r {
			for _, term := range c {
				for _, a := range term {
					assert.Contains(t, []int32{q1, q2}, a.Q)
				}
			}
		}
	}
}

func TestDominateKeepsSolvable(t *testing.T) {
	for _, dominate := range []bool{true, false} {
		params := config.Default()
		params.Dominate = dominate
		params.MaxDepth = 4
		res, err := run(t, repeated(), params)
		require.NoError(t, err, "dominate %v", dominate)
		require.NoError(t, res.Check())
		var steps []string
		for _, s := range res.Actions {
			steps = append(steps, s.Name+" "+strings.Join(s.Args, " "))
		}
		assert.Equal(t, []string{"B c3 c1"}, steps, "dominate %v", dominate)
	}
}
