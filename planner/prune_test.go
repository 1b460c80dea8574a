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

// links joins x to z through a y related to both.  m-linked pairs a1 with
// c1 and a2 with c2; m-broken relates x and z to disjoint y values.
func links(goal string) *htn.Problem {
	return &htn.Problem{
		Domain: htn.Domain{
			Sorts: map[string][]string{"obj": nil},
			Predicates: map[string][]string{
				"r1":   {"obj", "obj"},
				"r2":   {"obj", "obj"},
				"r3":   {"obj", "obj"},
				"done": {"obj", "obj"},
			},
			Tasks: map[string][]string{"T": nil},
			Actions: []htn.ActionDef{{
				Name:   "act",
				Params: []string{"?x - obj", "?z - obj"},
				Eff:    []string{"(done ?x ?z)"},
			}},
			Methods: []htn.MethodDef{
				{
					Name:     "m-linked",
					Params:   []string{"?x - obj", "?y - obj", "?z - obj"},
					Task:     "(T)",
					Pre:      []string{"(r1 ?x ?y)", "(r2 ?y ?z)"},
					Subtasks: []string{"(act ?x ?z)"},
				},
				{
					Name:     "m-broken",
					Params:   []string{"?x - obj", "?y - obj", "?z - obj"},
					Task:     "(T)",
					Pre:      []string{"(r1 ?x ?y)", "(r3 ?y ?z)"},
					Subtasks: []string{"(act ?x ?z)"},
				},
			},
		},
		Objects: map[string][]string{"obj": {"a1", "a2", "b1", "b2", "c1", "c2"}},
		Init: []string{
			"(r1 a1 b1)", "(r1 a2 b2)",
			"(r2 b1 c1)", "(r2 b2 c2)",
			"(r3 c1 c2)",
		},
		Goal:  []string{goal},
		Tasks: []string{"(T)"},
	}
}

// openReduction binds every parameter of method name to a fresh q-constant
// at layer 0 position 0.
func openReduction(t *testing.T, in *htn.Instance, name string, doms ...[]string) htn.USig {
	t.Helper()
	id, ok := in.Names.ID(name)
	require.True(t, ok)
	m := in.Method(id)
	obj, ok := in.Names.ID("obj")
	require.True(t, ok)
	args := make([]int32, len(doms))
	for i, names := range doms {
		dom := make([]int32, len(names))
		for j, n := range names {
			dom[j], ok = in.Names.ID(n)
			require.True(t, ok, n)
		}
		sort.Slice(dom, func(a, b int) bool { return dom[a] < dom[b] })
		args[i] = in.Q.Get(0, 0, m.Sig, i, obj, dom)
	}
	return m.Sig.WithArgs(args)
}

func TestMutexes(t *testing.T) {
	in := instance(t, links("(done a1 c1)"))
	params := config.Default()
	params.QConstMutex = true
	p, err := New(in, params)
	require.NoError(t, err)
	xs, ys, zs := []string{"a1", "a2"}, []string{"b1", "b2", "c1"}, []string{"c1", "c2"}

	linked := openReduction(t, in, "m-linked", xs, ys, zs)
	mx, ok := p.mutexes(in.Op(linked))
	require.True(t, ok)
	require.Len(t, mx, 1)
	c := mx[0]
	require.Len(t, c.QConsts, 2)
	x, z := linked.Arg(0), linked.Arg(2)
	assert.ElementsMatch(t, []int32{x, z}, c.QConsts)
	id := func(n string) int32 {
		v, _ := in.Names.ID(n)
		return v
	}
	path := func(xv, zv string) []int32 {
		if c.QConsts[0] == x {
			return []int32{id(xv), id(zv)}
		}
		return []int32{id(zv), id(xv)}
	}
	assert.True(t, c.Test(path("a1", "c1")))
	assert.True(t, c.Test(path("a2", "c2")))
	assert.False(t, c.Test(path("a1", "c2")))
	assert.False(t, c.Test(path("a2", "c1")))

	broken := openReduction(t, in, "m-broken", xs, ys, zs)
	_, ok = p.mutexes(in.Op(broken))
	assert.False(t, ok)
}

func TestPruneMutex(t *testing.T) {
	for _, mutex := range []bool{true, false} {
		in := instance(t, links("(done a1 c1)"))
		params := config.Default()
		params.QConstMutex = mutex
		p, err := New(in, params)
		require.NoError(t, err)
		xs, ys, zs := []string{"a1", "a2"}, []string{"b1", "b2", "c1"}, []string{"c1", "c2"}

		pos := layer.NewPosition(0, 0, 0, 0)
		pos.State = layer.NewState(in.Init)
		linked := openReduction(t, in, "m-linked", xs, ys, zs)
		broken := openReduction(t, in, "m-broken", xs, ys, zs)
		pos.Add(in.Op(linked))
		pos.Add(in.Op(broken))
		p.prune(pos)

		assert.True(t, pos.Has(linked), "mutex %v", mutex)
		assert.Equal(t, !mutex, pos.Has(broken), "mutex %v", mutex)
		pruned := testutil.ToFloat64(p.stats.Pruned.WithLabelValues("mutex"))
		if mutex {
			assert.Equal(t, 1.0, pruned)
		} else {
			assert.Zero(t, pruned)
		}
	}
}

func TestQConstMutexPlan(t *testing.T) {
	for _, mutex := range []bool{true, false} {
		params := config.Default()
		params.QConstMutex = mutex
		params.MaxDepth = 3
		res, err := run(t, links("(done a2 c2)"), params)
		require.NoError(t, err, "mutex %v", mutex)
		require.NoError(t, res.Check())
		var steps []string
		for _, s := range res.Actions {
			steps = append(steps, s.Name+" "+strings.Join(s.Args, " "))
		}
		assert.Equal(t, []string{"act a2 c2"}, steps, "mutex %v", mutex)

		params.MaxDepth = 2
		_, err = run(t, links("(done a1 c2)"), params)
		assert.Error(t, err, "mutex %v", mutex)
	}
}
