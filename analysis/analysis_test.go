// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package analysis

import (
	"math/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/domschrei/lilotane-sub000/htn"
)

func TestOrderCyclic(t *testing.T) {
	r := rand.New(rand.NewSource(5))
	for trial := 0; trial < 50; trial++ {
		n := 1 + r.Intn(30)
		nodes := make([]int32, n)
		adj := map[int32][]int32{}
		for i := range nodes {
			nodes[i] = int32(i)
			for j := 0; j < r.Intn(4); j++ {
				adj[int32(i)] = append(adj[int32(i)], int32(r.Intn(n)))
			}
		}
		order := Order(nodes, adj)
		require.Len(t, order, n)
		sorted := append([]int32(nil), order...)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })
		assert.Equal(t, nodes, sorted)
	}
}

func TestOrderAcyclic(t *testing.T) {
	adj := map[int32][]int32{1: {2, 3}, 2: {4}, 3: {4}}
	order := Order([]int32{4, 3, 2, 1}, adj)
	pos := map[int32]int{}
	for i, n := range order {
		pos[n] = i
	}
	for u, vs := range adj {
		for _, v := range vs {
			assert.Less(t, pos[u], pos[v], "%d->%d", u, v)
		}
	}
}

func TestOrderDeep(t *testing.T) {
	const n = 200000
	nodes := make([]int32, n)
	adj := make(map[int32][]int32, n)
	for i := range nodes {
		nodes[i] = int32(i)
		adj[int32(i)] = []int32{int32((i + 1) % n)}
	}
	order := Order(nodes, adj)
	require.Len(t, order, n)
	assert.Equal(t, int32(0), order[0])
}

// recursive delivery: drive one step, then deliver again.
func deliveryProblem() *htn.Problem {
	return &htn.Problem{
		Domain: htn.Domain{
			Sorts:      map[string][]string{"pkg": nil, "loc": nil},
			Predicates: map[string][]string{"at": {"pkg", "loc"}, "road": {"loc", "loc"}},
			Tasks:      map[string][]string{"deliver": {"pkg", "loc"}},
			Actions: []htn.ActionDef{{
				Name:   "drive",
				Params: []string{"?p - pkg", "?a - loc", "?b - loc"},
				Pre:    []string{"(at ?p ?a)", "(road ?a ?b)"},
				Eff:    []string{"(not (at ?p ?a))", "(at ?p ?b)"},
			}},
			Methods: []htn.MethodDef{
				{
					Name:   "m-done",
					Params: []string{"?p - pkg", "?l - loc"},
					Task:   "(deliver ?p ?l)",
					Pre:    []string{"(at ?p ?l)"},
				},
				{
					Name:     "m-step",
					Params:   []string{"?p - pkg", "?a - loc", "?b - loc", "?l - loc"},
					Task:     "(deliver ?p ?l)",
					Subtasks: []string{"(drive ?p ?a ?b)", "(deliver ?p ?l)"},
				},
			},
		},
		Objects: map[string][]string{"pkg": {"p1"}, "loc": {"l1", "l2", "l3"}},
		Init:    []string{"(at p1 l1)", "(road l1 l2)", "(road l2 l3)"},
		Goal:    []string{"(at p1 l3)"},
		Tasks:   []string{"(deliver p1 l3)"},
	}
}

func id(t *testing.T, in *htn.Instance, s string) int32 {
	t.Helper()
	v, ok := in.Names.ID(s)
	require.True(t, ok, s)
	return v
}

func format(in *htn.Instance, ss []htn.Sig) []string {
	var res []string
	for _, s := range ss {
		res = append(res, in.FormatSig(s))
	}
	sort.Strings(res)
	return res
}

func TestFrames(t *testing.T) {
	in, err := htn.NewInstance(deliveryProblem())
	require.NoError(t, err)

	last := map[int32]int{}
	a := New(in, WithIterationHook(func(iter int, sizes map[int32]int) {
		for id, n := range sizes {
			assert.GreaterOrEqual(t, n, last[id], "effect set shrank")
			last[id] = n
		}
	}))
	assert.GreaterOrEqual(t, a.Iterations(), 2)
	assert.Len(t, a.TopoOrder(), len(in.Actions())*2+2+len(in.Methods()))

	step := a.LiftedFrame(id(t, in, "m-step"))
	assert.Equal(t, []string{
		"(at ?p ?b)", "(at ?p _)", "(not (at ?p ?a))", "(not (at ?p _))",
	}, format(in, step.Eff))
	assert.Equal(t, []string{"(at ?p ?a)", "(road ?a ?b)"}, format(in, step.Pre))

	done := a.LiftedFrame(id(t, in, "m-done"))
	assert.Empty(t, done.Eff)
}

func TestFactFrameAndChanges(t *testing.T) {
	in, err := htn.NewInstance(deliveryProblem())
	require.NoError(t, err)
	a := New(in)

	p1, l1, l2, l3 := id(t, in, "p1"), id(t, in, "l1"), id(t, in, "l2"), id(t, in, "l3")
	step := htn.NewUSig(id(t, in, "m-step"), p1, l1, l2, l3)
	f := a.FactFrame(step)
	assert.Contains(t, format(in, f.Pre), "(road l1 l2)")

	changes := format(in, a.PossibleFactChanges(step))
	assert.Equal(t, []string{
		"(at p1 l1)", "(at p1 l2)", "(at p1 l3)",
		"(not (at p1 l1))", "(not (at p1 l2))", "(not (at p1 l3))",
	}, changes)
}

func TestReachability(t *testing.T) {
	in, err := htn.NewInstance(deliveryProblem())
	require.NoError(t, err)
	a := New(in)
	at := id(t, in, "at")
	road := id(t, in, "road")
	p1, l1, l2 := id(t, in, "p1"), id(t, in, "l1"), id(t, in, "l2")

	f := htn.NewUSig(at, p1, l2)
	assert.False(t, a.IsReachable(f, false))
	assert.True(t, a.IsReachable(f, true))
	a.AddReachable(f, false)
	assert.True(t, a.IsReachable(f, false))

	g := htn.NewUSig(at, p1, l1)
	assert.True(t, a.IsInvariant(g, false))
	a.AddReachable(g, true)
	assert.False(t, a.IsInvariant(g, false))

	r := htn.NewUSig(road, l1, l2)
	assert.True(t, a.IsReachable(r, false))
	assert.False(t, a.IsReachable(r, true))
	assert.True(t, a.IsReachable(htn.NewUSig(in.Eq, l1, l1), false))
	assert.False(t, a.IsReachable(htn.NewUSig(in.Eq, l1, l2), false))
}

func TestReducedArgumentDomains(t *testing.T) {
	in, err := htn.NewInstance(deliveryProblem())
	require.NoError(t, err)
	a := New(in)
	p1, l1, l2, l3 := id(t, in, "p1"), id(t, in, "l1"), id(t, in, "l2"), id(t, in, "l3")
	va, vb := id(t, in, "?a"), id(t, in, "?b")

	m := in.Method(id(t, in, "m-step")).Instantiate([]int32{p1, va, vb, l3})
	doms, ok := a.ReducedArgumentDomains(m)
	require.True(t, ok)
	assert.Equal(t, [][]int32{{p1}, {l1}, {l2}, {l3}}, doms)

	// once p1 may be at l2, driving from l2 becomes possible as well.
	a.AddReachable(htn.NewUSig(id(t, in, "at"), p1, l2), false)
	doms, ok = a.ReducedArgumentDomains(m)
	require.True(t, ok)
	assert.Equal(t, []int32{l1, l2}, doms[1])
	assert.Equal(t, []int32{l2, l3}, doms[2])

	drive := in.Action(id(t, in, "drive")).Instantiate([]int32{p1, l3, l1})
	_, ok = a.ReducedArgumentDomains(drive)
	assert.False(t, ok)
}
