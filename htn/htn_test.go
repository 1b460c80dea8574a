// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package htn

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUSigPacking(t *testing.T) {
	u := NewUSig(7, 1, -2, 1<<20, 0)
	require.Equal(t, 4, u.Arity())
	assert.Equal(t, []int32{1, -2, 1 << 20, 0}, u.Args())
	assert.Equal(t, u, NewUSig(7, 1, -2, 1<<20, 0))
	assert.NotEqual(t, u, NewUSig(7, 1, -2, 1<<20))
	assert.True(t, u.Has(-2))
	assert.False(t, u.Has(3))

	v := u.Substitute(Subst{1: 9, 0: 5})
	assert.Equal(t, []int32{9, -2, 1 << 20, 5}, v.Args())
	assert.Equal(t, u, u.Substitute(nil))
}

func TestUSigLess(t *testing.T) {
	us := []USig{NewUSig(2, 1), NewUSig(1, 3, 4), NewUSig(1, 3), NewUSig(1, 2, 9)}
	SortUSigs(us)
	assert.Equal(t, []USig{NewUSig(1, 3), NewUSig(1, 2, 9), NewUSig(1, 3, 4), NewUSig(2, 1)}, us)
}

func TestParseLit(t *testing.T) {
	cases := []struct {
		in  string
		out Lit
		err bool
	}{
		{in: "(at ?x l1)", out: Lit{Name: "at", Args: []string{"?x", "l1"}}},
		{in: "(not (at ?x l1))", out: Lit{Name: "at", Args: []string{"?x", "l1"}, Neg: true}},
		{in: "(p)", out: Lit{Name: "p"}},
		{in: "p a", out: Lit{Name: "p", Args: []string{"a"}}},
		{in: "(p a", err: true},
		{in: "(p (a))", err: true},
		{in: "(p a) b", err: true},
		{in: "", err: true},
	}
	for _, c := range cases {
		lit, err := ParseLit(c.in)
		if c.err {
			assert.Error(t, err, c.in)
			continue
		}
		require.NoError(t, err, c.in)
		assert.Equal(t, c.out.Name, lit.Name)
		assert.Equal(t, len(c.out.Args), len(lit.Args))
		assert.Equal(t, c.out.Neg, lit.Neg)
	}
}

func transport() *Problem {
	one := 1
	return &Problem{
		Domain: Domain{
			Sorts:      map[string][]string{"pkg": {"obj"}, "loc": {"obj"}},
			Predicates: map[string][]string{"at": {"obj", "loc"}, "road": {"loc", "loc"}},
			Tasks:      map[string][]string{"deliver": {"pkg", "loc"}},
			Actions: []ActionDef{{
				Name:   "move",
				Params: []string{"?p - pkg", "?a - loc", "?b - loc"},
				Pre:    []string{"(at ?p ?a)", "(road ?a ?b)"},
				Eff:    []string{"(not (at ?p ?a))", "(at ?p ?b)"},
				Cost:   &one,
			}},
			Methods: []MethodDef{{
				Name:     "m-deliver",
				Params:   []string{"?p - pkg", "?a - loc", "?b - loc"},
				Task:     "(deliver ?p ?b)",
				Pre:      []string{"(at ?p ?a)"},
				Subtasks: []string{"(move ?p ?a ?b)"},
			}},
		},
		Objects: map[string][]string{"pkg": {"p1"}, "loc": {"l1", "l2"}},
		Init:    []string{"(at p1 l1)", "(road l1 l2)"},
		Goal:    []string{"(at p1 l2)"},
		Tasks:   []string{"(deliver p1 l2)"},
	}
}

func TestNewInstance(t *testing.T) {
	in, err := NewInstance(transport())
	require.NoError(t, err)

	obj, _ := in.Names.ID("obj")
	loc, _ := in.Names.ID("loc")
	p1, _ := in.Names.ID("p1")
	l1, _ := in.Names.ID("l1")
	assert.Len(t, in.Constants(obj), 3)
	assert.Len(t, in.Constants(loc), 2)
	assert.True(t, in.InSort(p1, obj))
	assert.False(t, in.InSort(p1, loc))

	road, _ := in.Names.ID("road")
	at, _ := in.Names.ID("at")
	assert.True(t, in.IsRigid(road))
	assert.False(t, in.IsRigid(at))
	assert.True(t, in.IsRigid(in.Eq))
	assert.True(t, in.RigidHolds(NewUSig(in.Eq, l1, l1)))
	assert.False(t, in.RigidHolds(NewUSig(in.Eq, l1, p1)))

	require.Len(t, in.Network, 1)
	assert.Equal(t, "deliver p1 l2", in.Format(in.Network[0]))
	require.Len(t, in.Goal.Pre, 1)
	assert.Equal(t, "(at p1 l2)", in.FormatSig(in.Goal.Pre[0]))

	move, _ := in.Names.ID("move")
	v, ok := in.Virtual(move)
	require.True(t, ok)
	assert.Equal(t, move, in.Canonical(v))
	assert.Equal(t, "move p1 l1 l2", in.Format(NewUSig(v, p1, l1, in.Network[0].Arg(1))))
}

func TestInstantiate(t *testing.T) {
	in, err := NewInstance(transport())
	require.NoError(t, err)
	m, _ := in.Names.ID("m-deliver")
	p1, _ := in.Names.ID("p1")
	l1, _ := in.Names.ID("l1")
	l2, _ := in.Names.ID("l2")

	op := in.Op(NewUSig(m, p1, l1, l2))
	r, ok := op.(*Reduction)
	require.True(t, ok)
	assert.Equal(t, "deliver p1 l2", in.Format(r.Task))
	require.Len(t, r.Subtasks, 1)
	assert.Equal(t, "move p1 l1 l2", in.Format(r.Subtasks[0]))
	assert.Same(t, op, in.Op(NewUSig(m, p1, l1, l2)))
}

func TestInstanceErrors(t *testing.T) {
	p := transport()
	p.Init = append(p.Init, "(at p1 nowhere)")
	_, err := NewInstance(p)
	assert.Error(t, err)

	p = transport()
	p.Domain.Actions[0].Pre = []string{"(at ?q ?a)"}
	_, err = NewInstance(p)
	assert.Error(t, err)

	p = transport()
	p.Domain.Methods[0].Subtasks = []string{"(move ?p ?a)"}
	_, err = NewInstance(p)
	assert.Error(t, err)
}

func TestQPool(t *testing.T) {
	in, err := NewInstance(transport())
	require.NoError(t, err)
	loc, _ := in.Names.ID("loc")
	dom := in.Constants(loc)
	op := NewUSig(1, Wildcard)
	q := in.Q.Get(1, 2, op, 0, loc, dom)
	assert.True(t, in.Names.IsQConst(q))
	assert.Equal(t, q, in.Q.Get(1, 2, op, 0, loc, dom))
	assert.NotEqual(t, q, in.Q.Get(1, 3, op, 0, loc, dom))
	assert.Equal(t, dom, in.Q.Domain(q))
	assert.Equal(t, 2, in.Q.Len())
}
