// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package layer

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/domschrei/lilotane-sub000/htn"
)

func instance(t *testing.T) *htn.Instance {
	t.Helper()
	in, err := htn.NewInstance(&htn.Problem{
		Domain: htn.Domain{
			Sorts:      map[string][]string{"pkg": {"obj"}, "loc": {"obj"}},
			Predicates: map[string][]string{"at": {"pkg", "loc"}},
			Tasks:      map[string][]string{"deliver": {"pkg", "loc"}},
			Actions: []htn.ActionDef{{
				Name:   "move",
				Params: []string{"?p - pkg", "?a - loc", "?b - loc"},
				Pre:    []string{"(at ?p ?a)"},
				Eff:    []string{"(not (at ?p ?a))", "(at ?p ?b)"},
			}},
		},
		Objects: map[string][]string{"pkg": {"p1"}, "loc": {"l1", "l2"}},
		Init:    []string{"(at p1 l1)"},
	})
	require.NoError(t, err)
	return in
}

func id(t *testing.T, in *htn.Instance, s string) int32 {
	t.Helper()
	v, ok := in.Names.ID(s)
	require.True(t, ok, s)
	return v
}

func TestStateApply(t *testing.T) {
	in := instance(t)
	at := id(t, in, "at")
	p1, l1, l2 := id(t, in, "p1"), id(t, in, "l1"), id(t, in, "l2")
	f1, f2 := htn.NewUSig(at, p1, l1), htn.NewUSig(at, p1, l2)

	s := NewState(in.Init)
	assert.Equal(t, True, s.Get(f1))
	assert.Equal(t, False, s.Get(f2))
	assert.Same(t, s, s.Apply(nil, true))

	moved := s.Apply([]htn.Sig{htn.Neg(f1), htn.Pos(f2)}, true)
	assert.True(t, moved.Known(f1, true))
	assert.True(t, moved.Known(f2, false))
	assert.Equal(t, True, s.Get(f1), "states are immutable")

	back := moved.Apply([]htn.Sig{htn.Pos(f1), htn.Neg(f2)}, true)
	assert.Empty(t, back.diff)

	maybe := s.Apply([]htn.Sig{htn.Neg(f1), htn.Pos(f2)}, false)
	assert.Equal(t, Unknown, maybe.Get(f1))
	assert.Equal(t, Unknown, maybe.Get(f2))
	assert.True(t, maybe.May(f1, true))
	assert.True(t, maybe.May(f1, false))
	assert.Equal(t, 2, maybe.Unknown())

	// an add and a delete of the same fact: the add wins.
	both := s.Apply([]htn.Sig{htn.Pos(f2), htn.Neg(f2)}, true)
	assert.True(t, both.Known(f2, false))
}

func TestPositionEdges(t *testing.T) {
	in := instance(t)
	move := id(t, in, "move")
	p1, l1, l2 := id(t, in, "p1"), id(t, in, "l1"), id(t, in, "l2")
	parent := htn.NewUSig(99, p1)
	other := htn.NewUSig(98, p1)

	p := NewPosition(1, 0, 0, 0)
	a := in.Op(htn.NewUSig(move, p1, l1, l2))
	b := in.Op(htn.NewUSig(move, p1, l2, l1))
	p.Add(a)
	p.Add(b)
	p.Add(in.Blank)
	assert.Equal(t, 3, p.Len())
	assert.Equal(t, 3, p.Actions())
	assert.False(t, p.Mixed())

	p.Link(parent, a.Signature(), nil)
	p.Link(parent, b.Signature(), Restriction{{{{Q: 5, V: l1}}}})
	p.Link(parent, b.Signature(), Restriction{{{{Q: 5, V: l2}}}})
	p.Link(other, b.Signature(), nil)
	p.Link(other, b.Signature(), Restriction{{{{Q: 5, V: l2}}}})

	require.Len(t, p.Edges(b.Signature()), 2)
	assert.Len(t, p.Edges(b.Signature())[0].Alts, 2)
	assert.True(t, p.Edges(b.Signature())[1].Always)
	assert.Nil(t, p.Edges(b.Signature())[1].Alts)
	assert.Equal(t, []htn.USig{a.Signature(), b.Signature()}, p.Children(parent))

	assert.Empty(t, p.Remove(a.Signature()))
	assert.Equal(t, []htn.USig{b.Signature()}, p.Children(parent))
	orphans := p.Remove(b.Signature())
	assert.ElementsMatch(t, []htn.USig{parent, other}, orphans)
	assert.ElementsMatch(t, []htn.USig{parent, other}, p.Forbidden())
	assert.Empty(t, p.Parents())
	assert.Equal(t, 1, p.Len())
	assert.Nil(t, p.Remove(a.Signature()))
}

func TestPositionRedirect(t *testing.T) {
	in := instance(t)
	move := id(t, in, "move")
	p1, l1, l2 := id(t, in, "p1"), id(t, in, "l1"), id(t, in, "l2")
	parent := htn.NewUSig(99, p1)

	p := NewPosition(1, 0, 0, 0)
	from := htn.NewUSig(move, p1, l1, l2)
	to := htn.NewUSig(move, p1, l1, l1)
	p.Add(in.Op(from))
	p.Add(in.Op(to))
	p.Link(parent, from, nil)
	cond := Restriction{{{{Q: 7, V: l2}}}}
	p.Redirect(from, to, cond)

	assert.False(t, p.Has(from))
	require.Len(t, p.Edges(to), 1)
	e := p.Edges(to)[0]
	assert.False(t, e.Always)
	assert.Equal(t, []Restriction{cond}, e.Alts)
	assert.Equal(t, []htn.USig{to}, p.Children(parent))
	assert.Empty(t, p.Forbidden())
}

func TestDecoder(t *testing.T) {
	in := instance(t)
	at := id(t, in, "at")
	obj, loc := id(t, in, "obj"), id(t, in, "loc")
	p1, l1, l2 := id(t, in, "p1"), id(t, in, "l1"), id(t, in, "l2")
	d := NewDecoder(in)

	// ?q ranges over every object, but only locations fit (at p1 _).
	q := in.Q.Get(0, 0, htn.NewUSig(1), 0, obj, in.Constants(obj))
	u := htn.NewUSig(at, p1, q)
	assert.Equal(t, []int32{q}, d.QConsts(u))
	ds := d.Decode(u)
	require.Len(t, ds, 2)
	assert.Equal(t, htn.NewUSig(at, p1, l1), ds[0].Fact)
	assert.Equal(t, Term{{Q: q, V: l1}}, ds[0].Term)
	assert.Equal(t, htn.NewUSig(at, p1, l2), ds[1].Fact)

	r := in.Q.Get(0, 0, htn.NewUSig(1), 1, loc, in.Constants(loc))
	assert.Len(t, d.Decode(htn.NewUSig(at, q, r)), 2, "only p1 is a package")
	assert.Len(t, d.Decode(htn.NewUSig(in.Eq, q, r)), 6)

	g := d.Decode(htn.NewUSig(at, p1, l2))
	require.Len(t, g, 1)
	assert.Empty(t, g[0].Term)
	assert.Empty(t, d.Decode(htn.NewUSig(at, l1, l2)))
}

func TestLayerExpansion(t *testing.T) {
	l := New(0)
	for i := 0; i < 3; i++ {
		l.Append(NewPosition(0, i, -1, 0))
	}
	l.SetExpansion([]int{2, 1, 3})
	assert.Equal(t, 0, l.Succ(0))
	assert.Equal(t, 2, l.Succ(1))
	assert.Equal(t, 3, l.Succ(2))
	assert.Equal(t, 3, l.Expansion(2))
	assert.Equal(t, 6, l.NextLen())
	assert.True(t, l.Primitive())
	assert.Panics(t, func() { l.SetExpansion([]int{1, 0, 1}) })
}
