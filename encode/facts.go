// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package encode

import (
	"sort"
	"strconv"
	"strings"

	"github.com/go-air/gini/z"

	"github.com/domschrei/lilotane-sub000/htn"
	"github.com/domschrei/lilotane-sub000/layer"
	"github.com/domschrei/lilotane-sub000/lt"
)

// factVar returns the variable of ground fact f before position q of the
// last layer.
//
// The first position of a layer sees the initial state.  A first child
// shares the variable of its parent.  Otherwise the variable of the left
// neighbor is reused if nothing there may change f, and a new variable
// tied to it by frame axioms is created if something may.
func (e *Encoder) factVar(layers []*layer.Layer, q int, f htn.USig) z.Lit {
	l := len(layers) - 1
	pos := layers[l].At(q)
	if m, ok := pos.FactVar(f); ok {
		return m
	}
	var parent z.Lit
	shared := false
	if l > 0 && pos.Offset == 0 {
		parent, shared = layers[l-1].At(pos.Above).FactVar(f)
	}
	if q == 0 {
		m := parent
		if !shared {
			m = e.Lit()
			if _, ok := e.in.Init[f]; ok {
				e.clause(m)
			} else {
				e.clause(m.Not())
			}
		}
		pos.SetFactVar(f, m)
		return m
	}
	left := layers[l].At(q - 1)
	if !shared && !left.MayChange(f) {
		m := e.factVar(layers, q-1, f)
		pos.SetFactVar(f, m)
		return m
	}
	m := parent
	if !shared {
		m = e.Lit()
	}
	pos.SetFactVar(f, m)
	e.frame(layers, q, f, m)
	return m
}

// frame adds the frame axioms of f between positions q-1 and q: a change
// of f needs a supporting operator at q-1.
func (e *Encoder) frame(layers []*layer.Layer, q int, f htn.USig, after z.Lit) {
	l := len(layers) - 1
	left := layers[l].At(q - 1)
	before := e.factVar(layers, q-1, f)
	for _, s := range [2]htn.Sig{htn.Pos(f), htn.Neg(f)} {
		var cl []z.Lit
		if s.Neg {
			cl = []z.Lit{before.Not(), after}
		} else {
			cl = []z.Lit{before, after.Not()}
		}
		if !e.nps && left.Reductions() > 0 {
			if left.Actions() == 0 {
				continue
			}
			cl = append(cl, left.Prim.Not())
		}
		for _, u := range left.Support(s) {
			if !e.supports(left, u) {
				continue
			}
			m, _ := left.OpVar(u)
			cl = append(cl, m)
		}
		ind := left.Indirect(s)
		us := make([]htn.USig, 0, len(ind))
		for u := range ind {
			if e.supports(left, u) {
				us = append(us, u)
			}
		}
		htn.SortUSigs(us)
		for _, u := range us {
			m, _ := left.OpVar(u)
			x := e.Lit()
			e.clause(x.Not(), m)
			e.encodeDNF([]z.Lit{x}, ind[u])
			cl = append(cl, x)
		}
		e.clause(cl...)
	}
}

func (e *Encoder) supports(pos *layer.Position, u htn.USig) bool {
	if _, ok := pos.Op(u).(*htn.Action); ok {
		return true
	}
	return e.nps
}

// qfactVar returns the variable of q-fact f before position q of the last
// layer.  It is equivalent to each decoding of f under the substitution
// yielding that decoding.
func (e *Encoder) qfactVar(layers []*layer.Layer, q int, f htn.USig) z.Lit {
	pos := layers[len(layers)-1].At(q)
	if m, ok := pos.QFactVar(f); ok {
		return m
	}
	m := e.Lit()
	pos.SetQFactVar(f, m)
	ds := e.dec.Decode(f)
	if len(ds) == 0 {
		e.clause(m.Not())
		return m
	}
	for _, d := range ds {
		g := e.factVar(layers, q, d.Fact)
		sub := e.term(d.Term)
		cl := make([]z.Lit, 0, len(sub)+2)
		for _, s := range sub {
			cl = append(cl, s.Not())
		}
		n := len(cl)
		e.clause(append(cl[:n:n], m.Not(), g)...)
		e.clause(append(cl[:n:n], m, g.Not())...)
	}
	return m
}

// encodeDNF adds clauses for head => c.  Terms over the same q-constants
// share one literal tree.  If there are several such groups, each gets an
// auxiliary variable.
func (e *Encoder) encodeDNF(head []z.Lit, c layer.Condition) {
	type group struct {
		qs   []int32
		tree *lt.Tree
	}
	groups := make(map[string]*group)
	var keys []string
	for _, t := range c {
		if len(t) == 0 {
			return
		}
		qs := make([]int32, len(t))
		vs := make([]int32, len(t))
		var b strings.Builder
		for i, a := range t {
			qs[i], vs[i] = a.Q, a.V
			b.WriteString(strconv.Itoa(int(a.Q)))
			b.WriteByte(',')
		}
		k := b.String()
		g := groups[k]
		if g == nil {
			g = &group{qs: qs, tree: lt.New()}
			groups[k] = g
			keys = append(keys, k)
		}
		g.tree.Insert(vs)
	}
	if len(keys) == 0 {
		cl := make([]z.Lit, len(head))
		for i, m := range head {
			cl[i] = m.Not()
		}
		e.clause(cl...)
		return
	}
	sort.Strings(keys)
	enc := func(h []z.Lit, g *group) {
		g.tree.Encode(h, func(level int, v int32) z.Lit {
			return e.qvar(g.qs[level], v)
		}, e)
	}
	if len(keys) == 1 {
		enc(head, groups[keys[0]])
		return
	}
	cl := make([]z.Lit, 0, len(head)+len(keys))
	for _, m := range head {
		cl = append(cl, m.Not())
	}
	for _, k := range keys {
		x := e.Lit()
		cl = append(cl, x)
		enc([]z.Lit{x}, groups[k])
	}
	e.clause(cl...)
}
