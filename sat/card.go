// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package sat

import (
	"github.com/go-air/gini/inter"
	"github.com/go-air/gini/logic"
	"github.com/go-air/gini/z"
)

// Card gives cardinality bounds over a list of literals by way of a
// logic.CardSort sorting network.  In gini v1.0.4 a CardSort is built on a
// *logic.C, so the network lives in its own circuit and is translated into
// the caller's variables as it is added.
type Card struct {
	cs   *logic.CardSort
	vars map[z.Var]z.Lit
	lit  func() z.Lit
}

// NewCard adds a sorting network over ms to dst.  lit allocates fresh
// variables in dst's variable space.
func NewCard(ms []z.Lit, dst inter.Adder, lit func() z.Lit) *Card {
	c := logic.NewC()
	card := &Card{vars: make(map[z.Var]z.Lit, 4*len(ms)), lit: lit}
	ins := make([]z.Lit, len(ms))
	for i, m := range ms {
		ins[i] = c.Lit()
		card.vars[ins[i].Var()] = m
	}
	t := lit()
	card.vars[c.T.Var()] = t
	dst.Add(t)
	dst.Add(z.LitNull)
	card.cs = c.CardSort(ins)
	c.ToCnf(remap{card: card, dst: dst})
	return card
}

type remap struct {
	card *Card
	dst  inter.Adder
}

func (r remap) Add(m z.Lit) {
	if m == z.LitNull {
		r.dst.Add(m)
		return
	}
	r.dst.Add(r.card.translate(m))
}

func (c *Card) translate(m z.Lit) z.Lit {
	v := m.Var()
	n, ok := c.vars[v]
	if !ok {
		n = c.lit()
		c.vars[v] = n
	}
	if m.IsPos() {
		return n
	}
	return n.Not()
}

// Leq returns a literal which is true if at most k of the literals hold.
func (c *Card) Leq(k int) z.Lit {
	return c.translate(c.cs.Leq(k))
}

// Geq returns a literal which is true if at least k of the literals hold.
func (c *Card) Geq(k int) z.Lit {
	return c.translate(c.cs.Geq(k))
}

// N returns the number of counted literals.
func (c *Card) N() int {
	return c.cs.N()
}
