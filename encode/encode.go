// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

// Package encode translates positions of the planning graph into clauses
// and reads plans back from satisfying assignments.
package encode

import (
	"fmt"
	"log/slog"

	"github.com/go-air/gini/z"

	"github.com/domschrei/lilotane-sub000/htn"
	"github.com/domschrei/lilotane-sub000/internal/stats"
	"github.com/domschrei/lilotane-sub000/layer"
	"github.com/domschrei/lilotane-sub000/sat"
)

// InvariantError reports an internal inconsistency.  It is never retried.
type InvariantError struct {
	Layer, Pos int
	Msg        string
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("invariant violated at layer %d position %d: %s", e.Layer, e.Pos, e.Msg)
}

// Options configure an Encoder.
type Options struct {
	// NonPrimitiveSupport lets reductions support fact changes in frame
	// axioms instead of suspending frame axioms after non-primitive
	// positions.
	NonPrimitiveSupport bool
	Logger              *slog.Logger
	Stats               *stats.Stats
}

// Encoder adds the clauses of positions to a solver.  Positions must be
// encoded in order, layer by layer.
type Encoder struct {
	in    *htn.Instance
	dec   *layer.Decoder
	dst   sat.Solver
	nps   bool
	log   *slog.Logger
	stats *stats.Stats

	top     z.Var
	truth   z.Lit
	qvals   map[int32]map[int32]z.Lit
	clauses int
	pending int
	cls     []z.Lit
}

// New creates an encoder adding clauses to dst.
func New(in *htn.Instance, dec *layer.Decoder, dst sat.Solver, opts Options) *Encoder {
	e := &Encoder{
		in:    in,
		dec:   dec,
		dst:   dst,
		nps:   opts.NonPrimitiveSupport,
		log:   opts.Logger,
		stats: opts.Stats,
		qvals: make(map[int32]map[int32]z.Lit)}
	if e.log == nil {
		e.log = slog.New(slog.DiscardHandler)
	}
	e.truth = e.Lit()
	e.clause(e.truth)
	return e
}

// Add adds m to the clause under construction, z.LitNull ends it.  The
// Encoder is the inter.Adder handed to literal trees and cardinality
// networks.
func (e *Encoder) Add(m z.Lit) {
	e.dst.Add(m)
	if m == z.LitNull {
		e.clauses++
		e.pending++
	}
}

func (e *Encoder) clause(ms ...z.Lit) {
	for _, m := range ms {
		e.dst.Add(m)
	}
	e.Add(z.LitNull)
}

// Lit allocates a fresh variable.
func (e *Encoder) Lit() z.Lit {
	e.top++
	return e.top.Pos()
}

// Vars returns the number of allocated variables.
func (e *Encoder) Vars() int {
	return int(e.top)
}

// Clauses returns the number of clauses added.
func (e *Encoder) Clauses() int {
	return e.clauses
}

// True returns a literal which is always true.
func (e *Encoder) True() z.Lit {
	return e.truth
}

func (e *Encoder) flushStats() {
	if e.stats == nil {
		return
	}
	e.stats.Clauses.Add(float64(e.pending))
	e.stats.Variables.Set(float64(e.top))
	e.stats.QConsts.Set(float64(e.in.Q.Len()))
	e.pending = 0
}

// values returns the value variables of q-constant q, creating them with
// an exactly-one constraint if necessary.
func (e *Encoder) values(q int32) map[int32]z.Lit {
	if vals, ok := e.qvals[q]; ok {
		return vals
	}
	dom := e.in.Q.Domain(q)
	vals := make(map[int32]z.Lit, len(dom))
	ms := make([]z.Lit, len(dom))
	for i, c := range dom {
		ms[i] = e.Lit()
		vals[c] = ms[i]
	}
	e.qvals[q] = vals
	e.exactlyOne(ms)
	return vals
}

// qvar returns the literal stating that q-constant q takes value v.
func (e *Encoder) qvar(q, v int32) z.Lit {
	if m, ok := e.values(q)[v]; ok {
		return m
	}
	return e.truth.Not()
}

func (e *Encoder) exactlyOne(ms []z.Lit) {
	e.clause(ms...)
	for i := range ms {
		for j := i + 1; j < len(ms); j++ {
			e.clause(ms[i].Not(), ms[j].Not())
		}
	}
}

func (e *Encoder) term(t layer.Term) []z.Lit {
	ms := make([]z.Lit, len(t))
	for i, a := range t {
		ms[i] = e.qvar(a.Q, a.V)
	}
	return ms
}

func (e *Encoder) ensureQConsts(u htn.USig) {
	for _, a := range u.Args() {
		if e.in.Names.IsQConst(a) {
			e.values(a)
		}
	}
}

// Encode adds the clauses of position q of the last layer of layers.
func (e *Encoder) Encode(layers []*layer.Layer, q int) error {
	l := len(layers) - 1
	pos := layers[l].At(q)
	ops := pos.Ops()
	if len(ops) == 0 {
		return &InvariantError{Layer: l, Pos: q, Msg: "no operator"}
	}
	ms := make([]z.Lit, len(ops))
	for i, u := range ops {
		ms[i] = e.Lit()
		pos.SetOpVar(u, ms[i])
		e.ensureQConsts(u)
	}
	e.exactlyOne(ms)
	if pos.Mixed() {
		pos.Prim = e.Lit()
		for i, u := range ops {
			if _, ok := pos.Op(u).(*htn.Action); ok {
				e.clause(ms[i].Not(), pos.Prim)
			} else {
				e.clause(ms[i].Not(), pos.Prim.Not())
			}
		}
	}
	for i, u := range ops {
		e.types(pos, u, ms[i])
		for _, c := range pos.Constraints(u) {
			c.Encode(ms[i], e.qvar, e)
		}
		e.preconditions(layers, q, u, ms[i])
		if a, ok := pos.Op(u).(*htn.Action); ok && q+1 < layers[l].Len() {
			e.effects(layers, q, a, ms[i])
		}
	}
	if l > 0 {
		if err := e.expansion(layers, q); err != nil {
			return err
		}
	}
	pos.ReleaseEncoded()
	e.flushStats()
	return nil
}

func (e *Encoder) types(pos *layer.Position, u htn.USig, o z.Lit) {
	for _, tc := range pos.Types(u) {
		dom := e.in.Q.Domain(tc.Q)
		if len(tc.Good) <= len(dom)-len(tc.Good) {
			cl := []z.Lit{o.Not()}
			for _, v := range tc.Good {
				cl = append(cl, e.qvar(tc.Q, v))
			}
			e.clause(cl...)
			continue
		}
		good := make(map[int32]bool, len(tc.Good))
		for _, v := range tc.Good {
			good[v] = true
		}
		for _, v := range dom {
			if !good[v] {
				e.clause(o.Not(), e.qvar(tc.Q, v).Not())
			}
		}
	}
}

func (e *Encoder) preconditions(layers []*layer.Layer, q int, u htn.USig, o z.Lit) {
	for _, p := range layers[len(layers)-1].At(q).Pre(u) {
		var m z.Lit
		if len(e.dec.QConsts(p.USig)) == 0 {
			m = e.factVar(layers, q, p.USig)
		} else {
			m = e.qfactVar(layers, q, p.USig)
		}
		if p.Neg {
			m = m.Not()
		}
		e.clause(o.Not(), m)
	}
}

// effects encodes the effects of action a at q on the facts before q+1.
func (e *Encoder) effects(layers []*layer.Layer, q int, a *htn.Action, o z.Lit) {
	adds := make(map[htn.USig]bool)
	var qadds []htn.USig
	for _, f := range a.Eff {
		if f.Neg {
			continue
		}
		if len(e.dec.QConsts(f.USig)) == 0 {
			adds[f.USig] = true
		} else {
			qadds = append(qadds, f.USig)
		}
		e.clause(o.Not(), e.effVar(layers, q+1, f.USig))
	}
	// terms under which some add yields ground fact g
	coincide := func(g htn.USig) (layer.Condition, bool) {
		if adds[g] {
			return nil, true
		}
		var c layer.Condition
		for _, qa := range qadds {
			for _, d := range e.dec.Decode(qa) {
				if d.Fact == g {
					c = append(c, d.Term)
				}
			}
		}
		return c, false
	}
	for _, f := range a.Eff {
		if !f.Neg {
			continue
		}
		ds := e.dec.Decode(f.USig)
		clash := false
		for _, d := range ds {
			if c, always := coincide(d.Fact); always || len(c) > 0 {
				clash = true
				break
			}
		}
		if !clash {
			e.clause(o.Not(), e.effVar(layers, q+1, f.USig).Not())
			continue
		}
		for _, d := range ds {
			c, always := coincide(d.Fact)
			if always {
				continue
			}
			cl := []z.Lit{o.Not()}
			for _, m := range e.term(d.Term) {
				cl = append(cl, m.Not())
			}
			cl = append(cl, e.factVar(layers, q+1, d.Fact).Not())
			if len(c) > 0 {
				cl = append(cl, e.dnfLit(c))
			}
			e.clause(cl...)
		}
	}
}

func (e *Encoder) effVar(layers []*layer.Layer, q int, f htn.USig) z.Lit {
	if len(e.dec.QConsts(f)) == 0 {
		return e.factVar(layers, q, f)
	}
	return e.qfactVar(layers, q, f)
}

// dnfLit returns a literal implying c.
func (e *Encoder) dnfLit(c layer.Condition) z.Lit {
	for _, t := range c {
		if len(t) == 0 {
			return e.truth
		}
	}
	m := e.Lit()
	e.encodeDNF([]z.Lit{m}, c)
	return m
}

func (e *Encoder) expansion(layers []*layer.Layer, q int) error {
	l := len(layers) - 1
	pos := layers[l].At(q)
	above := layers[l-1].At(pos.Above)
	pvar := func(u htn.USig) (z.Lit, error) {
		m, ok := above.OpVar(u)
		if !ok {
			return z.LitNull, &InvariantError{Layer: l, Pos: q, Msg: "parent " + e.in.Format(u) + " has no variable"}
		}
		return m, nil
	}
	for _, u := range pos.Ops() {
		c, _ := pos.OpVar(u)
		cl := []z.Lit{c.Not()}
		for _, edge := range pos.Edges(u) {
			p, err := pvar(edge.Parent)
			if err != nil {
				return err
			}
			cl = append(cl, p)
			if edge.Always {
				continue
			}
			head := []z.Lit{p, c}
			if len(edge.Alts) == 1 {
				e.restrict(head, edge.Alts[0])
				continue
			}
			alt := []z.Lit{p.Not(), c.Not()}
			for _, r := range edge.Alts {
				x := e.Lit()
				alt = append(alt, x)
				e.restrict([]z.Lit{x}, r)
			}
			e.clause(alt...)
		}
		e.clause(cl...)
	}
	for _, u := range pos.Parents() {
		p, err := pvar(u)
		if err != nil {
			return err
		}
		cl := []z.Lit{p.Not()}
		for _, c := range pos.Children(u) {
			m, _ := pos.OpVar(c)
			cl = append(cl, m)
		}
		e.clause(cl...)
	}
	for _, u := range pos.Forbidden() {
		if len(pos.Children(u)) > 0 {
			continue
		}
		if p, ok := above.OpVar(u); ok {
			e.clause(p.Not())
		}
	}
	return nil
}

func (e *Encoder) restrict(head []z.Lit, r layer.Restriction) {
	for _, c := range r {
		e.encodeDNF(head, c)
	}
}
