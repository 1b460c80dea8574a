// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package layer

import (
	"github.com/go-air/gini/z"

	"github.com/domschrei/lilotane-sub000/htn"
	"github.com/domschrei/lilotane-sub000/lt"
)

// Assign states that a q-constant takes a value.
type Assign struct {
	Q, V int32
}

// Term is a conjunction of assignments.
type Term []Assign

// Condition is a disjunction of terms.  An empty Condition is false.
type Condition []Term

// Restriction is a conjunction of conditions.  An empty Restriction is
// true.
type Restriction []Condition

// Edge links a child operator to one parent operator at the position
// above.  Unless Always is set, the child may only be chosen under the
// parent if one of Alts holds.
type Edge struct {
	Parent htn.USig
	Always bool
	Alts   []Restriction
}

// TypeConstraint restricts q-constant Q to the values in Good.
type TypeConstraint struct {
	Q    int32
	Good []int32
}

// Position is one grounding slot of a layer.
type Position struct {
	Layer  int
	Index  int
	Above  int // index in the previous layer, or -1
	Offset int // index among the children of Above

	ops    map[htn.USig]htn.Operator
	sorted []htn.USig
	nacts  int

	parents   map[htn.USig][]*Edge
	children  map[htn.USig][]htn.USig
	forbidden map[htn.USig]struct{}

	types       map[htn.USig][]TypeConstraint
	constraints map[htn.USig][]*lt.Constraint
	pre         map[htn.USig][]htn.Sig

	support  map[htn.Sig][]htn.USig
	indirect map[htn.Sig]map[htn.USig][]Term

	State *State

	opVars    map[htn.USig]z.Lit
	factVars  map[htn.USig]z.Lit
	qfactVars map[htn.USig]z.Lit
	Prim      z.Lit
}

// NewPosition creates an empty position.
func NewPosition(layer, index, above, offset int) *Position {
	return &Position{
		Layer:       layer,
		Index:       index,
		Above:       above,
		Offset:      offset,
		ops:         make(map[htn.USig]htn.Operator),
		parents:     make(map[htn.USig][]*Edge),
		children:    make(map[htn.USig][]htn.USig),
		forbidden:   make(map[htn.USig]struct{}),
		types:       make(map[htn.USig][]TypeConstraint),
		constraints: make(map[htn.USig][]*lt.Constraint),
		pre:         make(map[htn.USig][]htn.Sig),
		support:     make(map[htn.Sig][]htn.USig),
		indirect:    make(map[htn.Sig]map[htn.USig][]Term),
		opVars:      make(map[htn.USig]z.Lit),
		factVars:    make(map[htn.USig]z.Lit),
		qfactVars:   make(map[htn.USig]z.Lit)}
}

// Add makes op a candidate of p.
func (p *Position) Add(op htn.Operator) {
	u := op.Signature()
	if _, ok := p.ops[u]; ok {
		return
	}
	p.ops[u] = op
	p.sorted = nil
	if _, ok := op.(*htn.Action); ok {
		p.nacts++
	}
}

// Op returns the candidate u, or nil.
func (p *Position) Op(u htn.USig) htn.Operator {
	return p.ops[u]
}

// Has reports whether u is a candidate of p.
func (p *Position) Has(u htn.USig) bool {
	_, ok := p.ops[u]
	return ok
}

// Ops returns the candidates of p in sorted order.  The slice is shared
// until p changes.
func (p *Position) Ops() []htn.USig {
	if p.sorted == nil {
		p.sorted = make([]htn.USig, 0, len(p.ops))
		for u := range p.ops {
			p.sorted = append(p.sorted, u)
		}
		htn.SortUSigs(p.sorted)
	}
	return p.sorted
}

// Len returns the number of candidates.
func (p *Position) Len() int {
	return len(p.ops)
}

// Actions returns the number of candidate actions.
func (p *Position) Actions() int {
	return p.nacts
}

// Reductions returns the number of candidate reductions.
func (p *Position) Reductions() int {
	return len(p.ops) - p.nacts
}

// Mixed reports whether p holds both actions and reductions.
func (p *Position) Mixed() bool {
	return p.nacts > 0 && p.nacts < len(p.ops)
}

// Remove drops candidate u with everything recorded for it.  A parent
// left without children at p is forbidden.  Remove returns those parents.
func (p *Position) Remove(u htn.USig) []htn.USig {
	op, ok := p.ops[u]
	if !ok {
		return nil
	}
	delete(p.ops, u)
	p.sorted = nil
	if _, isAction := op.(*htn.Action); isAction {
		p.nacts--
	}
	var orphans []htn.USig
	for _, e := range p.parents[u] {
		kids := p.children[e.Parent]
		for i, c := range kids {
			if c == u {
				kids = append(kids[:i:i], kids[i+1:]...)
				break
			}
		}
		if len(kids) == 0 {
			delete(p.children, e.Parent)
			p.forbidden[e.Parent] = struct{}{}
			orphans = append(orphans, e.Parent)
			continue
		}
		p.children[e.Parent] = kids
	}
	delete(p.parents, u)
	delete(p.types, u)
	delete(p.constraints, u)
	delete(p.pre, u)
	return orphans
}

// Link records that child may be chosen under parent, subject to alt.  A
// nil alt links unconditionally.  Links to the same parent accumulate as
// alternatives.
func (p *Position) Link(parent, child htn.USig, alt Restriction) {
	var e *Edge
	for _, x := range p.parents[child] {
		if x.Parent == parent {
			e = x
			break
		}
	}
	if e == nil {
		e = &Edge{Parent: parent}
		p.parents[child] = append(p.parents[child], e)
		p.children[parent] = append(p.children[parent], child)
	}
	switch {
	case e.Always:
	case len(alt) == 0:
		e.Always = true
		e.Alts = nil
	default:
		e.Alts = append(e.Alts, alt)
	}
}

// Edges returns the parent edges of child.
func (p *Position) Edges(child htn.USig) []*Edge {
	return p.parents[child]
}

// Children returns the children of parent at p.
func (p *Position) Children(parent htn.USig) []htn.USig {
	return p.children[parent]
}

// Parents returns every parent with children at p, sorted.
func (p *Position) Parents() []htn.USig {
	res := make([]htn.USig, 0, len(p.children))
	for u := range p.children {
		res = append(res, u)
	}
	htn.SortUSigs(res)
	return res
}

// Forbid records that parent has no children at p.
func (p *Position) Forbid(parent htn.USig) {
	p.forbidden[parent] = struct{}{}
}

// Forbidden returns the parents without children at p, sorted.
func (p *Position) Forbidden() []htn.USig {
	res := make([]htn.USig, 0, len(p.forbidden))
	for u := range p.forbidden {
		res = append(res, u)
	}
	htn.SortUSigs(res)
	return res
}

// Redirect replaces candidate from by candidate to: every parent of from
// becomes a parent of to, with cond added to each of its alternatives.
func (p *Position) Redirect(from, to htn.USig, cond Restriction) {
	for _, e := range p.parents[from] {
		if e.Always {
			p.Link(e.Parent, to, cond)
			continue
		}
		for _, alt := range e.Alts {
			r := make(Restriction, 0, len(alt)+len(cond))
			r = append(append(r, alt...), cond...)
			p.Link(e.Parent, to, r)
		}
	}
	p.Remove(from)
}

// AddType restricts a q-constant argument of candidate u.
func (p *Position) AddType(u htn.USig, t TypeConstraint) {
	p.types[u] = append(p.types[u], t)
}

// Types returns the type constraints of u.
func (p *Position) Types(u htn.USig) []TypeConstraint {
	return p.types[u]
}

// SetConstraints sets the substitution constraints of u.
func (p *Position) SetConstraints(u htn.USig, cs []*lt.Constraint) {
	if len(cs) == 0 {
		delete(p.constraints, u)
		return
	}
	p.constraints[u] = cs
}

// Constraints returns the substitution constraints of u.
func (p *Position) Constraints(u htn.USig) []*lt.Constraint {
	return p.constraints[u]
}

// SetPre sets the preconditions of u which need encoding.
func (p *Position) SetPre(u htn.USig, pre []htn.Sig) {
	if len(pre) == 0 {
		delete(p.pre, u)
		return
	}
	p.pre[u] = pre
}

// Pre returns the preconditions of u which need encoding.
func (p *Position) Pre(u htn.USig) []htn.Sig {
	return p.pre[u]
}

// AddSupport records that candidate op may cause f.
func (p *Position) AddSupport(f htn.Sig, op htn.USig) {
	ops := p.support[f]
	if n := len(ops); n > 0 && ops[n-1] == op {
		return
	}
	p.support[f] = append(ops, op)
}

// AddIndirect records that candidate op causes f if t holds.
func (p *Position) AddIndirect(f htn.Sig, op htn.USig, t Term) {
	m := p.indirect[f]
	if m == nil {
		m = make(map[htn.USig][]Term)
		p.indirect[f] = m
	}
	m[op] = append(m[op], t)
}

// Support returns the candidates which may cause f directly.
func (p *Position) Support(f htn.Sig) []htn.USig {
	return p.support[f]
}

// Indirect returns the candidates which may cause f under a substitution,
// with the substitutions.
func (p *Position) Indirect(f htn.Sig) map[htn.USig][]Term {
	return p.indirect[f]
}

// MayChange reports whether some candidate of p may change f.
func (p *Position) MayChange(f htn.USig) bool {
	for _, s := range [2]htn.Sig{htn.Pos(f), htn.Neg(f)} {
		if len(p.support[s]) > 0 || len(p.indirect[s]) > 0 {
			return true
		}
	}
	return false
}

// ClearSupport drops all recorded support.
func (p *Position) ClearSupport() {
	p.support = make(map[htn.Sig][]htn.USig)
	p.indirect = make(map[htn.Sig]map[htn.USig][]Term)
}

// OpVar returns the variable of candidate u.
func (p *Position) OpVar(u htn.USig) (z.Lit, bool) {
	m, ok := p.opVars[u]
	return m, ok
}

// SetOpVar sets the variable of candidate u.
func (p *Position) SetOpVar(u htn.USig, m z.Lit) {
	p.opVars[u] = m
}

// FactVar returns the variable of ground fact f before p.
func (p *Position) FactVar(f htn.USig) (z.Lit, bool) {
	m, ok := p.factVars[f]
	return m, ok
}

// SetFactVar sets the variable of ground fact f.
func (p *Position) SetFactVar(f htn.USig, m z.Lit) {
	p.factVars[f] = m
}

// QFactVar returns the variable of q-fact f.
func (p *Position) QFactVar(f htn.USig) (z.Lit, bool) {
	m, ok := p.qfactVars[f]
	return m, ok
}

// SetQFactVar sets the variable of q-fact f.
func (p *Position) SetQFactVar(f htn.USig, m z.Lit) {
	p.qfactVars[f] = m
}

// FactVars returns the number of fact variables of p.
func (p *Position) FactVars() int {
	return len(p.factVars)
}

// ReleaseEncoded drops what is only needed to encode p itself.
func (p *Position) ReleaseEncoded() {
	p.types = nil
	p.constraints = nil
	p.pre = nil
	p.qfactVars = nil
}

// ReleaseLayer drops what only the next layer needs.  Candidates and their
// variables are kept for decoding.
func (p *Position) ReleaseLayer() {
	p.ReleaseEncoded()
	p.parents = nil
	p.children = nil
	p.forbidden = nil
	p.support = nil
	p.indirect = nil
	p.factVars = nil
	p.State = nil
}
