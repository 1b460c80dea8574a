// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package planner

import (
	"github.com/domschrei/lilotane-sub000/htn"
	"github.com/domschrei/lilotane-sub000/layer"
)

// dominate removes every candidate of pos which another candidate of the
// same name can stand in for.  O dominates O' if each argument of O equals
// that of O' or is a q-constant created at pos covering all values the
// argument of O' may take, bound consistently across repeated arguments.
// Mutual domination is broken by signature order.  The parents of
// a dominated candidate are redirected to a maximal dominator, conditioned
// on the dominator taking the dominated values.
func (p *Planner) dominate(pos *layer.Position) {
	groups := make(map[int32][]htn.USig)
	for _, u := range pos.Ops() {
		groups[u.Name] = append(groups[u.Name], u)
	}
	for _, ops := range groups {
		if len(ops) < 2 || !p.anyQConst(ops) {
			continue
		}
		for _, v := range ops {
			if !pos.Has(v) {
				continue
			}
			var top htn.USig
			found := false
			for _, u := range ops {
				if pos.Has(u) && p.dominates(pos, u, v) {
					top, found = u, true
					break
				}
			}
			if !found {
				continue
			}
			for climbed := true; climbed; {
				climbed = false
				for _, u := range ops {
					if pos.Has(u) && p.dominates(pos, u, top) {
						top, climbed = u, true
						break
					}
				}
			}
			pos.Redirect(v, top, p.coverage(pos, top, v))
			p.stats.Dominated.Inc()
		}
	}
}

func (p *Planner) anyQConst(us []htn.USig) bool {
	for _, u := range us {
		for _, a := range u.Args() {
			if p.in.Names.IsQConst(a) {
				return true
			}
		}
	}
	return false
}

func (p *Planner) dominates(pos *layer.Position, u, v htn.USig) bool {
	if u == v || !p.covers(pos, u, v) {
		return false
	}
	if p.covers(pos, v, u) {
		return u.Less(v)
	}
	return true
}

// covers reports whether u can take every value v can.  The arguments of
// u are bound to those of v: a q-constant of u bound to two different
// arguments of v cannot follow both, and neither can a q-constant of v
// bound to two different arguments of u.  Every argument where u and v
// differ must be a q-constant created at pos on both sides, or a constant
// on v's side.
func (p *Planner) covers(pos *layer.Position, u, v htn.USig) bool {
	if u.Name != v.Name || u.Arity() != v.Arity() {
		return false
	}
	bind := make(map[int32]int32, u.Arity())
	back := make(map[int32]int32, u.Arity())
	for i := 0; i < u.Arity(); i++ {
		a, b := u.Arg(i), v.Arg(i)
		qa, qb := p.in.Names.IsQConst(a), p.in.Names.IsQConst(b)
		if qa {
			if prev, ok := bind[a]; ok && prev != b {
				return false
			}
			bind[a] = b
		}
		if qb {
			if prev, ok := back[b]; ok && prev != a {
				return false
			}
			back[b] = a
		}
		if a == b {
			continue
		}
		if !qa || !p.fresh(pos, a) {
			return false
		}
		if qb && !p.fresh(pos, b) {
			return false
		}
		have := p.values(pos, u, a)
		for _, c := range p.values(pos, v, b) {
			if !contains(have, c) {
				return false
			}
		}
	}
	return true
}

// fresh reports whether q-constant q was created at pos.
func (p *Planner) fresh(pos *layer.Position, q int32) bool {
	c := p.in.Q.Lookup(q)
	return c != nil && c.Layer == pos.Layer && c.Pos == pos.Index
}

// values returns the constants argument a of candidate u may take at pos.
func (p *Planner) values(pos *layer.Position, u htn.USig, a int32) []int32 {
	for _, tc := range pos.Types(u) {
		if tc.Q == a {
			return tc.Good
		}
	}
	if p.in.Names.IsQConst(a) {
		return p.in.Q.Domain(a)
	}
	return []int32{a}
}

// coverage is the restriction under which u behaves like v: each
// q-constant of u bound to a differing argument of v takes one of the
// values of that argument.  covers(pos, u, v) must hold.
func (p *Planner) coverage(pos *layer.Position, u, v htn.USig) layer.Restriction {
	var r layer.Restriction
	seen := make(map[int32]bool, u.Arity())
	for i := 0; i < u.Arity(); i++ {
		a, b := u.Arg(i), v.Arg(i)
		if a == b || seen[a] {
			continue
		}
		seen[a] = true
		vals := p.values(pos, v, b)
		if len(vals) == len(p.values(pos, u, a)) {
			continue
		}
		c := make(layer.Condition, len(vals))
		for j, x := range vals {
			c[j] = layer.Term{{Q: a, V: x}}
		}
		r = append(r, c)
	}
	return r
}
