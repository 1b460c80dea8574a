// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package planner

import (
	"sort"

	"github.com/domschrei/lilotane-sub000/htn"
	"github.com/domschrei/lilotane-sub000/layer"
	"github.com/domschrei/lilotane-sub000/lt"
)

// prune drops the candidates of pos whose preconditions cannot hold and
// records the preconditions and substitution constraints of the others.
func (p *Planner) prune(pos *layer.Position) {
	for _, u := range append([]htn.USig(nil), pos.Ops()...) {
		if reason := p.preconditions(pos, u); reason != "" {
			pos.Remove(u)
			p.stats.Pruned.WithLabelValues(reason).Inc()
		}
	}
}

// preconditions classifies the preconditions of candidate u.  It returns
// the reason u can never apply, or "".
func (p *Planner) preconditions(pos *layer.Position, u htn.USig) string {
	op := pos.Op(u)
	var pre []htn.Sig
	var cs []*lt.Constraint
	for _, f := range op.Preconditions() {
		qs := p.dec.QConsts(f.USig)
		rigid := p.in.IsRigid(f.Name)
		if len(qs) == 0 {
			switch {
			case rigid:
				if p.in.RigidHolds(f.USig) == f.Neg {
					return "rigid"
				}
			case !pos.State.May(f.USig, f.Neg) || !p.an.IsReachable(f.USig, f.Neg):
				return "precondition"
			case pos.State.Known(f.USig, f.Neg) || p.an.IsInvariant(f.USig, f.Neg):
			default:
				pre = append(pre, f)
			}
			continue
		}
		c, ok := p.substitutions(pos.State, f, qs)
		if !ok {
			return "precondition"
		}
		if c != nil {
			cs = addConstraint(cs, c)
		}
		if !rigid {
			pre = append(pre, f)
		}
	}
	if _, ok := op.(*htn.Reduction); ok {
		// preconditions inferred from the subtasks only serve pruning
		for _, f := range p.an.FactFrame(u).Pre {
			if hasFree(p.in, f.USig) || p.in.IsRigid(f.Name) {
				continue
			}
			if !pos.State.May(f.USig, f.Neg) || !p.an.IsReachable(f.USig, f.Neg) {
				return "inferred"
			}
		}
	}
	if p.params.QConstMutex {
		mx, ok := p.mutexes(op)
		if !ok {
			return "mutex"
		}
		for _, c := range mx {
			cs = addConstraint(cs, c)
		}
	}
	pos.SetPre(u, pre)
	pos.SetConstraints(u, cs)
	return ""
}

// hasFree reports whether f mentions a variable or a q-constant.
func hasFree(in *htn.Instance, f htn.USig) bool {
	for _, a := range f.Args() {
		if in.Names.IsVar(a) || in.Names.IsQConst(a) {
			return true
		}
	}
	return false
}

// substitutions returns the constraint on the q-constants qs of
// precondition f: a substitution is valid if the fact it yields may have
// f's polarity.  It returns false if no substitution is valid and a nil
// constraint if all are.
func (p *Planner) substitutions(s *layer.State, f htn.Sig, qs []int32) (*lt.Constraint, bool) {
	ok := make(map[string]bool)
	for _, d := range p.dec.Decode(f.USig) {
		if p.valid(s, htn.Sig{USig: d.Fact, Neg: f.Neg}) {
			ok[pathKey(d.Term)] = true
		}
	}
	if len(ok) == 0 {
		return nil, false
	}
	var valid, invalid [][]int32
	p.product(qs, func(path []int32) {
		t := make(layer.Term, len(qs))
		for i, q := range qs {
			t[i] = layer.Assign{Q: q, V: path[i]}
		}
		cp := append([]int32(nil), path...)
		if ok[pathKey(t)] {
			valid = append(valid, cp)
		} else {
			invalid = append(invalid, cp)
		}
	})
	if len(invalid) == 0 {
		return nil, true
	}
	return lt.NewConstraint(qs, valid, invalid), true
}

func (p *Planner) valid(s *layer.State, f htn.Sig) bool {
	if p.in.IsRigid(f.Name) {
		return p.in.RigidHolds(f.USig) != f.Neg
	}
	return s.May(f.USig, f.Neg) && p.an.IsReachable(f.USig, f.Neg)
}

// product calls f with every combination of values of qs.
func (p *Planner) product(qs []int32, f func(path []int32)) {
	path := make([]int32, len(qs))
	var walk func(i int)
	walk = func(i int) {
		if i == len(qs) {
			f(path)
			return
		}
		for _, v := range p.in.Q.Domain(qs[i]) {
			path[i] = v
			walk(i + 1)
		}
	}
	walk(0)
}

func pathKey(t layer.Term) string {
	b := make([]byte, 0, 8*len(t))
	for _, a := range t {
		b = append(b, byte(a.Q), byte(a.Q>>8), byte(a.Q>>16), byte(a.Q>>24))
		b = append(b, byte(a.V), byte(a.V>>8), byte(a.V>>16), byte(a.V>>24))
	}
	return string(b)
}

// addConstraint merges c into a constraint over the same q-constants if
// there is one.
func addConstraint(cs []*lt.Constraint, c *lt.Constraint) []*lt.Constraint {
	for i, d := range cs {
		if !sameOrder(c.QConsts, d.QConsts) {
			continue
		}
		if m, ok := lt.Merge(d, c); ok {
			cs[i] = m
			return cs
		}
	}
	return append(cs, c)
}

func sameOrder(a, b []int32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// pairs holds the allowed value pairs of two q-constants.
type pairs map[[2]int32]bool

// mutexes composes the binary rigid preconditions of op through shared
// q-constants.  It returns the constraints derived this way, or false if
// some pair of q-constants has no consistent values.
func (p *Planner) mutexes(op htn.Operator) ([]*lt.Constraint, bool) {
	rel := make(map[[2]int32]pairs)
	for _, f := range op.Preconditions() {
		if !p.in.IsRigid(f.Name) {
			continue
		}
		qs := p.dec.QConsts(f.USig)
		if len(qs) != 2 {
			continue
		}
		key, swap := [2]int32{qs[0], qs[1]}, false
		if key[0] > key[1] {
			key, swap = [2]int32{key[1], key[0]}, true
		}
		allowed := make(pairs)
		for _, d := range p.dec.Decode(f.USig) {
			if p.in.RigidHolds(d.Fact) == f.Neg {
				continue
			}
			v := [2]int32{d.Term[0].V, d.Term[1].V}
			if swap {
				v = [2]int32{v[1], v[0]}
			}
			allowed[v] = true
		}
		if old, ok := rel[key]; ok {
			for v := range allowed {
				if !old[v] {
					delete(allowed, v)
				}
			}
		}
		rel[key] = allowed
	}
	if len(rel) < 2 {
		return nil, true
	}
	keys := make([][2]int32, 0, len(rel))
	for k := range rel {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return keys[i][0] < keys[j][0] || keys[i][0] == keys[j][0] && keys[i][1] < keys[j][1]
	})
	var res []*lt.Constraint
	for _, xy := range keys {
		for _, yz := range keys {
			if xy == yz {
				continue
			}
			r, s := rel[xy], rel[yz]
			x, y, z, ok := chain(xy, yz)
			if !ok {
				continue
			}
			allowed := compose(r, s, xy, yz, x, y)
			if len(allowed) == 0 {
				return nil, false
			}
			var valid, invalid [][]int32
			p.product([]int32{x, z}, func(path []int32) {
				if allowed[[2]int32{path[0], path[1]}] {
					valid = append(valid, []int32{path[0], path[1]})
				} else {
					invalid = append(invalid, []int32{path[0], path[1]})
				}
			})
			if len(invalid) > 0 {
				res = append(res, lt.NewConstraint([]int32{x, z}, valid, invalid))
			}
		}
	}
	return res, true
}

// chain finds x, y, z with xy relating x and y and yz relating y and z.
func chain(xy, yz [2]int32) (x, y, z int32, ok bool) {
	for _, a := range [2][2]int32{xy, {xy[1], xy[0]}} {
		for _, b := range [2][2]int32{yz, {yz[1], yz[0]}} {
			if a[1] == b[0] && a[0] != b[1] && a[0] < b[1] {
				return a[0], a[1], b[1], true
			}
		}
	}
	return 0, 0, 0, false
}

// compose returns the pairs (x, z) for which some y is allowed by both
// relations.
func compose(r, s pairs, rk, sk [2]int32, x, y int32) pairs {
	res := make(pairs)
	for v := range r {
		vx, vy := v[0], v[1]
		if rk[0] != x {
			vx, vy = vy, vx
		}
		for w := range s {
			wy, wz := w[0], w[1]
			if sk[0] != y {
				wy, wz = wz, wy
			}
			if vy == wy {
				res[[2]int32{vx, wz}] = true
			}
		}
	}
	return res
}
