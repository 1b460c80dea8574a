// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package analysis

import (
	"sort"

	"github.com/domschrei/lilotane-sub000/htn"
)

// IsReachable reports whether the ground fact f may hold (neg false) or may
// not hold (neg true) at some position grounded so far.
func (a *Analysis) IsReachable(f htn.USig, neg bool) bool {
	if a.in.IsRigid(f.Name) {
		return a.in.RigidHolds(f) != neg
	}
	_, init := a.in.Init[f]
	if neg {
		if !init {
			return true
		}
		_, ok := a.neg[f]
		return ok
	}
	if init {
		return true
	}
	_, ok := a.pos[f]
	return ok
}

// IsInvariant reports whether the literal f, neg can never be falsified.
func (a *Analysis) IsInvariant(f htn.USig, neg bool) bool {
	return !a.IsReachable(f, !neg)
}

// AddReachable records that f may hold (neg false) or may not hold.  The
// reachable sets only grow.
func (a *Analysis) AddReachable(f htn.USig, neg bool) {
	if neg {
		a.neg[f] = struct{}{}
		return
	}
	if _, ok := a.pos[f]; ok {
		return
	}
	if _, ok := a.in.Init[f]; ok {
		return
	}
	a.pos[f] = struct{}{}
	a.byPred[f.Name] = append(a.byPred[f.Name], f)
}

// ReachableCount returns the number of facts recorded reachable beyond the
// initial state.
func (a *Analysis) ReachableCount() (pos, neg int) {
	return len(a.pos), len(a.neg)
}

// ReducedArgumentDomains returns, for each argument of op, the constants it
// may take.  Constants stay fixed, q-constants range over their domain and
// variables over their sort, narrowed by the positive preconditions of op
// and inferred preconditions of op against the reachable facts.  ok is false if some argument has no
// possible value or some ground precondition is unreachable.
func (a *Analysis) ReducedArgumentDomains(op htn.Operator) (doms [][]int32, ok bool) {
	sig := op.Signature()
	sorts := op.ParamSorts()
	n := sig.Arity()
	doms = make([][]int32, n)
	slot := make(map[int32]int, n)
	for i := 0; i < n; i++ {
		v := sig.Arg(i)
		switch a.in.Names.Kind(v) {
		case htn.KConst:
			doms[i] = []int32{v}
		case htn.KQConst:
			doms[i] = a.in.Q.Domain(v)
		default:
			doms[i] = a.in.Constants(sorts[i])
			slot[v] = i
		}
		if len(doms[i]) == 0 {
			return nil, false
		}
	}
	for _, p := range a.FactFrame(sig).Pre {
		free := false
		for _, v := range p.Args() {
			if _, isFree := slot[v]; isFree || a.in.Names.IsQConst(v) {
				free = true
			}
		}
		if !free {
			if !a.IsReachable(p.USig, p.Neg) {
				return nil, false
			}
			continue
		}
		if p.Neg {
			continue
		}
		if p.Name == a.in.Eq {
			if !a.narrowEq(p.USig, slot, doms) {
				return nil, false
			}
			continue
		}
		if !a.narrow(p.USig, slot, doms) {
			return nil, false
		}
	}
	return doms, true
}

func member(dom []int32, c int32) bool {
	i := sort.Search(len(dom), func(i int) bool { return dom[i] >= c })
	return i < len(dom) && dom[i] == c
}

// domOf returns the constants argument v of a precondition may take.
func (a *Analysis) domOf(v int32, slot map[int32]int, doms [][]int32) []int32 {
	if i, ok := slot[v]; ok {
		return doms[i]
	}
	if a.in.Names.IsQConst(v) {
		return a.in.Q.Domain(v)
	}
	return []int32{v}
}

// narrow restricts the free variables of the positive precondition p to
// values supported by some reachable fact.
func (a *Analysis) narrow(p htn.USig, slot map[int32]int, doms [][]int32) bool {
	n := p.Arity()
	support := make(map[int32]map[int32]bool)
	for i := 0; i < n; i++ {
		if _, ok := slot[p.Arg(i)]; ok {
			support[p.Arg(i)] = make(map[int32]bool)
		}
	}
	if len(support) == 0 {
		return true
	}
	for _, f := range a.byPred[p.Name] {
		match := true
		bind := make(map[int32]int32, len(support))
		for i := 0; i < n && match; i++ {
			v, c := p.Arg(i), f.Arg(i)
			if prev, ok := bind[v]; ok && prev != c {
				match = false
				break
			}
			if !member(a.domOf(v, slot, doms), c) {
				match = false
				break
			}
			bind[v] = c
		}
		if !match {
			continue
		}
		for v := range support {
			support[v][bind[v]] = true
		}
	}
	for v, vals := range support {
		i := slot[v]
		var dom []int32
		for _, c := range doms[i] {
			if vals[c] {
				dom = append(dom, c)
			}
		}
		if len(dom) == 0 {
			return false
		}
		doms[i] = dom
	}
	return true
}

// narrowEq restricts free variables equated with a constant.
func (a *Analysis) narrowEq(p htn.USig, slot map[int32]int, doms [][]int32) bool {
	x, y := p.Arg(0), p.Arg(1)
	for _, pair := range [2][2]int32{{x, y}, {y, x}} {
		i, free := slot[pair[0]]
		if !free {
			continue
		}
		other := a.domOf(pair[1], slot, doms)
		var dom []int32
		for _, c := range doms[i] {
			if member(other, c) {
				dom = append(dom, c)
			}
		}
		if len(dom) == 0 {
			return false
		}
		doms[i] = dom
	}
	return true
}
