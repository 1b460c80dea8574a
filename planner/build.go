// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package planner

import (
	"context"
	"fmt"
	"sort"

	"github.com/domschrei/lilotane-sub000/htn"
	"github.com/domschrei/lilotane-sub000/layer"
)

// candidate is one operator which may realize a task, with the condition
// under which it does.
type candidate struct {
	op    htn.Operator
	alt   layer.Restriction
	types []layer.TypeConstraint
}

// buildLayer0 creates one position per initial task plus the goal.
func (p *Planner) buildLayer0(ctx context.Context) error {
	ly := layer.New(0)
	p.layers = append(p.layers, ly)
	for i, t := range p.in.Network {
		pos := layer.NewPosition(0, i, -1, 0)
		ly.Append(pos)
		if err := p.propagateLeft(pos); err != nil {
			return err
		}
		for _, c := range p.candidates(0, i, t) {
			p.add(pos, c)
		}
		if err := p.finish(ctx, pos); err != nil {
			return err
		}
	}
	pos := layer.NewPosition(0, len(p.in.Network), -1, 0)
	ly.Append(pos)
	if err := p.propagateLeft(pos); err != nil {
		return err
	}
	pos.Add(p.in.Goal)
	return p.finish(ctx, pos)
}

// expand creates the next layer from the last one.
func (p *Planner) expand(ctx context.Context) error {
	prev := p.layers[len(p.layers)-1]
	sizes := make([]int, prev.Len())
	for i, pos := range prev.Positions() {
		sizes[i] = 1
		for _, u := range pos.Ops() {
			if r, ok := pos.Op(u).(*htn.Reduction); ok && len(r.Subtasks) > sizes[i] {
				sizes[i] = len(r.Subtasks)
			}
		}
	}
	prev.SetExpansion(sizes)
	l := prev.Index + 1
	ly := layer.New(l)
	p.layers = append(p.layers, ly)
	for a, above := range prev.Positions() {
		for k := 0; k < sizes[a]; k++ {
			pos := layer.NewPosition(l, ly.Len(), a, k)
			ly.Append(pos)
			if err := p.propagateLeft(pos); err != nil {
				return err
			}
			p.propagateAbove(pos, above)
			if err := p.finish(ctx, pos); err != nil {
				return err
			}
		}
	}
	return nil
}

// finish prunes the candidates of a freshly populated position.
func (p *Planner) finish(ctx context.Context, pos *layer.Position) error {
	if p.params.Dominate {
		p.dominate(pos)
	}
	p.prune(pos)
	if pos.Len() == 0 {
		return p.empty(pos)
	}
	p.progress.Do(func() {
		p.log.Info("building", "layer", pos.Layer, "pos", pos.Index, "operators", pos.Len(), "qconsts", p.in.Q.Len())
	})
	return p.checkpoint(ctx, pos.Layer, pos.Index)
}

// empty reports a position left without candidates.  Every deeper layer
// refines it, so the search stops here instead of at the depth bound.
func (p *Planner) empty(pos *layer.Position) error {
	return fmt.Errorf("%w: no operator fits layer %d position %d, detected at layer %d before reaching the depth bound",
		ErrUnsolvable, pos.Layer, pos.Index, p.Depth())
}

func (p *Planner) add(pos *layer.Position, c candidate) htn.USig {
	u := c.op.Signature()
	if !pos.Has(u) {
		pos.Add(c.op)
		for _, tc := range c.types {
			pos.AddType(u, tc)
		}
	}
	return u
}

// propagateLeft carries the facts known after the left neighbor of pos
// over to pos and records which facts the neighbor may change.
func (p *Planner) propagateLeft(pos *layer.Position) error {
	ly := p.layers[pos.Layer]
	if pos.Index == 0 {
		pos.State = layer.NewState(p.in.Init)
		return nil
	}
	left := ly.At(pos.Index - 1)
	for _, u := range append([]htn.USig(nil), left.Ops()...) {
		a, ok := left.Op(u).(*htn.Action)
		if !ok || p.effectsDecodable(a) {
			continue
		}
		left.Remove(u)
		p.stats.Pruned.WithLabelValues("effect").Inc()
	}
	if left.Len() == 0 {
		return p.empty(left)
	}
	var changes []htn.Sig
	exact := left.Len() == 1
	for _, u := range left.Ops() {
		if _, ok := left.Op(u).(*htn.Action); !ok {
			exact = false
		}
		for _, c := range p.an.PossibleFactChanges(u) {
			if len(p.dec.QConsts(c.USig)) == 0 {
				left.AddSupport(c, u)
				p.an.AddReachable(c.USig, c.Neg)
				changes = append(changes, c)
				continue
			}
			exact = false
			for _, d := range p.dec.Decode(c.USig) {
				left.AddIndirect(htn.Sig{USig: d.Fact, Neg: c.Neg}, u, d.Term)
				p.an.AddReachable(d.Fact, c.Neg)
				changes = append(changes, htn.Sig{USig: d.Fact, Neg: c.Neg})
			}
		}
	}
	if pos.Offset == 0 && pos.Layer > 0 {
		pos.State = p.layers[pos.Layer-1].At(pos.Above).State
		return nil
	}
	pos.State = left.State.Apply(changes, exact)
	return nil
}

// effectsDecodable reports whether every q-fact effect of a stands for
// some fact.
func (p *Planner) effectsDecodable(a *htn.Action) bool {
	for _, f := range a.Eff {
		if len(p.dec.QConsts(f.USig)) > 0 && len(p.dec.Decode(f.USig)) == 0 {
			return false
		}
	}
	return true
}

// propagateAbove adds the children of the operators above pos.
func (p *Planner) propagateAbove(pos, above *layer.Position) {
	k := pos.Offset
	for _, u := range above.Ops() {
		switch op := above.Op(u).(type) {
		case *htn.Action:
			child := p.in.Blank.Sig
			if k == 0 {
				child = u
				if p.params.Virtualize && !p.in.IsSynthetic(u.Name) {
					if v, ok := p.in.Virtual(u.Name); ok {
						child = htn.NewUSig(v, u.Args()...)
					}
				}
			}
			if child == p.in.Blank.Sig {
				pos.Add(p.in.Blank)
			} else {
				pos.Add(p.in.Op(child))
			}
			pos.Link(u, child, nil)
		case *htn.Reduction:
			if k >= len(op.Subtasks) {
				pos.Add(p.in.Blank)
				pos.Link(u, p.in.Blank.Sig, nil)
				continue
			}
			if k == 0 && !p.holds(pos.State, op.Pre) {
				pos.Forbid(u)
				continue
			}
			cs := p.candidates(pos.Layer, pos.Index, op.Subtasks[k])
			if len(cs) == 0 {
				pos.Forbid(u)
				continue
			}
			for _, c := range cs {
				pos.Link(u, p.add(pos, c), c.alt)
			}
		}
	}
}

// holds reports whether no ground precondition of pre is known false.
func (p *Planner) holds(s *layer.State, pre []htn.Sig) bool {
	for _, f := range pre {
		if len(p.dec.QConsts(f.USig)) > 0 || p.in.IsRigid(f.Name) {
			continue
		}
		if !s.May(f.USig, f.Neg) {
			return false
		}
	}
	return true
}

// candidates returns the operators which may realize task t at (l, q).
func (p *Planner) candidates(l, q int, t htn.USig) []candidate {
	if p.in.IsAction(t.Name) {
		a := p.in.Action(t.Name)
		types, ok := p.typeCheck(t.Args(), a.Sorts)
		if !ok {
			return nil
		}
		op := p.in.Op(t)
		if _, ok := p.an.ReducedArgumentDomains(op); !ok {
			p.stats.Pruned.WithLabelValues("unreachable").Inc()
			return nil
		}
		return []candidate{{op: op, types: types}}
	}
	var res []candidate
	for _, mid := range p.in.MethodsOf(t.Name) {
		if c, ok := p.reduction(l, q, p.in.Method(mid), t); ok {
			res = append(res, c)
		}
	}
	return res
}

// reduction binds method m to task t, introducing q-constants for the
// parameters t leaves open.
func (p *Planner) reduction(l, q int, m *htn.Reduction, t htn.USig) (candidate, bool) {
	args, alt, ok := p.unify(m, t)
	if !ok {
		return candidate{}, false
	}
	partial := m.Instantiate(args)
	doms, ok := p.an.ReducedArgumentDomains(partial)
	if !ok {
		p.stats.Pruned.WithLabelValues("unreachable").Inc()
		return candidate{}, false
	}
	for i, a := range args {
		if !p.in.Names.IsVar(a) {
			continue
		}
		if len(doms[i]) == 1 {
			args[i] = doms[i][0]
			continue
		}
		args[i] = p.in.Q.Get(l, q, partial.Sig, i, m.Sorts[i], doms[i])
	}
	types, ok := p.typeCheck(args, m.Sorts)
	if !ok {
		return candidate{}, false
	}
	return candidate{op: p.in.Op(m.Sig.WithArgs(args)), alt: alt, types: types}, true
}

// unify binds the parameters of m occurring in its task to the arguments
// of t.  Bindings which only hold for some values of q-constants yield
// conditions.
func (p *Planner) unify(m *htn.Reduction, t htn.USig) ([]int32, layer.Restriction, bool) {
	head := m.Task
	if head.Arity() != t.Arity() {
		return nil, nil, false
	}
	bind := make(map[int32]int32, head.Arity())
	var alt layer.Restriction
	for i := 0; i < head.Arity(); i++ {
		h, v := head.Arg(i), t.Arg(i)
		if p.in.Names.IsVar(h) {
			b, ok := bind[h]
			if !ok {
				bind[h] = v
				continue
			}
			h = b
		}
		c, ok := p.equal(h, v)
		if !ok {
			return nil, nil, false
		}
		if c != nil {
			alt = append(alt, c)
		}
	}
	args := m.Sig.Args()
	for i, a := range args {
		if b, ok := bind[a]; ok {
			args[i] = b
		}
	}
	return args, alt, true
}

// equal returns the condition under which x and y denote the same
// constant.  A nil condition means always.
func (p *Planner) equal(x, y int32) (layer.Condition, bool) {
	if x == y {
		return nil, true
	}
	qx, qy := p.in.Names.IsQConst(x), p.in.Names.IsQConst(y)
	switch {
	case !qx && !qy:
		return nil, false
	case qx && qy:
		var c layer.Condition
		for _, v := range intersect(p.in.Q.Domain(x), p.in.Q.Domain(y)) {
			c = append(c, layer.Term{{Q: x, V: v}, {Q: y, V: v}})
		}
		return c, len(c) > 0
	case qy:
		x, y = y, x
	}
	if !contains(p.in.Q.Domain(x), y) {
		return nil, false
	}
	return layer.Condition{{{Q: x, V: y}}}, true
}

// typeCheck checks args against sorts.  Q-constants whose domain exceeds
// their slot's sort get a type constraint.
func (p *Planner) typeCheck(args, sorts []int32) ([]layer.TypeConstraint, bool) {
	var res []layer.TypeConstraint
	for i, a := range args {
		if i >= len(sorts) {
			break
		}
		if !p.in.Names.IsQConst(a) {
			if !p.in.InSort(a, sorts[i]) {
				return nil, false
			}
			continue
		}
		dom := p.in.Q.Domain(a)
		var good []int32
		for _, c := range dom {
			if p.in.InSort(c, sorts[i]) {
				good = append(good, c)
			}
		}
		if len(good) == 0 {
			return nil, false
		}
		if len(good) < len(dom) {
			res = append(res, layer.TypeConstraint{Q: a, Good: good})
		}
	}
	return res, true
}

func contains(dom []int32, c int32) bool {
	i := sort.Search(len(dom), func(i int) bool { return dom[i] >= c })
	return i < len(dom) && dom[i] == c
}

func intersect(a, b []int32) []int32 {
	var res []int32
	for i, j := 0, 0; i < len(a) && j < len(b); {
		switch {
		case a[i] < b[j]:
			i++
		case a[i] > b[j]:
			j++
		default:
			res = append(res, a[i])
			i++
			j++
		}
	}
	return res
}
