// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package encode

import (
	"github.com/go-air/gini/z"

	"github.com/domschrei/lilotane-sub000/htn"
	"github.com/domschrei/lilotane-sub000/layer"
	"github.com/domschrei/lilotane-sub000/plan"
)

// Assumptions returns the literals under which every position of ly is
// primitive.  It returns false if some position holds only reductions.
func (e *Encoder) Assumptions(ly *layer.Layer) ([]z.Lit, bool) {
	var ms []z.Lit
	for _, p := range ly.Positions() {
		switch {
		case p.Actions() == 0:
			return nil, false
		case p.Mixed():
			ms = append(ms, p.Prim)
		}
	}
	return ms, true
}

// CostLits returns the variables of the actions of ly, each repeated as
// often as the action costs.
func (e *Encoder) CostLits(ly *layer.Layer) []z.Lit {
	var ms []z.Lit
	for _, p := range ly.Positions() {
		for _, u := range p.Ops() {
			a, ok := p.Op(u).(*htn.Action)
			if !ok {
				continue
			}
			m, _ := p.OpVar(u)
			for i := 0; i < a.Cost; i++ {
				ms = append(ms, m)
			}
		}
	}
	return ms
}

type site struct{ l, q int }

type decoding struct {
	e      *Encoder
	layers []*layer.Layer
	ops    map[site]htn.USig
	ids    map[site]int
	final  map[int]int
	queue  []site
	next   int
	plan   *plan.Plan
}

// Decode reads the plan from the solver's model.  The last layer of layers
// must have been solved under its Assumptions.
func (e *Encoder) Decode(layers []*layer.Layer) (*plan.Plan, error) {
	d := &decoding{
		e:      e,
		layers: layers,
		ops:    make(map[site]htn.USig),
		ids:    make(map[site]int),
		final:  make(map[int]int),
		plan:   &plan.Plan{Depth: len(layers) - 1}}
	last := len(layers) - 1
	for q := 0; q < layers[last].Len(); q++ {
		u, err := d.op(last, q)
		if err != nil {
			return nil, err
		}
		a := e.in.Action(u.Name)
		if a == nil {
			return nil, &InvariantError{Layer: last, Pos: q, Msg: "reduction " + e.in.Format(u) + " in a primitive layer"}
		}
		if e.in.IsSynthetic(u.Name) {
			continue
		}
		d.final[q] = len(d.plan.Actions)
		d.plan.Actions = append(d.plan.Actions, plan.Step{
			ID:   len(d.plan.Actions),
			Name: e.in.Names.Name(e.in.Canonical(u.Name)),
			Args: d.names(u),
			Cost: a.Cost})
	}
	d.next = len(d.plan.Actions)
	net := e.in.Network
	d.plan.Root = make([]int, 0, len(net))
	for q, t := range net {
		id, err := d.task(0, q, t)
		if err != nil {
			return nil, err
		}
		d.plan.Root = append(d.plan.Root, id)
	}
	for len(d.queue) > 0 {
		s := d.queue[0]
		d.queue = d.queue[1:]
		if err := d.decompose(s); err != nil {
			return nil, err
		}
	}
	return d.plan, nil
}

func (d *decoding) names(u htn.USig) []string {
	args := u.Args()
	res := make([]string, len(args))
	for i, a := range args {
		res[i] = d.e.in.Names.Name(a)
	}
	return res
}

// op returns the operator chosen at (l, q) with its q-constants replaced
// by their values.
func (d *decoding) op(l, q int) (htn.USig, error) {
	s := site{l, q}
	if u, ok := d.ops[s]; ok {
		return u, nil
	}
	pos := d.layers[l].At(q)
	var chosen []htn.USig
	for _, u := range pos.Ops() {
		if m, _ := pos.OpVar(u); d.e.dst.Value(m) {
			chosen = append(chosen, u)
		}
	}
	if len(chosen) != 1 {
		return htn.USig{}, &InvariantError{Layer: l, Pos: q, Msg: "not exactly one operator chosen"}
	}
	u := chosen[0]
	sub := make(htn.Subst)
	for _, a := range u.Args() {
		if !d.e.in.Names.IsQConst(a) {
			continue
		}
		n := 0
		for v, m := range d.e.values(a) {
			if d.e.dst.Value(m) {
				sub[a] = v
				n++
			}
		}
		if n != 1 {
			return htn.USig{}, &InvariantError{Layer: l, Pos: q,
				Msg: "q-constant " + d.e.in.Names.Name(a) + " of " + d.e.in.Format(u) + " has no unique value"}
		}
	}
	u = u.Substitute(sub)
	d.ops[s] = u
	return u, nil
}

// task returns the id of the task t achieved at (l, q).
func (d *decoding) task(l, q int, t htn.USig) (int, error) {
	u, err := d.op(l, q)
	if err != nil {
		return 0, err
	}
	in := d.e.in
	if in.IsAction(u.Name) {
		if got := htn.NewUSig(in.Canonical(u.Name), u.Args()...); got != t {
			return 0, &InvariantError{Layer: l, Pos: q, Msg: "action " + in.Format(u) + " does not match task " + in.Format(t)}
		}
		for ll := l; ll < len(d.layers)-1; ll++ {
			q = d.layers[ll].Succ(q)
		}
		id, ok := d.final[q]
		if !ok {
			return 0, &InvariantError{Layer: l, Pos: q, Msg: "action " + in.Format(u) + " not in plan"}
		}
		if got := d.plan.Actions[id]; got.Name != in.Names.Name(t.Name) {
			return 0, &InvariantError{Layer: l, Pos: q, Msg: "action " + in.Format(u) + " replaced by " + got.Name}
		}
		return id, nil
	}
	r, ok := in.Op(u).(*htn.Reduction)
	if !ok || r.Task != t {
		return 0, &InvariantError{Layer: l, Pos: q, Msg: "reduction " + in.Format(u) + " does not match task " + in.Format(t)}
	}
	s := site{l, q}
	if id, ok := d.ids[s]; ok {
		return id, nil
	}
	id := d.next
	d.next++
	d.ids[s] = id
	d.queue = append(d.queue, s)
	return id, nil
}

func (d *decoding) decompose(s site) error {
	u := d.ops[s]
	in := d.e.in
	r := in.Op(u).(*htn.Reduction)
	dec := plan.Decomposition{
		ID:     d.ids[s],
		Task:   in.Names.Name(r.Task.Name),
		Args:   d.names(r.Task),
		Method: in.Names.Name(u.Name)}
	if len(r.Subtasks) > 0 && s.l+1 >= len(d.layers) {
		return &InvariantError{Layer: s.l, Pos: s.q, Msg: "reduction in the last layer"}
	}
	for k, t := range r.Subtasks {
		id, err := d.task(s.l+1, d.layers[s.l].Succ(s.q)+k, t)
		if err != nil {
			return err
		}
		dec.Subtasks = append(dec.Subtasks, id)
	}
	d.plan.Decompositions = append(d.plan.Decompositions, dec)
	return nil
}
