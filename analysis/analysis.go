// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

// Package analysis computes fact frames, over-approximations of the
// preconditions and effects of lifted operators, and tracks which facts are
// reachable as the planner grounds the problem.
package analysis

import (
	"log/slog"
	"sort"

	"github.com/domschrei/lilotane-sub000/htn"
)

// Frame is the fact frame of an operator.  Effect arguments are the
// operator's own parameters, constants or htn.Wildcard.
type Frame struct {
	Sig htn.USig
	Pre []htn.Sig
	Eff []htn.Sig
}

// Analysis holds the fact frames of every lifted operator of an instance
// and the reachable facts seen so far.
type Analysis struct {
	in     *htn.Instance
	log    *slog.Logger
	frames map[int32]*Frame
	adj    map[int32][]int32
	order  []int32
	iters  int
	hook   func(iter int, sizes map[int32]int)

	pos, neg map[htn.USig]struct{}
	byPred   map[int32][]htn.USig
	changes  map[htn.USig][]htn.Sig
}

// Option configures an Analysis.
type Option func(*Analysis)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *Analysis) { a.log = l }
}

// WithIterationHook calls f after every fixpoint iteration with the size of
// each method's effect set.
func WithIterationHook(f func(iter int, sizes map[int32]int)) Option {
	return func(a *Analysis) { a.hook = f }
}

// New computes the fact frames of in.
func New(in *htn.Instance, opts ...Option) *Analysis {
	a := &Analysis{
		in:      in,
		log:     slog.New(slog.DiscardHandler),
		frames:  make(map[int32]*Frame),
		adj:     make(map[int32][]int32),
		pos:     make(map[htn.USig]struct{}),
		neg:     make(map[htn.USig]struct{}),
		byPred:  make(map[int32][]htn.USig),
		changes: make(map[htn.USig][]htn.Sig)}
	for _, o := range opts {
		o(a)
	}
	for f := range in.Init {
		a.byPred[f.Name] = append(a.byPred[f.Name], f)
	}
	for _, fs := range a.byPred {
		htn.SortUSigs(fs)
	}
	a.buildGraph()
	a.fixpoint()
	a.inferPreconditions()
	a.log.Debug("fact analysis done", "operators", len(a.frames), "iterations", a.iters)
	return a
}

func (a *Analysis) nodes() []int32 {
	var ns []int32
	ns = append(ns, a.in.Actions()...)
	for _, id := range a.in.Actions() {
		if v, ok := a.in.Virtual(id); ok {
			ns = append(ns, v)
		}
	}
	ns = append(ns, a.in.Blank.Sig.Name, a.in.Goal.Sig.Name)
	return append(ns, a.in.Methods()...)
}

// candidates returns the operators that may be chosen for subtask t.
func (a *Analysis) candidates(t htn.USig) []int32 {
	if a.in.IsAction(t.Name) {
		return []int32{t.Name}
	}
	return a.in.MethodsOf(t.Name)
}

func (a *Analysis) buildGraph() {
	for _, id := range a.nodes() {
		switch op := a.in.Lifted(id).(type) {
		case *htn.Action:
			a.frames[id] = &Frame{Sig: op.Sig, Pre: op.Pre, Eff: dedup(op.Eff)}
			if v, ok := a.in.Virtual(id); ok {
				a.adj[id] = []int32{v}
			}
		case *htn.Reduction:
			a.frames[id] = &Frame{Sig: op.Sig, Pre: append([]htn.Sig(nil), op.Pre...)}
			for _, t := range op.Subtasks {
				a.adj[id] = append(a.adj[id], a.candidates(t)...)
			}
		}
	}
	a.order = Order(a.nodes(), a.adj)
}

// bind unifies the head of lifted child c with subtask t of a parent.  It
// returns a substitution mapping every parameter of c either into t's
// arguments or to the wildcard, and false if c cannot match t.
func (a *Analysis) bind(c htn.Operator, t htn.USig) (htn.Subst, bool) {
	params := c.Signature().Args()
	s := make(htn.Subst, len(params))
	for _, p := range params {
		s[p] = htn.Wildcard
	}
	var head htn.USig
	switch op := c.(type) {
	case *htn.Action:
		head = op.Sig
	case *htn.Reduction:
		head = op.Task
	}
	for i, n := 0, head.Arity(); i < n; i++ {
		h, v := head.Arg(i), t.Arg(i)
		if cur, isParam := s[h]; isParam {
			if cur == htn.Wildcard {
				s[h] = v
			}
			continue
		}
		if a.in.Names.Kind(v) == htn.KConst && v != h {
			return nil, false
		}
	}
	return s, true
}

// lift substitutes s into ss and replaces any variable that is not a
// parameter of the parent by the wildcard.
func (a *Analysis) lift(ss []htn.Sig, s htn.Subst, own map[int32]bool) []htn.Sig {
	res := make([]htn.Sig, 0, len(ss))
	for _, x := range ss {
		x = x.Substitute(s)
		args := x.Args()
		changed := false
		for i, v := range args {
			if v != htn.Wildcard && a.in.Names.IsVar(v) && !own[v] {
				args[i] = htn.Wildcard
				changed = true
			}
		}
		if changed {
			x = htn.Sig{USig: x.WithArgs(args), Neg: x.Neg}
		}
		res = append(res, x)
	}
	return res
}

func ownParams(op htn.Operator) map[int32]bool {
	own := map[int32]bool{}
	for _, p := range op.Signature().Args() {
		own[p] = true
	}
	return own
}

// subtaskEffects returns the possible effects of subtask t of m.
func (a *Analysis) subtaskEffects(m *htn.Reduction, t htn.USig, own map[int32]bool) []htn.Sig {
	var res []htn.Sig
	for _, c := range a.candidates(t) {
		s, ok := a.bind(a.in.Lifted(c), t)
		if !ok {
			continue
		}
		res = append(res, a.lift(a.frames[c].Eff, s, own)...)
	}
	return res
}

func (a *Analysis) fixpoint() {
	sets := make(map[int32]map[htn.Sig]struct{})
	for changed := true; changed; {
		changed = false
		a.iters++
		for i := len(a.order) - 1; i >= 0; i-- {
			id := a.order[i]
			m := a.in.Method(id)
			if m == nil {
				continue
			}
			set := sets[id]
			if set == nil {
				set = make(map[htn.Sig]struct{})
				sets[id] = set
			}
			own := ownParams(m)
			grown := false
			for _, t := range m.Subtasks {
				for _, e := range a.subtaskEffects(m, t, own) {
					if _, ok := set[e]; !ok {
						set[e] = struct{}{}
						grown = true
					}
				}
			}
			if grown {
				a.frames[id].Eff = sortedSigs(set)
				changed = true
			}
		}
		if a.hook != nil {
			sizes := make(map[int32]int, len(sets))
			for id, set := range sets {
				sizes[id] = len(set)
			}
			a.hook(a.iters, sizes)
		}
	}
}

// unifiable reports whether x and y may denote the same fact: they differ
// at no argument where both are constants.
func (a *Analysis) unifiable(x, y htn.USig) bool {
	if x.Name != y.Name || x.Arity() != y.Arity() {
		return false
	}
	for i, n := 0, x.Arity(); i < n; i++ {
		u, v := x.Arg(i), y.Arg(i)
		if u != v && a.in.Names.Kind(u) == htn.KConst && a.in.Names.Kind(v) == htn.KConst {
			return false
		}
	}
	return true
}

func hasWildcard(u htn.USig) bool {
	return u.Has(htn.Wildcard)
}

// inferPreconditions adds to each method the preconditions every
// decomposition of it must satisfy at its start.
func (a *Analysis) inferPreconditions() {
	for i := len(a.order) - 1; i >= 0; i-- {
		m := a.in.Method(a.order[i])
		if m == nil {
			continue
		}
		f := a.frames[m.Sig.Name]
		own := ownParams(m)
		have := make(map[htn.Sig]bool, len(f.Pre))
		for _, p := range f.Pre {
			have[p] = true
		}
		var earlier []htn.Sig
		for _, t := range m.Subtasks {
			var common map[htn.Sig]bool
			for _, c := range a.candidates(t) {
				s, ok := a.bind(a.in.Lifted(c), t)
				if !ok {
					continue
				}
				cur := make(map[htn.Sig]bool)
				for _, p := range a.lift(a.frames[c].Pre, s, own) {
					if hasWildcard(p.USig) || a.touched(p.USig, earlier) {
						continue
					}
					if common == nil || common[p] {
						cur[p] = true
					}
				}
				common = cur
			}
			for _, p := range sortedSigSet(common) {
				if !have[p] {
					have[p] = true
					f.Pre = append(f.Pre, p)
				}
			}
			earlier = append(earlier, a.subtaskEffects(m, t, own)...)
		}
	}
}

func (a *Analysis) touched(p htn.USig, effs []htn.Sig) bool {
	for _, e := range effs {
		if a.unifiable(p, e.USig) {
			return true
		}
	}
	return false
}

func dedup(ss []htn.Sig) []htn.Sig {
	set := make(map[htn.Sig]struct{}, len(ss))
	for _, s := range ss {
		set[s] = struct{}{}
	}
	return sortedSigs(set)
}

func sortedSigs(set map[htn.Sig]struct{}) []htn.Sig {
	res := make([]htn.Sig, 0, len(set))
	for s := range set {
		res = append(res, s)
	}
	sortSigs(res)
	return res
}

func sortedSigSet(set map[htn.Sig]bool) []htn.Sig {
	res := make([]htn.Sig, 0, len(set))
	for s := range set {
		res = append(res, s)
	}
	sortSigs(res)
	return res
}

func sortSigs(ss []htn.Sig) {
	sort.Slice(ss, func(i, j int) bool {
		if ss[i].USig != ss[j].USig {
			return ss[i].USig.Less(ss[j].USig)
		}
		return !ss[i].Neg && ss[j].Neg
	})
}

// Iterations returns the number of fixpoint iterations.
func (a *Analysis) Iterations() int {
	return a.iters
}

// TopoOrder returns the topological order of the operator graph.
func (a *Analysis) TopoOrder() []int32 {
	return a.order
}

// LiftedFrame returns the frame of the lifted operator named id.
func (a *Analysis) LiftedFrame(id int32) *Frame {
	return a.frames[id]
}

// FactFrame returns the frame of the operator u, whose arguments are
// constants, q-constants or variables.
func (a *Analysis) FactFrame(u htn.USig) Frame {
	f := a.frames[u.Name]
	if f == nil {
		return Frame{Sig: u}
	}
	s := htn.NewSubst(f.Sig.Args(), u.Args())
	return Frame{Sig: u, Pre: substAll(f.Pre, s), Eff: substAll(f.Eff, s)}
}

func substAll(ss []htn.Sig, s htn.Subst) []htn.Sig {
	res := make([]htn.Sig, len(ss))
	for i, x := range ss {
		res[i] = x.Substitute(s)
	}
	return res
}

// PossibleFactChanges returns every effect operator u may have, with each
// wildcard argument ground over the sort of its predicate slot.  Arguments
// of u that are q-constants are kept.
func (a *Analysis) PossibleFactChanges(u htn.USig) []htn.Sig {
	if res, ok := a.changes[u]; ok {
		return res
	}
	set := make(map[htn.Sig]struct{})
	for _, e := range a.FactFrame(u).Eff {
		if !hasWildcard(e.USig) {
			set[e] = struct{}{}
			continue
		}
		sorts := a.in.PredSorts(e.Name)
		args := e.Args()
		var expand func(i int)
		expand = func(i int) {
			if i == len(args) {
				set[htn.Sig{USig: e.WithArgs(args), Neg: e.Neg}] = struct{}{}
				return
			}
			if e.Arg(i) != htn.Wildcard {
				expand(i + 1)
				return
			}
			for _, c := range a.in.Constants(sorts[i]) {
				args[i] = c
				expand(i + 1)
			}
			args[i] = htn.Wildcard
		}
		expand(0)
	}
	res := sortedSigs(set)
	a.changes[u] = res
	return res
}

// ForgetChanges drops cached fact changes.
func (a *Analysis) ForgetChanges() {
	a.changes = make(map[htn.USig][]htn.Sig)
}
