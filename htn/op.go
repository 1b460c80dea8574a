// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package htn

// Operator is either an *Action or a *Reduction.  Callers distinguish them
// with a type switch.
type Operator interface {
	Signature() USig
	Preconditions() []Sig
	ParamSorts() []int32
	isOperator()
}

// Action is a primitive operator.  When lifted, the arguments of Sig are
// its parameter variables.
type Action struct {
	Sig   USig
	Sorts []int32
	Pre   []Sig
	Eff   []Sig
	Cost  int
}

func (a *Action) Signature() USig      { return a.Sig }
func (a *Action) Preconditions() []Sig { return a.Pre }
func (a *Action) ParamSorts() []int32  { return a.Sorts }
func (a *Action) isOperator()          {}

// Instantiate binds the parameters of the lifted action a to args.
func (a *Action) Instantiate(args []int32) *Action {
	s := NewSubst(a.Sig.Args(), args)
	return &Action{
		Sig:   a.Sig.WithArgs(args),
		Sorts: a.Sorts,
		Pre:   substSigs(a.Pre, s),
		Eff:   substSigs(a.Eff, s),
		Cost:  a.Cost}
}

// Reduction is a decomposition method applied to a task.  When lifted, the
// arguments of Sig are its parameter variables.
type Reduction struct {
	Sig      USig
	Sorts    []int32
	Task     USig
	Pre      []Sig
	Subtasks []USig
}

func (r *Reduction) Signature() USig      { return r.Sig }
func (r *Reduction) Preconditions() []Sig { return r.Pre }
func (r *Reduction) ParamSorts() []int32  { return r.Sorts }
func (r *Reduction) isOperator()          {}

// Instantiate binds the parameters of the lifted reduction r to args.
func (r *Reduction) Instantiate(args []int32) *Reduction {
	s := NewSubst(r.Sig.Args(), args)
	subs := make([]USig, len(r.Subtasks))
	for i, t := range r.Subtasks {
		subs[i] = t.Substitute(s)
	}
	return &Reduction{
		Sig:      r.Sig.WithArgs(args),
		Sorts:    r.Sorts,
		Task:     r.Task.Substitute(s),
		Pre:      substSigs(r.Pre, s),
		Subtasks: subs}
}

func substSigs(ss []Sig, s Subst) []Sig {
	res := make([]Sig, len(ss))
	for i, x := range ss {
		res[i] = x.Substitute(s)
	}
	return res
}
