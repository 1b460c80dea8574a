// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

// Package sat gives the planner a narrow incremental interface to a SAT
// solver, with backends for gini and gophersat.
package sat

import (
	"context"
	"fmt"

	"github.com/go-air/gini/inter"
	"github.com/go-air/gini/z"
)

// Results of Solve.  These are the result codes used throughout gini.
const (
	Unsat   = -1
	Unknown = 0
	Sat     = 1
)

// ResultString names a result code.
func ResultString(res int) string {
	switch res {
	case Sat:
		return "SAT"
	case Unsat:
		return "UNSAT"
	case Unknown:
		return "UNKNOWN"
	default:
		return fmt.Sprintf("result(%d)", res)
	}
}

// Solver is an incremental SAT solver.
//
// Clauses are added as z.LitNull terminated sequences of literals with Add.
// Assumptions made with Assume hold for the next call to Solve only.
//
// Solve returns Sat, Unsat or Unknown.  Solve returns Unknown when ctx is
// done before a result is found; the solver may be used again afterwards.
//
// After Sat, Value reads the model.  After Unsat under assumptions, Failed
// reports whether an assumption was needed for unsatisfiability.
//
// OnLearn registers a function which is called with clauses implied by
// the formula as the solver derives them.  The slice is not retained.
type Solver interface {
	inter.Adder
	Assume(ms ...z.Lit)
	Solve(ctx context.Context) int
	Value(m z.Lit) bool
	Failed(m z.Lit) bool
	OnLearn(f func(clause []z.Lit))
	Release()
}

// New creates a solver backend by name: "gini" or "gophersat".
func New(name string) (Solver, error) {
	switch name {
	case "", "gini":
		return NewGini(), nil
	case "gophersat":
		return NewGophersat(), nil
	}
	return nil, fmt.Errorf("unknown solver %q", name)
}
