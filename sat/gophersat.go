// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package sat

import (
	"context"

	"github.com/crillab/gophersat/solver"
	"github.com/go-air/gini/z"
	"golang.org/x/sync/semaphore"
)

// Gophersat is a Solver backed by gophersat.  gophersat is not
// incremental: every Solve builds a fresh solver over all clauses added so
// far plus the assumptions as unit clauses.
//
// gophersat searches cannot be interrupted.  A cancelled Solve returns
// Unknown immediately while the abandoned search runs to completion in its
// goroutine.  At most one search runs per Gophersat: Solve waits for the
// previous one to finish, or for ctx, before starting another.
type Gophersat struct {
	busy    *semaphore.Weighted
	clauses [][]int
	cur     []int
	empty   bool
	assumed []z.Lit
	last    []z.Lit
	model   []bool
	res     int
	learn   func([]z.Lit)
}

// NewGophersat creates a gophersat backed solver.
func NewGophersat() *Gophersat {
	return &Gophersat{busy: semaphore.NewWeighted(1)}
}

func (s *Gophersat) Add(m z.Lit) {
	if m != z.LitNull {
		s.cur = append(s.cur, m.Dimacs())
		return
	}
	if len(s.cur) == 0 {
		s.empty = true
	}
	s.clauses = append(s.clauses, s.cur)
	s.cur = nil
}

func (s *Gophersat) Assume(ms ...z.Lit) {
	s.assumed = append(s.assumed, ms...)
}

func (s *Gophersat) Solve(ctx context.Context) int {
	s.last = s.assumed
	s.assumed = nil
	s.model = nil
	if s.empty {
		s.res = Unsat
		return s.res
	}
	cnf := make([][]int, 0, len(s.clauses)+len(s.last))
	cnf = append(cnf, s.clauses...)
	for _, m := range s.last {
		cnf = append(cnf, []int{m.Dimacs()})
	}
	type result struct {
		st    solver.Status
		model []bool
	}
	if err := s.busy.Acquire(ctx, 1); err != nil {
		s.res = Unknown
		return s.res
	}
	ch := make(chan result, 1)
	go func() {
		defer s.busy.Release(1)
		sv := solver.New(solver.ParseSlice(cnf))
		st := sv.Solve()
		var model []bool
		if st == solver.Sat {
			model = sv.Model()
		}
		ch <- result{st: st, model: model}
	}()
	select {
	case <-ctx.Done():
		s.res = Unknown
	case r := <-ch:
		switch r.st {
		case solver.Sat:
			s.res = Sat
			s.model = r.model
		case solver.Unsat:
			s.res = Unsat
		default:
			s.res = Unknown
		}
	}
	if s.res == Unsat && len(s.last) > 0 && s.learn != nil {
		clause := make([]z.Lit, len(s.last))
		for i, m := range s.last {
			clause[i] = m.Not()
		}
		s.learn(clause)
	}
	return s.res
}

func (s *Gophersat) Value(m z.Lit) bool {
	i := int(m.Var()) - 1
	v := i >= 0 && i < len(s.model) && s.model[i]
	if m.IsPos() {
		return v
	}
	return !v
}

// Failed reports every assumption of an Unsat result as failed, since
// gophersat does not compute an assumption core.
func (s *Gophersat) Failed(m z.Lit) bool {
	if s.res != Unsat {
		return false
	}
	for _, a := range s.last {
		if a == m {
			return true
		}
	}
	return false
}

func (s *Gophersat) OnLearn(f func([]z.Lit)) {
	s.learn = f
}

func (s *Gophersat) Release() {
	s.clauses = nil
	s.model = nil
}
