// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package sat

import (
	"context"
	"time"

	"github.com/go-air/gini"
	"github.com/go-air/gini/z"
)

// pollInterval is how often a running solve checks for cancellation.
const pollInterval = 5 * time.Millisecond

// Gini is a Solver backed by gini.
type Gini struct {
	g       *gini.Gini
	assumed []z.Lit
	failed  map[z.Lit]bool
	learn   func([]z.Lit)
}

// NewGini creates a gini backed solver.
func NewGini() *Gini {
	return &Gini{g: gini.New()}
}

func (s *Gini) Add(m z.Lit) {
	s.g.Add(m)
}

func (s *Gini) Assume(ms ...z.Lit) {
	s.assumed = append(s.assumed, ms...)
}

// Solve runs gini in its own goroutine and stops it when ctx is done.
func (s *Gini) Solve(ctx context.Context) int {
	assumed := s.assumed
	s.assumed = nil
	s.failed = nil
	s.g.Assume(assumed...)
	var res int
	if ctx.Done() == nil {
		res = s.g.Solve()
	} else {
		res = s.goSolve(ctx)
	}
	if res == Unsat && len(assumed) > 0 {
		why := s.g.Why(nil)
		s.failed = make(map[z.Lit]bool, len(why))
		for _, m := range why {
			s.failed[m] = true
		}
		if s.learn != nil && len(why) > 0 {
			clause := make([]z.Lit, len(why))
			for i, m := range why {
				clause[i] = m.Not()
			}
			s.learn(clause)
		}
	}
	return res
}

func (s *Gini) goSolve(ctx context.Context) int {
	h := s.g.GoSolve()
	ticker := time.NewTicker(pollInterval)
	defer ticker.Stop()
	for {
		if res, done := h.Test(); done {
			return res
		}
		select {
		case <-ctx.Done():
			return h.Stop()
		case <-ticker.C:
		}
	}
}

func (s *Gini) Value(m z.Lit) bool {
	return s.g.Value(m)
}

func (s *Gini) Failed(m z.Lit) bool {
	return s.failed[m]
}

// OnLearn reports the negated failed assumptions after each Unsat result
// under assumptions; gini does not expose its learnt clauses otherwise.
func (s *Gini) OnLearn(f func([]z.Lit)) {
	s.learn = f
}

func (s *Gini) Release() {
	s.g = nil
	s.failed = nil
}
