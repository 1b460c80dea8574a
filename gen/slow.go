// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package gen

import (
	"context"
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/go-air/gini/z"

	"github.com/domschrei/lilotane-sub000/sat"
)

// Slow creates a sat.Solver which just returns res from Solve within a
// random period of time chosen from [0..d), or sat.Unknown if the context
// is done first.  If res is 0, a random value from {-1,1} is chosen.
//
// The other methods are stubs: Value and Failed return random values.
//
// This is useful for testing deadline and cancellation handling of
// applications using sat.Solver.
func Slow(d time.Duration, res int) sat.Solver {
	return SlowR(d, res, rand.NewSource(33))
}

func SlowR(d time.Duration, res int, src rand.Source) sat.Solver {
	return &slow{dur: d, res: res, rand: rand.New(src)}
}

type slow struct {
	mu    sync.Mutex
	dur   time.Duration
	res   int
	rand  *rand.Rand
	ms    []z.Lit
	mv    z.Var
	calls int
}

func (s *slow) Add(m z.Lit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m.Var() > s.mv {
		s.mv = m.Var()
	}
}

func (s *slow) Assume(ms ...z.Lit) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ms = append(s.ms, ms...)
}

func (s *slow) Solve(ctx context.Context) int {
	s.mu.Lock()
	s.ms = s.ms[:0]
	s.calls++
	var w time.Duration
	if ns := s.dur.Nanoseconds(); ns > 0 {
		w = time.Duration(s.rand.Int63n(ns))
	}
	res := s.res
	if res == 0 {
		res = 2*s.rand.Intn(2) - 1
	}
	s.mu.Unlock()

	alarm := time.NewTimer(w)
	defer alarm.Stop()
	select {
	case <-alarm.C:
		return res
	case <-ctx.Done():
		return sat.Unknown
	}
}

func (s *slow) Value(m z.Lit) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rand.Intn(2) == 1
}

func (s *slow) Failed(m z.Lit) bool {
	return s.Value(m)
}

func (s *slow) OnLearn(func([]z.Lit)) {}

func (s *slow) Release() {}

func (s *slow) String() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fmt.Sprintf("*slow[%s, %d calls, max var %d]", s.dur, s.calls, s.mv)
}
