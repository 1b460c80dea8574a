// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package layer

import "github.com/domschrei/lilotane-sub000/htn"

// Truth is what is known about a fluent fact at a position.
type Truth uint8

const (
	False Truth = iota
	True
	Unknown
)

func (t Truth) String() string {
	switch t {
	case False:
		return "false"
	case True:
		return "true"
	default:
		return "unknown"
	}
}

// State is what is known about the fluent facts before some position: the
// initial state plus the facts whose value differs from it or is unknown.
// States are immutable.
type State struct {
	init map[htn.USig]struct{}
	diff map[htn.USig]Truth
}

// NewState returns the initial state.
func NewState(init map[htn.USig]struct{}) *State {
	return &State{init: init}
}

// Get returns what is known about f.
func (s *State) Get(f htn.USig) Truth {
	if t, ok := s.diff[f]; ok {
		return t
	}
	if _, ok := s.init[f]; ok {
		return True
	}
	return False
}

// May reports whether f may hold (neg false) or may not hold.
func (s *State) May(f htn.USig, neg bool) bool {
	t := s.Get(f)
	if neg {
		return t != True
	}
	return t != False
}

// Known reports whether f is known to hold (neg false) or not to hold.
func (s *State) Known(f htn.USig, neg bool) bool {
	want := True
	if neg {
		want = False
	}
	return s.Get(f) == want
}

// Unknown returns the number of facts with unknown value.
func (s *State) Unknown() int {
	n := 0
	for _, t := range s.diff {
		if t == Unknown {
			n++
		}
	}
	return n
}

// Apply returns the state after one of several operators whose possible
// changes are given.  If exact is set the changes are the effects of the
// only possible operator, deletes are applied before adds.
func (s *State) Apply(changes []htn.Sig, exact bool) *State {
	if len(changes) == 0 {
		return s
	}
	next := &State{init: s.init, diff: make(map[htn.USig]Truth, len(s.diff)+len(changes))}
	for f, t := range s.diff {
		next.diff[f] = t
	}
	set := func(f htn.USig, t Truth) {
		if _, ok := s.init[f]; ok == (t == True) {
			delete(next.diff, f)
			return
		}
		next.diff[f] = t
	}
	if exact {
		for _, c := range changes {
			if c.Neg {
				set(c.USig, False)
			}
		}
		for _, c := range changes {
			if !c.Neg {
				set(c.USig, True)
			}
		}
		return next
	}
	for _, c := range changes {
		want := True
		if c.Neg {
			want = False
		}
		if t := next.Get(c.USig); t != want && t != Unknown {
			next.diff[c.USig] = Unknown
		}
	}
	return next
}
