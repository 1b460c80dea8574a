// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package sat

import (
	"github.com/go-air/gini/inter"
	"github.com/go-air/gini/z"
)

// Clauses is a Solver which keeps a copy of every clause it is given, so
// that the formula can be loaded into another solver.
type Clauses struct {
	Solver
	ms []z.Lit
	n  int
}

// NewClauses wraps s.
func NewClauses(s Solver) *Clauses {
	return &Clauses{Solver: s}
}

func (c *Clauses) Add(m z.Lit) {
	c.ms = append(c.ms, m)
	if m == z.LitNull {
		c.n++
	}
	c.Solver.Add(m)
}

// Len returns the number of complete clauses added.
func (c *Clauses) Len() int {
	return c.n
}

// CopyTo adds every complete clause to dst.
func (c *Clauses) CopyTo(dst inter.Adder) {
	end := len(c.ms)
	for end > 0 && c.ms[end-1] != z.LitNull {
		end--
	}
	for _, m := range c.ms[:end] {
		dst.Add(m)
	}
}
