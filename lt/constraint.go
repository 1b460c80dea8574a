// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package lt

import (
	"github.com/go-air/gini/inter"
	"github.com/go-air/gini/z"
)

// Polarity tells which paths of a Constraint are stored.
type Polarity uint8

const (
	// AnyValid constraints hold a tree of valid substitutions.
	AnyValid Polarity = 1 << iota
	// NoInvalid constraints hold a tree of invalid substitutions.
	NoInvalid
	// Both is the polarity of constraints holding both trees.
	Both = AnyValid | NoInvalid
)

// Constraint restricts the joint values of a list of q-constants.  A
// substitution, one value per q-constant, satisfies the constraint if it is
// among the valid paths (when those are stored) and not among the invalid
// paths (when those are stored).
type Constraint struct {
	QConsts []int32
	valid   *Tree
	invalid *Tree
}

// NewConstraint builds a constraint over qs from complete lists of valid
// and invalid substitutions, keeping whichever side is smaller.
func NewConstraint(qs []int32, valid, invalid [][]int32) *Constraint {
	c := &Constraint{QConsts: qs}
	if len(valid) <= len(invalid) {
		c.valid = New()
		for _, p := range valid {
			c.valid.Insert(p)
		}
		return c
	}
	c.invalid = New()
	for _, p := range invalid {
		c.invalid.Insert(p)
	}
	return c
}

// Polarity returns which trees c stores.
func (c *Constraint) Polarity() Polarity {
	var p Polarity
	if c.valid != nil {
		p |= AnyValid
	}
	if c.invalid != nil {
		p |= NoInvalid
	}
	return p
}

// Test reports whether the substitution path satisfies c.
func (c *Constraint) Test(path []int32) bool {
	if c.valid != nil && !c.valid.Contains(path) {
		return false
	}
	return c.invalid == nil || !c.invalid.Contains(path)
}

// Unsatisfiable reports whether c is known to reject every substitution.
func (c *Constraint) Unsatisfiable() bool {
	return c.valid != nil && c.valid.Len() == 0
}

// Size is the number of stored paths.
func (c *Constraint) Size() int {
	n := 0
	if c.valid != nil {
		n += c.valid.Len()
	}
	if c.invalid != nil {
		n += c.invalid.Len()
	}
	return n
}

func sameQConsts(a, b []int32) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func disjoint(a, b []int32) bool {
	for _, x := range a {
		for _, y := range b {
			if x == y {
				return false
			}
		}
	}
	return true
}

// Merge combines c and d into one constraint satisfied exactly when both
// are.  It succeeds when both range over the same q-constants in the same
// order, or over disjoint q-constants, in which case the result ranges over
// c's q-constants followed by d's.
func Merge(c, d *Constraint) (*Constraint, bool) {
	if sameQConsts(c.QConsts, d.QConsts) {
		res := &Constraint{QConsts: c.QConsts}
		switch {
		case c.valid == nil:
			res.valid = d.valid
		case d.valid == nil:
			res.valid = c.valid
		default:
			res.valid = Intersect(c.valid, d.valid)
		}
		res.invalid = union(c.invalid, nil, d.invalid, nil)
		return res, true
	}
	if !disjoint(c.QConsts, d.QConsts) {
		return nil, false
	}
	qs := make([]int32, 0, len(c.QConsts)+len(d.QConsts))
	qs = append(qs, c.QConsts...)
	qs = append(qs, d.QConsts...)
	res := &Constraint{QConsts: qs}
	if c.valid != nil || d.valid != nil {
		res.valid = New()
		for _, p := range pathsOrAny(c.valid, len(c.QConsts)) {
			for _, q := range pathsOrAny(d.valid, len(d.QConsts)) {
				res.valid.Insert(append(append([]int32(nil), p...), q...))
			}
		}
	}
	res.invalid = union(c.invalid, wildcards(len(d.QConsts)), d.invalid, wildcards(len(c.QConsts)))
	return res, true
}

func wildcards(n int) []int32 {
	return make([]int32, n)
}

func pathsOrAny(t *Tree, n int) [][]int32 {
	if t == nil {
		return [][]int32{wildcards(n)}
	}
	return t.Paths()
}

// union returns the paths of a padded right with padA and the paths of b
// padded left with padB, or nil if both trees are nil.
func union(a *Tree, padA []int32, b *Tree, padB []int32) *Tree {
	if a == nil && b == nil {
		return nil
	}
	res := New()
	if a != nil {
		for _, p := range a.Paths() {
			res.Insert(append(p, padA...))
		}
	}
	if b != nil {
		for _, p := range b.Paths() {
			res.Insert(append(append([]int32(nil), padB...), p...))
		}
	}
	return res
}

// Encode adds clauses for head => c, where qval(q, v) is the literal
// asserting that q-constant q takes value v.
func (c *Constraint) Encode(head z.Lit, qval func(q, v int32) z.Lit, dst inter.Adder) {
	lit := func(level int, v int32) z.Lit {
		return qval(c.QConsts[level], v)
	}
	hs := []z.Lit{head}
	if c.valid != nil {
		c.valid.Encode(hs, lit, dst)
	}
	if c.invalid != nil {
		c.invalid.EncodeNegation(hs, lit, dst)
	}
}
