// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package htn

import (
	"sort"
	"strings"
)

// USig identifies an operator or fact occurrence: a name id and an ordered
// list of argument ids.  USig is comparable and may be used as a map key;
// the arguments are packed into a string, 4 bytes per argument.
type USig struct {
	Name int32
	args string
}

// NewUSig creates a USig with the given name and arguments.
func NewUSig(name int32, args ...int32) USig {
	var b strings.Builder
	b.Grow(4 * len(args))
	for _, a := range args {
		u := uint32(a)
		b.WriteByte(byte(u))
		b.WriteByte(byte(u >> 8))
		b.WriteByte(byte(u >> 16))
		b.WriteByte(byte(u >> 24))
	}
	return USig{Name: name, args: b.String()}
}

// Arity returns the number of arguments.
func (u USig) Arity() int {
	return len(u.args) / 4
}

// Arg returns the i'th argument.
func (u USig) Arg(i int) int32 {
	j := 4 * i
	return int32(uint32(u.args[j]) | uint32(u.args[j+1])<<8 |
		uint32(u.args[j+2])<<16 | uint32(u.args[j+3])<<24)
}

// Args returns a fresh slice of the arguments.
func (u USig) Args() []int32 {
	res := make([]int32, u.Arity())
	for i := range res {
		res[i] = u.Arg(i)
	}
	return res
}

// WithArgs returns a USig with u's name and the given arguments.
func (u USig) WithArgs(args []int32) USig {
	return NewUSig(u.Name, args...)
}

// Substitute replaces every argument bound in s.
func (u USig) Substitute(s Subst) USig {
	if len(s) == 0 {
		return u
	}
	args := u.Args()
	changed := false
	for i, a := range args {
		if b, ok := s[a]; ok {
			args[i] = b
			changed = true
		}
	}
	if !changed {
		return u
	}
	return NewUSig(u.Name, args...)
}

// Has reports whether a occurs among u's arguments.
func (u USig) Has(a int32) bool {
	for i, n := 0, u.Arity(); i < n; i++ {
		if u.Arg(i) == a {
			return true
		}
	}
	return false
}

// Less orders USigs by name, then arity, then arguments.
func (u USig) Less(v USig) bool {
	if u.Name != v.Name {
		return u.Name < v.Name
	}
	n, m := u.Arity(), v.Arity()
	if n != m {
		return n < m
	}
	for i := 0; i < n; i++ {
		a, b := u.Arg(i), v.Arg(i)
		if a != b {
			return a < b
		}
	}
	return false
}

// SortUSigs sorts us in place by Less.
func SortUSigs(us []USig) {
	sort.Slice(us, func(i, j int) bool { return us[i].Less(us[j]) })
}

// Sig is a USig used as a literal: a precondition or an effect.
type Sig struct {
	USig
	Neg bool
}

// Pos creates a positive literal.
func Pos(u USig) Sig { return Sig{USig: u} }

// Neg creates a negative literal.
func Neg(u USig) Sig { return Sig{USig: u, Neg: true} }

// Not returns the opposite literal.
func (s Sig) Not() Sig {
	return Sig{USig: s.USig, Neg: !s.Neg}
}

// Substitute applies sub to the literal's atom.
func (s Sig) Substitute(sub Subst) Sig {
	return Sig{USig: s.USig.Substitute(sub), Neg: s.Neg}
}

// Subst maps argument ids to argument ids.
type Subst map[int32]int32

// NewSubst zips from and to into a substitution.
func NewSubst(from, to []int32) Subst {
	s := make(Subst, len(from))
	for i, f := range from {
		if f != to[i] {
			s[f] = to[i]
		}
	}
	return s
}
