// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

// Package lt provides literal trees, tries over integer tuples which encode
// set membership compactly as CNF, and substitution constraints built on
// them.
package lt

import (
	"sort"

	"github.com/go-air/gini/inter"
	"github.com/go-air/gini/z"
)

// Wildcard at some level of a path matches every value.
const Wildcard int32 = 0

type node struct {
	kids map[int32]*node
	end  bool
}

func newNode() *node {
	return &node{}
}

func (n *node) child(v int32, create bool) *node {
	if c := n.kids[v]; c != nil || !create {
		return c
	}
	if n.kids == nil {
		n.kids = make(map[int32]*node, 2)
	}
	c := newNode()
	n.kids[v] = c
	return c
}

func (n *node) keys() []int32 {
	ks := make([]int32, 0, len(n.kids))
	for k := range n.kids {
		ks = append(ks, k)
	}
	sort.Slice(ks, func(i, j int) bool { return ks[i] < ks[j] })
	return ks
}

// Tree is a literal tree: a set of integer tuples sharing prefixes.
type Tree struct {
	root *node
	n    int
}

// New creates an empty tree.
func New() *Tree {
	return &Tree{root: newNode()}
}

// Insert adds path to t.
func (t *Tree) Insert(path []int32) {
	n := t.root
	for _, v := range path {
		n = n.child(v, true)
	}
	if !n.end {
		n.end = true
		t.n++
	}
}

// Len returns the number of paths in t.
func (t *Tree) Len() int {
	return t.n
}

// Contains reports whether path is a member of t.  A stored Wildcard
// matches any value at its level.
func (t *Tree) Contains(path []int32) bool {
	return contains(t.root, path)
}

func contains(n *node, path []int32) bool {
	if n == nil {
		return false
	}
	if len(path) == 0 {
		return n.end
	}
	if contains(n.kids[path[0]], path[1:]) {
		return true
	}
	return path[0] != Wildcard && contains(n.kids[Wildcard], path[1:])
}

// Paths returns the members of t in lexicographic order.
func (t *Tree) Paths() [][]int32 {
	var res [][]int32
	var walk func(n *node, pre []int32)
	walk = func(n *node, pre []int32) {
		if n.end {
			res = append(res, append([]int32(nil), pre...))
		}
		for _, k := range n.keys() {
			walk(n.kids[k], append(pre, k))
		}
	}
	walk(t.root, nil)
	return res
}

// Encode adds clauses to dst equivalent to
//
//	head[0] & head[1] & ... => OR of the paths in t
//
// where a path is the conjunction of lit(level, value) over its levels.
// There is one clause per inner node: (-head | -prefix | OR children).
//
// The clauses are only exact if the literals of sibling values are
// mutually exclusive, as for the values of one q-constant under an
// exactly-one constraint.  A Wildcard must not have specific siblings.
func (t *Tree) Encode(head []z.Lit, lit func(level int, v int32) z.Lit, dst inter.Adder) {
	if t.n == 0 {
		addClause(dst, head, nil, nil)
		return
	}
	var walk func(n *node, level int, pre []z.Lit)
	walk = func(n *node, level int, pre []z.Lit) {
		if n.end || len(n.kids) == 0 {
			return
		}
		ks := n.keys()
		if w := n.kids[Wildcard]; w != nil {
			walk(w, level+1, pre)
			return
		}
		ors := make([]z.Lit, len(ks))
		for i, k := range ks {
			ors[i] = lit(level, k)
		}
		addClause(dst, head, pre, ors)
		for i, k := range ks {
			walk(n.kids[k], level+1, append(pre, ors[i]))
		}
	}
	walk(t.root, 0, nil)
}

// EncodeNegation adds one clause per path, equivalent to
//
//	head[0] & head[1] & ... => no path of t holds.
func (t *Tree) EncodeNegation(head []z.Lit, lit func(level int, v int32) z.Lit, dst inter.Adder) {
	var walk func(n *node, level int, pre []z.Lit)
	walk = func(n *node, level int, pre []z.Lit) {
		if n.end {
			addClause(dst, head, pre, nil)
		}
		for _, k := range n.keys() {
			p := pre
			if k != Wildcard {
				p = append(pre, lit(level, k))
			}
			walk(n.kids[k], level+1, p)
		}
	}
	walk(t.root, 0, nil)
}

// addClause adds (-head | -neg | pos).
func addClause(dst inter.Adder, head, neg, pos []z.Lit) {
	for _, m := range head {
		dst.Add(m.Not())
	}
	for _, m := range neg {
		dst.Add(m.Not())
	}
	for _, m := range pos {
		dst.Add(m)
	}
	dst.Add(z.LitNull)
}

// Intersect returns a tree holding the paths in both t and u, resolving
// wildcards against specific values.
func Intersect(t, u *Tree) *Tree {
	res := New()
	var walk func(a, b *node, pre []int32)
	walk = func(a, b *node, pre []int32) {
		if a.end && b.end {
			res.Insert(pre)
		}
		for _, ka := range a.keys() {
			for _, kb := range b.keys() {
				v := ka
				switch {
				case ka == kb:
				case ka == Wildcard:
					v = kb
				case kb == Wildcard:
				default:
					continue
				}
				walk(a.kids[ka], b.kids[kb], append(pre, v))
			}
		}
	}
	walk(t.root, u.root, nil)
	return res
}
