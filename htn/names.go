// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package htn

import "fmt"

// Kind classifies an interned name.
type Kind uint8

const (
	KNone Kind = iota
	KWildcard
	KConst
	KVar
	KQConst
	KPred
	KTask
	KAction
	KMethod
	KSort
)

func (k Kind) String() string {
	switch k {
	case KWildcard:
		return "wildcard"
	case KConst:
		return "constant"
	case KVar:
		return "variable"
	case KQConst:
		return "q-constant"
	case KPred:
		return "predicate"
	case KTask:
		return "task"
	case KAction:
		return "action"
	case KMethod:
		return "method"
	case KSort:
		return "sort"
	default:
		return "none"
	}
}

// Wildcard is the reserved id standing for "any argument".
const Wildcard int32 = 0

// Names interns strings to dense int32 ids.  Id 0 is the wildcard "_".
//
// Names has a single writer: it is filled while the instance is grounded
// and encoded, and may be locked afterwards, after which Intern panics.
type Names struct {
	byName map[string]int32
	names  []string
	kinds  []Kind
	locked bool
}

// NewNames creates a name table holding only the wildcard.
func NewNames() *Names {
	n := &Names{byName: make(map[string]int32, 1024)}
	n.Intern("_", KWildcard)
	return n
}

// Intern returns the id of s, creating it with kind k if s is new.  The
// kind of an existing name is never changed.
func (n *Names) Intern(s string, k Kind) int32 {
	if id, ok := n.byName[s]; ok {
		return id
	}
	if n.locked {
		panic(fmt.Sprintf("htn: intern %q into locked name table", s))
	}
	id := int32(len(n.names))
	n.byName[s] = id
	n.names = append(n.names, s)
	n.kinds = append(n.kinds, k)
	return id
}

// ID looks up s without creating it.
func (n *Names) ID(s string) (int32, bool) {
	id, ok := n.byName[s]
	return id, ok
}

// Name returns the string for id.
func (n *Names) Name(id int32) string {
	if id < 0 || int(id) >= len(n.names) {
		return fmt.Sprintf("#%d", id)
	}
	return n.names[id]
}

// Kind returns the kind id was interned with.
func (n *Names) Kind(id int32) Kind {
	if id < 0 || int(id) >= len(n.kinds) {
		return KNone
	}
	return n.kinds[id]
}

// Len returns the number of interned names.
func (n *Names) Len() int {
	return len(n.names)
}

// Lock makes the table read-only.
func (n *Names) Lock() {
	n.locked = true
}

// IsVar reports whether id is a lifted variable or the wildcard.
func (n *Names) IsVar(id int32) bool {
	k := n.Kind(id)
	return k == KVar || k == KWildcard
}

// IsQConst reports whether id is a q-constant.
func (n *Names) IsQConst(id int32) bool {
	return n.Kind(id) == KQConst
}
