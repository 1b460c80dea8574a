// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package htn

import (
	"fmt"
	"strings"
)

// Lit is an unresolved literal: a name, its argument strings and a sign.
type Lit struct {
	Name string
	Args []string
	Neg  bool
}

func tokens(s string) []string {
	s = strings.ReplaceAll(s, "(", " ( ")
	s = strings.ReplaceAll(s, ")", " ) ")
	return strings.Fields(s)
}

// ParseLit parses "(p a ?x)", "(not (p a ?x))" or the bare form "p a ?x".
func ParseLit(s string) (Lit, error) {
	ts := tokens(s)
	if len(ts) == 0 {
		return Lit{}, fmt.Errorf("empty literal")
	}
	if ts[0] != "(" {
		for _, t := range ts {
			if t == ")" {
				return Lit{}, fmt.Errorf("literal %q: unbalanced ')'", s)
			}
		}
		return Lit{Name: ts[0], Args: ts[1:]}, nil
	}
	var lit Lit
	i := 1
	if i+1 < len(ts) && ts[i] == "not" && ts[i+1] == "(" {
		lit.Neg = true
		i += 2
	}
	if i >= len(ts) || ts[i] == "(" || ts[i] == ")" {
		return Lit{}, fmt.Errorf("literal %q: missing name", s)
	}
	lit.Name = ts[i]
	i++
	for i < len(ts) && ts[i] != ")" {
		if ts[i] == "(" {
			return Lit{}, fmt.Errorf("literal %q: nested term", s)
		}
		lit.Args = append(lit.Args, ts[i])
		i++
	}
	closing := 1
	if lit.Neg {
		closing = 2
	}
	for ; closing > 0; closing-- {
		if i >= len(ts) || ts[i] != ")" {
			return Lit{}, fmt.Errorf("literal %q: unbalanced '('", s)
		}
		i++
	}
	if i != len(ts) {
		return Lit{}, fmt.Errorf("literal %q: trailing tokens", s)
	}
	return lit, nil
}

// ParseParam parses "?x - sort".
func ParseParam(s string) (name, sort string, err error) {
	ts := strings.Fields(s)
	if len(ts) != 3 || ts[1] != "-" {
		return "", "", fmt.Errorf("parameter %q: want \"?x - sort\"", s)
	}
	if !strings.HasPrefix(ts[0], "?") {
		return "", "", fmt.Errorf("parameter %q: variable must start with '?'", s)
	}
	return ts[0], ts[2], nil
}

func (l Lit) String() string {
	var b strings.Builder
	if l.Neg {
		b.WriteString("(not ")
	}
	b.WriteByte('(')
	b.WriteString(l.Name)
	for _, a := range l.Args {
		b.WriteByte(' ')
		b.WriteString(a)
	}
	b.WriteByte(')')
	if l.Neg {
		b.WriteByte(')')
	}
	return b.String()
}
