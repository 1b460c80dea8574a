// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package layer

import "github.com/domschrei/lilotane-sub000/htn"

// Decoding is one ground fact a q-fact may stand for, with the assignment
// of its q-constants that yields it.
type Decoding struct {
	Fact htn.USig
	Term Term
}

// Decoder enumerates and caches the decodings of q-facts.
type Decoder struct {
	in    *htn.Instance
	cache map[htn.USig][]Decoding
}

// NewDecoder creates a decoder for facts of in.
func NewDecoder(in *htn.Instance) *Decoder {
	return &Decoder{in: in, cache: make(map[htn.USig][]Decoding)}
}

// QConsts returns the distinct q-constants among the arguments of u in
// order of first occurrence.
func (d *Decoder) QConsts(u htn.USig) []int32 {
	var qs []int32
	for _, a := range u.Args() {
		if !d.in.Names.IsQConst(a) {
			continue
		}
		dup := false
		for _, q := range qs {
			if q == a {
				dup = true
				break
			}
		}
		if !dup {
			qs = append(qs, a)
		}
	}
	return qs
}

// Decode returns the decodings of fact u whose arguments fit the sorts of
// u's predicate.  A ground fact decodes to itself when its arguments fit.
func (d *Decoder) Decode(u htn.USig) []Decoding {
	if res, ok := d.cache[u]; ok {
		return res
	}
	qs := d.QConsts(u)
	sorts := d.in.PredSorts(u.Name)
	fits := func(slot int, c int32) bool {
		return u.Name == d.in.Eq || slot >= len(sorts) || d.in.InSort(c, sorts[slot])
	}
	// values each q-constant may take, honoring every slot it occupies
	doms := make([][]int32, len(qs))
	for i, q := range qs {
		for _, c := range d.in.Q.Domain(q) {
			ok := true
			for slot, a := range u.Args() {
				if a == q && !fits(slot, c) {
					ok = false
					break
				}
			}
			if ok {
				doms[i] = append(doms[i], c)
			}
		}
	}
	for slot, a := range u.Args() {
		if !d.in.Names.IsQConst(a) && !fits(slot, a) {
			d.cache[u] = nil
			return nil
		}
	}
	var res []Decoding
	vals := make([]int32, len(qs))
	var walk func(i int)
	walk = func(i int) {
		if i == len(qs) {
			s := make(htn.Subst, len(qs))
			t := make(Term, len(qs))
			for j, q := range qs {
				s[q] = vals[j]
				t[j] = Assign{Q: q, V: vals[j]}
			}
			res = append(res, Decoding{Fact: u.Substitute(s), Term: t})
			return
		}
		for _, c := range doms[i] {
			vals[i] = c
			walk(i + 1)
		}
	}
	walk(0)
	d.cache[u] = res
	return res
}

// Forget drops cached decodings.
func (d *Decoder) Forget() {
	d.cache = make(map[htn.USig][]Decoding)
}
