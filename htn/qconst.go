// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package htn

import "fmt"

// QConst is a pseudo-constant: one argument slot of one grounding site
// standing for any constant of its domain.
type QConst struct {
	ID     int32
	Sort   int32
	Domain []int32 // sorted, never empty
	Layer  int
	Pos    int
}

// QPool creates and owns the q-constants of an instance.  Requests for
// the same grounding site and slot return the same q-constant.
type QPool struct {
	names *Names
	byID  map[int32]*QConst
	sites map[qsite]int32
}

type qsite struct {
	layer, pos int
	op         USig
	slot       int
}

func newQPool(names *Names) *QPool {
	return &QPool{
		names: names,
		byID:  make(map[int32]*QConst),
		sites: make(map[qsite]int32)}
}

// Get returns the q-constant at site (layer, pos, op, slot), creating it
// with domain dom if necessary.  op is the partially bound operator whose
// slot'th argument is being replaced.  dom must not be empty.
func (p *QPool) Get(layer, pos int, op USig, slot int, sort int32, dom []int32) int32 {
	if len(dom) == 0 {
		panic("htn: q-constant with empty domain")
	}
	key := qsite{layer: layer, pos: pos, op: op, slot: slot}
	if id, ok := p.sites[key]; ok {
		return id
	}
	name := fmt.Sprintf("?Q_%d,%d_%d#%d", layer, pos, slot, len(p.byID))
	id := p.names.Intern(name, KQConst)
	p.byID[id] = &QConst{ID: id, Sort: sort, Domain: dom, Layer: layer, Pos: pos}
	p.sites[key] = id
	return id
}

// Lookup returns the q-constant with id, or nil.
func (p *QPool) Lookup(id int32) *QConst {
	return p.byID[id]
}

// Domain returns the domain of q-constant id.
func (p *QPool) Domain(id int32) []int32 {
	if q := p.byID[id]; q != nil {
		return q.Domain
	}
	return nil
}

// Len returns the number of q-constants created so far.
func (p *QPool) Len() int {
	return len(p.byID)
}
