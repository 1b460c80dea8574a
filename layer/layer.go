// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

// Package layer holds the planning graph: a sequence of layers, each an
// ordered sequence of positions.  Positions carry the candidate operators
// of one grounding slot together with everything needed to encode them.
//
// A Layer and its Positions are owned by the planner.  The encoder reads a
// position only while that position is encoded.
package layer

// Layer is an ordered sequence of positions plus the offsets at which the
// expansion of each position begins in the next layer.
type Layer struct {
	Index     int
	positions []*Position
	succ      []int
}

// New creates an empty layer.
func New(index int) *Layer {
	return &Layer{Index: index}
}

// Append adds p as the last position of l.
func (l *Layer) Append(p *Position) {
	l.positions = append(l.positions, p)
}

// Len returns the number of positions.
func (l *Layer) Len() int {
	return len(l.positions)
}

// At returns position i.
func (l *Layer) At(i int) *Position {
	return l.positions[i]
}

// Positions returns the positions of l in order.
func (l *Layer) Positions() []*Position {
	return l.positions
}

// SetExpansion records that position i expands into sizes[i] positions of
// the next layer.  Sizes must be positive.
func (l *Layer) SetExpansion(sizes []int) {
	l.succ = make([]int, len(sizes)+1)
	for i, n := range sizes {
		if n < 1 {
			panic("layer: empty expansion")
		}
		l.succ[i+1] = l.succ[i] + n
	}
}

// Succ returns the index in the next layer of the first child of position i.
func (l *Layer) Succ(i int) int {
	return l.succ[i]
}

// Expansion returns the number of children of position i.
func (l *Layer) Expansion(i int) int {
	return l.succ[i+1] - l.succ[i]
}

// NextLen returns the number of positions of the next layer.
func (l *Layer) NextLen() int {
	if len(l.succ) == 0 {
		return 0
	}
	return l.succ[len(l.succ)-1]
}

// Primitive reports whether every position of l holds only actions.
func (l *Layer) Primitive() bool {
	for _, p := range l.positions {
		if p.Reductions() > 0 {
			return false
		}
	}
	return true
}

// Size returns the total number of operators in l.
func (l *Layer) Size() int {
	n := 0
	for _, p := range l.positions {
		n += p.Len()
	}
	return n
}

// Release drops the data of every position of l which later layers no
// longer need.
func (l *Layer) Release() {
	for _, p := range l.positions {
		p.ReleaseLayer()
	}
}
