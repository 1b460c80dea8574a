// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package analysis

// Order returns the nodes in topological order of the graph adj: if there
// is an edge u->v and no path v->u, u comes before v.  Cycles are
// tolerated, and every node of nodes appears exactly once in the result.
// Nodes only reachable through adj are appended as they are discovered.
//
// The traversal uses an explicit stack so deep graphs do not grow the
// goroutine stack.
func Order(nodes []int32, adj map[int32][]int32) []int32 {
	const (
		unseen = iota
		open
		done
	)
	state := make(map[int32]uint8, len(nodes))
	post := make([]int32, 0, len(nodes))
	type frame struct {
		n int32
		i int
	}
	var stack []frame
	for _, root := range nodes {
		if state[root] != unseen {
			continue
		}
		state[root] = open
		stack = append(stack[:0], frame{n: root})
		for len(stack) > 0 {
			top := &stack[len(stack)-1]
			kids := adj[top.n]
			if top.i < len(kids) {
				k := kids[top.i]
				top.i++
				if state[k] == unseen {
					state[k] = open
					stack = append(stack, frame{n: k})
				}
				continue
			}
			state[top.n] = done
			post = append(post, top.n)
			stack = stack[:len(stack)-1]
		}
	}
	for i, j := 0, len(post)-1; i < j; i, j = i+1, j-1 {
		post[i], post[j] = post[j], post[i]
	}
	return post
}
