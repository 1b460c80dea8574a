// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

// Package plan holds found plans and reads and writes their text format.
//
//	==>
//	0 move p1 l1 l2
//	root 1
//	1 deliver p1 l2 -> m-deliver 0
//	<==
package plan

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Step is one primitive action of a plan.
type Step struct {
	ID   int
	Name string
	Args []string
	Cost int
}

// Decomposition records that the task with ID was decomposed with Method
// into the tasks with ids Subtasks.
type Decomposition struct {
	ID       int
	Task     string
	Args     []string
	Method   string
	Subtasks []int
}

// Plan is a sequence of actions with the decomposition leading to it.
type Plan struct {
	Actions        []Step
	Root           []int
	Decompositions []Decomposition
	// Depth is the layer at which the plan was found.
	Depth int
}

// Cost sums the costs of the actions.
func (p *Plan) Cost() int {
	c := 0
	for i := range p.Actions {
		c += p.Actions[i].Cost
	}
	return c
}

// Len returns the number of actions.
func (p *Plan) Len() int {
	return len(p.Actions)
}

func line(w *bufio.Writer, id int, name string, args []string) {
	fmt.Fprintf(w, "%d %s", id, name)
	for _, a := range args {
		w.WriteByte(' ')
		w.WriteString(a)
	}
}

// Write writes p in text format.
func (p *Plan) Write(dst io.Writer) error {
	w := bufio.NewWriter(dst)
	w.WriteString("==>\n")
	for _, s := range p.Actions {
		line(w, s.ID, s.Name, s.Args)
		w.WriteByte('\n')
	}
	w.WriteString("root")
	for _, id := range p.Root {
		fmt.Fprintf(w, " %d", id)
	}
	w.WriteByte('\n')
	for _, d := range p.Decompositions {
		line(w, d.ID, d.Task, d.Args)
		fmt.Fprintf(w, " -> %s", d.Method)
		for _, id := range d.Subtasks {
			fmt.Fprintf(w, " %d", id)
		}
		w.WriteByte('\n')
	}
	w.WriteString("<==\n")
	return w.Flush()
}

func (p *Plan) String() string {
	var b strings.Builder
	p.Write(&b)
	return b.String()
}

func ints(fs []string) ([]int, error) {
	res := make([]int, len(fs))
	for i, f := range fs {
		n, err := strconv.Atoi(f)
		if err != nil {
			return nil, err
		}
		res[i] = n
	}
	return res, nil
}

// Parse reads a plan in text format.  Text before the header is skipped.
// Costs are not part of the format and read as zero.
func Parse(r io.Reader) (*Plan, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 16*1024*1024)
	p := &Plan{}
	ln := 0
	started, root := false, false
	for sc.Scan() {
		ln++
		s := strings.TrimSpace(sc.Text())
		if !started {
			started = s == "==>"
			continue
		}
		if s == "<==" {
			return p, nil
		}
		if s == "" {
			continue
		}
		fs := strings.Fields(s)
		if fs[0] == "root" {
			ids, err := ints(fs[1:])
			if err != nil {
				return nil, fmt.Errorf("line %d: root: %w", ln, err)
			}
			p.Root = ids
			root = true
			continue
		}
		if len(fs) < 2 {
			return nil, fmt.Errorf("line %d: short line %q", ln, s)
		}
		id, err := strconv.Atoi(fs[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", ln, err)
		}
		arrow := -1
		for i, f := range fs {
			if f == "->" {
				arrow = i
				break
			}
		}
		if arrow < 0 {
			if root {
				return nil, fmt.Errorf("line %d: action after root", ln)
			}
			p.Actions = append(p.Actions, Step{ID: id, Name: fs[1], Args: fs[2:]})
			continue
		}
		if arrow < 2 || arrow+1 >= len(fs) {
			return nil, fmt.Errorf("line %d: malformed decomposition %q", ln, s)
		}
		subs, err := ints(fs[arrow+2:])
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", ln, err)
		}
		p.Decompositions = append(p.Decompositions, Decomposition{
			ID:       id,
			Task:     fs[1],
			Args:     fs[2:arrow],
			Method:   fs[arrow+1],
			Subtasks: subs})
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}
	if !started {
		return nil, fmt.Errorf("no plan header")
	}
	return nil, fmt.Errorf("unterminated plan")
}

// Check verifies that ids are unique, that every referenced id exists and
// that every action is reached from the root exactly once.
func (p *Plan) Check() error {
	kind := make(map[int]byte)
	for _, s := range p.Actions {
		if _, dup := kind[s.ID]; dup {
			return fmt.Errorf("duplicate id %d", s.ID)
		}
		kind[s.ID] = 'a'
	}
	subs := make(map[int][]int)
	for _, d := range p.Decompositions {
		if _, dup := kind[d.ID]; dup {
			return fmt.Errorf("duplicate id %d", d.ID)
		}
		kind[d.ID] = 'r'
		subs[d.ID] = d.Subtasks
	}
	seen := make(map[int]bool)
	stack := append([]int(nil), p.Root...)
	for len(stack) > 0 {
		id := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := kind[id]; !ok {
			return fmt.Errorf("undefined id %d", id)
		}
		if seen[id] {
			return fmt.Errorf("id %d reached twice", id)
		}
		seen[id] = true
		stack = append(stack, subs[id]...)
	}
	for _, s := range p.Actions {
		if !seen[s.ID] {
			return fmt.Errorf("action %d not reached from root", s.ID)
		}
	}
	return nil
}
