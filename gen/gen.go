// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package gen

import (
	"fmt"
	"math/rand"
	"sync"

	"github.com/domschrei/lilotane-sub000/htn"
)

// make the rng seedable
var rng = rand.New(rand.NewSource(33))
var mu sync.Mutex

func Seed(s int64) {
	mu.Lock()
	defer mu.Unlock()
	rng = rand.New(rand.NewSource(s))
}

// Chain generates a problem whose only task decomposes into actions
// a1 ... an, where ai needs the fact ai-1 leaves behind.
func Chain(n int) *htn.Problem {
	d := htn.Domain{
		Name:       fmt.Sprintf("chain-%d", n),
		Predicates: map[string][]string{},
		Tasks:      map[string][]string{"run": nil},
	}
	var subs []string
	for i := 1; i <= n; i++ {
		name := fmt.Sprintf("a%d", i)
		d.Predicates[fmt.Sprintf("p%d", i)] = nil
		a := htn.ActionDef{Name: name, Eff: []string{fmt.Sprintf("(p%d)", i)}}
		if i > 1 {
			a.Pre = []string{fmt.Sprintf("(p%d)", i-1)}
		}
		d.Actions = append(d.Actions, a)
		subs = append(subs, "("+name+")")
	}
	d.Methods = []htn.MethodDef{{Name: "m-run", Task: "(run)", Subtasks: subs}}
	p := &htn.Problem{Domain: d, Name: d.Name, Tasks: []string{"(run)"}}
	if n > 0 {
		p.Goal = []string{fmt.Sprintf("(p%d)", n)}
	}
	return p
}

// Ladder generates a problem where the task (climb rn) recursively climbs
// the rungs r0 ... rn one at a time.  Solving it takes n levels of
// recursion.
func Ladder(n int) *htn.Problem {
	rungs := make([]string, n+1)
	for i := range rungs {
		rungs[i] = fmt.Sprintf("r%d", i)
	}
	init := []string{"(on r0)"}
	for i := 0; i < n; i++ {
		init = append(init, fmt.Sprintf("(above %s %s)", rungs[i], rungs[i+1]))
	}
	return &htn.Problem{
		Domain: htn.Domain{
			Name:       "ladder",
			Sorts:      map[string][]string{"rung": nil},
			Predicates: map[string][]string{"on": {"rung"}, "above": {"rung", "rung"}},
			Tasks:      map[string][]string{"climb": {"rung"}},
			Actions: []htn.ActionDef{{
				Name:   "up",
				Params: []string{"?a - rung", "?b - rung"},
				Pre:    []string{"(on ?a)", "(above ?a ?b)"},
				Eff:    []string{"(not (on ?a))", "(on ?b)"},
			}},
			Methods: []htn.MethodDef{
				{
					Name:   "m-there",
					Params: []string{"?t - rung"},
					Task:   "(climb ?t)",
					Pre:    []string{"(on ?t)"},
				},
				{
					Name:     "m-step",
					Params:   []string{"?a - rung", "?b - rung", "?t - rung"},
					Task:     "(climb ?t)",
					Subtasks: []string{"(up ?a ?b)", "(climb ?t)"},
				},
			},
		},
		Name:    fmt.Sprintf("ladder-%d", n),
		Objects: map[string][]string{"rung": rungs},
		Init:    init,
		Goal:    []string{fmt.Sprintf("(on %s)", rungs[n])},
		Tasks:   []string{fmt.Sprintf("(climb %s)", rungs[n])},
	}
}

// Transport generates a problem with k packages on a line of m locations
// joined by roads in both directions.  Each package starts at a random
// location and must be delivered to a random location.  Packages are
// driven on their own and deliveries choose their route freely.
func Transport(k, m int) *htn.Problem {
	mu.Lock()
	defer mu.Unlock()
	pkgs := make([]string, k)
	locs := make([]string, m)
	for i := range pkgs {
		pkgs[i] = fmt.Sprintf("p%d", i+1)
	}
	for i := range locs {
		locs[i] = fmt.Sprintf("l%d", i+1)
	}
	var init, goal, tasks []string
	for i := 0; i+1 < m; i++ {
		init = append(init,
			fmt.Sprintf("(road %s %s)", locs[i], locs[i+1]),
			fmt.Sprintf("(road %s %s)", locs[i+1], locs[i]))
	}
	for _, p := range pkgs {
		from, to := locs[rng.Intn(m)], locs[rng.Intn(m)]
		init = append(init, fmt.Sprintf("(at %s %s)", p, from))
		goal = append(goal, fmt.Sprintf("(at %s %s)", p, to))
		tasks = append(tasks, fmt.Sprintf("(deliver %s %s)", p, to))
	}
	return &htn.Problem{
		Domain: htn.Domain{
			Name:       "transport",
			Sorts:      map[string][]string{"pkg": {"obj"}, "loc": {"obj"}},
			Predicates: map[string][]string{"at": {"pkg", "loc"}, "road": {"loc", "loc"}},
			Tasks:      map[string][]string{"deliver": {"pkg", "loc"}},
			Actions: []htn.ActionDef{{
				Name:   "drive",
				Params: []string{"?p - pkg", "?a - loc", "?b - loc"},
				Pre:    []string{"(at ?p ?a)", "(road ?a ?b)", "(not (= ?a ?b))"},
				Eff:    []string{"(not (at ?p ?a))", "(at ?p ?b)"},
			}},
			Methods: []htn.MethodDef{
				{
					Name:   "m-arrived",
					Params: []string{"?p - pkg", "?l - loc"},
					Task:   "(deliver ?p ?l)",
					Pre:    []string{"(at ?p ?l)"},
				},
				{
					Name:     "m-drive",
					Params:   []string{"?p - pkg", "?a - loc", "?b - loc", "?l - loc"},
					Task:     "(deliver ?p ?l)",
					Pre:      []string{"(not (at ?p ?l))"},
					Subtasks: []string{"(drive ?p ?a ?b)", "(deliver ?p ?l)"},
				},
			},
		},
		Name:    fmt.Sprintf("transport-%d-%d", k, m),
		Objects: map[string][]string{"pkg": pkgs, "loc": locs},
		Init:    init,
		Goal:    goal,
		Tasks:   tasks,
	}
}

// effect sets of the actions of Random; none adds and deletes the same
// fact for any binding.
var randomEffects = [][]string{
	{"(p ?y)"},
	{"(q ?x ?y)", "(not (p ?x))"},
	{"(p ?x)", "(not (q ?x ?y))"},
	{"(q ?y ?x)"},
}

var randomPre = []string{"(p ?x)", "(not (p ?y))", "(q ?x ?y)", "(link ?x ?y)", "(not (q ?y ?x))"}

// Random generates a small problem over n objects: three actions with
// random preconditions and effects, a task (t ?a ?b) reached directly,
// through an intermediate object or recursively, and a top level task
// decomposed into t with free and repeated arguments.  The rigid
// predicate link only appears in preconditions.
func Random(n int) *htn.Problem {
	mu.Lock()
	defer mu.Unlock()
	objs := make([]string, n)
	for i := range objs {
		objs[i] = fmt.Sprintf("o%d", i+1)
	}
	params := []string{"?x - obj", "?y - obj"}
	var acts []htn.ActionDef
	for i := 1; i <= 3; i++ {
		a := htn.ActionDef{
			Name:   fmt.Sprintf("a%d", i),
			Params: params,
			Eff:    randomEffects[rng.Intn(len(randomEffects))],
		}
		for _, f := range randomPre {
			if rng.Intn(3) == 0 {
				a.Pre = append(a.Pre, f)
			}
		}
		acts = append(acts, a)
	}
	act := func() string {
		return acts[rng.Intn(len(acts))].Name
	}
	var link []string
	if rng.Intn(2) == 0 {
		link = []string{"(link ?a ?c)"}
	}
	methods := []htn.MethodDef{
		{
			Name:     "m-direct",
			Params:   []string{"?a - obj", "?b - obj"},
			Task:     "(t ?a ?b)",
			Subtasks: []string{fmt.Sprintf("(%s ?a ?b)", act())},
		},
		{
			Name:     "m-via",
			Params:   []string{"?a - obj", "?b - obj", "?c - obj"},
			Task:     "(t ?a ?b)",
			Pre:      link,
			Subtasks: []string{fmt.Sprintf("(%s ?a ?c)", act()), fmt.Sprintf("(%s ?c ?b)", act())},
		},
		{
			Name:     "m-rec",
			Params:   []string{"?a - obj", "?b - obj", "?c - obj"},
			Task:     "(t ?a ?b)",
			Subtasks: []string{fmt.Sprintf("(%s ?a ?c)", act()), "(t ?c ?b)"},
		},
		{
			Name:     "m-same",
			Params:   []string{"?x - obj"},
			Task:     "(top)",
			Subtasks: []string{"(t ?x ?x)"},
		},
	}
	firsts := []string{"(t ?x ?y)", "(t ?y ?x)"}
	seconds := []string{"(t ?y ?z)", "(t ?z ?z)", fmt.Sprintf("(%s ?z ?x)", act())}
	pair := htn.MethodDef{
		Name:     "m-pair",
		Params:   []string{"?x - obj", "?y - obj", "?z - obj"},
		Task:     "(top)",
		Subtasks: []string{firsts[rng.Intn(len(firsts))], seconds[rng.Intn(len(seconds))]},
	}
	if rng.Intn(2) == 0 {
		pair.Pre = []string{"(link ?x ?y)"}
	}
	methods = append(methods, pair)

	var init []string
	for _, a := range objs {
		if rng.Intn(3) == 0 {
			init = append(init, fmt.Sprintf("(p %s)", a))
		}
		for _, b := range objs {
			if rng.Intn(2) == 0 {
				init = append(init, fmt.Sprintf("(link %s %s)", a, b))
			}
			if rng.Intn(4) == 0 {
				init = append(init, fmt.Sprintf("(q %s %s)", a, b))
			}
		}
	}
	var goal string
	if rng.Intn(2) == 0 {
		goal = fmt.Sprintf("(p %s)", objs[rng.Intn(n)])
	} else {
		goal = fmt.Sprintf("(q %s %s)", objs[rng.Intn(n)], objs[rng.Intn(n)])
	}
	return &htn.Problem{
		Domain: htn.Domain{
			Name:  "random",
			Sorts: map[string][]string{"obj": nil},
			Predicates: map[string][]string{
				"p":    {"obj"},
				"q":    {"obj", "obj"},
				"link": {"obj", "obj"},
			},
			Tasks:   map[string][]string{"top": nil, "t": {"obj", "obj"}},
			Actions: acts,
			Methods: methods,
		},
		Name:    fmt.Sprintf("random-%d", n),
		Objects: map[string][]string{"obj": objs},
		Init:    init,
		Goal:    []string{goal},
		Tasks:   []string{"(top)"},
	}
}
