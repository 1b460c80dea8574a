// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package htn

import (
	"fmt"
	"sort"
	"strings"
)

const (
	// BlankName is the no-op filling unused expansion offsets.
	BlankName = "__blank"
	// GoalName is the action whose preconditions are the goal.
	GoalName = "__goal"
	// EqName is the built-in rigid equality predicate.
	EqName = "="

	virtualPrefix = "__v_"
)

// Instance is a problem with all names interned and literals resolved.
// Operators are kept lifted; ground operators are built on demand by Op.
type Instance struct {
	Names *Names
	Q     *QPool

	Eq    int32
	Blank *Action
	Goal  *Action

	// Init holds every initially true atom, rigid or not.
	Init    map[USig]struct{}
	Network []USig

	sortOf    map[int32]map[int32]struct{}
	members   map[int32][]int32
	predSorts map[int32][]int32
	taskSorts map[int32][]int32
	actions   map[int32]*Action
	methods   map[int32]*Reduction
	methodsOf map[int32][]int32
	fluent    map[int32]bool
	virtual   map[int32]int32
	canonical map[int32]int32
	ground    map[USig]Operator
	actNames  []int32
	mthNames  []int32
}

// NewInstance resolves p.
func NewInstance(p *Problem) (*Instance, error) {
	names := NewNames()
	in := &Instance{
		Names:     names,
		Q:         newQPool(names),
		Init:      make(map[USig]struct{}),
		sortOf:    make(map[int32]map[int32]struct{}),
		members:   make(map[int32][]int32),
		predSorts: make(map[int32][]int32),
		taskSorts: make(map[int32][]int32),
		actions:   make(map[int32]*Action),
		methods:   make(map[int32]*Reduction),
		methodsOf: make(map[int32][]int32),
		fluent:    make(map[int32]bool),
		virtual:   make(map[int32]int32),
		canonical: make(map[int32]int32),
		ground:    make(map[USig]Operator)}
	in.Eq = names.Intern(EqName, KPred)
	d := &p.Domain
	if err := in.addSorts(d.Sorts, d.Constants, p.Objects); err != nil {
		return nil, err
	}
	for _, name := range sortedKeys(d.Predicates) {
		id := names.Intern(name, KPred)
		ss, err := in.sortIDs(d.Predicates[name])
		if err != nil {
			return nil, fmt.Errorf("predicate %s: %w", name, err)
		}
		in.predSorts[id] = ss
	}
	for _, name := range sortedKeys(d.Tasks) {
		id := names.Intern(name, KTask)
		ss, err := in.sortIDs(d.Tasks[name])
		if err != nil {
			return nil, fmt.Errorf("task %s: %w", name, err)
		}
		in.taskSorts[id] = ss
	}
	for i := range d.Actions {
		if err := in.addAction(&d.Actions[i]); err != nil {
			return nil, fmt.Errorf("action %s: %w", d.Actions[i].Name, err)
		}
	}
	for i := range d.Methods {
		if err := in.addMethod(&d.Methods[i]); err != nil {
			return nil, fmt.Errorf("method %s: %w", d.Methods[i].Name, err)
		}
	}
	for _, s := range p.Init {
		lit, err := ParseLit(s)
		if err != nil {
			return nil, fmt.Errorf("init: %w", err)
		}
		u, err := in.groundAtom(lit)
		if err != nil || lit.Neg {
			return nil, fmt.Errorf("init %s: not a ground atom", s)
		}
		in.Init[u] = struct{}{}
	}
	goal := make([]Sig, 0, len(p.Goal))
	for _, s := range p.Goal {
		lit, err := ParseLit(s)
		if err != nil {
			return nil, fmt.Errorf("goal: %w", err)
		}
		u, err := in.groundAtom(lit)
		if err != nil {
			return nil, fmt.Errorf("goal %s: %w", s, err)
		}
		goal = append(goal, Sig{USig: u, Neg: lit.Neg})
	}
	for _, s := range p.Tasks {
		u, err := in.groundTask(s)
		if err != nil {
			return nil, fmt.Errorf("task network: %w", err)
		}
		in.Network = append(in.Network, u)
	}
	in.Blank = in.syntheticAction(BlankName, nil)
	in.Goal = in.syntheticAction(GoalName, goal)
	in.addVirtuals()
	return in, nil
}

func sortedKeys(m map[string][]string) []string {
	ks := make([]string, 0, len(m))
	for k := range m {
		ks = append(ks, k)
	}
	sort.Strings(ks)
	return ks
}

func (in *Instance) addSorts(parents, consts, objs map[string][]string) error {
	for _, s := range sortedKeys(parents) {
		in.Names.Intern(s, KSort)
		for _, p := range parents[s] {
			in.Names.Intern(p, KSort)
		}
	}
	add := func(sort, obj string) {
		seen := map[string]bool{}
		stack := []string{sort}
		c := in.Names.Intern(obj, KConst)
		for len(stack) > 0 {
			s := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if seen[s] {
				continue
			}
			seen[s] = true
			id := in.Names.Intern(s, KSort)
			set := in.sortOf[id]
			if set == nil {
				set = make(map[int32]struct{})
				in.sortOf[id] = set
			}
			set[c] = struct{}{}
			stack = append(stack, parents[s]...)
		}
	}
	for _, m := range []map[string][]string{consts, objs} {
		for _, s := range sortedKeys(m) {
			for _, o := range m[s] {
				if in.Names.Kind(in.Names.Intern(o, KConst)) != KConst {
					return fmt.Errorf("object %s clashes with a declared name", o)
				}
				add(s, o)
			}
		}
	}
	for s, set := range in.sortOf {
		cs := make([]int32, 0, len(set))
		for c := range set {
			cs = append(cs, c)
		}
		sort.Slice(cs, func(i, j int) bool { return cs[i] < cs[j] })
		in.members[s] = cs
	}
	return nil
}

func (in *Instance) sortIDs(ss []string) ([]int32, error) {
	res := make([]int32, len(ss))
	for i, s := range ss {
		id, ok := in.Names.ID(s)
		if !ok || in.Names.Kind(id) != KSort {
			return nil, fmt.Errorf("unknown sort %s", s)
		}
		res[i] = id
	}
	return res, nil
}

type scope map[string]int32

func (in *Instance) params(ps []string) ([]int32, []int32, scope, error) {
	vars := make([]int32, len(ps))
	sorts := make([]int32, len(ps))
	sc := scope{}
	for i, p := range ps {
		v, s, err := ParseParam(p)
		if err != nil {
			return nil, nil, nil, err
		}
		if _, dup := sc[v]; dup {
			return nil, nil, nil, fmt.Errorf("duplicate parameter %s", v)
		}
		ss, err := in.sortIDs([]string{s})
		if err != nil {
			return nil, nil, nil, err
		}
		vars[i] = in.Names.Intern(v, KVar)
		sorts[i] = ss[0]
		sc[v] = vars[i]
	}
	return vars, sorts, sc, nil
}

func (in *Instance) args(ss []string, sc scope) ([]int32, error) {
	res := make([]int32, len(ss))
	for i, a := range ss {
		if strings.HasPrefix(a, "?") {
			v, ok := sc[a]
			if !ok {
				return nil, fmt.Errorf("undeclared variable %s", a)
			}
			res[i] = v
			continue
		}
		id, ok := in.Names.ID(a)
		if !ok || in.Names.Kind(id) != KConst {
			return nil, fmt.Errorf("unknown constant %s", a)
		}
		res[i] = id
	}
	return res, nil
}

func (in *Instance) literal(s string, sc scope) (Sig, error) {
	lit, err := ParseLit(s)
	if err != nil {
		return Sig{}, err
	}
	id, ok := in.Names.ID(lit.Name)
	if !ok || in.Names.Kind(id) != KPred {
		return Sig{}, fmt.Errorf("unknown predicate %s", lit.Name)
	}
	want := 2
	if id != in.Eq {
		want = len(in.predSorts[id])
	}
	if len(lit.Args) != want {
		return Sig{}, fmt.Errorf("%s: arity %d, want %d", s, len(lit.Args), want)
	}
	args, err := in.args(lit.Args, sc)
	if err != nil {
		return Sig{}, fmt.Errorf("%s: %w", s, err)
	}
	return Sig{USig: NewUSig(id, args...), Neg: lit.Neg}, nil
}

func (in *Instance) literals(ss []string, sc scope) ([]Sig, error) {
	res := make([]Sig, 0, len(ss))
	for _, s := range ss {
		l, err := in.literal(s, sc)
		if err != nil {
			return nil, err
		}
		res = append(res, l)
	}
	return res, nil
}

func (in *Instance) taskRef(s string, sc scope) (USig, error) {
	lit, err := ParseLit(s)
	if err != nil {
		return USig{}, err
	}
	if lit.Neg {
		return USig{}, fmt.Errorf("negated task %s", s)
	}
	id, ok := in.Names.ID(lit.Name)
	if !ok {
		return USig{}, fmt.Errorf("unknown task %s", lit.Name)
	}
	var want int
	switch in.Names.Kind(id) {
	case KTask:
		want = len(in.taskSorts[id])
	case KAction:
		want = len(in.actions[id].Sorts)
	default:
		return USig{}, fmt.Errorf("%s is not a task", lit.Name)
	}
	if len(lit.Args) != want {
		return USig{}, fmt.Errorf("%s: arity %d, want %d", s, len(lit.Args), want)
	}
	args, err := in.args(lit.Args, sc)
	if err != nil {
		return USig{}, fmt.Errorf("%s: %w", s, err)
	}
	return NewUSig(id, args...), nil
}

func (in *Instance) addAction(d *ActionDef) error {
	if _, ok := in.Names.ID(d.Name); ok {
		return fmt.Errorf("name already declared")
	}
	vars, sorts, sc, err := in.params(d.Params)
	if err != nil {
		return err
	}
	pre, err := in.literals(d.Pre, sc)
	if err != nil {
		return err
	}
	eff, err := in.literals(d.Eff, sc)
	if err != nil {
		return err
	}
	cost := 1
	if d.Cost != nil {
		cost = *d.Cost
	}
	if cost < 0 {
		return fmt.Errorf("negative cost %d", cost)
	}
	id := in.Names.Intern(d.Name, KAction)
	for _, e := range eff {
		if e.Name == in.Eq {
			return fmt.Errorf("equality in effect")
		}
		in.fluent[e.Name] = true
	}
	in.actions[id] = &Action{Sig: NewUSig(id, vars...), Sorts: sorts, Pre: pre, Eff: eff, Cost: cost}
	in.actNames = append(in.actNames, id)
	return nil
}

func (in *Instance) addMethod(d *MethodDef) error {
	if _, ok := in.Names.ID(d.Name); ok {
		return fmt.Errorf("name already declared")
	}
	vars, sorts, sc, err := in.params(d.Params)
	if err != nil {
		return err
	}
	task, err := in.taskRef(d.Task, sc)
	if err != nil {
		return err
	}
	if in.Names.Kind(task.Name) != KTask {
		return fmt.Errorf("method of primitive task %s", in.Names.Name(task.Name))
	}
	pre, err := in.literals(d.Pre, sc)
	if err != nil {
		return err
	}
	subs := make([]USig, len(d.Subtasks))
	for i, s := range d.Subtasks {
		if subs[i], err = in.taskRef(s, sc); err != nil {
			return err
		}
	}
	id := in.Names.Intern(d.Name, KMethod)
	in.methods[id] = &Reduction{Sig: NewUSig(id, vars...), Sorts: sorts, Task: task, Pre: pre, Subtasks: subs}
	in.methodsOf[task.Name] = append(in.methodsOf[task.Name], id)
	in.mthNames = append(in.mthNames, id)
	return nil
}

func (in *Instance) groundAtom(lit Lit) (USig, error) {
	s, err := in.literal(Lit{Name: lit.Name, Args: lit.Args}.String(), nil)
	if err != nil {
		return USig{}, err
	}
	return s.USig, nil
}

func (in *Instance) groundTask(s string) (USig, error) {
	return in.taskRef(s, nil)
}

func (in *Instance) syntheticAction(name string, pre []Sig) *Action {
	id := in.Names.Intern(name, KAction)
	a := &Action{Sig: NewUSig(id), Pre: pre}
	in.actions[id] = a
	return a
}

func (in *Instance) addVirtuals() {
	for _, id := range in.actNames {
		a := in.actions[id]
		v := in.Names.Intern(virtualPrefix+in.Names.Name(id), KAction)
		in.actions[v] = &Action{Sig: NewUSig(v, a.Sig.Args()...), Sorts: a.Sorts, Pre: a.Pre, Eff: a.Eff, Cost: a.Cost}
		in.virtual[id] = v
		in.canonical[v] = id
	}
}

// Action returns the lifted action named id, or nil.
func (in *Instance) Action(id int32) *Action { return in.actions[id] }

// Method returns the lifted method named id, or nil.
func (in *Instance) Method(id int32) *Reduction { return in.methods[id] }

// IsAction reports whether id names an action, including synthetic ones.
func (in *Instance) IsAction(id int32) bool { return in.actions[id] != nil }

// Actions returns the names of the declared actions in declaration order.
func (in *Instance) Actions() []int32 { return in.actNames }

// Methods returns the names of all methods in declaration order.
func (in *Instance) Methods() []int32 { return in.mthNames }

// MethodsOf returns the methods decomposing task.
func (in *Instance) MethodsOf(task int32) []int32 { return in.methodsOf[task] }

// Constants returns the sorted members of sort s.
func (in *Instance) Constants(s int32) []int32 { return in.members[s] }

// InSort reports whether constant c belongs to sort s.
func (in *Instance) InSort(c, s int32) bool {
	_, ok := in.sortOf[s][c]
	return ok
}

// PredSorts returns the argument sorts of predicate p.
func (in *Instance) PredSorts(p int32) []int32 { return in.predSorts[p] }

// IsRigid reports whether no action changes predicate p.
func (in *Instance) IsRigid(p int32) bool { return !in.fluent[p] }

// RigidHolds evaluates the ground rigid atom f.
func (in *Instance) RigidHolds(f USig) bool {
	if f.Name == in.Eq {
		return f.Arg(0) == f.Arg(1)
	}
	_, ok := in.Init[f]
	return ok
}

// Virtual returns the virtualized twin of action name id.
func (in *Instance) Virtual(id int32) (int32, bool) {
	v, ok := in.virtual[id]
	return v, ok
}

// Canonical maps a virtualized action name to its original; other names
// are returned unchanged.
func (in *Instance) Canonical(id int32) int32 {
	if c, ok := in.canonical[id]; ok {
		return c
	}
	return id
}

// IsSynthetic reports whether id is the blank or the goal action.
func (in *Instance) IsSynthetic(id int32) bool {
	return id == in.Blank.Sig.Name || id == in.Goal.Sig.Name
}

// Lifted returns the lifted operator named id.
func (in *Instance) Lifted(id int32) Operator {
	if a := in.actions[id]; a != nil {
		return a
	}
	if m := in.methods[id]; m != nil {
		return m
	}
	return nil
}

// Op returns the operator u, instantiating and caching it if necessary.
func (in *Instance) Op(u USig) Operator {
	if op, ok := in.ground[u]; ok {
		return op
	}
	var op Operator
	if a := in.actions[u.Name]; a != nil {
		op = a.Instantiate(u.Args())
	} else if m := in.methods[u.Name]; m != nil {
		op = m.Instantiate(u.Args())
	} else {
		return nil
	}
	in.ground[u] = op
	return op
}

// Forget drops cached ground operators.
func (in *Instance) Forget() {
	in.ground = make(map[USig]Operator)
}

// Format renders u as "name arg1 arg2".
func (in *Instance) Format(u USig) string {
	var b strings.Builder
	b.WriteString(in.Names.Name(in.Canonical(u.Name)))
	for i, n := 0, u.Arity(); i < n; i++ {
		b.WriteByte(' ')
		b.WriteString(in.Names.Name(u.Arg(i)))
	}
	return b.String()
}

// FormatSig renders s in literal syntax.
func (in *Instance) FormatSig(s Sig) string {
	lit := Lit{Name: in.Names.Name(s.Name), Neg: s.Neg}
	for _, a := range s.Args() {
		lit.Args = append(lit.Args, in.Names.Name(a))
	}
	return lit.String()
}
