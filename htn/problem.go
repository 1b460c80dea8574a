// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package htn

// Domain is the lifted domain description as read from a domain file.
//
// Parameters are written "?x - sort".  Literals are written "(p a ?x)" or
// "(not (p a ?x))", and "(= ?x ?y)" is the built-in equality.
type Domain struct {
	Name       string              `yaml:"name"`
	Sorts      map[string][]string `yaml:"sorts"`
	Constants  map[string][]string `yaml:"constants"`
	Predicates map[string][]string `yaml:"predicates"`
	Tasks      map[string][]string `yaml:"tasks"`
	Actions    []ActionDef         `yaml:"actions"`
	Methods    []MethodDef         `yaml:"methods"`
}

// ActionDef describes a primitive task.
type ActionDef struct {
	Name   string   `yaml:"name"`
	Params []string `yaml:"params"`
	Pre    []string `yaml:"pre"`
	Eff    []string `yaml:"eff"`
	Cost   *int     `yaml:"cost,omitempty"`
}

// MethodDef describes a decomposition of an abstract task.
type MethodDef struct {
	Name     string   `yaml:"name"`
	Params   []string `yaml:"params"`
	Task     string   `yaml:"task"`
	Pre      []string `yaml:"pre"`
	Subtasks []string `yaml:"subtasks"`
}

// Problem is a domain plus the objects, initial state, goal and initial
// task network of one planning problem.
type Problem struct {
	Domain  Domain              `yaml:"-"`
	Name    string              `yaml:"name"`
	Objects map[string][]string `yaml:"objects"`
	Init    []string            `yaml:"init"`
	Goal    []string            `yaml:"goal"`
	Tasks   []string            `yaml:"tasks"`
}
