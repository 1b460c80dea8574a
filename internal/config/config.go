// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

// Package config holds the planner parameters.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Params are the planner parameters.  Zero durations and depths mean no
// limit.
type Params struct {
	// MinDepth is the first layer at which the solver is called.
	MinDepth int `yaml:"min_depth"`
	// MaxDepth is the last layer built.
	MaxDepth int `yaml:"max_depth"`
	// SolveTimeout limits each solver call until the first one times out.
	SolveTimeout time.Duration `yaml:"solve_timeout"`
	// PlanTimeout limits the search for the first plan.
	PlanTimeout time.Duration `yaml:"plan_timeout"`

	// AnytimeLayers is the number of layers built after the first plan.
	AnytimeLayers int `yaml:"anytime_layers"`
	// Optimize minimizes plan cost at each solved layer.
	Optimize bool `yaml:"optimize"`
	// OptimizeFactor bounds optimization time by this multiple of the time
	// taken to find the first plan.  Zero means no bound.
	OptimizeFactor float64 `yaml:"optimize_factor"`

	Virtualize          bool `yaml:"virtualize"`
	Dominate            bool `yaml:"dominate"`
	NonPrimitiveSupport bool `yaml:"nonprimitive_support"`
	QConstMutex         bool `yaml:"qconst_mutex"`
	CheckUnsolvable     bool `yaml:"check_unsolvable"`

	// Solver names the backend, "gini" or "gophersat".
	Solver string `yaml:"solver"`
	// Dump names a file receiving every clause and assumption in icnf
	// format.
	Dump string `yaml:"dump"`
	// Seed seeds the problem generators.
	Seed int64 `yaml:"seed"`
}

// Default returns the default parameters.
func Default() Params {
	return Params{
		Dominate:        true,
		CheckUnsolvable: true,
		OptimizeFactor:  1,
		Solver:          "gini",
		Seed:            1}
}

// Load overlays the YAML file at path on p.  Unknown keys are an error.
func Load(path string, p *Params) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config: %w", err)
	}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(p); err != nil {
		return fmt.Errorf("parsing config %s: %w", path, err)
	}
	return nil
}

// Validate reports inconsistent parameters.
func (p *Params) Validate() error {
	var errs []error
	if p.MinDepth < 0 {
		errs = append(errs, fmt.Errorf("min_depth %d < 0", p.MinDepth))
	}
	if p.MaxDepth < 0 {
		errs = append(errs, fmt.Errorf("max_depth %d < 0", p.MaxDepth))
	}
	if p.MaxDepth > 0 && p.MinDepth > p.MaxDepth {
		errs = append(errs, fmt.Errorf("min_depth %d > max_depth %d", p.MinDepth, p.MaxDepth))
	}
	if p.SolveTimeout < 0 || p.PlanTimeout < 0 {
		errs = append(errs, errors.New("negative timeout"))
	}
	if p.AnytimeLayers < 0 {
		errs = append(errs, fmt.Errorf("anytime_layers %d < 0", p.AnytimeLayers))
	}
	if p.OptimizeFactor < 0 {
		errs = append(errs, fmt.Errorf("optimize_factor %g < 0", p.OptimizeFactor))
	}
	switch p.Solver {
	case "", "gini", "gophersat":
	default:
		errs = append(errs, fmt.Errorf("unknown solver %q", p.Solver))
	}
	return errors.Join(errs...)
}

// Marshal renders p as YAML.
func (p *Params) Marshal() ([]byte, error) {
	return yaml.Marshal(p)
}
