// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

// Package lilotane finds plans for hierarchical task network problems by
// lazily grounding the problem layer by layer and deciding each layer with
// an incremental SAT solver.
//
// Solve is the entry point for one problem.  Finer control over the search
// is available through package planner.
package lilotane

import (
	"context"
	"fmt"

	"github.com/domschrei/lilotane-sub000/htn"
	"github.com/domschrei/lilotane-sub000/internal/config"
	"github.com/domschrei/lilotane-sub000/plan"
	"github.com/domschrei/lilotane-sub000/planner"
)

// Params are the search parameters.
type Params = config.Params

// DefaultParams returns the default search parameters.
func DefaultParams() Params {
	return config.Default()
}

// Solve finds a plan for p.  The errors planner.ErrUnsolvable,
// planner.ErrExhausted and planner.ErrInterrupted tell why no plan was
// found.  A plan found before the search stopped is returned along with
// the error.
func Solve(ctx context.Context, p *htn.Problem, params Params, opts ...planner.Option) (*plan.Plan, error) {
	in, err := htn.NewInstance(p)
	if err != nil {
		return nil, fmt.Errorf("problem %s: %w", p.Name, err)
	}
	pl, err := planner.New(in, params, opts...)
	if err != nil {
		return nil, err
	}
	return pl.Plan(ctx)
}
