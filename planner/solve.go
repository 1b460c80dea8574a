// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-air/gini/z"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/domschrei/lilotane-sub000/sat"
)

// solveLayer asks whether the last layer admits a primitive plan.  If so
// the plan is decoded and recorded.
func (p *Planner) solveLayer(ctx context.Context) (bool, error) {
	l := p.Depth()
	ly := p.layers[l]
	ms, ok := p.enc.Assumptions(ly)
	if !ok {
		p.log.Debug("layer not primitive", "layer", l)
		return false, nil
	}
	switch res := p.solve(ctx, ms, p.deadline()); res {
	case sat.Sat:
		pl, err := p.enc.Decode(p.layers)
		if err != nil {
			return false, err
		}
		p.record(pl)
		return true, nil
	case sat.Unsat:
		if ly.Primitive() {
			return false, fmt.Errorf("%w: layer %d is primitive and has no plan", ErrUnsolvable, l)
		}
		if p.params.CheckUnsolvable && len(ms) > 0 {
			if p.unsolvable(ctx) {
				return false, fmt.Errorf("%w: layer %d is unsatisfiable without assumptions", ErrUnsolvable, l)
			}
		}
		return false, nil
	default:
		if err := p.expired(ctx); err != nil {
			return false, err
		}
		if p.solveTimeout > 0 {
			p.log.Warn("solver timed out, disabling per-call timeout", "layer", l, "timeout", p.solveTimeout)
			p.solveTimeout = 0
		}
		return false, nil
	}
}

// unsolvable reports whether the clauses added so far are unsatisfiable
// without assumptions.  The check runs on a fresh solver loaded with a copy
// of the clauses; the incremental solver is only called under assumptions.
func (p *Planner) unsolvable(ctx context.Context) bool {
	s, err := sat.New(p.params.Solver)
	if err != nil {
		p.log.Warn("unsolvability check", "err", err)
		return false
	}
	defer s.Release()
	p.clauses.CopyTo(s)
	return p.solveOn(ctx, s, nil, p.deadline()) == sat.Unsat
}

// solve runs the solver under assumptions ms until deadline, if any.
func (p *Planner) solve(ctx context.Context, ms []z.Lit, deadline time.Time) int {
	return p.solveOn(ctx, p.solver, ms, deadline)
}

func (p *Planner) solveOn(ctx context.Context, s sat.Solver, ms []z.Lit, deadline time.Time) int {
	ctx, span := p.tracer.Start(ctx, "solve", trace.WithAttributes(
		attribute.Int("layer", p.Depth()),
		attribute.Int("assumptions", len(ms))))
	defer span.End()
	limit := p.solveTimeout
	if !deadline.IsZero() {
		left := deadline.Sub(p.clock.Now())
		if left <= 0 {
			return sat.Unknown
		}
		if limit == 0 || left < limit {
			limit = left
		}
	}
	if limit > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, limit)
		defer cancel()
	}
	start := time.Now()
	s.Assume(ms...)
	res := s.Solve(ctx)
	d := time.Since(start)
	p.stats.Solves.WithLabelValues(sat.ResultString(res)).Inc()
	p.stats.SolveSeconds.Observe(d.Seconds())
	span.SetAttributes(attribute.String("result", sat.ResultString(res)))
	p.log.Info("solved", "layer", p.Depth(), "result", sat.ResultString(res), "duration", d)
	return res
}

// improve looks for cheaper plans once one is found: by bounding the cost
// at the solved layer and by solving further layers.  It stops quietly
// when a budget runs out.
func (p *Planner) improve(ctx context.Context) {
	if err := p.optimize(ctx); err != nil {
		p.log.Debug("optimization stopped", "err", err)
		return
	}
	for i := 0; i < p.params.AnytimeLayers && p.best.Cost() > 0; i++ {
		if err := p.layer(ctx, p.expand); err != nil {
			p.log.Debug("anytime search stopped", "err", err)
			return
		}
		ly := p.layers[p.Depth()]
		ms, ok := p.enc.Assumptions(ly)
		if !ok {
			continue
		}
		card := sat.NewCard(p.enc.CostLits(ly), p.enc, p.enc.Lit)
		ms = append(ms, card.Leq(p.best.Cost()-1))
		if p.solve(ctx, ms, time.Time{}) != sat.Sat {
			continue
		}
		pl, err := p.enc.Decode(p.layers)
		if err != nil {
			p.log.Error("decoding anytime plan", "err", err)
			return
		}
		p.record(pl)
		if err := p.optimize(ctx); err != nil {
			return
		}
	}
}

// optimize bounds the cost of plans at the last layer below the best cost
// until no cheaper plan exists or the budget runs out.
func (p *Planner) optimize(ctx context.Context) error {
	if !p.params.Optimize {
		return nil
	}
	var deadline time.Time
	if p.params.OptimizeFactor > 0 {
		budget := time.Duration(p.params.OptimizeFactor * float64(p.firstPlan))
		if budget < time.Millisecond {
			budget = time.Millisecond
		}
		deadline = p.clock.Now().Add(budget)
	}
	ly := p.layers[p.Depth()]
	ms, ok := p.enc.Assumptions(ly)
	if !ok {
		return nil
	}
	card := sat.NewCard(p.enc.CostLits(ly), p.enc, p.enc.Lit)
	for p.best.Cost() > 0 {
		if ctx.Err() != nil {
			return ErrInterrupted
		}
		bound := card.Leq(p.best.Cost() - 1)
		switch p.solve(ctx, append(ms[:len(ms):len(ms)], bound), deadline) {
		case sat.Sat:
			pl, err := p.enc.Decode(p.layers)
			if err != nil {
				return err
			}
			if !p.record(pl) {
				return errors.New("optimization found no cheaper plan")
			}
		case sat.Unsat:
			p.log.Info("plan is optimal at this depth", "layer", p.Depth(), "cost", p.best.Cost())
			return nil
		default:
			return ErrExhausted
		}
	}
	return nil
}
