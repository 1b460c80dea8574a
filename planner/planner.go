// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

// Package planner finds HTN plans by growing the planning graph one layer
// at a time and asking a SAT solver after each layer whether the layer
// admits a primitive plan.
package planner

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/go-air/gini/z"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/time/rate"

	"github.com/domschrei/lilotane-sub000/analysis"
	"github.com/domschrei/lilotane-sub000/encode"
	"github.com/domschrei/lilotane-sub000/htn"
	"github.com/domschrei/lilotane-sub000/internal/clock"
	"github.com/domschrei/lilotane-sub000/internal/config"
	"github.com/domschrei/lilotane-sub000/internal/stats"
	"github.com/domschrei/lilotane-sub000/layer"
	"github.com/domschrei/lilotane-sub000/plan"
	"github.com/domschrei/lilotane-sub000/sat"
)

// State is the phase of a planner.
type State int

const (
	BuildLayer0 State = iota
	ExpandLayer
	Solved
	Exhausted
)

func (s State) String() string {
	switch s {
	case BuildLayer0:
		return "build-layer-0"
	case ExpandLayer:
		return "expand-layer"
	case Solved:
		return "solved"
	default:
		return "exhausted"
	}
}

// Planner searches one problem instance.  A Planner is used once.
type Planner struct {
	in     *htn.Instance
	an     *analysis.Analysis
	dec    *layer.Decoder
	params config.Params

	solver  sat.Solver
	clauses *sat.Clauses
	enc     *encode.Encoder

	log      *slog.Logger
	tracer   trace.Tracer
	stats    *stats.Stats
	clock    clock.Clock
	progress rate.Sometimes
	onPlan   func(*plan.Plan)
	hook     func(layer, pos int)

	layers       []*layer.Layer
	state        State
	best         *plan.Plan
	start        time.Time
	firstPlan    time.Duration
	solveTimeout time.Duration
}

// Option configures a Planner.
type Option func(*Planner)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Planner) { p.log = l }
}

// WithTracer sets the tracer.
func WithTracer(t trace.Tracer) Option {
	return func(p *Planner) { p.tracer = t }
}

// WithStats sets the metrics registry.
func WithStats(s *stats.Stats) Option {
	return func(p *Planner) { p.stats = s }
}

// WithClock sets the clock deadlines are measured with.
func WithClock(c clock.Clock) Option {
	return func(p *Planner) { p.clock = c }
}

// WithSolver sets the solver instead of the one named by the parameters.
func WithSolver(s sat.Solver) Option {
	return func(p *Planner) { p.solver = s }
}

// OnPlan registers f to be called with every strictly cheaper plan found.
func OnPlan(f func(*plan.Plan)) Option {
	return func(p *Planner) { p.onPlan = f }
}

// WithPositionHook registers f to be called at every position boundary.
func WithPositionHook(f func(layer, pos int)) Option {
	return func(p *Planner) { p.hook = f }
}

// New creates a planner for in.
func New(in *htn.Instance, params config.Params, opts ...Option) (*Planner, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	p := &Planner{
		in:       in,
		params:   params,
		log:      slog.New(slog.DiscardHandler),
		clock:    clock.Real{},
		progress: rate.Sometimes{Interval: time.Second},
		state:    BuildLayer0}
	for _, o := range opts {
		o(p)
	}
	if p.tracer == nil {
		p.tracer = otel.Tracer("github.com/domschrei/lilotane-sub000/planner")
	}
	if p.stats == nil {
		p.stats = stats.New()
	}
	if p.solver == nil {
		s, err := sat.New(params.Solver)
		if err != nil {
			return nil, err
		}
		p.solver = s
	}
	p.an = analysis.New(in, analysis.WithLogger(p.log))
	p.dec = layer.NewDecoder(in)
	p.solveTimeout = params.SolveTimeout
	return p, nil
}

// State returns the phase of p.
func (p *Planner) State() State {
	return p.state
}

// Depth returns the index of the last layer built, or -1.
func (p *Planner) Depth() int {
	return len(p.layers) - 1
}

// Stats returns the metrics registry of p.
func (p *Planner) Stats() *stats.Stats {
	return p.stats
}

// Plan searches for a plan.  If the search ends early with an error after
// a plan was found, that plan is returned as well.
func (p *Planner) Plan(ctx context.Context) (res *plan.Plan, err error) {
	ctx, span := p.tracer.Start(ctx, "plan")
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.SetAttributes(attribute.Int("depth", p.Depth()))
		span.End()
	}()
	p.start = p.clock.Now()
	if p.params.Dump != "" {
		f, err := os.Create(p.params.Dump)
		if err != nil {
			return nil, fmt.Errorf("formula dump: %w", err)
		}
		rec := sat.NewRecorder(p.solver, f)
		p.solver = rec
		defer func() {
			if err := rec.Flush(); err != nil {
				p.log.Error("writing formula dump", "err", err)
			}
			f.Close()
		}()
	}
	if p.params.CheckUnsolvable {
		p.clauses = sat.NewClauses(p.solver)
		p.solver = p.clauses
	}
	p.solver.OnLearn(func([]z.Lit) { p.stats.Learned.Inc() })
	p.enc = encode.New(p.in, p.dec, p.solver, encode.Options{
		NonPrimitiveSupport: p.params.NonPrimitiveSupport,
		Logger:              p.log,
		Stats:               p.stats})
	defer p.solver.Release()

	if err := p.search(ctx); err != nil {
		p.state = Exhausted
		return p.best, err
	}
	p.improve(ctx)
	p.state = Solved
	p.log.Info("plan found", "depth", p.best.Depth, "length", p.best.Len(), "cost", p.best.Cost())
	return p.best, nil
}

// search builds and solves layers until the first plan is found.
func (p *Planner) search(ctx context.Context) error {
	if err := p.layer(ctx, p.buildLayer0); err != nil {
		return err
	}
	for {
		if p.Depth() >= p.params.MinDepth {
			found, err := p.solveLayer(ctx)
			if err != nil {
				return err
			}
			if found {
				p.firstPlan = clock.Since(p.clock, p.start)
				return nil
			}
		}
		if p.params.MaxDepth > 0 && p.Depth() >= p.params.MaxDepth {
			return fmt.Errorf("%w: depth %d", ErrExhausted, p.Depth())
		}
		p.state = ExpandLayer
		if err := p.layer(ctx, p.expand); err != nil {
			return err
		}
	}
}

// layer builds one layer with build and encodes it.
func (p *Planner) layer(ctx context.Context, build func(ctx context.Context) error) error {
	ctx, span := p.tracer.Start(ctx, "layer", trace.WithAttributes(attribute.Int("layer", len(p.layers))))
	defer span.End()
	if err := build(ctx); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	l := p.Depth()
	ly := p.layers[l]
	span.SetAttributes(attribute.Int("positions", ly.Len()), attribute.Int("operators", ly.Size()))
	p.stats.Layers.Inc()
	p.stats.Positions.Add(float64(ly.Len()))
	for _, pos := range ly.Positions() {
		p.stats.Operators.WithLabelValues("action").Add(float64(pos.Actions()))
		p.stats.Operators.WithLabelValues("reduction").Add(float64(pos.Reductions()))
	}
	_, esp := p.tracer.Start(ctx, "encode")
	defer esp.End()
	for q := 0; q < ly.Len(); q++ {
		if err := p.checkpoint(ctx, l, q); err != nil {
			return err
		}
		if err := p.enc.Encode(p.layers, q); err != nil {
			esp.SetStatus(codes.Error, err.Error())
			return err
		}
	}
	if l > 0 {
		p.layers[l-1].Release()
	}
	p.log.Info("layer encoded", "layer", l, "positions", ly.Len(), "operators", ly.Size(),
		"vars", p.enc.Vars(), "clauses", p.enc.Clauses(), "qconsts", p.in.Q.Len())
	return nil
}

// deadline returns the time the current phase must end by, or zero.
func (p *Planner) deadline() time.Time {
	if p.best == nil && p.params.PlanTimeout > 0 {
		return p.start.Add(p.params.PlanTimeout)
	}
	return time.Time{}
}

// checkpoint is called at every position boundary.
func (p *Planner) checkpoint(ctx context.Context, l, q int) error {
	if p.hook != nil {
		p.hook(l, q)
	}
	return p.expired(ctx)
}

// expired returns an error once the context is done or the plan deadline
// has passed.
func (p *Planner) expired(ctx context.Context) error {
	if ctx.Err() != nil {
		return fmt.Errorf("%w: %v", ErrInterrupted, context.Cause(ctx))
	}
	if d := p.deadline(); !d.IsZero() && !p.clock.Now().Before(d) {
		return fmt.Errorf("%w: plan timeout %v", ErrExhausted, p.params.PlanTimeout)
	}
	return nil
}

// record keeps pl if it is cheaper than the best plan so far.
func (p *Planner) record(pl *plan.Plan) bool {
	if p.best != nil && pl.Cost() >= p.best.Cost() {
		return false
	}
	p.best = pl
	p.log.Info("new plan", "depth", pl.Depth, "length", pl.Len(), "cost", pl.Cost())
	if p.onPlan != nil {
		p.onPlan(pl)
	}
	return true
}
