// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	lilotane "github.com/domschrei/lilotane-sub000"
	"github.com/domschrei/lilotane-sub000/htn/load"
	"github.com/domschrei/lilotane-sub000/internal/config"
	"github.com/domschrei/lilotane-sub000/internal/stats"
	"github.com/domschrei/lilotane-sub000/plan"
	"github.com/domschrei/lilotane-sub000/planner"
)

type planOptions struct {
	flags       config.Params
	config      string
	verbose     int
	traceFile   string
	metricsAddr string
	stats       bool
	check       bool
}

// overrides copies the parameter behind each flag from src to dst.  Only
// flags set on the command line are copied, so that they take precedence
// over the config file.
var overrides = map[string]func(dst, src *config.Params){
	"min-depth":            func(d, s *config.Params) { d.MinDepth = s.MinDepth },
	"max-depth":            func(d, s *config.Params) { d.MaxDepth = s.MaxDepth },
	"solve-timeout":        func(d, s *config.Params) { d.SolveTimeout = s.SolveTimeout },
	"plan-timeout":         func(d, s *config.Params) { d.PlanTimeout = s.PlanTimeout },
	"anytime-layers":       func(d, s *config.Params) { d.AnytimeLayers = s.AnytimeLayers },
	"optimize":             func(d, s *config.Params) { d.Optimize = s.Optimize },
	"optimize-factor":      func(d, s *config.Params) { d.OptimizeFactor = s.OptimizeFactor },
	"virtualize":           func(d, s *config.Params) { d.Virtualize = s.Virtualize },
	"dominate":             func(d, s *config.Params) { d.Dominate = s.Dominate },
	"nonprimitive-support": func(d, s *config.Params) { d.NonPrimitiveSupport = s.NonPrimitiveSupport },
	"qconst-mutex":         func(d, s *config.Params) { d.QConstMutex = s.QConstMutex },
	"check-unsolvable":     func(d, s *config.Params) { d.CheckUnsolvable = s.CheckUnsolvable },
	"solver":               func(d, s *config.Params) { d.Solver = s.Solver },
	"dump":                 func(d, s *config.Params) { d.Dump = s.Dump },
	"seed":                 func(d, s *config.Params) { d.Seed = s.Seed },
}

func paramFlags(fs *pflag.FlagSet, p *config.Params) {
	def := config.Default()
	fs.IntVar(&p.MinDepth, "min-depth", def.MinDepth, "first layer handed to the solver")
	fs.IntVar(&p.MaxDepth, "max-depth", def.MaxDepth, "last layer built (0 for no limit)")
	fs.DurationVar(&p.SolveTimeout, "solve-timeout", def.SolveTimeout, "limit on each solver call (0 for none)")
	fs.DurationVar(&p.PlanTimeout, "plan-timeout", def.PlanTimeout, "limit on finding the first plan (0 for none)")
	fs.IntVar(&p.AnytimeLayers, "anytime-layers", def.AnytimeLayers, "layers added after the first plan")
	fs.BoolVar(&p.Optimize, "optimize", def.Optimize, "minimize plan cost")
	fs.Float64Var(&p.OptimizeFactor, "optimize-factor", def.OptimizeFactor, "optimization time as a multiple of the time to the first plan (0 for no limit)")
	fs.BoolVar(&p.Virtualize, "virtualize", def.Virtualize, "give each action a virtual twin for its children")
	fs.BoolVar(&p.Dominate, "dominate", def.Dominate, "replace dominated operators")
	fs.BoolVar(&p.NonPrimitiveSupport, "nonprimitive-support", def.NonPrimitiveSupport, "let reductions support fact changes")
	fs.BoolVar(&p.QConstMutex, "qconst-mutex", def.QConstMutex, "prune operators with mutually exclusive q-constants")
	fs.BoolVar(&p.CheckUnsolvable, "check-unsolvable", def.CheckUnsolvable, "solve without assumptions after an unsat layer")
	fs.StringVar(&p.Solver, "solver", def.Solver, "SAT backend, gini or gophersat")
	fs.StringVar(&p.Dump, "dump", def.Dump, "write the formula in icnf format to this file")
	fs.Int64Var(&p.Seed, "seed", def.Seed, "random seed")
}

func newPlanCmd(use string) *cobra.Command {
	o := &planOptions{}
	cmd := &cobra.Command{
		Use:   use,
		Short: "Find a plan for a domain and problem",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return o.run(cmd, args[0], args[1])
		},
	}
	fs := cmd.Flags()
	paramFlags(fs, &o.flags)
	fs.StringVarP(&o.config, "config", "c", "", "YAML file with planner parameters")
	fs.CountVarP(&o.verbose, "verbose", "v", "log more (repeat for debug output)")
	fs.StringVar(&o.traceFile, "trace-file", "", "write trace spans to this file")
	fs.StringVar(&o.metricsAddr, "metrics-addr", "", "serve prometheus metrics at this address (eg :9090)")
	fs.BoolVar(&o.stats, "stats", false, "print statistics after planning")
	fs.BoolVar(&o.check, "check", false, "re-read the printed plan and check it")
	return cmd
}

// params returns the defaults overlaid by the config file and then by the
// flags set on the command line.
func (o *planOptions) params(fs *pflag.FlagSet) (config.Params, error) {
	p := config.Default()
	if o.config != "" {
		if err := config.Load(o.config, &p); err != nil {
			return p, err
		}
	}
	fs.Visit(func(f *pflag.Flag) {
		if set, ok := overrides[f.Name]; ok {
			set(&p, &o.flags)
		}
	})
	return p, p.Validate()
}

func (o *planOptions) run(cmd *cobra.Command, domainPath, problemPath string) error {
	ctx := cmd.Context()
	out, errw := cmd.OutOrStdout(), cmd.ErrOrStderr()
	log := logger(errw, o.verbose)

	params, err := o.params(cmd.Flags())
	if err != nil {
		return err
	}
	prob, err := load.Files(ctx, domainPath, problemPath)
	if err != nil {
		return err
	}

	st := stats.New()
	opts := []planner.Option{
		planner.WithLogger(log),
		planner.WithStats(st),
		planner.OnPlan(func(pl *plan.Plan) {
			log.Info("plan", "cost", pl.Cost(), "actions", pl.Len(), "depth", pl.Depth)
		}),
	}
	if o.traceFile != "" {
		tp, err := tracerProvider(o.traceFile)
		if err != nil {
			return err
		}
		defer func() {
			if err := tp.Shutdown(context.Background()); err != nil {
				log.Warn("trace shutdown", "err", err)
			}
		}()
		opts = append(opts, planner.WithTracer(tp.Tracer("github.com/domschrei/lilotane-sub000/cmd/lilotane")))
	}
	if o.metricsAddr != "" {
		srv, err := serveMetrics(o.metricsAddr, st, log)
		if err != nil {
			return err
		}
		defer srv.Close()
	}

	pl, err := lilotane.Solve(ctx, prob, params, opts...)
	if pl != nil {
		if werr := pl.Write(out); werr != nil {
			return werr
		}
		if o.check {
			if cerr := check(pl); cerr != nil {
				return fmt.Errorf("plan check: %w", cerr)
			}
		}
		okColor.Fprintf(errw, "c [lilotane] plan found: cost %d, %d actions, depth %d\n", pl.Cost(), pl.Len(), pl.Depth)
	}
	if o.stats {
		if serr := st.Report(out); serr != nil {
			log.Warn("stats", "err", serr)
		}
	}
	switch {
	case err == nil:
		return nil
	case errors.Is(err, planner.ErrUnsolvable):
		return fmt.Errorf("no plan: problem is unsolvable: %w", err)
	case errors.Is(err, planner.ErrExhausted), errors.Is(err, planner.ErrInterrupted):
		return fmt.Errorf("no plan: %w", err)
	}
	var ie *planner.InvariantError
	if errors.As(err, &ie) {
		return fmt.Errorf("internal error: %w", err)
	}
	return err
}

// check re-reads the text form of pl and checks its decompositions.
func check(pl *plan.Plan) error {
	var buf bytes.Buffer
	if err := pl.Write(&buf); err != nil {
		return err
	}
	back, err := plan.Parse(&buf)
	if err != nil {
		return err
	}
	if back.Len() != pl.Len() || len(back.Decompositions) != len(pl.Decompositions) {
		return errors.New("plan changed when read back")
	}
	return back.Check()
}

func tracerProvider(path string) (*sdktrace.TracerProvider, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	exp, err := stdouttrace.New(stdouttrace.WithWriter(f))
	if err != nil {
		f.Close()
		return nil, err
	}
	tp := sdktrace.NewTracerProvider(sdktrace.WithSyncer(exp))
	tp.RegisterSpanProcessor(closer{f})
	return tp, nil
}

// closer closes the trace file once the exporter is shut down.
type closer struct{ io.Closer }

func (closer) OnStart(context.Context, sdktrace.ReadWriteSpan) {}
func (closer) OnEnd(sdktrace.ReadOnlySpan)                     {}
func (closer) ForceFlush(context.Context) error                { return nil }
func (c closer) Shutdown(context.Context) error                { return c.Close() }

func serveMetrics(addr string, st *stats.Stats, log *slog.Logger) (*http.Server, error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return nil, err
	}
	srv := &http.Server{Handler: st.Handler()}
	go func() {
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn("metrics", "err", err)
		}
	}()
	log.Info("serving metrics", "addr", ln.Addr().String())
	return srv, nil
}
