// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package main

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/go-air/gini/dimacs"
	"github.com/go-air/gini/z"
	"github.com/spf13/cobra"

	"github.com/domschrei/lilotane-sub000/htn/load"
	"github.com/domschrei/lilotane-sub000/sat"
)

func newReplayCmd() *cobra.Command {
	var (
		solver  string
		timeout time.Duration
	)
	cmd := &cobra.Command{
		Use:   "replay [flags] <formula.icnf>",
		Short: "Re-solve a formula written with --dump",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := sat.New(solver)
			if err != nil {
				return err
			}
			defer s.Release()
			r, err := load.Open(args[0])
			if err != nil {
				return err
			}
			defer r.Close()
			v := newReplay(cmd.Context(), s, timeout, cmd.OutOrStdout())
			if err := dimacs.ReadICnf(r, v); err != nil {
				return fmt.Errorf("reading icnf: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "c solved %d/%d\n", v.solved, v.calls)
			return nil
		},
	}
	cmd.Flags().StringVar(&solver, "solver", "gini", "SAT backend, gini or gophersat")
	cmd.Flags().DurationVar(&timeout, "timeout", 30*time.Second, "limit on the whole replay")
	return cmd
}

// replay is a dimacs.ICnfVis which solves under each block of assumptions
// as it is read.
type replay struct {
	ctx     context.Context
	s       sat.Solver
	end     time.Time
	out     io.Writer
	assumed []z.Lit
	calls   int
	solved  int
}

func newReplay(ctx context.Context, s sat.Solver, timeout time.Duration, out io.Writer) *replay {
	return &replay{ctx: ctx, s: s, end: time.Now().Add(timeout), out: out}
}

func (r *replay) Add(m z.Lit) {
	r.s.Add(m)
}

func (r *replay) Assume(m z.Lit) {
	if m != z.LitNull {
		r.assumed = append(r.assumed, m)
		return
	}
	r.s.Assume(r.assumed...)
	r.assumed = r.assumed[:0]
	r.calls++
	res := sat.Unknown
	if time.Now().Before(r.end) {
		ctx, cancel := context.WithDeadline(r.ctx, r.end)
		res = r.s.Solve(ctx)
		cancel()
	}
	if res != sat.Unknown {
		r.solved++
	}
	switch res {
	case sat.Sat:
		fmt.Fprintf(r.out, "s SATISFIABLE\n")
	case sat.Unsat:
		fmt.Fprintf(r.out, "s UNSATISFIABLE\n")
	default:
		fmt.Fprintf(r.out, "s UNKNOWN\n")
	}
}

func (r *replay) Eof() {
}
