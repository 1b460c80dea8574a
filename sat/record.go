// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

package sat

import (
	"bufio"
	"context"
	"io"
	"strconv"

	"github.com/go-air/gini/z"
)

// Recorder is a Solver which writes everything it is given in gini's
// incremental cnf format ("p inccnf") before passing it on.  Each Solve
// becomes an "a ... 0" line holding its assumptions.
type Recorder struct {
	Solver
	w       *bufio.Writer
	err     error
	assumed []z.Lit
	buf     []byte
}

// NewRecorder wraps s, writing to w.
func NewRecorder(s Solver, w io.Writer) *Recorder {
	r := &Recorder{Solver: s, w: bufio.NewWriter(w)}
	r.write([]byte("p inccnf\n"))
	return r
}

func (r *Recorder) write(b []byte) {
	if r.err != nil {
		return
	}
	_, r.err = r.w.Write(b)
}

func (r *Recorder) Add(m z.Lit) {
	r.buf = r.buf[:0]
	if m == z.LitNull {
		r.buf = append(r.buf, '0', '\n')
	} else {
		r.buf = strconv.AppendInt(r.buf, int64(m.Dimacs()), 10)
		r.buf = append(r.buf, ' ')
	}
	r.write(r.buf)
	r.Solver.Add(m)
}

func (r *Recorder) Assume(ms ...z.Lit) {
	r.assumed = append(r.assumed, ms...)
	r.Solver.Assume(ms...)
}

func (r *Recorder) Solve(ctx context.Context) int {
	r.buf = append(r.buf[:0], 'a')
	for _, m := range r.assumed {
		r.buf = append(r.buf, ' ')
		r.buf = strconv.AppendInt(r.buf, int64(m.Dimacs()), 10)
	}
	r.buf = append(r.buf, " 0\n"...)
	r.write(r.buf)
	r.assumed = r.assumed[:0]
	if r.err == nil {
		r.err = r.w.Flush()
	}
	return r.Solver.Solve(ctx)
}

// Flush writes buffered output and returns the first write error.
func (r *Recorder) Flush() error {
	if r.err != nil {
		return r.err
	}
	return r.w.Flush()
}
