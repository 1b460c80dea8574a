// Copyright 2016 The Gini Authors. All rights reserved.  Use of this source
// code is governed by a license that can be found in the License file.

// Package stats collects planner statistics as prometheus metrics.
package stats

import (
	"bufio"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	dto "github.com/prometheus/client_model/go"
)

// Stats is a registry of planner metrics.  Each planner run gets its own.
type Stats struct {
	Registry *prometheus.Registry

	Layers       prometheus.Counter
	Positions    prometheus.Counter
	Operators    *prometheus.CounterVec
	Pruned       *prometheus.CounterVec
	Dominated    prometheus.Counter
	QConsts      prometheus.Gauge
	Variables    prometheus.Gauge
	Clauses      prometheus.Counter
	Solves       *prometheus.CounterVec
	Learned      prometheus.Counter
	SolveSeconds prometheus.Histogram
}

// New creates a registry holding fresh metrics.
func New() *Stats {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Stats{
		Registry: reg,
		Layers: f.NewCounter(prometheus.CounterOpts{
			Name: "lilotane_layers_total",
			Help: "Layers built.",
		}),
		Positions: f.NewCounter(prometheus.CounterOpts{
			Name: "lilotane_positions_total",
			Help: "Positions built.",
		}),
		Operators: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lilotane_operators_total",
			Help: "Operators kept at some position, by kind.",
		}, []string{"kind"}),
		Pruned: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lilotane_pruned_total",
			Help: "Operators pruned, by reason.",
		}, []string{"reason"}),
		Dominated: f.NewCounter(prometheus.CounterOpts{
			Name: "lilotane_dominated_total",
			Help: "Operators replaced by a dominating operator.",
		}),
		QConsts: f.NewGauge(prometheus.GaugeOpts{
			Name: "lilotane_qconsts",
			Help: "Q-constants created.",
		}),
		Variables: f.NewGauge(prometheus.GaugeOpts{
			Name: "lilotane_variables",
			Help: "SAT variables allocated.",
		}),
		Clauses: f.NewCounter(prometheus.CounterOpts{
			Name: "lilotane_clauses_total",
			Help: "Clauses added to the solver.",
		}),
		Solves: f.NewCounterVec(prometheus.CounterOpts{
			Name: "lilotane_solves_total",
			Help: "Solver calls, by result.",
		}, []string{"result"}),
		Learned: f.NewCounter(prometheus.CounterOpts{
			Name: "lilotane_learned_clauses_total",
			Help: "Clauses reported by the solver's learn callback.",
		}),
		SolveSeconds: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "lilotane_solve_seconds",
			Help:    "Duration of solver calls.",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
	}
}

// Handler serves the metrics of s.
func (s *Stats) Handler() http.Handler {
	return promhttp.HandlerFor(s.Registry, promhttp.HandlerOpts{})
}

// Report writes one "c name{labels} value" line per sample.
func (s *Stats) Report(dst io.Writer) error {
	mfs, err := s.Registry.Gather()
	if err != nil {
		return err
	}
	w := bufio.NewWriter(dst)
	for _, mf := range mfs {
		for _, m := range mf.GetMetric() {
			fmt.Fprintf(w, "c %s%s %s\n", mf.GetName(), labels(m), value(mf.GetType(), m))
		}
	}
	return w.Flush()
}

func labels(m *dto.Metric) string {
	lps := m.GetLabel()
	if len(lps) == 0 {
		return ""
	}
	parts := make([]string, len(lps))
	for i, lp := range lps {
		parts[i] = fmt.Sprintf("%s=%q", lp.GetName(), lp.GetValue())
	}
	sort.Strings(parts)
	return "{" + strings.Join(parts, ",") + "}"
}

func value(t dto.MetricType, m *dto.Metric) string {
	switch t {
	case dto.MetricType_COUNTER:
		return fmt.Sprintf("%g", m.GetCounter().GetValue())
	case dto.MetricType_GAUGE:
		return fmt.Sprintf("%g", m.GetGauge().GetValue())
	case dto.MetricType_HISTOGRAM:
		h := m.GetHistogram()
		return fmt.Sprintf("count=%d sum=%.3fs", h.GetSampleCount(), h.GetSampleSum())
	}
	return "?"
}
