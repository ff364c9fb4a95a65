// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package metrics counts test case results and listing failures with
// Prometheus collectors, for export in the node exporter textfile format.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"

	"go.chromium.org/atfrun/errors"
	"go.chromium.org/atfrun/internal/result"
)

// Namespace prefixes all metric names.
const Namespace = "atfrun"

// Recorder holds the collectors of one run. All methods may be called on a
// nil *Recorder, in which case nothing is recorded.
type Recorder struct {
	reg             *prometheus.Registry
	results         *prometheus.CounterVec
	duration        *prometheus.HistogramVec
	listingFailures *prometheus.CounterVec
}

// NewRecorder returns a Recorder with collectors registered to a private
// registry.
func NewRecorder() *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Recorder{
		reg: reg,
		results: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "test_case_results_total",
			Help:      "Number of executed test cases by result type",
		}, []string{"suite", "result"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: Namespace,
			Name:      "test_case_duration_seconds",
			Help:      "Wall time of test case executions, cleanup included",
			Buckets:   prometheus.ExponentialBuckets(0.01, 4, 10),
		}, []string{"suite"}),
		listingFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: Namespace,
			Name:      "listing_failures_total",
			Help:      "Number of test programs whose test cases could not be listed",
		}, []string{"suite"}),
	}
}

// Registry returns the registry holding the collectors.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.reg
}

// ObserveResult records a test case execution.
func (r *Recorder) ObserveResult(suite string, t result.Type, wall time.Duration) {
	if r == nil {
		return
	}
	r.results.WithLabelValues(suite, t.String()).Inc()
	r.duration.WithLabelValues(suite).Observe(wall.Seconds())
}

// ListingFailure records a test program whose listing failed.
func (r *Recorder) ListingFailure(suite string) {
	if r == nil {
		return
	}
	r.listingFailures.WithLabelValues(suite).Inc()
}

// ResultCounts returns the number of recorded results per type, summed over
// suites.
func (r *Recorder) ResultCounts() (map[result.Type]int, error) {
	counts := map[result.Type]int{}
	if r == nil {
		return counts, nil
	}
	families, err := r.reg.Gather()
	if err != nil {
		return nil, errors.Wrap(err, "failed to gather metrics")
	}
	names := map[string]result.Type{}
	for _, t := range []result.Type{result.Passed, result.Failed, result.Skipped, result.ExpectedFailure, result.Broken} {
		names[t.String()] = t
	}
	for _, mf := range families {
		if mf.GetName() != Namespace+"_test_case_results_total" {
			continue
		}
		for _, m := range mf.GetMetric() {
			if t, ok := names[labelValue(m, "result")]; ok {
				counts[t] += int(m.GetCounter().GetValue())
			}
		}
	}
	return counts, nil
}

func labelValue(m *dto.Metric, name string) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == name {
			return lp.GetValue()
		}
	}
	return ""
}

// WriteTextfile writes all metrics to path in the text exposition format.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.reg); err != nil {
		return errors.Wrapf(err, "failed to write metrics to %s", path)
	}
	return nil
}
