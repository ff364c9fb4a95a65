// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package engine

import (
	"time"

	"code.cloudfoundry.org/clock"

	"go.chromium.org/atfrun/internal/metrics"
	"go.chromium.org/atfrun/internal/process"
)

// DefaultListTimeout bounds the time a test program may take to list its
// test cases.
const DefaultListTimeout = 300 * time.Second

// Option customizes test programs and executors.
type Option func(o *options)

type options struct {
	runner      *process.Runner
	clock       clock.Clock
	grace       time.Duration
	env         []string
	workDir     string
	metrics     *metrics.Recorder
	listTimeout time.Duration
}

func newOptions(opts []Option) *options {
	o := &options{
		clock:       clock.NewClock(),
		grace:       process.DefaultGracePeriod,
		listTimeout: DefaultListTimeout,
	}
	for _, opt := range opts {
		opt(o)
	}
	if o.runner == nil {
		o.runner = process.NewRunner(process.WithClock(o.clock), process.WithGracePeriod(o.grace))
	}
	return o
}

// WithRunner runs subprocesses with r. It overrides WithClock and
// WithGracePeriod for subprocesses.
func WithRunner(r *process.Runner) Option {
	return func(o *options) { o.runner = r }
}

// WithClock measures time with c.
func WithClock(c clock.Clock) Option {
	return func(o *options) { o.clock = c }
}

// WithGracePeriod sets how long subprocesses may take to exit after SIGTERM.
func WithGracePeriod(d time.Duration) Option {
	return func(o *options) { o.grace = d }
}

// WithEnv adds "KEY=value" variables to the environment of test programs.
func WithEnv(env ...string) Option {
	return func(o *options) { o.env = append(o.env, env...) }
}

// WithWorkDir creates temporary work directories under dir instead of the
// default temporary directory.
func WithWorkDir(dir string) Option {
	return func(o *options) { o.workDir = dir }
}

// WithMetrics records results and listing failures to r.
func WithMetrics(r *metrics.Recorder) Option {
	return func(o *options) { o.metrics = r }
}

// WithListTimeout bounds the time test programs may take to list their test
// cases.
func WithListTimeout(d time.Duration) Option {
	return func(o *options) { o.listTimeout = d }
}
