// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package engine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"go.chromium.org/atfrun/errors"
	"go.chromium.org/atfrun/internal/config"
	"go.chromium.org/atfrun/internal/dep"
	"go.chromium.org/atfrun/internal/logging"
	"go.chromium.org/atfrun/internal/process"
	"go.chromium.org/atfrun/internal/result"
)

// Output is what a test case execution produced.
type Output struct {
	Result result.Result
	// Start is when the execution started.
	Start time.Time
	// Stdout and Stderr hold the output of the body followed by that of the
	// cleanup routine.
	Stdout []byte
	Stderr []byte
	// WallTime is the time spent in the body and the cleanup routine.
	WallTime time.Duration
}

// Hooks are notified of test case executions.
type Hooks interface {
	// Start is called before anything is done for tc.
	Start(ctx context.Context, tc *TestCase)
	// Finish is called exactly once after tc has been executed or has been
	// found not to be runnable.
	Finish(ctx context.Context, tc *TestCase, out *Output)
}

// NopHooks ignores all notifications.
type NopHooks struct{}

// Start implements Hooks.
func (NopHooks) Start(ctx context.Context, tc *TestCase) {}

// Finish implements Hooks.
func (NopHooks) Finish(ctx context.Context, tc *TestCase, out *Output) {}

// Executor runs test cases, one per Run call.
type Executor struct {
	opts *options
}

// NewExecutor returns an Executor.
func NewExecutor(opts ...Option) *Executor {
	return &Executor{opts: newOptions(opts)}
}

var defaultExecutor = NewExecutor()

// RunTestCase runs tc with an Executor using default options.
func RunTestCase(ctx context.Context, tc *TestCase, cfg *config.Config, hooks Hooks) result.Result {
	return defaultExecutor.Run(ctx, tc, cfg, hooks)
}

// Run runs tc with the configuration cfg and returns its result. cfg and
// hooks may be nil.
func (e *Executor) Run(ctx context.Context, tc *TestCase, cfg *config.Config, hooks Hooks) result.Result {
	if cfg == nil {
		cfg = config.Empty()
	}
	if hooks == nil {
		hooks = NopHooks{}
	}
	ctx = logging.WithPrefix(ctx, fmt.Sprintf("[%s] ", tc))

	hooks.Start(ctx, tc)
	out := &Output{Start: e.opts.clock.Now()}
	out.Result = e.run(ctx, tc, cfg, out)
	logging.Debugf(ctx, "Result: %v", out.Result)
	if !tc.IsListingFailure() {
		e.opts.metrics.ObserveResult(tc.program.Suite, out.Result.Type(), out.WallTime)
	}
	hooks.Finish(ctx, tc, out)
	return out.Result
}

// run executes tc, filling the output fields of out, and returns its result.
func (e *Executor) run(ctx context.Context, tc *TestCase, cfg *config.Config, out *Output) result.Result {
	if tc.listing != nil {
		return *tc.listing
	}

	path, err := tc.program.AbsPath()
	if err != nil {
		return result.Break(fmt.Sprintf("Failed to execute %s: %v", tc.program.RelPath, err))
	}
	root, err := filepath.Abs(tc.program.Root)
	if err != nil {
		return result.Break(fmt.Sprintf("Failed to resolve root %s: %v", tc.program.Root, err))
	}

	check := dep.FromMetadata(tc.md).Check(dep.HostFeatures(cfg, tc.program.Suite, root))
	if !check.OK() {
		logging.Debugf(ctx, "Skipping: %v", check.SkipReasons)
		return result.Skip(check.SkipReasons[0])
	}

	controlDir, err := os.MkdirTemp(e.opts.workDir, "atfrun.")
	if err != nil {
		return result.Break(fmt.Sprintf("Failed to create work directory: %v", err))
	}
	defer func() {
		if err := os.RemoveAll(controlDir); err != nil {
			logging.Infof(ctx, "Failed to remove %s: %v", controlDir, err)
		}
	}()
	workDir := filepath.Join(controlDir, "work")
	if err := os.Mkdir(workDir, 0755); err != nil {
		return result.Break(fmt.Sprintf("Failed to create work directory: %v", err))
	}
	resultsFile := filepath.Join(controlDir, "result.atf")

	cred, err := credentialFor(tc.md, cfg)
	if err != nil {
		return result.Break(fmt.Sprintf("Failed to switch to the unprivileged user: %v", err))
	}
	if cred != nil {
		if err := chownTo(cred, controlDir, workDir); err != nil {
			return result.Break(fmt.Sprintf("Failed to prepare work directory: %v", err))
		}
		logging.Debugf(ctx, "Running as UID %d", cred.Uid)
	}

	common := []string{"-s" + filepath.Dir(path)}
	common = append(common, configArgs(cfg, tc.program.Suite)...)
	cmd := &process.Command{
		Path:       path,
		Args:       append(append([]string{"-r" + resultsFile}, common...), tc.name),
		Dir:        workDir,
		Env:        isolatedEnv(workDir, e.opts.env),
		Timeout:    tc.md.Timeout(),
		Credential: cred,
	}

	body, err := e.opts.runner.Run(ctx, cmd)
	if err != nil {
		if errors.IsExec(err) {
			return result.Break(fmt.Sprintf("Failed to execute %s: %v", path, errors.Unwrap(err)))
		}
		return result.Break(err.Error())
	}
	out.Stdout, out.Stderr, out.WallTime = body.Stdout, body.Stderr, body.WallTime

	var res result.Result
	if raw, err := readRawResult(resultsFile); err != nil && body.Outcome == process.Completed {
		res = result.Break(err.Error())
	} else {
		res = classify(body, tc.md.Timeout(), raw, tc.md.ExpectedResult())
	}

	if tc.md.HasCleanup() {
		cleanup := *cmd
		cleanup.Args = append(append([]string(nil), common...), tc.name+":cleanup")
		if !e.runCleanup(ctx, &cleanup, out) && res.Good() {
			res = result.Break("Test case cleanup did not terminate successfully")
		}
	}
	return res
}

// runCleanup runs the cleanup routine of a test case and reports whether it
// exited successfully in time.
func (e *Executor) runCleanup(ctx context.Context, cmd *process.Command, out *Output) bool {
	res, err := e.opts.runner.Run(ctx, cmd)
	if err != nil {
		logging.Infof(ctx, "Failed to run cleanup: %v", err)
		return false
	}
	out.Stdout = append(out.Stdout, res.Stdout...)
	out.Stderr = append(out.Stderr, res.Stderr...)
	out.WallTime += res.WallTime
	if res.Outcome != process.Completed || !res.Status.Success() {
		logging.Infof(ctx, "Cleanup %v", describe(res))
		return false
	}
	return true
}

func describe(res *process.Result) string {
	if res.Outcome == process.TimedOut {
		return "timed out"
	}
	return res.Status.String()
}

// configArgs returns -v arguments passing the variables of suite and the
// unprivileged user to a test program, sorted by name.
func configArgs(cfg *config.Config, suite string) []string {
	vars := cfg.SuiteVars(suite)
	if u, ok := cfg.UnprivilegedUser(); ok {
		vars["unprivileged-user"] = u
	}
	names := maps.Keys(vars)
	slices.Sort(names)
	args := make([]string, len(names))
	for i, k := range names {
		args[i] = fmt.Sprintf("-v%s=%s", k, vars[k])
	}
	return args
}
