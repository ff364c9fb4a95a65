// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package process runs test programs as subprocesses under a deadline.
//
// Every subprocess runs in a session of its own. When the deadline passes or
// the caller's context is done, the whole process group receives SIGTERM,
// and SIGKILL after a grace period. Either way the run is reported as
// TimedOut so that callers do not mistake it for a crash.
package process

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"code.cloudfoundry.org/clock"
	"golang.org/x/sys/unix"

	"go.chromium.org/atfrun/errors"
	"go.chromium.org/atfrun/internal/logging"
	"go.chromium.org/atfrun/shutil"
)

// DefaultGracePeriod is how long a process may take to exit after SIGTERM.
const DefaultGracePeriod = 5 * time.Second

// Command describes a subprocess to run.
type Command struct {
	// Path is the absolute path of the executable. See Resolve.
	Path string
	Args []string
	// Dir is the working directory.
	Dir string
	// Env is the complete environment of the subprocess. Nothing is inherited
	// from the current process.
	Env []string
	// Timeout is the deadline measured from the start. Zero means none.
	Timeout time.Duration
	// Stdout and Stderr, if non-nil, receive a copy of the output as it is
	// produced. The output is captured in the Result regardless.
	Stdout io.Writer
	Stderr io.Writer
	// Credential, if non-nil, is the user and group to run as. Setting it
	// requires privileges.
	Credential *syscall.Credential
}

// Outcome says how a run ended.
type Outcome int

const (
	// Completed means the process terminated on its own.
	Completed Outcome = iota
	// TimedOut means the process was terminated because its deadline passed
	// or the caller's context was done.
	TimedOut
)

func (o Outcome) String() string {
	switch o {
	case Completed:
		return "completed"
	case TimedOut:
		return "timed out"
	default:
		return fmt.Sprintf("Outcome(%d)", int(o))
	}
}

// Status is how a completed process terminated.
type Status struct {
	// Exited is set if the process called exit. ExitCode is valid then.
	Exited   bool
	ExitCode int
	// Signaled is set if a signal terminated the process.
	Signaled   bool
	Signal     unix.Signal
	CoreDumped bool
}

// Success reports whether the process exited with status 0.
func (s *Status) Success() bool {
	return s != nil && s.Exited && s.ExitCode == 0
}

func (s *Status) String() string {
	switch {
	case s == nil:
		return "no status"
	case s.Exited:
		return fmt.Sprintf("exited with code %d", s.ExitCode)
	case s.CoreDumped:
		return fmt.Sprintf("received signal %d (core dumped)", int(s.Signal))
	default:
		return fmt.Sprintf("received signal %d", int(s.Signal))
	}
}

// Result is the raw outcome of a run.
type Result struct {
	Outcome Outcome
	// Killed is set if the process group had to be sent SIGKILL.
	Killed bool
	// Status is nil unless Outcome is Completed.
	Status   *Status
	Stdout   []byte
	Stderr   []byte
	WallTime time.Duration
}

// Runner runs subprocesses. The zero value is not usable; call NewRunner.
type Runner struct {
	clock clock.Clock
	grace time.Duration
}

// Option customizes a Runner.
type Option func(r *Runner)

// WithClock makes the Runner measure deadlines with c.
func WithClock(c clock.Clock) Option {
	return func(r *Runner) { r.clock = c }
}

// WithGracePeriod sets how long to wait between SIGTERM and SIGKILL.
func WithGracePeriod(d time.Duration) Option {
	return func(r *Runner) { r.grace = d }
}

// NewRunner returns a Runner.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{clock: clock.NewClock(), grace: DefaultGracePeriod}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the absolute path of rel, which is relative to root.
// root may itself be relative to the current directory. An absolute rel is
// returned cleaned.
func Resolve(root, rel string) (string, error) {
	p := rel
	if !filepath.IsAbs(rel) {
		p = filepath.Join(root, rel)
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", errors.Wrapf(err, "failed to resolve %s", p)
	}
	return abs, nil
}

// state is a step of a subprocess lifecycle.
type state string

const (
	stateStarting  state = "starting"
	stateRunning   state = "running"
	stateCompleted state = "completed"
	stateTimedOut  state = "timed_out"
	stateKilled    state = "killed"
)

func logState(ctx context.Context, name string, pid int, st state) {
	if pid == 0 {
		logging.Debugf(ctx, "%s: %s", name, st)
		return
	}
	logging.Debugf(ctx, "%s[%d]: %s", name, pid, st)
}

// Run runs cmd and waits for it to terminate. It fails only if the process
// could not be started, with an error for which errors.IsExec is true.
//
// The process counts as terminated as soon as it exits, even if descendants
// still hold its output open. Remaining members of its session are killed
// then, and their output is collected for at most the grace period.
func (r *Runner) Run(ctx context.Context, cmd *Command) (*Result, error) {
	pipes, err := newOutputPipes(2)
	if err != nil {
		return nil, err
	}
	c := exec.Command(cmd.Path, cmd.Args...)
	c.Dir = cmd.Dir
	c.Env = append([]string{}, cmd.Env...)
	c.Stdout = pipes.writers[0]
	c.Stderr = pipes.writers[1]
	c.SysProcAttr = &syscall.SysProcAttr{Setsid: true, Credential: cmd.Credential}

	name := filepath.Base(cmd.Path)
	logState(ctx, name, 0, stateStarting)
	logging.Debug(ctx, "Running ", shutil.CommandLine(c.Env, cmd.Path, cmd.Args))
	start := r.clock.Now()
	err = c.Start()
	pipes.closeWriters()
	if err != nil {
		pipes.closeReaders()
		return nil, errors.Execf(err, "failed to execute %s", cmd.Path)
	}
	pid := c.Process.Pid
	logState(ctx, name, pid, stateRunning)

	var stdout, stderr bytes.Buffer
	pipes.copyTo(teeTo(&stdout, cmd.Stdout), teeTo(&stderr, cmd.Stderr))

	// Wait returns when the process exits since its outputs are plain files.
	done := make(chan error, 1)
	go func() { done <- c.Wait() }()

	var deadline <-chan time.Time
	if cmd.Timeout > 0 {
		timer := r.clock.NewTimer(cmd.Timeout)
		defer timer.Stop()
		deadline = timer.C()
	}

	res := &Result{Outcome: Completed}
	var waitErr error
	select {
	case waitErr = <-done:
		logState(ctx, name, pid, stateCompleted)
	case <-deadline:
		res.Outcome = TimedOut
	case <-ctx.Done():
		res.Outcome = TimedOut
	}

	if res.Outcome == TimedOut {
		logState(ctx, name, pid, stateTimedOut)
		res.Killed = r.terminate(ctx, name, pid, done)
	} else {
		// Reap leftovers of the test program, such as background daemons.
		unix.Kill(-pid, unix.SIGKILL)
	}
	if n := killSession(pid, unix.SIGKILL); n > 0 {
		logging.Debugf(ctx, "%s[%d]: killed %d leftover processes", name, pid, n)
	}
	res.WallTime = r.clock.Since(start)

	if !pipes.drain(r.clock, r.grace) {
		logging.Infof(ctx, "%s[%d]: output still open after %v; discarding the rest", name, pid, r.grace)
	}
	res.Stdout = stdout.Bytes()
	res.Stderr = stderr.Bytes()
	if res.Outcome == Completed {
		st, err := statusOf(c)
		if err != nil {
			if waitErr != nil {
				err = waitErr
			}
			return nil, errors.Wrapf(err, "failed to wait for %s", cmd.Path)
		}
		res.Status = st
		logging.Debugf(ctx, "%s[%d] %v after %v", name, pid, st, res.WallTime.Round(time.Millisecond))
	}
	return res, nil
}

// terminate sends SIGTERM to the process group led by pid, and SIGKILL if it
// does not exit within the grace period. It returns after the process has
// been reaped and reports whether SIGKILL was sent.
func (r *Runner) terminate(ctx context.Context, name string, pid int, done <-chan error) (killed bool) {
	unix.Kill(-pid, unix.SIGTERM)
	grace := r.clock.NewTimer(r.grace)
	defer grace.Stop()
	select {
	case <-done:
		return false
	case <-grace.C():
	}
	logState(ctx, name, pid, stateKilled)
	unix.Kill(-pid, unix.SIGKILL)
	<-done
	return true
}

func statusOf(c *exec.Cmd) (*Status, error) {
	if c.ProcessState == nil {
		return nil, errors.New("no process state")
	}
	ws, ok := c.ProcessState.Sys().(syscall.WaitStatus)
	if !ok {
		return nil, errors.Errorf("unexpected process state %T", c.ProcessState.Sys())
	}
	switch {
	case ws.Exited():
		return &Status{Exited: true, ExitCode: ws.ExitStatus()}, nil
	case ws.Signaled():
		return &Status{Signaled: true, Signal: unix.Signal(ws.Signal()), CoreDumped: ws.CoreDump()}, nil
	default:
		return nil, errors.Errorf("unexpected wait status %#x", uint32(ws))
	}
}

func teeTo(buf *bytes.Buffer, w io.Writer) io.Writer {
	if w == nil {
		return buf
	}
	return io.MultiWriter(buf, w)
}
