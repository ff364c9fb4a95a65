// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package stack captures and formats call stacks for the errors package.
package stack

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
)

const (
	maxDepth = 8 // frames kept per trace

	truncated = "\t..." // appended when frames were dropped
)

// Stack is a snapshot of program counters.
type Stack []uintptr

// New captures the calling goroutine's stack. skip is the number of frames
// to omit; skip=0 makes the caller of New the innermost frame.
func New(skip int) Stack {
	pcs := make([]uintptr, maxDepth+1)
	n := runtime.Callers(skip+2, pcs)
	return Stack(pcs[:n])
}

// Frames returns the symbolized frames of s, innermost first.
func (s Stack) Frames() []runtime.Frame {
	var frames []runtime.Frame
	cf := runtime.CallersFrames(s)
	for {
		f, more := cf.Next()
		frames = append(frames, f)
		if !more {
			return frames
		}
	}
}

// String renders s one frame per line as "\tat pkg.Func (file.go:NN)".
func (s Stack) String() string {
	var lines []string
	for _, f := range s.Frames() {
		if len(lines) == maxDepth {
			lines = append(lines, truncated)
			break
		}
		lines = append(lines, fmt.Sprintf("\tat %s (%s:%d)", f.Function, filepath.Base(f.File), f.Line))
	}
	return strings.Join(lines, "\n")
}
