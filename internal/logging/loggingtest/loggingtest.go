// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package loggingtest provides a logging.Logger for unit tests.
package loggingtest

import (
	"strings"
	"sync"
	"testing"
	"time"

	"go.chromium.org/atfrun/internal/logging"
)

// Entry is a message received by Logger.
type Entry struct {
	Level logging.Level
	Msg   string
}

// Logger writes messages to the test log and keeps them for inspection.
type Logger struct {
	t *testing.T

	mu      sync.Mutex
	entries []Entry
}

// NewLogger returns a Logger for t.
func NewLogger(t *testing.T) *Logger {
	return &Logger{t: t}
}

// Log implements logging.Logger.
func (l *Logger) Log(level logging.Level, ts time.Time, msg string) {
	l.t.Helper()
	l.mu.Lock()
	defer l.mu.Unlock()
	l.t.Logf("[%v] %s", level, msg)
	l.entries = append(l.entries, Entry{Level: level, Msg: msg})
}

// Messages returns the messages logged at level or above, oldest first.
func (l *Logger) Messages(level logging.Level) []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	var msgs []string
	for _, e := range l.entries {
		if e.Level >= level {
			msgs = append(msgs, e.Msg)
		}
	}
	return msgs
}

// Find returns the first message containing substr, at any level.
func (l *Logger) Find(substr string) (msg string, ok bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.entries {
		if strings.Contains(e.Msg, substr) {
			return e.Msg, true
		}
	}
	return "", false
}
