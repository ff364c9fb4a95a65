// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package logging routes log messages of the engine through context.Context.
//
// Engine code never writes to a global logger. Instead it calls Info, Debug
// and friends with the context it received, and whoever owns the context
// decides where the messages go by attaching a Logger with AttachLogger.
// Messages sent to a context with no Logger are dropped.
package logging

import (
	"sync"
	"time"
)

// Level is the importance of a log message. Larger is more important.
type Level int

const (
	// LevelDebug is for details of subprocess lifecycles and classification.
	LevelDebug Level = iota
	// LevelInfo is for messages a user running tests normally wants to see.
	LevelInfo
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	default:
		return "UNKNOWN"
	}
}

// Logger consumes log messages sent through a context.
type Logger interface {
	// Log is called once per message. ts is when the message was emitted.
	Log(level Level, ts time.Time, msg string)
}

// MultiLogger copies every message to a set of loggers.
type MultiLogger struct {
	mu      sync.Mutex
	loggers []Logger
}

// NewMultiLogger returns a MultiLogger writing to loggers.
func NewMultiLogger(loggers ...Logger) *MultiLogger {
	return &MultiLogger{loggers: loggers}
}

// Log forwards a message to all underlying loggers.
func (ml *MultiLogger) Log(level Level, ts time.Time, msg string) {
	ml.mu.Lock()
	defer ml.mu.Unlock()
	for _, l := range ml.loggers {
		l.Log(level, ts, msg)
	}
}
