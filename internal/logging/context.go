// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package logging

import (
	"context"
	"fmt"
	"strings"
	"time"
)

type loggerKey struct{}

type prefixKey struct{}

// AttachLogger returns a context whose messages go to logger and also to any
// logger already attached to ctx.
func AttachLogger(ctx context.Context, logger Logger) context.Context {
	if parent, ok := loggerFromContext(ctx); ok {
		logger = NewMultiLogger(logger, parent)
	}
	return context.WithValue(ctx, loggerKey{}, logger)
}

// AttachLoggerNoPropagation is like AttachLogger but messages do not reach
// loggers attached to ctx.
func AttachLoggerNoPropagation(ctx context.Context, logger Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// HasLogger reports whether a logger is attached to ctx.
func HasLogger(ctx context.Context) bool {
	_, ok := loggerFromContext(ctx)
	return ok
}

// WithPrefix returns a context that prepends prefix to every message.
// Prefixes of nested calls accumulate.
func WithPrefix(ctx context.Context, prefix string) context.Context {
	return context.WithValue(ctx, prefixKey{}, prefixFromContext(ctx)+prefix)
}

func loggerFromContext(ctx context.Context) (Logger, bool) {
	l, ok := ctx.Value(loggerKey{}).(Logger)
	return l, ok
}

func prefixFromContext(ctx context.Context) string {
	p, _ := ctx.Value(prefixKey{}).(string)
	return p
}

// Info emits an info-level message.
func Info(ctx context.Context, args ...interface{}) {
	emit(ctx, LevelInfo, fmt.Sprint(args...))
}

// Infof emits an info-level message formatted with fmt.Sprintf.
func Infof(ctx context.Context, format string, args ...interface{}) {
	emit(ctx, LevelInfo, fmt.Sprintf(format, args...))
}

// Debug emits a debug-level message.
func Debug(ctx context.Context, args ...interface{}) {
	emit(ctx, LevelDebug, fmt.Sprint(args...))
}

// Debugf emits a debug-level message formatted with fmt.Sprintf.
func Debugf(ctx context.Context, format string, args ...interface{}) {
	emit(ctx, LevelDebug, fmt.Sprintf(format, args...))
}

func emit(ctx context.Context, level Level, msg string) {
	ts := time.Now()
	logger, ok := loggerFromContext(ctx)
	if !ok {
		return
	}
	// Output of test programs ends up in messages; drop bytes a sink could choke on.
	logger.Log(level, ts, strings.ToValidUTF8(prefixFromContext(ctx)+msg, ""))
}
