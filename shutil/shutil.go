// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package shutil renders command lines and environments as shell text, for
// logging subprocess invocations in a form that can be pasted into a shell.
package shutil

import (
	"fmt"
	"regexp"
	"strings"
)

// Characters in \w plus a few punctuation marks never need quoting. A leading
// equals sign is special in zsh, so it is only safe after the first character.
const (
	leadingSafe  = `-\w@%+:,./`
	trailingSafe = leadingSafe + "="
)

var safeRE = regexp.MustCompile(fmt.Sprintf("^[%s][%s]*$", leadingSafe, trailingSafe))

// Escape quotes s so that a shell reads it back as a single word.
// s is returned unchanged if it needs no quoting.
func Escape(s string) string {
	if safeRE.MatchString(s) {
		return s
	}
	return "'" + strings.ReplaceAll(s, "'", `'"'"'`) + "'"
}

// EscapeSlice escapes each element of args and joins them with spaces.
func EscapeSlice(args []string) string {
	escaped := make([]string, len(args))
	for i, arg := range args {
		escaped[i] = Escape(arg)
	}
	return strings.Join(escaped, " ")
}

// CommandLine renders an invocation of path with args, preceded by the
// variables of env ("KEY=value" elements) as "env -i" assignments so that the
// line reproduces a run with exactly that environment.
func CommandLine(env []string, path string, args []string) string {
	var words []string
	if len(env) > 0 {
		words = append(words, "env", "-i")
		for _, kv := range env {
			k, v, ok := strings.Cut(kv, "=")
			if !ok {
				continue
			}
			// Keys are not quoted; the shell would not accept a quoted assignment.
			words = append(words, k+"="+Escape(v))
		}
	}
	words = append(words, Escape(path))
	for _, a := range args {
		words = append(words, Escape(a))
	}
	return strings.Join(words, " ")
}
