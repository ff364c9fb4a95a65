// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package fakeexec lets unit tests use their own test binary as a fake
// subprocess, e.g. a fake test program speaking the ATF protocol.
package fakeexec

import (
	"encoding/json"
	"fmt"
	"os"
)

const (
	// auxMainNameEnv names the auxiliary main function to run.
	auxMainNameEnv = "AUX_MAIN_NAME"

	// auxMainValueEnv carries the JSON-encoded parameter of the function.
	auxMainValueEnv = "AUX_MAIN_VALUE"
)

// AuxMain is a registered auxiliary main function taking a parameter of type T.
type AuxMain[T any] struct {
	name string
}

// Params returns what is needed to run the auxiliary main function with
// parameter v in a subprocess. v must be JSON-serializable.
func (a *AuxMain[T]) Params(v T) (*AuxMainParams, error) {
	exe, err := os.Executable()
	if err != nil {
		return nil, err
	}
	p, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return &AuxMainParams{executable: exe, name: a.name, param: string(p)}, nil
}

// AuxMainParams contains information necessary to execute an auxiliary main
// function.
type AuxMainParams struct {
	executable string
	name       string
	param      string
}

// Executable returns the path of the current executable.
func (p *AuxMainParams) Executable() string {
	return p.executable
}

// Envs returns "key=value" environment variables selecting the auxiliary
// main function. Subprocesses whose environment is built from scratch must
// receive them explicitly.
func (p *AuxMainParams) Envs() []string {
	return []string{
		fmt.Sprintf("%s=%s", auxMainNameEnv, p.name),
		fmt.Sprintf("%s=%s", auxMainValueEnv, p.param),
	}
}

var knownNames = map[string]struct{}{}

// NewAuxMain registers f as an auxiliary main function called name.
// It must be called from a package-level variable initializer:
//
//	var listerMain = fakeexec.NewAuxMain("lister", func(p listerParams) {
//		...
//	})
//
// When the current process was started to run name, NewAuxMain calls f with
// the decoded parameter and exits with status 0 if f returns. f may call
// os.Exit itself to report another status. Otherwise it returns an AuxMain
// for starting such subprocesses.
func NewAuxMain[T any](name string, f func(T)) *AuxMain[T] {
	if _, found := knownNames[name]; found {
		panic(fmt.Sprintf("fakeexec.NewAuxMain: Multiple registrations for %q", name))
	}
	knownNames[name] = struct{}{}

	if os.Getenv(auxMainNameEnv) != name {
		return &AuxMain[T]{name: name}
	}

	var v T
	if err := json.Unmarshal([]byte(os.Getenv(auxMainValueEnv)), &v); err != nil {
		panic(fmt.Sprintf("fakeexec.AuxMain: %s: failed to unmarshal parameter: %v", name, err))
	}
	f(v)
	os.Exit(0)
	panic("unreachable")
}
