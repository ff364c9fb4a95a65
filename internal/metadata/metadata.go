// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package metadata implements the typed, validated view of the properties a
// test case declares: its description, timeout, requirements and expected
// outcome.
//
// A Metadata is built once, by Validate or FromATF, and is immutable
// afterwards. Invalid input never yields a partially filled Metadata.
package metadata

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"go.chromium.org/atfrun/errors"
)

// DefaultTimeout is the timeout of test cases that do not declare one.
const DefaultTimeout = 300 * time.Second

// Recognized property keys.
const (
	KeyDescription      = "description"
	KeyTimeout          = "timeout"
	KeyHasCleanup       = "has_cleanup"
	KeyRequiredPrograms = "required_programs"
	KeyRequiredFiles    = "required_files"
	KeyRequiredUser     = "required_user"
	KeyRequiredConfig   = "required_config"
	KeyRequiredArch     = "required_arch"
	KeyRequiredPlatform = "required_platform"
	KeyExpectedResult   = "expected_result"

	// CustomPrefix starts keys that are kept verbatim for callers.
	CustomPrefix = "custom."
)

var knownKeys = map[string]struct{}{
	KeyDescription: {}, KeyTimeout: {}, KeyHasCleanup: {}, KeyRequiredPrograms: {},
	KeyRequiredFiles: {}, KeyRequiredUser: {}, KeyRequiredConfig: {}, KeyRequiredArch: {},
	KeyRequiredPlatform: {}, KeyExpectedResult: {},
}

// User is the privilege a test case requires.
type User string

// Recognized values of required_user.
const (
	UserNone         User = "none"
	UserRoot         User = "root"
	UserUnprivileged User = "unprivileged"
)

// Metadata is the validated metadata of a test case.
type Metadata struct {
	description      string
	timeout          time.Duration
	hasCleanup       bool
	requiredPrograms []string
	requiredFiles    []string
	requiredUser     User
	requiredConfig   []string
	requiredArch     []string
	requiredPlatform []string
	expected         Expectation
	custom           map[string]string
}

// Default returns metadata with every property at its default value.
func Default() *Metadata {
	return &Metadata{
		timeout:      DefaultTimeout,
		requiredUser: UserNone,
		expected:     Expectation{Kind: ExpectPass},
		custom:       map[string]string{},
	}
}

var secondsRE = regexp.MustCompile(`^[0-9]+$`)

// Validate builds Metadata from typed properties. Unknown keys are reported
// before any value is checked.
func Validate(props Properties) (*Metadata, error) {
	for _, p := range props {
		if _, ok := knownKeys[p.Key]; !ok && !strings.HasPrefix(p.Key, CustomPrefix) {
			return nil, errors.Formatf("Unknown metadata property '%s'", p.Key)
		}
	}

	m := Default()
	for _, p := range props {
		v := p.Value
		switch p.Key {
		case KeyDescription:
			m.description = v
		case KeyTimeout:
			n, err := strconv.ParseInt(v, 10, 64)
			if !secondsRE.MatchString(v) || err != nil || n <= 0 || n > math.MaxInt64/int64(time.Second) {
				return nil, errors.Formatf("Invalid timeout '%s'; must be a positive integer number of seconds", v)
			}
			m.timeout = time.Duration(n) * time.Second
		case KeyHasCleanup:
			switch v {
			case "true":
				m.hasCleanup = true
			case "false":
				m.hasCleanup = false
			default:
				return nil, errors.Formatf("Invalid boolean '%s' for %s", v, KeyHasCleanup)
			}
		case KeyRequiredPrograms:
			progs := strings.Fields(v)
			for _, prog := range progs {
				if strings.HasPrefix(prog, "/") {
					return nil, errors.Formatf("Absolute path '%s' not allowed in %s", prog, KeyRequiredPrograms)
				}
				if strings.Contains(prog, "/") {
					return nil, errors.Formatf("Relative path '%s' not allowed in %s; use a program name", prog, KeyRequiredPrograms)
				}
			}
			m.requiredPrograms = progs
		case KeyRequiredFiles:
			files := strings.Fields(v)
			for _, f := range files {
				if strings.HasPrefix(f, "/") {
					return nil, errors.Formatf("Absolute path '%s' not allowed in %s", f, KeyRequiredFiles)
				}
			}
			m.requiredFiles = files
		case KeyRequiredUser:
			switch u := User(v); u {
			case UserNone, UserRoot, UserUnprivileged:
				m.requiredUser = u
			default:
				return nil, errors.Formatf("Invalid required_user '%s'; must be one of none, root or unprivileged", v)
			}
		case KeyRequiredConfig:
			m.requiredConfig = strings.Fields(v)
		case KeyRequiredArch:
			m.requiredArch = strings.Fields(v)
		case KeyRequiredPlatform:
			m.requiredPlatform = strings.Fields(v)
		case KeyExpectedResult:
			e, err := ParseExpectation(v)
			if err != nil {
				return nil, err
			}
			m.expected = e
		default:
			m.custom[p.Key] = v
		}
	}
	return m, nil
}

// Description returns the free-text description.
func (m *Metadata) Description() string { return m.description }

// Timeout returns the time a test case may run before it is killed.
func (m *Metadata) Timeout() time.Duration { return m.timeout }

// HasCleanup reports whether the test case has a cleanup routine.
func (m *Metadata) HasCleanup() bool { return m.hasCleanup }

// RequiredPrograms returns program names that must be found in PATH.
func (m *Metadata) RequiredPrograms() []string { return slices.Clone(m.requiredPrograms) }

// RequiredFiles returns paths, relative to the test program root, that must exist.
func (m *Metadata) RequiredFiles() []string { return slices.Clone(m.requiredFiles) }

// RequiredUser returns the required privilege.
func (m *Metadata) RequiredUser() User { return m.requiredUser }

// RequiredConfig returns configuration variables that must be defined.
func (m *Metadata) RequiredConfig() []string { return slices.Clone(m.requiredConfig) }

// RequiredArch returns the architectures the test case supports. Empty means all.
func (m *Metadata) RequiredArch() []string { return slices.Clone(m.requiredArch) }

// RequiredPlatform returns the platforms the test case supports. Empty means all.
func (m *Metadata) RequiredPlatform() []string { return slices.Clone(m.requiredPlatform) }

// ExpectedResult returns the declared expected outcome.
func (m *Metadata) ExpectedResult() Expectation { return m.expected }

// Custom returns the custom.* properties keyed by their full name.
func (m *Metadata) Custom() map[string]string { return maps.Clone(m.custom) }

// ToProperties returns the properties that differ from their defaults:
// custom keys first, then recognized keys, each group sorted by key.
// Validate(m.ToProperties()) is equal to m.
func (m *Metadata) ToProperties() Properties {
	var props Properties
	customKeys := maps.Keys(m.custom)
	slices.Sort(customKeys)
	for _, k := range customKeys {
		props = append(props, Property{Key: k, Value: m.custom[k]})
	}

	known := map[string]string{}
	if m.description != "" {
		known[KeyDescription] = m.description
	}
	if m.timeout != DefaultTimeout {
		known[KeyTimeout] = strconv.FormatInt(int64(m.timeout/time.Second), 10)
	}
	if m.hasCleanup {
		known[KeyHasCleanup] = "true"
	}
	for k, vs := range map[string][]string{
		KeyRequiredPrograms: m.requiredPrograms,
		KeyRequiredFiles:    m.requiredFiles,
		KeyRequiredConfig:   m.requiredConfig,
		KeyRequiredArch:     m.requiredArch,
		KeyRequiredPlatform: m.requiredPlatform,
	} {
		if len(vs) > 0 {
			known[k] = strings.Join(vs, " ")
		}
	}
	if m.requiredUser != UserNone {
		known[KeyRequiredUser] = string(m.requiredUser)
	}
	if m.expected != (Expectation{Kind: ExpectPass}) {
		known[KeyExpectedResult] = m.expected.String()
	}
	keys := maps.Keys(known)
	slices.Sort(keys)
	for _, k := range keys {
		props = append(props, Property{Key: k, Value: known[k]})
	}
	return props
}

// Equal reports whether m and other serialize to the same properties.
func (m *Metadata) Equal(other *Metadata) bool {
	if m == nil || other == nil {
		return m == other
	}
	return slices.Equal(m.ToProperties(), other.ToProperties())
}
