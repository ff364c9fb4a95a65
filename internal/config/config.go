// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package config holds the user-supplied configuration consulted when test
// cases are run.
//
// A configuration is a flat set of variables with dotted names. Nested YAML
// mappings are flattened, so
//
//	test_suites:
//	  my-suite:
//	    some_var: value
//
// defines the variable test_suites.my-suite.some_var.
package config

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/exp/maps"
	"gopkg.in/yaml.v2"

	"go.chromium.org/atfrun/errors"
)

// Well-known variables.
const (
	VarArchitecture     = "architecture"
	VarPlatform         = "platform"
	VarUnprivilegedUser = "unprivileged_user"

	suitesPrefix = "test_suites."
)

// Config is an immutable set of configuration variables.
type Config struct {
	vars map[string]string
}

var empty = &Config{vars: map[string]string{}}

// Empty returns the configuration without any variable.
func Empty() *Config {
	return empty
}

// New returns a configuration holding a copy of vars.
func New(vars map[string]string) *Config {
	return &Config{vars: maps.Clone(vars)}
}

// Load reads a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "failed to read configuration")
	}
	c, err := Parse(b)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load %s", path)
	}
	return c, nil
}

// Parse parses a YAML configuration.
func Parse(b []byte) (*Config, error) {
	var root map[interface{}]interface{}
	if err := yaml.UnmarshalStrict(b, &root); err != nil {
		return nil, errors.Wrap(err, "invalid YAML")
	}
	vars := map[string]string{}
	if err := flatten(vars, "", root); err != nil {
		return nil, err
	}
	return &Config{vars: vars}, nil
}

func flatten(dst map[string]string, prefix string, m map[interface{}]interface{}) error {
	for k, v := range m {
		name := prefix + fmt.Sprint(k)
		switch v := v.(type) {
		case map[interface{}]interface{}:
			if err := flatten(dst, name+".", v); err != nil {
				return err
			}
		case []interface{}:
			return errors.Errorf("variable %s: lists are not supported", name)
		case nil:
			return errors.Errorf("variable %s: no value", name)
		default:
			dst[name] = fmt.Sprint(v)
		}
	}
	return nil
}

// Lookup returns the value of the variable name.
func (c *Config) Lookup(name string) (string, bool) {
	v, ok := c.vars[name]
	return v, ok
}

// Vars returns a copy of all variables.
func (c *Config) Vars() map[string]string {
	return maps.Clone(c.vars)
}

// Architecture returns the architecture configured by the user, or "".
func (c *Config) Architecture() string {
	return c.vars[VarArchitecture]
}

// Platform returns the platform configured by the user, or "".
func (c *Config) Platform() string {
	return c.vars[VarPlatform]
}

// UnprivilegedUser returns the user to run unprivileged test cases as.
func (c *Config) UnprivilegedUser() (string, bool) {
	return c.Lookup(VarUnprivilegedUser)
}

// SuiteVars returns the variables of a test suite, keyed by their names
// without the test_suites.<suite>. prefix.
func (c *Config) SuiteVars(suite string) map[string]string {
	prefix := suitesPrefix + suite + "."
	vars := map[string]string{}
	for k, v := range c.vars {
		if name := strings.TrimPrefix(k, prefix); name != k && name != "" {
			vars[name] = v
		}
	}
	return vars
}
