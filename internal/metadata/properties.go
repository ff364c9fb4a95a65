// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package metadata

import (
	"sort"

	"golang.org/x/exp/slices"
)

// Property is a single key/value pair of test case metadata.
type Property struct {
	Key   string
	Value string
}

// Properties is an ordered list of properties with unique keys.
type Properties []Property

// Set sets key to value. An existing key keeps its position.
func (ps *Properties) Set(key, value string) {
	for i := range *ps {
		if (*ps)[i].Key == key {
			(*ps)[i].Value = value
			return
		}
	}
	*ps = append(*ps, Property{Key: key, Value: value})
}

// Equal reports whether ps and other hold the same key/value pairs,
// ignoring order.
func (ps Properties) Equal(other Properties) bool {
	if len(ps) != len(other) {
		return false
	}
	a := slices.Clone(ps)
	b := slices.Clone(other)
	sort.Slice(a, func(i, j int) bool { return a[i].Key < a[j].Key })
	sort.Slice(b, func(i, j int) bool { return b[i].Key < b[j].Key })
	return slices.Equal(a, b)
}
