// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package metadata

import (
	"strings"

	"go.chromium.org/atfrun/errors"
)

// atfKeys maps property names used in ATF test case listings to typed keys.
var atfKeys = map[string]string{
	"descr":           KeyDescription,
	"timeout":         KeyTimeout,
	"has.cleanup":     KeyHasCleanup,
	"require.progs":   KeyRequiredPrograms,
	"require.files":   KeyRequiredFiles,
	"require.user":    KeyRequiredUser,
	"require.config":  KeyRequiredConfig,
	"require.arch":    KeyRequiredArch,
	"require.machine": KeyRequiredPlatform,
}

// FromATF builds Metadata from the properties of one test case of an ATF
// listing, excluding its ident. X-* properties become custom.X-* ones.
func FromATF(wire Properties) (*Metadata, error) {
	var props Properties
	for _, p := range wire {
		switch key, ok := atfKeys[p.Key]; {
		case ok:
			props.Set(key, p.Value)
		case strings.HasPrefix(p.Key, "X-"):
			props.Set(CustomPrefix+p.Key, p.Value)
		default:
			return nil, errors.Formatf("Unknown test case metadata property '%s'", p.Key)
		}
	}
	return Validate(props)
}
