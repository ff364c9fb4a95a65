// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

// Package protocol reads and writes the test case listings that ATF test
// programs print when run with -l.
//
// A listing looks like this:
//
//	Content-Type: application/X-atf-tp; version="1"
//
//	ident: first
//	descr: This is the description
//	timeout: 500
//
//	ident: second
//
// Every paragraph starts with an ident line naming a test case and is
// followed by the properties of that test case.
package protocol

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"strings"

	"go.chromium.org/atfrun/errors"
	"go.chromium.org/atfrun/internal/metadata"
)

// Header is the first line of a listing.
const Header = `Content-Type: application/X-atf-tp; version="1"`

const identKey = "ident"

var (
	propertyRE = regexp.MustCompile(`^([^\s:]+):(?:[ \t]+(.*))?$`)
	nameRE     = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
)

// TestCase is a test case declared in a listing.
type TestCase struct {
	Name string
	// Properties holds the raw properties of the paragraph, except ident,
	// in the order they appeared.
	Properties metadata.Properties
	Metadata   *metadata.Metadata
}

// ValidName reports whether name can name a test case.
func ValidName(name string) bool {
	return nameRE.MatchString(name)
}

// parser holds the state of a single pass over a listing.
type parser struct {
	r     *bufio.Reader
	eof   bool
	cases []*TestCase
	seen  map[string]struct{}
	cur   *TestCase
	keys  map[string]struct{}
}

// ParseTestCases reads a listing from r. All failures are format errors.
func ParseTestCases(r io.Reader) ([]*TestCase, error) {
	p := &parser{r: bufio.NewReader(r), seen: map[string]struct{}{}}
	return p.parse()
}

// next returns the next line without its terminating newline. ok is false at
// the end of input.
func (p *parser) next() (line string, ok bool, err error) {
	if p.eof {
		return "", false, nil
	}
	line, err = p.r.ReadString('\n')
	if err == io.EOF {
		p.eof = true
		if line == "" {
			return "", false, nil
		}
	} else if err != nil {
		return "", false, errors.Wrap(err, "failed to read test case list")
	}
	return strings.TrimSuffix(line, "\n"), true, nil
}

func (p *parser) parse() ([]*TestCase, error) {
	line, _, err := p.next()
	if err != nil {
		return nil, err
	}
	if line != Header {
		return nil, errors.Formatf("Invalid header for test case list; expecting Content-Type for application/X-atf-tp version 1, got '%s'", line)
	}
	line, ok, err := p.next()
	if err != nil {
		return nil, err
	}
	if !ok || line != "" {
		return nil, errors.Formatf("Invalid header for test case list; expecting a blank line, got '%s'", line)
	}

	for {
		line, ok, err := p.next()
		if err != nil {
			return nil, err
		}
		if !ok {
			break
		}
		if err := p.feed(line); err != nil {
			return nil, err
		}
	}
	if err := p.closeParagraph(); err != nil {
		return nil, err
	}
	if len(p.cases) == 0 {
		return nil, errors.Format("No test cases")
	}
	return p.cases, nil
}

func (p *parser) feed(line string) error {
	if line == "" {
		return p.closeParagraph()
	}
	m := propertyRE.FindStringSubmatch(line)
	if m == nil {
		return errors.Formatf("Invalid property line '%s'", line)
	}
	key, value := m[1], m[2]

	if key == identKey {
		if p.cur != nil {
			return errors.Formatf("Unexpected identifier line '%s' in test case '%s'; expecting a blank line first", line, p.cur.Name)
		}
		if !ValidName(value) {
			return errors.Formatf("Invalid test case name '%s'", value)
		}
		if _, dup := p.seen[value]; dup {
			return errors.Formatf("Duplicate test case '%s'", value)
		}
		p.seen[value] = struct{}{}
		p.cur = &TestCase{Name: value}
		p.keys = map[string]struct{}{}
		return nil
	}

	if p.cur == nil {
		return errors.Formatf("Property '%s' must be preceded by an identifier line", key)
	}
	if _, dup := p.keys[key]; dup {
		return errors.Formatf("Duplicate property '%s' in test case '%s'", key, p.cur.Name)
	}
	p.keys[key] = struct{}{}
	p.cur.Properties = append(p.cur.Properties, metadata.Property{Key: key, Value: value})
	return nil
}

// closeParagraph validates the open paragraph, if any. Blank lines outside a
// paragraph are ignored.
func (p *parser) closeParagraph() error {
	if p.cur == nil {
		return nil
	}
	md, err := metadata.FromATF(p.cur.Properties)
	if err != nil {
		return err
	}
	p.cur.Metadata = md
	p.cases = append(p.cases, p.cur)
	p.cur = nil
	p.keys = nil
	return nil
}

// WriteTestCases writes a listing declaring cases to w. Only Name and
// Properties of each case are used.
func WriteTestCases(w io.Writer, cases []*TestCase) error {
	bw := bufio.NewWriter(w)
	fmt.Fprintf(bw, "%s\n", Header)
	for _, tc := range cases {
		fmt.Fprintf(bw, "\n%s: %s\n", identKey, tc.Name)
		for _, prop := range tc.Properties {
			fmt.Fprintf(bw, "%s: %s\n", prop.Key, prop.Value)
		}
	}
	return bw.Flush()
}
