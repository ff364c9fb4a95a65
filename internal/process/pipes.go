// Copyright 2026 The ChromiumOS Authors
// Use of this source code is governed by a BSD-style license that can be
// found in the LICENSE file.

package process

import (
	"io"
	"os"
	"sync"
	"time"

	"code.cloudfoundry.org/clock"

	"go.chromium.org/atfrun/errors"
)

// outputPipes carries the output of a subprocess through OS pipes that are
// drained by goroutines of this process. Since exec.Cmd sees plain files,
// waiting for the subprocess does not wait for descendants that inherited
// the write ends.
type outputPipes struct {
	readers []*os.File
	writers []*os.File
	wg      sync.WaitGroup
}

// newOutputPipes creates n pipes.
func newOutputPipes(n int) (*outputPipes, error) {
	p := &outputPipes{}
	for i := 0; i < n; i++ {
		r, w, err := os.Pipe()
		if err != nil {
			p.closeReaders()
			p.closeWriters()
			return nil, errors.Wrap(err, "failed to create pipe")
		}
		p.readers = append(p.readers, r)
		p.writers = append(p.writers, w)
	}
	return p, nil
}

// closeWriters closes the write ends held by this process. It must be
// called once the subprocess has been started.
func (p *outputPipes) closeWriters() {
	for _, w := range p.writers {
		w.Close()
	}
}

func (p *outputPipes) closeReaders() {
	for _, r := range p.readers {
		r.Close()
	}
}

// copyTo starts copying pipe i to dsts[i].
func (p *outputPipes) copyTo(dsts ...io.Writer) {
	for i, dst := range dsts {
		p.wg.Add(1)
		go func(r *os.File, dst io.Writer) {
			defer p.wg.Done()
			io.Copy(dst, r)
		}(p.readers[i], dst)
	}
}

// drain waits until every write end is closed, for at most timeout. It then
// closes the read ends, discarding output still held by processes that
// escaped the session. It reports whether all pipes reached end of file.
func (p *outputPipes) drain(clk clock.Clock, timeout time.Duration) bool {
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	timer := clk.NewTimer(timeout)
	defer timer.Stop()
	eof := true
	select {
	case <-done:
	case <-timer.C():
		eof = false
	}
	p.closeReaders()
	<-done
	return eof
}
