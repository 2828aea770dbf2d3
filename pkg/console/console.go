// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

// Package console captures the standard output and standard error of one
// Gradle request and dumps them when released.
package console

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"sync"
)

// ErrConsoleClosed is returned by any operation on a released console.
var ErrConsoleClosed = errors.New("console is closed")

const (
	closingHeader = "Closing the console, dumping output received"
	outHeader     = "=== System.out ==="
	errHeader     = "=== System.err ==="
	footer        = "=================="
)

// Console owns two in-memory sinks. It is Open until Close is called.
type Console struct {
	name string
	dump io.Writer

	mu     sync.Mutex
	out    bytes.Buffer
	err    bytes.Buffer
	closed bool
}

// New returns an open console that dumps into w on Close.
func New(name string, w io.Writer) *Console {
	return &Console{name: name, dump: w}
}

// Name is the human readable label given at creation.
func (c *Console) Name() string {
	return c.name
}

// Stdout is the sink for the tool's standard output.
func (c *Console) Stdout() io.Writer {
	return sink{c: c, buf: &c.out}
}

// Stderr is the sink for the tool's standard error.
func (c *Console) Stderr() io.Writer {
	return sink{c: c, buf: &c.err}
}

// Close dumps the captured output and releases the sinks.
// Close must be called exactly once; later calls return ErrConsoleClosed.
func (c *Console) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrConsoleClosed
	}
	c.closed = true
	out, errOut := c.out.String(), c.err.String()
	c.out.Reset()
	c.err.Reset()
	_, err := fmt.Fprintf(c.dump, "%s\n%s\n%s\n%s\n%s\n%s\n",
		closingHeader, outHeader, out, errHeader, errOut, footer)
	return err
}

type sink struct {
	c   *Console
	buf *bytes.Buffer
}

func (s sink) Write(p []byte) (int, error) {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	if s.c.closed {
		return 0, ErrConsoleClosed
	}
	return s.buf.Write(p)
}
