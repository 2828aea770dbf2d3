// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

package console

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"gotest.tools/v3/assert"
)

func TestCloseDumpsInOrder(t *testing.T) {
	var log bytes.Buffer
	c := New("Building Gradle Model '/tmp/sample-project'", &log)
	fmt.Fprint(c.Stdout(), "BUILD SUCCESSFUL")
	fmt.Fprint(c.Stderr(), "warning: deprecated")
	assert.NilError(t, c.Close())

	want := strings.Join([]string{
		"Closing the console, dumping output received",
		"=== System.out ===",
		"BUILD SUCCESSFUL",
		"=== System.err ===",
		"warning: deprecated",
		"==================",
		"",
	}, "\n")
	assert.Equal(t, log.String(), want)
}

func TestCloseEmpty(t *testing.T) {
	var log bytes.Buffer
	c := New("empty", &log)
	assert.NilError(t, c.Close())
	assert.Equal(t, log.String(), "Closing the console, dumping output received\n=== System.out ===\n\n=== System.err ===\n\n==================\n")
}

func TestUseAfterClose(t *testing.T) {
	var log bytes.Buffer
	c := New("twice", &log)
	assert.NilError(t, c.Close())
	dumped := log.String()

	err := c.Close()
	assert.Assert(t, errors.Is(err, ErrConsoleClosed))
	assert.Equal(t, log.String(), dumped, "the dump must appear exactly once")

	_, err = c.Stdout().Write([]byte("late"))
	assert.Assert(t, errors.Is(err, ErrConsoleClosed))
	_, err = c.Stderr().Write([]byte("late"))
	assert.Assert(t, errors.Is(err, ErrConsoleClosed))
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestCloseReportsDumpError(t *testing.T) {
	c := New("broken log", failingWriter{})
	assert.ErrorContains(t, c.Close(), "disk full")
	assert.Assert(t, errors.Is(c.Close(), ErrConsoleClosed))
}
