// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

package daemonlog

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"gotest.tools/v3/assert"
	"gotest.tools/v3/poll"
)

func writeLog(t *testing.T, path, content string, mtime time.Time) {
	t.Helper()
	assert.NilError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	assert.NilError(t, os.WriteFile(path, []byte(content), 0o644))
	assert.NilError(t, os.Chtimes(path, mtime, mtime))
}

func TestLatest(t *testing.T) {
	home := t.TempDir()
	_, err := Latest(home)
	assert.Assert(t, errors.Is(err, ErrNoDaemonLog))

	now := time.Now()
	older := filepath.Join(home, "daemon", "8.10", "daemon-100.out.log")
	newer := filepath.Join(home, "daemon", "8.5", "daemon-200.out.log")
	writeLog(t, older, "old\n", now.Add(-time.Hour))
	writeLog(t, newer, "new\n", now)
	writeLog(t, filepath.Join(home, "daemon", "8.10", "registry.bin"), "", now.Add(time.Hour))

	got, err := Latest(home)
	assert.NilError(t, err)
	assert.Equal(t, got, newer)

	var buf bytes.Buffer
	assert.NilError(t, Print(got, &buf))
	assert.Equal(t, buf.String(), "new\n")
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func TestFollow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "daemon-1.out.log")
	writeLog(t, path, "Daemon server started.\n", time.Now())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var out syncBuffer
	done := make(chan error, 1)
	go func() { done <- Follow(ctx, path, &out) }()

	poll.WaitOn(t, func(poll.LogT) poll.Result {
		if strings.Contains(out.String(), "Daemon server started.") {
			return poll.Success()
		}
		return poll.Continue("waiting for the existing content")
	}, poll.WithTimeout(10*time.Second))

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	assert.NilError(t, err)
	_, err = f.WriteString("Received command: Build{id=1}.\n")
	assert.NilError(t, err)
	assert.NilError(t, f.Close())

	poll.WaitOn(t, func(poll.LogT) poll.Result {
		if strings.Contains(out.String(), "Received command: Build{id=1}.") {
			return poll.Success()
		}
		return poll.Continue("waiting for the appended line")
	}, poll.WithTimeout(10*time.Second))

	cancel()
	assert.NilError(t, <-done)
}
