// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

package gradle

import (
	"bytes"
	"io"
	"strings"
)

// ProgressMarker prefixes the progress lines printed by the init script.
const ProgressMarker = "##gradlemodel-progress"

// progressWriter splits the launcher's stdout into lines, hands progress
// lines to the listeners and forwards everything else to out.
// exec.Cmd calls Write from a single goroutine.
type progressWriter struct {
	out       io.Writer
	listeners []func(string)
	buf       []byte
}

func newProgressWriter(out io.Writer, listeners []func(string)) *progressWriter {
	if out == nil {
		out = io.Discard
	}
	return &progressWriter{out: out, listeners: listeners}
}

func (w *progressWriter) Write(p []byte) (int, error) {
	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		line := w.buf[:i+1]
		w.buf = w.buf[i+1:]
		if err := w.handle(line); err != nil {
			return 0, err
		}
	}
	return len(p), nil
}

// Flush handles a trailing line that has no newline.
func (w *progressWriter) Flush() error {
	if len(w.buf) == 0 {
		return nil
	}
	line := w.buf
	w.buf = nil
	return w.handle(line)
}

func (w *progressWriter) handle(line []byte) error {
	s := trimEOL(string(line))
	if desc, ok := strings.CutPrefix(s, ProgressMarker); ok && (desc == "" || desc[0] == ' ') {
		desc = strings.TrimPrefix(desc, " ")
		for _, fn := range w.listeners {
			fn(desc)
		}
		return nil
	}
	_, err := w.out.Write(line)
	return err
}
