// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

// Package buildmodel requests project models, one connection and one console per request.
package buildmodel

import (
	"context"
	"fmt"
	"io"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/lima-vm/gradlemodel/pkg/console"
	"github.com/lima-vm/gradlemodel/pkg/gradle"
	"github.com/lima-vm/gradlemodel/pkg/model"
	"github.com/lima-vm/gradlemodel/pkg/prefs"
)

type Runner struct {
	Connector *gradle.Connector
	// Out receives progress lines and console dumps.
	Out io.Writer
	// KeepGoing runs the remaining shapes after a failed request.
	KeepGoing bool
	// OnModel, if set, is called with every model returned.
	OnModel func(shape model.Shape, m any) error

	once sync.Once
	out  *lockedWriter
}

type Result struct {
	Shape model.Shape
	Model any
	Err   error
}

func (r *Runner) writer() *lockedWriter {
	r.once.Do(func() {
		w := r.Out
		if w == nil {
			w = io.Discard
		}
		r.out = &lockedWriter{w: w}
	})
	return r.out
}

// Request builds one model. The console is released before the connection,
// both are released on every path, and release failures only surface when
// the request itself succeeded.
func (r *Runner) Request(ctx context.Context, projectDir string, shape model.Shape, p *prefs.Preferences) (m any, retErr error) {
	connector := r.Connector
	if connector == nil {
		connector = &gradle.Connector{}
	}
	conn, err := connector.Connect(ctx, projectDir, p)
	if err != nil {
		return nil, err
	}
	defer func() {
		if err := conn.Close(); err != nil {
			logrus.WithError(err).Warnf("Failed to close the connection to %q", conn.ProjectDir)
			if retErr == nil {
				retErr = err
			}
		}
	}()

	out := r.writer()
	cons := console.New(fmt.Sprintf("Building Gradle Model '%s'", conn.ProjectDir), out)
	defer func() {
		if err := cons.Close(); err != nil {
			logrus.WithError(err).Warnf("Failed to close the console %q", cons.Name())
			if retErr == nil {
				retErr = err
			}
		}
	}()

	b := conn.Model(shape)
	gradle.ConfigureOperation(b, p)
	b.SetStandardOutput(cons.Stdout()).
		SetStandardError(cons.Stderr()).
		AddProgressListener(func(description string) {
			fmt.Fprintf(out, "progress = '%s'\n", description)
		})
	logrus.Debugf("Requesting the %s model", model.TypeName(shape))
	return b.Get(ctx)
}

// Run requests every shape in order. Without KeepGoing it stops at the
// first failure. The returned error wraps the first failure.
func (r *Runner) Run(ctx context.Context, projectDir string, shapes []model.Shape, p *prefs.Preferences) ([]Result, error) {
	var (
		results []Result
		first   error
		failed  int
	)
	for _, shape := range shapes {
		m, err := r.Request(ctx, projectDir, shape, p)
		if err == nil && r.OnModel != nil {
			err = r.OnModel(shape, m)
		}
		results = append(results, Result{Shape: shape, Model: m, Err: err})
		if err == nil {
			continue
		}
		failed++
		logrus.WithError(err).WithField("shape", shape).Errorf("The %s request failed", model.TypeName(shape))
		if first == nil {
			first = err
		}
		if !r.KeepGoing {
			break
		}
	}
	if first == nil {
		return results, nil
	}
	if failed == 1 {
		return results, first
	}
	return results, fmt.Errorf("%d of %d model requests failed, first: %w", failed, len(shapes), first)
}

type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
