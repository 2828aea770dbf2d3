// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

// Package gradle runs a Gradle launcher to obtain project models.
package gradle

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"

	"github.com/lima-vm/gradlemodel/pkg/distribution"
	"github.com/lima-vm/gradlemodel/pkg/model"
	"github.com/lima-vm/gradlemodel/pkg/prefs"
)

//go:embed model.init.gradle
var initScript []byte

const initScriptName = "gradlemodel.init.gradle"

// Connector opens connections. The zero value resolves launchers without a cache.
type Connector struct {
	Resolver *distribution.Resolver
}

// Connection is one session with Gradle for one project directory.
// It must be closed exactly once.
type Connection struct {
	ProjectDir     string
	Installation   *distribution.Installation
	GradleUserHome string

	scratchDir string

	mu     sync.Mutex
	closed bool
}

// Connect validates projectDir and resolves the launcher.
// Only Distribution, DistributionDigest and GradleUserHome of p are used here;
// the rest belongs to each operation (see ConfigureOperation).
func (c *Connector) Connect(ctx context.Context, projectDir string, p *prefs.Preferences) (*Connection, error) {
	if p == nil {
		p = &prefs.Preferences{}
	}
	abs, err := filepath.Abs(projectDir)
	if err != nil {
		return nil, &ConnectionError{ProjectDir: projectDir, Err: err}
	}
	st, err := os.Stat(abs)
	if err != nil {
		return nil, &ConnectionError{ProjectDir: abs, Err: err}
	}
	if !st.IsDir() {
		return nil, &ConnectionError{ProjectDir: abs, Err: fmt.Errorf("%q is not a directory", abs)}
	}

	conn := &Connection{ProjectDir: abs}
	if p.GradleUserHome != nil {
		conn.GradleUserHome = *p.GradleUserHome
	}

	resolver := c.Resolver
	if resolver == nil {
		resolver = &distribution.Resolver{}
	}
	inst, err := resolver.Resolve(ctx, abs, p.Distribution, p.DistributionDigest)
	if err != nil {
		return nil, &ConnectionError{ProjectDir: abs, Err: err}
	}
	if err := inst.CheckVersion(); err != nil {
		return nil, &ConnectionError{ProjectDir: abs, Err: err}
	}
	conn.Installation = inst
	logrus.WithFields(logrus.Fields{
		"kind":     inst.Kind,
		"launcher": inst.Launcher,
	}).Debugf("Connected to Gradle for %q", abs)

	conn.scratchDir, err = os.MkdirTemp("", "gradlemodel-")
	if err != nil {
		return nil, &ConnectionError{ProjectDir: abs, Err: err}
	}
	if err := os.WriteFile(filepath.Join(conn.scratchDir, initScriptName), initScript, 0o644); err != nil {
		_ = os.RemoveAll(conn.scratchDir)
		return nil, &ConnectionError{ProjectDir: abs, Err: err}
	}
	return conn, nil
}

// Model starts a pending request for shape.
func (c *Connection) Model(shape model.Shape) *ModelBuilder {
	return &ModelBuilder{conn: c, shape: shape}
}

// Close releases the connection. Calling it again returns ErrConnectionClosed.
func (c *Connection) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrConnectionClosed
	}
	c.closed = true
	if c.scratchDir == "" {
		return nil
	}
	if err := os.RemoveAll(c.scratchDir); err != nil {
		return fmt.Errorf("failed to remove %q: %w", c.scratchDir, err)
	}
	return nil
}

func (c *Connection) checkOpen() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrConnectionClosed
	}
	return nil
}

// IsClosed reports whether Close has been called.
func (c *Connection) IsClosed() bool {
	return errors.Is(c.checkOpen(), ErrConnectionClosed)
}
