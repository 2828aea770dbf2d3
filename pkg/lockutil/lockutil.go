// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

// Package lockutil serializes access to cache directories shared between
// concurrent gradlemodel processes.
package lockutil

import (
	"fmt"
	"os"
	"path/filepath"
)

// WithDirLock runs fn while holding an exclusive lock on dir.
// dir must exist.
func WithDirLock(dir string, fn func() error) error {
	st, err := os.Stat(dir)
	if err != nil {
		return err
	}
	if !st.IsDir() {
		return fmt.Errorf("expected %q to be a directory", dir)
	}
	return withLock(dir, fn)
}

// WithDirLockCreate is like WithDirLock but creates dir (and parents) first.
func WithDirLockCreate(dir string, fn func() error) error {
	if err := os.MkdirAll(filepath.Clean(dir), 0o755); err != nil {
		return err
	}
	return withLock(dir, fn)
}
