// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

package distribution

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/sirupsen/logrus"

	"github.com/lima-vm/gradlemodel/pkg/lockutil"
)

// completeMarker is created after an archive has been fully unpacked.
const completeMarker = ".complete"

// Unpack extracts the zip archive into destDir (once) and returns the
// installation home: the single top-level directory of the archive.
func Unpack(archive, destDir string) (string, error) {
	var home string
	err := lockutil.WithDirLockCreate(destDir, func() error {
		if _, err := os.Stat(filepath.Join(destDir, completeMarker)); err == nil {
			logrus.Debugf("distribution %q is already unpacked in %q", archive, destDir)
			var err error
			home, err = findHome(destDir)
			return err
		}
		if err := clearDir(destDir); err != nil {
			return err
		}
		logrus.Infof("Unpacking %q into %q", archive, destDir)
		if err := extractZip(archive, destDir); err != nil {
			return err
		}
		var err error
		home, err = findHome(destDir)
		if err != nil {
			return err
		}
		return os.WriteFile(filepath.Join(destDir, completeMarker), []byte(archive), 0o644)
	})
	return home, err
}

func clearDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if err := os.RemoveAll(filepath.Join(dir, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

func findHome(dir string) (string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return "", err
	}
	var dirs []string
	for _, e := range entries {
		if e.IsDir() {
			dirs = append(dirs, filepath.Join(dir, e.Name()))
		}
	}
	if len(dirs) != 1 {
		return "", fmt.Errorf("expected exactly one top-level directory in the distribution, got %d", len(dirs))
	}
	return dirs[0], nil
}

func extractZip(archive, destDir string) error {
	zr, err := zip.OpenReader(archive)
	if err != nil {
		return err
	}
	defer zr.Close()
	for _, f := range zr.File {
		if err := extractZipEntry(f, destDir); err != nil {
			return fmt.Errorf("failed to extract %q: %w", f.Name, err)
		}
	}
	return nil
}

func extractZipEntry(f *zip.File, destDir string) error {
	target, err := securejoin.SecureJoin(destDir, f.Name)
	if err != nil {
		return err
	}
	mode := f.Mode()
	switch {
	case mode.IsDir():
		return os.MkdirAll(target, 0o755)
	case mode&os.ModeSymlink != 0:
		return errors.New("symbolic links are not supported in distribution archives")
	}
	if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return err
	}
	r, err := f.Open()
	if err != nil {
		return err
	}
	defer r.Close()
	perm := mode.Perm()
	if perm == 0 {
		perm = 0o644
	}
	w, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	if _, err := io.Copy(w, r); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}
