// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

package dirnames

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// DotGradleModel is a directory that appears under the home directory.
const DotGradleModel = ".gradlemodel"

// PrefsFile is the preferences file looked up under HomeDir.
const PrefsFile = "prefs.yaml"

// HomeDir returns the path of `~/.gradlemodel` (or $GRADLEMODEL_HOME, if set).
func HomeDir() (string, error) {
	dir := os.Getenv("GRADLEMODEL_HOME")
	if dir == "" {
		homeDir, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(homeDir, DotGradleModel)
	}
	if _, err := os.Stat(dir); errors.Is(err, os.ErrNotExist) {
		return dir, nil
	}
	realdir, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return "", fmt.Errorf("cannot evaluate symlinks in %q: %w", dir, err)
	}
	return realdir, nil
}

// CacheDir returns the path of the cache directory (or $GRADLEMODEL_CACHE, if set).
//
// NOTE: This uses ~/Library/Caches/gradlemodel on macOS, or $XDG_CACHE_HOME/gradlemodel on Linux.
func CacheDir() (string, error) {
	dir := os.Getenv("GRADLEMODEL_CACHE")
	if dir == "" {
		ucd, err := os.UserCacheDir()
		if err != nil {
			return "", err
		}
		dir = filepath.Join(ucd, "gradlemodel")
	}
	return dir, nil
}

// DistsDir returns the directory that unpacked distributions live in.
func DistsDir() (string, error) {
	cacheDir, err := CacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cacheDir, "dists"), nil
}

// GradleUserHome returns the user home Gradle itself would pick:
// $GRADLE_USER_HOME, or ~/.gradle.
func GradleUserHome() (string, error) {
	if dir := os.Getenv("GRADLE_USER_HOME"); dir != "" {
		return dir, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(homeDir, ".gradle"), nil
}
