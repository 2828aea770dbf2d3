// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

package localpathutil

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// ExpandHome expands a path like "~", "~/", "~/foo" against homeDir.
// Paths like "~foo/bar" are unsupported.
func ExpandHome(orig, homeDir string) (string, error) {
	s := orig
	if s == "" {
		return "", errors.New("empty path")
	}

	if strings.HasPrefix(s, "~") {
		if s == "~" || strings.HasPrefix(s, "~/") {
			s = strings.Replace(s, "~", homeDir, 1)
		} else {
			return "", fmt.Errorf("unexpandable path %q", orig)
		}
	}
	return s, nil
}

// Expand expands a path like "~", "~/", "~/foo", and makes it absolute.
func Expand(orig string) (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	s, err := ExpandHome(orig, homeDir)
	if err != nil {
		return "", err
	}
	return filepath.Abs(s)
}

// FromLocation converts a location that names the local filesystem into a path.
// Both plain paths and "file:" URIs are accepted.
// ok is false when the location carries any other scheme.
func FromLocation(loc string) (path string, ok bool, err error) {
	if loc == "" {
		return "", false, errors.New("empty location")
	}
	if strings.HasPrefix(loc, "file:") {
		u, err := url.Parse(loc)
		if err != nil {
			return "", false, err
		}
		p := u.Path
		if p == "" {
			p = u.Opaque
		}
		if !filepath.IsAbs(filepath.FromSlash(p)) {
			return "", false, fmt.Errorf("got non-absolute path %q in %q", p, loc)
		}
		return filepath.FromSlash(p), true, nil
	}
	if strings.Contains(loc, "://") {
		return "", false, nil
	}
	p, err := Expand(loc)
	if err != nil {
		return "", false, err
	}
	return p, true, nil
}
