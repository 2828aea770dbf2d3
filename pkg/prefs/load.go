// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

package prefs

import (
	"errors"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/mattn/go-shellwords"
	"github.com/sirupsen/logrus"

	"github.com/lima-vm/gradlemodel/pkg/localpathutil"
)

// Load parses a preferences YAML document. comment names the source in errors.
//
// Load does not validate. Use Validate for validation.
func Load(b []byte, comment string) (*Preferences, error) {
	var p Preferences
	if err := yaml.UnmarshalWithOptions(b, &p, yaml.Strict()); err != nil {
		return nil, fmt.Errorf("failed to unmarshal YAML (%s): %w", comment, err)
	}
	return &p, nil
}

// LoadFile loads path. A missing file yields empty preferences when optional is true.
func LoadFile(path string, optional bool) (*Preferences, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			logrus.Debugf("preferences file %q does not exist", path)
			return &Preferences{}, nil
		}
		return nil, err
	}
	return Load(b, path)
}

// ExpandPaths expands "~" in the local path fields and makes them absolute.
// A distribution that is not a local location is left untouched.
func ExpandPaths(p *Preferences) error {
	if p.Distribution != nil && *p.Distribution != "" {
		local, ok, err := localpathutil.FromLocation(*p.Distribution)
		if err != nil {
			return fmt.Errorf("field `distribution` refers to an invalid location %q: %w", *p.Distribution, err)
		}
		if ok {
			p.Distribution = &local
		}
	}
	for _, f := range []struct {
		name string
		v    **string
	}{
		{"gradleUserHome", &p.GradleUserHome},
		{"javaHome", &p.JavaHome},
	} {
		if *f.v == nil || **f.v == "" {
			continue
		}
		expanded, err := localpathutil.Expand(**f.v)
		if err != nil {
			return fmt.Errorf("field `%s` refers to an unexpandable path %q: %w", f.name, **f.v, err)
		}
		*f.v = &expanded
	}
	return nil
}

// SplitArgs splits a shell-style argument string, e.g. `-Xmx2g "-Dfoo=a b"`.
func SplitArgs(s string) ([]string, error) {
	args, err := shellwords.Parse(s)
	if err != nil {
		return nil, fmt.Errorf("failed to parse arguments %q: %w", s, err)
	}
	if args == nil {
		args = []string{}
	}
	return args, nil
}

// Marshal the preferences as a YAML document.
func Marshal(p *Preferences) ([]byte, error) {
	return yaml.Marshal(p)
}
