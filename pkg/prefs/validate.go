// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

package prefs

import (
	"errors"
	"fmt"
	"path/filepath"
)

func Validate(p *Preferences) error {
	var errs []error
	if p.Distribution != nil && *p.Distribution == "" {
		errs = append(errs, errors.New("field `distribution` must not be empty when set"))
	}
	if p.DistributionDigest != nil {
		d := *p.DistributionDigest
		if !d.Algorithm().Available() {
			errs = append(errs, fmt.Errorf("field `distributionDigest` refers to an unavailable digest algorithm %q", d.Algorithm()))
		} else if err := d.Validate(); err != nil {
			errs = append(errs, fmt.Errorf("field `distributionDigest` is invalid: %w", err))
		}
		if p.Distribution == nil {
			errs = append(errs, errors.New("field `distributionDigest` requires `distribution`"))
		}
	}
	for _, f := range []struct {
		name string
		v    *string
	}{
		{"gradleUserHome", p.GradleUserHome},
		{"javaHome", p.JavaHome},
	} {
		if f.v != nil && !filepath.IsAbs(*f.v) {
			errs = append(errs, fmt.Errorf("field `%s` must be an absolute path, got %q", f.name, *f.v))
		}
	}
	return errors.Join(errs...)
}
