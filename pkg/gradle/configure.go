// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

package gradle

import "github.com/lima-vm/gradlemodel/pkg/prefs"

// ConfigureOperation applies the per-operation preferences that are present.
// Values are passed through verbatim; Gradle reports anything it rejects.
func ConfigureOperation(b *ModelBuilder, p *prefs.Preferences) {
	if p == nil {
		return
	}
	if p.JavaHome != nil {
		b.SetJavaHome(*p.JavaHome)
	}
	if p.JVMArguments != nil {
		b.SetJVMArguments(p.JVMArguments...)
	}
	if p.ProgramArguments != nil {
		b.WithArguments(p.ProgramArguments...)
	}
}
