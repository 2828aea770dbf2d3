// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

package ptr

import (
	"testing"

	"gotest.tools/v3/assert"
)

func TestOf(t *testing.T) {
	assert.DeepEqual(t, bool(true), *Of(true))
	assert.DeepEqual(t, string("value"), *Of("value"))
}

func TestValueOr(t *testing.T) {
	var unset *string
	assert.Equal(t, ValueOr(unset, "default"), "default")
	assert.Equal(t, ValueOr(Of(""), "default"), "")
	assert.Equal(t, ValueOr(Of("/opt/gradle"), "default"), "/opt/gradle")
}

func TestClone(t *testing.T) {
	assert.Assert(t, Clone[string](nil) == nil)
	orig := Of("a")
	c := Clone(orig)
	*c = "b"
	assert.Equal(t, *orig, "a")
}
