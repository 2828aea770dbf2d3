// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

package yqutil

import (
	"strings"
	"testing"

	"gotest.tools/v3/assert"
)

const project = `name: sample-project
path: ':'
children:
  - name: core
    path: ':core'
  - name: api
    path: ':api'
`

func TestEvaluateExpressionEmpty(t *testing.T) {
	out, err := EvaluateExpression("", []byte(project))
	assert.NilError(t, err)
	assert.Equal(t, string(out), project)
}

func TestEvaluateExpressionScalar(t *testing.T) {
	out, err := EvaluateExpression(".name", []byte(project))
	assert.NilError(t, err)
	assert.Equal(t, string(out), "sample-project\n")
}

func TestEvaluateExpressionChildren(t *testing.T) {
	out, err := EvaluateExpression(".children[].path", []byte(project))
	assert.NilError(t, err)
	assert.Equal(t, string(out), ":core\n:api\n")
}

func TestEvaluateExpressionJSON(t *testing.T) {
	out, err := EvaluateExpressionWithEncoder(".children[0]", []byte(project), JSONEncoder(false))
	assert.NilError(t, err)
	assert.Assert(t, strings.Contains(string(out), `"name": "core"`), string(out))
}

func TestEvaluateExpressionError(t *testing.T) {
	_, err := EvaluateExpression(".children[", []byte(project))
	assert.Assert(t, err != nil)
}
