// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

package jsonschemautil

import (
	"os"
	"path/filepath"
	"testing"

	"gotest.tools/v3/assert"
)

const schema = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "type": "object",
  "properties": {
    "distribution": {"type": "string"},
    "jvmArguments": {"type": "array", "items": {"type": "string"}}
  },
  "additionalProperties": false
}`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	assert.NilError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func TestValidateValidInstance(t *testing.T) {
	dir := t.TempDir()
	schemafile := writeFile(t, dir, "schema.json", schema)
	instance := writeFile(t, dir, "valid.yaml", "distribution: /opt/gradle-8.10\njvmArguments: [-Xmx1g]\n")
	assert.NilError(t, Validate(schemafile, instance))
}

func TestValidateInvalidInstance(t *testing.T) {
	dir := t.TempDir()
	schemafile := writeFile(t, dir, "schema.json", schema)
	valid := writeFile(t, dir, "valid.yaml", "distribution: /opt/gradle-8.10\n")
	invalid := writeFile(t, dir, "invalid.yaml", "distribution: /opt/gradle-8.10\njavaHomes: /opt/jdk\n")
	err := Validate(schemafile, valid, invalid)
	assert.ErrorContains(t, err, "jsonschema validation failed")
	assert.ErrorContains(t, err, "invalid.yaml")
}
