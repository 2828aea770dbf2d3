// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

package jsonschemautil

import (
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Validate validates every YAML instance file against the JSON schema file.
// It stops at the first invalid file.
func Validate(schemafile string, instancefiles ...string) error {
	compiler := jsonschema.NewCompiler()
	schema, err := compiler.Compile(schemafile)
	if err != nil {
		return err
	}
	for _, f := range instancefiles {
		instance, err := os.ReadFile(f)
		if err != nil {
			return err
		}
		var y any
		if err := yaml.Unmarshal(instance, &y); err != nil {
			return fmt.Errorf("%q: %w", f, err)
		}
		if err := schema.Validate(y); err != nil {
			return fmt.Errorf("%q: %w", f, err)
		}
	}
	return nil
}
