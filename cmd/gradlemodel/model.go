// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"

	"github.com/lima-vm/gradlemodel/pkg/buildmodel"
	"github.com/lima-vm/gradlemodel/pkg/model"
	"github.com/lima-vm/gradlemodel/pkg/uiutil"
	"github.com/lima-vm/gradlemodel/pkg/yqutil"
)

func newModelCommand() *cobra.Command {
	modelCommand := &cobra.Command{
		Use:   "model [PROJECT_DIR]",
		Short: "Request project models from Gradle",
		Long: `Request project models from Gradle.

Each requested shape opens its own connection to Gradle. Progress is printed
as it arrives, followed by the console output Gradle produced.

Shapes:
  summary  HierarchicalEclipseProject (project structure)
  full     EclipseProject (structure, classpath, tasks)
  all      summary, then full (default)`,
		Example: `  $ gradlemodel model
  $ gradlemodel model --shape=full --output=json ~/src/sample-project
  $ gradlemodel model --shape=summary --yq='.children[].path'`,
		Args:    WrapArgsError(cobra.MaximumNArgs(1)),
		RunE:    modelAction,
		GroupID: basicCommand,
	}
	flags := modelCommand.Flags()
	flags.String("shape", "all", "Model shape [summary, full, all]")
	flags.Bool("keep-going", false, "Request the remaining shapes after a failure")
	flags.StringP("output", "o", "none", "Print the returned models [none, yaml, json]")
	flags.String("yq", "", "Apply yq expression to each printed model (implies --output=yaml unless set)")
	registerPrefsFlags(flags)
	return modelCommand
}

func modelAction(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	flags := cmd.Flags()
	shapeName, err := flags.GetString("shape")
	if err != nil {
		return err
	}
	shapes, err := model.ParseShape(shapeName)
	if err != nil {
		return err
	}
	keepGoing, err := flags.GetBool("keep-going")
	if err != nil {
		return err
	}
	output, err := flags.GetString("output")
	if err != nil {
		return err
	}
	yq, err := flags.GetString("yq")
	if err != nil {
		return err
	}
	if yq != "" && !flags.Changed("output") {
		output = "yaml"
	}
	printer, err := newModelPrinter(cmd.OutOrStdout(), output, yq)
	if err != nil {
		return err
	}

	p, err := loadPreferences(cmd)
	if err != nil {
		return err
	}
	connector, err := newConnector()
	if err != nil {
		return err
	}
	r := &buildmodel.Runner{
		Connector: connector,
		Out:       cmd.OutOrStdout(),
		KeepGoing: keepGoing,
		OnModel:   printer,
	}
	_, err = r.Run(ctx, projectDirArg(args), shapes, p)
	return err
}

func newModelPrinter(w io.Writer, output, yq string) (func(model.Shape, any) error, error) {
	switch output {
	case "none":
		if yq != "" {
			return nil, fmt.Errorf("--yq cannot be used with --output=%s", output)
		}
		return nil, nil
	case "yaml", "json":
	default:
		return nil, fmt.Errorf("unsupported output: %q", output)
	}
	colors := uiutil.OutputIsTTY(w)
	return func(shape model.Shape, m any) error {
		var b []byte
		var err error
		switch {
		case yq != "":
			b, err = yaml.Marshal(m)
			if err != nil {
				return err
			}
			encoder := yqutil.YAMLEncoder()
			if output == "json" {
				encoder = yqutil.JSONEncoder(colors)
			}
			b, err = yqutil.EvaluateExpressionWithEncoder(yq, b, encoder)
		case output == "json":
			b, err = json.MarshalIndent(m, "", "  ")
			b = append(b, '\n')
		default:
			b, err = yaml.Marshal(m)
			b = append([]byte(fmt.Sprintf("--- # %s\n", model.TypeName(shape))), b...)
		}
		if err != nil {
			return err
		}
		_, err = w.Write(b)
		return err
	}, nil
}
