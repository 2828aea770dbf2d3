// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

package yqutil

import (
	"bytes"
	"fmt"
	"os"

	"github.com/mikefarah/yq/v4/pkg/yqlib"
	"github.com/sirupsen/logrus"
	logging "gopkg.in/op/go-logging.v1"
)

// YAMLEncoder returns the encoder used for YAML output.
func YAMLEncoder() yqlib.Encoder {
	prefs := yqlib.ConfiguredYamlPreferences.Copy()
	prefs.Indent = 2
	prefs.ColorsEnabled = false
	return yqlib.NewYamlEncoder(prefs)
}

// JSONEncoder returns the encoder used for JSON output.
func JSONEncoder(colors bool) yqlib.Encoder {
	prefs := yqlib.ConfiguredJSONPreferences.Copy()
	prefs.Indent = 2
	prefs.ColorsEnabled = colors
	return yqlib.NewJSONEncoder(prefs)
}

// EvaluateExpression evaluates the yq expression, and returns the modified yaml.
func EvaluateExpression(expression string, content []byte) ([]byte, error) {
	if expression == "" {
		return content, nil
	}
	return EvaluateExpressionWithEncoder(expression, content, YAMLEncoder())
}

// EvaluateExpressionWithEncoder evaluates the yq expression over the YAML content
// and formats the result with encoder.
func EvaluateExpressionWithEncoder(expression string, content []byte, encoder yqlib.Encoder) ([]byte, error) {
	if expression == "" {
		expression = "."
	}
	tmpYAMLFile, err := os.CreateTemp("", "gradlemodel-yq-*.yaml")
	if err != nil {
		return nil, err
	}
	tmpYAMLPath := tmpYAMLFile.Name()
	defer os.RemoveAll(tmpYAMLPath)
	_, err = tmpYAMLFile.Write(content)
	if closeErr := tmpYAMLFile.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		return nil, err
	}

	memory := logging.NewMemoryBackend(0)
	backend := logging.AddModuleLevel(memory)
	logging.SetBackend(backend)
	yqlib.InitExpressionParser()

	out := new(bytes.Buffer)
	printer := yqlib.NewPrinter(encoder, yqlib.NewSinglePrinterWriter(out))
	decoder := yqlib.NewYamlDecoder(yqlib.ConfiguredYamlPreferences)

	streamEvaluator := yqlib.NewStreamEvaluator()
	err = streamEvaluator.EvaluateFiles(expression, []string{tmpYAMLPath}, printer, decoder)
	if err != nil {
		replayLogs(memory)
		return nil, err
	}
	return out.Bytes(), nil
}

func replayLogs(memory *logging.MemoryBackend) {
	logger := logrus.StandardLogger()
	for node := memory.Head(); node != nil; node = node.Next() {
		entry := logrus.NewEntry(logger).WithTime(node.Record.Time)
		message := fmt.Sprintf("[%s] %s", node.Record.Module, node.Record.Message())
		switch node.Record.Level {
		case logging.CRITICAL, logging.ERROR:
			entry.Error(message)
		case logging.WARNING:
			entry.Warn(message)
		case logging.NOTICE, logging.INFO:
			entry.Info(message)
		case logging.DEBUG:
			entry.Debug(message)
		}
	}
}
