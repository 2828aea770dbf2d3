// SPDX-FileCopyrightText: Copyright The Lima Authors
// SPDX-License-Identifier: Apache-2.0

// Package model defines the Eclipse-flavored project models Gradle returns.
package model

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Shape selects which model a request asks for.
type Shape = string

const (
	// ShapeSummary is the HierarchicalEclipseProject model: structure only.
	ShapeSummary Shape = "summary"
	// ShapeFull is the EclipseProject model: structure plus classpath and tasks.
	ShapeFull Shape = "full"
)

// Shapes lists every shape in request order.
var Shapes = []Shape{ShapeSummary, ShapeFull}

// ParseShape accepts a shape name, or "all" for every shape in order.
func ParseShape(s string) ([]Shape, error) {
	switch strings.ToLower(s) {
	case ShapeSummary, "hierarchical":
		return []Shape{ShapeSummary}, nil
	case ShapeFull, "eclipse":
		return []Shape{ShapeFull}, nil
	case "all", "":
		return Shapes, nil
	default:
		return nil, fmt.Errorf("unknown model shape %q (expected %q, %q or \"all\")", s, ShapeSummary, ShapeFull)
	}
}

// TypeName is the Gradle tooling model type a shape stands for.
func TypeName(s Shape) string {
	if s == ShapeFull {
		return "EclipseProject"
	}
	return "HierarchicalEclipseProject"
}

type LinkedResource struct {
	Name        string `json:"name" yaml:"name"`
	Type        string `json:"type,omitempty" yaml:"type,omitempty"`
	Location    string `json:"location,omitempty" yaml:"location,omitempty"`
	LocationURI string `json:"locationUri,omitempty" yaml:"locationUri,omitempty"`
}

type SourceDirectory struct {
	Path      string `json:"path" yaml:"path"`
	Directory string `json:"directory" yaml:"directory"`
	Output    string `json:"output,omitempty" yaml:"output,omitempty"`
}

type ProjectDependency struct {
	Path     string `json:"path" yaml:"path"`
	Exported bool   `json:"exported,omitempty" yaml:"exported,omitempty"`
}

// HierarchicalProject is the summary shape.
type HierarchicalProject struct {
	Name                string                `json:"name" yaml:"name"`
	Path                string                `json:"path" yaml:"path"`
	Description         string                `json:"description,omitempty" yaml:"description,omitempty"`
	ProjectDirectory    string                `json:"projectDirectory" yaml:"projectDirectory"`
	LinkedResources     []LinkedResource      `json:"linkedResources,omitempty" yaml:"linkedResources,omitempty"`
	SourceDirectories   []SourceDirectory     `json:"sourceDirectories,omitempty" yaml:"sourceDirectories,omitempty"`
	ProjectDependencies []ProjectDependency   `json:"projectDependencies,omitempty" yaml:"projectDependencies,omitempty"`
	Children            []HierarchicalProject `json:"children,omitempty" yaml:"children,omitempty"`
}

type ExternalDependency struct {
	File     string `json:"file" yaml:"file"`
	Source   string `json:"source,omitempty" yaml:"source,omitempty"`
	Javadoc  string `json:"javadoc,omitempty" yaml:"javadoc,omitempty"`
	Group    string `json:"group,omitempty" yaml:"group,omitempty"`
	Name     string `json:"name,omitempty" yaml:"name,omitempty"`
	Version  string `json:"version,omitempty" yaml:"version,omitempty"`
	Scope    string `json:"scope,omitempty" yaml:"scope,omitempty"`
	Exported bool   `json:"exported,omitempty" yaml:"exported,omitempty"`
}

type Task struct {
	Name        string `json:"name" yaml:"name"`
	Path        string `json:"path" yaml:"path"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

type JavaSourceSettings struct {
	SourceLevel string `json:"sourceLevel,omitempty" yaml:"sourceLevel,omitempty"`
	TargetLevel string `json:"targetLevel,omitempty" yaml:"targetLevel,omitempty"`
}

// EclipseProject is the full shape.
type EclipseProject struct {
	Name                string               `json:"name" yaml:"name"`
	Path                string               `json:"path" yaml:"path"`
	Description         string               `json:"description,omitempty" yaml:"description,omitempty"`
	ProjectDirectory    string               `json:"projectDirectory" yaml:"projectDirectory"`
	LinkedResources     []LinkedResource     `json:"linkedResources,omitempty" yaml:"linkedResources,omitempty"`
	SourceDirectories   []SourceDirectory    `json:"sourceDirectories,omitempty" yaml:"sourceDirectories,omitempty"`
	ProjectDependencies []ProjectDependency  `json:"projectDependencies,omitempty" yaml:"projectDependencies,omitempty"`
	Classpath           []ExternalDependency `json:"classpath,omitempty" yaml:"classpath,omitempty"`
	Tasks               []Task               `json:"tasks,omitempty" yaml:"tasks,omitempty"`
	JavaSourceSettings  *JavaSourceSettings  `json:"javaSourceSettings,omitempty" yaml:"javaSourceSettings,omitempty"`
	Natures             []string             `json:"natures,omitempty" yaml:"natures,omitempty"`
	BuildCommands       []string             `json:"buildCommands,omitempty" yaml:"buildCommands,omitempty"`
	OutputLocation      string               `json:"outputLocation,omitempty" yaml:"outputLocation,omitempty"`
	Children            []EclipseProject     `json:"children,omitempty" yaml:"children,omitempty"`
}

// Decode parses the JSON document written by the init script for shape.
// The result is *HierarchicalProject or *EclipseProject.
func Decode(shape Shape, b []byte) (any, error) {
	var v any
	switch shape {
	case ShapeSummary:
		v = &HierarchicalProject{}
	case ShapeFull:
		v = &EclipseProject{}
	default:
		return nil, fmt.Errorf("unknown model shape %q", shape)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return nil, fmt.Errorf("failed to decode %s model: %w", TypeName(shape), err)
	}
	return v, nil
}

// Walk visits p and its descendants depth-first.
func (p *HierarchicalProject) Walk(fn func(*HierarchicalProject)) {
	fn(p)
	for i := range p.Children {
		p.Children[i].Walk(fn)
	}
}

// Walk visits p and its descendants depth-first.
func (p *EclipseProject) Walk(fn func(*EclipseProject)) {
	fn(p)
	for i := range p.Children {
		p.Children[i].Walk(fn)
	}
}
