// Copyright 2026 The mripipes Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package errors provides shared error types for configuration and graph
// validation failures at the CLI layer. The pipeline core's own
// construction/structural-mismatch failures are represented by
// pipeline.FatalError instead, since those are always fatal and panic at
// the point of discovery; these types are for errors a command can
// report and return from normally.
package errors

import "fmt"

// ValidationError represents invalid user input: a malformed pipeline
// YAML document, an out-of-range flag value, a config file that fails
// its own schema checks.
type ValidationError struct {
	Field      string
	Message    string
	Suggestion string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

// NotFoundError represents a missing named resource: a dataset key, a
// pipeline node referenced by a connection that was never declared.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

// StructuralError represents a graph that does not type-check: a
// connection between incompatible shapes, a cycle, a dangling sink.
// Distinct from pipeline.FatalError in that it is raised while building
// a graph from a declarative definition, before any tool exists to abort
// from.
type StructuralError struct {
	Node    string
	Message string
}

func (e *StructuralError) Error() string {
	if e.Node != "" {
		return fmt.Sprintf("structural error at %s: %s", e.Node, e.Message)
	}
	return fmt.Sprintf("structural error: %s", e.Message)
}
