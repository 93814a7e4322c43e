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

package graph

import (
	"fmt"

	mripipeserrors "github.com/jwelling/mripipes/pkg/errors"
)

var fanInArity = map[string]int{
	"zero_source": 0,
	"pad":         1,
	"block_map":   1,
	"special":     2,
	"passthru":    1,
	"devnull":     1,
	"file_input":  0,
}

// Validate checks def structurally: unique node names, every Sinks entry
// referencing a declared node, and fixed-arity tool types receiving
// exactly the sinks they require. rpn_math and file_output are variadic
// (dynamic sink growth) and are not arity-checked here.
func Validate(def *Definition) error {
	if len(def.Tools) == 0 {
		return &mripipeserrors.ValidationError{Field: "tools", Message: "a graph must declare at least one tool"}
	}

	seen := make(map[string]bool, len(def.Tools))
	for _, n := range def.Tools {
		if n.Name == "" {
			return &mripipeserrors.ValidationError{Field: "tools[].name", Message: "node name must not be empty"}
		}
		if seen[n.Name] {
			return &mripipeserrors.ValidationError{Field: "tools[].name", Message: fmt.Sprintf("duplicate node name %q", n.Name)}
		}
		seen[n.Name] = true
	}

	for _, n := range def.Tools {
		for _, s := range n.Sinks {
			if !seen[s] {
				return &mripipeserrors.NotFoundError{Resource: "node", ID: s}
			}
		}
		if want, ok := fanInArity[n.Type]; ok && len(n.Sinks) != want {
			return &mripipeserrors.StructuralError{
				Node:    n.Name,
				Message: fmt.Sprintf("tool type %q requires exactly %d sink(s), got %d", n.Type, want, len(n.Sinks)),
			}
		}
	}

	if _, err := topoSort(def); err != nil {
		return err
	}
	return nil
}
