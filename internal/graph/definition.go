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

// Package graph loads a declarative YAML pipeline definition and wires a
// pipeline.Arena from it, the way the original program's main() wired
// tool graphs by hand in C.
package graph

import "gopkg.in/yaml.v3"

// Definition is a YAML-based pipeline definition: an ordered list of tool
// nodes and, implicitly, the edges formed by each node's "sinks" field
// naming upstream node names.
type Definition struct {
	// Name identifies this graph, used as the "graph" label on metrics.
	Name string `yaml:"name"`

	// Tools are the pipeline's nodes, in any order: Build resolves edges
	// by name and does not require upstream nodes to be listed first.
	Tools []NodeDefinition `yaml:"tools"`
}

// NodeDefinition is one tool in the graph.
type NodeDefinition struct {
	// Name uniquely identifies this node within the graph; other nodes
	// reference it via their own Sinks list.
	Name string `yaml:"name"`

	// Type selects the tool constructor: one of zero_source, pad,
	// block_map, special, rpn_math, file_input, file_output, passthru,
	// devnull.
	Type string `yaml:"type"`

	// Sinks names the upstream node(s) feeding this node's sinks in
	// order. Most tools take exactly one; rpn_math and file_output grow
	// to however many are listed.
	Sinks []string `yaml:"sinks,omitempty"`

	// Params carries the type-specific constructor arguments (dims,
	// extent, shift, fill, dim, newdim, preset, extent1, extent2, row_len,
	// max_lag, n_inputs, tokens, complex, store) as raw YAML, decoded per
	// Type in build.go.
	Params yaml.Node `yaml:"params,omitempty"`
}

// Parse decodes a YAML document into a Definition. It does not validate
// or build the graph; call Validate and then Build for that.
func Parse(data []byte) (*Definition, error) {
	var def Definition
	if err := yaml.Unmarshal(data, &def); err != nil {
		return nil, err
	}
	return &def, nil
}
