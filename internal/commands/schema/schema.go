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

// Package schema implements `mripipes schema`, printing the reference
// listing of graph YAML node types and their parameters.
package schema

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
)

// nodeSchema documents one tool type's params field for `mripipes schema`.
type nodeSchema struct {
	Type   string
	Sinks  string
	Params string
}

var nodeSchemas = []nodeSchema{
	{"zero_source", "none", "dims (string), extent (string)"},
	{"pad", "1", "dim (string), extent (string), shift (int), fill (float)"},
	{"block_map", "1", "dim (string), newdim (string), extent1 (int), extent2 (int), preset (string, default \"split\")"},
	{"special", "2", "row_len (int), max_lag (int)"},
	{"rpn_math", "1..N (grows on connect)", "tokens ([]string), complex (bool)"},
	{"passthru", "1", "none"},
	{"devnull", "1", "none"},
	{"file_input", "none", "store (string: sqlite path or s3://bucket/prefix)"},
	{"file_output", "1..N (grows on connect)", "store (string: sqlite path or s3://bucket/prefix)"},
}

// NewCommand builds the schema subcommand.
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Print the graph YAML node types and their parameters",
		RunE: func(cmd *cobra.Command, args []string) error {
			schemas := append([]nodeSchema(nil), nodeSchemas...)
			sort.Slice(schemas, func(i, j int) bool { return schemas[i].Type < schemas[j].Type })

			var b strings.Builder
			for _, s := range schemas {
				fmt.Fprintf(&b, "%s\n  sinks:  %s\n  params: %s\n", s.Type, s.Sinks, s.Params)
			}
			fmt.Fprint(cmd.OutOrStdout(), b.String())
			return nil
		},
	}
}
