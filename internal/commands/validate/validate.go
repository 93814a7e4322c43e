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

// Package validate implements `mripipes validate`.
package validate

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/jwelling/mripipes/internal/graph"
	"github.com/jwelling/mripipes/internal/style"
)

// NewCommand builds the validate subcommand: it structurally checks a
// graph definition (unique names, resolvable edges, arity, no cycles)
// without opening any store or constructing a pipeline.Arena.
func NewCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <graph.yaml>",
		Short: "Check a pipeline graph for structural errors without running it",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("validate: read %s: %w", args[0], err)
			}
			def, err := graph.Parse(data)
			if err != nil {
				return fmt.Errorf("validate: parse %s: %w", args[0], err)
			}
			if err := graph.Validate(def); err != nil {
				return err
			}

			names := make([]string, len(def.Tools))
			for i, n := range def.Tools {
				names[i] = n.Name
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%q is valid (%d nodes):\n", def.Name, len(def.Tools))
			fmt.Fprint(cmd.OutOrStdout(), style.RenderGraphSummary(names))
			return nil
		},
	}
}
