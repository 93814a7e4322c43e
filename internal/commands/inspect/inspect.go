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

// Package inspect implements `mripipes inspect`.
package inspect

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jwelling/mripipes/internal/graph"
	"github.com/jwelling/mripipes/internal/query"
	"github.com/jwelling/mripipes/internal/style"
)

// NewCommand builds the inspect subcommand: it opens a dataset store
// read-only and prints its chunk/attribute tree, optionally filtered
// through a jq expression.
func NewCommand() *cobra.Command {
	var queryExpr string

	cmd := &cobra.Command{
		Use:   "inspect <store-uri>",
		Short: "Print a dataset store's chunk and attribute tree",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			store, err := graph.OpenStore(ctx, args[0])
			if err != nil {
				return fmt.Errorf("inspect: open %s: %w", args[0], err)
			}
			defer store.Close()

			tree, err := query.Tree(ctx, store)
			if err != nil {
				return err
			}

			if queryExpr == "" {
				fmt.Fprint(cmd.OutOrStdout(), style.RenderTree(tree))
				return nil
			}

			result, err := query.Run(ctx, queryExpr, tree)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%v\n", result)
			return nil
		},
	}

	cmd.Flags().StringVar(&queryExpr, "query", "", "jq expression to evaluate against the dataset's metadata tree")

	return cmd
}
