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

// Package initcmd implements `mripipes init`, an interactive wizard that
// writes a starter graph YAML. Named initcmd rather than init to avoid
// colliding with Go's package-level init function name.
package initcmd

import (
	"fmt"
	"os"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

// NewCommand builds the init subcommand.
func NewCommand() *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Interactively scaffold a pipeline graph YAML file",
		RunE: func(cmd *cobra.Command, args []string) error {
			var (
				name       string
				inputStore string
				transform  string
				outputPath string
			)

			form := huh.NewForm(
				huh.NewGroup(
					huh.NewInput().
						Title("Graph name").
						Value(&name).
						Validate(func(s string) error {
							if strings.TrimSpace(s) == "" {
								return fmt.Errorf("a graph name is required")
							}
							return nil
						}),
					huh.NewInput().
						Title("Input dataset store (sqlite path or s3://bucket/prefix)").
						Value(&inputStore),
					huh.NewSelect[string]().
						Title("Transform to apply between input and output").
						Options(
							huh.NewOption("none (passthru)", "passthru"),
							huh.NewOption("pad", "pad"),
							huh.NewOption("block_map", "block_map"),
							huh.NewOption("rpn_math", "rpn_math"),
						).
						Value(&transform),
					huh.NewInput().
						Title("Output dataset store").
						Value(&outputPath),
				),
			)

			if err := form.Run(); err != nil {
				return fmt.Errorf("init: wizard cancelled: %w", err)
			}

			doc := render(name, inputStore, transform, outputPath)

			if outPath == "" {
				fmt.Fprint(cmd.OutOrStdout(), doc)
				return nil
			}
			if err := os.WriteFile(outPath, []byte(doc), 0o644); err != nil {
				return fmt.Errorf("init: write %s: %w", outPath, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", outPath)
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "output", "o", "", "write the generated graph to this path instead of stdout")

	return cmd
}

func render(name, inputStore, transform, outputStore string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "name: %s\n", name)
	fmt.Fprintln(&b, "tools:")
	fmt.Fprintln(&b, "  - name: src")
	fmt.Fprintln(&b, "    type: file_input")
	fmt.Fprintf(&b, "    params:\n      store: %q\n", inputStore)

	upstream := "src"
	if transform != "" && transform != "passthru" {
		fmt.Fprintln(&b, "  - name: xform")
		fmt.Fprintf(&b, "    type: %s\n", transform)
		fmt.Fprintln(&b, "    sinks: [src]")
		fmt.Fprintln(&b, "    params: {}")
		upstream = "xform"
	} else {
		fmt.Fprintln(&b, "  - name: xform")
		fmt.Fprintln(&b, "    type: passthru")
		fmt.Fprintln(&b, "    sinks: [src]")
		upstream = "xform"
	}

	fmt.Fprintln(&b, "  - name: out")
	fmt.Fprintln(&b, "    type: file_output")
	fmt.Fprintf(&b, "    sinks: [%s]\n", upstream)
	fmt.Fprintf(&b, "    params:\n      store: %q\n", outputStore)
	return b.String()
}
