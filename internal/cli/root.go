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

// Package cli assembles the mripipes root command and global flags.
package cli

import (
	"github.com/spf13/cobra"

	"github.com/jwelling/mripipes/internal/commands/initcmd"
	"github.com/jwelling/mripipes/internal/commands/inspect"
	"github.com/jwelling/mripipes/internal/commands/run"
	"github.com/jwelling/mripipes/internal/commands/schema"
	"github.com/jwelling/mripipes/internal/commands/validate"
)

// Globals holds the persistent flags every subcommand reads.
type Globals struct {
	ConfigPath string
	Verbose    bool
}

// NewRootCommand builds the mripipes root command with every subcommand
// attached.
func NewRootCommand() *cobra.Command {
	g := &Globals{}

	cmd := &cobra.Command{
		Use:   "mripipes",
		Short: "Pull-based streaming pipelines over multidimensional scan data",
		Long: `mripipes builds and runs declarative pull-based pipelines over
multidimensional (typically fMRI) scan data: sources, transforms, and
sinks wired from a YAML graph, pulled element-by-element with no
parallelism and no implicit type promotion.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&g.ConfigPath, "config", "", "path to a mripipes config YAML file")
	cmd.PersistentFlags().BoolVarP(&g.Verbose, "verbose", "v", false, "enable debug logging")

	cmd.AddCommand(run.NewCommand(&g.ConfigPath, &g.Verbose))
	cmd.AddCommand(validate.NewCommand())
	cmd.AddCommand(inspect.NewCommand())
	cmd.AddCommand(initcmd.NewCommand())
	cmd.AddCommand(schema.NewCommand())

	return cmd
}
