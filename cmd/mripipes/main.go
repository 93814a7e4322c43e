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

package main

import (
	"fmt"
	"os"

	"github.com/jwelling/mripipes/internal/cli"
	"github.com/jwelling/mripipes/internal/pipeline"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "mripipes: %v\n", err)
		os.Exit(1)
	}
}

// run wraps cobra's Execute in the pipeline package's panic-recovery
// boundary: a *pipeline.FatalError raised deep inside a tool's Init or
// Execute (a construction/structural error with no recoverable path)
// unwinds here rather than crashing the process with a bare stack trace.
func run() (err error) {
	defer pipeline.Recover(&err)

	rootCmd := cli.NewRootCommand()
	return rootCmd.Execute()
}
