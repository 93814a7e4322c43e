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

// Package style renders dataset and pipeline trees for `mripipes inspect`.
package style

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"golang.org/x/term"
)

var (
	chunkStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	attrStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
)

func init() {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		chunkStyle = chunkStyle.UnsetForeground()
		attrStyle = attrStyle.UnsetForeground()
		valueStyle = valueStyle.UnsetForeground()
	}
}

// RenderTree renders a dataset metadata tree (as produced by
// query.Tree) as an indented listing: one bold line per chunk-bearing
// key, its attributes dimmed underneath.
func RenderTree(tree map[string]any) string {
	bases := make([]string, 0, len(tree))
	for base := range tree {
		bases = append(bases, base)
	}
	sort.Strings(bases)

	var b strings.Builder
	for _, base := range bases {
		fmt.Fprintln(&b, chunkStyle.Render(base))
		attrs, _ := tree[base].(map[string]any)
		if len(attrs) == 0 {
			continue
		}
		keys := make([]string, 0, len(attrs))
		for k := range attrs {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Fprintf(&b, "  %s %s\n", attrStyle.Render(k+":"), valueStyle.Render(fmt.Sprint(attrs[k])))
		}
	}
	return b.String()
}

// RenderGraphSummary renders a one-line-per-node summary of a built
// graph, e.g. for `mripipes validate`'s success output.
func RenderGraphSummary(nodeNames []string) string {
	var b strings.Builder
	for _, name := range nodeNames {
		fmt.Fprintln(&b, chunkStyle.Render("- ")+valueStyle.Render(name))
	}
	return b.String()
}
