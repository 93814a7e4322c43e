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

// Package batch expands a glob pattern into a sorted list of dataset
// files, for `mripipes run --glob '<pattern>' graph.yaml` to run one
// graph template against each matched input.
package batch

import (
	"fmt"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// Expand returns every path matching pattern, sorted for a deterministic
// run order. pattern supports doublestar's extended glob syntax (**, ?,
// [class]) in addition to filepath.Glob's *.
func Expand(pattern string) ([]string, error) {
	matches, err := doublestar.FilepathGlob(pattern)
	if err != nil {
		return nil, fmt.Errorf("batch: glob %q: %w", pattern, err)
	}
	sort.Strings(matches)
	return matches, nil
}

// Item pairs a matched input path with the zero-based index it occupies
// in the expanded batch, so a caller can template an output path (e.g.
// substituting the input path into a graph's file_output store param).
type Item struct {
	Index int
	Path  string
}

// ExpandIndexed is Expand with each result's position attached.
func ExpandIndexed(pattern string) ([]Item, error) {
	paths, err := Expand(pattern)
	if err != nil {
		return nil, err
	}
	items := make([]Item, len(paths))
	for i, p := range paths {
		items[i] = Item{Index: i, Path: p}
	}
	return items, nil
}
