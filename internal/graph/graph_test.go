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
	"context"
	"fmt"
	"testing"

	"github.com/jwelling/mripipes/internal/dataset"
	"github.com/stretchr/testify/require"
)

const simpleGraph = `
name: pad-demo
tools:
  - name: src
    type: zero_source
    params:
      dims: "xyz"
      extent: "4:4:4"
  - name: padded
    type: pad
    sinks: [src]
    params:
      dim: z
      extent: 6
      shift: 1
      fill: 7.0
  - name: sink
    type: devnull
    sinks: [padded]
`

func TestParseAndBuild(t *testing.T) {
	def, err := Parse([]byte(simpleGraph))
	require.NoError(t, err)
	require.Equal(t, "pad-demo", def.Name)
	require.Len(t, def.Tools, 3)

	arena, sources, err := Build(def, failingStoreOpener)
	require.NoError(t, err)
	require.NoError(t, arena.InitAll())
	require.Contains(t, sources, "src")
	require.Contains(t, sources, "padded")
	require.NotContains(t, sources, "sink")
}

func TestValidateRejectsUnknownSink(t *testing.T) {
	def, err := Parse([]byte(`
tools:
  - name: only
    type: devnull
    sinks: [missing]
`))
	require.NoError(t, err)
	require.Error(t, Validate(def))
}

func TestValidateRejectsDuplicateName(t *testing.T) {
	def, err := Parse([]byte(`
tools:
  - name: a
    type: zero_source
    params: {dims: "x", extent: "4"}
  - name: a
    type: devnull
    sinks: [a]
`))
	require.NoError(t, err)
	require.Error(t, Validate(def))
}

func TestValidateRejectsCycle(t *testing.T) {
	def, err := Parse([]byte(`
tools:
  - name: a
    type: passthru
    sinks: [b]
  - name: b
    type: passthru
    sinks: [a]
`))
	require.NoError(t, err)
	require.Error(t, Validate(def))
}

func TestValidateRejectsWrongArity(t *testing.T) {
	def, err := Parse([]byte(`
tools:
  - name: a
    type: zero_source
    params: {dims: "x", extent: "4"}
  - name: b
    type: zero_source
    params: {dims: "x", extent: "4"}
  - name: s
    type: special
    sinks: [a, b, a]
    params: {row_len: 4, max_lag: 1}
`))
	require.NoError(t, err)
	require.Error(t, Validate(def))
}

func failingStoreOpener(ctx context.Context, uri string) (dataset.Store, error) {
	return nil, fmt.Errorf("no dataset store in this test: %s", uri)
}
