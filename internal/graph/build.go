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
	"strings"

	"github.com/jwelling/mripipes/internal/dataset"
	"github.com/jwelling/mripipes/internal/pipeline"
	mripipeserrors "github.com/jwelling/mripipes/pkg/errors"
)

// nodeParams is the decoded shape of NodeDefinition.Params; every field
// is optional and only consulted by the tool types that need it.
type nodeParams struct {
	Dims    string   `yaml:"dims"`
	Extent  string   `yaml:"extent"`
	Shift   int64    `yaml:"shift"`
	Fill    float64  `yaml:"fill"`
	Dim     string   `yaml:"dim"`
	NewDim  string   `yaml:"newdim"`
	Preset  string   `yaml:"preset"`
	Extent1 int64    `yaml:"extent1"`
	Extent2 int64    `yaml:"extent2"`
	RowLen  int64    `yaml:"row_len"`
	MaxLag  int64    `yaml:"max_lag"`
	NInputs int64    `yaml:"n_inputs"`
	Tokens  []string `yaml:"tokens"`
	Complex bool     `yaml:"complex"`
	Store   string   `yaml:"store"`
}

// Build wires a pipeline.Arena from def. storeOpener resolves a "store"
// param (a sqlite path or "s3://bucket/prefix" URI) to an open
// dataset.Store for file_input/file_output nodes; pass OpenStore unless a
// caller needs a different resolution policy (e.g. tests with an
// in-memory fake).
func Build(def *Definition, storeOpener func(ctx context.Context, uri string) (dataset.Store, error)) (*pipeline.Arena, map[string]*pipeline.Source, error) {
	if err := Validate(def); err != nil {
		return nil, nil, err
	}

	arena := pipeline.NewArena()
	tools := make(map[string]pipeline.Tool, len(def.Tools))
	sources := make(map[string]*pipeline.Source, len(def.Tools))

	order, err := topoSort(def)
	if err != nil {
		return nil, nil, err
	}

	byName := make(map[string]*NodeDefinition, len(def.Tools))
	for i := range def.Tools {
		byName[def.Tools[i].Name] = &def.Tools[i]
	}

	for _, name := range order {
		n := byName[name]
		var p nodeParams
		if n.Params.Kind != 0 {
			if err := n.Params.Decode(&p); err != nil {
				return nil, nil, mripipeserrors.Wrapf(err, "graph: node %q: decode params", n.Name)
			}
		}

		upstream := make([]*pipeline.Source, len(n.Sinks))
		for i, sinkName := range n.Sinks {
			src, ok := sources[sinkName]
			if !ok {
				return nil, nil, &mripipeserrors.NotFoundError{Resource: "node", ID: sinkName}
			}
			upstream[i] = src
		}

		tool, src, err := buildNode(arena, n, p, upstream, storeOpener)
		if err != nil {
			return nil, nil, err
		}
		tools[name] = tool
		if src != nil {
			sources[name] = src
		}
	}

	return arena, sources, nil
}

func buildNode(arena *pipeline.Arena, n *NodeDefinition, p nodeParams, upstream []*pipeline.Source, storeOpener func(context.Context, string) (dataset.Store, error)) (pipeline.Tool, *pipeline.Source, error) {
	switch n.Type {
	case "zero_source":
		t, err := pipeline.NewZeroSourceTool(arena, p.Dims, p.Extent)
		if err != nil {
			return nil, nil, err
		}
		return t, t.Sources[0], nil

	case "pad":
		if len(p.Dim) != 1 {
			return nil, nil, &mripipeserrors.ValidationError{Field: n.Name + ".dim", Message: "must be exactly one character"}
		}
		t := pipeline.NewPadTool(arena, p.Dim[0], parseExtent(p.Extent), p.Shift, p.Fill)
		t.Sinks[0].Connect(upstream[0])
		return t, t.Sources[0], nil

	case "block_map":
		if len(p.Dim) != 1 || len(p.NewDim) != 1 {
			return nil, nil, &mripipeserrors.ValidationError{Field: n.Name, Message: "dim and newdim must each be exactly one character"}
		}
		if p.Extent1 <= 0 || p.Extent2 <= 0 {
			return nil, nil, &mripipeserrors.ValidationError{Field: n.Name, Message: "extent1 and extent2 must both be positive integers"}
		}
		initFn, remapFn, err := blockMapPreset(p.Preset)
		if err != nil {
			return nil, nil, err
		}
		t := pipeline.NewBlockMapTool(arena, p.Dim[0], p.NewDim[0], p.Extent1, p.Extent2, initFn, remapFn)
		t.Sinks[0].Connect(upstream[0])
		return t, t.Sources[0], nil

	case "special":
		t := pipeline.NewSpecialTool(arena, p.RowLen, p.MaxLag)
		t.Sinks[0].Connect(upstream[0])
		t.Sinks[1].Connect(upstream[1])
		return t, t.Sources[0], nil

	case "rpn_math":
		t := pipeline.NewRPNMathTool(arena, p.Tokens, p.Complex)
		for i, src := range upstream {
			t.Connect(i, src)
		}
		return t, t.Sources[0], nil

	case "passthru":
		t := pipeline.NewPassthruTool(arena)
		t.Sinks[0].Connect(upstream[0])
		return t, t.Sources[0], nil

	case "devnull":
		t := pipeline.NewDevnullTool(arena)
		t.Sinks[0].Connect(upstream[0])
		return t, nil, nil

	case "file_input":
		store, err := storeOpener(context.Background(), p.Store)
		if err != nil {
			return nil, nil, err
		}
		t, err := pipeline.NewFileInputTool(arena, store)
		if err != nil {
			return nil, nil, err
		}
		var src *pipeline.Source
		if len(t.Sources) > 0 {
			src = t.Sources[0]
		}
		return t, src, nil

	case "file_output":
		store, err := storeOpener(context.Background(), p.Store)
		if err != nil {
			return nil, nil, err
		}
		t := pipeline.NewFileOutputTool(arena, store)
		for i, src := range upstream {
			t.Connect(i, src)
		}
		return t, nil, nil

	default:
		return nil, nil, &mripipeserrors.ValidationError{Field: n.Name + ".type", Message: fmt.Sprintf("unrecognized tool type %q", n.Type)}
	}
}

func parseExtent(s string) int64 {
	var n int64
	fmt.Sscanf(s, "%d", &n)
	return n
}

// blockMapPreset resolves a named remap strategy to a pair of callbacks,
// since a YAML document cannot encode an arbitrary Go closure. "split"
// (the default, and the only strategy that doesn't reorder data) relabels
// dim's upstream extent as two output dimensions without touching
// offsets: the identity remap, matching the original's plain split usage
// and spec scenario 6.
func blockMapPreset(preset string) (pipeline.BlockMapInitFunc, pipeline.BlockMapRemapFunc, error) {
	switch preset {
	case "", "split":
		return nil, nil, nil
	default:
		return nil, nil, &mripipeserrors.ValidationError{Field: "block_map.preset", Message: fmt.Sprintf("unrecognized preset %q", preset)}
	}
}

// topoSort orders nodes so that every node's Sinks are built before the
// node itself, reporting a StructuralError on a cycle or a missing
// reference.
func topoSort(def *Definition) ([]string, error) {
	const (
		white = iota
		gray
		black
	)
	color := make(map[string]int, len(def.Tools))
	byName := make(map[string]*NodeDefinition, len(def.Tools))
	for i := range def.Tools {
		byName[def.Tools[i].Name] = &def.Tools[i]
		color[def.Tools[i].Name] = white
	}

	var order []string
	var visit func(name string, path []string) error
	visit = func(name string, path []string) error {
		switch color[name] {
		case black:
			return nil
		case gray:
			return &mripipeserrors.StructuralError{Node: name, Message: "cycle detected: " + strings.Join(append(path, name), " -> ")}
		}
		color[name] = gray
		n := byName[name]
		for _, s := range n.Sinks {
			if _, ok := byName[s]; !ok {
				return &mripipeserrors.NotFoundError{Resource: "node", ID: s}
			}
			if err := visit(s, append(path, name)); err != nil {
				return err
			}
		}
		color[name] = black
		order = append(order, name)
		return nil
	}

	for i := range def.Tools {
		if err := visit(def.Tools[i].Name, nil); err != nil {
			return nil, err
		}
	}
	return order, nil
}

// OpenStore resolves a "store" param to an open dataset.Store: a bare
// path or "sqlite:<path>" opens a SQLiteStore, "s3://bucket/prefix" opens
// an S3Store.
func OpenStore(ctx context.Context, uri string) (dataset.Store, error) {
	if strings.HasPrefix(uri, "s3://") {
		rest := strings.TrimPrefix(uri, "s3://")
		bucket, prefix, _ := strings.Cut(rest, "/")
		return dataset.OpenS3Store(ctx, bucket, prefix)
	}
	path := strings.TrimPrefix(uri, "sqlite:")
	return dataset.OpenSQLiteStore(ctx, path)
}
