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

// Package query runs jq expressions over a dataset's metadata tree, for
// `mripipes inspect --query <jq-expr>`.
package query

import (
	"context"
	"fmt"
	"time"

	"github.com/itchyny/gojq"

	"github.com/jwelling/mripipes/internal/dataset"
)

// DefaultTimeout bounds how long a single query may run.
const DefaultTimeout = 1 * time.Second

// Tree builds the attribute/chunk metadata tree for store: a map from
// chunk-bearing key to its scalar attributes, plus a top-level "orphans"
// entry for every scalar key that isn't namespaced under a chunk. This is
// the key/value partition pipeline.FileInputTool performs, recomputed
// here read-only for inspection rather than wired into an accessor, except
// that "!"-prefixed comment keys are kept rather than skipped.
func Tree(ctx context.Context, store dataset.Store) (map[string]any, error) {
	keys, err := store.IterateKeys(ctx)
	if err != nil {
		return nil, err
	}

	chunkBases := map[string]bool{}
	for _, k := range keys {
		isChunk, err := store.IsChunk(ctx, k)
		if err != nil {
			return nil, err
		}
		if isChunk {
			chunkBases[k] = true
		}
	}

	tree := map[string]any{}
	orphans := map[string]any{}
	for _, k := range keys {
		if chunkBases[k] {
			if _, ok := tree[k]; !ok {
				tree[k] = map[string]any{}
			}
			continue
		}
		v, err := store.GetString(ctx, k)
		if err != nil {
			return nil, err
		}
		base, sub := splitAttrKey(k, chunkBases)
		if base == "" {
			orphans[k] = v
			continue
		}
		attrs, _ := tree[base].(map[string]any)
		if attrs == nil {
			attrs = map[string]any{}
		}
		attrs[sub] = v
		tree[base] = attrs
	}
	if len(orphans) > 0 {
		tree["orphans"] = orphans
	}
	return tree, nil
}

func splitAttrKey(key string, bases map[string]bool) (base, sub string) {
	for b := range bases {
		prefix := b + "."
		if len(key) > len(prefix) && key[:len(prefix)] == prefix {
			return b, key[len(prefix):]
		}
	}
	return "", ""
}

// Run evaluates expression against data, returning a single value if the
// program produces exactly one, or a slice if it produces several.
func Run(ctx context.Context, expression string, data any) (any, error) {
	if expression == "" {
		return data, nil
	}

	query, err := gojq.Parse(expression)
	if err != nil {
		return nil, fmt.Errorf("query: parse %q: %w", expression, err)
	}
	code, err := gojq.Compile(query)
	if err != nil {
		return nil, fmt.Errorf("query: compile %q: %w", expression, err)
	}

	runCtx, cancel := context.WithTimeout(ctx, DefaultTimeout)
	defer cancel()

	type result struct {
		values []any
		err    error
	}
	done := make(chan result, 1)
	go func() {
		iter := code.Run(data)
		var values []any
		for {
			v, ok := iter.Next()
			if !ok {
				break
			}
			if err, isErr := v.(error); isErr {
				done <- result{err: err}
				return
			}
			values = append(values, v)
		}
		done <- result{values: values}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return nil, r.err
		}
		switch len(r.values) {
		case 0:
			return nil, nil
		case 1:
			return r.values[0], nil
		default:
			return r.values, nil
		}
	case <-runCtx.Done():
		return nil, fmt.Errorf("query: execution timed out after %v", DefaultTimeout)
	}
}
