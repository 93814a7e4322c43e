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

package pipeline

import (
	"bytes"
	"context"
	"encoding/binary"
	"sort"
	"strings"

	"github.com/jwelling/mripipes/internal/dataset"
)

// FileInputTool has no sinks. It enumerates every key in a dataset store
// at construction time and exposes one Source per chunk-bearing key.
// Scalar keys named "<chunk>.<attr>" become attribute entries on that
// chunk's source; "!"-prefixed keys are comments and are skipped
// entirely; any other scalar key is collected under a synthetic
// "orphans" source whose typed accessors always abort, since it carries
// no chunk data of its own — only the dataset-level metadata reachable
// through its Attrs.
type FileInputTool struct {
	BaseTool
	store dataset.Store
}

// Destroy closes the input store, then drops the tool's ports.
func (t *FileInputTool) Destroy() {
	if t.store != nil {
		t.store.Close()
	}
	t.BaseTool.Destroy()
}

// NewFileInputTool opens the dataset's key namespace and builds the
// source set. A failure to enumerate keys (e.g. the underlying store
// cannot be opened for read) is reported as an ordinary error, not a
// panic: this mirrors the non-fatal "cannot open dataset" construction
// path used elsewhere in this package, as opposed to a true structural
// violation discovered once the graph is already built.
func NewFileInputTool(arena *Arena, store dataset.Store) (*FileInputTool, error) {
	ctx := context.Background()
	keys, err := store.IterateKeys(ctx)
	if err != nil {
		return nil, err
	}

	t := &FileInputTool{store: store}
	t.TypeName = "file_input"

	chunkBases := map[string]bool{}
	for _, k := range keys {
		if strings.HasPrefix(k, "!") {
			continue
		}
		isChunk, err := store.IsChunk(ctx, k)
		if err != nil {
			return nil, err
		}
		if isChunk {
			chunkBases[k] = true
		}
	}

	scalarAttrs := map[string]map[string]string{}
	orphanAttrs := map[string]string{}
	for _, k := range keys {
		if strings.HasPrefix(k, "!") || chunkBases[k] {
			continue
		}
		v, err := store.GetString(ctx, k)
		if err != nil {
			return nil, err
		}
		base := matchingChunkBase(k, chunkBases)
		if base == "" {
			orphanAttrs[k] = v
			continue
		}
		if scalarAttrs[base] == nil {
			scalarAttrs[base] = map[string]string{}
		}
		scalarAttrs[base][k[len(base)+1:]] = v
	}

	var bases []string
	for base := range chunkBases {
		bases = append(bases, base)
	}
	sort.Strings(bases)

	for _, base := range bases {
		src := NewSource(t)
		src.Name = base
		for sub, v := range scalarAttrs[base] {
			src.Attrs.Define(sub, v)
		}
		dt := GetSourceDataType(src)
		wireChunkAccessor(t, src, base, dt)
		t.AddSource(src)
	}

	orphans := NewSource(t)
	orphans.Name = "orphans"
	for k, v := range orphanAttrs {
		orphans.Attrs.Define(k, v)
	}
	abortAccessor := func(size, offset int64, elemName string) {
		Abort(t.TypeName, "the orphans source carries no chunk data (key %q)", elemName)
	}
	orphans.GetUint8 = func(size, offset int64, buf []uint8) (int64, error) {
		abortAccessor(size, offset, "orphans")
		return 0, nil
	}
	orphans.GetInt16 = func(size, offset int64, buf []int16) (int64, error) {
		abortAccessor(size, offset, "orphans")
		return 0, nil
	}
	orphans.GetInt32 = func(size, offset int64, buf []int32) (int64, error) {
		abortAccessor(size, offset, "orphans")
		return 0, nil
	}
	orphans.GetInt64 = func(size, offset int64, buf []int64) (int64, error) {
		abortAccessor(size, offset, "orphans")
		return 0, nil
	}
	orphans.GetFloat32 = func(size, offset int64, buf []float32) (int64, error) {
		abortAccessor(size, offset, "orphans")
		return 0, nil
	}
	orphans.GetFloat64 = func(size, offset int64, buf []float64) (int64, error) {
		abortAccessor(size, offset, "orphans")
		return 0, nil
	}
	t.AddSource(orphans)

	arena.Own(t)
	return t, nil
}

func matchingChunkBase(key string, bases map[string]bool) string {
	for base := range bases {
		if strings.HasPrefix(key, base+".") {
			return base
		}
	}
	return ""
}

func wireChunkAccessor(t *FileInputTool, src *Source, key string, dt DataType) {
	switch dt {
	case Uint8:
		src.GetUint8 = func(size, offset int64, buf []uint8) (int64, error) {
			return readTypedChunk(t.store, key, dt.ElemSize(), size, offset, buf)
		}
	case Int16:
		src.GetInt16 = func(size, offset int64, buf []int16) (int64, error) {
			return readTypedChunk(t.store, key, dt.ElemSize(), size, offset, buf)
		}
	case Int32:
		src.GetInt32 = func(size, offset int64, buf []int32) (int64, error) {
			return readTypedChunk(t.store, key, dt.ElemSize(), size, offset, buf)
		}
	case Int64:
		src.GetInt64 = func(size, offset int64, buf []int64) (int64, error) {
			return readTypedChunk(t.store, key, dt.ElemSize(), size, offset, buf)
		}
	case Float32:
		src.GetFloat32 = func(size, offset int64, buf []float32) (int64, error) {
			return readTypedChunk(t.store, key, dt.ElemSize(), size, offset, buf)
		}
	case Float64:
		src.GetFloat64 = func(size, offset int64, buf []float64) (int64, error) {
			return readTypedChunk(t.store, key, dt.ElemSize(), size, offset, buf)
		}
	}
}

// readTypedChunk reads size elements at offset from key into buf, via a
// plain byte buffer decoded with encoding/binary: every Element type is
// fixed-width and binary.Read-compatible, so this single generic helper
// covers all six accessors without six hand-written decode loops.
func readTypedChunk[T Element](store dataset.Store, key string, elemSize int, size, offset int64, buf []T) (int64, error) {
	raw := make([]byte, size*int64(elemSize))
	n, err := store.ReadChunk(context.Background(), key, offset, size, raw)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, nil
	}
	if err := binary.Read(bytes.NewReader(raw[:n*int64(elemSize)]), binary.LittleEndian, buf[:n]); err != nil {
		return 0, err
	}
	return n, nil
}
